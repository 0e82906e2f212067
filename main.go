package main

import "github.com/theirongolddev/homecalc/cmd"

func main() {
	cmd.Execute()
}
