package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/theirongolddev/homecalc/internal/cli"
	"github.com/theirongolddev/homecalc/internal/presets"

	"github.com/spf13/cobra"
)

var presetsCmd = &cobra.Command{
	Use:   "presets",
	Short: "List built-in example inputs",
	RunE:  runPresetsList,
}

var presetsApplyCmd = &cobra.Command{
	Use:   "apply <id>",
	Short: "Fill a calculator with a preset",
	Args:  cobra.ExactArgs(1),
	RunE:  runPresetsApply,
}

func init() {
	presetsCmd.AddCommand(presetsApplyCmd)
	rootCmd.AddCommand(presetsCmd)
}

func runPresetsList(_ *cobra.Command, _ []string) error {
	cat, err := presets.Builtin()
	if err != nil {
		return err
	}

	fmt.Println()
	fmt.Println(cli.RenderTitle("PRESETS"))
	fmt.Println()

	rows := make([][]string, 0, len(cat.Afford)+len(cat.Refi)+1)
	add := func(calc string, list []presets.Preset) {
		for _, p := range list {
			fields := make([]string, 0, len(p.Inputs))
			for _, k := range p.Fields() {
				fields = append(fields, k+"="+p.Inputs[k])
			}
			rows = append(rows, []string{p.ID, calc, p.Label, strings.Join(fields, " ")})
		}
	}
	add("afford", cat.Afford)
	rows = append(rows, []string{"---"})
	add("refi", cat.Refi)

	fmt.Print(cli.RenderTable(cli.Table{Headers: []string{"ID", "Calculator", "Label", "Inputs"}, Rows: rows}))
	fmt.Print(cli.RenderNote("Apply with `homecalc presets apply <id>`."))
	return nil
}

func runPresetsApply(_ *cobra.Command, args []string) error {
	cat, err := presets.Builtin()
	if err != nil {
		return err
	}
	p, calc, ok := cat.Find(args[0])
	if !ok {
		return fmt.Errorf("unknown preset %q", args[0])
	}

	ctx := context.Background()
	rt, err := openStateRuntime(ctx)
	if err != nil {
		return err
	}
	defer rt.Close()

	rt.snap = presets.Apply(rt.snap, p, calc)
	if err := rt.save(ctx); err != nil {
		return err
	}
	fmt.Printf("  Applied %s to %s. Run `homecalc %s` to see the result.\n", p.Label, calc, calc)
	return nil
}
