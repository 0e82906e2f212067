package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/theirongolddev/homecalc/internal/cli"
	"github.com/theirongolddev/homecalc/internal/model"
	"github.com/theirongolddev/homecalc/internal/state"

	"github.com/spf13/cobra"
)

const defaultShareBase = "https://homecalc.app/"

var (
	flagShareBase  string
	flagShareApply bool
)

var shareCmd = &cobra.Command{
	Use:   "share",
	Short: "Create or open a share link for the current inputs",
	RunE:  runShareEncode,
}

var shareEncodeCmd = &cobra.Command{
	Use:   "encode",
	Short: "Print a share link for the saved inputs",
	RunE:  runShareEncode,
}

var shareDecodeCmd = &cobra.Command{
	Use:   "decode <link>",
	Short: "Show the inputs in a share link",
	Args:  cobra.ExactArgs(1),
	RunE:  runShareDecode,
}

func init() {
	shareCmd.PersistentFlags().StringVar(&flagShareBase, "base", defaultShareBase, "Base URL for share links")
	shareDecodeCmd.Flags().BoolVar(&flagShareApply, "apply", false, "Load the shared inputs into the calculators")
	shareCmd.AddCommand(shareEncodeCmd, shareDecodeCmd)
	rootCmd.AddCommand(shareCmd)
}

func runShareEncode(_ *cobra.Command, _ []string) error {
	ctx := context.Background()
	rt, err := openRuntime(ctx)
	if err != nil {
		return err
	}
	defer rt.Close()

	link, err := state.ShareURL(flagShareBase, rt.snap.Afford, rt.snap.Refi, rt.snap.Settings.ActiveCalc)
	if err != nil {
		return err
	}
	fmt.Println(link)
	return nil
}

func runShareDecode(_ *cobra.Command, args []string) error {
	q, err := state.ParseShare(args[0])
	if err != nil {
		return err
	}
	ctx := context.Background()
	rt, err := openRuntime(ctx)
	if err != nil {
		return err
	}
	defer rt.Close()

	snap, applied := state.ApplyShare(rt.snap, q)
	if !applied {
		return errors.New("link carries no readable calculator inputs")
	}

	fmt.Println()
	fmt.Print(cli.RenderKeyValues("Affordability", affordKVs(snap.Afford)))
	fmt.Println()
	fmt.Print(cli.RenderKeyValues("Refinance", refiKVs(snap.Refi)))
	fmt.Println()
	fmt.Printf("  Calculator: %s\n", snap.Settings.ActiveCalc)

	if !flagShareApply {
		fmt.Print(cli.RenderNote("Run again with --apply to load these inputs."))
		return nil
	}
	rt.snap = snap
	if err := rt.save(ctx); err != nil {
		return err
	}
	fmt.Println("  Inputs loaded.")
	return nil
}

func affordKVs(in model.AffordInputs) []cli.KV {
	return []cli.KV{
		{Key: "Annual income", Value: orDash(in.AnnualIncome)},
		{Key: "Monthly expenses", Value: orDash(in.Expenses)},
		{Key: "Down payment", Value: orDash(in.DownPayment)},
		{Key: "Closing costs", Value: orDash(in.ClosingCosts)},
		{Key: "Closing cost rate", Value: orDash(in.ClosingCostRate)},
		{Key: "HOA (annual)", Value: orDash(in.HOAAnnual)},
		{Key: "ZIP", Value: orDash(in.ZIPCode)},
		{Key: "Rate", Value: orDash(in.Rate)},
	}
}

func refiKVs(in model.RefiInputs) []cli.KV {
	return []cli.KV{
		{Key: "Balance", Value: orDash(in.Balance)},
		{Key: "Current rate", Value: orDash(in.CurrentRate)},
		{Key: "New rate", Value: orDash(in.NewRate)},
		{Key: "Closing costs", Value: orDash(in.ClosingCosts)},
		{Key: "Target months", Value: orDash(in.TargetMonths)},
	}
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
