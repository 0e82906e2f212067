package cmd

import (
	"context"
	"fmt"

	"github.com/theirongolddev/homecalc/internal/cli"
	"github.com/theirongolddev/homecalc/internal/config"
	"github.com/theirongolddev/homecalc/internal/state"

	"github.com/spf13/cobra"
)

var scenariosCmd = &cobra.Command{
	Use:     "scenarios",
	Aliases: []string{"scenario"},
	Short:   "Save and restore calculator scenarios",
	RunE:    runScenariosList,
}

var scenariosListCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved scenarios",
	RunE:  runScenariosList,
}

var scenariosSaveCmd = &cobra.Command{
	Use:   "save",
	Short: "Save the current inputs as a scenario",
	RunE:  runScenariosSave,
}

var scenariosLoadCmd = &cobra.Command{
	Use:   "load <id|name>",
	Short: "Restore a saved scenario",
	Args:  cobra.ExactArgs(1),
	RunE:  runScenariosLoad,
}

var scenariosDeleteCmd = &cobra.Command{
	Use:   "delete <id|name>",
	Short: "Delete a saved scenario",
	Args:  cobra.ExactArgs(1),
	RunE:  runScenariosDelete,
}

func init() {
	scenariosCmd.AddCommand(scenariosListCmd, scenariosSaveCmd, scenariosLoadCmd, scenariosDeleteCmd)
	rootCmd.AddCommand(scenariosCmd)
}

// openStateRuntime is openRuntime for commands that need the store.
func openStateRuntime(ctx context.Context) (*runtime, error) {
	rt, err := openRuntime(ctx)
	if err != nil {
		return nil, err
	}
	if rt.store == nil {
		rt.Close()
		return nil, fmt.Errorf("state store unavailable at %s", config.StatePath(rt.cfg))
	}
	return rt, nil
}

func runScenariosList(_ *cobra.Command, _ []string) error {
	ctx := context.Background()
	rt, err := openStateRuntime(ctx)
	if err != nil {
		return err
	}
	defer rt.Close()

	if len(rt.snap.Scenarios) == 0 {
		fmt.Println("\n  No saved scenarios. Run `homecalc scenarios save`.")
		return nil
	}

	fmt.Println()
	fmt.Println(cli.RenderTitle(fmt.Sprintf("SCENARIOS  %d of %d", len(rt.snap.Scenarios), state.MaxScenarios)))
	fmt.Println()

	rows := make([][]string, 0, len(rt.snap.Scenarios))
	for _, sc := range rt.snap.Scenarios {
		qs := sc.QuickStats
		rows = append(rows, []string{
			sc.ID[:min(8, len(sc.ID))],
			sc.Name,
			sc.CreatedAt.Local().Format("Jan 2 15:04"),
			cli.FormatMoney(qs.HomePrice),
			cli.FormatMoney(qs.TotalMonthly),
			cli.FormatMonths(qs.BreakEvenMonths),
			qs.BestLoanLabel,
		})
	}
	fmt.Print(cli.RenderTable(cli.Table{
		Headers: []string{"ID", "Name", "Saved", "Price", "Monthly", "Break-even", "Best Loan"},
		Rows:    rows,
	}))
	return nil
}

func runScenariosSave(_ *cobra.Command, _ []string) error {
	ctx := context.Background()
	rt, err := openStateRuntime(ctx)
	if err != nil {
		return err
	}
	defer rt.Close()

	ev := rt.evaluate(ctx)
	stats := state.QuickStatsFor(ev.Afford, ev.Selected, ev.Refi, ev.Rates.Payload.Summary.BestRates, ev.Options)
	sc := state.NewScenario(rt.snap, stats, timeNow())
	rt.snap.Scenarios = state.AddScenario(rt.snap.Scenarios, sc)
	if err := state.SaveScenarios(ctx, rt.store, rt.snap.Scenarios); err != nil {
		return err
	}
	fmt.Printf("  Saved %s (%s)\n", sc.Name, sc.ID[:8])
	return nil
}

func runScenariosLoad(_ *cobra.Command, args []string) error {
	ctx := context.Background()
	rt, err := openStateRuntime(ctx)
	if err != nil {
		return err
	}
	defer rt.Close()

	sc, ok := state.FindScenario(rt.snap.Scenarios, args[0])
	if !ok {
		return fmt.Errorf("no scenario matches %q", args[0])
	}
	rt.snap = state.ApplyScenario(rt.snap, sc)
	if err := state.Save(ctx, rt.store, rt.snap); err != nil {
		return err
	}
	fmt.Printf("  Loaded %s. Run `homecalc %s` to see it.\n", sc.Name, rt.snap.Settings.ActiveCalc)
	return nil
}

func runScenariosDelete(_ *cobra.Command, args []string) error {
	ctx := context.Background()
	rt, err := openStateRuntime(ctx)
	if err != nil {
		return err
	}
	defer rt.Close()

	sc, ok := state.FindScenario(rt.snap.Scenarios, args[0])
	if !ok {
		return fmt.Errorf("no scenario matches %q", args[0])
	}
	rt.snap.Scenarios, _ = state.DeleteScenario(rt.snap.Scenarios, sc.ID)
	if err := state.SaveScenarios(ctx, rt.store, rt.snap.Scenarios); err != nil {
		return err
	}
	fmt.Printf("  Deleted %s\n", sc.Name)
	return nil
}
