package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/theirongolddev/homecalc/internal/cli"
	"github.com/theirongolddev/homecalc/internal/config"
	"github.com/theirongolddev/homecalc/internal/model"
	"github.com/theirongolddev/homecalc/internal/pipeline"
	"github.com/theirongolddev/homecalc/internal/rates"

	"github.com/spf13/cobra"
)

var ratesCmd = &cobra.Command{
	Use:   "rates",
	Short: "Show benchmark mortgage rates",
	RunE:  runRatesShow,
}

var ratesShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show benchmark rates from the snapshot, cache or network",
	RunE:  runRatesShow,
}

var ratesRefreshCmd = &cobra.Command{
	Use:   "refresh",
	Short: "Fetch fresh rates and update the cache",
	RunE:  runRatesRefresh,
}

var flagSnapshotOut string

var ratesSnapshotCmd = &cobra.Command{
	Use:   "snapshot",
	Short: "Fetch rates and write a static rates.json snapshot",
	RunE:  runRatesSnapshot,
}

func init() {
	ratesSnapshotCmd.Flags().StringVarP(&flagSnapshotOut, "out", "o", "", "Output path (default: configured snapshot path)")
	ratesCmd.AddCommand(ratesShowCmd, ratesRefreshCmd, ratesSnapshotCmd)
	rootCmd.AddCommand(ratesCmd)
}

func runRatesShow(_ *cobra.Command, _ []string) error {
	ctx := context.Background()
	rt, err := openRuntime(ctx)
	if err != nil {
		return err
	}
	defer rt.Close()

	res := rt.loadRates(ctx)
	if res.Status != model.StatusReady {
		return ratesUnavailable(res)
	}
	printRates(res)
	return nil
}

func runRatesRefresh(_ *cobra.Command, _ []string) error {
	if flagOffline {
		return errors.New("cannot refresh rates with --offline")
	}
	ctx := context.Background()
	rt, err := openRuntime(ctx)
	if err != nil {
		return err
	}
	defer rt.Close()

	progress("  Fetching rates...\n")
	res := rt.liveLoader(ctx).Load(ctx)
	if res.Status != model.StatusReady {
		return ratesUnavailable(res)
	}
	printRates(res)
	return nil
}

func runRatesSnapshot(_ *cobra.Command, _ []string) error {
	if flagOffline {
		return errors.New("cannot build a snapshot with --offline")
	}
	ctx := context.Background()
	rt, err := openRuntime(ctx)
	if err != nil {
		return err
	}
	defer rt.Close()

	out := flagSnapshotOut
	if out == "" {
		out = config.SnapshotPath(rt.cfg)
	}

	progress("  Fetching rates...\n")
	payload, err := rt.fredClient().FetchAll(ctx)
	if err != nil {
		return fmt.Errorf("fetching rates: %w", err)
	}
	if err := pipeline.WriteSnapshot(out, payload); err != nil {
		return err
	}
	fmt.Printf("  Wrote %d series to %s\n", len(payload.Data), out)
	return nil
}

func ratesUnavailable(res pipeline.LoadResult) error {
	fmt.Print(cli.RenderWarning("No rate data available from snapshot, cache or network."))
	if res.Err != nil {
		return res.Err
	}
	return pipeline.ErrRatesUnavailable
}

func printRates(res pipeline.LoadResult) {
	p := res.Payload
	now := timeNow()

	fmt.Println()
	fmt.Println(cli.RenderTitle("MARKET RATES"))
	fmt.Println()

	rows := make([][]string, 0, len(config.MarketCards))
	for _, card := range config.MarketCards {
		obs, ok := p.Data[card.SeriesID]
		if !ok {
			rows = append(rows, []string{card.Label, "N/A", "Unknown", ""})
			continue
		}
		date := "Unknown"
		if d, ok := obs.CalendarDate(); ok {
			date = cli.FormatRateDate(d)
		}
		note := ""
		if obs.IsStale && obs.StaleDays != nil {
			note = fmt.Sprintf("stale, %d days", *obs.StaleDays)
		}
		if obs.SourceSeriesID != "" && obs.SourceSeriesID != card.SeriesID {
			if note != "" {
				note += ", "
			}
			note += "via " + string(obs.SourceSeriesID)
		}
		rows = append(rows, []string{card.Label, cli.FormatPercent(obs.Rate), date, note})
	}
	fmt.Print(cli.RenderTable(cli.Table{Headers: []string{"Benchmark", "Rate", "As Of", "Note"}, Rows: rows}))

	best := p.Summary.BestRates
	if len(best.Available) > 0 {
		fmt.Println()
		items := make([]cli.KV, 0, 3)
		if best.Lowest != nil {
			items = append(items, cli.KV{Key: "Lowest", Value: fmt.Sprintf("%s %s", cli.FormatPercent(best.Lowest.Rate), best.Lowest.Label)})
		}
		if best.Highest != nil {
			items = append(items, cli.KV{Key: "Highest", Value: fmt.Sprintf("%s %s", cli.FormatPercent(best.Highest.Rate), best.Highest.Label)})
		}
		items = append(items, cli.KV{Key: "Spread", Value: cli.FormatBps(best.SpreadBps)})
		fmt.Print(cli.RenderKeyValues("Best Rates", items))
	}

	fmt.Println()
	line := fmt.Sprintf("Source %s via %s, fetched %s", p.Source, res.Provider, cli.FormatAge(p.FetchedTime(), now))
	if rates.NeedsRefresh(p.FetchedTime(), now) {
		fmt.Print(cli.RenderWarning(line + ". Refresh suggested."))
	} else {
		fmt.Print(cli.RenderNote(line))
	}
}
