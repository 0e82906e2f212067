package cmd

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/theirongolddev/homecalc/internal/cli"
	"github.com/theirongolddev/homecalc/internal/config"
	"github.com/theirongolddev/homecalc/internal/model"
	"github.com/theirongolddev/homecalc/internal/pipeline"
	"github.com/theirongolddev/homecalc/internal/rates"

	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show saved state, local rate data and daemon status without touching the network",
	RunE:  runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(_ *cobra.Command, _ []string) error {
	ctx := context.Background()
	rt, err := openRuntime(ctx)
	if err != nil {
		return err
	}
	defer rt.Close()
	now := timeNow()

	fmt.Println()
	fmt.Println(cli.RenderTitle("HOMECALC STATUS"))
	fmt.Println()

	s := rt.snap.Settings
	saved := []cli.KV{
		{Key: "State", Value: config.StatePath(rt.cfg)},
		{Key: "Calculator", Value: string(s.ActiveCalc)},
		{Key: "Loan type", Value: config.LoanTypeOrDefault(s.LoanTypeID).Label},
		{Key: "Rate mode", Value: string(s.RateMode)},
		{Key: "ZIP", Value: orDash(rt.snap.Afford.ZIPCode)},
		{Key: "Scenarios", Value: strconv.Itoa(len(rt.snap.Scenarios))},
	}
	if rt.store == nil {
		saved[0].Value += " (unavailable)"
	}
	fmt.Print(cli.RenderKeyValues("Saved State", saved))
	fmt.Println()

	snapPath := config.SnapshotPath(rt.cfg)
	local := []cli.KV{
		{Key: "Snapshot", Value: describePayload(snapshotAt(snapPath), now)},
		{Key: "Snapshot path", Value: snapPath},
		{Key: "Cache", Value: describePayload(rt.cachedRates(ctx), now)},
		{Key: "Cache backend", Value: rt.cfg.Rates.CacheBackend},
	}
	fmt.Print(cli.RenderKeyValues("Rate Data", local))
	fmt.Println()

	paths, err := resolveDaemonPaths()
	daemonState := "not running"
	if err == nil {
		if pid, err := readPID(paths.pidFile); err == nil && processAlive(pid) {
			daemonState = fmt.Sprintf("running (pid %d, http://%s)", pid, paths.addr)
		}
	}
	fmt.Print(cli.RenderKeyValues("Daemon", []cli.KV{{Key: "Status", Value: daemonState}}))
	return nil
}

func snapshotAt(path string) *model.RatesPayload {
	p, err := pipeline.ReadSnapshot(path)
	if err != nil {
		return nil
	}
	return p
}

func (rt *runtime) cachedRates(ctx context.Context) *model.RatesPayload {
	cache := rt.rateCache(ctx)
	if cache == nil {
		return nil
	}
	p, err := cache.GetRates(ctx)
	if err != nil {
		rt.log.WithError(err).Debug("reading rate cache")
		return nil
	}
	return p
}

func describePayload(p *model.RatesPayload, now time.Time) string {
	if !p.HasData() {
		return "none"
	}
	desc := fmt.Sprintf("%d series, fetched %s", len(p.Data), cli.FormatAge(p.FetchedTime(), now))
	if rates.NeedsRefresh(p.FetchedTime(), now) {
		desc += " (refresh suggested)"
	}
	return desc
}
