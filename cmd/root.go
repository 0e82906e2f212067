package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/theirongolddev/homecalc/internal/calc"
	"github.com/theirongolddev/homecalc/internal/census"
	"github.com/theirongolddev/homecalc/internal/config"
	"github.com/theirongolddev/homecalc/internal/fred"
	"github.com/theirongolddev/homecalc/internal/logging"
	"github.com/theirongolddev/homecalc/internal/model"
	"github.com/theirongolddev/homecalc/internal/numeric"
	"github.com/theirongolddev/homecalc/internal/pipeline"
	"github.com/theirongolddev/homecalc/internal/state"
	"github.com/theirongolddev/homecalc/internal/store"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	flagQuiet    bool
	flagLogLevel string
	flagOffline  bool
	flagNoCache  bool
	flagNoSave   bool
)

var timeNow = time.Now

var rootCmd = &cobra.Command{
	Use:   "homecalc",
	Short: "Mortgage affordability and refinance calculator",
	Long:  "Estimate how much home you can afford and whether a refinance pays off, priced from live benchmark rates.",
	RunE:  runAfford,
}

// Execute is the main entry point called from main.go.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&flagQuiet, "quiet", "q", false, "Suppress progress output")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVar(&flagOffline, "offline", false, "Never fetch from the network")
	rootCmd.PersistentFlags().BoolVar(&flagNoCache, "no-cache", false, "Skip the local rate cache")
	rootCmd.PersistentFlags().BoolVar(&flagNoSave, "no-save", false, "Do not persist inputs for the next run")

	addCalculatorFlags(rootCmd)
}

// runtime is the wiring shared by all commands: config, logger, the local
// store and the network clients built from config.
type runtime struct {
	cfg   config.Config
	log   *logrus.Logger
	store *store.Store
	redis *store.RedisRateCache
	snap  state.Snapshot
}

// openRuntime loads config and persisted state. A store that cannot be
// opened is not fatal; the session just starts from defaults.
func openRuntime(ctx context.Context) (*runtime, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	level := cfg.Log.Level
	if flagLogLevel != "" {
		level = flagLogLevel
	}
	rt := &runtime{
		cfg:  cfg,
		log:  logging.New(level, cfg.Log.Format),
		snap: state.DefaultsFrom(cfg.General),
	}

	st, err := store.Open(config.StatePath(cfg))
	if err != nil {
		rt.log.WithError(err).Warn("state store unavailable")
		progress("  State store unavailable, starting from defaults\n")
		return rt, nil
	}
	rt.store = st

	snap, err := state.LoadOver(ctx, st, rt.snap)
	if err != nil {
		rt.log.WithError(err).Warn("loading saved state")
	} else {
		rt.snap = snap
	}
	return rt, nil
}

func (rt *runtime) Close() {
	if rt.redis != nil {
		_ = rt.redis.Close()
	}
	if rt.store != nil {
		_ = rt.store.Close()
	}
}

// save persists inputs and settings unless --no-save is set.
func (rt *runtime) save(ctx context.Context) error {
	if flagNoSave || rt.store == nil {
		return nil
	}
	return state.Save(ctx, rt.store, rt.snap)
}

// rateCache picks the configured cache backend, falling back to SQLite
// when Redis does not answer.
func (rt *runtime) rateCache(ctx context.Context) store.RateCache {
	if flagNoCache {
		return nil
	}
	if rt.cfg.Rates.CacheBackend == config.CacheRedis && rt.cfg.Rates.RedisAddr != "" {
		if rt.redis == nil {
			rc := store.NewRedisRateCache(rt.cfg.Rates.RedisAddr)
			pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
			err := rc.Ping(pingCtx)
			cancel()
			if err != nil {
				rt.log.WithError(err).WithField("addr", rt.cfg.Rates.RedisAddr).Warn("redis unavailable, using sqlite cache")
				_ = rc.Close()
			} else {
				rt.redis = rc
			}
		}
		if rt.redis != nil {
			return rt.redis
		}
	}
	if rt.store == nil {
		return nil
	}
	return rt.store
}

func (rt *runtime) fredClient() *fred.Client {
	return fred.NewClient(
		fred.WithBaseURL(rt.cfg.Rates.FredBaseURL),
		fred.WithProxy(rt.cfg.Rates.ProxyURL),
		fred.WithTimeout(rt.cfg.Rates.RequestTimeout()),
		fred.WithLogger(rt.log),
	)
}

// rateLoader builds the provider chain: snapshot, then cache, then live.
// --offline drops the live provider.
func (rt *runtime) rateLoader(ctx context.Context) *pipeline.Loader {
	cache := rt.rateCache(ctx)
	providers := []pipeline.Provider{
		pipeline.SnapshotProvider{Path: config.SnapshotPath(rt.cfg), URL: rt.cfg.Rates.SnapshotURL, Log: rt.log},
		pipeline.CacheProvider{Cache: cache, Log: rt.log},
	}
	if !flagOffline {
		providers = append(providers, &pipeline.LiveProvider{Fetcher: rt.fredClient(), Cache: cache, Log: rt.log})
	}
	return pipeline.NewLoader(rt.log, providers...)
}

// liveLoader skips the snapshot and cache, for explicit refreshes.
func (rt *runtime) liveLoader(ctx context.Context) *pipeline.Loader {
	return pipeline.NewLoader(rt.log, &pipeline.LiveProvider{
		Fetcher: rt.fredClient(),
		Cache:   rt.rateCache(ctx),
		Log:     rt.log,
	})
}

func (rt *runtime) loadRates(ctx context.Context) pipeline.LoadResult {
	progress("  Loading rates...\n")
	res := rt.rateLoader(ctx).Load(ctx)
	if res.Status == model.StatusReady {
		progress("  Rates from %s (%d series)\n", res.Provider, len(res.Payload.Data))
	} else {
		progress("  Rates unavailable, using manual fallback\n")
	}
	return res
}

func (rt *runtime) censusClient() *census.Client {
	opts := []census.Option{
		census.WithBaseURL(rt.cfg.Tax.CensusBaseURL),
		census.WithTimeout(rt.cfg.Rates.RequestTimeout()),
		census.WithLogger(rt.log),
	}
	if rt.store != nil {
		opts = append(opts, census.WithCache(rt.store))
	}
	return census.NewClient(opts...)
}

// lookupTax returns the tax lookup for the saved ZIP, or nil when the ZIP
// is incomplete, lookups are disabled, or the lookup failed.
func (rt *runtime) lookupTax(ctx context.Context) *model.TaxLookupResult {
	zip := numeric.SanitizeZIP(rt.snap.Afford.ZIPCode)
	if rt.cfg.Tax.Disabled || flagOffline || !numeric.IsCompleteZIP(zip) {
		return nil
	}
	return rt.censusClient().Lookup(ctx, zip)
}

// evaluation is everything the output commands render.
type evaluation struct {
	calc.Evaluation
	Rates pipeline.LoadResult
	Tax   *model.TaxLookupResult
}

func (rt *runtime) evaluate(ctx context.Context) evaluation {
	ev := evaluation{Rates: rt.loadRates(ctx), Tax: rt.lookupTax(ctx)}
	in := calc.EvalInput{
		Afford:   rt.snap.Afford,
		Refi:     rt.snap.Refi,
		Settings: rt.snap.Settings,
	}
	if ev.Rates.Payload != nil {
		in.Data = ev.Rates.Payload.Data
	}
	if ev.Tax != nil {
		in.ZIPTaxRate = ev.Tax.Rate
	}
	ev.Evaluation = calc.Evaluate(in)
	return ev
}

// progress writes to stderr unless --quiet.
func progress(format string, args ...any) {
	if flagQuiet {
		return
	}
	fmt.Fprintf(os.Stderr, format, args...)
}
