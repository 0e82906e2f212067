package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/theirongolddev/homecalc/internal/cli"
	"github.com/theirongolddev/homecalc/internal/config"
	"github.com/theirongolddev/homecalc/internal/daemon"
	"github.com/theirongolddev/homecalc/internal/logging"
	"github.com/theirongolddev/homecalc/internal/pipeline"
	"github.com/theirongolddev/homecalc/internal/store"

	"github.com/spf13/cobra"
)

// daemonRecord is written next to the pid file so status and stop can find
// a running daemon.
type daemonRecord struct {
	PID          int       `json:"pid"`
	Addr         string    `json:"addr"`
	StartedAt    time.Time `json:"started_at"`
	SnapshotPath string    `json:"snapshot_path"`
}

var (
	flagDaemonAddr         string
	flagDaemonInterval     time.Duration
	flagDaemonDetach       bool
	flagDaemonPIDFile      string
	flagDaemonLogFile      string
	flagDaemonEventsBuffer int
	flagDaemonChild        bool
)

var daemonCmd = &cobra.Command{
	Use:   "daemon",
	Short: "Refresh benchmark rates in the background and serve them over HTTP/SSE",
	RunE:  runDaemon,
}

var daemonStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show daemon process and API status",
	RunE:  runDaemonStatus,
}

var daemonStopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop the running daemon",
	RunE:  runDaemonStop,
}

func init() {
	daemonCmd.PersistentFlags().StringVar(&flagDaemonAddr, "addr", "", "HTTP listen address (default from config)")
	daemonCmd.PersistentFlags().DurationVar(&flagDaemonInterval, "interval", 0, "Refresh interval (default from config)")
	daemonCmd.PersistentFlags().StringVar(&flagDaemonPIDFile, "pid-file", "", "PID file path (default in the data directory)")
	daemonCmd.PersistentFlags().StringVar(&flagDaemonLogFile, "log-file", "", "Log file for detached mode (default in the data directory)")
	daemonCmd.PersistentFlags().IntVar(&flagDaemonEventsBuffer, "events-buffer", 200, "Max in-memory events retained")

	daemonCmd.Flags().BoolVar(&flagDaemonDetach, "detach", false, "Run daemon as a background process")
	daemonCmd.Flags().BoolVar(&flagDaemonChild, "child", false, "Internal: mark detached child process")
	_ = daemonCmd.Flags().MarkHidden("child")

	daemonCmd.AddCommand(daemonStatusCmd)
	daemonCmd.AddCommand(daemonStopCmd)
	rootCmd.AddCommand(daemonCmd)
}

// daemonPaths resolves the flag defaults that depend on config.
type daemonPaths struct {
	cfg      config.Config
	pidFile  string
	logFile  string
	addr     string
	interval time.Duration
	snapshot string
}

func resolveDaemonPaths() (daemonPaths, error) {
	cfg, err := config.Load()
	if err != nil {
		return daemonPaths{}, err
	}
	p := daemonPaths{
		cfg:      cfg,
		pidFile:  flagDaemonPIDFile,
		logFile:  flagDaemonLogFile,
		addr:     flagDaemonAddr,
		interval: flagDaemonInterval,
		snapshot: cfg.Daemon.SnapshotOut,
	}
	if p.pidFile == "" {
		p.pidFile = filepath.Join(config.DataDir(cfg), "homecalcd.pid")
	}
	if p.logFile == "" {
		p.logFile = filepath.Join(config.DataDir(cfg), "homecalcd.log")
	}
	if p.addr == "" {
		p.addr = cfg.Daemon.Addr
	}
	if p.interval <= 0 {
		p.interval = cfg.Daemon.Interval()
	}
	if p.snapshot == "" {
		p.snapshot = config.SnapshotPath(cfg)
	}
	return p, nil
}

func (p daemonPaths) recordPath() string {
	return p.pidFile + ".json"
}

func runDaemon(_ *cobra.Command, _ []string) error {
	if flagDaemonDetach && flagDaemonChild {
		return errors.New("invalid daemon launch mode")
	}
	if flagOffline {
		return errors.New("the daemon fetches live rates and cannot run with --offline")
	}
	paths, err := resolveDaemonPaths()
	if err != nil {
		return err
	}
	if flagDaemonDetach {
		return startDaemonDetached(paths)
	}
	return runDaemonForeground(paths)
}

func startDaemonDetached(paths daemonPaths) error {
	if err := ensureDaemonNotRunning(paths); err != nil {
		return err
	}

	exe, err := os.Executable()
	if err != nil {
		return fmt.Errorf("resolve executable: %w", err)
	}

	args := make([]string, 0, len(os.Args))
	for _, a := range os.Args[1:] {
		if a == "--detach" || strings.HasPrefix(a, "--detach=") {
			continue
		}
		args = append(args, a)
	}
	args = append(args, "--child")

	for _, dir := range []string{filepath.Dir(paths.pidFile), filepath.Dir(paths.logFile)} {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return fmt.Errorf("create daemon directory: %w", err)
		}
	}

	//nolint:gosec // daemon log path is configured by the local user
	logf, err := os.OpenFile(paths.logFile, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o600)
	if err != nil {
		return fmt.Errorf("open daemon log file: %w", err)
	}
	defer func() { _ = logf.Close() }()

	child := exec.Command(exe, args...) //nolint:gosec // exe/args come from current process invocation
	child.Stdout = logf
	child.Stderr = logf
	child.Env = os.Environ()
	if err := child.Start(); err != nil {
		return fmt.Errorf("start detached daemon: %w", err)
	}

	fmt.Printf("  Started daemon (pid %d)\n", child.Process.Pid)
	fmt.Printf("  PID file: %s\n", paths.pidFile)
	fmt.Printf("  API: http://%s/v1/status\n", paths.addr)
	fmt.Printf("  Log: %s\n", paths.logFile)
	return nil
}

func runDaemonForeground(paths daemonPaths) error {
	if err := ensureDaemonNotRunning(paths); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(paths.pidFile), 0o750); err != nil {
		return fmt.Errorf("create daemon directory: %w", err)
	}

	pid := os.Getpid()
	if err := os.WriteFile(paths.pidFile, []byte(strconv.Itoa(pid)+"\n"), 0o600); err != nil {
		return fmt.Errorf("write pid file: %w", err)
	}
	defer func() { _ = os.Remove(paths.pidFile) }()

	rec := daemonRecord{PID: pid, Addr: paths.addr, StartedAt: timeNow(), SnapshotPath: paths.snapshot}
	if data, err := json.MarshalIndent(rec, "", "  "); err == nil {
		_ = os.WriteFile(paths.recordPath(), append(data, '\n'), 0o600)
	}
	defer func() { _ = os.Remove(paths.recordPath()) }()

	level := paths.cfg.Log.Level
	if flagLogLevel != "" {
		level = flagLogLevel
	}
	log := logging.New(level, "json")

	// Live first so every tick tries FRED; the cache covers outages.
	rt := &runtime{cfg: paths.cfg, log: log}
	if st, err := store.Open(config.StatePath(paths.cfg)); err == nil {
		rt.store = st
	} else {
		log.WithError(err).Warn("state store unavailable, running without sqlite cache")
	}
	defer rt.Close()
	cache := rt.rateCache(context.Background())
	loader := pipeline.NewLoader(log,
		&pipeline.LiveProvider{Fetcher: rt.fredClient(), Cache: cache, Log: log},
		pipeline.CacheProvider{Cache: cache, Log: log},
	)

	svc := daemon.New(daemon.Config{
		SnapshotPath: paths.snapshot,
		Interval:     paths.interval,
		Addr:         paths.addr,
		EventsBuffer: flagDaemonEventsBuffer,
		Log:          log,
	}, loader)

	fmt.Printf("  homecalc daemon listening on http://%s\n", paths.addr)
	fmt.Printf("  Refreshing every %s into %s\n", paths.interval, paths.snapshot)
	fmt.Printf("  Stop with: homecalc daemon stop --pid-file %s\n", paths.pidFile)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := svc.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func runDaemonStatus(_ *cobra.Command, _ []string) error {
	paths, err := resolveDaemonPaths()
	if err != nil {
		return err
	}
	pid, err := readPID(paths.pidFile)
	if err != nil {
		fmt.Println("  Daemon: not running (pid file not found)")
		return nil
	}
	if !processAlive(pid) {
		fmt.Printf("  Daemon: stale pid file (pid %d not alive)\n", pid)
		return nil
	}

	addr := paths.addr
	if rec, err := readDaemonRecord(paths.recordPath()); err == nil && rec.Addr != "" {
		addr = rec.Addr
	}

	fmt.Println()
	fmt.Println(cli.RenderTitle("RATE DAEMON"))
	fmt.Println()
	items := []cli.KV{
		{Key: "PID", Value: strconv.Itoa(pid)},
		{Key: "Address", Value: "http://" + addr},
	}

	st, err := fetchDaemonStatus(addr)
	if err != nil {
		items = append(items, cli.KV{Key: "API", Value: err.Error()})
		fmt.Print(cli.RenderKeyValues("Process", items))
		return nil
	}

	lastPoll := "pending"
	if !st.LastPollAt.IsZero() {
		lastPoll = cli.FormatAge(st.LastPollAt, timeNow())
	}
	items = append(items,
		cli.KV{Key: "Last poll", Value: lastPoll},
		cli.KV{Key: "Polls", Value: cli.FormatNumber(st.PollCount)},
		cli.KV{Key: "Subscribers", Value: strconv.Itoa(st.SubscriberCount)},
	)
	if st.SnapshotPath != "" {
		items = append(items, cli.KV{Key: "Snapshot", Value: st.SnapshotPath})
	}
	if st.LastError != "" {
		items = append(items, cli.KV{Key: "Last error", Value: st.LastError})
	}
	fmt.Print(cli.RenderKeyValues("Process", items))

	if len(st.Summary.Rates) > 0 {
		rows := make([][]string, 0, len(config.MarketCards))
		for _, card := range config.MarketCards {
			rate, ok := st.Summary.Rates[card.SeriesID]
			if !ok {
				continue
			}
			rows = append(rows, []string{card.Label, cli.FormatPercent(rate)})
		}
		fmt.Println()
		fmt.Print(cli.RenderTable(cli.Table{
			Title:   "Rates via " + st.Summary.Provider,
			Headers: []string{"Benchmark", "Rate"},
			Rows:    rows,
		}))
	}
	return nil
}

func fetchDaemonStatus(addr string) (daemon.Status, error) {
	var st daemon.Status
	client := &http.Client{Timeout: 2 * time.Second}
	resp, err := client.Get("http://" + addr + "/v1/status") //nolint:noctx // short status check
	if err != nil {
		return st, fmt.Errorf("unreachable (%w)", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return st, fmt.Errorf("HTTP %d", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(&st); err != nil {
		return st, fmt.Errorf("malformed response (%w)", err)
	}
	return st, nil
}

func runDaemonStop(_ *cobra.Command, _ []string) error {
	paths, err := resolveDaemonPaths()
	if err != nil {
		return err
	}
	pid, err := readPID(paths.pidFile)
	if err != nil {
		return errors.New("daemon is not running")
	}

	proc, err := os.FindProcess(pid)
	if err != nil {
		return fmt.Errorf("find daemon process: %w", err)
	}
	if err := proc.Signal(syscall.SIGTERM); err != nil {
		return fmt.Errorf("signal daemon process: %w", err)
	}

	deadline := time.Now().Add(8 * time.Second)
	for time.Now().Before(deadline) {
		if !processAlive(pid) {
			_ = os.Remove(paths.pidFile)
			_ = os.Remove(paths.recordPath())
			fmt.Printf("  Stopped daemon (pid %d)\n", pid)
			return nil
		}
		time.Sleep(150 * time.Millisecond)
	}
	return fmt.Errorf("daemon (pid %d) did not exit in time", pid)
}

func ensureDaemonNotRunning(paths daemonPaths) error {
	pid, err := readPID(paths.pidFile)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	if processAlive(pid) {
		return fmt.Errorf("daemon already running (pid %d)", pid)
	}
	_ = os.Remove(paths.pidFile)
	_ = os.Remove(paths.recordPath())
	return nil
}

func readPID(path string) (int, error) {
	//nolint:gosec // daemon pid path is configured by the local user
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil || pid <= 0 {
		return 0, fmt.Errorf("invalid pid in %s", path)
	}
	return pid, nil
}

func processAlive(pid int) bool {
	proc, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	err = proc.Signal(syscall.Signal(0))
	return err == nil || errors.Is(err, syscall.EPERM)
}

func readDaemonRecord(path string) (daemonRecord, error) {
	var rec daemonRecord
	//nolint:gosec // daemon state path is configured by the local user
	data, err := os.ReadFile(path)
	if err != nil {
		return rec, err
	}
	err = json.Unmarshal(data, &rec)
	return rec, err
}
