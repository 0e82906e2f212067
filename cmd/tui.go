package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/theirongolddev/homecalc/internal/census"
	"github.com/theirongolddev/homecalc/internal/config"
	"github.com/theirongolddev/homecalc/internal/presets"
	"github.com/theirongolddev/homecalc/internal/store"
	"github.com/theirongolddev/homecalc/internal/tui"
	"github.com/theirongolddev/homecalc/internal/tui/theme"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/spf13/cobra"
)

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Launch the interactive calculator",
	RunE:  runTUI,
}

func init() {
	rootCmd.AddCommand(tuiCmd)
}

func runTUI(_ *cobra.Command, _ []string) error {
	ctx := context.Background()
	rt, err := openRuntime(ctx)
	if err != nil {
		return err
	}
	defer rt.Close()

	// Logs would corrupt the alternate screen; send them to a file instead.
	if f, err := os.OpenFile(filepath.Join(config.DataDir(rt.cfg), "tui.log"), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600); err == nil {
		defer f.Close()
		rt.log.SetOutput(f)
	} else {
		rt.log.SetOutput(io.Discard)
	}

	themeName := rt.cfg.Appearance.Theme
	if rt.store != nil {
		if name, ok, err := rt.store.Get(ctx, store.KeyTheme); err == nil && ok {
			themeName = name
		}
	}
	theme.SetActive(themeName)

	// Force TrueColor profile so all background styling produces ANSI codes
	lipgloss.SetColorProfile(termenv.TrueColor)

	opts := tui.Options{
		Snapshot:  rt.snap,
		Rates:     rt.rateLoader(ctx),
		ShareBase: defaultShareBase,
		Now:       timeNow,
	}
	if rt.store != nil && !flagNoSave {
		opts.Store = rt.store
	}
	if !flagOffline {
		opts.Refresh = rt.liveLoader(ctx)
	}
	if !rt.cfg.Tax.Disabled && !flagOffline {
		opts.Tax = census.NewTracker(rt.censusClient())
	}
	if cat, err := presets.Builtin(); err == nil {
		opts.Presets = cat
	} else {
		rt.log.WithError(err).Warn("loading presets")
	}

	p := tea.NewProgram(tui.NewApp(opts), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}
	return nil
}
