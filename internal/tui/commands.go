package tui

import (
	"context"
	"time"

	"github.com/theirongolddev/homecalc/internal/state"
	"github.com/theirongolddev/homecalc/internal/store"

	tea "github.com/charmbracelet/bubbletea"
)

const (
	themeKey     = store.KeyTheme
	ratesTimeout = 30 * time.Second
	taxTimeout   = 15 * time.Second
	saveTimeout  = 5 * time.Second
)

// loadRatesCmd runs a loader in the background.
func loadRatesCmd(loader RatesLoader, refresh bool) tea.Cmd {
	if loader == nil {
		return func() tea.Msg {
			return RatesLoadedMsg{Refresh: refresh}
		}
	}
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), ratesTimeout)
		defer cancel()
		return RatesLoadedMsg{Result: loader.Load(ctx), Refresh: refresh}
	}
}

// taxCmd looks up the current ZIP. Results from superseded lookups are
// dropped when the TaxMsg arrives.
func (a App) taxCmd() tea.Cmd {
	tracker := a.opts.Tax
	if tracker == nil {
		return nil
	}
	zip := a.snap.Afford.ZIPCode
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), taxTimeout)
		defer cancel()
		return TaxMsg{State: tracker.Update(ctx, zip)}
	}
}

// saveCmd persists inputs and settings.
func (a App) saveCmd() tea.Cmd {
	kv := a.opts.Store
	if kv == nil {
		return nil
	}
	snap := a.snap
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), saveTimeout)
		defer cancel()
		return SavedMsg{Err: state.Save(ctx, kv, snap)}
	}
}

func (a App) saveScenariosCmd() tea.Cmd {
	kv := a.opts.Store
	if kv == nil {
		return nil
	}
	list := a.snap.Scenarios
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), saveTimeout)
		defer cancel()
		return SavedMsg{Err: state.SaveScenarios(ctx, kv, list)}
	}
}

func (a App) putCmd(key, value string) tea.Cmd {
	kv := a.opts.Store
	if kv == nil {
		return nil
	}
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), saveTimeout)
		defer cancel()
		return SavedMsg{Err: kv.Put(ctx, key, value)}
	}
}
