package tui

import (
	"fmt"

	"github.com/theirongolddev/homecalc/internal/cli"
	"github.com/theirongolddev/homecalc/internal/config"
	"github.com/theirongolddev/homecalc/internal/rates"
	"github.com/theirongolddev/homecalc/internal/tui/components"
	"github.com/theirongolddev/homecalc/internal/tui/theme"
)

func (a App) renderMarketTab(cw int) string {
	t := theme.Active
	p := a.rates.Payload
	if !p.HasData() {
		msg := "Market rates are unavailable."
		if a.rates.Err != nil {
			msg += "\n" + a.rates.Err.Error()
		}
		return components.ContentCard("Market", kvBlock([][2]string{{"Status", "unavailable"}})+"\n\n"+
			hint(msg)+"\n\n"+hint("R retry  ·  manual mode still works"), cw)
	}

	metrics := make([]components.Metric, 0, len(config.MarketCards))
	for _, card := range config.MarketCards {
		obs, ok := p.Data[card.SeriesID]
		if !ok {
			metrics = append(metrics, components.Metric{Label: card.Label, Value: "N/A", Note: "no data"})
			continue
		}
		note := "as of unknown date"
		if d, ok := obs.CalendarDate(); ok {
			note = "as of " + cli.FormatRateDate(d)
		}
		m := components.Metric{Label: card.Label, Value: cli.FormatPercent(obs.Rate), Note: note}
		if obs.IsStale {
			m.Color = t.Orange
			if obs.StaleDays != nil {
				m.Note = fmt.Sprintf("stale, %d days", *obs.StaleDays)
			}
		}
		metrics = append(metrics, m)
	}
	row := components.MetricCardRow(metrics, cw)

	widths := components.LayoutRow(cw, 2)
	best := p.Summary.BestRates
	var bestRows [][2]string
	if best.Lowest != nil {
		bestRows = append(bestRows, [2]string{"Lowest", cli.FormatPercent(best.Lowest.Rate) + " " + best.Lowest.Label})
	}
	if best.Highest != nil {
		bestRows = append(bestRows, [2]string{"Highest", cli.FormatPercent(best.Highest.Rate) + " " + best.Highest.Label})
	}
	bestRows = append(bestRows, [2]string{"Spread", cli.FormatBps(best.SpreadBps)})

	now := a.opts.Now()
	fetched := p.FetchedTime()
	freshness := "current"
	if rates.NeedsRefresh(fetched, now) {
		freshness = "refresh suggested"
	}
	source := kvBlock([][2]string{
		{"Source", p.Source},
		{"Provider", a.rates.Provider},
		{"Fetched", cli.FormatAge(fetched, now)},
		{"Freshness", freshness},
	}) + "\n\n" + hint("R refresh from FRED")

	return row + "\n" + components.CardRow([]string{
		components.ContentCard("Best rates", kvBlock(bestRows), widths[0]),
		components.ContentCard("Data", source, widths[1]),
	})
}
