package tui

import (
	"errors"

	"github.com/theirongolddev/homecalc/internal/model"
	"github.com/theirongolddev/homecalc/internal/numeric"
	"github.com/theirongolddev/homecalc/internal/state"
	"github.com/theirongolddev/homecalc/internal/tui/theme"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
)

// formValues is bound to the huh form fields. Heap-allocated so the form's
// pointers stay valid while App is copied by value.
type formValues struct {
	afford model.AffordInputs
	refi   model.RefiInputs
}

// validNumber accepts empty input or anything that parses to a number.
func validNumber(s string) error {
	if s == "" || numeric.SanitizeForInput(s) != "" {
		return nil
	}
	return errors.New("enter a number")
}

func validZIP(s string) error {
	if s == "" || numeric.IsCompleteZIP(numeric.SanitizeZIP(s)) {
		return nil
	}
	return errors.New("ZIP must be 5 digits")
}

func numberInput(title, placeholder string, v *string) *huh.Input {
	return huh.NewInput().
		Title(title).
		Placeholder(placeholder).
		Validate(validNumber).
		Value(v)
}

func newAffordForm(v *formValues) *huh.Form {
	in := &v.afford
	return huh.NewForm(
		huh.NewGroup(
			numberInput("Annual income", "95000", &in.AnnualIncome),
			numberInput("Monthly debts", "900", &in.Expenses),
			numberInput("Down payment", "20000", &in.DownPayment),
			huh.NewInput().Title("ZIP code").Description("Looks up the local property tax rate").
				Placeholder("94110").CharLimit(5).Validate(validZIP).Value(&in.ZIPCode),
		).Title("Affordability"),
		huh.NewGroup(
			numberInput("HOA dues (annual)", "1200", &in.HOAAnnual),
			numberInput("Closing costs", "leave blank to estimate", &in.ClosingCosts),
			numberInput("Closing cost rate (%)", "2.5", &in.ClosingCostRate),
			numberInput("Manual rate (%)", "used in manual mode", &in.Rate),
		).Title("Costs and rate"),
	).WithTheme(huh.ThemeCharm()).WithShowHelp(true)
}

func newRefiForm(v *formValues) *huh.Form {
	in := &v.refi
	return huh.NewForm(
		huh.NewGroup(
			numberInput("Remaining balance", "320000", &in.Balance),
			numberInput("Current rate (%)", "7.1", &in.CurrentRate),
			numberInput("New rate (%)", "used in manual mode", &in.NewRate),
			numberInput("Closing costs", "6500", &in.ClosingCosts),
			numberInput("Target break-even (months)", "used in target mode", &in.TargetMonths),
		).Title("Refinance"),
	).WithTheme(huh.ThemeCharm()).WithShowHelp(true)
}

// openForm starts editing the inputs of the active calculator.
func (a App) openForm() (tea.Model, tea.Cmd) {
	a.formVals = &formValues{afford: a.snap.Afford, refi: a.snap.Refi}
	a.formCalc = a.activeCalc()
	if a.formCalc == model.CalcRefi {
		a.form = newRefiForm(a.formVals)
	} else {
		a.form = newAffordForm(a.formVals)
	}
	if a.width > 0 {
		a.form = a.form.WithWidth(min(a.width, 72)).WithHeight(a.height - 4)
	}
	return a, a.form.Init()
}

func (a App) updateForm(msg tea.Msg) (tea.Model, tea.Cmd) {
	form, cmd := a.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		a.form = f
	}

	switch a.form.State {
	case huh.StateCompleted:
		prevZIP := a.snap.Afford.ZIPCode
		a.applyForm()
		a.form, a.formVals = nil, nil
		a.recompute()
		cmds := []tea.Cmd{a.saveCmd()}
		if a.snap.Afford.ZIPCode != prevZIP {
			cmds = append(cmds, a.taxCmd())
		}
		return a, tea.Batch(cmds...)
	case huh.StateAborted:
		a.form, a.formVals = nil, nil
		return a, nil
	}
	return a, cmd
}

// applyForm merges the edited fields through the same sanitizing path as
// share links, so stored inputs always have the form's shape.
func (a *App) applyForm() {
	v := a.formVals
	switch a.formCalc {
	case model.CalcRefi:
		a.snap.Refi = state.MergeRefi(a.snap.Refi, map[string]any{
			"balance":      v.refi.Balance,
			"currentRate":  v.refi.CurrentRate,
			"newRate":      v.refi.NewRate,
			"closingCosts": v.refi.ClosingCosts,
			"targetMonths": v.refi.TargetMonths,
		}, true)
	default:
		a.snap.Afford = state.MergeAfford(a.snap.Afford, map[string]any{
			"annualIncome":    v.afford.AnnualIncome,
			"expenses":        v.afford.Expenses,
			"downPayment":     v.afford.DownPayment,
			"closingCosts":    v.afford.ClosingCosts,
			"closingCostRate": v.afford.ClosingCostRate,
			"hoaAnnual":       v.afford.HOAAnnual,
			"zipCode":         v.afford.ZIPCode,
			"rate":            v.afford.Rate,
		}, true)
	}
	a.snap.Settings.ActiveCalc = a.formCalc
}

func (a App) viewForm() string {
	t := theme.Active
	card := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(t.BorderAccent).
		Padding(1, 2).
		Render(a.form.View())
	return lipgloss.Place(a.width, a.height, lipgloss.Center, lipgloss.Center, card,
		lipgloss.WithWhitespaceBackground(t.Background))
}
