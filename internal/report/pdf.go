// Package report renders calculator results as a printable PDF.
package report

import (
	"bytes"
	"fmt"
	"time"

	"github.com/go-pdf/fpdf"

	"github.com/theirongolddev/homecalc/internal/amortize"
	"github.com/theirongolddev/homecalc/internal/calc"
	"github.com/theirongolddev/homecalc/internal/cli"
	"github.com/theirongolddev/homecalc/internal/model"
)

const (
	pageWidth    = 210.0
	marginLeft   = 15.0
	marginRight  = 15.0
	marginTop    = 15.0
	marginBottom = 20.0
	contentWidth = pageWidth - marginLeft - marginRight
)

// Input is everything a report can show. Refi and Rates are optional.
type Input struct {
	GeneratedAt time.Time

	Afford     calc.AffordResult
	LoanLabel  string
	RateSource string
	Health     calc.HealthAssessment
	Fits       []calc.LoanFit
	ZIPName    string

	Refi           *calc.RefiResult
	Recommendation calc.Recommendation
	Timeline       []calc.TimelinePoint

	Rates *model.RatesPayload
}

type pdfReport struct {
	pdf *fpdf.Fpdf
	in  Input
}

// Generate renders in as a PDF document.
func Generate(in Input) ([]byte, error) {
	if in.GeneratedAt.IsZero() {
		in.GeneratedAt = time.Now()
	}
	r := &pdfReport{pdf: fpdf.New("P", "mm", "A4", ""), in: in}
	r.pdf.SetMargins(marginLeft, marginTop, marginRight)
	r.pdf.SetAutoPageBreak(true, marginBottom)
	r.pdf.SetTitle("Home affordability report", false)
	r.pdf.SetCreationDate(in.GeneratedAt)

	r.pdf.AddPage()
	r.addHeader()
	r.addAffordability()
	r.addLoanFits()
	if in.Refi != nil {
		r.addRefinance()
	}
	if in.Rates.HasData() {
		r.addMarket()
	}
	r.addSchedule()
	r.addDisclaimer()

	var buf bytes.Buffer
	if err := r.pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("report: rendering pdf: %w", err)
	}
	return buf.Bytes(), nil
}

func (r *pdfReport) addHeader() {
	r.pdf.SetFont("Arial", "B", 22)
	r.pdf.SetTextColor(0, 51, 102)
	r.pdf.CellFormat(contentWidth, 12, "Home Affordability Report", "", 1, "L", false, 0, "")
	r.pdf.SetFont("Arial", "I", 10)
	r.pdf.SetTextColor(100, 100, 100)
	r.pdf.CellFormat(contentWidth, 6, "Generated "+r.in.GeneratedAt.Format("January 2, 2006"), "", 1, "L", false, 0, "")
	r.pdf.Ln(4)
}

func (r *pdfReport) addAffordability() {
	a := r.in.Afford
	r.drawSectionHeader("Affordability")

	r.drawKeyValue("Estimated home price", cli.FormatMoney(a.EstimatedHomePrice))
	r.drawKeyValue("Price range", cli.FormatMoney(a.Conservative)+" - "+cli.FormatMoney(a.Optimistic))
	r.drawKeyValue("Loan amount", cli.FormatMoney(a.LoanAmount))
	r.drawKeyValue("Loan type", r.in.LoanLabel)
	rate := cli.FormatPercent(a.Rate)
	if r.in.RateSource != "" {
		rate += " (" + r.in.RateSource + ")"
	}
	r.drawKeyValue("Rate", rate)
	r.drawKeyValue("Gross monthly income", cli.FormatMoney(a.GrossMonthly))
	r.drawKeyValue("Housing budget", cli.FormatMoney(a.MaxHousingBudget)+" ("+cli.FormatRatioPercent(a.Ratio)+" of gross)")
	r.pdf.Ln(3)

	widths := []float64{110, 70}
	r.drawTableHeader([]string{"Monthly cost", "Amount"}, widths)
	r.drawTableRow([]string{"Principal & interest", cli.FormatMoney(a.MonthlyPI)}, widths, false)
	tax := "Property tax"
	if r.in.ZIPName != "" {
		tax += " (" + r.in.ZIPName + ")"
	}
	r.drawTableRow([]string{tax, cli.FormatMoney(a.PropertyTax)}, widths, false)
	r.drawTableRow([]string{"Insurance", cli.FormatMoney(a.InsuranceMonthly)}, widths, false)
	r.drawTableRow([]string{"HOA", cli.FormatMoney(a.HOAMonthly)}, widths, false)
	r.drawTableRow([]string{"PMI", cli.FormatMoney(a.PMIMonthly)}, widths, false)
	r.drawTableRow([]string{"Total", cli.FormatMoney(a.TotalMonthly)}, widths, true)
	r.pdf.Ln(3)

	r.drawKeyValue("Closing costs", cli.FormatMoney(a.ClosingCosts))
	r.drawKeyValue("Cash to close", cli.FormatMoney(a.ClosingCosts+a.DownPayment))
	if r.in.Health.Label != "" {
		r.drawKeyValue("Health", fmt.Sprintf("%s (%s of gross)", r.in.Health.Label, cli.FormatRatioPercent(r.in.Health.Ratio)))
		r.drawNote(r.in.Health.Note)
	}
	r.pdf.Ln(4)
}

func (r *pdfReport) addLoanFits() {
	if len(r.in.Fits) == 0 {
		return
	}
	r.drawSectionHeader("Best loan fits at this price")
	widths := []float64{75, 25, 40, 40}
	r.drawTableHeader([]string{"Loan", "Rate", "Monthly", "Closing"}, widths)
	for _, f := range r.in.Fits {
		r.drawTableRow([]string{
			f.Label,
			cli.FormatPercent(f.Rate),
			cli.FormatMoney(f.ComparableTotalMonthly),
			cli.FormatMoney(f.ClosingCosts),
		}, widths, false)
	}
	r.pdf.Ln(4)
}

func (r *pdfReport) addRefinance() {
	f := r.in.Refi
	r.drawSectionHeader("Refinance")
	r.drawKeyValue("Balance", cli.FormatMoney(f.Balance))
	r.drawKeyValue("Current payment", cli.FormatMoney(f.CurrentPayment)+" at "+cli.FormatPercent(f.CurrentRate))
	if f.Mode == model.ModeTarget && !f.TargetAchievable {
		r.drawKeyValue("Target rate", "Not achievable")
	} else {
		r.drawKeyValue("New payment", cli.FormatMoney(f.NewPayment)+" at "+cli.FormatPercent(f.NewRate))
	}
	r.drawKeyValue("Monthly savings", cli.FormatMoney(f.MonthlySavings))
	r.drawKeyValue("Break-even", cli.FormatMonths(f.BreakEvenMonths))
	if r.in.Recommendation.Label != "" {
		r.drawKeyValue("Verdict", r.in.Recommendation.Label)
		r.drawNote(r.in.Recommendation.Note)
	}

	if len(r.in.Timeline) > 0 {
		r.pdf.Ln(2)
		widths := []float64{60, 60, 60}
		r.drawTableHeader([]string{"Horizon", "Gross savings", "Net of closing"}, widths)
		for _, p := range r.in.Timeline {
			r.drawTableRow([]string{
				cli.FormatMonths(p.Months),
				cli.FormatMoney(p.Gross),
				cli.FormatMoney(p.Net),
			}, widths, false)
		}
	}
	r.pdf.Ln(4)
}

func (r *pdfReport) addMarket() {
	p := r.in.Rates
	r.drawSectionHeader("Market benchmarks")
	widths := []float64{80, 30, 40, 30}
	r.drawTableHeader([]string{"Series", "Rate", "As of", "Fresh"}, widths)
	for _, e := range p.Summary.BestRates.Available {
		obs := p.Data[e.SeriesID]
		date := "Unknown"
		if d, ok := obs.CalendarDate(); ok {
			date = cli.FormatRateDate(d)
		}
		fresh := "yes"
		if obs.IsStale {
			fresh = "stale"
		}
		r.drawTableRow([]string{e.Label, cli.FormatPercent(e.Rate), date, fresh}, widths, false)
	}
	r.drawNote(fmt.Sprintf("Source: %s. Spread: %s.", p.Source, cli.FormatBps(p.Summary.BestRates.SpreadBps)))
	r.pdf.Ln(4)
}

func (r *pdfReport) addSchedule() {
	a := r.in.Afford
	entries := amortize.Schedule(a.LoanAmount, a.Rate, a.Years, r.in.GeneratedAt)
	if len(entries) == 0 {
		return
	}
	r.drawSectionHeader("Amortization by year")
	widths := []float64{30, 50, 50, 50}
	r.drawTableHeader([]string{"Year", "Principal", "Interest", "Balance"}, widths)
	for _, y := range amortize.ByYear(entries) {
		r.drawTableRow([]string{
			fmt.Sprintf("%d", y.Year),
			cli.FormatMoney(y.Principal.InexactFloat64()),
			cli.FormatMoney(y.Interest.InexactFloat64()),
			cli.FormatMoney(y.RemainingBalance.InexactFloat64()),
		}, widths, false)
	}
	r.drawTableRow([]string{
		"Total",
		cli.FormatMoney(a.LoanAmount),
		cli.FormatMoney(amortize.TotalInterest(entries).InexactFloat64()),
		"",
	}, widths, true)
	r.pdf.Ln(4)
}

func (r *pdfReport) addDisclaimer() {
	r.pdf.SetFont("Arial", "I", 8)
	r.pdf.SetTextColor(120, 120, 120)
	r.pdf.MultiCell(contentWidth, 4,
		"Estimates only. Rates are weekly survey benchmarks and property tax is derived from ACS medians. "+
			"This is not financial advice.", "", "L", false)
}

func (r *pdfReport) drawSectionHeader(title string) {
	r.pdf.SetFont("Arial", "B", 14)
	r.pdf.SetTextColor(0, 51, 102)
	r.pdf.CellFormat(contentWidth, 9, title, "", 1, "L", false, 0, "")
	r.pdf.SetDrawColor(0, 51, 102)
	r.pdf.Line(marginLeft, r.pdf.GetY(), marginLeft+contentWidth, r.pdf.GetY())
	r.pdf.Ln(3)
}

func (r *pdfReport) drawKeyValue(key, value string) {
	r.pdf.SetFont("Arial", "", 10)
	r.pdf.SetTextColor(90, 90, 90)
	r.pdf.CellFormat(60, 6, key, "", 0, "L", false, 0, "")
	r.pdf.SetFont("Arial", "B", 10)
	r.pdf.SetTextColor(30, 30, 30)
	r.pdf.CellFormat(contentWidth-60, 6, value, "", 1, "L", false, 0, "")
}

func (r *pdfReport) drawNote(text string) {
	r.pdf.SetFont("Arial", "I", 9)
	r.pdf.SetTextColor(110, 110, 110)
	r.pdf.MultiCell(contentWidth, 4.5, text, "", "L", false)
}

func (r *pdfReport) drawTableHeader(headers []string, widths []float64) {
	r.pdf.SetFillColor(0, 51, 102)
	r.pdf.SetTextColor(255, 255, 255)
	r.pdf.SetFont("Arial", "B", 9)

	for i, header := range headers {
		align := "L"
		if i > 0 {
			align = "R"
		}
		r.pdf.CellFormat(widths[i], 6, header, "1", 0, align, true, 0, "")
	}
	r.pdf.Ln(-1)
}

func (r *pdfReport) drawTableRow(cells []string, widths []float64, isBold bool) {
	r.pdf.SetFillColor(250, 250, 250)
	r.pdf.SetTextColor(50, 50, 50)

	if isBold {
		r.pdf.SetFont("Arial", "B", 9)
		r.pdf.SetFillColor(240, 240, 240)
	} else {
		r.pdf.SetFont("Arial", "", 9)
	}

	for i, cell := range cells {
		align := "L"
		if i > 0 {
			align = "R"
		}
		r.pdf.CellFormat(widths[i], 5, cell, "1", 0, align, true, 0, "")
	}
	r.pdf.Ln(-1)
}
