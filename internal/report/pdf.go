// Package report renders the investment thesis PDF for the recommended symbol
package report

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-pdf/fpdf"

	"github.com/wonny/smartpick/internal/contracts"
	"github.com/wonny/smartpick/internal/scoring"
	"github.com/wonny/smartpick/pkg/logger"
)

const (
	pageWidth   = 210.0
	margin      = 15.0
	contentW    = pageWidth - 2*margin
	lineHeight  = 6.0
	barMaxWidth = 100.0
	topTableN   = 5
)

// PDFWriter writes investment_thesis_<SYMBOL>.pdf into a directory
// ⭐ SSOT: 리포트 렌더링은 여기서만
type PDFWriter struct {
	dir    string
	logger *logger.Logger
}

// NewPDFWriter creates a writer for dir
func NewPDFWriter(dir string, log *logger.Logger) *PDFWriter {
	return &PDFWriter{
		dir:    dir,
		logger: log.WithComponent("report"),
	}
}

// FileName returns the report file name for symbol
func FileName(symbol string) string {
	return fmt.Sprintf("investment_thesis_%s.pdf", symbol)
}

// Write renders in and returns the written path
func (w *PDFWriter) Write(ctx context.Context, in contracts.ReportInput) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	data, err := Render(in)
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create report dir: %w", err)
	}
	path := filepath.Join(w.dir, FileName(in.Top.Symbol))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write report: %w", err)
	}

	w.logger.WithFields(map[string]interface{}{
		"symbol": in.Top.Symbol,
		"path":   path,
		"bytes":  len(data),
	}).Info("Report written")
	return path, nil
}

// Render builds the PDF in memory
func Render(in contracts.ReportInput) ([]byte, error) {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(margin, margin, margin)
	pdf.SetAutoPageBreak(true, margin)
	pdf.SetTitle("Investment Thesis: "+in.Top.Symbol, true)
	pdf.AddPage()

	r := &renderer{pdf: pdf, tr: pdf.UnicodeTranslatorFromDescriptor("")}
	c := in.Top

	r.title(c, in)
	r.scoreBreakdown(c.Score)
	r.facts(c.Screening)
	r.financials(c.Research)
	r.smartMoney(c.Activity)
	r.qualitative(c.Qualitative)
	r.news(c.Research.News)
	r.reasons(Reasons(c))
	r.ranking(in.Ranked)
	r.verdict(c.Score.Total)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to render pdf: %w", err)
	}
	return buf.Bytes(), nil
}

type renderer struct {
	pdf     *fpdf.Fpdf
	tr      func(string) string
	section int
}

// numbered starts the next numbered section
func (r *renderer) numbered(text string) {
	r.section++
	r.heading(fmt.Sprintf("%d. %s", r.section, text))
}

func (r *renderer) heading(text string) {
	r.pdf.Ln(4)
	r.pdf.SetFont("Arial", "B", 13)
	r.pdf.SetTextColor(20, 50, 100)
	r.pdf.CellFormat(contentW, 8, r.tr(text), "", 1, "L", false, 0, "")
	r.pdf.SetDrawColor(20, 50, 100)
	r.pdf.Line(margin, r.pdf.GetY(), pageWidth-margin, r.pdf.GetY())
	r.pdf.Ln(2)
	r.pdf.SetTextColor(0, 0, 0)
	r.pdf.SetFont("Arial", "", 10)
}

func (r *renderer) paragraph(text string) {
	r.pdf.SetFont("Arial", "", 10)
	r.pdf.MultiCell(contentW, 5, r.tr(text), "", "L", false)
}

func (r *renderer) kv(rows [][2]string) {
	for _, row := range rows {
		r.pdf.SetFont("Arial", "B", 10)
		r.pdf.CellFormat(55, lineHeight, r.tr(row[0]), "", 0, "L", false, 0, "")
		r.pdf.SetFont("Arial", "", 10)
		r.pdf.CellFormat(contentW-55, lineHeight, r.tr(row[1]), "", 1, "L", false, 0, "")
	}
}

func (r *renderer) title(c contracts.Candidate, in contracts.ReportInput) {
	r.pdf.SetFont("Arial", "B", 20)
	r.pdf.CellFormat(contentW, 12, r.tr("Investment Thesis: "+c.Symbol), "", 1, "L", false, 0, "")
	r.pdf.SetFont("Arial", "", 11)
	sub := c.Screening.Name
	if c.Screening.Sector != "" {
		sub = strings.TrimSpace(sub + " | " + c.Screening.Sector)
	}
	if c.Screening.Industry != "" {
		sub = strings.TrimSpace(sub + " | " + c.Screening.Industry)
	}
	if sub != "" {
		r.pdf.CellFormat(contentW, 7, r.tr(sub), "", 1, "L", false, 0, "")
	}
	r.pdf.SetFont("Arial", "I", 9)
	r.pdf.CellFormat(contentW, 6, fmt.Sprintf("Generated %s  Run %s", in.GeneratedAt.Format("2006-01-02 15:04"), in.RunID), "", 1, "L", false, 0, "")
}

func (r *renderer) scoreBreakdown(s contracts.CompositeScore) {
	r.numbered("Score Breakdown")

	bars := []struct {
		label string
		value float64
		max   float64
	}{
		{"Superinvestor", float64(s.Superinvestor), scoring.MaxSuperinvestor},
		{"Insider", float64(s.Insider), scoring.MaxInsider},
		{"Qualitative", s.Qualitative, scoring.MaxQualitative},
		{"Bonus", s.Bonus, scoring.MaxBonus},
	}
	for _, b := range bars {
		r.bar(b.label, b.value, b.max)
	}

	r.pdf.Ln(2)
	r.pdf.SetFont("Arial", "B", 11)
	r.pdf.CellFormat(contentW, lineHeight, fmt.Sprintf("Smart Money: %d/10   Total: %.1f/20", s.SmartMoney, s.Total), "", 1, "L", false, 0, "")
}

func (r *renderer) bar(label string, value, max float64) {
	r.pdf.SetFont("Arial", "", 10)
	r.pdf.CellFormat(35, lineHeight, label, "", 0, "L", false, 0, "")

	x, y := r.pdf.GetX(), r.pdf.GetY()+1
	r.pdf.SetFillColor(230, 230, 230)
	r.pdf.Rect(x, y, barMaxWidth, lineHeight-2, "F")
	if max > 0 && value > 0 {
		r.pdf.SetFillColor(6, 167, 125)
		r.pdf.Rect(x, y, barMaxWidth*scoring.Clamp(value/max, 0, 1), lineHeight-2, "F")
	}
	r.pdf.SetX(x + barMaxWidth + 4)
	r.pdf.CellFormat(30, lineHeight, fmt.Sprintf("%.1f / %.0f", value, max), "", 1, "L", false, 0, "")
}

func (r *renderer) facts(s contracts.ScreeningFact) {
	r.numbered("Price and Fundamentals")
	rows := [][2]string{
		{"Current Price", fmt.Sprintf("$%.2f", s.CurrentPrice)},
		{"52-Week Low / High", fmt.Sprintf("$%.2f / $%.2f", s.Low52W, s.High52W)},
		{"Above 52-Week Low", fmt.Sprintf("%.2f%%", s.AboveLowPct)},
		{"Below 52-Week High", fmt.Sprintf("%.2f%%", s.DropFromHighPct)},
		{"Market Cap", formatBillions(s.MarketCap)},
		{"Free Cash Flow", optional(s.FreeCashFlow, formatBillions)},
		{"Debt / Equity", optional(s.DebtToEquity, ratio)},
		{"P/E (Forward)", fmt.Sprintf("%s (%s)", optional(s.Valuation.PERatio, ratio), optional(s.Valuation.ForwardPE, ratio))},
		{"Price / Book", optional(s.Valuation.PriceToBook, ratio)},
		{"Dividend Yield", optional(s.Valuation.DividendYield, percent)},
		{"Return on Equity", optional(s.Valuation.ReturnOnEquity, percent)},
		{"Analyst Target", optional(s.Valuation.AnalystTarget, func(v float64) string { return fmt.Sprintf("$%.2f", v) })},
	}
	r.kv(rows)
	if s.Description != "" {
		r.pdf.Ln(1)
		r.paragraph(s.Description)
	}
}

// financials renders the quarterly income and earnings tables when present
func (r *renderer) financials(res contracts.Research) {
	if len(res.Financials) == 0 && len(res.Earnings) == 0 {
		return
	}
	r.numbered("Financial History")

	if len(res.Financials) > 0 {
		rows := make([][]string, 0, len(res.Financials))
		for _, q := range res.Financials {
			rows = append(rows, []string{
				q.FiscalDateEnding,
				optional(q.TotalRevenue, formatBillions),
				optional(q.NetIncome, formatBillions),
				optional(q.ReportedEPS, ratio),
			})
		}
		r.table([]float64{40, 50, 50, 40}, []string{"Quarter", "Revenue", "Net Income", "EPS"}, rows)
	}

	if len(res.Earnings) > 0 {
		r.pdf.Ln(3)
		rows := make([][]string, 0, len(res.Earnings))
		for _, e := range res.Earnings {
			rows = append(rows, []string{
				e.FiscalDateEnding,
				optional(e.ReportedEPS, ratio),
				optional(e.EstimatedEPS, ratio),
				optional(e.SurprisePct, func(v float64) string { return fmt.Sprintf("%+.1f%%", v) }),
			})
		}
		r.table([]float64{40, 45, 45, 50}, []string{"Quarter", "Reported EPS", "Estimated EPS", "Surprise"}, rows)
	}
}

func (r *renderer) news(items []contracts.NewsItem) {
	if len(items) == 0 {
		return
	}
	r.numbered("Recent News")
	for _, n := range items {
		line := "- " + n.Title
		if !n.Published.IsZero() {
			line += " (" + n.Published.Format("2006-01-02") + ")"
		}
		r.paragraph(line)
	}
}

func (r *renderer) table(widths []float64, headers []string, rows [][]string) {
	r.pdf.SetFont("Arial", "B", 10)
	r.pdf.SetFillColor(230, 230, 230)
	for i, h := range headers {
		r.pdf.CellFormat(widths[i], lineHeight, r.tr(h), "1", 0, "C", true, 0, "")
	}
	r.pdf.Ln(-1)

	r.pdf.SetFont("Arial", "", 10)
	for _, row := range rows {
		for i, cell := range row {
			r.pdf.CellFormat(widths[i], lineHeight, r.tr(cell), "1", 0, "C", false, 0, "")
		}
		r.pdf.Ln(-1)
	}
}

func (r *renderer) smartMoney(a contracts.ActivityFact) {
	r.numbered("Smart Money Activity")
	r.kv([][2]string{
		{"Superinvestor Buys", fmt.Sprintf("%d", a.Superinvestor.Buys)},
		{"Superinvestor Sells", fmt.Sprintf("%d", a.Superinvestor.Sells)},
		{"Superinvestor Holds", fmt.Sprintf("%d", a.Superinvestor.Holds)},
		{"Insider Buys / Sells", fmt.Sprintf("%d / %d", a.Insider.Buys, a.Insider.Sells)},
		{"Insider Net Value", fmt.Sprintf("$%.0f", a.Insider.NetValue)},
	})
	if len(a.Superinvestor.Buyers) > 0 {
		r.paragraph("Buying: " + strings.Join(a.Superinvestor.Buyers, ", "))
	}
	if len(a.Superinvestor.Sellers) > 0 {
		r.paragraph("Selling: " + strings.Join(a.Superinvestor.Sellers, ", "))
	}
}

func (r *renderer) qualitative(q contracts.QualitativeScore) {
	r.numbered("Qualitative Assessment")
	r.kv([][2]string{
		{"Management", fmt.Sprintf("%.0f/10", q.Management)},
		{"Sustainability", fmt.Sprintf("%.0f/10", q.Sustainability)},
	})
	if q.ManagementRationale != "" {
		r.paragraph("Management: " + q.ManagementRationale)
	}
	if q.SustainabilityRationale != "" {
		r.paragraph("Sustainability: " + q.SustainabilityRationale)
	}
	if q.Outlook != "" {
		r.pdf.Ln(1)
		r.paragraph("Outlook: " + q.Outlook)
	}
}

func (r *renderer) reasons(reasons []Reason) {
	r.numbered("Key Investment Reasons")
	for i, reason := range reasons {
		if reason.Title == "" {
			r.paragraph(fmt.Sprintf("%d. %s", i+1, reason.Text))
			r.pdf.Ln(1)
			continue
		}
		r.pdf.SetFont("Arial", "B", 10)
		r.pdf.CellFormat(contentW, lineHeight, r.tr(fmt.Sprintf("%d. %s", i+1, reason.Title)), "", 1, "L", false, 0, "")
		r.paragraph(reason.Text)
		r.pdf.Ln(1)
	}
}

func (r *renderer) ranking(ranked []contracts.Candidate) {
	if len(ranked) == 0 {
		return
	}
	r.numbered("Top Ranked Candidates")

	n := len(ranked)
	if n > topTableN {
		n = topTableN
	}
	rows := make([][]string, 0, n)
	for _, c := range ranked[:n] {
		rows = append(rows, []string{
			fmt.Sprintf("%d", c.Rank),
			c.Symbol,
			fmt.Sprintf("%d/10", c.Score.SmartMoney),
			fmt.Sprintf("%.1f", c.Score.Total),
			fmt.Sprintf("%.2f%%", c.Score.PriceDeltaPct),
		})
	}
	r.table([]float64{15, 30, 40, 40, 55}, []string{"Rank", "Symbol", "Smart Money", "Total", "Above Low"}, rows)
}

func (r *renderer) verdict(total float64) {
	r.heading("Recommendation")
	v := Verdict(total)
	switch v {
	case VerdictBuy:
		r.pdf.SetTextColor(6, 167, 125)
	case VerdictHold:
		r.pdf.SetTextColor(247, 127, 0)
	default:
		r.pdf.SetTextColor(214, 40, 40)
	}
	r.pdf.SetFont("Arial", "B", 18)
	r.pdf.CellFormat(contentW, 10, v, "", 1, "L", false, 0, "")
	r.pdf.SetTextColor(0, 0, 0)
}

func formatBillions(v float64) string {
	switch {
	case v >= 1e9 || v <= -1e9:
		return fmt.Sprintf("$%.2fB", v/1e9)
	case v >= 1e6 || v <= -1e6:
		return fmt.Sprintf("$%.2fM", v/1e6)
	default:
		return fmt.Sprintf("$%.0f", v)
	}
}

func ratio(v float64) string {
	return fmt.Sprintf("%.2f", v)
}

func percent(v float64) string {
	return fmt.Sprintf("%.2f%%", v*100)
}

func optional(v *float64, format func(float64) string) string {
	if v == nil {
		return "N/A"
	}
	return format(*v)
}
