// Package exporter renders pipeline output for external consumers: CSV
// tables and the multi-sheet Excel dashboard workbook.
package exporter

import (
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/xuri/excelize/v2"

	"marketdash/pkg/contracts/domain"
)

// Sheet names in the generated workbook.
const (
	SheetRawData   = "RawData"
	SheetMetrics   = "Metrics"
	SheetSummary   = "Summary"
	SheetDashboard = "Dashboard"
)

// pivotStartRow is the first row of the close-price pivot table on the
// Dashboard sheet; the header rows above hold the title and timestamp.
const pivotStartRow = 5

// WorkbookBuilder writes the dashboard workbook: raw observations, the full
// metric series, the summary table, and a Dashboard sheet with a close-price
// line chart and a total-return bar chart.
type WorkbookBuilder struct {
	logger *slog.Logger
	now    func() time.Time
}

// NewWorkbookBuilder creates a builder. A nil logger falls back to
// slog.Default.
func NewWorkbookBuilder(logger *slog.Logger) *WorkbookBuilder {
	if logger == nil {
		logger = slog.Default()
	}
	return &WorkbookBuilder{logger: logger, now: time.Now}
}

// Build writes the workbook to path, replacing any existing file.
func (b *WorkbookBuilder) Build(path string, observations []domain.Observation, points []domain.MetricPoint, rows []domain.SummaryRow) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetRawData); err != nil {
		return fmt.Errorf("rename raw data sheet: %w", err)
	}
	if err := b.writeRawData(f, observations); err != nil {
		return err
	}
	if err := b.writeMetrics(f, points); err != nil {
		return err
	}
	if err := b.writeSummary(f, rows); err != nil {
		return err
	}
	if err := b.writeDashboard(f, points, rows); err != nil {
		return err
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save workbook: %w", err)
	}

	b.logger.Info("wrote dashboard workbook",
		slog.String("path", path),
		slog.Int("observations", len(observations)),
		slog.Int("tickers", len(rows)))

	return nil
}

func (b *WorkbookBuilder) writeRawData(f *excelize.File, observations []domain.Observation) error {
	if err := setRow(f, SheetRawData, 1, "Date", "Ticker", "Close"); err != nil {
		return err
	}
	for i, obs := range observations {
		if err := setRow(f, SheetRawData, i+2, obs.DateString(), obs.Ticker, obs.Close); err != nil {
			return err
		}
	}
	return nil
}

func (b *WorkbookBuilder) writeMetrics(f *excelize.File, points []domain.MetricPoint) error {
	if _, err := f.NewSheet(SheetMetrics); err != nil {
		return fmt.Errorf("create metrics sheet: %w", err)
	}
	if err := setRow(f, SheetMetrics, 1, "Date", "Ticker", "Close", "Pct_Change", "MA_10", "MA_30", "Vol_10"); err != nil {
		return err
	}
	for i, p := range points {
		err := setRow(f, SheetMetrics, i+2,
			p.DateString(), p.Ticker, p.Close,
			cell(p.PctChange), cell(p.MA10), cell(p.MA30), cell(p.Vol10))
		if err != nil {
			return err
		}
	}
	return nil
}

func (b *WorkbookBuilder) writeSummary(f *excelize.File, rows []domain.SummaryRow) error {
	if _, err := f.NewSheet(SheetSummary); err != nil {
		return fmt.Errorf("create summary sheet: %w", err)
	}
	if err := setRow(f, SheetSummary, 1, "Ticker", "Total_Return", "Return_5D", "Vol_10", "Last_Close"); err != nil {
		return err
	}
	for i, row := range rows {
		err := setRow(f, SheetSummary, i+2,
			row.Ticker,
			cell(row.TotalReturn), cell(row.Return5D), cell(row.Vol10Latest), cell(row.LastClose))
		if err != nil {
			return err
		}
	}
	return nil
}

func (b *WorkbookBuilder) writeDashboard(f *excelize.File, points []domain.MetricPoint, rows []domain.SummaryRow) error {
	if _, err := f.NewSheet(SheetDashboard); err != nil {
		return fmt.Errorf("create dashboard sheet: %w", err)
	}
	if err := f.SetCellValue(SheetDashboard, "A1", "Financial Market Insights Dashboard"); err != nil {
		return fmt.Errorf("write dashboard title: %w", err)
	}
	generated := fmt.Sprintf("Generated: %s", b.now().Format("2006-01-02 15:04"))
	if err := f.SetCellValue(SheetDashboard, "A2", generated); err != nil {
		return fmt.Errorf("write dashboard timestamp: %w", err)
	}

	dates, tickers, pivot := pivotCloses(points)

	header := make([]interface{}, 0, len(tickers)+1)
	header = append(header, "Date")
	for _, ticker := range tickers {
		header = append(header, ticker)
	}
	if err := setRow(f, SheetDashboard, pivotStartRow, header...); err != nil {
		return err
	}
	for i, date := range dates {
		row := make([]interface{}, 0, len(tickers)+1)
		row = append(row, date)
		for _, ticker := range tickers {
			if v, ok := pivot[date][ticker]; ok {
				row = append(row, v)
			} else {
				row = append(row, nil)
			}
		}
		if err := setRow(f, SheetDashboard, pivotStartRow+1+i, row...); err != nil {
			return err
		}
	}

	if len(dates) > 0 && len(tickers) > 0 {
		if err := b.addPriceChart(f, dates, tickers); err != nil {
			return err
		}
	}

	summaryStart := pivotStartRow + len(dates) + 4
	if err := setRow(f, SheetDashboard, summaryStart, "Ticker", "Total_Return", "Return_5D", "Vol_10", "Last_Close"); err != nil {
		return err
	}
	for i, row := range rows {
		err := setRow(f, SheetDashboard, summaryStart+1+i,
			row.Ticker,
			cell(row.TotalReturn), cell(row.Return5D), cell(row.Vol10Latest), cell(row.LastClose))
		if err != nil {
			return err
		}
	}

	if len(rows) > 0 {
		if err := b.addReturnChart(f, summaryStart, len(rows)); err != nil {
			return err
		}
	}

	return nil
}

// addPriceChart anchors a line chart of Close per ticker over the pivot table.
func (b *WorkbookBuilder) addPriceChart(f *excelize.File, dates, tickers []string) error {
	firstData := pivotStartRow + 1
	lastData := pivotStartRow + len(dates)
	categories := fmt.Sprintf("%s!$A$%d:$A$%d", SheetDashboard, firstData, lastData)

	series := make([]excelize.ChartSeries, 0, len(tickers))
	for i := range tickers {
		col, err := excelize.ColumnNumberToName(i + 2)
		if err != nil {
			return fmt.Errorf("resolve chart column: %w", err)
		}
		series = append(series, excelize.ChartSeries{
			Name:       fmt.Sprintf("%s!$%s$%d", SheetDashboard, col, pivotStartRow),
			Categories: categories,
			Values:     fmt.Sprintf("%s!$%s$%d:$%s$%d", SheetDashboard, col, firstData, col, lastData),
		})
	}

	chart := &excelize.Chart{
		Type:   excelize.Line,
		Series: series,
		Title:  []excelize.RichTextRun{{Text: "Price Trend (Close)"}},
		XAxis:  excelize.ChartAxis{Title: []excelize.RichTextRun{{Text: "Date"}}},
		YAxis:  excelize.ChartAxis{Title: []excelize.RichTextRun{{Text: "Price"}}},
		Dimension: excelize.ChartDimension{
			Width:  960,
			Height: 480,
		},
	}
	if err := f.AddChart(SheetDashboard, "A4", chart); err != nil {
		return fmt.Errorf("add price chart: %w", err)
	}
	return nil
}

// addReturnChart anchors a column chart of Total_Return below the summary
// table.
func (b *WorkbookBuilder) addReturnChart(f *excelize.File, summaryStart, count int) error {
	firstData := summaryStart + 1
	lastData := summaryStart + count

	chart := &excelize.Chart{
		Type: excelize.Col,
		Series: []excelize.ChartSeries{{
			Name:       fmt.Sprintf("%s!$B$%d", SheetDashboard, summaryStart),
			Categories: fmt.Sprintf("%s!$A$%d:$A$%d", SheetDashboard, firstData, lastData),
			Values:     fmt.Sprintf("%s!$B$%d:$B$%d", SheetDashboard, firstData, lastData),
		}},
		Title: []excelize.RichTextRun{{Text: "Total Return (Period)"}},
		YAxis: excelize.ChartAxis{Title: []excelize.RichTextRun{{Text: "Return"}}},
		Dimension: excelize.ChartDimension{
			Width:  640,
			Height: 380,
		},
	}
	anchor := fmt.Sprintf("A%d", lastData+2)
	if err := f.AddChart(SheetDashboard, anchor, chart); err != nil {
		return fmt.Errorf("add return chart: %w", err)
	}
	return nil
}

// pivotCloses reshapes the combined metric series into date rows by ticker
// columns, both sorted ascending for deterministic output.
func pivotCloses(points []domain.MetricPoint) (dates, tickers []string, pivot map[string]map[string]float64) {
	pivot = make(map[string]map[string]float64)
	tickerSet := make(map[string]bool)

	for _, p := range points {
		date := p.DateString()
		if pivot[date] == nil {
			pivot[date] = make(map[string]float64)
		}
		pivot[date][p.Ticker] = p.Close
		tickerSet[p.Ticker] = true
	}

	for date := range pivot {
		dates = append(dates, date)
	}
	sort.Strings(dates)

	for ticker := range tickerSet {
		tickers = append(tickers, ticker)
	}
	sort.Strings(tickers)

	return dates, tickers, pivot
}

// setRow writes one row of values starting at column A.
func setRow(f *excelize.File, sheet string, row int, values ...interface{}) error {
	cellName, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return fmt.Errorf("resolve cell for row %d: %w", row, err)
	}
	if err := f.SetSheetRow(sheet, cellName, &values); err != nil {
		return fmt.Errorf("write row %d on %s: %w", row, sheet, err)
	}
	return nil
}

// cell converts an optional metric value to a writable cell value; nil stays
// nil so the cell is left blank.
func cell(v *float64) interface{} {
	if v == nil {
		return nil
	}
	return *v
}
