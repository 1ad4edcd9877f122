package exporter

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"marketdash/pkg/contracts/domain"
)

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

func TestWriteObservations(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "raw.csv")

	writer := NewCSVWriter(nil)
	err := writer.WriteObservations(path, []domain.Observation{
		{Date: day(0), Ticker: "ABC", Close: 10.5},
	})
	require.NoError(t, err)

	content := readFile(t, path)
	assert.True(t, strings.HasPrefix(content, "\xEF\xBB\xBF"), "BOM prefix for Excel")
	assert.Contains(t, content, "Date,Ticker,Close")
	assert.Contains(t, content, "2025-01-01,ABC,10.5")
}

func TestWriteMetricsOptionalFields(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "metrics.csv")

	writer := NewCSVWriter(nil)
	err := writer.WriteMetrics(path, []domain.MetricPoint{
		{Date: day(0), Ticker: "ABC", Close: 10.0},
		{Date: day(1), Ticker: "ABC", Close: 11.0, PctChange: domain.Float(0.1), MA10: domain.Float(10.5)},
	})
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(readFile(t, path)), "\n")
	require.Len(t, lines, 3)
	assert.Contains(t, lines[0], "Pct_Change,MA_10,MA_30,Vol_10")
	assert.Equal(t, "2025-01-01,ABC,10,,,,", lines[1], "undefined fields stay empty")
	assert.Equal(t, "2025-01-02,ABC,11,0.1,10.5,,", lines[2])
}

func TestWriteSummary(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "summary.csv")

	writer := NewCSVWriter(nil)
	err := writer.WriteSummary(path, []domain.SummaryRow{
		{Ticker: "XYZ"},
		{Ticker: "ABC", TotalReturn: domain.Float(0.25), LastClose: domain.Float(12)},
	})
	require.NoError(t, err)

	content := readFile(t, path)
	assert.Contains(t, content, "Ticker,Total_Return,Return_5D,Vol_10,Last_Close")
	assert.Contains(t, content, "XYZ,,,,")
	assert.Contains(t, content, "ABC,0.25,,,12")
}

func TestWriteCreatesDirectories(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "deeper", "out.csv")

	writer := NewCSVWriter(nil)
	require.NoError(t, writer.Write(path, []string{"A"}, [][]string{{"1"}}))
	assert.FileExists(t, path)
}
