package app

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"marketdash/internal/config"
)

func writeFixture(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()
	out := t.TempDir()

	writeFixture(t, dir, "ABC.csv", "Date,Ticker,Close\n2024-01-02,ABC,10\n2024-01-03,ABC,11\n2024-01-04,ABC,12\n")
	writeFixture(t, dir, "XYZ.csv", "Date,Ticker,Close\n2024-01-02,XYZ,50\n2024-01-03,XYZ,49\n")

	return &config.Config{
		Data: config.DataConfig{
			Dir:     dir,
			OutFile: filepath.Join(out, "dashboard.xlsx"),
			CSVDir:  filepath.Join(out, "reports"),
		},
		History: config.HistoryConfig{
			DBPath: filepath.Join(out, "history.db"),
		},
	}
}

func TestBuildEndToEnd(t *testing.T) {
	cfg := testConfig(t)

	result, err := Build(context.Background(), cfg, nil)
	require.NoError(t, err)

	assert.NotEmpty(t, result.RunID)
	assert.Len(t, result.Summaries, 2)
	assert.Equal(t, "ABC", result.Summaries[0].Ticker)
	assert.Equal(t, "XYZ", result.Summaries[1].Ticker)

	f, err := excelize.OpenFile(cfg.Data.OutFile)
	require.NoError(t, err)
	defer f.Close()
	assert.Equal(t, []string{"RawData", "Metrics", "Summary", "Dashboard"}, f.GetSheetList())
}

func TestBuildExportsCSV(t *testing.T) {
	cfg := testConfig(t)
	cfg.Data.ExportCSV = true

	_, err := Build(context.Background(), cfg, nil)
	require.NoError(t, err)

	assert.FileExists(t, filepath.Join(cfg.Data.CSVDir, "metrics.csv"))
	assert.FileExists(t, filepath.Join(cfg.Data.CSVDir, "summary.csv"))
}

func TestBuildRecordsHistory(t *testing.T) {
	cfg := testConfig(t)
	cfg.History.Enabled = true

	_, err := Build(context.Background(), cfg, nil)
	require.NoError(t, err)

	assert.FileExists(t, cfg.History.DBPath)
}

func TestBuildEmptyDataDir(t *testing.T) {
	cfg := testConfig(t)
	cfg.Data.Dir = t.TempDir()

	_, err := Build(context.Background(), cfg, nil)
	assert.Error(t, err)
}
