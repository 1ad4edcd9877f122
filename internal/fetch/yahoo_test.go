package fetch

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"marketdash/internal/config"
	"marketdash/pkg/contracts/domain"
)

func testConfig(baseURL string) config.FetchConfig {
	return config.FetchConfig{
		BaseURL:  baseURL,
		Range:    "3mo",
		Interval: "1d",
		Timeout:  5 * time.Second,
		RPS:      1000, // effectively unlimited in tests
	}
}

func chartPayload(ts []int64, closes []string) string {
	body := `{"chart":{"result":[{"timestamp":[`
	for i, t := range ts {
		if i > 0 {
			body += ","
		}
		body += fmt.Sprintf("%d", t)
	}
	body += `],"indicators":{"quote":[{"close":[`
	for i, c := range closes {
		if i > 0 {
			body += ","
		}
		body += c
	}
	body += `]}]}}],"error":null}}`
	return body
}

func TestDailyCloses(t *testing.T) {
	day1 := time.Date(2025, 1, 2, 14, 30, 0, 0, time.UTC)
	day2 := day1.AddDate(0, 0, 1)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v8/finance/chart/AAPL", r.URL.Path)
		assert.Equal(t, "3mo", r.URL.Query().Get("range"))
		assert.Equal(t, "1d", r.URL.Query().Get("interval"))
		assert.NotEmpty(t, r.Header.Get("User-Agent"))

		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, chartPayload(
			[]int64{day1.Unix(), day2.Unix()},
			[]string{"185.5", "187.25"},
		))
	}))
	defer server.Close()

	client := NewClient(testConfig(server.URL), nil)
	observations, err := client.DailyCloses(context.Background(), "aapl")
	require.NoError(t, err)
	require.Len(t, observations, 2)

	assert.Equal(t, "AAPL", observations[0].Ticker, "ticker is upper-cased")
	assert.Equal(t, domain.Day(day1), observations[0].Date, "timestamps collapse to dates")
	assert.Equal(t, 185.5, observations[0].Close)
	assert.Equal(t, 187.25, observations[1].Close)
}

func TestDailyClosesSkipsNulls(t *testing.T) {
	now := time.Now().UTC()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, chartPayload(
			[]int64{now.Unix(), now.AddDate(0, 0, 1).Unix(), now.AddDate(0, 0, 2).Unix()},
			[]string{"10.0", "null", "12.0"},
		))
	}))
	defer server.Close()

	client := NewClient(testConfig(server.URL), nil)
	observations, err := client.DailyCloses(context.Background(), "ABC")
	require.NoError(t, err)
	require.Len(t, observations, 2, "null close is skipped")
	assert.Equal(t, 10.0, observations[0].Close)
	assert.Equal(t, 12.0, observations[1].Close)
}

func TestDailyClosesEmptyResult(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"chart":{"result":[],"error":null}}`)
	}))
	defer server.Close()

	client := NewClient(testConfig(server.URL), nil)
	observations, err := client.DailyCloses(context.Background(), "NOPE")
	require.NoError(t, err, "an empty chart is not an error")
	assert.Empty(t, observations)
}

func TestDailyClosesAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"chart":{"result":null,"error":{"code":"Not Found","description":"No data found"}}}`)
	}))
	defer server.Close()

	client := NewClient(testConfig(server.URL), nil)
	_, err := client.DailyCloses(context.Background(), "BAD")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "No data found")
}

func TestDailyClosesHTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	client := NewClient(testConfig(server.URL), nil)
	_, err := client.DailyCloses(context.Background(), "ABC")
	require.Error(t, err)
}

func TestDailyClosesEmptyTicker(t *testing.T) {
	client := NewClient(testConfig("http://localhost:0"), nil)
	_, err := client.DailyCloses(context.Background(), "  ")
	assert.Error(t, err)
}

func TestStoreSave(t *testing.T) {
	dir := t.TempDir()
	store := NewStore(dir, nil)

	observations := []domain.Observation{
		{Date: time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC), Ticker: "AAPL", Close: 185.5},
	}
	require.NoError(t, store.Save(context.Background(), "AAPL", observations))

	data, err := os.ReadFile(filepath.Join(dir, "AAPL.csv"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "Date,Ticker,Close")
	assert.Contains(t, string(data), "2025-01-02,AAPL,185.5")
}

func TestStoreSaveEmptySkipped(t *testing.T) {
	dir := t.TempDir()
	store := NewStore(dir, nil)

	require.NoError(t, store.Save(context.Background(), "EMPTY", nil))
	assert.NoFileExists(t, filepath.Join(dir, "EMPTY.csv"))
}
