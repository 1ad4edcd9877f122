// Package fetch downloads daily closing prices from the Yahoo Finance chart
// API and persists them as per-ticker CSV files the ingestion layer can read
// back. It is an external collaborator of the pipeline: everything here is
// I/O, nothing here computes.
package fetch

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"golang.org/x/time/rate"

	"marketdash/internal/config"
	"marketdash/pkg/contracts/domain"
)

// userAgent identifies the client; Yahoo rejects requests without one.
const userAgent = "marketdash/1.0"

// Client fetches daily close series, one ticker per request, rate limited.
type Client struct {
	http     *resty.Client
	limiter  *rate.Limiter
	logger   *slog.Logger
	rangeArg string
	interval string
}

// NewClient creates a fetch client from the fetch configuration. A nil
// logger falls back to slog.Default.
func NewClient(cfg config.FetchConfig, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	http := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(cfg.Timeout).
		SetHeader("User-Agent", userAgent)

	return &Client{
		http:     http,
		limiter:  rate.NewLimiter(rate.Limit(cfg.RPS), 1),
		logger:   logger,
		rangeArg: cfg.Range,
		interval: cfg.Interval,
	}
}

// chartResponse mirrors the subset of the Yahoo v8 chart payload we read.
// Closes arrive as a nullable array aligned with the timestamp array.
type chartResponse struct {
	Chart struct {
		Result []struct {
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Close []*float64 `json:"close"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

// DailyCloses fetches the close series for one ticker, ordered by date
// ascending. Null closes in the payload are skipped; an empty result is
// returned as an empty slice, not an error, so callers can log and move on.
func (c *Client) DailyCloses(ctx context.Context, ticker string) ([]domain.Observation, error) {
	ticker = strings.ToUpper(strings.TrimSpace(ticker))
	if ticker == "" {
		return nil, fmt.Errorf("empty ticker")
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	var payload chartResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"range":    c.rangeArg,
			"interval": c.interval,
		}).
		SetResult(&payload).
		ForceContentType("application/json").
		Get("/v8/finance/chart/" + url.PathEscape(ticker))
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", ticker, err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("fetch %s: unexpected status %s", ticker, resp.Status())
	}
	if payload.Chart.Error != nil {
		return nil, fmt.Errorf("fetch %s: %s: %s", ticker, payload.Chart.Error.Code, payload.Chart.Error.Description)
	}
	if len(payload.Chart.Result) == 0 || len(payload.Chart.Result[0].Indicators.Quote) == 0 {
		c.logger.WarnContext(ctx, "no data returned", slog.String("ticker", ticker))
		return nil, nil
	}

	result := payload.Chart.Result[0]
	closes := result.Indicators.Quote[0].Close

	var observations []domain.Observation
	for i, ts := range result.Timestamp {
		if i >= len(closes) || closes[i] == nil {
			continue
		}
		observations = append(observations, domain.Observation{
			Date:   domain.Day(time.Unix(ts, 0).UTC()),
			Ticker: ticker,
			Close:  *closes[i],
		})
	}

	sort.Slice(observations, func(i, j int) bool {
		return observations[i].Date.Before(observations[j].Date)
	})

	c.logger.InfoContext(ctx, "fetched ticker",
		slog.String("ticker", ticker),
		slog.Int("observations", len(observations)))

	return observations, nil
}
