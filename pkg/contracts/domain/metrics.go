package domain

import (
	"time"
)

// MetricPoint is the per-observation output of the metrics engine: the raw
// close plus the derived rolling statistics. A nil field means the statistic
// is not computable at that point (start of series, rolling-window warm-up).
// That is an expected state, not an error.
type MetricPoint struct {
	Date      time.Time `json:"date" csv:"Date"`
	Ticker    string    `json:"ticker" csv:"Ticker"`
	Close     float64   `json:"close" csv:"Close"`
	PctChange *float64  `json:"pct_change,omitempty" csv:"Pct_Change"`
	MA10      *float64  `json:"ma_10,omitempty" csv:"MA_10"`
	MA30      *float64  `json:"ma_30,omitempty" csv:"MA_30"`
	Vol10     *float64  `json:"vol_10,omitempty" csv:"Vol_10"`
}

// DateString returns the point date in the canonical layout.
func (p MetricPoint) DateString() string {
	return p.Date.Format(DateFormat)
}
