package domain

import (
	"time"
)

// DateFormat is the canonical date layout used across CSV files, workbook
// cells and log records.
const DateFormat = "2006-01-02"

// Observation is a single daily closing price for one ticker. Dates carry no
// time-of-day component; the normalizer pins them to midnight UTC.
type Observation struct {
	Date   time.Time `json:"date" csv:"Date"`
	Ticker string    `json:"ticker" csv:"Ticker"`
	Close  float64   `json:"close" csv:"Close" validate:"min=0"`
}

// DateString returns the observation date in the canonical layout.
func (o Observation) DateString() string {
	return o.Date.Format(DateFormat)
}

// Day truncates t to midnight UTC, discarding any time-of-day and zone info.
func Day(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// Float returns a pointer to v. Derived metric fields use *float64 so that
// warm-up and missing-data states stay distinguishable from a real zero.
func Float(v float64) *float64 {
	return &v
}
