package domain

// SummaryRow is the per-ticker reduction of a complete MetricPoint series.
// It is computed once per pipeline run and never mutated afterward. Nil
// fields mean "not computable" (empty or short series, zero first close),
// which downstream consumers render as blank cells or SQL NULLs.
type SummaryRow struct {
	Ticker      string   `json:"ticker" csv:"Ticker"`
	TotalReturn *float64 `json:"total_return,omitempty" csv:"Total_Return"`
	Return5D    *float64 `json:"return_5d,omitempty" csv:"Return_5D"`
	Vol10Latest *float64 `json:"vol_10,omitempty" csv:"Vol_10"`
	LastClose   *float64 `json:"last_close,omitempty" csv:"Last_Close"`
}
