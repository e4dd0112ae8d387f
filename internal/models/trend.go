package models

// TrendDelta is the derived comparison between two consecutive snapshots.
// Computed fresh on each report run, never persisted.
type TrendDelta struct {
	Date              string   `json:"date"` // latest snapshot's date
	SalesChangePct    float64  `json:"sales_change_pct"`
	AvgPriceChangePct float64  `json:"avg_price_change_pct"`
	RisingKeywords    []string `json:"rising_keywords"`  // ordered by latest rank, max 5
	RisingEntities    []string `json:"rising_entities"`  // sorted for determinism
	FallingEntities   []string `json:"falling_entities"` // sorted for determinism
	Stable            bool     `json:"stable"`
}
