package models

import "time"

// TradeEvent records one submitted swap batch for journaling and fan-out.
type TradeEvent struct {
	Signature      string    `json:"signature"`
	Timestamp      time.Time `json:"timestamp"`
	Owner          string    `json:"owner"`
	Pair           string    `json:"pair"`
	InputMint      string    `json:"input_mint"`
	OutputMint     string    `json:"output_mint"`
	AmountIn       uint64    `json:"amount_in"`
	ExpectedOut    uint64    `json:"expected_out"`
	MinimumOut     uint64    `json:"minimum_out"`
	Hops           int       `json:"hops"`
	Venue          string    `json:"venue"` // e.g. "ConstantProduct", "StableSwap"
	PriceImpactPct float64   `json:"price_impact_pct"`
	Fee            string    `json:"fee"`
}
