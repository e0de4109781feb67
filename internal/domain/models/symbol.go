package models

// SymbolResolution is the contract the core consumes from symbol lookup.
type SymbolResolution struct {
	Ticker string  `json:"ticker"`
	Name   string  `json:"name"`
	Price  float64 `json:"price"`
	// Source is "inference", "heuristic" or "cache".
	Source string `json:"source"`
}

// Quote is a point-in-time price used to refresh the anchor.
type Quote struct {
	Symbol string  `json:"symbol"`
	Price  float64 `json:"price"`
	Stale  bool    `json:"stale"`
}
