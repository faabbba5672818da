package models

// MStock is one record of the secondary feed (live-nepse), keyed by Symbol.
type MStock struct {
	Symbol             string  `json:"symbol"`
	SecurityName       string  `json:"securityName,omitempty"`
	Sector             string  `json:"sector,omitempty"`
	LastTradedPrice    float64 `json:"lastTradedPrice"`
	HighPrice          float64 `json:"highPrice"`
	LowPrice           float64 `json:"lowPrice"`
	Change             float64 `json:"change"`
	PercentageChange   float64 `json:"percentageChange"`
	TotalTradeQuantity float64 `json:"totalTradeQuantity"`
	TotalTransactions  float64 `json:"totalTransactions"`
	IconURL            string  `json:"iconUrl,omitempty"`
}
