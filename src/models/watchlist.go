package models

// MWatchlist is the stored symbol list resolved against the latest stock data.
type MWatchlist struct {
	Symbols    []string `json:"symbols"`
	Stocks     []MStock `json:"stocks"`
	Unresolved []string `json:"unresolved"`
}
