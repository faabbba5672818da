package models

import "strings"

// -----------------------------------------------------------------------------
// Primary feed payload (home-page-data)
// -----------------------------------------------------------------------------

type MLiveData struct {
	MarketStatus  MMarketStatus  `json:"marketStatus"`
	Indices       []MIndex       `json:"indices"`
	TopGainers    []MTopStock    `json:"topGainers"`
	TopLosers     []MTopStock    `json:"topLosers"`
	MarketSummary []MSummaryItem `json:"marketSummary"`
	StockSummary  MStockSummary  `json:"stockSummary"`
}

type MMarketStatus struct {
	Status string `json:"status"`
	Time   string `json:"time"` // Nepal wall clock with a spurious trailing Z
}

type MIndex struct {
	Symbol        string  `json:"symbol"`
	Name          string  `json:"name"`
	CurrentValue  float64 `json:"currentValue"`
	Change        float64 `json:"change"`
	ChangePercent float64 `json:"changePercent"`
}

type MTopStock struct {
	Symbol          string  `json:"symbol"`
	Name            string  `json:"name,omitempty"`
	LastTradedPrice float64 `json:"lastTradedPrice"`
	Change          float64 `json:"change"`
	ChangePercent   float64 `json:"changePercent"`
	Icon            string  `json:"icon,omitempty"`
}

type MSummaryItem struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"`
}

type MStockSummary struct {
	Advanced  int `json:"advanced"`
	Declined  int `json:"declined"`
	Unchanged int `json:"unchanged"`
}

// -----------------------------------------------------------------------------

// StatusOpen reports whether the upstream status string reads as open.
// Only "OPEN" and "Open" count.
func (d *MLiveData) StatusOpen() bool {
	if d == nil {
		return false
	}
	return d.MarketStatus.Status == "OPEN" || d.MarketStatus.Status == "Open"
}

// SummaryValue returns the value of the first summary item whose name contains key.
func (d *MLiveData) SummaryValue(key string) float64 {
	if d == nil {
		return 0
	}
	for _, item := range d.MarketSummary {
		if strings.Contains(item.Name, key) {
			return item.Value
		}
	}
	return 0
}

func (d *MLiveData) Turnover() float64      { return d.SummaryValue("Turnover") }
func (d *MLiveData) Shares() float64        { return d.SummaryValue("Shares") }
func (d *MLiveData) Transactions() float64  { return d.SummaryValue("Transactions") }
func (d *MLiveData) ScriptsTraded() float64 { return d.SummaryValue("Scripts") }

// MainIndex returns the NEPSE index if present.
func (d *MLiveData) MainIndex() (MIndex, bool) {
	if d == nil {
		return MIndex{}, false
	}
	for _, idx := range d.Indices {
		if idx.Symbol == "NEPSE" {
			return idx, true
		}
	}
	return MIndex{}, false
}

// Clone returns a copy that shares no slices with d.
func (d *MLiveData) Clone() *MLiveData {
	if d == nil {
		return nil
	}
	out := *d
	out.Indices = append([]MIndex(nil), d.Indices...)
	out.TopGainers = append([]MTopStock(nil), d.TopGainers...)
	out.TopLosers = append([]MTopStock(nil), d.TopLosers...)
	out.MarketSummary = append([]MSummaryItem(nil), d.MarketSummary...)
	return &out
}
