package analysis

import (
	"math"
	"sort"

	"nepse-observer/src/analysis/core"
	"nepse-observer/src/models"
)

// SectorStats summarises one sector of the stock list.
type SectorStats struct {
	Sector            string  `json:"sector"`
	Stocks            int     `json:"stocks"`
	Advanced          int     `json:"advanced"`
	Declined          int     `json:"declined"`
	Unchanged         int     `json:"unchanged"`
	MeanChangePercent float64 `json:"mean_change_percent"`
	StdChangePercent  float64 `json:"std_change_percent"`
	TotalQuantity     float64 `json:"total_quantity"`
	TotalTransactions float64 `json:"total_transactions"`
}

// UnusualStock is a stock whose move or volume stands out from its sector.
type UnusualStock struct {
	Symbol        string  `json:"symbol"`
	Sector        string  `json:"sector"`
	ChangePercent float64 `json:"change_percent"`
	ZScore        float64 `json:"z_score"`
	VolumeRatio   float64 `json:"volume_ratio"`
	RangePosition float64 `json:"range_position"`
}

// -----------------------------------------------------------------------------

func groupBySector(stocks []models.MStock) map[string][]models.MStock {
	groups := make(map[string][]models.MStock)
	for _, s := range stocks {
		sector := s.Sector
		if sector == "" {
			sector = "Others"
		}
		groups[sector] = append(groups[sector], s)
	}
	return groups
}

// SectorSummaries returns per-sector breadth and change statistics, sorted by sector.
func SectorSummaries(stocks []models.MStock) []SectorStats {
	groups := groupBySector(stocks)

	out := make([]SectorStats, 0, len(groups))
	for sector, members := range groups {
		changes := make([]float64, 0, len(members))
		quantities := make([]float64, 0, len(members))
		transactions := make([]float64, 0, len(members))

		st := SectorStats{Sector: sector, Stocks: len(members)}
		for _, s := range members {
			changes = append(changes, s.PercentageChange)
			quantities = append(quantities, s.TotalTradeQuantity)
			transactions = append(transactions, s.TotalTransactions)
			switch {
			case s.PercentageChange > 0:
				st.Advanced++
			case s.PercentageChange < 0:
				st.Declined++
			default:
				st.Unchanged++
			}
		}

		st.MeanChangePercent, st.StdChangePercent = core.CalculateMeanStd(changes)
		st.TotalQuantity = core.Sum(quantities)
		st.TotalTransactions = core.Sum(transactions)
		out = append(out, st)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Sector < out[j].Sector })
	return out
}

// -----------------------------------------------------------------------------

// UnusualActivity flags stocks whose percentage change is at least zThreshold
// standard deviations from their sector mean, or whose traded quantity is at
// least volumeThreshold times the sector average. Sorted by |z| descending.
func UnusualActivity(stocks []models.MStock, zThreshold, volumeThreshold float64) []UnusualStock {
	var out []UnusualStock

	for sector, members := range groupBySector(stocks) {
		changes := make([]float64, 0, len(members))
		quantities := make([]float64, 0, len(members))
		for _, s := range members {
			changes = append(changes, s.PercentageChange)
			quantities = append(quantities, s.TotalTradeQuantity)
		}
		mean, std := core.CalculateMeanStd(changes)
		avgQty, _ := core.CalculateMeanStd(quantities)

		for _, s := range members {
			z := core.CalculateZScore(s.PercentageChange, mean, std)
			ratio := core.CalculateAnomalyRatio(s.TotalTradeQuantity, avgQty)
			if math.Abs(z) < zThreshold && ratio < volumeThreshold {
				continue
			}
			out = append(out, UnusualStock{
				Symbol:        s.Symbol,
				Sector:        sector,
				ChangePercent: s.PercentageChange,
				ZScore:        z,
				VolumeRatio:   ratio,
				RangePosition: core.DayRangePosition(s.LastTradedPrice, s.LowPrice, s.HighPrice),
			})
		}
	}

	sort.Slice(out, func(i, j int) bool {
		if math.Abs(out[i].ZScore) != math.Abs(out[j].ZScore) {
			return math.Abs(out[i].ZScore) > math.Abs(out[j].ZScore)
		}
		return out[i].Symbol < out[j].Symbol
	})
	return out
}

// -----------------------------------------------------------------------------

// IndexChangePercent recomputes an index's percentage move from its value and
// point change, for payloads that omit changePercent.
func IndexChangePercent(idx models.MIndex) float64 {
	if idx.ChangePercent != 0 {
		return idx.ChangePercent
	}
	return core.CalculateChangePercent(idx.CurrentValue, core.PreviousClose(idx.CurrentValue, idx.Change))
}
