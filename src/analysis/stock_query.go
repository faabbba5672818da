package analysis

import (
	"math"
	"sort"
	"strings"

	"nepse-observer/src/models"
)

const (
	SectorAll       = "All"
	DefaultSortKey  = "symbol"
	DefaultPageSize = 15
)

// StockQuery describes a filtered, sorted and paged view of the stock list.
type StockQuery struct {
	Search     string
	Sector     string
	SortKey    string
	Descending bool
	Page       int // 1-based; 0 returns every match
	PageSize   int
}

type StockPage struct {
	Stocks     []models.MStock `json:"stocks"`
	Total      int             `json:"total"`
	Page       int             `json:"page"`
	PageSize   int             `json:"page_size"`
	TotalPages int             `json:"total_pages"`
}

// -----------------------------------------------------------------------------

var numericKeys = map[string]func(models.MStock) float64{
	"lastTradedPrice":    func(s models.MStock) float64 { return s.LastTradedPrice },
	"highPrice":          func(s models.MStock) float64 { return s.HighPrice },
	"lowPrice":           func(s models.MStock) float64 { return s.LowPrice },
	"change":             func(s models.MStock) float64 { return s.Change },
	"percentageChange":   func(s models.MStock) float64 { return s.PercentageChange },
	"totalTradeQuantity": func(s models.MStock) float64 { return s.TotalTradeQuantity },
	"totalTransactions":  func(s models.MStock) float64 { return s.TotalTransactions },
}

var stringKeys = map[string]func(models.MStock) string{
	"symbol":       func(s models.MStock) string { return s.Symbol },
	"securityName": func(s models.MStock) string { return s.SecurityName },
	"sector":       func(s models.MStock) string { return s.Sector },
}

// ValidSortKey reports whether key can be passed as StockQuery.SortKey.
func ValidSortKey(key string) bool {
	_, num := numericKeys[key]
	_, str := stringKeys[key]
	return num || str
}

// -----------------------------------------------------------------------------

// QueryStocks filters by search text and sector, then sorts. The input is not modified.
func QueryStocks(stocks []models.MStock, q StockQuery) StockPage {
	search := strings.ToLower(strings.TrimSpace(q.Search))
	sector := strings.TrimSpace(q.Sector)

	filtered := make([]models.MStock, 0, len(stocks))
	for _, s := range stocks {
		if search != "" &&
			!strings.Contains(strings.ToLower(s.Symbol), search) &&
			!strings.Contains(strings.ToLower(s.SecurityName), search) {
			continue
		}
		if sector != "" && sector != SectorAll && s.Sector != sector {
			continue
		}
		filtered = append(filtered, s)
	}

	sortStocks(filtered, q.SortKey, q.Descending)
	return paginate(filtered, q.Page, q.PageSize)
}

func sortStocks(stocks []models.MStock, key string, desc bool) {
	if !ValidSortKey(key) {
		key = DefaultSortKey
	}

	if get, ok := numericKeys[key]; ok {
		sort.SliceStable(stocks, func(i, j int) bool {
			if desc {
				return get(stocks[i]) > get(stocks[j])
			}
			return get(stocks[i]) < get(stocks[j])
		})
		return
	}

	get := stringKeys[key]
	sort.SliceStable(stocks, func(i, j int) bool {
		a, b := strings.ToLower(get(stocks[i])), strings.ToLower(get(stocks[j]))
		if desc {
			return a > b
		}
		return a < b
	})
}

func paginate(stocks []models.MStock, page, size int) StockPage {
	total := len(stocks)
	if page <= 0 {
		return StockPage{Stocks: stocks, Total: total, Page: 1, PageSize: total, TotalPages: 1}
	}
	if size <= 0 {
		size = DefaultPageSize
	}

	totalPages := int(math.Ceil(float64(total) / float64(size)))
	start := (page - 1) * size
	if start > total {
		start = total
	}
	end := start + size
	if end > total {
		end = total
	}

	return StockPage{
		Stocks:     stocks[start:end],
		Total:      total,
		Page:       page,
		PageSize:   size,
		TotalPages: totalPages,
	}
}

// -----------------------------------------------------------------------------

// Sectors returns "All" followed by the sorted distinct non-empty sectors.
func Sectors(stocks []models.MStock) []string {
	seen := make(map[string]struct{})
	var names []string
	for _, s := range stocks {
		if s.Sector == "" {
			continue
		}
		if _, ok := seen[s.Sector]; ok {
			continue
		}
		seen[s.Sector] = struct{}{}
		names = append(names, s.Sector)
	}
	sort.Strings(names)
	return append([]string{SectorAll}, names...)
}

// -----------------------------------------------------------------------------

// TopMovers returns up to n gainers (highest percentage change first) and n
// losers (lowest first). Unchanged stocks are in neither list.
func TopMovers(stocks []models.MStock, n int) (gainers, losers []models.MStock) {
	for _, s := range stocks {
		switch {
		case s.PercentageChange > 0:
			gainers = append(gainers, s)
		case s.PercentageChange < 0:
			losers = append(losers, s)
		}
	}

	sort.SliceStable(gainers, func(i, j int) bool { return gainers[i].PercentageChange > gainers[j].PercentageChange })
	sort.SliceStable(losers, func(i, j int) bool { return losers[i].PercentageChange < losers[j].PercentageChange })

	if n > 0 && len(gainers) > n {
		gainers = gainers[:n]
	}
	if n > 0 && len(losers) > n {
		losers = losers[:n]
	}
	return gainers, losers
}
