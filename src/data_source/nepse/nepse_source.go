package nepse

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"nepse-observer/src/helpers"
	"nepse-observer/src/interfaces"
	"nepse-observer/src/logger"
	"nepse-observer/src/models"

	"github.com/tidwall/gjson"
)

// Upstream paths relative to the configured base URL.
const (
	pathLiveData     = "/live/api/v2/nepselive/home-page-data"
	pathAllStocks    = "/live/api/v2/nepselive/live-nepse"
	pathMarketStatus = "/live/api/v1/nepselive/market-status"
)

// Raw kinds accepted by FetchRaw.
const (
	KindLiveData     = "live-data"
	KindAllStocks    = "all-stocks"
	KindMarketStatus = "market-status"
	KindFloorsheet   = "floorsheet"
)

const (
	defaultFloorsheetSize = 20
	defaultFloorsheetPage = 1
)

// Source reads the NEPSE live feeds through a network manager.
type Source struct {
	BaseURL       string
	FloorsheetURL string
	Network       interfaces.INetworkManager
	Logger        *logger.Logger
}

// -----------------------------------------------------------------------------

func NewSource(cfg *models.MConfig, netMgr interfaces.INetworkManager, log *logger.Logger) *Source {
	return &Source{
		BaseURL:       strings.TrimRight(cfg.Network.BaseURL, "/"),
		FloorsheetURL: cfg.Network.FloorsheetURL,
		Network:       netMgr,
		Logger:        log,
	}
}

// -----------------------------------------------------------------------------

// FetchLiveData reads the primary feed. Sections that are missing or of the
// wrong shape are left empty instead of failing the whole payload.
func (s *Source) FetchLiveData(ctx context.Context) (*models.MLiveData, error) {
	body, err := s.Network.Get(ctx, s.BaseURL+pathLiveData, nil)
	if err != nil {
		return nil, fmt.Errorf("fetch live data: %w", err)
	}
	return ParseLiveData(body), nil
}

// ParseLiveData extracts the primary payload. Invalid JSON yields an empty value.
func ParseLiveData(body []byte) *models.MLiveData {
	data := &models.MLiveData{}
	if !gjson.ValidBytes(body) {
		return data
	}
	root := gjson.ParseBytes(body)

	data.MarketStatus = models.MMarketStatus{
		Status: root.Get("marketStatus.status").String(),
		Time:   root.Get("marketStatus.time").String(),
	}

	root.Get("indices").ForEach(func(_, v gjson.Result) bool {
		data.Indices = append(data.Indices, models.MIndex{
			Symbol:        v.Get("symbol").String(),
			Name:          v.Get("name").String(),
			CurrentValue:  v.Get("currentValue").Float(),
			Change:        v.Get("change").Float(),
			ChangePercent: v.Get("changePercent").Float(),
		})
		return true
	})

	data.TopGainers = parseTopStocks(root.Get("topGainers"))
	data.TopLosers = parseTopStocks(root.Get("topLosers"))

	root.Get("marketSummary").ForEach(func(_, v gjson.Result) bool {
		data.MarketSummary = append(data.MarketSummary, models.MSummaryItem{
			Name:  v.Get("name").String(),
			Value: v.Get("value").Float(),
		})
		return true
	})

	summary := root.Get("stockSummary")
	data.StockSummary = models.MStockSummary{
		Advanced:  int(summary.Get("advanced").Int()),
		Declined:  int(summary.Get("declined").Int()),
		Unchanged: int(summary.Get("unchanged").Int()),
	}
	return data
}

func parseTopStocks(list gjson.Result) []models.MTopStock {
	var out []models.MTopStock
	list.ForEach(func(_, v gjson.Result) bool {
		out = append(out, models.MTopStock{
			Symbol:          v.Get("symbol").String(),
			Name:            v.Get("name").String(),
			LastTradedPrice: v.Get("lastTradedPrice").Float(),
			Change:          v.Get("change").Float(),
			ChangePercent:   v.Get("changePercent").Float(),
			Icon:            firstString(v, "icon", "iconUrl"),
		})
		return true
	})
	return out
}

// -----------------------------------------------------------------------------

// FetchAllStocks reads the secondary feed, de-duplicated by symbol.
func (s *Source) FetchAllStocks(ctx context.Context) ([]models.MStock, error) {
	body, err := s.Network.Get(ctx, s.BaseURL+pathAllStocks, nil)
	if err != nil {
		return nil, fmt.Errorf("fetch all stocks: %w", err)
	}
	return ParseStocks(body), nil
}

// ParseStocks reads the stock list under "data" or "liveStocks". A missing,
// empty or malformed list yields an empty slice. When a symbol repeats, the
// entry keeps its first position and takes the last record's values.
func ParseStocks(body []byte) []models.MStock {
	if !gjson.ValidBytes(body) {
		return []models.MStock{}
	}

	list := gjson.GetBytes(body, "data")
	if !list.IsArray() || len(list.Array()) == 0 {
		list = gjson.GetBytes(body, "liveStocks")
	}
	if !list.IsArray() {
		return []models.MStock{}
	}

	stocks := make([]models.MStock, 0, len(list.Array()))
	index := make(map[string]int)
	list.ForEach(func(_, v gjson.Result) bool {
		if !v.IsObject() {
			return true
		}
		stock := parseStock(v)
		if stock.Symbol == "" {
			return true
		}
		if i, ok := index[stock.Symbol]; ok {
			stocks[i] = stock
			return true
		}
		index[stock.Symbol] = len(stocks)
		stocks = append(stocks, stock)
		return true
	})
	return stocks
}

func parseStock(v gjson.Result) models.MStock {
	return models.MStock{
		Symbol:             strings.TrimSpace(v.Get("symbol").String()),
		SecurityName:       firstString(v, "securityName", "companyName", "name"),
		Sector:             firstString(v, "sector", "sectorName"),
		LastTradedPrice:    v.Get("lastTradedPrice").Float(),
		HighPrice:          v.Get("highPrice").Float(),
		LowPrice:           v.Get("lowPrice").Float(),
		Change:             v.Get("change").Float(),
		PercentageChange:   v.Get("percentageChange").Float(),
		TotalTradeQuantity: v.Get("totalTradeQuantity").Float(),
		TotalTransactions:  v.Get("totalTransactions").Float(),
		IconURL:            firstString(v, "iconUrl", "icon"),
	}
}

func firstString(v gjson.Result, keys ...string) string {
	for _, k := range keys {
		if s := v.Get(k).String(); s != "" {
			return s
		}
	}
	return ""
}

// -----------------------------------------------------------------------------

// FetchMarketStatus reads the standalone market-status endpoint.
func (s *Source) FetchMarketStatus(ctx context.Context) (models.MMarketStatus, error) {
	body, err := s.Network.Get(ctx, s.BaseURL+pathMarketStatus, nil)
	if err != nil {
		return models.MMarketStatus{}, fmt.Errorf("fetch market status: %w", err)
	}

	root := gjson.ParseBytes(body)
	for _, prefix := range []string{"", "data.", "marketStatus."} {
		if status := root.Get(prefix + "status"); status.Exists() {
			return models.MMarketStatus{
				Status: status.String(),
				Time:   firstString(root, prefix+"time", prefix+"asOf"),
			}, nil
		}
	}
	return models.MMarketStatus{}, helpers.NewDataSourceError("market status missing from payload", nil)
}

// -----------------------------------------------------------------------------

// FetchFloorsheet reads one page of executed contracts.
func (s *Source) FetchFloorsheet(ctx context.Context, q models.MFloorsheetQuery) (*models.MFloorsheetResponse, error) {
	body, err := s.Network.Get(ctx, s.FloorsheetURL, floorsheetParams(q))
	if err != nil {
		return nil, fmt.Errorf("fetch floorsheet: %w", err)
	}

	var resp models.MFloorsheetResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, helpers.NewDataSourceError("decode floorsheet", err)
	}
	return &resp, nil
}

func floorsheetParams(q models.MFloorsheetQuery) map[string]string {
	if q.Size <= 0 {
		q.Size = defaultFloorsheetSize
	}
	if q.Page <= 0 {
		q.Page = defaultFloorsheetPage
	}

	params := map[string]string{
		"Size": strconv.Itoa(q.Size),
		"page": strconv.Itoa(q.Page),
	}
	if sym := strings.TrimSpace(q.Symbol); sym != "" {
		params["symbol"] = sym
	}
	return params
}

// -----------------------------------------------------------------------------

// FetchRaw returns the upstream JSON untouched for pass-through routes.
func (s *Source) FetchRaw(ctx context.Context, kind string, params map[string]string) ([]byte, error) {
	switch kind {
	case KindLiveData:
		return s.Network.Get(ctx, s.BaseURL+pathLiveData, nil)
	case KindAllStocks:
		return s.Network.Get(ctx, s.BaseURL+pathAllStocks, nil)
	case KindMarketStatus:
		return s.Network.Get(ctx, s.BaseURL+pathMarketStatus, nil)
	case KindFloorsheet:
		q := models.MFloorsheetQuery{Symbol: params["symbol"]}
		q.Size, _ = strconv.Atoi(params["size"])
		q.Page, _ = strconv.Atoi(params["page"])
		return s.Network.Get(ctx, s.FloorsheetURL, floorsheetParams(q))
	default:
		return nil, helpers.NewValidationError("unknown upstream kind %q", kind)
	}
}
