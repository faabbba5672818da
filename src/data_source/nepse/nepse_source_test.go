package nepse

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"nepse-observer/src/helpers"
	"nepse-observer/src/logger"
	"nepse-observer/src/models"
	"nepse-observer/src/network"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const homePageFixture = `{
  "marketStatus": {"status": "OPEN", "time": "2025-01-06T13:05:00Z"},
  "indices": [
    {"symbol": "NEPSE", "name": "NEPSE Index", "currentValue": 2650.5, "change": 12.3, "changePercent": 0.47},
    {"symbol": "SENSITIVE", "name": "Sensitive Index", "currentValue": 455.1, "change": -1.2, "changePercent": -0.26}
  ],
  "topGainers": [{"symbol": "NABIL", "lastTradedPrice": 540, "change": 49, "changePercent": 9.98, "iconUrl": "n.png"}],
  "topLosers": [{"symbol": "HDL", "lastTradedPrice": 1200, "change": -60, "changePercent": -4.76}],
  "marketSummary": [
    {"name": "Total Turnover Rs:", "value": 4523456789.5},
    {"name": "Total Traded Shares", "value": 10234567},
    {"name": "Total Transactions", "value": 80123},
    {"name": "Total Scrips Traded", "value": 310}
  ],
  "stockSummary": {"advanced": 120, "declined": 95, "unchanged": 12}
}`

func newTestSource(t *testing.T, handler http.HandlerFunc) *Source {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	cfg := &models.MConfig{
		Network: models.MNetworkConfig{
			BaseURL:        srv.URL + "/",
			FloorsheetURL:  srv.URL + "/floorsheet",
			RequestTimeout: 5,
		},
	}
	log := logger.NewWriterLogger(io.Discard, "NepseSource", logger.LevelDebug)
	return NewSource(cfg, network.NewNetworkManager(cfg, log), log)
}

// -----------------------------------------------------------------------------

func TestFetchLiveData(t *testing.T) {
	src := newTestSource(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, pathLiveData, r.URL.Path)
		_, _ = w.Write([]byte(homePageFixture))
	})

	data, err := src.FetchLiveData(context.Background())
	require.NoError(t, err)

	assert.True(t, data.StatusOpen())
	assert.Equal(t, "2025-01-06T13:05:00Z", data.MarketStatus.Time)
	require.Len(t, data.Indices, 2)

	nepse, ok := data.MainIndex()
	require.True(t, ok)
	assert.InDelta(t, 2650.5, nepse.CurrentValue, 1e-9)

	require.Len(t, data.TopGainers, 1)
	assert.Equal(t, "n.png", data.TopGainers[0].Icon)
	assert.InDelta(t, 4523456789.5, data.Turnover(), 1e-3)
	assert.InDelta(t, 80123, data.Transactions(), 1e-9)
	assert.Equal(t, 95, data.StockSummary.Declined)
}

func TestParseLiveDataStatusValues(t *testing.T) {
	tests := []struct {
		status string
		open   bool
	}{
		{"OPEN", true},
		{"Open", true},
		{"open", false},
		{"CLOSE", false},
		{"", false},
	}
	for _, tt := range tests {
		data := ParseLiveData([]byte(`{"marketStatus":{"status":"` + tt.status + `"}}`))
		assert.Equal(t, tt.open, data.StatusOpen(), tt.status)
	}

	assert.NotNil(t, ParseLiveData([]byte("<html>")))
}

// -----------------------------------------------------------------------------

func TestParseStocks(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		symbols []string
	}{
		{"data key", `{"data":[{"symbol":"NABIL"},{"symbol":"HDL"}]}`, []string{"NABIL", "HDL"}},
		{"liveStocks key", `{"liveStocks":[{"symbol":"UPPER"}]}`, []string{"UPPER"}},
		{"empty list", `{"data":[]}`, []string{}},
		{"missing list", `{"success":true}`, []string{}},
		{"list is an object", `{"data":{"symbol":"NABIL"}}`, []string{}},
		{"not json", `upstream error`, []string{}},
		{"skips entries without symbol", `{"data":[{"symbol":""},5,{"symbol":"NICA"}]}`, []string{"NICA"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseStocks([]byte(tt.body))
			require.NotNil(t, got)
			symbols := make([]string, 0, len(got))
			for _, s := range got {
				symbols = append(symbols, s.Symbol)
			}
			assert.Equal(t, tt.symbols, symbols)
		})
	}
}

func TestParseStocksDeduplicatesBySymbol(t *testing.T) {
	body := `{"data":[
		{"symbol":"ABC","lastTradedPrice":100},
		{"symbol":"XYZ","lastTradedPrice":50},
		{"symbol":"ABC","lastTradedPrice":105,"sector":"Hydro Power"}
	]}`

	got := ParseStocks([]byte(body))
	require.Len(t, got, 2)
	assert.Equal(t, "ABC", got[0].Symbol)
	assert.InDelta(t, 105, got[0].LastTradedPrice, 1e-9)
	assert.Equal(t, "Hydro Power", got[0].Sector)
	assert.Equal(t, "XYZ", got[1].Symbol)
}

func TestFetchAllStocksPropagatesUpstreamFailure(t *testing.T) {
	src := newTestSource(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	_, err := src.FetchAllStocks(context.Background())

	var netErr *helpers.NetworkError
	require.ErrorAs(t, err, &netErr)
	assert.Equal(t, http.StatusServiceUnavailable, netErr.StatusCode)
}

// -----------------------------------------------------------------------------

func TestFetchMarketStatus(t *testing.T) {
	src := newTestSource(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, pathMarketStatus, r.URL.Path)
		_, _ = w.Write([]byte(`{"data":{"status":"CLOSE","asOf":"2025-01-06T15:00:00Z"}}`))
	})

	status, err := src.FetchMarketStatus(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "CLOSE", status.Status)
	assert.Equal(t, "2025-01-06T15:00:00Z", status.Time)
}

func TestFetchFloorsheet(t *testing.T) {
	src := newTestSource(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/floorsheet", r.URL.Path)
		assert.Equal(t, "20", r.URL.Query().Get("Size"))
		assert.Equal(t, "3", r.URL.Query().Get("page"))
		assert.Equal(t, "NABIL", r.URL.Query().Get("symbol"))
		_, _ = w.Write([]byte(`{"success":true,"data":{"totalTrades":2,"pageIndex":3,"content":[
			{"contractId":1,"symbol":"NABIL","buyerMemberId":"42","sellerMemberId":"58","contractQuantity":10,"contractRate":540,"contractAmount":5400}
		]}}`))
	})

	page, err := src.FetchFloorsheet(context.Background(), models.MFloorsheetQuery{Page: 3, Symbol: "NABIL"})
	require.NoError(t, err)
	assert.True(t, page.Success)
	require.Len(t, page.Data.Content, 1)
	assert.InDelta(t, 5400, page.Data.Content[0].ContractAmount, 1e-9)
}

func TestFetchRaw(t *testing.T) {
	src := newTestSource(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"path":"` + r.URL.Path + `"}`))
	})

	body, err := src.FetchRaw(context.Background(), KindAllStocks, nil)
	require.NoError(t, err)
	assert.JSONEq(t, `{"path":"`+pathAllStocks+`"}`, string(body))

	_, err = src.FetchRaw(context.Background(), "indices", nil)
	var valErr *helpers.ValidationError
	assert.ErrorAs(t, err, &valErr)
}
