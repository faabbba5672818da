package server

import (
	"net/http"

	"nepse-observer/src/analysis"
	"nepse-observer/src/data_source/nepse"
	"nepse-observer/src/models"
	"nepse-observer/src/utils"
	"nepse-observer/src/watchlist"

	"github.com/gin-gonic/gin"
)

// Upstream failure messages for the pass-through routes.
var passThroughErrors = map[string]string{
	nepse.KindLiveData:     "Failed to fetch live data",
	nepse.KindAllStocks:    "Failed to fetch all stocks data",
	nepse.KindMarketStatus: "Failed to fetch market status",
	nepse.KindFloorsheet:   "Failed to fetch floorsheet data",
}

// -----------------------------------------------------------------------------
// State
// -----------------------------------------------------------------------------

func (s *APIServer) getHealth(c *gin.Context) {
	st := s.state.Snapshot()
	c.JSON(http.StatusOK, gin.H{
		"status":                  "ok",
		"has_received_first_data": st.HasReceivedFirstData,
		"active_phase":            st.ActivePhase,
		"time":                    utils.FormatMarketTime(s.clock()),
	})
}

// -----------------------------------------------------------------------------

func (s *APIServer) getState(c *gin.Context) {
	c.JSON(http.StatusOK, s.state.Snapshot())
}

// -----------------------------------------------------------------------------

func (s *APIServer) getLiveData(c *gin.Context) {
	st := s.state.Snapshot()
	resp := gin.H{
		"data":           st.PrimaryData,
		"loading":        st.PrimaryLoading,
		"error":          visibleError(st.PrimaryError, st.PrimaryErrorVisible),
		"last_update":    st.LastPrimaryUpdate,
		"is_market_open": st.IsMarketOpen,
	}

	if d := st.PrimaryData; d != nil {
		summary := gin.H{
			"turnover":       d.Turnover(),
			"shares":         d.Shares(),
			"transactions":   d.Transactions(),
			"scripts_traded": d.ScriptsTraded(),
		}
		if idx, ok := d.MainIndex(); ok {
			summary["nepse_index"] = idx
			summary["nepse_change_percent"] = analysis.IndexChangePercent(idx)
		}
		if t, err := utils.ParseMarketTime(d.MarketStatus.Time); err == nil {
			summary["market_time"] = utils.FormatMarketTime(t)
		}
		resp["summary"] = summary
	}

	c.JSON(http.StatusOK, resp)
}

func visibleError(msg *string, visible bool) any {
	if msg == nil || !visible {
		return nil
	}
	return *msg
}

// -----------------------------------------------------------------------------
// Stocks
// -----------------------------------------------------------------------------

func (s *APIServer) getAllStocks(c *gin.Context) {
	sortKey := c.DefaultQuery("sort", analysis.DefaultSortKey)
	if !analysis.ValidSortKey(sortKey) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid sort key: " + sortKey})
		return
	}

	st := s.state.Snapshot()
	page := analysis.QueryStocks(st.SecondaryData, analysis.StockQuery{
		Search:     c.Query("search"),
		Sector:     c.DefaultQuery("sector", analysis.SectorAll),
		SortKey:    sortKey,
		Descending: descending(c.Query("dir")),
		Page:       queryInt(c, "page", 1, 0, 1<<20),
		PageSize:   queryInt(c, "page_size", analysis.DefaultPageSize, 1, 500),
	})

	c.JSON(http.StatusOK, gin.H{
		"page":        page,
		"loading":     st.SecondaryLoading,
		"error":       visibleError(st.SecondaryError, st.SecondaryErrorVisible),
		"last_update": st.LastSecondaryUpdate,
	})
}

// -----------------------------------------------------------------------------

func (s *APIServer) getSectors(c *gin.Context) {
	stocks := s.state.Snapshot().SecondaryData
	c.JSON(http.StatusOK, gin.H{
		"sectors": analysis.Sectors(stocks),
		"stats":   analysis.SectorSummaries(stocks),
	})
}

// -----------------------------------------------------------------------------

func (s *APIServer) getMovers(c *gin.Context) {
	n := queryInt(c, "n", 5, 1, 50)
	gainers, losers := analysis.TopMovers(s.state.Snapshot().SecondaryData, n)
	c.JSON(http.StatusOK, gin.H{"gainers": gainers, "losers": losers})
}

// -----------------------------------------------------------------------------

func (s *APIServer) getUnusual(c *gin.Context) {
	z := queryFloat(c, "z", 2.0)
	vol := queryFloat(c, "volume", 3.0)
	out := analysis.UnusualActivity(s.state.Snapshot().SecondaryData, z, vol)
	if out == nil {
		out = []analysis.UnusualStock{}
	}
	c.JSON(http.StatusOK, gin.H{"z_threshold": z, "volume_threshold": vol, "stocks": out})
}

// -----------------------------------------------------------------------------
// Phase
// -----------------------------------------------------------------------------

func (s *APIServer) getPhase(c *gin.Context) {
	now := s.clock()
	st := s.state.Snapshot()
	tr := utils.NextTransition(now)
	cfg := utils.GetPhaseConfig(st.ActivePhase)

	c.JSON(http.StatusOK, gin.H{
		"active_phase":               st.ActivePhase,
		"is_market_active":           st.IsMarketActive,
		"config":                     phaseView(cfg),
		"transition":                 tr,
		"time_until_change":          utils.FormatTimeUntilChange(tr.TimeUntilChangeMs),
		"poll_interval_primary_ms":   millis(st.PollIntervalPrimary),
		"poll_interval_secondary_ms": millis(st.PollIntervalSecondary),
		"now":                        utils.FormatMarketTime(now),
	})
}

// -----------------------------------------------------------------------------

func (s *APIServer) getPhases(c *gin.Context) {
	phases := utils.AllPhases()
	out := make([]gin.H, 0, len(phases))
	for _, p := range phases {
		out = append(out, phaseView(p))
	}
	c.JSON(http.StatusOK, out)
}

func phaseView(p models.MPhaseConfig) gin.H {
	return gin.H{
		"phase":                      p.Phase,
		"label":                      p.Label,
		"description":                p.Description,
		"color":                      p.Color,
		"icon":                       p.Icon,
		"poll_interval_primary_ms":   millis(p.PollIntervalPrimary),
		"poll_interval_secondary_ms": millis(p.PollIntervalSecondary),
	}
}

// -----------------------------------------------------------------------------
// Refresh & diagnostics
// -----------------------------------------------------------------------------

func (s *APIServer) postRefresh(c *gin.Context) {
	err := s.state.Refresh(c.Request.Context())
	st := s.state.Snapshot()
	if err != nil {
		s.Logger.Warning("Manual refresh incomplete: %v", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error(), "state": st})
		return
	}
	c.JSON(http.StatusOK, gin.H{"state": st})
}

// -----------------------------------------------------------------------------

func (s *APIServer) getDiagnostics(c *gin.Context) {
	limit := queryInt(c, "limit", 50, 1, 1000)
	events := s.state.Diagnostics(limit)
	if events == nil {
		events = []models.MFetchEvent{}
	}
	c.JSON(http.StatusOK, gin.H{"events": events})
}

// -----------------------------------------------------------------------------
// Watchlist
// -----------------------------------------------------------------------------

type watchlistRequest struct {
	Symbol string `json:"symbol" binding:"required"`
}

func (s *APIServer) getWatchlist(c *gin.Context) {
	list, err := s.watchlist.List(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

// -----------------------------------------------------------------------------

func (s *APIServer) postWatchlist(c *gin.Context) {
	var req watchlistRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "symbol is required"})
		return
	}

	stock, err := s.watchlist.Add(c.Request.Context(), req.Symbol)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"symbol": watchlist.NormalizeSymbol(req.Symbol), "stock": stock})
}

// -----------------------------------------------------------------------------

func (s *APIServer) deleteWatchlist(c *gin.Context) {
	if err := s.watchlist.Remove(c.Request.Context(), c.Param("symbol")); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// -----------------------------------------------------------------------------
// Upstream pass-through
// -----------------------------------------------------------------------------

var floorsheetParams = []string{"size", "page", "symbol"}

func (s *APIServer) getPassThrough(c *gin.Context) {
	kind := c.Param("kind")
	msg, ok := passThroughErrors[kind]
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown upstream resource: " + kind})
		return
	}

	params := map[string]string{}
	if kind == nepse.KindFloorsheet {
		for key, vals := range c.Request.URL.Query() {
			if contains(floorsheetParams, key) && len(vals) > 0 {
				params[key] = vals[0]
			}
		}
	}

	body, err := s.upstream.FetchRaw(c.Request.Context(), kind, params)
	if err != nil {
		s.Logger.Error("Pass-through %s failed: %v", kind, err)
		c.JSON(statusFor(err), gin.H{"error": msg})
		return
	}
	c.Data(http.StatusOK, "application/json; charset=utf-8", body)
}
