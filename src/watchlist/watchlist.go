package watchlist

import (
	"context"
	"strings"

	"nepse-observer/src/helpers"
	"nepse-observer/src/interfaces"
	"nepse-observer/src/logger"
	"nepse-observer/src/models"
)

// StockProvider returns the current secondary feed data.
type StockProvider func() []models.MStock

// Service manages the watched symbols on top of a persistent store.
type Service struct {
	store  interfaces.IWatchlistStore
	stocks StockProvider
	logger *logger.Logger
}

// -----------------------------------------------------------------------------

func NewService(store interfaces.IWatchlistStore, stocks StockProvider, log *logger.Logger) *Service {
	return &Service{store: store, stocks: stocks, logger: log}
}

// FromState adapts a state provider into a StockProvider.
func FromState(p interfaces.IStateProvider) StockProvider {
	return func() []models.MStock {
		return p.Snapshot().SecondaryData
	}
}

// NormalizeSymbol trims and upper-cases a ticker.
func NormalizeSymbol(symbol string) string {
	return strings.ToUpper(strings.TrimSpace(symbol))
}

// -----------------------------------------------------------------------------

// Symbols returns the raw stored list.
func (s *Service) Symbols(ctx context.Context) ([]string, error) {
	return s.store.Symbols(ctx)
}

// List resolves the stored symbols against the current stock data. Symbols
// missing from the data stay in storage and are reported as unresolved.
func (s *Service) List(ctx context.Context) (models.MWatchlist, error) {
	symbols, err := s.store.Symbols(ctx)
	if err != nil {
		return models.MWatchlist{}, err
	}

	bySymbol := indexStocks(s.stocks())
	out := models.MWatchlist{
		Symbols:    symbols,
		Stocks:     []models.MStock{},
		Unresolved: []string{},
	}
	for _, sym := range symbols {
		if st, ok := bySymbol[sym]; ok {
			out.Stocks = append(out.Stocks, st)
		} else {
			out.Unresolved = append(out.Unresolved, sym)
		}
	}
	return out, nil
}

// -----------------------------------------------------------------------------

// Add stores symbol. Empty and duplicate symbols are rejected, and so are
// symbols absent from the stock data when stock data is present.
func (s *Service) Add(ctx context.Context, symbol string) (*models.MStock, error) {
	sym := NormalizeSymbol(symbol)
	if sym == "" {
		return nil, helpers.NewValidationError("symbol cannot be empty")
	}

	stocks := s.stocks()
	var match *models.MStock
	if len(stocks) > 0 {
		st, ok := indexStocks(stocks)[sym]
		if !ok {
			return nil, helpers.NewValidationError("unknown symbol %q", sym)
		}
		match = &st
	}

	added, err := s.store.Add(ctx, sym)
	if err != nil {
		return nil, err
	}
	if !added {
		return nil, helpers.NewValidationError("symbol %q already in watchlist", sym)
	}

	s.logger.Info("Added %s to watchlist", sym)
	return match, nil
}

// -----------------------------------------------------------------------------

// Remove deletes symbol. Removing an absent symbol is a validation error.
func (s *Service) Remove(ctx context.Context, symbol string) error {
	sym := NormalizeSymbol(symbol)
	if sym == "" {
		return helpers.NewValidationError("symbol cannot be empty")
	}

	removed, err := s.store.Remove(ctx, sym)
	if err != nil {
		return err
	}
	if !removed {
		return helpers.NewValidationError("symbol %q not in watchlist", sym)
	}

	s.logger.Info("Removed %s from watchlist", sym)
	return nil
}

// -----------------------------------------------------------------------------

func indexStocks(stocks []models.MStock) map[string]models.MStock {
	out := make(map[string]models.MStock, len(stocks))
	for _, st := range stocks {
		out[NormalizeSymbol(st.Symbol)] = st
	}
	return out
}
