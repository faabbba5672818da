package interfaces

import (
	"context"

	"nepse-observer/src/models"
)

// -----------------------------------------------------------------------------
// IFeedSource is the data-fetch boundary used by the refresh scheduler.
// -----------------------------------------------------------------------------

type IFeedSource interface {

	// FetchLiveData reads the primary feed (status, indices, movers, summary).
	FetchLiveData(ctx context.Context) (*models.MLiveData, error)

	// -----------------------------------------------------------------------------

	// FetchAllStocks reads the secondary feed, de-duplicated by symbol.
	// A missing or malformed list is an empty result, not an error.
	FetchAllStocks(ctx context.Context) ([]models.MStock, error)
}

// -----------------------------------------------------------------------------
// IPassThroughSource forwards raw upstream JSON to API consumers.
// -----------------------------------------------------------------------------

type IPassThroughSource interface {
	FetchRaw(ctx context.Context, kind string, params map[string]string) ([]byte, error)
}
