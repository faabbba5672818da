package interfaces

import (
	"context"

	"nepse-observer/src/models"
)

// -----------------------------------------------------------------------------
// IStateProvider is the read/refresh surface the scheduler offers consumers.
// -----------------------------------------------------------------------------

type IStateProvider interface {

	// Snapshot returns a copy of the current refresh state.
	Snapshot() models.MRefreshState

	// -----------------------------------------------------------------------------

	// Refresh re-fetches both feeds without touching installed timers.
	Refresh(ctx context.Context) error

	// -----------------------------------------------------------------------------

	// Diagnostics returns up to n recent fetch events, oldest first.
	Diagnostics(n int) []models.MFetchEvent
}
