package interfaces

import "context"

// -----------------------------------------------------------------------------
// IWatchlistStore persists the ordered list of watched symbols.
// -----------------------------------------------------------------------------

type IWatchlistStore interface {

	// Initialize sets up the schema.
	Initialize(ctx context.Context) error

	// -----------------------------------------------------------------------------

	// Symbols returns the stored symbols in insertion order.
	Symbols(ctx context.Context) ([]string, error)

	// -----------------------------------------------------------------------------

	// Add appends symbol. Returns false if it was already present.
	Add(ctx context.Context, symbol string) (bool, error)

	// -----------------------------------------------------------------------------

	// Remove deletes symbol. Returns false if it was not present.
	Remove(ctx context.Context, symbol string) (bool, error)

	// -----------------------------------------------------------------------------

	// Close the database connection
	Close() error
}
