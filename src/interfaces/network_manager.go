package interfaces

import "context"

// -----------------------------------------------------------------------------
// INetworkManager defines the contract for single-attempt upstream HTTP reads.
// -----------------------------------------------------------------------------

type INetworkManager interface {

	// -----------------------------------------------------------------------------

	// Get performs a GET request to the specified URL with query parameters.
	// Returns the response body or an error; non-2xx responses are errors.
	Get(ctx context.Context, url string, params map[string]string) ([]byte, error)
}
