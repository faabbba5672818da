package helpers

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"nepse-observer/src/logger"

	"github.com/stretchr/testify/assert"
)

func TestStatusCode(t *testing.T) {
	upstream := NewNetworkError("bad status", http.StatusBadGateway, nil)
	wrapped := &FetchError{Operation: "market_status", Attempts: 4, Cause: fmt.Errorf("get: %w", upstream)}

	assert.Equal(t, http.StatusBadGateway, StatusCode(wrapped, 500))
	assert.Equal(t, 500, StatusCode(errors.New("dial tcp"), 500))
	assert.Equal(t, 500, StatusCode(NewNetworkError("transport", 0, nil), 500))
}

func TestErrorTypesUnwrap(t *testing.T) {
	cause := errors.New("disk full")
	err := NewDatabaseError("insert watchlist", cause)

	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "insert watchlist: disk full", err.Error())

	var dbErr *DatabaseError
	assert.ErrorAs(t, fmt.Errorf("wrap: %w", err), &dbErr)
}

func TestErrorHandlerHandle(t *testing.T) {
	var buf bytes.Buffer
	h := NewErrorHandler(logger.NewWriterLogger(&buf, "Errors", logger.LevelDebug))

	h.Handle(nil, "noop")
	assert.Empty(t, buf.String())

	h.Handle(NewValidationError("symbol %q already watched", "NABIL"), "watchlist")
	assert.Contains(t, buf.String(), `[Errors] WARNING: Rejected input in watchlist: symbol "NABIL" already watched`)

	buf.Reset()
	h.Handle(errors.New("boom"), "refresh")
	assert.Contains(t, buf.String(), "[Errors] ERROR: Error in refresh: boom")
}

func TestProxyManager(t *testing.T) {
	pm := NewProxyManager([]string{"10.0.0.1:8080", "", "socks5://10.0.0.2:1080"}, "", nil)
	assert.True(t, pm.HasProxies())

	p, err := pm.GetCurrentProxy()
	assert.NoError(t, err)
	assert.Equal(t, "http://10.0.0.1:8080", p)

	pm.RotateProxy()
	p, _ = pm.GetCurrentProxy()
	assert.Equal(t, "socks5://10.0.0.2:1080", p)

	pm.RotateProxy()
	p, _ = pm.GetCurrentProxy()
	assert.Equal(t, "http://10.0.0.1:8080", p)

	assert.NotEmpty(t, pm.GetUserAgent())

	pinned := NewProxyManager(nil, "nepse-observer/1.0", nil)
	assert.False(t, pinned.HasProxies())
	assert.Equal(t, "nepse-observer/1.0", pinned.GetUserAgent())
}
