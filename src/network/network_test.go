package network

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"nepse-observer/src/helpers"
	"nepse-observer/src/logger"
	"nepse-observer/src/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestManager(timeoutSeconds int) *NetworkManager {
	cfg := &models.MConfig{
		Network: models.MNetworkConfig{RequestTimeout: timeoutSeconds, UserAgent: "nepse-observer-test"},
	}
	return NewNetworkManager(cfg, logger.NewWriterLogger(io.Discard, "Network", logger.LevelDebug))
}

func TestGetSendsParamsAndUserAgent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "nepse-observer-test", r.Header.Get("User-Agent"))
		assert.Equal(t, "20", r.URL.Query().Get("Size"))
		assert.Equal(t, "NABIL", r.URL.Query().Get("symbol"))
		_, _ = w.Write([]byte(`{"success":true}`))
	}))
	defer srv.Close()

	nm := newTestManager(0)
	assert.Equal(t, 15*time.Second, nm.Timeout())

	body, err := nm.Get(context.Background(), srv.URL+"/floorsheet", map[string]string{"Size": "20", "symbol": "NABIL"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"success":true}`, string(body))
}

func TestGetNon2xxIsNetworkError(t *testing.T) {
	for _, status := range []int{http.StatusForbidden, http.StatusTooManyRequests, http.StatusBadGateway} {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(status)
		}))

		_, err := newTestManager(5).Get(context.Background(), srv.URL, nil)
		srv.Close()

		var netErr *helpers.NetworkError
		require.ErrorAs(t, err, &netErr)
		assert.Equal(t, status, netErr.StatusCode)
	}
}

func TestGetHonoursContextCancellation(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := newTestManager(5).Get(ctx, srv.URL, nil)

	var netErr *helpers.NetworkError
	require.ErrorAs(t, err, &netErr)
	assert.Zero(t, netErr.StatusCode)
}
