package grpc_control

import (
	"context"
	"errors"
	"io"
	"net"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"nepse-observer/src/logger"
	"nepse-observer/src/models"
	"nepse-observer/src/storage"
	"nepse-observer/src/utils"
	"nepse-observer/src/watchlist"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
)

type fakeState struct {
	mu         sync.Mutex
	state      models.MRefreshState
	refreshErr error
}

func (f *fakeState) Snapshot() models.MRefreshState {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

func (f *fakeState) Refresh(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.refreshErr == nil {
		f.state.Version++
	}
	return f.refreshErr
}

func (f *fakeState) Diagnostics(n int) []models.MFetchEvent { return nil }

func strPtr(s string) *string { return &s }

// -----------------------------------------------------------------------------

type harness struct {
	state  *fakeState
	svc    *ControlService
	client *RefreshControlClient
	health healthpb.HealthClient
}

func newHarness(t *testing.T, st models.MRefreshState) *harness {
	t.Helper()
	log := logger.NewWriterLogger(io.Discard, "ControlService", logger.LevelDebug)

	cfg := &models.MConfig{Storage: models.MStorageConfig{DBPath: filepath.Join(t.TempDir(), "watchlist.db")}}
	store, err := storage.NewWatchlistStore(cfg, log)
	require.NoError(t, err)
	require.NoError(t, store.Initialize(context.Background()))
	t.Cleanup(func() { _ = store.Close() })

	state := &fakeState{state: st}
	wl := watchlist.NewService(store, watchlist.FromState(state), log)
	clock := func() time.Time { return time.Date(2025, 1, 6, 10, 35, 0, 0, utils.NepalLocation()) }
	svc := NewControlService(state, wl, log, clock)

	lis := bufconn.Listen(1 << 20)
	srv := NewGRPCServer(svc)
	go func() { _ = srv.Serve(lis) }()
	t.Cleanup(srv.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) { return lis.DialContext(ctx) }),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	return &harness{
		state:  state,
		svc:    svc,
		client: NewRefreshControlClient(conn),
		health: healthpb.NewHealthClient(conn),
	}
}

func readyState() models.MRefreshState {
	return models.MRefreshState{
		PrimaryData:           &models.MLiveData{MarketStatus: models.MMarketStatus{Status: "CLOSE"}},
		SecondaryData:         []models.MStock{{Symbol: "NABIL", LastTradedPrice: 540}},
		ActivePhase:           models.PhasePreOpening,
		IsMarketActive:        true,
		HasReceivedFirstData:  true,
		PollIntervalPrimary:   10 * time.Second,
		PollIntervalSecondary: 15 * time.Second,
	}
}

// -----------------------------------------------------------------------------

func TestGetStateAndPhase(t *testing.T) {
	h := newHarness(t, readyState())
	ctx := context.Background()

	st, err := h.client.GetState(ctx)
	require.NoError(t, err)
	assert.Equal(t, "PRE_OPENING", st.Fields["active_phase"].GetStringValue())
	assert.True(t, st.Fields["has_received_first_data"].GetBoolValue())

	phase, err := h.client.GetPhase(ctx)
	require.NoError(t, err)
	assert.Equal(t, "OPEN", phase.Fields["next_phase"].GetStringValue())
	assert.InDelta(t, float64((25 * time.Minute).Milliseconds()), phase.Fields["time_until_change_ms"].GetNumberValue(), 0)
	assert.InDelta(t, 10000, phase.Fields["poll_interval_primary_ms"].GetNumberValue(), 0)
	assert.Equal(t, "Pre-Opening Session", phase.Fields["label"].GetStringValue())
}

func TestRefreshMapsErrors(t *testing.T) {
	h := newHarness(t, readyState())
	ctx := context.Background()

	st, err := h.client.Refresh(ctx)
	require.NoError(t, err)
	assert.InDelta(t, 1, st.Fields["version"].GetNumberValue(), 0)

	h.state.mu.Lock()
	h.state.refreshErr = errors.New("Failed to fetch live data")
	h.state.mu.Unlock()

	_, err = h.client.Refresh(ctx)
	assert.Equal(t, codes.Unavailable, status.Code(err))
}

func TestWatchlistRPCs(t *testing.T) {
	h := newHarness(t, readyState())
	ctx := context.Background()

	resp, err := h.client.AddSymbol(ctx, "nabil")
	require.NoError(t, err)
	assert.Equal(t, "NABIL", resp.Fields["symbol"].GetStringValue())

	_, err = h.client.AddSymbol(ctx, "NABIL")
	assert.Equal(t, codes.InvalidArgument, status.Code(err))

	_, err = h.client.AddSymbol(ctx, "")
	assert.Equal(t, codes.InvalidArgument, status.Code(err))

	list, err := h.client.ListWatchlist(ctx)
	require.NoError(t, err)
	syms := list.Fields["symbols"].GetListValue().GetValues()
	require.Len(t, syms, 1)
	assert.Equal(t, "NABIL", syms[0].GetStringValue())

	_, err = h.client.RemoveSymbol(ctx, "NABIL")
	require.NoError(t, err)
	_, err = h.client.RemoveSymbol(ctx, "NABIL")
	assert.Equal(t, codes.InvalidArgument, status.Code(err))
}

func TestHealthFollowsState(t *testing.T) {
	h := newHarness(t, models.MRefreshState{PrimaryLoading: true, SecondaryLoading: true})
	ctx := context.Background()

	resp, err := h.health.Check(ctx, &healthpb.HealthCheckRequest{Service: ServiceName})
	require.NoError(t, err)
	assert.Equal(t, healthpb.HealthCheckResponse_NOT_SERVING, resp.Status)

	updates := make(chan models.MRefreshState, 2)
	done := make(chan struct{})
	go func() {
		h.svc.TrackHealth(ctx, updates)
		close(done)
	}()
	updates <- readyState()
	close(updates)
	<-done

	resp, err = h.health.Check(ctx, &healthpb.HealthCheckRequest{Service: ServiceName})
	require.NoError(t, err)
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, resp.Status)
}

func TestServingStatus(t *testing.T) {
	st := readyState()
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, ServingStatus(st))

	st.PrimaryError = strPtr("Failed to fetch live data")
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, ServingStatus(st))

	st.SecondaryError = strPtr("Failed to fetch stocks data")
	assert.Equal(t, healthpb.HealthCheckResponse_NOT_SERVING, ServingStatus(st))

	assert.Equal(t, healthpb.HealthCheckResponse_NOT_SERVING, ServingStatus(models.MRefreshState{}))
}
