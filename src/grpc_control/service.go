package grpc_control

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"nepse-observer/src/helpers"
	"nepse-observer/src/interfaces"
	"nepse-observer/src/logger"
	"nepse-observer/src/models"
	"nepse-observer/src/utils"
	"nepse-observer/src/watchlist"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
)

// ControlService implements RefreshControlServer on top of the scheduler state.
type ControlService struct {
	State     interfaces.IStateProvider
	Watchlist *watchlist.Service
	Logger    *logger.Logger
	Health    *health.Server
	clock     func() time.Time
}

// NewControlService creates a new instance of ControlService
func NewControlService(
	state interfaces.IStateProvider,
	wl *watchlist.Service,
	log *logger.Logger,
	clock func() time.Time,
) *ControlService {
	if clock == nil {
		clock = time.Now
	}
	svc := &ControlService{
		State:     state,
		Watchlist: wl,
		Logger:    log,
		Health:    health.NewServer(),
		clock:     clock,
	}
	svc.UpdateHealth(state.Snapshot())
	return svc
}

// NewGRPCServer builds a server with the control and health services registered.
func NewGRPCServer(svc *ControlService) *grpc.Server {
	srv := grpc.NewServer(grpc.UnaryInterceptor(svc.logCalls))
	RegisterRefreshControlServer(srv, svc)
	healthpb.RegisterHealthServer(srv, svc.Health)
	return srv
}

func (s *ControlService) logCalls(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
	start := time.Now()
	resp, err := handler(ctx, req)
	if err != nil {
		s.Logger.Warning("gRPC: %s failed after %v: %v", info.FullMethod, time.Since(start), err)
	} else {
		s.Logger.Debug("gRPC: %s ok (%v)", info.FullMethod, time.Since(start))
	}
	return resp, err
}

// -----------------------------------------------------------------------------
// Health
// -----------------------------------------------------------------------------

// ServingStatus is SERVING once first data arrived and at least one feed is healthy.
func ServingStatus(st models.MRefreshState) healthpb.HealthCheckResponse_ServingStatus {
	if !st.HasReceivedFirstData {
		return healthpb.HealthCheckResponse_NOT_SERVING
	}
	if st.PrimaryError != nil && st.SecondaryError != nil {
		return healthpb.HealthCheckResponse_NOT_SERVING
	}
	return healthpb.HealthCheckResponse_SERVING
}

func (s *ControlService) UpdateHealth(st models.MRefreshState) {
	code := ServingStatus(st)
	s.Health.SetServingStatus("", code)
	s.Health.SetServingStatus(ServiceName, code)
}

// TrackHealth follows state updates until ctx ends or updates closes.
func (s *ControlService) TrackHealth(ctx context.Context, updates <-chan models.MRefreshState) {
	for {
		select {
		case <-ctx.Done():
			return
		case st, ok := <-updates:
			if !ok {
				return
			}
			s.UpdateHealth(st)
		}
	}
}

// -----------------------------------------------------------------------------
// RPCs
// -----------------------------------------------------------------------------

func (s *ControlService) GetState(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	return toStruct(s.State.Snapshot())
}

// -----------------------------------------------------------------------------

func (s *ControlService) GetPhase(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	st := s.State.Snapshot()
	tr := utils.NextTransition(s.clock())
	cfg := utils.GetPhaseConfig(st.ActivePhase)

	return toStruct(map[string]interface{}{
		"active_phase":               st.ActivePhase,
		"label":                      cfg.Label,
		"is_market_active":           st.IsMarketActive,
		"next_phase":                 tr.NextPhase,
		"time_until_change_ms":       tr.TimeUntilChangeMs,
		"time_until_change":          utils.FormatTimeUntilChange(tr.TimeUntilChangeMs),
		"poll_interval_primary_ms":   st.PollIntervalPrimary.Milliseconds(),
		"poll_interval_secondary_ms": st.PollIntervalSecondary.Milliseconds(),
	})
}

// -----------------------------------------------------------------------------

func (s *ControlService) Refresh(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	if err := s.State.Refresh(ctx); err != nil {
		s.Logger.Warning("gRPC: refresh incomplete: %v", err)
		return nil, status.Error(codes.Unavailable, err.Error())
	}
	st := s.State.Snapshot()
	s.UpdateHealth(st)
	return toStruct(st)
}

// -----------------------------------------------------------------------------

func (s *ControlService) ListWatchlist(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	list, err := s.Watchlist.List(ctx)
	if err != nil {
		return nil, toStatus(err)
	}
	return toStruct(list)
}

// -----------------------------------------------------------------------------

func (s *ControlService) AddSymbol(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	symbol, err := symbolField(req)
	if err != nil {
		return nil, err
	}

	stock, err := s.Watchlist.Add(ctx, symbol)
	if err != nil {
		return nil, toStatus(err)
	}

	s.Logger.Info("gRPC: AddSymbol success for %s", watchlist.NormalizeSymbol(symbol))
	return toStruct(map[string]interface{}{
		"symbol": watchlist.NormalizeSymbol(symbol),
		"stock":  stock,
	})
}

// -----------------------------------------------------------------------------

func (s *ControlService) RemoveSymbol(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	symbol, err := symbolField(req)
	if err != nil {
		return nil, err
	}

	if err := s.Watchlist.Remove(ctx, symbol); err != nil {
		return nil, toStatus(err)
	}
	return toStruct(map[string]interface{}{"symbol": watchlist.NormalizeSymbol(symbol)})
}

// -----------------------------------------------------------------------------
// Helpers
// -----------------------------------------------------------------------------

func symbolField(req *structpb.Struct) (string, error) {
	v, ok := req.GetFields()["symbol"]
	if !ok || v.GetStringValue() == "" {
		return "", status.Error(codes.InvalidArgument, "symbol is required")
	}
	return v.GetStringValue(), nil
}

func toStatus(err error) error {
	var valErr *helpers.ValidationError
	if errors.As(err, &valErr) {
		return status.Error(codes.InvalidArgument, err.Error())
	}
	return status.Error(codes.Internal, err.Error())
}

// toStruct converts any JSON-serialisable value into a protobuf Struct.
func toStruct(v interface{}) (*structpb.Struct, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	var m map[string]interface{}
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	out, err := structpb.NewStruct(m)
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	return out, nil
}
