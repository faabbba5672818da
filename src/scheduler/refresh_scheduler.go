package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"nepse-observer/src/helpers"
	"nepse-observer/src/interfaces"
	"nepse-observer/src/logger"
	"nepse-observer/src/models"
	"nepse-observer/src/utils"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
)

const (
	primaryErrorText   = "Failed to fetch live data"
	secondaryErrorText = "Failed to fetch stocks data"

	defaultPhaseCheck  = 30 * time.Second
	subscriberBuffer   = 4
	defaultDiagnostics = 256
)

// RefreshScheduler owns the refresh state of both feeds and the phase-driven
// polling timers.
type RefreshScheduler struct {
	source     interfaces.IFeedSource
	logger     *logger.Logger
	clock      Clock
	newTicker  TickerFactory
	retry      helpers.RetryPolicy
	phaseCheck time.Duration

	stateMutex        sync.RWMutex
	state             models.MRefreshState
	primaryReceived   bool
	secondaryReceived bool
	timers            *timerSet
	subscribers       map[string]chan models.MRefreshState
	started           bool
	stopped           bool

	diagnostics *utils.RingBuffer[models.MFetchEvent]
	cron        *cron.Cron
	rootCtx     context.Context
	rootCancel  context.CancelFunc
	ready       chan struct{}
	wg          sync.WaitGroup
}

// Option customises a RefreshScheduler.
type Option func(*RefreshScheduler)

func WithClock(c Clock) Option {
	return func(s *RefreshScheduler) { s.clock = c }
}

func WithTickerFactory(f TickerFactory) Option {
	return func(s *RefreshScheduler) { s.newTicker = f }
}

func WithRetryPolicy(p helpers.RetryPolicy) Option {
	return func(s *RefreshScheduler) { s.retry = p }
}

// -----------------------------------------------------------------------------

func NewRefreshScheduler(cfg *models.MConfig, source interfaces.IFeedSource, log *logger.Logger, opts ...Option) *RefreshScheduler {
	phaseCheck := defaultPhaseCheck
	history := defaultDiagnostics
	retry := helpers.DefaultRetryPolicy()
	if cfg != nil {
		if cfg.Refresh.PhaseCheckSeconds > 0 {
			phaseCheck = time.Duration(cfg.Refresh.PhaseCheckSeconds) * time.Second
		}
		if cfg.Refresh.DiagnosticsHistory > 0 {
			history = cfg.Refresh.DiagnosticsHistory
		}
		retry = helpers.PolicyFromConfig(cfg.Refresh)
	}

	s := &RefreshScheduler{
		source:      source,
		logger:      log,
		clock:       time.Now,
		newTicker:   NewRealTicker,
		retry:       retry,
		phaseCheck:  phaseCheck,
		subscribers: make(map[string]chan models.MRefreshState),
		diagnostics: utils.NewRingBuffer[models.MFetchEvent](history),
		cron:        cron.New(cron.WithSeconds()),
		ready:       make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}

	phase := utils.Classify(s.clock())
	s.state = models.MRefreshState{
		PrimaryLoading:   true,
		SecondaryLoading: true,
		SecondaryData:    []models.MStock{},
		ActivePhase:      phase,
		IsMarketActive:   phase != models.PhaseClosed,
	}
	return s
}

// -----------------------------------------------------------------------------

// Start fetches both feeds once and begins the phase check loop. Timers are
// installed after both initial fetches have settled.
func (s *RefreshScheduler) Start(ctx context.Context) error {
	s.stateMutex.Lock()
	if s.started {
		s.stateMutex.Unlock()
		return fmt.Errorf("refresh scheduler already started")
	}
	s.started = true
	s.rootCtx, s.rootCancel = context.WithCancel(ctx)
	s.stateMutex.Unlock()

	spec := fmt.Sprintf("@every %s", s.phaseCheck)
	if _, err := s.cron.AddFunc(spec, func() { s.CheckPhase() }); err != nil {
		s.rootCancel()
		return fmt.Errorf("register phase check: %w", err)
	}
	s.cron.Start()
	s.logger.Info("Phase check registered (%s), initial phase %s", spec, s.Snapshot().ActivePhase)

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		var inner sync.WaitGroup
		inner.Add(2)
		go func() {
			defer inner.Done()
			_ = s.fetchPrimary(s.rootCtx)
		}()
		go func() {
			defer inner.Done()
			_ = s.fetchSecondary(s.rootCtx)
		}()
		inner.Wait()

		s.markFirstData()
	}()

	return nil
}

// -----------------------------------------------------------------------------

// Ready is closed once both initial fetches have completed.
func (s *RefreshScheduler) Ready() <-chan struct{} {
	return s.ready
}

func (s *RefreshScheduler) markFirstData() {
	s.stateMutex.Lock()
	defer s.stateMutex.Unlock()

	if s.stopped || s.state.HasReceivedFirstData {
		return
	}
	s.state.HasReceivedFirstData = true
	s.installTimersLocked(utils.GetPhaseConfig(s.state.ActivePhase))
	s.publishLocked()
	close(s.ready)
}

// -----------------------------------------------------------------------------

// CheckPhase reclassifies the current time. On a phase change, and once first
// data has arrived, the polling timers are replaced.
func (s *RefreshScheduler) CheckPhase() (models.TradingPhase, bool) {
	phase := utils.Classify(s.clock())

	s.stateMutex.Lock()
	defer s.stateMutex.Unlock()

	if s.stopped {
		return phase, false
	}

	changed := phase != s.state.ActivePhase
	s.state.ActivePhase = phase
	s.state.IsMarketActive = phase != models.PhaseClosed
	s.state.IsMarketOpen = phase == models.PhaseOpen

	if changed {
		s.logger.Info("Market phase changed to %s", phase)
		if s.state.HasReceivedFirstData {
			s.installTimersLocked(utils.GetPhaseConfig(phase))
		}
	}
	s.publishLocked()
	return phase, changed
}

// installTimersLocked cancels the current timers and, when the phase polls
// both feeds, starts new ones. In-flight fetches are not aborted.
func (s *RefreshScheduler) installTimersLocked(cfg models.MPhaseConfig) {
	s.timers.stop()
	s.timers = nil
	s.state.PollIntervalPrimary = 0
	s.state.PollIntervalSecondary = 0

	if !cfg.Polls() {
		s.logger.Info("Market is %s - no automatic polling", cfg.Phase)
		return
	}

	timerCtx, cancel := context.WithCancel(s.rootCtx)
	ts := &timerSet{
		primary:   s.newTicker(cfg.PollIntervalPrimary),
		secondary: s.newTicker(cfg.PollIntervalSecondary),
		cancel:    cancel,
	}
	s.timers = ts
	s.state.PollIntervalPrimary = cfg.PollIntervalPrimary
	s.state.PollIntervalSecondary = cfg.PollIntervalSecondary

	s.wg.Add(2)
	go s.runTimer(timerCtx, ts.primary, s.fetchPrimary)
	go s.runTimer(timerCtx, ts.secondary, s.fetchSecondary)

	s.logger.Info("Starting polling - primary every %v, secondary every %v", cfg.PollIntervalPrimary, cfg.PollIntervalSecondary)
}

func (s *RefreshScheduler) runTimer(ctx context.Context, t Ticker, fetch func(context.Context) error) {
	defer s.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C():
			if ctx.Err() != nil {
				return
			}
			// Ticks may overlap a slow fetch; completion order wins.
			s.wg.Add(1)
			go func() {
				defer s.wg.Done()
				_ = fetch(s.rootCtx)
			}()
		}
	}
}

// -----------------------------------------------------------------------------

func (s *RefreshScheduler) fetchPrimary(ctx context.Context) error {
	data, err := helpers.FetchWithRetry(ctx, string(models.FeedPrimary), s.retry, s.source.FetchLiveData, s.logger, s.recordEvent)

	s.stateMutex.Lock()
	defer s.stateMutex.Unlock()

	s.state.PrimaryLoading = false
	if err != nil {
		msg := primaryErrorText
		s.state.PrimaryError = &msg
	} else {
		s.state.PrimaryData = data
		s.state.PrimaryError = nil
		now := s.clock()
		s.state.LastPrimaryUpdate = &now
		s.primaryReceived = true
		if data != nil && data.MarketStatus.Status != "" {
			s.state.IsMarketOpen = data.StatusOpen()
		}
	}
	s.publishLocked()
	return err
}

func (s *RefreshScheduler) fetchSecondary(ctx context.Context) error {
	stocks, err := helpers.FetchWithRetry(ctx, string(models.FeedSecondary), s.retry, s.source.FetchAllStocks, s.logger, s.recordEvent)

	s.stateMutex.Lock()
	defer s.stateMutex.Unlock()

	s.state.SecondaryLoading = false
	if err != nil {
		msg := secondaryErrorText
		s.state.SecondaryError = &msg
	} else {
		s.state.SecondaryData = dedupeStocks(stocks)
		s.state.SecondaryError = nil
		now := s.clock()
		s.state.LastSecondaryUpdate = &now
		s.secondaryReceived = true
	}
	s.publishLocked()
	return err
}

// dedupeStocks keeps one entry per symbol: first position, last value.
func dedupeStocks(in []models.MStock) []models.MStock {
	out := make([]models.MStock, 0, len(in))
	index := make(map[string]int, len(in))
	for _, st := range in {
		if i, ok := index[st.Symbol]; ok {
			out[i] = st
			continue
		}
		index[st.Symbol] = len(out)
		out = append(out, st)
	}
	return out
}

func (s *RefreshScheduler) recordEvent(ev models.MFetchEvent) {
	s.diagnostics.Append(ev)
}

// -----------------------------------------------------------------------------

// Refresh re-fetches both feeds concurrently. Installed timers are left alone.
func (s *RefreshScheduler) Refresh(ctx context.Context) error {
	var wg sync.WaitGroup
	var primaryErr, secondaryErr error

	wg.Add(2)
	go func() {
		defer wg.Done()
		primaryErr = s.fetchPrimary(ctx)
	}()
	go func() {
		defer wg.Done()
		secondaryErr = s.fetchSecondary(ctx)
	}()
	wg.Wait()

	return errors.Join(primaryErr, secondaryErr)
}

func (s *RefreshScheduler) RefreshLiveData(ctx context.Context) error {
	return s.fetchPrimary(ctx)
}

func (s *RefreshScheduler) RefreshAllStocks(ctx context.Context) error {
	return s.fetchSecondary(ctx)
}

// -----------------------------------------------------------------------------

// Snapshot returns a deep copy of the current state.
func (s *RefreshScheduler) Snapshot() models.MRefreshState {
	s.stateMutex.RLock()
	defer s.stateMutex.RUnlock()
	return s.snapshotLocked()
}

func (s *RefreshScheduler) snapshotLocked() models.MRefreshState {
	out := s.state
	out.PrimaryData = s.state.PrimaryData.Clone()
	out.SecondaryData = append([]models.MStock{}, s.state.SecondaryData...)
	out.PrimaryError = copyString(s.state.PrimaryError)
	out.SecondaryError = copyString(s.state.SecondaryError)
	out.LastPrimaryUpdate = copyTime(s.state.LastPrimaryUpdate)
	out.LastSecondaryUpdate = copyTime(s.state.LastSecondaryUpdate)
	out.PrimaryErrorVisible = s.state.PrimaryError != nil && !s.primaryReceived
	out.SecondaryErrorVisible = s.state.SecondaryError != nil && !s.secondaryReceived
	return out
}

func copyString(p *string) *string {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func copyTime(p *time.Time) *time.Time {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

// -----------------------------------------------------------------------------

// Subscribe returns a channel receiving a snapshot after every state change.
// Slow readers only see the latest snapshot. The cancel func closes the channel.
func (s *RefreshScheduler) Subscribe() (<-chan models.MRefreshState, func()) {
	ch := make(chan models.MRefreshState, subscriberBuffer)
	id := uuid.NewString()

	s.stateMutex.Lock()
	if s.stopped {
		close(ch)
		s.stateMutex.Unlock()
		return ch, func() {}
	}
	s.subscribers[id] = ch
	s.stateMutex.Unlock()

	s.logger.Debug("Subscriber %s registered", id)

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.stateMutex.Lock()
			defer s.stateMutex.Unlock()
			if sub, ok := s.subscribers[id]; ok {
				delete(s.subscribers, id)
				close(sub)
			}
		})
	}
}

// publishLocked bumps the version and pushes a snapshot to every subscriber.
func (s *RefreshScheduler) publishLocked() {
	s.state.Version++
	if len(s.subscribers) == 0 {
		return
	}

	snap := s.snapshotLocked()
	for _, ch := range s.subscribers {
		select {
		case ch <- snap:
		default:
			// Full: drop the oldest so the newest is always delivered
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- snap:
			default:
			}
		}
	}
}

// -----------------------------------------------------------------------------

// Diagnostics returns up to n recent fetch events, oldest first.
func (s *RefreshScheduler) Diagnostics(n int) []models.MFetchEvent {
	return s.diagnostics.GetLatest(n)
}

// PhaseTransition returns the countdown to the next phase boundary.
func (s *RefreshScheduler) PhaseTransition() models.MPhaseTransition {
	return utils.NextTransition(s.clock())
}

// Now returns the scheduler's clock reading.
func (s *RefreshScheduler) Now() time.Time {
	return s.clock()
}

// -----------------------------------------------------------------------------

// Stop cancels the timers and the phase loop, aborts in-flight fetches and
// closes every subscription.
func (s *RefreshScheduler) Stop() {
	stopCtx := s.cron.Stop()
	<-stopCtx.Done()

	s.stateMutex.Lock()
	if s.stopped {
		s.stateMutex.Unlock()
		return
	}
	s.stopped = true
	s.timers.stop()
	s.timers = nil
	for id, ch := range s.subscribers {
		delete(s.subscribers, id)
		close(ch)
	}
	cancel := s.rootCancel
	s.stateMutex.Unlock()

	if cancel != nil {
		cancel()
	}
	s.wg.Wait()
	s.logger.Info("Refresh scheduler stopped")
}
