package scheduler

import "time"

// Clock returns the current time.
type Clock func() time.Time

// Ticker is a cancellable repeating timer handle.
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

// TickerFactory creates a Ticker firing every d.
type TickerFactory func(d time.Duration) Ticker

// -----------------------------------------------------------------------------

type realTicker struct {
	t *time.Ticker
}

func (r *realTicker) C() <-chan time.Time { return r.t.C }
func (r *realTicker) Stop()               { r.t.Stop() }

// NewRealTicker wraps time.NewTicker.
func NewRealTicker(d time.Duration) Ticker {
	return &realTicker{t: time.NewTicker(d)}
}

// -----------------------------------------------------------------------------

// timerSet holds the repeating timers of one phase.
type timerSet struct {
	primary   Ticker
	secondary Ticker
	cancel    func()
}

func (ts *timerSet) stop() {
	if ts == nil {
		return
	}
	ts.cancel()
	ts.primary.Stop()
	ts.secondary.Stop()
}
