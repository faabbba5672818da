package models

import "time"

// -----------------------------------------------------------------------------
// Scheduler read model
// -----------------------------------------------------------------------------

// MRefreshState is a point-in-time copy of the scheduler state handed to consumers.
type MRefreshState struct {
	PrimaryData           *MLiveData    `json:"primary_data"`
	PrimaryLoading        bool          `json:"primary_loading"`
	PrimaryError          *string       `json:"primary_error"`
	PrimaryErrorVisible   bool          `json:"primary_error_visible"`
	LastPrimaryUpdate     *time.Time    `json:"last_primary_update,omitempty"`
	SecondaryData         []MStock      `json:"secondary_data"`
	SecondaryLoading      bool          `json:"secondary_loading"`
	SecondaryError        *string       `json:"secondary_error"`
	SecondaryErrorVisible bool          `json:"secondary_error_visible"`
	LastSecondaryUpdate   *time.Time    `json:"last_secondary_update,omitempty"`
	ActivePhase           TradingPhase  `json:"active_phase"`
	IsMarketOpen          bool          `json:"is_market_open"`
	IsMarketActive        bool          `json:"is_market_active"`
	HasReceivedFirstData  bool          `json:"has_received_first_data"`
	PollIntervalPrimary   time.Duration `json:"poll_interval_primary"`
	PollIntervalSecondary time.Duration `json:"poll_interval_secondary"`
	Version               uint64        `json:"version"`
}

// -----------------------------------------------------------------------------
// Fetch diagnostics
// -----------------------------------------------------------------------------

type FeedName string

const (
	FeedPrimary   FeedName = "live_data"
	FeedSecondary FeedName = "all_stocks"
)

type FetchOutcome string

const (
	OutcomeSuccess   FetchOutcome = "success"
	OutcomeRetry     FetchOutcome = "retry"
	OutcomeExhausted FetchOutcome = "exhausted"
)

// MFetchEvent records one attempt outcome of Fetch-with-Retry.
type MFetchEvent struct {
	Feed        FeedName      `json:"feed"`
	Attempt     int           `json:"attempt"`
	MaxAttempts int           `json:"max_attempts"`
	Outcome     FetchOutcome  `json:"outcome"`
	Delay       time.Duration `json:"delay"`
	Error       string        `json:"error,omitempty"`
	At          time.Time     `json:"at"`
}
