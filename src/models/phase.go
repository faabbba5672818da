package models

import "time"

// TradingPhase is a named NEPSE trading-session interval.
type TradingPhase string

const (
	PhasePreOpening TradingPhase = "PRE_OPENING"
	PhaseOpen       TradingPhase = "OPEN"
	PhaseClosed     TradingPhase = "CLOSED"
	PhasePostClose  TradingPhase = "POST_CLOSE"
)

// -----------------------------------------------------------------------------

// MPhaseConfig describes one phase. A zero poll interval means no polling.
type MPhaseConfig struct {
	Phase                 TradingPhase  `json:"phase"`
	Label                 string        `json:"label"`
	Description           string        `json:"description"`
	Color                 string        `json:"color"`
	Icon                  string        `json:"icon"`
	PollIntervalPrimary   time.Duration `json:"poll_interval_primary"`
	PollIntervalSecondary time.Duration `json:"poll_interval_secondary"`
}

// Polls reports whether both feeds are polled during this phase.
func (c MPhaseConfig) Polls() bool {
	return c.PollIntervalPrimary > 0 && c.PollIntervalSecondary > 0
}

// -----------------------------------------------------------------------------

// MPhaseTransition is derived on demand and never stored.
type MPhaseTransition struct {
	CurrentPhase      TradingPhase `json:"current_phase"`
	TimeUntilChangeMs int64        `json:"time_until_change_ms"`
	NextPhase         TradingPhase `json:"next_phase"`
}
