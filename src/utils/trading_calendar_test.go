package utils

import (
	"testing"
	"time"

	"nepse-observer/src/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// 2025-01-06 is a Monday; 2025-01-10 a Friday.
func npt(day, hour, minute, second int) time.Time {
	return time.Date(2025, time.January, day, hour, minute, second, 0, NepalLocation())
}

func TestClassify_Weekday(t *testing.T) {
	tests := []struct {
		name string
		at   time.Time
		want models.TradingPhase
	}{
		{"midnight", npt(6, 0, 0, 0), models.PhaseClosed},
		{"just before pre-open", npt(6, 10, 29, 59), models.PhaseClosed},
		{"pre-open start", npt(6, 10, 30, 0), models.PhasePreOpening},
		{"pre-open last minute", npt(6, 10, 44, 59), models.PhasePreOpening},
		{"gap start", npt(6, 10, 45, 0), models.PhaseClosed},
		{"gap end", npt(6, 10, 59, 59), models.PhaseClosed},
		{"open bell", npt(6, 11, 0, 0), models.PhaseOpen},
		{"mid session", npt(7, 13, 12, 0), models.PhaseOpen},
		{"last trading minute", npt(8, 14, 59, 59), models.PhaseOpen},
		{"post-close start", npt(9, 15, 0, 0), models.PhasePostClose},
		{"post-close end", npt(9, 15, 14, 59), models.PhasePostClose},
		{"after post-close", npt(10, 15, 15, 0), models.PhaseClosed},
		{"evening", npt(10, 20, 0, 0), models.PhaseClosed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.at))
		})
	}
}

func TestClassify_Weekend(t *testing.T) {
	for _, day := range []int{11, 12} {
		for _, hour := range []int{10, 11, 13, 15} {
			at := npt(day, hour, 30, 0)
			assert.Equal(t, models.PhaseClosed, Classify(at), at.String())
		}
	}
}

func TestClassify_ConvertsFromUTC(t *testing.T) {
	// 05:15 UTC is 11:00 in Kathmandu
	at := time.Date(2025, time.January, 6, 5, 15, 0, 0, time.UTC)
	assert.Equal(t, models.PhaseOpen, Classify(at))

	// 04:44 UTC is 10:29 in Kathmandu
	at = time.Date(2025, time.January, 6, 4, 44, 0, 0, time.UTC)
	assert.Equal(t, models.PhaseClosed, Classify(at))

	// Friday 20:00 UTC is already Saturday 01:45 local
	at = time.Date(2025, time.January, 10, 20, 0, 0, 0, time.UTC)
	assert.Equal(t, models.PhaseClosed, Classify(at))
}

func TestClassify_TotalOverAWeek(t *testing.T) {
	valid := map[models.TradingPhase]bool{
		models.PhasePreOpening: true,
		models.PhaseOpen:       true,
		models.PhasePostClose:  true,
		models.PhaseClosed:     true,
	}
	start := npt(6, 0, 0, 0)
	for m := 0; m < 7*24*60; m++ {
		at := start.Add(time.Duration(m) * time.Minute)
		require.True(t, valid[Classify(at)], at.String())
	}
}

// -----------------------------------------------------------------------------

func TestNextTransition(t *testing.T) {
	tests := []struct {
		name     string
		at       time.Time
		current  models.TradingPhase
		next     models.TradingPhase
		duration time.Duration
	}{
		{"pre-open to open", npt(6, 10, 30, 0), models.PhasePreOpening, models.PhaseOpen, 30 * time.Minute},
		{"open to post-close", npt(6, 11, 0, 0), models.PhaseOpen, models.PhasePostClose, 4 * time.Hour},
		{"post-close to closed", npt(6, 15, 10, 0), models.PhasePostClose, models.PhaseClosed, 5 * time.Minute},
		{"weekday morning", npt(7, 9, 0, 0), models.PhaseClosed, models.PhasePreOpening, 90 * time.Minute},
		{"gap waits for open bell", npt(7, 10, 50, 0), models.PhaseClosed, models.PhaseOpen, 10 * time.Minute},
		{"weekday evening", npt(7, 18, 0, 0), models.PhaseClosed, models.PhasePreOpening, 16*time.Hour + 30*time.Minute},
		{"friday evening skips weekend", npt(10, 18, 0, 0), models.PhaseClosed, models.PhasePreOpening, 64*time.Hour + 30*time.Minute},
		{"saturday noon", npt(11, 12, 0, 0), models.PhaseClosed, models.PhasePreOpening, 46*time.Hour + 30*time.Minute},
		{"sunday night", npt(12, 23, 0, 0), models.PhaseClosed, models.PhasePreOpening, 11*time.Hour + 30*time.Minute},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := NextTransition(tt.at)
			assert.Equal(t, tt.current, tr.CurrentPhase)
			assert.Equal(t, tt.next, tr.NextPhase)
			assert.Equal(t, tt.duration.Milliseconds(), tr.TimeUntilChangeMs)
		})
	}
}

func TestNextTransition_FridayLandsOnMonday(t *testing.T) {
	at := npt(10, 21, 37, 0)
	tr := NextTransition(at)

	target := at.Add(time.Duration(tr.TimeUntilChangeMs) * time.Millisecond)
	assert.Equal(t, time.Monday, target.Weekday())
	assert.Equal(t, 10, target.Hour())
	assert.Equal(t, 30, target.Minute())
	assert.Equal(t, models.PhasePreOpening, tr.NextPhase)
}

func TestNextTransition_NeverNegative(t *testing.T) {
	start := npt(6, 0, 0, 0)
	for m := 0; m < 7*24*60; m += 7 {
		at := start.Add(time.Duration(m) * time.Minute)
		tr := NextTransition(at)
		require.GreaterOrEqual(t, tr.TimeUntilChangeMs, int64(0), at.String())
		require.Equal(t, Classify(at), tr.CurrentPhase)
	}
}

// -----------------------------------------------------------------------------

func TestPhaseTable(t *testing.T) {
	open := GetPhaseConfig(models.PhaseOpen)
	assert.Equal(t, "Market Open", open.Label)
	assert.Equal(t, 5*time.Second, open.PollIntervalPrimary)
	assert.Equal(t, 10*time.Second, open.PollIntervalSecondary)
	assert.True(t, open.Polls())

	pre := GetPhaseConfig(models.PhasePreOpening)
	assert.Equal(t, 10*time.Second, pre.PollIntervalPrimary)
	assert.Equal(t, 15*time.Second, pre.PollIntervalSecondary)

	post := GetPhaseConfig(models.PhasePostClose)
	assert.Equal(t, 30*time.Second, post.PollIntervalPrimary)
	assert.Equal(t, time.Minute, post.PollIntervalSecondary)

	closed := GetPhaseConfig(models.PhaseClosed)
	assert.False(t, closed.Polls())
	assert.Zero(t, closed.PollIntervalPrimary)

	assert.Equal(t, closed, GetPhaseConfig(models.TradingPhase("HALTED")))
	assert.Len(t, AllPhases(), 4)
}

func TestIsMarketActive(t *testing.T) {
	assert.True(t, IsMarketActive(npt(6, 10, 35, 0)))
	assert.True(t, IsMarketActive(npt(6, 15, 5, 0)))
	assert.False(t, IsMarketActive(npt(6, 10, 50, 0)))
	assert.False(t, IsMarketActive(npt(11, 12, 0, 0)))
	assert.Equal(t, 5*time.Second, GetPollingIntervals(npt(6, 12, 0, 0)).PollIntervalPrimary)
}

func TestFormatTimeUntilChange(t *testing.T) {
	tests := []struct {
		ms   int64
		want string
	}{
		{0, "Any moment now"},
		{-5, "Any moment now"},
		{999, "0s"},
		{45 * 1000, "45s"},
		{(5*60 + 7) * 1000, "5m 7s"},
		{(2*3600 + 15*60 + 59) * 1000, "2h 15m"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatTimeUntilChange(tt.ms))
	}
}

func TestParseMarketTime(t *testing.T) {
	got, err := ParseMarketTime("2025-01-05T14:30:00Z")
	require.NoError(t, err)
	assert.Equal(t, 14, got.Hour())
	assert.Equal(t, 30, got.Minute())
	assert.Equal(t, NepalLocation(), got.Location())

	got, err = ParseMarketTime("2025-01-05T14:30:00.123")
	require.NoError(t, err)
	assert.Equal(t, 14, got.Hour())

	_, err = ParseMarketTime("")
	assert.Error(t, err)
	_, err = ParseMarketTime("yesterday")
	assert.Error(t, err)

	assert.Equal(t, "Jan 5, 02:30 PM", FormatMarketTime(time.Date(2025, 1, 5, 14, 30, 0, 0, NepalLocation())))
}
