package utils

import (
	"fmt"
	"strings"
	"time"

	"nepse-observer/src/models"
)

// -----------------------------------------------------------------------------

var nepalLocation = loadNepalLocation()

func loadNepalLocation() *time.Location {
	loc, err := time.LoadLocation("Asia/Kathmandu")
	if err != nil {
		// No tzdata on the host; the offset has no DST so a fixed zone is exact
		return time.FixedZone("NPT", NepalOffsetSeconds)
	}
	return loc
}

// NepalLocation returns the exchange time zone.
func NepalLocation() *time.Location {
	return nepalLocation
}

// -----------------------------------------------------------------------------

var phaseTable = map[models.TradingPhase]models.MPhaseConfig{
	models.PhasePreOpening: {
		Phase:                 models.PhasePreOpening,
		Label:                 "Pre-Opening Session",
		Description:           "Order placement only, no execution",
		Color:                 "orange",
		Icon:                  "⏰",
		PollIntervalPrimary:   10 * time.Second,
		PollIntervalSecondary: 15 * time.Second,
	},
	models.PhaseOpen: {
		Phase:                 models.PhaseOpen,
		Label:                 "Market Open",
		Description:           "Active trading in progress",
		Color:                 "green",
		Icon:                  "📈",
		PollIntervalPrimary:   5 * time.Second,
		PollIntervalSecondary: 10 * time.Second,
	},
	models.PhaseClosed: {
		Phase:       models.PhaseClosed,
		Label:       "Market Closed",
		Description: "Trading session ended",
		Color:       "gray",
		Icon:        "🔒",
	},
	models.PhasePostClose: {
		Phase:                 models.PhasePostClose,
		Label:                 "Post-Close",
		Description:           "Final calculations in progress",
		Color:                 "blue",
		Icon:                  "📊",
		PollIntervalPrimary:   30 * time.Second,
		PollIntervalSecondary: 60 * time.Second,
	},
}

// phaseOrder is the cyclic session order used by NextTransition.
var phaseOrder = []models.TradingPhase{
	models.PhasePreOpening,
	models.PhaseOpen,
	models.PhasePostClose,
	models.PhaseClosed,
}

// GetPhaseConfig returns the static config for phase, or the Closed config
// for anything unknown.
func GetPhaseConfig(phase models.TradingPhase) models.MPhaseConfig {
	if cfg, ok := phaseTable[phase]; ok {
		return cfg
	}
	return phaseTable[models.PhaseClosed]
}

// AllPhases returns the phase configs in session order.
func AllPhases() []models.MPhaseConfig {
	out := make([]models.MPhaseConfig, 0, len(phaseOrder))
	for _, p := range phaseOrder {
		out = append(out, phaseTable[p])
	}
	return out
}

// -----------------------------------------------------------------------------

func isWeekend(t time.Time) bool {
	wd := t.Weekday()
	return wd == time.Saturday || wd == time.Sunday
}

func minutesSinceMidnight(t time.Time) int {
	return t.Hour()*60 + t.Minute()
}

// Classify returns the trading phase active at t.
func Classify(t time.Time) models.TradingPhase {
	local := t.In(nepalLocation)
	if isWeekend(local) {
		return models.PhaseClosed
	}

	m := minutesSinceMidnight(local)
	switch {
	case m >= PreOpeningStart && m < PreOpeningEnd:
		return models.PhasePreOpening
	case m >= TradingStart && m < TradingEnd:
		return models.PhaseOpen
	case m >= TradingEnd && m < PostCloseEnd:
		return models.PhasePostClose
	default:
		return models.PhaseClosed
	}
}

// IsMarketActive reports whether any session other than Closed is running at t.
func IsMarketActive(t time.Time) bool {
	return Classify(t) != models.PhaseClosed
}

// GetPollingIntervals returns the config of the phase active at t.
func GetPollingIntervals(t time.Time) models.MPhaseConfig {
	return GetPhaseConfig(Classify(t))
}

// -----------------------------------------------------------------------------

// NextTransition returns the time left until the phase after the one active at t.
// Works at minute granularity; seconds are ignored.
func NextTransition(t time.Time) models.MPhaseTransition {
	local := t.In(nepalLocation)
	current := Classify(t)
	currentMinutes := minutesSinceMidnight(local)

	next := nextPhase(current)
	var boundary int
	switch current {
	case models.PhasePreOpening:
		boundary = TradingStart
	case models.PhaseOpen:
		boundary = TradingEnd
	case models.PhasePostClose:
		boundary = PostCloseEnd
	default:
		switch {
		case !isWeekend(local) && currentMinutes >= PreOpeningEnd && currentMinutes < TradingStart:
			// Gap between pre-opening and trading: the open bell is next
			boundary = TradingStart
			next = models.PhaseOpen
		case !isWeekend(local) && currentMinutes < PreOpeningStart:
			boundary = PreOpeningStart
		default:
			boundary = PreOpeningStart + daysUntilNextWeekday(local)*minutesPerDay
		}
	}

	ms := int64(boundary-currentMinutes) * msPerMinute
	if ms < 0 {
		ms = 0
	}

	return models.MPhaseTransition{
		CurrentPhase:      current,
		TimeUntilChangeMs: ms,
		NextPhase:         next,
	}
}

// daysUntilNextWeekday counts calendar days from local to the next Mon-Fri day,
// starting with tomorrow.
func daysUntilNextWeekday(local time.Time) int {
	days := 1
	day := local.AddDate(0, 0, 1)
	for isWeekend(day) {
		day = day.AddDate(0, 0, 1)
		days++
	}
	return days
}

func nextPhase(p models.TradingPhase) models.TradingPhase {
	for i, candidate := range phaseOrder {
		if candidate == p {
			return phaseOrder[(i+1)%len(phaseOrder)]
		}
	}
	return models.PhasePreOpening
}

// -----------------------------------------------------------------------------

// FormatTimeUntilChange renders a countdown for display.
func FormatTimeUntilChange(ms int64) string {
	if ms <= 0 {
		return "Any moment now"
	}

	totalSeconds := ms / 1000
	hours := totalSeconds / 3600
	minutes := (totalSeconds % 3600) / 60
	seconds := totalSeconds % 60

	switch {
	case hours > 0:
		return fmt.Sprintf("%dh %dm", hours, minutes)
	case minutes > 0:
		return fmt.Sprintf("%dm %ds", minutes, seconds)
	default:
		return fmt.Sprintf("%ds", seconds)
	}
}

// -----------------------------------------------------------------------------

var marketTimeLayouts = []string{
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04",
}

// ParseMarketTime reads the upstream marketStatus.time value. Upstream stamps
// Nepal wall-clock time with a trailing "Z"; the marker is dropped and the
// value is taken as Nepal local time.
func ParseMarketTime(raw string) (time.Time, error) {
	s := strings.TrimSpace(raw)
	s = strings.TrimSuffix(s, "Z")
	if s == "" {
		return time.Time{}, fmt.Errorf("empty market time")
	}

	for _, layout := range marketTimeLayouts {
		if t, err := time.ParseInLocation(layout, s, nepalLocation); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised market time %q", raw)
}

// FormatMarketTime renders a parsed market time as e.g. "Jan 5, 02:30 PM".
func FormatMarketTime(t time.Time) string {
	return t.In(nepalLocation).Format("Jan 2, 03:04 PM")
}
