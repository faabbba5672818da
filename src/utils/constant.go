package utils

// -----------------------------------------------------------------------------

// Session boundaries in minutes since midnight, Nepal local time.
// Windows are inclusive-start, exclusive-end.
const (
	PreOpeningStart = 10*60 + 30 // 10:30
	PreOpeningEnd   = 10*60 + 45 // 10:45
	TradingStart    = 11 * 60    // 11:00
	TradingEnd      = 15 * 60    // 15:00
	PostCloseEnd    = 15*60 + 15 // 15:15

	minutesPerDay = 24 * 60
	msPerMinute   = 60 * 1000
)

// NepalOffsetSeconds is UTC+5:45.
const NepalOffsetSeconds = 5*3600 + 45*60
