package utils

import (
	"strings"
	"time"

	"github.com/scmhub/calendar"
)

// TradingCalendar calculates trading days using scmhub/calendar.
type TradingCalendar struct {
	MIC      string
	Calendar *calendar.Calendar
	Fallback bool
	Timezone *time.Location
	Open     time.Duration // fallback session start, from midnight
	Close    time.Duration // fallback session end
}

// -----------------------------------------------------------------------------

// exchange class codes by MIC (ISO 10383)
var classCodeMIC = map[string]string{
	"TQBR":   "xmos", // MOEX shares
	"TQTF":   "xmos", // MOEX ETFs
	"TQCB":   "xmos", // MOEX corporate bonds
	"TQOB":   "xmos", // MOEX federal bonds
	"CETS":   "xmos", // MOEX currency
	"SPBFUT": "xmos", // MOEX futures
	"SPBOPT": "xmos", // MOEX options
	"SPBRU":  "xspb", // SPB Exchange
	"SPBXM":  "xspb",
}

type session struct {
	tz          string
	offset      int // hours east of UTC when tz cannot be loaded
	open, close time.Duration
}

// weekday sessions used when the calendar library has no data for a MIC
var fallbackSessions = map[string]session{
	"xmos": {tz: "Europe/Moscow", offset: 3, open: 9*time.Hour + 50*time.Minute, close: 18*time.Hour + 50*time.Minute},
	"xspb": {tz: "Europe/Moscow", offset: 3, open: 7 * time.Hour, close: 23*time.Hour + 50*time.Minute},
}

// MICForClassCode maps an exchange class code to its market identifier.
// Unknown class codes map to MOEX.
func MICForClassCode(classCode string) string {
	if mic, ok := classCodeMIC[strings.ToUpper(classCode)]; ok {
		return mic
	}
	return "xmos"
}

// -----------------------------------------------------------------------------

func GetCalendar(classCode string) *TradingCalendar {
	mic := MICForClassCode(classCode)

	if cal := calendar.GetCalendar(mic); cal != nil {
		return &TradingCalendar{MIC: mic, Calendar: cal, Timezone: cal.Loc}
	}

	s, ok := fallbackSessions[mic]
	if !ok {
		s = fallbackSessions["xmos"]
	}
	loc, err := time.LoadLocation(s.tz)
	if err != nil {
		loc = time.FixedZone("MSK", s.offset*3600)
	}
	return &TradingCalendar{MIC: mic, Fallback: true, Timezone: loc, Open: s.open, Close: s.close}
}

// -----------------------------------------------------------------------------

func (tc *TradingCalendar) IsTradingDay(date time.Time) bool {
	if tc.Timezone != nil {
		date = date.In(tc.Timezone)
	}

	if tc.Fallback {
		weekday := date.Weekday()
		return weekday != time.Saturday && weekday != time.Sunday
	}
	return tc.Calendar.IsBusinessDay(date)
}

// -----------------------------------------------------------------------------

// IsOpenOnMinute checks if the market is open at a specific minute.
func (tc *TradingCalendar) IsOpenOnMinute(t time.Time) bool {
	if tc.Timezone != nil {
		t = t.In(tc.Timezone)
	}

	if tc.Fallback {
		if !tc.IsTradingDay(t) {
			return false
		}
		sinceMidnight := time.Duration(t.Hour())*time.Hour + time.Duration(t.Minute())*time.Minute
		return sinceMidnight >= tc.Open && sinceMidnight < tc.Close
	}

	return tc.Calendar.IsOpen(t)
}
