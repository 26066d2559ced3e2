package utils

import (
	"sort"
	"sync"
	"time"

	"invest-client/src/logger"
)

// MarketScheduler tracks the trading calendars of the instruments' exchanges.
type MarketScheduler struct {
	Calendars map[string]*TradingCalendar // by MIC
	Logger    *logger.Logger
	mu        sync.RWMutex
}

// -----------------------------------------------------------------------------

func NewMarketScheduler(classCodes []string, l *logger.Logger) *MarketScheduler {
	if l == nil {
		l = logger.NewLogger(nil, "MarketScheduler")
	}
	ms := &MarketScheduler{
		Calendars: make(map[string]*TradingCalendar),
		Logger:    l,
	}
	ms.MapClassCodes(classCodes)
	return ms
}

// -----------------------------------------------------------------------------

// MapClassCodes replaces the tracked calendars with those of classCodes.
func (ms *MarketScheduler) MapClassCodes(classCodes []string) {
	calendars := make(map[string]*TradingCalendar)
	for _, code := range classCodes {
		mic := MICForClassCode(code)
		if _, ok := calendars[mic]; ok {
			continue
		}
		calendars[mic] = GetCalendar(code)
	}

	ms.mu.Lock()
	ms.Calendars = calendars
	ms.mu.Unlock()

	ms.Logger.Info("MarketScheduler: Mapped %d class codes to %d calendars.", len(classCodes), len(calendars))
}

// -----------------------------------------------------------------------------

// OpenMarkets reports, per MIC, whether the market is open at t.
func (ms *MarketScheduler) OpenMarkets(t time.Time) map[string]bool {
	ms.mu.RLock()
	defer ms.mu.RUnlock()

	out := make(map[string]bool, len(ms.Calendars))
	for mic, cal := range ms.Calendars {
		out[mic] = cal.IsOpenOnMinute(t)
	}
	return out
}

// AnyMarketOpen checks if any tracked market is open at t.
func (ms *MarketScheduler) AnyMarketOpen(t time.Time) bool {
	for _, open := range ms.OpenMarkets(t) {
		if open {
			return true
		}
	}
	return false
}

// MICs returns the tracked market identifiers, sorted.
func (ms *MarketScheduler) MICs() []string {
	ms.mu.RLock()
	defer ms.mu.RUnlock()

	mics := make([]string, 0, len(ms.Calendars))
	for mic := range ms.Calendars {
		mics = append(mics, mic)
	}
	sort.Strings(mics)
	return mics
}
