package server

import (
	"fmt"
	"net/http"
	"strconv"

	"invest-client/src/models"

	"github.com/gin-gonic/gin"
)

// -----------------------------------------------------------------------------

func notFound(c *gin.Context, what, key string) {
	c.JSON(http.StatusNotFound, gin.H{"error": fmt.Sprintf("%s %s not found", what, key)})
}

// parseCount parses a non-negative count, def when raw is empty.
func parseCount(raw string, def int) (int, error) {
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("invalid count %q", raw)
	}
	return n, nil
}

// -----------------------------------------------------------------------------

// snapshot collects what the caches hold for uid. ok is false when they hold
// nothing.
func (s *APIServer) snapshot(uid string) (models.MInstrumentSnapshot, bool) {
	var snap models.MInstrumentSnapshot
	found := false

	if inst, ok := s.Caches.Instruments.GetByUID(uid); ok {
		snap.Instrument = &inst
		found = true
	}
	if candle, ok := s.Caches.Candles.Last(uid); ok {
		snap.LastCandle = &candle
		found = true
	}
	if book, ok := s.Caches.OrderBooks.Get(uid); ok {
		snap.OrderBook = &book
		found = true
	}
	if st, ok := s.Caches.Statuses.Get(uid); ok {
		snap.TradingStatus = &st
		found = true
	}
	return snap, found
}

// -----------------------------------------------------------------------------

func toSet[T comparable](items []T) map[T]struct{} {
	if len(items) == 0 {
		return nil
	}
	set := make(map[T]struct{}, len(items))
	for _, it := range items {
		set[it] = struct{}{}
	}
	return set
}
