package feed

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"invest-client/src/interfaces"
	"invest-client/src/logger"
	"invest-client/src/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticSource struct {
	name     string
	listing  []models.MInstrument
	failures int32
	calls    atomic.Int32
}

func (s *staticSource) Name() string { return s.name }

func (s *staticSource) FetchInstruments(context.Context) ([]models.MInstrument, error) {
	if s.calls.Add(1) <= s.failures {
		return nil, errors.New("unavailable")
	}
	return s.listing, nil
}

func newTestManager(t *testing.T, sources ...interfaces.IInstrumentSource) *SourceManager {
	t.Helper()
	m := NewSourceManager(logger.NewTestLogger())
	m.RetryDelay = 0
	require.NoError(t, m.AddSources(sources...))
	return m
}

// -----------------------------------------------------------------------------

func TestSourceManagerRegistry(t *testing.T) {
	m := newTestManager(t, &staticSource{name: "shares"})

	require.NoError(t, m.AddSource(&staticSource{name: "currencies"}))
	assert.Error(t, m.AddSource(&staticSource{name: "shares"}))
	assert.Error(t, m.AddSource(&staticSource{name: ""}))
	assert.Error(t, m.AddSources(&staticSource{name: "bonds"}, &staticSource{name: "bonds"}))

	names := []string{}
	for _, s := range m.GetAllSources() {
		names = append(names, s.Name())
	}
	assert.Equal(t, []string{"bonds", "currencies", "shares"}, names)
}

func TestFetchAllMergesAndRetries(t *testing.T) {
	shares := &staticSource{name: "shares", failures: 2, listing: []models.MInstrument{
		{UID: "a", Ticker: "SBER"}, {UID: "b", Ticker: "GAZP"},
	}}
	currencies := &staticSource{name: "currencies", listing: []models.MInstrument{
		{UID: "c", Ticker: "USD"}, {UID: "a", Ticker: "SBER-OLD"},
	}}

	all, err := newTestManager(t, shares, currencies).FetchAll(context.Background())
	require.NoError(t, err)
	assert.EqualValues(t, 3, shares.calls.Load())

	byUID := map[string]string{}
	for _, inst := range all {
		byUID[inst.UID] = inst.Ticker
	}
	assert.Equal(t, map[string]string{"a": "SBER", "b": "GAZP", "c": "USD"}, byUID)
}

func TestFetchAllToleratesPartialFailure(t *testing.T) {
	broken := &staticSource{name: "broken", failures: 100}
	ok := &staticSource{name: "ok", listing: []models.MInstrument{{UID: "a"}}}

	all, err := newTestManager(t, broken, ok).FetchAll(context.Background())
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestFetchAllFailsWhenEverySourceFails(t *testing.T) {
	_, err := newTestManager(t, &staticSource{name: "broken", failures: 100}).FetchAll(context.Background())
	assert.Error(t, err)

	_, err = newTestManager(t).FetchAll(context.Background())
	assert.Error(t, err)
}
