package cache

import (
	"fmt"
	"math/rand"
	"sync"
	"testing"

	"invest-client/src/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func instrument(uid, figi, ticker, class string) models.MInstrument {
	return models.MInstrument{
		UID:       uid,
		Figi:      figi,
		Ticker:    ticker,
		ClassCode: class,
		Kind:      models.KindShare,
		Name:      ticker + " " + class,
		Lot:       1,
	}
}

// assertConsistent checks every index against the uid index while holding all
// read locks in write-lock order.
func assertConsistent(t *testing.T, ic *InstrumentCache) {
	t.Helper()
	ic.uidMu.RLock()
	ic.figiMu.RLock()
	ic.tickerMu.RLock()
	ic.classCodeTickerMu.RLock()
	defer func() {
		ic.classCodeTickerMu.RUnlock()
		ic.tickerMu.RUnlock()
		ic.figiMu.RUnlock()
		ic.uidMu.RUnlock()
	}()

	count := func(bucket []models.MInstrument, uid string) int {
		n := 0
		for _, r := range bucket {
			if r.UID == uid {
				n++
			}
		}
		return n
	}

	for uid, r := range ic.byUID {
		require.Equal(t, 1, count(ic.byFigi[r.Figi], uid), "figi index for %s", uid)
		require.Equal(t, 1, count(ic.byTicker[r.Ticker], uid), "ticker index for %s", uid)
		require.Equal(t, 1, count(ic.byClassCodeTicker[models.ClassCodeTickerOf(r)], uid), "class code index for %s", uid)
	}

	checkIndex := func(name string, buckets map[string][]models.MInstrument, keyOf func(models.MInstrument) string) {
		total := 0
		for key, bucket := range buckets {
			require.NotEmpty(t, bucket, "%s bucket %q left empty", name, key)
			for _, r := range bucket {
				stored, ok := ic.byUID[r.UID]
				require.True(t, ok, "%s index holds %s missing from uid index", name, r.UID)
				require.Equal(t, stored, r)
				require.Equal(t, key, keyOf(r))
			}
			total += len(bucket)
		}
		require.Equal(t, len(ic.byUID), total, "%s index size", name)
	}
	checkIndex("figi", ic.byFigi, func(r models.MInstrument) string { return r.Figi })
	checkIndex("ticker", ic.byTicker, func(r models.MInstrument) string { return r.Ticker })

	total := 0
	for key, bucket := range ic.byClassCodeTicker {
		require.NotEmpty(t, bucket)
		for _, r := range bucket {
			require.Equal(t, ic.byUID[r.UID], r)
			require.Equal(t, key, models.ClassCodeTickerOf(r))
		}
		total += len(bucket)
	}
	require.Equal(t, len(ic.byUID), total)
}

// -----------------------------------------------------------------------------

func TestInstrumentCacheRoundTrip(t *testing.T) {
	ic := NewInstrumentCache()
	a := instrument("1", "", "X", "M")
	ic.Insert(a)

	got, ok := ic.GetByTicker("X")
	require.True(t, ok)
	assert.Equal(t, []models.MInstrument{a}, got)

	a.Name = "renamed"
	ic.Update(a)

	byUID, ok := ic.GetByUID("1")
	require.True(t, ok)
	assert.Equal(t, "renamed", byUID.Name)

	got, ok = ic.GetByTicker("X")
	require.True(t, ok)
	require.Len(t, got, 1)
	assert.Equal(t, "renamed", got[0].Name)

	removed, ok := ic.DeleteByUID("1")
	require.True(t, ok)
	assert.Equal(t, "renamed", removed.Name)

	_, ok = ic.GetByUID("1")
	assert.False(t, ok)
	got, ok = ic.GetByTicker("X")
	assert.False(t, ok)
	assert.Nil(t, got)
	assertConsistent(t, ic)
}

func TestInstrumentCacheSharedTicker(t *testing.T) {
	ic := NewInstrumentCacheFrom([]models.MInstrument{
		instrument("1", "BBG1", "SBER", "TQBR"),
		instrument("2", "BBG2", "SBER", "SPBXM"),
		instrument("3", "", "USD000UTSTOM", "CETS"),
	})
	assert.Equal(t, 3, ic.Len())

	got, ok := ic.GetByTicker("SBER")
	require.True(t, ok)
	assert.Len(t, got, 2)

	got, ok = ic.GetByClassCodeAndTicker(models.MClassCodeTicker{ClassCode: "SPBXM", Ticker: "SBER"})
	require.True(t, ok)
	require.Len(t, got, 1)
	assert.Equal(t, "2", got[0].UID)

	got, ok = ic.GetByFigi("BBG1")
	require.True(t, ok)
	assert.Equal(t, "1", got[0].UID)

	got, ok = ic.GetByFigi("")
	require.True(t, ok)
	assert.Equal(t, "3", got[0].UID)

	_, ok = ic.GetByClassCodeAndTicker(models.MClassCodeTicker{ClassCode: "TQBR", Ticker: "GAZP"})
	assert.False(t, ok)

	// any IClassCodeTickerKey works as a lookup key
	got, ok = ic.GetByClassCodeAndTicker(instrument("ignored", "", "SBER", "TQBR"))
	require.True(t, ok)
	assert.Equal(t, "1", got[0].UID)

	assert.Equal(t, []string{"1", "2", "3"}, []string{ic.All()[0].UID, ic.All()[1].UID, ic.All()[2].UID})
	assertConsistent(t, ic)
}

func TestInstrumentCacheEmptyBucketPruning(t *testing.T) {
	ic := NewInstrumentCacheFrom([]models.MInstrument{
		instrument("1", "BBG1", "SBER", "TQBR"),
		instrument("2", "BBG2", "SBER", "SPBXM"),
	})

	ic.DeleteByUID("1")
	_, ok := ic.GetByClassCodeAndTicker(models.MClassCodeTicker{ClassCode: "TQBR", Ticker: "SBER"})
	assert.False(t, ok)
	_, ok = ic.GetByFigi("BBG1")
	assert.False(t, ok)
	got, ok := ic.GetByTicker("SBER")
	require.True(t, ok)
	assert.Len(t, got, 1)

	ic.DeleteByUID("2")
	_, ok = ic.GetByTicker("SBER")
	assert.False(t, ok)

	_, ok = ic.DeleteByUID("2")
	assert.False(t, ok)
	assertConsistent(t, ic)
}

func TestInstrumentCacheInsertReplacesExisting(t *testing.T) {
	ic := NewInstrumentCache()
	ic.Insert(instrument("1", "BBG1", "SBER", "TQBR"))
	again := instrument("1", "BBG1", "SBER", "TQBR")
	again.Lot = 10
	ic.Insert(again)

	got, ok := ic.GetByTicker("SBER")
	require.True(t, ok)
	require.Len(t, got, 1)
	assert.EqualValues(t, 10, got[0].Lot)
	assertConsistent(t, ic)
}

func TestInstrumentCacheUpdateUnknownIsNoop(t *testing.T) {
	ic := NewInstrumentCache()
	ic.Update(instrument("1", "", "X", "M"))
	assert.Equal(t, 0, ic.Len())
	_, ok := ic.GetByTicker("X")
	assert.False(t, ok)
}

func TestInstrumentCacheUpdateMovesChangedKeys(t *testing.T) {
	ic := NewInstrumentCache()
	ic.Insert(instrument("1", "", "OLD", "TQBR"))
	ic.Insert(instrument("2", "", "OLD", "TQBR"))

	ic.Update(instrument("1", "BBG1", "NEW", "SPBXM"))

	got, ok := ic.GetByTicker("OLD")
	require.True(t, ok)
	require.Len(t, got, 1)
	assert.Equal(t, "2", got[0].UID)

	got, ok = ic.GetByTicker("NEW")
	require.True(t, ok)
	assert.Equal(t, "1", got[0].UID)

	got, ok = ic.GetByFigi("BBG1")
	require.True(t, ok)
	assert.Equal(t, "1", got[0].UID)

	got, ok = ic.GetByFigi("")
	require.True(t, ok)
	assert.Len(t, got, 1)
	assertConsistent(t, ic)
}

func TestInstrumentCacheUpsert(t *testing.T) {
	ic := NewInstrumentCache()
	ic.Upsert(instrument("1", "", "X", "M"))
	updated := instrument("1", "", "X", "M")
	updated.TradingStatus = models.StatusNormalTrading
	ic.Upsert(updated)

	got, ok := ic.GetByUID("1")
	require.True(t, ok)
	assert.Equal(t, models.StatusNormalTrading, got.TradingStatus)
	assert.Equal(t, 1, ic.Len())

	ic.BulkUpsert([]models.MInstrument{instrument("2", "", "X", "M"), updated})
	ic.BulkUpdate([]models.MInstrument{instrument("3", "", "Y", "M")})
	assert.Equal(t, 2, ic.Len())
	assertConsistent(t, ic)
}

func TestInstrumentCacheReadsReturnCopies(t *testing.T) {
	ic := NewInstrumentCacheFrom([]models.MInstrument{instrument("1", "", "X", "M")})
	got, _ := ic.GetByTicker("X")
	got[0].Name = "mutated"

	again, _ := ic.GetByTicker("X")
	assert.NotEqual(t, "mutated", again[0].Name)
}

func TestInstrumentCacheRandomOperations(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	ic := NewInstrumentCache()
	tickers := []string{"A", "B", "C"}
	classes := []string{"TQBR", "SPBXM"}
	figis := []string{"", "F1", "F2"}

	random := func() models.MInstrument {
		r := instrument(
			fmt.Sprintf("uid-%d", rng.Intn(12)),
			figis[rng.Intn(len(figis))],
			tickers[rng.Intn(len(tickers))],
			classes[rng.Intn(len(classes))],
		)
		r.Lot = int64(rng.Intn(100))
		return r
	}

	for i := 0; i < 2000; i++ {
		switch rng.Intn(4) {
		case 0:
			ic.Insert(random())
		case 1:
			ic.Update(random())
		case 2:
			ic.Upsert(random())
		case 3:
			ic.DeleteByUID(fmt.Sprintf("uid-%d", rng.Intn(12)))
		}
		assertConsistent(t, ic)
	}
}

func TestInstrumentCacheConcurrentAccess(t *testing.T) {
	ic := NewInstrumentCache()
	var wg sync.WaitGroup

	for w := 0; w < 4; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < 300; i++ {
				uid := fmt.Sprintf("uid-%d", i%20)
				ticker := fmt.Sprintf("T%d", (i+w)%3)
				ic.Upsert(instrument(uid, "", ticker, "TQBR"))
				if i%7 == 0 {
					ic.DeleteByUID(uid)
				}
			}
		}(w)
	}
	for r := 0; r < 4; r++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 300; i++ {
				if bucket, ok := ic.GetByTicker("T1"); ok {
					assert.NotEmpty(t, bucket)
				}
				ic.GetByUID("uid-3")
				ic.GetByClassCodeAndTicker(models.MClassCodeTicker{ClassCode: "TQBR", Ticker: "T2"})
			}
		}()
	}
	wg.Wait()
	assertConsistent(t, ic)
}

func TestInstrumentCacheSetTradingStatus(t *testing.T) {
	ic := NewInstrumentCacheFrom([]models.MInstrument{instrument("1", "F1", "X", "M")})

	got, changed := ic.SetTradingStatus("1", models.StatusNormalTrading)
	require.True(t, changed)
	assert.Equal(t, models.StatusNormalTrading, got.TradingStatus)

	_, changed = ic.SetTradingStatus("1", models.StatusNormalTrading)
	assert.False(t, changed)
	_, changed = ic.SetTradingStatus("missing", models.StatusNormalTrading)
	assert.False(t, changed)

	bucket, ok := ic.GetByTicker("X")
	require.True(t, ok)
	assert.Equal(t, models.StatusNormalTrading, bucket[0].TradingStatus)
	assertConsistent(t, ic)
}

func TestInstrumentCacheStatusDoesNotRevertConcurrentUpsert(t *testing.T) {
	ic := NewInstrumentCacheFrom([]models.MInstrument{instrument("1", "", "X", "M")})
	const rounds = 500
	var wg sync.WaitGroup

	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < rounds; i++ {
			r := instrument("1", "", "X", "M")
			r.Name = fmt.Sprintf("v%d", i)
			ic.Upsert(r)
		}
	}()
	go func() {
		defer wg.Done()
		statuses := []models.TradingStatus{models.StatusNormalTrading, models.StatusBreakInTrading}
		for i := 0; i < rounds; i++ {
			ic.SetTradingStatus("1", statuses[i%2])
		}
	}()
	wg.Wait()

	got, ok := ic.GetByUID("1")
	require.True(t, ok)
	assert.Equal(t, fmt.Sprintf("v%d", rounds-1), got.Name)
	assertConsistent(t, ic)
}
