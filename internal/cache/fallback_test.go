package cache

import (
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errRemote = errors.New("remote down")

func TestGetOrFetch_StoresFreshValue(t *testing.T) {
	c := New[string, float64]()

	v, err := c.GetOrFetch("AAPL", func() (float64, error) { return 101.5, nil })
	require.NoError(t, err)
	assert.Equal(t, 101.5, v)

	stored, ok := c.Get("AAPL")
	assert.True(t, ok)
	assert.Equal(t, 101.5, stored)
}

func TestGetOrFetch_FallsBackToLastGoodValue(t *testing.T) {
	c := New[string, float64]()
	_, err := c.GetOrFetch("AAPL", func() (float64, error) { return 100, nil })
	require.NoError(t, err)

	v, stale, err := c.GetOrFetchStale("AAPL", func() (float64, error) { return 0, errRemote })
	require.NoError(t, err)
	assert.True(t, stale)
	assert.Equal(t, 100.0, v)
}

func TestGetOrFetch_MissReturnsOriginalError(t *testing.T) {
	c := New[string, float64]()

	_, err := c.GetOrFetch("MSFT", func() (float64, error) { return 0, errRemote })
	assert.ErrorIs(t, err, errRemote)
	assert.Equal(t, 0, c.Len())
}

func TestGetOrFetch_AlwaysCallsFetch(t *testing.T) {
	c := New[string, int]()
	calls := 0
	fetch := func() (int, error) { calls++; return calls, nil }

	for i := 0; i < 3; i++ {
		_, _ = c.GetOrFetch("k", fetch)
	}
	assert.Equal(t, 3, calls)

	v, _ := c.Get("k")
	assert.Equal(t, 3, v, "latest success overwrites the entry")
}

func TestGetOrFetch_FailureDoesNotOverwrite(t *testing.T) {
	c := New[string, int]()
	c.Set("k", 7)

	_, _ = c.GetOrFetch("k", func() (int, error) { return 99, errRemote })
	v, _ := c.Get("k")
	assert.Equal(t, 7, v)
}

func TestGetOrFetch_Concurrent(t *testing.T) {
	c := New[string, int]()
	var wg sync.WaitGroup
	for i := 0; i < 64; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			key := fmt.Sprintf("t%d", i%8)
			_, _ = c.GetOrFetch(key, func() (int, error) {
				if i%3 == 0 {
					return 0, errRemote
				}
				return i, nil
			})
		}(i)
	}
	wg.Wait()

	assert.LessOrEqual(t, c.Len(), 8)
	s := c.Stats()
	assert.Equal(t, int64(64), s.Fresh+s.Fallback+s.Misses)
}

func TestBundle_StatsNamesEveryCache(t *testing.T) {
	b := NewBundle()
	b.Names.Set("AAPL", "Apple Inc.")

	stats := b.Stats()
	assert.Len(t, stats, 4)
	assert.Equal(t, 1, stats["names"].Entries)
}
