package services

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSequenceStore struct {
	mu       sync.Mutex
	counters map[string]int64
	err      error
}

func newFakeSequenceStore() *fakeSequenceStore {
	return &fakeSequenceStore{counters: make(map[string]int64)}
}

func (f *fakeSequenceStore) NextSequence(ctx context.Context, date string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return 0, f.err
	}
	f.counters[date]++
	return f.counters[date], nil
}

func TestOrderNumbers_Format(t *testing.T) {
	gen := NewOrderNumbers(newFakeSequenceStore())
	gen.now = func() time.Time {
		return time.Date(2025, 9, 1, 10, 30, 0, 0, time.UTC)
	}

	number, err := gen.Generate(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "20250901-103000-0001", number)

	number, err = gen.Generate(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "20250901-103000-0002", number)
}

func TestOrderNumbers_SequenceResetsPerDay(t *testing.T) {
	seq := newFakeSequenceStore()
	gen := NewOrderNumbers(seq)

	day := time.Date(2025, 9, 1, 23, 59, 59, 0, time.UTC)
	gen.now = func() time.Time { return day }
	first, err := gen.Generate(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "20250901-235959-0001", first)

	day = time.Date(2025, 9, 2, 0, 0, 1, 0, time.UTC)
	next, err := gen.Generate(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "20250902-000001-0001", next)
}

func TestOrderNumbers_ConcurrentCallsAreDistinct(t *testing.T) {
	gen := NewOrderNumbers(newFakeSequenceStore())
	gen.now = func() time.Time {
		return time.Date(2025, 9, 1, 12, 0, 0, 0, time.UTC)
	}

	const n = 100
	results := make(chan string, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			number, err := gen.Generate(context.Background())
			assert.NoError(t, err)
			results <- number
		}()
	}
	wg.Wait()
	close(results)

	seen := make(map[string]bool)
	for number := range results {
		assert.False(t, seen[number], "duplicate order number %s", number)
		seen[number] = true
	}
	assert.Len(t, seen, n)
}

func TestOrderNumbers_PaddingGrowsPast9999(t *testing.T) {
	seq := newFakeSequenceStore()
	seq.counters["2025-09-01"] = 9999
	gen := NewOrderNumbers(seq)
	gen.now = func() time.Time {
		return time.Date(2025, 9, 1, 8, 0, 0, 0, time.UTC)
	}

	number, err := gen.Generate(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "20250901-080000-10000", number)
}

func TestOrderNumbers_StoreError(t *testing.T) {
	seq := newFakeSequenceStore()
	seq.err = fmt.Errorf("connection reset")
	gen := NewOrderNumbers(seq)

	_, err := gen.Generate(context.Background())
	assert.ErrorContains(t, err, "order number sequence")
}
