package idissuer

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/akvora-api/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockCounterStore struct{ mock.Mock }

func (m *mockCounterStore) Increment(ctx context.Context, name string) (int64, error) {
	args := m.Called(ctx, name)
	return args.Get(0).(int64), args.Error(1)
}

// memCounter mimics an atomic ADD on a single item.
type memCounter struct {
	mu     sync.Mutex
	values map[string]int64
}

func (c *memCounter) Increment(_ context.Context, name string) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.values == nil {
		c.values = map[string]int64{}
	}
	c.values[name]++
	return c.values[name], nil
}

func fixedClock(year int) func() time.Time {
	return func() time.Time { return time.Date(year, 6, 1, 0, 0, 0, 0, time.UTC) }
}

func TestIssueNext_FirstIdentifier(t *testing.T) {
	store := &mockCounterStore{}
	store.On("Increment", mock.Anything, domain.AkvoraCounter).Return(int64(1), nil)

	id, err := New(store).WithClock(fixedClock(2025)).IssueNext(context.Background())

	require.NoError(t, err)
	assert.Equal(t, "AKVORA:2025:001", id.Identifier)
	assert.Equal(t, 2025, id.Year)
	assert.Equal(t, int64(1), id.Sequence)
	store.AssertExpectations(t)
}

func TestIssueNext_SequenceContinuesAcrossYears(t *testing.T) {
	store := &memCounter{values: map[string]int64{domain.AkvoraCounter: 41}}
	issuer := New(store).WithClock(fixedClock(2025))

	first, err := issuer.IssueNext(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "AKVORA:2025:042", first.Identifier)

	issuer.WithClock(fixedClock(2026))
	second, err := issuer.IssueNext(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "AKVORA:2026:043", second.Identifier)
}

func TestIssueNext_WidensPastThreeDigits(t *testing.T) {
	store := &memCounter{values: map[string]int64{domain.AkvoraCounter: 999}}

	id, err := New(store).WithClock(fixedClock(2026)).IssueNext(context.Background())

	require.NoError(t, err)
	assert.Equal(t, "AKVORA:2026:1000", id.Identifier)
}

func TestIssueNext_StoreFailure_IssuesNothing(t *testing.T) {
	store := &mockCounterStore{}
	cause := fmt.Errorf("increment: %w", domain.ErrStoreUnavailable)
	store.On("Increment", mock.Anything, domain.AkvoraCounter).Return(int64(0), cause)

	id, err := New(store).IssueNext(context.Background())

	assert.Nil(t, id)
	assert.True(t, errors.Is(err, domain.ErrStoreUnavailable))
}

func TestIssueNext_ConcurrentCallsAreDistinctAndGapFree(t *testing.T) {
	const n = 200
	issuer := New(&memCounter{}).WithClock(fixedClock(2025))

	var wg sync.WaitGroup
	results := make(chan int64, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			id, err := issuer.IssueNext(context.Background())
			if assert.NoError(t, err) {
				results <- id.Sequence
			}
		}()
	}
	wg.Wait()
	close(results)

	seen := make(map[int64]bool, n)
	for seq := range results {
		assert.False(t, seen[seq], "duplicate sequence %d", seq)
		seen[seq] = true
	}
	require.Len(t, seen, n)
	for i := int64(1); i <= n; i++ {
		assert.True(t, seen[i], "missing sequence %d", i)
	}
}
