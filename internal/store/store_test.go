package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "runs.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	require.NoError(t, s.Migrate(context.Background()))
	return s
}

func TestEnsureRunReusesExisting(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	ctx := context.Background()

	first, err := s.EnsureRun(ctx, "in.xlsx", "out.csv", "poc,fund")
	require.NoError(t, err)
	second, err := s.EnsureRun(ctx, "in.xlsx", "out.csv", "poc,fund")
	require.NoError(t, err)
	assert.Equal(t, first, second)

	other, err := s.EnsureRun(ctx, "in.xlsx", "out.csv", "poc,fund,deep")
	require.NoError(t, err)
	assert.NotEqual(t, first, other)
}

func TestMarkCompletedOutOfOrder(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	ctx := context.Background()

	runID, err := s.EnsureRun(ctx, "in.xlsx", "out.csv", "poc")
	require.NoError(t, err)

	// Workers complete out of order: 0, 1, 3 done; 2 still in flight.
	for _, idx := range []int{3, 0, 1} {
		require.NoError(t, s.MarkCompleted(ctx, runID, idx, 1000, 0.01))
	}

	next, err := s.NextResumeIndex(ctx, runID)
	require.NoError(t, err)
	assert.Equal(t, 2, next)

	completed, err := s.CompletedSet(ctx, runID)
	require.NoError(t, err)
	assert.Equal(t, map[int]bool{0: true, 1: true, 3: true}, completed)

	// Filling the gap advances the frontier past everything done.
	require.NoError(t, s.MarkCompleted(ctx, runID, 2, 1000, 0.01))
	next, err = s.NextResumeIndex(ctx, runID)
	require.NoError(t, err)
	assert.Equal(t, 4, next)
}

func TestMarkCompletedIdempotent(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	ctx := context.Background()

	runID, err := s.EnsureRun(ctx, "in.xlsx", "out.csv", "poc")
	require.NoError(t, err)

	require.NoError(t, s.MarkCompleted(ctx, runID, 0, 1000, 0.01))
	require.NoError(t, s.MarkCompleted(ctx, runID, 0, 1200, 0.02))

	tokens, costUSD, err := s.RunTotals(ctx, runID)
	require.NoError(t, err)
	assert.Equal(t, 1200, tokens)
	assert.InDelta(t, 0.02, costUSD, 1e-9)
}

func TestMarkFailedAndRetry(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	ctx := context.Background()

	runID, err := s.EnsureRun(ctx, "in.xlsx", "out.csv", "poc")
	require.NoError(t, err)

	require.NoError(t, s.MarkFailed(ctx, runID, 5, "all stages failed"))

	failed, err := s.FailedSet(ctx, runID)
	require.NoError(t, err)
	assert.Equal(t, map[int]bool{5: true}, failed)

	// A failed index does not count as completed.
	completed, err := s.CompletedSet(ctx, runID)
	require.NoError(t, err)
	assert.Empty(t, completed)

	// Retry succeeds; the row flips to completed.
	require.NoError(t, s.MarkCompleted(ctx, runID, 5, 900, 0.009))
	failed, err = s.FailedSet(ctx, runID)
	require.NoError(t, err)
	assert.Empty(t, failed)
	completed, err = s.CompletedSet(ctx, runID)
	require.NoError(t, err)
	assert.Equal(t, map[int]bool{5: true}, completed)
}

func TestRunTotals(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	ctx := context.Background()

	runID, err := s.EnsureRun(ctx, "in.xlsx", "out.csv", "poc")
	require.NoError(t, err)

	require.NoError(t, s.MarkCompleted(ctx, runID, 0, 1000, 0.01))
	require.NoError(t, s.MarkCompleted(ctx, runID, 1, 2000, 0.02))
	require.NoError(t, s.MarkFailed(ctx, runID, 2, "boom"))

	tokens, costUSD, err := s.RunTotals(ctx, runID)
	require.NoError(t, err)
	assert.Equal(t, 3000, tokens)
	assert.InDelta(t, 0.03, costUSD, 1e-9)
}
