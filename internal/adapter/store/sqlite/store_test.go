package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edutools/fbgen/internal/domain"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestSaveRunAndReadBack(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	run := Run{
		RunID:      "run-1",
		Timestamp:  time.Unix(1700000000, 0),
		Mode:       "repo",
		Reference:  "/ref",
		Submission: "/sub",
		Status:     "partial",
	}
	reports := []domain.FileReport{
		{Path: "main.c", Status: domain.FileStatusPartial, Accepted: 3,
			Dropped:      []domain.DroppedComment{{Reason: "anchor miss"}},
			ReviewerNote: "decent"},
		{Path: "util.c", Status: domain.FileStatusFailed, Reason: "timeout"},
	}

	require.NoError(t, store.SaveRun(ctx, run, reports))

	runs, err := store.RecentRuns(ctx, 10)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, "run-1", runs[0].RunID)
	assert.Equal(t, "repo", runs[0].Mode)
	assert.Equal(t, run.Timestamp.Unix(), runs[0].Timestamp.Unix())

	results, err := store.FileResults(ctx, "run-1")
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "main.c", results[0].Path)
	assert.Equal(t, 3, results[0].Accepted)
	assert.Equal(t, "decent", results[0].ReviewerNote)
	assert.Equal(t, "timeout", results[1].Reason)
}

func TestRecentRunsOrderAndLimit(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	for i, id := range []string{"old", "mid", "new"} {
		require.NoError(t, store.SaveRun(ctx, Run{
			RunID:     id,
			Timestamp: time.Unix(int64(1700000000+i), 0),
			Mode:      "single",
			Status:    "success",
		}, nil))
	}

	runs, err := store.RecentRuns(ctx, 2)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "new", runs[0].RunID)
	assert.Equal(t, "mid", runs[1].RunID)
}

func TestDuplicateRunIDRejected(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	run := Run{RunID: "dup", Timestamp: time.Now(), Mode: "repo", Status: "success"}
	require.NoError(t, store.SaveRun(ctx, run, nil))
	assert.Error(t, store.SaveRun(ctx, run, nil))
}
