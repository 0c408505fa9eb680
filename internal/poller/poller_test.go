package poller

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/file-tracker/backend/internal/cache"
	"github.com/file-tracker/backend/internal/models"
	"github.com/file-tracker/backend/internal/testutil"
)

func newTestPoller(fake *testutil.FakeRemote) (*Poller, *cache.Cache) {
	c := cache.New()
	p := New(fake, c, Options{
		PageSize:     3,
		PollInterval: 10 * time.Millisecond,
		Backoff:      10 * time.Millisecond,
	})
	return p, c
}

func TestPollOnceIngestsPages(t *testing.T) {
	fake := testutil.NewFakeRemote()
	for _, id := range []string{"a", "b", "c", "d", "e"} {
		fake.AddFile(id, models.StatusProcessing)
	}
	p, c := newTestPoller(fake)

	n, err := p.pollOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.Equal(t, 3, c.Cursor())

	n, err = p.pollOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, 5, c.Cursor())

	// Listing drained
	n, err = p.pollOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	pending := c.PendingSnapshot()
	require.Len(t, pending, 5)
	for i, r := range pending {
		assert.Equal(t, i, r.Index)
	}
}

func TestPollOnceFailureDoesNotAdvanceCursor(t *testing.T) {
	fake := testutil.NewFakeRemote()
	fake.AddFile("a", models.StatusProcessing)
	fake.FailListing(errors.New("connection refused"))
	p, c := newTestPoller(fake)

	_, err := p.pollOnce(context.Background())
	require.Error(t, err)
	assert.Equal(t, 0, c.Cursor())
	assert.Equal(t, 0, c.PendingCount())
}

func TestCheckOncePromotesFinished(t *testing.T) {
	fake := testutil.NewFakeRemote()
	fake.AddFile("a", models.StatusProcessing)
	p, c := newTestPoller(fake)
	p.pollOnce(context.Background())

	fake.SetStatus(0, models.StatusFinished)

	promoted, err := p.checkOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, promoted)

	rec, ok := c.LookupCompleted("a")
	require.True(t, ok)
	assert.Equal(t, models.StatusFinished, rec.Status)
	assert.Equal(t, 0, c.PendingCount())
}

func TestCheckOnceDiscardsTerminalFailures(t *testing.T) {
	fake := testutil.NewFakeRemote()
	fake.AddFile("a", models.StatusProcessing)
	fake.AddFile("b", models.StatusProcessing)
	p, c := newTestPoller(fake)
	p.pollOnce(context.Background())

	fake.SetStatus(0, "FAILED")

	promoted, err := p.checkOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, promoted)

	// a is gone from both collections, b survives untouched
	_, ok := c.LookupCompleted("a")
	assert.False(t, ok)
	pending := c.PendingSnapshot()
	require.Len(t, pending, 1)
	assert.Equal(t, "b", pending[0].FileID)
}

func TestCheckOnceResolvesRecordsListedAlreadyTerminal(t *testing.T) {
	// A file that arrives FINISHED on first listing is deposited into
	// pending verbatim and resolved on the next pass without a status fetch
	fake := testutil.NewFakeRemote()
	fake.AddFile("a", models.StatusFinished)
	fake.AddFile("b", "CANCELLED")
	p, c := newTestPoller(fake)
	p.pollOnce(context.Background())
	require.Equal(t, 2, c.PendingCount())

	callsBefore := len(fake.ListCalls())
	promoted, err := p.checkOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, promoted)
	// No per-record fetch was needed
	assert.Len(t, fake.ListCalls(), callsBefore)

	_, ok := c.LookupCompleted("a")
	assert.True(t, ok)
	assert.Equal(t, 0, c.PendingCount())
}

func TestCheckOnceMismatchAbortsPass(t *testing.T) {
	fake := testutil.NewFakeRemote()
	fake.AddFile("a", models.StatusProcessing)
	fake.AddFile("b", models.StatusProcessing)
	fake.AddFile("c", models.StatusProcessing)
	p, c := newTestPoller(fake)
	p.pollOnce(context.Background())

	fake.SetStatus(0, models.StatusFinished)
	fake.SetFileID(1, "x") // upstream inconsistency at index 1
	fake.SetStatus(2, models.StatusFinished)

	_, err := p.checkOnce(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), `expected "b"`)

	// Nothing was promoted or discarded
	assert.Equal(t, 3, c.PendingCount())
	assert.Equal(t, 0, c.CompletedCount())

	pending := c.PendingSnapshot()
	// The record visited before the mismatch keeps its updated status; the
	// one after the mismatch was never fetched
	assert.Equal(t, models.StatusFinished, pending[0].Status)
	assert.Equal(t, models.StatusProcessing, pending[2].Status)
	for _, call := range fake.ListCalls() {
		assert.NotEqual(t, testutil.ListCall{Offset: 2, Limit: 1}, call)
	}
}

func TestCheckOnceEmptyStatusResponseAbortsPass(t *testing.T) {
	fake := testutil.NewFakeRemote()
	fake.AddFile("a", models.StatusProcessing)
	p, c := newTestPoller(fake)
	p.pollOnce(context.Background())

	fake.FailListing(errors.New("timeout"))

	_, err := p.checkOnce(context.Background())
	require.Error(t, err)
	assert.Equal(t, 1, c.PendingCount())
}

func TestRunPassesRerunsWhilePromoting(t *testing.T) {
	fake := testutil.NewFakeRemote()
	fake.AddFile("a", models.StatusProcessing)
	fake.AddFile("b", models.StatusProcessing)
	p, c := newTestPoller(fake)
	p.pollOnce(context.Background())

	fake.SetStatus(0, models.StatusFinished)
	fake.SetStatus(1, models.StatusFinished)

	// Pass 1 promotes both, pass 2 finds pending empty and stops
	passes := p.runPasses(context.Background())
	assert.Equal(t, 2, passes)
	assert.Equal(t, 2, c.CompletedCount())
}

func TestRunPassesStopsAfterBarrenPass(t *testing.T) {
	fake := testutil.NewFakeRemote()
	fake.AddFile("a", models.StatusProcessing)
	p, _ := newTestPoller(fake)
	p.pollOnce(context.Background())

	passes := p.runPasses(context.Background())
	assert.Equal(t, 1, passes)
}

func TestStartResolvesFilesEndToEnd(t *testing.T) {
	fake := testutil.NewFakeRemote()
	fake.AddFile("a", models.StatusProcessing)
	p, c := newTestPoller(fake)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	p.Start(ctx)

	require.Eventually(t, func() bool {
		return c.PendingCount() == 1
	}, time.Second, time.Millisecond, "listing poller never picked up the file")

	fake.SetStatus(0, models.StatusFinished)

	require.Eventually(t, func() bool {
		_, ok := c.LookupCompleted("a")
		return ok
	}, time.Second, time.Millisecond, "status checker never promoted the file")
}
