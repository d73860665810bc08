package appointments

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/wolfman30/vetchart/pkg/logging"
)

type countingSource struct {
	calls atomic.Int32
}

func (s *countingSource) Fetch(ctx context.Context) ([]Raw, error) {
	n := s.calls.Add(1)
	date := "2025-09-01"
	if n > 1 {
		date = "2025-09-02"
	}
	return []Raw{APIRecord{ID: "r", AnimalName: "Bella", Date: date}}, nil
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not met before deadline")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestHolderStartsEmpty(t *testing.T) {
	h := NewHolder()
	cur := h.Current()
	require.NotNil(t, cur.Index)
	assert.Equal(t, OriginEmpty, cur.Origin)
}

func TestHolderDiscardsStaleCommit(t *testing.T) {
	h := NewHolder()
	older := h.Begin()
	newer := h.Begin()

	newRes := Result{Index: Index{"2025-09-02": {{ID: "new"}}}, Origin: OriginRemote}
	oldRes := Result{Index: Index{"2025-09-01": {{ID: "old"}}}, Origin: OriginFallback}

	assert.True(t, h.Commit(newer, newRes))
	assert.False(t, h.Commit(older, oldRes))
	assert.Equal(t, "new", h.Current().Index.Day("2025-09-02")[0].ID)

	assert.True(t, h.Commit(h.Begin(), Result{Origin: OriginEmpty}))
	assert.NotNil(t, h.Current().Index)
}

func TestHolderConcurrentCommits(t *testing.T) {
	h := NewHolder()
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ticket := h.Begin()
			h.Commit(ticket, Result{Index: Index{}, Origin: OriginRemote})
			_ = h.Current()
		}()
	}
	wg.Wait()
	assert.Equal(t, OriginRemote, h.Current().Origin)
}

func TestRefreshNowCommits(t *testing.T) {
	src := &countingSource{}
	r := NewRefresher(NewAggregator(src, nil, logging.Discard()), nil, "", logging.Discard())

	res := r.RefreshNow(context.Background())
	assert.Equal(t, OriginRemote, res.Origin)
	assert.Len(t, r.Holder().Current().Index.Day("2025-09-01"), 1)
}

func TestRefreshNowCancelledKeepsPrevious(t *testing.T) {
	src := &countingSource{}
	r := NewRefresher(NewAggregator(src, nil, logging.Discard()), nil, "", logging.Discard())
	r.RefreshNow(context.Background())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	res := r.RefreshNow(ctx)

	assert.Len(t, res.Index.Day("2025-09-01"), 1, "previous index must survive a cancelled refresh")
}

func TestSyncCommitsBeforeReturning(t *testing.T) {
	src := &countingSource{}
	r := NewRefresher(NewAggregator(src, nil, logging.Discard()), nil, "", logging.Discard())

	r.Sync(context.Background())

	assert.Len(t, r.Holder().Current().Index.Day("2025-09-01"), 1)
	assert.Len(t, r.trigger, 0)
}

func TestSyncHandsCancelledRefreshToLoop(t *testing.T) {
	r := NewRefresher(NewAggregator(&countingSource{}, nil, logging.Discard()), nil, "", logging.Discard())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	r.Sync(ctx)

	assert.Equal(t, OriginEmpty, r.Holder().Current().Origin)
	assert.Len(t, r.trigger, 1)

	var nilRefresher *Refresher
	nilRefresher.Sync(context.Background())
}

func TestTriggerCollapsesPendingRequests(t *testing.T) {
	r := NewRefresher(NewAggregator(&countingSource{}, nil, logging.Discard()), nil, "", logging.Discard())
	r.Trigger()
	r.Trigger()
	r.Trigger()
	assert.Len(t, r.trigger, 1)

	var nilRefresher *Refresher
	nilRefresher.Trigger()
}

func TestStartRefreshesAndStops(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	src := &countingSource{}
	r := NewRefresher(NewAggregator(src, nil, logging.Discard()), nil, "@every 1h", logging.Discard())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- r.Start(ctx) }()

	waitFor(t, func() bool { return src.calls.Load() >= 1 })
	r.Trigger()
	waitFor(t, func() bool { return len(r.Holder().Current().Index.Day("2025-09-02")) == 1 })

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("refresher did not stop")
	}
}

func TestStartRejectsBadSchedule(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	src := &countingSource{}
	r := NewRefresher(NewAggregator(src, nil, logging.Discard()), nil, "not a schedule", logging.Discard())
	err := r.Start(context.Background())
	require.Error(t, err)
	assert.Zero(t, src.calls.Load())
}
