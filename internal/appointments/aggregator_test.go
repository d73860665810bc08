package appointments

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/wolfman30/vetchart/internal/observability/metrics"
	"github.com/wolfman30/vetchart/pkg/logging"
)

type stubSource struct {
	raws  []Raw
	err   error
	calls int
}

func (s *stubSource) Fetch(ctx context.Context) ([]Raw, error) {
	s.calls++
	return s.raws, s.err
}

type stubHistory struct {
	entries []VisitEntry
	err     error
	calls   int
}

func (h *stubHistory) VisitEntries(ctx context.Context) ([]VisitEntry, error) {
	h.calls++
	return h.entries, h.err
}

var fixedNow = time.Date(2025, 8, 30, 12, 0, 0, 0, time.UTC)

func newTestAggregator(src Source, hist VisitHistory, opts ...Option) *Aggregator {
	opts = append([]Option{WithClock(func() time.Time { return fixedNow })}, opts...)
	return NewAggregator(src, hist, logging.Discard(), opts...)
}

func TestRefreshFromRemote(t *testing.T) {
	src := &stubSource{raws: []Raw{
		APIRecord{ID: "b", AnimalName: "Bravo", Date: "2025-08-31", Time: "10:00"},
		APIRecord{ID: "a", AnimalName: "Alpha", Date: "2025-08-31T09:00:00"},
		APIRecord{ID: "x", AnimalName: "Nowhere", Date: ""},
		APIRecord{ID: "c", AnimalName: "Charlie", Date: "2025-09-01", Time: "/uploads/c.jpg"},
	}}
	hist := &stubHistory{}

	res := newTestAggregator(src, hist).RefreshResult(context.Background())

	if res.Origin != OriginRemote {
		t.Fatalf("expected remote origin, got %s", res.Origin)
	}
	if hist.calls != 0 {
		t.Fatalf("fallback should not run when the source has usable records")
	}
	if res.Dropped != 1 {
		t.Fatalf("expected 1 dropped record, got %d", res.Dropped)
	}
	want := Index{
		"2025-08-31": {
			{ID: "a", AnimalName: "Alpha", Date: "2025-08-31", Time: "09:00"},
			{ID: "b", AnimalName: "Bravo", Date: "2025-08-31", Time: "10:00"},
		},
		"2025-09-01": {
			{ID: "c", AnimalName: "Charlie", Date: "2025-09-01", Time: ""},
		},
	}
	if diff := cmp.Diff(want, res.Index); diff != "" {
		t.Fatalf("index mismatch (-want +got):\n%s", diff)
	}
	if !res.GeneratedAt.Equal(fixedNow) {
		t.Fatalf("unexpected GeneratedAt %v", res.GeneratedAt)
	}
}

func TestRefreshFallsBackWhenSourceFails(t *testing.T) {
	src := &stubSource{err: errors.New("connection refused")}
	hist := &stubHistory{entries: []VisitEntry{
		{MicrochipNumber: "111", AnimalName: "Bella", Position: 0, NextVisitDate: "2025-09-01"},
		{MicrochipNumber: "111", AnimalName: "Bella", Position: 2, NextVisitDate: "2025-09-01T08:30:00"},
		{MicrochipNumber: "222", AnimalName: "Coco", Position: 1, NextVisitDate: ""},
	}}

	res := newTestAggregator(src, hist).RefreshResult(context.Background())

	if res.Origin != OriginFallback {
		t.Fatalf("expected fallback origin, got %s", res.Origin)
	}
	want := Index{
		"2025-09-01": {
			{ID: "111-2", MicrochipNumber: "111", AnimalName: "Bella", Date: "2025-09-01", Time: "08:30", Status: "scheduled", NextVisitDate: "2025-09-01T08:30:00"},
			{ID: "111-0", MicrochipNumber: "111", AnimalName: "Bella", Date: "2025-09-01", Time: "", Status: "scheduled", NextVisitDate: "2025-09-01"},
		},
	}
	if diff := cmp.Diff(want, res.Index); diff != "" {
		t.Fatalf("index mismatch (-want +got):\n%s", diff)
	}
}

func TestRefreshFallsBackWhenSourceHasNothingUsable(t *testing.T) {
	tests := []struct {
		name string
		raws []Raw
	}{
		{"empty", nil},
		{"only undated", []Raw{APIRecord{ID: "x"}, APIRecord{ID: "y", Time: "10:00"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hist := &stubHistory{entries: []VisitEntry{
				{MicrochipNumber: "1", AnimalName: "Momo", NextVisitDate: "2025-09-03"},
			}}
			res := newTestAggregator(&stubSource{raws: tt.raws}, hist).RefreshResult(context.Background())
			if res.Origin != OriginFallback {
				t.Fatalf("expected fallback origin, got %s", res.Origin)
			}
			if hist.calls != 1 {
				t.Fatalf("expected history to be read once, got %d", hist.calls)
			}
			if got := res.Index.Day("2025-09-03"); len(got) != 1 || got[0].ID != "1-0" {
				t.Fatalf("unexpected fallback day: %+v", got)
			}
		})
	}
}

func TestRefreshNeverFails(t *testing.T) {
	tests := []struct {
		name string
		src  Source
		hist VisitHistory
	}{
		{"both fail", &stubSource{err: errors.New("down")}, &stubHistory{err: errors.New("db down")}},
		{"no source no history", nil, nil},
		{"source fails without history", &stubSource{err: errors.New("down")}, nil},
		{"history empty", &stubSource{}, &stubHistory{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := newTestAggregator(tt.src, tt.hist).RefreshResult(context.Background())
			if res.Index == nil {
				t.Fatalf("index must never be nil")
			}
			if res.Index.Count() != 0 {
				t.Fatalf("expected empty index, got %d entries", res.Index.Count())
			}
			if res.Origin != OriginEmpty {
				t.Fatalf("expected empty origin, got %s", res.Origin)
			}
		})
	}
}

func TestRefreshIsIdempotent(t *testing.T) {
	src := &stubSource{raws: []Raw{
		APIRecord{ID: "3", AnimalName: "Hana", Date: "2025-08-31", Time: "09:00"},
		APIRecord{ID: "1", AnimalName: "Ami", Date: "2025-08-31", Time: "09:00"},
		APIRecord{ID: "2", AnimalName: "Ami", Date: "2025-08-31", Time: ""},
		APIRecord{ID: "4", AnimalName: "Kuro", Date: "2025-09-02 14:15"},
	}}
	agg := newTestAggregator(src, nil)

	first := agg.Refresh(context.Background())
	second := agg.Refresh(context.Background())
	if diff := cmp.Diff(first, second); diff != "" {
		t.Fatalf("refresh is not idempotent (-first +second):\n%s", diff)
	}
}

func TestRefreshBucketInvariants(t *testing.T) {
	src := &stubSource{raws: []Raw{
		APIRecord{ID: "1", AnimalName: "Ume", Date: "2025-08-31", Time: ""},
		APIRecord{ID: "2", AnimalName: "Sora", Date: "2025-08-31T16:00"},
		APIRecord{ID: "3", AnimalName: "Riku", Date: "2025-08-31", Time: "08:00"},
		VisitEntry{MicrochipNumber: "9", AnimalName: "Aoi", NextVisitDate: "2025-09-05"},
	}}
	ix := newTestAggregator(src, nil).Refresh(context.Background())

	for date, bucket := range ix {
		seenUntimed := false
		prev := -1
		for _, a := range bucket {
			if a.Date != date {
				t.Fatalf("appointment %s filed under %s", a.Date, date)
			}
			if a.Time == "" {
				seenUntimed = true
				continue
			}
			if seenUntimed {
				t.Fatalf("timed appointment %s after an untimed one on %s", a.ID, date)
			}
			m, ok := Minutes(a.Time)
			if !ok || m < prev {
				t.Fatalf("bucket %s not in time order", date)
			}
			prev = m
		}
	}
}

func TestRefreshStrictDates(t *testing.T) {
	src := &stubSource{raws: []Raw{
		APIRecord{ID: "bad", Date: "2025-02-30", Time: "10:00"},
		APIRecord{ID: "good", Date: "2025-03-01", Time: "10:00"},
	}}

	loose := newTestAggregator(src, nil).RefreshResult(context.Background())
	if loose.Index.Count() != 2 || loose.Dropped != 0 {
		t.Fatalf("expected pass-through of impossible dates, got count=%d dropped=%d", loose.Index.Count(), loose.Dropped)
	}

	strict := newTestAggregator(src, nil, WithStrictDates(true)).RefreshResult(context.Background())
	if strict.Index.Count() != 1 || strict.Dropped != 1 {
		t.Fatalf("expected strict mode to drop one, got count=%d dropped=%d", strict.Index.Count(), strict.Dropped)
	}
	if len(strict.Index.Day("2025-02-30")) != 0 {
		t.Fatalf("impossible date kept in strict mode")
	}
}

func TestRefreshCancelledSkipsFallback(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	hist := &stubHistory{entries: []VisitEntry{{MicrochipNumber: "1", NextVisitDate: "2025-09-01"}}}

	res := newTestAggregator(&stubSource{err: context.Canceled}, hist).RefreshResult(ctx)
	if res.Origin != OriginEmpty || res.Index.Count() != 0 {
		t.Fatalf("expected empty result on cancellation, got %+v", res)
	}
	if hist.calls != 0 {
		t.Fatalf("fallback should not run after cancellation")
	}
}

func TestRefreshRecordsMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.NewAppointmentMetrics(reg)
	src := &stubSource{raws: []Raw{
		APIRecord{ID: "1", Date: "2025-09-01"},
		APIRecord{ID: "2"},
	}}

	agg := newTestAggregator(src, nil, WithMetrics(m))
	agg.Refresh(context.Background())
	agg.Refresh(context.Background())

	snap := metrics.SnapshotRefreshes(reg)
	if snap.ByOrigin["remote"] != 2 {
		t.Fatalf("expected 2 remote refreshes, got %v", snap.ByOrigin)
	}
	if snap.Dropped != 2 {
		t.Fatalf("expected 2 dropped, got %v", snap.Dropped)
	}
	got, err := testutil.GatherAndCount(reg, "vetchart_appointments_refresh_seconds")
	if err != nil || got != 1 {
		t.Fatalf("expected refresh duration histogram, got %d series", got)
	}
}
