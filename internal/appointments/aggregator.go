package appointments

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/wolfman30/vetchart/internal/observability/metrics"
	"github.com/wolfman30/vetchart/pkg/logging"
)

var tracer = otel.Tracer("vetchart.internal.appointments")

// Source is the primary appointments feed.
type Source interface {
	Fetch(ctx context.Context) ([]Raw, error)
}

// VisitHistory provides per-animal visit entries for fallback reconstruction.
type VisitHistory interface {
	VisitEntries(ctx context.Context) ([]VisitEntry, error)
}

// Result is one refresh outcome. Index is never nil.
type Result struct {
	Index       Index     `json:"appointments"`
	Origin      Origin    `json:"source"`
	Dropped     int       `json:"dropped"`
	GeneratedAt time.Time `json:"generated_at"`
}

// Aggregator builds the appointment index from the primary source, falling
// back to visit history when the source fails or yields nothing usable.
type Aggregator struct {
	source  Source
	history VisitHistory
	logger  *logging.Logger
	metrics *metrics.AppointmentMetrics
	strict  bool
	now     func() time.Time
}

// Option configures an Aggregator.
type Option func(*Aggregator)

// WithMetrics records refresh counters.
func WithMetrics(m *metrics.AppointmentMetrics) Option {
	return func(a *Aggregator) { a.metrics = m }
}

// WithStrictDates drops records whose date is not a real calendar day.
func WithStrictDates(strict bool) Option {
	return func(a *Aggregator) { a.strict = strict }
}

// WithClock overrides the time source used for GeneratedAt.
func WithClock(now func() time.Time) Option {
	return func(a *Aggregator) {
		if now != nil {
			a.now = now
		}
	}
}

// NewAggregator wires an aggregator. A nil source goes straight to the
// visit-history path.
func NewAggregator(source Source, history VisitHistory, logger *logging.Logger, opts ...Option) *Aggregator {
	if logger == nil {
		logger = logging.Default()
	}
	a := &Aggregator{
		source:  source,
		history: history,
		logger:  logger,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Refresh returns a freshly built index. It never fails; source errors are
// logged and handled by the fallback path.
func (a *Aggregator) Refresh(ctx context.Context) Index {
	return a.RefreshResult(ctx).Index
}

// RefreshResult is Refresh plus the path that produced the index.
func (a *Aggregator) RefreshResult(ctx context.Context) Result {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, span := tracer.Start(ctx, "appointments.Refresh")
	defer span.End()

	start := time.Now()
	res := a.build(ctx, span)
	res.GeneratedAt = a.now()

	span.SetAttributes(
		attribute.String("appointments.origin", string(res.Origin)),
		attribute.Int("appointments.count", res.Index.Count()),
		attribute.Int("appointments.dropped", res.Dropped),
	)
	a.metrics.ObserveRefresh(string(res.Origin), res.Dropped, time.Since(start).Seconds())
	return res
}

func (a *Aggregator) build(ctx context.Context, span trace.Span) Result {
	if a.source != nil {
		raws, err := a.source.Fetch(ctx)
		if err != nil {
			span.RecordError(err)
			a.logger.Warn("appointments: source fetch failed, rebuilding from visit history", "error", err)
		} else {
			apps, dropped := a.normalizeAll(raws)
			if len(apps) > 0 {
				return Result{Index: Group(apps), Origin: OriginRemote, Dropped: dropped}
			}
			a.logger.Info("appointments: source returned no usable records, rebuilding from visit history",
				"raw_count", len(raws),
				"dropped", dropped,
			)
		}
	}
	if err := ctx.Err(); err != nil {
		a.logger.Warn("appointments: refresh cancelled", "error", err)
		return Result{Index: Index{}, Origin: OriginEmpty}
	}
	return a.fallback(ctx, span)
}

func (a *Aggregator) fallback(ctx context.Context, span trace.Span) Result {
	if a.history == nil {
		return Result{Index: Index{}, Origin: OriginEmpty}
	}
	entries, err := a.history.VisitEntries(ctx)
	if err != nil {
		span.RecordError(err)
		a.logger.Error("appointments: visit history unavailable", "error", err)
		return Result{Index: Index{}, Origin: OriginEmpty}
	}

	raws := make([]Raw, 0, len(entries))
	for _, e := range entries {
		if e.NextVisitDate == "" {
			continue
		}
		raws = append(raws, e)
	}
	apps, dropped := a.normalizeAll(raws)
	a.logger.Info("appointments: rebuilt from visit history", "count", len(apps), "dropped", dropped)
	if len(apps) == 0 {
		return Result{Index: Index{}, Origin: OriginEmpty, Dropped: dropped}
	}
	return Result{Index: Group(apps), Origin: OriginFallback, Dropped: dropped}
}

func (a *Aggregator) normalizeAll(raws []Raw) ([]Appointment, int) {
	apps := make([]Appointment, 0, len(raws))
	dropped := 0
	for _, r := range raws {
		app, ok := Normalize(r)
		if !ok || (a.strict && !ValidDate(app.Date)) {
			dropped++
			continue
		}
		apps = append(apps, app)
	}
	return apps, dropped
}
