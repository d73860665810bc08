package appointments

import (
	"context"
	"fmt"

	"github.com/robfig/cron/v3"

	"github.com/wolfman30/vetchart/pkg/logging"
)

// Refresher keeps a Holder current: once at start, on a cron schedule, and
// after every scheduling mutation through Sync or Trigger.
type Refresher struct {
	agg      *Aggregator
	holder   *Holder
	logger   *logging.Logger
	schedule string
	trigger  chan struct{}
}

// NewRefresher creates a refresher. An empty schedule disables periodic runs.
func NewRefresher(agg *Aggregator, holder *Holder, schedule string, logger *logging.Logger) *Refresher {
	if logger == nil {
		logger = logging.Default()
	}
	if holder == nil {
		holder = NewHolder()
	}
	return &Refresher{
		agg:      agg,
		holder:   holder,
		logger:   logger,
		schedule: schedule,
		trigger:  make(chan struct{}, 1),
	}
}

// Holder returns the holder the refresher commits into.
func (r *Refresher) Holder() *Holder {
	return r.holder
}

// RefreshNow runs one refresh and commits it. It returns the committed result,
// which is a newer one when this refresh lost the race. A refresh whose context
// ended early is not committed.
func (r *Refresher) RefreshNow(ctx context.Context) Result {
	ticket := r.holder.Begin()
	res := r.agg.RefreshResult(ctx)
	if ctx != nil && ctx.Err() != nil {
		r.logger.Debug("appointments: refresh cancelled, keeping previous index", "ticket", ticket)
		return r.holder.Current()
	}
	if !r.holder.Commit(ticket, res) {
		r.logger.Debug("appointments: discarded stale refresh", "ticket", ticket)
	}
	return r.holder.Current()
}

// Sync rebuilds the index before a mutating request responds, so the next
// read sees the change. When ctx ends first the refresh is handed to the
// running loop instead.
func (r *Refresher) Sync(ctx context.Context) {
	if r == nil {
		return
	}
	r.RefreshNow(ctx)
	if ctx.Err() != nil {
		r.Trigger()
	}
}

// Trigger requests a refresh from the running loop without blocking. Calls
// made while a request is already pending collapse into it.
func (r *Refresher) Trigger() {
	if r == nil {
		return
	}
	select {
	case r.trigger <- struct{}{}:
	default:
	}
}

// Start refreshes once, then keeps refreshing until ctx is done.
func (r *Refresher) Start(ctx context.Context) error {
	if r == nil || r.agg == nil {
		return fmt.Errorf("appointments: refresher not initialized")
	}
	if r.schedule != "" {
		c := cron.New()
		if _, err := c.AddFunc(r.schedule, r.Trigger); err != nil {
			return fmt.Errorf("appointments: invalid refresh schedule %q: %w", r.schedule, err)
		}
		c.Start()
		defer func() { <-c.Stop().Done() }()
	}

	r.RefreshNow(ctx)

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-r.trigger:
			r.RefreshNow(ctx)
		}
	}
}
