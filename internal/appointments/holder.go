package appointments

import "sync"

// Holder keeps the most recent refresh result. Refreshes take a ticket before
// they start; a result whose ticket is older than the one already committed is
// stale and gets discarded.
type Holder struct {
	mu        sync.RWMutex
	issued    uint64
	committed uint64
	current   Result
}

func NewHolder() *Holder {
	return &Holder{current: Result{Index: Index{}, Origin: OriginEmpty}}
}

// Begin issues a ticket for a refresh that is about to start.
func (h *Holder) Begin() uint64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.issued++
	return h.issued
}

// Commit stores res unless a newer refresh has already been committed.
func (h *Holder) Commit(ticket uint64, res Result) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if ticket < h.committed {
		return false
	}
	if res.Index == nil {
		res.Index = Index{}
	}
	h.committed = ticket
	h.current = res
	return true
}

// Current returns the latest committed result.
func (h *Holder) Current() Result {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.current
}
