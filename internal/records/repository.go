package records

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Repository defines the interface for record storage
type Repository interface {
	Create(ctx context.Context, rec *Record) (*Record, error)
	Get(ctx context.Context, id string) (*Record, error)
	Update(ctx context.Context, rec *Record) (*Record, error)
	Delete(ctx context.Context, id string) error
	// ListByAnimal returns an animal's records oldest first.
	ListByAnimal(ctx context.Context, animalID string) ([]*Record, error)
	// ListAll returns every record grouped by animal, oldest first within each animal.
	ListAll(ctx context.Context) ([]*Record, error)
}

func newRecordID() string {
	return uuid.New().String()
}

// InMemoryRepository keeps records in memory in insertion order.
type InMemoryRepository struct {
	mu      sync.RWMutex
	seq     int
	records map[string]*memRecord
}

type memRecord struct {
	seq int
	rec Record
}

// NewInMemoryRepository creates a new in-memory repository
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{records: make(map[string]*memRecord)}
}

func (r *InMemoryRepository) Create(ctx context.Context, rec *Record) (*Record, error) {
	now := time.Now().UTC()
	if err := rec.Validate(now); err != nil {
		return nil, err
	}
	stored := *rec
	if stored.ID == "" {
		stored.ID = newRecordID()
	}
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = now
	}

	r.mu.Lock()
	r.seq++
	r.records[stored.ID] = &memRecord{seq: r.seq, rec: stored}
	r.mu.Unlock()

	out := stored
	return &out, nil
}

func (r *InMemoryRepository) Get(ctx context.Context, id string) (*Record, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	m, ok := r.records[id]
	if !ok {
		return nil, ErrNotFound
	}
	out := m.rec
	return &out, nil
}

func (r *InMemoryRepository) Update(ctx context.Context, rec *Record) (*Record, error) {
	if err := rec.Validate(time.Now().UTC()); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.records[rec.ID]
	if !ok {
		return nil, ErrNotFound
	}
	updated := *rec
	updated.CreatedAt = m.rec.CreatedAt
	m.rec = updated
	return &updated, nil
}

func (r *InMemoryRepository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.records[id]; !ok {
		return ErrNotFound
	}
	delete(r.records, id)
	return nil
}

func (r *InMemoryRepository) ListByAnimal(ctx context.Context, animalID string) ([]*Record, error) {
	return r.list(func(rec *Record) bool { return rec.AnimalID == animalID }), nil
}

func (r *InMemoryRepository) ListAll(ctx context.Context) ([]*Record, error) {
	return r.list(func(*Record) bool { return true }), nil
}

func (r *InMemoryRepository) list(keep func(*Record) bool) []*Record {
	r.mu.RLock()
	matched := make([]memRecord, 0, len(r.records))
	for _, m := range r.records {
		if keep(&m.rec) {
			matched = append(matched, *m)
		}
	}
	r.mu.RUnlock()

	sort.Slice(matched, func(i, j int) bool {
		if matched[i].rec.AnimalID != matched[j].rec.AnimalID {
			return matched[i].rec.AnimalID < matched[j].rec.AnimalID
		}
		return matched[i].seq < matched[j].seq
	})
	out := make([]*Record, 0, len(matched))
	for i := range matched {
		out = append(out, &matched[i].rec)
	}
	return out
}
