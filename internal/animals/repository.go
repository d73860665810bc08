package animals

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"
)

// Repository defines the interface for animal storage
type Repository interface {
	Create(ctx context.Context, req *CreateAnimalRequest) (*Animal, error)
	Get(ctx context.Context, id string) (*Animal, error)
	List(ctx context.Context, filter Filter) ([]*Animal, error)
	Farms(ctx context.Context) ([]string, error)
}

// InMemoryRepository keeps animals in a map. Used for local development and tests.
type InMemoryRepository struct {
	mu      sync.RWMutex
	animals map[string]*Animal
}

// NewInMemoryRepository creates a new in-memory repository
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{
		animals: make(map[string]*Animal),
	}
}

func (r *InMemoryRepository) Create(ctx context.Context, req *CreateAnimalRequest) (*Animal, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.animals[req.MicrochipNumber]; ok {
		return nil, ErrAlreadyExists
	}
	animal := req.toAnimal(time.Now().UTC())
	r.animals[animal.ID] = animal
	copied := *animal
	return &copied, nil
}

func (r *InMemoryRepository) Get(ctx context.Context, id string) (*Animal, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	animal, ok := r.animals[id]
	if !ok {
		return nil, ErrNotFound
	}
	copied := *animal
	return &copied, nil
}

// List returns matching animals ordered by name, then microchip number.
func (r *InMemoryRepository) List(ctx context.Context, filter Filter) ([]*Animal, error) {
	r.mu.RLock()
	out := make([]*Animal, 0, len(r.animals))
	for _, a := range r.animals {
		if filter.Match(a) {
			copied := *a
			out = append(out, &copied)
		}
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// Farms returns the distinct trimmed farm ids in ascending order.
func (r *InMemoryRepository) Farms(ctx context.Context) ([]string, error) {
	r.mu.RLock()
	seen := map[string]struct{}{}
	for _, a := range r.animals {
		if farm := strings.TrimSpace(a.FarmID); farm != "" {
			seen[farm] = struct{}{}
		}
	}
	r.mu.RUnlock()

	farms := make([]string, 0, len(seen))
	for f := range seen {
		farms = append(farms, f)
	}
	sort.Strings(farms)
	return farms, nil
}
