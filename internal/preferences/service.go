package preferences

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/wolfman30/vetchart/pkg/logging"
)

// Service owns the clinic preferences for the life of the process. They are
// loaded once when the service is created; every mutation is written through
// to the store before it becomes visible.
type Service struct {
	mu     sync.RWMutex
	store  Store
	prefs  Preferences
	logger *logging.Logger
	now    func() time.Time
}

// NewService loads the stored preferences.
func NewService(ctx context.Context, store Store, logger *logging.Logger) (*Service, error) {
	if store == nil {
		return nil, ErrNoStore
	}
	if logger == nil {
		logger = logging.Default()
	}
	p, err := store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("preferences: load: %w", err)
	}
	p.Normalize()
	logger.Info("preferences loaded", "custom_farms", len(p.CustomFarms), "selected_doctor", p.SelectedDoctor != "")
	return &Service{store: store, prefs: p, logger: logger, now: time.Now}, nil
}

// Get returns a copy of the current preferences.
func (s *Service) Get() Preferences {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.prefs.clone()
}

// AddFarm adds a custom farm. Adding a farm that is already listed is a no-op.
func (s *Service) AddFarm(ctx context.Context, name string) (Preferences, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Preferences{}, ErrEmptyFarm
	}
	return s.update(ctx, func(p *Preferences) bool {
		if slices.Contains(p.CustomFarms, name) {
			return false
		}
		p.CustomFarms = append(p.CustomFarms, name)
		return true
	})
}

// RemoveFarm removes a custom farm. Farms that come from registered animals
// are not affected.
func (s *Service) RemoveFarm(ctx context.Context, name string) (Preferences, error) {
	name = strings.TrimSpace(name)
	return s.update(ctx, func(p *Preferences) bool {
		i := slices.Index(p.CustomFarms, name)
		if i < 0 {
			return false
		}
		p.CustomFarms = slices.Delete(p.CustomFarms, i, i+1)
		return true
	})
}

// SetDoctor changes the preselected doctor. An empty name clears it.
func (s *Service) SetDoctor(ctx context.Context, doctor string) (Preferences, error) {
	doctor = strings.TrimSpace(doctor)
	return s.update(ctx, func(p *Preferences) bool {
		if p.SelectedDoctor == doctor {
			return false
		}
		p.SelectedDoctor = doctor
		return true
	})
}

// Replace overwrites every preference.
func (s *Service) Replace(ctx context.Context, next Preferences) (Preferences, error) {
	return s.update(ctx, func(p *Preferences) bool {
		p.CustomFarms = next.CustomFarms
		p.SelectedDoctor = next.SelectedDoctor
		return true
	})
}

// Farms merges the farms of registered animals with the custom farms.
func (s *Service) Farms(animalFarms []string) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return normalizeFarms(animalFarms, s.prefs.CustomFarms)
}

// update applies fn to a copy and saves it. The in-memory state only changes
// when the save succeeds.
func (s *Service) update(ctx context.Context, fn func(p *Preferences) bool) (Preferences, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.prefs.clone()
	if !fn(&next) {
		return s.prefs.clone(), nil
	}
	next.Normalize()
	next.UpdatedAt = s.now().UTC()
	if err := s.store.Save(ctx, next); err != nil {
		s.logger.Error("failed to save preferences", "error", err)
		return Preferences{}, fmt.Errorf("preferences: save: %w", err)
	}
	s.prefs = next
	return next.clone(), nil
}
