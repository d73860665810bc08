package appointments

import (
	"context"
	"fmt"

	"github.com/wolfman30/vetchart/internal/animals"
	"github.com/wolfman30/vetchart/internal/records"
)

// AnimalDirectory lists registered animals.
type AnimalDirectory interface {
	List(ctx context.Context, filter animals.Filter) ([]*animals.Animal, error)
}

// RecordStore lists clinical records grouped by animal, oldest first.
type RecordStore interface {
	ListAll(ctx context.Context) ([]*records.Record, error)
}

// RecordsHistory exposes stored clinical records as visit history.
type RecordsHistory struct {
	animals AnimalDirectory
	records RecordStore
}

func NewRecordsHistory(dir AnimalDirectory, store RecordStore) *RecordsHistory {
	return &RecordsHistory{animals: dir, records: store}
}

// VisitEntries returns one entry per record that schedules a next visit.
// Position counts every record of the animal, scheduled or not.
func (h *RecordsHistory) VisitEntries(ctx context.Context) ([]VisitEntry, error) {
	byID, all, err := h.load(ctx)
	if err != nil {
		return nil, err
	}

	var entries []VisitEntry
	positions := map[string]int{}
	for _, rec := range all {
		pos := positions[rec.AnimalID]
		positions[rec.AnimalID] = pos + 1
		if !rec.HasNextVisit() {
			continue
		}
		animal, ok := byID[rec.AnimalID]
		if !ok {
			continue
		}
		entries = append(entries, VisitEntry{
			MicrochipNumber: animal.ID,
			AnimalName:      animal.Name,
			FarmID:          animal.FarmID,
			Position:        pos,
			NextVisitDate:   rec.NextVisitDate,
			NextVisitTime:   rec.NextVisitTime,
			Summary:         rec.Soap.A,
			Doctor:          rec.Doctor,
		})
	}
	return entries, nil
}

func (h *RecordsHistory) load(ctx context.Context) (map[string]*animals.Animal, []*records.Record, error) {
	list, err := h.animals.List(ctx, animals.Filter{})
	if err != nil {
		return nil, nil, fmt.Errorf("appointments: list animals: %w", err)
	}
	byID := make(map[string]*animals.Animal, len(list))
	for _, a := range list {
		byID[a.ID] = a
	}
	all, err := h.records.ListAll(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("appointments: list records: %w", err)
	}
	return byID, all, nil
}

// LocalSource serves the clinic's own records in the appointments API shape,
// for deployments without a remote appointments service.
type LocalSource struct {
	history *RecordsHistory
}

func NewLocalSource(history *RecordsHistory) *LocalSource {
	return &LocalSource{history: history}
}

// Fetch returns one API record per scheduled clinical record. The id joins the
// microchip number and the record id.
func (s *LocalSource) Fetch(ctx context.Context) ([]Raw, error) {
	byID, all, err := s.history.load(ctx)
	if err != nil {
		return nil, err
	}
	var out []Raw
	for _, rec := range all {
		if !rec.HasNextVisit() {
			continue
		}
		animal, ok := byID[rec.AnimalID]
		if !ok {
			continue
		}
		out = append(out, APIRecord{
			ID:              animal.ID + "-" + rec.ID,
			MicrochipNumber: animal.ID,
			AnimalName:      animal.Name,
			FarmID:          animal.FarmID,
			Date:            rec.NextVisitDate,
			Time:            rec.NextVisitTime,
			Summary:         rec.Soap.A,
			Doctor:          rec.Doctor,
			Status:          statusScheduled,
			NextVisitDate:   rec.NextVisitDate,
		})
	}
	return out, nil
}
