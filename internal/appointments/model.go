package appointments

import "sort"

// Appointment is a normalized appointment. Date is always the YYYY-MM-DD part of the
// source timestamp; Time is either HH:MM or empty when the time is unspecified.
type Appointment struct {
	ID              string `json:"id"`
	MicrochipNumber string `json:"microchip_number"`
	AnimalName      string `json:"animal_name,omitempty"`
	FarmID          string `json:"farm_id,omitempty"`
	Date            string `json:"date"`
	Time            string `json:"time"`
	Summary         string `json:"summary,omitempty"`
	Doctor          string `json:"doctor,omitempty"`
	Status          string `json:"status,omitempty"`
	NextVisitDate   string `json:"next_visit_date,omitempty"`
}

// Index maps a calendar date to the appointments on that date in day order.
// An Index handed out by the Aggregator is shared between readers and must not be
// modified in place.
type Index map[string][]Appointment

// Day returns the appointments for date, or nil.
func (ix Index) Day(date string) []Appointment {
	return ix[date]
}

// Count returns the total number of appointments across all dates.
func (ix Index) Count() int {
	n := 0
	for _, apps := range ix {
		n += len(apps)
	}
	return n
}

// Dates returns the index keys in ascending order.
func (ix Index) Dates() []string {
	dates := make([]string, 0, len(ix))
	for d := range ix {
		dates = append(dates, d)
	}
	sort.Strings(dates)
	return dates
}

// Flatten returns every appointment as one chronological feed.
func (ix Index) Flatten() []Appointment {
	out := make([]Appointment, 0, ix.Count())
	for _, d := range ix.Dates() {
		out = append(out, ix[d]...)
	}
	return out
}

// BookedTimes returns the set of non-empty times already taken on date.
func (ix Index) BookedTimes(date string) map[string]bool {
	booked := make(map[string]bool)
	for _, a := range ix[date] {
		if a.Time != "" {
			booked[a.Time] = true
		}
	}
	return booked
}

// Origin records which path produced an index.
type Origin string

const (
	OriginRemote   Origin = "remote"
	OriginFallback Origin = "fallback"
	// OriginEmpty means both the remote source and the fallback produced nothing.
	OriginEmpty Origin = "empty"
)

const statusScheduled = "scheduled"
