package appointments

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// Raw is one untrusted appointment-bearing input. The concrete shapes are
// APIRecord and VisitEntry; Normalize handles each variant separately.
type Raw interface {
	isRaw()
}

// APIRecord is the shape returned by the appointments API: a date that may
// carry an embedded time plus a separate, possibly polluted, time field.
type APIRecord struct {
	ID              string `json:"id"`
	MicrochipNumber string `json:"microchip_number"`
	AnimalName      string `json:"animal_name"`
	FarmID          string `json:"farm_id"`
	Date            string `json:"date"`
	Time            string `json:"time"`
	Summary         string `json:"summary"`
	Doctor          string `json:"doctor"`
	Status          string `json:"status"`
	NextVisitDate   string `json:"next_visit_date"`
}

// VisitEntry is a next-visit entry taken from one animal's visit history.
// Position is the entry's index within that animal's history and feeds the
// synthesized appointment id.
type VisitEntry struct {
	MicrochipNumber string `json:"microchip_number"`
	AnimalName      string `json:"animal_name"`
	FarmID          string `json:"farm_id"`
	Position        int    `json:"position"`
	NextVisitDate   string `json:"next_visit_date"`
	NextVisitTime   string `json:"next_visit_time"`
	Summary         string `json:"summary"`
	Doctor          string `json:"doctor"`
}

func (APIRecord) isRaw()  {}
func (VisitEntry) isRaw() {}

// ID returns the deterministic identifier of the entry.
func (v VisitEntry) ID() string {
	return v.MicrochipNumber + "-" + strconv.Itoa(v.Position)
}

// DecodeRaw picks the input variant from the keys present in data. Objects
// carrying "date" are API records; objects carrying only "next_visit_date" are
// visit entries.
func DecodeRaw(data json.RawMessage) (Raw, error) {
	var probe map[string]json.RawMessage
	if err := json.Unmarshal(data, &probe); err != nil {
		return nil, fmt.Errorf("appointments: decode raw: %w", err)
	}
	_, hasDate := probe["date"]
	_, hasNext := probe["next_visit_date"]
	if !hasDate && hasNext {
		var v VisitEntry
		if err := json.Unmarshal(data, &v); err != nil {
			return nil, fmt.Errorf("appointments: decode visit entry: %w", err)
		}
		return v, nil
	}
	var rec APIRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("appointments: decode api record: %w", err)
	}
	return rec, nil
}

// DecodeRawList decodes a JSON array of raw records. Elements that fail to
// decode are skipped and counted.
func DecodeRawList(data []byte) ([]Raw, int, error) {
	var items []json.RawMessage
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, 0, fmt.Errorf("appointments: decode list: %w", err)
	}
	out := make([]Raw, 0, len(items))
	skipped := 0
	for _, item := range items {
		r, err := DecodeRaw(item)
		if err != nil {
			skipped++
			continue
		}
		out = append(out, r)
	}
	return out, skipped, nil
}
