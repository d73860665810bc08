package animals

import (
	"strings"
	"time"
)

// Animal is one registered animal. ID is the microchip number.
type Animal struct {
	ID              string    `json:"id"`
	MicrochipNumber string    `json:"microchip_number"`
	Name            string    `json:"name"`
	FarmID          string    `json:"farm_id,omitempty"`
	Age             *int      `json:"age,omitempty"`
	Sex             string    `json:"sex,omitempty"`
	Breed           string    `json:"breed,omitempty"`
	ThumbnailURL    string    `json:"thumbnailUrl,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
}

// CreateAnimalRequest is the body for registering an animal.
type CreateAnimalRequest struct {
	MicrochipNumber string `json:"microchip_number"`
	Name            string `json:"name"`
	FarmID          string `json:"farm_id"`
	Owner           string `json:"owner"`
	Age             *int   `json:"age"`
	Sex             string `json:"sex"`
	Breed           string `json:"breed"`
	ThumbnailURL    string `json:"thumbnailUrl"`
}

// Validate trims the request and checks required fields. Owner is the legacy
// name for the farm and fills FarmID when FarmID is empty.
func (r *CreateAnimalRequest) Validate() error {
	r.MicrochipNumber = strings.TrimSpace(r.MicrochipNumber)
	r.Name = strings.TrimSpace(r.Name)
	r.FarmID = strings.TrimSpace(r.FarmID)
	if r.FarmID == "" {
		r.FarmID = strings.TrimSpace(r.Owner)
	}
	if r.MicrochipNumber == "" {
		return ErrMissingMicrochip
	}
	if r.Name == "" {
		return ErrInvalidName
	}
	if r.Age != nil && *r.Age < 0 {
		return ErrInvalidAge
	}
	return nil
}

func (r *CreateAnimalRequest) toAnimal(createdAt time.Time) *Animal {
	return &Animal{
		ID:              r.MicrochipNumber,
		MicrochipNumber: r.MicrochipNumber,
		Name:            r.Name,
		FarmID:          r.FarmID,
		Age:             r.Age,
		Sex:             r.Sex,
		Breed:           r.Breed,
		ThumbnailURL:    r.ThumbnailURL,
		CreatedAt:       createdAt,
	}
}

// Filter narrows animal listings. Query matches the microchip number, name or
// farm case-insensitively. FarmID, Breed and Sex only exclude animals that
// have a value for that field.
type Filter struct {
	Query           string
	MicrochipNumber string
	FarmID          string
	Breed           string
	Sex             string
}

// Match reports whether a passes the filter.
func (f Filter) Match(a *Animal) bool {
	if q := strings.ToLower(strings.TrimSpace(f.Query)); q != "" {
		if !strings.Contains(strings.ToLower(a.ID), q) &&
			!strings.Contains(strings.ToLower(a.Name), q) &&
			!strings.Contains(strings.ToLower(a.FarmID), q) {
			return false
		}
	}
	if f.MicrochipNumber != "" && a.ID != f.MicrochipNumber {
		return false
	}
	if f.FarmID != "" && a.FarmID != "" && !strings.Contains(a.FarmID, f.FarmID) {
		return false
	}
	if f.Breed != "" && a.Breed != "" && a.Breed != f.Breed {
		return false
	}
	if f.Sex != "" && a.Sex != "" && a.Sex != f.Sex {
		return false
	}
	return true
}
