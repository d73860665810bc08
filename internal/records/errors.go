package records

import "errors"

var (
	// ErrMissingAnimal is returned when a record has no animal id
	ErrMissingAnimal = errors.New("animalId is required")

	// ErrNotFound is returned when a record does not exist
	ErrNotFound = errors.New("record not found")

	// ErrInvalidNosaiPoints is returned for negative NOSAI points
	ErrInvalidNosaiPoints = errors.New("nosai_points must not be negative")

	// ErrInvalidMedication is returned when a medication entry has no name
	ErrInvalidMedication = errors.New("medication name is required")
)
