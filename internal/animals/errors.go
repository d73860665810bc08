package animals

import "errors"

var (
	// ErrMissingMicrochip is returned when the microchip number is empty
	ErrMissingMicrochip = errors.New("microchip_number is required")

	// ErrInvalidName is returned when the name is empty
	ErrInvalidName = errors.New("name is required")

	// ErrInvalidAge is returned for negative ages
	ErrInvalidAge = errors.New("age must not be negative")

	// ErrNotFound is returned when no animal has the requested microchip number
	ErrNotFound = errors.New("animal not found")

	// ErrAlreadyExists is returned when the microchip number is already registered
	ErrAlreadyExists = errors.New("animal already exists")
)
