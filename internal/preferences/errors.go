package preferences

import "errors"

var (
	ErrEmptyFarm  = errors.New("preferences: farm name is required")
	ErrNoStore    = errors.New("preferences: store is required")
	ErrNoLocation = errors.New("preferences: file path is required")
)
