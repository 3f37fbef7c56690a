package model

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidCoordinate      = errors.New("invalid coordinate")
	ErrDuplicateRejected      = errors.New("duplicate marker rejected")
	ErrEmptyName              = errors.New("project name must not be empty")
	ErrProtectedProject       = errors.New("default project cannot be deleted")
	ErrProjectNotFound        = errors.New("project not found")
	ErrMissingRequiredColumns = errors.New("csv must contain latitude and longitude columns")
	ErrInvalidField           = errors.New("invalid field")
	ErrInvalidGeometry        = errors.New("invalid geometry")
	ErrExternalOperation      = errors.New("external operation failed")
)

// DuplicateError reports the existing marker that blocked an add.
type DuplicateError struct {
	Existing       Marker
	DistanceMeters float64
}

func (e *DuplicateError) Error() string {
	return fmt.Sprintf("duplicate marker rejected: %.2fm from marker %s", e.DistanceMeters, e.Existing.ID)
}

func (e *DuplicateError) Unwrap() error { return ErrDuplicateRejected }

// Per-row import failure reasons.
const (
	ReasonMissingCoordinates = "missing coordinates"
	ReasonInvalidLatLng      = "invalid lat/lng"
	ReasonDuplicate          = "duplicate marker skipped"
)

// ImportRowError is collected during CSV import, never raised.
type ImportRowError struct {
	Row    int    `json:"row"`
	Reason string `json:"reason"`
}

func (e ImportRowError) Error() string {
	return fmt.Sprintf("Row %d: %s", e.Row, e.Reason)
}

// External marks a failure coming from a file read, snapshot or render
// collaborator.
func External(op string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w: %w", op, ErrExternalOperation, err)
}
