package data

import "errors"

var (
	// ErrDuplicate is returned when an insert collides with an
	// existing proposal id.
	ErrDuplicate = errors.New("campaign with this proposalId already exists in queue")

	// ErrNotFound is returned when a campaign does not exist in the
	// collection a caller addressed.
	ErrNotFound = errors.New("campaign not found")
)
