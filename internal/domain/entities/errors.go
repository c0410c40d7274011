package entities

import "errors"

// Domain errors
var (
	// Shot type / angle errors
	ErrInvalidShotType = errors.New("invalid shot type")
	ErrInvalidAngle    = errors.New("invalid video angle")

	// Checklist errors
	ErrInvalidRating    = errors.New("invalid rating")
	ErrInvalidChecklist = errors.New("invalid checklist")

	// Weight profile errors
	ErrInvalidWeightProfile = errors.New("invalid weight profile")

	// Analysis errors
	ErrInvalidTransition = errors.New("invalid status transition")
)
