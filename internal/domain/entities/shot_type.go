package entities

import (
	"fmt"
	"strings"
)

// ShotType selects the weight profile applied to an analysis
type ShotType string

const (
	ShotTypeGeneral ShotType = "general" // Fallback profile
	ShotTypeLibre   ShotType = "libre"   // Free throw
	ShotTypeMedia   ShotType = "media"   // Mid-range / jump shot
	ShotTypeTres    ShotType = "tres"    // Three-pointer
)

// ShotTypes lists every supported shot type in a stable order
var ShotTypes = []ShotType{ShotTypeGeneral, ShotTypeLibre, ShotTypeMedia, ShotTypeTres}

// ResolveShotType maps a free-form shot label to a profile key.
// Unknown labels resolve to general.
func ResolveShotType(label string) ShotType {
	s := strings.ToLower(strings.TrimSpace(label))
	switch {
	case strings.Contains(s, "tres"):
		return ShotTypeTres
	case strings.Contains(s, "media"), strings.Contains(s, "jump"):
		return ShotTypeMedia
	case strings.Contains(s, "libre"):
		return ShotTypeLibre
	default:
		return ShotTypeGeneral
	}
}

// ParseShotType accepts only exact profile keys
func ParseShotType(s string) (ShotType, error) {
	st := ShotType(strings.ToLower(strings.TrimSpace(s)))
	if !st.IsValid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidShotType, s)
	}
	return st, nil
}

// IsValid reports whether the shot type is one of the profile keys
func (s ShotType) IsValid() bool {
	switch s {
	case ShotTypeGeneral, ShotTypeLibre, ShotTypeMedia, ShotTypeTres:
		return true
	}
	return false
}

func (s ShotType) String() string {
	return string(s)
}
