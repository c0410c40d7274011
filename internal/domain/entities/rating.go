package entities

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

const (
	MinRating = 0
	MaxRating = 5
)

// Rating is either a score in [0,5] or explicitly not applicable.
// The zero value is Rated(0).
type Rating struct {
	value int
	na    bool
}

// Rated builds an applicable rating clamped to [0,5]
func Rated(v int) Rating {
	if v < MinRating {
		v = MinRating
	}
	if v > MaxRating {
		v = MaxRating
	}
	return Rating{value: v}
}

// NotApplicable builds an NA rating
func NotApplicable() Rating {
	return Rating{na: true}
}

// NormalizeRating coerces a raw numeric rating to the nearest integer in [0,5].
// adjusted is true when the stored value differs from raw.
func NormalizeRating(raw float64) (r Rating, adjusted bool, err error) {
	if math.IsNaN(raw) || math.IsInf(raw, 0) {
		return Rating{}, false, fmt.Errorf("%w: %v", ErrInvalidRating, raw)
	}
	rounded := math.Round(raw)
	r = Rated(int(math.Max(math.Min(rounded, MaxRating), MinRating)))
	return r, float64(r.value) != raw, nil
}

// IsNA reports whether the rating was explicitly flagged not applicable
func (r Rating) IsNA() bool {
	return r.na
}

// Value returns the numeric rating; ok is false for NA
func (r Rating) Value() (int, bool) {
	if r.na {
		return 0, false
	}
	return r.value, true
}

func (r Rating) String() string {
	if r.na {
		return "NA"
	}
	return strconv.Itoa(r.value)
}

// MarshalJSON encodes NA as the string "NA" and ratings as numbers
func (r Rating) MarshalJSON() ([]byte, error) {
	if r.na {
		return []byte(`"NA"`), nil
	}
	return []byte(strconv.Itoa(r.value)), nil
}

// UnmarshalJSON accepts a number or the string "NA"
func (r *Rating) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return fmt.Errorf("%w: missing value", ErrInvalidRating)
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidRating, err)
		}
		switch strings.ToUpper(strings.TrimSpace(s)) {
		case "NA", "N/A":
			*r = NotApplicable()
			return nil
		}
		return fmt.Errorf("%w: %q", ErrInvalidRating, s)
	}
	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidRating, err)
	}
	parsed, _, err := NormalizeRating(f)
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}
