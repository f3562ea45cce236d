package device

import (
	"fmt"
	"math"
	"strings"
	"time"
)

var validTypes map[Type]struct{}

func init() {
	validTypes = make(map[Type]struct{}, len(AllTypes()))
	for _, t := range AllTypes() {
		validTypes[t] = struct{}{}
	}
}

// ValidType reports whether t is a recognised device type.
func ValidType(t Type) bool {
	_, ok := validTypes[t]
	return ok
}

// Validate checks the invariants every RoomDevice must satisfy before it is
// handed to the API layer.
func (d RoomDevice) Validate() error {
	if strings.TrimSpace(d.ID) == "" {
		return fmt.Errorf("%w: %w", ErrInvalidDevice, ErrMissingID)
	}
	if !ValidType(d.Type) {
		return fmt.Errorf("%w: %w %q", ErrInvalidDevice, ErrInvalidType, d.Type)
	}
	if err := validateReading("tempSet", d.TempSet); err != nil {
		return err
	}
	if err := validateReading("tempCur", d.TempCur); err != nil {
		return err
	}
	if _, err := time.Parse(TimestampLayout, d.UpdatedAt); err != nil {
		return fmt.Errorf("%w: %w %q", ErrInvalidDevice, ErrInvalidTimestamp, d.UpdatedAt)
	}
	return nil
}

func validateReading(field string, v *float64) error {
	if v == nil {
		return nil
	}
	if math.IsNaN(*v) || math.IsInf(*v, 0) {
		return fmt.Errorf("%w: %w: %s", ErrInvalidDevice, ErrInvalidReading, field)
	}
	return nil
}

// FirstNonEmpty returns the first value that is not blank after trimming,
// or "" when all are blank.
func FirstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
