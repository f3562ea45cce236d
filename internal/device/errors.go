package device

import "errors"

// Domain errors for the device package.
//
// These errors can be checked using errors.Is():
//
//	if errors.Is(err, device.ErrInvalidType) {
//	    // upstream mapping produced an unknown type
//	}
var (
	// ErrInvalidDevice is returned when a RoomDevice fails validation.
	ErrInvalidDevice = errors.New("device: invalid")

	// ErrMissingID is returned when a record has no upstream identifier.
	ErrMissingID = errors.New("device: missing id")

	// ErrInvalidType is returned when a type is not one of AllTypes().
	ErrInvalidType = errors.New("device: invalid type")

	// ErrInvalidReading is returned when a numeric reading is NaN or infinite.
	ErrInvalidReading = errors.New("device: invalid reading")

	// ErrInvalidTimestamp is returned when UpdatedAt is not a valid timestamp.
	ErrInvalidTimestamp = errors.New("device: invalid timestamp")
)
