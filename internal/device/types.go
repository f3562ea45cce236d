package device

import "time"

// Type is the coarse classification the dashboard uses to pick a widget.
type Type string

// Device types.
const (
	TypeAC       Type = "ac"
	TypePurifier Type = "purifier"
	TypeDevice   Type = "device"
)

// AllTypes returns every recognised device type.
func AllTypes() []Type {
	return []Type{TypeAC, TypePurifier, TypeDevice}
}

// TimestampLayout is the ISO-8601 layout used for UpdatedAt and other
// response timestamps (UTC, millisecond precision).
const TimestampLayout = "2006-01-02T15:04:05.000Z07:00"

// RoomDevice is the unified device shape returned by GET /api/rooms.
type RoomDevice struct {
	ID        string   `json:"id"`
	Type      Type     `json:"type"`
	Name      string   `json:"name"`
	Room      string   `json:"room"`
	Power     *bool    `json:"power,omitempty"`
	Mode      string   `json:"mode,omitempty"`
	TempSet   *float64 `json:"tempSet,omitempty"`
	TempCur   *float64 `json:"tempCur,omitempty"`
	UpdatedAt string   `json:"updatedAt"`
}

// Summary is a status-free listing entry used by the diagnostic snapshot.
// Type carries the upstream profile name rather than a normalised Type.
type Summary struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Room string `json:"room"`
	Type string `json:"type"`
}

// Timestamp formats t the way RoomDevice.UpdatedAt expects.
func Timestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}

// Bool returns a pointer to b.
func Bool(b bool) *bool { return &b }

// Float returns a pointer to f.
func Float(f float64) *float64 { return &f }
