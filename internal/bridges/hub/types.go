package hub

import (
	"bytes"
	"encoding/json"
	"math"
)

// ProviderName identifies the hub in failures, logs and metrics.
const ProviderName = "hub"

// stateOff is the only entity state that maps to power=false.
const stateOff = "off"

// EntityState is the subset of the hub's entity payload roomdash reads.
//
// Attributes stay raw so that a string where a number is expected leaves
// the field absent instead of failing the whole decode.
type EntityState struct {
	EntityID    string                     `json:"entity_id"`
	State       string                     `json:"state"`
	Attributes  map[string]json.RawMessage `json:"attributes"`
	LastChanged string                     `json:"last_changed,omitempty"`
	LastUpdated string                     `json:"last_updated,omitempty"`
}

// Number returns the attribute as a float when it is a finite JSON number.
func (e EntityState) Number(key string) *float64 {
	raw, ok := e.Attributes[key]
	if !ok {
		return nil
	}
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || !(raw[0] == '-' || (raw[0] >= '0' && raw[0] <= '9')) {
		return nil
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	return &f
}

// String returns the attribute when it is a JSON string.
func (e EntityState) String(key string) string {
	raw, ok := e.Attributes[key]
	if !ok {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return ""
	}
	return s
}
