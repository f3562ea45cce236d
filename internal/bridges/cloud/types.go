package cloud

import (
	"bytes"
	"encoding/json"
	"math"
)

// ProviderName identifies the cloud registry in failures, logs and metrics.
const ProviderName = "cloud"

// Capability and attribute names read from the "main" component.
const (
	capSwitch             = "switch"
	capAirConditionerMode = "airConditionerMode"
	capThermostatMode     = "thermostatMode"
	capOperationMode      = "operationMode"
	capTemperature        = "temperatureMeasurement"
	capCoolingSetpoint    = "thermostatCoolingSetpoint"
	capThermostatSetpoint = "thermostatSetpoint"
	capAirPurifierFanMode = "airPurifierFanMode"
	capDustSensor         = "dustSensor"
	attrTemperature       = "temperature"
	attrCoolingSetpoint   = "coolingSetpoint"
	attrValue             = "value"
	mainComponent         = "main"
	defaultSummaryType    = "device"
	switchOn              = "on"
)

// Device is one entry of the registry listing.
type Device struct {
	DeviceID string   `json:"deviceId"`
	Name     string   `json:"name"`
	Label    string   `json:"label"`
	Room     *Room    `json:"room,omitempty"`
	Profile  *Profile `json:"profile,omitempty"`
	OCF      *OCF     `json:"ocf,omitempty"`
}

// Room is the room reference embedded in a listing entry.
type Room struct {
	Name string `json:"name"`
}

// Profile is the device profile reference.
type Profile struct {
	ID   string `json:"id,omitempty"`
	Name string `json:"name,omitempty"`
}

// OCF carries Open Connectivity Foundation metadata.
type OCF struct {
	DeviceType string `json:"deviceType,omitempty"`
}

// Links holds the pagination links of a listing page.
type Links struct {
	Next *Link `json:"next,omitempty"`
}

// Link is a single pagination link.
type Link struct {
	Href string `json:"href"`
}

// PagedDevices is one page of GET /v1/devices.
type PagedDevices struct {
	Items []Device `json:"items"`
	Links Links    `json:"_links"`
}

// Capability maps attribute names to their raw attribute objects.
type Capability map[string]json.RawMessage

// Status is the response of GET /v1/devices/{id}/status.
type Status struct {
	Components map[string]map[string]Capability `json:"components"`
}

// Main returns the capabilities of the "main" component, or nil.
func (s Status) Main() Component {
	return Component(s.Components[mainComponent])
}

// Component is a device component's capability set.
type Component map[string]Capability

// Has reports whether the capability is present.
func (c Component) Has(capability string) bool {
	_, ok := c[capability]
	return ok
}

// value returns the raw "value" of capability.attribute.
func (c Component) value(capability, attribute string) json.RawMessage {
	cp, ok := c[capability]
	if !ok {
		return nil
	}
	raw, ok := cp[attribute]
	if !ok {
		return nil
	}
	var attr struct {
		Value json.RawMessage `json:"value"`
	}
	if err := json.Unmarshal(raw, &attr); err != nil {
		return nil
	}
	return attr.Value
}

// String returns capability.attribute.value when it is a JSON string.
func (c Component) String(capability, attribute string) string {
	raw := c.value(capability, attribute)
	if raw == nil {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return ""
	}
	return s
}

// Number returns capability.attribute.value when it is a finite JSON number.
func (c Component) Number(capability, attribute string) *float64 {
	raw := bytes.TrimSpace(c.value(capability, attribute))
	if len(raw) == 0 || !(raw[0] == '-' || (raw[0] >= '0' && raw[0] <= '9')) {
		return nil
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	return &f
}

// directString returns capability.value when the capability carries its
// value without an attribute level.
func (c Component) directString(capability string) string {
	cp, ok := c[capability]
	if !ok {
		return ""
	}
	raw, ok := cp[attrValue]
	if !ok {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return ""
	}
	return s
}
