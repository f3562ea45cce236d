package mqtt

import (
	"fmt"
	"strings"
)

// Topics builds roomdash topic names under a configurable prefix.
//
//	topics := mqtt.Topics{Prefix: "roomdash"}
//	topics.Device("climate.living_room")
//	// Returns: "roomdash/state/device/climate.living_room"
type Topics struct {
	Prefix string
}

// Status returns the retained online/offline topic.
func (t Topics) Status() string {
	return fmt.Sprintf("%s/status", t.prefix())
}

// Rooms returns the topic carrying the full device array.
func (t Topics) Rooms() string {
	return fmt.Sprintf("%s/state/rooms", t.prefix())
}

// Device returns the topic for one device. Characters with special meaning
// in MQTT topics are replaced.
func (t Topics) Device(id string) string {
	return fmt.Sprintf("%s/state/device/%s", t.prefix(), sanitizeSegment(id))
}

func (t Topics) prefix() string {
	p := strings.Trim(t.Prefix, "/")
	if p == "" {
		return "roomdash"
	}
	return p
}

var segmentReplacer = strings.NewReplacer("/", "_", "+", "_", "#", "_", " ", "_")

func sanitizeSegment(s string) string {
	return segmentReplacer.Replace(s)
}
