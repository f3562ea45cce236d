package influxdb

import (
	"context"
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
	"github.com/samber/lo"

	"github.com/nerrad567/roomdash/internal/device"
)

// measurementClimate is the measurement name for device readings.
const measurementClimate = "room_climate"

// PublishRooms queues one room_climate point per device. Devices without
// any reading are skipped. It implements provider.Publisher.
func (c *Client) PublishRooms(ctx context.Context, devices []device.RoomDevice) error {
	if c.closed.Load() {
		return ErrClosed
	}

	now := time.Now()
	points := lo.FilterMap(devices, func(d device.RoomDevice, _ int) (*write.Point, bool) {
		return climatePoint(d, now)
	})
	for _, p := range points {
		if err := ctx.Err(); err != nil {
			return err
		}
		c.writer.WritePoint(p)
	}
	return nil
}

// climatePoint converts a device into a point. The device's own timestamp
// is used when it parses; otherwise fallback is used.
func climatePoint(d device.RoomDevice, fallback time.Time) (*write.Point, bool) {
	fields := make(map[string]interface{}, 4)
	if d.Power != nil {
		fields["power"] = *d.Power
	}
	if d.Mode != "" {
		fields["mode"] = d.Mode
	}
	if d.TempSet != nil {
		fields["temp_set"] = *d.TempSet
	}
	if d.TempCur != nil {
		fields["temp_cur"] = *d.TempCur
	}
	if len(fields) == 0 {
		return nil, false
	}

	ts := fallback
	if parsed, err := time.Parse(time.RFC3339Nano, d.UpdatedAt); err == nil {
		ts = parsed
	}

	return write.NewPoint(
		measurementClimate,
		map[string]string{
			"id":   d.ID,
			"type": string(d.Type),
			"room": d.Room,
			"name": d.Name,
		},
		fields,
		ts,
	), true
}
