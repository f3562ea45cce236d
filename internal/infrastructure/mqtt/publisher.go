package mqtt

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/nerrad567/roomdash/internal/device"
)

// retainedPublisher is the subset of Client the RoomPublisher needs.
type retainedPublisher interface {
	PublishRetained(topic string, payload []byte) error
}

// RoomPublisher mirrors aggregation results onto retained topics. It
// implements provider.Publisher.
type RoomPublisher struct {
	client retainedPublisher
	topics Topics
}

// NewRoomPublisher creates a RoomPublisher on top of a connected Client.
func NewRoomPublisher(c *Client) *RoomPublisher {
	return &RoomPublisher{client: c, topics: c.Topics()}
}

// PublishRooms publishes the full array, then each device. Every publish is
// attempted; the errors are joined.
func (p *RoomPublisher) PublishRooms(ctx context.Context, devices []device.RoomDevice) error {
	all, err := json.Marshal(devices)
	if err != nil {
		return fmt.Errorf("encoding rooms: %w", err)
	}

	var errs []error
	if err := p.client.PublishRetained(p.topics.Rooms(), all); err != nil {
		errs = append(errs, err)
	}

	for _, d := range devices {
		if ctx.Err() != nil {
			errs = append(errs, ctx.Err())
			break
		}
		payload, err := json.Marshal(d)
		if err != nil {
			errs = append(errs, fmt.Errorf("encoding device %s: %w", d.ID, err))
			continue
		}
		if err := p.client.PublishRetained(p.topics.Device(d.ID), payload); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
