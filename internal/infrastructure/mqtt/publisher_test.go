package mqtt

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/nerrad567/roomdash/internal/device"
)

type fakeBroker struct {
	mu       sync.Mutex
	messages map[string][]byte
	failOn   string
}

func (f *fakeBroker) PublishRetained(topic string, payload []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if topic == f.failOn {
		return ErrNotConnected
	}
	if f.messages == nil {
		f.messages = make(map[string][]byte)
	}
	f.messages[topic] = payload
	return nil
}

func testDevices() []device.RoomDevice {
	return []device.RoomDevice{
		{ID: "ac-1", Type: device.TypeAC, Name: "AC", Room: "Bedroom", Power: device.Bool(true), UpdatedAt: "2026-01-01T00:00:00.000Z"},
		{ID: "pur/2", Type: device.TypePurifier, Name: "Purifier", Room: "Office", UpdatedAt: "2026-01-01T00:00:00.000Z"},
	}
}

func TestRoomPublisher_PublishRooms(t *testing.T) {
	broker := &fakeBroker{}
	p := &RoomPublisher{client: broker, topics: Topics{Prefix: "roomdash"}}

	if err := p.PublishRooms(context.Background(), testDevices()); err != nil {
		t.Fatalf("PublishRooms() error = %v", err)
	}

	var rooms []device.RoomDevice
	if err := json.Unmarshal(broker.messages["roomdash/state/rooms"], &rooms); err != nil {
		t.Fatalf("decoding rooms payload: %v", err)
	}
	if len(rooms) != 2 {
		t.Fatalf("rooms payload has %d devices, want 2", len(rooms))
	}

	var one device.RoomDevice
	if err := json.Unmarshal(broker.messages["roomdash/state/device/pur_2"], &one); err != nil {
		t.Fatalf("decoding device payload: %v", err)
	}
	if one.Name != "Purifier" {
		t.Errorf("device name = %q, want Purifier", one.Name)
	}
}

func TestRoomPublisher_ContinuesAfterFailure(t *testing.T) {
	broker := &fakeBroker{failOn: "roomdash/state/rooms"}
	p := &RoomPublisher{client: broker, topics: Topics{Prefix: "roomdash"}}

	err := p.PublishRooms(context.Background(), testDevices())
	if !errors.Is(err, ErrNotConnected) {
		t.Fatalf("PublishRooms() error = %v, want ErrNotConnected", err)
	}
	if _, ok := broker.messages["roomdash/state/device/ac-1"]; !ok {
		t.Error("device topic not published after rooms topic failed")
	}
}

func TestRoomPublisher_CancelledContext(t *testing.T) {
	broker := &fakeBroker{}
	p := &RoomPublisher{client: broker, topics: Topics{Prefix: "roomdash"}}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := p.PublishRooms(ctx, testDevices())
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("PublishRooms() error = %v, want context.Canceled", err)
	}
	if len(broker.messages) != 1 {
		t.Errorf("published %d topics, want only the rooms topic", len(broker.messages))
	}
}
