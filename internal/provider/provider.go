package provider

import (
	"context"
	"fmt"

	"github.com/nerrad567/roomdash/internal/device"
)

// Provider fetches devices from one upstream and maps them to RoomDevice.
//
// FetchRooms makes at most one attempt and must report every problem as an
// error (preferably a *Failure) rather than panicking.
type Provider interface {
	Name() string
	FetchRooms(ctx context.Context) ([]device.RoomDevice, error)
}

// Publisher receives the devices of every successful aggregation.
type Publisher interface {
	PublishRooms(ctx context.Context, devices []device.RoomDevice) error
}

// Observer records aggregation outcomes. Implemented by the metrics package.
type Observer interface {
	ObserveAggregation(provider, outcome string, devices int)
}

// OutcomeKind is the result class of one provider attempt.
type OutcomeKind int

// Outcome kinds.
const (
	OutcomeSuccess OutcomeKind = iota
	OutcomeUnconfigured
	OutcomeFailed
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeSuccess:
		return "success"
	case OutcomeUnconfigured:
		return "unconfigured"
	default:
		return "failed"
	}
}

// Outcome is the typed result of a single provider attempt.
type Outcome struct {
	Provider string
	Kind     OutcomeKind
	Devices  []device.RoomDevice // Set when Kind is OutcomeSuccess
	Failure  *Failure            // Set otherwise
}

// Attempt runs one FetchRooms call and classifies the result.
//
// Non-Failure errors are treated as upstream unavailability. A panicking
// adapter is recovered and reported the same way.
func Attempt(ctx context.Context, p Provider) (out Outcome) {
	name := p.Name()
	defer func() {
		if r := recover(); r != nil {
			out = failed(Unavailable(name, fmt.Errorf("panic: %v", r)))
		}
	}()

	devices, err := p.FetchRooms(ctx)
	if err != nil {
		f, ok := AsFailure(err)
		if !ok {
			f = Unavailable(name, err)
		}
		if f.Provider == "" {
			f.Provider = name
		}
		return failed(f)
	}

	if devices == nil {
		devices = []device.RoomDevice{}
	}
	return Outcome{Provider: name, Kind: OutcomeSuccess, Devices: devices}
}

func failed(f *Failure) Outcome {
	kind := OutcomeFailed
	if f.NotConfigured() {
		kind = OutcomeUnconfigured
	}
	return Outcome{Provider: f.Provider, Kind: kind, Failure: f}
}
