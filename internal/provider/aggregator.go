package provider

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/nerrad567/roomdash/internal/device"
	"github.com/nerrad567/roomdash/internal/infrastructure/logging"
)

// publishTimeout bounds each background publish.
const publishTimeout = 5 * time.Second

// Deps holds the aggregator's collaborators.
type Deps struct {
	Providers  []Provider // Priority order, first is tried first
	Publishers []Publisher
	Observer   Observer // Optional
	Logger     *logging.Logger
}

// Aggregator is the fallback router between providers.
//
// It holds no per-request state and is safe for concurrent use.
type Aggregator struct {
	providers  []Provider
	publishers []Publisher
	observer   Observer
	logger     *logging.Logger

	publishWG sync.WaitGroup
}

// NewAggregator creates an Aggregator.
func NewAggregator(deps Deps) (*Aggregator, error) {
	if deps.Logger == nil {
		return nil, errors.New("provider: logger is required")
	}
	if len(deps.Providers) == 0 {
		return nil, errors.New("provider: at least one provider is required")
	}
	return &Aggregator{
		providers:  deps.Providers,
		publishers: deps.Publishers,
		observer:   deps.Observer,
		logger:     deps.Logger.With("component", "aggregator"),
	}, nil
}

// Rooms returns the devices of the first provider that succeeds.
//
// Each provider is attempted once. When all fail, the last provider's
// *Failure is returned. The returned slice is never nil on success.
func (a *Aggregator) Rooms(ctx context.Context) ([]device.RoomDevice, error) {
	var last *Failure

	for _, p := range a.providers {
		out := a.validated(Attempt(ctx, p))

		switch out.Kind {
		case OutcomeSuccess:
			a.observe(out.Provider, out.Kind.String(), len(out.Devices))
			a.logger.Debug("provider succeeded", "provider", out.Provider, "devices", len(out.Devices))
			a.publish(ctx, out.Devices)
			return out.Devices, nil

		case OutcomeUnconfigured:
			a.observe(out.Provider, out.Failure.Kind.String(), 0)
			a.logger.Debug("provider skipped", "provider", out.Provider, "reason", out.Failure.Error())

		default:
			a.observe(out.Provider, out.Failure.Kind.String(), 0)
			a.logger.Warn("provider failed",
				"provider", out.Provider,
				"kind", out.Failure.Kind.String(),
				"status", out.Failure.Status,
				"error", out.Failure.Error(),
			)
		}
		last = out.Failure
	}

	return nil, last
}

// validated filters a successful outcome down to valid records. A provider
// whose every record is invalid is downgraded to a malformed-response
// failure so the next provider is still tried.
func (a *Aggregator) validated(out Outcome) Outcome {
	if out.Kind != OutcomeSuccess {
		return out
	}
	devices := a.keepValid(out.Provider, out.Devices)
	if len(devices) == 0 && len(out.Devices) > 0 {
		return failed(Malformed(out.Provider,
			fmt.Errorf("all %d devices failed validation", len(out.Devices))))
	}
	out.Devices = devices
	return out
}

// keepValid drops records that break RoomDevice invariants.
func (a *Aggregator) keepValid(provider string, devices []device.RoomDevice) []device.RoomDevice {
	valid := make([]device.RoomDevice, 0, len(devices))
	for _, d := range devices {
		if err := d.Validate(); err != nil {
			a.logger.Warn("dropping invalid device", "provider", provider, "id", d.ID, "error", err)
			continue
		}
		valid = append(valid, d)
	}
	return valid
}

func (a *Aggregator) observe(provider, outcome string, devices int) {
	if a.observer != nil {
		a.observer.ObserveAggregation(provider, outcome, devices)
	}
}

// publish hands devices to every publisher in the background. Publisher
// errors are logged and never reach the caller.
func (a *Aggregator) publish(ctx context.Context, devices []device.RoomDevice) {
	if len(a.publishers) == 0 || len(devices) == 0 {
		return
	}

	snapshot := make([]device.RoomDevice, len(devices))
	copy(snapshot, devices)
	base := context.WithoutCancel(ctx)

	for _, pub := range a.publishers {
		a.publishWG.Add(1)
		go func(pub Publisher) {
			defer a.publishWG.Done()
			pctx, cancel := context.WithTimeout(base, publishTimeout)
			defer cancel()
			if err := pub.PublishRooms(pctx, snapshot); err != nil {
				a.logger.Warn("publish failed", "error", err)
			}
		}(pub)
	}
}

// Wait blocks until in-flight publishes finish. Call during shutdown.
func (a *Aggregator) Wait() {
	a.publishWG.Wait()
}
