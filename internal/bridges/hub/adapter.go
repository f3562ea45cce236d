package hub

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"time"

	"github.com/nerrad567/roomdash/internal/device"
	"github.com/nerrad567/roomdash/internal/infrastructure/config"
	"github.com/nerrad567/roomdash/internal/infrastructure/logging"
	"github.com/nerrad567/roomdash/internal/infrastructure/upstream"
	"github.com/nerrad567/roomdash/internal/provider"
)

// Deps holds the adapter's collaborators.
type Deps struct {
	Config   config.HubConfig
	Defaults config.DefaultsConfig
	Timeout  time.Duration
	Observer upstream.Observer // Optional
	Logger   *logging.Logger
	Now      func() time.Time // Optional, defaults to time.Now
}

// Adapter reads one climate entity from the hub.
type Adapter struct {
	cfg      config.HubConfig
	defaults config.DefaultsConfig
	client   *upstream.Client
	logger   *logging.Logger
	now      func() time.Time
}

// New creates an Adapter. An incomplete configuration is not an error; the
// adapter then reports itself unconfigured on every call.
func New(deps Deps) *Adapter {
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	logger := deps.Logger
	if logger == nil {
		logger = logging.Discard()
	}
	return &Adapter{
		cfg:      deps.Config,
		defaults: deps.Defaults,
		client: upstream.New(upstream.Options{
			Provider: ProviderName,
			BaseURL:  deps.Config.BaseURL,
			Token:    deps.Config.Token,
			Timeout:  deps.Timeout,
			Observer: deps.Observer,
		}),
		logger: logger.With("component", "hub"),
		now:    now,
	}
}

// Name implements provider.Provider.
func (a *Adapter) Name() string { return ProviderName }

// Configured reports whether base URL, token and entity id are all set.
func (a *Adapter) Configured() bool { return a.cfg.Configured() }

// FetchRooms implements provider.Provider.
func (a *Adapter) FetchRooms(ctx context.Context) ([]device.RoomDevice, error) {
	state, err := a.fetchState(ctx)
	if err != nil {
		return nil, err
	}
	return []device.RoomDevice{a.toRoomDevice(state)}, nil
}

// RawState returns the entity JSON exactly as the hub sent it.
func (a *Adapter) RawState(ctx context.Context) (json.RawMessage, error) {
	if err := a.checkConfigured(); err != nil {
		return nil, err
	}
	body, err := a.client.Get(ctx, "state", a.statePath())
	if err != nil {
		return nil, err
	}
	if !json.Valid(body) {
		return nil, provider.Malformed(ProviderName, fmt.Errorf("state body is not JSON"))
	}
	return json.RawMessage(body), nil
}

func (a *Adapter) fetchState(ctx context.Context) (EntityState, error) {
	if err := a.checkConfigured(); err != nil {
		return EntityState{}, err
	}
	var state EntityState
	if err := a.client.GetJSON(ctx, "state", a.statePath(), &state); err != nil {
		return EntityState{}, err
	}
	a.logger.Debug("fetched entity state", "entity_id", a.cfg.EntityID, "state", state.State)
	return state, nil
}

func (a *Adapter) checkConfigured() error {
	switch {
	case a.cfg.BaseURL == "":
		return provider.Unconfigured(ProviderName, "hub base url not set")
	case a.cfg.Token == "":
		return provider.Unconfigured(ProviderName, "hub token not set")
	case a.cfg.EntityID == "":
		return provider.Unconfigured(ProviderName, "hub entity id not set")
	}
	return nil
}

func (a *Adapter) statePath() string {
	return "/api/states/" + url.PathEscape(a.cfg.EntityID)
}

// toRoomDevice maps the entity onto the single "ac" record the hub
// represents.
func (a *Adapter) toRoomDevice(s EntityState) device.RoomDevice {
	return device.RoomDevice{
		ID:        a.cfg.EntityID,
		Type:      device.TypeAC,
		Name:      device.FirstNonEmpty(s.String("friendly_name"), a.defaults.DeviceName, a.cfg.EntityID),
		Room:      a.defaults.RoomName,
		Power:     device.Bool(s.State != stateOff),
		Mode:      s.State,
		TempSet:   s.Number("temperature"),
		TempCur:   s.Number("current_temperature"),
		UpdatedAt: device.Timestamp(a.now()),
	}
}
