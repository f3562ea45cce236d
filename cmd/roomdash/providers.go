package main

import (
	"github.com/nerrad567/roomdash/internal/api"
	"github.com/nerrad567/roomdash/internal/bridges/cloud"
	"github.com/nerrad567/roomdash/internal/bridges/hub"
	"github.com/nerrad567/roomdash/internal/infrastructure/config"
	"github.com/nerrad567/roomdash/internal/infrastructure/logging"
	"github.com/nerrad567/roomdash/internal/infrastructure/upstream"
	"github.com/nerrad567/roomdash/internal/provider"
)

// providerSet holds both adapters built from one configuration.
type providerSet struct {
	hub   *hub.Adapter
	cloud *cloud.Adapter
}

func buildProviders(cfg *config.Config, log *logging.Logger, obs upstream.Observer) providerSet {
	return providerSet{
		hub: hub.New(hub.Deps{
			Config:   cfg.Hub,
			Defaults: cfg.Defaults,
			Timeout:  cfg.HubTimeout(),
			Observer: obs,
			Logger:   log,
		}),
		cloud: cloud.New(cloud.Deps{
			Config:   cfg.Cloud,
			Defaults: cfg.Defaults,
			Timeout:  cfg.CloudTimeout(),
			Observer: obs,
			Logger:   log,
		}),
	}
}

// providers returns the adapters in fallback order.
func (s providerSet) providers() []provider.Provider {
	return []provider.Provider{s.hub, s.cloud}
}

// raw returns nil when the hub is unconfigured so the API answers 400.
func (s providerSet) raw() api.RawStateReader {
	if !s.hub.Configured() {
		return nil
	}
	return s.hub
}

// snapshot returns nil when the cloud token is missing so the API answers 500.
func (s providerSet) snapshot() api.SnapshotReader {
	if !s.cloud.Configured() {
		return nil
	}
	return s.cloud
}
