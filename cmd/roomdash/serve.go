package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nerrad567/roomdash/internal/api"
	"github.com/nerrad567/roomdash/internal/infrastructure/config"
	"github.com/nerrad567/roomdash/internal/infrastructure/influxdb"
	"github.com/nerrad567/roomdash/internal/infrastructure/logging"
	"github.com/nerrad567/roomdash/internal/infrastructure/metrics"
	"github.com/nerrad567/roomdash/internal/infrastructure/mqtt"
	"github.com/nerrad567/roomdash/internal/provider"
)

func newServeCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), opts)
		},
	}
}

// runServe starts every component and blocks until ctx is cancelled.
func runServe(ctx context.Context, opts *rootOptions) error {
	cfg, err := opts.loadConfig()
	if err != nil {
		return err
	}

	log := logging.New(cfg.Logging, version)
	defer log.Close()
	log.Info("starting roomdash",
		"version", version,
		"commit", commit,
		"build_date", date,
	)
	warnProviderConfig(cfg, log)

	m := metrics.New()
	set := buildProviders(cfg, log, m)

	var publishers []provider.Publisher
	checks := make(map[string]api.HealthChecker)

	if cfg.MQTT.Enabled {
		mqttClient, mqttErr := mqtt.Connect(cfg.MQTT, log)
		if mqttErr != nil {
			return fmt.Errorf("connecting to MQTT: %w", mqttErr)
		}
		defer func() {
			log.Info("disconnecting from MQTT")
			if closeErr := mqttClient.Close(); closeErr != nil {
				log.Error("error closing MQTT", "error", closeErr)
			}
		}()
		log.Info("MQTT connected",
			"broker", fmt.Sprintf("%s:%d", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port),
			"client_id", cfg.MQTT.Broker.ClientID,
		)
		publishers = append(publishers, mqtt.NewRoomPublisher(mqttClient))
		checks["mqtt"] = mqttClient
	} else {
		log.Info("MQTT disabled")
	}

	influxClient, err := influxdb.Connect(ctx, cfg.InfluxDB, log)
	switch {
	case errors.Is(err, influxdb.ErrDisabled):
		log.Info("InfluxDB disabled")
	case err != nil:
		return fmt.Errorf("connecting to InfluxDB: %w", err)
	default:
		defer func() {
			log.Info("closing InfluxDB connection")
			if closeErr := influxClient.Close(); closeErr != nil {
				log.Error("error closing InfluxDB", "error", closeErr)
			}
		}()
		log.Info("InfluxDB connected",
			"url", cfg.InfluxDB.URL,
			"org", cfg.InfluxDB.Org,
			"bucket", cfg.InfluxDB.Bucket,
		)
		publishers = append(publishers, influxClient)
		checks["influxdb"] = influxClient
	}

	checkBackends(ctx, checks, log)

	agg, err := provider.NewAggregator(provider.Deps{
		Providers:  set.providers(),
		Publishers: publishers,
		Observer:   m,
		Logger:     log,
	})
	if err != nil {
		return fmt.Errorf("creating aggregator: %w", err)
	}
	// Runs before the publisher closes above.
	defer agg.Wait()

	srv, err := api.New(api.Deps{
		Config:    cfg.Server,
		Logger:    log,
		Rooms:     agg,
		Raw:       set.raw(),
		Snapshot:  set.snapshot(),
		Providers: api.ProviderStatus{Hub: set.hub.Configured(), Cloud: set.cloud.Configured()},
		Checks:    checks,
		Metrics:   m.Handler(),
		Observer:  m,
		Version:   version,
	})
	if err != nil {
		return fmt.Errorf("creating API server: %w", err)
	}
	if err := srv.Start(ctx); err != nil {
		return fmt.Errorf("starting API server: %w", err)
	}
	log.Info("roomdash listening", "addr", srv.Addr())

	<-ctx.Done()
	log.Info("shutdown signal received")

	if err := srv.Close(); err != nil {
		log.Error("error stopping API server", "error", err)
	}
	return nil
}

// checkBackends runs each publisher's health check once at startup. A
// failing publisher is logged, not fatal; /api/health keeps reporting it.
func checkBackends(ctx context.Context, checks map[string]api.HealthChecker, log *logging.Logger) {
	for name, check := range checks {
		if err := check.HealthCheck(ctx); err != nil {
			log.Warn("backend health check failed", "backend", name, "error", err)
			continue
		}
		log.Info("backend healthy", "backend", name)
	}
}

// warnProviderConfig logs settings that leave a provider unusable.
func warnProviderConfig(cfg *config.Config, log *logging.Logger) {
	if !cfg.Cloud.Configured() {
		log.Warn("cloud token not set; cloud fallback and /api/st/snapshot are unavailable")
	}
	if cfg.Hub.Partial() {
		log.Warn("hub partially configured; base url, token and entity id are all required",
			"base_url_set", cfg.Hub.BaseURL != "",
			"token_set", cfg.Hub.Token != "",
			"entity_id_set", cfg.Hub.EntityID != "",
		)
	}
}
