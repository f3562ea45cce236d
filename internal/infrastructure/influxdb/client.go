package influxdb

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"

	"github.com/nerrad567/roomdash/internal/infrastructure/config"
	"github.com/nerrad567/roomdash/internal/infrastructure/logging"
)

const (
	pingTimeout = 5 * time.Second

	defaultBatchSize     = 100
	defaultFlushInterval = 10 * time.Second

	// pointPrecision matches the millisecond resolution of RoomDevice.UpdatedAt.
	pointPrecision = time.Millisecond
)

// Client records room_climate points. Points are queued on the library's
// batched, non-blocking WriteAPI; delivery failures surface in the log.
//
// All methods are safe for concurrent use.
type Client struct {
	client influxdb2.Client
	writer api.WriteAPI
	logger *logging.Logger
	closed atomic.Bool
}

// Connect builds a client for cfg and checks that the server answers.
// It returns ErrDisabled when climate history is switched off.
func Connect(ctx context.Context, cfg config.InfluxDBConfig, logger *logging.Logger) (*Client, error) {
	if !cfg.Enabled {
		return nil, ErrDisabled
	}
	if logger == nil {
		logger = logging.Discard()
	}

	client := influxdb2.NewClientWithOptions(cfg.URL, cfg.Token, clientOptions(cfg))

	c := &Client{
		client: client,
		writer: client.WriteAPI(cfg.Org, cfg.Bucket),
		logger: logger.With("component", "influxdb", "bucket", cfg.Bucket),
	}
	if err := c.ping(ctx); err != nil {
		client.Close()
		return nil, err
	}

	go c.logWriteErrors(c.writer.Errors())
	return c, nil
}

// clientOptions applies roomdash batching and tags every point with the
// service name.
func clientOptions(cfg config.InfluxDBConfig) *influxdb2.Options {
	batch := cfg.BatchSize
	if batch <= 0 {
		batch = defaultBatchSize
	}
	flush := time.Duration(cfg.FlushInterval) * time.Second
	if flush <= 0 {
		flush = defaultFlushInterval
	}

	// #nosec G115 -- batch is positive and flush fits in uint milliseconds
	return influxdb2.DefaultOptions().
		SetBatchSize(uint(batch)).
		SetFlushInterval(uint(flush.Milliseconds())).
		SetPrecision(pointPrecision).
		AddDefaultTag("service", "roomdash")
}

func (c *Client) ping(ctx context.Context) error {
	pctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	healthy, err := c.client.Ping(pctx)
	switch {
	case err != nil:
		return fmt.Errorf("%w: %w", ErrUnreachable, err)
	case !healthy:
		return fmt.Errorf("%w: ping not acknowledged", ErrUnreachable)
	}
	return nil
}

func (c *Client) logWriteErrors(errs <-chan error) {
	for err := range errs {
		c.logger.Error("room_climate write failed", "error", err)
	}
}

// HealthCheck pings the server. It is reported under /api/health.
func (c *Client) HealthCheck(ctx context.Context) error {
	if c.closed.Load() {
		return ErrClosed
	}
	return c.ping(ctx)
}

// Close flushes queued points and releases the client. Further calls are
// no-ops.
func (c *Client) Close() error {
	if c.closed.Swap(true) || c.client == nil {
		return nil
	}
	c.client.Close()
	return nil
}
