package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/nerrad567/roomdash/internal/device"
	"github.com/nerrad567/roomdash/internal/infrastructure/config"
	"github.com/nerrad567/roomdash/internal/infrastructure/logging"
	"github.com/nerrad567/roomdash/internal/panel"
)

// gracefulShutdownTimeout is the maximum time to wait for in-flight requests
// to complete during shutdown.
const gracefulShutdownTimeout = 10 * time.Second

// RoomsAggregator produces the normalised device list.
type RoomsAggregator interface {
	Rooms(ctx context.Context) ([]device.RoomDevice, error)
}

// RawStateReader returns one upstream entity exactly as received.
type RawStateReader interface {
	RawState(ctx context.Context) (json.RawMessage, error)
}

// SnapshotReader lists cloud devices without reading status.
type SnapshotReader interface {
	Snapshot(ctx context.Context) ([]device.Summary, error)
}

// Observer records inbound request metrics.
type Observer interface {
	ObserveHTTP(route, method string, status int, elapsed time.Duration)
}

// HealthChecker is an optional backend reported by GET /api/health.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// ProviderStatus reports whether a provider has the settings it needs.
type ProviderStatus struct {
	Hub   bool `json:"hub"`
	Cloud bool `json:"cloud"`
}

// Deps holds the dependencies required by the API server.
type Deps struct {
	Config    config.ServerConfig
	Logger    *logging.Logger
	Rooms     RoomsAggregator // Required
	Raw       RawStateReader  // Optional; nil answers 400
	Snapshot  SnapshotReader  // Optional; nil answers 500
	Providers ProviderStatus
	Checks    map[string]HealthChecker // Optional; keyed by backend name
	Metrics   http.Handler             // Optional; nil disables /metrics
	Observer  Observer                 // Optional
	Static    http.Handler             // Optional; defaults to panel.Handler(Config.StaticDir)
	Version   string
	Now       func() time.Time // Optional, defaults to time.Now
}

// Server is the HTTP server for roomdash.
type Server struct {
	cfg       config.ServerConfig
	logger    *logging.Logger
	rooms     RoomsAggregator
	raw       RawStateReader
	snapshot  SnapshotReader
	providers ProviderStatus
	checks    map[string]HealthChecker
	metrics   http.Handler
	observer  Observer
	static    http.Handler
	version   string
	now       func() time.Time
	started   time.Time

	server   *http.Server
	listener net.Listener
}

// New creates a new API server. The server is not started until Start()
// is called.
func New(deps Deps) (*Server, error) {
	if deps.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if deps.Rooms == nil {
		return nil, fmt.Errorf("rooms aggregator is required")
	}

	s := &Server{
		cfg:       deps.Config,
		logger:    deps.Logger.With("component", "api"),
		rooms:     deps.Rooms,
		raw:       deps.Raw,
		snapshot:  deps.Snapshot,
		providers: deps.Providers,
		checks:    deps.Checks,
		metrics:   deps.Metrics,
		observer:  deps.Observer,
		static:    deps.Static,
		version:   deps.Version,
		now:       deps.Now,
	}
	if s.static == nil {
		s.static = panel.Handler(deps.Config.StaticDir)
	}
	if s.now == nil {
		s.now = time.Now
	}
	s.started = s.now()
	return s, nil
}

// Handler returns the fully wired router.
func (s *Server) Handler() http.Handler {
	return s.buildRouter()
}

// Start binds the listener and serves in a background goroutine. Binding
// errors (port in use) are returned synchronously.
func (s *Server) Start(_ context.Context) error {
	s.server = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port),
		Handler:           s.buildRouter(),
		ReadTimeout:       s.cfg.Timeouts.ReadTimeout(),
		ReadHeaderTimeout: s.cfg.Timeouts.ReadTimeout(),
		WriteTimeout:      s.cfg.Timeouts.WriteTimeout(),
		IdleTimeout:       s.cfg.Timeouts.IdleTimeout(),
	}

	ln, err := net.Listen("tcp", s.server.Addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", s.server.Addr, err)
	}
	s.listener = ln

	go func() {
		if err := s.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("API server error", "error", err)
		}
	}()

	s.logger.Info("API server listening", "address", ln.Addr().String())
	return nil
}

// Addr returns the bound address, or "" before Start.
func (s *Server) Addr() string {
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Close gracefully shuts down the server, waiting up to 10 seconds for
// in-flight requests.
func (s *Server) Close() error {
	if s.server == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), gracefulShutdownTimeout)
	defer cancel()

	s.logger.Info("API server shutting down")
	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutting down API server: %w", err)
	}
	return nil
}
