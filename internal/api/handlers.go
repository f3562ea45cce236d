package api

import (
	"context"
	"net/http"
	"runtime"
	"time"

	"github.com/nerrad567/roomdash/internal/device"
	"github.com/nerrad567/roomdash/internal/provider"
)

// PingResponse is the body of GET /api/ping.
type PingResponse struct {
	OK bool   `json:"ok"`
	At string `json:"at"`
}

// SnapshotResponse is the body of GET /api/st/snapshot.
type SnapshotResponse struct {
	OK        bool             `json:"ok"`
	Devices   []device.Summary `json:"devices"`
	FetchedAt string           `json:"fetchedAt"`
}

// HealthResponse is the body of GET /api/health.
type HealthResponse struct {
	Status        string            `json:"status"`
	Version       string            `json:"version"`
	UptimeSeconds int64             `json:"uptime_seconds"`
	Runtime       RuntimeStats      `json:"runtime"`
	Providers     ProviderStatus    `json:"providers"`
	Backends      map[string]string `json:"backends,omitempty"`
}

// healthCheckTimeout bounds each backend check in GET /api/health.
const healthCheckTimeout = 2 * time.Second

// RuntimeStats contains Go runtime statistics.
type RuntimeStats struct {
	Goroutines    int     `json:"goroutines"`
	MemoryAllocMB float64 `json:"memory_alloc_mb"`
	NumGC         uint32  `json:"num_gc"`
}

func (s *Server) handlePing(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, PingResponse{OK: true, At: device.Timestamp(s.now())})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	status, backends := s.checkBackends(r.Context())

	writeJSON(w, http.StatusOK, HealthResponse{
		Status:        status,
		Version:       s.version,
		UptimeSeconds: int64(s.now().Sub(s.started) / time.Second),
		Runtime: RuntimeStats{
			Goroutines:    runtime.NumGoroutine(),
			MemoryAllocMB: float64(mem.Alloc) / (1024 * 1024),
			NumGC:         mem.NumGC,
		},
		Providers: s.providers,
		Backends:  backends,
	})
}

// checkBackends runs every registered check. A failing backend degrades the
// status but never the HTTP code; publishers are optional.
func (s *Server) checkBackends(ctx context.Context) (string, map[string]string) {
	if len(s.checks) == 0 {
		return "ok", nil
	}

	status := "ok"
	results := make(map[string]string, len(s.checks))
	for name, check := range s.checks {
		cctx, cancel := context.WithTimeout(ctx, healthCheckTimeout)
		err := check.HealthCheck(cctx)
		cancel()
		if err != nil {
			results[name] = err.Error()
			status = "degraded"
			continue
		}
		results[name] = "ok"
	}
	return status, results
}

// upstreamContext bounds upstream work so a hung provider still leaves time
// to write a JSON error before the server's WriteTimeout fires.
func (s *Server) upstreamContext(r *http.Request) (context.Context, context.CancelFunc) {
	budget := s.cfg.Timeouts.HandlerBudget()
	if budget <= 0 {
		return context.WithCancel(r.Context())
	}
	return context.WithTimeout(r.Context(), budget)
}

// handleRooms returns the normalised device array, or a JSON error whose
// status follows the failure of the last provider tried.
func (s *Server) handleRooms(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := s.upstreamContext(r)
	defer cancel()

	devices, err := s.rooms.Rooms(ctx)
	if err != nil {
		s.writeProviderError(w, err, "devices fetch failed", "no device provider configured")
		return
	}
	if devices == nil {
		devices = []device.RoomDevice{}
	}
	writeJSON(w, http.StatusOK, devices)
}

// handleRaw passes the hub entity through untouched.
func (s *Server) handleRaw(w http.ResponseWriter, r *http.Request) {
	if s.raw == nil {
		writeBadRequest(w, "hub not configured")
		return
	}

	ctx, cancel := s.upstreamContext(r)
	defer cancel()

	raw, err := s.raw.RawState(ctx)
	if err != nil {
		if f, ok := provider.AsFailure(err); ok && f.NotConfigured() {
			writeBadRequest(w, "hub not configured")
			return
		}
		s.writeProviderError(w, err, "state fetch failed", "hub not configured")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(raw) //nolint:errcheck // client may have gone away
}

// handleSnapshot lists cloud devices without status reads.
func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	if s.snapshot == nil {
		writeError(w, http.StatusInternalServerError, ErrCodeUnconfigured, "cloud token not configured", "")
		return
	}

	ctx, cancel := s.upstreamContext(r)
	defer cancel()

	devices, err := s.snapshot.Snapshot(ctx)
	if err != nil {
		s.writeProviderError(w, err, "devices fetch failed", "cloud token not configured")
		return
	}

	writeJSON(w, http.StatusOK, SnapshotResponse{
		OK:        true,
		Devices:   devices,
		FetchedAt: device.Timestamp(s.now()),
	})
}

// writeProviderError renders a provider failure. fetchMsg labels upstream
// non-2xx answers; unconfiguredMsg labels missing settings.
func (s *Server) writeProviderError(w http.ResponseWriter, err error, fetchMsg, unconfiguredMsg string) {
	f, ok := provider.AsFailure(err)
	if !ok {
		s.logger.Error("unexpected provider error", "error", err)
		writeInternalError(w, err.Error())
		return
	}

	status := f.HTTPStatus()
	switch f.Kind {
	case provider.KindUnconfigured, provider.KindMissingCredential:
		detail := ""
		if f.Err != nil {
			detail = f.Err.Error()
		}
		writeError(w, status, ErrCodeUnconfigured, unconfiguredMsg, detail)
	case provider.KindUpstreamError:
		writeError(w, status, ErrCodeUpstreamError, fetchMsg, f.Body)
	case provider.KindMalformedResponse:
		writeError(w, status, ErrCodeMalformedResponse, "upstream returned an unreadable response", "")
	default:
		writeError(w, status, ErrCodeUpstreamUnavailable, "upstream unavailable", "")
	}
}
