package cloud

import (
	"context"
	"net/url"
	"strings"
	"time"

	"github.com/samber/lo"
	"golang.org/x/sync/errgroup"

	"github.com/nerrad567/roomdash/internal/device"
	"github.com/nerrad567/roomdash/internal/infrastructure/config"
	"github.com/nerrad567/roomdash/internal/infrastructure/logging"
	"github.com/nerrad567/roomdash/internal/infrastructure/upstream"
	"github.com/nerrad567/roomdash/internal/provider"
)

const (
	// statusConcurrency is the maximum number of status reads in flight.
	statusConcurrency = 5

	// maxListPages bounds how many listing pages are followed.
	maxListPages = 20

	devicesPath = "/v1/devices"
)

// Deps holds the adapter's collaborators.
type Deps struct {
	Config   config.CloudConfig
	Defaults config.DefaultsConfig
	Timeout  time.Duration
	Observer upstream.Observer // Optional
	Logger   *logging.Logger
	Now      func() time.Time // Optional, defaults to time.Now
}

// Adapter reads devices and their status from the cloud registry.
type Adapter struct {
	cfg      config.CloudConfig
	defaults config.DefaultsConfig
	client   *upstream.Client
	logger   *logging.Logger
	now      func() time.Time
}

// statusResult is the outcome of one per-device status read. Failed reads
// carry err and are filtered out by FetchRooms.
type statusResult struct {
	device Device
	status Status
	err    error
}

// New creates an Adapter. A missing token is not an error; the adapter then
// reports a missing credential on every call.
func New(deps Deps) *Adapter {
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	logger := deps.Logger
	if logger == nil {
		logger = logging.Discard()
	}
	baseURL := deps.Config.BaseURL
	if baseURL == "" {
		baseURL = config.DefaultCloudBaseURL
	}
	return &Adapter{
		cfg:      deps.Config,
		defaults: deps.Defaults,
		client: upstream.New(upstream.Options{
			Provider:  ProviderName,
			BaseURL:   baseURL,
			Token:     deps.Config.Token,
			Timeout:   deps.Timeout,
			Observer:  deps.Observer,
			RateLimit: deps.Config.RateLimit,
		}),
		logger: logger.With("component", "cloud"),
		now:    now,
	}
}

// Name implements provider.Provider.
func (a *Adapter) Name() string { return ProviderName }

// Configured reports whether a token is set.
func (a *Adapter) Configured() bool { return a.cfg.Configured() }

// FetchRooms implements provider.Provider.
func (a *Adapter) FetchRooms(ctx context.Context) ([]device.RoomDevice, error) {
	devices, err := a.listDevices(ctx)
	if err != nil {
		return nil, err
	}

	results := a.fetchStatuses(ctx, devices)
	if err := ctx.Err(); err != nil {
		return nil, provider.Unavailable(ProviderName, err)
	}

	updatedAt := device.Timestamp(a.now())
	rooms := lo.FilterMap(results, func(r statusResult, _ int) (device.RoomDevice, bool) {
		if r.err != nil {
			a.logger.Debug("dropping device without status", "device_id", r.device.DeviceID, "error", r.err)
			return device.RoomDevice{}, false
		}
		return toRoomDevice(r.device, r.status, a.defaults, updatedAt), true
	})

	a.logger.Debug("fetched rooms", "listed", len(devices), "mapped", len(rooms))
	return rooms, nil
}

// Snapshot lists devices without reading their status.
func (a *Adapter) Snapshot(ctx context.Context) ([]device.Summary, error) {
	devices, err := a.listDevices(ctx)
	if err != nil {
		return nil, err
	}
	return lo.Map(devices, func(d Device, _ int) device.Summary {
		return toSummary(d, a.defaults)
	}), nil
}

// listDevices reads every listing page, dropping entries without an id.
func (a *Adapter) listDevices(ctx context.Context) ([]Device, error) {
	if !a.Configured() {
		return nil, provider.MissingCredential(ProviderName, "cloud token not set")
	}

	var all []Device
	path := devicesPath
	for page := 0; page < maxListPages && path != ""; page++ {
		var p PagedDevices
		if err := a.client.GetJSON(ctx, "devices", path, &p); err != nil {
			return nil, err
		}
		all = append(all, p.Items...)
		path = a.nextPath(p.Links)
	}

	all = lo.Filter(all, func(d Device, _ int) bool { return d.DeviceID != "" })
	return lo.UniqBy(all, func(d Device) string { return d.DeviceID }), nil
}

// nextPath turns a pagination link into a request path. Links pointing at
// another host are not followed.
func (a *Adapter) nextPath(links Links) string {
	if links.Next == nil || links.Next.Href == "" {
		return ""
	}
	href := links.Next.Href
	if strings.HasPrefix(href, "/") {
		return href
	}
	if rest, ok := strings.CutPrefix(href, a.client.BaseURL()); ok && strings.HasPrefix(rest, "/") {
		return rest
	}
	a.logger.Warn("ignoring foreign pagination link", "href", href)
	return ""
}

// fetchStatuses reads status for every device in fixed batches of
// statusConcurrency, waiting for each batch before starting the next.
func (a *Adapter) fetchStatuses(ctx context.Context, devices []Device) []statusResult {
	results := make([]statusResult, 0, len(devices))

	for _, batch := range lo.Chunk(devices, statusConcurrency) {
		part := make([]statusResult, len(batch))

		var g errgroup.Group
		g.SetLimit(statusConcurrency)
		for i, d := range batch {
			i, d := i, d
			g.Go(func() error {
				part[i] = a.fetchStatus(ctx, d)
				return nil
			})
		}
		_ = g.Wait() // per-device errors live in part

		results = append(results, part...)
	}
	return results
}

func (a *Adapter) fetchStatus(ctx context.Context, d Device) statusResult {
	var status Status
	path := devicesPath + "/" + url.PathEscape(d.DeviceID) + "/status"
	if err := a.client.GetJSON(ctx, "status", path, &status); err != nil {
		return statusResult{device: d, err: err}
	}
	return statusResult{device: d, status: status}
}
