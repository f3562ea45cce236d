package cloud

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/nerrad567/roomdash/internal/device"
	"github.com/nerrad567/roomdash/internal/infrastructure/config"
	"github.com/nerrad567/roomdash/internal/provider"
)

var fixedNow = time.Date(2026, 7, 1, 12, 0, 0, 0, time.UTC)

// fakeRegistry serves a device listing and per-device status documents.
type fakeRegistry struct {
	t            *testing.T
	devices      []map[string]any
	statuses     map[string]string // deviceId -> status JSON
	failStatus   map[string]int    // deviceId -> HTTP status
	listStatus   int
	listBody     string
	statusDelay  time.Duration
	inFlight     atomic.Int32
	maxInFlight  atomic.Int32
	statusCalls  atomic.Int32
	requestCount atomic.Int32
}

func (f *fakeRegistry) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.requestCount.Add(1)
	if got := r.Header.Get("Authorization"); got != "Bearer cloud-token" {
		f.t.Errorf("Authorization = %q", got)
	}

	if r.URL.Path == "/v1/devices" {
		if f.listStatus != 0 {
			w.WriteHeader(f.listStatus)
			w.Write([]byte(f.listBody))
			return
		}
		json.NewEncoder(w).Encode(map[string]any{"items": f.devices})
		return
	}

	id, ok := strings.CutPrefix(r.URL.Path, "/v1/devices/")
	if !ok || !strings.HasSuffix(id, "/status") {
		http.NotFound(w, r)
		return
	}
	id = strings.TrimSuffix(id, "/status")
	f.statusCalls.Add(1)

	n := f.inFlight.Add(1)
	for {
		cur := f.maxInFlight.Load()
		if n <= cur || f.maxInFlight.CompareAndSwap(cur, n) {
			break
		}
	}
	defer f.inFlight.Add(-1)
	if f.statusDelay > 0 {
		time.Sleep(f.statusDelay)
	}

	if code, bad := f.failStatus[id]; bad {
		w.WriteHeader(code)
		return
	}
	body, ok := f.statuses[id]
	if !ok {
		body = `{"components":{"main":{}}}`
	}
	w.Write([]byte(body))
}

func newRegistry(t *testing.T) (*fakeRegistry, *httptest.Server) {
	t.Helper()
	f := &fakeRegistry{t: t, statuses: map[string]string{}, failStatus: map[string]int{}}
	srv := httptest.NewServer(f)
	t.Cleanup(srv.Close)
	return f, srv
}

func newTestAdapter(baseURL, token string) *Adapter {
	return New(Deps{
		Config:   config.CloudConfig{BaseURL: baseURL, Token: token},
		Defaults: config.DefaultsConfig{RoomName: "", DeviceName: "Device"},
		Timeout:  5 * time.Second,
		Now:      func() time.Time { return fixedNow },
	})
}

func byID(devs []device.RoomDevice) map[string]device.RoomDevice {
	out := make(map[string]device.RoomDevice, len(devs))
	for _, d := range devs {
		out[d.ID] = d
	}
	return out
}

// ─── Configuration Tests ───────────────────────────────────────────

func TestFetchRooms_MissingToken(t *testing.T) {
	f, srv := newRegistry(t)
	a := newTestAdapter(srv.URL, "")

	if a.Configured() {
		t.Error("Configured() = true, want false")
	}
	_, err := a.FetchRooms(context.Background())
	if !errors.Is(err, provider.ErrMissingCredential) {
		t.Errorf("FetchRooms() error = %v, want ErrMissingCredential", err)
	}
	if _, err := a.Snapshot(context.Background()); !errors.Is(err, provider.ErrMissingCredential) {
		t.Errorf("Snapshot() error = %v, want ErrMissingCredential", err)
	}
	if n := f.requestCount.Load(); n != 0 {
		t.Errorf("upstream received %d requests, want 0", n)
	}
}

// ─── Mapping Tests ─────────────────────────────────────────────────

func TestFetchRooms_Mapping(t *testing.T) {
	f, srv := newRegistry(t)
	f.devices = []map[string]any{
		{"deviceId": "ac-1", "label": "Bedroom AC", "name": "Samsung AC", "room": map[string]any{"name": "Bedroom"}},
		{"deviceId": "pur-1", "name": "Air Purifier"},
		{"deviceId": "plug-1", "label": "", "name": ""},
		{"deviceId": "thermo-1", "label": "Hall Thermostat"},
		{"deviceId": "washer-1", "label": "Washer"},
	}
	f.statuses["ac-1"] = `{"components":{"main":{
		"switch":{"switch":{"value":"on"}},
		"airConditionerMode":{"airConditionerMode":{"value":"cool"}},
		"temperatureMeasurement":{"temperature":{"value":26,"unit":"C"}},
		"thermostatCoolingSetpoint":{"coolingSetpoint":{"value":24,"unit":"C"}}
	}}}`
	f.statuses["pur-1"] = `{"components":{"main":{
		"switch":{"switch":{"value":"off"}},
		"dustSensor":{"dustLevel":{"value":12}}
	}}}`
	f.statuses["plug-1"] = `{"components":{"main":{"healthCheck":{}}}}`
	f.statuses["thermo-1"] = `{"components":{"main":{
		"thermostatMode":{"thermostatMode":{"value":"heat"}},
		"thermostatSetpoint":{"thermostatSetpoint":{"value":21.5}},
		"temperatureMeasurement":{"temperature":{"value":"19"}}
	}}}`
	f.statuses["washer-1"] = `{"components":{"main":{
		"operationMode":{"operationMode":{"value":"rinse"}}
	}}}`

	got, err := newTestAdapter(srv.URL, "cloud-token").FetchRooms(context.Background())
	if err != nil {
		t.Fatalf("FetchRooms() error = %v", err)
	}
	devs := byID(got)
	if len(devs) != 5 {
		t.Fatalf("got %d devices, want 5", len(devs))
	}

	ac := devs["ac-1"]
	if ac.Type != device.TypeAC || ac.Name != "Bedroom AC" || ac.Room != "Bedroom" {
		t.Errorf("ac = %+v", ac)
	}
	if ac.Power == nil || !*ac.Power || ac.Mode != "cool" {
		t.Errorf("ac power/mode = %v/%q", ac.Power, ac.Mode)
	}
	if ac.TempSet == nil || *ac.TempSet != 24 || ac.TempCur == nil || *ac.TempCur != 26 {
		t.Errorf("ac temps = %v/%v", ac.TempSet, ac.TempCur)
	}
	if ac.UpdatedAt != "2026-07-01T12:00:00.000Z" {
		t.Errorf("updatedAt = %q", ac.UpdatedAt)
	}

	pur := devs["pur-1"]
	if pur.Type != device.TypePurifier || pur.Name != "Air Purifier" || pur.Room != "" {
		t.Errorf("purifier = %+v", pur)
	}
	if pur.Power == nil || *pur.Power {
		t.Errorf("purifier power = %v, want false", pur.Power)
	}

	plug := devs["plug-1"]
	if plug.Type != device.TypeDevice || plug.Name != "Device" {
		t.Errorf("plug = %+v", plug)
	}
	if plug.Power != nil || plug.Mode != "" || plug.TempSet != nil || plug.TempCur != nil {
		t.Errorf("plug should have no optional fields: %+v", plug)
	}
	data, _ := json.Marshal(plug)
	for _, key := range []string{"power", "mode", "tempSet", "tempCur", "null"} {
		if strings.Contains(string(data), key) {
			t.Errorf("plug JSON %s contains %q", data, key)
		}
	}

	thermo := devs["thermo-1"]
	if thermo.Type != device.TypeDevice || thermo.Mode != "heat" {
		t.Errorf("thermostat = %+v", thermo)
	}
	if thermo.TempSet == nil || *thermo.TempSet != 21.5 {
		t.Errorf("thermostat tempSet = %v, want 21.5 from thermostatSetpoint", thermo.TempSet)
	}
	if thermo.TempCur != nil {
		t.Errorf("thermostat tempCur = %v, want absent for string value", *thermo.TempCur)
	}

	if devs["washer-1"].Mode != "rinse" {
		t.Errorf("washer mode = %q, want rinse", devs["washer-1"].Mode)
	}
}

func TestInferType_AlwaysKnown(t *testing.T) {
	caps := []string{
		capSwitch, capAirConditionerMode, capThermostatMode, capOperationMode,
		capTemperature, capCoolingSetpoint, capAirPurifierFanMode, capDustSensor, "battery",
	}
	// every subset of the capability list
	for mask := 0; mask < 1<<len(caps); mask++ {
		main := Component{}
		for i, c := range caps {
			if mask&(1<<i) != 0 {
				main[c] = Capability{}
			}
		}
		got := inferType(main)
		if !device.ValidType(got) {
			t.Fatalf("inferType(%v) = %q, not a valid type", main, got)
		}
		if main.Has(capAirConditionerMode) && got != device.TypeAC {
			t.Fatalf("inferType with airConditionerMode = %q, want ac", got)
		}
	}
}

func TestMode_Precedence(t *testing.T) {
	tests := []struct {
		name string
		main string
		want string
	}{
		{name: "ac wins", main: `{"airConditionerMode":{"airConditionerMode":{"value":"dry"}},"thermostatMode":{"thermostatMode":{"value":"heat"}}}`, want: "dry"},
		{name: "empty ac falls through", main: `{"airConditionerMode":{"airConditionerMode":{"value":""}},"thermostatMode":{"thermostatMode":{"value":"heat"}}}`, want: "heat"},
		{name: "direct operation mode", main: `{"operationMode":{"value":"eco"}}`, want: "eco"},
		{name: "none", main: `{}`, want: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var main Component
			if err := json.Unmarshal([]byte(tt.main), &main); err != nil {
				t.Fatalf("Unmarshal: %v", err)
			}
			if got := mode(main); got != tt.want {
				t.Errorf("mode() = %q, want %q", got, tt.want)
			}
		})
	}
}

// ─── Failure Tests ─────────────────────────────────────────────────

func TestFetchRooms_ListFailurePassthrough(t *testing.T) {
	f, srv := newRegistry(t)
	f.listStatus = http.StatusUnauthorized
	f.listBody = `{"requestId":"x","error":{"code":"UnauthorizedError"}}`

	_, err := newTestAdapter(srv.URL, "cloud-token").FetchRooms(context.Background())
	fl, ok := provider.AsFailure(err)
	if !ok {
		t.Fatalf("FetchRooms() error = %v, want *provider.Failure", err)
	}
	if fl.Kind != provider.KindUpstreamError || fl.Status != http.StatusUnauthorized || fl.Body != f.listBody {
		t.Errorf("Failure = %+v, want 401 passthrough", fl)
	}
	if f.statusCalls.Load() != 0 {
		t.Error("status endpoint should not be called after list failure")
	}
}

func TestFetchRooms_FailedStatusDropped(t *testing.T) {
	f, srv := newRegistry(t)
	f.devices = []map[string]any{
		{"deviceId": "ok-1", "label": "One"},
		{"deviceId": "bad-1", "label": "Two"},
		{"deviceId": "ok-2", "label": "Three"},
	}
	f.failStatus["bad-1"] = http.StatusInternalServerError
	f.statuses["ok-2"] = `not json`

	got, err := newTestAdapter(srv.URL, "cloud-token").FetchRooms(context.Background())
	if err != nil {
		t.Fatalf("FetchRooms() error = %v", err)
	}
	if len(got) != 1 || got[0].ID != "ok-1" {
		t.Errorf("FetchRooms() = %+v, want only ok-1", got)
	}
}

func TestFetchRooms_EmptyListing(t *testing.T) {
	_, srv := newRegistry(t)
	got, err := newTestAdapter(srv.URL, "cloud-token").FetchRooms(context.Background())
	if err != nil {
		t.Fatalf("FetchRooms() error = %v", err)
	}
	if got == nil || len(got) != 0 {
		t.Errorf("FetchRooms() = %#v, want empty slice", got)
	}
}

// ─── Concurrency Tests ─────────────────────────────────────────────

func TestFetchRooms_StatusConcurrencyBounded(t *testing.T) {
	for _, n := range []int{1, 5, 6, 13, 23} {
		t.Run(fmt.Sprintf("%d devices", n), func(t *testing.T) {
			f, srv := newRegistry(t)
			f.statusDelay = 20 * time.Millisecond
			for i := 0; i < n; i++ {
				f.devices = append(f.devices, map[string]any{"deviceId": fmt.Sprintf("d-%02d", i)})
			}

			got, err := newTestAdapter(srv.URL, "cloud-token").FetchRooms(context.Background())
			if err != nil {
				t.Fatalf("FetchRooms() error = %v", err)
			}
			if len(got) != n {
				t.Errorf("got %d devices, want %d", len(got), n)
			}
			if m := f.maxInFlight.Load(); m > statusConcurrency {
				t.Errorf("max in-flight status reads = %d, want <= %d", m, statusConcurrency)
			}
			if int(f.statusCalls.Load()) != n {
				t.Errorf("status calls = %d, want %d", f.statusCalls.Load(), n)
			}

			ids := make([]string, 0, len(got))
			for _, d := range got {
				ids = append(ids, d.ID)
			}
			if !sort.StringsAreSorted(ids) {
				t.Errorf("ids = %v, want listing order preserved", ids)
			}
		})
	}
}

func TestFetchRooms_ContextCancelled(t *testing.T) {
	f, srv := newRegistry(t)
	f.statusDelay = 200 * time.Millisecond
	f.devices = []map[string]any{{"deviceId": "a"}, {"deviceId": "b"}}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := newTestAdapter(srv.URL, "cloud-token").FetchRooms(ctx)
	if !errors.Is(err, provider.ErrUpstreamUnavailable) {
		t.Errorf("FetchRooms() error = %v, want ErrUpstreamUnavailable", err)
	}
}

// ─── Pagination Tests ──────────────────────────────────────────────

func TestListDevices_FollowsPagination(t *testing.T) {
	var mu sync.Mutex
	var seen []string
	var srv *httptest.Server
	srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		seen = append(seen, r.URL.String())
		mu.Unlock()
		switch r.URL.Query().Get("page") {
		case "":
			fmt.Fprintf(w, `{"items":[{"deviceId":"a"}],"_links":{"next":{"href":"%s/v1/devices?page=1"}}}`, srv.URL)
		case "1":
			w.Write([]byte(`{"items":[{"deviceId":"b"},{"deviceId":"a"}],"_links":{"next":{"href":"/v1/devices?page=2"}}}`))
		case "2":
			w.Write([]byte(`{"items":[{"deviceId":"c"},{"deviceId":""}],"_links":{"next":{"href":"https://elsewhere.example/v1/devices?page=3"}}}`))
		default:
			t.Errorf("unexpected page request %s", r.URL)
		}
	}))
	defer srv.Close()

	got, err := newTestAdapter(srv.URL, "cloud-token").Snapshot(context.Background())
	if err != nil {
		t.Fatalf("Snapshot() error = %v", err)
	}
	var ids []string
	for _, s := range got {
		ids = append(ids, s.ID)
	}
	if strings.Join(ids, ",") != "a,b,c" {
		t.Errorf("ids = %v, want a,b,c", ids)
	}
	if len(seen) != 3 {
		t.Errorf("requests = %v, want 3 pages", seen)
	}
}

// ─── Snapshot Tests ────────────────────────────────────────────────

func TestSnapshot(t *testing.T) {
	f, srv := newRegistry(t)
	f.devices = []map[string]any{
		{"deviceId": "1", "label": "AC", "room": map[string]any{"name": "Office"}, "profile": map[string]any{"name": "Samsung OCF Air Conditioner"}},
		{"deviceId": "2", "name": "Hub", "ocf": map[string]any{"deviceType": "oic.d.hub"}},
		{"deviceId": "3", "name": "Thing"},
	}

	got, err := newTestAdapter(srv.URL, "cloud-token").Snapshot(context.Background())
	if err != nil {
		t.Fatalf("Snapshot() error = %v", err)
	}
	want := []device.Summary{
		{ID: "1", Name: "AC", Room: "Office", Type: "Samsung OCF Air Conditioner"},
		{ID: "2", Name: "Hub", Room: "", Type: "oic.d.hub"},
		{ID: "3", Name: "Thing", Room: "", Type: "device"},
	}
	if len(got) != len(want) {
		t.Fatalf("Snapshot() = %+v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Snapshot()[%d] = %+v, want %+v", i, got[i], want[i])
		}
	}
	if f.statusCalls.Load() != 0 {
		t.Error("Snapshot() must not read device status")
	}
}
