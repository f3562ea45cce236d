package hub

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/nerrad567/roomdash/internal/infrastructure/config"
	"github.com/nerrad567/roomdash/internal/provider"
)

var fixedNow = time.Date(2026, 7, 1, 12, 0, 0, 0, time.UTC)

func newTestAdapter(baseURL string, mutate ...func(*config.HubConfig)) *Adapter {
	cfg := config.HubConfig{BaseURL: baseURL, Token: "hub-token", EntityID: "climate.living_room"}
	for _, m := range mutate {
		m(&cfg)
	}
	return New(Deps{
		Config:   cfg,
		Defaults: config.DefaultsConfig{RoomName: "Living Room", DeviceName: "Air Conditioner"},
		Timeout:  2 * time.Second,
		Now:      func() time.Time { return fixedNow },
	})
}

func stateServer(t *testing.T, status int, body string) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		if r.URL.Path != "/api/states/climate.living_room" {
			t.Errorf("path = %q, want /api/states/climate.living_room", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer hub-token" {
			t.Errorf("Authorization = %q", got)
		}
		w.WriteHeader(status)
		w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv, &calls
}

// ─── Configuration Tests ───────────────────────────────────────────

func TestFetchRooms_Unconfigured(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*config.HubConfig)
	}{
		{name: "no base url", mutate: func(c *config.HubConfig) { c.BaseURL = "" }},
		{name: "no token", mutate: func(c *config.HubConfig) { c.Token = "" }},
		{name: "no entity", mutate: func(c *config.HubConfig) { c.EntityID = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, calls := stateServer(t, http.StatusOK, `{}`)
			a := newTestAdapter(srv.URL, tt.mutate)

			if a.Configured() {
				t.Error("Configured() = true, want false")
			}
			_, err := a.FetchRooms(context.Background())
			if !errors.Is(err, provider.ErrUnconfigured) {
				t.Errorf("FetchRooms() error = %v, want ErrUnconfigured", err)
			}
			if calls.Load() != 0 {
				t.Errorf("upstream called %d times, want 0", calls.Load())
			}
		})
	}
}

// ─── Mapping Tests ─────────────────────────────────────────────────

func TestFetchRooms_CoolExample(t *testing.T) {
	srv, _ := stateServer(t, http.StatusOK, `{
		"entity_id": "climate.living_room",
		"state": "cool",
		"attributes": {"temperature": 24, "current_temperature": 26}
	}`)
	a := newTestAdapter(srv.URL)

	got, err := a.FetchRooms(context.Background())
	if err != nil {
		t.Fatalf("FetchRooms() error = %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("len = %d, want 1", len(got))
	}

	data, err := json.Marshal(got)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	want := `[{"id":"climate.living_room","type":"ac","name":"Air Conditioner","room":"Living Room",` +
		`"power":true,"mode":"cool","tempSet":24,"tempCur":26,"updatedAt":"2026-07-01T12:00:00.000Z"}]`
	if string(data) != want {
		t.Errorf("JSON =\n%s\nwant\n%s", data, want)
	}
}

func TestFetchRooms_PowerFromState(t *testing.T) {
	tests := []struct {
		state string
		want  bool
	}{
		{state: "off", want: false},
		{state: "cool", want: true},
		{state: "heat", want: true},
		{state: "heat_cool", want: true},
		{state: "fan_only", want: true},
		{state: "unavailable", want: true},
	}

	for _, tt := range tests {
		t.Run(tt.state, func(t *testing.T) {
			srv, _ := stateServer(t, http.StatusOK, `{"state":"`+tt.state+`","attributes":{}}`)
			got, err := newTestAdapter(srv.URL).FetchRooms(context.Background())
			if err != nil {
				t.Fatalf("FetchRooms() error = %v", err)
			}
			if got[0].Power == nil || *got[0].Power != tt.want {
				t.Errorf("power = %v, want %v", got[0].Power, tt.want)
			}
			if got[0].Mode != tt.state {
				t.Errorf("mode = %q, want %q", got[0].Mode, tt.state)
			}
		})
	}
}

func TestFetchRooms_TemperaturesAbsentOrNonNumeric(t *testing.T) {
	srv, _ := stateServer(t, http.StatusOK, `{
		"state": "off",
		"attributes": {"temperature": "24", "current_temperature": null, "friendly_name": "Den AC"}
	}`)

	got, err := newTestAdapter(srv.URL).FetchRooms(context.Background())
	if err != nil {
		t.Fatalf("FetchRooms() error = %v", err)
	}
	d := got[0]
	if d.TempSet != nil {
		t.Errorf("tempSet = %v, want absent for string value", *d.TempSet)
	}
	if d.TempCur != nil {
		t.Errorf("tempCur = %v, want absent for null", *d.TempCur)
	}
	if d.Name != "Den AC" {
		t.Errorf("name = %q, want friendly_name", d.Name)
	}
}

func TestFetchRooms_NameFallsBackToEntity(t *testing.T) {
	srv, _ := stateServer(t, http.StatusOK, `{"state":"dry"}`)
	a := New(Deps{
		Config: config.HubConfig{BaseURL: srv.URL, Token: "hub-token", EntityID: "climate.living_room"},
		Now:    func() time.Time { return fixedNow },
	})

	got, err := a.FetchRooms(context.Background())
	if err != nil {
		t.Fatalf("FetchRooms() error = %v", err)
	}
	if got[0].Name != "climate.living_room" {
		t.Errorf("name = %q, want entity id", got[0].Name)
	}
	if got[0].Room != "" {
		t.Errorf("room = %q, want empty", got[0].Room)
	}
}

// ─── Failure Tests ─────────────────────────────────────────────────

func TestFetchRooms_UpstreamFailures(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   error
	}{
		{name: "server error", status: http.StatusInternalServerError, body: `oops`, want: provider.ErrUpstreamError},
		{name: "not found", status: http.StatusNotFound, body: `{"message":"Entity not found."}`, want: provider.ErrUpstreamError},
		{name: "garbage body", status: http.StatusOK, body: `not json`, want: provider.ErrMalformedResponse},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, _ := stateServer(t, tt.status, tt.body)
			_, err := newTestAdapter(srv.URL).FetchRooms(context.Background())
			if !errors.Is(err, tt.want) {
				t.Errorf("FetchRooms() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestRawState(t *testing.T) {
	body := `{"entity_id":"climate.living_room","state":"cool","attributes":{"hvac_modes":["off","cool"]}}`
	srv, _ := stateServer(t, http.StatusOK, body)

	raw, err := newTestAdapter(srv.URL).RawState(context.Background())
	if err != nil {
		t.Fatalf("RawState() error = %v", err)
	}
	if string(raw) != body {
		t.Errorf("RawState() = %s, want passthrough", raw)
	}
}

func TestRawState_Unconfigured(t *testing.T) {
	a := newTestAdapter("", func(c *config.HubConfig) { c.Token = "" })
	_, err := a.RawState(context.Background())
	if !errors.Is(err, provider.ErrUnconfigured) {
		t.Errorf("RawState() error = %v, want ErrUnconfigured", err)
	}
}

func TestEntityState_Number(t *testing.T) {
	var s EntityState
	if err := json.Unmarshal([]byte(`{"attributes":{"a":21.5,"b":-3,"c":"7","d":true,"e":[1]}}`), &s); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if v := s.Number("a"); v == nil || *v != 21.5 {
		t.Errorf("Number(a) = %v, want 21.5", v)
	}
	if v := s.Number("b"); v == nil || *v != -3 {
		t.Errorf("Number(b) = %v, want -3", v)
	}
	for _, k := range []string{"c", "d", "e", "missing"} {
		if v := s.Number(k); v != nil {
			t.Errorf("Number(%s) = %v, want nil", k, *v)
		}
	}
}
