// Package api implements the HTTP surface of roomdash.
//
// Routes:
//
//	GET /api/ping          liveness, {ok, at}
//	GET /api/health        build, runtime and provider configuration
//	GET /api/raw           raw hub entity state passthrough
//	GET /api/rooms         normalised RoomDevice array (hub, then cloud)
//	GET /api/st/snapshot   cloud device listing without status
//	GET /metrics           Prometheus exposition
//	GET /*                 dashboard assets with index.html fallback
//
// Every /api failure is a JSON object with an "error" field. Upstream
// non-2xx statuses are passed through with the upstream body in "detail".
//
// The server follows the same lifecycle pattern as other components:
//
//	server, err := api.New(deps)
//	server.Start(ctx)
//	defer server.Close()
package api
