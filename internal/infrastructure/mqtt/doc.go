// Package mqtt publishes roomdash device state to an MQTT broker.
//
// When enabled, every successful aggregation is published as retained
// messages so other home-automation consumers can follow the dashboard
// without polling the HTTP API:
//
//	{prefix}/status                 online/offline with last will
//	{prefix}/state/rooms            full RoomDevice array
//	{prefix}/state/device/{id}      one RoomDevice per device
//
// The connection is managed by paho with automatic reconnect. Publishing is
// best-effort: a disconnected broker never affects HTTP responses.
package mqtt
