// Package cloud adapts the cloud device registry into roomdash devices.
//
// A room fetch is one device listing followed by one status read per
// device:
//
//	GET /v1/devices
//	GET /v1/devices/{deviceId}/status   (at most 5 in flight)
//
// Status reads that fail are dropped from the result; only a failing listing
// fails the whole fetch. Device type, power, mode and temperatures are
// inferred from the capabilities present on the device's "main" component.
package cloud
