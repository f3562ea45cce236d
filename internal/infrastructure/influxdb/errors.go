package influxdb

import "errors"

var (
	// ErrDisabled is returned by Connect when climate history is switched off.
	ErrDisabled = errors.New("influxdb: disabled in configuration")

	// ErrUnreachable wraps ping failures at connect and health-check time.
	ErrUnreachable = errors.New("influxdb: server unreachable")

	// ErrClosed is returned once the recorder has been closed.
	ErrClosed = errors.New("influxdb: recorder closed")
)
