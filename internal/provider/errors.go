package provider

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies why a provider did not produce devices.
type Kind int

// Failure kinds.
const (
	// KindUnconfigured means required settings are absent. No network call
	// was made.
	KindUnconfigured Kind = iota + 1

	// KindMissingCredential means the bearer token is absent. No network
	// call was made.
	KindMissingCredential

	// KindUpstreamUnavailable means the upstream could not be reached
	// (connect error, timeout, cancelled request).
	KindUpstreamUnavailable

	// KindUpstreamError means the upstream answered with a non-2xx status.
	KindUpstreamError

	// KindMalformedResponse means the upstream answered 2xx with a body
	// that could not be decoded.
	KindMalformedResponse
)

// Sentinel errors matching each Kind via errors.Is.
var (
	ErrUnconfigured        = errors.New("provider: not configured")
	ErrMissingCredential   = errors.New("provider: missing credential")
	ErrUpstreamUnavailable = errors.New("provider: upstream unavailable")
	ErrUpstreamError       = errors.New("provider: upstream error")
	ErrMalformedResponse   = errors.New("provider: malformed response")
)

// String returns the metric/log label for k.
func (k Kind) String() string {
	switch k {
	case KindUnconfigured:
		return "unconfigured"
	case KindMissingCredential:
		return "missing_credential"
	case KindUpstreamUnavailable:
		return "unavailable"
	case KindUpstreamError:
		return "upstream_error"
	case KindMalformedResponse:
		return "malformed"
	default:
		return "unknown"
	}
}

func (k Kind) sentinel() error {
	switch k {
	case KindUnconfigured:
		return ErrUnconfigured
	case KindMissingCredential:
		return ErrMissingCredential
	case KindUpstreamUnavailable:
		return ErrUpstreamUnavailable
	case KindUpstreamError:
		return ErrUpstreamError
	case KindMalformedResponse:
		return ErrMalformedResponse
	default:
		return nil
	}
}

// Failure describes a provider attempt that produced no devices.
type Failure struct {
	Provider string
	Kind     Kind
	Status   int    // Upstream HTTP status, KindUpstreamError only
	Body     string // Upstream response body, KindUpstreamError only
	Err      error  // Underlying cause, may be nil
}

func (f *Failure) Error() string {
	msg := fmt.Sprintf("%s: %s", f.Provider, f.Kind)
	if f.Status != 0 {
		msg += fmt.Sprintf(" (status %d)", f.Status)
	}
	if f.Err != nil {
		msg += ": " + f.Err.Error()
	}
	return msg
}

// Unwrap exposes the kind sentinel and the underlying cause. A missing
// credential is also a form of ErrUnconfigured.
func (f *Failure) Unwrap() []error {
	errs := make([]error, 0, 3)
	if s := f.Kind.sentinel(); s != nil {
		errs = append(errs, s)
	}
	if f.Kind == KindMissingCredential {
		errs = append(errs, ErrUnconfigured)
	}
	if f.Err != nil {
		errs = append(errs, f.Err)
	}
	return errs
}

// NotConfigured reports whether the failure happened before any network
// call because settings or credentials were absent.
func (f *Failure) NotConfigured() bool {
	return f.Kind == KindUnconfigured || f.Kind == KindMissingCredential
}

// HTTPStatus maps the failure onto the status the API layer should answer
// with. Upstream non-2xx statuses pass through unchanged.
func (f *Failure) HTTPStatus() int {
	switch f.Kind {
	case KindUpstreamError:
		if f.Status >= 400 && f.Status <= 599 {
			return f.Status
		}
		return http.StatusBadGateway
	case KindUpstreamUnavailable, KindMalformedResponse:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// AsFailure extracts a *Failure from err.
func AsFailure(err error) (*Failure, bool) {
	var f *Failure
	if errors.As(err, &f) {
		return f, true
	}
	return nil, false
}

// Unconfigured builds a KindUnconfigured failure.
func Unconfigured(provider, reason string) *Failure {
	return &Failure{Provider: provider, Kind: KindUnconfigured, Err: errors.New(reason)}
}

// MissingCredential builds a KindMissingCredential failure.
func MissingCredential(provider, reason string) *Failure {
	return &Failure{Provider: provider, Kind: KindMissingCredential, Err: errors.New(reason)}
}

// Unavailable builds a KindUpstreamUnavailable failure.
func Unavailable(provider string, err error) *Failure {
	return &Failure{Provider: provider, Kind: KindUpstreamUnavailable, Err: err}
}

// UpstreamStatus builds a KindUpstreamError failure carrying the upstream
// status and body.
func UpstreamStatus(provider string, status int, body string) *Failure {
	return &Failure{Provider: provider, Kind: KindUpstreamError, Status: status, Body: body}
}

// Malformed builds a KindMalformedResponse failure.
func Malformed(provider string, err error) *Failure {
	return &Failure{Provider: provider, Kind: KindMalformedResponse, Err: err}
}
