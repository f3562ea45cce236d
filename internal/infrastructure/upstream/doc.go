// Package upstream is the shared outbound HTTP client used by provider
// adapters.
//
// Every call is a single bearer-authenticated GET bounded by a client
// timeout and the caller's context. Problems come back as *provider.Failure
// values so adapters can return them untouched:
//
//   - transport errors and timeouts: KindUpstreamUnavailable
//   - non-2xx responses: KindUpstreamError with status and body
//   - undecodable 2xx bodies: KindMalformedResponse
package upstream
