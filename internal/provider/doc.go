// Package provider defines the contract every upstream adapter satisfies and
// the aggregator that turns an ordered list of adapters into one answer.
//
// # Fallback policy
//
// The aggregator walks providers in priority order (hub first, cloud second)
// and makes exactly one attempt per provider per request. The first success
// wins. When every provider fails, the failure of the last provider attempted
// is returned, so with the default ordering the cloud's error is what the
// client sees.
//
// # Failures
//
// Adapters report problems as *Failure values carrying a Kind. Callers
// inspect them with errors.Is against the Err* sentinels or with AsFailure:
//
//	if errors.Is(err, provider.ErrUnconfigured) {
//	    // nothing is configured
//	}
package provider
