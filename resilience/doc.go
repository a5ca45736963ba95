// Package resilience provides retry with backoff and token-bucket rate
// limiting for calls to remote sources.
//
// Both compose with iterator fetch functions:
//
//	fetch := async.RetryFetch(resilience.DefaultRetryConfig(), pageFetch)
//	fetch = async.LimitFetch(resilience.NewLimiter(resilience.LimiterConfig{Rate: 5}), fetch)
//	it := async.FromFetch(ctx, fetch)
package resilience
