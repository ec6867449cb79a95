// Package throttle rate-limits outbound requests with a token bucket
// from [golang.org/x/time/rate], applied as an [http.RoundTripper].
//
// Requests within the burst pass straight through. Later ones wait for
// their token, or fail with [ErrWaitingFailed] when the wait would
// outlast the request's context.
package throttle
