// Package integrations provides the HTTP plumbing for upstream API clients.
//
// [Client] wraps net/http with the behavior every upstream client needs:
//
//   - JSON GET and POST helpers with default headers
//   - response caching through [cache.Cache] ([Client.Cached])
//   - retries of transient failures through [httputil.Retry]
//   - client-side rate limiting with golang.org/x/time/rate
//   - request and response events through [observability.HTTP]
//
// Non-2xx responses become errors that match one of [ErrNotFound],
// [ErrRateLimited], [ErrNetwork] or [ErrRejected] with errors.Is, and that
// carry the status and the service's detail message as an
// [errors.UpstreamError]. 5xx and 429 responses are marked retryable.
//
// The chemistry service client lives in the chemistry subpackage.
package integrations
