// Package httputil provides HTTP helpers shared by the upstream clients.
//
// [Retry] re-runs an operation with exponential backoff, but only for errors
// wrapped in [RetryableError]. Clients wrap transient failures (connection
// errors, 5xx responses) and return everything else unwrapped, so a 404 or a
// validation error fails immediately.
//
// [ErrorDetail] extracts the human-readable message from an error response
// body. The chemistry service reports failures as {"detail": "..."}; the
// detail may also be a list of validation errors, each with a "msg" field.
package httputil
