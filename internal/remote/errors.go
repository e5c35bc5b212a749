package remote

import "fmt"

// RemoteError is a transient network/timeout failure; callers retry next tick.
type RemoteError struct{ Err error }

func (e *RemoteError) Error() string { return fmt.Sprintf("remote: %v", e.Err) }
func (e *RemoteError) Unwrap() error { return e.Err }

// AuthError is a 401/403 response; fatal, the process exits.
type AuthError struct{ StatusCode int }

func (e *AuthError) Error() string { return fmt.Sprintf("remote: auth error (status %d)", e.StatusCode) }

// NotFoundError is a 404 response.
type NotFoundError struct{ Path string }

func (e *NotFoundError) Error() string { return fmt.Sprintf("remote: not found: %s", e.Path) }

// RateLimitedError is a 429 response; retried with backoff.
type RateLimitedError struct{ RetryAfter string }

func (e *RateLimitedError) Error() string { return "remote: rate limited" }

// RemoteServerError is a 5xx response; retried.
type RemoteServerError struct{ StatusCode int }

func (e *RemoteServerError) Error() string {
	return fmt.Sprintf("remote: server error (status %d)", e.StatusCode)
}
