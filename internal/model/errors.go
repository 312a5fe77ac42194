package model

import (
	"fmt"
	"net/http"
	"time"
)

// HTTPError is a non-200 answer from a job board endpoint.
type HTTPError struct {
	Source     string
	URL        string
	StatusCode int
	RetryAfter time.Duration // from Retry-After header, zero if absent
}

func (e *HTTPError) Error() string {
	if e.Source == "" {
		return fmt.Sprintf("HTTP %d", e.StatusCode)
	}
	return fmt.Sprintf("%s fetch %s: HTTP %d", e.Source, e.URL, e.StatusCode)
}

// Temporary reports whether the board may answer differently later
// (rate limited or a server-side failure).
func (e *HTTPError) Temporary() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500
}
