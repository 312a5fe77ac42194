package adapter

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/amishk599/gigradar/internal/model"
)

// DefaultTimeout bounds each endpoint request.
const DefaultTimeout = 15 * time.Second

// maxBodyBytes caps how much of a listing page is read.
const maxBodyBytes = 4 << 20

// Waiter paces consecutive requests to one source.
type Waiter interface {
	Wait(ctx context.Context, source string) error
}

// Options carries the collaborators shared by every adapter.
type Options struct {
	Client    *http.Client
	UserAgent string
	Limiter   Waiter // optional
	Logger    *slog.Logger
	Now       func() time.Time // stamps PostedDate on boards without dates
}

func (o Options) withDefaults() Options {
	if o.Client == nil {
		o.Client = &http.Client{Timeout: DefaultTimeout}
	}
	if o.UserAgent == "" {
		o.UserAgent = "gigradar (+job-alerts)"
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	if o.Logger == nil {
		o.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return o
}

// get waits for the source's polite delay, then fetches url and returns the body.
// Non-200 responses become *model.HTTPError.
func (o Options) get(ctx context.Context, source, url string) ([]byte, error) {
	if o.Limiter != nil {
		if err := o.Limiter.Wait(ctx, source); err != nil {
			return nil, err
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%s fetch %s: %w", source, url, err)
	}
	req.Header.Set("User-Agent", o.UserAgent)

	resp, err := o.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s fetch %s: %w", source, url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &model.HTTPError{
			Source:     source,
			URL:        url,
			StatusCode: resp.StatusCode,
			RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After")),
		}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("%s read %s: %w", source, url, err)
	}
	return body, nil
}

// parseRetryAfter parses the Retry-After header value into a duration.
// Supports seconds format (e.g. "120"). Returns zero if absent or unparseable.
func parseRetryAfter(value string) time.Duration {
	if value == "" {
		return 0
	}
	seconds, err := strconv.Atoi(value)
	if err != nil {
		return 0
	}
	return time.Duration(seconds) * time.Second
}
