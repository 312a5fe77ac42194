package adapter

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/mmcdole/gofeed"

	"github.com/amishk599/gigradar/internal/model"
)

const (
	upworkName     = "upwork"
	upworkPlatform = "Upwork"
	upworkMaxItems = 5
)

// DefaultUpworkFeeds are the RSS searches polled when none are configured.
var DefaultUpworkFeeds = []string{
	"https://www.upwork.com/ab/feed/jobs/rss?q=discord+manager&sort=recency&paging=0%3B10",
	"https://www.upwork.com/ab/feed/jobs/rss?q=community+manager&sort=recency&paging=0%3B10",
	"https://www.upwork.com/ab/feed/jobs/rss?q=web3+community&sort=recency&paging=0%3B10",
}

var upworkJobToken = regexp.MustCompile(`/jobs/~?(\w+)`)

// UpworkSource reads job postings from Upwork RSS search feeds.
type UpworkSource struct {
	feeds    []string
	maxItems int
	opts     Options
}

// NewUpworkSource creates a source over the given feeds. Empty feeds select
// DefaultUpworkFeeds; maxItems <= 0 selects the default of 5 per feed.
func NewUpworkSource(feeds []string, maxItems int, opts Options) *UpworkSource {
	if len(feeds) == 0 {
		feeds = DefaultUpworkFeeds
	}
	if maxItems <= 0 {
		maxItems = upworkMaxItems
	}
	return &UpworkSource{feeds: feeds, maxItems: maxItems, opts: opts.withDefaults()}
}

// Name returns the source name.
func (s *UpworkSource) Name() string { return upworkName }

// FetchJobs polls every feed and normalizes the newest items of each.
func (s *UpworkSource) FetchJobs(ctx context.Context) ([]model.Job, error) {
	logger := s.opts.Logger.With("source", upworkName)
	jobs, err := fetchAll(s.feeds, func(feed string) ([]model.Job, error) {
		return s.fetchFeed(ctx, feed)
	}, func(feed string, err error) {
		logger.Warn("feed fetch failed", "url", feed, "error", err)
	})
	if err != nil {
		return nil, fmt.Errorf("upwork: all feeds failed: %w", err)
	}
	logger.Debug("fetched jobs", "count", len(jobs))
	return jobs, nil
}

func (s *UpworkSource) fetchFeed(ctx context.Context, feed string) ([]model.Job, error) {
	body, err := s.opts.get(ctx, upworkName, feed)
	if err != nil {
		return nil, err
	}

	parsed, err := gofeed.NewParser().Parse(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("upwork parse %s: %w", feed, err)
	}

	items := parsed.Items
	if len(items) > s.maxItems {
		items = items[:s.maxItems]
	}

	jobs := make([]model.Job, 0, len(items))
	for _, item := range items {
		jobs = appendValid(jobs, upworkJob(item))
	}
	return jobs, nil
}

func upworkJob(item *gofeed.Item) model.Job {
	link := strings.TrimSpace(item.Link)
	if link == "" && strings.HasPrefix(item.GUID, "http") {
		link = item.GUID
	}

	description := extractText(item.Description)

	rate, ok := extractRate(description)
	if !ok {
		rate = model.RateNotSpecified
	}

	posted := strings.TrimSpace(item.Published)
	if posted == "" {
		posted = "Unknown"
	}

	return model.Job{
		ID:             tokenID("upwork", upworkJobToken, link),
		Title:          strings.TrimSpace(item.Title),
		Platform:       upworkPlatform,
		URL:            link,
		Description:    description,
		Rate:           rate,
		ClientVerified: strings.Contains(strings.ToLower(description), "payment verified"),
		ClientSpent:    "Unknown",
		PostedDate:     posted,
	}
}
