package adapter

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/amishk599/gigradar/internal/model"
)

const (
	wwrName     = "weworkremotely"
	wwrPlatform = "We Work Remotely"
	wwrOrigin   = "https://weworkremotely.com"
	wwrMaxItems = 10
	wwrRate     = "See job posting"
)

// DefaultWWRSearches are the search pages polled when none are configured.
var DefaultWWRSearches = []string{
	wwrOrigin + "/remote-jobs/search?term=community+manager",
	wwrOrigin + "/remote-jobs/search?term=discord",
}

var wwrJobToken = regexp.MustCompile(`/(\d+)-`)

// WeWorkRemotelySource scrapes We Work Remotely search result pages.
type WeWorkRemotelySource struct {
	pages    []string
	maxItems int
	opts     Options
}

// NewWeWorkRemotelySource creates a source over the given search pages.
func NewWeWorkRemotelySource(pages []string, maxItems int, opts Options) *WeWorkRemotelySource {
	if len(pages) == 0 {
		pages = DefaultWWRSearches
	}
	if maxItems <= 0 {
		maxItems = wwrMaxItems
	}
	return &WeWorkRemotelySource{pages: pages, maxItems: maxItems, opts: opts.withDefaults()}
}

// Name returns the source name.
func (s *WeWorkRemotelySource) Name() string { return wwrName }

// FetchJobs scrapes every search page.
func (s *WeWorkRemotelySource) FetchJobs(ctx context.Context) ([]model.Job, error) {
	logger := s.opts.Logger.With("source", wwrName)
	jobs, err := fetchAll(s.pages, func(page string) ([]model.Job, error) {
		return s.fetchPage(ctx, page)
	}, func(page string, err error) {
		logger.Warn("page fetch failed", "url", page, "error", err)
	})
	if err != nil {
		return nil, fmt.Errorf("weworkremotely: all pages failed: %w", err)
	}
	logger.Debug("fetched jobs", "count", len(jobs))
	return jobs, nil
}

func (s *WeWorkRemotelySource) fetchPage(ctx context.Context, page string) ([]model.Job, error) {
	body, err := s.opts.get(ctx, wwrName, page)
	if err != nil {
		return nil, err
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("weworkremotely parse %s: %w", page, err)
	}

	today := s.opts.Now().Format("2006-01-02")
	var jobs []model.Job
	items := doc.Find("li.feature")
	items.Slice(0, min(items.Length(), s.maxItems)).Each(func(_ int, li *goquery.Selection) {
		title := strings.TrimSpace(li.Find("span.title").First().Text())
		href, ok := li.Find("a[href]").First().Attr("href")
		if title == "" || !ok {
			return
		}
		link := absoluteURL(wwrOrigin, href)

		company := strings.TrimSpace(li.Find("span.company").First().Text())
		if company == "" {
			company = "Unknown"
		}

		jobs = appendValid(jobs, model.Job{
			ID:             tokenID("wwr", wwrJobToken, link),
			Title:          title,
			Platform:       wwrPlatform,
			URL:            link,
			Description:    fmt.Sprintf("%s at %s", title, company),
			Rate:           wwrRate,
			ClientVerified: true,
			ClientSpent:    model.SpentNotApplicable,
			PostedDate:     today,
		})
	})
	return jobs, nil
}
