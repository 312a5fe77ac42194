package adapter

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/amishk599/gigradar/internal/model"
)

const (
	cryptoName     = "cryptojobslist"
	cryptoPlatform = "CryptoJobsList"
	cryptoOrigin   = "https://cryptojobslist.com"
	cryptoMaxItems = 10
	cryptoRate     = "See posting"
)

// DefaultCryptoPages are the listing pages polled when none are configured.
var DefaultCryptoPages = []string{
	cryptoOrigin + "/community-manager",
	cryptoOrigin + "/discord",
}

// CryptoJobsListSource scrapes CryptoJobsList category pages. Its links carry
// no stable token, so IDs always come from the URL hash.
type CryptoJobsListSource struct {
	pages    []string
	maxItems int
	opts     Options
}

// NewCryptoJobsListSource creates a source over the given category pages.
func NewCryptoJobsListSource(pages []string, maxItems int, opts Options) *CryptoJobsListSource {
	if len(pages) == 0 {
		pages = DefaultCryptoPages
	}
	if maxItems <= 0 {
		maxItems = cryptoMaxItems
	}
	return &CryptoJobsListSource{pages: pages, maxItems: maxItems, opts: opts.withDefaults()}
}

// Name returns the source name.
func (s *CryptoJobsListSource) Name() string { return cryptoName }

// FetchJobs scrapes every category page.
func (s *CryptoJobsListSource) FetchJobs(ctx context.Context) ([]model.Job, error) {
	logger := s.opts.Logger.With("source", cryptoName)
	jobs, err := fetchAll(s.pages, func(page string) ([]model.Job, error) {
		return s.fetchPage(ctx, page)
	}, func(page string, err error) {
		logger.Warn("page fetch failed", "url", page, "error", err)
	})
	if err != nil {
		return nil, fmt.Errorf("cryptojobslist: all pages failed: %w", err)
	}
	logger.Debug("fetched jobs", "count", len(jobs))
	return jobs, nil
}

func (s *CryptoJobsListSource) fetchPage(ctx context.Context, page string) ([]model.Job, error) {
	body, err := s.opts.get(ctx, cryptoName, page)
	if err != nil {
		return nil, err
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("cryptojobslist parse %s: %w", page, err)
	}

	today := s.opts.Now().Format("2006-01-02")
	cards := doc.Find("div.job-list-item")
	var jobs []model.Job
	cards.Slice(0, min(cards.Length(), s.maxItems)).Each(func(_ int, card *goquery.Selection) {
		title := strings.TrimSpace(card.Find("h2").First().Text())
		if title == "" {
			title = strings.TrimSpace(card.Find("h3").First().Text())
		}
		href, ok := card.Find("a[href]").First().Attr("href")
		if title == "" || !ok {
			return
		}
		link := absoluteURL(cryptoOrigin, href)

		company := strings.TrimSpace(card.Find("span.company-name").First().Text())
		if company == "" {
			company = strings.TrimSpace(card.Find("div.company").First().Text())
		}
		if company == "" {
			company = "Unknown"
		}

		rate := strings.TrimSpace(card.Find("span.salary").First().Text())
		if rate == "" {
			rate = cryptoRate
		}

		jobs = appendValid(jobs, model.Job{
			ID:             hashID("crypto", link),
			Title:          title,
			Platform:       cryptoPlatform,
			URL:            link,
			Description:    fmt.Sprintf("%s at %s", title, company),
			Rate:           rate,
			ClientVerified: true,
			ClientSpent:    model.SpentNotApplicable,
			PostedDate:     today,
		})
	})
	return jobs, nil
}
