package adapter

import (
	"errors"
	"fmt"
	"hash/fnv"
	"html"
	"net/url"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/amishk599/gigradar/internal/model"
)

var (
	htmlTagRegex = regexp.MustCompile(`<[^>]*>`)
	hourlyRate   = regexp.MustCompile(`\$(\d+)\.?\d*\s*-?\s*\$?(\d+)?\.?\d*/hr`)
)

// extractText converts an HTML or HTML-encoded string to plain text.
// It unescapes entities, strips all tags, then collapses whitespace.
func extractText(content string) string {
	unescaped := html.UnescapeString(content)
	plain := htmlTagRegex.ReplaceAllString(unescaped, " ")
	return strings.Join(strings.Fields(plain), " ")
}

// extractRate finds an hourly rate such as "$30-50/hr" in free text and
// formats it as "$30-$50/hr". A single figure is repeated as both bounds.
func extractRate(text string) (string, bool) {
	m := hourlyRate.FindStringSubmatch(text)
	if m == nil {
		return "", false
	}
	high := m[2]
	if high == "" {
		high = m[1]
	}
	return fmt.Sprintf("$%s-$%s/hr", m[1], high), true
}

// tokenID returns prefix_<token> when re captures a token in link,
// otherwise prefix_<hash of link>.
func tokenID(prefix string, re *regexp.Regexp, link string) string {
	if re != nil {
		if m := re.FindStringSubmatch(link); len(m) > 1 && m[1] != "" {
			return prefix + "_" + m[1]
		}
	}
	return hashID(prefix, link)
}

// hashID is the lossy fallback ID: fnv-32a of the link, reduced to six digits.
func hashID(prefix, link string) string {
	h := fnv.New32a()
	h.Write([]byte(link))
	return fmt.Sprintf("%s_%d", prefix, h.Sum32()%1_000_000)
}

// truncate cuts s to at most n runes.
func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return string(r[:n])
}

// absoluteURL resolves href against base; absolute hrefs pass through.
func absoluteURL(base, href string) string {
	href = strings.TrimSpace(href)
	if strings.HasPrefix(href, "http://") || strings.HasPrefix(href, "https://") {
		return href
	}
	b, err := url.Parse(base)
	if err != nil {
		return base + href
	}
	ref, err := url.Parse(href)
	if err != nil {
		return base + href
	}
	return b.ResolveReference(ref).String()
}

// appendValid normalizes job and appends it unless it lacks an ID, title or URL.
func appendValid(jobs []model.Job, job model.Job) []model.Job {
	if job.Validate() != nil {
		return jobs
	}
	job.Description = truncate(job.Description, model.MaxDescriptionLen)
	return append(jobs, job)
}

// fetchAll runs fetch for every endpoint. Failing endpoints are logged and
// skipped; an error is returned only when every endpoint failed.
func fetchAll(endpoints []string, fetch func(endpoint string) ([]model.Job, error), onErr func(endpoint string, err error)) ([]model.Job, error) {
	var jobs []model.Job
	var errs []error
	for _, endpoint := range endpoints {
		found, err := fetch(endpoint)
		if err != nil {
			onErr(endpoint, err)
			errs = append(errs, err)
			continue
		}
		jobs = append(jobs, found...)
	}
	if len(endpoints) > 0 && len(errs) == len(endpoints) {
		return nil, errors.Join(errs...)
	}
	return jobs, nil
}
