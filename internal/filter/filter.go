package filter

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/amishk599/gigradar/internal/model"
)

// KeywordFilter gates jobs before dedup and classification. A job passes
// when its title contains any include keyword, contains no exclude keyword,
// and neither title nor description contains a red-flag phrase.
// Matching ignores case and diacritics. Empty lists are treated as "match all".
type KeywordFilter struct {
	include  []string
	exclude  []string
	redFlags []string
}

// NewKeywordFilter returns a filter over normalized copies of the keyword lists.
func NewKeywordFilter(include, exclude, redFlags []string) *KeywordFilter {
	return &KeywordFilter{
		include:  normalizeAll(include),
		exclude:  normalizeAll(exclude),
		redFlags: normalizeAll(redFlags),
	}
}

// Match reports whether the job should continue through the pipeline.
func (f *KeywordFilter) Match(job model.Job) bool {
	title := normalize(job.Title)

	if len(f.include) > 0 && !containsAny(title, f.include) {
		return false
	}
	if containsAny(title, f.exclude) {
		return false
	}
	if len(f.redFlags) > 0 && containsAny(title+" "+normalize(job.Description), f.redFlags) {
		return false
	}
	return true
}

func containsAny(s string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(s, kw) {
			return true
		}
	}
	return false
}

// normalize lowercases s and strips combining marks, so "Gérant" matches "gerant".
func normalize(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		out = s
	}
	return strings.ToLower(strings.TrimSpace(out))
}

func normalizeAll(keywords []string) []string {
	out := make([]string, 0, len(keywords))
	for _, kw := range keywords {
		if n := normalize(kw); n != "" {
			out = append(out, n)
		}
	}
	return out
}
