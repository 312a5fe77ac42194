package adapter

import (
	"regexp"
	"strings"
	"testing"
	"time"
	"unicode/utf8"
)

func TestExtractRate(t *testing.T) {
	tests := []struct {
		in     string
		want   string
		wantOK bool
	}{
		{"Hourly Range: $35.00-$50.00/hr", "$35-$50/hr", true},
		{"Pays $30 - 45/hr", "$30-$45/hr", true},
		{"Rate: $40/hr", "$40-$40/hr", true},
		{"Fixed price $500", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		got, ok := extractRate(tt.in)
		if got != tt.want || ok != tt.wantOK {
			t.Errorf("extractRate(%q) = %q, %v; want %q, %v", tt.in, got, ok, tt.want, tt.wantOK)
		}
	}
}

func TestTokenID(t *testing.T) {
	re := regexp.MustCompile(`/(\d+)-`)
	if got := tokenID("wwr", re, "https://weworkremotely.com/remote-jobs/77-mod"); got != "wwr_77" {
		t.Errorf("expected wwr_77, got %s", got)
	}
	a := tokenID("wwr", re, "https://weworkremotely.com/remote-jobs/mod")
	b := tokenID("wwr", re, "https://weworkremotely.com/remote-jobs/mod")
	if a != b {
		t.Errorf("hash fallback not deterministic: %s vs %s", a, b)
	}
	if !strings.HasPrefix(a, "wwr_") {
		t.Errorf("expected wwr_ prefix, got %s", a)
	}
}

func TestTruncate_CountsRunes(t *testing.T) {
	s := strings.Repeat("é", 600)
	got := truncate(s, 500)
	if n := utf8.RuneCountInString(got); n != 500 {
		t.Errorf("expected 500 runes, got %d", n)
	}
	if !utf8.ValidString(got) {
		t.Error("truncate produced invalid UTF-8")
	}
	if truncate("short", 500) != "short" {
		t.Error("short strings must pass through")
	}
}

func TestExtractText(t *testing.T) {
	got := extractText("&lt;p&gt;Hello&lt;/p&gt;<br/>  world")
	if got != "Hello world" {
		t.Errorf("extractText = %q", got)
	}
}

func TestParseRetryAfter(t *testing.T) {
	if got := parseRetryAfter("120"); got != 120*time.Second {
		t.Errorf("expected 120s, got %v", got)
	}
	if got := parseRetryAfter("Wed, 21 Oct 2015 07:28:00 GMT"); got != 0 {
		t.Errorf("expected 0 for HTTP-date, got %v", got)
	}
	if got := parseRetryAfter(""); got != 0 {
		t.Errorf("expected 0 for empty, got %v", got)
	}
}
