package adapter

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

const cryptoPage = `<html><body>
<div class="job-list-item">
  <h2>Web3 Community Manager</h2>
  <a href="/jobs/web3-community-manager-at-chainco">View</a>
  <span class="company-name">ChainCo</span>
  <span class="salary">$60k - $80k</span>
</div>
<div class="job-list-item">
  <h3>Discord Moderator</h3>
  <a href="https://example.org/apply/42">Apply</a>
  <div class="company">ModGuild</div>
</div>
<div class="job-list-item">
  <a href="/jobs/untitled">Untitled</a>
</div>
</body></html>`

func TestCryptoJobsList_FetchJobs_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(cryptoPage))
	}))
	defer srv.Close()

	src := NewCryptoJobsListSource([]string{srv.URL}, 0, Options{Client: srv.Client()})
	jobs, err := src.FetchJobs(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(jobs) != 2 {
		t.Fatalf("expected 2 jobs, got %d", len(jobs))
	}

	j := jobs[0]
	if j.URL != "https://cryptojobslist.com/jobs/web3-community-manager-at-chainco" {
		t.Errorf("expected relative link prefixed, got %s", j.URL)
	}
	if j.Rate != "$60k - $80k" {
		t.Errorf("unexpected rate %q", j.Rate)
	}
	if j.Description != "Web3 Community Manager at ChainCo" {
		t.Errorf("unexpected description %q", j.Description)
	}
	if !strings.HasPrefix(j.ID, "crypto_") {
		t.Errorf("expected crypto_ prefix, got %s", j.ID)
	}

	j = jobs[1]
	if j.URL != "https://example.org/apply/42" {
		t.Errorf("expected absolute link kept, got %s", j.URL)
	}
	if j.Rate != "See posting" {
		t.Errorf("expected See posting sentinel, got %q", j.Rate)
	}
	if j.Description != "Discord Moderator at ModGuild" {
		t.Errorf("unexpected description %q", j.Description)
	}
}

func TestCryptoJobsList_IDIsStableAcrossFetches(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(cryptoPage))
	}))
	defer srv.Close()

	src := NewCryptoJobsListSource([]string{srv.URL}, 0, Options{Client: srv.Client()})
	first, err := src.FetchJobs(context.Background())
	if err != nil {
		t.Fatalf("first fetch: %v", err)
	}
	second, err := src.FetchJobs(context.Background())
	if err != nil {
		t.Fatalf("second fetch: %v", err)
	}
	for i := range first {
		if first[i].ID != second[i].ID {
			t.Errorf("ID changed between fetches: %s vs %s", first[i].ID, second[i].ID)
		}
	}
}
