package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/amishk599/gigradar/internal/model"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func sampleJob() model.Job {
	return model.Job{
		ID:             "upwork_1",
		Title:          "Discord Community Manager",
		Platform:       "Upwork",
		URL:            "https://www.upwork.com/jobs/~01abc",
		Rate:           "$35-$35/hr",
		ClientVerified: true,
	}
}

func sampleVerdict() model.Classification {
	return model.Classification{
		Score:    100,
		Priority: model.PriorityHigh,
		RedFlags: []string{"Vague scope", "Asks for Telegram", "Third flag"},
		WhyMatch: "Discord-heavy community role",
		JobType:  "Community Manager",
		Strategy: model.StrategyAI,
	}
}

func TestSlackNotifier_SingleJob(t *testing.T) {
	var body []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	n := NewSlackNotifier(srv.URL, srv.Client(), discardLogger())
	if err := n.Notify(context.Background(), sampleJob(), sampleVerdict()); err != nil {
		t.Fatalf("Notify() = %v, want nil", err)
	}

	var payload slackPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		t.Fatalf("unmarshal payload: %v", err)
	}

	header := payload.Blocks[0]
	if header.Text.Text != "🔥 Discord Community Manager (100/100)" {
		t.Errorf("header text = %q", header.Text.Text)
	}
	if payload.Blocks[1].Fields[0].Text != "*Rate:*\n$35-$35/hr" {
		t.Errorf("rate field = %q", payload.Blocks[1].Fields[0].Text)
	}

	why := payload.Blocks[3].Text.Text
	if !strings.Contains(why, "Vague scope, Asks for Telegram") || strings.Contains(why, "Third flag") {
		t.Errorf("expected two red flags in %q", why)
	}

	button := payload.Blocks[4].Elements[0]
	if button.URL != "https://www.upwork.com/jobs/~01abc" {
		t.Errorf("button URL = %q", button.URL)
	}
}

func TestSlackNotifier_Non200(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	n := NewSlackNotifier(srv.URL, srv.Client(), discardLogger())
	if err := n.Notify(context.Background(), sampleJob(), sampleVerdict()); err == nil {
		t.Fatal("expected error on 403")
	}
}

func TestSlackNotifier_RetriesOnceOn429(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.Header().Set("Retry-After", "1")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	n := NewSlackNotifier(srv.URL, srv.Client(), discardLogger())
	if err := n.Notify(context.Background(), sampleJob(), sampleVerdict()); err != nil {
		t.Fatalf("Notify() = %v, want nil", err)
	}
	if c := calls.Load(); c != 2 {
		t.Errorf("expected 2 calls, got %d", c)
	}
}

func TestSlackNotifier_429CancelledWhileWaiting(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "30")
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	n := NewSlackNotifier(srv.URL, srv.Client(), discardLogger())
	done := make(chan error, 1)
	go func() { done <- n.Notify(ctx, sampleJob(), sampleVerdict()) }()
	cancel()

	if err := <-done; err == nil {
		t.Fatal("expected error after cancellation")
	}
}

func TestLogNotifier_Notify(t *testing.T) {
	var buf bytes.Buffer
	n := NewLogNotifier(slog.New(slog.NewTextHandler(&buf, nil)))

	if err := n.Notify(context.Background(), sampleJob(), sampleVerdict()); err != nil {
		t.Errorf("Notify() = %v, want nil", err)
	}
	out := buf.String()
	for _, want := range []string{"job alert", "job_id=upwork_1", "score=100", "priority=high"} {
		if !strings.Contains(out, want) {
			t.Errorf("log output missing %q: %s", want, out)
		}
	}
}

func TestSendTestMessage(t *testing.T) {
	rec := &recordingNotifier{}
	if err := SendTestMessage(context.Background(), rec); err != nil {
		t.Fatalf("SendTestMessage: %v", err)
	}
	if rec.calls != 1 || rec.last.Priority != model.PriorityHigh {
		t.Errorf("expected one high-priority alert, got %d calls (%+v)", rec.calls, rec.last)
	}
}

type recordingNotifier struct {
	calls int
	last  model.Classification
}

func (r *recordingNotifier) Notify(_ context.Context, _ model.Job, c model.Classification) error {
	r.calls++
	r.last = c
	return nil
}
