package ai

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/amishk599/gigradar/internal/model"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeProvider records the prompt and returns a canned reply.
type fakeProvider struct {
	reply  string
	err    error
	prompt string
	block  bool
}

func (f *fakeProvider) Complete(ctx context.Context, prompt string) (string, error) {
	f.prompt = prompt
	if f.block {
		<-ctx.Done()
		return "", ctx.Err()
	}
	return f.reply, f.err
}

var testJob = model.Job{
	ID:             "upwork_1",
	Title:          "Discord Community Manager",
	Platform:       "Upwork",
	URL:            "https://www.upwork.com/jobs/~1",
	Description:    "Moderate and grow a web3 Discord server.",
	Rate:           "$35-$35/hr",
	ClientVerified: true,
}

func TestClassify_Success(t *testing.T) {
	p := &fakeProvider{reply: `{"score":88,"priority":"high","is_scam":false,"why_match":"Discord fit","red_flags":[],"job_type":"Community Manager"}`}
	c := NewLLMClassifier(p, JobClassificationTemplate, "Six years running Discord servers.", 0, discardLogger())

	got, err := c.Classify(context.Background(), testJob)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Score != 88 || got.Priority != model.PriorityHigh || got.IsScam {
		t.Errorf("unexpected verdict %+v", got)
	}
	if got.Strategy != model.StrategyAI {
		t.Errorf("expected ai strategy, got %s", got.Strategy)
	}
	if got.JobType != "Community Manager" {
		t.Errorf("unexpected job type %q", got.JobType)
	}

	for _, want := range []string{"Discord Community Manager", "$35-$35/hr", "Payment Verified", "Six years running Discord servers.", "Unknown"} {
		if !strings.Contains(p.prompt, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
}

func TestClassify_UnverifiedPrompt(t *testing.T) {
	p := &fakeProvider{reply: `{"score":40}`}
	c := NewLLMClassifier(p, JobClassificationTemplate, "", 0, discardLogger())

	job := testJob
	job.ClientVerified = false
	if _, err := c.Classify(context.Background(), job); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(p.prompt, "Not Verified") {
		t.Error("prompt should mark client as Not Verified")
	}
}

func TestClassify_ProviderError(t *testing.T) {
	p := &fakeProvider{err: errors.New("connection refused")}
	c := NewLLMClassifier(p, JobClassificationTemplate, "", 0, discardLogger())

	if _, err := c.Classify(context.Background(), testJob); err == nil {
		t.Fatal("expected error")
	}
}

func TestClassify_Timeout(t *testing.T) {
	p := &fakeProvider{block: true}
	c := NewLLMClassifier(p, JobClassificationTemplate, "", 20*time.Millisecond, discardLogger())

	_, err := c.Classify(context.Background(), testJob)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
}

func TestClassify_MalformedResponse(t *testing.T) {
	p := &fakeProvider{reply: "I think this job is great!"}
	c := NewLLMClassifier(p, JobClassificationTemplate, "", 0, discardLogger())

	if _, err := c.Classify(context.Background(), testJob); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestParseClassification(t *testing.T) {
	tests := []struct {
		name         string
		raw          string
		wantScore    int
		wantPriority model.Priority
		wantFlags    int
		wantErr      bool
	}{
		{
			name:         "json fence",
			raw:          "```json\n{\"score\": 75, \"priority\": \"high\", \"red_flags\": []}\n```",
			wantScore:    75,
			wantPriority: model.PriorityHigh,
		},
		{
			name:         "bare fence",
			raw:          "```\n{\"score\": 55, \"priority\": \"medium\"}\n```",
			wantScore:    55,
			wantPriority: model.PriorityMedium,
		},
		{
			name:         "uppercase fence tag",
			raw:          "```JSON\n{\"score\": 80, \"priority\": \"high\"}\n```",
			wantScore:    80,
			wantPriority: model.PriorityHigh,
		},
		{
			name:         "javascript fence tag",
			raw:          "```javascript\n{\"score\": 52, \"priority\": \"medium\"}\n```",
			wantScore:    52,
			wantPriority: model.PriorityMedium,
		},
		{
			name:         "single line fence",
			raw:          "```json {\"score\": 40, \"priority\": \"low\"}```",
			wantScore:    40,
			wantPriority: model.PriorityLow,
		},
		{
			name:         "score clamped",
			raw:          `{"score": 140, "priority": "high"}`,
			wantScore:    100,
			wantPriority: model.PriorityHigh,
		},
		{
			name:         "unknown priority derived from score",
			raw:          `{"score": 72, "priority": "urgent"}`,
			wantScore:    72,
			wantPriority: model.PriorityHigh,
		},
		{
			name:         "missing priority derived from score",
			raw:          `{"score": 12}`,
			wantScore:    12,
			wantPriority: model.PrioritySkip,
		},
		{
			name:         "priority case normalized",
			raw:          `{"score": 60, "priority": "LOW"}`,
			wantScore:    60,
			wantPriority: model.PriorityLow,
		},
		{
			name:         "blank red flags dropped",
			raw:          `{"score": 30, "priority": "skip", "red_flags": ["", " vague scope ", "  "]}`,
			wantScore:    30,
			wantPriority: model.PrioritySkip,
			wantFlags:    1,
		},
		{
			name:    "empty",
			raw:     "   ",
			wantErr: true,
		},
		{
			name:    "missing score",
			raw:     `{"priority": "high"}`,
			wantErr: true,
		},
		{
			name:    "not json",
			raw:     "```json\nnope\n```",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseClassification(tt.raw)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %+v", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got.Score != tt.wantScore {
				t.Errorf("score = %d, want %d", got.Score, tt.wantScore)
			}
			if got.Priority != tt.wantPriority {
				t.Errorf("priority = %s, want %s", got.Priority, tt.wantPriority)
			}
			if len(got.RedFlags) != tt.wantFlags {
				t.Errorf("red flags = %v, want %d", got.RedFlags, tt.wantFlags)
			}
		})
	}
}
