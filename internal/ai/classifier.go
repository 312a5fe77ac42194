package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"text/template"
	"time"

	"github.com/amishk599/gigradar/internal/model"
	"github.com/amishk599/gigradar/internal/triage"
)

// ErrEmptyResponse is returned when the model replies with no content.
var ErrEmptyResponse = errors.New("empty llm response")

// LLMClassifier scores jobs with an LLM. It implements triage.Strategy and
// is meant to be wrapped by triage.Resilient, which absorbs its errors.
type LLMClassifier struct {
	provider LLMProvider
	tmpl     *template.Template
	profile  string
	timeout  time.Duration
	logger   *slog.Logger
}

// NewLLMClassifier creates a classifier that renders tmpl for each job.
// A zero timeout leaves the caller's deadline in charge.
func NewLLMClassifier(provider LLMProvider, tmpl *template.Template, profile string, timeout time.Duration, logger *slog.Logger) *LLMClassifier {
	return &LLMClassifier{
		provider: provider,
		tmpl:     tmpl,
		profile:  profile,
		timeout:  timeout,
		logger:   logger,
	}
}

// promptData is what the prompt template sees.
type promptData struct {
	Profile      string
	Title        string
	Platform     string
	Rate         string
	Verification string
	ClientSpent  string
	Proposals    int
	Description  string
}

// Classify renders the prompt, calls the provider and parses its verdict.
func (c *LLMClassifier) Classify(ctx context.Context, job model.Job) (model.Classification, error) {
	verification := "Not Verified"
	if job.ClientVerified {
		verification = "Payment Verified"
	}
	spent := job.ClientSpent
	if spent == "" {
		spent = "Unknown"
	}

	var prompt bytes.Buffer
	if err := c.tmpl.Execute(&prompt, promptData{
		Profile:      c.profile,
		Title:        job.Title,
		Platform:     job.Platform,
		Rate:         job.Rate,
		Verification: verification,
		ClientSpent:  spent,
		Proposals:    job.Proposals,
		Description:  truncateRunes(job.Description, model.MaxDescriptionLen),
	}); err != nil {
		return model.Classification{}, fmt.Errorf("render prompt: %w", err)
	}

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	raw, err := c.provider.Complete(ctx, prompt.String())
	if err != nil {
		return model.Classification{}, fmt.Errorf("llm complete: %w", err)
	}

	verdict, err := parseClassification(raw)
	if err != nil {
		return model.Classification{}, fmt.Errorf("parse classification: %w", err)
	}

	c.logger.Debug("ai classified job",
		"job_id", job.ID,
		"score", verdict.Score,
		"priority", verdict.Priority,
	)
	return verdict, nil
}

// rawClassification is the JSON shape requested in the prompt.
type rawClassification struct {
	Score    *float64 `json:"score"`
	Priority string   `json:"priority"`
	IsScam   bool     `json:"is_scam"`
	WhyMatch string   `json:"why_match"`
	RedFlags []string `json:"red_flags"`
	JobType  string   `json:"job_type"`
}

// parseClassification strips an optional code fence, decodes the object and
// normalizes it: score clamped, unknown priority derived from the score,
// blank red flags dropped.
func parseClassification(raw string) (model.Classification, error) {
	text := stripCodeFence(raw)
	if text == "" {
		return model.Classification{}, ErrEmptyResponse
	}

	var rc rawClassification
	if err := json.Unmarshal([]byte(text), &rc); err != nil {
		return model.Classification{}, fmt.Errorf("unmarshal classification JSON: %w", err)
	}
	if rc.Score == nil {
		return model.Classification{}, errors.New("classification has no score")
	}

	score := triage.Clamp(int(math.Round(*rc.Score)))
	priority := model.Priority(strings.ToLower(strings.TrimSpace(rc.Priority)))
	if !priority.Valid() {
		priority = triage.PriorityForScore(score)
	}

	flags := make([]string, 0, len(rc.RedFlags))
	for _, f := range rc.RedFlags {
		if f = strings.TrimSpace(f); f != "" {
			flags = append(flags, f)
		}
	}

	return model.Classification{
		Score:    score,
		Priority: priority,
		IsScam:   rc.IsScam,
		RedFlags: flags,
		WhyMatch: strings.TrimSpace(rc.WhyMatch),
		JobType:  strings.TrimSpace(rc.JobType),
		Strategy: model.StrategyAI,
	}, nil
}

// stripCodeFence removes a surrounding ``` fence along with any language
// tag after the opening backticks.
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if i := strings.IndexAny(s, "\n{"); i >= 0 {
		s = s[i:]
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
