package model

import (
	"context"
	"errors"
	"time"
)

// MaxDescriptionLen caps Job.Description, in characters.
const MaxDescriptionLen = 500

// Sentinel values adapters use when a listing does not carry the field.
const (
	RateNotSpecified   = "Not specified"
	SpentNotApplicable = "N/A"
)

// Job is a normalized posting produced by any source.
type Job struct {
	ID             string // stable across fetches; prefixed with the source tag
	Title          string
	Platform       string // human-readable source name
	URL            string
	Description    string // plain text, at most MaxDescriptionLen characters
	Rate           string // free text, e.g. "$35-$50/hr"
	ClientVerified bool
	ClientSpent    string
	Proposals      int
	PostedDate     string
}

// Validate rejects jobs missing the fields every downstream stage relies on.
func (j Job) Validate() error {
	switch {
	case j.ID == "":
		return errors.New("job id is empty")
	case j.Title == "":
		return errors.New("job title is empty")
	case j.URL == "":
		return errors.New("job url is empty")
	}
	return nil
}

// Priority buckets a classified job.
type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
	PrioritySkip   Priority = "skip"
)

// Valid reports whether p is one of the four known priorities.
func (p Priority) Valid() bool {
	switch p {
	case PriorityHigh, PriorityMedium, PriorityLow, PrioritySkip:
		return true
	}
	return false
}

// Strategy records which classifier produced a Classification.
type Strategy string

const (
	StrategyAI        Strategy = "ai"
	StrategyHeuristic Strategy = "heuristic"
)

// Classification is the triage verdict for one job.
type Classification struct {
	Score    int // 0..100
	Priority Priority
	IsScam   bool
	RedFlags []string
	WhyMatch string
	JobType  string
	Strategy Strategy
}

// StoredJob is a persisted job with its verdict and bookkeeping.
type StoredJob struct {
	Job
	Classification
	Notified  bool
	CreatedAt time.Time
}

// RunStats summarizes one pipeline run.
type RunStats struct {
	Date       time.Time
	TotalFound int // jobs returned by all sources
	New        int // jobs persisted for the first time
	High       int
	Medium     int
	Scams      int
	Notified   int
}

// JobStats is the aggregate view served by the stats endpoint.
type JobStats struct {
	TotalJobs      int `json:"total"`
	HighPriority   int `json:"high_priority"`
	MediumPriority int `json:"medium_priority"`
	ScamsFiltered  int `json:"scams_filtered"`
}

// Source fetches postings from one job board.
type Source interface {
	Name() string
	FetchJobs(ctx context.Context) ([]Job, error)
}

// JobStore persists jobs and deduplicates them by ID.
type JobStore interface {
	Exists(ctx context.Context, id string) (bool, error)
	// Upsert inserts the job unless its ID is already stored.
	// It reports whether a row was inserted.
	Upsert(ctx context.Context, job Job, c Classification) (bool, error)
	MarkNotified(ctx context.Context, id string) error
	RecordRun(ctx context.Context, stats RunStats) error
}

// JobReader is the read side of the store used by the API and CLI.
type JobReader interface {
	CountSince(ctx context.Context, since time.Time) (int, error)
	CountByPriority(ctx context.Context, p Priority, since time.Time) (int, error)
	CountBelowScore(ctx context.Context, score int, since time.Time) (int, error)
	// Recent returns the newest jobs first. An empty priority selects
	// every job except skip.
	Recent(ctx context.Context, limit int, p Priority) ([]StoredJob, error)
	Stats(ctx context.Context, since time.Time) (JobStats, error)
}

// Classifier always returns a usable verdict.
type Classifier interface {
	Classify(ctx context.Context, job Job) Classification
}

// Notifier delivers an alert for one classified job. A nil error means
// the alert was delivered.
type Notifier interface {
	Notify(ctx context.Context, job Job, c Classification) error
}

// JobFilter drops postings that are obviously not worth classifying.
type JobFilter interface {
	Match(job Job) bool
}
