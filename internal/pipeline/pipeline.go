package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/amishk599/gigradar/internal/model"
	"github.com/amishk599/gigradar/internal/triage"
)

// ErrRunInProgress is returned by RunOnce while another run holds the pipeline.
var ErrRunInProgress = errors.New("pipeline run already in progress")

// outcome is where a single job ended up.
type outcome string

const (
	outcomeInvalid   outcome = "invalid"
	outcomeFiltered  outcome = "filtered"
	outcomeDuplicate outcome = "duplicate"
	outcomeNew       outcome = "new"
	outcomeFailed    outcome = "failed"
)

// Pipeline owns one end-to-end pass:
// fetch → filter → dedup → classify → persist → notify → mark notified.
type Pipeline struct {
	sources    []model.Source
	filter     model.JobFilter // optional
	store      model.JobStore
	classifier model.Classifier
	notifier   model.Notifier
	metrics    *Metrics // optional
	logger     *slog.Logger

	running sync.Mutex
	now     func() time.Time
}

// New creates a pipeline wired with all its dependencies. Sources run in the
// order given.
func New(
	sources []model.Source,
	filter model.JobFilter,
	store model.JobStore,
	classifier model.Classifier,
	notifier model.Notifier,
	metrics *Metrics,
	logger *slog.Logger,
) *Pipeline {
	return &Pipeline{
		sources:    sources,
		filter:     filter,
		store:      store,
		classifier: classifier,
		notifier:   notifier,
		metrics:    metrics,
		logger:     logger,
		now:        time.Now,
	}
}

// RunOnce runs every source once and returns how many jobs were persisted for
// the first time. A concurrent call returns ErrRunInProgress immediately.
// Source, job and notification failures are logged and never abort the run.
func (p *Pipeline) RunOnce(ctx context.Context) (int, error) {
	if !p.running.TryLock() {
		return 0, ErrRunInProgress
	}
	defer p.running.Unlock()

	logger := p.logger.With("run_id", uuid.NewString())
	start := p.now()
	stats := model.RunStats{Date: start}

	logger.Info("run started", "sources", len(p.sources))

	for _, src := range p.sources {
		if ctx.Err() != nil {
			break
		}
		p.runSource(ctx, src, &stats, logger)
	}

	if err := p.store.RecordRun(ctx, stats); err != nil {
		logger.Warn("recording run stats failed", "error", err)
	}

	elapsed := p.now().Sub(start)
	p.metrics.runFinished(elapsed.Seconds(), stats.New)
	logger.Info("run complete",
		"found", stats.TotalFound,
		"new", stats.New,
		"high", stats.High,
		"medium", stats.Medium,
		"scams", stats.Scams,
		"notified", stats.Notified,
		"duration", elapsed.Round(time.Millisecond),
	)

	if err := ctx.Err(); err != nil {
		return stats.New, fmt.Errorf("run interrupted: %w", err)
	}
	return stats.New, nil
}

func (p *Pipeline) runSource(ctx context.Context, src model.Source, stats *model.RunStats, logger *slog.Logger) {
	name := src.Name()
	logger = logger.With("source", name)

	defer func() {
		if rec := recover(); rec != nil {
			p.metrics.sourceFailed(name)
			logger.Error("source panicked", "panic", rec)
		}
	}()

	jobs, err := src.FetchJobs(ctx)
	if err != nil {
		p.metrics.sourceFailed(name)
		logger.Error("source fetch failed", "error", err)
		return
	}
	stats.TotalFound += len(jobs)
	p.metrics.fetched(name, len(jobs))

	counts := make(map[outcome]int)
	for _, job := range jobs {
		if ctx.Err() != nil {
			break
		}
		o := p.processJob(ctx, job, stats, logger)
		counts[o]++
		p.metrics.job(name, o)
	}

	logger.Info("processed source",
		"fetched", len(jobs),
		"new", counts[outcomeNew],
		"duplicate", counts[outcomeDuplicate],
		"filtered", counts[outcomeFiltered],
		"failed", counts[outcomeFailed]+counts[outcomeInvalid],
	)
}

// processJob takes one job through the pipeline. Panics are contained here
// so one bad posting cannot take down its source.
func (p *Pipeline) processJob(ctx context.Context, job model.Job, stats *model.RunStats, logger *slog.Logger) (o outcome) {
	logger = logger.With("job_id", job.ID)
	defer func() {
		if rec := recover(); rec != nil {
			logger.Error("job processing panicked", "panic", rec)
			o = outcomeFailed
		}
	}()

	if err := job.Validate(); err != nil {
		logger.Warn("skipping invalid job", "error", err)
		return outcomeInvalid
	}
	if p.filter != nil && !p.filter.Match(job) {
		logger.Debug("job filtered out", "title", job.Title)
		return outcomeFiltered
	}

	exists, err := p.store.Exists(ctx, job.ID)
	if err != nil {
		logger.Error("dedup check failed", "error", err)
		return outcomeFailed
	}
	if exists {
		return outcomeDuplicate
	}

	c := p.classifier.Classify(ctx, job)
	p.metrics.classified(string(c.Strategy), string(c.Priority))

	inserted, err := p.store.Upsert(ctx, job, c)
	if err != nil {
		logger.Error("persisting job failed", "error", err)
		return outcomeFailed
	}
	if !inserted {
		// Stored by someone else between Exists and Upsert.
		return outcomeDuplicate
	}

	stats.New++
	switch c.Priority {
	case model.PriorityHigh:
		stats.High++
	case model.PriorityMedium:
		stats.Medium++
	}
	if c.IsScam {
		stats.Scams++
	}

	logger.Info("new job",
		"title", job.Title,
		"score", c.Score,
		"priority", c.Priority,
		"scam", c.IsScam,
		"strategy", c.Strategy,
	)

	if triage.ShouldNotify(c) {
		p.notify(ctx, job, c, stats, logger)
	}
	return outcomeNew
}

func (p *Pipeline) notify(ctx context.Context, job model.Job, c model.Classification, stats *model.RunStats, logger *slog.Logger) {
	if err := p.notifier.Notify(ctx, job, c); err != nil {
		p.metrics.notified("failed")
		logger.Error("notification failed", "error", err)
		return
	}
	p.metrics.notified("sent")
	stats.Notified++

	if err := p.store.MarkNotified(ctx, job.ID); err != nil {
		logger.Error("marking job notified failed", "error", err)
	}
}
