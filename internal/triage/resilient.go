package triage

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/amishk599/gigradar/internal/model"
)

// Strategy is a classifier that may fail, such as an LLM call.
type Strategy interface {
	Classify(ctx context.Context, job model.Job) (model.Classification, error)
}

// Resilient is the total classifier used by the pipeline: it asks the primary
// strategy first and falls back to Score on any error or panic.
type Resilient struct {
	primary Strategy
	logger  *slog.Logger
}

// NewResilient returns a classifier over primary. A nil primary means
// heuristic-only classification.
func NewResilient(primary Strategy, logger *slog.Logger) *Resilient {
	return &Resilient{primary: primary, logger: logger}
}

// Classify never fails.
func (r *Resilient) Classify(ctx context.Context, job model.Job) model.Classification {
	if r.primary == nil {
		return Score(job)
	}

	c, err := r.tryPrimary(ctx, job)
	if err != nil {
		r.logger.Warn("ai classification failed, using heuristic",
			"job_id", job.ID,
			"error", err,
		)
		return Score(job)
	}
	return c
}

func (r *Resilient) tryPrimary(ctx context.Context, job model.Job) (c model.Classification, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("classifier panic: %v", rec)
		}
	}()
	return r.primary.Classify(ctx, job)
}
