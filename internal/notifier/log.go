package notifier

import (
	"context"
	"log/slog"

	"github.com/amishk599/gigradar/internal/model"
)

// Ensure LogNotifier implements model.Notifier.
var _ model.Notifier = (*LogNotifier)(nil)

// LogNotifier writes alerts to the given logger as structured messages.
type LogNotifier struct {
	logger *slog.Logger
}

// NewLogNotifier returns a notifier that logs each alert via slog.
func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

// Notify logs the alert. Logging does not fail.
func (n *LogNotifier) Notify(_ context.Context, job model.Job, c model.Classification) error {
	n.logger.Info("job alert",
		"job_id", job.ID,
		"title", job.Title,
		"platform", job.Platform,
		"rate", job.Rate,
		"score", c.Score,
		"priority", c.Priority,
		"red_flags", c.RedFlags,
		"url", job.URL,
	)
	return nil
}
