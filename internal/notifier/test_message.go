package notifier

import (
	"context"

	"github.com/amishk599/gigradar/internal/model"
)

// SendTestMessage sends a synthetic high-priority alert to verify the integration works.
func SendTestMessage(ctx context.Context, n model.Notifier) error {
	job := model.Job{
		ID:             "test-001",
		Title:          "Test Notification: Integration Verified",
		Platform:       "gigradar",
		URL:            "https://example.com/gigradar/test",
		Description:    "Synthetic alert sent by gigradar notify test.",
		Rate:           "$40-$40/hr",
		ClientVerified: true,
		ClientSpent:    "N/A",
		PostedDate:     "Unknown",
	}
	c := model.Classification{
		Score:    100,
		Priority: model.PriorityHigh,
		RedFlags: []string{},
		WhyMatch: "Test message, no action needed.",
		JobType:  "Test",
		Strategy: model.StrategyHeuristic,
	}
	return n.Notify(ctx, job, c)
}
