package notifier

import (
	"fmt"
	"strings"

	"github.com/amishk599/gigradar/internal/model"
)

// maxAlertFlags is how many red flags an alert shows.
const maxAlertFlags = 2

var priorityMarkers = map[model.Priority]string{
	model.PriorityHigh:   "🔥",
	model.PriorityMedium: "⭐",
	model.PriorityLow:    "💡",
}

// PriorityMarker returns the emoji shown in front of an alert.
func PriorityMarker(p model.Priority) string {
	if m, ok := priorityMarkers[p]; ok {
		return m
	}
	return "💼"
}

var markdownEscaper = strings.NewReplacer("_", `\_`, "*", `\*`, "`", "\\`", "[", `\[`)

// escapeMarkdown escapes Telegram legacy-Markdown control characters in
// text taken from postings.
func escapeMarkdown(s string) string {
	return markdownEscaper.Replace(s)
}

// FormatAlert renders the Telegram Markdown message for a job.
func FormatAlert(job model.Job, c model.Classification) string {
	verified := "⚠️ Not Verified"
	if job.ClientVerified {
		verified = "✅ Payment Verified"
	}
	jobType := c.JobType
	if jobType == "" {
		jobType = "N/A"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s *NEW JOB MATCH* (%d/100)\n\n", PriorityMarker(c.Priority), c.Score)
	fmt.Fprintf(&b, "*%s*\n", escapeMarkdown(job.Title))
	fmt.Fprintf(&b, "💰 Rate: %s\n", escapeMarkdown(job.Rate))
	fmt.Fprintf(&b, "📍 Platform: %s\n", escapeMarkdown(job.Platform))
	fmt.Fprintf(&b, "%s\n\n", verified)
	fmt.Fprintf(&b, "*Why it matches:*\n%s\n\n", escapeMarkdown(c.WhyMatch))
	fmt.Fprintf(&b, "*Job Type:* %s\n", escapeMarkdown(jobType))

	if flags := alertFlags(c.RedFlags); len(flags) > 0 {
		fmt.Fprintf(&b, "\n⚠️ *Red flags:* %s\n", escapeMarkdown(strings.Join(flags, ", ")))
	}

	fmt.Fprintf(&b, "\n*Apply:* %s", escapeMarkdown(job.URL))
	return b.String()
}

func alertFlags(flags []string) []string {
	if len(flags) > maxAlertFlags {
		return flags[:maxAlertFlags]
	}
	return flags
}
