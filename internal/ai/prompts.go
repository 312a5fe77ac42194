package ai

import (
	_ "embed"
	"text/template"
)

//go:embed prompts/job_classification.md
var jobClassificationPromptRaw string

// JobClassificationTemplate is the parsed prompt template for job triage.
// Parsed once at package init; reused on every Classify call.
var JobClassificationTemplate = template.Must(template.New("job_classification").Parse(jobClassificationPromptRaw))
