package ai

import "context"

// LLMProvider is one chat model endpoint. Complete returns the raw text of
// the model's reply to prompt, fences and all.
type LLMProvider interface {
	Complete(ctx context.Context, prompt string) (string, error)
}
