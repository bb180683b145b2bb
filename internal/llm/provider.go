// Package llm provides the completion interface the extraction and ranking
// stages share, backed by Anthropic Claude.
package llm

import "context"

// Provider produces a completion for a system prompt plus user prompt pair.
// Implementations return the raw text of the model's reply.
type Provider interface {
	Complete(ctx context.Context, system, user string) (string, error)
	Name() string
	Model() string
}
