package llm

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/homematch/internal/config"
	"github.com/sells-group/homematch/pkg/anthropic"
)

// Claude is a Provider backed by the Anthropic Messages API.
type Claude struct {
	client    anthropic.Client
	model     string
	maxTokens int64
	timeout   time.Duration
	retries   int
	phase     string
}

// NewClaude builds a Claude provider for one pipeline phase. The phase label
// only affects cost attribution logs.
func NewClaude(client anthropic.Client, cfg config.AnthropicConfig, model, phase string) *Claude {
	return &Claude{
		client:    client,
		model:     model,
		maxTokens: int64(cfg.MaxTokens),
		timeout:   time.Duration(cfg.TimeoutSecs) * time.Second,
		retries:   cfg.RequestRetries,
		phase:     phase,
	}
}

func (c *Claude) Name() string  { return "anthropic" }
func (c *Claude) Model() string { return c.model }

// Complete sends a single-turn request and returns the text of the reply.
// Transient failures are retried with a short backoff.
func (c *Claude) Complete(ctx context.Context, system, user string) (string, error) {
	temp := 0.2
	req := anthropic.MessageRequest{
		Model:       c.model,
		MaxTokens:   c.maxTokens,
		System:      system,
		Temperature: &temp,
		Messages: []anthropic.Message{
			{Role: "user", Content: user},
		},
	}

	var lastErr error
	for attempt := 0; attempt <= c.retries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return "", eris.Wrap(ctx.Err(), "llm: complete")
			case <-time.After(time.Duration(attempt) * time.Second):
			}
			zap.L().Warn("llm retry",
				zap.String("phase", c.phase),
				zap.Int("attempt", attempt),
				zap.Error(lastErr))
		}

		callCtx := ctx
		var cancel context.CancelFunc
		if c.timeout > 0 {
			callCtx, cancel = context.WithTimeout(ctx, c.timeout)
		}
		resp, err := c.client.CreateMessage(callCtx, req)
		if cancel != nil {
			cancel()
		}
		if err != nil {
			lastErr = err
			continue
		}

		resp.Usage.LogCost(c.model, c.phase)
		return resp.Text(), nil
	}

	return "", eris.Wrap(lastErr, "llm: complete")
}
