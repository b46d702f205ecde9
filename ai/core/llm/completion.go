package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"
)

// ErrCompletionUnavailable is returned when no LLM backend is configured.
var ErrCompletionUnavailable = errors.New("text completion is not configured")

// CompletionConfig bounds how hard the agent may hit the LLM backend.
type CompletionConfig struct {
	// SystemPrompt is sent ahead of every prompt (optional).
	SystemPrompt string
	// RequestsPerSecond limits the sustained call rate (0 = unlimited).
	RequestsPerSecond float64
	// Burst is the limiter burst size (default: 1 when rate limited).
	Burst int
	// MaxConcurrent caps in-flight calls (0 = unlimited).
	MaxConcurrent int64
}

// Completion adapts a chat Service to the prompt-in, text-out contract the
// agent consumes.
type Completion struct {
	svc     Service
	system  string
	limiter *rate.Limiter
	sem     *semaphore.Weighted
}

// NewCompletion wraps svc. A nil svc yields a Completion that always fails
// with ErrCompletionUnavailable, which the agent treats like any upstream fault.
func NewCompletion(svc Service, cfg CompletionConfig) *Completion {
	c := &Completion{svc: svc, system: cfg.SystemPrompt}
	if cfg.RequestsPerSecond > 0 {
		burst := cfg.Burst
		if burst <= 0 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), burst)
	}
	if cfg.MaxConcurrent > 0 {
		c.sem = semaphore.NewWeighted(cfg.MaxConcurrent)
	}
	return c
}

// Complete sends prompt as a single user message and returns the reply text.
func (c *Completion) Complete(ctx context.Context, prompt string, maxTokens int) (string, error) {
	if c == nil || c.svc == nil {
		return "", ErrCompletionUnavailable
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return "", fmt.Errorf("completion rate limit: %w", err)
		}
	}
	if c.sem != nil {
		if err := c.sem.Acquire(ctx, 1); err != nil {
			return "", fmt.Errorf("completion concurrency limit: %w", err)
		}
		defer c.sem.Release(1)
	}

	messages := make([]Message, 0, 2)
	if c.system != "" {
		messages = append(messages, SystemPrompt(c.system))
	}
	messages = append(messages, UserMessage(prompt))

	content, _, err := c.svc.Chat(ctx, messages, maxTokens)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(content), nil
}
