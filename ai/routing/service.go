package routing

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/hrygo/loconomy/ai/internal/strutil"
)

// Config contains the configuration for the router.
type Config struct {
	Timeout     time.Duration // bound on a single classification call (default: 10s)
	MaxTokens   int           // reply budget for the label (default: 10)
	EnableCache bool
	Cache       CacheConfig
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Timeout:     10 * time.Second,
		MaxTokens:   10,
		EnableCache: true,
	}
}

// Router classifies requests via the completion backend and falls back to
// IntentGeneral on any failure.
type Router struct {
	completer Completer
	cache     *RouterCache
	timeout   time.Duration
	maxTokens int
}

// NewRouter creates a router. completer may be nil, in which case every
// request classifies as IntentGeneral.
func NewRouter(completer Completer, cfg Config) *Router {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 10
	}

	r := &Router{
		completer: completer,
		timeout:   cfg.Timeout,
		maxTokens: cfg.MaxTokens,
	}
	if cfg.EnableCache {
		r.cache = NewRouterCache(cfg.Cache)
	}
	return r
}

// Classify returns the intent for input. reqContext is serialised into the
// prompt as JSON so the model can use page, role and location hints.
func (r *Router) Classify(ctx context.Context, input string, reqContext any) (Intent, Source) {
	start := time.Now()
	prompt := BuildPrompt(input, reqContext)

	if r.cache != nil {
		if intent, ok := r.cache.Get(prompt); ok {
			slog.Debug("intent classified by cache",
				"input", strutil.Truncate(input, 50),
				"intent", intent)
			return intent, SourceCache
		}
	}

	if r.completer == nil {
		return IntentGeneral, SourceFallback
	}

	callCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	reply, err := r.completer.Complete(callCtx, prompt, r.maxTokens)
	if err != nil {
		slog.Warn("intent classification failed, defaulting to general",
			"input", strutil.Truncate(input, 50),
			"error", err,
			"latency_ms", time.Since(start).Milliseconds())
		return IntentGeneral, SourceFallback
	}

	intent, ok := ParseIntent(reply)
	if !ok {
		slog.Debug("unrecognised intent label, defaulting to general",
			"reply", strutil.Truncate(reply, 50))
		return IntentGeneral, SourceFallback
	}

	if r.cache != nil {
		r.cache.Set(prompt, intent)
	}
	slog.Debug("intent classified by llm",
		"input", strutil.Truncate(input, 50),
		"intent", intent,
		"latency_ms", time.Since(start).Milliseconds())
	return intent, SourceLLM
}

// CacheStats returns cache statistics, or zero stats when caching is off.
func (r *Router) CacheStats() Stats {
	if r.cache == nil {
		return Stats{}
	}
	return r.cache.GetStats()
}

// ParseIntent extracts a known label from a model reply.
func ParseIntent(reply string) (Intent, bool) {
	label := strutil.NormalizeLabel(reply)
	if label == "" {
		return "", false
	}
	if intent := Intent(label); intent.IsValid() {
		return intent, true
	}
	for _, intent := range allIntents {
		if strings.Contains(label, string(intent)) {
			return intent, true
		}
	}
	return "", false
}

// BuildPrompt renders the classification prompt.
func BuildPrompt(input string, reqContext any) string {
	ctxJSON := "{}"
	if reqContext != nil {
		if data, err := json.Marshal(reqContext); err == nil {
			ctxJSON = string(data)
		}
	}

	labels := make([]string, len(allIntents))
	for i, intent := range allIntents {
		labels[i] = string(intent)
	}

	return fmt.Sprintf(`Classify the user's request for a local services marketplace.
Reply with exactly one of: %s

User input: %q
Context: %s

Intent:`, strings.Join(labels, ", "), input, ctxJSON)
}
