package main

import (
	"context"
	"log/slog"
	"time"

	"github.com/pkg/errors"

	"github.com/hrygo/loconomy/ai/agent"
	"github.com/hrygo/loconomy/ai/core/llm"
	"github.com/hrygo/loconomy/ai/memory"
	"github.com/hrygo/loconomy/ai/metrics"
	"github.com/hrygo/loconomy/ai/tracing"
	"github.com/hrygo/loconomy/internal/profile"
	"github.com/hrygo/loconomy/server/service/booking"
	"github.com/hrygo/loconomy/store"
	"github.com/hrygo/loconomy/store/db"
)

const conciergeSystemPrompt = "You are the Loconomy concierge. You help people find, book and manage local services. Keep answers short."

// app holds everything a command needs to run the agent.
type app struct {
	profile  *profile.Profile
	store    *store.Store
	agent    *agent.Agent
	exporter *metrics.PrometheusExporter

	closers []func(context.Context) error
}

// openStore connects to the configured database and migrates it.
func openStore(ctx context.Context, p *profile.Profile) (*store.Store, error) {
	driver, err := db.NewDBDriver(p)
	if err != nil {
		printDatabaseError(err, p)
		return nil, errors.Wrap(err, "failed to create db driver")
	}

	s := store.New(driver, p)
	if err := s.Migrate(ctx); err != nil {
		_ = s.Close()
		return nil, errors.Wrap(err, "failed to migrate")
	}
	return s, nil
}

// newApp builds the store, LLM, memory, metrics and tracing stack around a
// single agent.
func newApp(ctx context.Context, p *profile.Profile) (*app, error) {
	s, err := openStore(ctx, p)
	if err != nil {
		return nil, err
	}
	a := &app{profile: p, store: s}

	shutdownTracing, err := tracing.Init(tracing.Config{
		ServiceName:    "loconomy",
		ServiceVersion: p.Version,
		Exporter:       p.TraceExporter,
		Endpoint:       p.TraceEndpoint,
		Insecure:       p.TraceInsecure,
	})
	if err != nil {
		_ = s.Close()
		return nil, errors.Wrap(err, "failed to init tracing")
	}
	a.closers = append(a.closers, shutdownTracing)

	mem, err := newMemoryStore(p)
	if err != nil {
		a.Close(ctx)
		_ = s.Close()
		return nil, err
	}
	a.closers = append(a.closers, func(context.Context) error { return mem.Close() })

	a.exporter = metrics.NewPrometheusExporter(metrics.DefaultConfig())

	cfg := agent.DefaultConfig()
	cfg.CompletionTimeout = p.CompletionTimeoutDuration()
	cfg.StaleAfter = p.StaleAfter()
	cfg.StaleSuggestion = p.StaleSuggestion
	cfg.SupportPage = p.SupportPage

	var completion agent.TextCompletionService
	if c := newCompletion(ctx, p); c != nil {
		completion = c
	}

	a.agent = agent.New(cfg, completion, booking.NewService(s, booking.DefaultSearchLimit),
		agent.WithMemoryStore(mem),
		agent.WithRecorder(a.exporter),
		agent.WithLogger(slog.Default()),
	)
	return a, nil
}

// Close releases everything newApp opened except the store, which the
// server owns once started.
func (a *app) Close(ctx context.Context) {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](ctx); err != nil {
			slog.Warn("failed to release resource", "error", err)
		}
	}
	a.closers = nil
}

func newMemoryStore(p *profile.Profile) (memory.Store, error) {
	if p.MemoryBackend != profile.MemoryBackendRedis {
		return memory.NewInMemoryStore(memory.InMemoryConfig{MaxUsers: p.MemoryMaxUsers}), nil
	}

	rs, err := memory.NewRedisStore(memory.RedisConfig{
		Addr:     p.RedisAddr,
		Password: p.RedisPassword,
		DB:       p.RedisDB,
		TTL:      time.Duration(p.MemoryTTL) * time.Second,
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to connect redis memory store")
	}
	slog.Info("Using redis memory store", "addr", p.RedisAddr)
	return rs, nil
}

// newCompletion returns nil when no LLM is configured; the agent then falls
// back to the general intent and canned replies.
func newCompletion(ctx context.Context, p *profile.Profile) *llm.Completion {
	if !p.IsAIEnabled() {
		slog.Info("AI features disabled", "provider", p.LLMProvider)
		return nil
	}

	svc, err := llm.NewService(&llm.Config{
		Provider: p.LLMProvider,
		Model:    p.LLMModel,
		APIKey:   p.LLMAPIKey,
		BaseURL:  p.LLMBaseURL,
		Timeout:  p.LLMTimeout,
	})
	if err != nil {
		slog.Warn("Failed to initialize LLM service",
			"provider", p.LLMProvider,
			"error", err,
			"note", "Agent falls back to canned replies",
		)
		return nil
	}
	slog.Info("LLM service initialized", "provider", p.LLMProvider, "model", p.LLMModel)

	// Best effort: warmup failures don't affect startup.
	go func() {
		warmupCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
		defer cancel()
		svc.Warmup(warmupCtx)
	}()

	return llm.NewCompletion(svc, llm.CompletionConfig{
		SystemPrompt:      conciergeSystemPrompt,
		RequestsPerSecond: p.LLMRequestsPerSecond,
		MaxConcurrent:     int64(p.LLMMaxConcurrent),
	})
}
