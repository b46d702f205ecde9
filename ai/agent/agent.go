package agent

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"strings"
	"time"

	"github.com/lithammer/shortuuid/v4"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/hrygo/loconomy/ai/internal/strutil"
	"github.com/hrygo/loconomy/ai/memory"
	"github.com/hrygo/loconomy/ai/routing"
)

const tracerName = "github.com/hrygo/loconomy/ai/agent"

// Request paths reported to the Recorder.
const (
	PathCommand = "command"
	PathIntent  = "intent"
	PathEmpty   = "empty"
)

// Command outcomes reported to the Recorder.
const (
	CommandOK       = "ok"
	CommandError    = "error"
	CommandPanic    = "panic"
	CommandNotFound = "not_found"
)

const (
	emptyInputReply = "How can I help? Describe what you need or type /help to see what I can do."
	unknownCommand  = "I don't recognize the command /%s. Type /help to see what I can do."
	commandFailed   = "Sorry, something went wrong while running /%s. Please try again."
	requestFailed   = "Sorry, something went wrong while handling your request. Please try again."
)

// Config holds the agent's tunables.
type Config struct {
	CompletionTimeout time.Duration // per completion call (default: 15s)
	ReplyMaxTokens    int           // conversational replies (default: 200)
	ExtractMaxTokens  int           // service-type extraction (default: 16)
	StaleAfter        time.Duration // lastVisit age that triggers re-engagement (default: 7 days)
	// StaleSuggestion overrides the re-engagement suggestion. Empty means
	// "/find <lastSearch>" when a search is remembered, otherwise "/help".
	StaleSuggestion   string
	SearchResultLimit int    // listings shown by /find (default: 5)
	SupportPage       string // navigate target for /escalate (default: /support)
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		CompletionTimeout: 15 * time.Second,
		ReplyMaxTokens:    200,
		ExtractMaxTokens:  16,
		StaleAfter:        7 * 24 * time.Hour,
		SearchResultLimit: 5,
		SupportPage:       "/support",
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.CompletionTimeout <= 0 {
		c.CompletionTimeout = d.CompletionTimeout
	}
	if c.ReplyMaxTokens <= 0 {
		c.ReplyMaxTokens = d.ReplyMaxTokens
	}
	if c.ExtractMaxTokens <= 0 {
		c.ExtractMaxTokens = d.ExtractMaxTokens
	}
	if c.StaleAfter <= 0 {
		c.StaleAfter = d.StaleAfter
	}
	if c.SearchResultLimit <= 0 {
		c.SearchResultLimit = d.SearchResultLimit
	}
	if c.SupportPage == "" {
		c.SupportPage = d.SupportPage
	}
	return c
}

// Option customises an Agent.
type Option func(*Agent)

// WithLogger sets the logger. The default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(a *Agent) {
		if logger != nil {
			a.logger = logger
		}
	}
}

// WithRecorder sets the metrics recorder.
func WithRecorder(r Recorder) Option {
	return func(a *Agent) {
		if r != nil {
			a.recorder = r
		}
	}
}

// WithMemoryStore replaces the default in-process memory store.
func WithMemoryStore(store memory.Store) Option {
	return func(a *Agent) {
		if store != nil {
			a.memory = store
		}
	}
}

// WithTracerProvider sets the provider for the agent's spans. The default is
// the global provider.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(a *Agent) {
		if tp != nil {
			a.tracer = tp.Tracer(tracerName)
		}
	}
}

// WithRouter replaces the default intent router built over the completion service.
func WithRouter(r *routing.Router) Option {
	return func(a *Agent) {
		if r != nil {
			a.router = r
		}
	}
}

type intentHandler func(ctx context.Context, input string, actx *Context) (*Response, error)

// Agent is the Loconomy concierge. It is safe for concurrent use; create one
// per process and share it.
type Agent struct {
	cfg        Config
	completion TextCompletionService
	bookings   BookingQueryService

	registry *Registry
	router   *routing.Router
	memory   memory.Store
	intents  map[routing.Intent]intentHandler

	recorder Recorder
	logger   *slog.Logger
	tracer   trace.Tracer
	now      func() time.Time
	newID    func() string
}

// New creates an agent and registers the built-in commands. completion and
// bookings may be nil; the agent then degrades to fallback replies and
// empty results.
func New(cfg Config, completion TextCompletionService, bookings BookingQueryService, opts ...Option) *Agent {
	a := &Agent{
		cfg:        cfg.withDefaults(),
		completion: completion,
		bookings:   bookings,
		registry:   NewRegistry(),
		recorder:   nopRecorder{},
		logger:     slog.Default(),
		tracer:     otel.Tracer(tracerName),
		now:        time.Now,
		newID:      shortuuid.New,
	}
	for _, opt := range opts {
		opt(a)
	}
	a.logger = a.logger.With("component", "agent")

	if a.memory == nil {
		a.memory = memory.NewInMemoryStore(memory.InMemoryConfig{})
	}
	if a.router == nil {
		rcfg := routing.DefaultConfig()
		rcfg.Timeout = a.cfg.CompletionTimeout
		var completer routing.Completer
		if completion != nil {
			completer = completion
		}
		a.router = routing.NewRouter(completer, rcfg)
	}

	a.intents = map[routing.Intent]intentHandler{
		routing.IntentServiceSearch:  a.onServiceSearch,
		routing.IntentBookingRequest: a.onBookingRequest,
		routing.IntentReschedule:     a.onReschedule,
		routing.IntentCancel:         a.onCancel,
		routing.IntentComplaint:      a.onComplaint,
		routing.IntentGeneral:        a.onGeneral,
	}
	a.registerBuiltins()
	return a
}

// RegisterCommand adds or replaces a command. The last registration for a
// name wins.
func (a *Agent) RegisterCommand(cmd Command) error {
	replaced, err := a.registry.Register(cmd)
	if err != nil {
		return err
	}
	if replaced {
		a.logger.Debug("command replaced", "command", cmd.Name)
	}
	return nil
}

// Commands returns the registered commands sorted by name.
func (a *Agent) Commands() []Command {
	return a.registry.List()
}

// ProcessInput handles one user input. It always returns a response; faults
// in handlers and collaborators are logged and turned into apologetic text.
func (a *Agent) ProcessInput(ctx context.Context, input string, actx *Context) (resp *Response) {
	start := a.now()
	if actx == nil {
		actx = &Context{}
	}
	input = strings.TrimSpace(input)
	path := PathIntent

	ctx, span := a.tracer.Start(ctx, "agent.process_input",
		trace.WithAttributes(
			attribute.String("agent.user_id", actx.UserID),
			attribute.String("agent.page", actx.CurrentPage),
		))
	defer func() {
		if resp == nil {
			resp = TextResponse(requestFailed)
		}
		if resp.Actions == nil {
			resp.Actions = []Action{}
		}
		span.SetAttributes(
			attribute.String("agent.path", path),
			attribute.String("agent.response_kind", string(resp.Kind)),
		)
		span.End()

		a.recorder.RecordRequest(path, string(resp.Kind), a.now().Sub(start))
		a.touchVisit(ctx, actx.UserID)
	}()

	if name, params, ok := ParseCommand(input); ok {
		path = PathCommand
		return a.runCommand(ctx, span, name, params, actx)
	}

	if input == "" {
		path = PathEmpty
		return TextResponse(emptyInputReply)
	}

	intent, source := a.router.Classify(ctx, input, actx)
	a.recorder.RecordIntent(string(intent), string(source))
	span.SetAttributes(attribute.String("agent.intent", string(intent)))

	handler, ok := a.intents[intent]
	if !ok {
		handler = a.onGeneral
	}
	resp, err := guard(func() (*Response, error) { return handler(ctx, input, actx) })
	if err != nil || resp == nil {
		a.logger.Error("intent handler failed",
			"intent", intent,
			"input", strutil.Truncate(input, 50),
			"error", err)
		span.SetStatus(codes.Error, fmt.Sprint(err))
		return TextResponse(requestFailed)
	}
	return resp
}

func (a *Agent) runCommand(ctx context.Context, span trace.Span, name string, params []string, actx *Context) *Response {
	span.SetAttributes(attribute.String("agent.command", name))

	cmd, ok := a.registry.Get(name)
	if !ok {
		a.recorder.RecordCommand("unknown", CommandNotFound)
		return TextResponse(fmt.Sprintf(unknownCommand, name))
	}

	resp, err := guard(func() (*Response, error) { return cmd.Handler(ctx, params, actx) })
	if err == nil && resp == nil {
		err = fmt.Errorf("command /%s returned no response", name)
	}
	if err != nil {
		status := CommandError
		if _, isPanic := err.(*panicError); isPanic {
			status = CommandPanic
		}
		a.recorder.RecordCommand(cmd.Name, status)
		a.logger.Error("command failed",
			"command", name,
			"params", len(params),
			"user_id", actx.UserID,
			"error", err)
		span.SetStatus(codes.Error, err.Error())
		return TextResponse(fmt.Sprintf(commandFailed, name))
	}

	a.recorder.RecordCommand(cmd.Name, CommandOK)
	return resp
}

type panicError struct {
	value any
	stack []byte
}

func (e *panicError) Error() string {
	return fmt.Sprintf("panic: %v", e.value)
}

// guard runs fn and converts a panic into an error.
func guard(fn func() (*Response, error)) (resp *Response, err error) {
	defer func() {
		if r := recover(); r != nil {
			resp = nil
			err = &panicError{value: r, stack: debug.Stack()}
		}
	}()
	return fn()
}

// SetMemory stores value under key for userID. Anonymous users (empty
// userID) have no memory: the write is dropped and GetMemory keeps
// returning nil for them.
func (a *Agent) SetMemory(ctx context.Context, userID, key string, value any) {
	if userID == "" {
		return
	}
	if err := a.memory.Set(ctx, userID, key, value); err != nil {
		a.logger.Warn("memory write failed", "user_id", userID, "key", key, "error", err)
	}
}

// GetMemory returns the value under key for userID, or nil when absent or
// when userID is empty.
func (a *Agent) GetMemory(ctx context.Context, userID, key string) any {
	if userID == "" {
		return nil
	}
	v, ok, err := a.memory.Get(ctx, userID, key)
	if err != nil {
		a.logger.Warn("memory read failed", "user_id", userID, "key", key, "error", err)
		return nil
	}
	if !ok {
		return nil
	}
	return v
}

// GetAllMemory returns a copy of userID's memory. Unknown users yield an empty map.
func (a *Agent) GetAllMemory(ctx context.Context, userID string) map[string]any {
	if userID == "" {
		return map[string]any{}
	}
	all, err := a.memory.GetAll(ctx, userID)
	if err != nil {
		a.logger.Warn("memory read failed", "user_id", userID, "error", err)
		return map[string]any{}
	}
	if all == nil {
		return map[string]any{}
	}
	return all
}

func (a *Agent) touchVisit(ctx context.Context, userID string) {
	if userID == "" {
		return
	}
	// The request context may already be cancelled; the visit is still recorded.
	a.SetMemory(context.WithoutCancel(ctx), userID, memory.KeyLastVisit, a.now().UTC())
}
