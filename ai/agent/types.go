// Package agent implements the Loconomy concierge: a slash-command parser,
// an intent router for free-form requests, and a per-user memory used for
// next-step suggestions.
package agent

import (
	"context"
	"time"
)

// ResponseKind tells the caller how to render a Response.
type ResponseKind string

const (
	KindText     ResponseKind = "text"
	KindAction   ResponseKind = "action"
	KindUI       ResponseKind = "ui"
	KindRedirect ResponseKind = "redirect"
	KindForm     ResponseKind = "form"
)

// ActionKind is a side effect the caller is asked to perform.
type ActionKind string

const (
	ActionNavigate     ActionKind = "navigate"
	ActionSearch       ActionKind = "search"
	ActionBook         ActionKind = "book"
	ActionCancel       ActionKind = "cancel"
	ActionNotification ActionKind = "notification"
	ActionFormFill     ActionKind = "form_fill"
)

// Context is the per-invocation request context. It is never stored.
type Context struct {
	UserID      string `json:"user_id,omitempty"`
	UserRole    string `json:"user_role,omitempty"`
	Location    string `json:"location,omitempty"`
	CurrentPage string `json:"current_page,omitempty"`
	// SessionMemory is caller-owned state and is distinct from the agent's memory store.
	SessionMemory map[string]any `json:"session_memory,omitempty"`
}

// Response is the envelope returned for every input. Content is always set.
type Response struct {
	Kind    ResponseKind `json:"kind"`
	Content string       `json:"content"`
	Data    any          `json:"data,omitempty"`
	Actions []Action     `json:"actions"`
}

// Action is a directive for the caller, e.g. navigate to a page or open a form.
type Action struct {
	Kind   ActionKind `json:"kind"`
	Target string     `json:"target,omitempty"`
	Data   any        `json:"data,omitempty"`
}

// TextResponse builds a plain text response with no actions.
func TextResponse(content string) *Response {
	return &Response{Kind: KindText, Content: content, Actions: []Action{}}
}

// CommandHandler executes a slash command. params are the positional,
// whitespace-separated tokens after the command name.
type CommandHandler func(ctx context.Context, params []string, actx *Context) (*Response, error)

// Command is a named, invokable operation.
type Command struct {
	Name           string         `json:"name"`
	Description    string         `json:"description"`
	ParameterHints []string       `json:"parameter_hints,omitempty"`
	Handler        CommandHandler `json:"-"`
}

// Usage renders the command with its parameter hints, e.g. "/find <service type>".
func (c Command) Usage() string {
	usage := "/" + c.Name
	for _, hint := range c.ParameterHints {
		usage += " <" + hint + ">"
	}
	return usage
}

// Booking is a user's booking as returned by BookingQueryService.
type Booking struct {
	ID      string    `json:"id"`
	Service string    `json:"service"`
	Status  string    `json:"status"`
	Date    time.Time `json:"date"`
}

// PendingBooking is a /book draft awaiting confirmation. ID is the draft
// reference handed back to the user; /cancel accepts it.
type PendingBooking struct {
	ID      string `json:"id"`
	Service string `json:"service"`
	Date    string `json:"date,omitempty"`
}

// ServiceListing is a provider offering returned by a service search.
type ServiceListing struct {
	ID     string  `json:"id"`
	Name   string  `json:"name"`
	Rating float64 `json:"rating"`
	Price  float64 `json:"price"`
}

// TextCompletionService turns a prompt into text.
type TextCompletionService interface {
	Complete(ctx context.Context, prompt string, maxTokens int) (string, error)
}

// BookingQueryService provides read-only booking and search lookups.
type BookingQueryService interface {
	GetUserBookings(ctx context.Context, userID string) ([]Booking, error)
	SearchServices(ctx context.Context, serviceType string, actx *Context) ([]ServiceListing, error)
}

// Recorder receives per-call outcome events for metrics.
type Recorder interface {
	RecordRequest(path, kind string, latency time.Duration)
	RecordCommand(command, status string)
	RecordIntent(intent, source string)
	RecordUpstreamError(service string)
}

type nopRecorder struct{}

func (nopRecorder) RecordRequest(string, string, time.Duration) {}
func (nopRecorder) RecordCommand(string, string)                {}
func (nopRecorder) RecordIntent(string, string)                 {}
func (nopRecorder) RecordUpstreamError(string)                  {}
