package agent

import (
	"context"
	"fmt"
	"strings"
)

const (
	bookingPrompt  = "I can help you book a service. Which service do you need, and when?"
	complaintReply = "I'm sorry you've had a bad experience. I've let our support team know and they'll follow up with you."
	generalReply   = "I'm here to help you find and book local services. Type /help to see what I can do."
)

const extractPromptTemplate = `Extract the type of local service the user is looking for.
Reply with the service type only, in a few words, lower case, no punctuation.

User: %q
Service type:`

const generalPromptTemplate = `You are the Loconomy concierge, a friendly assistant for a local services marketplace.
Answer briefly and helpfully. If the user wants something you can do with a command, mention it.
Available commands: %s

User: %q
Assistant:`

func (a *Agent) onServiceSearch(ctx context.Context, input string, actx *Context) (*Response, error) {
	service := input
	if reply, ok := a.complete(ctx, fmt.Sprintf(extractPromptTemplate, input), a.cfg.ExtractMaxTokens); ok {
		if extracted := firstLine(reply); extracted != "" {
			service = extracted
		}
	}
	return a.handleFind(ctx, strings.Fields(service), actx)
}

func (a *Agent) onBookingRequest(_ context.Context, _ string, _ *Context) (*Response, error) {
	return &Response{
		Kind:    KindForm,
		Content: bookingPrompt,
		Actions: []Action{{
			Kind:   ActionFormFill,
			Target: "booking",
			Data:   map[string]any{"fields": []string{"service", "date"}},
		}},
	}, nil
}

func (a *Agent) onReschedule(ctx context.Context, _ string, actx *Context) (*Response, error) {
	return a.handleReschedule(ctx, nil, actx)
}

func (a *Agent) onCancel(ctx context.Context, _ string, actx *Context) (*Response, error) {
	return a.handleCancel(ctx, nil, actx)
}

func (a *Agent) onComplaint(_ context.Context, input string, actx *Context) (*Response, error) {
	return &Response{
		Kind:    KindAction,
		Content: complaintReply,
		Actions: []Action{{
			Kind:   ActionNotification,
			Target: "support",
			Data:   map[string]any{"message": input, "user_id": actx.UserID},
		}},
	}, nil
}

func (a *Agent) onGeneral(ctx context.Context, input string, _ *Context) (*Response, error) {
	names := make([]string, 0, a.registry.Len())
	for _, cmd := range a.registry.List() {
		names = append(names, "/"+cmd.Name)
	}

	prompt := fmt.Sprintf(generalPromptTemplate, strings.Join(names, ", "), input)
	reply, ok := a.complete(ctx, prompt, a.cfg.ReplyMaxTokens)
	if !ok {
		return TextResponse(generalReply), nil
	}
	return TextResponse(reply), nil
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	return strings.Trim(strings.TrimSpace(s), `."'`)
}
