package agent

import (
	"context"
	"fmt"
	"net/mail"
	"slices"
	"strings"

	"github.com/hrygo/loconomy/ai/memory"
)

const dateLayout = "Mon Jan 2, 15:04"

// Booking statuses that can no longer be cancelled or rescheduled.
var closedStatuses = []string{"cancelled", "completed"}

func (a *Agent) registerBuiltins() {
	builtins := []Command{
		{
			Name:           "find",
			Description:    "Search for local service providers",
			ParameterHints: []string{"service type"},
			Handler:        a.handleFind,
		},
		{
			Name:           "book",
			Description:    "Start booking a service",
			ParameterHints: []string{"service", "date"},
			Handler:        a.handleBook,
		},
		{
			Name:           "reschedule",
			Description:    "Move an existing booking to a new time",
			ParameterHints: []string{"booking id"},
			Handler:        a.handleReschedule,
		},
		{
			Name:           "cancel",
			Description:    "Cancel a booking",
			ParameterHints: []string{"booking id"},
			Handler:        a.handleCancel,
		},
		{
			Name:        "status",
			Description: "Show your bookings",
			Handler:     a.handleStatus,
		},
		{
			Name:           "refer",
			Description:    "Invite a friend to Loconomy",
			ParameterHints: []string{"email"},
			Handler:        a.handleRefer,
		},
		{
			Name:           "escalate",
			Description:    "Get help from our support team",
			ParameterHints: []string{"reason"},
			Handler:        a.handleEscalate,
		},
		{
			Name:        "help",
			Description: "List available commands",
			Handler:     a.handleHelp,
		},
	}
	for _, cmd := range builtins {
		// Built-ins are well-formed; Register only fails on empty names or nil handlers.
		_, _ = a.registry.Register(cmd)
	}
}

func (a *Agent) handleFind(ctx context.Context, params []string, actx *Context) (*Response, error) {
	if len(params) == 0 {
		return TextResponse("What service are you looking for? For example: /find plumber"), nil
	}

	query := strings.Join(params, " ")
	a.SetMemory(ctx, actx.UserID, memory.KeyLastSearch, query)

	listings := a.searchServices(ctx, query, actx)
	if len(listings) == 0 {
		return TextResponse(fmt.Sprintf(
			"I couldn't find any %s providers right now. Try a different search or check back later.", query)), nil
	}
	if len(listings) > a.cfg.SearchResultLimit {
		listings = listings[:a.cfg.SearchResultLimit]
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Here are the top %s providers", query)
	if actx.Location != "" {
		fmt.Fprintf(&sb, " near %s", actx.Location)
	}
	sb.WriteString(":")
	for _, l := range listings {
		fmt.Fprintf(&sb, "\n- %s (%.1f★, $%.2f)", l.Name, l.Rating, l.Price)
	}

	return &Response{
		Kind:    KindUI,
		Content: sb.String(),
		Data: map[string]any{
			"query":    query,
			"listings": listings,
		},
		Actions: []Action{{
			Kind:   ActionSearch,
			Target: query,
			Data:   map[string]any{"location": actx.Location},
		}},
	}, nil
}

func (a *Agent) handleBook(ctx context.Context, params []string, actx *Context) (*Response, error) {
	if len(params) == 0 {
		return &Response{
			Kind:    KindForm,
			Content: "Which service would you like to book? For example: /book plumber tomorrow",
			Actions: []Action{{
				Kind:   ActionFormFill,
				Target: "booking",
				Data:   map[string]any{"fields": []string{"service", "date"}},
			}},
		}, nil
	}

	draft := PendingBooking{ID: a.newID(), Service: params[0], Date: strings.Join(params[1:], " ")}
	a.addPendingBooking(ctx, actx.UserID, draft)

	content := fmt.Sprintf("Let's book %s", draft.Service)
	if draft.Date != "" {
		content += " for " + draft.Date
	}
	content += fmt.Sprintf(". Please confirm the details (reference %s).", draft.ID)

	details := map[string]any{"booking_id": draft.ID, "service": draft.Service, "date": draft.Date}
	return &Response{
		Kind:    KindForm,
		Content: content,
		Data:    details,
		Actions: []Action{
			{Kind: ActionBook, Target: draft.Service, Data: details},
			{Kind: ActionFormFill, Target: "booking", Data: details},
		},
	}, nil
}

func (a *Agent) handleReschedule(ctx context.Context, params []string, actx *Context) (*Response, error) {
	if len(params) == 0 {
		open := openBookings(a.userBookings(ctx, actx.UserID))
		ids := make([]string, 0, len(open))
		for _, b := range open {
			ids = append(ids, b.ID)
		}

		content := "Which booking would you like to reschedule? Reply with /reschedule <booking id>."
		if len(open) > 0 {
			content = "Which booking would you like to reschedule?\n" + formatBookings(open)
		}
		return &Response{
			Kind:    KindForm,
			Content: content,
			Data:    map[string]any{"bookings": open},
			Actions: []Action{{
				Kind:   ActionFormFill,
				Target: "reschedule",
				Data:   map[string]any{"booking_ids": ids},
			}},
		}, nil
	}

	bookingID := params[0]
	when := strings.Join(params[1:], " ")
	details := map[string]any{"booking_id": bookingID, "date": when}
	return &Response{
		Kind:    KindForm,
		Content: fmt.Sprintf("Pick a new time for booking %s.", bookingID),
		Data:    details,
		Actions: []Action{{Kind: ActionFormFill, Target: "reschedule", Data: details}},
	}, nil
}

func (a *Agent) handleCancel(ctx context.Context, params []string, actx *Context) (*Response, error) {
	if len(params) == 0 {
		open := openBookings(a.userBookings(ctx, actx.UserID))
		if len(open) == 0 {
			return TextResponse("Which booking would you like to cancel? Reply with /cancel <booking id>."), nil
		}
		return &Response{
			Kind:    KindText,
			Content: "Which booking would you like to cancel?\n" + formatBookings(open),
			Data:    map[string]any{"bookings": open},
			Actions: []Action{},
		}, nil
	}

	bookingID := params[0]
	a.removePendingBooking(ctx, actx.UserID, bookingID)
	return &Response{
		Kind:    KindAction,
		Content: fmt.Sprintf("Cancelling booking %s.", bookingID),
		Actions: []Action{{Kind: ActionCancel, Target: bookingID}},
	}, nil
}

func (a *Agent) handleStatus(ctx context.Context, _ []string, actx *Context) (*Response, error) {
	if actx.UserID == "" {
		return TextResponse("Please sign in to see your bookings."), nil
	}

	bookings := a.userBookings(ctx, actx.UserID)
	pending := pendingBookings(a.GetMemory(ctx, actx.UserID, memory.KeyPendingBookings))
	if len(bookings) == 0 && len(pending) == 0 {
		return TextResponse("You don't have any bookings yet. Try /find to discover local services."), nil
	}

	var sb strings.Builder
	if len(bookings) > 0 {
		sb.WriteString("Your bookings:\n")
		sb.WriteString(formatBookings(bookings))
	}
	if len(pending) > 0 {
		if sb.Len() > 0 {
			sb.WriteString("\n")
		}
		labels := make([]string, 0, len(pending))
		for _, p := range pending {
			labels = append(labels, p.label())
		}
		sb.WriteString("Waiting for confirmation: " + strings.Join(labels, ", "))
	}

	return &Response{
		Kind:    KindText,
		Content: sb.String(),
		Data:    map[string]any{"bookings": bookings, "pending": pending},
		Actions: []Action{},
	}, nil
}

func (a *Agent) handleRefer(_ context.Context, params []string, actx *Context) (*Response, error) {
	if len(params) == 0 {
		return TextResponse("Who would you like to invite? For example: /refer friend@example.com"), nil
	}

	addr, err := mail.ParseAddress(params[0])
	if err != nil {
		return TextResponse(fmt.Sprintf("%q doesn't look like an email address. Try /refer friend@example.com", params[0])), nil
	}

	return &Response{
		Kind:    KindAction,
		Content: fmt.Sprintf("Thanks! We'll send an invitation to %s.", addr.Address),
		Actions: []Action{{
			Kind:   ActionNotification,
			Target: "referral",
			Data:   map[string]any{"email": addr.Address, "referrer": actx.UserID},
		}},
	}, nil
}

func (a *Agent) handleEscalate(_ context.Context, params []string, actx *Context) (*Response, error) {
	if len(params) == 0 {
		return TextResponse("Please describe the issue, for example: /escalate provider did not show up"), nil
	}

	reason := strings.Join(params, " ")
	return &Response{
		Kind:    KindAction,
		Content: "I've passed this to our support team. Someone will reach out shortly.",
		Actions: []Action{
			{
				Kind:   ActionNotification,
				Target: "support",
				Data:   map[string]any{"reason": reason, "user_id": actx.UserID},
			},
			{Kind: ActionNavigate, Target: a.cfg.SupportPage},
		},
	}, nil
}

func (a *Agent) handleHelp(context.Context, []string, *Context) (*Response, error) {
	commands := a.registry.List()

	var sb strings.Builder
	sb.WriteString("Here's what I can do:")
	for _, cmd := range commands {
		fmt.Fprintf(&sb, "\n/%s - %s", cmd.Name, cmd.Description)
	}

	return &Response{
		Kind:    KindText,
		Content: sb.String(),
		Data:    map[string]any{"commands": commands},
		Actions: []Action{},
	}, nil
}

func (a *Agent) addPendingBooking(ctx context.Context, userID string, draft PendingBooking) {
	if userID == "" {
		return
	}
	pending := pendingBookings(a.GetMemory(ctx, userID, memory.KeyPendingBookings))
	a.SetMemory(ctx, userID, memory.KeyPendingBookings, append(pending, draft))
}

// removePendingBooking drops the draft whose reference is id. When id names a
// confirmed booking instead, the oldest draft for the same service goes.
func (a *Agent) removePendingBooking(ctx context.Context, userID, id string) {
	if userID == "" {
		return
	}
	pending := pendingBookings(a.GetMemory(ctx, userID, memory.KeyPendingBookings))
	if len(pending) == 0 {
		return
	}

	i := slices.IndexFunc(pending, func(p PendingBooking) bool { return p.ID == id })
	if i < 0 {
		for _, b := range a.userBookings(ctx, userID) {
			if b.ID != id {
				continue
			}
			i = slices.IndexFunc(pending, func(p PendingBooking) bool {
				return strings.EqualFold(p.Service, b.Service)
			})
			break
		}
	}
	if i < 0 {
		return
	}
	a.SetMemory(ctx, userID, memory.KeyPendingBookings, slices.Delete(pending, i, i+1))
}

func openBookings(bookings []Booking) []Booking {
	open := make([]Booking, 0, len(bookings))
	for _, b := range bookings {
		if !slices.Contains(closedStatuses, strings.ToLower(b.Status)) {
			open = append(open, b)
		}
	}
	return open
}

func formatBookings(bookings []Booking) string {
	lines := make([]string, 0, len(bookings))
	for _, b := range bookings {
		line := fmt.Sprintf("- %s: %s", b.ID, b.Service)
		if !b.Date.IsZero() {
			line += " on " + b.Date.Format(dateLayout)
		}
		if b.Status != "" {
			line += " (" + b.Status + ")"
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}
