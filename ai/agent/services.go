package agent

import (
	"context"
	"strings"
)

// Upstream names reported to the Recorder.
const (
	upstreamCompletion = "completion"
	upstreamBookings   = "bookings"
)

// complete calls the completion service with the configured timeout. A nil
// service, an error or an empty reply all report ok=false.
func (a *Agent) complete(ctx context.Context, prompt string, maxTokens int) (string, bool) {
	if a.completion == nil {
		return "", false
	}

	callCtx, cancel := context.WithTimeout(ctx, a.cfg.CompletionTimeout)
	defer cancel()

	reply, err := a.completion.Complete(callCtx, prompt, maxTokens)
	if err != nil {
		a.recorder.RecordUpstreamError(upstreamCompletion)
		a.logger.Warn("completion failed", "error", err)
		return "", false
	}
	reply = strings.TrimSpace(reply)
	return reply, reply != ""
}

// userBookings returns the user's bookings, or an empty slice on any failure.
func (a *Agent) userBookings(ctx context.Context, userID string) []Booking {
	if a.bookings == nil || userID == "" {
		return []Booking{}
	}
	bookings, err := a.bookings.GetUserBookings(ctx, userID)
	if err != nil {
		a.recorder.RecordUpstreamError(upstreamBookings)
		a.logger.Warn("booking lookup failed", "user_id", userID, "error", err)
		return []Booking{}
	}
	if bookings == nil {
		return []Booking{}
	}
	return bookings
}

// searchServices returns matching listings, or an empty slice on any failure.
func (a *Agent) searchServices(ctx context.Context, serviceType string, actx *Context) []ServiceListing {
	if a.bookings == nil {
		return []ServiceListing{}
	}
	listings, err := a.bookings.SearchServices(ctx, serviceType, actx)
	if err != nil {
		a.recorder.RecordUpstreamError(upstreamBookings)
		a.logger.Warn("service search failed", "service", serviceType, "error", err)
		return []ServiceListing{}
	}
	if listings == nil {
		return []ServiceListing{}
	}
	return listings
}
