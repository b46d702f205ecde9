// Package routing classifies free-form concierge requests into a fixed set
// of intents using a text completion backend.
package routing

import "context"

// Completer is the text completion backend used for classification.
type Completer interface {
	Complete(ctx context.Context, prompt string, maxTokens int) (string, error)
}

// Intent represents the type of user intent.
type Intent string

const (
	IntentServiceSearch  Intent = "service_search"
	IntentBookingRequest Intent = "booking_request"
	IntentReschedule     Intent = "reschedule"
	IntentCancel         Intent = "cancel"
	IntentComplaint      Intent = "complaint"
	IntentGeneral        Intent = "general"
)

// allIntents is ordered so more specific labels are matched before general.
var allIntents = []Intent{
	IntentServiceSearch,
	IntentBookingRequest,
	IntentReschedule,
	IntentCancel,
	IntentComplaint,
	IntentGeneral,
}

// AllIntents returns every label the classifier may produce.
func AllIntents() []Intent {
	out := make([]Intent, len(allIntents))
	copy(out, allIntents)
	return out
}

// IsValid reports whether i is one of the known labels.
func (i Intent) IsValid() bool {
	for _, known := range allIntents {
		if i == known {
			return true
		}
	}
	return false
}

// Source records how a classification was produced.
type Source string

const (
	SourceLLM      Source = "llm"
	SourceCache    Source = "cache"
	SourceFallback Source = "fallback"
)
