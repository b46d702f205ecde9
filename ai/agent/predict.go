package agent

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/hrygo/loconomy/ai/memory"
)

// DashboardPage is the page on which the last search is offered again.
const DashboardPage = "dashboard"

// PredictIntent suggests likely next commands from the user's memory. The
// rules are evaluated in order and duplicates are dropped:
//  1. on the dashboard with a remembered search: "/find <lastSearch>"
//  2. with pending bookings: "/status"
//  3. last visit older than Config.StaleAfter: the re-engagement suggestion
//
// It never calls the completion or booking services.
func (a *Agent) PredictIntent(ctx context.Context, userID, currentPage string) []string {
	suggestions := []string{}
	if userID == "" {
		return suggestions
	}
	mem := a.GetAllMemory(ctx, userID)

	add := func(s string) {
		if s != "" && !slices.Contains(suggestions, s) {
			suggestions = append(suggestions, s)
		}
	}

	lastSearch, _ := mem[memory.KeyLastSearch].(string)

	if currentPage == DashboardPage && lastSearch != "" {
		add(fmt.Sprintf("/find %s", lastSearch))
	}

	if len(pendingBookings(mem[memory.KeyPendingBookings])) > 0 {
		add("/status")
	}

	if lastVisit, ok := asTime(mem[memory.KeyLastVisit]); ok && a.now().Sub(lastVisit) > a.cfg.StaleAfter {
		add(a.staleSuggestion(lastSearch))
	}

	return suggestions
}

func (a *Agent) staleSuggestion(lastSearch string) string {
	if a.cfg.StaleSuggestion != "" {
		return a.cfg.StaleSuggestion
	}
	if lastSearch != "" {
		return "/find " + lastSearch
	}
	return "/help"
}

// pendingBookings reads the pendingBookings memory value. Stores that
// round-trip through JSON hand back []any of maps instead of []PendingBooking;
// bare strings are read as drafts whose reference is the service name. The
// result is always a fresh slice.
func pendingBookings(v any) []PendingBooking {
	switch list := v.(type) {
	case []PendingBooking:
		return slices.Clone(list)
	case []string:
		out := make([]PendingBooking, 0, len(list))
		for _, s := range list {
			out = append(out, PendingBooking{ID: s, Service: s})
		}
		return out
	case []any:
		out := make([]PendingBooking, 0, len(list))
		for _, item := range list {
			switch it := item.(type) {
			case PendingBooking:
				out = append(out, it)
			case string:
				out = append(out, PendingBooking{ID: it, Service: it})
			case map[string]any:
				id, _ := it["id"].(string)
				service, _ := it["service"].(string)
				date, _ := it["date"].(string)
				if id != "" || service != "" {
					out = append(out, PendingBooking{ID: id, Service: service, Date: date})
				}
			}
		}
		return out
	default:
		return []PendingBooking{}
	}
}

func (p PendingBooking) label() string {
	if p.ID == "" || p.ID == p.Service {
		return p.Service
	}
	return fmt.Sprintf("%s (ref %s)", p.Service, p.ID)
}

// asTime reads a lastVisit value written as time.Time, or as an RFC 3339
// string after a JSON round trip.
func asTime(v any) (time.Time, bool) {
	switch t := v.(type) {
	case time.Time:
		return t, !t.IsZero()
	case string:
		parsed, err := time.Parse(time.RFC3339Nano, t)
		if err != nil {
			return time.Time{}, false
		}
		return parsed, true
	default:
		return time.Time{}, false
	}
}
