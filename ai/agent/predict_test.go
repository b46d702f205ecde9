package agent

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/hrygo/loconomy/ai/memory"
)

func TestPredictIntent(t *testing.T) {
	now := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		cfg      Config
		memory   map[string]any
		page     string
		expected []string
	}{
		{
			name:     "no memory",
			page:     DashboardPage,
			expected: []string{},
		},
		{
			name:     "dashboard with last search",
			memory:   map[string]any{memory.KeyLastSearch: "plumber"},
			page:     DashboardPage,
			expected: []string{"/find plumber"},
		},
		{
			name:     "last search elsewhere",
			memory:   map[string]any{memory.KeyLastSearch: "plumber"},
			page:     "bookings",
			expected: []string{},
		},
		{
			name:     "pending bookings",
			memory:   map[string]any{memory.KeyPendingBookings: []string{"cleaner"}},
			expected: []string{"/status"},
		},
		{
			name: "pending drafts from a json store",
			memory: map[string]any{memory.KeyPendingBookings: []any{
				map[string]any{"id": "d1", "service": "cleaner", "date": "friday"},
			}},
			expected: []string{"/status"},
		},
		{
			name:     "empty pending bookings",
			memory:   map[string]any{memory.KeyPendingBookings: []string{}},
			expected: []string{},
		},
		{
			name: "stale visit without search",
			memory: map[string]any{
				memory.KeyLastVisit: now.Add(-8 * 24 * time.Hour),
			},
			expected: []string{"/help"},
		},
		{
			name: "recent visit",
			memory: map[string]any{
				memory.KeyLastVisit: now.Add(-24 * time.Hour),
			},
			expected: []string{},
		},
		{
			name: "stale visit as string from a json store",
			memory: map[string]any{
				memory.KeyLastSearch: "tutor",
				memory.KeyLastVisit:  now.Add(-30 * 24 * time.Hour).Format(time.RFC3339Nano),
			},
			page:     "profile",
			expected: []string{"/find tutor"},
		},
		{
			name: "all rules in order without duplicates",
			memory: map[string]any{
				memory.KeyLastSearch:      "tutor",
				memory.KeyPendingBookings: []any{"tutor"},
				memory.KeyLastVisit:       now.Add(-30 * 24 * time.Hour),
			},
			page:     DashboardPage,
			expected: []string{"/find tutor", "/status"},
		},
		{
			name: "configured suggestion",
			cfg:  Config{StaleSuggestion: "/find deals", StaleAfter: time.Hour},
			memory: map[string]any{
				memory.KeyLastVisit: now.Add(-2 * time.Hour),
			},
			expected: []string{"/find deals"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := New(tt.cfg, nil, nil)
			a.now = func() time.Time { return now }
			for k, v := range tt.memory {
				a.SetMemory(context.Background(), "u1", k, v)
			}

			got := a.PredictIntent(context.Background(), "u1", tt.page)
			assert.NotNil(t, got)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestPredictIntent_NoIO(t *testing.T) {
	comp := &scriptedCompletion{label: "general"}
	a := New(DefaultConfig(), comp, nil)

	a.SetMemory(context.Background(), "u1", memory.KeyLastSearch, "plumber")
	assert.Equal(t, []string{"/find plumber"}, a.PredictIntent(context.Background(), "u1", DashboardPage))
	assert.Empty(t, a.PredictIntent(context.Background(), "", DashboardPage))
	assert.Zero(t, comp.calls.Load())
}

func TestAsTime(t *testing.T) {
	ts := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	got, ok := asTime(ts)
	assert.True(t, ok)
	assert.Equal(t, ts, got)

	got, ok = asTime(ts.Format(time.RFC3339))
	assert.True(t, ok)
	assert.True(t, ts.Equal(got))

	_, ok = asTime("yesterday")
	assert.False(t, ok)
	_, ok = asTime(42.0)
	assert.False(t, ok)
}

func TestPendingBookings(t *testing.T) {
	tests := []struct {
		name     string
		value    any
		expected []PendingBooking
	}{
		{"nil", nil, []PendingBooking{}},
		{"records", []PendingBooking{{ID: "d1", Service: "cleaner"}}, []PendingBooking{{ID: "d1", Service: "cleaner"}}},
		{"bare strings", []string{"cleaner"}, []PendingBooking{{ID: "cleaner", Service: "cleaner"}}},
		{
			name: "json decoded",
			value: []any{
				map[string]any{"id": "d1", "service": "plumber", "date": "monday"},
				"tutor",
				42,
				map[string]any{},
			},
			expected: []PendingBooking{
				{ID: "d1", Service: "plumber", Date: "monday"},
				{ID: "tutor", Service: "tutor"},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, pendingBookings(tt.value))
		})
	}
}
