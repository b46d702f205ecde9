package v1

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hrygo/loconomy/ai/agent"
	"github.com/hrygo/loconomy/ai/memory"
	"github.com/hrygo/loconomy/internal/profile"
	"github.com/hrygo/loconomy/server/service/booking"
	"github.com/hrygo/loconomy/store"
	"github.com/hrygo/loconomy/store/db/sqlite"
)

func newTestServer(t *testing.T, withBookings bool) (*echo.Echo, *agent.Agent) {
	t.Helper()
	p := &profile.Profile{Mode: "dev"}

	var bookings *booking.Service
	if withBookings {
		p.Driver, p.DSN = "sqlite", filepath.Join(t.TempDir(), "api.db")
		driver, err := sqlite.NewDB(p)
		require.NoError(t, err)
		s := store.New(driver, p)
		t.Cleanup(func() { _ = s.Close() })
		require.NoError(t, s.Migrate(context.Background()))
		bookings = booking.NewService(s, 5)
	}

	var qs agent.BookingQueryService
	if bookings != nil {
		qs = bookings
	}
	a := agent.New(agent.DefaultConfig(), nil, qs)

	e := echo.New()
	NewAPIV1Service(p, a, bookings).RegisterRoutes(e)
	return e, a
}

func do(t *testing.T, e *echo.Echo, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestProcessInput(t *testing.T) {
	e, _ := newTestServer(t, false)

	rec := do(t, e, http.MethodPost, "/api/v1/agent/process",
		`{"input":"/help","context":{"user_id":"u1","current_page":"home"}}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get(echo.HeaderXRequestID))

	var resp agent.Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, agent.KindText, resp.Kind)
	assert.Contains(t, resp.Content, "/find")
	assert.NotNil(t, resp.Actions)
}

func TestProcessInput_NoContext(t *testing.T) {
	e, _ := newTestServer(t, false)

	rec := do(t, e, http.MethodPost, "/api/v1/agent/process", `{"input":"/nope"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "I don't recognize the command /nope")
	assert.Contains(t, rec.Body.String(), `"actions":[]`)
}

func TestProcessInput_BadBody(t *testing.T) {
	e, _ := newTestServer(t, false)

	rec := do(t, e, http.MethodPost, "/api/v1/agent/process", `{"input":`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestListCommands(t *testing.T) {
	e, _ := newTestServer(t, false)

	rec := do(t, e, http.MethodGet, "/api/v1/agent/commands", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp ListCommandsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	names := make([]string, 0, len(resp.Commands))
	for _, c := range resp.Commands {
		names = append(names, c.Name)
	}
	assert.Equal(t, []string{"book", "cancel", "escalate", "find", "help", "refer", "reschedule", "status"}, names)
}

func TestPredictIntent(t *testing.T) {
	e, a := newTestServer(t, false)
	a.SetMemory(context.Background(), "u1", memory.KeyLastSearch, "plumber")

	rec := do(t, e, http.MethodGet, "/api/v1/agent/predict?user_id=u1&page=dashboard", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp PredictIntentResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, []string{"/find plumber"}, resp.Suggestions)

	rec = do(t, e, http.MethodGet, "/api/v1/agent/predict", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"suggestions":[]}`, rec.Body.String())
}

func TestMemoryRoundTrip(t *testing.T) {
	e, _ := newTestServer(t, false)

	rec := do(t, e, http.MethodPut, "/api/v1/agent/memory/u1/favorite", `{"value":"gardening"}`)
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = do(t, e, http.MethodGet, "/api/v1/agent/memory/u1", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp MemoryResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "u1", resp.UserID)
	assert.Equal(t, "gardening", resp.Memory["favorite"])

	rec = do(t, e, http.MethodGet, "/api/v1/agent/memory/nobody", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"user_id":"nobody","memory":{}}`, rec.Body.String())
}

func TestBookingRoutes(t *testing.T) {
	e, _ := newTestServer(t, true)
	date := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC).Format(time.RFC3339)

	rec := do(t, e, http.MethodPost, "/api/v1/bookings", `{"user_id":"u1","service":"cleaning","date":"`+date+`"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	var created agent.Booking
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.NotEmpty(t, created.ID)

	rec = do(t, e, http.MethodGet, "/api/v1/bookings/u1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var list ListBookingsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Len(t, list.Bookings, 1)
	assert.Equal(t, created.ID, list.Bookings[0].ID)

	rec = do(t, e, http.MethodPost, "/api/v1/bookings", `{"user_id":"u1"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// The agent sees the stored booking through the same service.
	rec = do(t, e, http.MethodPost, "/api/v1/agent/process", `{"input":"/status","context":{"user_id":"u1"}}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), created.ID)
}

func TestBookingRoutes_DisabledWithoutService(t *testing.T) {
	e, _ := newTestServer(t, false)

	rec := do(t, e, http.MethodGet, "/api/v1/bookings/u1", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestProcessInput_ForwardsNotifications(t *testing.T) {
	delivered := make(chan map[string]any, 1)
	hook := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var payload map[string]any
		_ = json.NewDecoder(r.Body).Decode(&payload)
		delivered <- payload
	}))
	t.Cleanup(hook.Close)

	e := echo.New()
	p := &profile.Profile{NotifyWebhookURL: hook.URL}
	NewAPIV1Service(p, agent.New(agent.DefaultConfig(), nil, nil), nil).RegisterRoutes(e)

	rec := do(t, e, http.MethodPost, "/api/v1/agent/process", `{"input":"/escalate late provider","context":{"user_id":"u9"}}`)
	require.Equal(t, http.StatusOK, rec.Code)

	select {
	case payload := <-delivered:
		assert.Equal(t, "support", payload["target"])
		assert.Equal(t, "u9", payload["user_id"])
		assert.Equal(t, rec.Header().Get(echo.HeaderXRequestID), payload["request_id"])
	case <-time.After(5 * time.Second):
		t.Fatal("notification was not forwarded")
	}
}
