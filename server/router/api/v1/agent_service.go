package v1

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/hrygo/loconomy/ai/agent"
	"github.com/hrygo/loconomy/plugin/webhook"
)

type ProcessInputRequest struct {
	Input   string         `json:"input"`
	Context *agent.Context `json:"context,omitempty"`
}

type ListCommandsResponse struct {
	Commands []CommandInfo `json:"commands"`
}

type CommandInfo struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Usage       string `json:"usage"`
}

type PredictIntentResponse struct {
	Suggestions []string `json:"suggestions"`
}

type MemoryResponse struct {
	UserID string         `json:"user_id"`
	Memory map[string]any `json:"memory"`
}

type SetMemoryRequest struct {
	Value any `json:"value"`
}

// ProcessInput runs one user input through the agent. The agent always
// answers, so only malformed requests produce an error status.
func (s *APIV1Service) ProcessInput(c echo.Context) error {
	var req ProcessInputRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	resp := s.Agent.ProcessInput(c.Request().Context(), req.Input, req.Context)
	s.dispatchNotifications(c, req.Context, resp)
	return c.JSON(http.StatusOK, resp)
}

// dispatchNotifications forwards notification actions to the configured
// webhook without delaying the response.
func (s *APIV1Service) dispatchNotifications(c echo.Context, actx *agent.Context, resp *agent.Response) {
	if s.Profile == nil || s.Profile.NotifyWebhookURL == "" {
		return
	}
	var userID string
	if actx != nil {
		userID = actx.UserID
	}
	for _, act := range resp.Actions {
		if act.Kind != agent.ActionNotification {
			continue
		}
		webhook.PostAsync(c.Request().Context(), &webhook.NotificationPayload{
			URL:       s.Profile.NotifyWebhookURL,
			Target:    act.Target,
			UserID:    userID,
			RequestID: c.Response().Header().Get(echo.HeaderXRequestID),
			Data:      act.Data,
			CreatedTs: time.Now().Unix(),
		})
	}
}

func (s *APIV1Service) ListCommands(c echo.Context) error {
	cmds := s.Agent.Commands()
	out := make([]CommandInfo, 0, len(cmds))
	for _, cmd := range cmds {
		out = append(out, CommandInfo{
			Name:        cmd.Name,
			Description: cmd.Description,
			Usage:       cmd.Usage(),
		})
	}
	return c.JSON(http.StatusOK, ListCommandsResponse{Commands: out})
}

func (s *APIV1Service) PredictIntent(c echo.Context) error {
	userID := strings.TrimSpace(c.QueryParam("user_id"))
	page := strings.TrimSpace(c.QueryParam("page"))

	suggestions := s.Agent.PredictIntent(c.Request().Context(), userID, page)
	return c.JSON(http.StatusOK, PredictIntentResponse{Suggestions: suggestions})
}

func (s *APIV1Service) GetMemory(c echo.Context) error {
	userID := c.Param("user")
	return c.JSON(http.StatusOK, MemoryResponse{
		UserID: userID,
		Memory: s.Agent.GetAllMemory(c.Request().Context(), userID),
	})
}

func (s *APIV1Service) SetMemory(c echo.Context) error {
	userID, key := strings.TrimSpace(c.Param("user")), strings.TrimSpace(c.Param("key"))
	if userID == "" || key == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "user and key are required")
	}

	var req SetMemoryRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	s.Agent.SetMemory(c.Request().Context(), userID, key, req.Value)
	slog.Debug("memory updated via api",
		"user_id", userID,
		"key", key,
		"request_id", c.Response().Header().Get(echo.HeaderXRequestID),
	)
	return c.NoContent(http.StatusNoContent)
}
