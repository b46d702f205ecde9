package v1

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/hrygo/loconomy/ai/agent"
	"github.com/hrygo/loconomy/internal/profile"
	"github.com/hrygo/loconomy/server/service/booking"
)

// maxBodySize bounds request bodies on the agent API.
const maxBodySize = "64K"

type APIV1Service struct {
	Profile *profile.Profile
	Agent   *agent.Agent

	// Bookings is optional; booking routes are registered only when set.
	Bookings *booking.Service
}

func NewAPIV1Service(profile *profile.Profile, a *agent.Agent, bookings *booking.Service) *APIV1Service {
	return &APIV1Service{
		Profile:  profile,
		Agent:    a,
		Bookings: bookings,
	}
}

// RegisterRoutes mounts the REST endpoints under /api/v1.
func (s *APIV1Service) RegisterRoutes(e *echo.Echo) {
	corsHandler := middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOriginFunc: func(_ string) (bool, error) {
			return true, nil
		},
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodOptions},
		AllowHeaders: []string{"*"},
	})
	requestID := middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		Generator: uuid.NewString,
	})

	g := e.Group("/api/v1", corsHandler, requestID, middleware.BodyLimit(maxBodySize))

	agentGroup := g.Group("/agent")
	agentGroup.POST("/process", s.ProcessInput)
	agentGroup.GET("/commands", s.ListCommands)
	agentGroup.GET("/predict", s.PredictIntent)
	agentGroup.GET("/memory/:user", s.GetMemory)
	agentGroup.PUT("/memory/:user/:key", s.SetMemory)

	if s.Bookings != nil {
		g.GET("/bookings/:user", s.ListBookings)
		g.POST("/bookings", s.CreateBooking)
	}
}
