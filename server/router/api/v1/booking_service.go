package v1

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/hrygo/loconomy/ai/agent"
)

type CreateBookingRequest struct {
	UserID  string    `json:"user_id"`
	Service string    `json:"service"`
	Date    time.Time `json:"date"`
}

type ListBookingsResponse struct {
	Bookings []agent.Booking `json:"bookings"`
}

func (s *APIV1Service) ListBookings(c echo.Context) error {
	bookings, err := s.Bookings.GetUserBookings(c.Request().Context(), c.Param("user"))
	if err != nil {
		slog.Error("failed to list bookings", "user_id", c.Param("user"), "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to list bookings")
	}
	return c.JSON(http.StatusOK, ListBookingsResponse{Bookings: bookings})
}

func (s *APIV1Service) CreateBooking(c echo.Context) error {
	var req CreateBookingRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	req.UserID, req.Service = strings.TrimSpace(req.UserID), strings.TrimSpace(req.Service)
	if req.UserID == "" || req.Service == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "user_id and service are required")
	}
	if req.Date.IsZero() {
		return echo.NewHTTPError(http.StatusBadRequest, "date is required")
	}

	b, err := s.Bookings.CreateBooking(c.Request().Context(), req.UserID, req.Service, req.Date)
	if err != nil {
		slog.Error("failed to create booking", "user_id", req.UserID, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to create booking")
	}
	return c.JSON(http.StatusCreated, b)
}
