package http

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/sperezintexas/fintech-app-sub006/internal/alert"
	"github.com/sperezintexas/fintech-app-sub006/pkg/logger"

	"github.com/labstack/echo/v4"
)

// AlertHandler handles HTTP requests for watchlist alerts.
type AlertHandler struct {
	alertService alert.Service
	logger       *logger.Logger
}

// NewAlertHandler creates a new AlertHandler.
func NewAlertHandler(alertService alert.Service, logger *logger.Logger) *AlertHandler {
	return &AlertHandler{alertService: alertService, logger: logger}
}

// RegisterRoutes registers the alert routes to the Echo group.
func (h *AlertHandler) RegisterRoutes(g *echo.Group) {
	g.GET("", h.ListAlerts)
	g.POST("/:id/ack", h.AcknowledgeAlert)
}

// ListAlerts returns alerts filtered by account and acknowledgement state.
func (h *AlertHandler) ListAlerts(c echo.Context) error {
	accountID := c.QueryParam("account_id")
	unackedOnly := c.QueryParam("unacknowledged") == "true"

	alerts, err := h.alertService.ListAlerts(c.Request().Context(), accountID, unackedOnly)
	if err != nil {
		h.logger.Error("Failed to list alerts", logger.ErrorField(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to list alerts"})
	}
	return c.JSON(http.StatusOK, alerts)
}

// AcknowledgeAlert marks one alert acknowledged, re-arming its dedup key.
func (h *AlertHandler) AcknowledgeAlert(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid alert ID"})
	}

	if err := h.alertService.AcknowledgeAlert(c.Request().Context(), uint(id)); err != nil {
		if errors.Is(err, alert.ErrAlertNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": err.Error()})
		}
		h.logger.Error("Failed to acknowledge alert", logger.ErrorField(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": err.Error()})
	}
	return c.JSON(http.StatusOK, echo.Map{"id": id, "acknowledged": true})
}
