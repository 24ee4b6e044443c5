package http

import (
	"net/http"

	"github.com/sperezintexas/fintech-app-sub006/internal/alert"
	"github.com/sperezintexas/fintech-app-sub006/internal/entity"
	"github.com/sperezintexas/fintech-app-sub006/pkg/logger"

	"github.com/labstack/echo/v4"
)

// PreferencesHandler handles HTTP requests for per-account alert
// preferences.
type PreferencesHandler struct {
	alertService alert.Service
	logger       *logger.Logger
}

// NewPreferencesHandler creates a new PreferencesHandler.
func NewPreferencesHandler(alertService alert.Service, logger *logger.Logger) *PreferencesHandler {
	return &PreferencesHandler{alertService: alertService, logger: logger}
}

// RegisterRoutes registers the preference routes to the Echo group.
func (h *PreferencesHandler) RegisterRoutes(g *echo.Group) {
	g.GET("/:accountId", h.GetPreferences)
	g.PUT("/:accountId", h.SavePreferences)
}

// GetPreferences returns the account's preferences, defaults included.
func (h *PreferencesHandler) GetPreferences(c echo.Context) error {
	accountID := c.Param("accountId")
	prefs, err := h.alertService.GetPreferences(c.Request().Context(), accountID)
	if err != nil {
		h.logger.Error("Failed to get preferences", logger.ErrorField(err), logger.StringField("account_id", accountID))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to get preferences"})
	}
	return c.JSON(http.StatusOK, prefs)
}

// SavePreferences upserts the account's preferences.
func (h *PreferencesHandler) SavePreferences(c echo.Context) error {
	var prefs entity.AlertPreferences
	if err := c.Bind(&prefs); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid request payload"})
	}
	prefs.AccountID = c.Param("accountId")

	if err := h.alertService.SavePreferences(c.Request().Context(), &prefs); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	return c.JSON(http.StatusOK, prefs)
}
