package http

import (
	"net/http"
	"strconv"

	"github.com/sperezintexas/fintech-app-sub006/internal/scheduler/dto"
	"github.com/sperezintexas/fintech-app-sub006/internal/scheduler/service"
	"github.com/sperezintexas/fintech-app-sub006/pkg/logger"

	"github.com/labstack/echo/v4"
)

// ExecutionHistoryHandler handles HTTP requests for job run history.
type ExecutionHistoryHandler struct {
	historyService service.ExecutionHistoryService
	logger         *logger.Logger
}

// NewExecutionHistoryHandler creates a new ExecutionHistoryHandler.
func NewExecutionHistoryHandler(historyService service.ExecutionHistoryService, logger *logger.Logger) *ExecutionHistoryHandler {
	return &ExecutionHistoryHandler{historyService: historyService, logger: logger}
}

// RegisterRoutes registers the history routes to the Echo group.
func (h *ExecutionHistoryHandler) RegisterRoutes(g *echo.Group) {
	g.GET("", h.GetAllHistories)
	g.GET("/job/:jobId", h.GetHistoriesByJobID)
}

// GetAllHistories returns every recorded run, newest first.
func (h *ExecutionHistoryHandler) GetAllHistories(c echo.Context) error {
	histories, err := h.historyService.ListHistories(c.Request().Context())
	if err != nil {
		h.logger.Error("Failed to get execution histories", logger.ErrorField(err))
		return c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to get execution histories"})
	}
	return c.JSON(http.StatusOK, histories)
}

// GetHistoriesByJobID returns one job's runs, newest first.
func (h *ExecutionHistoryHandler) GetHistoriesByJobID(c echo.Context) error {
	jobID, err := strconv.ParseUint(c.Param("jobId"), 10, 32)
	if err != nil {
		return c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid job ID"})
	}

	histories, err := h.historyService.ListHistoriesByJob(c.Request().Context(), uint(jobID))
	if err != nil {
		h.logger.Error("Failed to get execution histories", logger.ErrorField(err))
		return c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to get execution histories"})
	}
	return c.JSON(http.StatusOK, histories)
}
