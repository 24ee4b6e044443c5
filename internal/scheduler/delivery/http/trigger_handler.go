package http

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/sperezintexas/fintech-app-sub006/internal/entity"
	"github.com/sperezintexas/fintech-app-sub006/internal/scheduler/dto"
	"github.com/sperezintexas/fintech-app-sub006/internal/scheduler/service"
	"github.com/sperezintexas/fintech-app-sub006/pkg/logger"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"
)

// TriggerConfig secures and bounds the manual trigger endpoint.
type TriggerConfig struct {
	Token   string        `mapstructure:"token"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// TriggerHandler forces job runs outside their schedules. Every response,
// success or failure, carries a structured JobExecutionResult so callers
// can log outcomes uniformly.
type TriggerHandler struct {
	scheduler  *service.Scheduler
	jobService service.JobService
	cfg        TriggerConfig
	logger     *logger.Logger
}

// NewTriggerHandler creates a new TriggerHandler.
func NewTriggerHandler(scheduler *service.Scheduler, jobService service.JobService, cfg TriggerConfig, logger *logger.Logger) *TriggerHandler {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Minute
	}
	return &TriggerHandler{scheduler: scheduler, jobService: jobService, cfg: cfg, logger: logger}
}

// RegisterRoutes registers the trigger route to the Echo group.
func (h *TriggerHandler) RegisterRoutes(g *echo.Group) {
	g.POST("", h.Trigger)
}

// authorized checks the bearer token or the X-Trigger-Token header.
func (h *TriggerHandler) authorized(c echo.Context) bool {
	if h.cfg.Token == "" {
		return false
	}
	auth := c.Request().Header.Get("Authorization")
	if strings.HasPrefix(auth, "Bearer ") && strings.TrimPrefix(auth, "Bearer ") == h.cfg.Token {
		return true
	}
	return c.Request().Header.Get("X-Trigger-Token") == h.cfg.Token
}

// Trigger runs the job named by exactly one of task_id or job_name. A name
// with no stored definition runs as a built-in type when it matches one.
func (h *TriggerHandler) Trigger(c echo.Context) error {
	if h.cfg.Token == "" {
		return c.JSON(http.StatusServiceUnavailable, dto.ErrorResponse{Error: "Trigger endpoint is not configured"})
	}
	if !h.authorized(c) {
		return c.JSON(http.StatusUnauthorized, dto.ErrorResponse{Error: "Invalid trigger token"})
	}

	var req dto.TriggerRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid request payload"})
	}
	if (req.TaskID == nil) == (req.JobName == "") {
		return c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "Exactly one of task_id or job_name is required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.cfg.Timeout)
	defer cancel()

	result, err := h.run(ctx, &req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrJobAlreadyRunning):
			return c.JSON(http.StatusConflict, result)
		case errors.Is(err, service.ErrJobsDisabled):
			return c.JSON(http.StatusServiceUnavailable, dto.ErrorResponse{Error: err.Error()})
		case errors.Is(err, service.ErrJobNotFound), errors.Is(err, service.ErrUnknownJobType):
			return c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: err.Error()})
		default:
			h.logger.Error("Trigger failed", logger.ErrorField(err), logger.StringField("job_name", req.JobName))
			return c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: err.Error()})
		}
	}
	// A job that ran and failed is still a well-formed outcome.
	return c.JSON(http.StatusOK, result)
}

func (h *TriggerHandler) run(ctx context.Context, req *dto.TriggerRequest) (*dto.JobExecutionResult, error) {
	if req.TaskID != nil {
		job, err := h.jobService.GetJob(ctx, *req.TaskID)
		if err != nil {
			return nil, err
		}
		return h.scheduler.RunJobNow(ctx, job.Name, req.AccountID, req.Config)
	}

	result, err := h.scheduler.RunJobNow(ctx, req.JobName, req.AccountID, req.Config)
	if err == nil || !errors.Is(err, gorm.ErrRecordNotFound) && !errors.Is(err, service.ErrJobNotFound) {
		return result, err
	}

	// No stored job by that name; fall back to the built-in set.
	jobType := entity.JobType(req.JobName)
	if !jobType.Valid() {
		return nil, service.ErrUnknownJobType
	}
	return h.scheduler.RunBuiltIn(ctx, jobType, req.AccountID, req.Config)
}
