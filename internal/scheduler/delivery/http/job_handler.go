package http

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/sperezintexas/fintech-app-sub006/internal/entity"
	"github.com/sperezintexas/fintech-app-sub006/internal/scheduler/dto"
	"github.com/sperezintexas/fintech-app-sub006/internal/scheduler/service"
	"github.com/sperezintexas/fintech-app-sub006/pkg/logger"

	"github.com/labstack/echo/v4"
)

// JobHandler handles HTTP requests for job definitions.
type JobHandler struct {
	jobService service.JobService
	logger     *logger.Logger
}

// NewJobHandler creates a new JobHandler.
func NewJobHandler(jobService service.JobService, logger *logger.Logger) *JobHandler {
	return &JobHandler{jobService: jobService, logger: logger}
}

// RegisterRoutes registers the job routes to the Echo group.
func (h *JobHandler) RegisterRoutes(g *echo.Group) {
	g.POST("", h.ScheduleJob)
	g.GET("", h.GetAllJobs)
	g.GET("/status", h.GetJobStatuses)
	g.GET("/:id", h.GetJobByID)
	g.DELETE("/:id", h.DeleteJob)
	g.DELETE("/name/:name/schedules", h.CancelJob)
	g.PUT("/name/:name/pause", h.PauseJob)
	g.PUT("/name/:name/resume", h.ResumeJob)
}

// ScheduleJob creates or replaces a job definition by name.
func (h *JobHandler) ScheduleJob(c echo.Context) error {
	var req dto.ScheduleJobRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid request payload"})
	}

	job, err := h.jobService.ScheduleJob(c.Request().Context(), &req)
	if err != nil {
		if errors.Is(err, service.ErrUnknownJobType) {
			return c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: err.Error()})
		}
		h.logger.Error("Failed to schedule job", logger.ErrorField(err), logger.StringField("job_name", req.Name))
		return c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: err.Error()})
	}
	return c.JSON(http.StatusCreated, job)
}

// GetJobByID returns a single job with its schedules.
func (h *JobHandler) GetJobByID(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid job ID"})
	}

	job, err := h.jobService.GetJob(c.Request().Context(), uint(id))
	if err != nil {
		if errors.Is(err, service.ErrJobNotFound) {
			return c.JSON(http.StatusNotFound, dto.ErrorResponse{Error: err.Error()})
		}
		return c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: err.Error()})
	}
	return c.JSON(http.StatusOK, job)
}

// GetAllJobs returns every job definition.
func (h *JobHandler) GetAllJobs(c echo.Context) error {
	jobs, err := h.jobService.ListJobs(c.Request().Context())
	if err != nil {
		h.logger.Error("Failed to get all jobs", logger.ErrorField(err))
		return c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to get jobs"})
	}
	return c.JSON(http.StatusOK, jobs)
}

// GetJobStatuses returns each job joined with its latest run.
func (h *JobHandler) GetJobStatuses(c echo.Context) error {
	statuses, err := h.jobService.JobStatuses(c.Request().Context())
	if err != nil {
		h.logger.Error("Failed to get job statuses", logger.ErrorField(err))
		return c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to get job statuses"})
	}
	return c.JSON(http.StatusOK, statuses)
}

// CancelJob removes the named job's schedules and reports the count.
func (h *JobHandler) CancelJob(c echo.Context) error {
	name := c.Param("name")
	removed, err := h.jobService.CancelJob(c.Request().Context(), name)
	if err != nil {
		if errors.Is(err, service.ErrJobNotFound) {
			return c.JSON(http.StatusNotFound, dto.ErrorResponse{Error: err.Error()})
		}
		h.logger.Error("Failed to cancel job", logger.ErrorField(err), logger.StringField("job_name", name))
		return c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: err.Error()})
	}
	return c.JSON(http.StatusOK, dto.CancelJobResponse{JobName: name, SchedulesRemoved: removed})
}

// PauseJob stops the scheduler from triggering the named job.
func (h *JobHandler) PauseJob(c echo.Context) error {
	return h.setStatus(c, entity.JobStatusPaused)
}

// ResumeJob re-enables triggering for the named job.
func (h *JobHandler) ResumeJob(c echo.Context) error {
	return h.setStatus(c, entity.JobStatusActive)
}

func (h *JobHandler) setStatus(c echo.Context, status entity.JobStatus) error {
	name := c.Param("name")
	if err := h.jobService.SetJobStatus(c.Request().Context(), name, status); err != nil {
		if errors.Is(err, service.ErrJobNotFound) {
			return c.JSON(http.StatusNotFound, dto.ErrorResponse{Error: err.Error()})
		}
		return c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: err.Error()})
	}
	return c.JSON(http.StatusOK, echo.Map{"job_name": name, "status": status})
}

// DeleteJob removes a job with its schedules and history.
func (h *JobHandler) DeleteJob(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid job ID"})
	}

	if err := h.jobService.DeleteJob(c.Request().Context(), uint(id)); err != nil {
		if errors.Is(err, service.ErrJobNotFound) {
			return c.JSON(http.StatusNotFound, dto.ErrorResponse{Error: err.Error()})
		}
		h.logger.Error("Failed to delete job", logger.ErrorField(err))
		return c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: err.Error()})
	}
	return c.NoContent(http.StatusNoContent)
}
