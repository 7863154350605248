package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/printnet/printnet/internal/api/middleware"
	"github.com/printnet/printnet/internal/core"
)

type SubmitJobRequest struct {
	ModelID       string             `json:"model_id" binding:"required"`
	Name          *string            `json:"name"`
	Filament      *core.FilamentSpec `json:"filament"`
	ScheduledTime *time.Time         `json:"scheduled_time"`
	EstimatedTime *int64             `json:"estimated_time"`
}

type PatchJobRequest struct {
	Status    *string    `json:"status"`
	Progress  *float64   `json:"progress"`
	StartTime *time.Time `json:"start_time"`
}

type JobHandler struct {
	jobs         *core.JobService
	orchestrator *core.Orchestrator
}

func NewJobHandler(jobs *core.JobService, orchestrator *core.Orchestrator) *JobHandler {
	return &JobHandler{jobs: jobs, orchestrator: orchestrator}
}

func (h *JobHandler) List(c *gin.Context) {
	jobs, err := h.jobs.List(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, jobs)
}

func (h *JobHandler) Get(c *gin.Context) {
	job, err := h.jobs.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, job)
}

// ListByQueue returns a queue's jobs in position order.
func (h *JobHandler) ListByQueue(c *gin.Context) {
	jobs, err := h.jobs.ListByQueue(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, jobs)
}

func (h *JobHandler) Update(c *gin.Context) {
	var req PatchJobRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "validation_error", Message: err.Error()})
		return
	}

	job, err := h.jobs.Patch(c.Request.Context(), c.Param("id"), core.JobPatch{
		Status:    req.Status,
		Progress:  req.Progress,
		StartTime: req.StartTime,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, job)
}

func (h *JobHandler) Delete(c *gin.Context) {
	if err := h.jobs.Remove(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Submit creates a job for the authenticated caller and appends it to the
// printer's queue.
func (h *JobHandler) Submit(c *gin.Context) {
	var req SubmitJobRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "validation_error", Message: err.Error()})
		return
	}

	job, entry, err := h.orchestrator.SubmitToPrinterQueue(
		c.Request.Context(),
		c.Param("id"),
		middleware.AuthID(c),
		core.SubmitParams{
			ModelID:       req.ModelID,
			Name:          req.Name,
			Filament:      req.Filament,
			ScheduledTime: req.ScheduledTime,
			EstimatedTime: req.EstimatedTime,
		},
	)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"job":      job,
		"position": entry.Position,
	})
}

func (h *JobHandler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/jobs", h.List)
	r.GET("/jobs/:id", h.Get)
	r.PUT("/jobs/:id", h.Update)
	r.DELETE("/jobs/:id", h.Delete)
	r.POST("/jobs/:id/finish", h.Finish)
	r.POST("/printers/:id/queue/add", h.Submit)
	r.GET("/queues/:id/jobs", h.ListByQueue)
}

// Finish marks the job done and removes it from its queue.
func (h *JobHandler) Finish(c *gin.Context) {
	job, err := h.orchestrator.CompleteJob(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, job)
}
