package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/printnet/printnet/internal/core"
)

type QueueHandler struct {
	queues *core.QueueEngine
}

func NewQueueHandler(queues *core.QueueEngine) *QueueHandler {
	return &QueueHandler{queues: queues}
}

func (h *QueueHandler) List(c *gin.Context) {
	queues, err := h.queues.List(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, queues)
}

func (h *QueueHandler) Get(c *gin.Context) {
	queue, err := h.queues.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, queue)
}

func (h *QueueHandler) Delete(c *gin.Context) {
	if err := h.queues.Delete(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *QueueHandler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/queues", h.List)
	r.GET("/queues/:id", h.Get)
	r.DELETE("/queues/:id", h.Delete)
	r.GET("/printers/:id/queue", h.GetForPrinter)
	r.GET("/printers/:id/queue/list", h.ListForPrinter)
}

// GetForPrinter returns the printer's queue, creating it on first access.
// Responds 201 when the queue was just created.
func (h *QueueHandler) GetForPrinter(c *gin.Context) {
	queue, created, err := h.queues.GetOrCreateForPrinter(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	if created {
		c.JSON(http.StatusCreated, queue)
		return
	}
	c.JSON(http.StatusOK, queue)
}

// ListForPrinter returns the printer's pending jobs in position order.
func (h *QueueHandler) ListForPrinter(c *gin.Context) {
	jobs, err := h.queues.ListByPrinter(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, jobs)
}
