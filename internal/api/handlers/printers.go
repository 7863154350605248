package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/printnet/printnet/internal/core"
)

type CreatePrinterRequest struct {
	Name      string  `json:"name" binding:"required"`
	Model     *string `json:"model"`
	Interface string  `json:"interface"`
	Status    *string `json:"status"`
	IsActive  *bool   `json:"is_active"`
}

type UpdatePrinterRequest struct {
	Name         *string `json:"name"`
	Model        *string `json:"model"`
	Status       *string `json:"status"`
	IsActive     any     `json:"is_active"`
	CurrentJobID *string `json:"current_job_id"`
	QueueID      *string `json:"queue_id"`
}

type ConnectionTestResponse struct {
	Success bool      `json:"success"`
	Status  string    `json:"status"`
	Error   string    `json:"error,omitempty"`
	Checked time.Time `json:"checked"`
}

type PrinterHandler struct {
	registry *core.PrinterRegistry
}

func NewPrinterHandler(registry *core.PrinterRegistry) *PrinterHandler {
	return &PrinterHandler{registry: registry}
}

func (h *PrinterHandler) List(c *gin.Context) {
	printers, err := h.registry.List(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, printers)
}

func (h *PrinterHandler) Get(c *gin.Context) {
	printer, err := h.registry.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, printer)
}

func (h *PrinterHandler) Create(c *gin.Context) {
	var req CreatePrinterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "validation_error", Message: err.Error()})
		return
	}

	printer, err := h.registry.Register(c.Request.Context(), core.RegisterParams{
		Name:      req.Name,
		Model:     req.Model,
		Interface: req.Interface,
		Status:    req.Status,
		IsActive:  req.IsActive,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, printer)
}

func (h *PrinterHandler) Update(c *gin.Context) {
	var req UpdatePrinterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "validation_error", Message: err.Error()})
		return
	}

	printer, err := h.registry.UpdateStatus(c.Request.Context(), c.Param("id"), core.PrinterUpdate{
		Name:         req.Name,
		Model:        req.Model,
		Status:       req.Status,
		IsActive:     req.IsActive,
		CurrentJobID: req.CurrentJobID,
		QueueID:      req.QueueID,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, printer)
}

func (h *PrinterHandler) Delete(c *gin.Context) {
	if err := h.registry.Remove(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Status polls the printer's adapter and returns the refreshed record.
func (h *PrinterHandler) Status(c *gin.Context) {
	printer, err := h.registry.Refresh(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, printer)
}

func (h *PrinterHandler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/printers", h.List)
	r.POST("/printers", h.Create)
	r.GET("/printers/:id", h.Get)
	r.PUT("/printers/:id", h.Update)
	r.DELETE("/printers/:id", h.Delete)
	r.GET("/printers/:id/status", h.Status)
	r.POST("/printers/:id/test", h.Test)
}

// Test probes the printer's connection without touching its stored status.
func (h *PrinterHandler) Test(c *gin.Context) {
	result, err := h.registry.TestConnection(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	resp := ConnectionTestResponse{
		Success: result.Success,
		Status:  string(result.Status),
		Checked: time.Now(),
	}
	if result.Err != nil {
		resp.Error = result.Err.Error()
	}
	c.JSON(http.StatusOK, resp)
}
