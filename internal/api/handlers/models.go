package handlers

import (
	"database/sql"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/printnet/printnet/internal/core"
	"github.com/printnet/printnet/internal/db"
)

type CreateModelRequest struct {
	Name        *string  `json:"name"`
	FileURL     string   `json:"file_url" binding:"required"`
	ContentType *string  `json:"content_type"`
	AuthorID    *string  `json:"author_id"`
	SizeMB      *float64 `json:"size_mb"`
}

type ModelHandler struct {
	db *sql.DB
}

func NewModelHandler(database *sql.DB) *ModelHandler {
	return &ModelHandler{db: database}
}

func (h *ModelHandler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/models", h.List)
	r.POST("/models", h.Create)
	r.GET("/models/:id", h.Get)
	r.GET("/users/:id/models", h.ListByAuthor)
}

func (h *ModelHandler) List(c *gin.Context) {
	models, err := db.Models.List(c.Request.Context(), h.db)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, models)
}

func (h *ModelHandler) Get(c *gin.Context) {
	id := c.Param("id")
	if !core.ValidUUID(id) {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "validation_error", Message: "model id must be a valid UUID"})
		return
	}

	model, err := db.Models.GetByID(c.Request.Context(), h.db, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			c.JSON(http.StatusNotFound, ErrorResponse{Error: "not_found", Message: "model not found"})
			return
		}
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, model)
}

func (h *ModelHandler) ListByAuthor(c *gin.Context) {
	authorID := c.Param("id")
	if !core.ValidUUID(authorID) {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "validation_error", Message: "author id must be a valid UUID"})
		return
	}

	models, err := db.Models.ListByAuthor(c.Request.Context(), h.db, authorID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, models)
}

func (h *ModelHandler) Create(c *gin.Context) {
	var req CreateModelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "validation_error", Message: err.Error()})
		return
	}
	if req.AuthorID != nil && !core.ValidUUID(*req.AuthorID) {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "validation_error", Message: "author id must be a valid UUID"})
		return
	}

	model := &db.Model{
		ID:          uuid.NewString(),
		Name:        req.Name,
		FileURL:     req.FileURL,
		ContentType: req.ContentType,
		AuthorID:    req.AuthorID,
		SizeMB:      req.SizeMB,
	}
	if err := db.Models.Create(c.Request.Context(), h.db, model); err != nil {
		respondError(c, err)
		return
	}

	created, err := db.Models.GetByID(c.Request.Context(), h.db, model.ID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}
