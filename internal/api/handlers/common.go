package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/printnet/printnet/internal/core"
)

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, core.ErrValidation):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "validation_error", Message: err.Error()})
	case errors.Is(err, core.ErrNotFoundInQueue):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "not_found_in_queue", Message: err.Error()})
	case errors.Is(err, core.ErrNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "not_found", Message: err.Error()})
	case errors.Is(err, core.ErrForeignKey):
		c.JSON(http.StatusConflict, ErrorResponse{Error: "foreign_key_violation", Message: err.Error()})
	case errors.Is(err, core.ErrConnectionFailed):
		c.JSON(http.StatusServiceUnavailable, ErrorResponse{Error: "connection_failed", Message: err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal_error", Message: "Internal server error"})
	}
}
