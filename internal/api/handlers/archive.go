package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/printnet/printnet/internal/archive"
)

type ArchiveHandler struct {
	archiver *archive.Archiver
}

func NewArchiveHandler(archiver *archive.Archiver) *ArchiveHandler {
	return &ArchiveHandler{archiver: archiver}
}

func (h *ArchiveHandler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/archives", h.List)
	r.POST("/archives/run", h.Run)
}

func (h *ArchiveHandler) List(c *gin.Context) {
	files, err := h.archiver.ListArchives()
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal_error", Message: "Failed to list archives"})
		return
	}
	if files == nil {
		files = []archive.ArchiveFile{}
	}
	c.JSON(http.StatusOK, files)
}

// Run triggers an archival pass immediately instead of waiting for the
// daily timer.
func (h *ArchiveHandler) Run(c *gin.Context) {
	if err := h.archiver.RunArchive(c.Request.Context()); err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal_error", Message: "Archive run failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "completed"})
}
