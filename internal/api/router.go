package api

import (
	"database/sql"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/printnet/printnet/internal/api/handlers"
	"github.com/printnet/printnet/internal/api/middleware"
	"github.com/printnet/printnet/internal/archive"
	"github.com/printnet/printnet/internal/core"
	"github.com/printnet/printnet/internal/identity"
)

// Deps holds everything the HTTP surface needs. Archiver may be nil when
// archival is disabled.
type Deps struct {
	DB           *sql.DB
	Registry     *core.PrinterRegistry
	Queues       *core.QueueEngine
	Jobs         *core.JobService
	Orchestrator *core.Orchestrator
	Identity     *identity.Service
	Archiver     *archive.Archiver
}

// NewRouter assembles the gin engine. Register and login are public; every
// other route requires a bearer token.
func NewRouter(deps Deps) *gin.Engine {
	router := gin.Default()

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	authHandler := handlers.NewAuthHandler(deps.Identity)
	printerHandler := handlers.NewPrinterHandler(deps.Registry)
	queueHandler := handlers.NewQueueHandler(deps.Queues)
	jobHandler := handlers.NewJobHandler(deps.Jobs, deps.Orchestrator)
	modelHandler := handlers.NewModelHandler(deps.DB)

	public := router.Group("/api")
	authHandler.RegisterPublicRoutes(public)

	auth := middleware.NewAuthMiddleware(deps.Identity)
	protected := router.Group("/api")
	protected.Use(auth.RequireAuth())

	authHandler.RegisterRoutes(protected)
	printerHandler.RegisterRoutes(protected)
	queueHandler.RegisterRoutes(protected)
	jobHandler.RegisterRoutes(protected)
	modelHandler.RegisterRoutes(protected)

	if deps.Archiver != nil {
		handlers.NewArchiveHandler(deps.Archiver).RegisterRoutes(protected)
	}

	return router
}
