package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/printnet/printnet/internal/api"
	"github.com/printnet/printnet/internal/archive"
	"github.com/printnet/printnet/internal/config"
	"github.com/printnet/printnet/internal/core"
	"github.com/printnet/printnet/internal/db"
	"github.com/printnet/printnet/internal/identity"
	"github.com/printnet/printnet/internal/webhook"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid config: %v", err)
	}

	if cfg.Logging.Level != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}

	database, err := db.Open(db.Config{Path: cfg.Database.Path})
	if err != nil {
		log.Fatalf("failed to open database: %v", err)
	}
	defer database.Close()

	// A nil concrete sender must stay a nil interface, otherwise the
	// disabled check downstream never fires.
	var webhookSender core.WebhookSender
	if s := webhook.NewSender(&cfg.Webhooks); s != nil {
		webhookSender = s
	}

	var archiver *archive.Archiver
	if cfg.Archive.Enabled {
		archiver, err = archive.NewArchiver(database, archive.Config{
			Path:          cfg.Archive.Path,
			RetentionDays: cfg.Archive.RetentionDays,
		})
		if err != nil {
			log.Fatalf("failed to set up archiver: %v", err)
		}
		archiver.Start()
		defer archiver.Stop()
	}

	queues := core.NewQueueEngine(database)
	jobs := core.NewJobService(database, queues, webhookSender)
	registry := core.NewPrinterRegistry(database, &cfg.Printers, queues, webhookSender)
	identitySvc := identity.NewService(database, &cfg.Auth)
	orchestrator := core.NewOrchestrator(jobs, identitySvc)

	router := api.NewRouter(api.Deps{
		DB:           database,
		Registry:     registry,
		Queues:       queues,
		Jobs:         jobs,
		Orchestrator: orchestrator,
		Identity:     identitySvc,
		Archiver:     archiver,
	})

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		log.Printf("listening on %s", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Printf("forced shutdown: %v", err)
		os.Exit(1)
	}
	log.Println("server stopped")
}
