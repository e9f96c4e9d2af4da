package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"transcription-orchestrator/api/rest/routes"
	"transcription-orchestrator/config"
	"transcription-orchestrator/core/acquirer"
	"transcription-orchestrator/core/monitoring"
	"transcription-orchestrator/core/repository"
	"transcription-orchestrator/core/scheduler"
	"transcription-orchestrator/core/transcriber"

	"github.com/gorilla/mux"
)

func main() {
	cfg := config.Load()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize the job registry
	jobRepo := repository.NewJobRepository()

	// Initialize the external engine adapter and source acquirer
	engine := transcriber.NewEngine(
		cfg.WhisperPath,
		cfg.ModelDir,
		time.Duration(cfg.JobTimeoutMinutes)*time.Minute,
	)
	fetcher := acquirer.NewFetcher(cfg.YtdlpPath, cfg.FFmpegPath, cfg.WorkDir)

	// Initialize the scheduler
	sched := scheduler.NewScheduler(
		jobRepo,
		engine,
		fetcher,
		monitoring.AvailableMemoryMB,
		cfg.MaxConcurrentJobs,
		time.Duration(cfg.MaxSourceDurationSecs)*time.Second,
	)
	go sched.Start(ctx)
	defer sched.Stop()

	// Setup routes
	r := mux.NewRouter()
	routes.SetupRoutes(r, jobRepo, sched, cfg.UploadDir)

	// Health check endpoint
	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	}).Methods("GET")

	// Start server
	server := &http.Server{
		Addr:    ":" + cfg.ServerPort,
		Handler: r,
	}

	// Graceful shutdown
	go func() {
		log.Printf("Starting server on port %s (max concurrent jobs: %d)", cfg.ServerPort, cfg.MaxConcurrentJobs)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed to start: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")
	if err := server.Shutdown(context.Background()); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}
	log.Println("Server exited")
}
