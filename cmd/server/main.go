package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pep299/comment-sentiment-analyzer/internal/config"
	"github.com/pep299/comment-sentiment-analyzer/internal/handlers"
	"github.com/pep299/comment-sentiment-analyzer/internal/scheduler"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	server, err := handlers.NewServer(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to create server: %v", err)
	}
	defer server.Close()

	// Watched videos are re-analysed on a schedule
	var sched *scheduler.Scheduler
	if len(cfg.WatchVideos) > 0 {
		sched, err = scheduler.New(cfg.WatchTimezone)
		if err != nil {
			log.Fatalf("Failed to create scheduler: %v", err)
		}
		if err := sched.AddWatchJob(cfg.WatchSchedule, cfg.WatchVideos, server.AnalyzeURL); err != nil {
			log.Fatalf("Failed to schedule watched videos: %v", err)
		}
		server.AttachScheduler(sched)
		sched.Start()
	}

	httpServer := &http.Server{
		Addr:        fmt.Sprintf("%s:%s", cfg.Host, cfg.Port),
		Handler:     server.SetupRoutes(),
		ReadTimeout: 30 * time.Second,
		// a full analysis is paced by the per-minute model quota
		WriteTimeout: 15 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		log.Printf("Starting server on %s:%s", cfg.Host, cfg.Port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed to start: %v", err)
		}
	}()

	<-sigChan
	log.Println("Shutting down server...")

	cancel()
	if sched != nil {
		<-sched.Stop().Done()
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}

	log.Println("Server stopped")
}
