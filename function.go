// Package cloudfunctions exposes the analyzer API as a Cloud Function
package cloudfunctions

import (
	"context"
	"log"
	"net/http"
	"sync"

	"github.com/GoogleCloudPlatform/functions-framework-go/functions"

	"github.com/pep299/comment-sentiment-analyzer/internal/config"
	"github.com/pep299/comment-sentiment-analyzer/internal/handlers"
)

func init() {
	functions.HTTP("AnalyzeComments", AnalyzeComments)
}

var (
	initOnce sync.Once
	handler  http.Handler
	initErr  error
)

// setup builds the router once per instance so the rate limit window and
// memory cache survive between invocations
func setup() (http.Handler, error) {
	initOnce.Do(func() {
		cfg, err := config.Load()
		if err != nil {
			initErr = err
			return
		}

		server, err := handlers.NewServer(context.Background(), cfg)
		if err != nil {
			initErr = err
			return
		}
		handler = server.SetupRoutes()
	})
	return handler, initErr
}

// AnalyzeComments serves the /api/v1 routes
func AnalyzeComments(w http.ResponseWriter, r *http.Request) {
	h, err := setup()
	if err != nil {
		log.Printf("Failed to initialize: %v", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	h.ServeHTTP(w, r)
}
