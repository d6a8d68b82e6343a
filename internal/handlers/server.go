package handlers

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/pep299/comment-sentiment-analyzer/internal/cache"
	"github.com/pep299/comment-sentiment-analyzer/internal/config"
	"github.com/pep299/comment-sentiment-analyzer/internal/gemini"
	"github.com/pep299/comment-sentiment-analyzer/internal/ratelimit"
	"github.com/pep299/comment-sentiment-analyzer/internal/scheduler"
	"github.com/pep299/comment-sentiment-analyzer/internal/sentiment"
	"github.com/pep299/comment-sentiment-analyzer/internal/slack"
	"github.com/pep299/comment-sentiment-analyzer/internal/youtube"
)

const version = "v1.0.0"

// Deps are the external collaborators of a Server
type Deps struct {
	Source    youtube.Source
	Generator sentiment.Generator
	Cache     *cache.Manager
	// Slack is optional; nil disables run notifications
	Slack *slack.Client
}

// Server holds the HTTP server and its dependencies
type Server struct {
	config       *config.Config
	extractor    *youtube.Extractor
	classifier   *sentiment.Classifier
	slackClient  *slack.Client
	cacheManager *cache.Manager
	scheduler    *scheduler.Scheduler
	now          func() time.Time
}

// NewServer creates a server wired to the YouTube, Gemini and Slack APIs
func NewServer(ctx context.Context, cfg *config.Config) (*Server, error) {
	source, err := youtube.NewClient(ctx, cfg.YouTubeAPIKey, cfg.YouTubeRequestsPerSecond)
	if err != nil {
		return nil, fmt.Errorf("creating youtube client: %w", err)
	}

	cacheManager, err := cache.NewManager(ctx, cfg.CacheType, time.Duration(cfg.CacheDuration)*time.Hour, cfg.CacheBucket)
	if err != nil {
		return nil, fmt.Errorf("creating cache manager: %w", err)
	}

	deps := Deps{
		Source:    source,
		Generator: gemini.NewClient(cfg.GeminiAPIKey, cfg.GeminiModel),
		Cache:     cacheManager,
	}
	if cfg.SlackEnabled() {
		deps.Slack = slack.NewClient(cfg.SlackBotToken, cfg.SlackChannel)
	}

	return NewServerWithDeps(cfg, deps), nil
}

// NewServerWithDeps creates a server on the given collaborators
func NewServerWithDeps(cfg *config.Config, deps Deps) *Server {
	window := ratelimit.New(cfg.RateLimitPerMinute, ratelimit.WithObserver(func(wait time.Duration) {
		log.Printf("Rate limit reached, waiting wait=%s quota=%d", wait.Round(time.Second), cfg.RateLimitPerMinute)
	}))

	return &Server{
		config:       cfg,
		extractor:    youtube.NewExtractor(deps.Source),
		classifier:   sentiment.NewClassifier(deps.Generator, window),
		slackClient:  deps.Slack,
		cacheManager: deps.Cache,
		now:          time.Now,
	}
}

// AttachScheduler exposes the jobs of s through the API
func (s *Server) AttachScheduler(sched *scheduler.Scheduler) {
	s.scheduler = sched
}

// Close releases the cache backend
func (s *Server) Close() error {
	return s.cacheManager.Close()
}

// SetupRoutes configures HTTP routes
func (s *Server) SetupRoutes() *mux.Router {
	r := mux.NewRouter()

	api := r.PathPrefix("/api/v1").Subrouter()
	api.Use(s.corsMiddleware)
	api.Use(s.loggingMiddleware)

	api.HandleFunc("/health", s.healthHandler).Methods("GET")

	// Pipeline stages
	api.HandleFunc("/extract", s.extractHandler).Methods("POST")
	api.HandleFunc("/classify", s.classifyHandler).Methods("POST")
	api.HandleFunc("/analyze", s.analyzeHandler).Methods("POST")

	// Stored runs
	api.HandleFunc("/runs/{id}", s.runHandler).Methods("GET")
	api.HandleFunc("/runs/{id}/dashboard", s.dashboardHandler).Methods("GET")
	api.HandleFunc("/videos/{videoID}/latest", s.latestRunHandler).Methods("GET")

	// Cache operations
	api.HandleFunc("/cache/stats", s.cacheStatsHandler).Methods("GET")
	api.HandleFunc("/cache/clear", s.cacheClearHandler).Methods("DELETE")

	// Status and configuration
	api.HandleFunc("/scheduler/jobs", s.jobsHandler).Methods("GET")
	api.HandleFunc("/config", s.configHandler).Methods("GET")

	return r
}

// corsMiddleware adds CORS headers
func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// loggingMiddleware logs HTTP requests
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(wrapped, r)

		log.Printf("%s %s %d %v", r.Method, r.URL.Path, wrapped.statusCode, time.Since(start))
	})
}

// responseWriter wraps http.ResponseWriter to capture status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}
