package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"github.com/pep299/comment-sentiment-analyzer/internal/cache"
	"github.com/pep299/comment-sentiment-analyzer/internal/dashboard"
	"github.com/pep299/comment-sentiment-analyzer/internal/model"
	"github.com/pep299/comment-sentiment-analyzer/internal/youtube"
)

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("Error encoding response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string, report *model.ExtractionReport) {
	response := map[string]interface{}{"error": message}
	if report != nil {
		response["report"] = report
	}
	writeJSON(w, status, response)
}

// extractionStatus maps an extraction failure onto an HTTP status
func extractionStatus(err error) int {
	if errors.Is(err, youtube.ErrUnresolvableURL) {
		return http.StatusBadRequest
	}
	return http.StatusBadGateway
}

func decodeAnalyzeRequest(r *http.Request) (AnalyzeRequest, error) {
	var req AnalyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return req, fmt.Errorf("invalid request body")
	}
	if strings.TrimSpace(req.VideoURL) == "" {
		return req, fmt.Errorf("missing 'video_url' in payload")
	}
	return req, nil
}

// healthHandler provides health check endpoint
func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":    "ok",
		"timestamp": time.Now().Unix(),
		"version":   version,
	})
}

// extractHandler returns the comments of a video without classifying them
func (s *Server) extractHandler(w http.ResponseWriter, r *http.Request) {
	req, err := decodeAnalyzeRequest(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error(), nil)
		return
	}

	result, err := s.Extract(r.Context(), req)
	if err != nil {
		writeError(w, extractionStatus(err), err.Error(), &result.Report)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// classifyHandler classifies a single text
func (s *Server) classifyHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Text         string `json:"text"`
		Instructions string `json:"instructions"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", nil)
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		writeError(w, http.StatusBadRequest, "missing 'text' in payload", nil)
		return
	}

	instructions := req.Instructions
	if instructions == "" {
		instructions = s.config.CustomPrompt
	}

	writeJSON(w, http.StatusOK, s.classifier.Classify(r.Context(), req.Text, instructions))
}

// analyzeHandler runs the full pipeline for one video
func (s *Server) analyzeHandler(w http.ResponseWriter, r *http.Request) {
	req, err := decodeAnalyzeRequest(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error(), nil)
		return
	}

	run, err := s.Analyze(r.Context(), req)
	if err != nil {
		if run != nil && run.ID == "" {
			writeError(w, extractionStatus(err), err.Error(), &run.Report)
			return
		}
		writeError(w, http.StatusServiceUnavailable, err.Error(), nil)
		return
	}

	writeJSON(w, http.StatusOK, run)
}

// runHandler returns a stored run
func (s *Server) runHandler(w http.ResponseWriter, r *http.Request) {
	run, ok := s.lookupRun(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, run)
}

// latestRunHandler returns the most recent run of a video
func (s *Server) latestRunHandler(w http.ResponseWriter, r *http.Request) {
	run, err := s.cacheManager.GetLatestRun(r.Context(), mux.Vars(r)["videoID"])
	if err != nil {
		s.writeLookupError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, run)
}

// dashboardHandler renders the charts of a stored run
func (s *Server) dashboardHandler(w http.ResponseWriter, r *http.Request) {
	run, ok := s.lookupRun(w, r)
	if !ok {
		return
	}

	var buf bytes.Buffer
	if err := dashboard.Render(&buf, run); err != nil {
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("Error rendering dashboard: %v", err), nil)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(buf.Bytes())
}

func (s *Server) lookupRun(w http.ResponseWriter, r *http.Request) (*model.Run, bool) {
	run, err := s.cacheManager.GetRun(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		s.writeLookupError(w, err)
		return nil, false
	}
	return run, true
}

func (s *Server) writeLookupError(w http.ResponseWriter, err error) {
	if errors.Is(err, cache.ErrCacheMiss) {
		writeError(w, http.StatusNotFound, "run not found", nil)
		return
	}
	writeError(w, http.StatusInternalServerError, fmt.Sprintf("Error reading run: %v", err), nil)
}

// cacheStatsHandler returns cache statistics
func (s *Server) cacheStatsHandler(w http.ResponseWriter, r *http.Request) {
	stats, err := s.cacheManager.GetStats(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("Error getting cache stats: %v", err), nil)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// cacheClearHandler clears the cache
func (s *Server) cacheClearHandler(w http.ResponseWriter, r *http.Request) {
	if err := s.cacheManager.Clear(r.Context()); err != nil {
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("Error clearing cache: %v", err), nil)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "success",
		"message": "Cache cleared successfully",
	})
}

// jobsHandler lists scheduled watch jobs
func (s *Server) jobsHandler(w http.ResponseWriter, r *http.Request) {
	if s.scheduler == nil {
		writeJSON(w, http.StatusOK, map[string]interface{}{"jobs": []interface{}{}})
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"jobs": s.scheduler.ListJobs()})
}

// configHandler returns configuration (sanitized)
func (s *Server) configHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"port":                        s.config.Port,
		"host":                        s.config.Host,
		"gemini_model":                s.config.GeminiModel,
		"rate_limit_per_minute":       s.config.RateLimitPerMinute,
		"default_max_comments":        s.config.DefaultMaxComments,
		"youtube_requests_per_second": s.config.YouTubeRequestsPerSecond,
		"slack_enabled":               s.slackClient != nil,
		"slack_channel":               s.config.SlackChannel,
		"watch_videos":                s.config.WatchVideos,
		"watch_schedule":              s.config.WatchSchedule,
		"cache_type":                  s.config.CacheType,
		"cache_duration_hours":        s.config.CacheDuration,
	})
}
