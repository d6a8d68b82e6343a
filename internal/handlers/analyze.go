package handlers

import (
	"context"
	"fmt"
	"log"

	"github.com/GoogleCloudPlatform/functions-framework-go/funcframework"

	"github.com/pep299/comment-sentiment-analyzer/internal/batch"
	"github.com/pep299/comment-sentiment-analyzer/internal/cache"
	"github.com/pep299/comment-sentiment-analyzer/internal/model"
	"github.com/pep299/comment-sentiment-analyzer/internal/youtube"
)

// progressEvery is how many classified comments pass between progress log lines
const progressEvery = 10

// AnalyzeRequest selects a video and how its comments are analysed.
// Nil include flags default to true; a zero MaxComments uses the configured default.
type AnalyzeRequest struct {
	VideoURL       string `json:"video_url"`
	MaxComments    int    `json:"max_comments"`
	IncludePrimary *bool  `json:"include_primary,omitempty"`
	IncludeReplies *bool  `json:"include_replies,omitempty"`
	Instructions   string `json:"instructions,omitempty"`
	NotifySlack    bool   `json:"notify_slack"`
}

func (req AnalyzeRequest) extractOptions(defaultMax int) youtube.ExtractOptions {
	opts := youtube.ExtractOptions{
		MaxComments:    req.MaxComments,
		IncludePrimary: true,
		IncludeReplies: true,
	}
	if opts.MaxComments <= 0 {
		opts.MaxComments = defaultMax
	}
	if req.IncludePrimary != nil {
		opts.IncludePrimary = *req.IncludePrimary
	}
	if req.IncludeReplies != nil {
		opts.IncludeReplies = *req.IncludeReplies
	}
	return opts
}

// Extract runs only the extraction stage
func (s *Server) Extract(ctx context.Context, req AnalyzeRequest) (*youtube.Result, error) {
	return s.extractor.Extract(ctx, req.VideoURL, req.extractOptions(s.config.DefaultMaxComments))
}

// Analyze extracts the comments of a video, classifies each one, stores the
// run and optionally posts its summary to Slack. On extraction failure the
// returned run carries the partial report.
func (s *Server) Analyze(ctx context.Context, req AnalyzeRequest) (*model.Run, error) {
	logger := log.New(funcframework.LogWriter(ctx), "", 0)

	processedAt := s.now()
	run := &model.Run{
		VideoURL:    req.VideoURL,
		Comments:    []model.Comment{},
		ProcessedAt: processedAt,
	}

	extracted, err := s.Extract(ctx, req)
	if extracted != nil {
		run.Video = extracted.Video
		run.Report = extracted.Report
	}
	if err != nil {
		logger.Printf("Extraction failed url=%s: %v", req.VideoURL, err)
		return run, err
	}

	videoID, _ := youtube.ResolveVideoID(req.VideoURL)
	run.ID = cache.NewRunID(videoID, processedAt)

	instructions := req.Instructions
	if instructions == "" {
		instructions = s.config.CustomPrompt
	}

	total := len(extracted.Comments)
	logger.Printf("Classifying comments run_id=%s total=%d quota_per_minute=%d", run.ID, total, s.classifier.Limiter().Quota())

	classified, err := batch.Run(ctx, extracted.Comments, s.classifier.Classify,
		batch.WithInstructions(instructions),
		batch.WithProgress(func(done, total int, fraction float64) {
			if done%progressEvery == 0 || done == total {
				logger.Printf("Classification progress run_id=%s done=%d total=%d (%.0f%%)", run.ID, done, total, fraction*100)
			}
		}),
	)
	run.Comments = classified
	run.Summary = model.Summarize(classified)
	if err != nil {
		return run, fmt.Errorf("classifying comments: %w", err)
	}

	if err := s.cacheManager.SetRun(ctx, run); err != nil {
		logger.Printf("Error caching run run_id=%s: %v", run.ID, err)
	}

	if req.NotifySlack && s.slackClient != nil {
		if err := s.slackClient.SendRunSummary(ctx, run, s.dashboardURL(run.ID)); err != nil {
			logger.Printf("Error sending run summary to Slack run_id=%s: %v", run.ID, err)
		}
	}

	logger.Printf("Analysis complete run_id=%s comments=%d average_score=%.2f", run.ID, run.Summary.Total, run.Summary.AverageScore)
	return run, nil
}

// AnalyzeURL analyses a video with the configured defaults and notifies Slack
func (s *Server) AnalyzeURL(ctx context.Context, videoURL string) error {
	_, err := s.Analyze(ctx, AnalyzeRequest{VideoURL: videoURL, NotifySlack: true})
	return err
}

func (s *Server) dashboardURL(runID string) string {
	if s.config.PublicURL == "" {
		return ""
	}
	return fmt.Sprintf("%s/api/v1/runs/%s/dashboard", s.config.PublicURL, runID)
}
