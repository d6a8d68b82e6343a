package model

import "time"

// VideoDetails describes the analysed video
type VideoDetails struct {
	ID           string `json:"id"`
	Title        string `json:"title"`
	Channel      string `json:"channel"`
	ChannelID    string `json:"channel_id"`
	PublishedAt  string `json:"published_at"`
	ViewCount    int64  `json:"view_count"`
	LikeCount    int64  `json:"like_count"`
	CommentCount int64  `json:"comment_count"`
}

// Summary aggregates the sentiment of a run
type Summary struct {
	Total        int               `json:"total"`
	Counts       map[Sentiment]int `json:"counts"`
	AverageScore float64           `json:"average_score"`
}

// Run is the complete result of analysing one video
type Run struct {
	ID          string           `json:"id"`
	VideoURL    string           `json:"video_url"`
	Video       *VideoDetails    `json:"video,omitempty"`
	Comments    []Comment        `json:"comments"`
	Report      ExtractionReport `json:"report"`
	Summary     Summary          `json:"summary"`
	ProcessedAt time.Time        `json:"processed_at"`
}

// Summarize counts sentiments and averages the scores of classified comments.
// Comments with an error sentiment are counted but excluded from the average.
func Summarize(comments []Comment) Summary {
	s := Summary{
		Total:  len(comments),
		Counts: make(map[Sentiment]int),
	}

	var sum float64
	var scored int
	for _, c := range comments {
		if c.SentimentResult == nil {
			continue
		}
		s.Counts[c.Sentiment]++
		if c.Sentiment != SentimentError {
			sum += c.Score
			scored++
		}
	}

	if scored > 0 {
		s.AverageScore = sum / float64(scored)
	}
	return s
}
