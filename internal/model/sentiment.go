package model

import (
	"math"
	"strings"
)

// Sentiment is the classification label of a comment
type Sentiment string

const (
	SentimentPositive Sentiment = "positive"
	SentimentNegative Sentiment = "negative"
	SentimentNeutral  Sentiment = "neutral"
	SentimentError    Sentiment = "error"
)

// SentimentResult is attached to a Comment after classification
type SentimentResult struct {
	Sentiment   Sentiment `json:"sentiment"`
	Score       float64   `json:"score"`
	Explanation string    `json:"explanation"`
}

// NormalizeSentiment maps a free-form label onto positive, negative or neutral.
// Portuguese labels are accepted because older prompts asked for them.
func NormalizeSentiment(label string) Sentiment {
	switch strings.ToLower(strings.TrimSpace(label)) {
	case "positive", "positivo":
		return SentimentPositive
	case "negative", "negativo":
		return SentimentNegative
	default:
		return SentimentNeutral
	}
}

// ClampScore limits a score to [-1, 1]. NaN becomes 0.
func ClampScore(score float64) float64 {
	if math.IsNaN(score) {
		return 0
	}
	return math.Max(-1, math.Min(1, score))
}
