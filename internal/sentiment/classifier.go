package sentiment

import (
	"context"
	"fmt"
	"log"

	"github.com/pep299/comment-sentiment-analyzer/internal/model"
	"github.com/pep299/comment-sentiment-analyzer/internal/ratelimit"
)

// Generator sends a prompt to a generative model and returns its raw text
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Classifier classifies comments through a rate-limited Generator.
// One Classifier should exist per model credential so its window is not shared.
type Classifier struct {
	generator Generator
	limiter   *ratelimit.Window
}

// NewClassifier creates a Classifier gated by limiter
func NewClassifier(generator Generator, limiter *ratelimit.Window) *Classifier {
	return &Classifier{
		generator: generator,
		limiter:   limiter,
	}
}

// Limiter exposes the window shared by this classifier's calls
func (c *Classifier) Limiter() *ratelimit.Window {
	return c.limiter
}

// Classify returns the sentiment of text. Call failures never escape: they
// come back as an error sentiment carrying the failure detail.
func (c *Classifier) Classify(ctx context.Context, text, instructions string) model.SentimentResult {
	prompt := BuildPrompt(text, instructions)

	if err := c.limiter.Acquire(ctx); err != nil {
		return errorResult(err)
	}

	raw, err := c.generator.Generate(ctx, prompt)
	if err != nil {
		log.Printf("Error analyzing sentiment: %v", err)
		return errorResult(err)
	}

	return Parse(raw)
}

func errorResult(err error) model.SentimentResult {
	return model.SentimentResult{
		Sentiment:   model.SentimentError,
		Score:       0,
		Explanation: fmt.Sprintf("analysis error: %v", err),
	}
}
