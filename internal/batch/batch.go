// Package batch classifies extracted comments one by one
package batch

import (
	"context"
	"log"

	"github.com/pep299/comment-sentiment-analyzer/internal/model"
)

// ClassifyFunc classifies one comment text. It never fails; failures are
// reported through an error sentiment.
type ClassifyFunc func(ctx context.Context, text, instructions string) model.SentimentResult

// ProgressFunc receives the number of processed comments after each item
type ProgressFunc func(done, total int, fraction float64)

type options struct {
	progress     ProgressFunc
	instructions string
}

// Option configures Run
type Option func(*options)

// WithProgress reports progress after every classified comment
func WithProgress(fn ProgressFunc) Option {
	return func(o *options) {
		o.progress = fn
	}
}

// WithInstructions replaces the default classification instructions
func WithInstructions(instructions string) Option {
	return func(o *options) {
		o.instructions = instructions
	}
}

// Run classifies comments sequentially and returns them in the same order with
// their results attached. The input slice is not modified. On cancellation
// the processed prefix is returned together with the context error.
func Run(ctx context.Context, comments []model.Comment, classify ClassifyFunc, opts ...Option) ([]model.Comment, error) {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}

	total := len(comments)
	if total == 0 {
		return []model.Comment{}, nil
	}

	results := make([]model.Comment, 0, total)
	for i, comment := range comments {
		if err := ctx.Err(); err != nil {
			log.Printf("Batch cancelled processed=%d total=%d", len(results), total)
			return results, err
		}

		result := classify(ctx, comment.Text, o.instructions)
		if result.Sentiment == "" {
			result.Sentiment = model.SentimentError
		}

		comment.SentimentResult = &result
		results = append(results, comment)

		if o.progress != nil {
			o.progress(i+1, total, float64(i+1)/float64(total))
		}
	}

	return results, nil
}
