package sentiment

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/pep299/comment-sentiment-analyzer/internal/model"
)

func TestParseCanonicalJSON(t *testing.T) {
	got := Parse(`{"sentiment":"positive","score":0.8,"explanation":"x"}`)

	assert.Equal(t, model.SentimentResult{
		Sentiment:   model.SentimentPositive,
		Score:       0.8,
		Explanation: "x",
	}, got)
}

func TestParseKeywordFallback(t *testing.T) {
	got := Parse("Resultado: positivo, sem JSON valido")

	assert.Equal(t, model.SentimentPositive, got.Sentiment)
	assert.Equal(t, keywordScore, got.Score)
	assert.Equal(t, unstructuredExplanation, got.Explanation)
}

func TestParseStrategies(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		expected model.SentimentResult
	}{
		{
			name: "fenced json",
			raw:  "```json\n{\"sentiment\": \"Negative\", \"score\": -0.6, \"explanation\": \"complaint\"}\n```",
			expected: model.SentimentResult{
				Sentiment: model.SentimentNegative, Score: -0.6, Explanation: "complaint",
			},
		},
		{
			name: "missing fields get defaults",
			raw:  `{"score": 0.3}`,
			expected: model.SentimentResult{
				Sentiment: model.SentimentNeutral, Score: 0.3, Explanation: defaultExplanation,
			},
		},
		{
			name: "unknown label collapses to neutral",
			raw:  `{"sentiment": "mixed", "score": 0.1, "explanation": "both"}`,
			expected: model.SentimentResult{
				Sentiment: model.SentimentNeutral, Score: 0.1, Explanation: "both",
			},
		},
		{
			name: "score is clamped",
			raw:  `{"sentiment": "positive", "score": 4, "explanation": "loud"}`,
			expected: model.SentimentResult{
				Sentiment: model.SentimentPositive, Score: 1, Explanation: "loud",
			},
		},
		{
			name: "brace block inside prose",
			raw:  `Sure! Here is the analysis: {"sentiment": "negative", "score": -0.9, "explanation": "angry"} Hope it helps.`,
			expected: model.SentimentResult{
				Sentiment: model.SentimentNegative, Score: -0.9, Explanation: "angry",
			},
		},
		{
			name: "field extraction from broken json",
			raw:  `{"sentiment": "positive", "score": 0.9, "explanation": "great video",`,
			expected: model.SentimentResult{
				Sentiment: model.SentimentPositive, Score: 0.9, Explanation: "great video",
			},
		},
		{
			name: "field extraction with missing score uses keyword default",
			raw:  `{"sentiment": "negative", "explanation": "rude", oops}`,
			expected: model.SentimentResult{
				Sentiment: model.SentimentNegative, Score: -keywordScore, Explanation: "rude",
			},
		},
		{
			name: "field extraction with missing explanation",
			raw:  `{"sentiment": "neutral", "score": 0 trailing`,
			expected: model.SentimentResult{
				Sentiment: model.SentimentNeutral, Score: 0, Explanation: missingExplanation,
			},
		},
		{
			name: "negative keyword",
			raw:  "The comment is clearly negative.",
			expected: model.SentimentResult{
				Sentiment: model.SentimentNegative, Score: -keywordScore, Explanation: unstructuredExplanation,
			},
		},
		{
			name: "plain prose defaults to neutral",
			raw:  "I cannot decide.",
			expected: model.SentimentResult{
				Sentiment: model.SentimentNeutral, Score: 0, Explanation: unstructuredExplanation,
			},
		},
		{
			name: "empty string",
			raw:  "",
			expected: model.SentimentResult{
				Sentiment: model.SentimentNeutral, Score: 0, Explanation: unstructuredExplanation,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Parse(tt.raw))
		})
	}
}

func TestParseIsTotal(t *testing.T) {
	inputs := []string{
		"",
		"   ",
		"null",
		"[]",
		"{",
		"}{",
		"```",
		`{"sentiment": 5}`,
		`{"score": "high"}`,
		"positive negative",
		"\x00\xff",
	}

	valid := map[model.Sentiment]bool{
		model.SentimentPositive: true,
		model.SentimentNegative: true,
		model.SentimentNeutral:  true,
		model.SentimentError:    true,
	}

	for _, raw := range inputs {
		got := Parse(raw)
		assert.True(t, valid[got.Sentiment], "input %q produced %q", raw, got.Sentiment)
		assert.GreaterOrEqual(t, got.Score, -1.0)
		assert.LessOrEqual(t, got.Score, 1.0)
	}
}
