package sentiment

import (
	"encoding/json"
	"regexp"
	"strconv"
	"strings"

	"github.com/pep299/comment-sentiment-analyzer/internal/model"
)

const (
	defaultExplanation      = "no explanation provided"
	missingExplanation      = "could not extract an explanation"
	unstructuredExplanation = "analysis based on unstructured text due to a JSON formatting error"

	keywordScore = 0.7
)

var (
	braceBlockRe  = regexp.MustCompile(`(?s)\{.*\}`)
	sentimentRe   = regexp.MustCompile(`"sentiment"\s*:\s*"([^"]+)"`)
	scoreRe       = regexp.MustCompile(`"score"\s*:\s*([-+]?\d*\.\d+|[-+]?\d+)`)
	explanationRe = regexp.MustCompile(`"explanation"\s*:\s*"([^"]+)"`)
)

// strategy turns raw model output into a result, or reports that it cannot
type strategy func(raw string) (model.SentimentResult, bool)

// strategies are tried in order; keywordSniff always succeeds
var strategies = []strategy{
	decodeStripped,
	decodeBraceBlock,
	extractFields,
	keywordSniff,
}

// Parse converts the raw text of a model response into a SentimentResult.
// It never fails: when no structured data can be recovered the result is a
// keyword-based guess.
func Parse(raw string) model.SentimentResult {
	for _, s := range strategies {
		if result, ok := s(raw); ok {
			return result
		}
	}
	// unreachable, keywordSniff always succeeds
	return model.SentimentResult{Sentiment: model.SentimentNeutral}
}

// stripFences removes markdown code fences from model output
func stripFences(s string) string {
	s = strings.ReplaceAll(s, "```json", "")
	s = strings.ReplaceAll(s, "```", "")
	return strings.TrimSpace(s)
}

// rawResult keeps track of which fields the model actually sent
type rawResult struct {
	Sentiment   *string  `json:"sentiment"`
	Score       *float64 `json:"score"`
	Explanation *string  `json:"explanation"`
}

func decodeStripped(raw string) (model.SentimentResult, bool) {
	return decodeStrict(stripFences(raw))
}

func decodeBraceBlock(raw string) (model.SentimentResult, bool) {
	block := braceBlockRe.FindString(stripFences(raw))
	if block == "" {
		return model.SentimentResult{}, false
	}
	return decodeStrict(block)
}

// decodeStrict decodes a JSON object, filling absent fields with defaults
func decodeStrict(text string) (model.SentimentResult, bool) {
	if !strings.HasPrefix(text, "{") {
		return model.SentimentResult{}, false
	}

	var r rawResult
	if err := json.Unmarshal([]byte(text), &r); err != nil {
		return model.SentimentResult{}, false
	}

	result := model.SentimentResult{
		Sentiment:   model.SentimentNeutral,
		Explanation: defaultExplanation,
	}
	if r.Sentiment != nil {
		result.Sentiment = model.NormalizeSentiment(*r.Sentiment)
	}
	if r.Score != nil {
		result.Score = model.ClampScore(*r.Score)
	}
	if r.Explanation != nil {
		result.Explanation = *r.Explanation
	}
	return result, true
}

// extractFields pulls each key out of the raw text independently.
// Fields that cannot be found fall back to the keyword guess.
func extractFields(raw string) (model.SentimentResult, bool) {
	sentimentMatch := sentimentRe.FindStringSubmatch(raw)
	scoreMatch := scoreRe.FindStringSubmatch(raw)
	explanationMatch := explanationRe.FindStringSubmatch(raw)

	if sentimentMatch == nil && scoreMatch == nil && explanationMatch == nil {
		return model.SentimentResult{}, false
	}

	guessed, guessedScore := sniff(raw)
	result := model.SentimentResult{
		Sentiment:   guessed,
		Score:       guessedScore,
		Explanation: missingExplanation,
	}

	if sentimentMatch != nil {
		result.Sentiment = model.NormalizeSentiment(sentimentMatch[1])
	}
	if scoreMatch != nil {
		if score, err := strconv.ParseFloat(scoreMatch[1], 64); err == nil {
			result.Score = model.ClampScore(score)
		}
	}
	if explanationMatch != nil {
		result.Explanation = explanationMatch[1]
	}
	return result, true
}

func keywordSniff(raw string) (model.SentimentResult, bool) {
	sentiment, score := sniff(raw)
	return model.SentimentResult{
		Sentiment:   sentiment,
		Score:       score,
		Explanation: unstructuredExplanation,
	}, true
}

// sniff guesses a label from the words positive/negative (or their Portuguese forms)
func sniff(raw string) (model.Sentiment, float64) {
	lower := strings.ToLower(raw)
	switch {
	case strings.Contains(lower, "positive"), strings.Contains(lower, "positivo"):
		return model.SentimentPositive, keywordScore
	case strings.Contains(lower, "negative"), strings.Contains(lower, "negativo"):
		return model.SentimentNegative, -keywordScore
	default:
		return model.SentimentNeutral, 0
	}
}
