package sentiment

import (
	"fmt"
	"strings"
)

// DefaultInstructions is used when the caller does not supply its own analysis instructions
const DefaultInstructions = `Analyze the sentiment of the following comment and classify it as positive, negative or neutral.
Also provide a sentiment score between -1 (very negative) and 1 (very positive).`

// outputContract is appended to every prompt, default or custom
const outputContract = `IMPORTANT: Regardless of the analysis requested, ALWAYS return ONLY a valid JSON object with the following keys and no additional text:
- sentiment: "positive", "negative" or "neutral"
- score: a number between -1 and 1 (without quotes)
- explanation: a short explanation of the classification

Exact expected format:
{
  "sentiment": "positive|negative|neutral",
  "score": 0.0,
  "explanation": "Your explanation here"
}`

// BuildPrompt assembles the prompt sent to the model for one comment
func BuildPrompt(text, instructions string) string {
	if strings.TrimSpace(instructions) == "" {
		instructions = DefaultInstructions
	}

	return fmt.Sprintf("%s\n\n%s\n\nComment: %q\n", strings.TrimSpace(instructions), outputContract, text)
}
