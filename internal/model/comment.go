package model

// Kind tells how a comment was retrieved
type Kind string

const (
	KindPrimary  Kind = "primary"
	KindReply    Kind = "reply"
	KindFallback Kind = "fallback"
)

// Comment is one retrieved unit of user content.
// SentimentResult is nil until the comment has been classified.
type Comment struct {
	ID           string `json:"id,omitempty"`
	Author       string `json:"author"`
	Text         string `json:"text"`
	Likes        int64  `json:"likes"`
	PublishedAt  string `json:"published_at"`
	Kind         Kind   `json:"kind"`
	ParentAuthor string `json:"parent_author,omitempty"`

	*SentimentResult
}

// ExtractionReport explains the outcome of one extraction run
type ExtractionReport struct {
	Requested int      `json:"requested"`
	Extracted int      `json:"extracted"`
	Available int      `json:"available"`
	Reasons   []string `json:"reasons"`
}

// AddReason appends a human-readable shortfall reason
func (r *ExtractionReport) AddReason(reason string) {
	r.Reasons = append(r.Reasons, reason)
}
