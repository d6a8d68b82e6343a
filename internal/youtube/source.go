package youtube

import (
	"context"
	"errors"

	"github.com/pep299/comment-sentiment-analyzer/internal/model"
)

// ErrParameterRejected is returned by a Source when the service refuses an
// optional query parameter. Callers may retry without it.
var ErrParameterRejected = errors.New("parameter rejected by service")

// ThreadQuery selects one page of top-level comment threads
type ThreadQuery struct {
	VideoID          string
	MaxResults       int64
	PageToken        string
	Order            string
	ModerationStatus string
}

// ThreadPage is one page of comment threads
type ThreadPage struct {
	Threads       []Thread
	NextPageToken string
}

// Thread is a top-level comment and its reply count.
// TopLevel is nil when the service returned a malformed item.
type Thread struct {
	ID              string
	TopLevel        *RawComment
	TotalReplyCount int64
}

// RawComment is a comment as reported by the service
type RawComment struct {
	ID          string
	Author      string
	Text        string
	Likes       int64
	PublishedAt string
}

// SearchQuery parameters for the fallback search
type SearchQuery struct {
	VideoID    string
	ChannelID  string
	MaxResults int64
}

// SearchItem is one search result. Kind is the resource kind, for example
// youtube#video or youtube#comment.
type SearchItem struct {
	Kind        string
	ID          string
	Author      string
	Text        string
	PublishedAt string
}

// Source is the comment API the Extractor pages through
type Source interface {
	// VideoDetails returns nil details when the video does not exist
	VideoDetails(ctx context.Context, videoID string) (*model.VideoDetails, error)
	CommentThreads(ctx context.Context, q ThreadQuery) (*ThreadPage, error)
	Replies(ctx context.Context, parentID string, maxResults int64) ([]*RawComment, error)
	Search(ctx context.Context, q SearchQuery) ([]SearchItem, error)
}
