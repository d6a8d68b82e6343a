package youtube

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/time/rate"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	ytapi "google.golang.org/api/youtube/v3"

	"github.com/pep299/comment-sentiment-analyzer/internal/model"
)

// Client implements Source on the YouTube Data API v3
type Client struct {
	service *ytapi.Service
	limiter *rate.Limiter
}

// NewClient creates a YouTube Data API client authenticated with apiKey.
// requestsPerSecond paces every outgoing call; extra options are passed to the service.
func NewClient(ctx context.Context, apiKey string, requestsPerSecond int, opts ...option.ClientOption) (*Client, error) {
	if requestsPerSecond < 1 {
		requestsPerSecond = 1
	}

	opts = append([]option.ClientOption{option.WithAPIKey(apiKey)}, opts...)
	service, err := ytapi.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating youtube service: %w", err)
	}

	return &Client{
		service: service,
		limiter: rate.NewLimiter(rate.Limit(requestsPerSecond), 1),
	}, nil
}

// VideoDetails fetches the snippet and statistics of a video
func (c *Client) VideoDetails(ctx context.Context, videoID string) (*model.VideoDetails, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	resp, err := c.service.Videos.List([]string{"snippet", "statistics"}).
		Id(videoID).
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("listing video: %w", err)
	}

	if len(resp.Items) == 0 {
		return nil, nil
	}

	video := resp.Items[0]
	details := &model.VideoDetails{ID: video.Id}
	if video.Snippet != nil {
		details.Title = video.Snippet.Title
		details.Channel = video.Snippet.ChannelTitle
		details.ChannelID = video.Snippet.ChannelId
		details.PublishedAt = video.Snippet.PublishedAt
	}
	if video.Statistics != nil {
		details.ViewCount = int64(video.Statistics.ViewCount)
		details.LikeCount = int64(video.Statistics.LikeCount)
		details.CommentCount = int64(video.Statistics.CommentCount)
	}
	return details, nil
}

// CommentThreads fetches one page of top-level comment threads in plain text
func (c *Client) CommentThreads(ctx context.Context, q ThreadQuery) (*ThreadPage, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	call := c.service.CommentThreads.List([]string{"snippet"}).
		VideoId(q.VideoID).
		MaxResults(q.MaxResults).
		TextFormat("plainText")
	if q.PageToken != "" {
		call = call.PageToken(q.PageToken)
	}
	if q.Order != "" {
		call = call.Order(q.Order)
	}
	if q.ModerationStatus != "" {
		call = call.ModerationStatus(q.ModerationStatus)
	}

	resp, err := call.Context(ctx).Do()
	if err != nil {
		if q.ModerationStatus != "" && mentionsParameter(err, "moderationStatus") {
			return nil, fmt.Errorf("%w: %v", ErrParameterRejected, err)
		}
		return nil, fmt.Errorf("listing comment threads: %w", err)
	}

	page := &ThreadPage{NextPageToken: resp.NextPageToken}
	for _, item := range resp.Items {
		thread := Thread{ID: item.Id}
		if item.Snippet != nil {
			thread.TotalReplyCount = item.Snippet.TotalReplyCount
			thread.TopLevel = convertComment(item.Snippet.TopLevelComment)
		}
		page.Threads = append(page.Threads, thread)
	}
	return page, nil
}

// Replies fetches the replies to a top-level comment
func (c *Client) Replies(ctx context.Context, parentID string, maxResults int64) ([]*RawComment, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	resp, err := c.service.Comments.List([]string{"snippet"}).
		ParentId(parentID).
		MaxResults(maxResults).
		TextFormat("plainText").
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("listing replies: %w", err)
	}

	replies := make([]*RawComment, 0, len(resp.Items))
	for _, item := range resp.Items {
		replies = append(replies, convertComment(item))
	}
	return replies, nil
}

// Search runs a relevance-ordered video search on the channel of the video
func (c *Client) Search(ctx context.Context, q SearchQuery) ([]SearchItem, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	call := c.service.Search.List([]string{"snippet"}).
		Q(q.VideoID).
		MaxResults(q.MaxResults).
		Order("relevance").
		Type("video")
	if q.ChannelID != "" {
		call = call.ChannelId(q.ChannelID)
	}

	resp, err := call.Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("searching: %w", err)
	}

	var items []SearchItem
	for _, r := range resp.Items {
		if r.Id == nil {
			continue
		}
		item := SearchItem{Kind: r.Id.Kind, ID: r.Id.VideoId}
		if r.Snippet != nil {
			item.Author = r.Snippet.ChannelTitle
			item.Text = r.Snippet.Description
			item.PublishedAt = r.Snippet.PublishedAt
		}
		items = append(items, item)
	}
	return items, nil
}

// convertComment returns nil for items without a snippet
func convertComment(c *ytapi.Comment) *RawComment {
	if c == nil || c.Snippet == nil {
		return nil
	}
	return &RawComment{
		ID:          c.Id,
		Author:      c.Snippet.AuthorDisplayName,
		Text:        c.Snippet.TextDisplay,
		Likes:       c.Snippet.LikeCount,
		PublishedAt: c.Snippet.PublishedAt,
	}
}

// mentionsParameter reports whether an API error refers to the named parameter
func mentionsParameter(err error, name string) bool {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		if strings.Contains(apiErr.Message, name) || strings.Contains(apiErr.Body, name) {
			return true
		}
		for _, item := range apiErr.Errors {
			if strings.Contains(item.Message, name) {
				return true
			}
		}
	}
	return strings.Contains(err.Error(), name)
}
