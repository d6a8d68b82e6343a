package youtube

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/pep299/comment-sentiment-analyzer/internal/model"
)

const (
	// maxPages bounds the paging loop regardless of what the service returns
	maxPages = 10
	// pageSize is the largest page the comment API serves
	pageSize = 100
	// searchPageSize is the largest page the search API serves
	searchPageSize = 50

	anonymousAuthor = "Anonymous"
	commentKind     = "youtube#comment"
)

// ErrUnresolvableURL is returned when no video ID can be found in the URL
var ErrUnresolvableURL = errors.New("could not extract the video ID from the URL")

// ExtractOptions controls one extraction run
type ExtractOptions struct {
	MaxComments    int
	IncludePrimary bool
	IncludeReplies bool
}

// Result is what one extraction run produced
type Result struct {
	Video    *model.VideoDetails    `json:"video,omitempty"`
	Comments []model.Comment        `json:"comments"`
	Report   model.ExtractionReport `json:"report"`
}

// Extractor pages through a Source under a comment budget and explains shortfalls
type Extractor struct {
	source Source
}

// NewExtractor creates an Extractor reading from source
func NewExtractor(source Source) *Extractor {
	return &Extractor{source: source}
}

// Extract retrieves up to opts.MaxComments comments for the video at videoURL.
// Resolution, availability and paging failures are returned as errors; the
// report is returned alongside so the caller can show the reasons gathered so far.
func (e *Extractor) Extract(ctx context.Context, videoURL string, opts ExtractOptions) (*Result, error) {
	result := &Result{
		Comments: []model.Comment{},
		Report:   model.ExtractionReport{Requested: opts.MaxComments, Reasons: []string{}},
	}
	report := &result.Report

	videoID, ok := ResolveVideoID(videoURL)
	if !ok {
		return result, fmt.Errorf("%w: %s", ErrUnresolvableURL, videoURL)
	}

	log.Printf("Extracting comments video_id=%s max_comments=%d", videoID, opts.MaxComments)

	video, err := e.source.VideoDetails(ctx, videoID)
	if err != nil {
		report.AddReason(fmt.Sprintf("YouTube API error: %v", err))
		return result, fmt.Errorf("checking available comments: %w", err)
	}
	result.Video = video

	// an unknown video reports no comments
	if video != nil {
		report.Available = int(video.CommentCount)
	}
	if report.Available == 0 {
		report.AddReason("The video has no comments available.")
		return result, nil
	}
	if report.Available < opts.MaxComments {
		report.AddReason(fmt.Sprintf("The video has only %d comments available.", report.Available))
	}

	switch {
	case !opts.IncludePrimary && !opts.IncludeReplies:
		report.AddReason("No comment type selected for extraction.")
		return result, nil
	case !opts.IncludePrimary:
		report.AddReason("Configured to extract replies only.")
	case !opts.IncludeReplies:
		report.AddReason("Configured to extract top-level comments only.")
	}

	p := &pager{
		source:   e.source,
		videoID:  videoID,
		opts:     opts,
		report:   report,
		seen:     make(map[string]bool),
		comments: []model.Comment{},
	}
	if err := p.run(ctx); err != nil {
		result.Comments = p.comments
		report.Extracted = len(p.comments)
		report.AddReason(fmt.Sprintf("YouTube API error: %v", err))
		return result, fmt.Errorf("extracting comments: %w", err)
	}

	report.Extracted = len(p.comments)
	if report.Extracted < opts.MaxComments && !p.emptyPage && report.Available > report.Extracted {
		report.AddReason("Some comments may have been filtered by the YouTube API (spam, removed by the author, etc).")
	}

	target := min(opts.MaxComments, report.Available)
	if report.Extracted < target {
		report.AddReason("Trying alternative method to extract more comments...")
		if err := p.searchFallback(ctx, video.ChannelID); err != nil {
			log.Printf("Error using alternative method video_id=%s: %v", videoID, err)
			report.AddReason(fmt.Sprintf("Alternative method failed: %v", err))
		}
	}

	result.Comments = p.comments
	report.Extracted = len(p.comments)

	if report.Extracted < target {
		report.AddReason("Could not extract all available comments. This can happen due to YouTube API limitations or because some comments are hidden/filtered.")
		report.AddReason("The YouTube API has known limitations for comment extraction. Some comments may be hidden by the video owner, marked as spam, or unavailable through the public API.")
	}

	log.Printf("Extraction complete video_id=%s requested=%d extracted=%d available=%d",
		videoID, report.Requested, report.Extracted, report.Available)

	return result, nil
}

// pager holds the state of one paging run
type pager struct {
	source  Source
	videoID string
	opts    ExtractOptions
	report  *model.ExtractionReport

	comments  []model.Comment
	seen      map[string]bool
	emptyPage bool
}

func (p *pager) remaining() int {
	return p.opts.MaxComments - len(p.comments)
}

func (p *pager) full() bool {
	return p.remaining() <= 0
}

func (p *pager) add(c model.Comment) {
	if c.ID != "" {
		p.seen[c.ID] = true
	}
	p.comments = append(p.comments, c)
}

func (p *pager) run(ctx context.Context) error {
	pageToken := ""
	for page := 1; !p.full(); page++ {
		resp, err := p.fetchPage(ctx, pageToken)
		if err != nil {
			return err
		}

		if len(resp.Threads) == 0 {
			p.emptyPage = true
			p.report.AddReason("The YouTube API returned an empty page of comments.")
			return nil
		}

		for _, thread := range resp.Threads {
			if p.full() {
				break
			}
			p.addThread(ctx, thread)
		}

		pageToken = resp.NextPageToken
		if pageToken == "" || p.full() {
			return nil
		}

		if page >= maxPages {
			p.report.AddReason(fmt.Sprintf("Page limit reached (%d pages).", maxPages))
			return nil
		}
	}
	return nil
}

// fetchPage requests one page, retrying once without the moderation filter
// when the service rejects it
func (p *pager) fetchPage(ctx context.Context, pageToken string) (*ThreadPage, error) {
	q := ThreadQuery{
		VideoID:          p.videoID,
		MaxResults:       int64(min(pageSize, p.remaining())),
		PageToken:        pageToken,
		Order:            "time",
		ModerationStatus: "published",
	}

	resp, err := p.source.CommentThreads(ctx, q)
	if errors.Is(err, ErrParameterRejected) {
		log.Printf("moderationStatus parameter not supported, using basic parameters video_id=%s", p.videoID)
		q.ModerationStatus = ""
		q.Order = ""
		resp, err = p.source.CommentThreads(ctx, q)
	}
	return resp, err
}

func (p *pager) addThread(ctx context.Context, thread Thread) {
	top := thread.TopLevel
	if top == nil {
		log.Printf("Error processing comment thread id=%s: missing top-level comment", thread.ID)
		return
	}

	if p.opts.IncludePrimary {
		if strings.TrimSpace(top.Text) == "" {
			return
		}
		p.add(toComment(top, model.KindPrimary, ""))
	}

	if !p.opts.IncludeReplies || thread.TotalReplyCount <= 0 || p.full() {
		return
	}

	replies, err := p.source.Replies(ctx, thread.ID, int64(min(pageSize, p.remaining())))
	if err != nil {
		log.Printf("Error fetching replies thread_id=%s: %v", thread.ID, err)
		return
	}

	parent := authorOrAnonymous(top.Author)
	for _, reply := range replies {
		if reply == nil {
			log.Printf("Error processing reply thread_id=%s: missing snippet", thread.ID)
			continue
		}
		if strings.TrimSpace(reply.Text) == "" {
			continue
		}
		p.add(toComment(reply, model.KindReply, parent))
		if p.full() {
			break
		}
	}
}

// searchFallback tops the result up from the search endpoint. Only results
// of comment kind are kept; the video search never returns any.
func (p *pager) searchFallback(ctx context.Context, channelID string) error {
	items, err := p.source.Search(ctx, SearchQuery{
		VideoID:    p.videoID,
		ChannelID:  channelID,
		MaxResults: int64(min(searchPageSize, p.remaining())),
	})
	if err != nil {
		return err
	}

	for _, item := range items {
		if p.full() {
			break
		}
		if item.Kind != commentKind || item.ID == "" || p.seen[item.ID] {
			continue
		}
		if strings.TrimSpace(item.Text) == "" {
			continue
		}
		p.add(model.Comment{
			ID:          item.ID,
			Author:      authorOrAnonymous(item.Author),
			Text:        item.Text,
			PublishedAt: item.PublishedAt,
			Kind:        model.KindFallback,
		})
	}
	return nil
}

func toComment(raw *RawComment, kind model.Kind, parentAuthor string) model.Comment {
	likes := raw.Likes
	if likes < 0 {
		likes = 0
	}
	return model.Comment{
		ID:           raw.ID,
		Author:       authorOrAnonymous(raw.Author),
		Text:         raw.Text,
		Likes:        likes,
		PublishedAt:  raw.PublishedAt,
		Kind:         kind,
		ParentAuthor: parentAuthor,
	}
}

func authorOrAnonymous(author string) string {
	if author == "" {
		return anonymousAuthor
	}
	return author
}
