package youtube

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pep299/comment-sentiment-analyzer/internal/model"
)

type fakeSource struct {
	video      *model.VideoDetails
	videoErr   error
	pages      []*ThreadPage
	threadErrs []error
	replies    map[string][]*RawComment
	replyErr   error
	search     []SearchItem
	searchErr  error

	threadQueries []ThreadQuery
	replyCalls    int
	searchCalls   int
}

func (f *fakeSource) VideoDetails(ctx context.Context, videoID string) (*model.VideoDetails, error) {
	return f.video, f.videoErr
}

func (f *fakeSource) CommentThreads(ctx context.Context, q ThreadQuery) (*ThreadPage, error) {
	call := len(f.threadQueries)
	f.threadQueries = append(f.threadQueries, q)
	if call < len(f.threadErrs) && f.threadErrs[call] != nil {
		return nil, f.threadErrs[call]
	}

	idx := 0
	if q.PageToken != "" {
		fmt.Sscanf(q.PageToken, "page-%d", &idx)
	}
	if idx >= len(f.pages) {
		return &ThreadPage{}, nil
	}
	return f.pages[idx], nil
}

func (f *fakeSource) Replies(ctx context.Context, parentID string, maxResults int64) ([]*RawComment, error) {
	f.replyCalls++
	if f.replyErr != nil {
		return nil, f.replyErr
	}
	return f.replies[parentID], nil
}

func (f *fakeSource) Search(ctx context.Context, q SearchQuery) ([]SearchItem, error) {
	f.searchCalls++
	return f.search, f.searchErr
}

const testURL = "https://www.youtube.com/watch?v=abc123DEF45"

func video(count int64) *model.VideoDetails {
	return &model.VideoDetails{ID: "abc123DEF45", ChannelID: "chan", CommentCount: count}
}

func thread(id, text string, replies int64) Thread {
	return Thread{
		ID:              id,
		TopLevel:        &RawComment{ID: id, Author: "author-" + id, Text: text, Likes: 1},
		TotalReplyCount: replies,
	}
}

// pagesOf builds n pages of size threads each, chained by page tokens
func pagesOf(n, size int) []*ThreadPage {
	pages := make([]*ThreadPage, n)
	for p := 0; p < n; p++ {
		page := &ThreadPage{}
		for i := 0; i < size; i++ {
			id := fmt.Sprintf("t%d-%d", p, i)
			page.Threads = append(page.Threads, thread(id, "comment "+id, 0))
		}
		if p < n-1 {
			page.NextPageToken = fmt.Sprintf("page-%d", p+1)
		}
		pages[p] = page
	}
	return pages
}

func TestExtractUnresolvableURL(t *testing.T) {
	src := &fakeSource{}
	res, err := NewExtractor(src).Extract(context.Background(), "https://example.com/video", ExtractOptions{MaxComments: 5, IncludePrimary: true})

	require.ErrorIs(t, err, ErrUnresolvableURL)
	assert.Empty(t, res.Comments)
	assert.Empty(t, src.threadQueries)
}

func TestExtractNoTypeSelected(t *testing.T) {
	src := &fakeSource{video: video(50), pages: pagesOf(1, 10)}
	res, err := NewExtractor(src).Extract(context.Background(), testURL, ExtractOptions{MaxComments: 10})

	require.NoError(t, err)
	assert.Empty(t, res.Comments)
	assert.Contains(t, res.Report.Reasons, "No comment type selected for extraction.")
	assert.Empty(t, src.threadQueries)
	assert.Zero(t, src.searchCalls)
}

func TestExtractNoCommentsAvailable(t *testing.T) {
	src := &fakeSource{video: video(0)}
	res, err := NewExtractor(src).Extract(context.Background(), testURL, ExtractOptions{MaxComments: 10, IncludePrimary: true})

	require.NoError(t, err)
	assert.Empty(t, res.Comments)
	assert.Equal(t, []string{"The video has no comments available."}, res.Report.Reasons)
	assert.Empty(t, src.threadQueries)
}

func TestExtractFewerAvailableThanRequested(t *testing.T) {
	src := &fakeSource{
		video: video(2),
		pages: []*ThreadPage{{Threads: []Thread{thread("a", "first", 0), thread("b", "second", 0)}}},
	}
	res, err := NewExtractor(src).Extract(context.Background(), testURL, ExtractOptions{MaxComments: 5, IncludePrimary: true, IncludeReplies: true})

	require.NoError(t, err)
	assert.Len(t, res.Comments, 2)
	assert.Equal(t, 5, res.Report.Requested)
	assert.Equal(t, 2, res.Report.Extracted)
	assert.Equal(t, 2, res.Report.Available)
	assert.Contains(t, res.Report.Reasons, "The video has only 2 comments available.")
	assert.Zero(t, src.searchCalls)
	for _, c := range res.Comments {
		assert.Equal(t, model.KindPrimary, c.Kind)
		assert.Nil(t, c.SentimentResult)
	}
}

func TestExtractRepliesCarryParentAuthor(t *testing.T) {
	src := &fakeSource{
		video: video(10),
		pages: []*ThreadPage{{Threads: []Thread{thread("a", "top", 2)}}},
		replies: map[string][]*RawComment{
			"a": {
				{ID: "r1", Author: "", Text: "first reply"},
				nil,
				{ID: "r2", Author: "bob", Text: "   "},
				{ID: "r3", Author: "carol", Text: "second reply", Likes: -3},
			},
		},
	}
	res, err := NewExtractor(src).Extract(context.Background(), testURL, ExtractOptions{MaxComments: 3, IncludePrimary: true, IncludeReplies: true})

	require.NoError(t, err)
	require.Len(t, res.Comments, 3)
	assert.Equal(t, model.KindPrimary, res.Comments[0].Kind)

	assert.Equal(t, model.KindReply, res.Comments[1].Kind)
	assert.Equal(t, "Anonymous", res.Comments[1].Author)
	assert.Equal(t, "author-a", res.Comments[1].ParentAuthor)

	assert.Equal(t, "r3", res.Comments[2].ID)
	assert.Zero(t, res.Comments[2].Likes)
}

func TestExtractRepliesOnly(t *testing.T) {
	src := &fakeSource{
		video:   video(10),
		pages:   []*ThreadPage{{Threads: []Thread{thread("a", "top", 1), thread("b", "no replies", 0)}}},
		replies: map[string][]*RawComment{"a": {{ID: "r1", Author: "x", Text: "reply"}}},
	}
	res, err := NewExtractor(src).Extract(context.Background(), testURL, ExtractOptions{MaxComments: 1, IncludeReplies: true})

	require.NoError(t, err)
	require.Len(t, res.Comments, 1)
	assert.Equal(t, model.KindReply, res.Comments[0].Kind)
	assert.Contains(t, res.Report.Reasons, "Configured to extract replies only.")
	assert.Equal(t, 1, src.replyCalls)
}

func TestExtractReplyFailureIsSkipped(t *testing.T) {
	src := &fakeSource{
		video:    video(3),
		pages:    []*ThreadPage{{Threads: []Thread{thread("a", "one", 4), thread("b", "two", 0)}}},
		replyErr: errors.New("forbidden"),
	}
	res, err := NewExtractor(src).Extract(context.Background(), testURL, ExtractOptions{MaxComments: 2, IncludePrimary: true, IncludeReplies: true})

	require.NoError(t, err)
	assert.Len(t, res.Comments, 2)
}

func TestExtractNeverExceedsBudget(t *testing.T) {
	src := &fakeSource{video: video(1000), pages: pagesOf(3, 100)}
	res, err := NewExtractor(src).Extract(context.Background(), testURL, ExtractOptions{MaxComments: 150, IncludePrimary: true})

	require.NoError(t, err)
	assert.Len(t, res.Comments, 150)
	require.Len(t, src.threadQueries, 2)
	assert.Equal(t, int64(100), src.threadQueries[0].MaxResults)
	assert.Equal(t, int64(50), src.threadQueries[1].MaxResults)
	assert.Equal(t, "time", src.threadQueries[0].Order)
	assert.Equal(t, "published", src.threadQueries[0].ModerationStatus)
}

func TestExtractPageLimit(t *testing.T) {
	src := &fakeSource{video: video(5000), pages: pagesOf(12, 5)}
	res, err := NewExtractor(src).Extract(context.Background(), testURL, ExtractOptions{MaxComments: 500, IncludePrimary: true})

	require.NoError(t, err)
	assert.Len(t, res.Comments, 50)
	assert.Len(t, src.threadQueries, maxPages)
	assert.Contains(t, res.Report.Reasons, "Page limit reached (10 pages).")
	assert.Contains(t, res.Report.Reasons, "Trying alternative method to extract more comments...")
	assert.Equal(t, 1, src.searchCalls)
}

func TestExtractEmptyPage(t *testing.T) {
	src := &fakeSource{video: video(20), pages: []*ThreadPage{{}}}
	res, err := NewExtractor(src).Extract(context.Background(), testURL, ExtractOptions{MaxComments: 10, IncludePrimary: true})

	require.NoError(t, err)
	assert.Empty(t, res.Comments)
	assert.Contains(t, res.Report.Reasons, "The YouTube API returned an empty page of comments.")
	assert.NotContains(t, res.Report.Reasons, "Some comments may have been filtered by the YouTube API (spam, removed by the author, etc).")
}

func TestExtractRetriesWithoutModerationFilter(t *testing.T) {
	src := &fakeSource{
		video:      video(2),
		pages:      []*ThreadPage{{Threads: []Thread{thread("a", "one", 0), thread("b", "two", 0)}}},
		threadErrs: []error{fmt.Errorf("%w: invalid moderationStatus", ErrParameterRejected)},
	}
	res, err := NewExtractor(src).Extract(context.Background(), testURL, ExtractOptions{MaxComments: 2, IncludePrimary: true})

	require.NoError(t, err)
	assert.Len(t, res.Comments, 2)
	require.Len(t, src.threadQueries, 2)
	assert.Equal(t, "published", src.threadQueries[0].ModerationStatus)
	assert.Empty(t, src.threadQueries[1].ModerationStatus)
}

func TestExtractRetryFailureIsFatal(t *testing.T) {
	boom := errors.New("backend unavailable")
	src := &fakeSource{
		video:      video(10),
		pages:      []*ThreadPage{{Threads: []Thread{thread("a", "one", 0)}}},
		threadErrs: []error{fmt.Errorf("%w: invalid moderationStatus", ErrParameterRejected), boom},
	}
	res, err := NewExtractor(src).Extract(context.Background(), testURL, ExtractOptions{MaxComments: 5, IncludePrimary: true})

	require.ErrorIs(t, err, boom)
	assert.Len(t, src.threadQueries, 2)
	assert.Equal(t, "published", src.threadQueries[0].ModerationStatus)
	assert.Empty(t, src.threadQueries[1].ModerationStatus)
	assert.Contains(t, res.Report.Reasons, "YouTube API error: backend unavailable")
	assert.Empty(t, res.Comments)
	assert.Zero(t, src.searchCalls)
}

func TestExtractFatalErrors(t *testing.T) {
	t.Run("video details", func(t *testing.T) {
		src := &fakeSource{videoErr: errors.New("quota exceeded")}
		res, err := NewExtractor(src).Extract(context.Background(), testURL, ExtractOptions{MaxComments: 2, IncludePrimary: true})

		require.Error(t, err)
		assert.Contains(t, res.Report.Reasons, "YouTube API error: quota exceeded")
	})

	t.Run("comment page", func(t *testing.T) {
		boom := errors.New("backend unavailable")
		src := &fakeSource{video: video(10), threadErrs: []error{boom}}
		res, err := NewExtractor(src).Extract(context.Background(), testURL, ExtractOptions{MaxComments: 2, IncludePrimary: true})

		require.ErrorIs(t, err, boom)
		assert.Contains(t, res.Report.Reasons, "YouTube API error: backend unavailable")
		assert.Zero(t, src.searchCalls)
	})
}

func TestExtractSearchFallback(t *testing.T) {
	t.Run("video results are ignored", func(t *testing.T) {
		src := &fakeSource{
			video:  video(10),
			pages:  []*ThreadPage{{Threads: []Thread{thread("a", "one", 0)}}},
			search: []SearchItem{{Kind: "youtube#video", ID: "v1", Text: "a video"}},
		}
		res, err := NewExtractor(src).Extract(context.Background(), testURL, ExtractOptions{MaxComments: 5, IncludePrimary: true})

		require.NoError(t, err)
		assert.Len(t, res.Comments, 1)
		assert.Equal(t, 1, src.searchCalls)
		assert.Contains(t, res.Report.Reasons, "Some comments may have been filtered by the YouTube API (spam, removed by the author, etc).")
		assert.Contains(t, res.Report.Reasons, "Could not extract all available comments. This can happen due to YouTube API limitations or because some comments are hidden/filtered.")
	})

	t.Run("comment results are deduplicated", func(t *testing.T) {
		src := &fakeSource{
			video: video(3),
			pages: []*ThreadPage{{Threads: []Thread{thread("a", "one", 0)}}},
			search: []SearchItem{
				{Kind: commentKind, ID: "a", Text: "duplicate"},
				{Kind: commentKind, ID: "s1", Text: "found by search"},
				{Kind: commentKind, ID: "s1", Text: "found twice"},
				{Kind: commentKind, ID: "s2", Text: "another"},
			},
		}
		res, err := NewExtractor(src).Extract(context.Background(), testURL, ExtractOptions{MaxComments: 3, IncludePrimary: true})

		require.NoError(t, err)
		require.Len(t, res.Comments, 3)
		assert.Equal(t, "s1", res.Comments[1].ID)
		assert.Equal(t, model.KindFallback, res.Comments[1].Kind)
		assert.Equal(t, "Anonymous", res.Comments[1].Author)
		assert.Equal(t, "s2", res.Comments[2].ID)
		assert.Equal(t, 3, res.Report.Extracted)
	})

	t.Run("errors become reasons", func(t *testing.T) {
		src := &fakeSource{
			video:     video(5),
			pages:     []*ThreadPage{{Threads: []Thread{thread("a", "one", 0)}}},
			searchErr: errors.New("search disabled"),
		}
		res, err := NewExtractor(src).Extract(context.Background(), testURL, ExtractOptions{MaxComments: 5, IncludePrimary: true})

		require.NoError(t, err)
		assert.Len(t, res.Comments, 1)
		assert.Contains(t, res.Report.Reasons, "Alternative method failed: search disabled")
	})
}
