package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"Social_Feed/internal/model"
	"Social_Feed/internal/repository/mysql"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAggregateEnrichment(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	p1 := e.post(t, alice, "first")
	p2 := e.post(t, bob, "second")

	// p1 有 5 条顶层评论和 1 条回复，p2 有 1 条评论
	var p1Comments []uint64
	for i := 0; i < 5; i++ {
		p1Comments = append(p1Comments, e.comment(t, carol, p1.ID, nil, fmt.Sprintf("p1-%d", i)).ID)
	}
	e.comment(t, bob, p1.ID, &p1Comments[0], "reply")
	p2c := e.comment(t, alice, p2.ID, nil, "p2-0")

	_, err := e.feed.TogglePostLike(ctx, carol, p1.ID)
	require.NoError(t, err)
	_, err = e.feed.ToggleCommentLike(ctx, carol, p1Comments[1])
	require.NoError(t, err)

	page, err := e.agg.Aggregate(ctx, FeedQuery{Viewer: carol})
	require.NoError(t, err)
	require.Len(t, page.Posts, 2)
	assert.False(t, page.HasMore)
	assert.Empty(t, page.NextCursor)

	// 默认按时间倒序
	first, second := page.Posts[0], page.Posts[1]
	assert.Equal(t, p2.ID, first.ID)
	assert.Equal(t, p1.ID, second.ID)

	assert.Equal(t, AuthorView{ID: 1, Username: "user1", DisplayName: "User 1", Avatar: "/avatars/1.png"}, second.Author)
	assert.True(t, second.Liked)
	assert.Equal(t, int64(1), second.Likes)
	assert.False(t, first.Liked)

	// 每个帖子最多 3 条，最早的在前，其他帖子的名额不受影响
	require.Len(t, second.Comments, 3)
	for i, c := range second.Comments {
		assert.Equal(t, p1Comments[i], c.ID)
		assert.Equal(t, "user3", c.Author.Username)
	}
	assert.False(t, second.Comments[0].Liked)
	assert.True(t, second.Comments[1].Liked)
	assert.Equal(t, int64(1), second.Comments[0].ReplyCount)
	assert.Equal(t, int64(6), second.CommentCount)

	require.Len(t, first.Comments, 1)
	assert.Equal(t, p2c.ID, first.Comments[0].ID)
	assert.Equal(t, int64(1), first.CommentCount)

	// 完整列表不受 3 条限制
	all, err := e.feed.ListComments(ctx, Viewer{}, p1.ID, "oldest")
	require.NoError(t, err)
	assert.Len(t, all, 5)
}

func TestAggregateAnonymousViewer(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	p := e.post(t, alice, "liked")
	c := e.comment(t, bob, p.ID, nil, "c")
	_, err := e.feed.TogglePostLike(ctx, bob, p.ID)
	require.NoError(t, err)
	_, err = e.feed.ToggleCommentLike(ctx, bob, c.ID)
	require.NoError(t, err)

	page, err := e.agg.Aggregate(ctx, FeedQuery{})
	require.NoError(t, err)
	require.Len(t, page.Posts, 1)
	assert.False(t, page.Posts[0].Liked)
	assert.Equal(t, int64(1), page.Posts[0].Likes)
	assert.False(t, page.Posts[0].Comments[0].Liked)
	assert.Equal(t, int64(1), page.Posts[0].Comments[0].Likes)
}

func TestAggregateEmpty(t *testing.T) {
	e := newEnv(t)
	page, err := e.agg.Aggregate(context.Background(), FeedQuery{})
	require.NoError(t, err)
	assert.NotNil(t, page.Posts)
	assert.Empty(t, page.Posts)
	assert.False(t, page.HasMore)
}

func TestAggregateOffsetPagination(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	for i := 0; i < 23; i++ {
		e.post(t, alice, fmt.Sprintf("post %d", i))
	}

	p1, err := e.agg.Aggregate(ctx, FeedQuery{Page: 1})
	require.NoError(t, err)
	assert.Len(t, p1.Posts, 10)
	assert.True(t, p1.HasMore)
	assert.Equal(t, "post 22", p1.Posts[0].Content)

	p3, err := e.agg.Aggregate(ctx, FeedQuery{Page: 3})
	require.NoError(t, err)
	assert.Len(t, p3.Posts, 3)
	assert.False(t, p3.HasMore)
	assert.Equal(t, "post 2", p3.Posts[0].Content)

	oldest, err := e.agg.Aggregate(ctx, FeedQuery{Oldest: true})
	require.NoError(t, err)
	assert.Equal(t, "post 0", oldest.Posts[0].Content)
	assert.Empty(t, oldest.NextCursor)
}

func TestAggregateExactMultiple(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	for i := 0; i < 20; i++ {
		e.post(t, alice, fmt.Sprintf("post %d", i))
	}

	p2, err := e.agg.Aggregate(ctx, FeedQuery{Page: 2})
	require.NoError(t, err)
	assert.Len(t, p2.Posts, 10)
	assert.False(t, p2.HasMore)

	p3, err := e.agg.Aggregate(ctx, FeedQuery{Page: 3})
	require.NoError(t, err)
	assert.Empty(t, p3.Posts)
	assert.False(t, p3.HasMore)
}

func TestAggregateCursorPagination(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	for i := 0; i < 15; i++ {
		e.post(t, alice, fmt.Sprintf("post %d", i))
	}

	first, err := e.agg.Aggregate(ctx, FeedQuery{})
	require.NoError(t, err)
	require.True(t, first.HasMore)
	require.NotEmpty(t, first.NextCursor)

	before, beforeID, err := ParseCursor(first.NextCursor)
	require.NoError(t, err)
	assert.Equal(t, first.Posts[9].ID, beforeID)

	// 两页之间插入新帖子不会造成重复或遗漏
	e.post(t, bob, "late arrival")

	next, err := e.agg.Aggregate(ctx, FeedQuery{Before: before, BeforeID: beforeID})
	require.NoError(t, err)
	require.Len(t, next.Posts, 5)
	assert.False(t, next.HasMore)
	assert.Equal(t, "post 4", next.Posts[0].Content)
	assert.Equal(t, "post 0", next.Posts[4].Content)
	for _, p := range next.Posts {
		assert.True(t, p.CreatedAt.Before(before))
	}
}

func TestAggregateAuthorFilter(t *testing.T) {
	e := newEnv(t)
	e.post(t, alice, "a1")
	e.post(t, bob, "b1")
	e.post(t, alice, "a2")

	page, err := e.agg.Aggregate(context.Background(), FeedQuery{AuthorID: alice.ID})
	require.NoError(t, err)
	require.Len(t, page.Posts, 2)
	assert.Equal(t, "a2", page.Posts[0].Content)
	assert.Equal(t, "a1", page.Posts[1].Content)
}

func TestAggregateAnonymityMasking(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	e.clock.Advance(time.Minute)
	p, err := e.feed.CreatePost(ctx, alice, CreatePostInput{Content: "secret", IsAnonymous: true})
	require.NoError(t, err)

	for _, tc := range []struct {
		viewer Viewer
		masked bool
	}{
		{Viewer{}, true},
		{bob, true},
		{alice, false},
		{admin, false},
	} {
		page, err := e.agg.Aggregate(ctx, FeedQuery{Viewer: tc.viewer})
		require.NoError(t, err)
		require.Len(t, page.Posts, 1)
		got := page.Posts[0]
		assert.Equal(t, p.ID, got.ID)
		assert.True(t, got.IsAnonymous)
		if tc.masked {
			assert.Equal(t, anonymousAuthor, got.Author, "viewer %d", tc.viewer.ID)
		} else {
			assert.Equal(t, "user1", got.Author.Username, "viewer %d", tc.viewer.ID)
		}
	}
}

func TestAggregateDeletedAuthor(t *testing.T) {
	e := newEnv(t)
	p := e.post(t, alice, "orphan")
	require.NoError(t, e.db.Delete(&model.User{}, alice.ID).Error)

	page, err := e.agg.Aggregate(context.Background(), FeedQuery{})
	require.NoError(t, err)
	require.Len(t, page.Posts, 1)
	assert.Equal(t, p.ID, page.Posts[0].ID)
	assert.Equal(t, "deleted", page.Posts[0].Author.Username)
}

// countingComments wraps the comment repository to count batched calls.
type countingComments struct {
	*mysql.CommentRepository
	top, counts int
}

func (c *countingComments) TopLevelForPosts(ctx context.Context, ids []uint64, per int) ([]model.Comment, error) {
	c.top++
	return c.CommentRepository.TopLevelForPosts(ctx, ids, per)
}

func (c *countingComments) CountForPosts(ctx context.Context, ids []uint64) (map[uint64]int64, error) {
	c.counts++
	return c.CommentRepository.CountForPosts(ctx, ids)
}

func TestAggregateBatchesCommentQueries(t *testing.T) {
	e := newEnv(t)
	for i := 0; i < 10; i++ {
		p := e.post(t, alice, fmt.Sprintf("post %d", i))
		e.comment(t, bob, p.ID, nil, "c")
	}
	cc := &countingComments{CommentRepository: e.comments}
	agg := NewPostAggregator(e.posts, cc, e.users, e.likes, DefaultPageSize)

	page, err := agg.Aggregate(context.Background(), FeedQuery{Viewer: bob})
	require.NoError(t, err)
	assert.Len(t, page.Posts, 10)
	assert.Equal(t, 1, cc.top)
	assert.Equal(t, 1, cc.counts)
}

func TestAggregateCursorKeepsSameInstantPosts(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	at := time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)
	for i := 0; i < 13; i++ {
		require.NoError(t, e.posts.Create(ctx, &model.Post{AuthorID: alice.ID, Content: fmt.Sprintf("burst %d", i), CreatedAt: at, UpdatedAt: at}))
	}

	first, err := e.agg.Aggregate(ctx, FeedQuery{})
	require.NoError(t, err)
	require.Len(t, first.Posts, 10)
	require.True(t, first.HasMore)

	before, beforeID, err := ParseCursor(first.NextCursor)
	require.NoError(t, err)
	next, err := e.agg.Aggregate(ctx, FeedQuery{Before: before, BeforeID: beforeID})
	require.NoError(t, err)
	require.Len(t, next.Posts, 3)
	assert.False(t, next.HasMore)

	seen := map[uint64]bool{}
	for _, p := range append(first.Posts, next.Posts...) {
		assert.False(t, seen[p.ID], "post %d returned twice", p.ID)
		seen[p.ID] = true
	}
	assert.Len(t, seen, 13)
}

func TestParseCursor(t *testing.T) {
	at := time.Date(2024, 6, 1, 9, 0, 0, 123456789, time.UTC)

	got, id, err := ParseCursor(FormatCursor(at, 17))
	require.NoError(t, err)
	assert.True(t, at.Equal(got))
	assert.Equal(t, uint64(17), id)

	got, id, err = ParseCursor("2024-06-01T09:00:00Z")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC), got)
	assert.Zero(t, id)

	got, _, err = ParseCursor("1717232400000")
	require.NoError(t, err)
	assert.Equal(t, time.UnixMilli(1717232400000).UTC(), got)

	for _, bad := range []string{"yesterday", "2024-06-01T09:00:00Z_x", "2024-06-01T09:00:00Z_0"} {
		_, _, err := ParseCursor(bad)
		assert.True(t, IsValidation(err), bad)
	}
}
