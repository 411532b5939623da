package service

import (
	"context"
	"strconv"
	"strings"
	"time"

	"Social_Feed/internal/model"
	"Social_Feed/internal/repository/mysql"

	"golang.org/x/sync/errgroup"
)

const (
	DefaultPageSize = 10
	MaxPageSize     = 50
	// CommentsPerPost 每个帖子在 feed 中内嵌的顶层评论数
	CommentsPerPost = 3
)

type postLister interface {
	List(ctx context.Context, f mysql.PostFilter, offset, limit int) ([]model.Post, error)
}

type commentBatcher interface {
	TopLevelForPosts(ctx context.Context, postIDs []uint64, perPost int) ([]model.Comment, error)
	CountForPosts(ctx context.Context, postIDs []uint64) (map[uint64]int64, error)
}

// FeedQuery selects one page of posts. A non-zero Before switches to cursor mode,
// which ignores Page and Oldest and always returns newest-first. BeforeID, when
// set, resumes after the post with that id among posts sharing Before.
type FeedQuery struct {
	Viewer   Viewer
	AuthorID uint64
	Before   time.Time
	BeforeID uint64
	Page     int
	PageSize int
	Oldest   bool
}

// IsDefault reports whether the query is the anonymous, first-page, unfiltered feed.
func (q FeedQuery) IsDefault(defaultSize int) bool {
	return q.Viewer.Anonymous() && q.AuthorID == 0 && q.Before.IsZero() && !q.Oldest &&
		q.Page <= 1 && (q.PageSize == 0 || q.PageSize == defaultSize)
}

// PostAggregator builds enriched feed pages. For N posts it issues one post query,
// one batched top-comment query, one batched comment-count query, one author
// lookup and at most two liked-flag lookups, independent of N.
type PostAggregator struct {
	posts    postLister
	comments commentBatcher
	users    userFinder
	likes    likedFinder
	pageSize int
}

func NewPostAggregator(posts postLister, comments commentBatcher, users userFinder, likes likedFinder, pageSize int) *PostAggregator {
	if pageSize <= 0 || pageSize > MaxPageSize {
		pageSize = DefaultPageSize
	}
	return &PostAggregator{posts: posts, comments: comments, users: users, likes: likes, pageSize: pageSize}
}

func (a *PostAggregator) PageSize() int { return a.pageSize }

func (a *PostAggregator) Aggregate(ctx context.Context, q FeedQuery) (*FeedPage, error) {
	size := q.PageSize
	if size <= 0 || size > MaxPageSize {
		size = a.pageSize
	}
	filter := mysql.PostFilter{AuthorID: q.AuthorID, Before: q.Before, BeforeID: q.BeforeID, Oldest: q.Oldest}
	offset := 0
	if q.Before.IsZero() && q.Page > 1 {
		offset = (q.Page - 1) * size
	}

	// 多取一条用来判断是否还有下一页
	list, err := a.posts.List(ctx, filter, offset, size+1)
	if err != nil {
		return nil, storeErr("list posts", err, "post")
	}
	page := &FeedPage{Posts: make([]PostView, 0, size)}
	if len(list) > size {
		page.HasMore = true
		list = list[:size]
	}
	if len(list) == 0 {
		return page, nil
	}

	postIDs := make([]uint64, 0, len(list))
	for _, p := range list {
		postIDs = append(postIDs, p.ID)
	}

	var (
		top        []model.Comment
		counts     map[uint64]int64
		likedPosts map[uint64]bool
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		top, err = a.comments.TopLevelForPosts(gctx, postIDs, CommentsPerPost)
		return storeErr("top comments", err, "comment")
	})
	g.Go(func() error {
		var err error
		counts, err = a.comments.CountForPosts(gctx, postIDs)
		return storeErr("comment counts", err, "comment")
	})
	if !q.Viewer.Anonymous() {
		g.Go(func() error {
			var err error
			likedPosts, err = a.likes.LikedAmong(gctx, mysql.TargetPost, q.Viewer.ID, postIDs)
			return storeErr("liked posts", err, "post")
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	authorIDs := make([]uint64, 0, len(list)+len(top))
	commentIDs := make([]uint64, 0, len(top))
	for _, p := range list {
		authorIDs = append(authorIDs, p.AuthorID)
	}
	for _, c := range top {
		authorIDs = append(authorIDs, c.AuthorID)
		commentIDs = append(commentIDs, c.ID)
	}

	var (
		authors       map[uint64]model.User
		likedComments map[uint64]bool
	)
	g, gctx = errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		authors, err = a.users.FindByIDs(gctx, uniqueIDs(authorIDs))
		return storeErr("authors", err, "author")
	})
	if !q.Viewer.Anonymous() && len(commentIDs) > 0 {
		g.Go(func() error {
			var err error
			likedComments, err = a.likes.LikedAmong(gctx, mysql.TargetComment, q.Viewer.ID, commentIDs)
			return storeErr("liked comments", err, "comment")
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	// 评论已按 post_id、时间正序返回，这里只做分组
	byPost := make(map[uint64][]CommentView, len(list))
	for _, c := range top {
		byPost[c.PostID] = append(byPost[c.PostID], commentView(q.Viewer, c, authors, likedComments))
	}

	for _, p := range list {
		u, ok := authors[p.AuthorID]
		comments := byPost[p.ID]
		if comments == nil {
			comments = []CommentView{}
		}
		page.Posts = append(page.Posts, PostView{
			ID:           p.ID,
			Content:      p.Content,
			Image:        p.Image,
			IsAnonymous:  p.IsAnonymous,
			Author:       displayAuthor(q.Viewer, p.IsAnonymous, p.AuthorID, authorView(u, ok, p.AuthorID)),
			Likes:        p.LikeCount,
			Liked:        likedPosts[p.ID],
			Comments:     comments,
			CommentCount: counts[p.ID],
			CreatedAt:    p.CreatedAt,
			UpdatedAt:    p.UpdatedAt,
		})
	}

	if page.HasMore && (!q.Oldest || !q.Before.IsZero()) {
		last := list[len(list)-1]
		page.NextCursor = FormatCursor(last.CreatedAt, last.ID)
	}
	return page, nil
}

// FormatCursor 游标格式：<RFC3339Nano>_<id>
func FormatCursor(at time.Time, id uint64) string {
	return at.UTC().Format(time.RFC3339Nano) + "_" + strconv.FormatUint(id, 10)
}

// ParseCursor 接受 FormatCursor 的结果，也接受只有时间的旧格式（RFC3339 或毫秒时间戳）
func ParseCursor(s string) (time.Time, uint64, error) {
	var id uint64
	if i := strings.LastIndexByte(s, '_'); i >= 0 {
		n, err := strconv.ParseUint(s[i+1:], 10, 64)
		if err != nil || n == 0 {
			return time.Time{}, 0, validationf("invalid cursor id")
		}
		id = n
		s = s[:i]
	}
	if ms, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.UnixMilli(ms).UTC(), id, nil
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, 0, validationf("invalid cursor time")
	}
	return t.UTC(), id, nil
}
