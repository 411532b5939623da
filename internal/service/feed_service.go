package service

import (
	"context"
	"log/slog"
	"strconv"

	"Social_Feed/internal/model"
	"Social_Feed/internal/pkg"
	"Social_Feed/internal/repository/mysql"

	"golang.org/x/sync/singleflight"
)

// FeedService is the composition root for the feed. Reads of the anonymous
// first page go through the cache; every successful write invalidates it and
// records an outbox event.
type FeedService struct {
	posts      *PostService
	aggregator *PostAggregator
	cache      *FeedCache
	likes      *LikeToggler
	comments   *CommentTree
	events     *EventRecorder
	logger     *slog.Logger
	group      singleflight.Group
}

type FeedServiceDeps struct {
	Posts      *PostService
	Aggregator *PostAggregator
	Cache      *FeedCache
	Likes      *LikeToggler
	Comments   *CommentTree
	Events     *EventRecorder
	Logger     *slog.Logger
}

func NewFeedService(d FeedServiceDeps) *FeedService {
	logger := d.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &FeedService{
		posts:      d.Posts,
		aggregator: d.Aggregator,
		cache:      d.Cache,
		likes:      d.Likes,
		comments:   d.Comments,
		events:     d.Events,
		logger:     logger,
	}
}

// Feed 只有匿名、第一页、默认筛选的请求会读写缓存
func (s *FeedService) Feed(ctx context.Context, q FeedQuery) (*FeedPage, error) {
	if !q.IsDefault(s.aggregator.PageSize()) {
		return s.aggregator.Aggregate(ctx, q)
	}
	if page, ok := s.cache.Get(); ok {
		pkg.FeedCacheLookups.WithLabelValues("hit").Inc()
		return page, nil
	}
	pkg.FeedCacheLookups.WithLabelValues("miss").Inc()

	// 同一代的并发未命中合并为一次查询；失效后的请求不会复用失效前开始的查询
	gen := s.cache.Generation()
	v, err, _ := s.group.Do("feed:first:"+strconv.FormatUint(gen, 10), func() (any, error) {
		page, err := s.aggregator.Aggregate(context.WithoutCancel(ctx), FeedQuery{})
		if err != nil {
			return nil, err
		}
		if !s.cache.Fill(gen, page) {
			s.logger.Debug("feed page computed across an invalidation, not cached")
		}
		return page, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*FeedPage), nil
}

func (s *FeedService) invalidate() {
	s.cache.Invalidate()
	pkg.FeedCacheInvalidations.Inc()
}

func (s *FeedService) CreatePost(ctx context.Context, viewer Viewer, in CreatePostInput) (*model.Post, error) {
	post, err := s.posts.Create(ctx, viewer, in)
	if err != nil {
		return nil, err
	}
	s.invalidate()
	s.events.Record(ctx, EventPostCreated, post.ID, viewer.ID, map[string]any{"anonymous": post.IsAnonymous})
	return post, nil
}

func (s *FeedService) EditPost(ctx context.Context, viewer Viewer, postID uint64, content string) (*model.Post, error) {
	post, err := s.posts.Edit(ctx, viewer, postID, content)
	if err != nil {
		return nil, err
	}
	s.invalidate()
	s.events.Record(ctx, EventPostEdited, post.ID, viewer.ID, nil)
	return post, nil
}

func (s *FeedService) DeletePost(ctx context.Context, viewer Viewer, postID uint64) error {
	post, err := s.posts.Delete(ctx, viewer, postID)
	if err != nil {
		return err
	}
	s.invalidate()
	s.events.Record(ctx, EventPostDeleted, post.ID, viewer.ID, map[string]any{"author_id": post.AuthorID})
	return nil
}

func (s *FeedService) TogglePostLike(ctx context.Context, viewer Viewer, postID uint64) (LikeResult, error) {
	return s.toggle(ctx, viewer, mysql.TargetPost, postID, EventPostLiked, EventPostUnliked)
}

func (s *FeedService) ToggleCommentLike(ctx context.Context, viewer Viewer, commentID uint64) (LikeResult, error) {
	return s.toggle(ctx, viewer, mysql.TargetComment, commentID, EventCommentLiked, EventCommentUnliked)
}

func (s *FeedService) toggle(ctx context.Context, viewer Viewer, target mysql.LikeTarget, id uint64, liked, unliked string) (LikeResult, error) {
	res, err := s.likes.Toggle(ctx, target, id, viewer.ID)
	if err != nil {
		return LikeResult{}, err
	}
	s.invalidate()
	event := unliked
	if res.Liked {
		event = liked
	}
	s.events.Record(ctx, event, id, viewer.ID, map[string]any{"likes": res.Likes})
	return res, nil
}

func (s *FeedService) CreateComment(ctx context.Context, viewer Viewer, in CreateCommentInput) (*CommentView, error) {
	c, err := s.comments.Create(ctx, viewer, in)
	if err != nil {
		return nil, err
	}
	s.invalidate()
	payload := map[string]any{"post_id": c.PostID}
	if c.ParentID != nil {
		payload["parent_id"] = *c.ParentID
	}
	s.events.Record(ctx, EventCommentCreated, c.ID, viewer.ID, payload)
	return c, nil
}

// DeleteComment 部分删除失败时也要让缓存失效，已删除的子评论不会恢复
func (s *FeedService) DeleteComment(ctx context.Context, viewer Viewer, commentID uint64) error {
	res, err := s.comments.Delete(ctx, viewer, commentID)
	if res != nil && res.Removed > 0 {
		s.invalidate()
	}
	if err != nil {
		if res != nil {
			s.logger.Error("partial comment subtree delete", "comment_id", commentID, "removed", res.Removed, "err", err)
		}
		return err
	}
	s.events.Record(ctx, EventCommentDeleted, commentID, viewer.ID, map[string]any{"post_id": res.PostID, "removed": res.Removed})
	return nil
}

func (s *FeedService) ListComments(ctx context.Context, viewer Viewer, postID uint64, sort string) ([]CommentView, error) {
	order, err := ParseCommentOrder(sort)
	if err != nil {
		return nil, err
	}
	return s.comments.ListTopLevel(ctx, viewer, postID, order)
}

func (s *FeedService) ListReplies(ctx context.Context, viewer Viewer, commentID uint64) ([]CommentView, error) {
	return s.comments.ListReplies(ctx, viewer, commentID)
}
