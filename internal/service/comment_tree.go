package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"Social_Feed/internal/model"
	"Social_Feed/internal/repository/mysql"

	"gorm.io/gorm"
)

type commentStore interface {
	Create(ctx context.Context, c *model.Comment) error
	FindByID(ctx context.Context, id uint64) (*model.Comment, error)
	ListTopLevel(ctx context.Context, postID uint64, order mysql.CommentOrder) ([]model.Comment, error)
	ListReplies(ctx context.Context, parentID uint64) ([]model.Comment, error)
	ChildIDs(ctx context.Context, parentIDs []uint64) ([]uint64, error)
	DeleteByIDs(ctx context.Context, ids []uint64) (int64, error)
	DecrementReplyCount(ctx context.Context, id uint64) error
	SubtractPostComments(ctx context.Context, postID uint64, n int64) error
}

type postFinder interface {
	FindByID(ctx context.Context, id uint64) (*model.Post, error)
}

type userFinder interface {
	FindByIDs(ctx context.Context, ids []uint64) (map[uint64]model.User, error)
}

type likedFinder interface {
	LikedAmong(ctx context.Context, t mysql.LikeTarget, userID uint64, ids []uint64) (map[uint64]bool, error)
}

// CreateCommentInput 新建评论或回复；ParentID 为空表示顶层评论
type CreateCommentInput struct {
	PostID      uint64
	ParentID    *uint64
	Content     string
	Image       string
	IsAnonymous bool
}

// DeleteResult reports how many comment rows a subtree deletion removed.
type DeleteResult struct {
	PostID  uint64
	Removed int64
}

// ParseCommentOrder maps the sort query value; empty means oldest-first.
func ParseCommentOrder(s string) (mysql.CommentOrder, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "oldest":
		return mysql.OrderOldest, nil
	case "newest":
		return mysql.OrderNewest, nil
	case "popular":
		return mysql.OrderPopular, nil
	default:
		return 0, validationf("unknown sort %q", s)
	}
}

// CommentTree 评论树：创建、列表、整棵子树删除
type CommentTree struct {
	comments commentStore
	posts    postFinder
	users    userFinder
	likes    likedFinder
	now      func() time.Time
	logger   *slog.Logger
}

func NewCommentTree(comments commentStore, posts postFinder, users userFinder, likes likedFinder, now func() time.Time, logger *slog.Logger) *CommentTree {
	if now == nil {
		now = time.Now
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &CommentTree{comments: comments, posts: posts, users: users, likes: likes, now: now, logger: logger}
}

func (t *CommentTree) Create(ctx context.Context, viewer Viewer, in CreateCommentInput) (*CommentView, error) {
	if viewer.Anonymous() {
		return nil, ErrUnauthenticated
	}
	content := strings.TrimSpace(in.Content)
	image := strings.TrimSpace(in.Image)
	if content == "" && image == "" {
		return nil, validationf("comment needs content or image")
	}
	if in.PostID == 0 {
		return nil, validationf("postId required")
	}
	if _, err := t.posts.FindByID(ctx, in.PostID); err != nil {
		// 帖子不存在属于请求参数错误
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, validationf("post %d does not exist", in.PostID)
		}
		return nil, storeErr("find post", err, "post")
	}
	if in.ParentID != nil {
		parent, err := t.comments.FindByID(ctx, *in.ParentID)
		if err != nil {
			return nil, storeErr("find parent", err, "parent comment")
		}
		if parent.PostID != in.PostID {
			return nil, validationf("parent comment belongs to another post")
		}
	}

	c := &model.Comment{
		PostID:      in.PostID,
		AuthorID:    viewer.ID,
		ParentID:    in.ParentID,
		Content:     content,
		Image:       image,
		IsAnonymous: in.IsAnonymous,
		CreatedAt:   t.now().UTC(),
	}
	// 父评论或帖子在校验之后被并发删除时，事务回滚并返回 NotFound
	if err := t.comments.Create(ctx, c); err != nil {
		return nil, storeErr("create comment", err, "post or parent comment")
	}

	authors, err := t.users.FindByIDs(ctx, []uint64{viewer.ID})
	if err != nil {
		return nil, storeErr("find author", err, "author")
	}
	v := commentView(viewer, *c, authors, nil)
	return &v, nil
}

// ListTopLevel returns every top-level comment of a post in the requested order.
func (t *CommentTree) ListTopLevel(ctx context.Context, viewer Viewer, postID uint64, order mysql.CommentOrder) ([]CommentView, error) {
	if postID == 0 {
		return nil, validationf("postId required")
	}
	list, err := t.comments.ListTopLevel(ctx, postID, order)
	if err != nil {
		return nil, storeErr("list comments", err, "post")
	}
	return t.enrich(ctx, viewer, list)
}

// ListReplies returns the direct children of a comment, oldest first.
func (t *CommentTree) ListReplies(ctx context.Context, viewer Viewer, commentID uint64) ([]CommentView, error) {
	if commentID == 0 {
		return nil, validationf("comment id required")
	}
	if _, err := t.comments.FindByID(ctx, commentID); err != nil {
		return nil, storeErr("find comment", err, "comment")
	}
	list, err := t.comments.ListReplies(ctx, commentID)
	if err != nil {
		return nil, storeErr("list replies", err, "comment")
	}
	return t.enrich(ctx, viewer, list)
}

// Delete removes a comment and its whole descendant subtree, children before
// parents. It walks the tree level by level with an explicit work-list, so depth
// does not grow the call stack. Already-deleted descendants stay deleted if a
// later step fails; the error is reported as ErrInternal and a retry is safe.
func (t *CommentTree) Delete(ctx context.Context, viewer Viewer, commentID uint64) (*DeleteResult, error) {
	if viewer.Anonymous() {
		return nil, ErrUnauthenticated
	}
	if commentID == 0 {
		return nil, validationf("comment id required")
	}
	root, err := t.comments.FindByID(ctx, commentID)
	if err != nil {
		return nil, storeErr("find comment", err, "comment")
	}
	if !viewer.CanModify(root.AuthorID) {
		return nil, ErrForbidden
	}

	// 逐层发现子孙节点：levels[0] 为根，levels[i] 为第 i 层
	levels := [][]uint64{{root.ID}}
	for frontier := levels[0]; len(frontier) > 0; {
		children, err := t.comments.ChildIDs(ctx, frontier)
		if err != nil {
			return nil, fmt.Errorf("%w: discover replies of comment %d: %v", ErrInternal, root.ID, err)
		}
		if len(children) == 0 {
			break
		}
		levels = append(levels, children)
		frontier = children
	}

	res := &DeleteResult{PostID: root.PostID}
	// 从最深层开始删，保证子节点先于父节点删除
	for i := len(levels) - 1; i >= 0; i-- {
		n, err := t.comments.DeleteByIDs(ctx, levels[i])
		res.Removed += n
		if err != nil {
			t.settlePostCount(ctx, root.PostID, res.Removed)
			return res, fmt.Errorf("%w: delete comment subtree %d after removing %d: %v", ErrInternal, root.ID, res.Removed, err)
		}
	}

	// 只对直接父节点 -1，与删除的子孙数量无关
	if root.ParentID != nil {
		if err := t.comments.DecrementReplyCount(ctx, *root.ParentID); err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			t.settlePostCount(ctx, root.PostID, res.Removed)
			return res, fmt.Errorf("%w: decrement reply count of %d: %v", ErrInternal, *root.ParentID, err)
		}
	}
	if err := t.comments.SubtractPostComments(ctx, root.PostID, res.Removed); err != nil {
		return res, fmt.Errorf("%w: adjust comment count of post %d: %v", ErrInternal, root.PostID, err)
	}
	return res, nil
}

// settlePostCount keeps posts.comment_count in step with rows removed before a failure.
func (t *CommentTree) settlePostCount(ctx context.Context, postID uint64, removed int64) {
	if err := t.comments.SubtractPostComments(ctx, postID, removed); err != nil {
		t.logger.Warn("adjust comment count after partial delete", "post_id", postID, "removed", removed, "err", err)
	}
}

func (t *CommentTree) enrich(ctx context.Context, viewer Viewer, list []model.Comment) ([]CommentView, error) {
	out := make([]CommentView, 0, len(list))
	if len(list) == 0 {
		return out, nil
	}
	ids := make([]uint64, 0, len(list))
	authorIDs := make([]uint64, 0, len(list))
	for _, c := range list {
		ids = append(ids, c.ID)
		authorIDs = append(authorIDs, c.AuthorID)
	}
	authors, err := t.users.FindByIDs(ctx, uniqueIDs(authorIDs))
	if err != nil {
		return nil, storeErr("find authors", err, "author")
	}
	liked, err := t.likes.LikedAmong(ctx, mysql.TargetComment, viewer.ID, ids)
	if err != nil {
		return nil, storeErr("find liked comments", err, "comment")
	}
	for _, c := range list {
		out = append(out, commentView(viewer, c, authors, liked))
	}
	return out, nil
}

func uniqueIDs(ids []uint64) []uint64 {
	seen := make(map[uint64]struct{}, len(ids))
	out := make([]uint64, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
