package service

import (
	"context"
	"strings"
	"time"

	"Social_Feed/internal/model"
)

type postStore interface {
	Create(ctx context.Context, post *model.Post) error
	FindByID(ctx context.Context, id uint64) (*model.Post, error)
	UpdateContent(ctx context.Context, id uint64, content string, at time.Time) (int64, error)
	DeleteCascade(ctx context.Context, id uint64) error
}

// CreatePostInput 发帖参数；content 与 image 至少有一个
type CreatePostInput struct {
	Content     string
	Image       string
	IsAnonymous bool
}

type PostService struct {
	repo postStore
	now  func() time.Time
}

func NewPostService(repo postStore, now func() time.Time) *PostService {
	if now == nil {
		now = time.Now
	}
	return &PostService{repo: repo, now: now}
}

func (s *PostService) Create(ctx context.Context, viewer Viewer, in CreatePostInput) (*model.Post, error) {
	if viewer.Anonymous() {
		return nil, ErrUnauthenticated
	}
	content := strings.TrimSpace(in.Content)
	image := strings.TrimSpace(in.Image)
	if content == "" && image == "" {
		return nil, validationf("post needs content or image")
	}
	at := s.now().UTC()
	post := &model.Post{
		AuthorID:    viewer.ID,
		Content:     content,
		Image:       image,
		IsAnonymous: in.IsAnonymous,
		CreatedAt:   at,
		UpdatedAt:   at,
	}
	if err := s.repo.Create(ctx, post); err != nil {
		return nil, storeErr("create post", err, "post")
	}
	return post, nil
}

// Edit 只允许作者或管理员修改正文
func (s *PostService) Edit(ctx context.Context, viewer Viewer, postID uint64, content string) (*model.Post, error) {
	if viewer.Anonymous() {
		return nil, ErrUnauthenticated
	}
	if postID == 0 {
		return nil, validationf("post id required")
	}
	post, err := s.repo.FindByID(ctx, postID)
	if err != nil {
		return nil, storeErr("find post", err, "post")
	}
	if !viewer.CanModify(post.AuthorID) {
		return nil, ErrForbidden
	}
	content = strings.TrimSpace(content)
	if content == "" && post.Image == "" {
		return nil, validationf("post needs content or image")
	}
	at := s.now().UTC()
	affected, err := s.repo.UpdateContent(ctx, postID, content, at)
	if err != nil {
		return nil, storeErr("edit post", err, "post")
	}
	// 校验后被并发删除
	if affected == 0 {
		return nil, notFound("post")
	}
	post.Content = content
	post.UpdatedAt = at
	return post, nil
}

// Delete 级联删除帖子及其评论、点赞
func (s *PostService) Delete(ctx context.Context, viewer Viewer, postID uint64) (*model.Post, error) {
	if viewer.Anonymous() {
		return nil, ErrUnauthenticated
	}
	if postID == 0 {
		return nil, validationf("post id required")
	}
	post, err := s.repo.FindByID(ctx, postID)
	if err != nil {
		return nil, storeErr("find post", err, "post")
	}
	if !viewer.CanModify(post.AuthorID) {
		return nil, ErrForbidden
	}
	if err := s.repo.DeleteCascade(ctx, postID); err != nil {
		return nil, storeErr("delete post", err, "post")
	}
	return post, nil
}
