package mysql

import (
	"context"
	"time"

	"Social_Feed/internal/model"

	"gorm.io/gorm"
)

type PostRepository struct {
	DB *gorm.DB
}

// PostFilter 帖子列表过滤条件；零值表示全部帖子、按时间倒序
type PostFilter struct {
	AuthorID uint64
	Before   time.Time // 非零时走游标：排在 (Before, BeforeID) 之后的帖子
	BeforeID uint64    // 为 0 时只比较 created_at
	Oldest   bool
}

func (r *PostRepository) Create(ctx context.Context, post *model.Post) error {
	return r.DB.WithContext(ctx).Create(post).Error
}

func (r *PostRepository) FindByID(ctx context.Context, id uint64) (*model.Post, error) {
	var post model.Post
	err := r.DB.WithContext(ctx).First(&post, "id = ?", id).Error
	return &post, err
}

// List 基础分页查询；游标模式下固定按时间倒序
func (r *PostRepository) List(ctx context.Context, f PostFilter, offset, limit int) ([]model.Post, error) {
	var list []model.Post
	q := r.DB.WithContext(ctx).Model(&model.Post{})
	if f.AuthorID != 0 {
		q = q.Where("author_id = ?", f.AuthorID)
	}
	switch {
	case !f.Before.IsZero() && f.BeforeID != 0:
		// (created_at, id) 组合游标，同一时刻的帖子不会被跳过
		q = q.Where("created_at < ? OR (created_at = ? AND id < ?)", f.Before, f.Before, f.BeforeID)
	case !f.Before.IsZero():
		q = q.Where("created_at < ?", f.Before)
	}
	if f.Oldest && f.Before.IsZero() {
		q = q.Order("created_at ASC, id ASC")
	} else {
		q = q.Order("created_at DESC, id DESC")
	}
	if offset > 0 {
		q = q.Offset(offset)
	}
	err := q.Limit(limit).Find(&list).Error
	return list, err
}

// UpdateContent 返回受影响行数，0 表示帖子已不存在
func (r *PostRepository) UpdateContent(ctx context.Context, id uint64, content string, at time.Time) (int64, error) {
	tx := r.DB.WithContext(ctx).Model(&model.Post{}).
		Where("id = ?", id).
		UpdateColumns(map[string]any{"content": content, "updated_at": at})
	return tx.RowsAffected, tx.Error
}

// DeleteCascade 级联删除：评论点赞 -> 评论 -> 帖子点赞 -> 帖子，同一事务内按顺序执行
func (r *PostRepository) DeleteCascade(ctx context.Context, id uint64) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		commentIDs := tx.Model(&model.Comment{}).Select("id").Where("post_id = ?", id)
		if err := tx.Where("comment_id IN (?)", commentIDs).Delete(&model.CommentLike{}).Error; err != nil {
			return err
		}
		if err := tx.Where("post_id = ?", id).Delete(&model.Comment{}).Error; err != nil {
			return err
		}
		if err := tx.Where("post_id = ?", id).Delete(&model.PostLike{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&model.Post{}, "id = ?", id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}
