package mysql

import (
	"context"

	"Social_Feed/internal/model"

	"gorm.io/gorm"
)

type CountReconcilerRepo struct {
	DB *gorm.DB
}

// CounterRow 帖子上的冗余计数
type CounterRow struct {
	ID           uint64
	LikeCount    int64
	CommentCount int64
}

// ReconcileList 按 id 递增分批扫描帖子，返回本批最后一个 id 作为下次起点
func (r *CountReconcilerRepo) ReconcileList(ctx context.Context, batchSize int, lastID uint64) ([]CounterRow, uint64, error) {
	var list []CounterRow
	if err := r.DB.WithContext(ctx).Model(&model.Post{}).
		Select("id", "like_count", "comment_count").
		Where("id > ?", lastID).
		Order("id ASC").
		Limit(batchSize).
		Find(&list).Error; err != nil {
		return nil, lastID, err
	}
	if len(list) == 0 {
		return nil, lastID, nil
	}
	return list, list[len(list)-1].ID, nil
}

// RealLikes 点赞集合的真实大小
func (r *CountReconcilerRepo) RealLikes(ctx context.Context, postID uint64) (int64, error) {
	var n int64
	err := r.DB.WithContext(ctx).Model(&model.PostLike{}).Where("post_id = ?", postID).Count(&n).Error
	return n, err
}

// RealComments 帖子下所有层级评论的真实数量
func (r *CountReconcilerRepo) RealComments(ctx context.Context, postID uint64) (int64, error) {
	var n int64
	err := r.DB.WithContext(ctx).Model(&model.Comment{}).Where("post_id = ?", postID).Count(&n).Error
	return n, err
}

// FixLikes 只在计数仍等于扫描时的旧值时修正，避免覆盖并发点赞
func (r *CountReconcilerRepo) FixLikes(ctx context.Context, postID uint64, seen, actual int64) error {
	return r.DB.WithContext(ctx).Model(&model.Post{}).
		Where("id = ? AND like_count = ?", postID, seen).
		UpdateColumn("like_count", actual).Error
}

// FixComments 同 FixLikes，针对 comment_count
func (r *CountReconcilerRepo) FixComments(ctx context.Context, postID uint64, seen, actual int64) error {
	return r.DB.WithContext(ctx).Model(&model.Post{}).
		Where("id = ? AND comment_count = ?", postID, seen).
		UpdateColumn("comment_count", actual).Error
}
