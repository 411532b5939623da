package mysql

import (
	"context"

	"Social_Feed/internal/model"

	"gorm.io/gorm"
)

type CommentRepository struct {
	DB *gorm.DB
}

// CommentOrder 顶层评论排序方式
type CommentOrder int

const (
	OrderOldest CommentOrder = iota
	OrderNewest
	OrderPopular
)

// PostCommentCount 每个帖子的评论总数（包含所有层级的回复）
type PostCommentCount struct {
	PostID uint64
	Total  int64
}

// Create 在同一事务内写评论、父评论 reply_count+1、帖子 comment_count+1。
// 帖子或父评论在事务中已不存在时返回 gorm.ErrRecordNotFound 并回滚。
func (r *CommentRepository) Create(ctx context.Context, c *model.Comment) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(c).Error; err != nil {
			return err
		}
		if c.ParentID != nil {
			res := tx.Model(&model.Comment{}).
				Where("id = ? AND post_id = ?", *c.ParentID, c.PostID).
				UpdateColumn("reply_count", gorm.Expr("reply_count + 1"))
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				return gorm.ErrRecordNotFound
			}
		}
		res := tx.Model(&model.Post{}).
			Where("id = ?", c.PostID).
			UpdateColumn("comment_count", gorm.Expr("comment_count + 1"))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}

func (r *CommentRepository) FindByID(ctx context.Context, id uint64) (*model.Comment, error) {
	var c model.Comment
	err := r.DB.WithContext(ctx).First(&c, "id = ?", id).Error
	return &c, err
}

// ListTopLevel 帖子下的全部顶层评论，不分页
func (r *CommentRepository) ListTopLevel(ctx context.Context, postID uint64, order CommentOrder) ([]model.Comment, error) {
	var list []model.Comment
	q := r.DB.WithContext(ctx).Where("post_id = ? AND parent_id IS NULL", postID)
	switch order {
	case OrderNewest:
		q = q.Order("created_at DESC, id DESC")
	case OrderPopular:
		// 点赞数相同则新的在前
		q = q.Order("like_count DESC, created_at DESC, id DESC")
	default:
		q = q.Order("created_at ASC, id ASC")
	}
	err := q.Find(&list).Error
	return list, err
}

// ListReplies 直接子评论，按时间正序
func (r *CommentRepository) ListReplies(ctx context.Context, parentID uint64) ([]model.Comment, error) {
	var list []model.Comment
	err := r.DB.WithContext(ctx).
		Where("parent_id = ?", parentID).
		Order("created_at ASC, id ASC").
		Find(&list).Error
	return list, err
}

// TopLevelForPosts 一次查询取出多个帖子各自最早的 perPost 条顶层评论。
// 在按帖子分组后截断，避免某个帖子占用其他帖子的名额。
func (r *CommentRepository) TopLevelForPosts(ctx context.Context, postIDs []uint64, perPost int) ([]model.Comment, error) {
	var list []model.Comment
	if len(postIDs) == 0 || perPost <= 0 {
		return list, nil
	}
	db := r.DB.WithContext(ctx)
	ranked := db.Model(&model.Comment{}).
		Select("comments.*, ROW_NUMBER() OVER (PARTITION BY post_id ORDER BY created_at ASC, id ASC) AS rn").
		Where("post_id IN ? AND parent_id IS NULL", postIDs)
	err := db.Table("(?) AS ranked", ranked).
		Where("rn <= ?", perPost).
		Order("post_id ASC, created_at ASC, id ASC").
		Find(&list).Error
	return list, err
}

// CountForPosts 一次聚合查询统计多个帖子的评论总数
func (r *CommentRepository) CountForPosts(ctx context.Context, postIDs []uint64) (map[uint64]int64, error) {
	out := make(map[uint64]int64, len(postIDs))
	if len(postIDs) == 0 {
		return out, nil
	}
	var rows []PostCommentCount
	if err := r.DB.WithContext(ctx).Model(&model.Comment{}).
		Select("post_id, COUNT(*) AS total").
		Where("post_id IN ?", postIDs).
		Group("post_id").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	for _, row := range rows {
		out[row.PostID] = row.Total
	}
	return out, nil
}

// ChildIDs 返回一批评论的直接子评论 id
func (r *CommentRepository) ChildIDs(ctx context.Context, parentIDs []uint64) ([]uint64, error) {
	var ids []uint64
	if len(parentIDs) == 0 {
		return ids, nil
	}
	err := r.DB.WithContext(ctx).Model(&model.Comment{}).
		Where("parent_id IN ?", parentIDs).
		Order("id ASC").
		Pluck("id", &ids).Error
	return ids, err
}

// DeleteByIDs 删除评论及其点赞记录；已不存在的 id 视为成功（幂等）
func (r *CommentRepository) DeleteByIDs(ctx context.Context, ids []uint64) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	var removed int64
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("comment_id IN ?", ids).Delete(&model.CommentLike{}).Error; err != nil {
			return err
		}
		res := tx.Where("id IN ?", ids).Delete(&model.Comment{})
		if res.Error != nil {
			return res.Error
		}
		removed = res.RowsAffected
		return nil
	})
	return removed, err
}

// DecrementReplyCount 父评论回复数 -1，不会减到负数；父评论已删除时无操作
func (r *CommentRepository) DecrementReplyCount(ctx context.Context, id uint64) error {
	return r.DB.WithContext(ctx).Model(&model.Comment{}).
		Where("id = ?", id).
		UpdateColumn("reply_count", gorm.Expr("CASE WHEN reply_count > 0 THEN reply_count - 1 ELSE 0 END")).
		Error
}

// SubtractPostComments 帖子评论数减 n，防负数
func (r *CommentRepository) SubtractPostComments(ctx context.Context, postID uint64, n int64) error {
	if n <= 0 {
		return nil
	}
	return r.DB.WithContext(ctx).Model(&model.Post{}).
		Where("id = ?", postID).
		UpdateColumn("comment_count", gorm.Expr("CASE WHEN comment_count > ? THEN comment_count - ? ELSE 0 END", n, n)).
		Error
}
