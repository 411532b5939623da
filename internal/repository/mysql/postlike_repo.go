package mysql

import (
	"context"
	"time"

	"Social_Feed/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// LikeTarget 点赞对象：帖子或评论
type LikeTarget int

const (
	TargetPost LikeTarget = iota
	TargetComment
)

func (t LikeTarget) String() string {
	if t == TargetComment {
		return "comment"
	}
	return "post"
}

func (t LikeTarget) likeRow(userID, id uint64, at time.Time) any {
	if t == TargetComment {
		return &model.CommentLike{UserID: userID, CommentID: id, CreatedAt: at}
	}
	return &model.PostLike{UserID: userID, PostID: id, CreatedAt: at}
}

func (t LikeTarget) likeModel() any {
	if t == TargetComment {
		return &model.CommentLike{}
	}
	return &model.PostLike{}
}

func (t LikeTarget) counterModel() any {
	if t == TargetComment {
		return &model.Comment{}
	}
	return &model.Post{}
}

func (t LikeTarget) fkColumn() string {
	if t == TargetComment {
		return "comment_id"
	}
	return "post_id"
}

type LikeRepository struct {
	DB *gorm.DB
}

// AddIfAbsent 条件更新：仅当用户不在点赞集合中时插入并计数+1。
// applied=false 表示用户已在集合中，没有任何写入。
// 目标不存在时返回 gorm.ErrRecordNotFound（插入的点赞行随事务回滚）。
func (r *LikeRepository) AddIfAbsent(ctx context.Context, t LikeTarget, id, userID uint64) (count int64, applied bool, err error) {
	err = r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// 唯一索引 (target_id, user_id) 保证成员唯一
		ins := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(t.likeRow(userID, id, time.Now().UTC()))
		if ins.Error != nil {
			return ins.Error
		}
		if ins.RowsAffected == 0 {
			return nil
		}
		upd := tx.Model(t.counterModel()).
			Where("id = ?", id).
			UpdateColumn("like_count", gorm.Expr("like_count + 1"))
		if upd.Error != nil {
			return upd.Error
		}
		if upd.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		applied = true
		return readCount(tx, t, id, &count)
	})
	return count, applied, err
}

// RemoveIfPresent 条件更新：仅当用户在点赞集合中时删除并计数-1（不低于 0）
func (r *LikeRepository) RemoveIfPresent(ctx context.Context, t LikeTarget, id, userID uint64) (count int64, applied bool, err error) {
	err = r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		del := tx.Where(t.fkColumn()+" = ? AND user_id = ?", id, userID).Delete(t.likeModel())
		if del.Error != nil {
			return del.Error
		}
		if del.RowsAffected == 0 {
			return nil
		}
		// 计数已为 0 时值不变，MySQL 默认报告 0 行受影响；删掉的点赞行已证明对象存在，不再检查受影响行数
		if err := tx.Model(t.counterModel()).
			Where("id = ?", id).
			UpdateColumn("like_count", gorm.Expr("CASE WHEN like_count > 0 THEN like_count - 1 ELSE 0 END")).Error; err != nil {
			return err
		}
		applied = true
		return readCount(tx, t, id, &count)
	})
	return count, applied, err
}

// Exists 点赞对象是否存在
func (r *LikeRepository) Exists(ctx context.Context, t LikeTarget, id uint64) (bool, error) {
	var n int64
	err := r.DB.WithContext(ctx).Model(t.counterModel()).Where("id = ?", id).Count(&n).Error
	return n > 0, err
}

// LikedAmong 批量判断用户点赞了 ids 中的哪些对象
func (r *LikeRepository) LikedAmong(ctx context.Context, t LikeTarget, userID uint64, ids []uint64) (map[uint64]bool, error) {
	out := make(map[uint64]bool, len(ids))
	if userID == 0 || len(ids) == 0 {
		return out, nil
	}
	var liked []uint64
	if err := r.DB.WithContext(ctx).Model(t.likeModel()).
		Where("user_id = ? AND "+t.fkColumn()+" IN ?", userID, ids).
		Pluck(t.fkColumn(), &liked).Error; err != nil {
		return nil, err
	}
	for _, id := range liked {
		out[id] = true
	}
	return out, nil
}

func readCount(tx *gorm.DB, t LikeTarget, id uint64, count *int64) error {
	return tx.Model(t.counterModel()).Select("like_count").Where("id = ?", id).Scan(count).Error
}
