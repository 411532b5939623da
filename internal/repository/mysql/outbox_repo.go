package mysql

import (
	"context"

	"Social_Feed/internal/model"

	"gorm.io/gorm"
)

type OutboxRepository struct {
	DB *gorm.DB
}

func (r *OutboxRepository) Insert(ctx context.Context, ob *model.FeedOutbox) error {
	return r.DB.WithContext(ctx).Create(ob).Error
}

// List 取待投递事件：pending 以及重试次数未超限的 failed
func (r *OutboxRepository) List(ctx context.Context, batchSize, maxRetry int) ([]model.FeedOutbox, error) {
	var list []model.FeedOutbox
	if err := r.DB.WithContext(ctx).
		Where("status = ? OR (status = ? AND retry < ?)", model.OutboxPending, model.OutboxFailed, maxRetry).
		Order("id ASC").
		Limit(batchSize).
		Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

// RetryUpdate outbox记录消息失败重试
func (r *OutboxRepository) RetryUpdate(ctx context.Context, id uint64) error {
	return r.DB.WithContext(ctx).Model(&model.FeedOutbox{}).Where("id=?", id).
		Updates(map[string]any{"status": model.OutboxFailed, "retry": gorm.Expr("retry + 1")}).Error
}

// SuccessUpdate outbox成功记录消息更新
func (r *OutboxRepository) SuccessUpdate(ctx context.Context, id uint64) error {
	return r.DB.WithContext(ctx).Model(&model.FeedOutbox{}).Where("id=?", id).
		Update("status", model.OutboxSent).Error
}
