package service

import (
	"context"
	"log/slog"
	"time"

	"Social_Feed/internal/repository/mysql"
)

type counterStore interface {
	ReconcileList(ctx context.Context, batchSize int, lastID uint64) ([]mysql.CounterRow, uint64, error)
	RealLikes(ctx context.Context, postID uint64) (int64, error)
	RealComments(ctx context.Context, postID uint64) (int64, error)
	FixLikes(ctx context.Context, postID uint64, seen, actual int64) error
	FixComments(ctx context.Context, postID uint64, seen, actual int64) error
}

// CountReconciler 帖子计数对账：like_count 对齐点赞集合，comment_count 对齐评论行数
type CountReconciler struct {
	store     counterStore
	batchSize int
	interval  time.Duration
	logger    *slog.Logger
}

func NewCountReconciler(store counterStore, interval time.Duration, logger *slog.Logger) *CountReconciler {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &CountReconciler{
		store:     store,
		batchSize: 500,
		interval:  interval,
		logger:    logger,
	}
}

// Run 对账定时任务启动器
func (r *CountReconciler) Run(ctx context.Context) {
	t := time.NewTicker(r.interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			r.ReconcileOnce(ctx)
		}
	}
}

// ReconcileOnce 扫描全部帖子一遍，返回被修正的帖子数
func (r *CountReconciler) ReconcileOnce(ctx context.Context) int {
	fixed := 0
	var lastID uint64
	for {
		rows, next, err := r.store.ReconcileList(ctx, r.batchSize, lastID)
		if err != nil {
			r.logger.Error("reconcile list", "last_id", lastID, "err", err)
			return fixed
		}
		if len(rows) == 0 {
			return fixed
		}
		for _, row := range rows {
			if r.reconcilePost(ctx, row) {
				fixed++
			}
		}
		lastID = next
	}
}

func (r *CountReconciler) reconcilePost(ctx context.Context, row mysql.CounterRow) bool {
	changed := false
	// 先查真实值，再和帖子表比对更新
	if actual, err := r.store.RealLikes(ctx, row.ID); err != nil {
		r.logger.Warn("reconcile likes", "post_id", row.ID, "err", err)
	} else if actual != row.LikeCount {
		if err := r.store.FixLikes(ctx, row.ID, row.LikeCount, actual); err != nil {
			r.logger.Warn("fix like count", "post_id", row.ID, "err", err)
		} else {
			changed = true
		}
	}
	if actual, err := r.store.RealComments(ctx, row.ID); err != nil {
		r.logger.Warn("reconcile comments", "post_id", row.ID, "err", err)
	} else if actual != row.CommentCount {
		if err := r.store.FixComments(ctx, row.ID, row.CommentCount, actual); err != nil {
			r.logger.Warn("fix comment count", "post_id", row.ID, "err", err)
		} else {
			changed = true
		}
	}
	return changed
}
