package service

import (
	"context"
	"fmt"

	"Social_Feed/internal/pkg"
	"Social_Feed/internal/repository/mysql"
)

type likeStore interface {
	AddIfAbsent(ctx context.Context, t mysql.LikeTarget, id, userID uint64) (int64, bool, error)
	RemoveIfPresent(ctx context.Context, t mysql.LikeTarget, id, userID uint64) (int64, bool, error)
	Exists(ctx context.Context, t mysql.LikeTarget, id uint64) (bool, error)
}

// LikeToggler flips a viewer's membership in a post or comment like-set.
//
// It never reads-then-writes: it first tries the conditional "add if absent"
// write, and only if that precondition fails tries the inverse "remove if present"
// write. Two concurrent toggles therefore can never both add (or both remove) the
// same viewer, and the counter moves together with the membership row.
type LikeToggler struct {
	store likeStore
}

func NewLikeToggler(store likeStore) *LikeToggler {
	return &LikeToggler{store: store}
}

func (t *LikeToggler) Toggle(ctx context.Context, target mysql.LikeTarget, id, viewerID uint64) (LikeResult, error) {
	if viewerID == 0 {
		return LikeResult{}, ErrUnauthenticated
	}
	if id == 0 {
		return LikeResult{}, validationf("%s id required", target)
	}

	// 第一步：不在集合中则加入并 +1
	count, applied, err := t.store.AddIfAbsent(ctx, target, id, viewerID)
	if err != nil {
		return LikeResult{}, storeErr("like", err, target.String())
	}
	if applied {
		pkg.LikeToggles.WithLabelValues(target.String(), "liked").Inc()
		return LikeResult{Likes: count, Liked: true}, nil
	}

	// 第二步：已在集合中则移除并 -1（不低于 0），只尝试一次
	count, applied, err = t.store.RemoveIfPresent(ctx, target, id, viewerID)
	if err != nil {
		return LikeResult{}, storeErr("unlike", err, target.String())
	}
	if applied {
		pkg.LikeToggles.WithLabelValues(target.String(), "unliked").Inc()
		return LikeResult{Likes: count, Liked: false}, nil
	}

	// 两个条件都不满足：目标已被删除时按约定返回 NotFound。
	// 目标仍存在说明另一个并发请求在两步之间改了该用户的点赞状态；
	// 这里不循环重试，也不把存在的对象报成 NotFound，返回 Conflict 由调用方重发
	exists, err := t.store.Exists(ctx, target, id)
	if err != nil {
		return LikeResult{}, storeErr("like lookup", err, target.String())
	}
	if !exists {
		return LikeResult{}, notFound(target.String())
	}
	return LikeResult{}, fmt.Errorf("%w: concurrent like change on %s %d", ErrConflict, target, id)
}
