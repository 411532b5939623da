package service

import (
	"context"
	"testing"

	"Social_Feed/internal/model"
	"Social_Feed/internal/repository/mysql"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCountReconcilerFixesDrift(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	drifted := e.post(t, alice, "drifted")
	clean := e.post(t, bob, "clean")
	e.comment(t, bob, drifted.ID, nil, "c1")
	e.comment(t, carol, drifted.ID, nil, "c2")
	_, err := e.feed.TogglePostLike(ctx, carol, drifted.ID)
	require.NoError(t, err)
	_, err = e.feed.TogglePostLike(ctx, alice, clean.ID)
	require.NoError(t, err)

	require.NoError(t, e.db.Model(&model.Post{}).Where("id = ?", drifted.ID).
		UpdateColumns(map[string]any{"like_count": 7, "comment_count": 0}).Error)

	r := NewCountReconciler(&mysql.CountReconcilerRepo{DB: e.db}, 0, nil)
	assert.Equal(t, 1, r.ReconcileOnce(ctx))

	p := e.storedPost(t, drifted.ID)
	assert.Equal(t, int64(1), p.LikeCount)
	assert.Equal(t, int64(2), p.CommentCount)
	assert.Equal(t, int64(1), e.storedPost(t, clean.ID).LikeCount)

	assert.Zero(t, r.ReconcileOnce(ctx))
}
