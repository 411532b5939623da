package service

import (
	"context"
	"testing"
	"time"

	"Social_Feed/internal/model"
	"Social_Feed/internal/repository/mysql"
	"Social_Feed/internal/testutil"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

var (
	alice = Viewer{ID: 1}
	bob   = Viewer{ID: 2}
	carol = Viewer{ID: 3}
	admin = Viewer{ID: 9, Role: 1}
)

type env struct {
	db       *gorm.DB
	clock    *testutil.Clock
	posts    *mysql.PostRepository
	comments *mysql.CommentRepository
	likes    *mysql.LikeRepository
	users    *mysql.UserRepository
	outbox   *mysql.OutboxRepository
	cache    *FeedCache
	feed     *FeedService
	tree     *CommentTree
	agg      *PostAggregator
}

func newEnv(t *testing.T) *env {
	t.Helper()
	db := testutil.OpenDB(t)
	testutil.Seed(t, db, 9)
	e := &env{
		db:       db,
		clock:    testutil.NewClock(time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)),
		posts:    &mysql.PostRepository{DB: db},
		comments: &mysql.CommentRepository{DB: db},
		likes:    &mysql.LikeRepository{DB: db},
		users:    &mysql.UserRepository{DB: db},
		outbox:   &mysql.OutboxRepository{DB: db},
	}
	e.cache = NewFeedCache(DefaultFeedCacheTTL, e.clock.Now)
	e.agg = NewPostAggregator(e.posts, e.comments, e.users, e.likes, DefaultPageSize)
	e.tree = NewCommentTree(e.comments, e.posts, e.users, e.likes, e.clock.Now, nil)
	e.feed = NewFeedService(FeedServiceDeps{
		Posts:      NewPostService(e.posts, e.clock.Now),
		Aggregator: e.agg,
		Cache:      e.cache,
		Likes:      NewLikeToggler(e.likes),
		Comments:   e.tree,
		Events:     NewEventRecorder(e.outbox, nil),
	})
	return e
}

// post creates a post one minute after the previous write.
func (e *env) post(t *testing.T, v Viewer, content string) *model.Post {
	t.Helper()
	e.clock.Advance(time.Minute)
	p, err := e.feed.CreatePost(context.Background(), v, CreatePostInput{Content: content})
	require.NoError(t, err)
	return p
}

func (e *env) comment(t *testing.T, v Viewer, postID uint64, parent *uint64, content string) *CommentView {
	t.Helper()
	e.clock.Advance(time.Minute)
	c, err := e.feed.CreateComment(context.Background(), v, CreateCommentInput{PostID: postID, ParentID: parent, Content: content})
	require.NoError(t, err)
	return c
}

func (e *env) storedComment(t *testing.T, id uint64) model.Comment {
	t.Helper()
	var c model.Comment
	require.NoError(t, e.db.First(&c, id).Error)
	return c
}

func (e *env) storedPost(t *testing.T, id uint64) model.Post {
	t.Helper()
	var p model.Post
	require.NoError(t, e.db.First(&p, id).Error)
	return p
}

func (e *env) countComments(t *testing.T) int64 {
	t.Helper()
	var n int64
	require.NoError(t, e.db.Model(&model.Comment{}).Count(&n).Error)
	return n
}
