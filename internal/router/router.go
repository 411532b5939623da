package router

import (
	"log/slog"
	"net/http"

	"Social_Feed/internal/handler"
	"Social_Feed/internal/middleware"
	"Social_Feed/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func InitRouter(feed *service.FeedService, auth *middleware.Auth, logger *slog.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestLogger(logger))

	feeds := handler.NewFeedHandler(feed)
	post := handler.NewPostHandler(feed)
	like := handler.NewLikeHandler(feed)
	comment := handler.NewCommentHandler(feed)

	r.GET("/healthz", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// 读接口：可匿名访问
	read := r.Group("/")
	read.Use(auth.Optional())
	{
		read.GET("/", feeds.Feed)
		read.GET("/api/posts", feeds.Feed)
		read.GET("/api/users/:id/posts", feeds.UserPosts)
		read.GET("/comments/:postId", comment.List)
		read.GET("/comment/:id/replies", comment.Replies)
	}

	// 帖子相关接口
	postGroup := r.Group("/post")
	postGroup.Use(auth.Required())
	{
		postGroup.POST("/create", post.CreatePost)
		postGroup.POST("/:id/edit", post.EditPost)
		postGroup.POST("/:id/delete", post.DeletePost)
		postGroup.POST("/:id/like", like.TogglePost)
	}

	// 评论相关接口
	commentGroup := r.Group("/comment")
	commentGroup.Use(auth.Required())
	{
		commentGroup.POST("/create", comment.Create)
		commentGroup.POST("/:id/like", like.ToggleComment)
		commentGroup.POST("/:id/delete", comment.Delete)
	}

	return r
}
