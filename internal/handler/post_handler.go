package handler

import (
	"net/http"

	"Social_Feed/internal/middleware"
	"Social_Feed/internal/service"

	"github.com/gin-gonic/gin"
)

type PostHandler struct {
	svc *service.FeedService
}

type CreatePostReq struct {
	Content     string `json:"content"`
	Image       string `json:"image" binding:"max=512"`
	IsAnonymous bool   `json:"isAnonymous"`
}

type EditPostReq struct {
	Content string `json:"content"`
}

func NewPostHandler(svc *service.FeedService) *PostHandler {
	return &PostHandler{svc: svc}
}

// CreatePost 创建帖子接口
func (h *PostHandler) CreatePost(c *gin.Context) {
	var req CreatePostReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid params")
		return
	}
	post, err := h.svc.CreatePost(c.Request.Context(), middleware.ViewerFrom(c), service.CreatePostInput{
		Content:     req.Content,
		Image:       req.Image,
		IsAnonymous: req.IsAnonymous,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "_id": post.ID})
}

func (h *PostHandler) EditPost(c *gin.Context) {
	postID, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req EditPostReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid params")
		return
	}
	if _, err := h.svc.EditPost(c.Request.Context(), middleware.ViewerFrom(c), postID, req.Content); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// DeletePost 删除帖子接口，级联删除评论
func (h *PostHandler) DeletePost(c *gin.Context) {
	postID, ok := paramID(c, "id")
	if !ok {
		return
	}
	if err := h.svc.DeletePost(c.Request.Context(), middleware.ViewerFrom(c), postID); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}
