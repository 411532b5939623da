package handler

import (
	"net/http"

	"Social_Feed/internal/middleware"
	"Social_Feed/internal/service"

	"github.com/gin-gonic/gin"
)

type CommentHandler struct {
	svc *service.FeedService
}

type CreateCommentReq struct {
	PostID      uint64  `json:"postId" binding:"required"`
	ParentID    *uint64 `json:"parentId"`
	Content     string  `json:"content"`
	Image       string  `json:"image" binding:"max=512"`
	IsAnonymous bool    `json:"isAnonymous"`
}

func NewCommentHandler(svc *service.FeedService) *CommentHandler {
	return &CommentHandler{svc: svc}
}

func (h *CommentHandler) Create(c *gin.Context) {
	var req CreateCommentReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid params")
		return
	}
	view, err := h.svc.CreateComment(c.Request.Context(), middleware.ViewerFrom(c), service.CreateCommentInput{
		PostID:      req.PostID,
		ParentID:    req.ParentID,
		Content:     req.Content,
		Image:       req.Image,
		IsAnonymous: req.IsAnonymous,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// Delete 删除评论及其全部回复
func (h *CommentHandler) Delete(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	if err := h.svc.DeleteComment(c.Request.Context(), middleware.ViewerFrom(c), id); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// List 帖子的全部顶层评论，sort: oldest/newest/popular
func (h *CommentHandler) List(c *gin.Context) {
	postID, ok := paramID(c, "postId")
	if !ok {
		return
	}
	list, err := h.svc.ListComments(c.Request.Context(), middleware.ViewerFrom(c), postID, c.Query("sort"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"comments": list})
}

func (h *CommentHandler) Replies(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	list, err := h.svc.ListReplies(c.Request.Context(), middleware.ViewerFrom(c), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"replies": list})
}
