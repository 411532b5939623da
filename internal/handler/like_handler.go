package handler

import (
	"context"
	"net/http"

	"Social_Feed/internal/middleware"
	"Social_Feed/internal/service"

	"github.com/gin-gonic/gin"
)

type LikeHandler struct {
	svc *service.FeedService
}

func NewLikeHandler(svc *service.FeedService) *LikeHandler {
	return &LikeHandler{svc: svc}
}

func (h *LikeHandler) TogglePost(c *gin.Context) {
	h.toggle(c, h.svc.TogglePostLike)
}

func (h *LikeHandler) ToggleComment(c *gin.Context) {
	h.toggle(c, h.svc.ToggleCommentLike)
}

func (h *LikeHandler) toggle(c *gin.Context, fn func(context.Context, service.Viewer, uint64) (service.LikeResult, error)) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	res, err := fn(c.Request.Context(), middleware.ViewerFrom(c), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}
