package handler

import (
	"net/http"
	"strconv"

	"Social_Feed/internal/middleware"
	"Social_Feed/internal/service"

	"github.com/gin-gonic/gin"
)

type FeedHandler struct {
	svc *service.FeedService
}

func NewFeedHandler(svc *service.FeedService) *FeedHandler {
	return &FeedHandler{svc: svc}
}

// Feed 首页与 /api/posts：page 页码分页或 before 游标分页
func (h *FeedHandler) Feed(c *gin.Context) {
	q, ok := feedQuery(c)
	if !ok {
		return
	}
	h.respond(c, q)
}

// UserPosts 某个用户的帖子，不走缓存
func (h *FeedHandler) UserPosts(c *gin.Context) {
	authorID, ok := paramID(c, "id")
	if !ok {
		return
	}
	q, ok := feedQuery(c)
	if !ok {
		return
	}
	q.AuthorID = authorID
	h.respond(c, q)
}

func (h *FeedHandler) respond(c *gin.Context, q service.FeedQuery) {
	page, err := h.svc.Feed(c.Request.Context(), q)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

func feedQuery(c *gin.Context) (service.FeedQuery, bool) {
	q := service.FeedQuery{Viewer: middleware.ViewerFrom(c)}
	if s := c.Query("page"); s != "" {
		page, err := strconv.Atoi(s)
		if err != nil || page < 1 {
			badRequest(c, "invalid page")
			return q, false
		}
		q.Page = page
	}
	if s := c.Query("before"); s != "" {
		before, id, err := service.ParseCursor(s)
		if err != nil {
			badRequest(c, "invalid before")
			return q, false
		}
		q.Before, q.BeforeID = before, id
	}
	q.Oldest = c.Query("sort") == "oldest"
	return q, true
}
