package service

import (
	"time"

	"Social_Feed/internal/model"
	"Social_Feed/internal/pkg"
)

// Viewer is the authenticated identity supplied by the caller. The zero value is
// an anonymous viewer.
type Viewer struct {
	ID   uint64
	Role int
}

func (v Viewer) Anonymous() bool { return v.ID == 0 }

func (v Viewer) IsAdmin() bool { return v.ID != 0 && v.Role >= pkg.RoleAdmin }

// CanModify 作者本人或管理员
func (v Viewer) CanModify(authorID uint64) bool {
	return !v.Anonymous() && (v.ID == authorID || v.IsAdmin())
}

type AuthorView struct {
	ID          uint64 `json:"_id"`
	Username    string `json:"username"`
	DisplayName string `json:"displayName"`
	Avatar      string `json:"avatar"`
}

var anonymousAuthor = AuthorView{Username: "anonymous", DisplayName: "Anonymous"}

// CommentView is an enriched comment. The like-set itself is never exposed.
type CommentView struct {
	ID          uint64     `json:"_id"`
	PostID      uint64     `json:"postId"`
	ParentID    *uint64    `json:"parentId"`
	Content     string     `json:"content"`
	Image       string     `json:"image"`
	IsAnonymous bool       `json:"isAnonymous"`
	Author      AuthorView `json:"author"`
	Likes       int64      `json:"likes"`
	Liked       bool       `json:"liked"`
	ReplyCount  int64      `json:"replyCount"`
	CreatedAt   time.Time  `json:"created_at"`
}

type PostView struct {
	ID           uint64        `json:"_id"`
	Content      string        `json:"content"`
	Image        string        `json:"image"`
	IsAnonymous  bool          `json:"isAnonymous"`
	Author       AuthorView    `json:"author"`
	Likes        int64         `json:"likes"`
	Liked        bool          `json:"liked"`
	Comments     []CommentView `json:"comments"`
	CommentCount int64         `json:"commentCount"`
	CreatedAt    time.Time     `json:"created_at"`
	UpdatedAt    time.Time     `json:"updated_at"`
}

// FeedPage 一页帖子；HasMore 为 true 时 NextCursor 可作为下一页的 before 参数
type FeedPage struct {
	Posts      []PostView `json:"posts"`
	HasMore    bool       `json:"hasMore"`
	NextCursor string     `json:"nextCursor,omitempty"`
}

type LikeResult struct {
	Likes int64 `json:"likes"`
	Liked bool  `json:"liked"`
}

func authorView(u model.User, ok bool, authorID uint64) AuthorView {
	if !ok {
		return AuthorView{ID: authorID, Username: "deleted"}
	}
	return AuthorView{ID: u.ID, Username: u.Username, DisplayName: u.DisplayName, Avatar: u.Avatar}
}

// displayAuthor 匿名内容只对作者本人和管理员展示真实作者
func displayAuthor(v Viewer, anonymous bool, authorID uint64, real AuthorView) AuthorView {
	if anonymous && !v.CanModify(authorID) {
		return anonymousAuthor
	}
	return real
}

func commentView(v Viewer, c model.Comment, authors map[uint64]model.User, liked map[uint64]bool) CommentView {
	u, ok := authors[c.AuthorID]
	return CommentView{
		ID:          c.ID,
		PostID:      c.PostID,
		ParentID:    c.ParentID,
		Content:     c.Content,
		Image:       c.Image,
		IsAnonymous: c.IsAnonymous,
		Author:      displayAuthor(v, c.IsAnonymous, c.AuthorID, authorView(u, ok, c.AuthorID)),
		Likes:       c.LikeCount,
		Liked:       liked[c.ID],
		ReplyCount:  c.ReplyCount,
		CreatedAt:   c.CreatedAt,
	}
}
