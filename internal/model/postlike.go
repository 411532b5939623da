package model

import "time"

// PostLike is one member of a post's like-set. The unique index makes membership
// insertion a conditional write.
type PostLike struct {
	ID        uint64 `gorm:"primaryKey;autoIncrement"`
	UserID    uint64 `gorm:"not null;uniqueIndex:uk_post_like_user,priority:2"`
	PostID    uint64 `gorm:"not null;uniqueIndex:uk_post_like_user,priority:1"`
	CreatedAt time.Time
}

func (PostLike) TableName() string {
	return "post_likes"
}

type CommentLike struct {
	ID        uint64 `gorm:"primaryKey;autoIncrement"`
	UserID    uint64 `gorm:"not null;uniqueIndex:uk_comment_like_user,priority:2"`
	CommentID uint64 `gorm:"not null;uniqueIndex:uk_comment_like_user,priority:1"`
	CreatedAt time.Time
}

func (CommentLike) TableName() string {
	return "comment_likes"
}
