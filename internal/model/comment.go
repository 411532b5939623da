package model

import "time"

// Comment belongs to one post. ParentID is nil for top-level comments; replies point
// at another comment of the same post and may nest to any depth.
type Comment struct {
	ID          uint64    `gorm:"primaryKey"`
	PostID      uint64    `gorm:"not null;index:idx_comment_post_time,priority:1"`
	AuthorID    uint64    `gorm:"not null;index"`
	ParentID    *uint64   `gorm:"index"`
	Content     string    `gorm:"type:text"`
	Image       string    `gorm:"size:512;not null;default:''"`
	IsAnonymous bool      `gorm:"not null;default:false"`
	LikeCount   int64     `gorm:"not null;default:0"`
	ReplyCount  int64     `gorm:"not null;default:0"`
	CreatedAt   time.Time `gorm:"index:idx_comment_post_time,priority:2"`
}
