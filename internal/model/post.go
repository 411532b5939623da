package model

import "time"

type Post struct {
	ID           uint64    `gorm:"primaryKey"`
	AuthorID     uint64    `gorm:"not null;index:idx_author_time,priority:1"`
	Content      string    `gorm:"type:text"`
	Image        string    `gorm:"size:512;not null;default:''"`
	IsAnonymous  bool      `gorm:"not null;default:false"`
	LikeCount    int64     `gorm:"not null;default:0"`
	CommentCount int64     `gorm:"not null;default:0"`
	CreatedAt    time.Time `gorm:"index:idx_post_time;index:idx_author_time,priority:2"`
	UpdatedAt    time.Time
}
