package model

import "time"

const (
	OutboxPending int8 = 0
	OutboxSent    int8 = 1
	OutboxFailed  int8 = 2
)

// FeedOutbox 写操作事件表，由 OutboxRelayer 异步投递
type FeedOutbox struct {
	ID        uint64 `gorm:"primaryKey"`
	EventID   string `gorm:"size:36;uniqueIndex;not null"`
	EventType string `gorm:"size:32;not null"` // post.created / comment.deleted ...
	SubjectID uint64 `gorm:"not null"`
	ActorID   uint64 `gorm:"not null"`
	Payload   string `gorm:"type:text;not null"`
	Status    int8   `gorm:"not null;default:0;index:idx_outbox_status,priority:1;comment:'0=pending,1=sent,2=failed'"`
	Retry     int    `gorm:"not null;default:0"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (FeedOutbox) TableName() string { return "feed_outbox" }
