package model

import "time"

// User is the identity referenced by posts and comments. Accounts are owned by the
// login service; the feed only reads the public profile columns.
type User struct {
	ID          uint64 `gorm:"primaryKey"`
	Username    string `gorm:"uniqueIndex;size:32;not null"`
	DisplayName string `gorm:"size:64;not null;default:''"`
	Avatar      string `gorm:"size:512;not null;default:''"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
