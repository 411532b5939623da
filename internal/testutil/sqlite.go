// Package testutil provides an in-memory store migrated like production.
package testutil

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"Social_Feed/internal/model"
	"Social_Feed/internal/repository/mysql"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var dbSeq atomic.Int64

// OpenDB returns a fresh in-memory database private to the test. A single
// connection serializes transactions so concurrent tests see no lock errors.
func OpenDB(t testing.TB) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:feedtest%d?mode=memory&cache=shared&_busy_timeout=5000", dbSeq.Add(1))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:  logger.Default.LogMode(logger.Silent),
		NowFunc: func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sqlite handle: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := mysql.AutoMigrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

// Seed inserts users with ids 1..n named user1..userN.
func Seed(t testing.TB, db *gorm.DB, n int) []model.User {
	t.Helper()
	users := make([]model.User, 0, n)
	for i := 1; i <= n; i++ {
		u := model.User{
			ID:          uint64(i),
			Username:    fmt.Sprintf("user%d", i),
			DisplayName: fmt.Sprintf("User %d", i),
			Avatar:      fmt.Sprintf("/avatars/%d.png", i),
		}
		if err := db.Create(&u).Error; err != nil {
			t.Fatalf("seed user: %v", err)
		}
		users = append(users, u)
	}
	return users
}

// Clock is a manually advanced time source.
type Clock struct {
	now atomic.Int64
}

func NewClock(start time.Time) *Clock {
	c := &Clock{}
	c.now.Store(start.UTC().UnixNano())
	return c
}

func (c *Clock) Now() time.Time { return time.Unix(0, c.now.Load()).UTC() }

func (c *Clock) Advance(d time.Duration) { c.now.Add(int64(d)) }
