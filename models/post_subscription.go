package models

import "time"

// PostSubscription links a user to a single post they want to follow.
// The composite unique index makes the toggle race-safe, same as Subscription.
type PostSubscription struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"uniqueIndex:idx_user_post;not null" json:"user_id"`
	PostID    uint      `gorm:"uniqueIndex:idx_user_post;not null" json:"post_id"`
	CreatedAt time.Time `json:"created_at"`
	User      User      `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	Post      Post      `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
}
