package models

import "time"

// UserActionLog is an append-only audit trail entry. UserID is nullable so
// rows survive user deletion.
type UserActionLog struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    *uint     `gorm:"index" json:"user_id"`
	Action    string    `gorm:"size:255;not null" json:"action"`
	IP        string    `gorm:"size:45" json:"ip"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`
}
