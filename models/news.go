package models

import "time"

// News is a staff-authored announcement with a monotonic view counter.
type News struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Title     string    `gorm:"size:255;not null" json:"title"`
	Content   string    `gorm:"type:text;not null" json:"content"`
	Views     uint      `gorm:"default:0" json:"views"`
	Notify    bool      `json:"notify"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
