package models

import "time"

// Post is a user-authored item under an archetype category, accepting responses.
type Post struct {
	ID        uint       `gorm:"primaryKey" json:"id"`
	UserID    uint       `gorm:"index;not null" json:"user_id"`
	Category  string     `gorm:"size:20;index;not null" json:"category"`
	Title     string     `gorm:"size:255;not null" json:"title"`
	Content   string     `gorm:"type:text;not null" json:"content"`
	ImageURL  string     `gorm:"size:512" json:"image_url"`
	VideoURL  string     `gorm:"size:512" json:"video_url"`
	// No column default: an explicit false must survive the INSERT.
	Notify    bool       `json:"notify"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
	User      User       `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"author"`
	Responses []Response `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"responses,omitempty"`
}
