package models

import "time"

// NewsCategoryID is the sentinel category for the news subscription. Using a
// real value instead of NULL keeps the (user_id, category_id) unique index
// effective for news rows too, so concurrent toggles cannot create duplicates.
const NewsCategoryID uint = 0

// Subscription links a user to a category feed or to the news feed.
type Subscription struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	UserID     uint      `gorm:"uniqueIndex:idx_user_category;not null" json:"user_id"`
	CategoryID uint      `gorm:"uniqueIndex:idx_user_category;not null;default:0" json:"category_id"`
	CreatedAt  time.Time `json:"created_at"`
	User       User      `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
}

// IsNews reports whether this row is the news pseudo-subscription.
func (s *Subscription) IsNews() bool { return s.CategoryID == NewsCategoryID }
