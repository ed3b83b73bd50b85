package models

import (
	"time"

	"gorm.io/gorm"
)

// User represents a portal member. Passwords are stored as bcrypt hashes only.
// Accounts start inactive and are activated through email verification.
type User struct {
	ID           uint           `gorm:"primaryKey" json:"id"`
	Email        string         `gorm:"size:255;uniqueIndex;not null" json:"email"`
	PasswordHash string         `gorm:"size:255" json:"-"`
	FirstName    string         `gorm:"size:150" json:"first_name"`
	LastName     string         `gorm:"size:150" json:"last_name"`
	IsActive     bool           `gorm:"default:false" json:"is_active"`
	IsStaff      bool           `gorm:"default:false" json:"is_staff"`
	Timezone     string         `gorm:"size:50;default:'UTC'" json:"timezone"`
	Language     string         `gorm:"size:10;default:'ru'" json:"language"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`
	Posts        []Post         `json:"-"`
	Responses    []Response     `json:"-"`
}

// BeforeCreate hook ensures timestamps are set even when not provided.
func (u *User) BeforeCreate(tx *gorm.DB) error {
	now := time.Now()
	if u.CreatedAt.IsZero() {
		u.CreatedAt = now
	}
	u.UpdatedAt = now
	if u.Timezone == "" {
		u.Timezone = "UTC"
	}
	if u.Language == "" {
		u.Language = "ru"
	}
	return nil
}

// BeforeUpdate ensures the UpdatedAt timestamp is refreshed.
func (u *User) BeforeUpdate(tx *gorm.DB) error {
	u.UpdatedAt = time.Now()
	return nil
}

// DisplayName returns the first name when set, otherwise the email address.
func (u *User) DisplayName() string {
	if u.FirstName != "" {
		return u.FirstName
	}
	return u.Email
}
