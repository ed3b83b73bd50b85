package models

import (
	"crypto/rand"
	"encoding/base64"
	"time"
)

// VerificationTTL is the window during which a verification token is accepted.
const VerificationTTL = 24 * time.Hour

// EmailVerification is a single-use token gating account activation.
// At most one live row exists per user; issuing a new token replaces the old one.
type EmailVerification struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"uniqueIndex;not null" json:"user_id"`
	Token     string    `gorm:"size:64;index;not null" json:"-"`
	CreatedAt time.Time `json:"created_at"`
	User      User      `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
}

// NewEmailVerification builds a verification row with a fresh random token.
func NewEmailVerification(userID uint) (*EmailVerification, error) {
	token, err := GenerateVerificationToken()
	if err != nil {
		return nil, err
	}
	return &EmailVerification{UserID: userID, Token: token, CreatedAt: time.Now()}, nil
}

// GenerateVerificationToken returns a URL-safe token with 256 bits of entropy.
func GenerateVerificationToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// IsValid reports whether the token is still inside its acceptance window.
func (v *EmailVerification) IsValid(now time.Time) bool {
	return now.Sub(v.CreatedAt) < VerificationTTL
}

// ExpiresAt returns the instant after which the token is rejected.
func (v *EmailVerification) ExpiresAt() time.Time {
	return v.CreatedAt.Add(VerificationTTL)
}
