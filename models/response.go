package models

import "time"

// ResponseStatus is the review state of a response. A single enum keeps
// accepted and rejected mutually exclusive at the storage level.
type ResponseStatus string

const (
	ResponsePending  ResponseStatus = "pending"
	ResponseAccepted ResponseStatus = "accepted"
	ResponseRejected ResponseStatus = "rejected"
)

// Response is a reply to a Post, subject to accept/reject by the post author.
// Rejecting retains the row (soft); deleting removes it (hard).
type Response struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	PostID    uint           `gorm:"index;not null" json:"post_id"`
	UserID    uint           `gorm:"index;not null" json:"user_id"`
	Text      string         `gorm:"type:text;not null" json:"text"`
	Status    ResponseStatus `gorm:"size:16;default:'pending';index" json:"status"`
	CreatedAt time.Time      `json:"created_at"`
	User      User           `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"author"`
	Post      Post           `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
}

// Accept marks the response accepted, clearing any prior rejection.
func (r *Response) Accept() { r.Status = ResponseAccepted }

// Reject soft-deletes the response: the row stays retrievable by ID.
func (r *Response) Reject() { r.Status = ResponseRejected }

// IsAccepted reports whether the post author accepted this response.
func (r *Response) IsAccepted() bool { return r.Status == ResponseAccepted }

// IsRejected reports whether the post author rejected this response.
func (r *Response) IsRejected() bool { return r.Status == ResponseRejected }
