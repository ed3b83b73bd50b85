package services

import (
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/guildpost/guildpost/config"
	"github.com/guildpost/guildpost/models"
	"github.com/guildpost/guildpost/utils"
)

// DigestWindow is the trailing period a weekly digest covers.
const DigestWindow = 7 * 24 * time.Hour

// Digest builds and mails weekly summaries of news and per-category posts.
type Digest struct {
	db      *gorm.DB
	sender  Sender
	baseURL string
}

// NewDigest creates a Digest instance.
func NewDigest(db *gorm.DB, sender Sender) *Digest {
	return &Digest{db: db, sender: sender, baseURL: config.Get().BaseURL}
}

// Run sends the news digest and every category digest for the trailing window.
func (d *Digest) Run(now time.Time) {
	d.sendNewsDigest(now)
	d.sendCategoryDigests(now)
}

func (d *Digest) sendNewsDigest(now time.Time) {
	since := now.Add(-DigestWindow)

	var items []models.News
	if err := d.db.Where("created_at >= ?", since).Order("created_at DESC").Find(&items).Error; err != nil {
		utils.Sugar.Warnf("news digest: load items: %v", err)
		return
	}
	if len(items) == 0 {
		return
	}

	var users []models.User
	err := d.db.
		Joins("JOIN subscriptions ON subscriptions.user_id = users.id").
		Where("subscriptions.category_id = ? AND users.is_active = ?", models.NewsCategoryID, true).
		Find(&users).Error
	if err != nil {
		utils.Sugar.Warnf("news digest: load subscribers: %v", err)
		return
	}

	var sb strings.Builder
	sb.WriteString("News from the last week:\n\n")
	for _, item := range items {
		fmt.Fprintf(&sb, "- %s\n  %s/api/v1/news/%d\n", item.Title, d.baseURL, item.ID)
	}
	body := sb.String()

	for _, user := range users {
		d.deliver(user.Email, "Weekly news digest", fmt.Sprintf("Hello %s,\n\n%s", user.DisplayName(), body))
	}
}

func (d *Digest) sendCategoryDigests(now time.Time) {
	since := now.Add(-DigestWindow)

	var categories []models.Category
	if err := d.db.Find(&categories).Error; err != nil {
		utils.Sugar.Warnf("category digest: load categories: %v", err)
		return
	}

	for _, category := range categories {
		var posts []models.Post
		err := d.db.Where("category = ? AND created_at >= ?", category.Value, since).
			Order("created_at DESC").Find(&posts).Error
		if err != nil {
			utils.Sugar.Warnf("category digest %q: load posts: %v", category.Value, err)
			continue
		}
		if len(posts) == 0 {
			continue
		}

		var users []models.User
		err = d.db.
			Joins("JOIN subscriptions ON subscriptions.user_id = users.id").
			Where("subscriptions.category_id = ? AND users.is_active = ?", category.ID, true).
			Find(&users).Error
		if err != nil {
			utils.Sugar.Warnf("category digest %q: load subscribers: %v", category.Value, err)
			continue
		}
		if len(users) == 0 {
			continue
		}

		var sb strings.Builder
		fmt.Fprintf(&sb, "Posts in %s from the last week:\n\n", category.Name)
		for _, post := range posts {
			fmt.Fprintf(&sb, "- %s\n  %s/api/v1/posts/%d\n", post.Title, d.baseURL, post.ID)
		}
		body := sb.String()
		subject := fmt.Sprintf("Weekly digest: %s", category.Name)

		for _, user := range users {
			d.deliver(user.Email, subject, fmt.Sprintf("Hello %s,\n\n%s", user.DisplayName(), body))
		}
	}
}

func (d *Digest) deliver(to, subject, body string) {
	if err := d.sender.Send(to, subject, body); err != nil {
		utils.Sugar.Warnf("send digest to %s failed: %v", to, err)
	}
}
