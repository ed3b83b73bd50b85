package services

import (
	"fmt"
	"strings"
	"text/template"

	"gorm.io/gorm"

	"github.com/guildpost/guildpost/config"
	"github.com/guildpost/guildpost/models"
	"github.com/guildpost/guildpost/utils"
)

// Sender delivers a single plain text message to one recipient.
type Sender interface {
	Send(to, subject, body string) error
}

var mailTemplates = template.Must(template.New("mail").Parse(`
{{define "verification"}}Hello {{.Name}},

Please confirm your registration by opening the link below:

{{.Link}}

The link is valid for 24 hours.
{{end}}

{{define "welcome"}}Hello {{.Name}},

Your account is now active. Welcome aboard!
{{end}}

{{define "response_created"}}Hello {{.Name}},

You received a new response to your post "{{.PostTitle}}" from {{.Responder}}:

{{.Text}}

Open {{.Link}} to review it.
{{end}}

{{define "response_accepted"}}Hello {{.Name}},

Your response to "{{.PostTitle}}" was accepted by {{.Author}}.
You can reach the author at {{.AuthorEmail}}.
{{end}}

{{define "news_created"}}Hello {{.Name}},

{{.Title}}

{{.Content}}

Read more: {{.Link}}
{{end}}

{{define "post_created"}}Hello {{.Name}},

A new post appeared in the {{.Category}} category:

{{.Title}}

Read more: {{.Link}}
{{end}}
`))

// Notifier fans out email notifications for portal events. Delivery failures
// are logged and never abort the triggering request or the remaining recipients.
type Notifier struct {
	db      *gorm.DB
	sender  Sender
	baseURL string
}

// NewNotifier creates a Notifier instance.
func NewNotifier(db *gorm.DB, sender Sender) *Notifier {
	return &Notifier{db: db, sender: sender, baseURL: config.Get().BaseURL}
}

// SendVerificationEmail mails the account activation link to a fresh user.
func (n *Notifier) SendVerificationEmail(user models.User, token string) {
	n.deliver(user.Email, "Confirm your registration", "verification", map[string]string{
		"Name": user.DisplayName(),
		"Link": fmt.Sprintf("%s/verify/%s", n.baseURL, token),
	})
}

// SendWelcomeEmail mails a short greeting after successful verification.
func (n *Notifier) SendWelcomeEmail(user models.User) {
	n.deliver(user.Email, "Welcome to the guild", "welcome", map[string]string{
		"Name": user.DisplayName(),
	})
}

// NotifyResponseCreated mails the post author about a new response.
func (n *Notifier) NotifyResponseCreated(post models.Post, resp models.Response) {
	var author models.User
	if err := n.db.First(&author, post.UserID).Error; err != nil {
		utils.Sugar.Warnf("notify response created: load post author %d: %v", post.UserID, err)
		return
	}
	var responder models.User
	if err := n.db.First(&responder, resp.UserID).Error; err != nil {
		utils.Sugar.Warnf("notify response created: load responder %d: %v", resp.UserID, err)
		return
	}

	n.deliver(author.Email, fmt.Sprintf("New response to \"%s\"", post.Title), "response_created", map[string]string{
		"Name":      author.DisplayName(),
		"PostTitle": post.Title,
		"Responder": responder.DisplayName(),
		"Text":      resp.Text,
		"Link":      fmt.Sprintf("%s/api/v1/posts/%d", n.baseURL, post.ID),
	})
}

// NotifyResponseAccepted mails the response author that their offer was accepted.
func (n *Notifier) NotifyResponseAccepted(post models.Post, resp models.Response) {
	var responder models.User
	if err := n.db.First(&responder, resp.UserID).Error; err != nil {
		utils.Sugar.Warnf("notify response accepted: load responder %d: %v", resp.UserID, err)
		return
	}
	var author models.User
	if err := n.db.First(&author, post.UserID).Error; err != nil {
		utils.Sugar.Warnf("notify response accepted: load post author %d: %v", post.UserID, err)
		return
	}

	n.deliver(responder.Email, fmt.Sprintf("Your response to \"%s\" was accepted", post.Title), "response_accepted", map[string]string{
		"Name":        responder.DisplayName(),
		"PostTitle":   post.Title,
		"Author":      author.DisplayName(),
		"AuthorEmail": author.Email,
	})
}

// NotifyNewsCreated mails every news subscriber about a fresh article.
func (n *Notifier) NotifyNewsCreated(news models.News) {
	if !news.Notify {
		return
	}
	recipients, err := n.newsSubscribers()
	if err != nil {
		utils.Sugar.Warnf("notify news created: load subscribers: %v", err)
		return
	}

	subject := fmt.Sprintf("News: %s", news.Title)
	link := fmt.Sprintf("%s/api/v1/news/%d", n.baseURL, news.ID)
	for _, user := range recipients {
		n.deliver(user.Email, subject, "news_created", map[string]string{
			"Name":    user.DisplayName(),
			"Title":   news.Title,
			"Content": news.Content,
			"Link":    link,
		})
	}
}

// NotifyPostCreated mails subscribers of the post category about a new post.
func (n *Notifier) NotifyPostCreated(post models.Post) {
	if !post.Notify {
		return
	}
	recipients, err := n.categorySubscribers(post.Category)
	if err != nil {
		utils.Sugar.Warnf("notify post created: load subscribers for %q: %v", post.Category, err)
		return
	}

	subject := fmt.Sprintf("New post in %s: %s", post.Category, post.Title)
	link := fmt.Sprintf("%s/api/v1/posts/%d", n.baseURL, post.ID)
	for _, user := range recipients {
		// Authors do not get notified about their own posts.
		if user.ID == post.UserID {
			continue
		}
		n.deliver(user.Email, subject, "post_created", map[string]string{
			"Name":     user.DisplayName(),
			"Category": post.Category,
			"Title":    post.Title,
			"Link":     link,
		})
	}
}

// newsSubscribers returns active users subscribed to news updates.
func (n *Notifier) newsSubscribers() ([]models.User, error) {
	var users []models.User
	err := n.db.
		Joins("JOIN subscriptions ON subscriptions.user_id = users.id").
		Where("subscriptions.category_id = ? AND users.is_active = ?", models.NewsCategoryID, true).
		Find(&users).Error
	return users, err
}

// categorySubscribers returns active users subscribed to a category value.
func (n *Notifier) categorySubscribers(categoryValue string) ([]models.User, error) {
	var category models.Category
	if err := n.db.Where("value = ?", categoryValue).First(&category).Error; err != nil {
		return nil, err
	}
	var users []models.User
	err := n.db.
		Joins("JOIN subscriptions ON subscriptions.user_id = users.id").
		Where("subscriptions.category_id = ? AND users.is_active = ?", category.ID, true).
		Find(&users).Error
	return users, err
}

func (n *Notifier) deliver(to, subject, tmpl string, data map[string]string) {
	var sb strings.Builder
	if err := mailTemplates.ExecuteTemplate(&sb, tmpl, data); err != nil {
		utils.Sugar.Warnf("render mail %s for %s failed: %v", tmpl, to, err)
		return
	}
	body := strings.TrimLeft(sb.String(), "\n")
	if err := n.sender.Send(to, subject, body); err != nil {
		utils.Sugar.Warnf("send mail to %s failed: %v", to, err)
	}
}
