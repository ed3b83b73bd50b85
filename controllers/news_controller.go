package controllers

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/guildpost/guildpost/models"
	"github.com/guildpost/guildpost/services"
	"github.com/guildpost/guildpost/utils"
)

// NewsController manages staff news articles and public reading with views.
type NewsController struct {
	db       *gorm.DB
	notifier *services.Notifier
}

// NewNewsController creates a new NewsController instance.
func NewNewsController(db *gorm.DB, notifier *services.Notifier) *NewsController {
	return &NewsController{db: db, notifier: notifier}
}

func (n *NewsController) validateNewsInput(ctx *gin.Context, title, content string) (string, string, bool) {
	cleanTitle := strings.TrimSpace(utils.Sanitize(title))
	if len([]rune(cleanTitle)) < 5 {
		utils.Error(ctx, http.StatusBadRequest, 40040, "title must be at least 5 characters")
		return "", "", false
	}
	cleanContent := utils.Sanitize(content)
	if len([]rune(strings.TrimSpace(cleanContent))) < 20 {
		utils.Error(ctx, http.StatusBadRequest, 40041, "content must be at least 20 characters")
		return "", "", false
	}
	return cleanTitle, cleanContent, true
}

// CreateNews publishes a news article and fans out to news subscribers.
func (n *NewsController) CreateNews(ctx *gin.Context) {
	var req struct {
		Title   string `json:"title" binding:"required"`
		Content string `json:"content" binding:"required"`
		Notify  *bool  `json:"notify"`
	}

	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40042, "invalid request payload")
		return
	}

	title, content, ok := n.validateNewsInput(ctx, req.Title, req.Content)
	if !ok {
		return
	}

	news := models.News{Title: title, Content: content, Notify: true}
	if req.Notify != nil {
		news.Notify = *req.Notify
	}

	if err := n.db.Create(&news).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50040, "failed to create news")
		return
	}

	utils.InvalidateByPrefix("cache:news:list:")
	go n.notifier.NotifyNewsCreated(news)
	if userID, ok := getUserID(ctx); ok {
		logAction(n.db, &userID, fmt.Sprintf("news_create:%d", news.ID), ctx.ClientIP())
	}

	utils.Success(ctx, gin.H{"news": news})
}

// ListNews returns paginated news ordered newest first.
func (n *NewsController) ListNews(ctx *gin.Context) {
	page, pageSize := parsePagination(ctx.Query("page"), ctx.Query("page_size"))

	var items []models.News
	var total int64

	if err := n.db.Model(&models.News{}).Count(&total).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50041, "failed to count news")
		return
	}
	err := n.db.Order("created_at DESC").
		Offset((page - 1) * pageSize).Limit(pageSize).
		Find(&items).Error
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50042, "failed to list news")
		return
	}

	utils.Success(ctx, gin.H{
		"items": items,
		"pagination": gin.H{
			"page":        page,
			"page_size":   pageSize,
			"total":       total,
			"total_pages": int((total + int64(pageSize) - 1) / int64(pageSize)),
		},
	})
}

// GetNews returns a news article with navigation data. The view counter moves
// at most once per client per article.
func (n *NewsController) GetNews(ctx *gin.Context) {
	var news models.News
	if err := n.db.First(&news, ctx.Param("id")).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.Error(ctx, http.StatusNotFound, 40405, "news not found")
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, 50043, "failed to load news")
		return
	}

	if utils.MarkViewedOnce(news.ID, ctx.ClientIP()) {
		// Atomic increment so concurrent readers never lose a view.
		err := n.db.Model(&models.News{}).Where("id = ?", news.ID).
			UpdateColumn("views", gorm.Expr("views + 1")).Error
		if err != nil {
			utils.Sugar.Warnf("news %d view increment failed: %v", news.ID, err)
		} else {
			news.Views++
		}
		var userID *uint
		if id, ok := getUserID(ctx); ok {
			userID = &id
		}
		logAction(n.db, userID, fmt.Sprintf("news_view:%d", news.ID), ctx.ClientIP())
	}

	var prev, next models.News
	var prevID, nextID *uint
	if err := n.db.Select("id, title").Where("created_at < ?", news.CreatedAt).
		Order("created_at DESC").First(&prev).Error; err == nil {
		prevID = &prev.ID
	}
	if err := n.db.Select("id, title").Where("created_at > ?", news.CreatedAt).
		Order("created_at ASC").First(&next).Error; err == nil {
		nextID = &next.ID
	}

	var popular []models.News
	if err := n.db.Select("id, title, views").Order("views DESC").Limit(5).Find(&popular).Error; err != nil {
		utils.Sugar.Warnf("load popular news failed: %v", err)
	}

	utils.Success(ctx, gin.H{
		"news":    news,
		"prev_id": prevID,
		"next_id": nextID,
		"popular": popular,
	})
}

// UpdateNews edits a news article. Staff only (enforced by routing).
func (n *NewsController) UpdateNews(ctx *gin.Context) {
	var req struct {
		Title   string `json:"title" binding:"required"`
		Content string `json:"content" binding:"required"`
		Notify  *bool  `json:"notify"`
	}

	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40043, "invalid request payload")
		return
	}

	title, content, ok := n.validateNewsInput(ctx, req.Title, req.Content)
	if !ok {
		return
	}

	var news models.News
	if err := n.db.First(&news, ctx.Param("id")).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.Error(ctx, http.StatusNotFound, 40405, "news not found")
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, 50043, "failed to load news")
		return
	}

	news.Title = title
	news.Content = content
	if req.Notify != nil {
		news.Notify = *req.Notify
	}

	if err := n.db.Save(&news).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50044, "failed to update news")
		return
	}

	utils.InvalidateByPrefix("cache:news:list:")
	if userID, ok := getUserID(ctx); ok {
		logAction(n.db, &userID, fmt.Sprintf("news_update:%d", news.ID), ctx.ClientIP())
	}

	utils.Success(ctx, gin.H{"news": news})
}

// DeleteNews removes a news article. Staff only (enforced by routing).
func (n *NewsController) DeleteNews(ctx *gin.Context) {
	var news models.News
	if err := n.db.First(&news, ctx.Param("id")).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.Error(ctx, http.StatusNotFound, 40405, "news not found")
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, 50043, "failed to load news")
		return
	}

	if err := n.db.Delete(&news).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50045, "failed to delete news")
		return
	}

	utils.InvalidateByPrefix("cache:news:list:")
	if userID, ok := getUserID(ctx); ok {
		logAction(n.db, &userID, fmt.Sprintf("news_delete:%d", news.ID), ctx.ClientIP())
	}

	utils.Success(ctx, gin.H{"message": "news deleted"})
}
