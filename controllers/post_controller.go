package controllers

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/guildpost/guildpost/models"
	"github.com/guildpost/guildpost/services"
	"github.com/guildpost/guildpost/utils"
)

// PostController manages CRUD operations for posts.
type PostController struct {
	db       *gorm.DB
	notifier *services.Notifier
}

// NewPostController creates a new PostController instance.
func NewPostController(db *gorm.DB, notifier *services.Notifier) *PostController {
	return &PostController{db: db, notifier: notifier}
}

// validatePostInput trims and sanitizes title/content, enforcing the minimum lengths.
func (p *PostController) validatePostInput(ctx *gin.Context, title, content string) (string, string, bool) {
	cleanTitle := strings.TrimSpace(utils.Sanitize(title))
	if len([]rune(cleanTitle)) < 5 {
		utils.Error(ctx, http.StatusBadRequest, 40021, "title must be at least 5 characters")
		return "", "", false
	}
	cleanContent := utils.Sanitize(content)
	if len([]rune(strings.TrimSpace(cleanContent))) < 20 {
		utils.Error(ctx, http.StatusBadRequest, 40022, "content must be at least 20 characters")
		return "", "", false
	}
	return cleanTitle, cleanContent, true
}

// categoryExists checks the category value against the seeded archetype list.
func (p *PostController) categoryExists(value string) (bool, error) {
	var count int64
	err := p.db.Model(&models.Category{}).Where("value = ?", value).Count(&count).Error
	return count > 0, err
}

// CreatePost allows authenticated users to publish a post in a category.
func (p *PostController) CreatePost(ctx *gin.Context) {
	var req struct {
		Title    string `json:"title" binding:"required"`
		Content  string `json:"content" binding:"required"`
		Category string `json:"category" binding:"required"`
		ImageURL string `json:"image_url"`
		VideoURL string `json:"video_url"`
		Notify   *bool  `json:"notify"`
	}

	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40020, "invalid request payload")
		return
	}

	title, content, ok := p.validatePostInput(ctx, req.Title, req.Content)
	if !ok {
		return
	}

	category := strings.TrimSpace(req.Category)
	exists, err := p.categoryExists(category)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50020, "failed to check category")
		return
	}
	if !exists {
		utils.Error(ctx, http.StatusBadRequest, 40023, "invalid category")
		return
	}

	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}

	post := models.Post{
		UserID:   userID,
		Category: category,
		Title:    title,
		Content:  content,
		ImageURL: strings.TrimSpace(req.ImageURL),
		VideoURL: strings.TrimSpace(req.VideoURL),
		Notify:   true,
	}
	if req.Notify != nil {
		post.Notify = *req.Notify
	}

	if err := p.db.Create(&post).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50021, "failed to create post")
		return
	}

	utils.InvalidateByPrefix("cache:posts:list:")
	go p.notifier.NotifyPostCreated(post)
	logAction(p.db, &userID, fmt.Sprintf("post_create:%d", post.ID), ctx.ClientIP())

	utils.Success(ctx, gin.H{"post": post})
}

// ListPosts returns paginated posts with optional category and search filters.
func (p *PostController) ListPosts(ctx *gin.Context) {
	page, pageSize := parsePagination(ctx.Query("page"), ctx.Query("page_size"))
	search := strings.TrimSpace(ctx.Query("search"))
	category := strings.TrimSpace(ctx.Query("category"))

	// Cache homepage/category lists when no search term to avoid cache key explosion
	cacheKey := fmt.Sprintf("cache:posts:list:cat=%s:page=%d:size=%d", category, page, pageSize)
	if search == "" {
		if b, ok := utils.CacheGetBytes(cacheKey); ok {
			ctx.Data(200, "application/json", b)
			return
		}
	}

	var posts []models.Post
	var total int64

	query := p.db.Preload("User").Order("created_at DESC")
	if search != "" {
		query = query.Where("title LIKE ? OR content LIKE ?", "%"+search+"%", "%"+search+"%")
	}
	if category != "" {
		query = query.Where("category = ?", category)
	}
	if err := query.Model(&models.Post{}).Count(&total).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50022, "failed to count posts")
		return
	}

	offset := (page - 1) * pageSize
	if err := query.Offset(offset).Limit(pageSize).Find(&posts).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50023, "failed to list posts")
		return
	}

	payload := gin.H{
		"items": posts,
		"pagination": gin.H{
			"page":        page,
			"page_size":   pageSize,
			"total":       total,
			"total_pages": int((total + int64(pageSize) - 1) / int64(pageSize)),
		},
	}
	if search == "" {
		utils.CacheSetJSON(cacheKey, utils.JSONResponse{Code: 0, Message: "success", Data: payload}, time.Hour)
	}
	utils.Success(ctx, payload)
}

// GetPost returns a single post with its accepted responses inline and the
// caller's subscription state. Anonymous callers always see is_subscribed
// false.
func (p *PostController) GetPost(ctx *gin.Context) {
	postID := ctx.Param("id")

	var post models.Post
	err := p.db.Preload("User").
		Preload("Responses", "status = ?", models.ResponseAccepted).
		Preload("Responses.User").
		First(&post, postID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.Error(ctx, http.StatusNotFound, 40403, "post not found")
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, 50024, "failed to load post")
		return
	}

	isSubscribed := false
	if userID, ok := getUserID(ctx); ok {
		var count int64
		if err := p.db.Model(&models.PostSubscription{}).
			Where("user_id = ? AND post_id = ?", userID, post.ID).
			Count(&count).Error; err != nil {
			utils.Error(ctx, http.StatusInternalServerError, 50024, "failed to load post")
			return
		}
		isSubscribed = count > 0
	}

	utils.Success(ctx, gin.H{"post": post, "is_subscribed": isSubscribed})
}

// UpdatePost allows the author or staff to update a post.
func (p *PostController) UpdatePost(ctx *gin.Context) {
	var req struct {
		Title    string `json:"title" binding:"required"`
		Content  string `json:"content" binding:"required"`
		Category string `json:"category" binding:"required"`
		ImageURL string `json:"image_url"`
		VideoURL string `json:"video_url"`
		Notify   *bool  `json:"notify"`
	}

	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40024, "invalid request payload")
		return
	}

	title, content, ok := p.validatePostInput(ctx, req.Title, req.Content)
	if !ok {
		return
	}

	category := strings.TrimSpace(req.Category)
	exists, err := p.categoryExists(category)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50020, "failed to check category")
		return
	}
	if !exists {
		utils.Error(ctx, http.StatusBadRequest, 40023, "invalid category")
		return
	}

	postID := ctx.Param("id")
	var post models.Post
	if err := p.db.First(&post, postID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.Error(ctx, http.StatusNotFound, 40403, "post not found")
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, 50024, "failed to load post")
		return
	}

	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}
	if post.UserID != userID && !isStaff(ctx) {
		utils.Error(ctx, http.StatusForbidden, 40320, "you can only update your own posts")
		return
	}

	post.Title = title
	post.Content = content
	post.Category = category
	post.ImageURL = strings.TrimSpace(req.ImageURL)
	post.VideoURL = strings.TrimSpace(req.VideoURL)
	if req.Notify != nil {
		post.Notify = *req.Notify
	}

	if err := p.db.Save(&post).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50025, "failed to update post")
		return
	}

	utils.InvalidateByPrefix("cache:posts:list:")
	logAction(p.db, &userID, fmt.Sprintf("post_update:%d", post.ID), ctx.ClientIP())

	utils.Success(ctx, gin.H{"post": post})
}

// DeletePost allows the author or staff to delete a post.
func (p *PostController) DeletePost(ctx *gin.Context) {
	postID := ctx.Param("id")
	var post models.Post
	if err := p.db.First(&post, postID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.Error(ctx, http.StatusNotFound, 40403, "post not found")
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, 50024, "failed to load post")
		return
	}

	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}
	if post.UserID != userID && !isStaff(ctx) {
		utils.Error(ctx, http.StatusForbidden, 40321, "you can only delete your own posts")
		return
	}

	if err := p.db.Delete(&post).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50026, "failed to delete post")
		return
	}

	utils.InvalidateByPrefix("cache:posts:list:")
	logAction(p.db, &userID, fmt.Sprintf("post_delete:%d", post.ID), ctx.ClientIP())

	utils.Success(ctx, gin.H{"message": "post deleted"})
}

// ListCategories returns the seeded archetype categories.
func (p *PostController) ListCategories(ctx *gin.Context) {
	var categories []models.Category
	if err := p.db.Order("id").Find(&categories).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50027, "failed to list categories")
		return
	}
	utils.Success(ctx, gin.H{"items": categories})
}
