package controllers

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/guildpost/guildpost/models"
	"github.com/guildpost/guildpost/utils"
)

// SubscriptionController manages category and news subscriptions.
type SubscriptionController struct {
	db *gorm.DB
}

// NewSubscriptionController creates a new SubscriptionController instance.
func NewSubscriptionController(db *gorm.DB) *SubscriptionController {
	return &SubscriptionController{db: db}
}

// ToggleCategory flips the subscription for one archetype category.
func (s *SubscriptionController) ToggleCategory(ctx *gin.Context) {
	value := strings.TrimSpace(ctx.Param("value"))

	var category models.Category
	if err := s.db.Where("value = ?", value).First(&category).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.Error(ctx, http.StatusNotFound, 40406, "category not found")
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, 50050, "failed to load category")
		return
	}

	s.toggle(ctx, category.ID, "subscription_toggle:"+category.Value)
}

// ToggleNews flips the news subscription.
func (s *SubscriptionController) ToggleNews(ctx *gin.Context) {
	s.toggle(ctx, models.NewsCategoryID, "subscription_toggle:news")
}

// toggle deletes an existing subscription row or creates one. A duplicate key
// error from a concurrent create means the row exists, so the toggle-on still
// holds.
func (s *SubscriptionController) toggle(ctx *gin.Context, categoryID uint, action string) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}

	res := s.db.Where("user_id = ? AND category_id = ?", userID, categoryID).
		Delete(&models.Subscription{})
	if res.Error != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50051, "failed to toggle subscription")
		return
	}

	subscribed := false
	if res.RowsAffected == 0 {
		sub := models.Subscription{UserID: userID, CategoryID: categoryID}
		if err := s.db.Create(&sub).Error; err != nil && !errors.Is(err, gorm.ErrDuplicatedKey) {
			utils.Error(ctx, http.StatusInternalServerError, 50051, "failed to toggle subscription")
			return
		}
		subscribed = true
	}

	logAction(s.db, &userID, fmt.Sprintf("%s:%t", action, subscribed), ctx.ClientIP())
	utils.Success(ctx, gin.H{"subscribed": subscribed})
}

// TogglePost flips the subscription for a single post.
func (s *SubscriptionController) TogglePost(ctx *gin.Context) {
	var post models.Post
	if err := s.db.First(&post, ctx.Param("id")).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.Error(ctx, http.StatusNotFound, 40403, "post not found")
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, 50054, "failed to load post")
		return
	}

	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}

	res := s.db.Where("user_id = ? AND post_id = ?", userID, post.ID).
		Delete(&models.PostSubscription{})
	if res.Error != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50055, "failed to toggle post subscription")
		return
	}

	subscribed := false
	if res.RowsAffected == 0 {
		sub := models.PostSubscription{UserID: userID, PostID: post.ID}
		if err := s.db.Create(&sub).Error; err != nil && !errors.Is(err, gorm.ErrDuplicatedKey) {
			utils.Error(ctx, http.StatusInternalServerError, 50055, "failed to toggle post subscription")
			return
		}
		subscribed = true
	}

	logAction(s.db, &userID, fmt.Sprintf("post_subscription_toggle:%d:%t", post.ID, subscribed), ctx.ClientIP())
	utils.Success(ctx, gin.H{"subscribed": subscribed})
}

// ListSubscriptions returns the caller's subscriptions with category details.
func (s *SubscriptionController) ListSubscriptions(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}

	var subs []models.Subscription
	if err := s.db.Where("user_id = ?", userID).Find(&subs).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50052, "failed to list subscriptions")
		return
	}

	news := false
	var categoryIDs []uint
	for _, sub := range subs {
		if sub.IsNews() {
			news = true
			continue
		}
		categoryIDs = append(categoryIDs, sub.CategoryID)
	}

	var categories []models.Category
	if len(categoryIDs) > 0 {
		if err := s.db.Find(&categories, categoryIDs).Error; err != nil {
			utils.Error(ctx, http.StatusInternalServerError, 50053, "failed to load categories")
			return
		}
	}

	var postSubs []models.PostSubscription
	if err := s.db.Where("user_id = ?", userID).Find(&postSubs).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50056, "failed to list post subscriptions")
		return
	}
	postIDs := make([]uint, 0, len(postSubs))
	for _, sub := range postSubs {
		postIDs = append(postIDs, sub.PostID)
	}

	utils.Success(ctx, gin.H{"news": news, "categories": categories, "posts": postIDs})
}
