package controllers

import (
	"net/http"
	"sort"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/guildpost/guildpost/models"
	"github.com/guildpost/guildpost/utils"
)

// StatsController exposes portal counters and the landing overview.
type StatsController struct {
	db *gorm.DB
}

// NewStatsController creates a new StatsController instance.
func NewStatsController(db *gorm.DB) *StatsController {
	return &StatsController{db: db}
}

// Stats returns global counts.
func (s *StatsController) Stats(ctx *gin.Context) {
	var users, posts, news, responses int64

	if err := s.db.Model(&models.User{}).Where("is_active = ?", true).Count(&users).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50060, "failed to count users")
		return
	}
	if err := s.db.Model(&models.Post{}).Count(&posts).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50061, "failed to count posts")
		return
	}
	if err := s.db.Model(&models.News{}).Count(&news).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50062, "failed to count news")
		return
	}
	if err := s.db.Model(&models.Response{}).Count(&responses).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50063, "failed to count responses")
		return
	}

	utils.Success(ctx, gin.H{
		"users":     users,
		"posts":     posts,
		"news":      news,
		"responses": responses,
	})
}

// overviewItem is one entry of the merged landing feed.
type overviewItem struct {
	Kind      string    `json:"kind"`
	ID        uint      `json:"id"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"created_at"`
}

// Overview merges the latest news and posts into a single feed of at most 10.
func (s *StatsController) Overview(ctx *gin.Context) {
	var news []models.News
	if err := s.db.Order("created_at DESC").Limit(6).Find(&news).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50064, "failed to load news")
		return
	}
	var posts []models.Post
	if err := s.db.Order("created_at DESC").Limit(6).Find(&posts).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50065, "failed to load posts")
		return
	}

	items := make([]overviewItem, 0, len(news)+len(posts))
	for _, n := range news {
		items = append(items, overviewItem{Kind: "news", ID: n.ID, Title: n.Title, CreatedAt: n.CreatedAt})
	}
	for _, p := range posts {
		items = append(items, overviewItem{Kind: "post", ID: p.ID, Title: p.Title, CreatedAt: p.CreatedAt})
	}
	sort.Slice(items, func(i, j int) bool {
		return items[i].CreatedAt.After(items[j].CreatedAt)
	})
	if len(items) > 10 {
		items = items[:10]
	}

	utils.Success(ctx, gin.H{"items": items})
}
