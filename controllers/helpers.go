package controllers

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/guildpost/guildpost/middleware"
	"github.com/guildpost/guildpost/models"
	"github.com/guildpost/guildpost/utils"
)

func parsePagination(pageStr, sizeStr string) (int, int) {
	page := 1
	pageSize := 10
	if p, err := strconv.Atoi(pageStr); err == nil && p > 0 {
		page = p
	}
	if s, err := strconv.Atoi(sizeStr); err == nil && s > 0 && s <= 100 {
		pageSize = s
	}
	return page, pageSize
}

func getUserID(ctx *gin.Context) (uint, bool) {
	value, exists := ctx.Get(middleware.ContextUserIDKey)
	if !exists {
		return 0, false
	}

	switch v := value.(type) {
	case uint:
		return v, true
	case int:
		return uint(v), true
	case int64:
		return uint(v), true
	case float64:
		return uint(v), true
	default:
		return 0, false
	}
}

func isStaff(ctx *gin.Context) bool {
	value, exists := ctx.Get(middleware.ContextIsStaffKey)
	if !exists {
		return false
	}
	staff, _ := value.(bool)
	return staff
}

// logAction appends an audit row. Best-effort, failures only logged.
func logAction(db *gorm.DB, userID *uint, action, ip string) {
	entry := models.UserActionLog{UserID: userID, Action: action, IP: ip}
	if err := db.Create(&entry).Error; err != nil {
		utils.Sugar.Warnf("action log write failed (%s): %v", action, err)
	}
}
