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

// tokenDuration controls how long issued JWTs remain valid.
const tokenDuration = 72 * time.Hour

// AuthController handles registration, verification and session management.
type AuthController struct {
	db       *gorm.DB
	notifier *services.Notifier
}

// NewAuthController creates a new AuthController instance.
func NewAuthController(db *gorm.DB, notifier *services.Notifier) *AuthController {
	return &AuthController{db: db, notifier: notifier}
}

// Register creates an inactive account and mails the verification link.
func (a *AuthController) Register(ctx *gin.Context) {
	var req struct {
		Email     string `json:"email" binding:"required,email"`
		Password  string `json:"password" binding:"required,min=8"`
		Confirm   string `json:"confirm" binding:"required"`
		FirstName string `json:"first_name"`
		LastName  string `json:"last_name"`
	}

	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40001, "invalid registration payload")
		return
	}
	if req.Password != req.Confirm {
		utils.Error(ctx, http.StatusBadRequest, 40002, "passwords do not match")
		return
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))

	var existing models.User
	err := a.db.Where("email = ?", email).First(&existing).Error
	switch {
	case err == nil && existing.IsActive:
		utils.Error(ctx, http.StatusConflict, 40901, "email already registered")
		return
	case err == nil && !existing.IsActive:
		// Unfinished registration: refresh the token and resend the mail.
		verification, verr := a.resetVerification(existing.ID)
		if verr != nil {
			utils.Error(ctx, http.StatusInternalServerError, 50001, "failed to refresh verification")
			return
		}
		go a.notifier.SendVerificationEmail(existing, verification.Token)
		logAction(a.db, &existing.ID, "register_resend", ctx.ClientIP())
		utils.Success(ctx, gin.H{"message": "verification email sent"})
		return
	case !errors.Is(err, gorm.ErrRecordNotFound):
		utils.Error(ctx, http.StatusInternalServerError, 50002, "failed to check email")
		return
	}

	hash, err := utils.HashPassword(req.Password)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50003, "failed to hash password")
		return
	}

	user := models.User{
		Email:        email,
		PasswordHash: hash,
		FirstName:    strings.TrimSpace(req.FirstName),
		LastName:     strings.TrimSpace(req.LastName),
		IsActive:     false,
	}

	var verification *models.EmailVerification
	err = a.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&user).Error; err != nil {
			return err
		}
		v, err := models.NewEmailVerification(user.ID)
		if err != nil {
			return err
		}
		if err := tx.Create(v).Error; err != nil {
			return err
		}
		verification = v
		return nil
	})
	if err != nil {
		// A concurrent registration can slip past the existence check and
		// lose the race at the unique email index.
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			utils.Error(ctx, http.StatusConflict, 40901, "email already registered")
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, 50004, "failed to create account")
		return
	}

	go a.notifier.SendVerificationEmail(user, verification.Token)
	logAction(a.db, &user.ID, "register", ctx.ClientIP())

	utils.Success(ctx, gin.H{"user": user, "message": "verification email sent"})
}

// resetVerification replaces any existing token for the user with a fresh one.
func (a *AuthController) resetVerification(userID uint) (*models.EmailVerification, error) {
	verification, err := models.NewEmailVerification(userID)
	if err != nil {
		return nil, err
	}
	err = a.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ?", userID).Delete(&models.EmailVerification{}).Error; err != nil {
			return err
		}
		return tx.Create(verification).Error
	})
	if err != nil {
		return nil, err
	}
	return verification, nil
}

// VerifyEmail activates the account behind a verification token.
func (a *AuthController) VerifyEmail(ctx *gin.Context) {
	token := strings.TrimSpace(ctx.Param("token"))
	if token == "" {
		utils.Error(ctx, http.StatusNotFound, 40401, "verification token not found")
		return
	}

	var verification models.EmailVerification
	err := a.db.Where("token = ?", token).First(&verification).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.Error(ctx, http.StatusNotFound, 40401, "verification token not found")
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, 50005, "failed to load verification")
		return
	}

	if !verification.IsValid(time.Now()) {
		// Consume the stale token so the same link never answers twice.
		if err := a.db.Delete(&models.EmailVerification{}, verification.ID).Error; err != nil {
			utils.Sugar.Warnf("delete expired verification %d: %v", verification.ID, err)
		}
		utils.Error(ctx, http.StatusGone, 41001, "verification link expired, please register again")
		return
	}

	var user models.User
	if err := a.db.First(&user, verification.UserID).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50006, "failed to load user")
		return
	}

	err = a.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&user).Update("is_active", true).Error; err != nil {
			return err
		}
		return tx.Delete(&models.EmailVerification{}, verification.ID).Error
	})
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50007, "failed to activate account")
		return
	}

	user.IsActive = true
	go a.notifier.SendWelcomeEmail(user)
	logAction(a.db, &user.ID, "verify_email", ctx.ClientIP())

	utils.Success(ctx, gin.H{"message": "account activated"})
}

// Login authenticates a verified user and issues a JWT.
func (a *AuthController) Login(ctx *gin.Context) {
	var req struct {
		Email    string `json:"email" binding:"required,email"`
		Password string `json:"password" binding:"required"`
	}

	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40003, "invalid login payload")
		return
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))

	var user models.User
	err := a.db.Where("email = ?", email).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.Error(ctx, http.StatusUnauthorized, 40106, "invalid email or password")
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, 50008, "failed to load user")
		return
	}

	if !utils.CheckPassword(user.PasswordHash, req.Password) {
		utils.Error(ctx, http.StatusUnauthorized, 40106, "invalid email or password")
		return
	}
	if !user.IsActive {
		utils.Error(ctx, http.StatusForbidden, 40310, "account not verified")
		return
	}

	token, err := utils.GenerateToken(user.ID, user.Email, user.IsStaff, tokenDuration)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50009, "failed to issue token")
		return
	}

	logAction(a.db, &user.ID, "login", ctx.ClientIP())
	utils.Success(ctx, gin.H{"token": token, "user": user})
}

// Logout revokes the presented token until its natural expiry.
func (a *AuthController) Logout(ctx *gin.Context) {
	authHeader := ctx.GetHeader("Authorization")
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 {
		utils.Error(ctx, http.StatusBadRequest, 40004, "missing bearer token")
		return
	}
	tokenString := strings.TrimSpace(parts[1])

	claims, err := utils.ParseToken(tokenString)
	if err != nil {
		utils.Error(ctx, http.StatusUnauthorized, 40105, "invalid token")
		return
	}

	utils.BlacklistToken(tokenString, claims.ExpiresAt.Time)
	if userID, ok := getUserID(ctx); ok {
		logAction(a.db, &userID, "logout", ctx.ClientIP())
	}

	utils.Success(ctx, gin.H{"message": "logged out"})
}

// Me returns the authenticated user's profile.
func (a *AuthController) Me(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}

	var user models.User
	if err := a.db.First(&user, userID).Error; err != nil {
		utils.Error(ctx, http.StatusNotFound, 40402, "user not found")
		return
	}

	utils.Success(ctx, gin.H{"user": user})
}

// UpdateProfile changes names, timezone and language. Every accepted change is
// written to the action log as a field diff.
func (a *AuthController) UpdateProfile(ctx *gin.Context) {
	var req struct {
		FirstName *string `json:"first_name"`
		LastName  *string `json:"last_name"`
		Timezone  *string `json:"timezone"`
		Language  *string `json:"language"`
	}

	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40005, "invalid profile payload")
		return
	}

	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}

	var user models.User
	if err := a.db.First(&user, userID).Error; err != nil {
		utils.Error(ctx, http.StatusNotFound, 40402, "user not found")
		return
	}

	var changes []string
	if req.FirstName != nil {
		name := strings.TrimSpace(*req.FirstName)
		if name != user.FirstName {
			changes = append(changes, fmt.Sprintf("first_name: %q -> %q", user.FirstName, name))
			user.FirstName = name
		}
	}
	if req.LastName != nil {
		name := strings.TrimSpace(*req.LastName)
		if name != user.LastName {
			changes = append(changes, fmt.Sprintf("last_name: %q -> %q", user.LastName, name))
			user.LastName = name
		}
	}
	if req.Timezone != nil {
		tz := strings.TrimSpace(*req.Timezone)
		if _, err := time.LoadLocation(tz); err != nil || tz == "" {
			utils.Error(ctx, http.StatusBadRequest, 40006, "unknown timezone")
			return
		}
		if tz != user.Timezone {
			changes = append(changes, fmt.Sprintf("timezone: %q -> %q", user.Timezone, tz))
			user.Timezone = tz
		}
	}
	if req.Language != nil {
		lang := strings.ToLower(strings.TrimSpace(*req.Language))
		if lang != "en" && lang != "ru" {
			utils.Error(ctx, http.StatusBadRequest, 40007, "unsupported language")
			return
		}
		if lang != user.Language {
			changes = append(changes, fmt.Sprintf("language: %q -> %q", user.Language, lang))
			user.Language = lang
		}
	}

	if len(changes) > 0 {
		if err := a.db.Save(&user).Error; err != nil {
			utils.Error(ctx, http.StatusInternalServerError, 50010, "failed to update profile")
			return
		}
		logAction(a.db, &user.ID, "profile_update: "+strings.Join(changes, "; "), ctx.ClientIP())
	}

	utils.Success(ctx, gin.H{"user": user})
}
