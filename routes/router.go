package routes

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/guildpost/guildpost/config"
	"github.com/guildpost/guildpost/controllers"
	"github.com/guildpost/guildpost/middleware"
	"github.com/guildpost/guildpost/services"
	"github.com/guildpost/guildpost/utils"
)

// SetupRouter wires routes, middlewares, and controllers.
func SetupRouter(db *gorm.DB, notifier *services.Notifier) *gin.Engine {
	cfg := config.Get()
	switch strings.ToLower(cfg.GinMode) {
	case "debug":
		gin.SetMode(gin.DebugMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	// Replace default console logger with file-based zap logger
	gl, err := utils.NewRollingFileLogger(cfg.GinPath, cfg.LogLevel, cfg.LogMaxSizeMB, cfg.LogMaxBackups, cfg.LogMaxAgeDays, cfg.LogCompress)
	if err == nil {
		r.Use(utils.Ginzap(gl, time.RFC3339, true))
		r.Use(utils.RecoveryWithZap(gl, false))
	} else {
		r.Use(gin.Recovery())
	}

	r.Use(middleware.RequestID())

	corsCfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", middleware.RequestIDHeader},
		ExposeHeaders:    []string{"Content-Length", middleware.RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(cfg.AllowedOrigins) == 1 && cfg.AllowedOrigins[0] == "*" {
		corsCfg.AllowAllOrigins = true
	} else {
		corsCfg.AllowOrigins = cfg.AllowedOrigins
	}
	r.Use(cors.New(corsCfg))

	r.GET("/health", func(ctx *gin.Context) {
		utils.Success(ctx, gin.H{"status": "ok"})
	})

	authController := controllers.NewAuthController(db, notifier)
	postController := controllers.NewPostController(db, notifier)
	responseController := controllers.NewResponseController(db, notifier)
	newsController := controllers.NewNewsController(db, notifier)
	subscriptionController := controllers.NewSubscriptionController(db)
	statsController := controllers.NewStatsController(db)

	api := r.Group("/api/v1")

	authGroup := api.Group("/auth")
	authGroup.Use(middleware.RateLimitMiddleware())
	authGroup.POST("/register", authController.Register)
	authGroup.GET("/verify/:token", authController.VerifyEmail)
	authGroup.POST("/login", authController.Login)
	authGroup.POST("/logout", middleware.AuthRequired(), authController.Logout)
	authGroup.GET("/me", middleware.AuthRequired(), authController.Me)
	authGroup.PATCH("/profile", middleware.AuthRequired(), authController.UpdateProfile)

	// Public reads
	api.GET("/posts", postController.ListPosts)
	api.GET("/posts/:id", middleware.OptionalAuth(), postController.GetPost)
	api.GET("/categories", postController.ListCategories)
	api.GET("/news", newsController.ListNews)
	api.GET("/news/:id", newsController.GetNews)
	api.GET("/stats", statsController.Stats)
	api.GET("/overview", statsController.Overview)

	protected := api.Group("")
	protected.Use(middleware.AuthRequired())
	protected.POST("/posts", postController.CreatePost)
	protected.PUT("/posts/:id", postController.UpdatePost)
	protected.DELETE("/posts/:id", postController.DeletePost)
	protected.POST("/posts/:id/subscribe", subscriptionController.TogglePost)
	protected.POST("/posts/:id/responses", responseController.CreateResponse)
	protected.GET("/responses/:id", responseController.GetResponse)
	protected.POST("/responses/:id/accept", responseController.AcceptResponse)
	protected.POST("/responses/:id/reject", responseController.RejectResponse)
	protected.DELETE("/responses/:id", responseController.DeleteResponse)
	protected.GET("/cabinet", responseController.Cabinet)
	protected.GET("/subscriptions", subscriptionController.ListSubscriptions)
	protected.POST("/subscriptions/categories/:value/toggle", subscriptionController.ToggleCategory)
	protected.POST("/subscriptions/news/toggle", subscriptionController.ToggleNews)

	staff := api.Group("/news")
	staff.Use(middleware.AuthRequired(), middleware.StaffRequired())
	staff.POST("", newsController.CreateNews)
	staff.PUT("/:id", newsController.UpdateNews)
	staff.DELETE("/:id", newsController.DeleteNews)

	r.NoRoute(func(ctx *gin.Context) {
		utils.Error(ctx, http.StatusNotFound, 40400, "route not found")
	})

	return r
}
