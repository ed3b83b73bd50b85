package main

import (
	"github.com/joho/godotenv"

	"github.com/guildpost/guildpost/config"
	"github.com/guildpost/guildpost/models"
	"github.com/guildpost/guildpost/routes"
	"github.com/guildpost/guildpost/services"
	"github.com/guildpost/guildpost/utils"
)

func main() {
	// Optional .env file; real environment always wins.
	_ = godotenv.Load()

	cfg := config.Load()

	// Initialize logger early
	if err := utils.InitLogger(cfg); err != nil {
		panic(err)
	}

	db := config.InitDatabase(
		&models.User{},
		&models.EmailVerification{},
		&models.Category{},
		&models.Post{},
		&models.Response{},
		&models.News{},
		&models.Subscription{},
		&models.PostSubscription{},
		&models.UserActionLog{},
	)

	if err := models.SeedCategories(db); err != nil {
		utils.Sugar.Fatalf("category seeding failed: %v", err)
	}

	notifier := services.NewNotifier(db, utils.NewMailer())

	scheduler := services.NewScheduler(db, utils.NewMailer())
	if err := scheduler.Start(); err != nil {
		utils.Sugar.Fatalf("scheduler start failed: %v", err)
	}
	defer scheduler.Stop()

	r := routes.SetupRouter(db, notifier)

	utils.Sugar.Infof("Starting server on port %s (graceful)", cfg.AppPort)
	if err := utils.GraceServer(":"+cfg.AppPort, r); err != nil {
		utils.Sugar.Fatalf("server stopped with error: %v", err)
	}
}
