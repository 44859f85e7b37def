package main

import (
	"aicredits-backend/config"
	"aicredits-backend/internal/api"
	"aicredits-backend/internal/database"
	"aicredits-backend/internal/models"
	"aicredits-backend/pkg/logger"
	"log"
)

// @title aicredits-backend API
// @version 1.0
// @description Credit ledger and tool access control for the assistant platform.

// @host localhost:8080
// @BasePath /api/v1

// @securityDefinitions.apikey Bearer
// @in header
// @name Authorization

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	err = logger.InitLogger(&logger.Config{
		Level:      cfg.LogLevel,
		Filename:   cfg.LogFilename,
		MaxSize:    cfg.LogMaxSize,
		MaxBackups: cfg.LogMaxBackups,
		MaxAge:     cfg.LogMaxAge,
		Compress:   cfg.LogCompress,
	})
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync()

	router, err := api.NewRouter()
	if err != nil {
		log.Fatalf("failed to create router: %v", err)
	}

	// Migrate the schema
	err = database.DB.AutoMigrate(
		&models.Account{},
		&models.CreditTransaction{},
		&models.DailyUsage{},
	)
	if err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}

	initSystemAccount()

	if err := router.Run(":8080"); err != nil {
		log.Fatalf("failed to run server: %v", err)
	}
}

// initSystemAccount ensures the system account used as provenance for bonus
// grants and manual adjustments exists.
func initSystemAccount() {
	var account models.Account
	result := database.DB.Where("kind = ?", models.AccountKindSystem).First(&account)
	if result.Error != nil {
		account = models.Account{Kind: models.AccountKindSystem}
		if err := database.DB.Create(&account).Error; err != nil {
			log.Fatalf("failed to seed system account: %v", err)
		}
	}
}
