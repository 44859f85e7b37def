package api

import (
	"aicredits-backend/config"
	adminAccount "aicredits-backend/internal/api/v1/admin/account"
	adminTransaction "aicredits-backend/internal/api/v1/admin/transaction"
	"aicredits-backend/internal/api/v1/credits"
	"aicredits-backend/internal/catalog"
	"aicredits-backend/internal/database"
	"aicredits-backend/internal/middleware"
	"aicredits-backend/internal/services"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

func NewRouter() (*gin.Engine, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, err
	}

	_, err = database.Connect(cfg.DSN())
	if err != nil {
		return nil, err
	}

	err = database.ConnectRedis(cfg)
	if err != nil {
		return nil, err
	}

	cat, err := catalog.Builtin()
	if err != nil {
		return nil, err
	}
	creditService := services.NewCreditService(cat)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.Logger())

	// Configure CORS
	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"http://localhost:5173", "http://localhost:8080"},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Swagger
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// API v1
	v1 := router.Group("/api/v1")
	{
		authorized := v1.Group("/")
		authorized.Use(middleware.AuthMiddleware())
		{
			credits.RegisterRoutes(authorized, creditService)
		}

		// Admin routes
		admin := v1.Group("/admin")
		admin.Use(middleware.AdminAuthMiddleware())
		{
			adminAccount.RegisterRoutes(admin, creditService)
			adminTransaction.RegisterRoutes(admin)
		}
	}

	return router, nil
}
