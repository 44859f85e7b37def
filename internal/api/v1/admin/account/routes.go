package account

import (
	"aicredits-backend/internal/services"

	"github.com/gin-gonic/gin"
)

func RegisterRoutes(router *gin.RouterGroup, creditService *services.CreditService) {
	svc = creditService

	router.POST("/accounts", CreateAccount)
	router.GET("/accounts", ListAccounts)
	router.POST("/accounts/:id/bonus", GrantBonus)
	router.GET("/accounts/:id/audit", AuditAccount)
}
