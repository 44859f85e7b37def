package credits

import (
	"aicredits-backend/internal/services"

	"github.com/gin-gonic/gin"
)

// RegisterRoutes wires the credit endpoints. The credit service is built once
// at startup from the immutable catalog.
func RegisterRoutes(router *gin.RouterGroup, creditService *services.CreditService) {
	svc = creditService

	group := router.Group("/credits")
	{
		group.GET("/balance", GetBalance)
		group.GET("/orchestrator-config", GetOrchestratorConfig)
		group.GET("/packs", ListPacks)
		group.GET("/history", GetHistory)
		group.POST("/check", CheckToolAccess)
		group.POST("/deduct", Deduct)
		group.POST("/purchase", Purchase)
		group.POST("/refund", Refund)
		group.POST("/gift", Gift)
	}
}
