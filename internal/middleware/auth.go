package middleware

import (
	"aicredits-backend/internal/services"
	"aicredits-backend/internal/utils"
	"net/http"

	"github.com/gin-gonic/gin"
)

// AuthMiddleware validates the bearer token and loads the caller's account
// into the context under "account" and "account_id".
func AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString, err := utils.ExtractToken(c)
		if err != nil {
			c.JSON(http.StatusUnauthorized, utils.NewErrorResponse(http.StatusUnauthorized, err.Error()))
			c.Abort()
			return
		}

		claims, err := utils.ValidateToken(tokenString)
		if err != nil {
			c.JSON(http.StatusUnauthorized, utils.NewErrorResponse(http.StatusUnauthorized, "Invalid or expired token"))
			c.Abort()
			return
		}

		accountIDFloat, ok := claims["account_id"].(float64)
		if !ok {
			c.JSON(http.StatusUnauthorized, utils.NewErrorResponse(http.StatusUnauthorized, "Invalid account ID in token"))
			c.Abort()
			return
		}
		accountID := uint(accountIDFloat)

		account, err := services.FindAccountByID(accountID)
		if err != nil {
			c.JSON(http.StatusUnauthorized, utils.NewErrorResponse(http.StatusUnauthorized, "Account not found"))
			c.Abort()
			return
		}

		c.Set("account", account)
		c.Set("account_id", accountID)
		c.Next()
	}
}
