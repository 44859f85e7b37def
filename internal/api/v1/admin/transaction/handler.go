package transaction

import (
	"aicredits-backend/internal/models"
	"aicredits-backend/internal/services"
	"aicredits-backend/internal/utils"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
)

func parseFilter(c *gin.Context) (services.TransactionFilter, bool) {
	filter := services.TransactionFilter{}

	if accountIDStr, exists := c.GetQuery("account_id"); exists {
		accountID, err := strconv.Atoi(accountIDStr)
		if err != nil {
			c.JSON(http.StatusBadRequest, utils.NewErrorResponse(http.StatusBadRequest, "Invalid account_id"))
			return filter, false
		}
		id := uint(accountID)
		filter.AccountID = &id
	}

	if chatIDStr, exists := c.GetQuery("chat_account_id"); exists {
		chatID, err := strconv.Atoi(chatIDStr)
		if err != nil {
			c.JSON(http.StatusBadRequest, utils.NewErrorResponse(http.StatusBadRequest, "Invalid chat_account_id"))
			return filter, false
		}
		id := uint(chatID)
		filter.ChatAccountID = &id
	}

	if typeStr, exists := c.GetQuery("type"); exists {
		t := models.TransactionType(typeStr)
		filter.Type = &t
	}

	if toolName, exists := c.GetQuery("tool_name"); exists {
		filter.ToolName = &toolName
	}

	if startTimeStr, exists := c.GetQuery("start_time"); exists {
		startTime, err := time.Parse(time.RFC3339, startTimeStr)
		if err != nil {
			c.JSON(http.StatusBadRequest, utils.NewErrorResponse(http.StatusBadRequest, "Invalid start_time format"))
			return filter, false
		}
		filter.StartTime = &startTime
	}

	if endTimeStr, exists := c.GetQuery("end_time"); exists {
		endTime, err := time.Parse(time.RFC3339, endTimeStr)
		if err != nil {
			c.JSON(http.StatusBadRequest, utils.NewErrorResponse(http.StatusBadRequest, "Invalid end_time format"))
			return filter, false
		}
		filter.EndTime = &endTime
	}

	return filter, true
}

// ListTransactions godoc
// @Summary List ledger entries
// @Description Get a paginated list of ledger entries with filtering. Admin only.
// @Tags admin
// @Produce json
// @Security Bearer
// @Param page query int false "Page number" default(1)
// @Param limit query int false "Items per page" default(20)
// @Param account_id query int false "Filter by account ID"
// @Param chat_account_id query int false "Filter by chat account ID"
// @Param type query string false "Filter by transaction type"
// @Param tool_name query string false "Filter by tool name"
// @Param start_time query string false "Filter by start time (RFC3339)"
// @Param end_time query string false "Filter by end time (RFC3339)"
// @Success 200 {object} utils.Response{data=TransactionListResponse}
// @Failure 400 {object} utils.Response
// @Failure 401 {object} utils.Response
// @Failure 500 {object} utils.Response
// @Router /admin/transactions [get]
func ListTransactions(c *gin.Context) {
	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil || page < 1 {
		c.JSON(http.StatusBadRequest, utils.NewErrorResponse(http.StatusBadRequest, "Invalid page number"))
		return
	}

	limit, err := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if err != nil || limit < 1 {
		c.JSON(http.StatusBadRequest, utils.NewErrorResponse(http.StatusBadRequest, "Invalid limit number"))
		return
	}

	filter, ok := parseFilter(c)
	if !ok {
		return
	}
	filter.Page = page
	filter.Limit = limit

	transactions, total, err := services.FindTransactions(filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, utils.NewErrorResponse(http.StatusInternalServerError, "Failed to fetch transactions"))
		return
	}

	var items []TransactionListItem
	for _, t := range transactions {
		items = append(items, TransactionListItem{
			ID:             t.ID,
			CreatedAt:      t.CreatedAt,
			AccountID:      t.AccountID,
			ChatAccountID:  t.ChatAccountID,
			Type:           t.Type,
			Amount:         t.Amount,
			BalanceAfter:   t.BalanceAfter,
			ToolName:       t.ToolName,
			ModelID:        t.ModelID,
			ExternalCharge: t.ExternalChargeID,
			IdempotencyKey: t.IdempotencyKey,
			Hash:           t.Hash,
		})
	}

	c.JSON(http.StatusOK, utils.NewSuccessResponse("Transactions retrieved successfully", TransactionListResponse{
		Transactions: items,
		Total:        total,
		Page:         page,
		Limit:        limit,
	}))
}

// ExportTransactions godoc
// @Summary Export ledger entries
// @Description Export ledger entries to CSV. Admin only.
// @Tags admin
// @Produce text/csv
// @Security Bearer
// @Param account_id query int false "Filter by account ID"
// @Param chat_account_id query int false "Filter by chat account ID"
// @Param type query string false "Filter by transaction type"
// @Param tool_name query string false "Filter by tool name"
// @Param start_time query string false "Filter by start time (RFC3339)"
// @Param end_time query string false "Filter by end time (RFC3339)"
// @Success 200 {string} string "CSV content"
// @Failure 400 {object} utils.Response
// @Failure 401 {object} utils.Response
// @Failure 500 {object} utils.Response
// @Router /admin/transactions/export [get]
func ExportTransactions(c *gin.Context) {
	filter, ok := parseFilter(c)
	if !ok {
		return
	}
	filter.Page = 1
	filter.Limit = 10000 // hard limit for safety

	transactions, _, err := services.FindTransactions(filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, utils.NewErrorResponse(http.StatusInternalServerError, "Failed to fetch transactions"))
		return
	}

	csvContent, err := services.GenerateTransactionCSV(transactions)
	if err != nil {
		c.JSON(http.StatusInternalServerError, utils.NewErrorResponse(http.StatusInternalServerError, "Failed to generate CSV"))
		return
	}

	filename := fmt.Sprintf("transactions_%s.csv", time.Now().Format("20060102150405"))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s", filename))
	c.Data(http.StatusOK, "text/csv", csvContent)
}
