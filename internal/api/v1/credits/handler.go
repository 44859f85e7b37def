package credits

import (
	"aicredits-backend/internal/catalog"
	"aicredits-backend/internal/services"
	"aicredits-backend/internal/utils"
	"errors"
	"net/http"
	"sort"
	"strconv"

	"github.com/gin-gonic/gin"
)

var svc *services.CreditService

func accountID(c *gin.Context) uint {
	id, _ := c.Get("account_id")
	accountID, _ := id.(uint)
	return accountID
}

func chatAccountIDQuery(c *gin.Context) uint {
	chatIDStr := c.Query("chat_account_id")
	if chatIDStr == "" {
		return 0
	}
	chatID, err := strconv.Atoi(chatIDStr)
	if err != nil || chatID < 0 {
		return 0
	}
	return uint(chatID)
}

// GetBalance godoc
// @Summary Get credit balances
// @Description Get the caller's personal balance and the chat pool balance.
// @Tags credits
// @Produce json
// @Security Bearer
// @Param chat_account_id query int false "Chat account ID"
// @Param tool_name query string false "Include free-tier remaining for this tool"
// @Success 200 {object} utils.Response{data=BalanceResponse}
// @Failure 401 {object} utils.Response
// @Router /credits/balance [get]
func GetBalance(c *gin.Context) {
	userID := accountID(c)
	chatID := chatAccountIDQuery(c)

	chatCredits, userCredits, err := services.GetBalances(userID, chatID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, utils.NewErrorResponse(http.StatusInternalServerError, "Failed to fetch balances"))
		return
	}

	resp := BalanceResponse{
		ChatCredits: chatCredits,
		UserCredits: userCredits,
	}

	if toolName := c.Query("tool_name"); toolName != "" {
		tool, err := svc.Tool(toolName)
		if err != nil {
			c.JSON(http.StatusNotFound, utils.NewErrorResponse(http.StatusNotFound, err.Error()))
			return
		}
		used, err := services.GetDailyUsage(userID, chatID, toolName)
		if err != nil {
			c.JSON(http.StatusInternalServerError, utils.NewErrorResponse(http.StatusInternalServerError, "Failed to fetch usage"))
			return
		}
		remaining := tool.FreeDailyLimit - used
		if remaining < 0 {
			remaining = 0
		}
		resp.FreeRemaining = &remaining
	}

	c.JSON(http.StatusOK, utils.NewSuccessResponse("Balances retrieved successfully", resp))
}

// GetOrchestratorConfig godoc
// @Summary Get orchestrator configuration
// @Description Pick the orchestration model tier from the caller's balances.
// @Tags credits
// @Produce json
// @Security Bearer
// @Param chat_account_id query int false "Chat account ID"
// @Success 200 {object} utils.Response{data=OrchestratorConfigResponse}
// @Failure 401 {object} utils.Response
// @Router /credits/orchestrator-config [get]
func GetOrchestratorConfig(c *gin.Context) {
	tier, modelID, contextLimit, err := svc.GetOrchestratorConfig(accountID(c), chatAccountIDQuery(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, utils.NewErrorResponse(http.StatusInternalServerError, "Failed to resolve orchestrator config"))
		return
	}

	c.JSON(http.StatusOK, utils.NewSuccessResponse("Orchestrator config resolved", OrchestratorConfigResponse{
		Tier:         string(tier),
		ModelID:      modelID,
		ContextLimit: contextLimit,
	}))
}

// CheckToolAccess godoc
// @Summary Check tool access
// @Description Decide whether a tool may run and what it would cost. A funding shortfall is an allowed=false decision, not an error.
// @Tags credits
// @Accept json
// @Produce json
// @Security Bearer
// @Param request body CheckRequest true "Check request"
// @Success 200 {object} utils.Response{data=CheckResponse}
// @Failure 400 {object} utils.Response
// @Failure 404 {object} utils.Response
// @Router /credits/check [post]
func CheckToolAccess(c *gin.Context) {
	var req CheckRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	result, err := svc.CheckToolAccess(accountID(c), req.ChatAccountID, req.ToolName, req.ModelID)
	if err != nil {
		if errors.Is(err, catalog.ErrToolNotFound) || errors.Is(err, catalog.ErrModelNotFound) {
			c.JSON(http.StatusNotFound, utils.NewErrorResponse(http.StatusNotFound, err.Error()))
			return
		}
		c.JSON(http.StatusInternalServerError, utils.NewErrorResponse(http.StatusInternalServerError, "Failed to check tool access"))
		return
	}

	c.JSON(http.StatusOK, utils.NewSuccessResponse("Tool access checked", toCheckResponse(result)))
}

// Deduct godoc
// @Summary Settle a tool run
// @Description Charge for a successful tool run according to a prior check decision. Safe to retry with the same idempotency key.
// @Tags credits
// @Accept json
// @Produce json
// @Security Bearer
// @Param request body DeductRequest true "Deduct request"
// @Success 200 {object} utils.Response
// @Failure 400 {object} utils.Response
// @Failure 402 {object} utils.Response
// @Router /credits/deduct [post]
func Deduct(c *gin.Context) {
	var req DeductRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	result := services.CreditCheckResult{
		Allowed:         true,
		Tier:            catalog.ModelTier(req.Tier),
		ModelID:         req.ModelID,
		Source:          services.CheckSource(req.Source),
		CreditsToDeduct: req.CreditsToDeduct,
	}

	err := svc.Deduct(result, accountID(c), req.ChatAccountID, req.ToolName, req.IdempotencyKey, req.Metadata)
	if err != nil {
		if errors.Is(err, services.ErrInsufficientCredits) {
			c.JSON(http.StatusPaymentRequired, utils.NewErrorResponse(http.StatusPaymentRequired, "Insufficient credits"))
			return
		}
		if errors.Is(err, services.ErrCheckRejected) {
			c.JSON(http.StatusBadRequest, utils.NewErrorResponse(http.StatusBadRequest, err.Error()))
			return
		}
		c.JSON(http.StatusInternalServerError, utils.NewErrorResponse(http.StatusInternalServerError, "Failed to deduct credits"))
		return
	}

	c.JSON(http.StatusOK, utils.NewSuccessResponse("Deduction applied", nil))
}

// ListPacks godoc
// @Summary List credit packs
// @Description Get the purchasable credit packs.
// @Tags credits
// @Produce json
// @Security Bearer
// @Success 200 {object} utils.Response{data=[]PackItem}
// @Router /credits/packs [get]
func ListPacks(c *gin.Context) {
	packs := catalog.Packs()
	sort.Slice(packs, func(i, j int) bool { return packs[i].Credits < packs[j].Credits })

	items := make([]PackItem, 0, len(packs))
	for _, p := range packs {
		items = append(items, PackItem{
			ID:       p.ID,
			Name:     p.Name,
			Stars:    p.Stars,
			Credits:  p.Credits,
			BonusPct: p.BonusPct,
		})
	}

	c.JSON(http.StatusOK, utils.NewSuccessResponse("Packs retrieved successfully", items))
}

// Purchase godoc
// @Summary Settle a credit purchase
// @Description Credit an account after a confirmed payment. Replaying the same charge id raises the balance exactly once.
// @Tags credits
// @Accept json
// @Produce json
// @Security Bearer
// @Param request body PurchaseRequest true "Purchase request"
// @Success 200 {object} utils.Response{data=PurchaseResponse}
// @Failure 400 {object} utils.Response
// @Router /credits/purchase [post]
func Purchase(c *gin.Context) {
	var req PurchaseRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	newBalance, err := svc.PurchaseCredits(accountID(c), req.ChatAccountID, req.Amount, req.ExternalChargeID, req.PackID)
	if err != nil {
		if errors.Is(err, services.ErrAccountNotFound) {
			c.JSON(http.StatusNotFound, utils.NewErrorResponse(http.StatusNotFound, "Account not found"))
			return
		}
		c.JSON(http.StatusInternalServerError, utils.NewErrorResponse(http.StatusInternalServerError, "Failed to settle purchase"))
		return
	}

	c.JSON(http.StatusOK, utils.NewSuccessResponse("Purchase settled", PurchaseResponse{NewBalance: newBalance}))
}

// Refund godoc
// @Summary Refund a purchase
// @Description Reverse a previous purchase by its charge id. Repeated calls are a no-op.
// @Tags credits
// @Accept json
// @Produce json
// @Security Bearer
// @Param request body RefundRequest true "Refund request"
// @Success 200 {object} utils.Response
// @Failure 400 {object} utils.Response
// @Failure 404 {object} utils.Response
// @Router /credits/refund [post]
func Refund(c *gin.Context) {
	var req RefundRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	if err := svc.RefundCredits(req.ExternalChargeID); err != nil {
		if errors.Is(err, services.ErrRefundOriginalMissing) {
			c.JSON(http.StatusNotFound, utils.NewErrorResponse(http.StatusNotFound, err.Error()))
			return
		}
		if errors.Is(err, services.ErrRefundNotPurchase) {
			c.JSON(http.StatusBadRequest, utils.NewErrorResponse(http.StatusBadRequest, err.Error()))
			return
		}
		c.JSON(http.StatusInternalServerError, utils.NewErrorResponse(http.StatusInternalServerError, "Failed to process refund"))
		return
	}

	c.JSON(http.StatusOK, utils.NewSuccessResponse("Refund processed", nil))
}

// Gift godoc
// @Summary Gift credits
// @Description Transfer credits from the caller's balance to another account.
// @Tags credits
// @Accept json
// @Produce json
// @Security Bearer
// @Param request body GiftRequest true "Gift request"
// @Success 200 {object} utils.Response
// @Failure 400 {object} utils.Response
// @Failure 402 {object} utils.Response
// @Router /credits/gift [post]
func Gift(c *gin.Context) {
	var req GiftRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	err := svc.GiftCredits(accountID(c), req.ToAccountID, req.Amount, req.IdempotencyKey)
	if err != nil {
		if errors.Is(err, services.ErrInsufficientCredits) {
			c.JSON(http.StatusPaymentRequired, utils.NewErrorResponse(http.StatusPaymentRequired, "Insufficient credits"))
			return
		}
		if errors.Is(err, services.ErrAccountNotFound) {
			c.JSON(http.StatusNotFound, utils.NewErrorResponse(http.StatusNotFound, "Account not found"))
			return
		}
		if errors.Is(err, services.ErrInvalidAmount) {
			c.JSON(http.StatusBadRequest, utils.NewErrorResponse(http.StatusBadRequest, err.Error()))
			return
		}
		c.JSON(http.StatusInternalServerError, utils.NewErrorResponse(http.StatusInternalServerError, "Failed to gift credits"))
		return
	}

	c.JSON(http.StatusOK, utils.NewSuccessResponse("Credits gifted", nil))
}

// GetHistory godoc
// @Summary Get transaction history
// @Description Get the caller's most recent ledger entries.
// @Tags credits
// @Produce json
// @Security Bearer
// @Param limit query int false "Max entries" default(50)
// @Success 200 {object} utils.Response{data=HistoryResponse}
// @Failure 401 {object} utils.Response
// @Router /credits/history [get]
func GetHistory(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))

	transactions, err := services.GetAccountTransactions(accountID(c), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, utils.NewErrorResponse(http.StatusInternalServerError, "Failed to fetch history"))
		return
	}

	items := make([]HistoryItem, 0, len(transactions))
	for _, t := range transactions {
		items = append(items, HistoryItem{
			ID:           t.ID,
			CreatedAt:    t.CreatedAt,
			Type:         t.Type,
			Amount:       t.Amount,
			BalanceAfter: t.BalanceAfter,
			ToolName:     t.ToolName,
			ModelID:      t.ModelID,
		})
	}

	c.JSON(http.StatusOK, utils.NewSuccessResponse("History retrieved successfully", HistoryResponse{Transactions: items}))
}
