package account

import (
	"aicredits-backend/internal/models"
	"aicredits-backend/internal/services"
	"aicredits-backend/internal/utils"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

var svc *services.CreditService

// CreateAccount godoc
// @Summary Create an account
// @Description Provision a fresh zero-balance user or chat account. Admin only.
// @Tags admin
// @Accept json
// @Produce json
// @Security Bearer
// @Param request body CreateAccountRequest true "Account request"
// @Success 200 {object} utils.Response{data=AccountItem}
// @Failure 400 {object} utils.Response
// @Router /admin/accounts [post]
func CreateAccount(c *gin.Context) {
	var req CreateAccountRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	acc, err := services.CreateAccount(models.AccountKind(req.Kind))
	if err != nil {
		c.JSON(http.StatusInternalServerError, utils.NewErrorResponse(http.StatusInternalServerError, "Failed to create account"))
		return
	}

	c.JSON(http.StatusOK, utils.NewSuccessResponse("Account created", AccountItem{
		ID:        acc.ID,
		Kind:      acc.Kind,
		Credits:   acc.Credits,
		CreatedAt: acc.CreatedAt,
	}))
}

// ListAccounts godoc
// @Summary List accounts
// @Description Get a paginated list of accounts. Admin only.
// @Tags admin
// @Produce json
// @Security Bearer
// @Param page query int false "Page number" default(1)
// @Param limit query int false "Items per page" default(20)
// @Param kind query string false "Filter by kind (user|chat)"
// @Success 200 {object} utils.Response{data=AccountListResponse}
// @Failure 400 {object} utils.Response
// @Router /admin/accounts [get]
func ListAccounts(c *gin.Context) {
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

	var kind *models.AccountKind
	if kindStr, exists := c.GetQuery("kind"); exists {
		k := models.AccountKind(kindStr)
		kind = &k
	}

	accounts, total, err := services.FindAccounts(kind, page, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, utils.NewErrorResponse(http.StatusInternalServerError, "Failed to fetch accounts"))
		return
	}

	var items []AccountItem
	for _, a := range accounts {
		items = append(items, AccountItem{
			ID:        a.ID,
			Kind:      a.Kind,
			Credits:   a.Credits,
			CreatedAt: a.CreatedAt,
		})
	}

	c.JSON(http.StatusOK, utils.NewSuccessResponse("Accounts retrieved successfully", AccountListResponse{
		Accounts: items,
		Total:    total,
		Page:     page,
		Limit:    limit,
	}))
}

// GrantBonus godoc
// @Summary Grant bonus credits
// @Description Credit an account with promotional credits. Admin only.
// @Tags admin
// @Accept json
// @Produce json
// @Security Bearer
// @Param id path int true "Account ID"
// @Param request body BonusRequest true "Bonus request"
// @Success 200 {object} utils.Response{data=BonusResponse}
// @Failure 400 {object} utils.Response
// @Failure 404 {object} utils.Response
// @Router /admin/accounts/{id}/bonus [post]
func GrantBonus(c *gin.Context) {
	accountID, err := strconv.Atoi(c.Param("id"))
	if err != nil || accountID < 1 {
		c.JSON(http.StatusBadRequest, utils.NewErrorResponse(http.StatusBadRequest, "Invalid account ID"))
		return
	}

	var req BonusRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	newBalance, err := svc.GrantBonus(uint(accountID), req.Amount, req.Reason, req.IdempotencyKey)
	if err != nil {
		if errors.Is(err, services.ErrAccountNotFound) {
			c.JSON(http.StatusNotFound, utils.NewErrorResponse(http.StatusNotFound, "Account not found"))
			return
		}
		c.JSON(http.StatusInternalServerError, utils.NewErrorResponse(http.StatusInternalServerError, "Failed to grant bonus"))
		return
	}

	c.JSON(http.StatusOK, utils.NewSuccessResponse("Bonus granted", BonusResponse{NewBalance: newBalance}))
}

// AuditAccount godoc
// @Summary Audit an account
// @Description Replay the account's full ledger and compare against the stored balance. Admin only.
// @Tags admin
// @Produce json
// @Security Bearer
// @Param id path int true "Account ID"
// @Success 200 {object} utils.Response{data=AuditResponse}
// @Failure 400 {object} utils.Response
// @Failure 404 {object} utils.Response
// @Router /admin/accounts/{id}/audit [get]
func AuditAccount(c *gin.Context) {
	accountID, err := strconv.Atoi(c.Param("id"))
	if err != nil || accountID < 1 {
		c.JSON(http.StatusBadRequest, utils.NewErrorResponse(http.StatusBadRequest, "Invalid account ID"))
		return
	}

	acc, err := services.FindAccountByID(uint(accountID))
	if err != nil {
		if errors.Is(err, services.ErrAccountNotFound) {
			c.JSON(http.StatusNotFound, utils.NewErrorResponse(http.StatusNotFound, "Account not found"))
			return
		}
		c.JSON(http.StatusInternalServerError, utils.NewErrorResponse(http.StatusInternalServerError, "Failed to fetch account"))
		return
	}

	ledgerCredits, err := services.ReplayBalance(acc.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, utils.NewErrorResponse(http.StatusInternalServerError, "Failed to replay ledger"))
		return
	}

	c.JSON(http.StatusOK, utils.NewSuccessResponse("Audit complete", AuditResponse{
		AccountID:      acc.ID,
		StoredCredits:  acc.Credits,
		LedgerCredits:  ledgerCredits,
		Consistent:     acc.Credits == ledgerCredits,
		DriftedCredits: acc.Credits - ledgerCredits,
	}))
}
