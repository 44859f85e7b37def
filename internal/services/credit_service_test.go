package services

import (
	"aicredits-backend/internal/catalog"
	"aicredits-backend/internal/database"
	"aicredits-backend/internal/models"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestCreditService builds a service over a small fixture catalog:
// search is free once per day, paint costs 5 + the image model's 193,
// and reason costs 10 + the standard text model's 7.
func newTestCreditService(t *testing.T) *CreditService {
	t.Helper()

	cat, err := catalog.New(
		[]catalog.ModelConfig{
			{ID: "test-cheap", Type: catalog.ModelTypeText, Tier: catalog.TierCheap, IsDefault: true},
			{ID: "test-standard", Type: catalog.ModelTypeText, Tier: catalog.TierStandard,
				InputCostPer1M: 150_000, OutputCostPer1M: 600_000, IsDefault: true},
			{ID: "test-image", Type: catalog.ModelTypeImage, Tier: catalog.TierStandard,
				PerRequestCost: 38_700, IsDefault: true},
		},
		[]catalog.ToolConfig{
			{Name: "search", ModelType: catalog.ModelTypeText, FreeDailyLimit: 1},
			{Name: "paint", ModelType: catalog.ModelTypeImage, DefaultModelID: "test-image", BaseCreditCost: 5},
			{Name: "reason", ModelType: catalog.ModelTypeText, BaseCreditCost: 10},
		},
	)
	require.NoError(t, err)
	return NewCreditService(cat)
}

func TestCheckToolAccessFreeWinsOverCredits(t *testing.T) {
	setupLedgerTestDB()
	svc := newTestCreditService(t)

	user := seedAccount(models.AccountKindUser, 1000)
	chat := seedAccount(models.AccountKindChat, 1000)

	result, err := svc.CheckToolAccess(user.ID, chat.ID, "search", "")
	assert.NoError(t, err)
	assert.True(t, result.Allowed)
	assert.Equal(t, SourceFree, result.Source)
	assert.True(t, result.IsFreeUse())
	require.NotNil(t, result.FreeRemaining)
	assert.Equal(t, 0, *result.FreeRemaining)
	assert.Nil(t, result.CreditsRemaining)
	assert.Equal(t, int64(0), result.CreditsToDeduct)
}

func TestCheckToolAccessChatAfterFreeExhausted(t *testing.T) {
	setupLedgerTestDB()
	svc := newTestCreditService(t)

	user := seedAccount(models.AccountKindUser, 1000)
	chat := seedAccount(models.AccountKindChat, 1000)

	_, err := IncrementDailyUsage(user.ID, chat.ID, "search")
	require.NoError(t, err)

	result, err := svc.CheckToolAccess(user.ID, chat.ID, "search", "")
	assert.NoError(t, err)
	assert.True(t, result.Allowed)
	assert.Equal(t, SourceChat, result.Source)
	assert.True(t, result.IsPaid())
	// search has no base cost, so the standard text model's price applies.
	assert.Equal(t, int64(7), result.CreditsToDeduct)
	require.NotNil(t, result.CreditsRemaining)
	assert.Equal(t, int64(993), *result.CreditsRemaining)
}

func TestCheckToolAccessUserFallback(t *testing.T) {
	setupLedgerTestDB()
	svc := newTestCreditService(t)

	user := seedAccount(models.AccountKindUser, 500)
	chat := seedAccount(models.AccountKindChat, 3)

	result, err := svc.CheckToolAccess(user.ID, chat.ID, "paint", "")
	assert.NoError(t, err)
	assert.True(t, result.Allowed)
	assert.Equal(t, SourceUser, result.Source)
	assert.Equal(t, int64(198), result.CreditsToDeduct)
	require.NotNil(t, result.CreditsRemaining)
	assert.Equal(t, int64(302), *result.CreditsRemaining)
	assert.Equal(t, "test-image", result.ModelID)
}

func TestCheckToolAccessExactBalance(t *testing.T) {
	setupLedgerTestDB()
	svc := newTestCreditService(t)

	user := seedAccount(models.AccountKindUser, 198)

	result, err := svc.CheckToolAccess(user.ID, 0, "paint", "")
	assert.NoError(t, err)
	assert.True(t, result.Allowed)
	assert.Equal(t, SourceUser, result.Source)
	assert.Equal(t, int64(0), *result.CreditsRemaining)
}

func TestCheckToolAccessRejected(t *testing.T) {
	setupLedgerTestDB()
	svc := newTestCreditService(t)

	user := seedAccount(models.AccountKindUser, 5)
	chat := seedAccount(models.AccountKindChat, 5)

	result, err := svc.CheckToolAccess(user.ID, chat.ID, "reason", "")
	assert.NoError(t, err)
	assert.False(t, result.Allowed)
	assert.Equal(t, SourceRejected, result.Source)
	assert.Contains(t, result.RejectReason, "need 17 credits")
}

func TestCheckToolAccessModelOverride(t *testing.T) {
	setupLedgerTestDB()
	svc := newTestCreditService(t)

	user := seedAccount(models.AccountKindUser, 100)

	result, err := svc.CheckToolAccess(user.ID, 0, "reason", "test-cheap")
	assert.NoError(t, err)
	// 10 base + 1 credit for the zero-priced cheap model.
	assert.Equal(t, int64(11), result.CreditsToDeduct)
	assert.Equal(t, "test-cheap", result.ModelID)
	assert.Equal(t, catalog.TierCheap, result.Tier)
}

func TestCheckToolAccessUnknownTool(t *testing.T) {
	setupLedgerTestDB()
	svc := newTestCreditService(t)

	_, err := svc.CheckToolAccess(1, 0, "does_not_exist", "")
	assert.ErrorIs(t, err, catalog.ErrToolNotFound)
}

func TestDeductFreeSource(t *testing.T) {
	setupLedgerTestDB()
	svc := newTestCreditService(t)

	user := seedAccount(models.AccountKindUser, 1000)
	chat := seedAccount(models.AccountKindChat, 1000)

	result, err := svc.CheckToolAccess(user.ID, chat.ID, "search", "")
	require.NoError(t, err)
	require.Equal(t, SourceFree, result.Source)

	err = svc.Deduct(result, user.ID, chat.ID, "search", "", nil)
	assert.NoError(t, err)

	used, err := GetDailyUsage(user.ID, chat.ID, "search")
	assert.NoError(t, err)
	assert.Equal(t, 1, used)

	// Free use touches neither balance and writes no ledger row.
	var updated models.Account
	database.DB.First(&updated, chat.ID)
	assert.Equal(t, int64(1000), updated.Credits)

	var count int64
	database.DB.Model(&models.CreditTransaction{}).Count(&count)
	assert.Equal(t, int64(0), count)
}

func TestDeductChatSource(t *testing.T) {
	setupLedgerTestDB()
	svc := newTestCreditService(t)

	user := seedAccount(models.AccountKindUser, 0)
	chat := seedAccount(models.AccountKindChat, 1000)

	result, err := svc.CheckToolAccess(user.ID, chat.ID, "paint", "")
	require.NoError(t, err)
	require.Equal(t, SourceChat, result.Source)

	err = svc.Deduct(result, user.ID, chat.ID, "paint", "act-1", nil)
	assert.NoError(t, err)

	var updated models.Account
	database.DB.First(&updated, chat.ID)
	assert.Equal(t, int64(802), updated.Credits)

	var row models.CreditTransaction
	database.DB.Last(&row)
	assert.Equal(t, chat.ID, row.AccountID)
	require.NotNil(t, row.ChatAccountID)
	assert.Equal(t, chat.ID, *row.ChatAccountID)
	assert.Equal(t, "paint", row.ToolName)
	assert.Equal(t, "test-image", row.ModelID)
}

func TestDeductUserSource(t *testing.T) {
	setupLedgerTestDB()
	svc := newTestCreditService(t)

	user := seedAccount(models.AccountKindUser, 200)

	result, err := svc.CheckToolAccess(user.ID, 0, "paint", "")
	require.NoError(t, err)
	require.Equal(t, SourceUser, result.Source)

	err = svc.Deduct(result, user.ID, 0, "paint", "act-2", nil)
	assert.NoError(t, err)

	var updated models.Account
	database.DB.First(&updated, user.ID)
	assert.Equal(t, int64(2), updated.Credits)
}

func TestDeductIdempotent(t *testing.T) {
	setupLedgerTestDB()
	svc := newTestCreditService(t)

	user := seedAccount(models.AccountKindUser, 200)

	result, err := svc.CheckToolAccess(user.ID, 0, "paint", "")
	require.NoError(t, err)

	require.NoError(t, svc.Deduct(result, user.ID, 0, "paint", "act-3", nil))
	require.NoError(t, svc.Deduct(result, user.ID, 0, "paint", "act-3", nil))

	var updated models.Account
	database.DB.First(&updated, user.ID)
	assert.Equal(t, int64(2), updated.Credits)

	var count int64
	database.DB.Model(&models.CreditTransaction{}).Count(&count)
	assert.Equal(t, int64(1), count)
}

func TestDeductRejectedResult(t *testing.T) {
	setupLedgerTestDB()
	svc := newTestCreditService(t)

	err := svc.Deduct(CreditCheckResult{Allowed: false, Source: SourceRejected}, 1, 0, "paint", "", nil)
	assert.ErrorIs(t, err, ErrCheckRejected)
}

func TestPurchaseCreditsIdempotent(t *testing.T) {
	setupLedgerTestDB()
	svc := newTestCreditService(t)

	user := seedAccount(models.AccountKindUser, 0)

	balance, err := svc.PurchaseCredits(user.ID, nil, 100, "tg-charge-1", "starter")
	assert.NoError(t, err)
	assert.Equal(t, int64(100), balance)

	balance, err = svc.PurchaseCredits(user.ID, nil, 100, "tg-charge-1", "starter")
	assert.NoError(t, err)
	assert.Equal(t, int64(100), balance)

	var updated models.Account
	database.DB.First(&updated, user.ID)
	assert.Equal(t, int64(100), updated.Credits)

	var row models.CreditTransaction
	database.DB.Last(&row)
	assert.Equal(t, models.TransactionTypePurchase, row.Type)
	assert.Equal(t, "tg-charge-1", row.ExternalChargeID)
}

func TestPurchaseCreditsToChat(t *testing.T) {
	setupLedgerTestDB()
	svc := newTestCreditService(t)

	user := seedAccount(models.AccountKindUser, 0)
	chat := seedAccount(models.AccountKindChat, 0)

	balance, err := svc.PurchaseCredits(user.ID, &chat.ID, 500, "tg-charge-2", "standard")
	assert.NoError(t, err)
	assert.Equal(t, int64(500), balance)

	var updatedChat, updatedUser models.Account
	database.DB.First(&updatedChat, chat.ID)
	database.DB.First(&updatedUser, user.ID)
	assert.Equal(t, int64(500), updatedChat.Credits)
	assert.Equal(t, int64(0), updatedUser.Credits)
}

func TestRefundCredits(t *testing.T) {
	setupLedgerTestDB()
	svc := newTestCreditService(t)

	user := seedAccount(models.AccountKindUser, 0)

	_, err := svc.PurchaseCredits(user.ID, nil, 100, "tg-charge-3", "starter")
	require.NoError(t, err)

	err = svc.RefundCredits("tg-charge-3")
	assert.NoError(t, err)

	var updated models.Account
	database.DB.First(&updated, user.ID)
	assert.Equal(t, int64(0), updated.Credits)

	// Refund replay is a no-op.
	err = svc.RefundCredits("tg-charge-3")
	assert.NoError(t, err)

	database.DB.First(&updated, user.ID)
	assert.Equal(t, int64(0), updated.Credits)

	var count int64
	database.DB.Model(&models.CreditTransaction{}).Where("type = ?", models.TransactionTypeRefund).Count(&count)
	assert.Equal(t, int64(1), count)
}

func TestRefundCreditsUnknownCharge(t *testing.T) {
	setupLedgerTestDB()
	svc := newTestCreditService(t)

	err := svc.RefundCredits("never-happened")
	assert.ErrorIs(t, err, ErrRefundOriginalMissing)
}

func TestRefundCreditsNotAPurchase(t *testing.T) {
	setupLedgerTestDB()
	svc := newTestCreditService(t)

	user := seedAccount(models.AccountKindUser, 0)

	_, err := svc.GrantBonus(user.ID, 50, "promo", "bonus-key-1")
	require.NoError(t, err)

	err = svc.RefundCredits("bonus-key-1")
	assert.ErrorIs(t, err, ErrRefundNotPurchase)
}

func TestGetOrchestratorConfig(t *testing.T) {
	setupLedgerTestDB()
	svc := newTestCreditService(t)

	user := seedAccount(models.AccountKindUser, 0)
	chat := seedAccount(models.AccountKindChat, 0)

	tier, modelID, contextLimit, err := svc.GetOrchestratorConfig(user.ID, chat.ID)
	assert.NoError(t, err)
	assert.Equal(t, catalog.TierCheap, tier)
	assert.Equal(t, "test-cheap", modelID)
	assert.Equal(t, 10, contextLimit)

	_, err = svc.GrantBonus(user.ID, 10, "promo", "")
	require.NoError(t, err)

	tier, modelID, contextLimit, err = svc.GetOrchestratorConfig(user.ID, chat.ID)
	assert.NoError(t, err)
	assert.Equal(t, catalog.TierStandard, tier)
	assert.Equal(t, "test-standard", modelID)
	assert.Equal(t, 100, contextLimit)
}

func TestGiftCredits(t *testing.T) {
	setupLedgerTestDB()
	svc := newTestCreditService(t)

	from := seedAccount(models.AccountKindUser, 100)
	to := seedAccount(models.AccountKindUser, 0)

	err := svc.GiftCredits(from.ID, to.ID, 60, "gift-key-1")
	assert.NoError(t, err)

	var fromUpdated, toUpdated models.Account
	database.DB.First(&fromUpdated, from.ID)
	database.DB.First(&toUpdated, to.ID)
	assert.Equal(t, int64(40), fromUpdated.Credits)
	assert.Equal(t, int64(60), toUpdated.Credits)
}
