package services

import (
	"aicredits-backend/internal/catalog"
	"aicredits-backend/internal/models"
	"errors"
	"fmt"

	"go.uber.org/zap"
)

var (
	ErrCheckRejected         = errors.New("cannot deduct for a rejected check result")
	ErrRefundOriginalMissing = errors.New("original purchase not found")
	ErrRefundNotPurchase     = errors.New("transaction is not a purchase")
)

// CheckSource says which budget an allowed action draws from.
type CheckSource string

const (
	SourceFree     CheckSource = "free"
	SourceChat     CheckSource = "chat"
	SourceUser     CheckSource = "user"
	SourceRejected CheckSource = "rejected"
)

// CreditCheckResult is the decision produced by CheckToolAccess and consumed
// by Deduct after the action succeeds. It is a reservation hint, not a
// guarantee: the paid paths re-validate under lock at deduct time.
type CreditCheckResult struct {
	Allowed         bool
	Tier            catalog.ModelTier
	ModelID         string
	Source          CheckSource
	CreditsToDeduct int64

	// Balance that would remain after deduction; nil for free use.
	CreditsRemaining *int64

	// Free uses left today after this one; nil for paid use.
	FreeRemaining *int

	RejectReason string
}

// IsFreeUse reports whether this draws on the free daily allowance.
func (r CreditCheckResult) IsFreeUse() bool { return r.Source == SourceFree }

// IsPaid reports whether this spends chat or personal credits.
func (r CreditCheckResult) IsPaid() bool { return r.Source == SourceChat || r.Source == SourceUser }

// Message context sizes by tier.
var contextLimits = map[catalog.ModelTier]int{
	catalog.TierCheap:    10,
	catalog.TierStandard: 100,
	catalog.TierPremium:  100,
}

// CreditService decides whether monetized actions may proceed and charges for
// them once they succeed. The catalog is immutable and injected at startup.
type CreditService struct {
	cat *catalog.Catalog
}

func NewCreditService(cat *catalog.Catalog) *CreditService {
	return &CreditService{cat: cat}
}

// Tool exposes the catalog's tool lookup.
func (s *CreditService) Tool(name string) (catalog.ToolConfig, error) {
	return s.cat.Tool(name)
}

// GetOrchestratorConfig picks the orchestration tier from the credit balances:
// any positive balance (chat pool or personal) buys the standard model and the
// larger context window.
func (s *CreditService) GetOrchestratorConfig(userAccountID, chatAccountID uint) (catalog.ModelTier, string, int, error) {
	chatCredits, userCredits, err := GetBalances(userAccountID, chatAccountID)
	if err != nil {
		return "", "", 0, err
	}

	tier := catalog.TierCheap
	if chatCredits > 0 || userCredits > 0 {
		tier = catalog.TierStandard
	}

	model, err := s.cat.DefaultModel(catalog.ModelTypeText, tier)
	if err != nil {
		return "", "", 0, err
	}

	return tier, model.ID, contextLimits[tier], nil
}

// CheckToolAccess decides whether a tool may run and what it would cost.
//
// The evaluation order is a business rule: the free daily allowance wins even
// when paid balances would also cover the cost, then the chat pool, then the
// personal balance. A funding shortfall is a rejected decision, not an error.
func (s *CreditService) CheckToolAccess(userAccountID, chatAccountID uint, toolName, modelID string) (CreditCheckResult, error) {
	tool, err := s.cat.Tool(toolName)
	if err != nil {
		return CreditCheckResult{}, err
	}

	// Model resolution: explicit override > tool default > type default.
	var model catalog.ModelConfig
	switch {
	case modelID != "":
		model, err = s.cat.Model(modelID)
	case tool.DefaultModelID != "":
		model, err = s.cat.Model(tool.DefaultModelID)
	default:
		model, err = s.cat.DefaultModel(tool.ModelType, catalog.TierStandard)
	}
	if err != nil {
		return CreditCheckResult{}, err
	}

	totalCost := tool.TotalCost(model.CreditCost)

	chatCredits, userCredits, err := GetBalances(userAccountID, chatAccountID)
	if err != nil {
		return CreditCheckResult{}, err
	}

	if tool.FreeDailyLimit > 0 {
		used, err := GetDailyUsage(userAccountID, chatAccountID, toolName)
		if err != nil {
			return CreditCheckResult{}, err
		}
		if used < tool.FreeDailyLimit {
			freeRemaining := tool.FreeDailyLimit - used - 1
			return CreditCheckResult{
				Allowed:       true,
				Tier:          model.Tier,
				ModelID:       model.ID,
				Source:        SourceFree,
				FreeRemaining: &freeRemaining,
			}, nil
		}
	}

	if chatCredits >= totalCost {
		remaining := chatCredits - totalCost
		return CreditCheckResult{
			Allowed:          true,
			Tier:             model.Tier,
			ModelID:          model.ID,
			Source:           SourceChat,
			CreditsToDeduct:  totalCost,
			CreditsRemaining: &remaining,
		}, nil
	}

	if userCredits >= totalCost {
		remaining := userCredits - totalCost
		return CreditCheckResult{
			Allowed:          true,
			Tier:             model.Tier,
			ModelID:          model.ID,
			Source:           SourceUser,
			CreditsToDeduct:  totalCost,
			CreditsRemaining: &remaining,
		}, nil
	}

	return CreditCheckResult{
		Allowed:      false,
		Tier:         model.Tier,
		ModelID:      model.ID,
		Source:       SourceRejected,
		RejectReason: fmt.Sprintf("need %d credits for %s", totalCost, tool.Name),
	}, nil
}

// Deduct settles an allowed check result. Call it only after the billable
// action has succeeded. A repeated idempotency key is a no-op regardless of
// source.
func (s *CreditService) Deduct(result CreditCheckResult, userAccountID, chatAccountID uint, toolName, idempotencyKey string, metadata map[string]interface{}) error {
	if !result.Allowed || result.Source == SourceRejected {
		return ErrCheckRejected
	}

	if idempotencyKey != "" {
		existing, err := GetTransactionByIdempotencyKey(idempotencyKey)
		if err != nil {
			return err
		}
		if existing != nil {
			zap.L().Info("deduction skipped, already applied",
				zap.String("idempotency_key", idempotencyKey),
				zap.String("tool", toolName))
			return nil
		}
	}

	switch result.Source {
	case SourceFree:
		_, err := IncrementDailyUsage(userAccountID, chatAccountID, toolName)
		if err != nil {
			return err
		}
		zap.L().Info("free usage incremented",
			zap.String("tool", toolName),
			zap.Uint("account_id", userAccountID),
			zap.Uint("chat_account_id", chatAccountID))
		return nil

	case SourceChat:
		_, err := DeductCredits(chatAccountID, result.CreditsToDeduct, LedgerOptions{
			ChatAccountID:  &chatAccountID,
			ToolName:       toolName,
			ModelID:        result.ModelID,
			IdempotencyKey: idempotencyKey,
			Metadata:       metadata,
		})
		if err != nil {
			return err
		}
		zap.L().Info("chat credits deducted",
			zap.Int64("amount", result.CreditsToDeduct),
			zap.String("tool", toolName),
			zap.Uint("chat_account_id", chatAccountID))
		return nil

	case SourceUser:
		_, err := DeductCredits(userAccountID, result.CreditsToDeduct, LedgerOptions{
			ToolName:       toolName,
			ModelID:        result.ModelID,
			IdempotencyKey: idempotencyKey,
			Metadata:       metadata,
		})
		if err != nil {
			return err
		}
		zap.L().Info("user credits deducted",
			zap.Int64("amount", result.CreditsToDeduct),
			zap.String("tool", toolName),
			zap.Uint("account_id", userAccountID))
		return nil
	}

	return fmt.Errorf("unknown check source: %s", result.Source)
}

// PurchaseCredits settles a confirmed payment. The provider's charge id is the
// idempotency key, so a replayed confirmation raises the balance exactly once.
// When chatAccountID is set the credits go to the chat pool.
func (s *CreditService) PurchaseCredits(userAccountID uint, chatAccountID *uint, amount int64, externalChargeID, packID string) (int64, error) {
	if amount <= 0 {
		return 0, ErrInvalidAmount
	}

	existing, err := GetTransactionByIdempotencyKey(externalChargeID)
	if err != nil {
		return 0, err
	}
	if existing != nil {
		zap.L().Info("purchase skipped, duplicate charge",
			zap.String("external_charge_id", externalChargeID))
		return existing.BalanceAfter, nil
	}

	metadata := map[string]interface{}{}
	if packID != "" {
		if pack, ok := catalog.Pack(packID); ok {
			metadata["pack_name"] = pack.Name
		}
	}

	target := userAccountID
	opts := LedgerOptions{
		ExternalChargeID: externalChargeID,
		IdempotencyKey:   externalChargeID,
		Metadata:         metadata,
	}
	if chatAccountID != nil {
		target = *chatAccountID
		opts.ChatAccountID = chatAccountID
	}

	newBalance, err := AddCredits(target, amount, models.TransactionTypePurchase, opts)
	if err != nil {
		return 0, err
	}

	zap.L().Info("credits purchased",
		zap.Int64("amount", amount),
		zap.Uint("account_id", target),
		zap.Int64("new_balance", newBalance))
	return newBalance, nil
}

// RefundCredits reverses a previous purchase by its charge id with a
// compensating transaction. A repeated refund call is a no-op.
func (s *CreditService) RefundCredits(externalChargeID string) error {
	original, err := GetTransactionByIdempotencyKey(externalChargeID)
	if err != nil {
		return err
	}
	if original == nil {
		return fmt.Errorf("%w: %s", ErrRefundOriginalMissing, externalChargeID)
	}
	if original.Type != models.TransactionTypePurchase {
		return fmt.Errorf("%w: %s is %s", ErrRefundNotPurchase, externalChargeID, original.Type)
	}

	refundKey := "refund:" + externalChargeID
	existing, err := GetTransactionByIdempotencyKey(refundKey)
	if err != nil {
		return err
	}
	if existing != nil {
		zap.L().Info("refund already processed",
			zap.String("external_charge_id", externalChargeID))
		return nil
	}

	_, err = AddCredits(original.AccountID, -original.Amount, models.TransactionTypeRefund, LedgerOptions{
		ChatAccountID:  original.ChatAccountID,
		IdempotencyKey: refundKey,
		Metadata:       map[string]interface{}{"original_charge_id": externalChargeID},
	})
	if err != nil {
		return err
	}

	zap.L().Info("refund processed",
		zap.String("external_charge_id", externalChargeID),
		zap.Int64("amount", original.Amount))
	return nil
}

// GiftCredits transfers credits between accounts, writing a gift row on each
// side. The caller-supplied key makes retries safe.
func (s *CreditService) GiftCredits(fromAccountID, toAccountID uint, amount int64, idempotencyKey string) error {
	err := TransferCredits(fromAccountID, toAccountID, amount, idempotencyKey, map[string]interface{}{
		"from_account_id": fromAccountID,
		"to_account_id":   toAccountID,
	})
	if err != nil {
		return err
	}

	zap.L().Info("credits gifted",
		zap.Uint("from_account_id", fromAccountID),
		zap.Uint("to_account_id", toAccountID),
		zap.Int64("amount", amount))
	return nil
}

// GrantBonus credits an account with promotional credits.
func (s *CreditService) GrantBonus(accountID uint, amount int64, reason string, idempotencyKey string) (int64, error) {
	if amount <= 0 {
		return 0, ErrInvalidAmount
	}

	newBalance, err := AddCredits(accountID, amount, models.TransactionTypeBonus, LedgerOptions{
		IdempotencyKey: idempotencyKey,
		Metadata:       map[string]interface{}{"reason": reason},
	})
	if err != nil {
		return 0, err
	}

	zap.L().Info("bonus granted",
		zap.Uint("account_id", accountID),
		zap.Int64("amount", amount),
		zap.String("reason", reason))
	return newBalance, nil
}
