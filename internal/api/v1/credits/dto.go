package credits

import (
	"aicredits-backend/internal/models"
	"aicredits-backend/internal/services"
	"time"
)

type BalanceResponse struct {
	ChatCredits int64 `json:"chat_credits"`
	UserCredits int64 `json:"user_credits"`

	// Free uses left today for the requested tool; present only when the
	// tool_name query parameter was given.
	FreeRemaining *int `json:"free_remaining,omitempty"`
}

type OrchestratorConfigResponse struct {
	Tier         string `json:"tier"`
	ModelID      string `json:"model_id"`
	ContextLimit int    `json:"context_limit"`
}

type CheckRequest struct {
	ToolName      string `json:"tool_name" binding:"required"`
	ModelID       string `json:"model_id"`
	ChatAccountID uint   `json:"chat_account_id"`
}

type CheckResponse struct {
	Allowed          bool   `json:"allowed"`
	Tier             string `json:"tier"`
	ModelID          string `json:"model_id"`
	Source           string `json:"source"`
	CreditsToDeduct  int64  `json:"credits_to_deduct"`
	CreditsRemaining *int64 `json:"credits_remaining,omitempty"`
	FreeRemaining    *int   `json:"free_remaining,omitempty"`
	RejectReason     string `json:"reject_reason,omitempty"`
}

// DeductRequest echoes a prior check decision back once the action succeeded.
type DeductRequest struct {
	ToolName        string                 `json:"tool_name" binding:"required"`
	Source          string                 `json:"source" binding:"required,oneof=free chat user"`
	ModelID         string                 `json:"model_id"`
	Tier            string                 `json:"tier"`
	CreditsToDeduct int64                  `json:"credits_to_deduct"`
	ChatAccountID   uint                   `json:"chat_account_id"`
	IdempotencyKey  string                 `json:"idempotency_key"`
	Metadata        map[string]interface{} `json:"metadata"`
}

type PurchaseRequest struct {
	Amount           int64  `json:"amount" binding:"required,min=1"`
	ExternalChargeID string `json:"external_charge_id" binding:"required"`
	PackID           string `json:"pack_id"`
	ChatAccountID    *uint  `json:"chat_account_id"`
}

type PurchaseResponse struct {
	NewBalance int64 `json:"new_balance"`
}

type RefundRequest struct {
	ExternalChargeID string `json:"external_charge_id" binding:"required"`
}

type GiftRequest struct {
	ToAccountID    uint   `json:"to_account_id" binding:"required"`
	Amount         int64  `json:"amount" binding:"required,min=1"`
	IdempotencyKey string `json:"idempotency_key" binding:"required"`
}

type PackItem struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Stars    int    `json:"stars"`
	Credits  int64  `json:"credits"`
	BonusPct int    `json:"bonus_pct"`
}

type HistoryItem struct {
	ID           uint                   `json:"id"`
	CreatedAt    time.Time              `json:"created_at"`
	Type         models.TransactionType `json:"type"`
	Amount       int64                  `json:"amount"`
	BalanceAfter int64                  `json:"balance_after"`
	ToolName     string                 `json:"tool_name,omitempty"`
	ModelID      string                 `json:"model_id,omitempty"`
}

type HistoryResponse struct {
	Transactions []HistoryItem `json:"transactions"`
}

func toCheckResponse(r services.CreditCheckResult) CheckResponse {
	return CheckResponse{
		Allowed:          r.Allowed,
		Tier:             string(r.Tier),
		ModelID:          r.ModelID,
		Source:           string(r.Source),
		CreditsToDeduct:  r.CreditsToDeduct,
		CreditsRemaining: r.CreditsRemaining,
		FreeRemaining:    r.FreeRemaining,
		RejectReason:     r.RejectReason,
	}
}
