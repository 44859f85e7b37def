package account

import (
	"aicredits-backend/internal/models"
	"time"
)

type CreateAccountRequest struct {
	Kind string `json:"kind" binding:"required,oneof=user chat"`
}

type BonusRequest struct {
	Amount         int64  `json:"amount" binding:"required,min=1"`
	Reason         string `json:"reason" binding:"required"`
	IdempotencyKey string `json:"idempotency_key"`
}

type AccountItem struct {
	ID        uint               `json:"id"`
	Kind      models.AccountKind `json:"kind"`
	Credits   int64              `json:"credits"`
	CreatedAt time.Time          `json:"created_at"`
}

type AccountListResponse struct {
	Accounts []AccountItem `json:"accounts"`
	Total    int64         `json:"total"`
	Page     int           `json:"page"`
	Limit    int           `json:"limit"`
}

type BonusResponse struct {
	NewBalance int64 `json:"new_balance"`
}

// AuditResponse compares the stored balance against the ledger replay.
type AuditResponse struct {
	AccountID      uint  `json:"account_id"`
	StoredCredits  int64 `json:"stored_credits"`
	LedgerCredits  int64 `json:"ledger_credits"`
	Consistent     bool  `json:"consistent"`
	DriftedCredits int64 `json:"drifted_credits"`
}
