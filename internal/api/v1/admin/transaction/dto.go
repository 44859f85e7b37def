package transaction

import (
	"aicredits-backend/internal/models"
	"time"
)

type TransactionListItem struct {
	ID             uint                   `json:"id"`
	CreatedAt      time.Time              `json:"created_at"`
	AccountID      uint                   `json:"account_id"`
	ChatAccountID  *uint                  `json:"chat_account_id,omitempty"`
	Type           models.TransactionType `json:"type"`
	Amount         int64                  `json:"amount"`
	BalanceAfter   int64                  `json:"balance_after"`
	ToolName       string                 `json:"tool_name,omitempty"`
	ModelID        string                 `json:"model_id,omitempty"`
	ExternalCharge string                 `json:"external_charge_id,omitempty"`
	IdempotencyKey *string                `json:"idempotency_key,omitempty"`
	Hash           string                 `json:"hash"`
}

type TransactionListResponse struct {
	Transactions []TransactionListItem `json:"transactions"`
	Total        int64                 `json:"total"`
	Page         int                   `json:"page"`
	Limit        int                   `json:"limit"`
}
