package models

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"gorm.io/datatypes"
)

type TransactionType string

const (
	TransactionTypePurchase TransactionType = "purchase" // bought via payment provider
	TransactionTypeSpend    TransactionType = "spend"    // used for a tool/feature
	TransactionTypeRefund   TransactionType = "refund"   // purchase reversed
	TransactionTypeGift     TransactionType = "gift"     // transferred between accounts
	TransactionTypeBonus    TransactionType = "bonus"    // promotional credits
	TransactionTypeExpire   TransactionType = "expire"   // reserved for credit expiry
)

// CreditTransaction is the append-only audit log of every balance change.
// Rows are never edited; a refund is a new compensating row. The unique
// idempotency key is what makes retried mutations at-most-once.
type CreditTransaction struct {
	ID        uint      `gorm:"primarykey"`
	CreatedAt time.Time `gorm:"precision:3"` // Millisecond precision

	// Account whose balance changed.
	AccountID uint `gorm:"index;not null"`

	// Chat pool context, when the spend happened inside a chat (nil otherwise).
	ChatAccountID *uint `gorm:"index"`

	Type TransactionType `gorm:"type:varchar(20);index;not null"`

	// Positive for credits in, negative for credits out.
	Amount int64 `gorm:"not null"`

	// Running balance after this transaction.
	BalanceAfter int64 `gorm:"not null"`

	// Context for spends.
	ToolName string `gorm:"type:varchar(50)"`
	ModelID  string `gorm:"type:varchar(100)"`

	// For purchases: the payment provider's charge id.
	ExternalChargeID string `gorm:"type:varchar(255);index"`

	// Nullable so non-idempotent rows don't collide on the unique index.
	IdempotencyKey *string `gorm:"type:varchar(255);uniqueIndex"`

	// Additional context: pack name, original charge id, message id, etc.
	Metadata datatypes.JSONMap

	Hash string `gorm:"type:varchar(64);default:''"` // HMAC SHA256
}

// GenerateHash generates a tamper-proof hash for the transaction.
func (t *CreditTransaction) GenerateHash(secret string) string {
	chatID := uint(0)
	if t.ChatAccountID != nil {
		chatID = *t.ChatAccountID
	}
	data := fmt.Sprintf("%d|%d|%d|%d|%d|%s|%s|%s|%s",
		t.AccountID, chatID, t.CreatedAt.UnixNano(), t.Amount, t.BalanceAfter,
		t.Type, t.ToolName, t.ModelID, t.ExternalChargeID)

	h := hmac.New(sha256.New, []byte(secret))
	h.Write([]byte(data))
	return hex.EncodeToString(h.Sum(nil))
}
