package models

import "time"

type AccountKind string

const (
	AccountKindUser   AccountKind = "user"
	AccountKindChat   AccountKind = "chat"   // shared pool tied to a group context
	AccountKindSystem AccountKind = "system" // provenance for bonuses and adjustments
)

// Account holds an integer credit balance for a user or a chat pool. The id is
// opaque here; mapping platform identities onto accounts happens upstream.
// Balances only change through the locked ledger operations.
type Account struct {
	ID        uint `gorm:"primarykey"`
	CreatedAt time.Time
	UpdatedAt time.Time
	Kind      AccountKind `gorm:"type:varchar(10);not null;default:'user';index"`
	Credits   int64       `gorm:"not null;default:0;check:credits >= 0"`
}
