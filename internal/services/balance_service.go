package services

import (
	"aicredits-backend/config"
	"aicredits-backend/internal/database"
	"aicredits-backend/internal/models"
	"errors"
	"fmt"
	"strconv"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrInsufficientCredits = errors.New("insufficient credits")
	ErrInvalidAmount       = errors.New("amount must be positive")
)

// LedgerOptions carries the optional context recorded on a ledger row.
type LedgerOptions struct {
	ChatAccountID    *uint
	ToolName         string
	ModelID          string
	ExternalChargeID string
	IdempotencyKey   string
	Metadata         map[string]interface{}
}

// GetBalances returns (chat, user) credit balances. These are unlocked point
// reads for display and admission checks; the deduct path re-validates under
// lock. Missing accounts read as zero.
func GetBalances(userAccountID, chatAccountID uint) (int64, int64, error) {
	chatCredits, err := getBalance(chatAccountID)
	if err != nil {
		return 0, 0, err
	}
	userCredits, err := getBalance(userAccountID)
	if err != nil {
		return 0, 0, err
	}
	return chatCredits, userCredits, nil
}

func getBalance(accountID uint) (int64, error) {
	if accountID == 0 {
		return 0, nil
	}

	cacheKey := fmt.Sprintf("balance:%d", accountID)
	if database.RedisClient != nil {
		val, err := database.RedisClient.Get(database.Ctx, cacheKey).Result()
		if err == nil {
			if credits, parseErr := strconv.ParseInt(val, 10, 64); parseErr == nil {
				return credits, nil
			}
		}
	}

	var account models.Account
	if err := database.DB.Select("credits").First(&account, accountID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, nil
		}
		return 0, err
	}

	if database.RedisClient != nil {
		database.RedisClient.Set(database.Ctx, cacheKey, strconv.FormatInt(account.Credits, 10), time.Minute)
	}

	return account.Credits, nil
}

// AddCredits applies a signed credit delta to an account inside one short
// transaction: lock row, replay idempotency check, validate, write balance,
// append ledger row. Returns the balance after the operation.
//
// A negative delta that would drive the balance below zero fails with
// ErrInsufficientCredits and leaves the balance unchanged.
func AddCredits(accountID uint, amount int64, txType models.TransactionType, opts LedgerOptions) (int64, error) {
	var newBalance int64

	err := database.DB.Transaction(func(tx *gorm.DB) error {
		// Replay check first: a key that already has a ledger row means the
		// mutation was applied; report its recorded balance without reapplying.
		if opts.IdempotencyKey != "" {
			var existing models.CreditTransaction
			err := tx.Where("idempotency_key = ?", opts.IdempotencyKey).First(&existing).Error
			if err == nil {
				newBalance = existing.BalanceAfter
				return nil
			}
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return err
			}
		}

		var account models.Account
		if err := lockForUpdate(tx).First(&account, accountID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrAccountNotFound
			}
			return err
		}

		if account.Credits+amount < 0 {
			return fmt.Errorf("%w: %d < %d", ErrInsufficientCredits, account.Credits, -amount)
		}
		account.Credits += amount

		if err := tx.Save(&account).Error; err != nil {
			return err
		}
		newBalance = account.Credits

		return createLedgerRow(tx, accountID, amount, newBalance, txType, opts)
	})
	if err != nil {
		// A concurrent duplicate insert on the idempotency key aborts the
		// transaction; the caller's mutation was already applied by the winner.
		if errors.Is(err, gorm.ErrDuplicatedKey) && opts.IdempotencyKey != "" {
			if existing, lookupErr := GetTransactionByIdempotencyKey(opts.IdempotencyKey); lookupErr == nil && existing != nil {
				return existing.BalanceAfter, nil
			}
		}
		return 0, err
	}

	invalidateAccountCache(accountID)
	return newBalance, nil
}

// DeductCredits spends credits from an account. The sufficiency check happens
// inside the locked section, so two concurrent deductions against one balance
// cannot both pass.
func DeductCredits(accountID uint, amount int64, opts LedgerOptions) (int64, error) {
	if amount < 0 {
		return 0, ErrInvalidAmount
	}
	return AddCredits(accountID, -amount, models.TransactionTypeSpend, opts)
}

// TransferCredits moves credits between two accounts atomically, writing a
// paired gift row on each side. Rows are locked in id order so two crossing
// transfers cannot deadlock.
func TransferCredits(fromAccountID, toAccountID uint, amount int64, idempotencyKey string, metadata map[string]interface{}) error {
	if amount <= 0 {
		return ErrInvalidAmount
	}
	if fromAccountID == toAccountID {
		return errors.New("cannot transfer to the same account")
	}

	// Empty keys stay empty so key-less transfers write unkeyed ledger rows
	// instead of colliding on a literal ":out"/":in" key.
	var outKey, inKey string
	if idempotencyKey != "" {
		outKey = idempotencyKey + ":out"
		inKey = idempotencyKey + ":in"
	}

	err := database.DB.Transaction(func(tx *gorm.DB) error {
		if idempotencyKey != "" {
			var existing models.CreditTransaction
			err := tx.Where("idempotency_key = ?", outKey).First(&existing).Error
			if err == nil {
				return nil
			}
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return err
			}
		}

		first, second := fromAccountID, toAccountID
		if second < first {
			first, second = second, first
		}

		var accounts [2]models.Account
		for i, id := range []uint{first, second} {
			if err := lockForUpdate(tx).First(&accounts[i], id).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return ErrAccountNotFound
				}
				return err
			}
		}

		var from, to *models.Account
		if accounts[0].ID == fromAccountID {
			from, to = &accounts[0], &accounts[1]
		} else {
			from, to = &accounts[1], &accounts[0]
		}

		if from.Credits < amount {
			return fmt.Errorf("%w: %d < %d", ErrInsufficientCredits, from.Credits, amount)
		}
		from.Credits -= amount
		to.Credits += amount

		if err := tx.Save(from).Error; err != nil {
			return err
		}
		if err := tx.Save(to).Error; err != nil {
			return err
		}

		outOpts := LedgerOptions{IdempotencyKey: outKey, Metadata: metadata}
		if err := createLedgerRow(tx, from.ID, -amount, from.Credits, models.TransactionTypeGift, outOpts); err != nil {
			return err
		}
		inOpts := LedgerOptions{IdempotencyKey: inKey, Metadata: metadata}
		return createLedgerRow(tx, to.ID, amount, to.Credits, models.TransactionTypeGift, inOpts)
	})
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) && idempotencyKey != "" {
			return nil
		}
		return err
	}

	invalidateAccountCache(fromAccountID)
	invalidateAccountCache(toAccountID)
	return nil
}

func createLedgerRow(tx *gorm.DB, accountID uint, amount, balanceAfter int64, txType models.TransactionType, opts LedgerOptions) error {
	row := models.CreditTransaction{
		CreatedAt:        time.Now().UTC(),
		AccountID:        accountID,
		ChatAccountID:    opts.ChatAccountID,
		Type:             txType,
		Amount:           amount,
		BalanceAfter:     balanceAfter,
		ToolName:         opts.ToolName,
		ModelID:          opts.ModelID,
		ExternalChargeID: opts.ExternalChargeID,
		Metadata:         opts.Metadata,
	}
	if opts.IdempotencyKey != "" {
		key := opts.IdempotencyKey
		row.IdempotencyKey = &key
	}

	cfg, _ := config.LoadConfig()
	secret := "default-secret"
	if cfg != nil && cfg.LedgerSecret != "" {
		secret = cfg.LedgerSecret
	}
	row.Hash = row.GenerateHash(secret)

	return tx.Create(&row).Error
}

// lockForUpdate takes a pessimistic row lock on postgres. sqlite (tests) has
// no row locks; its single-writer model serializes the transaction instead.
func lockForUpdate(tx *gorm.DB) *gorm.DB {
	if tx.Dialector.Name() == "postgres" {
		return tx.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	return tx
}

// GetTransactionByIdempotencyKey returns the ledger row for a key, or nil when
// no mutation with that key has been applied.
func GetTransactionByIdempotencyKey(key string) (*models.CreditTransaction, error) {
	var transaction models.CreditTransaction
	err := database.DB.Where("idempotency_key = ?", key).First(&transaction).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &transaction, nil
}
