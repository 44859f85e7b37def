package services

import (
	"aicredits-backend/internal/database"
	"aicredits-backend/internal/models"
	"bytes"
	"encoding/csv"
	"fmt"
	"time"
)

// TransactionFilter defines criteria for filtering ledger rows
type TransactionFilter struct {
	AccountID     *uint
	ChatAccountID *uint
	Type          *models.TransactionType
	ToolName      *string
	StartTime     *time.Time
	EndTime       *time.Time
	Page          int
	Limit         int
}

// FindTransactions retrieves a paginated list of ledger rows with filtering
func FindTransactions(filter TransactionFilter) ([]models.CreditTransaction, int64, error) {
	var transactions []models.CreditTransaction
	var total int64

	query := database.DB.Model(&models.CreditTransaction{})

	if filter.AccountID != nil {
		query = query.Where("account_id = ?", *filter.AccountID)
	}
	if filter.ChatAccountID != nil {
		query = query.Where("chat_account_id = ?", *filter.ChatAccountID)
	}
	if filter.Type != nil {
		query = query.Where("type = ?", *filter.Type)
	}
	if filter.ToolName != nil {
		query = query.Where("tool_name = ?", *filter.ToolName)
	}
	if filter.StartTime != nil {
		query = query.Where("created_at >= ?", *filter.StartTime)
	}
	if filter.EndTime != nil {
		query = query.Where("created_at <= ?", *filter.EndTime)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (filter.Page - 1) * filter.Limit
	if err := query.Order("created_at desc").Limit(filter.Limit).Offset(offset).Find(&transactions).Error; err != nil {
		return nil, 0, err
	}

	return transactions, total, nil
}

// GetAccountTransactions returns an account's most recent ledger rows.
func GetAccountTransactions(accountID uint, limit int) ([]models.CreditTransaction, error) {
	if limit <= 0 {
		limit = 50
	}
	var transactions []models.CreditTransaction
	err := database.DB.
		Where("account_id = ?", accountID).
		Order("created_at desc").
		Limit(limit).
		Find(&transactions).Error
	if err != nil {
		return nil, err
	}
	return transactions, nil
}

// ReplayBalance sums an account's full transaction history from zero. The
// ledger is the source of truth: the result must equal the stored balance.
func ReplayBalance(accountID uint) (int64, error) {
	var total int64
	err := database.DB.Model(&models.CreditTransaction{}).
		Where("account_id = ?", accountID).
		Select("COALESCE(SUM(amount), 0)").
		Scan(&total).Error
	if err != nil {
		return 0, err
	}
	return total, nil
}

// GenerateTransactionCSV generates a CSV file content for ledger rows
func GenerateTransactionCSV(transactions []models.CreditTransaction) ([]byte, error) {
	b := &bytes.Buffer{}
	w := csv.NewWriter(b)

	// Write header
	header := []string{
		"ID", "Time", "Account ID", "Chat Account ID", "Type", "Amount",
		"Balance After", "Tool", "Model", "Charge ID", "Idempotency Key", "Hash",
	}
	if err := w.Write(header); err != nil {
		return nil, err
	}

	// Write data
	for _, t := range transactions {
		chatID := ""
		if t.ChatAccountID != nil {
			chatID = fmt.Sprintf("%d", *t.ChatAccountID)
		}
		key := ""
		if t.IdempotencyKey != nil {
			key = *t.IdempotencyKey
		}
		record := []string{
			fmt.Sprintf("%d", t.ID),
			t.CreatedAt.Format(time.RFC3339Nano),
			fmt.Sprintf("%d", t.AccountID),
			chatID,
			string(t.Type),
			fmt.Sprintf("%d", t.Amount),
			fmt.Sprintf("%d", t.BalanceAfter),
			t.ToolName,
			t.ModelID,
			t.ExternalChargeID,
			key,
			t.Hash,
		}
		if err := w.Write(record); err != nil {
			return nil, err
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}

	return b.Bytes(), nil
}
