package services

import (
	"aicredits-backend/internal/database"
	"aicredits-backend/internal/models"
	"errors"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GetDailyUsage returns today's usage count of a tool for an (account, chat)
// pair, defaulting to zero when no row exists yet.
func GetDailyUsage(accountID, chatAccountID uint, toolName string) (int, error) {
	return GetDailyUsageOn(accountID, chatAccountID, toolName, models.UsageDay(time.Now()))
}

// GetDailyUsageOn is GetDailyUsage for an explicit UTC day.
func GetDailyUsageOn(accountID, chatAccountID uint, toolName, day string) (int, error) {
	var record models.DailyUsage
	err := database.DB.
		Where("account_id = ? AND chat_account_id = ? AND usage_date = ?", accountID, chatAccountID, day).
		First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, nil
		}
		return 0, err
	}
	return record.GetUsage(toolName), nil
}

// IncrementDailyUsage bumps today's usage count of a tool by one.
func IncrementDailyUsage(accountID, chatAccountID uint, toolName string) (int, error) {
	return IncrementDailyUsageOn(accountID, chatAccountID, toolName, models.UsageDay(time.Now()))
}

// IncrementDailyUsageOn performs a single upsert whose conflict branch merges
// the increment into the JSON map at the storage layer. Concurrent increments
// for the same key are serialized by the database, never lost to a
// read-modify-write cycle.
func IncrementDailyUsageOn(accountID, chatAccountID uint, toolName, day string) (int, error) {
	record := models.DailyUsage{
		AccountID:     accountID,
		ChatAccountID: chatAccountID,
		UsageDate:     day,
		Usage:         datatypes.JSONMap{toolName: 1},
	}

	err := database.DB.Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "account_id"},
			{Name: "chat_account_id"},
			{Name: "usage_date"},
		},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"usage":      usageIncrementExpr(database.DB, toolName),
			"updated_at": time.Now().UTC(),
		}),
	}).Create(&record).Error
	if err != nil {
		return 0, err
	}

	return GetDailyUsageOn(accountID, chatAccountID, toolName, day)
}

func usageIncrementExpr(db *gorm.DB, toolName string) clause.Expr {
	if db.Dialector.Name() == "postgres" {
		return gorm.Expr(
			`jsonb_set(COALESCE(daily_usage.usage, '{}'::jsonb), ARRAY[?::text], to_jsonb(COALESCE((daily_usage.usage ->> ?)::int, 0) + 1))`,
			toolName, toolName,
		)
	}
	// sqlite (tests) speaks the json_* function family
	return gorm.Expr(
		`json_set(COALESCE(usage, '{}'), '$.' || ?, COALESCE(json_extract(usage, '$.' || ?), 0) + 1)`,
		toolName, toolName,
	)
}
