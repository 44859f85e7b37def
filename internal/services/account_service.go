package services

import (
	"aicredits-backend/internal/database"
	"aicredits-backend/internal/models"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
)

var ErrAccountNotFound = errors.New("account not found")

// FindAccountByID loads an account, consulting the redis cache first. Cached
// reads are advisory; mutation paths always re-read under lock.
func FindAccountByID(accountID uint) (models.Account, error) {
	cacheKey := fmt.Sprintf("account:%d", accountID)
	if database.RedisClient != nil {
		val, err := database.RedisClient.Get(database.Ctx, cacheKey).Result()
		if err == nil {
			var account models.Account
			if err := json.Unmarshal([]byte(val), &account); err == nil {
				return account, nil
			}
		}
	}

	var account models.Account
	if err := database.DB.First(&account, accountID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return account, ErrAccountNotFound
		}
		return account, err
	}

	if database.RedisClient != nil {
		if data, err := json.Marshal(account); err == nil {
			database.RedisClient.Set(database.Ctx, cacheKey, data, time.Minute)
		}
	}

	return account, nil
}

// CreateAccount provisions a fresh zero-balance account.
func CreateAccount(kind models.AccountKind) (*models.Account, error) {
	account := &models.Account{Kind: kind}
	if err := database.DB.Create(account).Error; err != nil {
		return nil, err
	}
	return account, nil
}

// FindAccounts retrieves a paginated list of accounts.
func FindAccounts(kind *models.AccountKind, page, limit int) ([]models.Account, int64, error) {
	var accounts []models.Account
	var total int64

	query := database.DB.Model(&models.Account{})
	if kind != nil {
		query = query.Where("kind = ?", *kind)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := query.Order("id").Limit(limit).Offset(offset).Find(&accounts).Error; err != nil {
		return nil, 0, err
	}

	return accounts, total, nil
}

func invalidateAccountCache(accountID uint) {
	if database.RedisClient == nil {
		return
	}
	database.RedisClient.Del(database.Ctx,
		fmt.Sprintf("account:%d", accountID),
		fmt.Sprintf("balance:%d", accountID),
	)
}
