package services

import (
	"aicredits-backend/internal/database"
	"aicredits-backend/internal/models"
	"sync"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupLedgerTestDB() {
	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	if err != nil {
		panic("failed to connect database")
	}

	db.Migrator().DropTable(&models.Account{}, &models.CreditTransaction{}, &models.DailyUsage{})
	db.AutoMigrate(&models.Account{}, &models.CreditTransaction{}, &models.DailyUsage{})

	database.DB = db
	database.RedisClient = nil
}

func setupLedgerTestRedis() *miniredis.Miniredis {
	mr, err := miniredis.Run()
	if err != nil {
		panic(err)
	}

	database.RedisClient = redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})
	return mr
}

func seedAccount(kind models.AccountKind, credits int64) *models.Account {
	account := &models.Account{Kind: kind, Credits: credits}
	database.DB.Create(account)
	return account
}

func TestAddCredits(t *testing.T) {
	setupLedgerTestDB()

	account := seedAccount(models.AccountKindUser, 100)

	newBalance, err := AddCredits(account.ID, 50, models.TransactionTypeBonus, LedgerOptions{})
	assert.NoError(t, err)
	assert.Equal(t, int64(150), newBalance)

	var updated models.Account
	database.DB.First(&updated, account.ID)
	assert.Equal(t, int64(150), updated.Credits)

	var row models.CreditTransaction
	database.DB.Last(&row)
	assert.Equal(t, int64(50), row.Amount)
	assert.Equal(t, int64(150), row.BalanceAfter)
	assert.Equal(t, models.TransactionTypeBonus, row.Type)
	assert.NotEmpty(t, row.Hash)
}

func TestAddCreditsAccountMissing(t *testing.T) {
	setupLedgerTestDB()

	_, err := AddCredits(999, 50, models.TransactionTypeBonus, LedgerOptions{})
	assert.ErrorIs(t, err, ErrAccountNotFound)
}

func TestDeductCredits(t *testing.T) {
	setupLedgerTestDB()

	account := seedAccount(models.AccountKindUser, 100)

	newBalance, err := DeductCredits(account.ID, 30, LedgerOptions{ToolName: "image_generate", ModelID: "gemini-2.5-flash-image"})
	assert.NoError(t, err)
	assert.Equal(t, int64(70), newBalance)

	var row models.CreditTransaction
	database.DB.Last(&row)
	assert.Equal(t, int64(-30), row.Amount)
	assert.Equal(t, int64(70), row.BalanceAfter)
	assert.Equal(t, models.TransactionTypeSpend, row.Type)
	assert.Equal(t, "image_generate", row.ToolName)
}

func TestDeductCreditsInsufficient(t *testing.T) {
	setupLedgerTestDB()

	account := seedAccount(models.AccountKindUser, 150)

	// 150 covers one deduction of 100, never two.
	_, err := DeductCredits(account.ID, 100, LedgerOptions{})
	assert.NoError(t, err)

	_, err = DeductCredits(account.ID, 100, LedgerOptions{})
	assert.ErrorIs(t, err, ErrInsufficientCredits)

	var updated models.Account
	database.DB.First(&updated, account.ID)
	assert.Equal(t, int64(50), updated.Credits)

	// The failed attempt left no ledger row behind.
	var count int64
	database.DB.Model(&models.CreditTransaction{}).Count(&count)
	assert.Equal(t, int64(1), count)
}

func TestDeductCreditsExactBalance(t *testing.T) {
	setupLedgerTestDB()

	account := seedAccount(models.AccountKindUser, 25)

	// A balance exactly equal to the cost is allowed.
	newBalance, err := DeductCredits(account.ID, 25, LedgerOptions{})
	assert.NoError(t, err)
	assert.Equal(t, int64(0), newBalance)
}

func TestAddCreditsIdempotent(t *testing.T) {
	setupLedgerTestDB()

	account := seedAccount(models.AccountKindUser, 0)

	opts := LedgerOptions{IdempotencyKey: "charge-abc", ExternalChargeID: "charge-abc"}
	first, err := AddCredits(account.ID, 100, models.TransactionTypePurchase, opts)
	assert.NoError(t, err)
	assert.Equal(t, int64(100), first)

	// Replay: balance unchanged, same result reported.
	second, err := AddCredits(account.ID, 100, models.TransactionTypePurchase, opts)
	assert.NoError(t, err)
	assert.Equal(t, int64(100), second)

	var updated models.Account
	database.DB.First(&updated, account.ID)
	assert.Equal(t, int64(100), updated.Credits)

	var count int64
	database.DB.Model(&models.CreditTransaction{}).Count(&count)
	assert.Equal(t, int64(1), count)
}

func TestGetBalances(t *testing.T) {
	setupLedgerTestDB()
	mr := setupLedgerTestRedis()
	defer mr.Close()

	user := seedAccount(models.AccountKindUser, 40)
	chat := seedAccount(models.AccountKindChat, 500)

	chatCredits, userCredits, err := GetBalances(user.ID, chat.ID)
	assert.NoError(t, err)
	assert.Equal(t, int64(500), chatCredits)
	assert.Equal(t, int64(40), userCredits)

	// Mutations invalidate the cached balance.
	_, err = DeductCredits(chat.ID, 100, LedgerOptions{})
	assert.NoError(t, err)

	chatCredits, _, err = GetBalances(user.ID, chat.ID)
	assert.NoError(t, err)
	assert.Equal(t, int64(400), chatCredits)
}

func TestGetBalancesMissingAccounts(t *testing.T) {
	setupLedgerTestDB()

	chatCredits, userCredits, err := GetBalances(123, 0)
	assert.NoError(t, err)
	assert.Equal(t, int64(0), chatCredits)
	assert.Equal(t, int64(0), userCredits)
}

func TestTransferCredits(t *testing.T) {
	setupLedgerTestDB()

	from := seedAccount(models.AccountKindUser, 100)
	to := seedAccount(models.AccountKindUser, 10)

	err := TransferCredits(from.ID, to.ID, 40, "gift-1", nil)
	assert.NoError(t, err)

	var fromUpdated, toUpdated models.Account
	database.DB.First(&fromUpdated, from.ID)
	database.DB.First(&toUpdated, to.ID)
	assert.Equal(t, int64(60), fromUpdated.Credits)
	assert.Equal(t, int64(50), toUpdated.Credits)

	var rows []models.CreditTransaction
	database.DB.Order("id").Find(&rows)
	assert.Len(t, rows, 2)
	assert.Equal(t, models.TransactionTypeGift, rows[0].Type)
	assert.Equal(t, int64(-40), rows[0].Amount)
	assert.Equal(t, int64(40), rows[1].Amount)

	// Replay is a no-op.
	err = TransferCredits(from.ID, to.ID, 40, "gift-1", nil)
	assert.NoError(t, err)

	database.DB.First(&fromUpdated, from.ID)
	assert.Equal(t, int64(60), fromUpdated.Credits)
}

func TestTransferCreditsWithoutKey(t *testing.T) {
	setupLedgerTestDB()

	a := seedAccount(models.AccountKindUser, 100)
	b := seedAccount(models.AccountKindUser, 100)
	c := seedAccount(models.AccountKindUser, 0)

	// Key-less transfers must not collide on a shared literal key.
	assert.NoError(t, TransferCredits(a.ID, c.ID, 10, "", nil))
	assert.NoError(t, TransferCredits(b.ID, c.ID, 10, "", nil))

	var updated models.Account
	database.DB.First(&updated, c.ID)
	assert.Equal(t, int64(20), updated.Credits)

	var rows []models.CreditTransaction
	database.DB.Find(&rows)
	assert.Len(t, rows, 4)
	for _, row := range rows {
		assert.Nil(t, row.IdempotencyKey)
	}
}

func TestTransferCreditsInsufficient(t *testing.T) {
	setupLedgerTestDB()

	from := seedAccount(models.AccountKindUser, 10)
	to := seedAccount(models.AccountKindUser, 0)

	err := TransferCredits(from.ID, to.ID, 40, "gift-2", nil)
	assert.ErrorIs(t, err, ErrInsufficientCredits)

	var fromUpdated models.Account
	database.DB.First(&fromUpdated, from.ID)
	assert.Equal(t, int64(10), fromUpdated.Credits)
}

func TestDeductCreditsConcurrent(t *testing.T) {
	setupLedgerTestDB()

	// One pooled connection serializes the two transactions the way the row
	// lock does on postgres.
	sqlDB, err := database.DB.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	account := seedAccount(models.AccountKindUser, 150)

	var wg sync.WaitGroup
	results := make(chan error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := DeductCredits(account.ID, 100, LedgerOptions{})
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	var successes, failures int
	for err := range results {
		if err == nil {
			successes++
		} else {
			assert.ErrorIs(t, err, ErrInsufficientCredits)
			failures++
		}
	}
	assert.Equal(t, 1, successes)
	assert.Equal(t, 1, failures)

	var updated models.Account
	database.DB.First(&updated, account.ID)
	assert.Equal(t, int64(50), updated.Credits)

	// The failed attempt rolled back without a ledger row.
	var count int64
	database.DB.Model(&models.CreditTransaction{}).Count(&count)
	assert.Equal(t, int64(1), count)
}

func TestReplayBalanceMatchesStored(t *testing.T) {
	setupLedgerTestDB()

	account := seedAccount(models.AccountKindUser, 0)

	AddCredits(account.ID, 100, models.TransactionTypePurchase, LedgerOptions{IdempotencyKey: "p1"})
	DeductCredits(account.ID, 30, LedgerOptions{})
	AddCredits(account.ID, 25, models.TransactionTypeBonus, LedgerOptions{})
	DeductCredits(account.ID, 5, LedgerOptions{})

	var updated models.Account
	database.DB.First(&updated, account.ID)

	replayed, err := ReplayBalance(account.ID)
	assert.NoError(t, err)
	assert.Equal(t, updated.Credits, replayed)
	assert.Equal(t, int64(90), replayed)
}
