// internal/services/earnings_service_test.go
package services

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/myfitlabs/myfit-backend/internal/models"
)

func TestCreditEarningsCreatesLedgerLazily(t *testing.T) {
	db := setupTestDB(t)
	_, _, earningsService, _ := newTestServices(db)

	creator := createTestUser(t, db, models.UserTypeTrainer)

	var count int64
	db.Model(&models.CreatorEarnings{}).Where("creator_id = ?", creator.ID).Count(&count)
	require.Zero(t, count)

	err := db.Transaction(func(tx *gorm.DB) error {
		return earningsService.creditEarnings(tx, creator.ID, nil, 8000)
	})
	require.NoError(t, err)

	var earnings models.CreatorEarnings
	require.NoError(t, db.First(&earnings, "creator_id = ?", creator.ID).Error)
	assert.Equal(t, int64(8000), earnings.BalanceCents)
	assert.Equal(t, int64(8000), earnings.TotalEarnedCents)
	assert.Zero(t, earnings.TotalWithdrawnCents)

	// Second credit accumulates on the same row
	err = db.Transaction(func(tx *gorm.DB) error {
		return earningsService.creditEarnings(tx, creator.ID, nil, 2000)
	})
	require.NoError(t, err)

	require.NoError(t, db.First(&earnings, "creator_id = ?", creator.ID).Error)
	assert.Equal(t, int64(10000), earnings.BalanceCents)
	assert.Equal(t, int64(10000), earnings.TotalEarnedCents)
}

func TestRequestPayoutInsufficientBalanceLeavesLedgerUntouched(t *testing.T) {
	db := setupTestDB(t)
	_, _, earningsService, _ := newTestServices(db)

	creator := createTestUser(t, db, models.UserTypeTrainer)
	require.NoError(t, db.Transaction(func(tx *gorm.DB) error {
		return earningsService.creditEarnings(tx, creator.ID, nil, 5000)
	}))

	_, err := earningsService.RequestPayout(creator.ID, nil, &RequestPayoutRequest{
		AmountCents:  6000,
		PayoutMethod: models.PayoutMethodPix,
	})
	assert.ErrorIs(t, err, ErrInsufficientBalance)

	var earnings models.CreatorEarnings
	require.NoError(t, db.First(&earnings, "creator_id = ?", creator.ID).Error)
	assert.Equal(t, int64(5000), earnings.BalanceCents)

	var payouts int64
	db.Model(&models.CreatorPayout{}).Count(&payouts)
	assert.Zero(t, payouts)
}

func TestRequestPayoutDebitsBalanceAtRequestTime(t *testing.T) {
	db := setupTestDB(t)
	_, _, earningsService, _ := newTestServices(db)

	creator := createTestUser(t, db, models.UserTypeTrainer)
	require.NoError(t, db.Transaction(func(tx *gorm.DB) error {
		return earningsService.creditEarnings(tx, creator.ID, nil, 10000)
	}))

	payout, err := earningsService.RequestPayout(creator.ID, nil, &RequestPayoutRequest{
		AmountCents:   6000,
		PayoutMethod:  models.PayoutMethodPix,
		PayoutDetails: models.JSONB{"pix_key": "creator@test.local"},
	})
	require.NoError(t, err)
	assert.Equal(t, models.PayoutStatusPending, payout.Status)

	var earnings models.CreatorEarnings
	require.NoError(t, db.First(&earnings, "creator_id = ?", creator.ID).Error)
	assert.Equal(t, int64(4000), earnings.BalanceCents)
	assert.Equal(t, int64(10000), earnings.TotalEarnedCents)
	assert.Zero(t, earnings.TotalWithdrawnCents)
}

func TestProcessPayoutCompletedRecordsWithdrawal(t *testing.T) {
	db := setupTestDB(t)
	_, _, earningsService, _ := newTestServices(db)

	creator := createTestUser(t, db, models.UserTypeTrainer)
	require.NoError(t, db.Transaction(func(tx *gorm.DB) error {
		return earningsService.creditEarnings(tx, creator.ID, nil, 10000)
	}))

	payout, err := earningsService.RequestPayout(creator.ID, nil, &RequestPayoutRequest{
		AmountCents:  6000,
		PayoutMethod: models.PayoutMethodBankTransfer,
	})
	require.NoError(t, err)

	processing, err := earningsService.ProcessPayout(payout.ID, &ProcessPayoutRequest{
		Status: models.PayoutStatusProcessing,
	})
	require.NoError(t, err)
	assert.Equal(t, models.PayoutStatusProcessing, processing.Status)

	completed, err := earningsService.ProcessPayout(payout.ID, &ProcessPayoutRequest{
		Status:            models.PayoutStatusCompleted,
		PaymentProviderID: "bank-ref-123",
	})
	require.NoError(t, err)
	assert.Equal(t, models.PayoutStatusCompleted, completed.Status)

	var earnings models.CreatorEarnings
	require.NoError(t, db.First(&earnings, "creator_id = ?", creator.ID).Error)
	assert.Equal(t, int64(4000), earnings.BalanceCents)
	assert.Equal(t, int64(6000), earnings.TotalWithdrawnCents)
	// balance = total_earned - total_withdrawn - pending
	assert.Equal(t, earnings.TotalEarnedCents-earnings.TotalWithdrawnCents, earnings.BalanceCents)

	// A settled payout cannot be processed again
	_, err = earningsService.ProcessPayout(payout.ID, &ProcessPayoutRequest{
		Status: models.PayoutStatusCompleted,
	})
	assert.ErrorIs(t, err, ErrInvalidPayoutState)
}

func TestProcessPayoutFailedRestoresBalance(t *testing.T) {
	db := setupTestDB(t)
	_, _, earningsService, _ := newTestServices(db)

	creator := createTestUser(t, db, models.UserTypeTrainer)
	require.NoError(t, db.Transaction(func(tx *gorm.DB) error {
		return earningsService.creditEarnings(tx, creator.ID, nil, 10000)
	}))

	payout, err := earningsService.RequestPayout(creator.ID, nil, &RequestPayoutRequest{
		AmountCents:  6000,
		PayoutMethod: models.PayoutMethodPix,
	})
	require.NoError(t, err)

	_, err = earningsService.ProcessPayout(payout.ID, &ProcessPayoutRequest{
		Status: models.PayoutStatusFailed,
	})
	require.NoError(t, err)

	var earnings models.CreatorEarnings
	require.NoError(t, db.First(&earnings, "creator_id = ?", creator.ID).Error)
	assert.Equal(t, int64(10000), earnings.BalanceCents)
	assert.Zero(t, earnings.TotalWithdrawnCents)
}

func TestCreatorDashboardAggregatesSalesAndRatings(t *testing.T) {
	db := setupTestDB(t)
	_, _, earningsService, _ := newTestServices(db)

	creator := createTestUser(t, db, models.UserTypeTrainer)
	buyer := createTestUser(t, db, models.UserTypeStudent)
	workout := createTestWorkout(t, db, creator.ID, 1)
	template := createTestTemplate(t, db, creator.ID, &workout.ID, 10000)

	completedAt := time.Now()
	purchase := &models.TemplatePurchase{
		TemplateID:           template.ID,
		BuyerID:              buyer.ID,
		PriceCents:           10000,
		Currency:             "BRL",
		Status:               models.PurchaseStatusCompleted,
		CreatorEarningsCents: 8000,
		PlatformFeeCents:     2000,
		CompletedAt:          &completedAt,
	}
	require.NoError(t, db.Create(purchase).Error)
	require.NoError(t, db.Transaction(func(tx *gorm.DB) error {
		return earningsService.creditEarnings(tx, creator.ID, nil, 8000)
	}))
	require.NoError(t, db.Create(&models.TemplateReview{
		TemplateID: template.ID,
		PurchaseID: purchase.ID,
		ReviewerID: buyer.ID,
		Rating:     4,
	}).Error)

	dashboard, err := earningsService.GetCreatorDashboard(creator.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), dashboard.TemplateCount)
	assert.Equal(t, int64(1), dashboard.ActiveTemplates)
	assert.Equal(t, int64(1), dashboard.TotalSales)
	assert.Equal(t, int64(1), dashboard.SalesLast30Days)
	assert.Equal(t, int64(8000), dashboard.EarningsLast30Days)
	assert.Equal(t, int64(8000), dashboard.TotalEarnedCents)
	assert.Equal(t, int64(8000), dashboard.BalanceCents)
	assert.Equal(t, int64(1), dashboard.ReviewCount)
	require.NotNil(t, dashboard.AverageRating)
	assert.InDelta(t, 4.0, *dashboard.AverageRating, 0.001)
}

func TestConcurrentPayoutRequestsNeverOverdraw(t *testing.T) {
	db := setupTestDB(t)
	_, _, earningsService, _ := newTestServices(db)

	creator := createTestUser(t, db, models.UserTypeTrainer)
	require.NoError(t, db.Transaction(func(tx *gorm.DB) error {
		return earningsService.creditEarnings(tx, creator.ID, nil, 10000)
	}))

	const workers = 4
	var wg sync.WaitGroup
	errs := make([]error, workers)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = earningsService.RequestPayout(creator.ID, nil, &RequestPayoutRequest{
				AmountCents:  6000,
				PayoutMethod: models.PayoutMethodPix,
			})
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
		} else {
			assert.ErrorIs(t, err, ErrInsufficientBalance)
		}
	}
	assert.Equal(t, 1, succeeded, "only one 6000 payout fits in a 10000 balance")

	var earnings models.CreatorEarnings
	require.NoError(t, db.First(&earnings, "creator_id = ?", creator.ID).Error)
	assert.Equal(t, int64(4000), earnings.BalanceCents)
	assert.GreaterOrEqual(t, earnings.BalanceCents, int64(0))
}
