// internal/services/purchase_service_test.go
package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/myfitlabs/myfit-backend/internal/models"
)

func TestComputeRevenueSplit(t *testing.T) {
	tests := []struct {
		name         string
		priceCents   int64
		feePercent   int64
		wantEarnings int64
		wantFee      int64
	}{
		{"standard sale", 10000, 20, 8000, 2000},
		{"odd price floors in platform favor", 999, 20, 799, 200},
		{"one cent", 1, 20, 0, 1},
		{"free", 0, 20, 0, 0},
		{"zero fee", 5000, 0, 5000, 0},
		{"full fee", 5000, 100, 0, 5000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			earnings, fee := computeRevenueSplit(tt.priceCents, tt.feePercent)
			assert.Equal(t, tt.wantEarnings, earnings)
			assert.Equal(t, tt.wantFee, fee)
			assert.Equal(t, tt.priceCents, earnings+fee, "split must sum to price")
		})
	}
}

func TestCheckoutFreeListingCompletesSynchronously(t *testing.T) {
	db := setupTestDB(t)
	_, purchaseService, _, _ := newTestServices(db)

	creator := createTestUser(t, db, models.UserTypeTrainer)
	buyer := createTestUser(t, db, models.UserTypeStudent)
	workout := createTestWorkout(t, db, creator.ID, 3)
	template := createTestTemplate(t, db, creator.ID, &workout.ID, 0)

	resp, err := purchaseService.Checkout(buyer.ID, &CheckoutRequest{TemplateID: template.ID})
	require.NoError(t, err)

	assert.Equal(t, models.PurchaseStatusCompleted, resp.Purchase.Status)
	assert.NotNil(t, resp.Purchase.CompletedAt)
	assert.NotNil(t, resp.Purchase.DuplicatedWorkoutID)
	assert.Zero(t, resp.Purchase.PriceCents)
	assert.Zero(t, resp.Purchase.CreatorEarningsCents)
	assert.Empty(t, resp.ClientSecret)

	var count int64
	db.Model(&models.TemplatePurchase{}).Where("buyer_id = ?", buyer.ID).Count(&count)
	assert.Equal(t, int64(1), count)
}

func TestCheckoutRejectsDuplicateOwnership(t *testing.T) {
	db := setupTestDB(t)
	_, purchaseService, _, _ := newTestServices(db)

	creator := createTestUser(t, db, models.UserTypeTrainer)
	buyer := createTestUser(t, db, models.UserTypeStudent)
	workout := createTestWorkout(t, db, creator.ID, 2)
	template := createTestTemplate(t, db, creator.ID, &workout.ID, 0)

	_, err := purchaseService.Checkout(buyer.ID, &CheckoutRequest{TemplateID: template.ID})
	require.NoError(t, err)

	_, err = purchaseService.Checkout(buyer.ID, &CheckoutRequest{TemplateID: template.ID})
	assert.ErrorIs(t, err, ErrAlreadyPurchased)
}

func TestCheckoutRejectsOwnTemplate(t *testing.T) {
	db := setupTestDB(t)
	_, purchaseService, _, _ := newTestServices(db)

	creator := createTestUser(t, db, models.UserTypeTrainer)
	workout := createTestWorkout(t, db, creator.ID, 1)
	template := createTestTemplate(t, db, creator.ID, &workout.ID, 0)

	_, err := purchaseService.Checkout(creator.ID, &CheckoutRequest{TemplateID: template.ID})
	assert.ErrorIs(t, err, ErrOwnTemplate)
}

func TestCompletePurchaseIsIdempotent(t *testing.T) {
	db := setupTestDB(t)
	_, purchaseService, _, _ := newTestServices(db)

	creator := createTestUser(t, db, models.UserTypeTrainer)
	buyer := createTestUser(t, db, models.UserTypeStudent)
	workout := createTestWorkout(t, db, creator.ID, 3)
	template := createTestTemplate(t, db, creator.ID, &workout.ID, 10000)

	purchase := &models.TemplatePurchase{
		TemplateID:           template.ID,
		BuyerID:              buyer.ID,
		PriceCents:           10000,
		Currency:             "BRL",
		Status:               models.PurchaseStatusPending,
		CreatorEarningsCents: 8000,
		PlatformFeeCents:     2000,
	}
	require.NoError(t, db.Create(purchase).Error)

	first, err := purchaseService.CompletePurchase(purchase.ID)
	require.NoError(t, err)
	require.Equal(t, models.PurchaseStatusCompleted, first.Status)

	second, err := purchaseService.CompletePurchase(purchase.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PurchaseStatusCompleted, second.Status)

	// Exactly one fulfillment and one credit despite the re-run
	var copies int64
	db.Model(&models.Workout{}).Where("created_by_id = ? AND is_template = ?", buyer.ID, false).Count(&copies)
	assert.Equal(t, int64(1), copies)

	var tmpl models.MarketplaceTemplate
	require.NoError(t, db.First(&tmpl, "id = ?", template.ID).Error)
	assert.Equal(t, int64(1), tmpl.PurchaseCount)

	var earnings models.CreatorEarnings
	require.NoError(t, db.First(&earnings, "creator_id = ?", creator.ID).Error)
	assert.Equal(t, int64(8000), earnings.BalanceCents)
	assert.Equal(t, int64(8000), earnings.TotalEarnedCents)
}

func TestCompletePurchaseMissingSourceFailsWithReconciliation(t *testing.T) {
	db := setupTestDB(t)
	_, purchaseService, _, _ := newTestServices(db)

	creator := createTestUser(t, db, models.UserTypeTrainer)
	buyer := createTestUser(t, db, models.UserTypeStudent)
	workout := createTestWorkout(t, db, creator.ID, 2)
	template := createTestTemplate(t, db, creator.ID, &workout.ID, 10000)

	purchase := &models.TemplatePurchase{
		TemplateID:           template.ID,
		BuyerID:              buyer.ID,
		PriceCents:           10000,
		Currency:             "BRL",
		Status:               models.PurchaseStatusPending,
		CreatorEarningsCents: 8000,
		PlatformFeeCents:     2000,
	}
	require.NoError(t, db.Create(purchase).Error)

	// Source vanishes before completion
	require.NoError(t, db.Unscoped().Delete(&models.Workout{}, "id = ?", workout.ID).Error)

	_, err := purchaseService.CompletePurchase(purchase.ID)
	assert.ErrorIs(t, err, ErrSourceContentMissing)

	var reloaded models.TemplatePurchase
	require.NoError(t, db.First(&reloaded, "id = ?", purchase.ID).Error)
	assert.Equal(t, models.PurchaseStatusFailed, reloaded.Status)
	assert.Nil(t, reloaded.DuplicatedWorkoutID)

	// No partial fulfillment, no credit
	var copies int64
	db.Model(&models.Workout{}).Where("created_by_id = ?", buyer.ID).Count(&copies)
	assert.Zero(t, copies)

	var ledgers int64
	db.Model(&models.CreatorEarnings{}).Where("creator_id = ?", creator.ID).Count(&ledgers)
	assert.Zero(t, ledgers)

	var events []models.ReconciliationEvent
	require.NoError(t, db.Where("purchase_id = ?", purchase.ID).Find(&events).Error)
	require.Len(t, events, 1)
	assert.Equal(t, "source_content_missing", events[0].Reason)
}

func TestFailPurchaseOnlyFromPending(t *testing.T) {
	db := setupTestDB(t)
	_, purchaseService, _, _ := newTestServices(db)

	creator := createTestUser(t, db, models.UserTypeTrainer)
	buyer := createTestUser(t, db, models.UserTypeStudent)
	workout := createTestWorkout(t, db, creator.ID, 1)
	template := createTestTemplate(t, db, creator.ID, &workout.ID, 10000)

	purchase := &models.TemplatePurchase{
		TemplateID:           template.ID,
		BuyerID:              buyer.ID,
		PriceCents:           10000,
		Currency:             "BRL",
		Status:               models.PurchaseStatusPending,
		CreatorEarningsCents: 8000,
		PlatformFeeCents:     2000,
	}
	require.NoError(t, db.Create(purchase).Error)

	require.NoError(t, purchaseService.FailPurchase(purchase.ID))
	// Re-running against a FAILED purchase is a no-op
	require.NoError(t, purchaseService.FailPurchase(purchase.ID))

	// A completed purchase cannot fail
	_, err := purchaseService.CompletePurchase(purchase.ID)
	assert.ErrorIs(t, err, ErrInvalidPurchaseState)
}

func TestPriceSnapshotSurvivesListingPriceChange(t *testing.T) {
	db := setupTestDB(t)
	_, purchaseService, _, _ := newTestServices(db)

	creator := createTestUser(t, db, models.UserTypeTrainer)
	buyer := createTestUser(t, db, models.UserTypeStudent)
	workout := createTestWorkout(t, db, creator.ID, 2)
	template := createTestTemplate(t, db, creator.ID, &workout.ID, 10000)

	purchase := &models.TemplatePurchase{
		TemplateID:           template.ID,
		BuyerID:              buyer.ID,
		PriceCents:           10000,
		Currency:             "BRL",
		Status:               models.PurchaseStatusPending,
		CreatorEarningsCents: 8000,
		PlatformFeeCents:     2000,
	}
	require.NoError(t, db.Create(purchase).Error)

	// Listing gets repriced while the payment is in flight
	require.NoError(t, db.Model(&models.MarketplaceTemplate{}).
		Where("id = ?", template.ID).Update("price_cents", 20000).Error)

	completed, err := purchaseService.CompletePurchase(purchase.ID)
	require.NoError(t, err)

	assert.Equal(t, int64(10000), completed.PriceCents)
	assert.Equal(t, int64(8000), completed.CreatorEarningsCents)

	var earnings models.CreatorEarnings
	require.NoError(t, db.First(&earnings, "creator_id = ?", creator.ID).Error)
	assert.Equal(t, int64(8000), earnings.BalanceCents)
}
