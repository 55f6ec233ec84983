// internal/services/review_service_test.go
package services

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/myfitlabs/myfit-backend/internal/models"
)

func TestNextRatingAverage(t *testing.T) {
	tests := []struct {
		name       string
		oldAverage float64
		oldCount   int64
		rating     int
		want       float64
	}{
		{"first rating", 0, 0, 5, 5},
		{"second rating", 5, 1, 3, 4},
		{"third rating", 4, 2, 4, 4},
		{"rounds to two decimals", 4.5, 2, 4, 4.33},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, nextRatingAverage(tt.oldAverage, tt.oldCount, tt.rating), 0.001)
		})
	}
}

func completedPurchase(t *testing.T, db *gorm.DB, templateID, buyerID uuid.UUID) *models.TemplatePurchase {
	t.Helper()

	now := time.Now()
	purchase := &models.TemplatePurchase{
		TemplateID:  templateID,
		BuyerID:     buyerID,
		PriceCents:  10000,
		Currency:    "BRL",
		Status:      models.PurchaseStatusCompleted,
		CompletedAt: &now,
	}
	require.NoError(t, db.Create(purchase).Error)
	return purchase
}

func TestCreateReviewAggregatesRatings(t *testing.T) {
	db := setupTestDB(t)
	_, _, _, reviewService := newTestServices(db)

	creator := createTestUser(t, db, models.UserTypeTrainer)
	workout := createTestWorkout(t, db, creator.ID, 1)
	template := createTestTemplate(t, db, creator.ID, &workout.ID, 10000)

	ratings := []int{5, 3, 4}
	for _, rating := range ratings {
		buyer := createTestUser(t, db, models.UserTypeStudent)
		purchase := completedPurchase(t, db, template.ID, buyer.ID)

		_, err := reviewService.CreateReview(buyer.ID, &CreateReviewRequest{
			PurchaseID: purchase.ID,
			Rating:     rating,
		})
		require.NoError(t, err)
	}

	var reloaded models.MarketplaceTemplate
	require.NoError(t, db.First(&reloaded, "id = ?", template.ID).Error)
	require.NotNil(t, reloaded.RatingAverage)
	assert.InDelta(t, 4.0, *reloaded.RatingAverage, 0.001)
	assert.Equal(t, int64(3), reloaded.RatingCount)

	distribution, err := reviewService.GetRatingDistribution(template.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), distribution[3])
	assert.Equal(t, int64(1), distribution[4])
	assert.Equal(t, int64(1), distribution[5])
	assert.Zero(t, distribution[1])
	assert.Zero(t, distribution[2])

	var sum int64
	for _, count := range distribution {
		sum += count
	}
	assert.Equal(t, reloaded.RatingCount, sum)
}

func TestCreateReviewRejectsDuplicate(t *testing.T) {
	db := setupTestDB(t)
	_, _, _, reviewService := newTestServices(db)

	creator := createTestUser(t, db, models.UserTypeTrainer)
	buyer := createTestUser(t, db, models.UserTypeStudent)
	workout := createTestWorkout(t, db, creator.ID, 1)
	template := createTestTemplate(t, db, creator.ID, &workout.ID, 10000)
	purchase := completedPurchase(t, db, template.ID, buyer.ID)

	_, err := reviewService.CreateReview(buyer.ID, &CreateReviewRequest{
		PurchaseID: purchase.ID,
		Rating:     5,
	})
	require.NoError(t, err)

	_, err = reviewService.CreateReview(buyer.ID, &CreateReviewRequest{
		PurchaseID: purchase.ID,
		Rating:     1,
	})
	assert.ErrorIs(t, err, ErrAlreadyReviewed)

	// The rejected review never touched the aggregate
	var reloaded models.MarketplaceTemplate
	require.NoError(t, db.First(&reloaded, "id = ?", template.ID).Error)
	assert.Equal(t, int64(1), reloaded.RatingCount)
	assert.InDelta(t, 5.0, *reloaded.RatingAverage, 0.001)
}

func TestCreateReviewRequiresCompletedPurchase(t *testing.T) {
	db := setupTestDB(t)
	_, _, _, reviewService := newTestServices(db)

	creator := createTestUser(t, db, models.UserTypeTrainer)
	buyer := createTestUser(t, db, models.UserTypeStudent)
	workout := createTestWorkout(t, db, creator.ID, 1)
	template := createTestTemplate(t, db, creator.ID, &workout.ID, 10000)

	purchase := &models.TemplatePurchase{
		TemplateID: template.ID,
		BuyerID:    buyer.ID,
		PriceCents: 10000,
		Currency:   "BRL",
		Status:     models.PurchaseStatusPending,
	}
	require.NoError(t, db.Create(purchase).Error)

	_, err := reviewService.CreateReview(buyer.ID, &CreateReviewRequest{
		PurchaseID: purchase.ID,
		Rating:     5,
	})
	assert.ErrorIs(t, err, ErrReviewNotEligible)
}

func TestCreateReviewRejectsForeignPurchase(t *testing.T) {
	db := setupTestDB(t)
	_, _, _, reviewService := newTestServices(db)

	creator := createTestUser(t, db, models.UserTypeTrainer)
	buyer := createTestUser(t, db, models.UserTypeStudent)
	other := createTestUser(t, db, models.UserTypeStudent)
	workout := createTestWorkout(t, db, creator.ID, 1)
	template := createTestTemplate(t, db, creator.ID, &workout.ID, 10000)
	purchase := completedPurchase(t, db, template.ID, buyer.ID)

	_, err := reviewService.CreateReview(other.ID, &CreateReviewRequest{
		PurchaseID: purchase.ID,
		Rating:     5,
	})
	assert.ErrorIs(t, err, ErrPurchaseNotFound)
}
