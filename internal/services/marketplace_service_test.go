// internal/services/marketplace_service_test.go
package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/myfitlabs/myfit-backend/internal/models"
	"github.com/myfitlabs/myfit-backend/internal/utils"
)

func TestMemberPriceCents(t *testing.T) {
	tests := []struct {
		name            string
		priceCents      int64
		discountPercent int
		want            int64
	}{
		{"half off", 10000, 50, 5000},
		{"no discount", 10000, 0, 10000},
		{"full discount", 10000, 100, 0},
		{"floors fractional cents", 999, 33, 669},
		{"over 100 clamps to free", 10000, 150, 0},
		{"negative treated as none", 10000, -10, 10000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, memberPriceCents(tt.priceCents, tt.discountPercent))
		})
	}
}

func TestResolvePriceWithOrganizationGrants(t *testing.T) {
	db := setupTestDB(t)
	marketplaceService, _, _, _ := newTestServices(db)

	creator := createTestUser(t, db, models.UserTypeTrainer)
	buyer := createTestUser(t, db, models.UserTypeStudent)
	outsider := createTestUser(t, db, models.UserTypeStudent)
	workout := createTestWorkout(t, db, creator.ID, 1)
	template := createTestTemplate(t, db, creator.ID, &workout.ID, 10000)

	org := &models.Organization{Name: "Iron Gym", Slug: "iron-gym"}
	require.NoError(t, db.Create(org).Error)
	require.NoError(t, db.Create(&models.OrganizationMember{
		OrganizationID: org.ID,
		UserID:         buyer.ID,
		Role:           "member",
		IsActive:       true,
	}).Error)

	// No grant: full price for everyone
	quote, err := marketplaceService.ResolvePrice(template, buyer.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(10000), quote.FinalPriceCents)
	assert.Zero(t, quote.DiscountPercent)

	// 50% member discount
	require.NoError(t, db.Create(&models.OrganizationTemplateAccess{
		OrganizationID:        org.ID,
		TemplateID:            template.ID,
		MemberDiscountPercent: 50,
	}).Error)

	quote, err = marketplaceService.ResolvePrice(template, buyer.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(5000), quote.FinalPriceCents)
	assert.Equal(t, 50, quote.DiscountPercent)
	assert.False(t, quote.FreeForMember)

	// Non-members still pay list price
	quote, err = marketplaceService.ResolvePrice(template, outsider.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(10000), quote.FinalPriceCents)

	// Free-for-members grant wins over any discount
	require.NoError(t, db.Model(&models.OrganizationTemplateAccess{}).
		Where("organization_id = ? AND template_id = ?", org.ID, template.ID).
		Update("is_free_for_members", true).Error)

	quote, err = marketplaceService.ResolvePrice(template, buyer.ID)
	require.NoError(t, err)
	assert.Zero(t, quote.FinalPriceCents)
	assert.True(t, quote.FreeForMember)
}

func TestCreateTemplateRequiresMatchingContent(t *testing.T) {
	db := setupTestDB(t)
	marketplaceService, _, _, _ := newTestServices(db)

	creator := createTestUser(t, db, models.UserTypeTrainer)
	other := createTestUser(t, db, models.UserTypeTrainer)
	workout := createTestWorkout(t, db, creator.ID, 2)

	// Creator can list their own workout
	template, err := marketplaceService.CreateTemplate(creator.ID, &CreateTemplateRequest{
		TemplateType: models.TemplateTypeWorkout,
		WorkoutID:    &workout.ID,
		PriceCents:   4900,
		Title:        "Hypertrophy Block",
	})
	require.NoError(t, err)
	assert.Equal(t, "BRL", template.Currency)
	assert.True(t, template.IsActive)

	// Someone else cannot list it
	_, err = marketplaceService.CreateTemplate(other.ID, &CreateTemplateRequest{
		TemplateType: models.TemplateTypeWorkout,
		WorkoutID:    &workout.ID,
		PriceCents:   4900,
		Title:        "Stolen Block",
	})
	assert.ErrorIs(t, err, ErrNotTemplateCreator)

	// Workout templates need a workout reference
	_, err = marketplaceService.CreateTemplate(creator.ID, &CreateTemplateRequest{
		TemplateType: models.TemplateTypeWorkout,
		PriceCents:   4900,
		Title:        "Missing Content",
	})
	assert.Error(t, err)
}

func TestCatalogListsOnlyApprovedTemplates(t *testing.T) {
	db := setupTestDB(t)
	marketplaceService, _, _, _ := newTestServices(db)

	creator := createTestUser(t, db, models.UserTypeTrainer)
	workout := createTestWorkout(t, db, creator.ID, 1)

	created, err := marketplaceService.CreateTemplate(creator.ID, &CreateTemplateRequest{
		TemplateType: models.TemplateTypeWorkout,
		WorkoutID:    &workout.ID,
		PriceCents:   4900,
		Title:        "Approved Block",
	})
	require.NoError(t, err)
	require.NotNil(t, created.ApprovedAt)

	// An active listing that was never approved stays out of the catalog
	otherWorkout := createTestWorkout(t, db, creator.ID, 1)
	unapproved := &models.MarketplaceTemplate{
		TemplateType: models.TemplateTypeWorkout,
		WorkoutID:    &otherWorkout.ID,
		CreatorID:    creator.ID,
		PriceCents:   4900,
		Currency:     "BRL",
		Title:        "Unapproved Block",
		Difficulty:   models.DifficultyIntermediate,
		IsActive:     true,
		IsFeatured:   true,
	}
	require.NoError(t, db.Create(unapproved).Error)

	templates, total, err := marketplaceService.ListTemplates(
		utils.PaginationParams{Page: 1, Limit: 20}, TemplateFilters{})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, templates, 1)
	assert.Equal(t, created.ID, templates[0].ID)

	featured, err := marketplaceService.GetFeaturedTemplates(10)
	require.NoError(t, err)
	assert.Empty(t, featured)
}

func TestDeactivateTemplateHidesFromCatalog(t *testing.T) {
	db := setupTestDB(t)
	marketplaceService, _, _, _ := newTestServices(db)

	creator := createTestUser(t, db, models.UserTypeTrainer)
	workout := createTestWorkout(t, db, creator.ID, 1)
	template := createTestTemplate(t, db, creator.ID, &workout.ID, 10000)

	require.NoError(t, marketplaceService.DeactivateTemplate(creator.ID, template.ID))

	var reloaded models.MarketplaceTemplate
	require.NoError(t, db.First(&reloaded, "id = ?", template.ID).Error)
	assert.False(t, reloaded.IsActive)

	// Detail endpoint still serves it (existing buyers keep their copies)
	_, err := marketplaceService.GetTemplate(template.ID)
	assert.NoError(t, err)
}
