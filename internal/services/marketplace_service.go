// internal/services/marketplace_service.go
package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"

	"github.com/myfitlabs/myfit-backend/internal/config"
	"github.com/myfitlabs/myfit-backend/internal/models"
	"github.com/myfitlabs/myfit-backend/internal/utils"
)

type MarketplaceService struct {
	db               *gorm.DB
	config           *config.Config
	workoutService   *WorkoutService
	nutritionService *NutritionService
}

type CreateTemplateRequest struct {
	TemplateType     models.TemplateType     `json:"template_type" validate:"required,oneof=workout diet_plan"`
	WorkoutID        *uuid.UUID              `json:"workout_id,omitempty"`
	DietPlanID       *uuid.UUID              `json:"diet_plan_id,omitempty"`
	OrganizationID   *uuid.UUID              `json:"organization_id,omitempty"`
	PriceCents       int64                   `json:"price_cents" validate:"gte=0"`
	Title            string                  `json:"title" validate:"required,min=3,max=200"`
	ShortDescription string                  `json:"short_description,omitempty" validate:"max=500"`
	FullDescription  string                  `json:"full_description,omitempty"`
	CoverImageURL    string                  `json:"cover_image_url,omitempty"`
	Category         models.TemplateCategory `json:"category,omitempty"`
	Difficulty       models.Difficulty       `json:"difficulty,omitempty"`
	Tags             []string                `json:"tags,omitempty"`
}

type UpdateTemplateRequest struct {
	PriceCents       *int64                   `json:"price_cents,omitempty" validate:"omitempty,gte=0"`
	Title            *string                  `json:"title,omitempty" validate:"omitempty,min=3,max=200"`
	ShortDescription *string                  `json:"short_description,omitempty" validate:"omitempty,max=500"`
	FullDescription  *string                  `json:"full_description,omitempty"`
	CoverImageURL    *string                  `json:"cover_image_url,omitempty"`
	Category         *models.TemplateCategory `json:"category,omitempty"`
	Difficulty       *models.Difficulty       `json:"difficulty,omitempty"`
	Tags             []string                 `json:"tags,omitempty"`
	IsActive         *bool                    `json:"is_active,omitempty"`
}

type TemplateFilters struct {
	TemplateType models.TemplateType
	Category     models.TemplateCategory
	Difficulty   models.Difficulty
	FreeOnly     bool
	MaxPrice     int64
	Featured     bool
}

// PriceQuote is the resolved price for one buyer and one template. The list
// price never changes here; only the final price reflects member benefits.
type PriceQuote struct {
	ListPriceCents  int64      `json:"list_price_cents"`
	FinalPriceCents int64      `json:"final_price_cents"`
	Currency        string     `json:"currency"`
	DiscountPercent int        `json:"discount_percent"`
	FreeForMember   bool       `json:"free_for_member"`
	OrganizationID  *uuid.UUID `json:"organization_id,omitempty"`
}

type GrantAccessRequest struct {
	TemplateID            uuid.UUID `json:"template_id" validate:"required"`
	IsFreeForMembers      bool      `json:"is_free_for_members"`
	MemberDiscountPercent int       `json:"member_discount_percent" validate:"gte=0,lte=100"`
}

func NewMarketplaceService(db *gorm.DB, cfg *config.Config, workoutService *WorkoutService, nutritionService *NutritionService) *MarketplaceService {
	return &MarketplaceService{
		db:               db,
		config:           cfg,
		workoutService:   workoutService,
		nutritionService: nutritionService,
	}
}

func (s *MarketplaceService) CreateTemplate(creatorID uuid.UUID, req *CreateTemplateRequest) (*models.MarketplaceTemplate, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, err
	}

	// The listing must reference exactly one content item matching its type
	switch req.TemplateType {
	case models.TemplateTypeWorkout:
		if req.WorkoutID == nil {
			return nil, errors.New("workout_id is required for workout templates")
		}
		var workout models.Workout
		if err := s.db.First(&workout, "id = ?", *req.WorkoutID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrWorkoutNotFound
			}
			return nil, fmt.Errorf("failed to fetch workout: %w", err)
		}
		if workout.CreatedByID != creatorID {
			return nil, ErrNotTemplateCreator
		}
		req.DietPlanID = nil

	case models.TemplateTypeDietPlan:
		if req.DietPlanID == nil {
			return nil, errors.New("diet_plan_id is required for diet plan templates")
		}
		var plan models.DietPlan
		if err := s.db.First(&plan, "id = ?", *req.DietPlanID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrDietPlanNotFound
			}
			return nil, fmt.Errorf("failed to fetch diet plan: %w", err)
		}
		if plan.CreatedByID != creatorID {
			return nil, ErrNotTemplateCreator
		}
		req.WorkoutID = nil
	}

	currency := s.config.Payment.DefaultCurrency
	difficulty := req.Difficulty
	if difficulty == "" {
		difficulty = models.DifficultyIntermediate
	}

	// Listings are approved at creation; only approved listings appear in
	// the public catalog
	now := time.Now()

	template := models.MarketplaceTemplate{
		TemplateType:     req.TemplateType,
		WorkoutID:        req.WorkoutID,
		DietPlanID:       req.DietPlanID,
		CreatorID:        creatorID,
		OrganizationID:   req.OrganizationID,
		PriceCents:       req.PriceCents,
		Currency:         currency,
		Title:            req.Title,
		ShortDescription: req.ShortDescription,
		FullDescription:  req.FullDescription,
		CoverImageURL:    req.CoverImageURL,
		Category:         req.Category,
		Difficulty:       difficulty,
		Tags:             pq.StringArray(req.Tags),
		IsActive:         true,
		ApprovedAt:       &now,
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&template).Error; err != nil {
			return fmt.Errorf("failed to create template: %w", err)
		}

		// Mark the source content as a template so owners don't edit it
		// out from under future buyers by accident
		if template.WorkoutID != nil {
			if err := tx.Model(&models.Workout{}).Where("id = ?", *template.WorkoutID).
				Update("is_template", true).Error; err != nil {
				return fmt.Errorf("failed to flag workout as template: %w", err)
			}
		}
		if template.DietPlanID != nil {
			if err := tx.Model(&models.DietPlan{}).Where("id = ?", *template.DietPlanID).
				Update("is_template", true).Error; err != nil {
				return fmt.Errorf("failed to flag diet plan as template: %w", err)
			}
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return &template, nil
}

func (s *MarketplaceService) UpdateTemplate(creatorID, templateID uuid.UUID, req *UpdateTemplateRequest) (*models.MarketplaceTemplate, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, err
	}

	var template models.MarketplaceTemplate
	if err := s.db.First(&template, "id = ?", templateID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTemplateNotFound
		}
		return nil, fmt.Errorf("failed to fetch template: %w", err)
	}

	if template.CreatorID != creatorID {
		return nil, ErrNotTemplateCreator
	}

	updates := map[string]interface{}{}
	if req.PriceCents != nil {
		updates["price_cents"] = *req.PriceCents
	}
	if req.Title != nil {
		updates["title"] = *req.Title
	}
	if req.ShortDescription != nil {
		updates["short_description"] = *req.ShortDescription
	}
	if req.FullDescription != nil {
		updates["full_description"] = *req.FullDescription
	}
	if req.CoverImageURL != nil {
		updates["cover_image_url"] = *req.CoverImageURL
	}
	if req.Category != nil {
		updates["category"] = *req.Category
	}
	if req.Difficulty != nil {
		updates["difficulty"] = *req.Difficulty
	}
	if req.Tags != nil {
		updates["tags"] = pq.StringArray(req.Tags)
	}
	if req.IsActive != nil {
		updates["is_active"] = *req.IsActive
	}

	if len(updates) > 0 {
		if err := s.db.Model(&template).Updates(updates).Error; err != nil {
			return nil, fmt.Errorf("failed to update template: %w", err)
		}
	}

	return &template, nil
}

// DeactivateTemplate hides a listing from the catalog. Existing purchases and
// their copies are unaffected.
func (s *MarketplaceService) DeactivateTemplate(creatorID, templateID uuid.UUID) error {
	result := s.db.Model(&models.MarketplaceTemplate{}).
		Where("id = ? AND creator_id = ?", templateID, creatorID).
		Update("is_active", false)
	if result.Error != nil {
		return fmt.Errorf("failed to deactivate template: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrTemplateNotFound
	}
	return nil
}

func (s *MarketplaceService) GetTemplate(templateID uuid.UUID) (*models.MarketplaceTemplate, error) {
	var template models.MarketplaceTemplate
	err := s.db.Preload("Creator").Preload("Organization").
		First(&template, "id = ?", templateID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTemplateNotFound
		}
		return nil, fmt.Errorf("failed to fetch template: %w", err)
	}

	return &template, nil
}

func (s *MarketplaceService) ListTemplates(params utils.PaginationParams, filters TemplateFilters) ([]models.MarketplaceTemplate, int64, error) {
	query := s.db.Model(&models.MarketplaceTemplate{}).
		Where("is_active = ? AND approved_at IS NOT NULL", true)

	if filters.TemplateType != "" {
		query = query.Where("template_type = ?", filters.TemplateType)
	}
	if filters.Category != "" {
		query = query.Where("category = ?", filters.Category)
	}
	if filters.Difficulty != "" {
		query = query.Where("difficulty = ?", filters.Difficulty)
	}
	if filters.FreeOnly {
		query = query.Where("price_cents = 0")
	}
	if filters.MaxPrice > 0 {
		query = query.Where("price_cents <= ?", filters.MaxPrice)
	}
	if filters.Featured {
		query = query.Where("is_featured = ?", true)
	}
	if params.Search != "" {
		query = query.Where("title ILIKE ? OR short_description ILIKE ?",
			"%"+params.Search+"%", "%"+params.Search+"%")
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count templates: %w", err)
	}

	allowedSortFields := []string{"created_at", "price_cents", "purchase_count", "rating_average", "title"}
	query = utils.ApplySort(query, params, allowedSortFields)
	query = utils.ApplyPagination(query, params)

	var templates []models.MarketplaceTemplate
	if err := query.Preload("Creator").Find(&templates).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to fetch templates: %w", err)
	}

	return templates, total, nil
}

func (s *MarketplaceService) GetFeaturedTemplates(limit int) ([]models.MarketplaceTemplate, error) {
	if limit < 1 || limit > 50 {
		limit = 10
	}

	var templates []models.MarketplaceTemplate
	err := s.db.Where("is_active = ? AND is_featured = ? AND approved_at IS NOT NULL", true, true).
		Order("purchase_count DESC").
		Limit(limit).
		Preload("Creator").
		Find(&templates).Error
	if err != nil {
		return nil, fmt.Errorf("failed to fetch featured templates: %w", err)
	}

	return templates, nil
}

func (s *MarketplaceService) GetCreatorTemplates(creatorID uuid.UUID, params utils.PaginationParams) ([]models.MarketplaceTemplate, int64, error) {
	query := s.db.Model(&models.MarketplaceTemplate{}).Where("creator_id = ?", creatorID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count templates: %w", err)
	}

	allowedSortFields := []string{"created_at", "price_cents", "purchase_count", "rating_average"}
	query = utils.ApplySort(query, params, allowedSortFields)
	query = utils.ApplyPagination(query, params)

	var templates []models.MarketplaceTemplate
	if err := query.Find(&templates).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to fetch templates: %w", err)
	}

	return templates, total, nil
}

func (s *MarketplaceService) GetCategoryCounts() (map[string]int64, error) {
	type row struct {
		Category string
		Count    int64
	}

	var rows []row
	err := s.db.Model(&models.MarketplaceTemplate{}).
		Select("category, COUNT(*) as count").
		Where("is_active = ? AND approved_at IS NOT NULL AND category <> ''", true).
		Group("category").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to count categories: %w", err)
	}

	counts := make(map[string]int64, len(rows))
	for _, r := range rows {
		counts[r.Category] = r.Count
	}

	return counts, nil
}

// TemplatePreview is the limited view shown before purchase: structure and
// volume, never the full programming details.
type TemplatePreview struct {
	TemplateType  models.TemplateType `json:"template_type"`
	ItemCount     int                 `json:"item_count"`
	ItemNames     []string            `json:"item_names"`
	DurationMin   int                 `json:"duration_min,omitempty"`
	TargetMuscles []string            `json:"target_muscles,omitempty"`
	MealCount     int                 `json:"meal_count,omitempty"`
	TargetKcal    int                 `json:"target_calories,omitempty"`
}

func (s *MarketplaceService) GetTemplatePreview(templateID uuid.UUID) (*TemplatePreview, error) {
	template, err := s.GetTemplate(templateID)
	if err != nil {
		return nil, err
	}

	switch template.TemplateType {
	case models.TemplateTypeWorkout:
		if template.WorkoutID == nil {
			return nil, ErrSourceContentMissing
		}
		workout, err := s.workoutService.GetWorkoutByID(*template.WorkoutID)
		if err != nil {
			if errors.Is(err, ErrWorkoutNotFound) {
				return nil, ErrSourceContentMissing
			}
			return nil, err
		}

		names := make([]string, 0, len(workout.Exercises))
		for _, ex := range workout.Exercises {
			names = append(names, ex.Exercise.Name)
		}

		return &TemplatePreview{
			TemplateType:  template.TemplateType,
			ItemCount:     len(workout.Exercises),
			ItemNames:     names,
			DurationMin:   workout.EstimatedDurationMin,
			TargetMuscles: workout.TargetMuscles,
		}, nil

	case models.TemplateTypeDietPlan:
		if template.DietPlanID == nil {
			return nil, ErrSourceContentMissing
		}
		plan, err := s.nutritionService.GetDietPlanByID(*template.DietPlanID)
		if err != nil {
			if errors.Is(err, ErrDietPlanNotFound) {
				return nil, ErrSourceContentMissing
			}
			return nil, err
		}

		names := make([]string, 0, len(plan.Meals))
		for _, meal := range plan.Meals {
			names = append(names, meal.Name)
		}

		return &TemplatePreview{
			TemplateType: template.TemplateType,
			ItemCount:    len(plan.Meals),
			ItemNames:    names,
			MealCount:    len(plan.Meals),
			TargetKcal:   plan.TargetCalories,
		}, nil
	}

	return nil, fmt.Errorf("unknown template type: %s", template.TemplateType)
}

// ResolvePrice computes the price a specific buyer pays for a template.
// Precedence: free listing, then a free-for-members grant, then the largest
// member discount, then the list price.
func (s *MarketplaceService) ResolvePrice(template *models.MarketplaceTemplate, buyerID uuid.UUID) (*PriceQuote, error) {
	quote := &PriceQuote{
		ListPriceCents:  template.PriceCents,
		FinalPriceCents: template.PriceCents,
		Currency:        template.Currency,
	}

	if template.IsFree() {
		return quote, nil
	}

	// Grants only apply through the buyer's active memberships
	var grants []models.OrganizationTemplateAccess
	err := s.db.
		Joins("JOIN organization_members ON organization_members.organization_id = organization_template_accesses.organization_id").
		Where("organization_template_accesses.template_id = ?", template.ID).
		Where("organization_members.user_id = ? AND organization_members.is_active = ?", buyerID, true).
		Find(&grants).Error
	if err != nil {
		return nil, fmt.Errorf("failed to fetch access grants: %w", err)
	}

	bestDiscount := 0
	for i := range grants {
		grant := &grants[i]
		if grant.IsFreeForMembers {
			quote.FinalPriceCents = 0
			quote.DiscountPercent = 100
			quote.FreeForMember = true
			quote.OrganizationID = &grant.OrganizationID
			return quote, nil
		}
		if grant.MemberDiscountPercent > bestDiscount {
			bestDiscount = grant.MemberDiscountPercent
			quote.OrganizationID = &grant.OrganizationID
		}
	}

	if bestDiscount > 0 {
		quote.DiscountPercent = bestDiscount
		quote.FinalPriceCents = memberPriceCents(template.PriceCents, bestDiscount)
	}

	return quote, nil
}

// memberPriceCents applies a percentage discount in integer cent arithmetic,
// rounding in the buyer's favor.
func memberPriceCents(priceCents int64, discountPercent int) int64 {
	if discountPercent <= 0 {
		return priceCents
	}
	if discountPercent >= 100 {
		return 0
	}
	return priceCents * int64(100-discountPercent) / 100
}

func (s *MarketplaceService) GrantOrganizationAccess(adminUserID, organizationID uuid.UUID, req *GrantAccessRequest) (*models.OrganizationTemplateAccess, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, err
	}

	if err := s.requireOrganizationAdmin(adminUserID, organizationID); err != nil {
		return nil, err
	}

	var template models.MarketplaceTemplate
	if err := s.db.First(&template, "id = ?", req.TemplateID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTemplateNotFound
		}
		return nil, fmt.Errorf("failed to fetch template: %w", err)
	}

	access := models.OrganizationTemplateAccess{
		OrganizationID:        organizationID,
		TemplateID:            req.TemplateID,
		IsFreeForMembers:      req.IsFreeForMembers,
		MemberDiscountPercent: req.MemberDiscountPercent,
	}

	// Upsert on the (organization, template) pair
	err := s.db.Where("organization_id = ? AND template_id = ?", organizationID, req.TemplateID).
		Assign(map[string]interface{}{
			"is_free_for_members":     req.IsFreeForMembers,
			"member_discount_percent": req.MemberDiscountPercent,
		}).
		FirstOrCreate(&access).Error
	if err != nil {
		return nil, fmt.Errorf("failed to grant access: %w", err)
	}

	return &access, nil
}

func (s *MarketplaceService) RevokeOrganizationAccess(adminUserID, organizationID, templateID uuid.UUID) error {
	if err := s.requireOrganizationAdmin(adminUserID, organizationID); err != nil {
		return err
	}

	result := s.db.Where("organization_id = ? AND template_id = ?", organizationID, templateID).
		Delete(&models.OrganizationTemplateAccess{})
	if result.Error != nil {
		return fmt.Errorf("failed to revoke access: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrAccessGrantNotFound
	}

	return nil
}

// ListOrganizationTemplates returns the templates an organization has granted
// to its members, the "shelf" view shown inside the organization.
func (s *MarketplaceService) ListOrganizationTemplates(userID, organizationID uuid.UUID) ([]models.OrganizationTemplateAccess, error) {
	var membership models.OrganizationMember
	err := s.db.Where("organization_id = ? AND user_id = ? AND is_active = ?", organizationID, userID, true).
		First(&membership).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrganizationNotFound
		}
		return nil, fmt.Errorf("failed to check membership: %w", err)
	}

	var grants []models.OrganizationTemplateAccess
	err = s.db.Where("organization_id = ?", organizationID).
		Preload("Template").Preload("Template.Creator").
		Find(&grants).Error
	if err != nil {
		return nil, fmt.Errorf("failed to fetch organization templates: %w", err)
	}

	return grants, nil
}

func (s *MarketplaceService) requireOrganizationAdmin(userID, organizationID uuid.UUID) error {
	var membership models.OrganizationMember
	err := s.db.Where("organization_id = ? AND user_id = ? AND is_active = ?", organizationID, userID, true).
		First(&membership).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrOrganizationNotFound
		}
		return fmt.Errorf("failed to check membership: %w", err)
	}

	if membership.Role != "admin" && membership.Role != "owner" {
		return ErrNotOrganizationAdmin
	}

	return nil
}
