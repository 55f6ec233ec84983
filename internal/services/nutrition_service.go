// internal/services/nutrition_service.go
package services

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/myfitlabs/myfit-backend/internal/models"
	"github.com/myfitlabs/myfit-backend/internal/utils"
)

type NutritionService struct {
	db *gorm.DB
}

func NewNutritionService(db *gorm.DB) *NutritionService {
	return &NutritionService{db: db}
}

func (s *NutritionService) GetDietPlanByID(planID uuid.UUID) (*models.DietPlan, error) {
	var plan models.DietPlan
	err := s.db.Preload("Meals", func(db *gorm.DB) *gorm.DB {
		return db.Order("meal_order ASC")
	}).Preload("Meals.Foods").Preload("Meals.Foods.Food").
		First(&plan, "id = ?", planID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrDietPlanNotFound
		}
		return nil, fmt.Errorf("failed to fetch diet plan: %w", err)
	}

	return &plan, nil
}

func (s *NutritionService) ListUserDietPlans(userID uuid.UUID, params utils.PaginationParams) ([]models.DietPlan, int64, error) {
	query := s.db.Model(&models.DietPlan{}).Where("created_by_id = ?", userID)

	if params.Search != "" {
		query = query.Where("name ILIKE ?", "%"+params.Search+"%")
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count diet plans: %w", err)
	}

	allowedSortFields := []string{"created_at", "name", "target_calories"}
	query = utils.ApplySort(query, params, allowedSortFields)
	query = utils.ApplyPagination(query, params)

	var plans []models.DietPlan
	if err := query.Find(&plans).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to fetch diet plans: %w", err)
	}

	return plans, total, nil
}

// DuplicateDietPlan copies a diet plan with its meals and meal foods into a
// new private plan owned by newOwnerID. Runs on the caller's transaction so
// the copy is all-or-nothing.
func (s *NutritionService) DuplicateDietPlan(tx *gorm.DB, planID, newOwnerID uuid.UUID, name string) (*models.DietPlan, error) {
	var source models.DietPlan
	err := tx.Preload("Meals", func(db *gorm.DB) *gorm.DB {
		return db.Order("meal_order ASC")
	}).Preload("Meals.Foods").
		First(&source, "id = ?", planID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSourceContentMissing
		}
		return nil, fmt.Errorf("failed to fetch source diet plan: %w", err)
	}

	if name == "" {
		name = source.Name
	}

	copy := models.DietPlan{
		Name:           name,
		Description:    source.Description,
		TargetCalories: source.TargetCalories,
		TargetProtein:  source.TargetProtein,
		TargetCarbs:    source.TargetCarbs,
		TargetFat:      source.TargetFat,
		Tags:           source.Tags,
		IsTemplate:     false,
		IsPublic:       false,
		CreatedByID:    newOwnerID,
	}

	if err := tx.Create(&copy).Error; err != nil {
		return nil, fmt.Errorf("failed to create diet plan copy: %w", err)
	}

	for _, meal := range source.Meals {
		mealCopy := models.DietPlanMeal{
			PlanID:   copy.ID,
			Name:     meal.Name,
			MealTime: meal.MealTime,
			Order:    meal.Order,
			Notes:    meal.Notes,
		}
		if err := tx.Create(&mealCopy).Error; err != nil {
			return nil, fmt.Errorf("failed to copy meal: %w", err)
		}

		for _, food := range meal.Foods {
			foodCopy := models.DietPlanMealFood{
				MealID:             mealCopy.ID,
				FoodID:             food.FoodID,
				Servings:           food.Servings,
				PortionDescription: food.PortionDescription,
				Notes:              food.Notes,
			}
			if err := tx.Create(&foodCopy).Error; err != nil {
				return nil, fmt.Errorf("failed to copy meal food: %w", err)
			}
		}
	}

	return &copy, nil
}
