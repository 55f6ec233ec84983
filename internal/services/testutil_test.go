// internal/services/testutil_test.go
package services

import (
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/myfitlabs/myfit-backend/internal/config"
	"github.com/myfitlabs/myfit-backend/internal/models"
)

// setupTestDB opens the Postgres database named by TEST_DATABASE_DSN and
// migrates a clean schema. Tests that need a database skip when the variable
// is unset.
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := os.Getenv("TEST_DATABASE_DSN")
	if dsn == "" {
		t.Skip("TEST_DATABASE_DSN not set, skipping database test")
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	require.NoError(t, db.Exec("CREATE EXTENSION IF NOT EXISTS \"pgcrypto\"").Error)
	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.Organization{},
		&models.OrganizationMember{},
		&models.Exercise{},
		&models.Workout{},
		&models.WorkoutExercise{},
		&models.WorkoutAssignment{},
		&models.Food{},
		&models.DietPlan{},
		&models.DietPlanMeal{},
		&models.DietPlanMealFood{},
		&models.MarketplaceTemplate{},
		&models.TemplatePurchase{},
		&models.TemplateReview{},
		&models.CreatorEarnings{},
		&models.CreatorPayout{},
		&models.OrganizationTemplateAccess{},
		&models.ReconciliationEvent{},
	))

	t.Cleanup(func() {
		tables := []string{
			"reconciliation_events", "organization_template_accesses",
			"creator_payouts", "creator_earnings", "template_reviews",
			"template_purchases", "marketplace_templates",
			"diet_plan_meal_foods", "diet_plan_meals", "diet_plans", "foods",
			"workout_assignments", "workout_exercises", "workouts", "exercises",
			"organization_members", "organizations", "users",
		}
		for _, table := range tables {
			db.Exec("DELETE FROM " + table)
		}
	})

	return db
}

func uuidMustParse(t *testing.T, s string) uuid.UUID {
	t.Helper()
	id, err := uuid.Parse(s)
	require.NoError(t, err)
	return id
}

func testConfig() *config.Config {
	return &config.Config{
		Environment: "test",
		Payment: config.PaymentConfig{
			PlatformFeePercent: 20,
			MinimumPayoutCents: 5000,
			DefaultCurrency:    "BRL",
		},
		JWT: config.JWTConfig{
			SecretKey:       "test-secret",
			AccessTokenTTL:  1,
			RefreshTokenTTL: 24,
		},
	}
}

func createTestUser(t *testing.T, db *gorm.DB, userType models.UserType) *models.User {
	t.Helper()

	user := &models.User{
		Name:     "Test " + string(userType),
		Email:    fmt.Sprintf("%s-%s@test.local", userType, uuid.NewString()[:8]),
		UserType: userType,
		Status:   models.UserStatusActive,
	}
	require.NoError(t, user.SetPassword("Password123"))
	require.NoError(t, db.Create(user).Error)

	return user
}

// createTestWorkout builds a workout with the given number of exercise rows.
func createTestWorkout(t *testing.T, db *gorm.DB, ownerID uuid.UUID, exerciseCount int) *models.Workout {
	t.Helper()

	workout := &models.Workout{
		Name:        "Push Day",
		Difficulty:  models.DifficultyIntermediate,
		IsTemplate:  true,
		CreatedByID: ownerID,
	}
	require.NoError(t, db.Create(workout).Error)

	for i := 0; i < exerciseCount; i++ {
		exercise := &models.Exercise{
			Name:        fmt.Sprintf("Exercise %d", i+1),
			MuscleGroup: "chest",
		}
		require.NoError(t, db.Create(exercise).Error)

		item := &models.WorkoutExercise{
			WorkoutID:   workout.ID,
			ExerciseID:  exercise.ID,
			Order:       i,
			Sets:        4,
			Reps:        "8-10",
			RestSeconds: 90,
			Notes:       "tempo 2-0-2",
		}
		require.NoError(t, db.Create(item).Error)
	}

	return workout
}

func createTestDietPlan(t *testing.T, db *gorm.DB, ownerID uuid.UUID, mealCount, foodsPerMeal int) *models.DietPlan {
	t.Helper()

	plan := &models.DietPlan{
		Name:           "Cutting Plan",
		TargetCalories: 1800,
		IsTemplate:     true,
		CreatedByID:    ownerID,
	}
	require.NoError(t, db.Create(plan).Error)

	for i := 0; i < mealCount; i++ {
		meal := &models.DietPlanMeal{
			PlanID:   plan.ID,
			Name:     fmt.Sprintf("Meal %d", i+1),
			MealTime: "08:00",
			Order:    i,
		}
		require.NoError(t, db.Create(meal).Error)

		for j := 0; j < foodsPerMeal; j++ {
			food := &models.Food{
				Name:     fmt.Sprintf("Food %d-%d", i+1, j+1),
				Calories: 120,
				Protein:  20,
				Carbs:    5,
				Fat:      3,
			}
			require.NoError(t, db.Create(food).Error)

			mealFood := &models.DietPlanMealFood{
				MealID:             meal.ID,
				FoodID:             food.ID,
				Servings:           1.5,
				PortionDescription: "1.5 scoops",
			}
			require.NoError(t, db.Create(mealFood).Error)
		}
	}

	return plan
}

func createTestTemplate(t *testing.T, db *gorm.DB, creatorID uuid.UUID, workoutID *uuid.UUID, priceCents int64) *models.MarketplaceTemplate {
	t.Helper()

	approvedAt := time.Now()
	template := &models.MarketplaceTemplate{
		TemplateType: models.TemplateTypeWorkout,
		WorkoutID:    workoutID,
		CreatorID:    creatorID,
		PriceCents:   priceCents,
		Currency:     "BRL",
		Title:        "8-Week Push Pull Legs",
		Category:     models.TemplateCategoryStrength,
		Difficulty:   models.DifficultyIntermediate,
		IsActive:     true,
		ApprovedAt:   &approvedAt,
	}
	require.NoError(t, db.Create(template).Error)

	return template
}

func newTestServices(db *gorm.DB) (*MarketplaceService, *PurchaseService, *EarningsService, *ReviewService) {
	cfg := testConfig()
	workoutService := NewWorkoutService(db)
	nutritionService := NewNutritionService(db)
	marketplaceService := NewMarketplaceService(db, cfg, workoutService, nutritionService)
	earningsService := NewEarningsService(db, cfg)
	purchaseService := NewPurchaseService(db, cfg, marketplaceService,
		workoutService, nutritionService, earningsService, nil)
	reviewService := NewReviewService(db)

	return marketplaceService, purchaseService, earningsService, reviewService
}
