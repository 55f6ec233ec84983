// internal/services/workout_service_test.go
package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/myfitlabs/myfit-backend/internal/models"
)

func TestDuplicateWorkoutCopiesFullGraph(t *testing.T) {
	db := setupTestDB(t)
	workoutService := NewWorkoutService(db)

	creator := createTestUser(t, db, models.UserTypeTrainer)
	buyer := createTestUser(t, db, models.UserTypeStudent)
	source := createTestWorkout(t, db, creator.ID, 4)

	var copyID string
	err := db.Transaction(func(tx *gorm.DB) error {
		copy, err := workoutService.DuplicateWorkout(tx, source.ID, buyer.ID, "8-Week Push Pull Legs")
		if err != nil {
			return err
		}
		copyID = copy.ID.String()
		return nil
	})
	require.NoError(t, err)

	copy, err := workoutService.GetWorkoutByID(uuidMustParse(t, copyID))
	require.NoError(t, err)

	assert.Equal(t, "8-Week Push Pull Legs", copy.Name)
	assert.Equal(t, buyer.ID, copy.CreatedByID)
	assert.False(t, copy.IsTemplate)
	assert.False(t, copy.IsPublic)
	require.Len(t, copy.Exercises, 4)

	sourceLoaded, err := workoutService.GetWorkoutByID(source.ID)
	require.NoError(t, err)

	for i, item := range copy.Exercises {
		orig := sourceLoaded.Exercises[i]
		assert.Equal(t, orig.ExerciseID, item.ExerciseID)
		assert.Equal(t, orig.Order, item.Order)
		assert.Equal(t, orig.Sets, item.Sets)
		assert.Equal(t, orig.Reps, item.Reps)
		assert.Equal(t, orig.RestSeconds, item.RestSeconds)
		assert.Equal(t, orig.Notes, item.Notes)
		assert.NotEqual(t, orig.ID, item.ID, "copied rows get fresh identities")
		assert.NotEqual(t, orig.WorkoutID, item.WorkoutID)
	}
}

func TestDuplicateWorkoutCopyIsIndependent(t *testing.T) {
	db := setupTestDB(t)
	workoutService := NewWorkoutService(db)

	creator := createTestUser(t, db, models.UserTypeTrainer)
	buyer := createTestUser(t, db, models.UserTypeStudent)
	source := createTestWorkout(t, db, creator.ID, 2)

	var copy *models.Workout
	err := db.Transaction(func(tx *gorm.DB) error {
		var err error
		copy, err = workoutService.DuplicateWorkout(tx, source.ID, buyer.ID, "")
		return err
	})
	require.NoError(t, err)

	// Creator edits the original after the sale
	require.NoError(t, db.Model(&models.Workout{}).
		Where("id = ?", source.ID).Update("name", "Renamed Original").Error)
	require.NoError(t, db.Model(&models.WorkoutExercise{}).
		Where("workout_id = ?", source.ID).Update("sets", 10).Error)

	reloaded, err := workoutService.GetWorkoutByID(copy.ID)
	require.NoError(t, err)
	assert.Equal(t, "Push Day", reloaded.Name, "copy keeps the source name from duplication time")
	for _, item := range reloaded.Exercises {
		assert.Equal(t, 4, item.Sets)
	}
}

func TestDuplicateWorkoutMissingSourceRollsBack(t *testing.T) {
	db := setupTestDB(t)
	workoutService := NewWorkoutService(db)

	buyer := createTestUser(t, db, models.UserTypeStudent)

	err := db.Transaction(func(tx *gorm.DB) error {
		_, err := workoutService.DuplicateWorkout(tx, buyer.ID, buyer.ID, "ghost")
		return err
	})
	assert.ErrorIs(t, err, ErrSourceContentMissing)

	var count int64
	db.Model(&models.Workout{}).Count(&count)
	assert.Zero(t, count)
}

func TestDuplicateDietPlanCopiesMealsAndFoods(t *testing.T) {
	db := setupTestDB(t)
	nutritionService := NewNutritionService(db)

	creator := createTestUser(t, db, models.UserTypeNutritionist)
	buyer := createTestUser(t, db, models.UserTypeStudent)
	source := createTestDietPlan(t, db, creator.ID, 3, 2)

	var copy *models.DietPlan
	err := db.Transaction(func(tx *gorm.DB) error {
		var err error
		copy, err = nutritionService.DuplicateDietPlan(tx, source.ID, buyer.ID, "Summer Cut")
		return err
	})
	require.NoError(t, err)

	reloaded, err := nutritionService.GetDietPlanByID(copy.ID)
	require.NoError(t, err)

	assert.Equal(t, "Summer Cut", reloaded.Name)
	assert.Equal(t, buyer.ID, reloaded.CreatedByID)
	assert.False(t, reloaded.IsTemplate)
	assert.Equal(t, 1800, reloaded.TargetCalories)
	require.Len(t, reloaded.Meals, 3)

	for _, meal := range reloaded.Meals {
		assert.Equal(t, copy.ID, meal.PlanID)
		require.Len(t, meal.Foods, 2)
		for _, food := range meal.Foods {
			assert.Equal(t, 1.5, food.Servings)
			assert.Equal(t, "1.5 scoops", food.PortionDescription)
		}
	}
}
