// internal/services/workout_service.go
package services

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/myfitlabs/myfit-backend/internal/models"
	"github.com/myfitlabs/myfit-backend/internal/utils"
)

type WorkoutService struct {
	db *gorm.DB
}

func NewWorkoutService(db *gorm.DB) *WorkoutService {
	return &WorkoutService{db: db}
}

func (s *WorkoutService) GetWorkoutByID(workoutID uuid.UUID) (*models.Workout, error) {
	var workout models.Workout
	err := s.db.Preload("Exercises", func(db *gorm.DB) *gorm.DB {
		return db.Order("exercise_order ASC")
	}).Preload("Exercises.Exercise").
		First(&workout, "id = ?", workoutID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrWorkoutNotFound
		}
		return nil, fmt.Errorf("failed to fetch workout: %w", err)
	}

	return &workout, nil
}

func (s *WorkoutService) ListUserWorkouts(userID uuid.UUID, params utils.PaginationParams) ([]models.Workout, int64, error) {
	query := s.db.Model(&models.Workout{}).Where("created_by_id = ?", userID)

	if params.Search != "" {
		query = query.Where("name ILIKE ?", "%"+params.Search+"%")
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count workouts: %w", err)
	}

	allowedSortFields := []string{"created_at", "name", "difficulty"}
	query = utils.ApplySort(query, params, allowedSortFields)
	query = utils.ApplyPagination(query, params)

	var workouts []models.Workout
	if err := query.Find(&workouts).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to fetch workouts: %w", err)
	}

	return workouts, total, nil
}

// DuplicateWorkout copies a workout and its exercise rows into a new private
// workout owned by newOwnerID. It runs on the caller's transaction so a
// partial copy never survives: either every row lands or none do.
func (s *WorkoutService) DuplicateWorkout(tx *gorm.DB, workoutID, newOwnerID uuid.UUID, name string) (*models.Workout, error) {
	var source models.Workout
	err := tx.Preload("Exercises", func(db *gorm.DB) *gorm.DB {
		return db.Order("exercise_order ASC")
	}).First(&source, "id = ?", workoutID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSourceContentMissing
		}
		return nil, fmt.Errorf("failed to fetch source workout: %w", err)
	}

	if name == "" {
		name = source.Name
	}

	copy := models.Workout{
		Name:                 name,
		Description:          source.Description,
		Difficulty:           source.Difficulty,
		EstimatedDurationMin: source.EstimatedDurationMin,
		TargetMuscles:        source.TargetMuscles,
		Tags:                 source.Tags,
		IsTemplate:           false,
		IsPublic:             false,
		CreatedByID:          newOwnerID,
	}

	if err := tx.Create(&copy).Error; err != nil {
		return nil, fmt.Errorf("failed to create workout copy: %w", err)
	}

	for _, ex := range source.Exercises {
		item := models.WorkoutExercise{
			WorkoutID:   copy.ID,
			ExerciseID:  ex.ExerciseID,
			Order:       ex.Order,
			Sets:        ex.Sets,
			Reps:        ex.Reps,
			RestSeconds: ex.RestSeconds,
			Notes:       ex.Notes,
		}
		if err := tx.Create(&item).Error; err != nil {
			return nil, fmt.Errorf("failed to copy workout exercise: %w", err)
		}
	}

	return &copy, nil
}
