// internal/models/workout.go
package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

type Exercise struct {
	BaseModel
	Name             string         `json:"name" gorm:"size:255;not null"`
	Description      string         `json:"description,omitempty" gorm:"type:text"`
	MuscleGroup      string         `json:"muscle_group" gorm:"size:50;index"`
	SecondaryMuscles pq.StringArray `json:"secondary_muscles,omitempty" gorm:"type:text[]"`
	Equipment        pq.StringArray `json:"equipment,omitempty" gorm:"type:text[]"`
	VideoURL         string         `json:"video_url,omitempty" gorm:"size:500"`
	ImageURL         string         `json:"image_url,omitempty" gorm:"size:500"`
	Instructions     string         `json:"instructions,omitempty" gorm:"type:text"`
	IsCustom         bool           `json:"is_custom" gorm:"default:false"`
	IsPublic         bool           `json:"is_public" gorm:"default:true"`
	CreatedByID      *uuid.UUID     `json:"created_by_id" gorm:"type:uuid;index"`
}

type Workout struct {
	BaseModel
	Name                 string         `json:"name" gorm:"size:255;not null"`
	Description          string         `json:"description,omitempty" gorm:"type:text"`
	Difficulty           Difficulty     `json:"difficulty" gorm:"type:varchar(20);default:'intermediate'"`
	EstimatedDurationMin int            `json:"estimated_duration_min" gorm:"default:60"`
	TargetMuscles        pq.StringArray `json:"target_muscles,omitempty" gorm:"type:text[]"`
	Tags                 pq.StringArray `json:"tags,omitempty" gorm:"type:text[]"`
	IsTemplate           bool           `json:"is_template" gorm:"default:false"`
	IsPublic             bool           `json:"is_public" gorm:"default:false"`
	CreatedByID          uuid.UUID      `json:"created_by_id" gorm:"type:uuid;not null;index"`
	OrganizationID       *uuid.UUID     `json:"organization_id" gorm:"type:uuid;index"`

	// Relationships
	CreatedBy    User              `json:"created_by,omitempty" gorm:"foreignKey:CreatedByID"`
	Organization *Organization     `json:"organization,omitempty" gorm:"foreignKey:OrganizationID"`
	Exercises    []WorkoutExercise `json:"exercises,omitempty" gorm:"foreignKey:WorkoutID;constraint:OnDelete:CASCADE"`
}

type WorkoutExercise struct {
	BaseModel
	WorkoutID    uuid.UUID  `json:"workout_id" gorm:"type:uuid;not null;index"`
	ExerciseID   uuid.UUID  `json:"exercise_id" gorm:"type:uuid;not null;index"`
	Order        int        `json:"order" gorm:"column:exercise_order;default:0"`
	Sets         int        `json:"sets" gorm:"default:3"`
	Reps         string     `json:"reps" gorm:"size:50;default:'8-12'"`
	RestSeconds  int        `json:"rest_seconds" gorm:"default:60"`
	Notes        string     `json:"notes,omitempty" gorm:"type:text"`
	SupersetWith *uuid.UUID `json:"superset_with,omitempty" gorm:"type:uuid"`

	// Relationships
	Workout  Workout  `json:"-" gorm:"foreignKey:WorkoutID"`
	Exercise Exercise `json:"exercise,omitempty" gorm:"foreignKey:ExerciseID"`
}

type WorkoutAssignment struct {
	BaseModel
	WorkoutID      uuid.UUID  `json:"workout_id" gorm:"type:uuid;not null;index"`
	StudentID      uuid.UUID  `json:"student_id" gorm:"type:uuid;not null;index"`
	TrainerID      uuid.UUID  `json:"trainer_id" gorm:"type:uuid;not null;index"`
	OrganizationID *uuid.UUID `json:"organization_id" gorm:"type:uuid;index"`
	StartDate      time.Time  `json:"start_date" gorm:"type:date;not null"`
	EndDate        *time.Time `json:"end_date,omitempty" gorm:"type:date"`
	IsActive       bool       `json:"is_active" gorm:"default:true"`
	Notes          string     `json:"notes,omitempty" gorm:"type:text"`

	// Relationships
	Workout Workout `json:"workout,omitempty" gorm:"foreignKey:WorkoutID"`
	Student User    `json:"student,omitempty" gorm:"foreignKey:StudentID"`
	Trainer User    `json:"trainer,omitempty" gorm:"foreignKey:TrainerID"`
}
