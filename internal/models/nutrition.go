// internal/models/nutrition.go
package models

import (
	"github.com/google/uuid"
	"github.com/lib/pq"
)

type Food struct {
	BaseModel
	Name               string     `json:"name" gorm:"size:255;not null;index"`
	Brand              string     `json:"brand,omitempty" gorm:"size:255"`
	Barcode            string     `json:"barcode,omitempty" gorm:"size:50;index"`
	Calories           float64    `json:"calories" gorm:"not null"`
	Protein            float64    `json:"protein" gorm:"not null"`
	Carbs              float64    `json:"carbs" gorm:"not null"`
	Fat                float64    `json:"fat" gorm:"not null"`
	PortionSize        string     `json:"portion_size" gorm:"size:100;default:'100g'"`
	PortionWeightGrams float64    `json:"portion_weight_g" gorm:"default:100"`
	Category           string     `json:"category" gorm:"size:50;index"`
	IsVerified         bool       `json:"is_verified" gorm:"default:false"`
	IsPublic           bool       `json:"is_public" gorm:"default:true"`
	CreatedByID        *uuid.UUID `json:"created_by_id" gorm:"type:uuid;index"`
}

type DietPlan struct {
	BaseModel
	Name           string         `json:"name" gorm:"size:255;not null"`
	Description    string         `json:"description,omitempty" gorm:"type:text"`
	TargetCalories int            `json:"target_calories" gorm:"default:2000"`
	TargetProtein  int            `json:"target_protein" gorm:"default:150"`
	TargetCarbs    int            `json:"target_carbs" gorm:"default:200"`
	TargetFat      int            `json:"target_fat" gorm:"default:70"`
	Tags           pq.StringArray `json:"tags,omitempty" gorm:"type:text[]"`
	IsTemplate     bool           `json:"is_template" gorm:"default:false"`
	IsPublic       bool           `json:"is_public" gorm:"default:false"`
	CreatedByID    uuid.UUID      `json:"created_by_id" gorm:"type:uuid;not null;index"`
	OrganizationID *uuid.UUID     `json:"organization_id" gorm:"type:uuid;index"`

	// Relationships
	CreatedBy    User           `json:"created_by,omitempty" gorm:"foreignKey:CreatedByID"`
	Organization *Organization  `json:"organization,omitempty" gorm:"foreignKey:OrganizationID"`
	Meals        []DietPlanMeal `json:"meals,omitempty" gorm:"foreignKey:PlanID;constraint:OnDelete:CASCADE"`
}

type DietPlanMeal struct {
	BaseModel
	PlanID   uuid.UUID `json:"plan_id" gorm:"type:uuid;not null;index"`
	Name     string    `json:"name" gorm:"size:100;not null"`
	MealTime string    `json:"meal_time" gorm:"size:10;not null"`
	Order    int       `json:"order" gorm:"column:meal_order;default:0"`
	Notes    string    `json:"notes,omitempty" gorm:"type:text"`

	// Relationships
	Plan  DietPlan           `json:"-" gorm:"foreignKey:PlanID"`
	Foods []DietPlanMealFood `json:"foods,omitempty" gorm:"foreignKey:MealID;constraint:OnDelete:CASCADE"`
}

type DietPlanMealFood struct {
	BaseModel
	MealID             uuid.UUID `json:"meal_id" gorm:"type:uuid;not null;index"`
	FoodID             uuid.UUID `json:"food_id" gorm:"type:uuid;not null;index"`
	Servings           float64   `json:"servings" gorm:"default:1"`
	PortionDescription string    `json:"portion_description,omitempty" gorm:"size:100"`
	Notes              string    `json:"notes,omitempty" gorm:"size:500"`

	// Relationships
	Meal DietPlanMeal `json:"-" gorm:"foreignKey:MealID"`
	Food Food         `json:"food,omitempty" gorm:"foreignKey:FoodID"`
}
