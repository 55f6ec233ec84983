// internal/models/common.go
package models

import (
	"database/sql/driver"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Base model with common fields
type BaseModel struct {
	ID        uuid.UUID      `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"deleted_at,omitempty" gorm:"index"`
}

// JSONB type for PostgreSQL
type JSONB map[string]interface{}

func (j JSONB) Value() (driver.Value, error) {
	if j == nil {
		return nil, nil
	}
	return json.Marshal(j)
}

func (j *JSONB) Scan(value interface{}) error {
	if value == nil {
		*j = nil
		return nil
	}

	bytes, ok := value.([]byte)
	if !ok {
		return nil
	}

	return json.Unmarshal(bytes, j)
}

// Enums
type UserType string

const (
	UserTypeStudent      UserType = "student"
	UserTypeTrainer      UserType = "trainer"
	UserTypeNutritionist UserType = "nutritionist"
	UserTypeAdmin        UserType = "admin"
)

type UserStatus string

const (
	UserStatusActive    UserStatus = "active"
	UserStatusSuspended UserStatus = "suspended"
	UserStatusBanned    UserStatus = "banned"
)

type TemplateType string

const (
	TemplateTypeWorkout  TemplateType = "workout"
	TemplateTypeDietPlan TemplateType = "diet_plan"
)

type TemplateCategory string

const (
	TemplateCategoryStrength       TemplateCategory = "strength"
	TemplateCategoryWeightLoss     TemplateCategory = "weight_loss"
	TemplateCategoryMuscleGain     TemplateCategory = "muscle_gain"
	TemplateCategoryEndurance      TemplateCategory = "endurance"
	TemplateCategoryFlexibility    TemplateCategory = "flexibility"
	TemplateCategoryGeneralFitness TemplateCategory = "general_fitness"
	TemplateCategorySports         TemplateCategory = "sports"
	TemplateCategoryRehabilitation TemplateCategory = "rehabilitation"
)

type Difficulty string

const (
	DifficultyBeginner     Difficulty = "beginner"
	DifficultyIntermediate Difficulty = "intermediate"
	DifficultyAdvanced     Difficulty = "advanced"
)

type PurchaseStatus string

const (
	PurchaseStatusPending   PurchaseStatus = "pending"
	PurchaseStatusCompleted PurchaseStatus = "completed"
	PurchaseStatusRefunded  PurchaseStatus = "refunded"
	PurchaseStatusFailed    PurchaseStatus = "failed"
)

type PayoutStatus string

const (
	PayoutStatusPending    PayoutStatus = "pending"
	PayoutStatusProcessing PayoutStatus = "processing"
	PayoutStatusCompleted  PayoutStatus = "completed"
	PayoutStatusFailed     PayoutStatus = "failed"
)

type PaymentProvider string

const (
	PaymentProviderStripe      PaymentProvider = "stripe"
	PaymentProviderPix         PaymentProvider = "pix"
	PaymentProviderMercadoPago PaymentProvider = "mercadopago"
)

type PayoutMethod string

const (
	PayoutMethodPix          PayoutMethod = "pix"
	PayoutMethodBankTransfer PayoutMethod = "bank_transfer"
)
