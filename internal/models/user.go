// internal/models/user.go
package models

import (
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

type User struct {
	BaseModel
	Name            string     `json:"name" gorm:"size:255;not null"`
	Email           string     `json:"email" gorm:"uniqueIndex;size:255;not null"`
	PasswordHash    string     `json:"-" gorm:"size:255;not null"`
	UserType        UserType   `json:"user_type" gorm:"type:varchar(20);not null"`
	Status          UserStatus `json:"status" gorm:"type:varchar(20);default:'active'"`
	AvatarURL       string     `json:"avatar_url,omitempty" gorm:"size:500"`
	ProfileData     JSONB      `json:"profile_data" gorm:"type:jsonb"`
	EmailVerifiedAt *time.Time `json:"email_verified_at"`
	LastLoginAt     *time.Time `json:"last_login_at"`

	// Relationships
	Workouts  []Workout             `json:"workouts,omitempty" gorm:"foreignKey:CreatedByID"`
	DietPlans []DietPlan            `json:"diet_plans,omitempty" gorm:"foreignKey:CreatedByID"`
	Templates []MarketplaceTemplate `json:"templates,omitempty" gorm:"foreignKey:CreatorID"`
	Purchases []TemplatePurchase    `json:"purchases,omitempty" gorm:"foreignKey:BuyerID"`
}

func (u *User) SetPassword(password string) error {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.PasswordHash = string(hashedPassword)
	return nil
}

func (u *User) CheckPassword(password string) error {
	return bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password))
}

type Organization struct {
	BaseModel
	Name     string `json:"name" gorm:"size:255;not null"`
	Slug     string `json:"slug" gorm:"uniqueIndex;size:100;not null"`
	LogoURL  string `json:"logo_url,omitempty" gorm:"size:500"`
	IsActive bool   `json:"is_active" gorm:"default:true"`

	// Relationships
	Members []OrganizationMember `json:"members,omitempty" gorm:"foreignKey:OrganizationID"`
}

type OrganizationMember struct {
	BaseModel
	OrganizationID uuid.UUID `json:"organization_id" gorm:"type:uuid;not null;index:idx_org_members_pair,unique"`
	UserID         uuid.UUID `json:"user_id" gorm:"type:uuid;not null;index:idx_org_members_pair,unique"`
	Role           string    `json:"role" gorm:"size:20;default:'member'"`
	IsActive       bool      `json:"is_active" gorm:"default:true"`

	// Relationships
	Organization Organization `json:"organization,omitempty" gorm:"foreignKey:OrganizationID"`
	User         User         `json:"user,omitempty" gorm:"foreignKey:UserID"`
}
