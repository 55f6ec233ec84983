// internal/models/marketplace.go
package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// MarketplaceTemplate is a purchasable listing that references exactly one
// content item: a workout or a diet plan, never both.
type MarketplaceTemplate struct {
	BaseModel
	TemplateType TemplateType `json:"template_type" gorm:"type:varchar(20);not null;index"`

	// References to actual content
	WorkoutID  *uuid.UUID `json:"workout_id" gorm:"type:uuid;index"`
	DietPlanID *uuid.UUID `json:"diet_plan_id" gorm:"type:uuid;index"`

	// Creator (person or organization)
	CreatorID      uuid.UUID  `json:"creator_id" gorm:"type:uuid;not null;index"`
	OrganizationID *uuid.UUID `json:"organization_id" gorm:"type:uuid;index"`

	// Pricing in minor currency units
	PriceCents int64  `json:"price_cents" gorm:"not null;default:0"`
	Currency   string `json:"currency" gorm:"size:3;not null;default:'BRL'"`

	// Marketing
	Title            string         `json:"title" gorm:"size:200;not null"`
	ShortDescription string         `json:"short_description,omitempty" gorm:"size:500"`
	FullDescription  string         `json:"full_description,omitempty" gorm:"type:text"`
	CoverImageURL    string         `json:"cover_image_url,omitempty" gorm:"size:500"`
	PreviewImages    pq.StringArray `json:"preview_images,omitempty" gorm:"type:text[]"`

	// Categorization
	Category   TemplateCategory `json:"category,omitempty" gorm:"type:varchar(30);index"`
	Difficulty Difficulty       `json:"difficulty" gorm:"type:varchar(20);default:'intermediate'"`
	Tags       pq.StringArray   `json:"tags,omitempty" gorm:"type:text[]"`

	// Statistics
	PurchaseCount int64    `json:"purchase_count" gorm:"default:0"`
	RatingAverage *float64 `json:"rating_average" gorm:"type:decimal(3,2)"`
	RatingCount   int64    `json:"rating_count" gorm:"default:0"`

	// Status
	IsActive   bool       `json:"is_active" gorm:"default:true"`
	IsFeatured bool       `json:"is_featured" gorm:"default:false"`
	ApprovedAt *time.Time `json:"approved_at"`

	// Relationships
	Creator      User             `json:"creator,omitempty" gorm:"foreignKey:CreatorID"`
	Organization *Organization    `json:"organization,omitempty" gorm:"foreignKey:OrganizationID"`
	Workout      *Workout         `json:"workout,omitempty" gorm:"foreignKey:WorkoutID"`
	DietPlan     *DietPlan        `json:"diet_plan,omitempty" gorm:"foreignKey:DietPlanID"`
	Purchases    []TemplatePurchase `json:"purchases,omitempty" gorm:"foreignKey:TemplateID"`
	Reviews      []TemplateReview   `json:"reviews,omitempty" gorm:"foreignKey:TemplateID"`
}

func (t *MarketplaceTemplate) IsFree() bool {
	return t.PriceCents == 0
}

// TemplatePurchase records a buyer's transaction against a template. The
// price and revenue split are snapshotted at checkout and never track later
// listing price changes.
type TemplatePurchase struct {
	BaseModel
	TemplateID uuid.UUID `json:"template_id" gorm:"type:uuid;not null;index"`
	BuyerID    uuid.UUID `json:"buyer_id" gorm:"type:uuid;not null;index"`

	// Price at time of purchase
	PriceCents int64  `json:"price_cents" gorm:"not null"`
	Currency   string `json:"currency" gorm:"size:3;not null;default:'BRL'"`

	// Payment
	PaymentProvider   PaymentProvider `json:"payment_provider,omitempty" gorm:"type:varchar(20)"`
	PaymentProviderID string          `json:"payment_provider_id,omitempty" gorm:"size:200"`
	Status            PurchaseStatus  `json:"status" gorm:"type:varchar(20);default:'pending';index"`

	// Revenue split; creator earnings plus platform fee always equals the
	// price snapshot
	CreatorEarningsCents int64 `json:"creator_earnings_cents" gorm:"not null;default:0"`
	PlatformFeeCents     int64 `json:"platform_fee_cents" gorm:"not null;default:0"`

	// Fulfillment result
	DuplicatedWorkoutID  *uuid.UUID `json:"duplicated_workout_id" gorm:"type:uuid"`
	DuplicatedDietPlanID *uuid.UUID `json:"duplicated_diet_plan_id" gorm:"type:uuid"`

	CompletedAt *time.Time `json:"completed_at"`
	RefundedAt  *time.Time `json:"refunded_at"`

	// Relationships
	Template           MarketplaceTemplate `json:"template,omitempty" gorm:"foreignKey:TemplateID"`
	Buyer              User                `json:"buyer,omitempty" gorm:"foreignKey:BuyerID"`
	DuplicatedWorkout  *Workout            `json:"duplicated_workout,omitempty" gorm:"foreignKey:DuplicatedWorkoutID"`
	DuplicatedDietPlan *DietPlan           `json:"duplicated_diet_plan,omitempty" gorm:"foreignKey:DuplicatedDietPlanID"`
	Review             *TemplateReview     `json:"review,omitempty" gorm:"foreignKey:PurchaseID"`
}

// TemplateReview holds one immutable review per completed purchase.
type TemplateReview struct {
	BaseModel
	TemplateID uuid.UUID `json:"template_id" gorm:"type:uuid;not null;index"`
	PurchaseID uuid.UUID `json:"purchase_id" gorm:"type:uuid;not null;uniqueIndex"`
	ReviewerID uuid.UUID `json:"reviewer_id" gorm:"type:uuid;not null;index"`

	Rating  int    `json:"rating" gorm:"not null"`
	Title   string `json:"title,omitempty" gorm:"size:200"`
	Comment string `json:"comment,omitempty" gorm:"type:text"`

	IsVerifiedPurchase bool `json:"is_verified_purchase" gorm:"default:true"`

	// Relationships
	Template MarketplaceTemplate `json:"-" gorm:"foreignKey:TemplateID"`
	Purchase TemplatePurchase    `json:"-" gorm:"foreignKey:PurchaseID"`
	Reviewer User                `json:"reviewer,omitempty" gorm:"foreignKey:ReviewerID"`
}

// CreatorEarnings is the running ledger for a creator or an organization
// (mutually exclusive in a given row). Invariant:
// balance = total_earned - total_withdrawn - sum(pending/processing payouts),
// and balance never goes negative.
type CreatorEarnings struct {
	ID             uuid.UUID  `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	CreatorID      *uuid.UUID `json:"creator_id" gorm:"type:uuid;uniqueIndex"`
	OrganizationID *uuid.UUID `json:"organization_id" gorm:"type:uuid;uniqueIndex"`

	BalanceCents        int64 `json:"balance_cents" gorm:"not null;default:0"`
	TotalEarnedCents    int64 `json:"total_earned_cents" gorm:"not null;default:0"`
	TotalWithdrawnCents int64 `json:"total_withdrawn_cents" gorm:"not null;default:0"`

	UpdatedAt time.Time `json:"updated_at"`

	// Relationships
	Creator      *User           `json:"creator,omitempty" gorm:"foreignKey:CreatorID"`
	Organization *Organization   `json:"organization,omitempty" gorm:"foreignKey:OrganizationID"`
	Payouts      []CreatorPayout `json:"payouts,omitempty" gorm:"foreignKey:EarningsID"`
}

// CreatorPayout is a withdrawal request against a ledger. The balance is
// debited when the request is accepted, not when the payout completes.
type CreatorPayout struct {
	BaseModel
	EarningsID uuid.UUID `json:"earnings_id" gorm:"type:uuid;not null;index"`

	AmountCents   int64        `json:"amount_cents" gorm:"not null"`
	PayoutMethod  PayoutMethod `json:"payout_method" gorm:"type:varchar(20);not null"`
	PayoutDetails JSONB        `json:"payout_details,omitempty" gorm:"type:jsonb"`

	Status            PayoutStatus `json:"status" gorm:"type:varchar(20);default:'pending';index"`
	ProcessedAt       *time.Time   `json:"processed_at"`
	PaymentProviderID string       `json:"payment_provider_id,omitempty" gorm:"size:200"`

	// Relationships
	Earnings CreatorEarnings `json:"-" gorm:"foreignKey:EarningsID"`
}

// OrganizationTemplateAccess grants organization members free or discounted
// access to a template. Consulted by the pricing resolver only.
type OrganizationTemplateAccess struct {
	BaseModel
	OrganizationID uuid.UUID `json:"organization_id" gorm:"type:uuid;not null;index:idx_org_template_access_pair,unique"`
	TemplateID     uuid.UUID `json:"template_id" gorm:"type:uuid;not null;index:idx_org_template_access_pair,unique"`

	IsFreeForMembers      bool `json:"is_free_for_members" gorm:"default:false"`
	MemberDiscountPercent int  `json:"member_discount_percent" gorm:"default:0"`

	// Relationships
	Organization Organization        `json:"organization,omitempty" gorm:"foreignKey:OrganizationID"`
	Template     MarketplaceTemplate `json:"template,omitempty" gorm:"foreignKey:TemplateID"`
}

// ReconciliationEvent records fulfillment failures that need manual
// attention, e.g. a purchase whose source content vanished before completion.
type ReconciliationEvent struct {
	BaseModel
	PurchaseID uuid.UUID `json:"purchase_id" gorm:"type:uuid;not null;index"`
	Reason     string    `json:"reason" gorm:"size:100;not null"`
	Details    JSONB     `json:"details,omitempty" gorm:"type:jsonb"`
	ResolvedAt *time.Time `json:"resolved_at"`
}
