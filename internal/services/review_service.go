// internal/services/review_service.go
package services

import (
	"errors"
	"fmt"
	"math"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/myfitlabs/myfit-backend/internal/models"
	"github.com/myfitlabs/myfit-backend/internal/utils"
)

// ReviewService maintains one immutable review per completed purchase and
// keeps the template's rating aggregate in step with the review rows.
type ReviewService struct {
	db *gorm.DB
}

type CreateReviewRequest struct {
	PurchaseID uuid.UUID `json:"purchase_id" validate:"required"`
	Rating     int       `json:"rating" validate:"required,gte=1,lte=5"`
	Title      string    `json:"title,omitempty" validate:"max=200"`
	Comment    string    `json:"comment,omitempty" validate:"max=2000"`
}

func NewReviewService(db *gorm.DB) *ReviewService {
	return &ReviewService{db: db}
}

// nextRatingAverage folds one new rating into a running average, rounded to
// two decimals.
func nextRatingAverage(oldAverage float64, oldCount int64, rating int) float64 {
	next := (oldAverage*float64(oldCount) + float64(rating)) / float64(oldCount+1)
	return math.Round(next*100) / 100
}

func (s *ReviewService) CreateReview(reviewerID uuid.UUID, req *CreateReviewRequest) (*models.TemplateReview, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, err
	}
	if req.Rating < 1 || req.Rating > 5 {
		return nil, ErrInvalidRating
	}

	var review models.TemplateReview
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var purchase models.TemplatePurchase
		if err := tx.First(&purchase, "id = ?", req.PurchaseID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrPurchaseNotFound
			}
			return fmt.Errorf("failed to fetch purchase: %w", err)
		}

		if purchase.BuyerID != reviewerID {
			return ErrPurchaseNotFound
		}
		if purchase.Status != models.PurchaseStatusCompleted {
			return ErrReviewNotEligible
		}

		var existing int64
		if err := tx.Model(&models.TemplateReview{}).
			Where("purchase_id = ?", purchase.ID).
			Count(&existing).Error; err != nil {
			return fmt.Errorf("failed to check existing review: %w", err)
		}
		if existing > 0 {
			return ErrAlreadyReviewed
		}

		review = models.TemplateReview{
			TemplateID:         purchase.TemplateID,
			PurchaseID:         purchase.ID,
			ReviewerID:         reviewerID,
			Rating:             req.Rating,
			Title:              req.Title,
			Comment:            req.Comment,
			IsVerifiedPurchase: true,
		}

		// The unique index on purchase_id backs up the pre-check under
		// concurrency
		if err := tx.Create(&review).Error; err != nil {
			return fmt.Errorf("failed to create review: %w", err)
		}

		// Lock the template row so two concurrent reviews fold into the
		// aggregate one at a time
		var template models.MarketplaceTemplate
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&template, "id = ?", purchase.TemplateID).Error; err != nil {
			return fmt.Errorf("failed to lock template: %w", err)
		}

		oldAverage := 0.0
		if template.RatingAverage != nil {
			oldAverage = *template.RatingAverage
		}
		newAverage := nextRatingAverage(oldAverage, template.RatingCount, req.Rating)

		err := tx.Model(&template).Updates(map[string]interface{}{
			"rating_average": newAverage,
			"rating_count":   template.RatingCount + 1,
		}).Error
		if err != nil {
			return fmt.Errorf("failed to update rating aggregate: %w", err)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return &review, nil
}

func (s *ReviewService) ListTemplateReviews(templateID uuid.UUID, params utils.PaginationParams) ([]models.TemplateReview, int64, error) {
	query := s.db.Model(&models.TemplateReview{}).Where("template_id = ?", templateID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count reviews: %w", err)
	}

	allowedSortFields := []string{"created_at", "rating"}
	query = utils.ApplySort(query, params, allowedSortFields)
	query = utils.ApplyPagination(query, params)

	var reviews []models.TemplateReview
	if err := query.Preload("Reviewer").Find(&reviews).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to fetch reviews: %w", err)
	}

	return reviews, total, nil
}

// GetRatingDistribution returns review counts keyed by rating 1..5. The
// counts always sum to the template's rating_count.
func (s *ReviewService) GetRatingDistribution(templateID uuid.UUID) (map[int]int64, error) {
	type row struct {
		Rating int
		Count  int64
	}

	var rows []row
	err := s.db.Model(&models.TemplateReview{}).
		Select("rating, COUNT(*) as count").
		Where("template_id = ?", templateID).
		Group("rating").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to fetch rating distribution: %w", err)
	}

	distribution := map[int]int64{1: 0, 2: 0, 3: 0, 4: 0, 5: 0}
	for _, r := range rows {
		distribution[r.Rating] = r.Count
	}

	return distribution, nil
}
