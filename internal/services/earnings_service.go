// internal/services/earnings_service.go
package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/myfitlabs/myfit-backend/internal/config"
	"github.com/myfitlabs/myfit-backend/internal/models"
	"github.com/myfitlabs/myfit-backend/internal/utils"
)

// EarningsService owns the creator ledger. All balance mutations go through
// conditional or expression updates so concurrent requests can never observe
// or produce a negative balance.
type EarningsService struct {
	db     *gorm.DB
	config *config.Config
}

type RequestPayoutRequest struct {
	AmountCents   int64               `json:"amount_cents" validate:"required,gt=0"`
	PayoutMethod  models.PayoutMethod `json:"payout_method" validate:"required,oneof=pix bank_transfer"`
	PayoutDetails models.JSONB        `json:"payout_details,omitempty"`
}

type ProcessPayoutRequest struct {
	Status            models.PayoutStatus `json:"status" validate:"required,oneof=processing completed failed"`
	PaymentProviderID string              `json:"payment_provider_id,omitempty"`
}

type EarningsSummary struct {
	BalanceCents        int64 `json:"balance_cents"`
	TotalEarnedCents    int64 `json:"total_earned_cents"`
	TotalWithdrawnCents int64 `json:"total_withdrawn_cents"`
	PendingPayoutCents  int64 `json:"pending_payout_cents"`
}

func NewEarningsService(db *gorm.DB, cfg *config.Config) *EarningsService {
	return &EarningsService{db: db, config: cfg}
}

// creditEarnings adds a completed sale to the creator's ledger. Called only
// from purchase completion, on the completion transaction.
func (s *EarningsService) creditEarnings(tx *gorm.DB, creatorID uuid.UUID, organizationID *uuid.UUID, amountCents int64) error {
	if amountCents <= 0 {
		return nil
	}

	earnings, err := s.findOrCreateLedger(tx, creatorID, organizationID)
	if err != nil {
		return err
	}

	err = tx.Model(&models.CreatorEarnings{}).
		Where("id = ?", earnings.ID).
		Updates(map[string]interface{}{
			"balance_cents":      gorm.Expr("balance_cents + ?", amountCents),
			"total_earned_cents": gorm.Expr("total_earned_cents + ?", amountCents),
		}).Error
	if err != nil {
		return fmt.Errorf("failed to credit earnings: %w", err)
	}

	return nil
}

// reverseEarnings claws a refunded sale back out of the ledger. The debit is
// conditional; when the creator already withdrew the funds the ledger is left
// untouched and the caller records a reconciliation event instead.
func (s *EarningsService) reverseEarnings(tx *gorm.DB, creatorID uuid.UUID, organizationID *uuid.UUID, amountCents int64) (bool, error) {
	if amountCents <= 0 {
		return true, nil
	}

	earnings, err := s.lookupLedger(tx, creatorID, organizationID)
	if err != nil {
		if errors.Is(err, ErrEarningsNotFound) {
			return false, nil
		}
		return false, err
	}

	result := tx.Model(&models.CreatorEarnings{}).
		Where("id = ? AND balance_cents >= ?", earnings.ID, amountCents).
		Updates(map[string]interface{}{
			"balance_cents":      gorm.Expr("balance_cents - ?", amountCents),
			"total_earned_cents": gorm.Expr("total_earned_cents - ?", amountCents),
		})
	if result.Error != nil {
		return false, fmt.Errorf("failed to reverse earnings: %w", result.Error)
	}

	return result.RowsAffected > 0, nil
}

func (s *EarningsService) GetEarnings(creatorID uuid.UUID, organizationID *uuid.UUID) (*models.CreatorEarnings, *EarningsSummary, error) {
	earnings, err := s.lookupLedger(s.db, creatorID, organizationID)
	if err != nil {
		if errors.Is(err, ErrEarningsNotFound) {
			// No sales yet; report an empty ledger instead of a 404
			return &models.CreatorEarnings{CreatorID: &creatorID, OrganizationID: organizationID},
				&EarningsSummary{}, nil
		}
		return nil, nil, err
	}

	var pending int64
	err = s.db.Model(&models.CreatorPayout{}).
		Where("earnings_id = ? AND status IN ?", earnings.ID,
			[]models.PayoutStatus{models.PayoutStatusPending, models.PayoutStatusProcessing}).
		Select("COALESCE(SUM(amount_cents), 0)").
		Scan(&pending).Error
	if err != nil {
		return nil, nil, fmt.Errorf("failed to sum pending payouts: %w", err)
	}

	summary := &EarningsSummary{
		BalanceCents:        earnings.BalanceCents,
		TotalEarnedCents:    earnings.TotalEarnedCents,
		TotalWithdrawnCents: earnings.TotalWithdrawnCents,
		PendingPayoutCents:  pending,
	}

	return earnings, summary, nil
}

// RequestPayout debits the balance and creates a PENDING payout in one
// transaction. The debit is a conditional UPDATE; zero rows affected means
// the balance was insufficient and nothing changed.
func (s *EarningsService) RequestPayout(creatorID uuid.UUID, organizationID *uuid.UUID, req *RequestPayoutRequest) (*models.CreatorPayout, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, err
	}

	var payout *models.CreatorPayout
	err := s.db.Transaction(func(tx *gorm.DB) error {
		earnings, err := s.lookupLedger(tx, creatorID, organizationID)
		if err != nil {
			if errors.Is(err, ErrEarningsNotFound) {
				return ErrInsufficientBalance
			}
			return err
		}

		result := tx.Model(&models.CreatorEarnings{}).
			Where("id = ? AND balance_cents >= ?", earnings.ID, req.AmountCents).
			Update("balance_cents", gorm.Expr("balance_cents - ?", req.AmountCents))
		if result.Error != nil {
			return fmt.Errorf("failed to debit balance: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return ErrInsufficientBalance
		}

		payout = &models.CreatorPayout{
			EarningsID:    earnings.ID,
			AmountCents:   req.AmountCents,
			PayoutMethod:  req.PayoutMethod,
			PayoutDetails: req.PayoutDetails,
			Status:        models.PayoutStatusPending,
		}

		if err := tx.Create(payout).Error; err != nil {
			return fmt.Errorf("failed to create payout: %w", err)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"payout_id":    payout.ID,
		"creator_id":   creatorID,
		"amount_cents": payout.AmountCents,
		"method":       payout.PayoutMethod,
	}).Info("Payout requested")

	return payout, nil
}

// ProcessPayout advances an admin-handled payout: PENDING → PROCESSING →
// COMPLETED, or → FAILED from either state. Failure returns the amount to
// the balance; completion adds it to total_withdrawn.
func (s *EarningsService) ProcessPayout(payoutID uuid.UUID, req *ProcessPayoutRequest) (*models.CreatorPayout, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, err
	}

	var payout models.CreatorPayout
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&payout, "id = ?", payoutID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrPayoutNotFound
			}
			return fmt.Errorf("failed to fetch payout: %w", err)
		}

		switch req.Status {
		case models.PayoutStatusProcessing:
			if payout.Status != models.PayoutStatusPending {
				return ErrInvalidPayoutState
			}

		case models.PayoutStatusCompleted, models.PayoutStatusFailed:
			if payout.Status != models.PayoutStatusPending && payout.Status != models.PayoutStatusProcessing {
				return ErrInvalidPayoutState
			}

		default:
			return ErrInvalidPayoutState
		}

		now := time.Now()
		updates := map[string]interface{}{"status": req.Status}
		if req.PaymentProviderID != "" {
			updates["payment_provider_id"] = req.PaymentProviderID
		}

		switch req.Status {
		case models.PayoutStatusCompleted:
			updates["processed_at"] = &now
			if err := tx.Model(&models.CreatorEarnings{}).
				Where("id = ?", payout.EarningsID).
				Update("total_withdrawn_cents", gorm.Expr("total_withdrawn_cents + ?", payout.AmountCents)).Error; err != nil {
				return fmt.Errorf("failed to record withdrawal: %w", err)
			}

		case models.PayoutStatusFailed:
			updates["processed_at"] = &now
			if err := tx.Model(&models.CreatorEarnings{}).
				Where("id = ?", payout.EarningsID).
				Update("balance_cents", gorm.Expr("balance_cents + ?", payout.AmountCents)).Error; err != nil {
				return fmt.Errorf("failed to restore balance: %w", err)
			}
		}

		if err := tx.Model(&payout).Updates(updates).Error; err != nil {
			return fmt.Errorf("failed to update payout: %w", err)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"payout_id": payout.ID,
		"status":    payout.Status,
	}).Info("Payout processed")

	return &payout, nil
}

func (s *EarningsService) GetPayout(payoutID uuid.UUID) (*models.CreatorPayout, error) {
	var payout models.CreatorPayout
	if err := s.db.First(&payout, "id = ?", payoutID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPayoutNotFound
		}
		return nil, fmt.Errorf("failed to fetch payout: %w", err)
	}

	return &payout, nil
}

func (s *EarningsService) ListPayouts(creatorID uuid.UUID, organizationID *uuid.UUID, params utils.PaginationParams) ([]models.CreatorPayout, int64, error) {
	earnings, err := s.lookupLedger(s.db, creatorID, organizationID)
	if err != nil {
		if errors.Is(err, ErrEarningsNotFound) {
			return []models.CreatorPayout{}, 0, nil
		}
		return nil, 0, err
	}

	query := s.db.Model(&models.CreatorPayout{}).Where("earnings_id = ?", earnings.ID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count payouts: %w", err)
	}

	var payouts []models.CreatorPayout
	err = query.Order("created_at DESC").
		Offset((params.Page - 1) * params.Limit).
		Limit(params.Limit).
		Find(&payouts).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to fetch payouts: %w", err)
	}

	return payouts, total, nil
}

// ListPendingPayouts returns the admin work queue, oldest first.
func (s *EarningsService) ListPendingPayouts(params utils.PaginationParams) ([]models.CreatorPayout, int64, error) {
	query := s.db.Model(&models.CreatorPayout{}).
		Where("status IN ?", []models.PayoutStatus{models.PayoutStatusPending, models.PayoutStatusProcessing})

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count payouts: %w", err)
	}

	var payouts []models.CreatorPayout
	err := query.Order("created_at ASC").
		Offset((params.Page - 1) * params.Limit).
		Limit(params.Limit).
		Preload("Earnings").
		Find(&payouts).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to fetch payouts: %w", err)
	}

	return payouts, total, nil
}

type CreatorDashboard struct {
	TemplateCount      int64    `json:"template_count"`
	ActiveTemplates    int64    `json:"active_templates"`
	TotalSales         int64    `json:"total_sales"`
	TotalEarnedCents   int64    `json:"total_earned_cents"`
	BalanceCents       int64    `json:"balance_cents"`
	AverageRating      *float64 `json:"average_rating"`
	ReviewCount        int64    `json:"review_count"`
	SalesLast30Days    int64    `json:"sales_last_30_days"`
	EarningsLast30Days int64    `json:"earnings_last_30_days_cents"`
}

func (s *EarningsService) GetCreatorDashboard(creatorID uuid.UUID) (*CreatorDashboard, error) {
	dashboard := &CreatorDashboard{}

	err := s.db.Model(&models.MarketplaceTemplate{}).
		Where("creator_id = ?", creatorID).Count(&dashboard.TemplateCount).Error
	if err != nil {
		return nil, fmt.Errorf("failed to count templates: %w", err)
	}
	err = s.db.Model(&models.MarketplaceTemplate{}).
		Where("creator_id = ? AND is_active = ?", creatorID, true).Count(&dashboard.ActiveTemplates).Error
	if err != nil {
		return nil, fmt.Errorf("failed to count active templates: %w", err)
	}

	salesQuery := s.db.Model(&models.TemplatePurchase{}).
		Joins("JOIN marketplace_templates ON marketplace_templates.id = template_purchases.template_id").
		Where("marketplace_templates.creator_id = ? AND template_purchases.status = ?",
			creatorID, models.PurchaseStatusCompleted)

	if err := salesQuery.Session(&gorm.Session{}).Count(&dashboard.TotalSales).Error; err != nil {
		return nil, fmt.Errorf("failed to count sales: %w", err)
	}
	err = salesQuery.Session(&gorm.Session{}).
		Where("template_purchases.completed_at >= ?", time.Now().AddDate(0, 0, -30)).
		Count(&dashboard.SalesLast30Days).Error
	if err != nil {
		return nil, fmt.Errorf("failed to count recent sales: %w", err)
	}
	err = salesQuery.Session(&gorm.Session{}).
		Where("template_purchases.completed_at >= ?", time.Now().AddDate(0, 0, -30)).
		Select("COALESCE(SUM(template_purchases.creator_earnings_cents), 0)").
		Scan(&dashboard.EarningsLast30Days).Error
	if err != nil {
		return nil, fmt.Errorf("failed to sum recent earnings: %w", err)
	}

	earnings, _, err := s.GetEarnings(creatorID, nil)
	if err != nil {
		return nil, err
	}
	dashboard.TotalEarnedCents = earnings.TotalEarnedCents
	dashboard.BalanceCents = earnings.BalanceCents

	var ratingRow struct {
		Average *float64
		Count   int64
	}
	err = s.db.Model(&models.TemplateReview{}).
		Joins("JOIN marketplace_templates ON marketplace_templates.id = template_reviews.template_id").
		Where("marketplace_templates.creator_id = ?", creatorID).
		Select("AVG(template_reviews.rating) as average, COUNT(*) as count").
		Scan(&ratingRow).Error
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate ratings: %w", err)
	}
	dashboard.AverageRating = ratingRow.Average
	dashboard.ReviewCount = ratingRow.Count

	return dashboard, nil
}

func (s *EarningsService) findOrCreateLedger(tx *gorm.DB, creatorID uuid.UUID, organizationID *uuid.UUID) (*models.CreatorEarnings, error) {
	var earnings models.CreatorEarnings

	query := tx.Where("creator_id = ?", creatorID)
	attrs := models.CreatorEarnings{CreatorID: &creatorID}
	if organizationID != nil {
		query = tx.Where("organization_id = ?", *organizationID)
		attrs = models.CreatorEarnings{OrganizationID: organizationID}
	}

	if err := query.Attrs(attrs).FirstOrCreate(&earnings).Error; err != nil {
		return nil, fmt.Errorf("failed to find or create earnings ledger: %w", err)
	}

	return &earnings, nil
}

func (s *EarningsService) lookupLedger(tx *gorm.DB, creatorID uuid.UUID, organizationID *uuid.UUID) (*models.CreatorEarnings, error) {
	var earnings models.CreatorEarnings

	query := tx.Where("creator_id = ?", creatorID)
	if organizationID != nil {
		query = tx.Where("organization_id = ?", *organizationID)
	}

	if err := query.First(&earnings).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrEarningsNotFound
		}
		return nil, fmt.Errorf("failed to fetch earnings ledger: %w", err)
	}

	return &earnings, nil
}
