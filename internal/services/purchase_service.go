// internal/services/purchase_service.go
package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stripe/stripe-go/v74"
	"github.com/stripe/stripe-go/v74/paymentintent"
	"github.com/stripe/stripe-go/v74/refund"
	"gorm.io/gorm"

	"github.com/myfitlabs/myfit-backend/internal/config"
	"github.com/myfitlabs/myfit-backend/internal/models"
	"github.com/myfitlabs/myfit-backend/internal/utils"
)

// PurchaseService drives the purchase state machine:
// PENDING → {COMPLETED, FAILED}, COMPLETED → REFUNDED.
// Every transition is a guarded conditional UPDATE so concurrent webhook
// deliveries and retries collapse into exactly one effect.
type PurchaseService struct {
	db                  *gorm.DB
	config              *config.Config
	marketplaceService  *MarketplaceService
	workoutService      *WorkoutService
	nutritionService    *NutritionService
	earningsService     *EarningsService
	notificationService *NotificationService
}

type CheckoutRequest struct {
	TemplateID      uuid.UUID              `json:"template_id" validate:"required"`
	PaymentProvider models.PaymentProvider `json:"payment_provider,omitempty" validate:"omitempty,oneof=stripe pix mercadopago"`
}

type CheckoutResponse struct {
	Purchase *models.TemplatePurchase `json:"purchase"`
	// Stripe flow
	ClientSecret string `json:"client_secret,omitempty"`
	// PIX flow
	PixPayload string `json:"pix_payload,omitempty"`
	PixTxID    string `json:"pix_txid,omitempty"`
}

func NewPurchaseService(
	db *gorm.DB,
	cfg *config.Config,
	marketplaceService *MarketplaceService,
	workoutService *WorkoutService,
	nutritionService *NutritionService,
	earningsService *EarningsService,
	notificationService *NotificationService,
) *PurchaseService {
	stripe.Key = cfg.Payment.StripeSecretKey

	return &PurchaseService{
		db:                  db,
		config:              cfg,
		marketplaceService:  marketplaceService,
		workoutService:      workoutService,
		nutritionService:    nutritionService,
		earningsService:     earningsService,
		notificationService: notificationService,
	}
}

// computeRevenueSplit divides a price snapshot between creator and platform.
// The two parts always sum back to priceCents.
func computeRevenueSplit(priceCents, platformFeePercent int64) (creatorEarnings, platformFee int64) {
	creatorEarnings = priceCents * (100 - platformFeePercent) / 100
	platformFee = priceCents - creatorEarnings
	return creatorEarnings, platformFee
}

func (s *PurchaseService) Checkout(buyerID uuid.UUID, req *CheckoutRequest) (*CheckoutResponse, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, err
	}

	template, err := s.marketplaceService.GetTemplate(req.TemplateID)
	if err != nil {
		return nil, err
	}
	if !template.IsActive {
		return nil, ErrTemplateInactive
	}
	if template.CreatorID == buyerID {
		return nil, ErrOwnTemplate
	}

	// A buyer owns at most one completed copy of a listing
	var owned int64
	err = s.db.Model(&models.TemplatePurchase{}).
		Where("template_id = ? AND buyer_id = ? AND status = ?",
			template.ID, buyerID, models.PurchaseStatusCompleted).
		Count(&owned).Error
	if err != nil {
		return nil, fmt.Errorf("failed to check existing purchases: %w", err)
	}
	if owned > 0 {
		return nil, ErrAlreadyPurchased
	}

	quote, err := s.marketplaceService.ResolvePrice(template, buyerID)
	if err != nil {
		return nil, err
	}

	creatorEarnings, platformFee := computeRevenueSplit(quote.FinalPriceCents, s.config.Payment.PlatformFeePercent)

	purchase := models.TemplatePurchase{
		TemplateID:           template.ID,
		BuyerID:              buyerID,
		PriceCents:           quote.FinalPriceCents,
		Currency:             quote.Currency,
		Status:               models.PurchaseStatusPending,
		CreatorEarningsCents: creatorEarnings,
		PlatformFeeCents:     platformFee,
	}

	if quote.FinalPriceCents > 0 {
		if req.PaymentProvider == "" {
			req.PaymentProvider = models.PaymentProviderStripe
		}
		purchase.PaymentProvider = req.PaymentProvider
	}

	if err := s.db.Create(&purchase).Error; err != nil {
		return nil, fmt.Errorf("failed to create purchase: %w", err)
	}

	resp := &CheckoutResponse{Purchase: &purchase}

	// Free listings complete inside the checkout call; nothing external to
	// wait for
	if quote.FinalPriceCents == 0 {
		completed, err := s.CompletePurchase(purchase.ID)
		if err != nil {
			return nil, err
		}
		resp.Purchase = completed
		return resp, nil
	}

	switch purchase.PaymentProvider {
	case models.PaymentProviderStripe:
		params := &stripe.PaymentIntentParams{
			Amount:   stripe.Int64(quote.FinalPriceCents),
			Currency: stripe.String(quote.Currency),
		}
		params.AddMetadata("purchase_id", purchase.ID.String())
		params.AddMetadata("template_id", template.ID.String())
		params.AddMetadata("buyer_id", buyerID.String())

		pi, err := paymentintent.New(params)
		if err != nil {
			return nil, fmt.Errorf("failed to create payment intent: %w", err)
		}

		if err := s.db.Model(&purchase).Update("payment_provider_id", pi.ID).Error; err != nil {
			return nil, fmt.Errorf("failed to record payment reference: %w", err)
		}
		purchase.PaymentProviderID = pi.ID
		resp.ClientSecret = pi.ClientSecret

	case models.PaymentProviderPix, models.PaymentProviderMercadoPago:
		txid, err := utils.GeneratePixTxID()
		if err != nil {
			return nil, fmt.Errorf("failed to generate pix txid: %w", err)
		}

		if err := s.db.Model(&purchase).Update("payment_provider_id", txid).Error; err != nil {
			return nil, fmt.Errorf("failed to record payment reference: %w", err)
		}
		purchase.PaymentProviderID = txid
		resp.PixTxID = txid
		resp.PixPayload = fmt.Sprintf("00020126myfit|%s|%d|%s", txid, quote.FinalPriceCents, quote.Currency)
	}

	return resp, nil
}

// CompletePurchase performs the PENDING → COMPLETED transition. The status
// flip is a conditional UPDATE keyed on the pending state; whichever caller
// wins the race fulfills, and a re-run against a COMPLETED purchase is a
// successful no-op.
func (s *PurchaseService) CompletePurchase(purchaseID uuid.UUID) (*models.TemplatePurchase, error) {
	var purchase models.TemplatePurchase

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Preload("Template").First(&purchase, "id = ?", purchaseID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrPurchaseNotFound
			}
			return fmt.Errorf("failed to fetch purchase: %w", err)
		}

		if purchase.Status == models.PurchaseStatusCompleted {
			return nil
		}

		now := time.Now()
		result := tx.Model(&models.TemplatePurchase{}).
			Where("id = ? AND status = ?", purchase.ID, models.PurchaseStatusPending).
			Updates(map[string]interface{}{
				"status":       models.PurchaseStatusCompleted,
				"completed_at": &now,
			})
		if result.Error != nil {
			return fmt.Errorf("failed to update purchase status: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			// Lost the race or the purchase left PENDING some other way;
			// re-read to tell the two apart
			var current models.TemplatePurchase
			if err := tx.First(&current, "id = ?", purchase.ID).Error; err != nil {
				return fmt.Errorf("failed to re-read purchase: %w", err)
			}
			if current.Status == models.PurchaseStatusCompleted {
				purchase = current
				return nil
			}
			return ErrInvalidPurchaseState
		}
		purchase.Status = models.PurchaseStatusCompleted
		purchase.CompletedAt = &now

		// Fulfillment: copy the content into the buyer's space
		template := purchase.Template
		switch template.TemplateType {
		case models.TemplateTypeWorkout:
			if template.WorkoutID == nil {
				return ErrSourceContentMissing
			}
			copy, err := s.workoutService.DuplicateWorkout(tx, *template.WorkoutID, purchase.BuyerID, template.Title)
			if err != nil {
				return err
			}
			if err := tx.Model(&models.TemplatePurchase{}).
				Where("id = ?", purchase.ID).
				Update("duplicated_workout_id", copy.ID).Error; err != nil {
				return fmt.Errorf("failed to record workout copy: %w", err)
			}
			purchase.DuplicatedWorkoutID = &copy.ID

		case models.TemplateTypeDietPlan:
			if template.DietPlanID == nil {
				return ErrSourceContentMissing
			}
			copy, err := s.nutritionService.DuplicateDietPlan(tx, *template.DietPlanID, purchase.BuyerID, template.Title)
			if err != nil {
				return err
			}
			if err := tx.Model(&models.TemplatePurchase{}).
				Where("id = ?", purchase.ID).
				Update("duplicated_diet_plan_id", copy.ID).Error; err != nil {
				return fmt.Errorf("failed to record diet plan copy: %w", err)
			}
			purchase.DuplicatedDietPlanID = &copy.ID
		}

		if err := tx.Model(&models.MarketplaceTemplate{}).
			Where("id = ?", template.ID).
			Update("purchase_count", gorm.Expr("purchase_count + 1")).Error; err != nil {
			return fmt.Errorf("failed to increment purchase count: %w", err)
		}

		if err := s.earningsService.creditEarnings(tx, template.CreatorID, template.OrganizationID, purchase.CreatorEarningsCents); err != nil {
			return err
		}

		return nil
	})

	if err != nil {
		if errors.Is(err, ErrSourceContentMissing) {
			s.failForReconciliation(purchaseID, "source_content_missing")
		}
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"purchase_id": purchase.ID,
		"template_id": purchase.TemplateID,
		"buyer_id":    purchase.BuyerID,
		"price_cents": purchase.PriceCents,
	}).Info("Purchase completed")

	if s.notificationService != nil {
		go s.notificationService.NotifyPurchaseCompleted(purchase.ID)
	}

	return &purchase, nil
}

// failForReconciliation moves a purchase whose fulfillment rolled back into
// FAILED and leaves an event for manual follow-up. Runs outside the failed
// transaction.
func (s *PurchaseService) failForReconciliation(purchaseID uuid.UUID, reason string) {
	err := s.db.Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.TemplatePurchase{}).
			Where("id = ? AND status = ?", purchaseID, models.PurchaseStatusPending).
			Update("status", models.PurchaseStatusFailed)
		if result.Error != nil {
			return result.Error
		}

		event := models.ReconciliationEvent{
			PurchaseID: purchaseID,
			Reason:     reason,
		}
		return tx.Create(&event).Error
	})
	if err != nil {
		logrus.WithError(err).WithField("purchase_id", purchaseID).
			Error("Failed to record reconciliation event")
		return
	}

	logrus.WithFields(logrus.Fields{
		"purchase_id": purchaseID,
		"reason":      reason,
	}).Warn("Purchase failed, reconciliation event recorded")
}

// FailPurchase marks a PENDING purchase FAILED after a payment failure.
// No fulfillment happens and no earnings are credited.
func (s *PurchaseService) FailPurchase(purchaseID uuid.UUID) error {
	result := s.db.Model(&models.TemplatePurchase{}).
		Where("id = ? AND status = ?", purchaseID, models.PurchaseStatusPending).
		Update("status", models.PurchaseStatusFailed)
	if result.Error != nil {
		return fmt.Errorf("failed to fail purchase: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		var purchase models.TemplatePurchase
		if err := s.db.First(&purchase, "id = ?", purchaseID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrPurchaseNotFound
			}
			return fmt.Errorf("failed to fetch purchase: %w", err)
		}
		if purchase.Status == models.PurchaseStatusFailed {
			return nil
		}
		return ErrInvalidPurchaseState
	}

	logrus.WithField("purchase_id", purchaseID).Info("Purchase failed")
	return nil
}

// RefundPurchase performs COMPLETED → REFUNDED: provider refund when a Stripe
// reference exists, purchase count decrement, and an earnings clawback. A
// clawback the balance cannot cover is logged for reconciliation instead of
// driving the ledger negative.
func (s *PurchaseService) RefundPurchase(purchaseID uuid.UUID) (*models.TemplatePurchase, error) {
	var purchase models.TemplatePurchase
	if err := s.db.Preload("Template").First(&purchase, "id = ?", purchaseID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPurchaseNotFound
		}
		return nil, fmt.Errorf("failed to fetch purchase: %w", err)
	}

	if purchase.Status != models.PurchaseStatusCompleted {
		return nil, ErrInvalidPurchaseState
	}

	if purchase.PaymentProvider == models.PaymentProviderStripe && purchase.PaymentProviderID != "" {
		params := &stripe.RefundParams{
			PaymentIntent: stripe.String(purchase.PaymentProviderID),
			Reason:        stripe.String("requested_by_customer"),
		}
		if _, err := refund.New(params); err != nil {
			return nil, fmt.Errorf("failed to process provider refund: %w", err)
		}
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		now := time.Now()
		result := tx.Model(&models.TemplatePurchase{}).
			Where("id = ? AND status = ?", purchase.ID, models.PurchaseStatusCompleted).
			Updates(map[string]interface{}{
				"status":      models.PurchaseStatusRefunded,
				"refunded_at": &now,
			})
		if result.Error != nil {
			return fmt.Errorf("failed to update purchase: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return ErrInvalidPurchaseState
		}
		purchase.Status = models.PurchaseStatusRefunded
		purchase.RefundedAt = &now

		if err := tx.Model(&models.MarketplaceTemplate{}).
			Where("id = ?", purchase.TemplateID).
			Update("purchase_count", gorm.Expr("GREATEST(purchase_count - 1, 0)")).Error; err != nil {
			return fmt.Errorf("failed to decrement purchase count: %w", err)
		}

		reversed, err := s.earningsService.reverseEarnings(tx,
			purchase.Template.CreatorID, purchase.Template.OrganizationID, purchase.CreatorEarningsCents)
		if err != nil {
			return err
		}
		if !reversed {
			event := models.ReconciliationEvent{
				PurchaseID: purchase.ID,
				Reason:     "refund_clawback_uncovered",
				Details: models.JSONB{
					"creator_earnings_cents": purchase.CreatorEarningsCents,
				},
			}
			if err := tx.Create(&event).Error; err != nil {
				return fmt.Errorf("failed to record reconciliation event: %w", err)
			}
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"purchase_id": purchase.ID,
		"price_cents": purchase.PriceCents,
	}).Info("Purchase refunded")

	return &purchase, nil
}

// ConfirmPayment reads the payment intent state from Stripe and drives the
// matching purchase transition. Called by the client-side confirmation
// endpoint and the webhook alike.
func (s *PurchaseService) ConfirmPayment(paymentIntentID string) (*models.TemplatePurchase, error) {
	pi, err := paymentintent.Get(paymentIntentID, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to get payment intent: %w", err)
	}

	var purchase models.TemplatePurchase
	if err := s.db.First(&purchase, "payment_provider_id = ?", paymentIntentID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPurchaseNotFound
		}
		return nil, fmt.Errorf("failed to fetch purchase: %w", err)
	}

	switch pi.Status {
	case stripe.PaymentIntentStatusSucceeded:
		return s.CompletePurchase(purchase.ID)

	case stripe.PaymentIntentStatusRequiresPaymentMethod, stripe.PaymentIntentStatusCanceled:
		if err := s.FailPurchase(purchase.ID); err != nil {
			return nil, err
		}
		purchase.Status = models.PurchaseStatusFailed
		return &purchase, nil

	default:
		// Still in flight; leave the purchase PENDING
		return &purchase, nil
	}
}

func (s *PurchaseService) GetPurchase(purchaseID, requesterID uuid.UUID, isAdmin bool) (*models.TemplatePurchase, error) {
	var purchase models.TemplatePurchase
	err := s.db.Preload("Template").Preload("Template.Creator").
		First(&purchase, "id = ?", purchaseID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPurchaseNotFound
		}
		return nil, fmt.Errorf("failed to fetch purchase: %w", err)
	}

	if !isAdmin && purchase.BuyerID != requesterID {
		return nil, ErrPurchaseNotFound
	}

	return &purchase, nil
}

func (s *PurchaseService) ListUserPurchases(buyerID uuid.UUID, params utils.PaginationParams) ([]models.TemplatePurchase, int64, error) {
	query := s.db.Model(&models.TemplatePurchase{}).Where("buyer_id = ?", buyerID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count purchases: %w", err)
	}

	allowedSortFields := []string{"created_at", "price_cents", "status"}
	query = utils.ApplySort(query, params, allowedSortFields)
	query = utils.ApplyPagination(query, params)

	var purchases []models.TemplatePurchase
	if err := query.Preload("Template").Find(&purchases).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to fetch purchases: %w", err)
	}

	return purchases, total, nil
}
