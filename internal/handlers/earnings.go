// internal/handlers/earnings.go
package handlers

import (
	"fmt"

	"github.com/gin-gonic/gin"

	"github.com/myfitlabs/myfit-backend/internal/config"
	"github.com/myfitlabs/myfit-backend/internal/models"
	"github.com/myfitlabs/myfit-backend/internal/services"
	"github.com/myfitlabs/myfit-backend/internal/utils"
)

type EarningsHandler struct {
	earningsService     *services.EarningsService
	notificationService *services.NotificationService
	config              *config.Config
}

func NewEarningsHandler(earningsService *services.EarningsService, notificationService *services.NotificationService, cfg *config.Config) *EarningsHandler {
	return &EarningsHandler{
		earningsService:     earningsService,
		notificationService: notificationService,
		config:              cfg,
	}
}

func (h *EarningsHandler) GetMyEarnings(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		utils.UnauthorizedResponse(c, "")
		return
	}

	earnings, summary, err := h.earningsService.GetEarnings(userID, nil)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"earnings": earnings,
		"summary":  summary,
	})
}

func (h *EarningsHandler) GetDashboard(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		utils.UnauthorizedResponse(c, "")
		return
	}

	dashboard, err := h.earningsService.GetCreatorDashboard(userID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, dashboard)
}

func (h *EarningsHandler) RequestPayout(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		utils.UnauthorizedResponse(c, "")
		return
	}

	var req services.RequestPayoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "Invalid request body", nil)
		return
	}

	// Policy check lives at the boundary; the ledger itself only guards
	// against overdrawing
	minimum := h.config.Payment.MinimumPayoutCents
	if req.AmountCents < minimum {
		respondServiceError(c, fmt.Errorf("%w: minimum is %d cents",
			services.ErrPayoutBelowMinimum, minimum))
		return
	}

	payout, err := h.earningsService.RequestPayout(userID, nil, &req)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.CreatedResponse(c, payout)
}

func (h *EarningsHandler) ListMyPayouts(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		utils.UnauthorizedResponse(c, "")
		return
	}

	params := utils.GetPaginationParams(c)
	payouts, total, err := h.earningsService.ListPayouts(userID, nil, params)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.PaginatedResponse(c, utils.CreatePaginationResult(payouts, total, params))
}

// Admin endpoints

func (h *EarningsHandler) ListPendingPayouts(c *gin.Context) {
	params := utils.GetPaginationParams(c)
	payouts, total, err := h.earningsService.ListPendingPayouts(params)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.PaginatedResponse(c, utils.CreatePaginationResult(payouts, total, params))
}

func (h *EarningsHandler) ProcessPayout(c *gin.Context) {
	payoutID, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	var req services.ProcessPayoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "Invalid request body", nil)
		return
	}

	payout, err := h.earningsService.ProcessPayout(payoutID, &req)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	if h.notificationService != nil &&
		(payout.Status == models.PayoutStatusCompleted || payout.Status == models.PayoutStatusFailed) {
		go h.notificationService.NotifyPayoutProcessed(payout.ID)
	}

	utils.SuccessResponse(c, payout)
}
