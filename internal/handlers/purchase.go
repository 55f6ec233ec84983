// internal/handlers/purchase.go
package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/myfitlabs/myfit-backend/internal/services"
	"github.com/myfitlabs/myfit-backend/internal/utils"
)

type PurchaseHandler struct {
	purchaseService *services.PurchaseService
}

type confirmPaymentRequest struct {
	PaymentIntentID string `json:"payment_intent_id" binding:"required"`
}

func NewPurchaseHandler(purchaseService *services.PurchaseService) *PurchaseHandler {
	return &PurchaseHandler{purchaseService: purchaseService}
}

func (h *PurchaseHandler) Checkout(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		utils.UnauthorizedResponse(c, "")
		return
	}

	var req services.CheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "Invalid request body", nil)
		return
	}

	resp, err := h.purchaseService.Checkout(userID, &req)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.CreatedResponse(c, resp)
}

// GetPurchase serves purchase status polling for the buyer.
func (h *PurchaseHandler) GetPurchase(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		utils.UnauthorizedResponse(c, "")
		return
	}

	purchaseID, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	purchase, err := h.purchaseService.GetPurchase(purchaseID, userID, isAdmin(c))
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, purchase)
}

func (h *PurchaseHandler) ListMyPurchases(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		utils.UnauthorizedResponse(c, "")
		return
	}

	params := utils.GetPaginationParams(c)
	purchases, total, err := h.purchaseService.ListUserPurchases(userID, params)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.PaginatedResponse(c, utils.CreatePaginationResult(purchases, total, params))
}

// ConfirmPayment is called by the client after the Stripe flow finishes; it
// reads the intent state from Stripe and advances the purchase accordingly.
func (h *PurchaseHandler) ConfirmPayment(c *gin.Context) {
	var req confirmPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "Invalid request body", nil)
		return
	}

	purchase, err := h.purchaseService.ConfirmPayment(req.PaymentIntentID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, purchase)
}

// CompletePurchase is the admin/back-office completion path, used for PIX
// confirmations that arrive out of band.
func (h *PurchaseHandler) CompletePurchase(c *gin.Context) {
	purchaseID, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	purchase, err := h.purchaseService.CompletePurchase(purchaseID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, purchase)
}

func (h *PurchaseHandler) FailPurchase(c *gin.Context) {
	purchaseID, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.purchaseService.FailPurchase(purchaseID); err != nil {
		respondServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{"failed": true})
}

func (h *PurchaseHandler) RefundPurchase(c *gin.Context) {
	purchaseID, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	purchase, err := h.purchaseService.RefundPurchase(purchaseID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, purchase)
}
