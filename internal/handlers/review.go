// internal/handlers/review.go
package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/myfitlabs/myfit-backend/internal/services"
	"github.com/myfitlabs/myfit-backend/internal/utils"
)

type ReviewHandler struct {
	reviewService *services.ReviewService
}

func NewReviewHandler(reviewService *services.ReviewService) *ReviewHandler {
	return &ReviewHandler{reviewService: reviewService}
}

func (h *ReviewHandler) CreateReview(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		utils.UnauthorizedResponse(c, "")
		return
	}

	var req services.CreateReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "Invalid request body", nil)
		return
	}

	review, err := h.reviewService.CreateReview(userID, &req)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.CreatedResponse(c, review)
}

func (h *ReviewHandler) ListTemplateReviews(c *gin.Context) {
	templateID, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	params := utils.GetPaginationParams(c)
	reviews, total, err := h.reviewService.ListTemplateReviews(templateID, params)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.PaginatedResponse(c, utils.CreatePaginationResult(reviews, total, params))
}

func (h *ReviewHandler) GetRatingDistribution(c *gin.Context) {
	templateID, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	distribution, err := h.reviewService.GetRatingDistribution(templateID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, distribution)
}
