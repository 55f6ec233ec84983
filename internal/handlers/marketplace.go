// internal/handlers/marketplace.go
package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/myfitlabs/myfit-backend/internal/models"
	"github.com/myfitlabs/myfit-backend/internal/services"
	"github.com/myfitlabs/myfit-backend/internal/utils"
)

type MarketplaceHandler struct {
	marketplaceService *services.MarketplaceService
	storageService     *services.StorageService
}

func NewMarketplaceHandler(marketplaceService *services.MarketplaceService, storageService *services.StorageService) *MarketplaceHandler {
	return &MarketplaceHandler{
		marketplaceService: marketplaceService,
		storageService:     storageService,
	}
}

func (h *MarketplaceHandler) ListTemplates(c *gin.Context) {
	params := utils.GetPaginationParams(c)

	maxPrice, _ := strconv.ParseInt(c.Query("max_price"), 10, 64)
	filters := services.TemplateFilters{
		TemplateType: models.TemplateType(c.Query("type")),
		Category:     models.TemplateCategory(c.Query("category")),
		Difficulty:   models.Difficulty(c.Query("difficulty")),
		FreeOnly:     c.Query("free") == "true",
		MaxPrice:     maxPrice,
		Featured:     c.Query("featured") == "true",
	}

	templates, total, err := h.marketplaceService.ListTemplates(params, filters)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.PaginatedResponse(c, utils.CreatePaginationResult(templates, total, params))
}

func (h *MarketplaceHandler) GetTemplate(c *gin.Context) {
	templateID, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	template, err := h.marketplaceService.GetTemplate(templateID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, template)
}

func (h *MarketplaceHandler) GetTemplatePreview(c *gin.Context) {
	templateID, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	preview, err := h.marketplaceService.GetTemplatePreview(templateID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, preview)
}

func (h *MarketplaceHandler) GetFeaturedTemplates(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))

	templates, err := h.marketplaceService.GetFeaturedTemplates(limit)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, templates)
}

func (h *MarketplaceHandler) GetCategories(c *gin.Context) {
	counts, err := h.marketplaceService.GetCategoryCounts()
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, counts)
}

func (h *MarketplaceHandler) CreateTemplate(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		utils.UnauthorizedResponse(c, "")
		return
	}

	var req services.CreateTemplateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "Invalid request body", nil)
		return
	}

	template, err := h.marketplaceService.CreateTemplate(userID, &req)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.CreatedResponse(c, template)
}

func (h *MarketplaceHandler) UpdateTemplate(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		utils.UnauthorizedResponse(c, "")
		return
	}

	templateID, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	var req services.UpdateTemplateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "Invalid request body", nil)
		return
	}

	template, err := h.marketplaceService.UpdateTemplate(userID, templateID, &req)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, template)
}

func (h *MarketplaceHandler) DeactivateTemplate(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		utils.UnauthorizedResponse(c, "")
		return
	}

	templateID, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.marketplaceService.DeactivateTemplate(userID, templateID); err != nil {
		respondServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{"deactivated": true})
}

func (h *MarketplaceHandler) GetMyTemplates(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		utils.UnauthorizedResponse(c, "")
		return
	}

	params := utils.GetPaginationParams(c)
	templates, total, err := h.marketplaceService.GetCreatorTemplates(userID, params)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.PaginatedResponse(c, utils.CreatePaginationResult(templates, total, params))
}

// UploadCoverImage stores a cover image and attaches it to the creator's
// template.
func (h *MarketplaceHandler) UploadCoverImage(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		utils.UnauthorizedResponse(c, "")
		return
	}

	templateID, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	file, header, err := c.Request.FormFile("file")
	if err != nil {
		utils.BadRequestResponse(c, "Missing file", nil)
		return
	}
	defer file.Close()

	result, err := h.storageService.UploadImage(file, header, services.UploadCategoryCover)
	if err != nil {
		utils.BadRequestResponse(c, err.Error(), nil)
		return
	}

	coverURL := result.URL
	template, err := h.marketplaceService.UpdateTemplate(userID, templateID, &services.UpdateTemplateRequest{
		CoverImageURL: &coverURL,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"template": template,
		"upload":   result,
	})
}

func (h *MarketplaceHandler) GrantOrganizationAccess(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		utils.UnauthorizedResponse(c, "")
		return
	}

	orgID, ok := parseUUIDParam(c, "orgId")
	if !ok {
		return
	}

	var req services.GrantAccessRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "Invalid request body", nil)
		return
	}

	access, err := h.marketplaceService.GrantOrganizationAccess(userID, orgID, &req)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.CreatedResponse(c, access)
}

func (h *MarketplaceHandler) RevokeOrganizationAccess(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		utils.UnauthorizedResponse(c, "")
		return
	}

	orgID, ok := parseUUIDParam(c, "orgId")
	if !ok {
		return
	}
	templateID, ok := parseUUIDParam(c, "templateId")
	if !ok {
		return
	}

	if err := h.marketplaceService.RevokeOrganizationAccess(userID, orgID, templateID); err != nil {
		respondServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{"revoked": true})
}

func (h *MarketplaceHandler) ListOrganizationTemplates(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		utils.UnauthorizedResponse(c, "")
		return
	}

	orgID, ok := parseUUIDParam(c, "orgId")
	if !ok {
		return
	}

	grants, err := h.marketplaceService.ListOrganizationTemplates(userID, orgID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, grants)
}
