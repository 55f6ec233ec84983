// internal/handlers/common.go
package handlers

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/myfitlabs/myfit-backend/internal/i18n"
	"github.com/myfitlabs/myfit-backend/internal/services"
	"github.com/myfitlabs/myfit-backend/internal/utils"

	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"
)

// currentUserID reads the authenticated user's ID set by the auth middleware.
func currentUserID(c *gin.Context) (uuid.UUID, bool) {
	idStr, ok := utils.GetUserIDFromContext(c)
	if !ok {
		return uuid.Nil, false
	}

	id, err := uuid.Parse(idStr)
	if err != nil {
		return uuid.Nil, false
	}

	return id, true
}

func isAdmin(c *gin.Context) bool {
	userType, ok := utils.GetUserTypeFromContext(c)
	return ok && userType == "admin"
}

func parseUUIDParam(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid "+name, nil)
		return uuid.Nil, false
	}
	return id, true
}

// respondServiceError maps the service error taxonomy onto HTTP codes.
// Unknown errors are logged and surface as 500 without internals.
func respondServiceError(c *gin.Context, err error) {
	lang := utils.GetLangFromContext(c)

	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		utils.ValidationErrorResponse(c, utils.GetValidationErrors(err))
		return
	}

	switch {
	case errors.Is(err, services.ErrTemplateNotFound):
		utils.NotFoundResponse(c, "template")
	case errors.Is(err, services.ErrPurchaseNotFound):
		utils.NotFoundResponse(c, "purchase")
	case errors.Is(err, services.ErrPayoutNotFound):
		utils.NotFoundResponse(c, "payout")
	case errors.Is(err, services.ErrEarningsNotFound):
		utils.NotFoundResponse(c, "earnings")
	case errors.Is(err, services.ErrWorkoutNotFound), errors.Is(err, services.ErrDietPlanNotFound):
		utils.NotFoundResponse(c, "template")
	case errors.Is(err, services.ErrOrganizationNotFound):
		utils.NotFoundResponse(c, "organization")
	case errors.Is(err, services.ErrAccessGrantNotFound):
		utils.NotFoundResponse(c, "organization")
	case errors.Is(err, services.ErrUserNotFound):
		utils.NotFoundResponse(c, "user")

	case errors.Is(err, services.ErrAlreadyPurchased):
		utils.ConflictResponse(c, i18n.T(lang, i18n.KeyPurchaseAlreadyOwned))
	case errors.Is(err, services.ErrAlreadyReviewed):
		utils.ConflictResponse(c, i18n.T(lang, i18n.KeyReviewAlreadyExists))
	case errors.Is(err, services.ErrInsufficientBalance):
		utils.ConflictResponse(c, i18n.T(lang, i18n.KeyPayoutInsufficientFunds))
	case errors.Is(err, services.ErrEmailAlreadyExists):
		utils.ConflictResponse(c, i18n.T(lang, i18n.KeyAuthUserExists))

	case errors.Is(err, services.ErrInvalidPurchaseState),
		errors.Is(err, services.ErrInvalidPayoutState),
		errors.Is(err, services.ErrReviewNotEligible),
		errors.Is(err, services.ErrSourceContentMissing):
		utils.UnprocessableResponse(c, err.Error())

	case errors.Is(err, services.ErrInvalidCredentials):
		utils.UnauthorizedResponse(c, i18n.T(lang, i18n.KeyAuthInvalidCredentials))
	case errors.Is(err, services.ErrUserNotActive):
		utils.ForbiddenResponse(c, i18n.T(lang, i18n.KeyUserSuspended))
	case errors.Is(err, services.ErrNotTemplateCreator),
		errors.Is(err, services.ErrNotOrganizationAdmin):
		utils.ForbiddenResponse(c, "")

	case errors.Is(err, services.ErrTemplateInactive),
		errors.Is(err, services.ErrOwnTemplate),
		errors.Is(err, services.ErrInvalidRating),
		errors.Is(err, services.ErrPayoutBelowMinimum):
		utils.BadRequestResponse(c, err.Error(), nil)

	default:
		logrus.WithError(err).WithField("path", c.Request.URL.Path).Error("Unhandled service error")
		utils.InternalErrorResponse(c, "")
	}
}
