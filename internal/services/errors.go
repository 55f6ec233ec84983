// internal/services/errors.go
package services

import "errors"

// Sentinel errors returned by the service layer. Handlers map these to HTTP
// status codes; everything else surfaces as an internal error.
var (
	ErrTemplateNotFound     = errors.New("template not found")
	ErrTemplateInactive     = errors.New("template is not active")
	ErrPurchaseNotFound     = errors.New("purchase not found")
	ErrAlreadyPurchased     = errors.New("template already purchased")
	ErrOwnTemplate          = errors.New("cannot purchase own template")
	ErrInvalidPurchaseState = errors.New("purchase is not in a valid state for this operation")
	ErrSourceContentMissing = errors.New("template source content is missing")

	ErrAlreadyReviewed   = errors.New("purchase already reviewed")
	ErrReviewNotEligible = errors.New("only completed purchases can be reviewed")
	ErrInvalidRating     = errors.New("rating must be between 1 and 5")

	ErrEarningsNotFound    = errors.New("earnings account not found")
	ErrInsufficientBalance = errors.New("insufficient balance for payout")
	ErrPayoutNotFound      = errors.New("payout not found")
	ErrInvalidPayoutState  = errors.New("payout is not in a valid state for this operation")
	ErrPayoutBelowMinimum  = errors.New("payout amount is below the minimum")

	ErrWorkoutNotFound  = errors.New("workout not found")
	ErrDietPlanNotFound = errors.New("diet plan not found")

	ErrOrganizationNotFound = errors.New("organization not found")
	ErrNotOrganizationAdmin = errors.New("organization admin role required")
	ErrAccessGrantNotFound  = errors.New("organization template access not found")

	ErrUserNotFound       = errors.New("user not found")
	ErrEmailAlreadyExists = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrUserNotActive      = errors.New("user account is not active")

	ErrNotTemplateCreator = errors.New("only the template creator can perform this operation")
)
