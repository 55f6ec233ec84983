// internal/i18n/keys.go
package i18n

// Translation keys constants
const (
	// Common
	KeySuccess = "success"
	KeyError   = "error"

	// Authentication
	KeyAuthRequired           = "auth.required"
	KeyAuthInvalidToken       = "auth.invalid_token"
	KeyAuthTokenExpired       = "auth.token_expired"
	KeyAuthInvalidCredentials = "auth.invalid_credentials"
	KeyAuthUserExists         = "auth.user_exists"
	KeyAuthLoginSuccess       = "auth.login_success"
	KeyAuthRegisterSuccess    = "auth.register_success"

	// Users
	KeyUserNotFound  = "user.not_found"
	KeyUserSuspended = "user.suspended"

	// Templates
	KeyTemplateCreated     = "template.created"
	KeyTemplateUpdated     = "template.updated"
	KeyTemplateDeactivated = "template.deactivated"
	KeyTemplateNotFound    = "template.not_found"

	// Purchases
	KeyPurchaseNotFound       = "purchase.not_found"
	KeyPurchaseAlreadyOwned   = "purchase.already_owned"
	KeyPurchaseCompleted      = "purchase.completed"
	KeyPurchaseFailed         = "purchase.failed"
	KeyPurchaseRefunded       = "purchase.refunded"
	KeyPurchaseNotCompleted   = "purchase.not_completed"
	KeyPurchaseContentMissing = "purchase.content_missing"

	// Reviews
	KeyReviewCreated       = "review.created"
	KeyReviewAlreadyExists = "review.already_exists"
	KeyReviewInvalidRating = "review.invalid_rating"

	// Earnings and payouts
	KeyEarningsNotFound        = "earnings.not_found"
	KeyPayoutRequested         = "payout.requested"
	KeyPayoutInsufficientFunds = "payout.insufficient_funds"
	KeyPayoutBelowMinimum      = "payout.below_minimum"
	KeyPayoutNotFound          = "payout.not_found"

	// Organizations
	KeyOrganizationNotFound = "organization.not_found"
	KeyOrgAccessGranted     = "organization.access_granted"

	// Admin
	KeyAdminAccessDenied = "admin.access_denied"

	// Validation
	KeyValidationInvalid = "validation.invalid"
)
