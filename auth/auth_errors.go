package auth

import ierrors "github.com/jrsteele09/storefront-client/internal/errors"

// Errors returned by the auth package, usable with errors.Is.
var (
	ErrNotAuthenticated    = ierrors.ErrNotAuthenticated
	ErrSessionExpired      = ierrors.ErrSessionExpired
	ErrTenantNotReady      = ierrors.ErrTenantNotReady
	ErrSignInIncomplete    = ierrors.ErrSignInIncomplete
	ErrNoRegistrationToken = ierrors.ErrNoRegistrationToken
	ErrOTPThrottled        = ierrors.ErrOTPThrottled
	ErrInvalidResponse     = ierrors.ErrInvalidResponse
	ErrInvalidInput        = ierrors.ErrInvalidInput
)
