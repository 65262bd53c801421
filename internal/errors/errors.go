package errors

import (
	"errors"
	"fmt"
)

// Common error types for the storefront client
var (
	// Session errors
	ErrNotAuthenticated    = errors.New("not authenticated")
	ErrSessionExpired      = errors.New("session expired")
	ErrNoRefreshToken      = errors.New("no refresh token")
	ErrInvalidTokenPair    = errors.New("refresh response did not contain a token pair")
	ErrNoRegistrationToken = errors.New("no registration token")

	// Sign-in errors
	ErrSignInIncomplete = errors.New("could not complete sign in")
	ErrInvalidResponse  = errors.New("invalid response")
	ErrOTPThrottled     = errors.New("otp recently sent, wait before requesting another")

	// Tenant errors
	ErrTenantNotReady = errors.New("tenant not resolved")
	ErrTenantNotFound = errors.New("tenant not found")

	// Order errors
	ErrInvalidOrder = errors.New("invalid order")
	ErrPlanNotFound = errors.New("plan not found")

	// Input errors
	ErrInvalidInput = errors.New("invalid input")

	// General errors
	ErrNotFound    = errors.New("not found")
	ErrCorruptFile = errors.New("corrupt token file")
)

// Wrapf wraps an error with context using fmt.Errorf
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf(format+": %w", append(args, err)...)
}

// Is reports whether any error in err's chain matches target
func Is(err, target error) bool {
	return errors.Is(err, target)
}
