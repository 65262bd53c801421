package sessions

import "github.com/jrsteele09/storefront-client/users"

// State is an immutable snapshot of the client session. Empty strings stand
// for absent tokens or tenant.
type State struct {
	TenantID     string
	AccessToken  string
	RefreshToken string
	User         *users.User

	// TenantReady flips to true once tenant resolution has finished, whether
	// or not a tenant was found.
	TenantReady bool
	// SessionRestored flips to true once the startup restore sequence has
	// finished, whatever its outcome.
	SessionRestored bool
}

// IsAuthenticated is true exactly when a profile is held.
func (s State) IsAuthenticated() bool {
	return s.User != nil
}

// Ready reports whether startup has finished.
func (s State) Ready() bool {
	return s.TenantReady && s.SessionRestored
}

// HasTokens reports whether an access or refresh token is held.
func (s State) HasTokens() bool {
	return s.AccessToken != "" || s.RefreshToken != ""
}
