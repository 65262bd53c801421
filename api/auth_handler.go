package api

import "context"

// AuthHandler is the recovery hook the client consults when a request that
// carried a token is rejected with 401. At most one handler is active on a
// Client; registration is last-write-wins.
type AuthHandler interface {
	// GetToken returns the current access token, or "".
	GetToken(ctx context.Context) string
	// RefreshAuth mints a new access token. ok is false when no token could
	// be obtained.
	RefreshAuth(ctx context.Context) (token string, ok bool)
	// ClearTokens drops every stored token and the signed-in user.
	ClearTokens(ctx context.Context)
	// OnSessionExpired is called once the session can no longer be recovered.
	OnSessionExpired(ctx context.Context)
}

// SetAuthHandler registers h, replacing any previous handler. nil unregisters.
func (c *Client) SetAuthHandler(h AuthHandler) {
	c.lock.Lock()
	defer c.lock.Unlock()
	c.handler = h
}

// ReplaceAuthHandler swaps current for next only when current is still the
// registered handler. It reports whether the swap happened.
func (c *Client) ReplaceAuthHandler(current, next AuthHandler) bool {
	c.lock.Lock()
	defer c.lock.Unlock()
	if c.handler != current {
		return false
	}
	c.handler = next
	return true
}

// AuthHandler returns the registered handler, or nil.
func (c *Client) AuthHandler() AuthHandler {
	c.lock.RLock()
	defer c.lock.RUnlock()
	return c.handler
}
