package auth

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/jrsteele09/storefront-client/api"
	ierrors "github.com/jrsteele09/storefront-client/internal/errors"
	"github.com/jrsteele09/storefront-client/internal/metrics"
	"github.com/jrsteele09/storefront-client/sessions"
	"github.com/jrsteele09/storefront-client/token"
	"github.com/jrsteele09/storefront-client/token/jwt"
	"github.com/jrsteele09/storefront-client/users"
)

const (
	PathRefresh = "auth/refresh"
	PathProfile = "user/profile"

	refreshKey = "refresh"

	defaultRefreshTimeout = 30 * time.Second
)

// TenantResolver decides which tenant the session acts for.
type TenantResolver interface {
	Resolve(ctx context.Context) (string, error)
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type tokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

var (
	_ api.AuthHandler    = (*Controller)(nil)
	_ oauth2.TokenSource = (*Controller)(nil)
)

// Controller owns the session: tenant, token pair and signed-in user. It is
// the client's AuthHandler once started.
type Controller struct {
	client    *api.Client
	store     *token.Store
	tenants   TenantResolver
	logger    zerolog.Logger
	metrics   *metrics.Metrics
	onExpired func(ctx context.Context)

	refreshGroup   singleflight.Group
	refreshTimeout time.Duration

	lock        sync.RWMutex
	state       sessions.State
	subscribers map[int]chan sessions.State
	nextSub     int
	started     bool
}

type ControllerOption func(*Controller)

func WithLogger(logger zerolog.Logger) ControllerOption {
	return func(c *Controller) {
		c.logger = logger
	}
}

// WithSessionExpired sets the callback run when a session can't be recovered.
// It is typically a redirect to the sign-in surface.
func WithSessionExpired(fn func(ctx context.Context)) ControllerOption {
	return func(c *Controller) {
		c.onExpired = fn
	}
}

func WithMetrics(m *metrics.Metrics) ControllerOption {
	return func(c *Controller) {
		c.metrics = m
	}
}

// WithRefreshTimeout bounds a shared refresh, which outlives the caller that
// started it.
func WithRefreshTimeout(d time.Duration) ControllerOption {
	return func(c *Controller) {
		c.refreshTimeout = d
	}
}

// NewController creates a Controller. Call Start to resolve the tenant,
// restore any stored session and register with the client.
func NewController(client *api.Client, store *token.Store, tenants TenantResolver, options ...ControllerOption) (*Controller, error) {
	if client == nil {
		return nil, errors.New("[NewController] client is required")
	}
	if store == nil {
		return nil, errors.New("[NewController] token store is required")
	}
	if tenants == nil {
		return nil, errors.New("[NewController] tenant resolver is required")
	}

	c := &Controller{
		client:         client,
		store:          store,
		tenants:        tenants,
		logger:         log.Logger,
		refreshTimeout: defaultRefreshTimeout,
		subscribers:    make(map[int]chan sessions.State),
	}
	for _, opt := range options {
		opt(c)
	}
	return c, nil
}

// State returns a snapshot of the session.
func (c *Controller) State() sessions.State {
	c.lock.RLock()
	defer c.lock.RUnlock()
	return c.snapshot()
}

func (c *Controller) snapshot() sessions.State {
	s := c.state
	s.User = s.User.Clone()
	return s
}

func (c *Controller) IsAuthenticated() bool {
	c.lock.RLock()
	defer c.lock.RUnlock()
	return c.state.IsAuthenticated()
}

func (c *Controller) AccessToken() string {
	c.lock.RLock()
	defer c.lock.RUnlock()
	return c.state.AccessToken
}

func (c *Controller) TenantID() string {
	c.lock.RLock()
	defer c.lock.RUnlock()
	return c.state.TenantID
}

// User returns a copy of the signed-in user, or nil.
func (c *Controller) User() *users.User {
	c.lock.RLock()
	defer c.lock.RUnlock()
	return c.state.User.Clone()
}

// Subscribe returns a channel that receives the latest state after every
// change, starting with the current one. Slow readers only see the newest
// snapshot. Call the returned func to stop.
func (c *Controller) Subscribe() (<-chan sessions.State, func()) {
	c.lock.Lock()
	defer c.lock.Unlock()

	id := c.nextSub
	c.nextSub++
	ch := make(chan sessions.State, 1)
	ch <- c.snapshot()
	c.subscribers[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			c.lock.Lock()
			defer c.lock.Unlock()
			if sub, ok := c.subscribers[id]; ok {
				delete(c.subscribers, id)
				close(sub)
			}
		})
	}
}

// update applies fn to the state and publishes the result. The caller must
// hold c.lock.
func (c *Controller) update(fn func(s *sessions.State)) {
	fn(&c.state)
	snap := c.snapshot()
	for _, ch := range c.subscribers {
		select {
		case <-ch:
		default:
		}
		ch <- snap
	}
}

// SetTokens persists and adopts a new token pair. It does not touch the user.
func (c *Controller) SetTokens(ctx context.Context, access, refresh string) {
	c.lock.Lock()
	defer c.lock.Unlock()
	c.store.SetPair(ctx, access, refresh)
	c.update(func(s *sessions.State) {
		s.AccessToken = access
		s.RefreshToken = refresh
	})
}

// SetUser assigns the signed-in user from a server response. nil signs out
// without touching tokens.
func (c *Controller) SetUser(u *users.User) {
	c.lock.Lock()
	defer c.lock.Unlock()
	c.update(func(s *sessions.State) {
		s.User = u.Clone()
	})
}

// ClearTokens drops the token pair, the user and every persisted token.
func (c *Controller) ClearTokens(ctx context.Context) {
	c.lock.Lock()
	defer c.lock.Unlock()
	c.store.Clear(ctx)
	c.update(func(s *sessions.State) {
		s.AccessToken = ""
		s.RefreshToken = ""
		s.User = nil
	})
}

// GetToken returns the persisted access token.
func (c *Controller) GetToken(ctx context.Context) string {
	access, _ := c.store.Get(ctx, token.KindAccess)
	return access
}

// OnSessionExpired runs the configured expiry callback.
func (c *Controller) OnSessionExpired(ctx context.Context) {
	c.logger.Info().Msg("Session expired")
	if c.onExpired != nil {
		c.onExpired(ctx)
	}
}

// RefreshAuth exchanges the stored refresh token for a new pair and returns
// the new access token. Concurrent callers share one backend call, which runs
// detached from any single caller; a caller whose ctx ends stops waiting and
// gets "", false without affecting the others.
//
// With no stored refresh token, or when the backend rejects it (401) or
// answers without a full pair, every token is cleared. Other failures leave
// the session untouched so a transient error doesn't sign the user out.
func (c *Controller) RefreshAuth(ctx context.Context) (string, bool) {
	ch := c.refreshGroup.DoChan(refreshKey, func() (any, error) {
		shared, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.refreshTimeout)
		defer cancel()
		return c.refresh(shared), nil
	})

	select {
	case res := <-ch:
		access, _ := res.Val.(string)
		return access, access != ""
	case <-ctx.Done():
		return "", false
	}
}

func (c *Controller) refresh(ctx context.Context) string {
	stored, ok := c.store.Get(ctx, token.KindRefresh)
	if !ok {
		c.logger.Debug().Err(ierrors.ErrNoRefreshToken).Msg("Refresh skipped")
		c.metrics.ObserveRefresh(metrics.RefreshNoToken)
		c.ClearTokens(ctx)
		return ""
	}

	res, err := api.Post[tokenPair](ctx, c.client, PathRefresh, refreshRequest{RefreshToken: stored}, api.RequestOptions{})
	switch {
	case api.IsStatus(err, http.StatusUnauthorized), ierrors.Is(err, ierrors.ErrInvalidResponse):
		c.logger.Info().Err(err).Msg("Refresh token rejected")
		c.metrics.ObserveRefresh(metrics.RefreshRejected)
		c.ClearTokens(ctx)
		return ""
	case err != nil:
		c.logger.Warn().Err(err).Msg("Refresh failed, keeping session")
		c.metrics.ObserveRefresh(metrics.RefreshFailed)
		return ""
	}

	if res.Data == nil || res.Data.AccessToken == "" || res.Data.RefreshToken == "" {
		c.logger.Warn().Err(ierrors.ErrInvalidTokenPair).Msg("Refresh response incomplete")
		c.metrics.ObserveRefresh(metrics.RefreshRejected)
		c.ClearTokens(ctx)
		return ""
	}

	c.SetTokens(ctx, res.Data.AccessToken, res.Data.RefreshToken)
	c.metrics.ObserveRefresh(metrics.RefreshSuccess)
	return res.Data.AccessToken
}

// FetchProfile loads the profile for tokenOverride, or for the stored access
// token when tokenOverride is "". On success the profile becomes the session
// user. A 401 gets one refresh and one retry; if that fails the session is
// cleared and the expiry callback runs once. Any other failure returns nil and
// keeps the session. The client's own 401 recovery is skipped so this is the
// only refresh attempt.
func (c *Controller) FetchProfile(ctx context.Context, tokenOverride string) *users.User {
	access := tokenOverride
	if access == "" {
		access = c.GetToken(ctx)
	}
	if access == "" {
		return nil
	}

	profile, err := c.profile(ctx, access)
	if err == nil {
		return c.adopt(profile)
	}
	if !api.IsStatus(err, http.StatusUnauthorized) {
		c.logger.Warn().Err(err).Msg("Profile fetch failed")
		return nil
	}

	if renewed, ok := c.RefreshAuth(ctx); ok {
		profile, err = c.profile(ctx, renewed)
		if err == nil && profile != nil {
			return c.adopt(profile)
		}
	}
	if ctx.Err() != nil {
		return nil
	}
	c.expire(ctx)
	return nil
}

func (c *Controller) expire(ctx context.Context) {
	c.ClearTokens(ctx)
	c.OnSessionExpired(ctx)
	c.metrics.ObserveSessionExpired()
}

func (c *Controller) profile(ctx context.Context, access string) (*users.User, error) {
	res, err := api.Get[users.User](ctx, c.client, PathProfile, api.RequestOptions{Token: access, SkipAuthRecovery: true})
	if err != nil {
		return nil, err
	}
	return res.Data, nil
}

func (c *Controller) adopt(profile *users.User) *users.User {
	if profile == nil {
		return nil
	}
	c.SetUser(profile)
	return profile.Clone()
}

// Start runs the startup sequence once: tenant resolution alongside token
// hydration and session restore. Failures are absorbed; when Start returns
// TenantReady and SessionRestored are both true. The controller then becomes
// the client's AuthHandler.
func (c *Controller) Start(ctx context.Context) {
	c.lock.Lock()
	if c.started {
		c.lock.Unlock()
		return
	}
	c.started = true
	c.lock.Unlock()

	var g errgroup.Group
	g.Go(func() error {
		c.resolveTenant(ctx)
		return nil
	})
	g.Go(func() error {
		c.restore(ctx)
		return nil
	})
	_ = g.Wait()

	c.client.SetAuthHandler(c)
}

func (c *Controller) resolveTenant(ctx context.Context) {
	tenantID, err := c.tenants.Resolve(ctx)
	if err != nil {
		c.logger.Warn().Err(err).Msg("Tenant not resolved")
	}

	c.lock.Lock()
	defer c.lock.Unlock()
	c.update(func(s *sessions.State) {
		s.TenantID = tenantID
		s.TenantReady = true
	})
}

func (c *Controller) restore(ctx context.Context) {
	access, refresh := c.store.Pair(ctx)
	c.lock.Lock()
	c.update(func(s *sessions.State) {
		s.AccessToken = access
		s.RefreshToken = refresh
	})
	c.lock.Unlock()

	if refresh != "" {
		if renewed, ok := c.RefreshAuth(ctx); ok {
			c.FetchProfile(ctx, renewed)
		}
	}

	c.lock.Lock()
	defer c.lock.Unlock()
	c.update(func(s *sessions.State) {
		s.SessionRestored = true
	})
}

// Close unregisters the controller from the client, unless another handler
// has replaced it, and ends every subscription.
func (c *Controller) Close() {
	c.client.ReplaceAuthHandler(c, nil)

	c.lock.Lock()
	defer c.lock.Unlock()
	for id, ch := range c.subscribers {
		delete(c.subscribers, id)
		close(ch)
	}
}

// Token implements oauth2.TokenSource. An access token whose exp claim has
// passed is refreshed first.
func (c *Controller) Token() (*oauth2.Token, error) {
	ctx := context.Background()
	t := c.store.Token(ctx)
	if t == nil {
		return nil, ierrors.ErrNotAuthenticated
	}
	if !jwt.Expired(t.AccessToken) {
		return t, nil
	}
	if _, ok := c.RefreshAuth(ctx); !ok {
		return nil, ierrors.ErrSessionExpired
	}
	if t = c.store.Token(ctx); t == nil {
		return nil, ierrors.ErrNotAuthenticated
	}
	return t, nil
}
