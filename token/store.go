package token

import (
	"context"
	"sync"

	"github.com/jrsteele09/storefront-client/internal/errors"
	"github.com/jrsteele09/storefront-client/token/jwt"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"
)

// Store keeps the client's tokens across two persistence scopes: access and
// registration tokens in the session scope, the refresh token in the durable
// scope. Reads never fail and writes are best effort; storage errors are
// logged and otherwise treated as an absent value.
type Store struct {
	session Repo
	durable Repo
	logger  zerolog.Logger
	lock    sync.RWMutex
}

type StoreOption func(*Store)

func WithLogger(logger zerolog.Logger) StoreOption {
	return func(s *Store) {
		s.logger = logger
	}
}

// NewStore creates a Store over the given scope repositories.
func NewStore(session, durable Repo, options ...StoreOption) *Store {
	s := &Store{
		session: session,
		durable: durable,
		logger:  log.Logger,
	}
	for _, opt := range options {
		opt(s)
	}
	return s
}

func (s *Store) repo(kind Kind) Repo {
	if kind.Scope() == ScopeDurable {
		return s.durable
	}
	return s.session
}

// Get returns the stored value for kind; ok is false when it is absent or
// the scope could not be read.
func (s *Store) Get(ctx context.Context, kind Kind) (value string, ok bool) {
	s.lock.RLock()
	defer s.lock.RUnlock()
	return s.get(ctx, kind)
}

func (s *Store) get(ctx context.Context, kind Kind) (string, bool) {
	value, err := s.repo(kind).Get(ctx, kind.Key())
	if err != nil {
		if !errors.Is(err, errors.ErrNotFound) {
			s.logger.Warn().Err(err).Str("kind", string(kind)).Msg("Token store read failed")
		}
		return "", false
	}
	return value, value != ""
}

// Set writes value for kind. An empty value removes the entry.
func (s *Store) Set(ctx context.Context, kind Kind, value string) {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.set(ctx, kind, value)
}

func (s *Store) set(ctx context.Context, kind Kind, value string) {
	if value == "" {
		s.delete(ctx, kind)
		return
	}
	if err := s.repo(kind).Set(ctx, kind.Key(), value); err != nil {
		s.logger.Warn().Err(err).Str("kind", string(kind)).Str("scope", kind.Scope().String()).Msg("Token store write failed")
	}
}

// SetPair overwrites the access and refresh tokens together; Pair never
// observes one without the other.
func (s *Store) SetPair(ctx context.Context, access, refresh string) {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.set(ctx, KindAccess, access)
	s.set(ctx, KindRefresh, refresh)
}

// Pair reads the access and refresh tokens under one lock.
func (s *Store) Pair(ctx context.Context) (access, refresh string) {
	s.lock.RLock()
	defer s.lock.RUnlock()
	access, _ = s.get(ctx, KindAccess)
	refresh, _ = s.get(ctx, KindRefresh)
	return access, refresh
}

func (s *Store) Delete(ctx context.Context, kind Kind) {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.delete(ctx, kind)
}

func (s *Store) delete(ctx context.Context, kind Kind) {
	if err := s.repo(kind).Delete(ctx, kind.Key()); err != nil && !errors.Is(err, errors.ErrNotFound) {
		s.logger.Warn().Err(err).Str("kind", string(kind)).Msg("Token store delete failed")
	}
}

// Clear removes every token kind from both scopes.
func (s *Store) Clear(ctx context.Context) {
	s.lock.Lock()
	defer s.lock.Unlock()
	for _, kind := range []Kind{KindAccess, KindRefresh, KindRegistration} {
		s.delete(ctx, kind)
	}
}

// Token returns the stored pair as an oauth2.Token, or nil when no access
// token is stored. Expiry is set only when the access token is a JWT with an
// exp claim.
func (s *Store) Token(ctx context.Context) *oauth2.Token {
	access, refresh := s.Pair(ctx)
	return NewOAuth2Token(access, refresh)
}

// NewOAuth2Token builds the oauth2 view of an access/refresh pair.
func NewOAuth2Token(access, refresh string) *oauth2.Token {
	if access == "" {
		return nil
	}
	t := &oauth2.Token{
		AccessToken:  access,
		RefreshToken: refresh,
		TokenType:    "Bearer",
	}
	if exp, ok := jwt.Expiry(access); ok {
		t.Expiry = exp
	}
	return t
}
