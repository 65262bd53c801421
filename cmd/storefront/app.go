package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"

	"github.com/jrsteele09/storefront-client/api"
	"github.com/jrsteele09/storefront-client/auth"
	"github.com/jrsteele09/storefront-client/catalog"
	"github.com/jrsteele09/storefront-client/checkout"
	"github.com/jrsteele09/storefront-client/internal/config"
	"github.com/jrsteele09/storefront-client/internal/metrics"
	"github.com/jrsteele09/storefront-client/tenants"
	"github.com/jrsteele09/storefront-client/token"
	"github.com/jrsteele09/storefront-client/token/filerepo"
	"github.com/jrsteele09/storefront-client/token/memrepo"
	"github.com/jrsteele09/storefront-client/token/redisrepo"
	"github.com/jrsteele09/storefront-client/validation"
)

// app is one CLI invocation: a started session plus the services built on it.
type app struct {
	config       config.Config
	in           *bufio.Reader
	out          io.Writer
	registry     *prometheus.Registry
	client       *api.Client
	session      *auth.Controller
	passwordless *auth.Passwordless
	catalog      *catalog.Service
	checkout     *checkout.Service
	closers      []func() error
}

func newApp(ctx context.Context, c config.Config, in io.Reader, out io.Writer) (*app, error) {
	a := &app{
		config:   c,
		in:       bufio.NewReader(in),
		out:      out,
		registry: prometheus.NewRegistry(),
	}
	m := metrics.New(a.registry)

	a.client = api.New(c.GetAPIBaseURL(),
		api.WithPrefix(c.GetAPIPrefix()),
		api.WithTenantHeader(c.GetTenantHeader()),
		api.WithHTTPClient(&http.Client{Timeout: c.GetRequestTimeout()}),
		api.WithMetrics(m),
	)

	durable, err := a.durableRepo(ctx)
	if err != nil {
		return nil, err
	}
	store := token.NewStore(memrepo.NewMemoryRepo(), durable)

	a.session, err = auth.NewController(a.client, store,
		tenants.NewResolver(tenants.NewAPIRepo(a.client), c.GetTenantID()),
		auth.WithMetrics(m),
		auth.WithSessionExpired(a.sessionExpired),
	)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.closers = append(a.closers, func() error {
		a.session.Close()
		return nil
	})

	if a.passwordless, err = auth.NewPasswordless(a.session); err != nil {
		a.Close()
		return nil, err
	}
	a.catalog = catalog.NewService(a.client, a.session)
	a.checkout = checkout.NewService(a.client, a.session)

	a.session.Start(ctx)
	log.Debug().
		Str("tenant", a.session.TenantID()).
		Bool("authenticated", a.session.IsAuthenticated()).
		Msg("Session ready")
	return a, nil
}

// durableRepo opens the refresh token scope for the configured backend.
func (a *app) durableRepo(ctx context.Context) (token.Repo, error) {
	switch a.config.GetTokenBackend() {
	case config.TokenBackendRedis:
		repo, err := redisrepo.NewFromURL(a.config.GetRedisURL(),
			redisrepo.WithPrefix(a.config.GetRedisPrefix()),
			redisrepo.WithTTL(a.config.GetRefreshTokenTTL()),
		)
		if err != nil {
			return nil, err
		}
		if err := repo.Ping(ctx); err != nil {
			_ = repo.Close()
			return nil, errors.Wrap(err, "[storefront] redis token backend unavailable")
		}
		a.closers = append(a.closers, repo.Close)
		return repo, nil
	case config.TokenBackendMemory:
		return memrepo.NewMemoryRepo(), nil
	default:
		repo := filerepo.New(a.config.GetDataFolder())
		log.Debug().Str("file", repo.Path()).Msg("Using file token backend")
		return repo, nil
	}
}

func (a *app) sessionExpired(context.Context) {
	fmt.Fprintf(a.out, "Your session has expired. Sign in again with `storefront login` (web: %s).\n", a.config.GetSignInURL())
}

func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			log.Warn().Err(err).Msg("Close failed")
		}
	}
	a.closers = nil
}

func (a *app) prompt(label string) (string, error) {
	fmt.Fprintf(a.out, "%s: ", label)
	line, err := a.in.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", errors.Wrapf(err, "[prompt] reading %s", strings.ToLower(label))
	}
	return strings.TrimSpace(line), nil
}

// describe expands field errors into one line per field.
func describe(err error) error {
	fields := validation.FieldErrors(err)
	if len(fields) == 0 {
		return err
	}
	headline := "invalid input"
	if apiErr, ok := api.AsError(err); ok {
		headline = apiErr.Message
	}
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	lines := make([]string, 0, len(keys))
	for _, k := range keys {
		lines = append(lines, fmt.Sprintf("%s: %s", validation.PathToFieldName(k), fields[k]))
	}
	return errors.Errorf("%s\n  %s", headline, strings.Join(lines, "\n  "))
}
