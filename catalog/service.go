package catalog

import (
	"bytes"
	"context"
	"strings"

	"github.com/pkg/errors"

	"github.com/jrsteele09/storefront-client/api"
)

const (
	PathPlans = "menu/plans"
	PathMenu  = "menu/list"
)

// Session supplies the bearer token for catalog calls.
type Session interface {
	IsAuthenticated() bool
	AccessToken() string
}

// Service reads the plan catalog and weekly menus. Both need a signed-in
// session; anonymous callers get empty results.
type Service struct {
	client  *api.Client
	session Session
}

func NewService(client *api.Client, session Session) *Service {
	return &Service{client: client, session: session}
}

func (s *Service) token() string {
	if s.session == nil || !s.session.IsAuthenticated() {
		return ""
	}
	return s.session.AccessToken()
}

// Plans lists the catalog. Anonymous sessions, and responses whose data is
// not a list, get an empty list.
func (s *Service) Plans(ctx context.Context) (Plans, error) {
	access := s.token()
	if access == "" {
		return Plans{}, nil
	}
	env, err := s.client.Get(ctx, PathPlans, api.RequestOptions{Token: access})
	if err != nil {
		return Plans{}, errors.Wrap(err, "[catalog.Plans]")
	}
	if !bytes.HasPrefix(bytes.TrimSpace(env.Data), []byte("[")) {
		return Plans{}, nil
	}
	res, err := api.Decode[Plans](env)
	if err != nil {
		return Plans{}, errors.Wrap(err, "[catalog.Plans]")
	}
	if res.Data == nil {
		return Plans{}, nil
	}
	return *res.Data, nil
}

// Menu returns the weekly menu for planID. Placeholder plan ids and
// anonymous sessions return nil without calling the backend.
func (s *Service) Menu(ctx context.Context, planID string) (*Menu, error) {
	access := s.token()
	if IsPlaceholder(strings.TrimSpace(planID)) || access == "" {
		return nil, nil
	}
	res, err := api.Get[Menu](ctx, s.client, PathMenu, api.RequestOptions{Token: access})
	if err != nil {
		return nil, errors.Wrap(err, "[catalog.Menu]")
	}
	return res.Data, nil
}
