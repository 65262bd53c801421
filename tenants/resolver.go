package tenants

import (
	"context"
	"strings"

	"github.com/jrsteele09/storefront-client/internal/errors"
)

// Resolver decides which tenant the client acts for: the statically
// configured tenant when there is one, otherwise the first tenant listed by
// the backend.
type Resolver struct {
	repo     Repo
	staticID string
}

func NewResolver(repo Repo, staticID string) *Resolver {
	return &Resolver{
		repo:     repo,
		staticID: strings.TrimSpace(staticID),
	}
}

// Resolve returns the tenant ID. The static tenant never touches the repo.
func (r *Resolver) Resolve(ctx context.Context) (string, error) {
	if r.staticID != "" {
		return r.staticID, nil
	}
	if r.repo == nil {
		return "", errors.ErrTenantNotFound
	}
	list, err := r.repo.List(ctx)
	if err != nil {
		return "", errors.Wrapf(err, "[Resolver.Resolve] listing tenants")
	}
	if len(list) == 0 || list[0] == nil || list[0].ID == "" {
		return "", errors.ErrTenantNotFound
	}
	return list[0].ID, nil
}
