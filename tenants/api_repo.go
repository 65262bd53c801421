package tenants

import (
	"context"

	"github.com/pkg/errors"

	"github.com/jrsteele09/storefront-client/api"
)

const PathTenantList = "tenant/list"

var _ Repo = (*APIRepo)(nil)

// APIRepo reads tenants from the backend tenant directory.
type APIRepo struct {
	client *api.Client
}

func NewAPIRepo(client *api.Client) *APIRepo {
	return &APIRepo{client: client}
}

func (r *APIRepo) List(ctx context.Context) ([]*Tenant, error) {
	res, err := api.Get[[]*Tenant](ctx, r.client, PathTenantList, api.RequestOptions{})
	if err != nil {
		return nil, errors.Wrap(err, "[tenants.List]")
	}
	if res.Data == nil {
		return nil, nil
	}
	return *res.Data, nil
}
