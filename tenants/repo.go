package tenants

import "context"

// Repo lists the tenants visible to the client, in backend order.
type Repo interface {
	List(ctx context.Context) ([]*Tenant, error)
}
