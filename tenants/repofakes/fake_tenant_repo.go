package tenantrepofakes

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/jrsteele09/storefront-client/internal/errors"
	"github.com/jrsteele09/storefront-client/tenants"
)

var _ tenants.Repo = (*FakeTenantRepo)(nil)

// FakeTenantRepo keeps tenants in insertion order, which is the order List
// returns them in.
type FakeTenantRepo struct {
	tenants  []*tenants.Tenant
	failWith error
	calls    int
	lock     sync.RWMutex
}

func NewFakeTenantRepo(list ...*tenants.Tenant) *FakeTenantRepo {
	tr := &FakeTenantRepo{}
	for _, t := range list {
		_ = tr.Upsert(t)
	}
	return tr
}

func (tr *FakeTenantRepo) Upsert(tenantData *tenants.Tenant) error {
	tr.lock.Lock()
	defer tr.lock.Unlock()
	if tenantData.ID == "" {
		tenantData.ID = uuid.New().String()
	}
	for i, t := range tr.tenants {
		if t.ID == tenantData.ID {
			tr.tenants[i] = tenantData
			return nil
		}
	}
	tr.tenants = append(tr.tenants, tenantData)
	return nil
}

func (tr *FakeTenantRepo) Delete(tenantID string) error {
	tr.lock.Lock()
	defer tr.lock.Unlock()
	for i, t := range tr.tenants {
		if t.ID == tenantID {
			tr.tenants = append(tr.tenants[:i], tr.tenants[i+1:]...)
			return nil
		}
	}
	return errors.ErrNotFound
}

func (tr *FakeTenantRepo) List(_ context.Context) ([]*tenants.Tenant, error) {
	tr.lock.Lock()
	defer tr.lock.Unlock()
	tr.calls++
	if tr.failWith != nil {
		return nil, tr.failWith
	}
	list := make([]*tenants.Tenant, len(tr.tenants))
	copy(list, tr.tenants)
	return list, nil
}

// FailWith makes List return err; nil restores normal behaviour.
func (tr *FakeTenantRepo) FailWith(err error) {
	tr.lock.Lock()
	defer tr.lock.Unlock()
	tr.failWith = err
}

// Calls is the number of List calls made.
func (tr *FakeTenantRepo) Calls() int {
	tr.lock.RLock()
	defer tr.lock.RUnlock()
	return tr.calls
}
