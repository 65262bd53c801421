package memrepo

import (
	"context"
	"sync"

	"github.com/jrsteele09/storefront-client/internal/errors"
	"github.com/jrsteele09/storefront-client/token"
)

var _ token.Repo = (*MemoryRepo)(nil)

// MemoryRepo is the process-lifetime session scope. It doubles as the
// in-memory fake for either scope in tests; FailWith makes every call return
// the given error to simulate an unavailable store.
type MemoryRepo struct {
	values   map[string]string
	failWith error
	lock     sync.RWMutex
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{
		values: make(map[string]string),
	}
}

func (r *MemoryRepo) Get(_ context.Context, key string) (string, error) {
	r.lock.RLock()
	defer r.lock.RUnlock()
	if r.failWith != nil {
		return "", r.failWith
	}
	v, ok := r.values[key]
	if !ok {
		return "", errors.ErrNotFound
	}
	return v, nil
}

func (r *MemoryRepo) Set(_ context.Context, key, value string) error {
	r.lock.Lock()
	defer r.lock.Unlock()
	if r.failWith != nil {
		return r.failWith
	}
	r.values[key] = value
	return nil
}

func (r *MemoryRepo) Delete(_ context.Context, key string) error {
	r.lock.Lock()
	defer r.lock.Unlock()
	if r.failWith != nil {
		return r.failWith
	}
	delete(r.values, key)
	return nil
}

// FailWith makes subsequent calls fail with err; nil restores normal behaviour.
func (r *MemoryRepo) FailWith(err error) {
	r.lock.Lock()
	defer r.lock.Unlock()
	r.failWith = err
}

// Len returns the number of stored entries.
func (r *MemoryRepo) Len() int {
	r.lock.RLock()
	defer r.lock.RUnlock()
	return len(r.values)
}
