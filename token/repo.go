package token

import "context"

// Repo persists opaque token strings for a single persistence scope.
// Get returns errors.ErrNotFound when the key is absent.
type Repo interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}
