package cache

import (
	"context"
	"errors"
)

// ErrInvalidResultType is returned by GetOrFetch when the cached value does
// not have the requested type, which means two callers share a key.
var ErrInvalidResultType = errors.New("cache: cached value has unexpected type")

// KeySerializer builds cache keys from a namespace and the hierarchy segments
// that identify an entry, e.g. ("cities", "CA", "USA").
type KeySerializer interface {
	// SerializeKey returns the key for the namespace and segments.
	SerializeKey(namespace string, segments ...any) string
	// SerializePrefix returns a prefix matching every key whose leading
	// segments equal the given ones.
	SerializePrefix(namespace string, segments ...any) string
}

// FetchFn is the function signature CacheService expects when fetching from the source of truth.
type FetchFn[T any] func(ctx context.Context) (T, error)

// CacheService is the process cache that sits in front of the store.
// Values are derived: a backend may drop any entry at any time.
type CacheService interface {
	// GetOrFetch returns the cached value for key or calls fetchFn, caches a
	// successful result, and returns it. Errors from fetchFn are returned and
	// never cached.
	GetOrFetch(ctx context.Context, key string, fetchFn any) (any, error)
	Get(ctx context.Context, key string) (any, bool)
	Set(ctx context.Context, key string, value any) error
	Delete(ctx context.Context, key string) error
	DeleteByPrefix(ctx context.Context, prefix string) error
}

// GetOrFetch is a type-safe wrapper function that provides generic support for CacheService.
func GetOrFetch[T any](ctx context.Context, service CacheService, key string, fetchFn FetchFn[T]) (T, error) {
	result, err := service.GetOrFetch(ctx, key, fetchFn)
	if err != nil {
		var zero T
		return zero, err
	}
	if result == nil {
		var zero T
		return zero, nil
	}
	value, ok := result.(T)
	if !ok {
		var zero T
		return zero, ErrInvalidResultType
	}
	return value, nil
}

// Get returns the cached value for key when present and of type T.
func Get[T any](ctx context.Context, service CacheService, key string) (T, bool) {
	var zero T
	raw, ok := service.Get(ctx, key)
	if !ok {
		return zero, false
	}
	value, ok := raw.(T)
	if !ok {
		return zero, false
	}
	return value, true
}
