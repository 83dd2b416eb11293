// Package cache defines the process cache that fronts the address hierarchy
// store, and the key scheme used to address its entries.
//
// # Overview
//
//   - CacheService: get / set / delete plus a read-through GetOrFetch and a
//     prefix delete used for invalidating a whole branch of the hierarchy
//   - KeySerializer: builds namespaced keys from hierarchy segments
//
// The cache is always an injected dependency. Entries are derived from the
// store and may be dropped at any time; callers must never rely on the cache
// as the only copy of a value.
//
// # Basic Usage
//
//	svc, err := cache.NewCacheService(cache.DefaultConfig())
//	keys := cache.NewDefaultKeySerializer(cache.WithSegmentHashing(128))
//
//	key := keys.SerializeKey("cities", "CA", "USA") // cities::CA::USA
//	names, err := cache.GetOrFetch(ctx, svc, key, func(ctx context.Context) ([]string, error) {
//		return store.CityNames(ctx, state)
//	})
//
// # Key Scheme
//
// Keys are the namespace followed by the segments, joined with "::". Within a
// segment '%' and ':' are percent-escaped, so distinct segment lists never map
// to the same key (the "a_b" + "c" versus "a" + "b_c" ambiguity of plain
// underscore joining cannot happen). Segments longer than the configured
// threshold are replaced by a marked xxhash digest to keep keys short.
//
// SerializePrefix returns the key of the leading segments followed by the
// separator, which is what DeleteByPrefix expects when every key below a state
// or city has to go.
//
// # Error Handling
//
// Errors returned by a fetch function propagate to the caller and are not
// cached: a not-found lookup is re-queried on every call.
package cache
