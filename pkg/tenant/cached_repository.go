package tenant

import (
	"context"
	"strconv"
	"time"

	"golang.org/x/sync/singleflight"
)

// CachedRepository decorates a Repository with a lookup cache for FindByID.
// Concurrent misses for the same id share one upstream call. List always
// goes to the upstream repository. Not-found results are never cached.
type CachedRepository struct {
	next  Repository
	cache Cache
	ttl   time.Duration
	group singleflight.Group
}

// NewCachedRepository wraps next. A nil cache disables caching.
func NewCachedRepository(next Repository, cache Cache, ttl time.Duration) *CachedRepository {
	if cache == nil {
		cache = NewNoOpCache()
	}
	return &CachedRepository{next: next, cache: cache, ttl: ttl}
}

// FindByID serves from cache when possible.
func (r *CachedRepository) FindByID(ctx context.Context, id int64) (*Tenant, error) {
	if t, ok := r.cache.Get(ctx, id); ok {
		return t, nil
	}

	v, err, _ := r.group.Do(strconv.FormatInt(id, 10), func() (any, error) {
		t, err := r.next.FindByID(ctx, id)
		if err != nil {
			return nil, err
		}
		r.cache.Set(ctx, t, r.ttl)
		return t, nil
	})
	if err != nil {
		return nil, err
	}
	return clone(v.(*Tenant)), nil
}

// List delegates to the upstream repository.
func (r *CachedRepository) List(ctx context.Context, filter Filter) ([]*Tenant, error) {
	return r.next.List(ctx, filter)
}

// StatusUpdater changes the status of a stored tenant.
type StatusUpdater interface {
	UpdateStatus(ctx context.Context, id int64, status Status) error
}

// UpdateStatus changes the status through the upstream repository and drops
// the cached copy, so a suspended tenant stops resolving immediately rather
// than after the cache ttl. The upstream must implement StatusUpdater.
func (r *CachedRepository) UpdateStatus(ctx context.Context, id int64, status Status) error {
	u, ok := r.next.(StatusUpdater)
	if !ok {
		return ErrStatusUpdateUnsupported
	}
	if err := u.UpdateStatus(ctx, id, status); err != nil {
		return err
	}
	r.Invalidate(ctx, id)
	return nil
}

// Invalidate drops a cached tenant, e.g. after a status change.
func (r *CachedRepository) Invalidate(ctx context.Context, id int64) {
	r.group.Forget(strconv.FormatInt(id, 10))
	r.cache.Delete(ctx, id)
}
