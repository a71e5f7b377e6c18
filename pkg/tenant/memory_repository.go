package tenant

import (
	"context"
	"slices"
	"sync"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// MemoryRepository is a Repository backed by a map. Useful for tests,
// fixtures and single-node deployments.
type MemoryRepository struct {
	mu      sync.RWMutex
	tenants map[int64]*Tenant
	lang    language.Tag
}

// NewMemoryRepository creates a repository seeded with tenants.
// Names are ordered with the collation rules of lang (language.Und if zero).
func NewMemoryRepository(lang language.Tag, tenants ...*Tenant) *MemoryRepository {
	r := &MemoryRepository{
		tenants: make(map[int64]*Tenant, len(tenants)),
		lang:    lang,
	}
	for _, t := range tenants {
		r.tenants[t.ID] = clone(t)
	}
	return r
}

// Add stores a new tenant. Returns ErrDuplicateTenant if the id is taken.
func (r *MemoryRepository) Add(t *Tenant) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.tenants[t.ID]; exists {
		return ErrDuplicateTenant
	}
	r.tenants[t.ID] = clone(t)
	return nil
}

// Put inserts or replaces a tenant.
func (r *MemoryRepository) Put(t *Tenant) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tenants[t.ID] = clone(t)
}

// FindByID returns a copy of the stored tenant.
func (r *MemoryRepository) FindByID(ctx context.Context, id int64) (*Tenant, error) {
	r.mu.RLock()
	t, ok := r.tenants[id]
	r.mu.RUnlock()

	if !ok {
		return nil, ErrTenantNotFound
	}
	return clone(t), nil
}

// UpdateStatus changes the status of a stored tenant.
func (r *MemoryRepository) UpdateStatus(ctx context.Context, id int64, status Status) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.tenants[id]
	if !ok {
		return ErrTenantNotFound
	}
	t.Status = status
	return nil
}

// List returns copies of the tenants matching filter.
func (r *MemoryRepository) List(ctx context.Context, filter Filter) ([]*Tenant, error) {
	r.mu.RLock()
	out := make([]*Tenant, 0, len(r.tenants))
	for _, t := range r.tenants {
		if filter.Matches(t) {
			out = append(out, clone(t))
		}
	}
	r.mu.RUnlock()

	byID := func(a, b *Tenant) int {
		switch {
		case a.ID < b.ID:
			return -1
		case a.ID > b.ID:
			return 1
		}
		return 0
	}

	if filter.Order == OrderByID {
		slices.SortFunc(out, byID)
		return out, nil
	}

	// Collator keeps internal buffers and is not safe for concurrent use.
	c := collate.New(r.lang, collate.IgnoreCase)
	slices.SortFunc(out, func(a, b *Tenant) int {
		if n := c.CompareString(a.Name, b.Name); n != 0 {
			return n
		}
		return byID(a, b)
	})
	return out, nil
}

func clone(t *Tenant) *Tenant {
	if t == nil {
		return nil
	}
	cp := *t
	if t.TrialEndsAt != nil {
		ends := *t.TrialEndsAt
		cp.TrialEndsAt = &ends
	}
	return &cp
}
