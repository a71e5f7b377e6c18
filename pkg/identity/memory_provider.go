package identity

import (
	"context"
	"slices"
	"sync"
)

// MemoryProvider keeps principals in a map. Used by tests and fixtures.
type MemoryProvider struct {
	mu         sync.RWMutex
	principals map[int64]*Principal
}

// NewMemoryProvider creates a provider seeded with principals.
func NewMemoryProvider(principals ...*Principal) *MemoryProvider {
	p := &MemoryProvider{principals: make(map[int64]*Principal, len(principals))}
	for _, pr := range principals {
		p.principals[pr.ID] = pr
	}
	return p
}

// Add stores a new principal.
func (m *MemoryProvider) Add(p *Principal) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.principals[p.ID]; ok {
		return ErrDuplicatePrincipal
	}
	m.principals[p.ID] = p
	return nil
}

// FindByID returns a shallow copy so callers cannot mutate stored roles.
func (m *MemoryProvider) FindByID(ctx context.Context, id int64) (*Principal, error) {
	m.mu.RLock()
	p, ok := m.principals[id]
	m.mu.RUnlock()
	if !ok {
		return nil, ErrPrincipalNotFound
	}
	cp := *p
	cp.Roles = slices.Clone(p.Roles)
	return &cp, nil
}
