package tenancy

import (
	"context"
	"sync"

	"github.com/dmitrymomot/tenantkit/pkg/identity"
	"github.com/dmitrymomot/tenantkit/pkg/tenant"
)

// ClaimReader reads verified token claims. jwt.Claims satisfies it.
type ClaimReader interface {
	HasClaim(name string) bool
	Claim(name string) any
}

// SessionStore is the slice of a user session the resolver needs.
// *session.Session satisfies it.
type SessionStore interface {
	Has(key string) bool
	Get(key string) (any, bool)
	Set(key string, value any)
	Remove(key string)
}

// Request is the tenancy state of one unit of work. It carries the inputs
// of resolution and owns the memoized tenant, so nothing resolved for one
// request can leak into another. Build one per HTTP request or per job.
type Request struct {
	principal   *identity.Principal
	claims      ClaimReader
	session     SessionStore
	interactive bool

	mu      sync.Mutex
	current *tenant.Tenant
}

// RequestOption configures a Request.
type RequestOption func(*Request)

// WithClaims sets the verified claims of the request.
func WithClaims(c ClaimReader) RequestOption {
	return func(r *Request) { r.claims = c }
}

// WithSession sets the user session.
func WithSession(s SessionStore) RequestOption {
	return func(r *Request) { r.session = s }
}

// NewRequest creates the state of an interactive request made by principal.
// A nil principal is an anonymous request.
func NewRequest(principal *identity.Principal, opts ...RequestOption) *Request {
	r := &Request{principal: principal, interactive: true}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// NewBackgroundRequest creates the state of non-interactive work such as a
// batch job. It has no principal and no session; SwitchTenant pins its
// tenant without checks.
func NewBackgroundRequest() *Request {
	return &Request{}
}

// Principal returns the authenticated principal, or nil.
func (r *Request) Principal() *identity.Principal {
	return r.principal
}

// Interactive reports whether the request comes from a user.
func (r *Request) Interactive() bool {
	return r.interactive
}

// Clear drops the memoized tenant so the next resolution starts over.
func (r *Request) Clear() {
	r.mu.Lock()
	r.current = nil
	r.mu.Unlock()
}

func (r *Request) memoized() (*tenant.Tenant, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.current, r.current != nil
}

func (r *Request) memoize(t *tenant.Tenant) {
	r.mu.Lock()
	r.current = t
	r.mu.Unlock()
}

type requestContextKey struct{}

// WithRequest stores r in ctx.
func WithRequest(ctx context.Context, r *Request) context.Context {
	return context.WithValue(ctx, requestContextKey{}, r)
}

// RequestFromContext returns the Request stored by the middleware.
func RequestFromContext(ctx context.Context) (*Request, bool) {
	r, ok := ctx.Value(requestContextKey{}).(*Request)
	return r, ok && r != nil
}
