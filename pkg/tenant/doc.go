// Package tenant defines the tenant (company) model that isolates each
// customer organization's data, plus the storage-facing pieces around it.
//
// # Status
//
// A tenant is usable when its status is active, or when it is on a trial
// whose end date lies in the future:
//
//	if !t.IsUsable(time.Now()) {
//		// suspended, cancelled or trial expired
//	}
//
// # Repositories
//
// Repository is implemented by MemoryRepository (fixtures, tests) and by the
// PostgreSQL store in svc/tenancy/pgstore. CachedRepository adds an LRU/TTL
// lookup cache in front of any repository:
//
//	repo := tenant.NewCachedRepository(pgRepo,
//		tenant.NewInMemoryCache(tenant.WithMaxSize(500)),
//		30*time.Second,
//	)
//
// The cache holds repository rows only. The tenant resolved for a request
// lives on that request (see svc/tenancy) and is never cached here.
//
// # Context
//
// WithTenant, FromContext and IDFromContext carry the resolved tenant through
// context.Context. LoggerExtractor plugs into pkg/logger to add tenant_id to
// every log record.
package tenant
