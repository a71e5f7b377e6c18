// Package tenancy decides which tenant a request acts in and whether its
// principal may touch a tenant-owned resource.
//
// Every unit of work gets its own *Request. HTTP requests get one from
// Middleware, built from the principal, JWT claims and session already in
// the context; jobs use NewBackgroundRequest and pin a tenant with
// SwitchTenant. The Request owns the memoized tenant, so resolution runs
// at most once per request and never leaks across requests.
//
// Resolver.Resolve tries the tenant claim, then the tenant a super-admin
// switched to (stored in the session), then the principal's home tenant.
// The result must be active or on a running trial, and the principal must
// have access to it. Failures are typed:
//
//	*ContextMissingError  no principal, unknown claimed tenant, no home tenant
//	*InactiveError        suspended, cancelled or expired tenant
//	*CrossTenantError     principal outside the tenant it reached for
//	*AccessDeniedError    switch or action not permitted
//
// All of them match ErrIsolationViolation and their own sentinel with
// errors.Is.
//
// Decider.Decide guards resources implementing Resource. Touching another
// tenant's resource is always logged at error level with
// MsgIsolationViolation and written to the audit trail. Only super-admins
// pass, with an additional MsgSuperAdminOverride warning.
//
//	resolver := tenancy.NewResolver(repo, tenancy.WithLogger(log), tenancy.WithAuditRecorder(trail))
//	decider := tenancy.NewDecider(resolver)
//
//	req, _ := tenancy.RequestFromContext(ctx)
//	if err := decider.Authorize(ctx, req, tenancy.ActionEdit, project); err != nil {
//		tenancy.WriteError(w, err)
//		return
//	}
package tenancy
