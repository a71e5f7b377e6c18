// Package identity models the authenticated principal of a request.
//
// A Principal has a home tenant and a set of roles. Role checks go through an
// rbac.Hierarchy, so a manager also satisfies checks for chef de projet and
// intervenant. IsSuperAdmin marks principals allowed to cross tenant
// boundaries.
//
// Middleware resolves the principal id with an IDExtractor (session user id,
// JWT subject, or a chain of both), loads it through a Provider and stores it
// in the request context:
//
//	router.Use(identity.Middleware(principals, identity.ChainExtractors(
//		identity.FromSubject(subjectFromJWT),
//		identity.FromContextValue(session.UserIDFromContext),
//	)))
package identity
