// Package jwt issues and verifies HS256 access tokens on top of
// github.com/golang-jwt/jwt/v5.
//
//	svc, err := jwt.NewFromString(cfg.Secret, jwt.WithIssuer("tenantkit"), jwt.WithTTL(time.Hour))
//	token, err := svc.IssueFor(principal.ID, map[string]any{"tenant_id": tenantID})
//
// Verified claims are exposed as Claims, which answers HasClaim and Claim so
// it can be handed to anything that reads a single claim such as the tenant
// id. Numeric claims are decoded as json.Number.
//
// Middleware extracts a bearer token, verifies it and stores the Claims in
// the request context; ClaimsFromContext reads them back. With
// MiddlewareConfig.Optional, requests carrying no token pass through.
package jwt
