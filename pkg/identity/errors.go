package identity

import "errors"

var (
	ErrPrincipalNotFound  = errors.New("principal not found")
	ErrNoPrincipalInCtx   = errors.New("no principal in context")
	ErrUnauthenticated    = errors.New("request is not authenticated")
	ErrDuplicatePrincipal = errors.New("principal already exists")
)
