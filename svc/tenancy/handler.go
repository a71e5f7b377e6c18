package tenancy

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/dmitrymomot/tenantkit/pkg/logger"
	"github.com/dmitrymomot/tenantkit/pkg/tenant"
)

// Handler exposes tenant context over HTTP.
type Handler struct {
	resolver *Resolver
	log      *slog.Logger
}

// NewHandler creates the HTTP handler.
func NewHandler(resolver *Resolver, log *slog.Logger) *Handler {
	if log == nil {
		log = slog.Default()
	}
	return &Handler{resolver: resolver, log: log}
}

// Register mounts the tenant routes on r. Paths are relative; callers
// choose the prefix, e.g. r.Route("/api", h.Register).
func (h *Handler) Register(r chi.Router) {
	r.Get("/tenant", h.HandleCurrent)
	r.Get("/tenants", h.HandleList)
	r.Post("/tenants/{id}/switch", h.HandleSwitch)
}

type listResponse struct {
	Tenants   []*tenant.Tenant `json:"tenants"`
	CurrentID int64            `json:"current_id,omitempty"`
}

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// HandleCurrent returns the tenant of the request.
func (h *Handler) HandleCurrent(w http.ResponseWriter, r *http.Request) {
	t, err := h.resolver.Current(r.Context())
	if err != nil {
		logResolveError(h.log, r, err)
		WriteError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

// HandleList returns the tenants the principal may switch to.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := RequestFromContext(ctx)
	if !ok || req.Principal() == nil {
		WriteError(w, &ContextMissingError{Reason: "principal not authenticated"})
		return
	}

	list, err := h.resolver.ListAccessible(ctx, req.Principal())
	if err != nil {
		h.log.ErrorContext(ctx, "failed to list accessible tenants", logger.Handler("tenants.list"), logger.Error(err))
		WriteError(w, err)
		return
	}

	resp := listResponse{Tenants: list}
	if id, err := h.resolver.ResolveID(ctx, req); err == nil {
		resp.CurrentID = id
	}
	writeJSON(w, http.StatusOK, resp)
}

// HandleSwitch stores another tenant as current in the session.
func (h *Handler) HandleSwitch(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid_tenant_id", Message: "tenant id must be a positive integer"})
		return
	}

	req, _ := RequestFromContext(ctx)
	if req == nil || req.Principal() == nil {
		WriteError(w, &ContextMissingError{Reason: "principal not authenticated"})
		return
	}

	// Reject before the lookup so unknown and existing ids answer alike.
	if !req.Principal().IsSuperAdmin() {
		WriteError(w, h.resolver.SwitchTenant(ctx, req, &tenant.Tenant{ID: id}))
		return
	}

	target, err := h.resolver.tenants.FindByID(ctx, id)
	if err != nil {
		if !errors.Is(err, tenant.ErrTenantNotFound) {
			h.log.ErrorContext(ctx, "failed to load switch target",
				logger.Handler("tenants.switch"),
				logger.TenantID(id),
				logger.Error(err),
			)
		}
		WriteError(w, err)
		return
	}

	if err := h.resolver.SwitchTenant(ctx, req, target); err != nil {
		WriteError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, target)
}

// StatusFor maps an error onto an HTTP status and a stable error code.
func StatusFor(err error) (int, string) {
	switch {
	case errors.Is(err, ErrContextMissing):
		return http.StatusUnauthorized, "tenant_context_missing"
	case errors.Is(err, ErrTenantInactive):
		return http.StatusForbidden, "tenant_inactive"
	case errors.Is(err, ErrCrossTenantAccess):
		return http.StatusForbidden, "cross_tenant"
	case errors.Is(err, ErrAccessDenied):
		return http.StatusForbidden, "access_denied"
	case errors.Is(err, tenant.ErrTenantNotFound):
		return http.StatusNotFound, "tenant_not_found"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}

// WriteError writes err as a JSON error response. Internal errors are not
// echoed to the client.
func WriteError(w http.ResponseWriter, err error) {
	status, code := StatusFor(err)
	msg := http.StatusText(status)
	if status != http.StatusInternalServerError {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Error: code, Message: msg})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
