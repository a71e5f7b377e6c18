package main

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/dmitrymomot/tenantkit/pkg/logger"
	"github.com/dmitrymomot/tenantkit/pkg/tenant"
	"github.com/dmitrymomot/tenantkit/svc/tenancy"
)

type tenantCreator interface {
	Create(ctx context.Context, t *tenant.Tenant) error
}

// tenantAdminHandler creates tenants and changes their status. Both
// operations are reserved to super-admins. Status changes go through the
// cached repository so resolution sees them at once.
type tenantAdminHandler struct {
	creator  tenantCreator
	statuses tenant.StatusUpdater
	log      *slog.Logger
}

func newTenantAdminHandler(creator tenantCreator, statuses tenant.StatusUpdater, log *slog.Logger) *tenantAdminHandler {
	return &tenantAdminHandler{creator: creator, statuses: statuses, log: logger.Security(log)}
}

func (h *tenantAdminHandler) Register(r chi.Router) {
	r.Post("/tenants", h.create)
	r.Put("/tenants/{id}/status", h.setStatus)
}

type createTenantRequest struct {
	Name        string     `json:"name"`
	Slug        string     `json:"slug"`
	Status      string     `json:"status"`
	TrialEndsAt *time.Time `json:"trial_ends_at"`
}

func (h *tenantAdminHandler) create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := requireSuperAdmin(r); err != nil {
		tenancy.WriteError(w, err)
		return
	}

	var body createTenantRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || strings.TrimSpace(body.Name) == "" {
		http.Error(w, "tenant name is required", http.StatusBadRequest)
		return
	}
	status := tenant.StatusActive
	if body.Status != "" {
		st, err := tenant.ParseStatus(body.Status)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		status = st
	}

	t := &tenant.Tenant{
		Name:        strings.TrimSpace(body.Name),
		Slug:        strings.TrimSpace(body.Slug),
		Status:      status,
		TrialEndsAt: body.TrialEndsAt,
	}
	if err := h.creator.Create(ctx, t); err != nil {
		if errors.Is(err, tenant.ErrDuplicateTenant) {
			http.Error(w, err.Error(), http.StatusConflict)
			return
		}
		h.log.ErrorContext(ctx, "failed to create tenant", logger.Handler("tenants.create"), logger.Error(err))
		tenancy.WriteError(w, err)
		return
	}

	h.log.InfoContext(ctx, "tenant created",
		logger.Event("tenant_created"),
		logger.TenantID(t.ID),
		logger.TenantName(t.Name),
	)
	writeJSON(w, http.StatusCreated, t)
}

type tenantStatusRequest struct {
	Status string `json:"status"`
}

func (h *tenantAdminHandler) setStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := requireSuperAdmin(r); err != nil {
		tenancy.WriteError(w, err)
		return
	}

	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		http.Error(w, "invalid tenant id", http.StatusBadRequest)
		return
	}
	var body tenantStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "status is required", http.StatusBadRequest)
		return
	}
	status, err := tenant.ParseStatus(body.Status)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := h.statuses.UpdateStatus(ctx, id, status); err != nil {
		if !errors.Is(err, tenant.ErrTenantNotFound) {
			h.log.ErrorContext(ctx, "failed to update tenant status",
				logger.Handler("tenants.status"),
				logger.TenantID(id),
				logger.Error(err),
			)
		}
		tenancy.WriteError(w, err)
		return
	}

	h.log.InfoContext(ctx, "tenant status changed",
		logger.Event("tenant_status_changed"),
		logger.TenantID(id),
		slog.String("status", string(status)),
	)
	w.WriteHeader(http.StatusNoContent)
}

func requireSuperAdmin(r *http.Request) error {
	req, _ := tenancy.RequestFromContext(r.Context())
	if req == nil || req.Principal() == nil {
		return &tenancy.ContextMissingError{Reason: "principal not authenticated"}
	}
	p := req.Principal()
	if !p.IsSuperAdmin() {
		return &tenancy.AccessDeniedError{PrincipalID: p.ID, Reason: "tenant administration requires super-admin"}
	}
	return nil
}
