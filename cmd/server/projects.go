package main

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/dmitrymomot/tenantkit/pkg/logger"
	"github.com/dmitrymomot/tenantkit/svc/tenancy"
	"github.com/dmitrymomot/tenantkit/svc/tenancy/pgstore"
)

// projectHandler serves tenant-scoped project endpoints. Reads go through
// the request scope, mutations through the Decider.
type projectHandler struct {
	resolver *tenancy.Resolver
	decider  *tenancy.Decider
	projects *pgstore.Projects
	log      *slog.Logger
}

func newProjectHandler(resolver *tenancy.Resolver, decider *tenancy.Decider, projects *pgstore.Projects, log *slog.Logger) *projectHandler {
	return &projectHandler{resolver: resolver, decider: decider, projects: projects, log: log}
}

func (h *projectHandler) Register(r chi.Router) {
	r.Get("/projects", h.list)
	r.Post("/projects", h.create)
	r.Delete("/projects/{id}", h.delete)
}

func (h *projectHandler) list(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, _ := tenancy.RequestFromContext(ctx)

	scope, err := h.resolver.Scope(ctx, req)
	if err != nil {
		tenancy.WriteError(w, err)
		return
	}
	projects, err := h.projects.List(ctx, scope)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, projects)
}

type createProjectRequest struct {
	Name string `json:"name"`
}

func (h *projectHandler) create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, _ := tenancy.RequestFromContext(ctx)

	var body createProjectRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || strings.TrimSpace(body.Name) == "" {
		http.Error(w, "project name is required", http.StatusBadRequest)
		return
	}

	p := &pgstore.Project{Name: strings.TrimSpace(body.Name)}
	if err := h.resolver.Stamp(ctx, req, p); err != nil {
		tenancy.WriteError(w, err)
		return
	}
	if err := h.decider.Authorize(ctx, req, tenancy.ActionEdit, p); err != nil {
		tenancy.WriteError(w, err)
		return
	}
	if err := h.projects.Create(ctx, p); err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

func (h *projectHandler) delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, _ := tenancy.RequestFromContext(ctx)

	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		http.Error(w, "invalid project id", http.StatusBadRequest)
		return
	}

	scope, err := h.resolver.Scope(ctx, req)
	if err != nil {
		tenancy.WriteError(w, err)
		return
	}
	p, err := h.projects.Get(ctx, scope, id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if err := h.decider.Authorize(ctx, req, tenancy.ActionDelete, p); err != nil {
		tenancy.WriteError(w, err)
		return
	}
	if err := h.projects.Delete(ctx, scope, id); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *projectHandler) fail(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, pgstore.ErrNotFound) {
		http.Error(w, http.StatusText(http.StatusNotFound), http.StatusNotFound)
		return
	}
	h.log.ErrorContext(r.Context(), "project request failed", logger.Error(err))
	tenancy.WriteError(w, err)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
