package main

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/dmitrymomot/tenantkit/pkg/logger"
	"github.com/dmitrymomot/tenantkit/svc/tenancy"
	"github.com/dmitrymomot/tenantkit/svc/tenancy/pgstore"
)

type timesheetStore interface {
	Get(ctx context.Context, scope tenancy.Scope, id int64) (*pgstore.Timesheet, error)
	Create(ctx context.Context, ts *pgstore.Timesheet) error
	UpdateMinutes(ctx context.Context, scope tenancy.Scope, id int64, minutes int) error
}

// timesheetHandler serves tenant-scoped timesheets. Contributors may edit
// their own entries; other edits need a project lead or manager.
type timesheetHandler struct {
	resolver   *tenancy.Resolver
	decider    *tenancy.Decider
	timesheets timesheetStore
	log        *slog.Logger
}

func newTimesheetHandler(resolver *tenancy.Resolver, decider *tenancy.Decider, timesheets timesheetStore, log *slog.Logger) *timesheetHandler {
	return &timesheetHandler{resolver: resolver, decider: decider, timesheets: timesheets, log: log}
}

func (h *timesheetHandler) Register(r chi.Router) {
	r.Post("/timesheets", h.create)
	r.Get("/timesheets/{id}", h.get)
	r.Patch("/timesheets/{id}", h.updateMinutes)
}

type createTimesheetRequest struct {
	ProjectID int64  `json:"project_id"`
	WorkDate  string `json:"work_date"`
	Minutes   int    `json:"minutes"`
}

func (h *timesheetHandler) create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, _ := tenancy.RequestFromContext(ctx)

	var body createTimesheetRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.ProjectID <= 0 || body.Minutes <= 0 {
		http.Error(w, "project_id and positive minutes are required", http.StatusBadRequest)
		return
	}
	day, err := time.Parse(time.DateOnly, body.WorkDate)
	if err != nil {
		http.Error(w, "work_date must be YYYY-MM-DD", http.StatusBadRequest)
		return
	}

	ts := &pgstore.Timesheet{ProjectID: body.ProjectID, WorkDate: day, Minutes: body.Minutes}
	if req != nil && req.Principal() != nil {
		id := req.Principal().ID
		ts.Contributor = &id
	}
	if err := h.resolver.Stamp(ctx, req, ts); err != nil {
		tenancy.WriteError(w, err)
		return
	}
	if err := h.decider.Authorize(ctx, req, tenancy.ActionEdit, ts); err != nil {
		tenancy.WriteError(w, err)
		return
	}
	if err := h.timesheets.Create(ctx, ts); err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, ts)
}

func (h *timesheetHandler) get(w http.ResponseWriter, r *http.Request) {
	ts, _, ok := h.load(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, ts)
}

type updateMinutesRequest struct {
	Minutes int `json:"minutes"`
}

func (h *timesheetHandler) updateMinutes(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, _ := tenancy.RequestFromContext(ctx)

	var body updateMinutesRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Minutes <= 0 {
		http.Error(w, "positive minutes are required", http.StatusBadRequest)
		return
	}

	ts, scope, ok := h.load(w, r)
	if !ok {
		return
	}
	if err := h.decider.Authorize(ctx, req, tenancy.ActionEdit, ts); err != nil {
		tenancy.WriteError(w, err)
		return
	}
	if err := h.timesheets.UpdateMinutes(ctx, scope, ts.ID, body.Minutes); err != nil {
		h.fail(w, r, err)
		return
	}
	ts.Minutes = body.Minutes
	writeJSON(w, http.StatusOK, ts)
}

// load fetches the timesheet named in the path within the current tenant.
func (h *timesheetHandler) load(w http.ResponseWriter, r *http.Request) (*pgstore.Timesheet, tenancy.Scope, bool) {
	ctx := r.Context()
	req, _ := tenancy.RequestFromContext(ctx)

	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		http.Error(w, "invalid timesheet id", http.StatusBadRequest)
		return nil, tenancy.Scope{}, false
	}
	scope, err := h.resolver.Scope(ctx, req)
	if err != nil {
		tenancy.WriteError(w, err)
		return nil, tenancy.Scope{}, false
	}
	ts, err := h.timesheets.Get(ctx, scope, id)
	if err != nil {
		h.fail(w, r, err)
		return nil, tenancy.Scope{}, false
	}
	return ts, scope, true
}

func (h *timesheetHandler) fail(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, pgstore.ErrNotFound) {
		http.Error(w, http.StatusText(http.StatusNotFound), http.StatusNotFound)
		return
	}
	h.log.ErrorContext(r.Context(), "timesheet request failed", logger.Handler("timesheets"), logger.Error(err))
	tenancy.WriteError(w, err)
}
