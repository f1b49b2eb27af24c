package reportshandler

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"hrportal/internal/domain/auth"
	"hrportal/internal/domain/reports"
	"hrportal/internal/platform/logger"
	"hrportal/internal/transport/http/api"
	"hrportal/internal/transport/http/middleware"
	"hrportal/internal/transport/http/shared"
)

type Handler struct {
	Service *reports.Service
}

func NewHandler(service *reports.Service) *Handler {
	return &Handler{Service: service}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/reports", func(r chi.Router) {
		r.With(middleware.RequireAuth).Get("/dashboard", h.handleDashboard)
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireRoles(auth.RoleAdmin))
			r.Get("/jobs", h.handleListJobRuns)
			r.Get("/jobs/{runID}", h.handleGetJobRun)
		})
	})
}

func (h *Handler) handleDashboard(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	dash, err := h.Service.Dashboard(r.Context(), user)
	if err != nil {
		logger.FromContext(r.Context()).Error().Err(err).Msg("dashboard failed")
		api.Fail(w, http.StatusInternalServerError, "dashboard_failed", "failed to build dashboard", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, dash, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleListJobRuns(w http.ResponseWriter, r *http.Request) {
	page := shared.ParsePagination(r, 50, 200)
	q := r.URL.Query()
	filter := reports.JobRunFilter{JobType: q.Get("jobType"), Status: q.Get("status")}

	v := shared.NewValidator()
	if raw := q.Get("startedFrom"); raw != "" {
		if from, ok := v.Date("startedFrom", raw); ok {
			filter.StartedFrom = &from
		}
	}
	if raw := q.Get("startedTo"); raw != "" {
		if to, ok := v.Date("startedTo", raw); ok {
			if len(raw) == len(time.DateOnly) {
				to = to.Add(24*time.Hour - time.Nanosecond)
			}
			filter.StartedTo = &to
		}
	}
	if v.Reject(w, middleware.GetRequestID(r.Context())) {
		return
	}

	runs, total, err := h.Service.JobRuns(r.Context(), filter, page.Limit, page.Offset)
	if err != nil {
		logger.FromContext(r.Context()).Error().Err(err).Msg("list job runs failed")
		api.Fail(w, http.StatusInternalServerError, "job_runs_failed", "failed to list job runs", middleware.GetRequestID(r.Context()))
		return
	}
	page.WriteTotal(w, total)
	api.Success(w, runs, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleGetJobRun(w http.ResponseWriter, r *http.Request) {
	run, err := h.Service.JobRun(r.Context(), chi.URLParam(r, "runID"))
	if errors.Is(err, reports.ErrJobRunNotFound) {
		api.Fail(w, http.StatusNotFound, "not_found", "job run not found", middleware.GetRequestID(r.Context()))
		return
	}
	if err != nil {
		logger.FromContext(r.Context()).Error().Err(err).Msg("get job run failed")
		api.Fail(w, http.StatusInternalServerError, "job_run_failed", "failed to load job run", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, run, middleware.GetRequestID(r.Context()))
}
