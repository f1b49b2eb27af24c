package corehandler

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"hrportal/internal/domain/auth"
	"hrportal/internal/domain/core"
	"hrportal/internal/platform/logger"
	"hrportal/internal/transport/http/api"
	"hrportal/internal/transport/http/middleware"
)

type Handler struct {
	Service *core.Service
}

func NewHandler(service *core.Service) *Handler {
	return &Handler{Service: service}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.With(middleware.RequireAuth).Get("/me", h.handleMe)
	r.Route("/employees", func(r chi.Router) {
		r.Use(middleware.RequireAuth)
		r.Get("/", h.handleListEmployees)
		r.Get("/{employeeID}", h.handleGetEmployee)
	})
}

func (h *Handler) handleMe(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	emp, err := h.Service.Me(r.Context(), user)
	if errors.Is(err, core.ErrEmployeeNotFound) {
		api.Success(w, map[string]any{"userId": user.UserID, "role": user.RoleName}, middleware.GetRequestID(r.Context()))
		return
	}
	if err != nil {
		logger.FromContext(r.Context()).Error().Err(err).Msg("load own employee failed")
		api.Fail(w, http.StatusInternalServerError, "me_failed", "failed to load profile", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, map[string]any{"userId": user.UserID, "role": user.RoleName, "employee": emp}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleListEmployees(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	employees, err := h.Service.ListForViewer(r.Context(), user)
	if err != nil {
		logger.FromContext(r.Context()).Error().Err(err).Msg("list employees failed")
		api.Fail(w, http.StatusInternalServerError, "employees_list_failed", "failed to list employees", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, employees, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleGetEmployee(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	employeeID := chi.URLParam(r, "employeeID")

	if !h.canView(r, user.RoleName, user.EmployeeID, employeeID) {
		api.Fail(w, http.StatusForbidden, "forbidden", "not allowed to view this employee", middleware.GetRequestID(r.Context()))
		return
	}
	emp, err := h.Service.GetForViewer(r.Context(), user, employeeID)
	if errors.Is(err, core.ErrEmployeeNotFound) {
		api.Fail(w, http.StatusNotFound, "not_found", "employee not found", middleware.GetRequestID(r.Context()))
		return
	}
	if err != nil {
		logger.FromContext(r.Context()).Error().Err(err).Str("employeeId", employeeID).Msg("get employee failed")
		api.Fail(w, http.StatusInternalServerError, "employee_get_failed", "failed to load employee", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, emp, middleware.GetRequestID(r.Context()))
}

func (h *Handler) canView(r *http.Request, role, selfID, employeeID string) bool {
	switch role {
	case auth.RoleAdmin, auth.RoleFinance, auth.RoleSeniorManagement:
		return true
	case auth.RoleManager:
		if selfID == employeeID {
			return true
		}
		ok, err := h.Service.IsManagerOf(r.Context(), selfID, employeeID)
		if err != nil {
			logger.FromContext(r.Context()).Warn().Err(err).Msg("manager lookup failed")
		}
		return ok
	default:
		return selfID != "" && selfID == employeeID
	}
}
