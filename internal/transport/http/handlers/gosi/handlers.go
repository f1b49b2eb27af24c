package gosihandler

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"hrportal/internal/domain/auth"
	"hrportal/internal/domain/gosi"
	"hrportal/internal/platform/logger"
	"hrportal/internal/transport/http/api"
	"hrportal/internal/transport/http/middleware"
	"hrportal/internal/transport/http/shared"
)

type Handler struct {
	Service     *gosi.Service
	Idempotency middleware.Idempotency
}

func NewHandler(service *gosi.Service, idem middleware.Idempotency) *Handler {
	return &Handler{Service: service, Idempotency: idem}
}

type generatePayload struct {
	Month string `json:"month"`
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/gosi/reports", func(r chi.Router) {
		r.Use(middleware.RequireRoles(auth.RoleAdmin, auth.RoleFinance))
		r.Get("/", h.handleList)
		r.Post("/", h.handleGenerate)
		r.Get("/{month}", h.handleGet)
		r.Post("/{month}/submit", h.handleSubmit)
		r.Get("/{month}/export", h.handleExport)
	})
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	reports, err := h.Service.List(r.Context())
	if err != nil {
		h.fail(w, r, err, "gosi_list_failed", "failed to list gosi reports")
		return
	}
	api.Success(w, reports, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleGenerate(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}
	var payload generatePayload
	if err := shared.DecodeJSON(r, &payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}
	v := shared.NewValidator()
	v.Required("month", payload.Month, "is required")
	if v.Reject(w, middleware.GetRequestID(r.Context())) {
		return
	}

	report, err := h.Service.Generate(r.Context(), user, strings.TrimSpace(payload.Month))
	if err != nil {
		h.fail(w, r, err, "gosi_generate_failed", "failed to generate gosi report")
		return
	}
	api.Created(w, report, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	report, err := h.Service.Get(r.Context(), chi.URLParam(r, "month"))
	if err != nil {
		h.fail(w, r, err, "gosi_get_failed", "failed to load gosi report")
		return
	}
	api.Success(w, report, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleSubmit(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}
	month := chi.URLParam(r, "month")
	log := logger.FromContext(r.Context())

	idempotencyKey := r.Header.Get(middleware.IdempotencyHeader)
	requestHash := middleware.RequestHash([]byte(month))
	if idempotencyKey != "" && h.Idempotency != nil {
		stored, found, err := h.Idempotency.Check(r.Context(), user.UserID, "gosi.submit", idempotencyKey, requestHash)
		if errors.Is(err, middleware.ErrIdempotencyConflict) {
			api.Fail(w, http.StatusConflict, "idempotency_conflict", "idempotency key reused with a different request", middleware.GetRequestID(r.Context()))
			return
		}
		if err != nil {
			log.Warn().Err(err).Msg("idempotency check failed")
		}
		if found {
			api.Success(w, stored, middleware.GetRequestID(r.Context()))
			return
		}
	}

	report, err := h.Service.Submit(r.Context(), user, month)
	if err != nil {
		h.fail(w, r, err, "gosi_submit_failed", "failed to submit gosi report")
		return
	}
	if idempotencyKey != "" && h.Idempotency != nil {
		if err := h.Idempotency.Save(r.Context(), user.UserID, "gosi.submit", idempotencyKey, requestHash, report); err != nil {
			log.Warn().Err(err).Msg("idempotency save failed")
		}
	}
	api.Success(w, report, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleExport(w http.ResponseWriter, r *http.Request) {
	format := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("format")))
	if format == "" {
		format = gosi.FormatXLSX
	}
	v := shared.NewValidator()
	v.Enum("format", format, []string{gosi.FormatXLSX, gosi.FormatPDF}, "must be xlsx or pdf")
	if v.Reject(w, middleware.GetRequestID(r.Context())) {
		return
	}

	report, err := h.Service.Get(r.Context(), chi.URLParam(r, "month"))
	if err != nil {
		h.fail(w, r, err, "gosi_export_failed", "failed to load gosi report")
		return
	}

	var buf bytes.Buffer
	switch format {
	case gosi.FormatPDF:
		err = gosi.WritePDF(&buf, report)
	default:
		err = gosi.WriteXLSX(&buf, report)
	}
	if err != nil {
		logger.FromContext(r.Context()).Error().Err(err).Str("format", format).Msg("gosi export failed")
		api.Fail(w, http.StatusInternalServerError, "gosi_export_failed", "failed to render gosi report", middleware.GetRequestID(r.Context()))
		return
	}

	w.Header().Set("Content-Type", gosi.ContentType(format))
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=gosi-%s.%s", report.Month, format))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(buf.Bytes()); err != nil {
		logger.FromContext(r.Context()).Warn().Err(err).Msg("gosi export write failed")
	}
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error, code, message string) {
	requestID := middleware.GetRequestID(r.Context())
	switch {
	case errors.Is(err, gosi.ErrInvalidMonth):
		api.Fail(w, http.StatusBadRequest, "invalid_month", "month must be in YYYY-MM format", requestID)
	case errors.Is(err, gosi.ErrNoPayrollData):
		api.Fail(w, http.StatusUnprocessableEntity, "no_payroll_data", err.Error(), requestID)
	case errors.Is(err, gosi.ErrReportNotFound):
		api.Fail(w, http.StatusNotFound, "not_found", "gosi report not found", requestID)
	case errors.Is(err, gosi.ErrReportSubmitted):
		api.Fail(w, http.StatusConflict, "report_submitted", "gosi report already submitted", requestID)
	default:
		logger.FromContext(r.Context()).Error().Err(err).Str("code", code).Msg("gosi request failed")
		api.Fail(w, http.StatusInternalServerError, code, message, requestID)
	}
}

