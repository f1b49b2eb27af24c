package approvalshandler

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"hrportal/internal/domain/approval"
	"hrportal/internal/platform/logger"
	"hrportal/internal/transport/http/api"
	"hrportal/internal/transport/http/middleware"
	"hrportal/internal/transport/http/shared"
)

type Handler struct {
	Service     *approval.Service
	Idempotency middleware.Idempotency
}

func NewHandler(service *approval.Service, idem middleware.Idempotency) *Handler {
	return &Handler{Service: service, Idempotency: idem}
}

type submitPayload struct {
	LeaveType     string      `json:"leaveType"`
	StartDate     string      `json:"startDate"`
	EndDate       string      `json:"endDate"`
	Reason        string      `json:"reason"`
	Amount        json.Number `json:"amount"`
	Destination   string      `json:"destination"`
	Purpose       string      `json:"purpose"`
	EstimatedCost json.Number `json:"estimatedCost"`
}

type decisionPayload struct {
	Decision string `json:"decision"`
	Comments string `json:"comments"`
}

type leaveDetails struct {
	LeaveType string `json:"leaveType"`
	StartDate string `json:"startDate"`
	EndDate   string `json:"endDate"`
	Days      int    `json:"days"`
	Reason    string `json:"reason,omitempty"`
}

type loanDetails struct {
	Reason string `json:"reason"`
}

type travelDetails struct {
	Destination   string          `json:"destination"`
	Purpose       string          `json:"purpose"`
	StartDate     string          `json:"startDate"`
	EndDate       string          `json:"endDate"`
	EstimatedCost decimal.Decimal `json:"estimatedCost"`
}

var leaveTypes = []string{"annual", "sick", "unpaid", "maternity", "hajj", "emergency"}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/approvals", func(r chi.Router) {
		r.Use(middleware.RequireAuth)
		r.Get("/pending", h.handleListPending)
		r.Get("/mine", h.handleListMine)
		r.Post("/{type}", h.handleSubmit)
		r.Get("/{type}/{id}", h.handleGet)
		r.Post("/{type}/{id}/decision", h.handleDecide)
		r.Post("/{type}/{id}/cancel", h.handleCancel)
		r.Post("/{type}/{id}/complete", h.handleComplete)
	})
}

func (h *Handler) handleListPending(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	requests, err := h.Service.ListPending(r.Context(), user)
	if err != nil {
		h.fail(w, r, err, "approvals_list_failed", "failed to list pending approvals")
		return
	}
	api.Success(w, requests, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleListMine(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	requests, err := h.Service.ListMine(r.Context(), user)
	if err != nil {
		h.fail(w, r, err, "approvals_list_failed", "failed to list requests")
		return
	}
	api.Success(w, requests, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleSubmit(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	requestID := middleware.GetRequestID(r.Context())
	log := logger.FromContext(r.Context())

	requestType, err := approval.ParseRequestType(chi.URLParam(r, "type"))
	if err != nil {
		h.fail(w, r, err, "", "")
		return
	}
	body, err := io.ReadAll(r.Body)
	if err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", requestID)
		return
	}

	idempotencyKey := r.Header.Get(middleware.IdempotencyHeader)
	endpoint := "approvals.submit." + string(requestType)
	requestHash := middleware.RequestHash(body)
	if idempotencyKey != "" && h.Idempotency != nil {
		stored, found, err := h.Idempotency.Check(r.Context(), user.UserID, endpoint, idempotencyKey, requestHash)
		if errors.Is(err, middleware.ErrIdempotencyConflict) {
			api.Fail(w, http.StatusConflict, "idempotency_conflict", "idempotency key reused with a different request", requestID)
			return
		}
		if err != nil {
			log.Warn().Err(err).Msg("idempotency check failed")
		}
		if found {
			api.Success(w, stored, requestID)
			return
		}
	}

	var payload submitPayload
	r.Body = io.NopCloser(bytes.NewReader(body))
	if err := shared.DecodeJSON(r, &payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", requestID)
		return
	}
	in, ok := buildSubmitInput(w, requestID, requestType, payload)
	if !ok {
		return
	}

	created, err := h.Service.Submit(r.Context(), user, in)
	if err != nil {
		h.fail(w, r, err, "approval_submit_failed", "failed to submit request")
		return
	}
	if idempotencyKey != "" && h.Idempotency != nil {
		if err := h.Idempotency.Save(r.Context(), user.UserID, endpoint, idempotencyKey, requestHash, created); err != nil {
			log.Warn().Err(err).Msg("idempotency save failed")
		}
	}
	api.Created(w, created, requestID)
}

// buildSubmitInput validates the type-specific fields and packs them into the request details.
func buildSubmitInput(w http.ResponseWriter, requestID string, requestType approval.RequestType, p submitPayload) (approval.SubmitInput, bool) {
	in := approval.SubmitInput{Type: requestType}
	v := shared.NewValidator()
	var details any

	switch requestType {
	case approval.TypeLeave:
		v.Required("leaveType", p.LeaveType, "is required")
		v.Enum("leaveType", p.LeaveType, leaveTypes, "must be one of "+strings.Join(leaveTypes, ", "))
		start, okStart := v.Date("startDate", p.StartDate)
		end, okEnd := v.Date("endDate", p.EndDate)
		v.DateOrder("startDate", start, "endDate", end)
		d := leaveDetails{LeaveType: strings.ToLower(strings.TrimSpace(p.LeaveType)), Reason: strings.TrimSpace(p.Reason)}
		if okStart && okEnd && !end.Before(start) {
			d.StartDate = start.Format("2006-01-02")
			d.EndDate = end.Format("2006-01-02")
			d.Days = calendarDays(start, end)
		}
		details = d
	case approval.TypeLoan:
		amount, _ := v.PositiveAmount("amount", p.Amount)
		v.Required("reason", p.Reason, "is required")
		in.AmountRequested = amount
		details = loanDetails{Reason: strings.TrimSpace(p.Reason)}
	case approval.TypeTravel:
		v.Required("destination", p.Destination, "is required")
		v.Required("purpose", p.Purpose, "is required")
		start, _ := v.Date("startDate", p.StartDate)
		end, _ := v.Date("endDate", p.EndDate)
		v.DateOrder("startDate", start, "endDate", end)
		cost, _ := v.PositiveAmount("estimatedCost", p.EstimatedCost)
		details = travelDetails{
			Destination:   strings.TrimSpace(p.Destination),
			Purpose:       strings.TrimSpace(p.Purpose),
			StartDate:     strings.TrimSpace(p.StartDate),
			EndDate:       strings.TrimSpace(p.EndDate),
			EstimatedCost: cost,
		}
	}
	if v.Reject(w, requestID) {
		return approval.SubmitInput{}, false
	}
	encoded, err := json.Marshal(details)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "approval_submit_failed", "failed to encode request details", requestID)
		return approval.SubmitInput{}, false
	}
	in.Details = encoded
	return in, true
}

// calendarDays counts the inclusive days between the dates as written, ignoring time of day.
func calendarDays(start, end time.Time) int {
	y1, m1, d1 := start.Date()
	y2, m2, d2 := end.Date()
	from := time.Date(y1, m1, d1, 0, 0, 0, 0, time.UTC)
	to := time.Date(y2, m2, d2, 0, 0, 0, 0, time.UTC)
	return int(to.Sub(from).Hours()/24) + 1
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	requestType, err := approval.ParseRequestType(chi.URLParam(r, "type"))
	if err != nil {
		h.fail(w, r, err, "", "")
		return
	}
	req, err := h.Service.Get(r.Context(), requestType, chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, err, "approval_get_failed", "failed to load request")
		return
	}
	allowed, err := h.Service.CanView(r.Context(), user, req)
	if err != nil {
		h.fail(w, r, err, "approval_get_failed", "failed to load request")
		return
	}
	if !allowed {
		api.Fail(w, http.StatusNotFound, "not_found", "approval request not found", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, req, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleDecide(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	requestID := middleware.GetRequestID(r.Context())
	requestType, err := approval.ParseRequestType(chi.URLParam(r, "type"))
	if err != nil {
		h.fail(w, r, err, "", "")
		return
	}
	var payload decisionPayload
	if err := shared.DecodeJSON(r, &payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", requestID)
		return
	}
	decision, err := approval.ParseDecision(payload.Decision)
	if err != nil {
		h.fail(w, r, err, "", "")
		return
	}

	updated, err := h.Service.Decide(r.Context(), user, requestType, chi.URLParam(r, "id"), approval.DecisionInput{Decision: decision, Comments: payload.Comments})
	if err != nil {
		h.fail(w, r, err, "approval_decision_failed", "failed to record decision")
		return
	}
	api.Success(w, updated, requestID)
}

func (h *Handler) handleCancel(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	requestType, err := approval.ParseRequestType(chi.URLParam(r, "type"))
	if err != nil {
		h.fail(w, r, err, "", "")
		return
	}
	updated, err := h.Service.Cancel(r.Context(), user, requestType, chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, err, "approval_cancel_failed", "failed to cancel request")
		return
	}
	api.Success(w, updated, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleComplete(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	requestType, err := approval.ParseRequestType(chi.URLParam(r, "type"))
	if err != nil {
		h.fail(w, r, err, "", "")
		return
	}
	updated, err := h.Service.Complete(r.Context(), user, requestType, chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, err, "approval_complete_failed", "failed to complete request")
		return
	}
	api.Success(w, updated, middleware.GetRequestID(r.Context()))
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error, code, message string) {
	requestID := middleware.GetRequestID(r.Context())
	switch {
	case errors.Is(err, approval.ErrUnknownRequestType),
		errors.Is(err, approval.ErrUnknownDecision),
		errors.Is(err, approval.ErrRejectionReasonRequired),
		errors.Is(err, approval.ErrInvalidAmount):
		api.Fail(w, http.StatusBadRequest, "invalid_request", err.Error(), requestID)
	case errors.Is(err, approval.ErrActorNotPermitted),
		errors.Is(err, approval.ErrNotEmployeeManager),
		errors.Is(err, approval.ErrNotRequestOwner):
		api.Fail(w, http.StatusForbidden, "forbidden", err.Error(), requestID)
	case errors.Is(err, approval.ErrStageMismatch),
		errors.Is(err, approval.ErrInvalidTransition),
		errors.Is(err, approval.ErrStaleRequest):
		api.Fail(w, http.StatusConflict, "invalid_state", err.Error(), requestID)
	case errors.Is(err, approval.ErrRequestNotFound):
		api.Fail(w, http.StatusNotFound, "not_found", "approval request not found", requestID)
	default:
		logger.FromContext(r.Context()).Error().Err(err).Str("code", code).Msg("approval request failed")
		api.Fail(w, http.StatusInternalServerError, code, message, requestID)
	}
}
