package approval

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// DefaultLoanSeniorThreshold is the loan amount (SAR) above which senior management
// must approve after HR.
var DefaultLoanSeniorThreshold = decimal.NewFromInt(15000)

type RouterOption func(*Router)

// WithClock overrides the time source used for approval dates.
func WithClock(now func() time.Time) RouterOption {
	return func(r *Router) {
		if now != nil {
			r.now = now
		}
	}
}

// Router holds the routing rules. It keeps no per-request state and is safe for
// concurrent use.
type Router struct {
	loanSeniorThreshold decimal.Decimal
	now                 func() time.Time
}

func NewRouter(loanSeniorThreshold decimal.Decimal, opts ...RouterOption) *Router {
	r := &Router{loanSeniorThreshold: loanSeniorThreshold, now: time.Now}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// clock truncates to the precision the store keeps, so optimistic updates compare equal.
func (r *Router) clock() time.Time {
	return r.now().UTC().Truncate(time.Microsecond)
}

func (r *Router) LoanSeniorThreshold() decimal.Decimal {
	return r.loanSeniorThreshold
}

// NewRequest builds a freshly submitted request positioned at the first stage of its chain.
func (r *Router) NewRequest(in SubmitInput) (Request, error) {
	if !in.Type.Valid() {
		return Request{}, ErrUnknownRequestType
	}
	req := Request{
		Type:       in.Type,
		EmployeeID: in.EmployeeID,
		Status:     StatusPending,
		Details:    in.Details,
	}
	if in.Type == TypeLoan {
		if !in.AmountRequested.IsPositive() {
			return Request{}, ErrInvalidAmount
		}
		req.AmountRequested = in.AmountRequested
		req.RequiresSeniorApproval = in.AmountRequested.GreaterThan(r.loanSeniorThreshold)
	}

	chain := ChainFor(req)
	req.CurrentApproverRole = chain[0]
	req.Stages = make(map[Role]StageRecord, len(chain))
	for _, stage := range chain {
		req.Stages[stage] = StageRecord{Status: StagePending}
	}
	now := r.clock()
	req.CreatedAt = now
	req.UpdatedAt = now
	return req, nil
}

// IsAwaitingRole reports whether req is pending and waiting on exactly role.
func IsAwaitingRole(req Request, role Role) bool {
	return req.Status == StatusPending && req.CurrentApproverRole == role
}

// Advance applies decision at actorRole's stage and returns the resulting request.
// req itself is never modified; on error the zero Request is returned.
func (r *Router) Advance(req Request, decision Decision, actorRole Role, comments string) (Request, error) {
	if !decision.Valid() {
		return Request{}, ErrUnknownDecision
	}
	if !IsAwaitingRole(req, actorRole) {
		return Request{}, fmt.Errorf("%w: status %s awaiting %q, actor %q", ErrStageMismatch, req.Status, req.CurrentApproverRole, actorRole)
	}
	comments = strings.TrimSpace(comments)
	if decision == DecisionReject && comments == "" {
		return Request{}, ErrRejectionReasonRequired
	}

	chain := ChainFor(req)
	next, inChain := nextStage(chain, actorRole)
	if !inChain {
		return Request{}, fmt.Errorf("%w: %q is not a %s stage", ErrInvalidTransition, actorRole, req.Type)
	}

	now := r.clock()
	out := req.clone()
	out.UpdatedAt = now
	stage := out.Stages[actorRole]
	stage.Comments = comments

	if decision == DecisionReject {
		stage.Status = StageRejected
		out.Stages[actorRole] = stage
		out.Status = StatusRejected
		out.CurrentApproverRole = ""
		return out, nil
	}

	day := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	stage.Status = StageApproved
	stage.ApprovalDate = &day
	out.Stages[actorRole] = stage
	if next == "" {
		out.Status = terminalStatus(out.Type)
		out.CurrentApproverRole = ""
		return out, nil
	}
	out.CurrentApproverRole = next
	return out, nil
}

// Cancel withdraws a pending request.
func (r *Router) Cancel(req Request) (Request, error) {
	if req.Status != StatusPending {
		return Request{}, fmt.Errorf("%w: cannot cancel a %s request", ErrInvalidTransition, req.Status)
	}
	out := req.clone()
	out.Status = StatusCancelled
	out.CurrentApproverRole = ""
	out.UpdatedAt = r.clock()
	return out, nil
}

// Complete closes an approved travel request once its expenses are settled.
func (r *Router) Complete(req Request) (Request, error) {
	if req.Type != TypeTravel || req.Status != StatusApproved {
		return Request{}, fmt.Errorf("%w: cannot complete a %s %s request", ErrInvalidTransition, req.Status, req.Type)
	}
	out := req.clone()
	out.Status = StatusCompleted
	out.UpdatedAt = r.clock()
	return out, nil
}
