package approval

import (
	"context"
	"errors"
	"fmt"

	"hrportal/internal/domain/auth"
	"hrportal/internal/platform/logger"
)

type Service struct {
	Store     StoreAPI
	Employees EmployeeDirectory
	Router    *Router
	Policy    *Policy
	Audit     AuditRecorder
	Metrics   DecisionMetrics
	Notifier  Notifier
}

func NewService(store StoreAPI, employees EmployeeDirectory, router *Router, policy *Policy, audit AuditRecorder, metrics DecisionMetrics) *Service {
	return &Service{Store: store, Employees: employees, Router: router, Policy: policy, Audit: audit, Metrics: metrics}
}

// Submit files a new request on behalf of the acting employee.
func (s *Service) Submit(ctx context.Context, actor auth.UserContext, in SubmitInput) (Request, error) {
	if actor.EmployeeID == "" {
		return Request{}, ErrNotRequestOwner
	}
	in.EmployeeID = actor.EmployeeID
	req, err := s.Router.NewRequest(in)
	if err != nil {
		return Request{}, err
	}
	id, err := s.Store.Create(ctx, req)
	if err != nil {
		return Request{}, err
	}
	req.ID = id
	s.record(ctx, actor, "approval.submit", req, nil, req)
	return req, nil
}

func (s *Service) Get(ctx context.Context, requestType RequestType, id string) (Request, error) {
	req, err := s.Store.Get(ctx, id)
	if err != nil {
		return Request{}, err
	}
	if req.Type != requestType {
		return Request{}, ErrRequestNotFound
	}
	return req, nil
}

// CanView reports whether actor may read req: the requester, or a principal allowed
// to view one of its stages. Manager-stage visibility holds only for the employee's
// recorded manager.
func (s *Service) CanView(ctx context.Context, actor auth.UserContext, req Request) (bool, error) {
	if actor.EmployeeID != "" && req.EmployeeID == actor.EmployeeID {
		return true, nil
	}
	managerStage := false
	for _, stage := range ChainFor(req) {
		if !s.Policy.CanView(actor.RoleName, stage) {
			continue
		}
		if stage != RoleManager {
			return true, nil
		}
		managerStage = true
	}
	if !managerStage {
		return false, nil
	}
	err := s.checkManager(ctx, actor, req)
	if errors.Is(err, ErrNotEmployeeManager) {
		return false, nil
	}
	return err == nil, err
}

// ListPending returns the requests currently awaiting a stage the actor can see.
// Managers only see requests from their direct reports.
func (s *Service) ListPending(ctx context.Context, actor auth.UserContext) ([]Request, error) {
	stages := s.Policy.VisibleStages(actor.RoleName)
	if len(stages) == 0 {
		return []Request{}, nil
	}
	managerScope := ""
	if actor.RoleName == auth.RoleManager {
		if actor.EmployeeID == "" {
			return []Request{}, nil
		}
		managerScope = actor.EmployeeID
	}
	requests, err := s.Store.ListPending(ctx, stages, managerScope)
	if err != nil {
		return nil, err
	}
	return s.Policy.PendingFor(requests, actor.RoleName), nil
}

func (s *Service) ListMine(ctx context.Context, actor auth.UserContext) ([]Request, error) {
	if actor.EmployeeID == "" {
		return []Request{}, nil
	}
	requests, err := s.Store.ListByEmployee(ctx, actor.EmployeeID)
	if err != nil {
		return nil, err
	}
	if requests == nil {
		requests = []Request{}
	}
	return requests, nil
}

// Decide re-reads the request, applies the actor's decision at its current stage and
// persists it only if nobody else moved the request in between.
func (s *Service) Decide(ctx context.Context, actor auth.UserContext, requestType RequestType, id string, in DecisionInput) (Request, error) {
	req, err := s.Get(ctx, requestType, id)
	if err != nil {
		return Request{}, err
	}
	role, err := s.Policy.ActingRole(actor.RoleName, req)
	if err != nil {
		return Request{}, err
	}
	if role == RoleManager {
		if err := s.checkManager(ctx, actor, req); err != nil {
			return Request{}, err
		}
	}

	next, err := s.Router.Advance(req, in.Decision, role, in.Comments)
	if err != nil {
		return Request{}, err
	}
	if err := s.Store.Update(ctx, req, next); err != nil {
		return Request{}, err
	}
	if s.Metrics != nil {
		s.Metrics.RecordDecision(string(req.Type), string(in.Decision))
	}
	s.record(ctx, actor, "approval."+string(in.Decision), next, req, next)
	s.notify(ctx, next)
	return next, nil
}

func (s *Service) Cancel(ctx context.Context, actor auth.UserContext, requestType RequestType, id string) (Request, error) {
	req, err := s.Get(ctx, requestType, id)
	if err != nil {
		return Request{}, err
	}
	if actor.EmployeeID == "" || req.EmployeeID != actor.EmployeeID {
		return Request{}, ErrNotRequestOwner
	}
	next, err := s.Router.Cancel(req)
	if err != nil {
		return Request{}, err
	}
	if err := s.Store.Update(ctx, req, next); err != nil {
		return Request{}, err
	}
	s.record(ctx, actor, "approval.cancel", next, req, next)
	return next, nil
}

// Complete settles an approved travel request. Only principals allowed to act at the
// finance stage may do it.
func (s *Service) Complete(ctx context.Context, actor auth.UserContext, requestType RequestType, id string) (Request, error) {
	req, err := s.Get(ctx, requestType, id)
	if err != nil {
		return Request{}, err
	}
	if !s.Policy.CanAct(actor.RoleName, RoleFinance) {
		return Request{}, ErrActorNotPermitted
	}
	next, err := s.Router.Complete(req)
	if err != nil {
		return Request{}, err
	}
	if err := s.Store.Update(ctx, req, next); err != nil {
		return Request{}, err
	}
	s.record(ctx, actor, "approval.complete", next, req, next)
	s.notify(ctx, next)
	return next, nil
}

func (s *Service) checkManager(ctx context.Context, actor auth.UserContext, req Request) error {
	if actor.EmployeeID == "" || s.Employees == nil {
		return ErrNotEmployeeManager
	}
	ok, err := s.Employees.IsManagerOf(ctx, actor.EmployeeID, req.EmployeeID)
	if err != nil {
		return fmt.Errorf("manager lookup: %w", err)
	}
	if !ok {
		return ErrNotEmployeeManager
	}
	return nil
}

func (s *Service) record(ctx context.Context, actor auth.UserContext, action string, req Request, before, after any) {
	if s.Audit == nil {
		return
	}
	if err := s.Audit.Record(ctx, actor.UserID, action, string(req.Type)+"_request", req.ID, before, after); err != nil {
		logger.FromContext(ctx).Warn().Err(err).Str("action", action).Str("requestId", req.ID).Msg("audit record failed")
	}
}

func (s *Service) notify(ctx context.Context, req Request) {
	if s.Notifier != nil {
		s.Notifier.RequestUpdated(ctx, req)
	}
}

// IsValidation reports whether err is a caller mistake rather than a system failure.
func IsValidation(err error) bool {
	return errors.Is(err, ErrStageMismatch) ||
		errors.Is(err, ErrRejectionReasonRequired) ||
		errors.Is(err, ErrInvalidTransition) ||
		errors.Is(err, ErrUnknownDecision) ||
		errors.Is(err, ErrUnknownRequestType) ||
		errors.Is(err, ErrInvalidAmount)
}
