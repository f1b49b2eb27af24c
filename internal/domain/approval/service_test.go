package approval

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"hrportal/internal/domain/auth"
)

type memStore struct {
	mu   sync.Mutex
	seq  int
	rows map[string]Request
}

func newMemStore() *memStore {
	return &memStore{rows: map[string]Request{}}
}

func (m *memStore) Create(_ context.Context, req Request) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	req.ID = fmt.Sprintf("req-%d", m.seq)
	m.rows[req.ID] = req.clone()
	return req.ID, nil
}

func (m *memStore) Get(_ context.Context, id string) (Request, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	req, ok := m.rows[id]
	if !ok {
		return Request{}, ErrRequestNotFound
	}
	return req.clone(), nil
}

func (m *memStore) ListPending(_ context.Context, stages []Role, _ string) ([]Request, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Request
	for _, req := range m.rows {
		for _, s := range stages {
			if req.Status == StatusPending && req.CurrentApproverRole == s {
				out = append(out, req.clone())
			}
		}
	}
	return out, nil
}

func (m *memStore) ListByEmployee(_ context.Context, employeeID string) ([]Request, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Request
	for _, req := range m.rows {
		if req.EmployeeID == employeeID {
			out = append(out, req.clone())
		}
	}
	return out, nil
}

func (m *memStore) Update(_ context.Context, prev, next Request) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.rows[prev.ID]
	if !ok {
		return ErrRequestNotFound
	}
	if cur.Status != prev.Status || cur.CurrentApproverRole != prev.CurrentApproverRole || !cur.UpdatedAt.Equal(prev.UpdatedAt) {
		return ErrStaleRequest
	}
	m.rows[prev.ID] = next.clone()
	return nil
}

type directory map[string]string

func (d directory) IsManagerOf(_ context.Context, managerID, employeeID string) (bool, error) {
	return d[employeeID] == managerID, nil
}

type auditLog struct{ actions []string }

func (a *auditLog) Record(_ context.Context, _, action, _, _ string, _, _ any) error {
	a.actions = append(a.actions, action)
	return nil
}

type decisionCounter struct{ n int }

func (d *decisionCounter) RecordDecision(string, string) { d.n++ }

type fixture struct {
	svc     *Service
	store   *memStore
	audit   *auditLog
	metrics *decisionCounter
	tick    time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{store: newMemStore(), audit: &auditLog{}, metrics: &decisionCounter{}}
	f.tick = time.Date(2025, 5, 1, 8, 0, 0, 0, time.UTC)
	router := NewRouter(DefaultLoanSeniorThreshold, WithClock(func() time.Time {
		f.tick = f.tick.Add(time.Second)
		return f.tick
	}))
	policy, err := DefaultPolicy()
	if err != nil {
		t.Fatalf("policy: %v", err)
	}
	f.svc = NewService(f.store, directory{"emp-1": "mgr-1"}, router, policy, f.audit, f.metrics)
	return f
}

var (
	employee    = auth.UserContext{UserID: "u-emp", EmployeeID: "emp-1", RoleName: auth.RoleEmployee}
	manager     = auth.UserContext{UserID: "u-mgr", EmployeeID: "mgr-1", RoleName: auth.RoleManager}
	otherMgr    = auth.UserContext{UserID: "u-mgr2", EmployeeID: "mgr-2", RoleName: auth.RoleManager}
	admin       = auth.UserContext{UserID: "u-admin", RoleName: auth.RoleAdmin}
	finance     = auth.UserContext{UserID: "u-fin", RoleName: auth.RoleFinance}
	seniorMgmt  = auth.UserContext{UserID: "u-sm", RoleName: auth.RoleSeniorManagement}
	approveOnly = DecisionInput{Decision: DecisionApprove}
)

func TestServiceLoanFlowWithSeniorStage(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	req, err := f.svc.Submit(ctx, employee, SubmitInput{Type: TypeLoan, AmountRequested: decimal.NewFromInt(30000)})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if req.EmployeeID != "emp-1" || req.ID == "" {
		t.Fatalf("unexpected request %+v", req)
	}

	steps := []auth.UserContext{manager, admin, admin}
	for i, actor := range steps {
		req, err = f.svc.Decide(ctx, actor, TypeLoan, req.ID, approveOnly)
		if err != nil {
			t.Fatalf("step %d (%s): %v", i, actor.RoleName, err)
		}
	}
	if req.Status != StatusApproved {
		t.Fatalf("expected approved, got %s at %q", req.Status, req.CurrentApproverRole)
	}
	if f.metrics.n != 3 {
		t.Fatalf("expected 3 recorded decisions, got %d", f.metrics.n)
	}
	want := []string{"approval.submit", "approval.approve", "approval.approve", "approval.approve"}
	if fmt.Sprint(f.audit.actions) != fmt.Sprint(want) {
		t.Fatalf("audit actions = %v", f.audit.actions)
	}
}

func TestServiceSeniorManagementAtSeniorStage(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	req, _ := f.svc.Submit(ctx, employee, SubmitInput{Type: TypeLoan, AmountRequested: decimal.NewFromInt(30000)})
	req, _ = f.svc.Decide(ctx, manager, TypeLoan, req.ID, approveOnly)

	if _, err := f.svc.Decide(ctx, seniorMgmt, TypeLoan, req.ID, approveOnly); !errors.Is(err, ErrActorNotPermitted) {
		t.Fatalf("senior management at hr stage: expected ErrActorNotPermitted, got %v", err)
	}
	req, err := f.svc.Decide(ctx, admin, TypeLoan, req.ID, approveOnly)
	if err != nil {
		t.Fatalf("admin at hr: %v", err)
	}
	req, err = f.svc.Decide(ctx, seniorMgmt, TypeLoan, req.ID, approveOnly)
	if err != nil {
		t.Fatalf("senior management: %v", err)
	}
	if req.Status != StatusApproved {
		t.Fatalf("expected approved, got %s", req.Status)
	}
}

func TestServiceManagerMustManageEmployee(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	req, _ := f.svc.Submit(ctx, employee, SubmitInput{Type: TypeLeave})

	if _, err := f.svc.Decide(ctx, otherMgr, TypeLeave, req.ID, approveOnly); !errors.Is(err, ErrNotEmployeeManager) {
		t.Fatalf("expected ErrNotEmployeeManager, got %v", err)
	}
	got, _ := f.svc.Get(ctx, TypeLeave, req.ID)
	if got.CurrentApproverRole != RoleManager {
		t.Fatalf("request moved: %q", got.CurrentApproverRole)
	}
}

func TestServiceRejectNeedsComments(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	req, _ := f.svc.Submit(ctx, employee, SubmitInput{Type: TypeTravel})

	if _, err := f.svc.Decide(ctx, manager, TypeTravel, req.ID, DecisionInput{Decision: DecisionReject, Comments: " "}); !errors.Is(err, ErrRejectionReasonRequired) {
		t.Fatalf("expected ErrRejectionReasonRequired, got %v", err)
	}
	out, err := f.svc.Decide(ctx, manager, TypeTravel, req.ID, DecisionInput{Decision: DecisionReject, Comments: "budget freeze"})
	if err != nil {
		t.Fatalf("reject: %v", err)
	}
	if out.Status != StatusRejected {
		t.Fatalf("expected rejected, got %s", out.Status)
	}
}

func TestServiceStaleUpdateDetected(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	req, _ := f.svc.Submit(ctx, employee, SubmitInput{Type: TypeLeave})

	stale := req.clone()
	next, err := f.svc.Router.Advance(stale, DecisionApprove, RoleManager, "")
	if err != nil {
		t.Fatalf("advance: %v", err)
	}
	if _, err := f.svc.Decide(ctx, manager, TypeLeave, req.ID, approveOnly); err != nil {
		t.Fatalf("decide: %v", err)
	}
	if err := f.store.Update(ctx, stale, next); !errors.Is(err, ErrStaleRequest) {
		t.Fatalf("expected ErrStaleRequest, got %v", err)
	}
}

func TestServiceTypeMismatchIsNotFound(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	req, _ := f.svc.Submit(ctx, employee, SubmitInput{Type: TypeLeave})
	if _, err := f.svc.Get(ctx, TypeTravel, req.ID); !errors.Is(err, ErrRequestNotFound) {
		t.Fatalf("expected ErrRequestNotFound, got %v", err)
	}
}

func TestServiceListPending(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	leave, _ := f.svc.Submit(ctx, employee, SubmitInput{Type: TypeLeave})
	travel, _ := f.svc.Submit(ctx, employee, SubmitInput{Type: TypeTravel})
	if _, err := f.svc.Decide(ctx, manager, TypeLeave, leave.ID, approveOnly); err != nil {
		t.Fatalf("decide leave: %v", err)
	}
	if _, err := f.svc.Decide(ctx, manager, TypeTravel, travel.ID, approveOnly); err != nil {
		t.Fatalf("decide travel: %v", err)
	}

	adminList, err := f.svc.ListPending(ctx, admin)
	if err != nil {
		t.Fatalf("admin list: %v", err)
	}
	if len(adminList) != 1 || adminList[0].ID != leave.ID {
		t.Fatalf("admin should see only the leave at hr, got %+v", adminList)
	}
	financeList, _ := f.svc.ListPending(ctx, finance)
	if len(financeList) != 1 || financeList[0].ID != travel.ID {
		t.Fatalf("finance should see only the travel, got %+v", financeList)
	}
	employeeList, _ := f.svc.ListPending(ctx, employee)
	if len(employeeList) != 0 {
		t.Fatalf("employee sees nothing, got %+v", employeeList)
	}
}

func TestServiceCancelAndComplete(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	leave, _ := f.svc.Submit(ctx, employee, SubmitInput{Type: TypeLeave})
	if _, err := f.svc.Cancel(ctx, manager, TypeLeave, leave.ID); !errors.Is(err, ErrNotRequestOwner) {
		t.Fatalf("expected ErrNotRequestOwner, got %v", err)
	}
	cancelled, err := f.svc.Cancel(ctx, employee, TypeLeave, leave.ID)
	if err != nil || cancelled.Status != StatusCancelled {
		t.Fatalf("cancel: %+v, %v", cancelled, err)
	}

	travel, _ := f.svc.Submit(ctx, employee, SubmitInput{Type: TypeTravel})
	travel, _ = f.svc.Decide(ctx, manager, TypeTravel, travel.ID, approveOnly)
	travel, err = f.svc.Decide(ctx, finance, TypeTravel, travel.ID, approveOnly)
	if err != nil {
		t.Fatalf("finance approve: %v", err)
	}
	if _, err := f.svc.Complete(ctx, employee, TypeTravel, travel.ID); !errors.Is(err, ErrActorNotPermitted) {
		t.Fatalf("expected ErrActorNotPermitted, got %v", err)
	}
	done, err := f.svc.Complete(ctx, finance, TypeTravel, travel.ID)
	if err != nil || done.Status != StatusCompleted {
		t.Fatalf("complete: %+v, %v", done, err)
	}
}

func TestServiceSubmitNeedsEmployee(t *testing.T) {
	f := newFixture(t)
	if _, err := f.svc.Submit(context.Background(), admin, SubmitInput{Type: TypeLeave}); !errors.Is(err, ErrNotRequestOwner) {
		t.Fatalf("expected ErrNotRequestOwner, got %v", err)
	}
}

func TestIsValidation(t *testing.T) {
	if !IsValidation(fmt.Errorf("wrap: %w", ErrStageMismatch)) {
		t.Fatal("stage mismatch is a validation error")
	}
	if IsValidation(errors.New("db down")) {
		t.Fatal("plain errors are not validation errors")
	}
}

type notifierLog struct{ statuses []Status }

func (n *notifierLog) RequestUpdated(_ context.Context, req Request) {
	n.statuses = append(n.statuses, req.Status)
}

func TestServiceNotifiesAfterStoredDecision(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	notes := &notifierLog{}
	f.svc.Notifier = notes

	req, err := f.svc.Submit(ctx, employee, SubmitInput{Type: TypeTravel})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if _, err := f.svc.Decide(ctx, otherMgr, TypeTravel, req.ID, approveOnly); err == nil {
		t.Fatal("expected foreign manager to fail")
	}
	if len(notes.statuses) != 0 {
		t.Fatalf("failed decisions must not notify, got %v", notes.statuses)
	}
	if _, err := f.svc.Decide(ctx, manager, TypeTravel, req.ID, approveOnly); err != nil {
		t.Fatalf("manager: %v", err)
	}
	if _, err := f.svc.Decide(ctx, finance, TypeTravel, req.ID, approveOnly); err != nil {
		t.Fatalf("finance: %v", err)
	}
	if _, err := f.svc.Complete(ctx, finance, TypeTravel, req.ID); err != nil {
		t.Fatalf("complete: %v", err)
	}
	want := []Status{StatusPending, StatusApproved, StatusCompleted}
	if fmt.Sprint(notes.statuses) != fmt.Sprint(want) {
		t.Fatalf("expected %v, got %v", want, notes.statuses)
	}
}

func TestServiceCanViewScopesManagers(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	req, err := f.svc.Submit(ctx, employee, SubmitInput{Type: TypeLoan, AmountRequested: decimal.NewFromInt(5000)})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	stranger := auth.UserContext{UserID: "u-x", EmployeeID: "emp-9", RoleName: auth.RoleEmployee}
	cases := []struct {
		actor auth.UserContext
		want  bool
	}{
		{employee, true},
		{manager, true},
		{otherMgr, false},
		{admin, true},
		{seniorMgmt, false},
		{stranger, false},
	}
	for _, tc := range cases {
		got, err := f.svc.CanView(ctx, tc.actor, req)
		if err != nil {
			t.Fatalf("%s: %v", tc.actor.UserID, err)
		}
		if got != tc.want {
			t.Fatalf("%s: expected %v, got %v", tc.actor.UserID, tc.want, got)
		}
	}
}
