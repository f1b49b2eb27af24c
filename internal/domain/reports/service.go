package reports

import (
	"context"

	"hrportal/internal/domain/approval"
	"hrportal/internal/domain/auth"
)

type StoreAPI interface {
	PendingByStage(ctx context.Context, managerEmployeeID string) (map[string]int, error)
	RequestsByStatus(ctx context.Context, employeeID string) (map[string]int, error)
	UnreadNotifications(ctx context.Context, employeeID string) (int, error)
	LatestGOSIReport(ctx context.Context) (*GOSISummary, error)
	ListJobRuns(ctx context.Context, filter JobRunFilter, limit, offset int) ([]JobRun, error)
	CountJobRuns(ctx context.Context, filter JobRunFilter) (int, error)
	JobRunByID(ctx context.Context, runID string) (JobRun, error)
}

// Dashboard is the landing summary for a signed-in principal. Sections the viewer
// has no business seeing are left empty.
type Dashboard struct {
	Role                string         `json:"role"`
	MyRequests          map[string]int `json:"myRequests"`
	UnreadNotifications int            `json:"unreadNotifications"`
	AwaitingMe          map[string]int `json:"awaitingMe"`
	LatestGOSI          *GOSISummary   `json:"latestGosi,omitempty"`
}

type Service struct {
	Store  StoreAPI
	Policy *approval.Policy
}

func NewService(store StoreAPI, policy *approval.Policy) *Service {
	return &Service{Store: store, Policy: policy}
}

func (s *Service) Dashboard(ctx context.Context, viewer auth.UserContext) (Dashboard, error) {
	out := Dashboard{Role: viewer.RoleName, MyRequests: map[string]int{}, AwaitingMe: map[string]int{}}

	if viewer.EmployeeID != "" {
		mine, err := s.Store.RequestsByStatus(ctx, viewer.EmployeeID)
		if err != nil {
			return Dashboard{}, err
		}
		out.MyRequests = mine
		unread, err := s.Store.UnreadNotifications(ctx, viewer.EmployeeID)
		if err != nil {
			return Dashboard{}, err
		}
		out.UnreadNotifications = unread
	}

	awaiting, err := s.awaiting(ctx, viewer)
	if err != nil {
		return Dashboard{}, err
	}
	out.AwaitingMe = awaiting

	if viewer.RoleName == auth.RoleAdmin || viewer.RoleName == auth.RoleFinance {
		latest, err := s.Store.LatestGOSIReport(ctx)
		if err != nil {
			return Dashboard{}, err
		}
		out.LatestGOSI = latest
	}
	return out, nil
}

// awaiting keeps only the stages the viewer may act at. Managers count their direct reports only.
func (s *Service) awaiting(ctx context.Context, viewer auth.UserContext) (map[string]int, error) {
	out := map[string]int{}
	if s.Policy == nil {
		return out, nil
	}
	managerScope := ""
	if viewer.RoleName == auth.RoleManager {
		if viewer.EmployeeID == "" {
			return out, nil
		}
		managerScope = viewer.EmployeeID
	}
	counts, err := s.Store.PendingByStage(ctx, managerScope)
	if err != nil {
		return nil, err
	}
	for stage, count := range counts {
		if s.Policy.CanAct(viewer.RoleName, approval.Role(stage)) {
			out[stage] = count
		}
	}
	return out, nil
}

func (s *Service) JobRuns(ctx context.Context, filter JobRunFilter, limit, offset int) ([]JobRun, int, error) {
	runs, err := s.Store.ListJobRuns(ctx, filter, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.Store.CountJobRuns(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	return runs, total, nil
}

func (s *Service) JobRun(ctx context.Context, runID string) (JobRun, error) {
	return s.Store.JobRunByID(ctx, runID)
}
