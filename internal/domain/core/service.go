package core

import (
	"context"

	"hrportal/internal/domain/auth"
)

// EmployeeStore is the read side of Store the service needs.
type EmployeeStore interface {
	GetEmployee(ctx context.Context, employeeID string) (Employee, error)
	GetEmployeeByUserID(ctx context.Context, userID string) (Employee, error)
	ListEmployees(ctx context.Context) ([]Employee, error)
	IsManagerOf(ctx context.Context, managerEmployeeID, employeeID string) (bool, error)
}

type Service struct {
	store EmployeeStore
}

func NewService(store EmployeeStore) *Service {
	return &Service{store: store}
}

func (s *Service) ListEmployees(ctx context.Context) ([]Employee, error) {
	return s.store.ListEmployees(ctx)
}

func (s *Service) IsManagerOf(ctx context.Context, managerEmployeeID, employeeID string) (bool, error) {
	return s.store.IsManagerOf(ctx, managerEmployeeID, employeeID)
}

func canSeePay(viewer auth.UserContext) bool {
	return viewer.RoleName == auth.RoleAdmin || viewer.RoleName == auth.RoleFinance
}

// GetForViewer loads an employee and strips salary data unless the viewer is finance,
// admin or the employee themself.
func (s *Service) GetForViewer(ctx context.Context, viewer auth.UserContext, employeeID string) (Employee, error) {
	emp, err := s.store.GetEmployee(ctx, employeeID)
	if err != nil {
		return Employee{}, err
	}
	if !canSeePay(viewer) && emp.ID != viewer.EmployeeID {
		emp.Redact()
	}
	return emp, nil
}

// ListForViewer returns the directory visible to viewer. Managers only see their direct reports.
func (s *Service) ListForViewer(ctx context.Context, viewer auth.UserContext) ([]Employee, error) {
	all, err := s.store.ListEmployees(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]Employee, 0, len(all))
	for _, emp := range all {
		switch {
		case canSeePay(viewer):
		case viewer.RoleName == auth.RoleManager && viewer.EmployeeID != "" && emp.ManagerID == viewer.EmployeeID:
			emp.Redact()
		case viewer.RoleName == auth.RoleSeniorManagement:
			emp.Redact()
		default:
			continue
		}
		out = append(out, emp)
	}
	return out, nil
}

func (s *Service) Me(ctx context.Context, viewer auth.UserContext) (Employee, error) {
	return s.store.GetEmployeeByUserID(ctx, viewer.UserID)
}
