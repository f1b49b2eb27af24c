package gosi

import (
	"context"
	"errors"
	"fmt"
	"time"

	"hrportal/internal/domain/auth"
	"hrportal/internal/platform/logger"
)

type Service struct {
	Store     StoreAPI
	Employees EmployeeSource
	Audit     AuditRecorder
	Metrics   ReportMetrics
	Now       func() time.Time
}

func NewService(store StoreAPI, employees EmployeeSource, audit AuditRecorder, metrics ReportMetrics) *Service {
	return &Service{Store: store, Employees: employees, Audit: audit, Metrics: metrics, Now: time.Now}
}

func (s *Service) now() time.Time {
	if s.Now == nil {
		return time.Now().UTC()
	}
	return s.Now().UTC()
}

// Generate computes the month's report from current payroll data and stores it as a draft.
func (s *Service) Generate(ctx context.Context, actor auth.UserContext, month string) (Report, error) {
	if err := ValidateMonth(month); err != nil {
		return Report{}, err
	}
	employees, err := s.Employees.ListEmployees(ctx)
	if err != nil {
		return Report{}, fmt.Errorf("list employees: %w", err)
	}
	payrolls, err := s.Store.ListPayrollRecords(ctx, month)
	if err != nil {
		return Report{}, fmt.Errorf("list payroll records: %w", err)
	}

	report, err := ComputeReport(employees, payrolls, month)
	if err != nil {
		return Report{}, err
	}
	report.GeneratedAt = s.now()
	if report.UnmatchedPayrollRecords > 0 {
		logger.FromContext(ctx).Warn().
			Str("month", month).
			Int("unmatched", report.UnmatchedPayrollRecords).
			Msg("payroll records reference unknown employees")
	}

	id, err := s.Store.SaveDraft(ctx, report)
	if err != nil {
		return Report{}, err
	}
	report.ID = id
	if s.Metrics != nil {
		s.Metrics.RecordGOSIReport(len(report.EmployeeDetails), report.UnmatchedPayrollRecords)
	}
	s.record(ctx, actor, "gosi.generate", report)
	return report, nil
}

// SystemActor is recorded in the audit trail for scheduled regenerations.
var SystemActor = auth.UserContext{UserID: "system", RoleName: auth.RoleAdmin}

// RefreshDraft regenerates the draft for month. A month that is already submitted or has
// no payroll yet is skipped, not failed.
func (s *Service) RefreshDraft(ctx context.Context, month string) (map[string]any, error) {
	report, err := s.Generate(ctx, SystemActor, month)
	switch {
	case errors.Is(err, ErrReportSubmitted):
		return map[string]any{"month": month, "skipped": "submitted"}, nil
	case errors.Is(err, ErrNoPayrollData):
		return map[string]any{"month": month, "skipped": "no payroll data"}, nil
	case err != nil:
		return nil, err
	}
	return map[string]any{
		"month":             month,
		"employees":         len(report.EmployeeDetails),
		"totalContribution": report.TotalContribution.StringFixed(2),
	}, nil
}

// CurrentMonth is the payroll month the service clock is in.
func (s *Service) CurrentMonth() string {
	return s.now().Format(MonthLayout)
}

func (s *Service) Get(ctx context.Context, month string) (Report, error) {
	if err := ValidateMonth(month); err != nil {
		return Report{}, err
	}
	return s.Store.GetReport(ctx, month)
}

func (s *Service) List(ctx context.Context) ([]Summary, error) {
	out, err := s.Store.ListReports(ctx)
	if err != nil {
		return nil, err
	}
	if out == nil {
		out = []Summary{}
	}
	return out, nil
}

// Submit freezes a draft report. Submitted reports can no longer be regenerated.
func (s *Service) Submit(ctx context.Context, actor auth.UserContext, month string) (Report, error) {
	if err := ValidateMonth(month); err != nil {
		return Report{}, err
	}
	if err := s.Store.MarkSubmitted(ctx, month, s.now()); err != nil {
		return Report{}, err
	}
	report, err := s.Store.GetReport(ctx, month)
	if err != nil {
		return Report{}, err
	}
	s.record(ctx, actor, "gosi.submit", report)
	return report, nil
}

func (s *Service) record(ctx context.Context, actor auth.UserContext, action string, report Report) {
	if s.Audit == nil {
		return
	}
	summary := map[string]any{
		"month":             report.Month,
		"status":            report.Status,
		"totalContribution": report.TotalContribution,
		"employees":         len(report.EmployeeDetails),
	}
	if err := s.Audit.Record(ctx, actor.UserID, action, "gosi_report", report.ID, nil, summary); err != nil {
		logger.FromContext(ctx).Warn().Err(err).Str("action", action).Str("month", report.Month).Msg("audit record failed")
	}
}
