package gosi

import (
	"context"
	"time"

	"hrportal/internal/domain/core"
)

type StoreAPI interface {
	ListPayrollRecords(ctx context.Context, month string) ([]PayrollRecord, error)
	SaveDraft(ctx context.Context, report Report) (string, error)
	GetReport(ctx context.Context, month string) (Report, error)
	ListReports(ctx context.Context) ([]Summary, error)
	MarkSubmitted(ctx context.Context, month string, at time.Time) error
}

type EmployeeSource interface {
	ListEmployees(ctx context.Context) ([]core.Employee, error)
}

type AuditRecorder interface {
	Record(ctx context.Context, actorID, action, entityType, entityID string, before, after any) error
}

type ReportMetrics interface {
	RecordGOSIReport(employees, unmatched int)
}
