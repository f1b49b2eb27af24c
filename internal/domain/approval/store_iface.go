package approval

import "context"

type StoreAPI interface {
	Create(ctx context.Context, req Request) (string, error)
	Get(ctx context.Context, id string) (Request, error)
	ListPending(ctx context.Context, stages []Role, managerEmployeeID string) ([]Request, error)
	ListByEmployee(ctx context.Context, employeeID string) ([]Request, error)
	Update(ctx context.Context, prev, next Request) error
}

// EmployeeDirectory answers reporting-line questions for manager-stage decisions.
type EmployeeDirectory interface {
	IsManagerOf(ctx context.Context, managerEmployeeID, employeeID string) (bool, error)
}

type AuditRecorder interface {
	Record(ctx context.Context, actorID, action, entityType, entityID string, before, after any) error
}

type DecisionMetrics interface {
	RecordDecision(requestType, decision string)
}

// Notifier is told about every decision or settlement after it has been stored.
type Notifier interface {
	RequestUpdated(ctx context.Context, req Request)
}
