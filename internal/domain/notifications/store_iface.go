package notifications

import (
	"context"

	"hrportal/internal/domain/core"
)

type StoreAPI interface {
	CreateNotification(ctx context.Context, employeeID, ntype, title, body string) error
	ListNotifications(ctx context.Context, employeeID string, limit, offset int) ([]Notification, error)
	CountNotifications(ctx context.Context, employeeID string) (int, error)
	MarkRead(ctx context.Context, employeeID, notificationID string) error
}

// Recipients resolves the employee a notification is addressed to.
type Recipients interface {
	GetEmployee(ctx context.Context, employeeID string) (core.Employee, error)
}

type Mailer interface {
	Send(ctx context.Context, from, to, subject, body string) error
}

// Enqueuer runs work off the request path.
type Enqueuer interface {
	Enqueue(jobType string, run func(context.Context) (any, error))
}
