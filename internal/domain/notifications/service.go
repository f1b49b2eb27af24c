package notifications

import (
	"context"
	"fmt"
	"strings"

	"hrportal/internal/domain/approval"
	"hrportal/internal/platform/logger"
)

type Service struct {
	store       StoreAPI
	Recipients  Recipients
	Mailer      Mailer
	Jobs        Enqueuer
	DefaultFrom string
}

func New(store StoreAPI, recipients Recipients, mailer Mailer, jobs Enqueuer) *Service {
	return &Service{store: store, Recipients: recipients, Mailer: mailer, Jobs: jobs, DefaultFrom: "no-reply@hrportal.local"}
}

// RequestUpdated tells the requesting employee where their request now stands. Failures
// are logged, never returned, so a decision is not undone by a notification problem.
func (s *Service) RequestUpdated(ctx context.Context, req approval.Request) {
	ntype, title, body := describe(req)
	if ntype == "" {
		return
	}
	log := logger.FromContext(ctx)
	if err := s.store.CreateNotification(ctx, req.EmployeeID, ntype, title, body); err != nil {
		log.Warn().Err(err).Str("requestId", req.ID).Msg("notification create failed")
	}
	s.email(ctx, req.EmployeeID, title, body)
}

func (s *Service) email(ctx context.Context, employeeID, subject, body string) {
	if s.Mailer == nil || s.Recipients == nil {
		return
	}
	log := logger.FromContext(ctx)
	emp, err := s.Recipients.GetEmployee(ctx, employeeID)
	if err != nil {
		log.Warn().Err(err).Str("employeeId", employeeID).Msg("notification recipient lookup failed")
		return
	}
	if strings.TrimSpace(emp.Email) == "" {
		return
	}
	send := func(ctx context.Context) (any, error) {
		return map[string]string{"to": emp.Email}, s.Mailer.Send(ctx, s.DefaultFrom, emp.Email, subject, body)
	}
	if s.Jobs != nil {
		s.Jobs.Enqueue(JobSendEmail, send)
		return
	}
	if _, err := send(ctx); err != nil {
		log.Warn().Err(err).Msg("notification email send failed")
	}
}

func describe(req approval.Request) (ntype, title, body string) {
	kind := string(req.Type)
	switch req.Status {
	case approval.StatusPending:
		return TypeRequestAdvanced,
			fmt.Sprintf("Your %s request moved forward", kind),
			fmt.Sprintf("Your %s request is now awaiting %s approval.", kind, strings.ReplaceAll(string(req.CurrentApproverRole), "_", " "))
	case approval.StatusApproved:
		return TypeRequestApproved,
			fmt.Sprintf("Your %s request was approved", kind),
			fmt.Sprintf("Your %s request has been fully approved.", kind)
	case approval.StatusRejected:
		reason := ""
		for _, rec := range req.Stages {
			if rec.Status == approval.StageRejected {
				reason = rec.Comments
			}
		}
		return TypeRequestRejected,
			fmt.Sprintf("Your %s request was rejected", kind),
			fmt.Sprintf("Your %s request was rejected: %s", kind, reason)
	case approval.StatusCompleted:
		return TypeRequestCompleted,
			fmt.Sprintf("Your %s request is settled", kind),
			fmt.Sprintf("Expenses for your %s request have been settled.", kind)
	case approval.StatusCancelled:
		return TypeRequestCancelled,
			fmt.Sprintf("Your %s request was cancelled", kind),
			fmt.Sprintf("Your %s request has been withdrawn.", kind)
	}
	return "", "", ""
}

func (s *Service) List(ctx context.Context, employeeID string, limit, offset int) ([]Notification, error) {
	return s.store.ListNotifications(ctx, employeeID, limit, offset)
}

func (s *Service) Count(ctx context.Context, employeeID string) (int, error) {
	return s.store.CountNotifications(ctx, employeeID)
}

func (s *Service) MarkRead(ctx context.Context, employeeID, notificationID string) error {
	return s.store.MarkRead(ctx, employeeID, notificationID)
}
