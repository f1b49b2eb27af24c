package approval

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"hrportal/internal/platform/querier"
)

type Store struct {
	DB querier.Querier
}

func NewStore(db querier.Querier) *Store {
	return &Store{DB: db}
}

const selectRequestColumns = `
    SELECT id, request_type, employee_id, status,
           COALESCE(current_approver_role, ''),
           amount_requested::text, requires_senior_approval,
           stages, details, created_at, updated_at
    FROM approval_requests
`

func (s *Store) Create(ctx context.Context, req Request) (string, error) {
	stages, err := json.Marshal(req.Stages)
	if err != nil {
		return "", err
	}
	var id string
	if err := s.DB.QueryRow(ctx, `
    INSERT INTO approval_requests (request_type, employee_id, status, current_approver_role, amount_requested,
                                   requires_senior_approval, stages, details, created_at, updated_at)
    VALUES ($1,$2,$3,$4,$5::numeric,$6,$7,$8,$9,$10)
    RETURNING id
  `, req.Type, req.EmployeeID, req.Status, nullRole(req.CurrentApproverRole), req.AmountRequested.String(),
		req.RequiresSeniorApproval, stages, nullJSON(req.Details), req.CreatedAt, req.UpdatedAt).Scan(&id); err != nil {
		return "", fmt.Errorf("insert approval request: %w", err)
	}
	return id, nil
}

// Get treats an id that is not a UUID as unknown rather than letting Postgres reject it.
func (s *Store) Get(ctx context.Context, id string) (Request, error) {
	if _, err := uuid.Parse(id); err != nil {
		return Request{}, ErrRequestNotFound
	}
	req, err := scanRequest(s.DB.QueryRow(ctx, selectRequestColumns+" WHERE id = $1", id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Request{}, ErrRequestNotFound
	}
	return req, err
}

func (s *Store) ListPending(ctx context.Context, stages []Role, managerEmployeeID string) ([]Request, error) {
	if len(stages) == 0 {
		return nil, nil
	}
	names := make([]string, 0, len(stages))
	for _, stage := range stages {
		names = append(names, string(stage))
	}
	query := selectRequestColumns + " WHERE status = $1 AND current_approver_role = ANY($2)"
	args := []any{StatusPending, names}
	if managerEmployeeID != "" {
		query += " AND employee_id IN (SELECT id FROM employees WHERE manager_id = $3)"
		args = append(args, managerEmployeeID)
	}
	query += " ORDER BY created_at"
	return s.list(ctx, query, args...)
}

func (s *Store) ListByEmployee(ctx context.Context, employeeID string) ([]Request, error) {
	return s.list(ctx, selectRequestColumns+" WHERE employee_id = $1 ORDER BY created_at DESC", employeeID)
}

// Update writes next only if the stored row still matches prev.
func (s *Store) Update(ctx context.Context, prev, next Request) error {
	if _, err := uuid.Parse(prev.ID); err != nil {
		return ErrRequestNotFound
	}
	stages, err := json.Marshal(next.Stages)
	if err != nil {
		return err
	}
	tag, err := s.DB.Exec(ctx, `
    UPDATE approval_requests
    SET status = $1, current_approver_role = $2, stages = $3, updated_at = $4
    WHERE id = $5 AND status = $6 AND COALESCE(current_approver_role, '') = $7 AND updated_at = $8
  `, next.Status, nullRole(next.CurrentApproverRole), stages, next.UpdatedAt,
		prev.ID, prev.Status, string(prev.CurrentApproverRole), prev.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update approval request: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrStaleRequest
	}
	return nil
}

func (s *Store) list(ctx context.Context, query string, args ...any) ([]Request, error) {
	rows, err := s.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Request
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, req)
	}
	return out, rows.Err()
}

func scanRequest(row pgx.Row) (Request, error) {
	var req Request
	var amount string
	var stages, details []byte
	var createdAt, updatedAt time.Time
	if err := row.Scan(&req.ID, &req.Type, &req.EmployeeID, &req.Status, &req.CurrentApproverRole,
		&amount, &req.RequiresSeniorApproval, &stages, &details, &createdAt, &updatedAt); err != nil {
		return Request{}, err
	}
	parsed, err := decimal.NewFromString(amount)
	if err != nil {
		return Request{}, fmt.Errorf("amount_requested: %w", err)
	}
	req.AmountRequested = parsed
	if len(stages) > 0 {
		if err := json.Unmarshal(stages, &req.Stages); err != nil {
			return Request{}, fmt.Errorf("stages: %w", err)
		}
	}
	if len(details) > 0 {
		req.Details = json.RawMessage(details)
	}
	req.CreatedAt = createdAt
	req.UpdatedAt = updatedAt
	return req, nil
}

func nullRole(role Role) any {
	if role == "" {
		return nil
	}
	return string(role)
}

func nullJSON(raw json.RawMessage) any {
	if len(raw) == 0 {
		return nil
	}
	return []byte(raw)
}
