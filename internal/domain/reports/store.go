package reports

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"hrportal/internal/platform/querier"
)

var ErrJobRunNotFound = errors.New("job run not found")

type Store struct {
	DB querier.Querier
}

func NewStore(db querier.Querier) *Store {
	return &Store{DB: db}
}

// PendingByStage counts pending requests per approver stage, optionally limited to one manager's reports.
func (s *Store) PendingByStage(ctx context.Context, managerEmployeeID string) (map[string]int, error) {
	query := "SELECT current_approver_role, COUNT(1) FROM approval_requests WHERE status = 'pending'"
	args := []any{}
	if managerEmployeeID != "" {
		query += " AND employee_id IN (SELECT id FROM employees WHERE manager_id = $1)"
		args = append(args, managerEmployeeID)
	}
	query += " GROUP BY current_approver_role"
	return s.countBy(ctx, query, args...)
}

func (s *Store) RequestsByStatus(ctx context.Context, employeeID string) (map[string]int, error) {
	return s.countBy(ctx, "SELECT status, COUNT(1) FROM approval_requests WHERE employee_id = $1 GROUP BY status", employeeID)
}

func (s *Store) UnreadNotifications(ctx context.Context, employeeID string) (int, error) {
	var unread int
	if err := s.DB.QueryRow(ctx, "SELECT COUNT(1) FROM notifications WHERE employee_id = $1 AND read_at IS NULL", employeeID).Scan(&unread); err != nil {
		return 0, err
	}
	return unread, nil
}

// LatestGOSIReport returns nil when no report has been generated yet.
func (s *Store) LatestGOSIReport(ctx context.Context) (*GOSISummary, error) {
	var summary GOSISummary
	err := s.DB.QueryRow(ctx, "SELECT month, status, total_contribution FROM gosi_reports ORDER BY month DESC LIMIT 1").
		Scan(&summary.Month, &summary.Status, &summary.TotalContribution)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &summary, nil
}

func (s *Store) countBy(ctx context.Context, query string, args ...any) (map[string]int, error) {
	rows, err := s.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := map[string]int{}
	for rows.Next() {
		var key *string
		var count int
		if err := rows.Scan(&key, &count); err != nil {
			return nil, err
		}
		if key != nil {
			counts[*key] = count
		}
	}
	return counts, rows.Err()
}

type JobRunFilter struct {
	JobType     string
	Status      string
	StartedFrom *time.Time
	StartedTo   *time.Time
}

func (s *Store) ListJobRuns(ctx context.Context, filter JobRunFilter, limit, offset int) ([]JobRun, error) {
	query, args := buildJobRunsBaseQuery(filter)
	query += " ORDER BY started_at DESC LIMIT $" + strconv.Itoa(len(args)+1) + " OFFSET $" + strconv.Itoa(len(args)+2)
	args = append(args, limit, offset)

	rows, err := s.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	runs := []JobRun{}
	for rows.Next() {
		var run JobRun
		var detailsRaw []byte
		if err := rows.Scan(&run.ID, &run.JobType, &run.Status, &detailsRaw, &run.StartedAt, &run.CompletedAt); err != nil {
			return nil, err
		}
		run.Details = decodeDetails(detailsRaw)
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

func (s *Store) CountJobRuns(ctx context.Context, filter JobRunFilter) (int, error) {
	query, args := buildJobRunsBaseQuery(filter)
	var total int
	if err := s.DB.QueryRow(ctx, "SELECT COUNT(1) FROM ("+query+") job_runs", args...).Scan(&total); err != nil {
		return 0, err
	}
	return total, nil
}

func (s *Store) JobRunByID(ctx context.Context, runID string) (JobRun, error) {
	if _, err := uuid.Parse(runID); err != nil {
		return JobRun{}, ErrJobRunNotFound
	}
	var run JobRun
	var detailsRaw []byte
	err := s.DB.QueryRow(ctx, `
    SELECT id, job_type, status, COALESCE(details_json, '{}'::jsonb), started_at, completed_at
    FROM job_runs
    WHERE id = $1
  `, runID).Scan(&run.ID, &run.JobType, &run.Status, &detailsRaw, &run.StartedAt, &run.CompletedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return JobRun{}, ErrJobRunNotFound
	}
	if err != nil {
		return JobRun{}, err
	}
	run.Details = decodeDetails(detailsRaw)
	return run, nil
}

func buildJobRunsBaseQuery(filter JobRunFilter) (string, []any) {
	query := `
    SELECT id, job_type, status, COALESCE(details_json, '{}'::jsonb), started_at, completed_at
    FROM job_runs
    WHERE 1 = 1
  `
	args := []any{}

	if value := strings.TrimSpace(filter.JobType); value != "" {
		query += " AND job_type = $" + strconv.Itoa(len(args)+1)
		args = append(args, value)
	}
	if value := strings.TrimSpace(filter.Status); value != "" {
		query += " AND status = $" + strconv.Itoa(len(args)+1)
		args = append(args, value)
	}
	if filter.StartedFrom != nil && !filter.StartedFrom.IsZero() {
		query += " AND started_at >= $" + strconv.Itoa(len(args)+1)
		args = append(args, *filter.StartedFrom)
	}
	if filter.StartedTo != nil && !filter.StartedTo.IsZero() {
		query += " AND started_at <= $" + strconv.Itoa(len(args)+1)
		args = append(args, *filter.StartedTo)
	}

	return query, args
}

func decodeDetails(raw []byte) map[string]any {
	if len(raw) == 0 {
		return map[string]any{}
	}
	details := map[string]any{}
	if err := json.Unmarshal(raw, &details); err != nil {
		return map[string]any{
			"raw": string(raw),
		}
	}
	return details
}

// GOSISummary is the headline of the most recent contribution report.
type GOSISummary struct {
	Month             string          `json:"month"`
	Status            string          `json:"status"`
	TotalContribution decimal.Decimal `json:"totalContribution"`
}

type JobRun struct {
	ID          string         `json:"id"`
	JobType     string         `json:"jobType"`
	Status      string         `json:"status"`
	Details     map[string]any `json:"details"`
	StartedAt   time.Time      `json:"startedAt"`
	CompletedAt *time.Time     `json:"completedAt"`
}
