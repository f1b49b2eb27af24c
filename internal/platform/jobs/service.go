package jobs

import (
	"context"
	"encoding/json"
	"time"

	"hrportal/internal/platform/logger"
	"hrportal/internal/platform/querier"
	"hrportal/internal/requestctx"
)

const JobGOSIRefresh = "gosi_draft_refresh"

type RunFunc func(context.Context) (any, error)

// Service is a single-worker background queue that records each run in job_runs.
type Service struct {
	DB    querier.Querier
	queue chan job
}

type job struct {
	Type string
	Run  RunFunc
}

func New(db querier.Querier) *Service {
	return &Service{DB: db, queue: make(chan job, 128)}
}

func (s *Service) Start(ctx context.Context) {
	go s.worker(ctx)
}

// Enqueue drops the job with a warning when the queue is full.
func (s *Service) Enqueue(jobType string, run func(context.Context) (any, error)) {
	select {
	case s.queue <- job{Type: jobType, Run: run}:
	default:
		logger.Global().Warn().Str("jobType", jobType).Msg("job queue full")
	}
}

func (s *Service) RunNow(ctx context.Context, jobType string, run RunFunc) (any, error) {
	return s.runJob(ctx, job{Type: jobType, Run: run})
}

// Every enqueues run each interval until ctx is done.
func (s *Service) Every(ctx context.Context, interval time.Duration, jobType string, run RunFunc) {
	if interval <= 0 {
		return
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.Enqueue(jobType, run)
			}
		}
	}()
}

func (s *Service) worker(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case j := <-s.queue:
			if _, err := s.runJob(ctx, j); err != nil {
				logger.Global().Warn().Err(err).Str("jobType", j.Type).Msg("job run failed")
			}
		}
	}
}

func (s *Service) runJob(ctx context.Context, j job) (any, error) {
	log := logger.Global()
	runID := ""
	if s.DB != nil {
		if err := s.DB.QueryRow(ctx, `
      INSERT INTO job_runs (job_type, status)
      VALUES ($1,$2)
      RETURNING id
    `, j.Type, "running").Scan(&runID); err != nil {
			log.Warn().Err(err).Msg("job run insert failed")
		}
	}

	details, err := j.Run(requestctx.ForJob(ctx, j.Type, runID))
	status := "completed"
	if err != nil {
		status = "failed"
		details = map[string]any{"error": err.Error(), "details": details}
	}
	detailsJSON, marshalErr := json.Marshal(details)
	if marshalErr != nil {
		log.Warn().Err(marshalErr).Msg("job details marshal failed")
		detailsJSON = []byte("{}")
	}
	if runID != "" {
		if _, updErr := s.DB.Exec(ctx, `
      UPDATE job_runs
      SET status = $1, details_json = $2, completed_at = now()
      WHERE id = $3
    `, status, detailsJSON, runID); updErr != nil {
			log.Warn().Err(updErr).Msg("job run update failed")
		}
	}
	return details, err
}
