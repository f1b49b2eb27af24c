package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"hrportal/internal/domain/approval"
	"hrportal/internal/domain/audit"
	"hrportal/internal/domain/core"
	"hrportal/internal/domain/gosi"
	"hrportal/internal/domain/notifications"
	"hrportal/internal/domain/reports"
	"hrportal/internal/platform/config"
	cryptoutil "hrportal/internal/platform/crypto"
	"hrportal/internal/platform/db"
	"hrportal/internal/platform/email"
	"hrportal/internal/platform/jobs"
	"hrportal/internal/platform/logger"
	"hrportal/internal/platform/metrics"
	"hrportal/internal/transport/http/api"
	approvalshandler "hrportal/internal/transport/http/handlers/approvals"
	audithandler "hrportal/internal/transport/http/handlers/audit"
	corehandler "hrportal/internal/transport/http/handlers/core"
	gosihandler "hrportal/internal/transport/http/handlers/gosi"
	notificationshandler "hrportal/internal/transport/http/handlers/notifications"
	reportshandler "hrportal/internal/transport/http/handlers/reports"
	"hrportal/internal/transport/http/middleware"
)

// Deps is everything the HTTP layer needs. Ready reports whether backing services are reachable.
type Deps struct {
	Config      config.Config
	Employees   *core.Service
	GOSI        *gosi.Service
	Approvals   *approval.Service
	Audit       audithandler.Reader
	Notices     *notifications.Service
	Reports     *reports.Service
	Idempotency middleware.Idempotency
	Metrics     *metrics.Collector
	Ready       func(ctx context.Context) error
}

func Run() error {
	if err := config.LoadDotEnv(); err != nil {
		return err
	}
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	logger.Init(os.Stdout, cfg.LogLevel)
	log := logger.Global()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := db.Connect(ctx, cfg)
	if err != nil {
		return fmt.Errorf("db connect: %w", err)
	}
	defer pool.Close()

	if cfg.RunMigrations {
		applied, err := db.Migrate(ctx, pool, cfg.MigrationsDir)
		if err != nil {
			return fmt.Errorf("migrations: %w", err)
		}
		log.Info().Strs("applied", applied).Msg("migrations complete")
	}

	deps, err := buildDeps(ctx, cfg, pool)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           NewRouter(deps),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", cfg.Addr).Str("env", cfg.Environment).Msg("hrportal listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func buildDeps(ctx context.Context, cfg config.Config, pool *pgxpool.Pool) (Deps, error) {
	crypto, err := cryptoutil.New(cfg.DataEncryptionKey)
	if err != nil {
		return Deps{}, fmt.Errorf("crypto: %w", err)
	}
	employeeStore := core.NewStore(pool, crypto)
	payrollStore := gosi.NewStore(pool, crypto)
	if cfg.RunSeed {
		if err := db.Seed(ctx, pool, employeeStore, payrollStore, time.Now()); err != nil {
			return Deps{}, fmt.Errorf("seed: %w", err)
		}
	}

	policy, err := approval.LoadPolicy(cfg.ApprovalPolicyFile)
	if err != nil {
		return Deps{}, err
	}
	collector := metrics.New()
	auditSvc := audit.New(pool)
	employees := core.NewService(employeeStore)
	runner := jobs.New(pool)
	runner.Start(ctx)

	notices := notifications.New(notifications.NewStore(pool), employeeStore, email.New(cfg), runner)
	notices.DefaultFrom = cfg.EmailFrom

	approvals := approval.NewService(approval.NewStore(pool), employees, approval.NewRouter(cfg.LoanSeniorThreshold), policy, auditSvc, collector)
	approvals.Notifier = notices

	contributions := gosi.NewService(payrollStore, employees, auditSvc, collector)
	runner.Every(ctx, cfg.GOSIRefreshInterval, jobs.JobGOSIRefresh, func(ctx context.Context) (any, error) {
		return contributions.RefreshDraft(ctx, contributions.CurrentMonth())
	})

	return Deps{
		Config:      cfg,
		Employees:   employees,
		GOSI:        contributions,
		Approvals:   approvals,
		Audit:       auditSvc,
		Notices:     notices,
		Reports:     reports.NewService(reports.NewStore(pool), policy),
		Idempotency: middleware.NewIdempotencyStore(pool),
		Metrics:     collector,
		Ready:       pool.Ping,
	}, nil
}

func NewRouter(deps Deps) http.Handler {
	cfg := deps.Config
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	if deps.Metrics != nil {
		router.Use(middleware.Logger(deps.Metrics))
	} else {
		router.Use(middleware.Logger(nil))
	}
	router.Use(middleware.Recoverer)
	router.Use(middleware.SecureHeaders(cfg.Environment == "production"))
	router.Use(middleware.BodyLimit(cfg.MaxBodyBytes))
	router.Use(middleware.Auth(cfg.JWTSecret))

	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	router.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if deps.Ready != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := deps.Ready(ctx); err != nil {
				http.Error(w, "db not ready", http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})

	if cfg.MetricsEnabled && deps.Metrics != nil {
		router.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
			api.Success(w, deps.Metrics.Snapshot(), middleware.GetRequestID(r.Context()))
		})
	}

	router.Route("/api/v1", func(r chi.Router) {
		if cfg.RateLimitPerMinute > 0 {
			r.Use(middleware.RateLimit(cfg.RateLimitPerMinute, time.Minute))
			r.Use(middleware.SensitiveMutationRateLimit(cfg.RateLimitPerMinute, time.Minute))
		}
		if deps.Employees != nil {
			corehandler.NewHandler(deps.Employees).RegisterRoutes(r)
		}
		if deps.GOSI != nil {
			gosihandler.NewHandler(deps.GOSI, deps.Idempotency).RegisterRoutes(r)
		}
		if deps.Approvals != nil {
			approvalshandler.NewHandler(deps.Approvals, deps.Idempotency).RegisterRoutes(r)
		}
		if deps.Notices != nil {
			notificationshandler.NewHandler(deps.Notices).RegisterRoutes(r)
		}
		if deps.Reports != nil {
			reportshandler.NewHandler(deps.Reports).RegisterRoutes(r)
		}
		if deps.Audit != nil {
			audithandler.NewHandler(deps.Audit).RegisterRoutes(r)
		}
	})

	return router
}
