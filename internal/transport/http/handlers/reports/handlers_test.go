package reportshandler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"hrportal/internal/domain/approval"
	"hrportal/internal/domain/auth"
	"hrportal/internal/domain/reports"
	"hrportal/internal/transport/http/middleware"
)

type stubStore struct {
	lastFilter reports.JobRunFilter
}

func (s *stubStore) PendingByStage(context.Context, string) (map[string]int, error) {
	return map[string]int{"finance": 2, "manager": 5}, nil
}

func (s *stubStore) RequestsByStatus(context.Context, string) (map[string]int, error) {
	return map[string]int{"pending": 1}, nil
}

func (s *stubStore) UnreadNotifications(context.Context, string) (int, error) {
	return 4, nil
}

func (s *stubStore) LatestGOSIReport(context.Context) (*reports.GOSISummary, error) {
	return nil, nil
}

func (s *stubStore) ListJobRuns(_ context.Context, filter reports.JobRunFilter, _, _ int) ([]reports.JobRun, error) {
	s.lastFilter = filter
	return []reports.JobRun{{ID: "r1", JobType: "gosi_draft_refresh", Status: "completed"}}, nil
}

func (s *stubStore) CountJobRuns(context.Context, reports.JobRunFilter) (int, error) {
	return 1, nil
}

func (s *stubStore) JobRunByID(_ context.Context, id string) (reports.JobRun, error) {
	if id == "r1" {
		return reports.JobRun{ID: "r1"}, nil
	}
	return reports.JobRun{}, reports.ErrJobRunNotFound
}

func serve(t *testing.T, store *stubStore, user *auth.UserContext, path string) *httptest.ResponseRecorder {
	t.Helper()
	policy, err := approval.DefaultPolicy()
	if err != nil {
		t.Fatalf("policy: %v", err)
	}
	r := chi.NewRouter()
	NewHandler(reports.NewService(store, policy)).RegisterRoutes(r)
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if user != nil {
		req = req.WithContext(middleware.WithUser(req.Context(), *user))
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestDashboardForFinance(t *testing.T) {
	user := auth.UserContext{UserID: "u-fin", EmployeeID: "e9", RoleName: auth.RoleFinance}
	rec := serve(t, &stubStore{}, &user, "/reports/dashboard")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	body := rec.Body.String()
	if !strings.Contains(body, `"awaitingMe":{"finance":2}`) || !strings.Contains(body, `"unreadNotifications":4`) {
		t.Fatalf("unexpected dashboard: %s", body)
	}
}

func TestDashboardRequiresAuth(t *testing.T) {
	if rec := serve(t, &stubStore{}, nil, "/reports/dashboard"); rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestJobRunsAdminOnly(t *testing.T) {
	manager := auth.UserContext{UserID: "u-mgr", RoleName: auth.RoleManager}
	if rec := serve(t, &stubStore{}, &manager, "/reports/jobs"); rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}

	admin := auth.UserContext{UserID: "u-admin", RoleName: auth.RoleAdmin}
	store := &stubStore{}
	rec := serve(t, store, &admin, "/reports/jobs?jobType=gosi_draft_refresh&startedFrom=2025-03-01&startedTo=2025-03-31")
	if rec.Code != http.StatusOK || rec.Header().Get("X-Total-Count") != "1" {
		t.Fatalf("list: %d %s", rec.Code, rec.Body.String())
	}
	if store.lastFilter.JobType != "gosi_draft_refresh" || store.lastFilter.StartedTo == nil {
		t.Fatalf("filter not applied: %+v", store.lastFilter)
	}
	want := time.Date(2025, 3, 31, 23, 59, 59, 999999999, time.UTC)
	if !store.lastFilter.StartedTo.Equal(want) {
		t.Fatalf("expected end of day, got %v", store.lastFilter.StartedTo)
	}

	if rec := serve(t, store, &admin, "/reports/jobs?startedFrom=nope"); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad date, got %d", rec.Code)
	}
	if rec := serve(t, store, &admin, "/reports/jobs/missing"); rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}
