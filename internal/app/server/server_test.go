package server

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"hrportal/internal/domain/auth"
	"hrportal/internal/domain/core"
	"hrportal/internal/domain/gosi"
	"hrportal/internal/platform/config"
	"hrportal/internal/platform/metrics"
)

const testSecret = "server-test-secret"

type emptyReports struct{}

func (emptyReports) ListPayrollRecords(context.Context, string) ([]gosi.PayrollRecord, error) {
	return nil, nil
}
func (emptyReports) SaveDraft(context.Context, gosi.Report) (string, error) { return "", nil }
func (emptyReports) GetReport(context.Context, string) (gosi.Report, error) {
	return gosi.Report{}, gosi.ErrReportNotFound
}
func (emptyReports) ListReports(context.Context) ([]gosi.Summary, error) { return nil, nil }
func (emptyReports) MarkSubmitted(context.Context, string, time.Time) error { return nil }

type noEmployees struct{}

func (noEmployees) ListEmployees(context.Context) ([]core.Employee, error) { return nil, nil }

func testDeps(ready func(context.Context) error) Deps {
	return Deps{
		Config: config.Config{
			JWTSecret:          testSecret,
			MaxBodyBytes:       1 << 20,
			RateLimitPerMinute: 100,
			MetricsEnabled:     true,
		},
		GOSI:    gosi.NewService(emptyReports{}, noEmployees{}, nil, nil),
		Metrics: metrics.New(),
		Ready:   ready,
	}
}

func TestProbesAndMetrics(t *testing.T) {
	h := NewRouter(testDeps(func(context.Context) error { return errors.New("down") }))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("healthz: %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("readyz: expected 503, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "requestsTotal") {
		t.Fatalf("metrics: %d %s", rec.Code, rec.Body.String())
	}
	if rec.Header().Get("X-Request-Id") == "" {
		t.Fatal("expected request id header")
	}
}

func TestAPIRequiresTokenAndRole(t *testing.T) {
	h := NewRouter(testDeps(nil))

	call := func(token string) int {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/gosi/reports", nil)
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec.Code
	}
	token := func(role string) string {
		tok, err := auth.GenerateToken(testSecret, auth.Claims{UserID: "u-" + role, RoleName: role}, time.Hour)
		if err != nil {
			t.Fatalf("token: %v", err)
		}
		return tok
	}

	if code := call(""); code != http.StatusUnauthorized {
		t.Fatalf("anonymous: expected 401, got %d", code)
	}
	if code := call(token(auth.RoleEmployee)); code != http.StatusForbidden {
		t.Fatalf("employee: expected 403, got %d", code)
	}
	if code := call(token(auth.RoleFinance)); code != http.StatusOK {
		t.Fatalf("finance: expected 200, got %d", code)
	}
}
