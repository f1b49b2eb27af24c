package gosi

import (
	"context"
	"errors"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hrportal/internal/domain/auth"
	"hrportal/internal/domain/core"
)

type memStore struct {
	payrolls []PayrollRecord
	reports  map[string]Report
}

func (m *memStore) ListPayrollRecords(_ context.Context, month string) ([]PayrollRecord, error) {
	var out []PayrollRecord
	for _, p := range m.payrolls {
		if p.Month == month {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *memStore) SaveDraft(_ context.Context, r Report) (string, error) {
	if existing, ok := m.reports[r.Month]; ok {
		if existing.Status == ReportStatusSubmitted {
			return "", ErrReportSubmitted
		}
		r.ID = existing.ID
	} else {
		r.ID = "rep-" + r.Month
	}
	m.reports[r.Month] = r
	return r.ID, nil
}

func (m *memStore) GetReport(_ context.Context, month string) (Report, error) {
	r, ok := m.reports[month]
	if !ok {
		return Report{}, ErrReportNotFound
	}
	return r, nil
}

func (m *memStore) ListReports(context.Context) ([]Summary, error) {
	var out []Summary
	for _, r := range m.reports {
		out = append(out, Summary{ID: r.ID, Month: r.Month, Status: r.Status, TotalContribution: r.TotalContribution, EmployeeCount: len(r.EmployeeDetails)})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Month > out[j].Month })
	return out, nil
}

func (m *memStore) MarkSubmitted(_ context.Context, month string, at time.Time) error {
	r, ok := m.reports[month]
	if !ok {
		return ErrReportNotFound
	}
	if r.Status == ReportStatusSubmitted {
		return ErrReportSubmitted
	}
	r.Status = ReportStatusSubmitted
	r.SubmittedAt = &at
	m.reports[month] = r
	return nil
}

type staticEmployees []core.Employee

func (s staticEmployees) ListEmployees(context.Context) ([]core.Employee, error) {
	return s, nil
}

type failingEmployees struct{}

func (failingEmployees) ListEmployees(context.Context) ([]core.Employee, error) {
	return nil, errors.New("connection refused")
}

type reportCounter struct{ reports, unmatched int }

func (r *reportCounter) RecordGOSIReport(_, unmatched int) {
	r.reports++
	r.unmatched += unmatched
}

var finance = auth.UserContext{UserID: "u-fin", RoleName: auth.RoleFinance}

func newTestService() (*Service, *memStore, *reportCounter) {
	store := &memStore{
		reports: map[string]Report{},
		payrolls: []PayrollRecord{
			{ID: "1", EmployeeID: "a", Month: "2025-03", GOSICalculationBase: decPtr("10000")},
			{ID: "2", EmployeeID: "b", Month: "2025-03", GrossSalary: decPtr("50000")},
			{ID: "3", EmployeeID: "ghost", Month: "2025-03", GrossSalary: decPtr("5000")},
		},
	}
	metrics := &reportCounter{}
	svc := NewService(store, staticEmployees{saudi("a"), expat("b")}, nil, metrics)
	svc.Now = func() time.Time { return time.Date(2025, 4, 2, 10, 0, 0, 0, time.UTC) }
	return svc, store, metrics
}

func TestServiceGenerateStoresDraft(t *testing.T) {
	svc, store, metrics := newTestService()
	ctx := context.Background()

	report, err := svc.Generate(ctx, finance, "2025-03")
	require.NoError(t, err)
	assert.Equal(t, "rep-2025-03", report.ID)
	assert.Equal(t, ReportStatusDraft, report.Status)
	assert.Equal(t, 1, report.UnmatchedPayrollRecords)
	assertDec(t, "4400", report.TotalContribution, "total")
	assert.Equal(t, time.Date(2025, 4, 2, 10, 0, 0, 0, time.UTC), report.GeneratedAt)
	assert.Contains(t, store.reports, "2025-03")
	assert.Equal(t, 1, metrics.reports)
	assert.Equal(t, 1, metrics.unmatched)
}

func TestServiceRegenerateDraftKeepsID(t *testing.T) {
	svc, store, _ := newTestService()
	ctx := context.Background()

	first, err := svc.Generate(ctx, finance, "2025-03")
	require.NoError(t, err)
	store.payrolls = append(store.payrolls, PayrollRecord{ID: "4", EmployeeID: "a", Month: "2025-03", GrossSalary: decPtr("1000")})

	second, err := svc.Generate(ctx, finance, "2025-03")
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Len(t, second.EmployeeDetails, 3)
}

func TestServiceSubmitFreezesReport(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	_, err := svc.Generate(ctx, finance, "2025-03")
	require.NoError(t, err)

	submitted, err := svc.Submit(ctx, finance, "2025-03")
	require.NoError(t, err)
	assert.Equal(t, ReportStatusSubmitted, submitted.Status)
	require.NotNil(t, submitted.SubmittedAt)

	_, err = svc.Generate(ctx, finance, "2025-03")
	assert.ErrorIs(t, err, ErrReportSubmitted)
	_, err = svc.Submit(ctx, finance, "2025-03")
	assert.ErrorIs(t, err, ErrReportSubmitted)
}

func TestServiceErrors(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	_, err := svc.Generate(ctx, finance, "2025-13")
	assert.ErrorIs(t, err, ErrInvalidMonth)

	_, err = svc.Generate(ctx, finance, "2024-12")
	assert.ErrorIs(t, err, ErrNoPayrollData)

	_, err = svc.Get(ctx, "2024-12")
	assert.ErrorIs(t, err, ErrReportNotFound)

	_, err = svc.Submit(ctx, finance, "2024-12")
	assert.ErrorIs(t, err, ErrReportNotFound)

	svc.Employees = failingEmployees{}
	_, err = svc.Generate(ctx, finance, "2025-03")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "list employees")
}

func TestServiceListEmpty(t *testing.T) {
	svc, _, _ := newTestService()
	out, err := svc.List(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, out)
	assert.Empty(t, out)
}

func TestServiceRefreshDraftSkipsFrozenAndEmptyMonths(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()
	assert.Equal(t, "2025-04", svc.CurrentMonth())

	out, err := svc.RefreshDraft(ctx, "2025-04")
	require.NoError(t, err)
	assert.Equal(t, "no payroll data", out["skipped"])

	out, err = svc.RefreshDraft(ctx, "2025-03")
	require.NoError(t, err)
	assert.Equal(t, "4400.00", out["totalContribution"])

	_, err = svc.Submit(ctx, finance, "2025-03")
	require.NoError(t, err)
	out, err = svc.RefreshDraft(ctx, "2025-03")
	require.NoError(t, err)
	assert.Equal(t, "submitted", out["skipped"])

	_, err = svc.RefreshDraft(ctx, "03-2025")
	assert.ErrorIs(t, err, ErrInvalidMonth)
}
