package gosi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	cryptoutil "hrportal/internal/platform/crypto"
	"hrportal/internal/platform/querier"
)

// Store persists payroll inputs and reports. When Crypto is configured the salary
// columns and per-employee report details are sealed and the plain columns left empty.
type Store struct {
	DB     querier.Querier
	Crypto *cryptoutil.Service
}

func NewStore(db querier.Querier, crypto *cryptoutil.Service) *Store {
	return &Store{DB: db, Crypto: crypto}
}

func (s *Store) sealing() bool {
	return s.Crypto != nil && s.Crypto.Configured()
}

func (s *Store) CreatePayrollRecord(ctx context.Context, rec PayrollRecord) (string, error) {
	baseEnc, err := s.Crypto.SealDecimal(rec.GOSICalculationBase)
	if err != nil {
		return "", err
	}
	grossEnc, err := s.Crypto.SealDecimal(rec.GrossSalary)
	if err != nil {
		return "", err
	}
	var basePlain, grossPlain any
	if !s.sealing() {
		basePlain, grossPlain = decimalText(rec.GOSICalculationBase), decimalText(rec.GrossSalary)
	}
	var id string
	err = s.DB.QueryRow(ctx, `
    INSERT INTO payroll_records (employee_id, month, gosi_calculation_base, gosi_calculation_base_enc,
      gross_salary, gross_salary_enc)
    VALUES ($1,$2,$3::numeric,$4,$5::numeric,$6)
    RETURNING id
  `, rec.EmployeeID, rec.Month, basePlain, baseEnc, grossPlain, grossEnc).Scan(&id)
	if err != nil {
		return "", err
	}
	return id, nil
}

func (s *Store) ListPayrollRecords(ctx context.Context, month string) ([]PayrollRecord, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT id, employee_id, month, gosi_calculation_base::text, gosi_calculation_base_enc,
           gross_salary::text, gross_salary_enc
    FROM payroll_records
    WHERE month = $1
    ORDER BY employee_id, id
  `, month)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []PayrollRecord
	for rows.Next() {
		var rec PayrollRecord
		var base, gross *string
		var baseEnc, grossEnc []byte
		if err := rows.Scan(&rec.ID, &rec.EmployeeID, &rec.Month, &base, &baseEnc, &gross, &grossEnc); err != nil {
			return nil, err
		}
		if rec.GOSICalculationBase, err = s.Crypto.OpenDecimal(baseEnc, base); err != nil {
			return nil, fmt.Errorf("payroll record %s: %w", rec.ID, err)
		}
		if rec.GrossSalary, err = s.Crypto.OpenDecimal(grossEnc, gross); err != nil {
			return nil, fmt.Errorf("payroll record %s: %w", rec.ID, err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// SaveDraft inserts the report or replaces the existing draft for its month.
// A submitted report is left alone and ErrReportSubmitted is returned.
func (s *Store) SaveDraft(ctx context.Context, report Report) (string, error) {
	details, err := json.Marshal(report.EmployeeDetails)
	if err != nil {
		return "", err
	}
	var detailsEnc []byte
	if s.sealing() {
		if detailsEnc, err = s.Crypto.Encrypt(details); err != nil {
			return "", err
		}
		details = []byte("[]")
	}
	var id string
	err = s.DB.QueryRow(ctx, `
    INSERT INTO gosi_reports (month, status, total_wages, total_employee_contribution, total_employer_contribution,
      occupational_hazards, saned_contribution, total_contribution, saudi_employees, non_saudi_employees,
      employee_details, employee_details_enc, unmatched_payroll_records, generated_at)
    VALUES ($1,'draft',$2::numeric,$3::numeric,$4::numeric,$5::numeric,$6::numeric,$7::numeric,$8,$9,$10,$11,$12,$13)
    ON CONFLICT (month) DO UPDATE
    SET total_wages = EXCLUDED.total_wages,
        total_employee_contribution = EXCLUDED.total_employee_contribution,
        total_employer_contribution = EXCLUDED.total_employer_contribution,
        occupational_hazards = EXCLUDED.occupational_hazards,
        saned_contribution = EXCLUDED.saned_contribution,
        total_contribution = EXCLUDED.total_contribution,
        saudi_employees = EXCLUDED.saudi_employees,
        non_saudi_employees = EXCLUDED.non_saudi_employees,
        employee_details = EXCLUDED.employee_details,
        employee_details_enc = EXCLUDED.employee_details_enc,
        unmatched_payroll_records = EXCLUDED.unmatched_payroll_records,
        generated_at = EXCLUDED.generated_at
    WHERE gosi_reports.status = 'draft'
    RETURNING id
  `,
		report.Month, report.TotalWages.String(), report.TotalEmployeeContribution.String(),
		report.TotalEmployerContribution.String(), report.OccupationalHazards.String(),
		report.SanedContribution.String(), report.TotalContribution.String(),
		report.SaudiEmployees, report.NonSaudiEmployees, details, detailsEnc, report.UnmatchedPayrollRecords, report.GeneratedAt,
	).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", ErrReportSubmitted
	}
	if err != nil {
		return "", err
	}
	return id, nil
}

func (s *Store) GetReport(ctx context.Context, month string) (Report, error) {
	var r Report
	var wages, employee, employer, hazards, saned, total string
	var details, detailsEnc []byte
	err := s.DB.QueryRow(ctx, `
    SELECT id, month, status, total_wages::text, total_employee_contribution::text, total_employer_contribution::text,
           occupational_hazards::text, saned_contribution::text, total_contribution::text,
           saudi_employees, non_saudi_employees, employee_details, employee_details_enc,
           unmatched_payroll_records, generated_at, submitted_at
    FROM gosi_reports
    WHERE month = $1
  `, month).Scan(&r.ID, &r.Month, &r.Status, &wages, &employee, &employer, &hazards, &saned, &total,
		&r.SaudiEmployees, &r.NonSaudiEmployees, &details, &detailsEnc, &r.UnmatchedPayrollRecords, &r.GeneratedAt, &r.SubmittedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Report{}, ErrReportNotFound
	}
	if err != nil {
		return Report{}, err
	}

	for _, f := range []struct {
		dst *decimal.Decimal
		raw string
	}{
		{&r.TotalWages, wages},
		{&r.TotalEmployeeContribution, employee},
		{&r.TotalEmployerContribution, employer},
		{&r.OccupationalHazards, hazards},
		{&r.SanedContribution, saned},
		{&r.TotalContribution, total},
	} {
		if *f.dst, err = decimal.NewFromString(f.raw); err != nil {
			return Report{}, err
		}
	}
	if len(detailsEnc) > 0 && s.sealing() {
		if details, err = s.Crypto.Decrypt(detailsEnc); err != nil {
			return Report{}, fmt.Errorf("open report details: %w", err)
		}
	}
	r.EmployeeDetails = []EmployeeContribution{}
	if len(details) > 0 {
		if err := json.Unmarshal(details, &r.EmployeeDetails); err != nil {
			return Report{}, err
		}
	}
	return r, nil
}

func (s *Store) ListReports(ctx context.Context) ([]Summary, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT id, month, status, total_contribution::text, saudi_employees + non_saudi_employees, generated_at, submitted_at
    FROM gosi_reports
    ORDER BY month DESC
  `)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Summary
	for rows.Next() {
		var sum Summary
		var total string
		if err := rows.Scan(&sum.ID, &sum.Month, &sum.Status, &total, &sum.EmployeeCount, &sum.GeneratedAt, &sum.SubmittedAt); err != nil {
			return nil, err
		}
		if sum.TotalContribution, err = decimal.NewFromString(total); err != nil {
			return nil, err
		}
		out = append(out, sum)
	}
	return out, rows.Err()
}

func (s *Store) MarkSubmitted(ctx context.Context, month string, at time.Time) error {
	cmd, err := s.DB.Exec(ctx, `
    UPDATE gosi_reports
    SET status = 'submitted', submitted_at = $2
    WHERE month = $1 AND status = 'draft'
  `, month, at)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() > 0 {
		return nil
	}
	var status string
	err = s.DB.QueryRow(ctx, `SELECT status FROM gosi_reports WHERE month = $1`, month).Scan(&status)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrReportNotFound
	}
	if err != nil {
		return err
	}
	return ErrReportSubmitted
}

func decimalText(value *decimal.Decimal) any {
	if value == nil {
		return nil
	}
	return value.String()
}
