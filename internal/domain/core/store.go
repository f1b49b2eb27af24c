package core

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	cryptoutil "hrportal/internal/platform/crypto"
	"hrportal/internal/platform/querier"
)

type Store struct {
	DB     querier.Querier
	Crypto *cryptoutil.Service
}

func NewStore(db querier.Querier, crypto *cryptoutil.Service) *Store {
	return &Store{DB: db, Crypto: crypto}
}

const employeeColumns = `
    id,
    COALESCE(user_id::text, ''),
    COALESCE(employee_number, ''),
    first_name, last_name, email,
    COALESCE(nationality, ''),
    gosi_applicable,
    basic_salary::text, basic_salary_enc,
    gross_salary::text, gross_salary_enc,
    COALESCE(manager_id::text, ''),
    status, created_at, updated_at`

func (s *Store) scanEmployee(row pgx.Row) (Employee, error) {
	var emp Employee
	var basicPlain, grossPlain *string
	var basicEnc, grossEnc []byte
	if err := row.Scan(
		&emp.ID, &emp.UserID, &emp.EmployeeNumber, &emp.FirstName, &emp.LastName, &emp.Email,
		&emp.Nationality, &emp.GOSIApplicable,
		&basicPlain, &basicEnc, &grossPlain, &grossEnc,
		&emp.ManagerID, &emp.Status, &emp.CreatedAt, &emp.UpdatedAt,
	); err != nil {
		return Employee{}, err
	}
	emp.BasicSalary = decryptDecimalFallback(s.Crypto, basicEnc, basicPlain)
	emp.GrossSalary = decryptDecimalFallback(s.Crypto, grossEnc, grossPlain)
	return emp, nil
}

func (s *Store) GetEmployee(ctx context.Context, employeeID string) (Employee, error) {
	row := s.DB.QueryRow(ctx, `SELECT `+employeeColumns+` FROM employees WHERE id = $1`, employeeID)
	emp, err := s.scanEmployee(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Employee{}, ErrEmployeeNotFound
	}
	return emp, err
}

func (s *Store) GetEmployeeByUserID(ctx context.Context, userID string) (Employee, error) {
	row := s.DB.QueryRow(ctx, `SELECT `+employeeColumns+` FROM employees WHERE user_id = $1`, userID)
	emp, err := s.scanEmployee(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Employee{}, ErrEmployeeNotFound
	}
	return emp, err
}

func (s *Store) ListEmployees(ctx context.Context) ([]Employee, error) {
	rows, err := s.DB.Query(ctx, `SELECT `+employeeColumns+` FROM employees ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Employee
	for rows.Next() {
		emp, err := s.scanEmployee(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, emp)
	}
	return out, rows.Err()
}

func (s *Store) IsManagerOf(ctx context.Context, managerEmployeeID, employeeID string) (bool, error) {
	var count int
	err := s.DB.QueryRow(ctx, `
    SELECT COUNT(1)
    FROM employees
    WHERE id = $1 AND manager_id = $2
  `, employeeID, managerEmployeeID).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (s *Store) CreateEmployee(ctx context.Context, emp Employee) (string, error) {
	basicEnc := encryptDecimal(s.Crypto, emp.BasicSalary)
	grossEnc := encryptDecimal(s.Crypto, emp.GrossSalary)
	var basicPlain, grossPlain any = decimalText(emp.BasicSalary), decimalText(emp.GrossSalary)
	if s.Crypto != nil && s.Crypto.Configured() {
		basicPlain = nil
		grossPlain = nil
	}
	var id string
	err := s.DB.QueryRow(ctx, `
    INSERT INTO employees (user_id, employee_number, first_name, last_name, email, nationality, gosi_applicable,
      basic_salary, basic_salary_enc, gross_salary, gross_salary_enc, manager_id, status)
    VALUES ($1,$2,$3,$4,$5,$6,$7,$8::numeric,$9,$10::numeric,$11,$12,$13)
    RETURNING id
  `,
		nullIfEmpty(emp.UserID), nullIfEmpty(emp.EmployeeNumber), emp.FirstName, emp.LastName, emp.Email,
		emp.Nationality, emp.GOSIApplicable, basicPlain, basicEnc, grossPlain, grossEnc,
		nullIfEmpty(emp.ManagerID), emp.Status,
	).Scan(&id)
	if err != nil {
		return "", err
	}
	return id, nil
}

func nullIfEmpty(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func decimalText(value *decimal.Decimal) any {
	if value == nil {
		return nil
	}
	return value.String()
}

func encryptDecimal(crypto *cryptoutil.Service, value *decimal.Decimal) []byte {
	enc, _ := crypto.SealDecimal(value)
	return enc
}

func decryptDecimalFallback(crypto *cryptoutil.Service, encrypted []byte, plain *string) *decimal.Decimal {
	d, _ := crypto.OpenDecimal(encrypted, plain)
	return d
}
