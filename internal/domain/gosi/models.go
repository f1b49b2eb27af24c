package gosi

import (
	"time"

	"github.com/shopspring/decimal"
)

type PayrollRecord struct {
	ID                  string           `json:"id"`
	EmployeeID          string           `json:"employeeId"`
	Month               string           `json:"month"`
	GOSICalculationBase *decimal.Decimal `json:"gosiCalculationBase,omitempty"`
	GrossSalary         *decimal.Decimal `json:"grossSalary,omitempty"`
}

type EmployeeContribution struct {
	EmployeeID    string          `json:"employeeId"`
	EmployeeName  string          `json:"employeeName"`
	Nationality   string          `json:"nationality"`
	IsSaudi       bool            `json:"isSaudi"`
	GOSIBase      decimal.Decimal `json:"gosiBase"`
	EmployeeShare decimal.Decimal `json:"employeeShare"`
	EmployerShare decimal.Decimal `json:"employerShare"`
	Hazards       decimal.Decimal `json:"hazards"`
	Saned         decimal.Decimal `json:"saned"`
	Total         decimal.Decimal `json:"total"`
}

// Report is one month of contributions. Monetary fields are rounded to 2 decimal places.
type Report struct {
	ID                        string                 `json:"id,omitempty"`
	Month                     string                 `json:"month"`
	Status                    string                 `json:"status"`
	TotalWages                decimal.Decimal        `json:"totalWages"`
	TotalEmployeeContribution decimal.Decimal        `json:"totalEmployeeContribution"`
	TotalEmployerContribution decimal.Decimal        `json:"totalEmployerContribution"`
	OccupationalHazards       decimal.Decimal        `json:"occupationalHazards"`
	SanedContribution         decimal.Decimal        `json:"sanedContribution"`
	TotalContribution         decimal.Decimal        `json:"totalContribution"`
	SaudiEmployees            int                    `json:"saudiEmployees"`
	NonSaudiEmployees         int                    `json:"nonSaudiEmployees"`
	EmployeeDetails           []EmployeeContribution `json:"employeeDetails"`
	UnmatchedPayrollRecords   int                    `json:"unmatchedPayrollRecords"`
	GeneratedAt               time.Time              `json:"generatedAt"`
	SubmittedAt               *time.Time             `json:"submittedAt,omitempty"`
}

// Summary is the list view of a stored report.
type Summary struct {
	ID                string          `json:"id"`
	Month             string          `json:"month"`
	Status            string          `json:"status"`
	TotalContribution decimal.Decimal `json:"totalContribution"`
	EmployeeCount     int             `json:"employeeCount"`
	GeneratedAt       time.Time       `json:"generatedAt"`
	SubmittedAt       *time.Time      `json:"submittedAt,omitempty"`
}
