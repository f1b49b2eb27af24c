package core

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type Employee struct {
	ID             string           `json:"id"`
	UserID         string           `json:"userId"`
	EmployeeNumber string           `json:"employeeNumber"`
	FirstName      string           `json:"firstName"`
	LastName       string           `json:"lastName"`
	Email          string           `json:"email"`
	Nationality    string           `json:"nationality"`
	GOSIApplicable bool             `json:"gosiApplicable"`
	BasicSalary    *decimal.Decimal `json:"basicSalary,omitempty"`
	GrossSalary    *decimal.Decimal `json:"grossSalary,omitempty"`
	ManagerID      string           `json:"managerId"`
	Status         string           `json:"status"`
	CreatedAt      time.Time        `json:"createdAt"`
	UpdatedAt      time.Time        `json:"updatedAt"`
}

func (e Employee) FullName() string {
	return strings.TrimSpace(e.FirstName + " " + e.LastName)
}

// Redact clears the salary fields for callers outside finance and admin.
func (e *Employee) Redact() {
	e.BasicSalary = nil
	e.GrossSalary = nil
}
