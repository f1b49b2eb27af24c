package gosi

import (
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"hrportal/internal/domain/core"
)

const moneyPlaces = 2

// ValidateMonth checks the YYYY-MM form used for payroll months.
func ValidateMonth(month string) error {
	if len(month) != len(MonthLayout) {
		return ErrInvalidMonth
	}
	if _, err := time.Parse(MonthLayout, month); err != nil {
		return ErrInvalidMonth
	}
	return nil
}

// IsSaudi reports whether a nationality value belongs to the Saudi contribution class.
func IsSaudi(nationality string) bool {
	return saudiNationalities[strings.ToLower(strings.TrimSpace(nationality))]
}

// ContributionBase picks the calculation base, then the gross salary, and caps the result.
// A zero or missing amount falls through to the next source.
func ContributionBase(rec PayrollRecord) decimal.Decimal {
	base := decimal.Zero
	switch {
	case rec.GOSICalculationBase != nil && !rec.GOSICalculationBase.IsZero():
		base = *rec.GOSICalculationBase
	case rec.GrossSalary != nil && !rec.GrossSalary.IsZero():
		base = *rec.GrossSalary
	}
	return decimal.Min(base, MaxContributionBase)
}

type contribution struct {
	base, employee, employer, hazards, saned decimal.Decimal
}

func split(base decimal.Decimal, saudi bool) contribution {
	c := contribution{base: base, employee: decimal.Zero, saned: decimal.Zero}
	if saudi {
		c.employee = base.Mul(SaudiEmployeeRate)
		c.employer = base.Mul(SaudiEmployerRate)
		c.saned = base.Mul(SaudiSanedRate)
	} else {
		c.employer = base.Mul(NonSaudiEmployerRate)
	}
	c.hazards = base.Mul(HazardRate)
	return c
}

func (c contribution) total() decimal.Decimal {
	return c.employee.Add(c.employer).Add(c.hazards)
}

func round(d decimal.Decimal) decimal.Decimal {
	return d.Round(moneyPlaces)
}

// ComputeReport builds the contribution report for month from employee and payroll data.
// Payroll rows whose employee is unknown are left out and counted; employees not covered
// by GOSI are left out silently. The inputs are not modified.
func ComputeReport(employees []core.Employee, payrolls []PayrollRecord, month string) (Report, error) {
	if err := ValidateMonth(month); err != nil {
		return Report{}, err
	}

	byID := make(map[string]core.Employee, len(employees))
	for _, emp := range employees {
		byID[emp.ID] = emp
	}

	var records []PayrollRecord
	for _, rec := range payrolls {
		if rec.Month == month {
			records = append(records, rec)
		}
	}
	if len(records) == 0 {
		return Report{}, ErrNoPayrollData
	}
	sort.SliceStable(records, func(i, j int) bool {
		if records[i].EmployeeID != records[j].EmployeeID {
			return records[i].EmployeeID < records[j].EmployeeID
		}
		return records[i].ID < records[j].ID
	})

	report := Report{
		Month:           month,
		Status:          ReportStatusDraft,
		EmployeeDetails: []EmployeeContribution{},
	}
	var wages, employeeTotal, employerTotal, hazardsTotal, sanedTotal decimal.Decimal
	for _, rec := range records {
		emp, ok := byID[rec.EmployeeID]
		if !ok {
			report.UnmatchedPayrollRecords++
			continue
		}
		if !emp.GOSIApplicable {
			continue
		}

		saudi := IsSaudi(emp.Nationality)
		c := split(ContributionBase(rec), saudi)
		if saudi {
			report.SaudiEmployees++
		} else {
			report.NonSaudiEmployees++
		}

		wages = wages.Add(c.base)
		employeeTotal = employeeTotal.Add(c.employee)
		employerTotal = employerTotal.Add(c.employer.Add(c.hazards))
		hazardsTotal = hazardsTotal.Add(c.hazards)
		sanedTotal = sanedTotal.Add(c.saned)

		report.EmployeeDetails = append(report.EmployeeDetails, EmployeeContribution{
			EmployeeID:    emp.ID,
			EmployeeName:  emp.FullName(),
			Nationality:   emp.Nationality,
			IsSaudi:       saudi,
			GOSIBase:      round(c.base),
			EmployeeShare: round(c.employee),
			EmployerShare: round(c.employer),
			Hazards:       round(c.hazards),
			Saned:         round(c.saned),
			Total:         round(c.total()),
		})
	}

	report.TotalWages = round(wages)
	report.TotalEmployeeContribution = round(employeeTotal)
	report.TotalEmployerContribution = round(employerTotal)
	report.OccupationalHazards = round(hazardsTotal)
	report.SanedContribution = round(sanedTotal)
	report.TotalContribution = report.TotalEmployeeContribution.Add(report.TotalEmployerContribution)
	return report, nil
}
