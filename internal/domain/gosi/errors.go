package gosi

import "errors"

var (
	ErrNoPayrollData   = errors.New("no payroll data for month")
	ErrInvalidMonth    = errors.New("month must be formatted YYYY-MM")
	ErrReportNotFound  = errors.New("gosi report not found")
	ErrReportSubmitted = errors.New("gosi report already submitted")
)
