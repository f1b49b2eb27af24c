package db

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"hrportal/internal/domain/core"
	"hrportal/internal/domain/gosi"
	"hrportal/internal/platform/logger"
)

type seedEmployee struct {
	key         string
	managerKey  string
	first, last string
	email       string
	nationality string
	gosi        bool
	basic       string
	gross       string
	gosiBase    string
}

var seedEmployees = []seedEmployee{
	{key: "mgr", first: "Noura", last: "Alqahtani", email: "noura@example.com", nationality: "Saudi", gosi: true, basic: "18000", gross: "24000", gosiBase: "22500"},
	{key: "saudi", managerKey: "mgr", first: "Faisal", last: "Alotaibi", email: "faisal@example.com", nationality: "Saudi Arabia", gosi: true, basic: "8000", gross: "10500", gosiBase: "10000"},
	{key: "expat", managerKey: "mgr", first: "Ravi", last: "Menon", email: "ravi@example.com", nationality: "Indian", gosi: true, basic: "38000", gross: "52000"},
	{key: "contractor", managerKey: "mgr", first: "Lena", last: "Hoffmann", email: "lena@example.com", nationality: "German", gosi: false, basic: "20000", gross: "20000"},
}

// Seed loads a small demo organisation with payroll for the current month when the
// employees table is empty.
func Seed(ctx context.Context, pool *pgxpool.Pool, employees *core.Store, payroll *gosi.Store, now time.Time) error {
	var count int
	if err := pool.QueryRow(ctx, "SELECT COUNT(1) FROM employees").Scan(&count); err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	month := now.UTC().Format("2006-01")
	ids := map[string]string{}
	for _, se := range seedEmployees {
		basic := decimal.RequireFromString(se.basic)
		gross := decimal.RequireFromString(se.gross)
		id, err := employees.CreateEmployee(ctx, core.Employee{
			FirstName:      se.first,
			LastName:       se.last,
			Email:          se.email,
			Nationality:    se.nationality,
			GOSIApplicable: se.gosi,
			BasicSalary:    &basic,
			GrossSalary:    &gross,
			ManagerID:      ids[se.managerKey],
			Status:         "active",
		})
		if err != nil {
			return err
		}
		ids[se.key] = id

		rec := gosi.PayrollRecord{EmployeeID: id, Month: month, GrossSalary: &gross}
		if se.gosiBase != "" {
			base := decimal.RequireFromString(se.gosiBase)
			rec.GOSICalculationBase = &base
		}
		if _, err := payroll.CreatePayrollRecord(ctx, rec); err != nil {
			return err
		}
	}
	logger.FromContext(ctx).Info().Int("employees", len(seedEmployees)).Str("month", month).Msg("seeded demo data")
	return nil
}
