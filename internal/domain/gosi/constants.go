package gosi

import "github.com/shopspring/decimal"

const (
	ReportStatusDraft     = "draft"
	ReportStatusSubmitted = "submitted"

	MonthLayout = "2006-01"
)

// Contribution rates as fractions of the capped base.
var (
	MaxContributionBase = decimal.NewFromInt(45000)

	SaudiEmployeeRate = decimal.RequireFromString("0.11")
	SaudiEmployerRate = decimal.RequireFromString("0.13")
	SaudiSanedRate    = decimal.RequireFromString("0.02")

	NonSaudiEmployerRate = decimal.RequireFromString("0.02")

	HazardRate = decimal.RequireFromString("0.02")
)

var saudiNationalities = map[string]bool{
	"saudi":        true,
	"saudi arabia": true,
}
