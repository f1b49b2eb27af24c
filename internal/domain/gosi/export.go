package gosi

import (
	"fmt"
	"io"

	"github.com/jung-kurt/gofpdf"
	"github.com/xuri/excelize/v2"
)

const (
	FormatXLSX = "xlsx"
	FormatPDF  = "pdf"

	summarySheet = "Summary"
	detailSheet  = "Employees"
)

var detailHeader = []any{
	"Employee ID", "Name", "Nationality", "Saudi", "GOSI Base",
	"Employee Share", "Employer Share", "Hazards", "SANED", "Total",
}

// ContentType returns the MIME type for an export format, or "" for unknown formats.
func ContentType(format string) string {
	switch format {
	case FormatXLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case FormatPDF:
		return "application/pdf"
	}
	return ""
}

func summaryRows(r Report) [][]any {
	return [][]any{
		{"Month", r.Month},
		{"Status", r.Status},
		{"Total Wages", r.TotalWages.InexactFloat64()},
		{"Employee Contribution", r.TotalEmployeeContribution.InexactFloat64()},
		{"Employer Contribution", r.TotalEmployerContribution.InexactFloat64()},
		{"Occupational Hazards", r.OccupationalHazards.InexactFloat64()},
		{"SANED", r.SanedContribution.InexactFloat64()},
		{"Total Contribution", r.TotalContribution.InexactFloat64()},
		{"Saudi Employees", r.SaudiEmployees},
		{"Non-Saudi Employees", r.NonSaudiEmployees},
		{"Unmatched Payroll Records", r.UnmatchedPayrollRecords},
	}
}

// WriteXLSX renders the report as a workbook with a summary sheet and one row per employee.
func WriteXLSX(w io.Writer, r Report) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", summarySheet); err != nil {
		return err
	}
	if _, err := f.NewSheet(detailSheet); err != nil {
		return err
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}

	for i, row := range summaryRows(r) {
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		if err := f.SetSheetRow(summarySheet, cell, &row); err != nil {
			return err
		}
		if err := f.SetCellStyle(summarySheet, cell, cell, bold); err != nil {
			return err
		}
	}
	if err := f.SetColWidth(summarySheet, "A", "A", 28); err != nil {
		return err
	}

	header := detailHeader
	if err := f.SetSheetRow(detailSheet, "A1", &header); err != nil {
		return err
	}
	last, _ := excelize.CoordinatesToCellName(len(detailHeader), 1)
	if err := f.SetCellStyle(detailSheet, "A1", last, bold); err != nil {
		return err
	}
	for i, line := range r.EmployeeDetails {
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		row := []any{
			line.EmployeeID, line.EmployeeName, line.Nationality, line.IsSaudi,
			line.GOSIBase.InexactFloat64(), line.EmployeeShare.InexactFloat64(),
			line.EmployerShare.InexactFloat64(), line.Hazards.InexactFloat64(),
			line.Saned.InexactFloat64(), line.Total.InexactFloat64(),
		}
		if err := f.SetSheetRow(detailSheet, cell, &row); err != nil {
			return err
		}
	}
	return f.Write(w)
}

// WritePDF renders a one-page summary followed by the employee table.
func WritePDF(w io.Writer, r Report) error {
	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 16)
	pdf.Cell(0, 10, fmt.Sprintf("GOSI Contribution Report %s", r.Month))
	pdf.Ln(12)

	pdf.SetFont("Helvetica", "", 11)
	for _, row := range summaryRows(r)[1:] {
		value := row[1]
		if v, ok := value.(float64); ok {
			value = fmt.Sprintf("%.2f SAR", v)
		}
		pdf.Cell(70, 7, fmt.Sprint(row[0]))
		pdf.Cell(0, 7, fmt.Sprint(value))
		pdf.Ln(7)
	}
	pdf.Ln(5)

	widths := []float64{30, 55, 30, 15, 25, 25, 25, 22, 20, 25}
	pdf.SetFont("Helvetica", "B", 9)
	for i, h := range detailHeader {
		pdf.CellFormat(widths[i], 7, fmt.Sprint(h), "1", 0, "C", false, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Helvetica", "", 9)
	for _, line := range r.EmployeeDetails {
		saudi := "No"
		if line.IsSaudi {
			saudi = "Yes"
		}
		cells := []string{
			line.EmployeeID, line.EmployeeName, line.Nationality, saudi,
			line.GOSIBase.StringFixed(2), line.EmployeeShare.StringFixed(2),
			line.EmployerShare.StringFixed(2), line.Hazards.StringFixed(2),
			line.Saned.StringFixed(2), line.Total.StringFixed(2),
		}
		for i, c := range cells {
			align := "L"
			if i >= 4 {
				align = "R"
			}
			pdf.CellFormat(widths[i], 6, c, "1", 0, align, false, 0, "")
		}
		pdf.Ln(-1)
	}

	if err := pdf.Error(); err != nil {
		return err
	}
	return pdf.Output(w)
}
