package gosi

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"hrportal/internal/domain/core"
)

func sampleReport(t *testing.T) Report {
	t.Helper()
	employees := []core.Employee{saudi("a"), expat("b")}
	payrolls := []PayrollRecord{
		{ID: "1", EmployeeID: "a", Month: "2025-03", GOSICalculationBase: decPtr("10000")},
		{ID: "2", EmployeeID: "b", Month: "2025-03", GrossSalary: decPtr("50000")},
	}
	report, err := ComputeReport(employees, payrolls, "2025-03")
	require.NoError(t, err)
	return report
}

func TestWriteXLSX(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteXLSX(&buf, sampleReport(t)))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	month, err := f.GetCellValue(summarySheet, "B1")
	require.NoError(t, err)
	assert.Equal(t, "2025-03", month)

	rows, err := f.GetRows(detailSheet)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "Employee ID", rows[0][0])
	assert.Equal(t, "a", rows[1][0])
	assert.Equal(t, "2600", rows[1][9])
	assert.Equal(t, "b", rows[2][0])
	assert.Equal(t, "45000", rows[2][4])
}

func TestWritePDF(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WritePDF(&buf, sampleReport(t)))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF")))
}

func TestContentType(t *testing.T) {
	assert.Equal(t, "application/pdf", ContentType(FormatPDF))
	assert.NotEmpty(t, ContentType(FormatXLSX))
	assert.Empty(t, ContentType("csv"))
}
