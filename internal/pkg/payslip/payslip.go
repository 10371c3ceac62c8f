package payslip

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/jung-kurt/gofpdf"

	"github.com/veritas-hr/payroll-engine-go/internal/domain/employee"
	"github.com/veritas-hr/payroll-engine-go/internal/domain/payroll"
)

// Renderer writes a payslip document for a computed record and returns the
// path of the generated file.
type Renderer interface {
	Render(rec payroll.PayrollRecord, emp employee.Employee) (string, error)
}

type PDFRenderer struct {
	dir string
}

func NewPDFRenderer(dir string) *PDFRenderer {
	return &PDFRenderer{dir: dir}
}

func (p *PDFRenderer) Render(rec payroll.PayrollRecord, emp employee.Employee) (string, error) {
	if err := os.MkdirAll(p.dir, 0o755); err != nil {
		return "", err
	}
	filePath := filepath.Join(p.dir,
		fmt.Sprintf("%s-%04d-%02d.pdf", rec.EmployeeCode, rec.PeriodYear, rec.PeriodMonth))

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 16)
	pdf.Cell(40, 10, "Payslip")
	pdf.Ln(12)
	pdf.SetFont("Helvetica", "", 12)
	pdf.Cell(0, 8, fmt.Sprintf("Employee: %s (%s)", emp.FullName, emp.EmployeeCode))
	pdf.Ln(7)
	pdf.Cell(0, 8, fmt.Sprintf("Period: %02d/%04d", rec.PeriodMonth, rec.PeriodYear))
	pdf.Ln(7)
	pdf.Cell(0, 8, fmt.Sprintf("Days: %d eligible of %d", rec.EligibleDays, rec.TotalDays))
	pdf.Ln(10)

	pdf.SetFont("Helvetica", "B", 12)
	pdf.Cell(0, 8, "Earnings")
	pdf.Ln(8)
	pdf.SetFont("Helvetica", "", 12)
	line := func(label, amount string) {
		pdf.Cell(100, 7, label)
		pdf.CellFormat(50, 7, amount, "", 0, "R", false, 0, "")
		pdf.Ln(7)
	}
	line("Basic", rec.Basic.StringFixed(2))
	line("HRA", rec.HRA.StringFixed(2))
	line("DA", rec.DA.StringFixed(2))
	line("Special Allowance", rec.SpecialAllowance.StringFixed(2))
	line("Variable Pay", rec.VariablePay.StringFixed(2))
	pdf.Ln(3)

	pdf.SetFont("Helvetica", "B", 12)
	pdf.Cell(0, 8, "Deductions")
	pdf.Ln(8)
	pdf.SetFont("Helvetica", "", 12)
	line("EPF", rec.EPFEmployee.StringFixed(2))
	line("ESIC", rec.ESICEmployee.StringFixed(2))
	line("Professional Tax", rec.ProfessionalTax.StringFixed(2))
	line("TDS", rec.TDS.StringFixed(2))
	if rec.SalesDeduction.IsPositive() {
		line("Performance Deduction", rec.SalesDeduction.StringFixed(2))
	}
	pdf.Ln(3)

	pdf.SetFont("Helvetica", "B", 12)
	line("Net Take Home", rec.NetTakeHome.StringFixed(2))
	line("Monthly CTC", rec.MonthlyCTC.StringFixed(2))

	if err := pdf.OutputFileAndClose(filePath); err != nil {
		return "", err
	}

	return filePath, nil
}
