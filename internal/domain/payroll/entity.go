package payroll

import (
	"time"

	"github.com/shopspring/decimal"
)

// PayrollStatus enum. Transitions move forward only:
// draft -> submitted -> approved -> locked -> paid.
type PayrollStatus string

const (
	PayrollStatusDraft     PayrollStatus = "draft"
	PayrollStatusSubmitted PayrollStatus = "submitted"
	PayrollStatusApproved  PayrollStatus = "approved"
	PayrollStatusLocked    PayrollStatus = "locked"
	PayrollStatusPaid      PayrollStatus = "paid"
)

// Computable reports whether a record in this status may still be overwritten
// by recomputation or manual correction.
func (s PayrollStatus) Computable() bool {
	switch s {
	case PayrollStatusDraft, PayrollStatusSubmitted, PayrollStatusApproved:
		return true
	}
	return false
}

type PerformanceStatus string

const (
	PerformancePoor         PerformanceStatus = "poor"
	PerformanceBelowAverage PerformanceStatus = "below_average"
	PerformanceAverage      PerformanceStatus = "average"
	PerformanceGood         PerformanceStatus = "good"
	PerformanceExcellent    PerformanceStatus = "excellent"
)

type PerformanceColor string

const (
	ColorRed    PerformanceColor = "red"
	ColorYellow PerformanceColor = "yellow"
	ColorGreen  PerformanceColor = "green"
)

// PayrollRecord is the computed compensation for one employee and one
// calendar period. Natural key: (EmployeeCode, PeriodMonth, PeriodYear).
// Every monetary field below is derivable from the snapshot fields alone,
// so a record can be replayed and audited without external state.
type PayrollRecord struct {
	ID           string
	EmployeeCode string
	PeriodMonth  int
	PeriodYear   int

	// Attendance snapshot
	TotalDays    int
	PresentDays  int
	EligibleDays int

	AdjustedGross decimal.Decimal

	// Performance
	TargetSales     decimal.Decimal
	ActualSales     decimal.Decimal
	SalesPercentage decimal.Decimal
	SalesDeduction  decimal.Decimal
	SalesIncentive  decimal.Decimal

	// Components
	Basic            decimal.Decimal
	HRA              decimal.Decimal
	DA               decimal.Decimal
	SpecialAllowance decimal.Decimal
	VariablePay      decimal.Decimal

	// Employee-side statutory deductions
	EPFEmployee             decimal.Decimal
	ESICEmployee            decimal.Decimal
	ProfessionalTax         decimal.Decimal
	TDS                     decimal.Decimal
	TotalEmployeeDeductions decimal.Decimal

	// Employer-side contributions
	EPFEmployer                decimal.Decimal
	ESICEmployer               decimal.Decimal
	Gratuity                   decimal.Decimal
	TotalEmployerContributions decimal.Decimal

	// Settlement
	NetTakeHome decimal.Decimal
	MonthlyCTC  decimal.Decimal
	AnnualCTC   decimal.Decimal

	PerformanceStatus PerformanceStatus
	PerformanceColor  PerformanceColor

	Status      PayrollStatus
	SubmittedBy *string
	SubmittedAt *time.Time
	ApprovedBy  *string
	ApprovedAt  *time.Time
	LockedBy    *string
	LockedAt    *time.Time
	PaidBy      *string
	PaidAt      *time.Time

	// Version is the optimistic concurrency token; every guarded write
	// increments it.
	Version int64

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Adjustable fields are the computed heads a payroll officer may correct
// manually. Corrections to any of them re-derive the deduction total and the
// settlement block so the CTC identity keeps holding.
var adjustableFields = map[string]struct{}{
	"professional_tax":  {},
	"tds":               {},
	"special_allowance": {},
	"variable_pay":      {},
	"sales_deduction":   {},
}

func IsAdjustableField(field string) bool {
	_, ok := adjustableFields[field]
	return ok
}

// FieldValue returns the current value of an adjustable field.
func (r *PayrollRecord) FieldValue(field string) (decimal.Decimal, bool) {
	switch field {
	case "professional_tax":
		return r.ProfessionalTax, true
	case "tds":
		return r.TDS, true
	case "special_allowance":
		return r.SpecialAllowance, true
	case "variable_pay":
		return r.VariablePay, true
	case "sales_deduction":
		return r.SalesDeduction, true
	}
	return decimal.Zero, false
}

// SetField writes an adjustable field.
func (r *PayrollRecord) SetField(field string, v decimal.Decimal) bool {
	switch field {
	case "professional_tax":
		r.ProfessionalTax = v
	case "tds":
		r.TDS = v
	case "special_allowance":
		r.SpecialAllowance = v
	case "variable_pay":
		r.VariablePay = v
	case "sales_deduction":
		r.SalesDeduction = v
	default:
		return false
	}
	return true
}

// ManualAdjustment is one entry of the append-only correction trail. The
// trail survives recomputation, which only touches computed fields.
type ManualAdjustment struct {
	ID           string
	EmployeeCode string
	PeriodMonth  int
	PeriodYear   int
	Field        string
	OldValue     decimal.Decimal
	NewValue     decimal.Decimal
	Reason       string
	AdjustedBy   string
	CreatedAt    time.Time
}
