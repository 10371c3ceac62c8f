package payroll

import (
	"github.com/shopspring/decimal"

	"github.com/veritas-hr/payroll-engine-go/internal/pkg/validator"
)

// ========== PROCESSING DTOs ==========

type ProcessEmployeeRequest struct {
	EmployeeCode string `json:"employee_code"`
	PeriodMonth  int    `json:"period_month"`
	PeriodYear   int    `json:"period_year"`
}

func (r *ProcessEmployeeRequest) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.EmployeeCode) {
		errs = append(errs, validator.ValidationError{Field: "employee_code", Message: "is required"})
	} else if !validator.IsValidEmployeeCode(r.EmployeeCode) {
		errs = append(errs, validator.ValidationError{Field: "employee_code", Message: "has an invalid format"})
	}
	errs = append(errs, validator.ValidatePeriod(r.PeriodMonth, r.PeriodYear)...)

	if len(errs) > 0 {
		return errs
	}
	return nil
}

type ProcessPeriodRequest struct {
	PeriodMonth int `json:"period_month"`
	PeriodYear  int `json:"period_year"`
}

func (r *ProcessPeriodRequest) Validate() error {
	if errs := validator.ValidatePeriod(r.PeriodMonth, r.PeriodYear); len(errs) > 0 {
		return errs
	}
	return nil
}

// ========== RECORD DTOs ==========

type PayrollRecordResponse struct {
	ID           string `json:"id"`
	EmployeeCode string `json:"employee_code"`
	PeriodMonth  int    `json:"period_month"`
	PeriodYear   int    `json:"period_year"`

	TotalDays    int `json:"total_days"`
	PresentDays  int `json:"present_days"`
	EligibleDays int `json:"eligible_days"`

	AdjustedGross decimal.Decimal `json:"adjusted_gross"`

	TargetSales     decimal.Decimal `json:"target_sales"`
	ActualSales     decimal.Decimal `json:"actual_sales"`
	SalesPercentage decimal.Decimal `json:"sales_percentage"`
	SalesDeduction  decimal.Decimal `json:"sales_deduction"`
	SalesIncentive  decimal.Decimal `json:"sales_incentive"`

	Basic            decimal.Decimal `json:"basic"`
	HRA              decimal.Decimal `json:"hra"`
	DA               decimal.Decimal `json:"da"`
	SpecialAllowance decimal.Decimal `json:"special_allowance"`
	VariablePay      decimal.Decimal `json:"variable_pay"`

	EPFEmployee             decimal.Decimal `json:"epf_employee"`
	ESICEmployee            decimal.Decimal `json:"esic_employee"`
	ProfessionalTax         decimal.Decimal `json:"professional_tax"`
	TDS                     decimal.Decimal `json:"tds"`
	TotalEmployeeDeductions decimal.Decimal `json:"total_employee_deductions"`

	EPFEmployer                decimal.Decimal `json:"epf_employer"`
	ESICEmployer               decimal.Decimal `json:"esic_employer"`
	Gratuity                   decimal.Decimal `json:"gratuity"`
	TotalEmployerContributions decimal.Decimal `json:"total_employer_contributions"`

	NetTakeHome decimal.Decimal `json:"net_take_home"`
	MonthlyCTC  decimal.Decimal `json:"monthly_ctc"`
	AnnualCTC   decimal.Decimal `json:"annual_ctc"`

	PerformanceStatus string `json:"performance_status"`
	PerformanceColor  string `json:"performance_color"`

	Status      string  `json:"status"`
	SubmittedBy *string `json:"submitted_by,omitempty"`
	SubmittedAt *string `json:"submitted_at,omitempty"`
	ApprovedBy  *string `json:"approved_by,omitempty"`
	ApprovedAt  *string `json:"approved_at,omitempty"`
	LockedBy    *string `json:"locked_by,omitempty"`
	LockedAt    *string `json:"locked_at,omitempty"`
	PaidBy      *string `json:"paid_by,omitempty"`
	PaidAt      *string `json:"paid_at,omitempty"`

	Version int64 `json:"version"`

	ManualAdjustments []ManualAdjustmentResponse `json:"manual_adjustments,omitempty"`
}

type ManualAdjustmentResponse struct {
	ID         string          `json:"id"`
	Field      string          `json:"field"`
	OldValue   decimal.Decimal `json:"old_value"`
	NewValue   decimal.Decimal `json:"new_value"`
	Reason     string          `json:"reason"`
	AdjustedBy string          `json:"adjusted_by"`
	CreatedAt  string          `json:"created_at"`
}

type PayrollFilter struct {
	PeriodMonth  *int    `json:"period_month,omitempty"`
	PeriodYear   *int    `json:"period_year,omitempty"`
	Status       *string `json:"status,omitempty"`
	EmployeeCode *string `json:"employee_code,omitempty"`
	Page         int     `json:"page"`
	Limit        int     `json:"limit"`
}

type ListPayrollRecordResponse struct {
	Data       []PayrollRecordResponse `json:"data"`
	TotalCount int64                   `json:"total_count"`
	Page       int                     `json:"page"`
	Limit      int                     `json:"limit"`
}

// ========== BATCH DTOs ==========

type EmployeeOutcome struct {
	EmployeeCode string           `json:"employee_code"`
	Succeeded    bool             `json:"succeeded"`
	ErrorKind    string           `json:"error_kind,omitempty"`
	Error        string           `json:"error,omitempty"`
	NetTakeHome  *decimal.Decimal `json:"net_take_home,omitempty"`
}

type BatchReportResponse struct {
	RunID       string            `json:"run_id"`
	PeriodMonth int               `json:"period_month"`
	PeriodYear  int               `json:"period_year"`
	Processed   int               `json:"processed"`
	Succeeded   int               `json:"succeeded"`
	Failed      int               `json:"failed"`
	Results     []EmployeeOutcome `json:"results"`
}

// ========== WORKFLOW DTOs ==========

type WorkflowRequest struct {
	EmployeeCode string `json:"employee_code"`
	PeriodMonth  int    `json:"period_month"`
	PeriodYear   int    `json:"period_year"`
}

func (r *WorkflowRequest) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.EmployeeCode) {
		errs = append(errs, validator.ValidationError{Field: "employee_code", Message: "is required"})
	} else if !validator.IsValidEmployeeCode(r.EmployeeCode) {
		errs = append(errs, validator.ValidationError{Field: "employee_code", Message: "has an invalid format"})
	}
	errs = append(errs, validator.ValidatePeriod(r.PeriodMonth, r.PeriodYear)...)

	if len(errs) > 0 {
		return errs
	}
	return nil
}

type LockPeriodRequest struct {
	PeriodMonth int `json:"period_month"`
	PeriodYear  int `json:"period_year"`
}

func (r *LockPeriodRequest) Validate() error {
	if errs := validator.ValidatePeriod(r.PeriodMonth, r.PeriodYear); len(errs) > 0 {
		return errs
	}
	return nil
}

type LockPeriodResponse struct {
	PeriodMonth int   `json:"period_month"`
	PeriodYear  int   `json:"period_year"`
	LockedCount int64 `json:"locked_count"`
}

type MarkPaidRequest struct {
	EmployeeCodes []string `json:"employee_codes"`
	PeriodMonth   int      `json:"period_month"`
	PeriodYear    int      `json:"period_year"`
}

func (r *MarkPaidRequest) Validate() error {
	var errs validator.ValidationErrors

	if len(r.EmployeeCodes) == 0 {
		errs = append(errs, validator.ValidationError{Field: "employee_codes", Message: "at least one employee is required"})
	}
	for _, code := range r.EmployeeCodes {
		if !validator.IsValidEmployeeCode(code) {
			errs = append(errs, validator.ValidationError{Field: "employee_codes", Message: "contains an invalid employee code"})
			break
		}
	}
	errs = append(errs, validator.ValidatePeriod(r.PeriodMonth, r.PeriodYear)...)

	if len(errs) > 0 {
		return errs
	}
	return nil
}

type MarkPaidResponse struct {
	PaidCount int64 `json:"paid_count"`
}

// ========== ADJUSTMENT DTOs ==========

type ManualAdjustmentRequest struct {
	EmployeeCode string          `json:"employee_code"`
	PeriodMonth  int             `json:"period_month"`
	PeriodYear   int             `json:"period_year"`
	Field        string          `json:"field"`
	NewValue     decimal.Decimal `json:"new_value"`
	Reason       string          `json:"reason"`
}

func (r *ManualAdjustmentRequest) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.EmployeeCode) {
		errs = append(errs, validator.ValidationError{Field: "employee_code", Message: "is required"})
	}
	if !IsAdjustableField(r.Field) {
		errs = append(errs, validator.ValidationError{Field: "field", Message: "is not manually adjustable"})
	}
	if r.NewValue.IsNegative() {
		errs = append(errs, validator.ValidationError{Field: "new_value", Message: "must be non-negative"})
	}
	if validator.IsEmpty(r.Reason) {
		errs = append(errs, validator.ValidationError{Field: "reason", Message: "is required"})
	}
	errs = append(errs, validator.ValidatePeriod(r.PeriodMonth, r.PeriodYear)...)

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// ========== SUMMARY / ANALYTICS DTOs ==========

type PeriodSummaryResponse struct {
	PeriodMonth                int             `json:"period_month"`
	PeriodYear                 int             `json:"period_year"`
	EmployeeCount              int             `json:"employee_count"`
	TotalAdjustedGross         decimal.Decimal `json:"total_adjusted_gross"`
	TotalNetTakeHome           decimal.Decimal `json:"total_net_take_home"`
	TotalMonthlyCTC            decimal.Decimal `json:"total_monthly_ctc"`
	TotalAnnualCTC             decimal.Decimal `json:"total_annual_ctc"`
	TotalEmployeeDeductions    decimal.Decimal `json:"total_employee_deductions"`
	TotalEmployerContributions decimal.Decimal `json:"total_employer_contributions"`
	TotalEPFEmployee           decimal.Decimal `json:"total_epf_employee"`
	TotalESICEmployee          decimal.Decimal `json:"total_esic_employee"`
	TotalProfessionalTax       decimal.Decimal `json:"total_professional_tax"`
	TotalTDS                   decimal.Decimal `json:"total_tds"`
	DraftCount                 int             `json:"draft_count"`
	SubmittedCount             int             `json:"submitted_count"`
	ApprovedCount              int             `json:"approved_count"`
	LockedCount                int             `json:"locked_count"`
	PaidCount                  int             `json:"paid_count"`
}

type PerformanceGroupResponse struct {
	PerformanceStatus   string          `json:"performance_status"`
	PerformanceColor    string          `json:"performance_color"`
	EmployeeCount       int             `json:"employee_count"`
	AvgSalesPercentage  decimal.Decimal `json:"avg_sales_percentage"`
	TotalSalesDeduction decimal.Decimal `json:"total_sales_deduction"`
	TotalSalesIncentive decimal.Decimal `json:"total_sales_incentive"`
}

type PerformanceAnalyticsResponse struct {
	PeriodMonth int                        `json:"period_month"`
	PeriodYear  int                        `json:"period_year"`
	Groups      []PerformanceGroupResponse `json:"groups"`
}
