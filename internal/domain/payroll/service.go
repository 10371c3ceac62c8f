package payroll

import "context"

// PayrollService is the operation surface of the computation engine. The
// actor of every mutating operation is taken from the caller's access-token
// claims.
type PayrollService interface {
	ProcessEmployeePayroll(ctx context.Context, req ProcessEmployeeRequest) (PayrollRecordResponse, error)
	ProcessPeriodPayroll(ctx context.Context, req ProcessPeriodRequest) (BatchReportResponse, error)

	GetEmployeePayroll(ctx context.Context, employeeCode string, month, year int) (PayrollRecordResponse, error)
	ListPayrollRecords(ctx context.Context, filter PayrollFilter) (ListPayrollRecordResponse, error)

	SubmitRecord(ctx context.Context, req WorkflowRequest) error
	ApproveRecord(ctx context.Context, req WorkflowRequest) error
	LockPeriod(ctx context.Context, req LockPeriodRequest) (LockPeriodResponse, error)
	MarkPaid(ctx context.Context, req MarkPaidRequest) (MarkPaidResponse, error)

	AdjustRecord(ctx context.Context, req ManualAdjustmentRequest) (PayrollRecordResponse, error)

	GetPeriodSummary(ctx context.Context, month, year int) (PeriodSummaryResponse, error)
	GetPerformanceAnalytics(ctx context.Context, month, year int) (PerformanceAnalyticsResponse, error)

	GeneratePayslipPDF(ctx context.Context, employeeCode string, month, year int) (string, error)
}
