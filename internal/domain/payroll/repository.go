package payroll

import "context"

// PayrollRepository defines data access for payroll records. Records are
// never deleted; the table is the audit trail of what was paid. Writes that
// overwrite computed fields are guarded by status and version so a
// computation racing a lock sweep fails instead of resurrecting a locked
// period.
type PayrollRepository interface {
	GetByEmployeePeriod(ctx context.Context, employeeCode string, month, year int) (PayrollRecord, error)

	// SaveComputed inserts the record or overwrites the computed fields of an
	// existing one. The update arm only fires while the stored status is
	// computable and the stored version equals record.Version; otherwise it
	// returns ErrRecordLocked or ErrVersionConflict.
	SaveComputed(ctx context.Context, record PayrollRecord) (PayrollRecord, error)

	ListRecords(ctx context.Context, filter PayrollFilter) ([]PayrollRecord, int64, error)

	// Workflow transitions. Each fires only from the expected prior status
	// and stamps the actor and time; a record in any other status yields
	// ErrInvalidTransition.
	SubmitRecord(ctx context.Context, employeeCode string, month, year int, actor string) error
	ApproveRecord(ctx context.Context, employeeCode string, month, year int, actor string) error

	// LockPeriod moves every draft/submitted/approved record of the period to
	// locked in one conditional update and reports how many rows moved.
	// Already locked or paid records are left alone, so the sweep is
	// idempotent.
	LockPeriod(ctx context.Context, month, year int, actor string) (int64, error)

	// MarkPaid confirms disbursement for locked records.
	MarkPaid(ctx context.Context, employeeCodes []string, month, year int, actor string) (int64, error)

	// ApplyAdjustment transactionally appends the audit entry and writes the
	// corrected record (same status/version guard as SaveComputed).
	ApplyAdjustment(ctx context.Context, record PayrollRecord, adj ManualAdjustment) (PayrollRecord, error)
	GetAdjustments(ctx context.Context, employeeCode string, month, year int) ([]ManualAdjustment, error)

	GetPeriodSummary(ctx context.Context, month, year int) (PeriodSummaryResponse, error)
	GetPerformanceAnalytics(ctx context.Context, month, year int) ([]PerformanceGroupResponse, error)
}
