package attendance

import (
	"time"

	"github.com/shopspring/decimal"
)

// Record is the per-employee monthly attendance sheet produced by the
// attendance capture service. Payroll may only consume approved records.
type Record struct {
	ID           string
	EmployeeCode string
	PeriodMonth  int
	PeriodYear   int
	TotalDays    int
	PresentDays  int
	EligibleDays int // present days plus paid leave, capped by total days upstream
	ActualSales  decimal.Decimal
	Status       ApprovalStatus
	ApprovedBy   *string
	ApprovedAt   *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type ApprovalStatus string

const (
	StatusWaitingApproval ApprovalStatus = "waiting_approval"
	StatusApproved        ApprovalStatus = "approved"
	StatusRejected        ApprovalStatus = "rejected"
)
