package payroll

import "errors"

var (
	ErrPayrollRecordNotFound  = errors.New("payroll record not found")
	ErrRecordLocked           = errors.New("payroll record is locked or paid, cannot modify")
	ErrVersionConflict        = errors.New("payroll record was modified concurrently")
	ErrInvalidPeriod          = errors.New("attendance period has zero working days")
	ErrInvalidAttendance      = errors.New("eligible days exceed total days, correct attendance upstream")
	ErrInvalidTransition      = errors.New("payroll record is not in a state that allows this transition")
	ErrUnknownAdjustmentField = errors.New("field is not manually adjustable")
)
