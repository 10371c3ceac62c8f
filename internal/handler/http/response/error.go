package response

import (
	"errors"
	"net/http"

	"github.com/veritas-hr/payroll-engine-go/internal/domain/attendance"
	"github.com/veritas-hr/payroll-engine-go/internal/domain/employee"
	"github.com/veritas-hr/payroll-engine-go/internal/domain/payroll"
	"github.com/veritas-hr/payroll-engine-go/internal/pkg/validator"
)

// HandleError maps domain errors to HTTP responses
func HandleError(w http.ResponseWriter, err error) {
	// Check if it's a validation error
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		ValidationError(w, validationErrs.ToMap())
		return
	}

	switch {
	// Employee domain errors
	case errors.Is(err, employee.ErrEmployeeNotFound):
		NotFound(w, "Employee not found")

	// Attendance domain errors
	case errors.Is(err, attendance.ErrAttendanceNotFound):
		NotFound(w, "Attendance record not found for this period")
	case errors.Is(err, attendance.ErrAttendanceNotApproved):
		Conflict(w, "Attendance record is not approved yet")

	// Payroll domain errors
	case errors.Is(err, payroll.ErrPayrollRecordNotFound):
		NotFound(w, "Payroll record not found")
	case errors.Is(err, payroll.ErrRecordLocked):
		Conflict(w, "Payroll record is locked or paid")
	case errors.Is(err, payroll.ErrVersionConflict):
		Conflict(w, "Payroll record was modified concurrently, retry")
	case errors.Is(err, payroll.ErrInvalidTransition):
		Conflict(w, "Payroll record is not in a state that allows this transition")
	case errors.Is(err, payroll.ErrInvalidPeriod):
		BadRequest(w, "Attendance period has zero working days", nil)
	case errors.Is(err, payroll.ErrInvalidAttendance):
		BadRequest(w, "Eligible days exceed total days", nil)
	case errors.Is(err, payroll.ErrUnknownAdjustmentField):
		BadRequest(w, "Field is not manually adjustable", nil)

	// Default
	default:
		InternalServerError(w, "An unexpected error occurred")
	}
}
