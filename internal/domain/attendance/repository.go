package attendance

import "context"

// AttendanceRepository is read-only here; capture and approval live in the
// attendance service.
type AttendanceRepository interface {
	GetByEmployeePeriod(ctx context.Context, employeeCode string, month, year int) (Record, error)
}
