package attendance

import "errors"

var (
	ErrAttendanceNotFound    = errors.New("attendance record not found for this period")
	ErrAttendanceNotApproved = errors.New("attendance record not yet approved")
)
