package postgresql

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/veritas-hr/payroll-engine-go/internal/domain/attendance"
	"github.com/veritas-hr/payroll-engine-go/internal/pkg/database"
)

type attendanceRepository struct {
	db *database.DB
}

func NewAttendanceRepository(db *database.DB) attendance.AttendanceRepository {
	return &attendanceRepository{db: db}
}

func (r *attendanceRepository) GetByEmployeePeriod(ctx context.Context, employeeCode string, month, year int) (attendance.Record, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT id, employee_code, period_month, period_year,
			   total_days, present_days, eligible_days, actual_sales,
			   status, approved_by, approved_at, created_at, updated_at
		FROM attendance_records
		WHERE employee_code = $1 AND period_month = $2 AND period_year = $3
	`

	var a attendance.Record
	err := q.QueryRow(ctx, query, employeeCode, month, year).Scan(
		&a.ID, &a.EmployeeCode, &a.PeriodMonth, &a.PeriodYear,
		&a.TotalDays, &a.PresentDays, &a.EligibleDays, &a.ActualSales,
		&a.Status, &a.ApprovedBy, &a.ApprovedAt, &a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return attendance.Record{}, attendance.ErrAttendanceNotFound
		}
		return attendance.Record{}, fmt.Errorf("failed to get attendance record: %w", err)
	}

	return a, nil
}
