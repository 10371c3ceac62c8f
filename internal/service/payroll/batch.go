package payroll

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/veritas-hr/payroll-engine-go/internal/domain/attendance"
	"github.com/veritas-hr/payroll-engine-go/internal/domain/employee"
	"github.com/veritas-hr/payroll-engine-go/internal/domain/payroll"
)

func newID() string {
	return uuid.NewString()
}

// errorKind buckets a failure for the batch report so callers can triage
// without parsing error strings.
func errorKind(err error) string {
	switch {
	case errors.Is(err, employee.ErrEmployeeNotFound):
		return "employee_not_found"
	case errors.Is(err, attendance.ErrAttendanceNotFound):
		return "attendance_missing"
	case errors.Is(err, attendance.ErrAttendanceNotApproved):
		return "attendance_not_approved"
	case errors.Is(err, payroll.ErrInvalidPeriod):
		return "invalid_period"
	case errors.Is(err, payroll.ErrInvalidAttendance):
		return "invalid_attendance"
	case errors.Is(err, payroll.ErrRecordLocked):
		return "record_locked"
	case errors.Is(err, payroll.ErrVersionConflict):
		return "version_conflict"
	default:
		return "internal"
	}
}

// ProcessPeriodPayroll computes payroll for every current employee of the
// period. Each employee runs independently; one failure never aborts the
// batch. The report lists every employee in master order.
func (s *PayrollServiceImpl) ProcessPeriodPayroll(ctx context.Context, req payroll.ProcessPeriodRequest) (payroll.BatchReportResponse, error) {
	if err := req.Validate(); err != nil {
		return payroll.BatchReportResponse{}, err
	}
	if _, err := getClaimsFromContext(ctx); err != nil {
		return payroll.BatchReportResponse{}, err
	}

	employees, err := s.employeeRepo.ListCurrent(ctx)
	if err != nil {
		return payroll.BatchReportResponse{}, err
	}

	runID := newID()
	s.logger.InfoContext(ctx, "payroll batch started",
		slog.String("run_id", runID),
		slog.Int("period_month", req.PeriodMonth),
		slog.Int("period_year", req.PeriodYear),
		slog.Int("employees", len(employees)),
	)

	results := make([]payroll.EmployeeOutcome, len(employees))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)
	for i, emp := range employees {
		i, emp := i, emp
		g.Go(func() error {
			saved, err := s.processOne(gctx, emp.EmployeeCode, req.PeriodMonth, req.PeriodYear)
			if err != nil {
				kind := errorKind(err)
				s.logger.WarnContext(gctx, "payroll computation failed",
					slog.String("employee_code", emp.EmployeeCode),
					slog.Int("period_month", req.PeriodMonth),
					slog.Int("period_year", req.PeriodYear),
					slog.String("error_kind", kind),
					slog.String("error", err.Error()),
				)
				results[i] = payroll.EmployeeOutcome{
					EmployeeCode: emp.EmployeeCode,
					ErrorKind:    kind,
					Error:        err.Error(),
				}
				return nil
			}
			net := saved.NetTakeHome
			results[i] = payroll.EmployeeOutcome{
				EmployeeCode: emp.EmployeeCode,
				Succeeded:    true,
				NetTakeHome:  &net,
			}
			return nil
		})
	}
	// Workers swallow per-employee errors, so Wait only reports ctx
	// cancellation.
	if err := g.Wait(); err != nil {
		return payroll.BatchReportResponse{}, err
	}

	report := payroll.BatchReportResponse{
		RunID:       runID,
		PeriodMonth: req.PeriodMonth,
		PeriodYear:  req.PeriodYear,
		Processed:   len(results),
		Results:     results,
	}
	for _, r := range results {
		if r.Succeeded {
			report.Succeeded++
		} else {
			report.Failed++
		}
	}

	s.logger.InfoContext(ctx, "payroll batch finished",
		slog.String("run_id", runID),
		slog.Int("succeeded", report.Succeeded),
		slog.Int("failed", report.Failed),
	)

	return report, nil
}
