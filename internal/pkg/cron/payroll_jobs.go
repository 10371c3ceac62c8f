package cron

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-chi/jwtauth/v5"

	"github.com/veritas-hr/payroll-engine-go/internal/domain/payroll"
	"github.com/veritas-hr/payroll-engine-go/internal/pkg/jwt"
)

// PayrollJobs runs the month-end automation: compute the previous period for
// every employee, then sweep whatever is still open into locked.
type PayrollJobs struct {
	payrollService payroll.PayrollService
	payrollRepo    payroll.PayrollRepository
	jwtService     jwt.Service
	logger         *slog.Logger
	autoRunDay     int
}

func NewPayrollJobs(
	payrollService payroll.PayrollService,
	payrollRepo payroll.PayrollRepository,
	jwtService jwt.Service,
	logger *slog.Logger,
	autoRunDay int,
) *PayrollJobs {
	return &PayrollJobs{
		payrollService: payrollService,
		payrollRepo:    payrollRepo,
		jwtService:     jwtService,
		logger:         logger,
		autoRunDay:     autoRunDay,
	}
}

func (j *PayrollJobs) RegisterJobs(scheduler *Scheduler) {
	scheduler.AddJob("auto_run_previous_period", 1*time.Hour, j.AutoRunPreviousPeriod)
}

// systemContext builds a context carrying a short-lived system token, so the
// service layer resolves the actor the same way it does for HTTP callers.
func (j *PayrollJobs) systemContext(ctx context.Context) (context.Context, error) {
	tokenStr, _, err := j.jwtService.GenerateAccessToken("system", "system")
	if err != nil {
		return nil, fmt.Errorf("failed to mint system token: %w", err)
	}
	token, err := j.jwtService.JWTAuth().Decode(tokenStr)
	if err != nil {
		return nil, fmt.Errorf("failed to decode system token: %w", err)
	}
	return jwtauth.NewContext(ctx, token, nil), nil
}

func previousPeriod(now time.Time) (month, year int) {
	prev := now.AddDate(0, -1, 0)
	return int(prev.Month()), prev.Year()
}

func (j *PayrollJobs) AutoRunPreviousPeriod(ctx context.Context) error {
	now := time.Now().UTC()

	// Only fire on the configured day, in the first hour
	if now.Day() != j.autoRunDay || now.Hour() != 0 {
		return nil
	}

	month, year := previousPeriod(now)

	sysCtx, err := j.systemContext(ctx)
	if err != nil {
		return err
	}

	report, err := j.payrollService.ProcessPeriodPayroll(sysCtx, payroll.ProcessPeriodRequest{
		PeriodMonth: month,
		PeriodYear:  year,
	})
	if err != nil {
		return fmt.Errorf("failed to process period %d/%d: %w", month, year, err)
	}

	lockedCount, err := j.payrollRepo.LockPeriod(ctx, month, year, "system")
	if err != nil {
		return fmt.Errorf("failed to lock period %d/%d: %w", month, year, err)
	}

	j.logger.Info("payroll auto-run finished",
		"run_id", report.RunID,
		"period_month", month,
		"period_year", year,
		"succeeded", report.Succeeded,
		"failed", report.Failed,
		"locked_count", lockedCount,
	)

	return nil
}
