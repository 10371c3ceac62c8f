package payroll

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-chi/jwtauth/v5"

	"github.com/veritas-hr/payroll-engine-go/internal/domain/attendance"
	"github.com/veritas-hr/payroll-engine-go/internal/domain/employee"
	"github.com/veritas-hr/payroll-engine-go/internal/domain/payroll"
	"github.com/veritas-hr/payroll-engine-go/internal/pkg/payslip"
)

type PayrollServiceImpl struct {
	payrollRepo    payroll.PayrollRepository
	employeeRepo   employee.EmployeeRepository
	attendanceRepo attendance.AttendanceRepository
	payslips       payslip.Renderer
	logger         *slog.Logger
	workers        int
}

func NewPayrollService(
	payrollRepo payroll.PayrollRepository,
	employeeRepo employee.EmployeeRepository,
	attendanceRepo attendance.AttendanceRepository,
	payslips payslip.Renderer,
	logger *slog.Logger,
	workers int,
) payroll.PayrollService {
	if workers <= 0 {
		workers = 4
	}
	return &PayrollServiceImpl{
		payrollRepo:    payrollRepo,
		employeeRepo:   employeeRepo,
		attendanceRepo: attendanceRepo,
		payslips:       payslips,
		logger:         logger,
		workers:        workers,
	}
}

// Helper to get the acting user from JWT context
func getClaimsFromContext(ctx context.Context) (userID string, err error) {
	_, claims, err := jwtauth.FromContext(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to extract claims from context: %w", err)
	}

	userID, ok := claims["user_id"].(string)
	if !ok || userID == "" {
		return "", fmt.Errorf("user_id claim is missing or invalid")
	}

	return userID, nil
}

// ========== PROCESSING ==========

// computeRecord runs the full pipeline for one employee and period: attendance
// proration, performance evaluation, component allocation, statutory
// deductions, employer contributions and settlement. It is pure except for the
// reads; the returned record carries the version of the stored record it
// intends to replace.
func (s *PayrollServiceImpl) computeRecord(ctx context.Context, emp employee.Employee, month, year int) (payroll.PayrollRecord, error) {
	att, err := s.attendanceRepo.GetByEmployeePeriod(ctx, emp.EmployeeCode, month, year)
	if err != nil {
		return payroll.PayrollRecord{}, err
	}
	if att.Status != attendance.StatusApproved {
		return payroll.PayrollRecord{}, attendance.ErrAttendanceNotApproved
	}

	adjustedGross, err := payroll.AdjustGrossForAttendance(emp.BaseSalary, att.TotalDays, att.EligibleDays)
	if err != nil {
		return payroll.PayrollRecord{}, err
	}

	perf := payroll.EvaluatePerformance(emp.Category, adjustedGross, emp.TargetSales, att.ActualSales, emp.Rules)
	comps := payroll.AllocateComponents(emp.Category, adjustedGross, perf.SalesDeduction, perf.SalesIncentive)
	deductions := payroll.CalculateEmployeeDeductions(comps.Basic, adjustedGross, emp.ProfessionalTax, emp.TDS)
	contributions := payroll.CalculateEmployerContributions(comps.Basic, adjustedGross)
	settlement := payroll.Settle(adjustedGross, comps.VariablePay, deductions.Total, perf.SalesDeduction, contributions.Total)

	rec := payroll.PayrollRecord{
		EmployeeCode: emp.EmployeeCode,
		PeriodMonth:  month,
		PeriodYear:   year,

		TotalDays:    att.TotalDays,
		PresentDays:  att.PresentDays,
		EligibleDays: att.EligibleDays,

		AdjustedGross: adjustedGross,

		TargetSales:     emp.TargetSales,
		ActualSales:     att.ActualSales,
		SalesPercentage: perf.SalesPercentage,
		SalesDeduction:  perf.SalesDeduction,
		SalesIncentive:  perf.SalesIncentive,

		Basic:            comps.Basic,
		HRA:              comps.HRA,
		DA:               comps.DA,
		SpecialAllowance: comps.SpecialAllowance,
		VariablePay:      comps.VariablePay,

		EPFEmployee:             deductions.EPF,
		ESICEmployee:            deductions.ESIC,
		ProfessionalTax:         deductions.ProfessionalTax,
		TDS:                     deductions.TDS,
		TotalEmployeeDeductions: deductions.Total,

		EPFEmployer:                contributions.EPF,
		ESICEmployer:               contributions.ESIC,
		Gratuity:                   contributions.Gratuity,
		TotalEmployerContributions: contributions.Total,

		NetTakeHome: settlement.NetTakeHome,
		MonthlyCTC:  settlement.MonthlyCTC,
		AnnualCTC:   settlement.AnnualCTC,

		PerformanceStatus: perf.Status,
		PerformanceColor:  perf.Color,
	}

	// Recomputation replaces computed fields only. Workflow state and the
	// version token come from the stored record so the guarded write can
	// detect a concurrent change.
	existing, err := s.payrollRepo.GetByEmployeePeriod(ctx, emp.EmployeeCode, month, year)
	if err != nil {
		if !errors.Is(err, payroll.ErrPayrollRecordNotFound) {
			return payroll.PayrollRecord{}, err
		}
		return rec, nil
	}
	if !existing.Status.Computable() {
		return payroll.PayrollRecord{}, payroll.ErrRecordLocked
	}
	rec.Version = existing.Version

	return rec, nil
}

func (s *PayrollServiceImpl) processOne(ctx context.Context, employeeCode string, month, year int) (payroll.PayrollRecord, error) {
	emp, err := s.employeeRepo.GetCurrentByCode(ctx, employeeCode)
	if err != nil {
		return payroll.PayrollRecord{}, err
	}

	rec, err := s.computeRecord(ctx, emp, month, year)
	if err != nil {
		return payroll.PayrollRecord{}, err
	}

	saved, err := s.payrollRepo.SaveComputed(ctx, rec)
	if err != nil {
		return payroll.PayrollRecord{}, err
	}

	return saved, nil
}

func (s *PayrollServiceImpl) ProcessEmployeePayroll(ctx context.Context, req payroll.ProcessEmployeeRequest) (payroll.PayrollRecordResponse, error) {
	if err := req.Validate(); err != nil {
		return payroll.PayrollRecordResponse{}, err
	}
	if _, err := getClaimsFromContext(ctx); err != nil {
		return payroll.PayrollRecordResponse{}, err
	}

	saved, err := s.processOne(ctx, req.EmployeeCode, req.PeriodMonth, req.PeriodYear)
	if err != nil {
		s.logger.WarnContext(ctx, "payroll computation failed",
			slog.String("employee_code", req.EmployeeCode),
			slog.Int("period_month", req.PeriodMonth),
			slog.Int("period_year", req.PeriodYear),
			slog.String("error_kind", errorKind(err)),
			slog.String("error", err.Error()),
		)
		return payroll.PayrollRecordResponse{}, err
	}

	s.logger.InfoContext(ctx, "payroll computed",
		slog.String("employee_code", saved.EmployeeCode),
		slog.Int("period_month", saved.PeriodMonth),
		slog.Int("period_year", saved.PeriodYear),
		slog.String("net_take_home", saved.NetTakeHome.String()),
	)

	return s.toResponse(ctx, saved)
}

// ========== READS ==========

func (s *PayrollServiceImpl) GetEmployeePayroll(ctx context.Context, employeeCode string, month, year int) (payroll.PayrollRecordResponse, error) {
	rec, err := s.payrollRepo.GetByEmployeePeriod(ctx, employeeCode, month, year)
	if err != nil {
		return payroll.PayrollRecordResponse{}, err
	}
	return s.toResponse(ctx, rec)
}

func (s *PayrollServiceImpl) ListPayrollRecords(ctx context.Context, filter payroll.PayrollFilter) (payroll.ListPayrollRecordResponse, error) {
	if filter.Limit <= 0 {
		filter.Limit = 20
	}
	if filter.Page <= 0 {
		filter.Page = 1
	}

	records, total, err := s.payrollRepo.ListRecords(ctx, filter)
	if err != nil {
		return payroll.ListPayrollRecordResponse{}, err
	}

	data := make([]payroll.PayrollRecordResponse, 0, len(records))
	for _, rec := range records {
		data = append(data, toRecordResponse(rec, nil))
	}

	return payroll.ListPayrollRecordResponse{
		Data:       data,
		TotalCount: total,
		Page:       filter.Page,
		Limit:      filter.Limit,
	}, nil
}

// ========== WORKFLOW ==========

func (s *PayrollServiceImpl) SubmitRecord(ctx context.Context, req payroll.WorkflowRequest) error {
	if err := req.Validate(); err != nil {
		return err
	}
	actor, err := getClaimsFromContext(ctx)
	if err != nil {
		return err
	}

	return s.payrollRepo.SubmitRecord(ctx, req.EmployeeCode, req.PeriodMonth, req.PeriodYear, actor)
}

func (s *PayrollServiceImpl) ApproveRecord(ctx context.Context, req payroll.WorkflowRequest) error {
	if err := req.Validate(); err != nil {
		return err
	}
	actor, err := getClaimsFromContext(ctx)
	if err != nil {
		return err
	}

	return s.payrollRepo.ApproveRecord(ctx, req.EmployeeCode, req.PeriodMonth, req.PeriodYear, actor)
}

func (s *PayrollServiceImpl) LockPeriod(ctx context.Context, req payroll.LockPeriodRequest) (payroll.LockPeriodResponse, error) {
	if err := req.Validate(); err != nil {
		return payroll.LockPeriodResponse{}, err
	}
	actor, err := getClaimsFromContext(ctx)
	if err != nil {
		return payroll.LockPeriodResponse{}, err
	}

	count, err := s.payrollRepo.LockPeriod(ctx, req.PeriodMonth, req.PeriodYear, actor)
	if err != nil {
		return payroll.LockPeriodResponse{}, err
	}

	s.logger.InfoContext(ctx, "payroll period locked",
		slog.Int("period_month", req.PeriodMonth),
		slog.Int("period_year", req.PeriodYear),
		slog.Int64("locked_count", count),
		slog.String("actor", actor),
	)

	return payroll.LockPeriodResponse{
		PeriodMonth: req.PeriodMonth,
		PeriodYear:  req.PeriodYear,
		LockedCount: count,
	}, nil
}

func (s *PayrollServiceImpl) MarkPaid(ctx context.Context, req payroll.MarkPaidRequest) (payroll.MarkPaidResponse, error) {
	if err := req.Validate(); err != nil {
		return payroll.MarkPaidResponse{}, err
	}
	actor, err := getClaimsFromContext(ctx)
	if err != nil {
		return payroll.MarkPaidResponse{}, err
	}

	count, err := s.payrollRepo.MarkPaid(ctx, req.EmployeeCodes, req.PeriodMonth, req.PeriodYear, actor)
	if err != nil {
		return payroll.MarkPaidResponse{}, err
	}

	return payroll.MarkPaidResponse{PaidCount: count}, nil
}

// ========== ADJUSTMENTS ==========

func (s *PayrollServiceImpl) AdjustRecord(ctx context.Context, req payroll.ManualAdjustmentRequest) (payroll.PayrollRecordResponse, error) {
	if err := req.Validate(); err != nil {
		return payroll.PayrollRecordResponse{}, err
	}
	actor, err := getClaimsFromContext(ctx)
	if err != nil {
		return payroll.PayrollRecordResponse{}, err
	}

	rec, err := s.payrollRepo.GetByEmployeePeriod(ctx, req.EmployeeCode, req.PeriodMonth, req.PeriodYear)
	if err != nil {
		return payroll.PayrollRecordResponse{}, err
	}
	if !rec.Status.Computable() {
		return payroll.PayrollRecordResponse{}, payroll.ErrRecordLocked
	}

	oldValue, ok := rec.FieldValue(req.Field)
	if !ok {
		return payroll.PayrollRecordResponse{}, payroll.ErrUnknownAdjustmentField
	}
	rec.SetField(req.Field, req.NewValue)

	// Re-derive the dependent totals so the CTC identity keeps holding after
	// the correction.
	rec.TotalEmployeeDeductions = rec.EPFEmployee.Add(rec.ESICEmployee).
		Add(rec.ProfessionalTax).Add(rec.TDS)
	settlement := payroll.Settle(rec.AdjustedGross, rec.VariablePay,
		rec.TotalEmployeeDeductions, rec.SalesDeduction, rec.TotalEmployerContributions)
	rec.NetTakeHome = settlement.NetTakeHome
	rec.MonthlyCTC = settlement.MonthlyCTC
	rec.AnnualCTC = settlement.AnnualCTC

	adj := payroll.ManualAdjustment{
		ID:           newID(),
		EmployeeCode: req.EmployeeCode,
		PeriodMonth:  req.PeriodMonth,
		PeriodYear:   req.PeriodYear,
		Field:        req.Field,
		OldValue:     oldValue,
		NewValue:     req.NewValue,
		Reason:       req.Reason,
		AdjustedBy:   actor,
	}

	saved, err := s.payrollRepo.ApplyAdjustment(ctx, rec, adj)
	if err != nil {
		return payroll.PayrollRecordResponse{}, err
	}

	s.logger.InfoContext(ctx, "payroll record adjusted",
		slog.String("employee_code", req.EmployeeCode),
		slog.String("field", req.Field),
		slog.String("old_value", oldValue.String()),
		slog.String("new_value", req.NewValue.String()),
		slog.String("actor", actor),
	)

	return s.toResponse(ctx, saved)
}

// ========== SUMMARY / ANALYTICS ==========

func (s *PayrollServiceImpl) GetPeriodSummary(ctx context.Context, month, year int) (payroll.PeriodSummaryResponse, error) {
	return s.payrollRepo.GetPeriodSummary(ctx, month, year)
}

func (s *PayrollServiceImpl) GetPerformanceAnalytics(ctx context.Context, month, year int) (payroll.PerformanceAnalyticsResponse, error) {
	groups, err := s.payrollRepo.GetPerformanceAnalytics(ctx, month, year)
	if err != nil {
		return payroll.PerformanceAnalyticsResponse{}, err
	}
	return payroll.PerformanceAnalyticsResponse{
		PeriodMonth: month,
		PeriodYear:  year,
		Groups:      groups,
	}, nil
}

// ========== PAYSLIP ==========

func (s *PayrollServiceImpl) GeneratePayslipPDF(ctx context.Context, employeeCode string, month, year int) (string, error) {
	rec, err := s.payrollRepo.GetByEmployeePeriod(ctx, employeeCode, month, year)
	if err != nil {
		return "", err
	}
	emp, err := s.employeeRepo.GetCurrentByCode(ctx, employeeCode)
	if err != nil {
		return "", err
	}

	return s.payslips.Render(rec, emp)
}

// ========== MAPPING ==========

// timePtrToString safely converts a *time.Time to a string.
func timePtrToString(t *time.Time) *string {
	if t == nil {
		return nil
	}
	format := t.Format("2006-01-02 15:04:05")
	return &format
}

func (s *PayrollServiceImpl) toResponse(ctx context.Context, rec payroll.PayrollRecord) (payroll.PayrollRecordResponse, error) {
	adjustments, err := s.payrollRepo.GetAdjustments(ctx, rec.EmployeeCode, rec.PeriodMonth, rec.PeriodYear)
	if err != nil {
		return payroll.PayrollRecordResponse{}, err
	}
	return toRecordResponse(rec, adjustments), nil
}

func toRecordResponse(rec payroll.PayrollRecord, adjustments []payroll.ManualAdjustment) payroll.PayrollRecordResponse {
	resp := payroll.PayrollRecordResponse{
		ID:           rec.ID,
		EmployeeCode: rec.EmployeeCode,
		PeriodMonth:  rec.PeriodMonth,
		PeriodYear:   rec.PeriodYear,

		TotalDays:    rec.TotalDays,
		PresentDays:  rec.PresentDays,
		EligibleDays: rec.EligibleDays,

		AdjustedGross: rec.AdjustedGross,

		TargetSales:     rec.TargetSales,
		ActualSales:     rec.ActualSales,
		SalesPercentage: rec.SalesPercentage,
		SalesDeduction:  rec.SalesDeduction,
		SalesIncentive:  rec.SalesIncentive,

		Basic:            rec.Basic,
		HRA:              rec.HRA,
		DA:               rec.DA,
		SpecialAllowance: rec.SpecialAllowance,
		VariablePay:      rec.VariablePay,

		EPFEmployee:             rec.EPFEmployee,
		ESICEmployee:            rec.ESICEmployee,
		ProfessionalTax:         rec.ProfessionalTax,
		TDS:                     rec.TDS,
		TotalEmployeeDeductions: rec.TotalEmployeeDeductions,

		EPFEmployer:                rec.EPFEmployer,
		ESICEmployer:               rec.ESICEmployer,
		Gratuity:                   rec.Gratuity,
		TotalEmployerContributions: rec.TotalEmployerContributions,

		NetTakeHome: rec.NetTakeHome,
		MonthlyCTC:  rec.MonthlyCTC,
		AnnualCTC:   rec.AnnualCTC,

		PerformanceStatus: string(rec.PerformanceStatus),
		PerformanceColor:  string(rec.PerformanceColor),

		Status:      string(rec.Status),
		SubmittedBy: rec.SubmittedBy,
		SubmittedAt: timePtrToString(rec.SubmittedAt),
		ApprovedBy:  rec.ApprovedBy,
		ApprovedAt:  timePtrToString(rec.ApprovedAt),
		LockedBy:    rec.LockedBy,
		LockedAt:    timePtrToString(rec.LockedAt),
		PaidBy:      rec.PaidBy,
		PaidAt:      timePtrToString(rec.PaidAt),

		Version: rec.Version,
	}

	for _, a := range adjustments {
		resp.ManualAdjustments = append(resp.ManualAdjustments, payroll.ManualAdjustmentResponse{
			ID:         a.ID,
			Field:      a.Field,
			OldValue:   a.OldValue,
			NewValue:   a.NewValue,
			Reason:     a.Reason,
			AdjustedBy: a.AdjustedBy,
			CreatedAt:  a.CreatedAt.Format("2006-01-02 15:04:05"),
		})
	}

	return resp
}
