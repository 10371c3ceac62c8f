package postgresql

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/veritas-hr/payroll-engine-go/internal/domain/payroll"
	"github.com/veritas-hr/payroll-engine-go/internal/pkg/database"
)

type payrollRepository struct {
	db *database.DB
}

func NewPayrollRepository(db *database.DB) payroll.PayrollRepository {
	return &payrollRepository{db: db}
}

const recordColumns = `
	id, employee_code, period_month, period_year,
	total_days, present_days, eligible_days,
	adjusted_gross, target_sales, actual_sales, sales_percentage, sales_deduction, sales_incentive,
	basic, hra, da, special_allowance, variable_pay,
	epf_employee, esic_employee, professional_tax, tds, total_employee_deductions,
	epf_employer, esic_employer, gratuity, total_employer_contributions,
	net_take_home, monthly_ctc, annual_ctc,
	performance_status, performance_color,
	status, submitted_by, submitted_at, approved_by, approved_at,
	locked_by, locked_at, paid_by, paid_at,
	version, created_at, updated_at`

func scanRecord(row pgx.Row) (payroll.PayrollRecord, error) {
	var rec payroll.PayrollRecord
	err := row.Scan(
		&rec.ID, &rec.EmployeeCode, &rec.PeriodMonth, &rec.PeriodYear,
		&rec.TotalDays, &rec.PresentDays, &rec.EligibleDays,
		&rec.AdjustedGross, &rec.TargetSales, &rec.ActualSales, &rec.SalesPercentage, &rec.SalesDeduction, &rec.SalesIncentive,
		&rec.Basic, &rec.HRA, &rec.DA, &rec.SpecialAllowance, &rec.VariablePay,
		&rec.EPFEmployee, &rec.ESICEmployee, &rec.ProfessionalTax, &rec.TDS, &rec.TotalEmployeeDeductions,
		&rec.EPFEmployer, &rec.ESICEmployer, &rec.Gratuity, &rec.TotalEmployerContributions,
		&rec.NetTakeHome, &rec.MonthlyCTC, &rec.AnnualCTC,
		&rec.PerformanceStatus, &rec.PerformanceColor,
		&rec.Status, &rec.SubmittedBy, &rec.SubmittedAt, &rec.ApprovedBy, &rec.ApprovedAt,
		&rec.LockedBy, &rec.LockedAt, &rec.PaidBy, &rec.PaidAt,
		&rec.Version, &rec.CreatedAt, &rec.UpdatedAt,
	)
	return rec, err
}

func (r *payrollRepository) GetByEmployeePeriod(ctx context.Context, employeeCode string, month, year int) (payroll.PayrollRecord, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT` + recordColumns + `
		FROM payroll_records
		WHERE employee_code = $1 AND period_month = $2 AND period_year = $3
	`

	rec, err := scanRecord(q.QueryRow(ctx, query, employeeCode, month, year))
	if err != nil {
		if err == pgx.ErrNoRows {
			return payroll.PayrollRecord{}, payroll.ErrPayrollRecordNotFound
		}
		return payroll.PayrollRecord{}, fmt.Errorf("failed to get payroll record: %w", err)
	}

	return rec, nil
}

// SaveComputed is the compare-and-swap write of the engine. The UPDATE arm is
// guarded by status and version, so a recompute that races a lock sweep or a
// concurrent recompute loses cleanly instead of resurrecting the record.
func (r *payrollRepository) SaveComputed(ctx context.Context, record payroll.PayrollRecord) (payroll.PayrollRecord, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO payroll_records (
			employee_code, period_month, period_year,
			total_days, present_days, eligible_days,
			adjusted_gross, target_sales, actual_sales, sales_percentage, sales_deduction, sales_incentive,
			basic, hra, da, special_allowance, variable_pay,
			epf_employee, esic_employee, professional_tax, tds, total_employee_deductions,
			epf_employer, esic_employer, gratuity, total_employer_contributions,
			net_take_home, monthly_ctc, annual_ctc,
			performance_status, performance_color, status, version
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16,
			$17, $18, $19, $20, $21, $22, $23, $24, $25, $26, $27, $28, $29, $30, $31,
			'draft', 1
		)
		ON CONFLICT (employee_code, period_month, period_year) DO UPDATE SET
			total_days = EXCLUDED.total_days,
			present_days = EXCLUDED.present_days,
			eligible_days = EXCLUDED.eligible_days,
			adjusted_gross = EXCLUDED.adjusted_gross,
			target_sales = EXCLUDED.target_sales,
			actual_sales = EXCLUDED.actual_sales,
			sales_percentage = EXCLUDED.sales_percentage,
			sales_deduction = EXCLUDED.sales_deduction,
			sales_incentive = EXCLUDED.sales_incentive,
			basic = EXCLUDED.basic,
			hra = EXCLUDED.hra,
			da = EXCLUDED.da,
			special_allowance = EXCLUDED.special_allowance,
			variable_pay = EXCLUDED.variable_pay,
			epf_employee = EXCLUDED.epf_employee,
			esic_employee = EXCLUDED.esic_employee,
			professional_tax = EXCLUDED.professional_tax,
			tds = EXCLUDED.tds,
			total_employee_deductions = EXCLUDED.total_employee_deductions,
			epf_employer = EXCLUDED.epf_employer,
			esic_employer = EXCLUDED.esic_employer,
			gratuity = EXCLUDED.gratuity,
			total_employer_contributions = EXCLUDED.total_employer_contributions,
			net_take_home = EXCLUDED.net_take_home,
			monthly_ctc = EXCLUDED.monthly_ctc,
			annual_ctc = EXCLUDED.annual_ctc,
			performance_status = EXCLUDED.performance_status,
			performance_color = EXCLUDED.performance_color,
			version = payroll_records.version + 1,
			updated_at = NOW()
		WHERE payroll_records.status IN ('draft', 'submitted', 'approved')
			AND payroll_records.version = $32
		RETURNING` + recordColumns + `
	`

	rec, err := scanRecord(q.QueryRow(ctx, query,
		record.EmployeeCode, record.PeriodMonth, record.PeriodYear,
		record.TotalDays, record.PresentDays, record.EligibleDays,
		record.AdjustedGross, record.TargetSales, record.ActualSales, record.SalesPercentage, record.SalesDeduction, record.SalesIncentive,
		record.Basic, record.HRA, record.DA, record.SpecialAllowance, record.VariablePay,
		record.EPFEmployee, record.ESICEmployee, record.ProfessionalTax, record.TDS, record.TotalEmployeeDeductions,
		record.EPFEmployer, record.ESICEmployer, record.Gratuity, record.TotalEmployerContributions,
		record.NetTakeHome, record.MonthlyCTC, record.AnnualCTC,
		record.PerformanceStatus, record.PerformanceColor,
		record.Version,
	))
	if err != nil {
		if err == pgx.ErrNoRows {
			return payroll.PayrollRecord{}, r.classifyGuardedMiss(ctx, record.EmployeeCode, record.PeriodMonth, record.PeriodYear)
		}
		return payroll.PayrollRecord{}, fmt.Errorf("failed to save payroll record: %w", err)
	}

	return rec, nil
}

// classifyGuardedMiss distinguishes a locked record from a stale version when
// a guarded write matched the key but not the guard.
func (r *payrollRepository) classifyGuardedMiss(ctx context.Context, employeeCode string, month, year int) error {
	q := GetQuerier(ctx, r.db)

	var status payroll.PayrollStatus
	err := q.QueryRow(ctx,
		`SELECT status FROM payroll_records WHERE employee_code = $1 AND period_month = $2 AND period_year = $3`,
		employeeCode, month, year,
	).Scan(&status)
	if err != nil {
		if err == pgx.ErrNoRows {
			return payroll.ErrPayrollRecordNotFound
		}
		return fmt.Errorf("failed to check payroll record status: %w", err)
	}
	if !status.Computable() {
		return payroll.ErrRecordLocked
	}
	return payroll.ErrVersionConflict
}

func (r *payrollRepository) ListRecords(ctx context.Context, filter payroll.PayrollFilter) ([]payroll.PayrollRecord, int64, error) {
	q := GetQuerier(ctx, r.db)

	baseQuery := ` FROM payroll_records WHERE 1=1`
	args := []interface{}{}
	argIdx := 1

	if filter.PeriodMonth != nil {
		baseQuery += fmt.Sprintf(" AND period_month = $%d", argIdx)
		args = append(args, *filter.PeriodMonth)
		argIdx++
	}
	if filter.PeriodYear != nil {
		baseQuery += fmt.Sprintf(" AND period_year = $%d", argIdx)
		args = append(args, *filter.PeriodYear)
		argIdx++
	}
	if filter.Status != nil {
		baseQuery += fmt.Sprintf(" AND status = $%d", argIdx)
		args = append(args, *filter.Status)
		argIdx++
	}
	if filter.EmployeeCode != nil {
		baseQuery += fmt.Sprintf(" AND employee_code = $%d", argIdx)
		args = append(args, *filter.EmployeeCode)
		argIdx++
	}

	var totalCount int64
	if err := q.QueryRow(ctx, "SELECT COUNT(*)"+baseQuery, args...).Scan(&totalCount); err != nil {
		return nil, 0, fmt.Errorf("failed to count payroll records: %w", err)
	}

	if filter.Limit <= 0 {
		filter.Limit = 20
	}
	if filter.Page <= 0 {
		filter.Page = 1
	}
	offset := (filter.Page - 1) * filter.Limit

	selectQuery := fmt.Sprintf(`
		SELECT %s %s
		ORDER BY period_year DESC, period_month DESC, employee_code
		LIMIT $%d OFFSET $%d
	`, recordColumns, baseQuery, argIdx, argIdx+1)
	args = append(args, filter.Limit, offset)

	rows, err := q.Query(ctx, selectQuery, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list payroll records: %w", err)
	}
	defer rows.Close()

	var records []payroll.PayrollRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan payroll record: %w", err)
		}
		records = append(records, rec)
	}

	return records, totalCount, nil
}

// ========== WORKFLOW ==========

func (r *payrollRepository) SubmitRecord(ctx context.Context, employeeCode string, month, year int, actor string) error {
	return r.transition(ctx, employeeCode, month, year, actor,
		payroll.PayrollStatusDraft, payroll.PayrollStatusSubmitted, "submitted_by", "submitted_at")
}

func (r *payrollRepository) ApproveRecord(ctx context.Context, employeeCode string, month, year int, actor string) error {
	return r.transition(ctx, employeeCode, month, year, actor,
		payroll.PayrollStatusSubmitted, payroll.PayrollStatusApproved, "approved_by", "approved_at")
}

func (r *payrollRepository) transition(ctx context.Context, employeeCode string, month, year int, actor string, from, to payroll.PayrollStatus, byCol, atCol string) error {
	q := GetQuerier(ctx, r.db)

	query := fmt.Sprintf(`
		UPDATE payroll_records
		SET status = $4, %s = $5, %s = NOW(), version = version + 1, updated_at = NOW()
		WHERE employee_code = $1 AND period_month = $2 AND period_year = $3 AND status = $6
		RETURNING id
	`, byCol, atCol)

	var updatedID string
	err := q.QueryRow(ctx, query, employeeCode, month, year, to, actor, from).Scan(&updatedID)
	if err != nil {
		if err == pgx.ErrNoRows {
			return r.transitionMiss(ctx, employeeCode, month, year)
		}
		return fmt.Errorf("failed to transition payroll record: %w", err)
	}

	return nil
}

func (r *payrollRepository) transitionMiss(ctx context.Context, employeeCode string, month, year int) error {
	q := GetQuerier(ctx, r.db)

	var exists bool
	err := q.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM payroll_records WHERE employee_code = $1 AND period_month = $2 AND period_year = $3)`,
		employeeCode, month, year,
	).Scan(&exists)
	if err != nil {
		return fmt.Errorf("failed to check payroll record: %w", err)
	}
	if !exists {
		return payroll.ErrPayrollRecordNotFound
	}
	return payroll.ErrInvalidTransition
}

func (r *payrollRepository) LockPeriod(ctx context.Context, month, year int, actor string) (int64, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		UPDATE payroll_records
		SET status = 'locked', locked_by = $3, locked_at = NOW(), version = version + 1, updated_at = NOW()
		WHERE period_month = $1 AND period_year = $2
			AND status IN ('draft', 'submitted', 'approved')
	`

	tag, err := q.Exec(ctx, query, month, year, actor)
	if err != nil {
		return 0, fmt.Errorf("failed to lock payroll period: %w", err)
	}

	return tag.RowsAffected(), nil
}

func (r *payrollRepository) MarkPaid(ctx context.Context, employeeCodes []string, month, year int, actor string) (int64, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		UPDATE payroll_records
		SET status = 'paid', paid_by = $4, paid_at = NOW(), version = version + 1, updated_at = NOW()
		WHERE employee_code = ANY($1) AND period_month = $2 AND period_year = $3
			AND status = 'locked'
	`

	tag, err := q.Exec(ctx, query, employeeCodes, month, year, actor)
	if err != nil {
		return 0, fmt.Errorf("failed to mark payroll records paid: %w", err)
	}

	return tag.RowsAffected(), nil
}

// ========== ADJUSTMENTS ==========

func (r *payrollRepository) ApplyAdjustment(ctx context.Context, record payroll.PayrollRecord, adj payroll.ManualAdjustment) (payroll.PayrollRecord, error) {
	var saved payroll.PayrollRecord

	err := WithTransaction(ctx, r.db, func(tx pgx.Tx) error {
		query := `
			UPDATE payroll_records
			SET sales_deduction = $4, special_allowance = $5, variable_pay = $6,
				professional_tax = $7, tds = $8, total_employee_deductions = $9,
				net_take_home = $10, monthly_ctc = $11, annual_ctc = $12,
				version = version + 1, updated_at = NOW()
			WHERE employee_code = $1 AND period_month = $2 AND period_year = $3
				AND status IN ('draft', 'submitted', 'approved')
				AND version = $13
			RETURNING` + recordColumns + `
		`

		var err error
		saved, err = scanRecord(tx.QueryRow(ctx, query,
			record.EmployeeCode, record.PeriodMonth, record.PeriodYear,
			record.SalesDeduction, record.SpecialAllowance, record.VariablePay,
			record.ProfessionalTax, record.TDS, record.TotalEmployeeDeductions,
			record.NetTakeHome, record.MonthlyCTC, record.AnnualCTC,
			record.Version,
		))
		if err != nil {
			if err == pgx.ErrNoRows {
				return r.classifyGuardedMiss(ctx, record.EmployeeCode, record.PeriodMonth, record.PeriodYear)
			}
			return fmt.Errorf("failed to apply adjustment: %w", err)
		}

		_, err = tx.Exec(ctx, `
			INSERT INTO payroll_adjustments (
				id, employee_code, period_month, period_year,
				field, old_value, new_value, reason, adjusted_by
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		`,
			adj.ID, adj.EmployeeCode, adj.PeriodMonth, adj.PeriodYear,
			adj.Field, adj.OldValue, adj.NewValue, adj.Reason, adj.AdjustedBy,
		)
		if err != nil {
			return fmt.Errorf("failed to append adjustment: %w", err)
		}

		return nil
	})
	if err != nil {
		return payroll.PayrollRecord{}, err
	}

	return saved, nil
}

func (r *payrollRepository) GetAdjustments(ctx context.Context, employeeCode string, month, year int) ([]payroll.ManualAdjustment, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT id, employee_code, period_month, period_year,
			   field, old_value, new_value, reason, adjusted_by, created_at
		FROM payroll_adjustments
		WHERE employee_code = $1 AND period_month = $2 AND period_year = $3
		ORDER BY created_at
	`

	rows, err := q.Query(ctx, query, employeeCode, month, year)
	if err != nil {
		return nil, fmt.Errorf("failed to get adjustments: %w", err)
	}
	defer rows.Close()

	var adjustments []payroll.ManualAdjustment
	for rows.Next() {
		var a payroll.ManualAdjustment
		if err := rows.Scan(
			&a.ID, &a.EmployeeCode, &a.PeriodMonth, &a.PeriodYear,
			&a.Field, &a.OldValue, &a.NewValue, &a.Reason, &a.AdjustedBy, &a.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan adjustment: %w", err)
		}
		adjustments = append(adjustments, a)
	}

	return adjustments, nil
}

// ========== AGGREGATIONS ==========

func (r *payrollRepository) GetPeriodSummary(ctx context.Context, month, year int) (payroll.PeriodSummaryResponse, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT
			COUNT(*) as employee_count,
			COALESCE(SUM(adjusted_gross), 0) as total_adjusted_gross,
			COALESCE(SUM(net_take_home), 0) as total_net_take_home,
			COALESCE(SUM(monthly_ctc), 0) as total_monthly_ctc,
			COALESCE(SUM(annual_ctc), 0) as total_annual_ctc,
			COALESCE(SUM(total_employee_deductions), 0) as total_employee_deductions,
			COALESCE(SUM(total_employer_contributions), 0) as total_employer_contributions,
			COALESCE(SUM(epf_employee), 0) as total_epf_employee,
			COALESCE(SUM(esic_employee), 0) as total_esic_employee,
			COALESCE(SUM(professional_tax), 0) as total_professional_tax,
			COALESCE(SUM(tds), 0) as total_tds,
			COUNT(*) FILTER (WHERE status = 'draft') as draft_count,
			COUNT(*) FILTER (WHERE status = 'submitted') as submitted_count,
			COUNT(*) FILTER (WHERE status = 'approved') as approved_count,
			COUNT(*) FILTER (WHERE status = 'locked') as locked_count,
			COUNT(*) FILTER (WHERE status = 'paid') as paid_count
		FROM payroll_records
		WHERE period_month = $1 AND period_year = $2
	`

	var s payroll.PeriodSummaryResponse
	err := q.QueryRow(ctx, query, month, year).Scan(
		&s.EmployeeCount, &s.TotalAdjustedGross, &s.TotalNetTakeHome,
		&s.TotalMonthlyCTC, &s.TotalAnnualCTC,
		&s.TotalEmployeeDeductions, &s.TotalEmployerContributions,
		&s.TotalEPFEmployee, &s.TotalESICEmployee, &s.TotalProfessionalTax, &s.TotalTDS,
		&s.DraftCount, &s.SubmittedCount, &s.ApprovedCount, &s.LockedCount, &s.PaidCount,
	)
	if err != nil {
		return payroll.PeriodSummaryResponse{}, fmt.Errorf("failed to get period summary: %w", err)
	}

	s.PeriodMonth = month
	s.PeriodYear = year

	return s, nil
}

func (r *payrollRepository) GetPerformanceAnalytics(ctx context.Context, month, year int) ([]payroll.PerformanceGroupResponse, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT
			performance_status,
			performance_color,
			COUNT(*) as employee_count,
			COALESCE(AVG(sales_percentage), 0) as avg_sales_percentage,
			COALESCE(SUM(sales_deduction), 0) as total_sales_deduction,
			COALESCE(SUM(sales_incentive), 0) as total_sales_incentive
		FROM payroll_records
		WHERE period_month = $1 AND period_year = $2
		GROUP BY performance_status, performance_color
		ORDER BY performance_status
	`

	rows, err := q.Query(ctx, query, month, year)
	if err != nil {
		return nil, fmt.Errorf("failed to get performance analytics: %w", err)
	}
	defer rows.Close()

	var groups []payroll.PerformanceGroupResponse
	for rows.Next() {
		var g payroll.PerformanceGroupResponse
		if err := rows.Scan(
			&g.PerformanceStatus, &g.PerformanceColor, &g.EmployeeCount,
			&g.AvgSalesPercentage, &g.TotalSalesDeduction, &g.TotalSalesIncentive,
		); err != nil {
			return nil, fmt.Errorf("failed to scan performance group: %w", err)
		}
		groups = append(groups, g)
	}

	return groups, nil
}
