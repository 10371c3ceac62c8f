package postgresql

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/veritas-hr/payroll-engine-go/internal/domain/employee"
	"github.com/veritas-hr/payroll-engine-go/internal/pkg/database"
)

type employeeRepository struct {
	db *database.DB
}

func NewEmployeeRepository(db *database.DB) employee.EmployeeRepository {
	return &employeeRepository{db: db}
}

const employeeColumns = `
	id, employee_code, full_name, category, base_salary, target_sales,
	safety_floor, buffer_threshold, deduction_percentage,
	state, professional_tax, tds, is_current, created_at, updated_at`

func scanEmployee(row pgx.Row) (employee.Employee, error) {
	var e employee.Employee
	err := row.Scan(
		&e.ID, &e.EmployeeCode, &e.FullName, &e.Category, &e.BaseSalary, &e.TargetSales,
		&e.Rules.SafetyFloor, &e.Rules.BufferThreshold, &e.Rules.DeductionPercentage,
		&e.State, &e.ProfessionalTax, &e.TDS, &e.IsCurrent, &e.CreatedAt, &e.UpdatedAt,
	)
	return e, err
}

func (r *employeeRepository) GetCurrentByCode(ctx context.Context, employeeCode string) (employee.Employee, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT` + employeeColumns + `
		FROM employees
		WHERE employee_code = $1 AND is_current = true
	`

	e, err := scanEmployee(q.QueryRow(ctx, query, employeeCode))
	if err != nil {
		if err == pgx.ErrNoRows {
			return employee.Employee{}, employee.ErrEmployeeNotFound
		}
		return employee.Employee{}, fmt.Errorf("failed to get employee: %w", err)
	}

	return e, nil
}

func (r *employeeRepository) ListCurrent(ctx context.Context) ([]employee.Employee, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT` + employeeColumns + `
		FROM employees
		WHERE is_current = true
		ORDER BY employee_code
	`

	rows, err := q.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list current employees: %w", err)
	}
	defer rows.Close()

	var employees []employee.Employee
	for rows.Next() {
		e, err := scanEmployee(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan employee: %w", err)
		}
		employees = append(employees, e)
	}

	return employees, nil
}
