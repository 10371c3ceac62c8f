package employee

import "context"

// EmployeeRepository is read-only from the payroll engine's point of view;
// master data editing belongs to the HR service.
type EmployeeRepository interface {
	GetCurrentByCode(ctx context.Context, employeeCode string) (Employee, error)
	ListCurrent(ctx context.Context) ([]Employee, error)
}
