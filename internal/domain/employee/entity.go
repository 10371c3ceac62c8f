package employee

import (
	"time"

	"github.com/shopspring/decimal"
)

// Employee is the master record payroll computes from. Exactly one row per
// employee code has IsCurrent = true; superseded revisions stay for audit.
type Employee struct {
	ID              string
	EmployeeCode    string
	FullName        string
	Category        Category
	BaseSalary      decimal.Decimal
	TargetSales     decimal.Decimal // sales category only, zero otherwise
	Rules           PerformanceRules
	State           string
	ProfessionalTax decimal.Decimal // state-configured flat amount, maintained by HR
	TDS             decimal.Decimal // withholding supplied by the tax team
	IsCurrent       bool
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

type Category string

const (
	CategorySales   Category = "sales"
	CategoryBackend Category = "backend"
)

// PerformanceRules parameterize the sales performance policy. All three are
// percentages (SafetyFloor 60 means 60%).
type PerformanceRules struct {
	SafetyFloor         decimal.Decimal
	BufferThreshold     decimal.Decimal
	DeductionPercentage decimal.Decimal
}
