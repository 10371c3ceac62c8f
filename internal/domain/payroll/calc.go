package payroll

import (
	"github.com/shopspring/decimal"

	"github.com/veritas-hr/payroll-engine-go/internal/domain/employee"
)

// Statutory constants. Amounts are in currency units with no minor-unit
// scaling; rates follow the EPF/ESIC/gratuity schedules.
var (
	epfRate              = decimal.NewFromFloat(0.12)
	epfCeiling           = decimal.NewFromInt(1800)
	esicEmployeeRate     = decimal.NewFromFloat(0.0075)
	esicEmployerRate     = decimal.NewFromFloat(0.0325)
	esicWageCeiling      = decimal.NewFromInt(21000)
	gratuityRate         = decimal.NewFromFloat(0.0481)
	incentiveCeilingRate = decimal.NewFromFloat(0.10)

	basicRateSales   = decimal.NewFromFloat(0.5)
	basicRateBackend = decimal.NewFromFloat(0.6)
	hraRateOfBasic   = decimal.NewFromFloat(0.5)
	daRateOfBasic    = decimal.NewFromFloat(0.05)
	hundred          = decimal.NewFromInt(100)
	monthsPerYear    = decimal.NewFromInt(12)
)

// AdjustGrossForAttendance prorates the base salary by eligible attendance
// days. Attendance outside 0 <= eligible <= total is rejected, never clamped;
// bad data must be corrected in the attendance service.
func AdjustGrossForAttendance(baseSalary decimal.Decimal, totalDays, eligibleDays int) (decimal.Decimal, error) {
	if totalDays <= 0 {
		return decimal.Zero, ErrInvalidPeriod
	}
	if eligibleDays < 0 || eligibleDays > totalDays {
		return decimal.Zero, ErrInvalidAttendance
	}
	return baseSalary.
		Mul(decimal.NewFromInt(int64(eligibleDays))).
		Div(decimal.NewFromInt(int64(totalDays))), nil
}

// PerformanceResult is the outcome of the sales target evaluation.
type PerformanceResult struct {
	SalesPercentage decimal.Decimal
	SalesDeduction  decimal.Decimal
	SalesIncentive  decimal.Decimal
	Status          PerformanceStatus
	Color           PerformanceColor
}

// EvaluatePerformance applies the tiered sales policy. Bands are checked in
// order; the first match wins. Employees outside the sales category, or sales
// employees with no target, are classified average with no adjustment.
func EvaluatePerformance(category employee.Category, adjustedGross, targetSales, actualSales decimal.Decimal, rules employee.PerformanceRules) PerformanceResult {
	if category != employee.CategorySales || !targetSales.IsPositive() {
		return PerformanceResult{
			SalesPercentage: decimal.Zero,
			SalesDeduction:  decimal.Zero,
			SalesIncentive:  decimal.Zero,
			Status:          PerformanceAverage,
			Color:           ColorYellow,
		}
	}

	pct := actualSales.Div(targetSales).Mul(hundred)
	maxDeduction := adjustedGross.Mul(rules.DeductionPercentage).Div(hundred)

	switch {
	case pct.LessThan(rules.SafetyFloor):
		return PerformanceResult{
			SalesPercentage: pct,
			SalesDeduction:  maxDeduction,
			SalesIncentive:  decimal.Zero,
			Status:          PerformancePoor,
			Color:           ColorRed,
		}
	case pct.LessThan(rules.BufferThreshold):
		// Linear taper from the full deduction at the safety floor down to
		// zero at the buffer threshold.
		factor := rules.BufferThreshold.Sub(pct).
			Div(rules.BufferThreshold.Sub(rules.SafetyFloor))
		return PerformanceResult{
			SalesPercentage: pct,
			SalesDeduction:  maxDeduction.Mul(factor),
			SalesIncentive:  decimal.Zero,
			Status:          PerformanceBelowAverage,
			Color:           ColorRed,
		}
	case pct.LessThan(hundred):
		return PerformanceResult{
			SalesPercentage: pct,
			SalesDeduction:  decimal.Zero,
			SalesIncentive:  decimal.Zero,
			Status:          PerformanceGood,
			Color:           ColorYellow,
		}
	default:
		incentiveFactor := pct.Sub(hundred).Div(hundred)
		return PerformanceResult{
			SalesPercentage: pct,
			SalesDeduction:  decimal.Zero,
			SalesIncentive:  adjustedGross.Mul(incentiveCeilingRate).Mul(incentiveFactor),
			Status:          PerformanceExcellent,
			Color:           ColorGreen,
		}
	}
}

// Components is the split of adjusted gross into salary heads.
type Components struct {
	Basic            decimal.Decimal
	HRA              decimal.Decimal
	DA               decimal.Decimal
	SpecialAllowance decimal.Decimal
	VariablePay      decimal.Decimal
}

// AllocateComponents splits adjusted gross per category. For sales employees
// the special allowance absorbs the sales deduction; settlement subtracts the
// deduction again per the published policy (see DESIGN.md, open question on
// double counting). All heads floor at zero.
func AllocateComponents(category employee.Category, adjustedGross, salesDeduction, salesIncentive decimal.Decimal) Components {
	var c Components
	if category == employee.CategorySales {
		c.Basic = adjustedGross.Mul(basicRateSales)
		c.HRA = c.Basic.Mul(hraRateOfBasic)
		c.DA = decimal.Zero
		c.SpecialAllowance = adjustedGross.Sub(c.Basic).Sub(c.HRA).Sub(salesDeduction)
		c.VariablePay = salesIncentive
	} else {
		c.Basic = adjustedGross.Mul(basicRateBackend)
		c.HRA = c.Basic.Mul(hraRateOfBasic)
		c.DA = c.Basic.Mul(daRateOfBasic)
		c.SpecialAllowance = adjustedGross.Sub(c.Basic).Sub(c.HRA).Sub(c.DA)
		c.VariablePay = decimal.Zero
	}
	c.Basic = floorZero(c.Basic)
	c.HRA = floorZero(c.HRA)
	c.DA = floorZero(c.DA)
	c.SpecialAllowance = floorZero(c.SpecialAllowance)
	c.VariablePay = floorZero(c.VariablePay)
	return c
}

// EmployeeDeductions are the mandatory employee-side deductions.
type EmployeeDeductions struct {
	EPF             decimal.Decimal
	ESIC            decimal.Decimal
	ProfessionalTax decimal.Decimal
	TDS             decimal.Decimal
	Total           decimal.Decimal
}

// CalculateEmployeeDeductions computes EPF (12% of basic, capped at 1800) and
// ESIC (0.75% of gross, only under the wage ceiling). Professional tax and
// TDS are externally determined and pass through unchanged.
func CalculateEmployeeDeductions(basic, adjustedGross, professionalTax, tds decimal.Decimal) EmployeeDeductions {
	d := EmployeeDeductions{
		EPF:             decimal.Min(basic.Mul(epfRate), epfCeiling),
		ESIC:            decimal.Zero,
		ProfessionalTax: professionalTax,
		TDS:             tds,
	}
	if adjustedGross.LessThanOrEqual(esicWageCeiling) {
		d.ESIC = adjustedGross.Mul(esicEmployeeRate)
	}
	d.Total = d.EPF.Add(d.ESIC).Add(d.ProfessionalTax).Add(d.TDS)
	return d
}

// EmployerContributions are the employer-side statutory costs.
type EmployerContributions struct {
	EPF      decimal.Decimal
	ESIC     decimal.Decimal
	Gratuity decimal.Decimal
	Total    decimal.Decimal
}

func CalculateEmployerContributions(basic, adjustedGross decimal.Decimal) EmployerContributions {
	c := EmployerContributions{
		EPF:      decimal.Min(basic.Mul(epfRate), epfCeiling),
		ESIC:     decimal.Zero,
		Gratuity: basic.Mul(gratuityRate),
	}
	if adjustedGross.LessThanOrEqual(esicWageCeiling) {
		c.ESIC = adjustedGross.Mul(esicEmployerRate)
	}
	c.Total = c.EPF.Add(c.ESIC).Add(c.Gratuity)
	return c
}

// Settlement is the take-home and cost-to-company roll-up.
type Settlement struct {
	NetTakeHome decimal.Decimal
	MonthlyCTC  decimal.Decimal
	AnnualCTC   decimal.Decimal
}

// Settle combines gross, variable pay, deductions and employer cost. The
// identity monthlyCTC = net + employee deductions + employer contributions
// holds exactly for every record.
func Settle(adjustedGross, variablePay, totalEmployeeDeductions, salesDeduction, totalEmployerContributions decimal.Decimal) Settlement {
	net := floorZero(adjustedGross.Add(variablePay).
		Sub(totalEmployeeDeductions).Sub(salesDeduction))
	monthly := net.Add(totalEmployeeDeductions).Add(totalEmployerContributions)
	return Settlement{
		NetTakeHome: net,
		MonthlyCTC:  monthly,
		AnnualCTC:   monthly.Mul(monthsPerYear),
	}
}

func floorZero(d decimal.Decimal) decimal.Decimal {
	if d.IsNegative() {
		return decimal.Zero
	}
	return d
}
