package validator

import (
	"regexp"
	"strings"
)

type ValidationError struct {
	Field   string
	Message string
}

type ValidationErrors []ValidationError

func (v ValidationErrors) Error() string {
	var msgs []string
	for _, err := range v {
		msgs = append(msgs, err.Field+": "+err.Message)
	}
	return strings.Join(msgs, "; ")
}

func (v ValidationErrors) ToMap() map[string]string {
	result := make(map[string]string)
	for _, err := range v {
		result[err.Field] = err.Message
	}
	return result
}

// IsEmpty checks if a string is empty after trimming whitespace.
func IsEmpty(s string) bool {
	return strings.TrimSpace(s) == ""
}

var employeeCodeRegex = regexp.MustCompile(`^[A-Z0-9]{2,4}-\d{4}$`)

func IsValidEmployeeCode(code string) bool {
	return employeeCodeRegex.MatchString(code)
}

// ValidatePeriod checks a payroll calendar period. Payroll history starts in
// 2020; anything earlier predates the system.
func ValidatePeriod(month, year int) ValidationErrors {
	var errs ValidationErrors
	if month < 1 || month > 12 {
		errs = append(errs, ValidationError{Field: "period_month", Message: "must be between 1 and 12"})
	}
	if year < 2020 {
		errs = append(errs, ValidationError{Field: "period_year", Message: "must be 2020 or later"})
	}
	return errs
}
