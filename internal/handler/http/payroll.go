package http

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/veritas-hr/payroll-engine-go/internal/domain/payroll"
	"github.com/veritas-hr/payroll-engine-go/internal/handler/http/response"
)

type PayrollHandler interface {
	// Processing
	ProcessEmployee(w http.ResponseWriter, r *http.Request)
	ProcessPeriod(w http.ResponseWriter, r *http.Request)

	// Records
	GetEmployeePayroll(w http.ResponseWriter, r *http.Request)
	ListPayrollRecords(w http.ResponseWriter, r *http.Request)

	// Workflow
	SubmitRecord(w http.ResponseWriter, r *http.Request)
	ApproveRecord(w http.ResponseWriter, r *http.Request)
	LockPeriod(w http.ResponseWriter, r *http.Request)
	MarkPaid(w http.ResponseWriter, r *http.Request)

	// Adjustments
	AdjustRecord(w http.ResponseWriter, r *http.Request)

	// Summary
	GetPeriodSummary(w http.ResponseWriter, r *http.Request)
	GetPerformanceAnalytics(w http.ResponseWriter, r *http.Request)

	// Payslip
	DownloadPayslip(w http.ResponseWriter, r *http.Request)
}

type payrollHandlerImpl struct {
	payrollService payroll.PayrollService
}

func NewPayrollHandler(payrollService payroll.PayrollService) PayrollHandler {
	return &payrollHandlerImpl{payrollService: payrollService}
}

// periodFromURL parses the {year}/{month} path segments.
func periodFromURL(r *http.Request) (month, year int, ok bool) {
	year, errY := strconv.Atoi(chi.URLParam(r, "year"))
	month, errM := strconv.Atoi(chi.URLParam(r, "month"))
	if errY != nil || errM != nil {
		return 0, 0, false
	}
	return month, year, true
}

// ========== PROCESSING ==========

func (h *payrollHandlerImpl) ProcessEmployee(w http.ResponseWriter, r *http.Request) {
	var req payroll.ProcessEmployeeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body", nil)
		return
	}

	result, err := h.payrollService.ProcessEmployeePayroll(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

func (h *payrollHandlerImpl) ProcessPeriod(w http.ResponseWriter, r *http.Request) {
	var req payroll.ProcessPeriodRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body", nil)
		return
	}

	result, err := h.payrollService.ProcessPeriodPayroll(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

// ========== RECORDS ==========

func (h *payrollHandlerImpl) GetEmployeePayroll(w http.ResponseWriter, r *http.Request) {
	employeeCode := chi.URLParam(r, "employeeCode")
	month, year, ok := periodFromURL(r)
	if !ok {
		response.BadRequest(w, "Invalid period in URL", nil)
		return
	}

	result, err := h.payrollService.GetEmployeePayroll(r.Context(), employeeCode, month, year)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

func (h *payrollHandlerImpl) ListPayrollRecords(w http.ResponseWriter, r *http.Request) {
	var filter payroll.PayrollFilter

	q := r.URL.Query()
	if v := q.Get("period_month"); v != "" {
		if m, err := strconv.Atoi(v); err == nil {
			filter.PeriodMonth = &m
		}
	}
	if v := q.Get("period_year"); v != "" {
		if y, err := strconv.Atoi(v); err == nil {
			filter.PeriodYear = &y
		}
	}
	if v := q.Get("status"); v != "" {
		filter.Status = &v
	}
	if v := q.Get("employee_code"); v != "" {
		filter.EmployeeCode = &v
	}
	filter.Page, _ = strconv.Atoi(q.Get("page"))
	filter.Limit, _ = strconv.Atoi(q.Get("limit"))

	result, err := h.payrollService.ListPayrollRecords(r.Context(), filter)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	totalPages := int(result.TotalCount) / result.Limit
	if int(result.TotalCount)%result.Limit != 0 {
		totalPages++
	}
	response.SuccessWithMeta(w, result.Data, &response.Meta{
		Page:       result.Page,
		Limit:      result.Limit,
		TotalItems: result.TotalCount,
		TotalPages: totalPages,
	})
}

// ========== WORKFLOW ==========

func (h *payrollHandlerImpl) SubmitRecord(w http.ResponseWriter, r *http.Request) {
	var req payroll.WorkflowRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body", nil)
		return
	}

	if err := h.payrollService.SubmitRecord(r.Context(), req); err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Payroll record submitted", nil)
}

func (h *payrollHandlerImpl) ApproveRecord(w http.ResponseWriter, r *http.Request) {
	var req payroll.WorkflowRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body", nil)
		return
	}

	if err := h.payrollService.ApproveRecord(r.Context(), req); err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Payroll record approved", nil)
}

func (h *payrollHandlerImpl) LockPeriod(w http.ResponseWriter, r *http.Request) {
	var req payroll.LockPeriodRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body", nil)
		return
	}

	result, err := h.payrollService.LockPeriod(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

func (h *payrollHandlerImpl) MarkPaid(w http.ResponseWriter, r *http.Request) {
	var req payroll.MarkPaidRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body", nil)
		return
	}

	result, err := h.payrollService.MarkPaid(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

// ========== ADJUSTMENTS ==========

func (h *payrollHandlerImpl) AdjustRecord(w http.ResponseWriter, r *http.Request) {
	var req payroll.ManualAdjustmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body", nil)
		return
	}

	result, err := h.payrollService.AdjustRecord(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

// ========== SUMMARY ==========

func (h *payrollHandlerImpl) GetPeriodSummary(w http.ResponseWriter, r *http.Request) {
	month, year, ok := periodFromURL(r)
	if !ok {
		response.BadRequest(w, "Invalid period in URL", nil)
		return
	}

	result, err := h.payrollService.GetPeriodSummary(r.Context(), month, year)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

func (h *payrollHandlerImpl) GetPerformanceAnalytics(w http.ResponseWriter, r *http.Request) {
	month, year, ok := periodFromURL(r)
	if !ok {
		response.BadRequest(w, "Invalid period in URL", nil)
		return
	}

	result, err := h.payrollService.GetPerformanceAnalytics(r.Context(), month, year)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

// ========== PAYSLIP ==========

func (h *payrollHandlerImpl) DownloadPayslip(w http.ResponseWriter, r *http.Request) {
	employeeCode := chi.URLParam(r, "employeeCode")
	month, year, ok := periodFromURL(r)
	if !ok {
		response.BadRequest(w, "Invalid period in URL", nil)
		return
	}

	path, err := h.payrollService.GeneratePayslipPDF(r.Context(), employeeCode, month, year)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	http.ServeFile(w, r, path)
}
