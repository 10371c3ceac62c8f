package payroll

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/jwtauth/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/veritas-hr/payroll-engine-go/internal/domain/attendance"
	"github.com/veritas-hr/payroll-engine-go/internal/domain/employee"
	"github.com/veritas-hr/payroll-engine-go/internal/domain/payroll"
	"github.com/veritas-hr/payroll-engine-go/internal/pkg/jwt"
)

func d(s string) decimal.Decimal {
	v, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return v
}

// ========== FAKES ==========

type fakeEmployeeRepo struct {
	employees []employee.Employee
}

func (f *fakeEmployeeRepo) GetCurrentByCode(_ context.Context, code string) (employee.Employee, error) {
	for _, e := range f.employees {
		if e.EmployeeCode == code && e.IsCurrent {
			return e, nil
		}
	}
	return employee.Employee{}, employee.ErrEmployeeNotFound
}

func (f *fakeEmployeeRepo) ListCurrent(_ context.Context) ([]employee.Employee, error) {
	var out []employee.Employee
	for _, e := range f.employees {
		if e.IsCurrent {
			out = append(out, e)
		}
	}
	return out, nil
}

type fakeAttendanceRepo struct {
	records map[string]attendance.Record
}

func attKey(code string, month, year int) string {
	return fmt.Sprintf("%s|%d|%d", code, month, year)
}

func (f *fakeAttendanceRepo) GetByEmployeePeriod(_ context.Context, code string, month, year int) (attendance.Record, error) {
	rec, ok := f.records[attKey(code, month, year)]
	if !ok {
		return attendance.Record{}, attendance.ErrAttendanceNotFound
	}
	return rec, nil
}

// fakePayrollRepo mirrors the guarded-write semantics of the PostgreSQL
// implementation: inserts start at draft/version 1, updates keep workflow
// state, and the guard rejects locked records and stale versions.
type fakePayrollRepo struct {
	mu          sync.Mutex
	records     map[string]payroll.PayrollRecord
	adjustments []payroll.ManualAdjustment
	nextID      int
}

func newFakePayrollRepo() *fakePayrollRepo {
	return &fakePayrollRepo{records: map[string]payroll.PayrollRecord{}}
}

func (f *fakePayrollRepo) key(code string, month, year int) string {
	return attKey(code, month, year)
}

func (f *fakePayrollRepo) GetByEmployeePeriod(_ context.Context, code string, month, year int) (payroll.PayrollRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	rec, ok := f.records[f.key(code, month, year)]
	if !ok {
		return payroll.PayrollRecord{}, payroll.ErrPayrollRecordNotFound
	}
	return rec, nil
}

func (f *fakePayrollRepo) SaveComputed(_ context.Context, record payroll.PayrollRecord) (payroll.PayrollRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	k := f.key(record.EmployeeCode, record.PeriodMonth, record.PeriodYear)
	stored, exists := f.records[k]
	if !exists {
		f.nextID++
		record.ID = fmt.Sprintf("rec-%d", f.nextID)
		record.Status = payroll.PayrollStatusDraft
		record.Version = 1
		record.CreatedAt = time.Now()
		record.UpdatedAt = record.CreatedAt
		f.records[k] = record
		return record, nil
	}

	if !stored.Status.Computable() {
		return payroll.PayrollRecord{}, payroll.ErrRecordLocked
	}
	if stored.Version != record.Version {
		return payroll.PayrollRecord{}, payroll.ErrVersionConflict
	}

	record.ID = stored.ID
	record.Status = stored.Status
	record.SubmittedBy, record.SubmittedAt = stored.SubmittedBy, stored.SubmittedAt
	record.ApprovedBy, record.ApprovedAt = stored.ApprovedBy, stored.ApprovedAt
	record.Version = stored.Version + 1
	record.CreatedAt = stored.CreatedAt
	record.UpdatedAt = time.Now()
	f.records[k] = record
	return record, nil
}

func (f *fakePayrollRepo) ListRecords(_ context.Context, filter payroll.PayrollFilter) ([]payroll.PayrollRecord, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []payroll.PayrollRecord
	for _, rec := range f.records {
		if filter.Status != nil && string(rec.Status) != *filter.Status {
			continue
		}
		out = append(out, rec)
	}
	return out, int64(len(out)), nil
}

func (f *fakePayrollRepo) SubmitRecord(_ context.Context, code string, month, year int, actor string) error {
	return f.transition(code, month, year, actor, payroll.PayrollStatusDraft, payroll.PayrollStatusSubmitted)
}

func (f *fakePayrollRepo) ApproveRecord(_ context.Context, code string, month, year int, actor string) error {
	return f.transition(code, month, year, actor, payroll.PayrollStatusSubmitted, payroll.PayrollStatusApproved)
}

func (f *fakePayrollRepo) transition(code string, month, year int, actor string, from, to payroll.PayrollStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	k := f.key(code, month, year)
	rec, ok := f.records[k]
	if !ok {
		return payroll.ErrPayrollRecordNotFound
	}
	if rec.Status != from {
		return payroll.ErrInvalidTransition
	}
	now := time.Now()
	rec.Status = to
	switch to {
	case payroll.PayrollStatusSubmitted:
		rec.SubmittedBy, rec.SubmittedAt = &actor, &now
	case payroll.PayrollStatusApproved:
		rec.ApprovedBy, rec.ApprovedAt = &actor, &now
	}
	rec.Version++
	f.records[k] = rec
	return nil
}

func (f *fakePayrollRepo) LockPeriod(_ context.Context, month, year int, actor string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	now := time.Now()
	var count int64
	for k, rec := range f.records {
		if rec.PeriodMonth != month || rec.PeriodYear != year || !rec.Status.Computable() {
			continue
		}
		rec.Status = payroll.PayrollStatusLocked
		rec.LockedBy, rec.LockedAt = &actor, &now
		rec.Version++
		f.records[k] = rec
		count++
	}
	return count, nil
}

func (f *fakePayrollRepo) MarkPaid(_ context.Context, codes []string, month, year int, actor string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	now := time.Now()
	var count int64
	for _, code := range codes {
		k := f.key(code, month, year)
		rec, ok := f.records[k]
		if !ok || rec.Status != payroll.PayrollStatusLocked {
			continue
		}
		rec.Status = payroll.PayrollStatusPaid
		rec.PaidBy, rec.PaidAt = &actor, &now
		rec.Version++
		f.records[k] = rec
		count++
	}
	return count, nil
}

func (f *fakePayrollRepo) ApplyAdjustment(_ context.Context, record payroll.PayrollRecord, adj payroll.ManualAdjustment) (payroll.PayrollRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	k := f.key(record.EmployeeCode, record.PeriodMonth, record.PeriodYear)
	stored, ok := f.records[k]
	if !ok {
		return payroll.PayrollRecord{}, payroll.ErrPayrollRecordNotFound
	}
	if !stored.Status.Computable() {
		return payroll.PayrollRecord{}, payroll.ErrRecordLocked
	}
	if stored.Version != record.Version {
		return payroll.PayrollRecord{}, payroll.ErrVersionConflict
	}

	record.ID = stored.ID
	record.Version = stored.Version + 1
	f.records[k] = record
	adj.CreatedAt = time.Now()
	f.adjustments = append(f.adjustments, adj)
	return record, nil
}

func (f *fakePayrollRepo) GetAdjustments(_ context.Context, code string, month, year int) ([]payroll.ManualAdjustment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []payroll.ManualAdjustment
	for _, a := range f.adjustments {
		if a.EmployeeCode == code && a.PeriodMonth == month && a.PeriodYear == year {
			out = append(out, a)
		}
	}
	return out, nil
}

func (f *fakePayrollRepo) GetPeriodSummary(_ context.Context, month, year int) (payroll.PeriodSummaryResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s := payroll.PeriodSummaryResponse{PeriodMonth: month, PeriodYear: year}
	for _, rec := range f.records {
		if rec.PeriodMonth != month || rec.PeriodYear != year {
			continue
		}
		s.EmployeeCount++
		s.TotalNetTakeHome = s.TotalNetTakeHome.Add(rec.NetTakeHome)
		s.TotalMonthlyCTC = s.TotalMonthlyCTC.Add(rec.MonthlyCTC)
		switch rec.Status {
		case payroll.PayrollStatusDraft:
			s.DraftCount++
		case payroll.PayrollStatusSubmitted:
			s.SubmittedCount++
		case payroll.PayrollStatusApproved:
			s.ApprovedCount++
		case payroll.PayrollStatusLocked:
			s.LockedCount++
		case payroll.PayrollStatusPaid:
			s.PaidCount++
		}
	}
	return s, nil
}

func (f *fakePayrollRepo) GetPerformanceAnalytics(_ context.Context, month, year int) ([]payroll.PerformanceGroupResponse, error) {
	return nil, nil
}

type fakeRenderer struct {
	rendered []string
}

func (f *fakeRenderer) Render(rec payroll.PayrollRecord, _ employee.Employee) (string, error) {
	path := fmt.Sprintf("/tmp/%s-%d-%d.pdf", rec.EmployeeCode, rec.PeriodYear, rec.PeriodMonth)
	f.rendered = append(f.rendered, path)
	return path, nil
}

// ========== FIXTURES ==========

const testSecret = "test-secret-key-for-jwt"

func authedContext(t *testing.T, userID string) context.Context {
	t.Helper()
	jwtService := jwt.NewJWTService(testSecret, "1h")
	tokenStr, _, err := jwtService.GenerateAccessToken(userID, "payroll_officer")
	require.NoError(t, err)
	token, err := jwtService.JWTAuth().Decode(tokenStr)
	require.NoError(t, err)
	return jwtauth.NewContext(context.Background(), token, nil)
}

func backendEmployee(code string) employee.Employee {
	return employee.Employee{
		ID:              "emp-" + code,
		EmployeeCode:    code,
		FullName:        "Backend " + code,
		Category:        employee.CategoryBackend,
		BaseSalary:      d("30000"),
		ProfessionalTax: d("200"),
		IsCurrent:       true,
	}
}

func salesEmployee(code string) employee.Employee {
	return employee.Employee{
		ID:           "emp-" + code,
		EmployeeCode: code,
		FullName:     "Sales " + code,
		Category:     employee.CategorySales,
		BaseSalary:   d("50000"),
		TargetSales:  d("100000"),
		Rules: employee.PerformanceRules{
			SafetyFloor:         d("60"),
			BufferThreshold:     d("80"),
			DeductionPercentage: d("10"),
		},
		ProfessionalTax: d("200"),
		IsCurrent:       true,
	}
}

func approvedAttendance(code string, month, year, total, eligible int, sales string) attendance.Record {
	approver := "mgr-1"
	now := time.Now()
	return attendance.Record{
		ID:           "att-" + code,
		EmployeeCode: code,
		PeriodMonth:  month,
		PeriodYear:   year,
		TotalDays:    total,
		PresentDays:  eligible,
		EligibleDays: eligible,
		ActualSales:  d(sales),
		Status:       attendance.StatusApproved,
		ApprovedBy:   &approver,
		ApprovedAt:   &now,
	}
}

// syncBuffer lets the batch workers log concurrently during tests.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

type testEnv struct {
	service     payroll.PayrollService
	payrollRepo *fakePayrollRepo
	empRepo     *fakeEmployeeRepo
	attRepo     *fakeAttendanceRepo
	renderer    *fakeRenderer
	logs        *syncBuffer
}

func newTestEnv(employees []employee.Employee, attendances []attendance.Record) *testEnv {
	attRepo := &fakeAttendanceRepo{records: map[string]attendance.Record{}}
	for _, a := range attendances {
		attRepo.records[attKey(a.EmployeeCode, a.PeriodMonth, a.PeriodYear)] = a
	}
	env := &testEnv{
		payrollRepo: newFakePayrollRepo(),
		empRepo:     &fakeEmployeeRepo{employees: employees},
		attRepo:     attRepo,
		renderer:    &fakeRenderer{},
		logs:        &syncBuffer{},
	}
	logger := slog.New(slog.NewJSONHandler(env.logs, nil))
	env.service = NewPayrollService(env.payrollRepo, env.empRepo, env.attRepo, env.renderer, logger, 4)
	return env
}

// ========== PROCESSING ==========

func TestProcessEmployeePayroll(t *testing.T) {
	env := newTestEnv(
		[]employee.Employee{backendEmployee("EMP-0001")},
		[]attendance.Record{approvedAttendance("EMP-0001", 7, 2025, 30, 28, "0")},
	)
	ctx := authedContext(t, "officer-1")

	resp, err := env.service.ProcessEmployeePayroll(ctx, payroll.ProcessEmployeeRequest{
		EmployeeCode: "EMP-0001", PeriodMonth: 7, PeriodYear: 2025,
	})
	require.NoError(t, err)

	assert.Equal(t, "draft", resp.Status)
	assert.Equal(t, int64(1), resp.Version)
	assert.True(t, resp.AdjustedGross.Equal(d("28000")), "gross %s", resp.AdjustedGross)
	assert.True(t, resp.Basic.Equal(d("16800")), "basic %s", resp.Basic)
	assert.True(t, resp.HRA.Equal(d("8400")), "hra %s", resp.HRA)
	assert.True(t, resp.DA.Equal(d("840")), "da %s", resp.DA)
	assert.True(t, resp.SpecialAllowance.Equal(d("1960")), "special %s", resp.SpecialAllowance)
	assert.True(t, resp.EPFEmployee.Equal(d("1800")), "epf %s", resp.EPFEmployee)
	assert.True(t, resp.ESICEmployee.IsZero(), "esic %s", resp.ESICEmployee)
	assert.True(t, resp.NetTakeHome.Equal(d("26000")), "net %s", resp.NetTakeHome)
	assert.Equal(t, "average", resp.PerformanceStatus)

	identity := resp.NetTakeHome.Add(resp.TotalEmployeeDeductions).Add(resp.TotalEmployerContributions)
	assert.True(t, resp.MonthlyCTC.Equal(identity), "monthly %s identity %s", resp.MonthlyCTC, identity)
	assert.True(t, resp.AnnualCTC.Equal(resp.MonthlyCTC.Mul(d("12"))))
}

func TestProcessEmployeePayroll_SalesOverachiever(t *testing.T) {
	env := newTestEnv(
		[]employee.Employee{salesEmployee("SA-0001")},
		[]attendance.Record{approvedAttendance("SA-0001", 7, 2025, 30, 30, "120000")},
	)
	ctx := authedContext(t, "officer-1")

	resp, err := env.service.ProcessEmployeePayroll(ctx, payroll.ProcessEmployeeRequest{
		EmployeeCode: "SA-0001", PeriodMonth: 7, PeriodYear: 2025,
	})
	require.NoError(t, err)

	assert.Equal(t, "excellent", resp.PerformanceStatus)
	assert.Equal(t, "green", resp.PerformanceColor)
	assert.True(t, resp.SalesPercentage.Equal(d("120")), "pct %s", resp.SalesPercentage)
	assert.True(t, resp.SalesIncentive.Equal(d("1000")), "incentive %s", resp.SalesIncentive)
	assert.True(t, resp.VariablePay.Equal(d("1000")))
	assert.True(t, resp.SalesDeduction.IsZero())
}

func TestProcessEmployeePayroll_MissingActor(t *testing.T) {
	env := newTestEnv(
		[]employee.Employee{backendEmployee("EMP-0001")},
		[]attendance.Record{approvedAttendance("EMP-0001", 7, 2025, 30, 28, "0")},
	)

	_, err := env.service.ProcessEmployeePayroll(context.Background(), payroll.ProcessEmployeeRequest{
		EmployeeCode: "EMP-0001", PeriodMonth: 7, PeriodYear: 2025,
	})
	assert.Error(t, err)
}

func TestProcessEmployeePayroll_UnknownEmployee(t *testing.T) {
	env := newTestEnv(nil, nil)
	ctx := authedContext(t, "officer-1")

	_, err := env.service.ProcessEmployeePayroll(ctx, payroll.ProcessEmployeeRequest{
		EmployeeCode: "EMP-0404", PeriodMonth: 7, PeriodYear: 2025,
	})
	assert.ErrorIs(t, err, employee.ErrEmployeeNotFound)
}

func TestProcessEmployeePayroll_AttendanceNotApproved(t *testing.T) {
	att := approvedAttendance("EMP-0001", 7, 2025, 30, 28, "0")
	att.Status = attendance.StatusWaitingApproval
	env := newTestEnv([]employee.Employee{backendEmployee("EMP-0001")}, []attendance.Record{att})
	ctx := authedContext(t, "officer-1")

	_, err := env.service.ProcessEmployeePayroll(ctx, payroll.ProcessEmployeeRequest{
		EmployeeCode: "EMP-0001", PeriodMonth: 7, PeriodYear: 2025,
	})
	assert.ErrorIs(t, err, attendance.ErrAttendanceNotApproved)
}

func TestRecomputeIsIdempotent(t *testing.T) {
	env := newTestEnv(
		[]employee.Employee{backendEmployee("EMP-0001")},
		[]attendance.Record{approvedAttendance("EMP-0001", 7, 2025, 30, 28, "0")},
	)
	ctx := authedContext(t, "officer-1")
	req := payroll.ProcessEmployeeRequest{EmployeeCode: "EMP-0001", PeriodMonth: 7, PeriodYear: 2025}

	first, err := env.service.ProcessEmployeePayroll(ctx, req)
	require.NoError(t, err)

	// Move the record forward, then recompute; workflow state must survive.
	require.NoError(t, env.service.SubmitRecord(ctx, payroll.WorkflowRequest{
		EmployeeCode: "EMP-0001", PeriodMonth: 7, PeriodYear: 2025,
	}))

	second, err := env.service.ProcessEmployeePayroll(ctx, req)
	require.NoError(t, err)

	assert.True(t, second.NetTakeHome.Equal(first.NetTakeHome))
	assert.True(t, second.MonthlyCTC.Equal(first.MonthlyCTC))
	assert.Equal(t, "submitted", second.Status)
	assert.NotNil(t, second.SubmittedBy)
	assert.Greater(t, second.Version, first.Version)
}

func TestProcessEmployeePayroll_LockedRecordRefused(t *testing.T) {
	env := newTestEnv(
		[]employee.Employee{backendEmployee("EMP-0001")},
		[]attendance.Record{approvedAttendance("EMP-0001", 7, 2025, 30, 28, "0")},
	)
	ctx := authedContext(t, "officer-1")
	req := payroll.ProcessEmployeeRequest{EmployeeCode: "EMP-0001", PeriodMonth: 7, PeriodYear: 2025}

	first, err := env.service.ProcessEmployeePayroll(ctx, req)
	require.NoError(t, err)

	_, err = env.service.LockPeriod(ctx, payroll.LockPeriodRequest{PeriodMonth: 7, PeriodYear: 2025})
	require.NoError(t, err)

	_, err = env.service.ProcessEmployeePayroll(ctx, req)
	assert.ErrorIs(t, err, payroll.ErrRecordLocked)

	// Stored record untouched
	stored, err := env.payrollRepo.GetByEmployeePeriod(context.Background(), "EMP-0001", 7, 2025)
	require.NoError(t, err)
	assert.Equal(t, payroll.PayrollStatusLocked, stored.Status)
	assert.True(t, stored.NetTakeHome.Equal(first.NetTakeHome))
}

// ========== BATCH ==========

func TestProcessPeriodPayroll_IsolatesFailures(t *testing.T) {
	employees := []employee.Employee{
		backendEmployee("EMP-0001"),
		backendEmployee("EMP-0002"), // no attendance record
		salesEmployee("SA-0003"),
	}
	attendances := []attendance.Record{
		approvedAttendance("EMP-0001", 7, 2025, 30, 30, "0"),
		approvedAttendance("SA-0003", 7, 2025, 30, 30, "90000"),
	}
	env := newTestEnv(employees, attendances)
	ctx := authedContext(t, "officer-1")

	report, err := env.service.ProcessPeriodPayroll(ctx, payroll.ProcessPeriodRequest{
		PeriodMonth: 7, PeriodYear: 2025,
	})
	require.NoError(t, err)

	assert.NotEmpty(t, report.RunID)
	assert.Equal(t, 3, report.Processed)
	assert.Equal(t, 2, report.Succeeded)
	assert.Equal(t, 1, report.Failed)
	require.Len(t, report.Results, 3)

	// Results follow master order regardless of worker scheduling
	assert.Equal(t, "EMP-0001", report.Results[0].EmployeeCode)
	assert.True(t, report.Results[0].Succeeded)
	require.NotNil(t, report.Results[0].NetTakeHome)

	assert.Equal(t, "EMP-0002", report.Results[1].EmployeeCode)
	assert.False(t, report.Results[1].Succeeded)
	assert.Equal(t, "attendance_missing", report.Results[1].ErrorKind)

	assert.Equal(t, "SA-0003", report.Results[2].EmployeeCode)
	assert.True(t, report.Results[2].Succeeded)

	// The failure left no record behind
	_, err = env.payrollRepo.GetByEmployeePeriod(context.Background(), "EMP-0002", 7, 2025)
	assert.ErrorIs(t, err, payroll.ErrPayrollRecordNotFound)
}

func TestProcessPeriodPayroll_LogsEachFailure(t *testing.T) {
	env := newTestEnv(
		[]employee.Employee{backendEmployee("EMP-0001"), backendEmployee("EMP-0002")},
		[]attendance.Record{approvedAttendance("EMP-0001", 7, 2025, 30, 30, "0")},
	)
	ctx := authedContext(t, "officer-1")

	_, err := env.service.ProcessPeriodPayroll(ctx, payroll.ProcessPeriodRequest{
		PeriodMonth: 7, PeriodYear: 2025,
	})
	require.NoError(t, err)

	logs := env.logs.String()
	assert.Contains(t, logs, "payroll computation failed")
	assert.Contains(t, logs, "EMP-0002")
	assert.Contains(t, logs, "attendance_missing")
	assert.Contains(t, logs, `"period_month":7`)
	assert.Contains(t, logs, `"period_year":2025`)
}

func TestProcessEmployeePayroll_LogsFailure(t *testing.T) {
	env := newTestEnv([]employee.Employee{backendEmployee("EMP-0001")}, nil)
	ctx := authedContext(t, "officer-1")

	_, err := env.service.ProcessEmployeePayroll(ctx, payroll.ProcessEmployeeRequest{
		EmployeeCode: "EMP-0001", PeriodMonth: 7, PeriodYear: 2025,
	})
	require.Error(t, err)

	logs := env.logs.String()
	assert.Contains(t, logs, "payroll computation failed")
	assert.Contains(t, logs, "EMP-0001")
	assert.Contains(t, logs, "attendance_missing")
	assert.False(t, strings.Contains(logs, "payroll computed"))
}

// ========== WORKFLOW ==========

func TestWorkflowTransitions(t *testing.T) {
	env := newTestEnv(
		[]employee.Employee{backendEmployee("EMP-0001")},
		[]attendance.Record{approvedAttendance("EMP-0001", 7, 2025, 30, 30, "0")},
	)
	ctx := authedContext(t, "officer-1")
	wf := payroll.WorkflowRequest{EmployeeCode: "EMP-0001", PeriodMonth: 7, PeriodYear: 2025}

	_, err := env.service.ProcessEmployeePayroll(ctx, payroll.ProcessEmployeeRequest{
		EmployeeCode: "EMP-0001", PeriodMonth: 7, PeriodYear: 2025,
	})
	require.NoError(t, err)

	// Approve before submit is refused
	assert.ErrorIs(t, env.service.ApproveRecord(ctx, wf), payroll.ErrInvalidTransition)

	require.NoError(t, env.service.SubmitRecord(ctx, wf))
	// Submitting twice is refused
	assert.ErrorIs(t, env.service.SubmitRecord(ctx, wf), payroll.ErrInvalidTransition)

	require.NoError(t, env.service.ApproveRecord(ctx, wf))

	stored, err := env.payrollRepo.GetByEmployeePeriod(context.Background(), "EMP-0001", 7, 2025)
	require.NoError(t, err)
	assert.Equal(t, payroll.PayrollStatusApproved, stored.Status)
	require.NotNil(t, stored.SubmittedBy)
	assert.Equal(t, "officer-1", *stored.SubmittedBy)
	require.NotNil(t, stored.ApprovedBy)
	assert.Equal(t, "officer-1", *stored.ApprovedBy)
}

func TestLockPeriodSweep(t *testing.T) {
	var employees []employee.Employee
	var attendances []attendance.Record
	for i := 1; i <= 12; i++ {
		code := fmt.Sprintf("EMP-%04d", i)
		employees = append(employees, backendEmployee(code))
		attendances = append(attendances, approvedAttendance(code, 7, 2025, 30, 30, "0"))
	}
	env := newTestEnv(employees, attendances)
	ctx := authedContext(t, "officer-1")

	_, err := env.service.ProcessPeriodPayroll(ctx, payroll.ProcessPeriodRequest{PeriodMonth: 7, PeriodYear: 2025})
	require.NoError(t, err)

	// Lock everything out of band first
	_, err = env.payrollRepo.LockPeriod(context.Background(), 7, 2025, "early-bird")
	require.NoError(t, err)
	_, err = env.service.ProcessEmployeePayroll(ctx, payroll.ProcessEmployeeRequest{
		EmployeeCode: "EMP-0001", PeriodMonth: 7, PeriodYear: 2025,
	})
	assert.ErrorIs(t, err, payroll.ErrRecordLocked)

	// Sweep again: everything already locked, count is zero
	resp, err := env.service.LockPeriod(ctx, payroll.LockPeriodRequest{PeriodMonth: 7, PeriodYear: 2025})
	require.NoError(t, err)
	assert.Equal(t, int64(0), resp.LockedCount)
}

func TestLockPeriodCountsOnlyOpenRecords(t *testing.T) {
	var employees []employee.Employee
	var attendances []attendance.Record
	for i := 1; i <= 10; i++ {
		code := fmt.Sprintf("EMP-%04d", i)
		employees = append(employees, backendEmployee(code))
		attendances = append(attendances, approvedAttendance(code, 7, 2025, 30, 30, "0"))
	}
	env := newTestEnv(employees, attendances)
	ctx := authedContext(t, "officer-1")

	_, err := env.service.ProcessPeriodPayroll(ctx, payroll.ProcessPeriodRequest{PeriodMonth: 7, PeriodYear: 2025})
	require.NoError(t, err)

	resp, err := env.service.LockPeriod(ctx, payroll.LockPeriodRequest{PeriodMonth: 7, PeriodYear: 2025})
	require.NoError(t, err)
	assert.Equal(t, int64(10), resp.LockedCount)
}

func TestMarkPaidRequiresLocked(t *testing.T) {
	env := newTestEnv(
		[]employee.Employee{backendEmployee("EMP-0001"), backendEmployee("EMP-0002")},
		[]attendance.Record{
			approvedAttendance("EMP-0001", 7, 2025, 30, 30, "0"),
			approvedAttendance("EMP-0002", 7, 2025, 30, 30, "0"),
		},
	)
	ctx := authedContext(t, "officer-1")

	_, err := env.service.ProcessPeriodPayroll(ctx, payroll.ProcessPeriodRequest{PeriodMonth: 7, PeriodYear: 2025})
	require.NoError(t, err)

	// Nothing locked yet, nothing paid
	resp, err := env.service.MarkPaid(ctx, payroll.MarkPaidRequest{
		EmployeeCodes: []string{"EMP-0001", "EMP-0002"}, PeriodMonth: 7, PeriodYear: 2025,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(0), resp.PaidCount)

	_, err = env.service.LockPeriod(ctx, payroll.LockPeriodRequest{PeriodMonth: 7, PeriodYear: 2025})
	require.NoError(t, err)

	resp, err = env.service.MarkPaid(ctx, payroll.MarkPaidRequest{
		EmployeeCodes: []string{"EMP-0001", "EMP-0002"}, PeriodMonth: 7, PeriodYear: 2025,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(2), resp.PaidCount)
}

// ========== ADJUSTMENTS ==========

func TestAdjustRecord(t *testing.T) {
	env := newTestEnv(
		[]employee.Employee{backendEmployee("EMP-0001")},
		[]attendance.Record{approvedAttendance("EMP-0001", 7, 2025, 30, 28, "0")},
	)
	ctx := authedContext(t, "officer-1")

	before, err := env.service.ProcessEmployeePayroll(ctx, payroll.ProcessEmployeeRequest{
		EmployeeCode: "EMP-0001", PeriodMonth: 7, PeriodYear: 2025,
	})
	require.NoError(t, err)

	after, err := env.service.AdjustRecord(ctx, payroll.ManualAdjustmentRequest{
		EmployeeCode: "EMP-0001", PeriodMonth: 7, PeriodYear: 2025,
		Field: "tds", NewValue: d("1500"), Reason: "quarterly tax revision",
	})
	require.NoError(t, err)

	assert.True(t, after.TDS.Equal(d("1500")))
	assert.True(t, after.TotalEmployeeDeductions.Equal(before.TotalEmployeeDeductions.Add(d("1500"))),
		"deductions %s", after.TotalEmployeeDeductions)
	assert.True(t, after.NetTakeHome.Equal(before.NetTakeHome.Sub(d("1500"))),
		"net %s", after.NetTakeHome)

	identity := after.NetTakeHome.Add(after.TotalEmployeeDeductions).Add(after.TotalEmployerContributions)
	assert.True(t, after.MonthlyCTC.Equal(identity))

	require.Len(t, after.ManualAdjustments, 1)
	trail := after.ManualAdjustments[0]
	assert.Equal(t, "tds", trail.Field)
	assert.True(t, trail.OldValue.IsZero())
	assert.True(t, trail.NewValue.Equal(d("1500")))
	assert.Equal(t, "officer-1", trail.AdjustedBy)
	assert.Equal(t, "quarterly tax revision", trail.Reason)
}

func TestAdjustRecord_RefusedWhenLocked(t *testing.T) {
	env := newTestEnv(
		[]employee.Employee{backendEmployee("EMP-0001")},
		[]attendance.Record{approvedAttendance("EMP-0001", 7, 2025, 30, 28, "0")},
	)
	ctx := authedContext(t, "officer-1")

	_, err := env.service.ProcessEmployeePayroll(ctx, payroll.ProcessEmployeeRequest{
		EmployeeCode: "EMP-0001", PeriodMonth: 7, PeriodYear: 2025,
	})
	require.NoError(t, err)
	_, err = env.service.LockPeriod(ctx, payroll.LockPeriodRequest{PeriodMonth: 7, PeriodYear: 2025})
	require.NoError(t, err)

	_, err = env.service.AdjustRecord(ctx, payroll.ManualAdjustmentRequest{
		EmployeeCode: "EMP-0001", PeriodMonth: 7, PeriodYear: 2025,
		Field: "tds", NewValue: d("1500"), Reason: "too late",
	})
	assert.ErrorIs(t, err, payroll.ErrRecordLocked)
}

func TestAdjustRecord_RejectsUnknownField(t *testing.T) {
	env := newTestEnv(
		[]employee.Employee{backendEmployee("EMP-0001")},
		[]attendance.Record{approvedAttendance("EMP-0001", 7, 2025, 30, 28, "0")},
	)
	ctx := authedContext(t, "officer-1")

	_, err := env.service.AdjustRecord(ctx, payroll.ManualAdjustmentRequest{
		EmployeeCode: "EMP-0001", PeriodMonth: 7, PeriodYear: 2025,
		Field: "basic", NewValue: d("99999"), Reason: "nope",
	})
	assert.Error(t, err)
}

// ========== SUMMARY / PAYSLIP ==========

func TestGetPeriodSummary(t *testing.T) {
	env := newTestEnv(
		[]employee.Employee{backendEmployee("EMP-0001"), backendEmployee("EMP-0002")},
		[]attendance.Record{
			approvedAttendance("EMP-0001", 7, 2025, 30, 30, "0"),
			approvedAttendance("EMP-0002", 7, 2025, 30, 30, "0"),
		},
	)
	ctx := authedContext(t, "officer-1")

	_, err := env.service.ProcessPeriodPayroll(ctx, payroll.ProcessPeriodRequest{PeriodMonth: 7, PeriodYear: 2025})
	require.NoError(t, err)

	summary, err := env.service.GetPeriodSummary(ctx, 7, 2025)
	require.NoError(t, err)
	assert.Equal(t, 2, summary.EmployeeCount)
	assert.Equal(t, 2, summary.DraftCount)
	assert.True(t, summary.TotalNetTakeHome.IsPositive())
}

func TestGeneratePayslipPDF(t *testing.T) {
	env := newTestEnv(
		[]employee.Employee{backendEmployee("EMP-0001")},
		[]attendance.Record{approvedAttendance("EMP-0001", 7, 2025, 30, 30, "0")},
	)
	ctx := authedContext(t, "officer-1")

	_, err := env.service.ProcessEmployeePayroll(ctx, payroll.ProcessEmployeeRequest{
		EmployeeCode: "EMP-0001", PeriodMonth: 7, PeriodYear: 2025,
	})
	require.NoError(t, err)

	path, err := env.service.GeneratePayslipPDF(ctx, "EMP-0001", 7, 2025)
	require.NoError(t, err)
	assert.NotEmpty(t, path)
	assert.Len(t, env.renderer.rendered, 1)

	_, err = env.service.GeneratePayslipPDF(ctx, "EMP-0404", 7, 2025)
	assert.ErrorIs(t, err, payroll.ErrPayrollRecordNotFound)
}
