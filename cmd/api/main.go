package main

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/go-chi/httplog/v3"

	"github.com/veritas-hr/payroll-engine-go/internal/config"
	appHTTP "github.com/veritas-hr/payroll-engine-go/internal/handler/http"
	"github.com/veritas-hr/payroll-engine-go/internal/pkg/cron"
	"github.com/veritas-hr/payroll-engine-go/internal/pkg/database"
	"github.com/veritas-hr/payroll-engine-go/internal/pkg/jwt"
	"github.com/veritas-hr/payroll-engine-go/internal/pkg/payslip"
	"github.com/veritas-hr/payroll-engine-go/internal/repository/postgresql"
	payrollService "github.com/veritas-hr/payroll-engine-go/internal/service/payroll"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Println("Error loading config:", err)
		return
	}

	logFormat := httplog.SchemaECS.Concise(false)
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		ReplaceAttr: logFormat.ReplaceAttr,
	})).With(
		slog.String("app", "payroll-engine"),
		slog.String("version", "v1.0.0"),
		slog.String("env", cfg.App.Env),
	)

	dsn := cfg.DatabaseURL()
	db, err := database.NewPostgreSQLDB(dsn)
	if err != nil {
		fmt.Println("Error connecting to database:", err)
		return
	}

	employeeRepo := postgresql.NewEmployeeRepository(db)
	attendanceRepo := postgresql.NewAttendanceRepository(db)
	payrollRepo := postgresql.NewPayrollRepository(db)

	JWTService := jwt.NewJWTService(cfg.JWT.Secret, cfg.JWT.AccessExpiration)
	payslipRenderer := payslip.NewPDFRenderer(cfg.Payslip.Dir)

	payrollSvc := payrollService.NewPayrollService(
		payrollRepo,
		employeeRepo,
		attendanceRepo,
		payslipRenderer,
		logger,
		cfg.Payroll.BatchWorkers,
	)

	payrollHandler := appHTTP.NewPayrollHandler(payrollSvc)

	router := appHTTP.NewRouter(JWTService, payrollHandler, logger)

	if cfg.Payroll.AutoRunEnabled {
		scheduler := cron.NewScheduler(logger)
		payrollJobs := cron.NewPayrollJobs(payrollSvc, payrollRepo, JWTService, logger, cfg.Payroll.AutoRunDay)
		payrollJobs.RegisterJobs(scheduler)
		scheduler.Start()
		defer scheduler.Stop()
	}

	port := fmt.Sprintf(":%d", cfg.App.Port)
	fmt.Printf("Server running at http://localhost%s\n", port)
	if err := http.ListenAndServe(port, router); err != nil {
		fmt.Println("Server error:", err)
	}
}
