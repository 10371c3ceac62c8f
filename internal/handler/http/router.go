package http

import (
	"log/slog"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httplog/v3"
	"github.com/go-chi/jwtauth/v5"

	"github.com/veritas-hr/payroll-engine-go/internal/handler/http/middleware"
	"github.com/veritas-hr/payroll-engine-go/internal/pkg/jwt"
)

func NewRouter(JWTService jwt.Service, payrollHandler PayrollHandler, logger *slog.Logger) *chi.Mux {
	r := chi.NewRouter()

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:3000"},
		AllowCredentials: true,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		MaxAge:           300,
	}))

	r.Use(httplog.RequestLogger(logger, &httplog.Options{
		Level:  slog.LevelDebug,
		Schema: httplog.SchemaECS,
	}))

	r.Use(chiMiddleware.AllowContentEncoding("application/json"))
	r.Use(chiMiddleware.CleanPath)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Heartbeat("/"))

	r.Route("/api/v1", func(r chi.Router) {

		// Requires authentication
		r.Group(func(r chi.Router) {
			r.Use(jwtauth.Verifier(JWTService.JWTAuth()))
			r.Use(middleware.AuthRequired(JWTService.JWTAuth()))

			r.Route("/payroll", func(r chi.Router) {
				r.Post("/process", payrollHandler.ProcessEmployee)
				r.Post("/process-period", payrollHandler.ProcessPeriod)

				r.Get("/records", payrollHandler.ListPayrollRecords)
				r.Route("/employees/{employeeCode}/{year}/{month}", func(r chi.Router) {
					r.Get("/", payrollHandler.GetEmployeePayroll)
					r.Get("/payslip", payrollHandler.DownloadPayslip)
				})

				r.Post("/submit", payrollHandler.SubmitRecord)
				r.Post("/approve", payrollHandler.ApproveRecord)
				r.Post("/lock", payrollHandler.LockPeriod)
				r.Post("/mark-paid", payrollHandler.MarkPaid)

				r.Post("/adjustments", payrollHandler.AdjustRecord)

				r.Get("/summary/{year}/{month}", payrollHandler.GetPeriodSummary)
				r.Get("/analytics/{year}/{month}", payrollHandler.GetPerformanceAnalytics)
			})
		})
	})
	return r
}
