package api

import (
	"log/slog"

	"github.com/gofiber/adaptor/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/veriface/punchclock/internal/admin"
	"github.com/veriface/punchclock/internal/api/handler"
	"github.com/veriface/punchclock/internal/api/middleware"
	"github.com/veriface/punchclock/internal/recognition"
	"github.com/veriface/punchclock/internal/repository"
	"github.com/veriface/punchclock/internal/timesheet"
	"github.com/veriface/punchclock/internal/vision"
)

// Dependencies wires the handlers to the core.
type Dependencies struct {
	DB         handler.Pinger
	Employees  repository.EmployeeRepositoryInterface
	Templates  repository.TemplateRepositoryInterface
	Attendance repository.AttendanceRepositoryInterface
	Timesheet  *timesheet.Service
	Session    *recognition.Session
	Store      *recognition.TemplateStore
	Admin      *admin.Service
	Provider   vision.Provider
	Previews   *handler.PreviewStore
}

// Router owns the fiber app and its route wiring.
type Router struct {
	app    *fiber.App
	logger *slog.Logger
	deps   *Dependencies
}

// NewRouter creates the app with the shared error handler.
func NewRouter(logger *slog.Logger, deps *Dependencies) *Router {
	app := fiber.New(fiber.Config{
		ErrorHandler: middleware.ErrorHandler(logger),
		AppName:      "Punchclock API",
		BodyLimit:    12 * 1024 * 1024, // enrollment photos
	})

	return &Router{
		app:    app,
		logger: logger,
		deps:   deps,
	}
}

// Setup registers middlewares and routes.
func (r *Router) Setup() {
	r.app.Use(requestid.New())
	r.app.Use(middleware.Recover(r.logger))
	r.app.Use(middleware.Logger(r.logger))
	r.app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept,Authorization",
	}))

	healthHandler := handler.NewHealthHandler(r.deps.DB)
	r.app.Get("/health", healthHandler.Health)
	r.app.Get("/ready", healthHandler.Ready)
	r.app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	if r.deps.Previews != nil {
		r.app.Static("/previews", r.deps.Previews.Dir())
	}

	v1 := r.app.Group("/v1")

	clockHandler := handler.NewClockHandler(
		r.deps.Session,
		r.deps.Timesheet,
		r.deps.Employees,
		r.deps.Previews,
		r.logger,
	)
	v1.Post("/clock", clockHandler.Clock)

	timesheetHandler := handler.NewTimesheetHandler(r.deps.Timesheet, r.logger)
	v1.Get("/employees/:id/timesheet", timesheetHandler.GetTimesheet)
	v1.Get("/employees/:id/rollup", timesheetHandler.GetRollup)

	adminHandler := handler.NewAdminHandler(
		r.deps.Admin,
		r.deps.Employees,
		r.deps.Templates,
		r.deps.Attendance,
		r.deps.Timesheet,
		r.deps.Provider,
		r.deps.Store,
		r.logger,
	)

	adminGroup := v1.Group("/admin")
	adminGroup.Post("/login", adminHandler.Login)

	auth := middleware.AdminAuth(r.deps.Admin, r.logger)
	adminGroup.Post("/employees", auth, adminHandler.CreateEmployee)
	adminGroup.Get("/employees", auth, adminHandler.ListEmployees)
	adminGroup.Put("/employees/:id/rate", auth, adminHandler.UpdateRate)
	adminGroup.Delete("/employees/:id", auth, adminHandler.DeleteEmployee)
	adminGroup.Post("/employees/:id/faces", auth, adminHandler.EnrollFace)
	adminGroup.Delete("/faces/:id", auth, adminHandler.DeleteTemplate)
	adminGroup.Get("/employees/:id/attendance", auth, adminHandler.ListAttendance)
	adminGroup.Get("/payroll", auth, adminHandler.Payroll)
}

// App exposes the fiber app, mainly for tests.
func (r *Router) App() *fiber.App {
	return r.app
}

// Listen starts serving on the given address.
func (r *Router) Listen(addr string) error {
	return r.app.Listen(addr)
}

// Shutdown drains in-flight requests and stops the server.
func (r *Router) Shutdown() error {
	return r.app.Shutdown()
}
