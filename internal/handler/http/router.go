package http

import (
	"log/slog"
	"net/http"
	"os"

	"github.com/cmlabs-hris/timesheet-backend-go/internal/config"
	"github.com/cmlabs-hris/timesheet-backend-go/internal/handler/http/middleware"
	"github.com/cmlabs-hris/timesheet-backend-go/internal/pkg/jwt"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httplog/v3"
	"github.com/go-chi/jwtauth/v5"
)

// Handlers groups every HTTP handler the router mounts.
type Handlers struct {
	TimeRecord  TimeRecordHandler
	Timesheet   TimesheetHandler
	Overtime    OvertimeHandler
	Geofence    GeofenceHandler
	Adjustment  AdjustmentHandler
	ClockImport ClockImportHandler
	Holiday     HolidayHandler
	Event       EventHandler
}

// NewRouter mounts the API. uploadsPath, when set, is served under /uploads
// for the local storage backend.
func NewRouter(app config.AppConfig, JWTService jwt.Service, h Handlers, uploadsPath string) *chi.Mux {
	r := chi.NewRouter()
	logFormat := httplog.SchemaECS.Concise(app.Env != "production")
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		ReplaceAttr: logFormat.ReplaceAttr,
	})).With(
		slog.String("app", "timesheet-cmlabs"),
		slog.String("version", "v1.0.0"),
		slog.String("env", app.Env),
	)

	origins := app.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"http://localhost:3000"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowCredentials: true,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		MaxAge:           300,
	}))

	r.Use(chiMiddleware.RealIP)

	r.Use(httplog.RequestLogger(logger, &httplog.Options{
		Level:  slog.LevelDebug,
		Schema: httplog.SchemaECS,
	}))

	r.Use(chiMiddleware.CleanPath)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Heartbeat("/"))

	if uploadsPath != "" {
		fs := http.StripPrefix("/uploads/", http.FileServer(http.Dir(uploadsPath)))
		r.Get("/uploads/*", fs.ServeHTTP)
	}

	r.Route("/api/v1", func(r chi.Router) {

		// The stream authenticates with its own short-lived query token.
		r.Get("/events/stream", h.Event.Stream)

		// Requires authentication
		r.Group(func(r chi.Router) {
			r.Use(jwtauth.Verifier(JWTService.JWTAuth()))
			r.Use(middleware.AuthRequired)

			r.Get("/events/token", h.Event.GetStreamToken)

			r.Route("/time-records", func(r chi.Router) {
				r.Group(func(r chi.Router) {
					r.Use(middleware.RequireEmployee)
					r.Post("/", h.TimeRecord.Submit)
					r.Get("/my", h.TimeRecord.GetMyRecords)
					r.Get("/my/last", h.TimeRecord.GetMyLast)
					r.Get("/my/next-type", h.TimeRecord.GetMyNextType)
				})

				// Manager only
				r.Group(func(r chi.Router) {
					r.Use(middleware.RequireManager)
					r.Get("/pending", h.TimeRecord.ListPending)
					r.Get("/statistics", h.TimeRecord.Statistics)
					r.Post("/{id}/approve", h.TimeRecord.Approve)
					r.Post("/{id}/reject", h.TimeRecord.Reject)
				})
			})

			r.Route("/timesheet", func(r chi.Router) {
				r.Group(func(r chi.Router) {
					r.Use(middleware.RequireEmployee)
					r.Get("/my", h.Timesheet.GetMyTimesheet)
					r.Get("/my/totals", h.Timesheet.GetMyTotals)
					r.Get("/my/day", h.Timesheet.GetMyDay)
				})

				r.Route("/employees/{employeeID}", func(r chi.Router) {
					r.Use(middleware.RequireManager)
					r.Get("/", h.Timesheet.GetEmployeeTimesheet)
					r.Post("/{date}/recompute", h.Timesheet.Recompute)
					r.Post("/{date}/close", h.Timesheet.Close)
				})
			})

			r.Route("/overtime-bank", func(r chi.Router) {
				r.Route("/my", func(r chi.Router) {
					r.Use(middleware.RequireEmployee)
					r.Get("/balance", h.Overtime.GetMyBalance)
					r.Get("/summary", h.Overtime.GetMySummary)
					r.Get("/movements", h.Overtime.GetMyMovements)
					r.Get("/expiring", h.Overtime.GetMyExpiring)
				})

				r.Route("/employees/{employeeID}", func(r chi.Router) {
					r.Use(middleware.RequireManager)
					r.Post("/adjustments", h.Overtime.AddAdjustment)
					r.Post("/payouts", h.Overtime.AddPayout)
					r.Post("/credits", h.Overtime.AddCredit)
					r.Post("/debits", h.Overtime.AddDebit)
				})
			})

			r.Route("/geofences", func(r chi.Router) {
				r.Get("/active", h.Geofence.ListActive)

				r.Group(func(r chi.Router) {
					r.Use(middleware.RequireEmployee)
					r.Get("/my", h.Geofence.GetMy)
					r.Post("/validate", h.Geofence.ValidateLocation)
				})

				// Manager only
				r.Group(func(r chi.Router) {
					r.Use(middleware.RequireManager)
					r.Get("/", h.Geofence.List)
					r.Post("/", h.Geofence.Create)
					r.Get("/{id}", h.Geofence.Get)
					r.Put("/{id}", h.Geofence.Update)
					r.Delete("/{id}", h.Geofence.Delete)
				})
			})

			r.Route("/time-adjustments", func(r chi.Router) {
				r.Get("/{id}", h.Adjustment.Get)

				r.Group(func(r chi.Router) {
					r.Use(middleware.RequireEmployee)
					r.Post("/", h.Adjustment.Create)
					r.Get("/my", h.Adjustment.ListMy)
					r.Post("/{id}/cancel", h.Adjustment.Cancel)
				})

				// Manager only
				r.Group(func(r chi.Router) {
					r.Use(middleware.RequireManager)
					r.Get("/pending", h.Adjustment.ListPending)
					r.Post("/{id}/approve", h.Adjustment.Approve)
					r.Post("/{id}/reject", h.Adjustment.Reject)
				})
			})

			r.Route("/clock-imports", func(r chi.Router) {
				r.Use(middleware.RequireManager)
				r.Post("/", h.ClockImport.Import)
				r.Post("/validate", h.ClockImport.Validate)
			})

			r.Route("/holidays", func(r chi.Router) {
				r.Get("/", h.Holiday.List)
				r.With(middleware.RequireManager).Post("/", h.Holiday.Create)
			})
		})
	})
	return r
}
