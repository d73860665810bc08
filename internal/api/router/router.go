package router

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"

	"github.com/wolfman30/vetchart/internal/animals"
	"github.com/wolfman30/vetchart/internal/appointments"
	httpmiddleware "github.com/wolfman30/vetchart/internal/http/middleware"
	"github.com/wolfman30/vetchart/internal/observability/metrics"
	"github.com/wolfman30/vetchart/internal/preferences"
	"github.com/wolfman30/vetchart/internal/records"
	"github.com/wolfman30/vetchart/internal/reports"
	"github.com/wolfman30/vetchart/internal/soap"
	"github.com/wolfman30/vetchart/internal/storage"
	"github.com/wolfman30/vetchart/pkg/logging"
)

// Config holds router configuration
type Config struct {
	Logger              *logging.Logger
	AnimalsHandler      *animals.Handler
	RecordsHandler      *records.Handler
	AppointmentsHandler *appointments.Handler
	PreferencesHandler  *preferences.Handler
	UploadsHandler      *storage.Handler
	SoapHandler         *soap.Handler
	ReportsHandler      *reports.Handler

	// Refresher backs the debug endpoint.
	Refresher *appointments.Refresher

	AdminAuthSecret    string
	DebugEndpoints     bool
	CORSAllowedOrigins []string
	RateLimitRPS       float64
	RateLimitBurst     int

	MetricsHandler  http.Handler
	MetricsGatherer prometheus.Gatherer
	HTTPMetrics     *metrics.HTTPMetrics

	// Readiness dependencies (optional)
	DBCheck func(context.Context) error
	Redis   *redis.Client
}

// New creates a new Chi router with all routes configured
func New(cfg *Config) http.Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}
	r := chi.NewRouter()

	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))
	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(httpmiddleware.CORS(cfg.CORSAllowedOrigins))
	}
	r.Use(httpmiddleware.RequestLogger(logger, cfg.HTTPMetrics))

	// Probes and metrics skip rate limiting.
	r.Get("/health", health)
	r.Get("/readyz", readiness(cfg.DBCheck, cfg.Redis, logger))
	if cfg.MetricsHandler != nil {
		r.Handle("/metrics", cfg.MetricsHandler)
	}
	if cfg.UploadsHandler != nil {
		r.Get(storage.URLPrefix+"{name}", cfg.UploadsHandler.ServeUpload)
	}

	r.Route("/api", func(api chi.Router) {
		api.Use(httpmiddleware.RateLimit(cfg.RateLimitRPS, cfg.RateLimitBurst))

		api.Route("/animals", func(r chi.Router) {
			if cfg.AnimalsHandler != nil {
				r.Get("/", cfg.AnimalsHandler.ListAnimals)
				r.Post("/", cfg.AnimalsHandler.CreateAnimal)
			}
			if cfg.RecordsHandler != nil {
				r.Get("/{id}", cfg.RecordsHandler.GetAnimalChart)
				r.Get("/{id}/records", cfg.RecordsHandler.ListAnimalRecords)
			}
		})

		if cfg.RecordsHandler != nil {
			api.Route("/records", func(r chi.Router) {
				r.Post("/", cfg.RecordsHandler.CreateRecord)
				r.Put("/{id}", cfg.RecordsHandler.UpdateRecord)
				r.Delete("/{id}", cfg.RecordsHandler.DeleteRecord)
			})
		}

		if cfg.AppointmentsHandler != nil {
			api.Route("/appointments", func(r chi.Router) {
				r.Get("/", cfg.AppointmentsHandler.ListAppointments)
				r.Get("/index", cfg.AppointmentsHandler.GetIndex)
				r.Get("/slots", cfg.AppointmentsHandler.GetSlots)
				r.Get("/calendar.ics", cfg.AppointmentsHandler.GetCalendar)
				r.Post("/refresh", cfg.AppointmentsHandler.Refresh)
			})
		}

		if cfg.PreferencesHandler != nil {
			api.Get("/preferences", cfg.PreferencesHandler.GetPreferences)
			api.Put("/preferences", cfg.PreferencesHandler.UpdatePreferences)
			api.Get("/farms", cfg.PreferencesHandler.ListFarms)
			api.Post("/farms", cfg.PreferencesHandler.AddFarm)
			api.Delete("/farms/{name}", cfg.PreferencesHandler.RemoveFarm)
		}

		if cfg.UploadsHandler != nil {
			api.Post("/uploads/images", cfg.UploadsHandler.UploadImages)
		}

		if cfg.SoapHandler != nil {
			api.Post("/transcribe", cfg.SoapHandler.Transcribe)
			api.Post("/generateSoap", cfg.SoapHandler.GenerateSoap)
			api.Post("/generateSoapFromText", cfg.SoapHandler.GenerateSoapFromText)
			api.Post("/translate", cfg.SoapHandler.Translate)
		}

		if cfg.DebugEndpoints && cfg.Refresher != nil {
			api.Route("/debug", func(debug chi.Router) {
				debug.Use(httpmiddleware.AdminJWT(cfg.AdminAuthSecret))
				debug.Get("/appointments", debugAppointments(cfg.Refresher, cfg.MetricsGatherer))
			})
		}
	})

	// Admin routes (protected by JWT)
	if cfg.AdminAuthSecret != "" && cfg.ReportsHandler != nil {
		r.Route("/admin", func(admin chi.Router) {
			admin.Use(httpmiddleware.AdminJWT(cfg.AdminAuthSecret))
			admin.Get("/reports/farms", cfg.ReportsHandler.GetFarms)
		})
	}

	return r
}
