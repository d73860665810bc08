package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/wolfman30/vetchart/internal/animals"
	"github.com/wolfman30/vetchart/internal/api/router"
	"github.com/wolfman30/vetchart/internal/app/bootstrap"
	"github.com/wolfman30/vetchart/internal/appointments"
	appconfig "github.com/wolfman30/vetchart/internal/config"
	"github.com/wolfman30/vetchart/internal/database"
	"github.com/wolfman30/vetchart/internal/observability/metrics"
	"github.com/wolfman30/vetchart/internal/preferences"
	"github.com/wolfman30/vetchart/internal/records"
	"github.com/wolfman30/vetchart/internal/reports"
	"github.com/wolfman30/vetchart/internal/soap"
	"github.com/wolfman30/vetchart/internal/storage"
	"github.com/wolfman30/vetchart/pkg/logging"
)

func main() {
	// A missing .env is fine; the environment may already be populated.
	_ = godotenv.Load()

	cfg := appconfig.Load()
	logger := logging.New(cfg.LogLevel)
	logger.Info("starting vetchart API server",
		"env", cfg.Env,
		"port", cfg.Port,
		"timezone", cfg.Timezone,
	)

	if err := run(cfg, logger); err != nil {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
	fmt.Println("Server exited gracefully")
}

func run(cfg *appconfig.Config, logger *logging.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool := connectPostgresPool(ctx, cfg.DatabaseURL, logger)
	if pool != nil {
		defer pool.Close()
	}
	repos := buildRepositories(pool)

	redisClient := bootstrap.BuildRedisClient(ctx, cfg, logger, true)
	if redisClient != nil {
		defer func() { _ = redisClient.Close() }()
	}

	prefStore, err := bootstrap.BuildPreferencesStore(cfg, redisClient, logger)
	if err != nil {
		return err
	}
	prefs, err := preferences.NewService(ctx, prefStore, logger)
	if err != nil {
		return err
	}

	uploads, err := bootstrap.BuildUploadStore(ctx, cfg, logger)
	if err != nil {
		return err
	}

	generator, closeModel, err := bootstrap.BuildSoapGenerator(ctx, cfg, logger)
	if err != nil {
		return err
	}
	if closeModel != nil {
		defer func() { _ = closeModel() }()
	}
	charter, autoCharter := soapCharters(generator)

	m := setupMetrics()

	history := appointments.NewRecordsHistory(repos.animals, repos.records)
	source, err := bootstrap.BuildAppointmentSource(cfg, history, logger)
	if err != nil {
		return err
	}
	refresher := bootstrap.BuildRefresher(cfg, source, history, m.appointments, logger)

	animalsHandler := animals.NewHandler(repos.animals, uploads, logger)
	animalsHandler.OnChange(refresher.Sync)
	recordsHandler := records.NewHandler(repos.records, repos.animals, uploads, autoCharter, logger)
	recordsHandler.OnScheduleChange(refresher.Sync)

	routerCfg := &router.Config{
		Logger:              logger,
		AnimalsHandler:      animalsHandler,
		RecordsHandler:      recordsHandler,
		AppointmentsHandler: appointments.NewHandler(refresher, cfg.Location(), logger),
		PreferencesHandler:  preferences.NewHandler(prefs, repos.animals, logger),
		UploadsHandler:      storage.NewHandler(uploads, logger),
		SoapHandler:         soap.NewHandler(charter, logger),
		Refresher:           refresher,
		AdminAuthSecret:     cfg.AdminJWTSecret,
		DebugEndpoints:      cfg.DebugEndpoints,
		CORSAllowedOrigins:  cfg.CORSAllowedOrigins,
		RateLimitRPS:        cfg.RateLimitRPS,
		RateLimitBurst:      cfg.RateLimitBurst,
		MetricsHandler:      m.handler,
		MetricsGatherer:     m.registry,
		HTTPMetrics:         m.http,
		Redis:               redisClient,
	}
	if pool != nil {
		sqlDB := stdlib.OpenDBFromPool(pool)
		defer func() { _ = sqlDB.Close() }()
		routerCfg.ReportsHandler = reports.NewHandler(reports.NewRepository(sqlDB), cfg.Location(), logger)
		routerCfg.DBCheck = database.ReadyCheck(pool)
	}

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router.New(routerCfg),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 2 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	refreshDone := make(chan error, 1)
	go func() { refreshDone <- refresher.Start(ctx) }()

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	var runErr error
	select {
	case <-ctx.Done():
		logger.Info("shutting down server...")
	case err := <-serveErr:
		return err
	case runErr = <-refreshDone:
		if runErr != nil {
			logger.Error("appointment refresher stopped", "error", runErr)
		}
	}
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	logger.Info("server stopped")
	return runErr
}

type repositories struct {
	animals animals.Repository
	records records.Repository
}

// buildRepositories uses Postgres when a pool is available and in-memory
// storage otherwise.
func buildRepositories(pool *pgxpool.Pool) repositories {
	if pool == nil {
		return repositories{
			animals: animals.NewInMemoryRepository(),
			records: records.NewInMemoryRepository(),
		}
	}
	return repositories{
		animals: animals.NewPostgresRepository(pool),
		records: records.NewPostgresRepository(pool),
	}
}

func connectPostgresPool(ctx context.Context, databaseURL string, logger *logging.Logger) *pgxpool.Pool {
	if databaseURL == "" {
		logger.Warn("DATABASE_URL not set; using in-memory repositories")
		return nil
	}
	pool, err := database.Open(ctx, databaseURL)
	if err != nil {
		logger.Error("failed to connect to postgres; using in-memory repositories", "error", err)
		return nil
	}
	logger.Info("connected to postgres")
	return pool
}

type appMetrics struct {
	registry     *prometheus.Registry
	handler      http.Handler
	appointments *metrics.AppointmentMetrics
	http         *metrics.HTTPMetrics
}

func setupMetrics() appMetrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return appMetrics{
		registry:     reg,
		handler:      promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
		appointments: metrics.NewAppointmentMetrics(reg),
		http:         metrics.NewHTTPMetrics(reg),
	}
}

// soapCharters returns untyped nil interfaces when generation is disabled so
// the handlers' nil checks see it.
func soapCharters(gen *soap.Generator) (soap.Charter, records.AutoCharter) {
	if gen == nil {
		return nil, nil
	}
	return gen, gen
}
