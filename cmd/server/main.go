// Command server runs the SmartSpace analytics API and the real-time processor.
package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	_ "github.com/smartspace/backend/docs"
	authapp "github.com/smartspace/backend/internal/application/auth"
	"github.com/smartspace/backend/internal/application/export"
	"github.com/smartspace/backend/internal/application/models"
	"github.com/smartspace/backend/internal/application/processor"
	appworkspace "github.com/smartspace/backend/internal/application/workspace"
	"github.com/smartspace/backend/internal/infrastructure/auth"
	"github.com/smartspace/backend/internal/infrastructure/cache"
	"github.com/smartspace/backend/internal/infrastructure/config"
	"github.com/smartspace/backend/internal/infrastructure/logger"
	"github.com/smartspace/backend/internal/infrastructure/mqtt"
	"github.com/smartspace/backend/internal/infrastructure/persistence"
	"github.com/smartspace/backend/internal/infrastructure/printing"
	"github.com/smartspace/backend/internal/infrastructure/storage"
	"github.com/smartspace/backend/internal/infrastructure/telemetry"
	"github.com/smartspace/backend/internal/infrastructure/timeseries"
	"github.com/smartspace/backend/internal/interfaces/http/handler"
	"github.com/smartspace/backend/internal/interfaces/http/middleware"
	"github.com/smartspace/backend/internal/interfaces/http/router"
)

//go:generate swag init -g cmd/server/main.go -d ../../ -o ../../docs --parseInternal

// version is set at build time with -ldflags "-X main.version=..."
var version = "dev"

//	@title			SmartSpace Analytics API
//	@version		1.0
//	@description	Workplace occupancy, energy and space optimization analytics

//	@host		localhost:8080
//	@BasePath	/api/v1

//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				Bearer token authentication. Format: "Bearer {token}"

func main() {
	// .env is optional; real environment variables win
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	logCfg := &logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	}
	log, err := logger.New(logCfg)
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log.Info("Starting SmartSpace backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("version", version),
	)

	// Telemetry: traces, OTLP metrics, OTLP logs, profiles
	otelCfg := telemetry.FromConfig(cfg.Telemetry)
	tracerProvider, err := telemetry.NewTracerProvider(ctx, otelCfg, log)
	if err != nil {
		log.Fatal("Failed to initialize tracer provider", zap.Error(err))
	}
	meterProvider, err := telemetry.NewMeterProvider(ctx, telemetry.MetricsConfig{
		Enabled:           cfg.Telemetry.Enabled && cfg.Telemetry.MetricsEnabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		ExportInterval:    cfg.Telemetry.MetricsInterval,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize meter provider", zap.Error(err))
	}
	logsCfg := otelCfg
	logsCfg.Enabled = cfg.Telemetry.Enabled && cfg.Telemetry.LogsEnabled
	loggerProvider, err := telemetry.NewLoggerProvider(ctx, logsCfg, log)
	if err != nil {
		log.Fatal("Failed to initialize logger provider", zap.Error(err))
	}
	if loggerProvider.IsEnabled() {
		logCfg.ExtraCores = append(logCfg.ExtraCores, loggerProvider.Core(logger.ParseLevel(cfg.Log.Level)))
		if teed, err := logger.New(logCfg); err == nil {
			log = teed
		} else {
			log.Warn("Failed to attach OTLP log bridge", zap.Error(err))
		}
	}
	defer func() { _ = logger.Sync(log) }()

	profiler, err := telemetry.NewProfiler(telemetry.ProfilerConfig{
		Enabled:         cfg.Telemetry.ProfilingEnabled,
		ServerAddress:   cfg.Telemetry.PyroscopeAddress,
		ApplicationName: cfg.Telemetry.ServiceName,
	}, log)
	if err != nil {
		log.Warn("Continuous profiling unavailable", zap.Error(err))
	}
	if profiler != nil && profiler.IsEnabled() && tracerProvider.IsEnabled() {
		tracerProvider.EnableSpanProfiles()
	}

	var collector *telemetry.AnalyticsCollector
	if cfg.Telemetry.PrometheusEnabled {
		collector = telemetry.NewAnalyticsCollector()
	}

	// Database
	db, err := persistence.NewDatabaseWithLogger(&cfg.Database,
		logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level), 200*time.Millisecond))
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Failed to close database", zap.Error(err))
		}
	}()
	log.Info("Database connected", zap.String("driver", db.Driver()))

	dbSystem := "postgresql"
	if cfg.Database.IsSQLite() {
		dbSystem = "sqlite"
	}
	dbTracing := telemetry.NewDBTracing(telemetry.DBTracingConfig{
		Enabled:  tracerProvider.IsEnabled() && cfg.Telemetry.DBTraceEnabled,
		DBSystem: dbSystem,
	}, log)
	if err := dbTracing.Register(db.DB); err != nil {
		log.Warn("Failed to register database tracing", zap.Error(err))
	}
	if collector != nil {
		if sqlDB, err := db.DB.DB(); err == nil {
			if err := collector.RegisterDB(sqlDB, cfg.Database.DBName); err != nil {
				log.Warn("Failed to register connection pool metrics", zap.Error(err))
			}
		}
	}

	if cfg.Database.AutoMigrate {
		if err := db.AutoMigrate(); err != nil {
			log.Fatal("Failed to migrate database schema", zap.Error(err))
		}
	}
	if cfg.App.SeedDemo {
		result, err := persistence.NewSeeder(db, log, cfg.Analytics.Seed).SeedDemo(ctx, time.Now())
		if err != nil {
			log.Fatal("Failed to seed demo company", zap.Error(err))
		}
		if !result.Skipped {
			log.Info("Demo company seeded",
				zap.Int("employees", result.Employees),
				zap.Int("spaces", result.Spaces))
		}
	}

	// Cache and token blacklist share the redis connection when there is one
	analyticsCache, redisClient, err := cache.NewFactory(cfg.Redis, cache.WithLogger(log)).Create()
	if err != nil {
		log.Fatal("Failed to initialize cache", zap.Error(err))
	}
	defer func() { _ = analyticsCache.Close() }()

	var blacklist auth.TokenBlacklist = auth.NewInMemoryTokenBlacklist()
	if redisClient != nil {
		blacklist = auth.NewRedisTokenBlacklist(redisClient)
	}

	// Repositories
	companyRepo := persistence.NewGormCompanyRepository(db.DB)
	spaceRepo := persistence.NewGormSpaceRepository(db.DB)
	employeeRepo := persistence.NewGormEmployeeRepository(db.DB)
	alertRepo := persistence.NewGormAlertRepository(db.DB)
	conflictRepo := persistence.NewGormConflictRepository(db.DB)
	readingRepo := persistence.NewGormReadingRepository(db.DB)
	predictionRepo := persistence.NewGormPredictionRepository(db.DB)
	activityRepo := persistence.NewGormActivityRepository(db.DB)

	// Services
	registry := models.NewRegistry(cfg.Analytics, collector, log)
	jwtService := auth.NewJWTService(cfg.JWT)

	alertService := appworkspace.NewAlertService(alertRepo, analyticsCache, log)
	conflictService := appworkspace.NewConflictService(conflictRepo, spaceRepo, registry, analyticsCache, log)
	employeeService := appworkspace.NewEmployeeService(employeeRepo, log)
	spaceService := appworkspace.NewSpaceService(spaceRepo, registry, analyticsCache, log)
	energyService := appworkspace.NewEnergyService(readingRepo, registry, log)
	dashboardService := appworkspace.NewDashboardService(appworkspace.DashboardRepositories{
		Companies:   companyRepo,
		Spaces:      spaceRepo,
		Employees:   employeeRepo,
		Alerts:      alertRepo,
		Conflicts:   conflictRepo,
		Readings:    readingRepo,
		Predictions: predictionRepo,
		Activities:  activityRepo,
	}, registry, analyticsCache, cfg.Redis.CacheTTL, log)
	analyticsService := appworkspace.NewAnalyticsService(spaceRepo, readingRepo, predictionRepo,
		conflictService, registry, analyticsCache, cfg.Redis.CacheTTL, log)
	authService := authapp.NewService(employeeRepo, activityRepo, jwtService, blacklist, log)

	exportOpts := []export.Option{export.WithCollector(collector)}
	if cfg.Export.PDFEnabled {
		renderer := printing.NewChromedpRenderer(printing.ChromedpConfig{
			ExecPath:       cfg.Export.ChromePath,
			DefaultTimeout: cfg.Export.RenderTimeout,
			NoSandbox:      true,
			Logger:         log,
		})
		defer func() { _ = renderer.Close() }()
		exportOpts = append(exportOpts, export.WithRenderer(renderer, cfg.Export.RenderTimeout))
	}
	if archive := reportArchive(ctx, cfg.Storage, log); archive != nil {
		exportOpts = append(exportOpts, export.WithArchive(archive))
	}
	exportService := export.NewService(spaceRepo, readingRepo, conflictRepo, log, exportOpts...)

	// Time-series archive for processor readings
	var sink timeseries.Sink = timeseries.NopSink{}
	if cfg.ClickHouse.Enabled {
		chSink, err := timeseries.Open(ctx, cfg.ClickHouse, log)
		if err != nil {
			log.Warn("ClickHouse archive unavailable, readings stay in the primary store only", zap.Error(err))
		} else {
			sink = chSink
		}
	}
	defer func() { _ = sink.Close() }()

	proc, err := processor.New(cfg.Processor, processor.Dependencies{
		Companies:   companyRepo,
		Spaces:      spaceRepo,
		Readings:    readingRepo,
		Predictions: predictionRepo,
		Conflicts:   conflictService,
		Alerts:      alertService,
		Models:      registry,
		Sink:        sink,
		Collector:   collector,
		Cache:       analyticsCache,
	}, cfg.Analytics.Seed, log)
	if err != nil {
		log.Fatal("Failed to create real-time processor", zap.Error(err))
	}
	if cfg.Processor.Enabled {
		go func() {
			if err := proc.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.Error("Real-time processor failed to start", zap.Error(err))
			}
		}()
	}

	if cfg.MQTT.Enabled {
		if sub := startSensorIngestion(cfg.MQTT, spaceRepo, collector, log); sub != nil {
			defer sub.Close()
		}
	}

	// HTTP
	middleware.SetupValidator()
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	var rateLimiter *middleware.RateLimiter
	if cfg.HTTP.RateLimitEnabled {
		rateLimiter = middleware.NewRateLimiter(ctx, cfg.HTTP.RateLimitRequests, cfg.HTTP.RateLimitWindow)
	}

	engineCfg := router.EngineConfig{
		HTTP:   cfg.HTTP,
		Logger: log,
		JWT: middleware.JWTMiddlewareConfig{
			JWTService:     jwtService,
			TokenBlacklist: blacklist,
		},
		Tracing: middleware.TracingConfig{
			ServiceName: cfg.Telemetry.ServiceName,
			Enabled:     tracerProvider.IsEnabled(),
		},
		Metrics: middleware.HTTPMetricsConfig{
			MeterProvider: meterProvider,
			Collector:     collector,
			Logger:        log,
		},
		Profiling: middleware.ProfilingConfig{
			Enabled:   profiler != nil && profiler.IsEnabled(),
			SkipPaths: []string{"/health", "/metrics"},
		},
		Swagger: middleware.SwaggerConfig{
			Enabled:     cfg.Swagger.Enabled,
			RequireAuth: cfg.Swagger.RequireAuth,
			AllowedIPs:  cfg.Swagger.AllowedIPs,
		},
		RateLimiter: rateLimiter,
		Health:      handler.NewHealthHandler(db, version),
	}
	if collector != nil {
		engineCfg.MetricsHandler = collector.Handler()
	}

	engine := router.NewEngine(engineCfg, router.Handlers{
		Auth:      handler.NewAuthHandler(authService),
		Employees: handler.NewEmployeeHandler(employeeService),
		Spaces:    handler.NewSpaceHandler(spaceService),
		Alerts:    handler.NewAlertHandler(alertService),
		Conflicts: handler.NewConflictHandler(conflictService),
		Analytics: handler.NewAnalyticsHandler(analyticsService),
		Energy:    handler.NewEnergyHandler(energyService),
		Dashboard: handler.NewDashboardHandler(dashboardService),
		Reports:   handler.NewReportHandler(exportService),
		Processor: handler.NewProcessorHandler(proc),
	})

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	serverErr := make(chan error, 1)
	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case <-ctx.Done():
		log.Info("Shutting down server...")
	case err := <-serverErr:
		log.Error("Server failed", zap.Error(err))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}
	if err := proc.Stop(shutdownCtx); err != nil {
		log.Error("Real-time processor did not stop cleanly", zap.Error(err))
	}
	if profiler != nil {
		if err := profiler.Stop(); err != nil {
			log.Warn("Failed to stop profiler", zap.Error(err))
		}
	}
	for name, shutdown := range map[string]func(context.Context) error{
		"tracer": tracerProvider.Shutdown,
		"meter":  meterProvider.Shutdown,
		"logger": loggerProvider.Shutdown,
	} {
		if err := shutdown(shutdownCtx); err != nil {
			log.Warn("Telemetry provider shutdown failed", zap.String("provider", name), zap.Error(err))
		}
	}

	log.Info("Server exited gracefully")
}

// reportArchive returns the S3 archive when storage is configured and nil
// otherwise. Exports still work without an archive.
func reportArchive(ctx context.Context, cfg config.StorageConfig, log *zap.Logger) export.Archive {
	if !cfg.Enabled {
		return nil
	}
	archive, err := storage.NewS3ReportArchive(ctx, cfg,
		storage.WithLogger(log),
		storage.WithPresignExpiry(cfg.PresignExpiry),
	)
	if err != nil {
		log.Warn("Report archive unavailable, exports are returned inline only", zap.Error(err))
		return nil
	}
	return archive
}

// startSensorIngestion connects to the broker and subscribes to environment
// topics. Subscriptions are renewed on every reconnect.
func startSensorIngestion(cfg config.MQTTConfig, spaces *persistence.GormSpaceRepository, collector *telemetry.AnalyticsCollector, log *zap.Logger) *mqtt.Subscriber {
	ready := make(chan *mqtt.Subscriber, 1)
	client, err := mqtt.NewClient(cfg, func() {
		select {
		case sub := <-ready:
			ready <- sub
			if err := sub.Subscribe(); err != nil {
				log.Error("Failed to resubscribe to sensor topics", zap.Error(err))
			}
		default:
		}
	}, log)
	if err != nil {
		log.Error("Sensor ingestion disabled", zap.Error(err))
		return nil
	}

	sub := mqtt.NewSubscriber(client, spaces, cfg.TopicPrefix, cfg.QoS, log)
	if collector != nil {
		sub.SetObserver(collector.SensorMessage)
	}
	if err := sub.Subscribe(); err != nil {
		log.Error("Failed to subscribe to sensor topics", zap.Error(err))
	}
	ready <- sub
	return sub
}
