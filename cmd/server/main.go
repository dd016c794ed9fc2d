package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Gobusters/ectoenv"
	"github.com/Gobusters/ectologger"
	"github.com/Gobusters/ectologger/zapadapter"
	migratepg "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	_ "github.com/lib/pq"
	"go.opentelemetry.io/contrib/instrumentation/github.com/labstack/echo/otelecho"
	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"

	"github.com/justin-dews/data-matcher-sub001/config"
	"github.com/justin-dews/data-matcher-sub001/internal/repositories/catalogentry"
	"github.com/justin-dews/data-matcher-sub001/internal/repositories/competitoralias"
	"github.com/justin-dews/data-matcher-sub001/internal/repositories/matchdecision"
	"github.com/justin-dews/data-matcher-sub001/internal/repositories/trainingexample"
	"github.com/justin-dews/data-matcher-sub001/pkg/database"
	"github.com/justin-dews/data-matcher-sub001/pkg/events"
	"github.com/justin-dews/data-matcher-sub001/pkg/graph"
	"github.com/justin-dews/data-matcher-sub001/pkg/kafka"
	"github.com/justin-dews/data-matcher-sub001/pkg/matching"
	"github.com/justin-dews/data-matcher-sub001/pkg/middleware"
	"github.com/justin-dews/data-matcher-sub001/pkg/processor"
	aliasroutes "github.com/justin-dews/data-matcher-sub001/pkg/routes/alias"
	catalogroutes "github.com/justin-dews/data-matcher-sub001/pkg/routes/catalogentry"
	decisionroutes "github.com/justin-dews/data-matcher-sub001/pkg/routes/decision"
	graphroutes "github.com/justin-dews/data-matcher-sub001/pkg/routes/graph"
	"github.com/justin-dews/data-matcher-sub001/pkg/routes/health"
	matchroutes "github.com/justin-dews/data-matcher-sub001/pkg/routes/match"
	trainingroutes "github.com/justin-dews/data-matcher-sub001/pkg/routes/trainingexample"
	"github.com/justin-dews/data-matcher-sub001/pkg/startup"
	"github.com/justin-dews/data-matcher-sub001/pkg/tracing"
	"github.com/justin-dews/data-matcher-sub001/pkg/tracing/exporters"
)

var version = "dev"

func main() {
	// .env is optional; real deployments set the environment directly
	_ = godotenv.Load()

	var cfg config.Config
	if err := ectoenv.BindEnv(&cfg); err != nil {
		panic(fmt.Sprintf("failed to load config: %v", err))
	}

	logger := newLogger(cfg)
	logger.WithField("app", cfg.AppName).Info("Starting matcher service")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing := setupTracing(ctx, cfg, logger)
	defer shutdownTracing()

	db := connectDatabase(cfg, logger)
	defer db.Close()

	runMigrations(cfg, db, logger)

	dbInstance := database.NewDatabaseInstance(db, logger)

	entryRepo := catalogentry.NewRepository(dbInstance, logger)
	trainingRepo := trainingexample.NewRepository(dbInstance, logger)
	aliasRepo := competitoralias.NewRepository(dbInstance, logger)
	decisionRepo := matchdecision.NewRepository(dbInstance, logger)

	engine, err := matching.NewEngine(logger, entryRepo, trainingRepo, aliasRepo, matching.Config{
		Weights: matching.Weights{
			Trigram: cfg.MatchTrigramWeight,
			Fuzzy:   cfg.MatchFuzzyWeight,
			Alias:   cfg.MatchAliasWeight,
			Vector:  cfg.MatchVectorWeight,
		},
		DefaultLimit:     cfg.MatchDefaultLimit,
		DefaultThreshold: cfg.MatchDefaultThreshold,
		MaxCandidates:    cfg.MatchMaxCandidates,
		BatchWorkers:     cfg.MatchBatchWorkers,
	})
	if err != nil {
		logger.WithError(err).Error("Invalid matching engine configuration")
		os.Exit(1)
	}

	boot := startup.NewStartup[config.Config](logger, cfg.StartupMaxAttempts)

	var graphPinger health.GraphPinger
	var projector matching.MatchProjector
	var projection *graph.ProjectionService
	if cfg.GraphDBEnabled {
		graphClient, err := graph.NewClient(graph.Config{
			Host:     cfg.GraphDBHost,
			Port:     cfg.GraphDBPort,
			Username: cfg.GraphDBUser,
			Password: cfg.GraphDBPassword,
		}, logger)
		if err != nil {
			logger.WithError(err).Error("Failed to create graph client")
			os.Exit(1)
		}
		projection = graph.NewProjectionService(graphClient, logger)
		projector = projection
		graphPinger = graphClient
		boot.AddDependency(&dependency{
			name:  "graph",
			start: graphClient.VerifyConnectivity,
			stop:  graphClient.Close,
		})
	}

	producer := kafka.NewProducer(kafka.ProducerConfig{
		Brokers:      cfg.KafkaBrokers,
		Topic:        cfg.KafkaDecisionTopic,
		BatchSize:    cfg.KafkaBatchSize,
		BatchTimeout: time.Duration(cfg.KafkaBatchTimeout) * time.Millisecond,
		RequiredAcks: cfg.KafkaRequiredAcks,
		Compression:  cfg.KafkaCompression,
	}, logger)
	defer producer.Close()

	emitter := events.NewEmitter(producer, logger)
	feedback := matching.NewFeedbackService(logger, trainingRepo, aliasRepo, decisionRepo, emitter, projector)

	if cfg.KafkaConsumerEnabled {
		syncProcessor := processor.NewProcessor(entryRepo, logger)
		consumer := kafka.NewConsumer(kafka.ConsumerConfig{
			Brokers:       cfg.KafkaBrokers,
			Topic:         cfg.KafkaCatalogTopic,
			ConsumerGroup: cfg.KafkaConsumerGroup,
		}, logger, syncProcessor.ProcessMessage)

		boot.AddDependency(&dependency{
			name:  "catalog-consumer",
			start: consumer.Start,
			stop:  func(context.Context) error { return consumer.Stop() },
		})
	}

	e := echo.New()
	e.HideBanner = true
	e.Server.ReadTimeout = time.Duration(cfg.HttpServerReadTimeoutSeconds) * time.Second
	e.Server.WriteTimeout = time.Duration(cfg.HttpServerWriteTimeoutSeconds) * time.Second
	e.Server.IdleTimeout = time.Duration(cfg.HttpServerIdleTimeoutSeconds) * time.Second
	e.Server.ReadHeaderTimeout = time.Duration(cfg.ReadHeaderTimeoutSeconds) * time.Second
	e.Server.MaxHeaderBytes = cfg.MaxHeaderBytes

	e.HTTPErrorHandler = middleware.Error(logger)
	e.Use(otelecho.Middleware(cfg.AppName))
	e.Use(middleware.Context())
	e.Use(middleware.Logger(logger))

	checker := health.NewChecker(db, graphPinger, version)
	checker.RegisterRoutes(e)

	api := e.Group("/api/v1")
	matchroutes.NewHandler(engine, logger).RegisterRoutes(api.Group("/matches"))
	decisionroutes.NewHandler(feedback, decisionRepo, logger).RegisterRoutes(api.Group("/decisions"))
	aliasroutes.NewHandler(aliasRepo, logger).RegisterRoutes(api.Group("/aliases"))
	trainingroutes.NewHandler(trainingRepo, logger).RegisterRoutes(api.Group("/training-examples"))
	catalogroutes.NewHandler(entryRepo).RegisterRoutes(api.Group("/catalog-entries"))
	graphroutes.NewHandler(projection, logger).RegisterRoutes(api.Group("/graph"))

	if err := boot.Start(ctx); err != nil {
		logger.WithError(err).Error("Startup dependencies failed")
		os.Exit(1)
	}
	checker.SetReady(true)

	go func() {
		addr := fmt.Sprintf(":%d", cfg.Port)
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.WithError(err).Error("Server stopped unexpectedly")
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down")
	checker.SetReady(false)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Error("Failed to shut down HTTP server cleanly")
	}
	if err := boot.Stop(shutdownCtx); err != nil {
		logger.WithError(err).Error("Failed to stop startup dependencies cleanly")
	}
}

// dependency adapts a pair of start/stop funcs to the startup contract.
type dependency struct {
	name      string
	dependsOn []string
	start     func(ctx context.Context) error
	stop      func(ctx context.Context) error
}

func (d *dependency) GetName() string     { return d.name }
func (d *dependency) DependsOn() []string { return d.dependsOn }

func (d *dependency) Start(ctx context.Context) error { return d.start(ctx) }

func (d *dependency) Stop(ctx context.Context) error {
	if d.stop == nil {
		return nil
	}
	return d.stop(ctx)
}

func newLogger(cfg config.Config) ectologger.Logger {
	var zapLogger *zap.Logger
	var err error
	if cfg.PrettyLogs {
		zapLogger, err = zap.NewDevelopment()
	} else {
		zapLogger, err = zap.NewProduction()
	}
	if err != nil {
		panic(fmt.Sprintf("failed to create logger: %v", err))
	}
	return zapadapter.NewZapEctoLogger(zapLogger, nil)
}

func setupTracing(ctx context.Context, cfg config.Config, logger ectologger.Logger) func() {
	if !cfg.TracingEnabled {
		tracing.SetTracer(otel.Tracer(cfg.AppName))
		return func() {}
	}

	var exporter sdktrace.SpanExporter
	if cfg.TracingProtocol == "console" {
		exporter = exporters.NewConsoleExporter(logger)
	} else {
		otlp, err := exporters.NewOTLPExporter(ctx, exporters.OTLPConfig{
			Endpoint: cfg.TracingEndpoint,
			Protocol: cfg.TracingProtocol,
			Insecure: cfg.TracingInsecure,
			Timeout:  10 * time.Second,
		})
		if err != nil {
			logger.WithError(err).Error("Failed to create trace exporter, tracing disabled")
			tracing.SetTracer(otel.Tracer(cfg.AppName))
			return func() {}
		}
		exporter = otlp
	}

	provider := sdktrace.NewTracerProvider(sdktrace.WithBatcher(exporter))
	otel.SetTracerProvider(provider)
	tracing.SetTracer(otel.Tracer(cfg.AppName))

	return func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := provider.Shutdown(shutdownCtx); err != nil {
			logger.WithError(err).Error("Failed to shut down trace provider")
		}
	}
}

func connectDatabase(cfg config.Config, logger ectologger.Logger) *sqlx.DB {
	dsn := fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		cfg.DatabaseHost, cfg.DatabasePort, cfg.DatabaseUserName, cfg.DatabasePassword, cfg.DatabaseName, cfg.DatabaseSSLMode,
	)

	var db *sqlx.DB
	var err error
	for attempt := 0; attempt <= cfg.DatabaseReconnectRetryCount; attempt++ {
		db, err = sqlx.Connect(cfg.DatabaseDriver, dsn)
		if err == nil {
			break
		}
		logger.WithError(err).WithField("attempt", attempt+1).Warn("Database connection failed, retrying")
		time.Sleep(time.Duration(attempt+1) * time.Second)
	}
	if err != nil {
		logger.WithError(err).Error("Failed to connect to database")
		os.Exit(1)
	}

	db.SetMaxOpenConns(cfg.DatabaseMaxOpenConns)
	db.SetMaxIdleConns(cfg.DatabaseMaxIdleConns)
	db.SetConnMaxLifetime(cfg.DatabaseConnMaxLifetime)
	return db
}

func runMigrations(cfg config.Config, db *sqlx.DB, logger ectologger.Logger) {
	driver, err := migratepg.WithInstance(db.DB, &migratepg.Config{})
	if err != nil {
		logger.WithError(err).Error("Failed to create migration driver")
		os.Exit(1)
	}

	svc := database.NewMigrationService(logger, &database.MigrationConfig{
		MigrationFolderPath: cfg.DatabaseMigrationFolderPath,
		Version:             uint(cfg.DatabaseMigrationVersion),
		Force:               cfg.DatabaseMigrationForce,
		AutoRollback:        cfg.DatabaseMigrationAutoRollback,
	})
	if err := svc.Migrate(cfg.DatabaseName, driver); err != nil {
		logger.WithError(err).Error("Failed to run database migrations")
		os.Exit(1)
	}
}
