package app

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	"github.com/asetta/kivo/internal/config"
	"github.com/asetta/kivo/internal/delivery/httpd"
	"github.com/asetta/kivo/internal/repository"
	"github.com/asetta/kivo/internal/service"
	"github.com/asetta/kivo/internal/service/integration"
	"github.com/asetta/kivo/internal/service/storage"
)

type App struct {
	server            *http.Server
	logger            zerolog.Logger
	config            *config.Config
	db                *sql.DB
	events            integration.EventPublisher
	assessmentService service.AssessmentService
}

func New(cfg *config.Config, log zerolog.Logger, db *sql.DB) (*App, error) {
	store, err := storage.NewMinIOStorage(storage.Config{
		Endpoint:  cfg.Storage.Endpoint,
		AccessKey: cfg.Storage.AccessKey,
		SecretKey: cfg.Storage.SecretKey,
		Bucket:    cfg.Storage.Bucket,
		Region:    cfg.Storage.Region,
		UseSSL:    cfg.Storage.UseSSL,
		Timeout:   cfg.Storage.Timeout,
	})
	if err != nil {
		return nil, err
	}

	var events integration.EventPublisher
	if cfg.RabbitMQ.Enabled {
		events, err = integration.NewRabbitMQPublisher(cfg.RabbitMQ.URL, cfg.RabbitMQ.Exchange, log)
		if err != nil {
			log.Error().Err(err).Msg("Failed to create RabbitMQ publisher")
			// Events are best effort, the service stays usable without them.
			events = nil
		}
	}

	semesterRepo := repository.NewSemesterRepository(db, log)
	assessmentRepo := repository.NewAssessmentRepository(db, log)
	outlineRepo := repository.NewOutlineRepository(db, log)
	settingsRepo := repository.NewSettingsRepository(db, log)

	semesterService := service.NewSemesterService(semesterRepo, events, log)
	assessmentService := service.NewAssessmentService(assessmentRepo, semesterRepo, cfg.AutoSave.QuietPeriod, log)
	reportService := service.NewReportService(assessmentRepo, semesterRepo, settingsRepo, log)
	outlineService := service.NewOutlineService(outlineRepo, semesterRepo, store, events, log)
	settingsService := service.NewSettingsService(settingsRepo, log)

	handler := httpd.NewHandler(
		semesterService,
		assessmentService,
		reportService,
		outlineService,
		settingsService,
		log,
	)

	router := chi.NewRouter()

	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)
	router.Use(middleware.Timeout(60 * time.Second))

	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORS.AllowedOrigins,
		AllowedMethods:   cfg.CORS.AllowedMethods,
		AllowedHeaders:   cfg.CORS.AllowedHeaders,
		ExposedHeaders:   cfg.CORS.ExposedHeaders,
		AllowCredentials: cfg.CORS.AllowCredentials,
		MaxAge:           cfg.CORS.MaxAge,
	}))

	handler.RegisterRoutes(router)

	server := &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	return &App{
		server:            server,
		logger:            log,
		config:            cfg,
		db:                db,
		events:            events,
		assessmentService: assessmentService,
	}, nil
}

func (a *App) Run() error {
	a.logger.Info().Msgf("Starting kivo on %s", a.config.Server.Address)
	return a.server.ListenAndServe()
}

func (a *App) Shutdown(ctx context.Context) error {
	a.logger.Info().Msg("Shutting down kivo...")

	// Flush pending auto-saves before the process goes away.
	a.assessmentService.Close()

	if a.events != nil {
		if err := a.events.Close(); err != nil {
			a.logger.Error().Err(err).Msg("Failed to close RabbitMQ connection")
		}
	}

	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.logger.Error().Err(err).Msg("Failed to close database connection")
		}
	}

	return a.server.Shutdown(ctx)
}
