package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/akira-ishikawa-jpg/coin-system/internal"
	"github.com/akira-ishikawa-jpg/coin-system/internal/anomaly"
	anomalyPostgres "github.com/akira-ishikawa-jpg/coin-system/internal/anomaly/postgres"
	"github.com/akira-ishikawa-jpg/coin-system/internal/audit"
	auditPostgres "github.com/akira-ishikawa-jpg/coin-system/internal/audit/postgres"
	"github.com/akira-ishikawa-jpg/coin-system/internal/auth"
	authPostgres "github.com/akira-ishikawa-jpg/coin-system/internal/auth/postgres"
	"github.com/akira-ishikawa-jpg/coin-system/internal/core/events"
	"github.com/akira-ishikawa-jpg/coin-system/internal/employee"
	employeePostgres "github.com/akira-ishikawa-jpg/coin-system/internal/employee/postgres"
	"github.com/akira-ishikawa-jpg/coin-system/internal/reaction"
	reactionPostgres "github.com/akira-ishikawa-jpg/coin-system/internal/reaction/postgres"
	"github.com/akira-ishikawa-jpg/coin-system/internal/report"
	reportPostgres "github.com/akira-ishikawa-jpg/coin-system/internal/report/postgres"
	"github.com/akira-ishikawa-jpg/coin-system/internal/settings"
	settingsPostgres "github.com/akira-ishikawa-jpg/coin-system/internal/settings/postgres"
	"github.com/akira-ishikawa-jpg/coin-system/internal/slack"
	slackPostgres "github.com/akira-ishikawa-jpg/coin-system/internal/slack/postgres"
	"github.com/akira-ishikawa-jpg/coin-system/internal/transfer"
	transferPostgres "github.com/akira-ishikawa-jpg/coin-system/internal/transfer/postgres"
	"github.com/akira-ishikawa-jpg/coin-system/internal/transport/rest"
	"github.com/akira-ishikawa-jpg/coin-system/internal/transport/swagger"
	"github.com/akira-ishikawa-jpg/coin-system/pkg/logger"

	"github.com/go-chi/chi"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"
	gormPostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var httpServerCmd = &cobra.Command{
	Use:   "server",
	Short: "Start HTTP server",
	Long:  `Start the HTTP server to handle API requests`,
	Run: func(cmd *cobra.Command, args []string) {
		startHTTPServer()
	},
}

type Dependencies struct {
	Config      *internal.Config
	DB          *sqlx.DB
	GormDB      *gorm.DB
	Router      *chi.Mux
	Logger      *slog.Logger
	SlackClient *slack.Client
}

func startHTTPServer() {
	deps, err := initializeDependencies()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize dependencies: %v\n", err)
		os.Exit(1)
	}

	if err := setupRoutes(deps); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to set up routes: %v\n", err)
		os.Exit(1)
	}

	addr := fmt.Sprintf(":%d", deps.Config.Server.Port)
	deps.Logger.Info("starting HTTP server", "address", addr)

	server := &http.Server{
		Addr:         addr,
		Handler:      deps.Router,
		ReadTimeout:  deps.Config.Server.ReadTimeout,
		WriteTimeout: deps.Config.Server.WriteTimeout,
		IdleTimeout:  deps.Config.Server.IdleTimeout,
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	serverErrChan := make(chan error, 1)
	go func() {
		serverErrChan <- server.ListenAndServe()
	}()

	select {
	case sig := <-sigChan:
		deps.Logger.Info("received signal, shutting down", "signal", sig)
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			deps.Logger.Error("server shutdown error", "error", err)
		}
		if deps.SlackClient != nil {
			deps.SlackClient.Shutdown()
		}
		if err := deps.DB.Close(); err != nil {
			deps.Logger.Error("database close error", "error", err)
		}
	case err := <-serverErrChan:
		if err != nil && err != http.ErrServerClosed {
			deps.Logger.Error("server failed to start", "error", err)
			os.Exit(1)
		}
	}

	deps.Logger.Info("server stopped")
}

func setupRoutes(deps *Dependencies) error {
	cfg := deps.Config
	lg := deps.Logger
	gdb := deps.GormDB

	// OpenAPI document sanity check; a broken spec should not ship.
	if err := swagger.ValidateSpec(context.Background(), "./api/openapi.yml"); err != nil {
		lg.Warn("openapi spec validation failed, swagger UI may misrender", "error", err)
	}

	eventBus := events.NewEventBus(lg)

	// Settings-backed policy with config fallbacks.
	settingsRepo := settingsPostgres.NewSettingsRepository(gdb)
	settingsService := settings.NewService(settingsRepo, settings.Policy{
		WeeklyAllowance: cfg.Policy.WeeklyAllowance,
		MaxTransferSize: cfg.Policy.MaxTransferSize,
	}, cfg.Policy.SettingsCacheTTL, lg)

	// Audit trail.
	auditRepo := auditPostgres.NewAuditRepository(gdb)
	auditService := audit.NewService(auditRepo, lg)

	// Anomaly detection.
	anomalyRepo := anomalyPostgres.NewAnomalyRepository(gdb)
	detector := anomaly.NewDetector(anomalyRepo, auditService, eventBus, lg)

	// Transfer pipeline.
	transferRepo := transferPostgres.NewTransferRepository(gdb)
	quotaEngine := transfer.NewQuotaEngine(transferRepo, settingsService, lg)
	transferService := transfer.NewService(transferRepo, quotaEngine, settingsService, detector, eventBus, lg)

	// Reactions.
	reactionRepo := reactionPostgres.NewReactionRepository(gdb)
	reactionService := reaction.NewService(reactionRepo, lg)

	// Employee directory.
	employeeRepo := employeePostgres.NewEmployeeRepository(gdb)
	employeeService := employee.NewService(employeeRepo, transferService, auditService, cfg.Security.BCryptCost, lg)

	// Reports.
	reportRepo := reportPostgres.NewReportRepository(gdb)
	reportService := report.NewService(reportRepo, auditService, lg)

	// Auth.
	tokenGen := auth.NewJWTTokenGenerator(cfg.Security.AccessTokenSecret, cfg.Security.RefreshTokenSecret)
	authRepo := authPostgres.NewRepository(gdb)
	authService := auth.NewService(authRepo, tokenGen)

	// Slack surface and notifier.
	var slackHandler *slack.Handler
	if cfg.Slack.SigningSecret != "" {
		slackClient := slack.NewClient(slack.ClientConfig{
			APIBaseURL:     cfg.Slack.APIBaseURL,
			BotToken:       cfg.Slack.BotToken,
			RequestTimeout: cfg.Slack.RequestTimeout,
			MaxWorkers:     cfg.Slack.MaxWorkers,
			JobQueueSize:   cfg.Slack.JobQueueSize,
		}, lg)
		deps.SlackClient = slackClient

		if cfg.Slack.ChannelID != "" {
			notifier := slack.NewNotifier(slackClient, cfg.Slack.ChannelID, lg)
			notifier.Register(eventBus)
		}

		slackDirectory := slackPostgres.NewDirectoryRepository(gdb)
		slackHandler = slack.NewHandler(slackDirectory, transferService, reactionService)
	} else {
		lg.Info("slack signing secret not configured, slack surface disabled")
	}

	handlers := rest.Handlers{
		Auth:     auth.NewHandler(authService),
		Transfer: transfer.NewHandler(transferService),
		Reaction: reaction.NewHandler(reactionService),
		Employee: employee.NewHandler(employeeService),
		Report:   report.NewHandler(reportService),
		Audit:    audit.NewHandler(auditService),
		Slack:    slackHandler,
		Settings: settings.NewHandler(settingsService, auditService),
	}

	rest.RegisterAllRoutes(deps.Router, deps.DB.DB, handlers, cfg.Slack.SigningSecret, lg)

	registerTaskRoutes(deps, reportService, employeeService)

	return nil
}

func initializeDependencies() (*Dependencies, error) {
	config, err := loadConfig(".")
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger.Init(os.Getenv("APP_ENV"))
	lg := logger.L()

	db, err := initDB(config.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	gdb, err := gorm.Open(gormPostgres.New(gormPostgres.Config{Conn: db.DB}), &gorm.Config{
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize gorm: %w", err)
	}

	return &Dependencies{
		Config: config,
		Logger: lg,
		DB:     db,
		GormDB: gdb,
		Router: chi.NewRouter(),
	}, nil
}

// initDB initializes the database connection
func initDB(cfg internal.DatabaseConfig) (*sqlx.DB, error) {
	const driver = "pgx"

	dbConn, err := sqlx.Connect(driver, cfg.Source)
	if err != nil {
		return nil, fmt.Errorf("failed to open db connection: %w", err)
	}

	dbConn.SetMaxIdleConns(cfg.MaxIdleConns)
	dbConn.SetMaxOpenConns(cfg.MaxOpenConns)
	dbConn.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	dbConn.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	if err := dbConn.Ping(); err != nil {
		_ = dbConn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return dbConn, nil
}
