package cmd

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"
	gormpostgres "gorm.io/driver/postgres"
	gormsqlite "gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/frahmantamala/benefits-portal/internal"
	"github.com/frahmantamala/benefits-portal/internal/allocation"
	"github.com/frahmantamala/benefits-portal/internal/appconfig"
	"github.com/frahmantamala/benefits-portal/internal/audit"
	"github.com/frahmantamala/benefits-portal/internal/auth"
	"github.com/frahmantamala/benefits-portal/internal/card"
	"github.com/frahmantamala/benefits-portal/internal/docstore"
	"github.com/frahmantamala/benefits-portal/internal/docstore/drive"
	"github.com/frahmantamala/benefits-portal/internal/load"
	"github.com/frahmantamala/benefits-portal/internal/mailer"
	"github.com/frahmantamala/benefits-portal/internal/payment"
	"github.com/frahmantamala/benefits-portal/internal/person"
	"github.com/frahmantamala/benefits-portal/internal/ratelimit"
	"github.com/frahmantamala/benefits-portal/internal/reminder"
	"github.com/frahmantamala/benefits-portal/internal/rowstore"
	"github.com/frahmantamala/benefits-portal/internal/rowstore/gormstore"
	sheetstore "github.com/frahmantamala/benefits-portal/internal/rowstore/sheets"
	"github.com/frahmantamala/benefits-portal/internal/transport"
	"github.com/frahmantamala/benefits-portal/internal/transport/rest"
	"github.com/frahmantamala/benefits-portal/internal/transport/swagger"
	"github.com/frahmantamala/benefits-portal/pkg/logger"
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
	Config   *internal.Config
	DB       *sql.DB
	Store    rowstore.CachedStore
	Router   *chi.Mux
	Handlers rest.Handlers
	Limiter  *ratelimit.Limiter
	Logger   *slog.Logger
}

func startHTTPServer() {
	deps, err := initializeDependencies()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize dependencies: %v\n", err)
		os.Exit(1)
	}

	rest.RegisterAllRoutes(
		deps.Router,
		deps.DB,
		deps.Store,
		deps.Config.Database.Backend,
		deps.Handlers,
		deps.Limiter,
		deps.Logger,
	)

	addr := fmt.Sprintf(":%d", deps.Config.Server.Port)
	deps.Logger.Info("Starting HTTP server", "address", addr, "backend", deps.Config.Database.Backend)

	server := &http.Server{
		Addr:              addr,
		Handler:           deps.Router,
		ReadHeaderTimeout: deps.Config.Server.ReadHeaderTimeout,
		ReadTimeout:       deps.Config.Server.ReadTimeout,
		WriteTimeout:      deps.Config.Server.WriteTimeout,
		IdleTimeout:       deps.Config.Server.IdleTimeout,
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	serverErrChan := make(chan error, 1)
	go func() {
		serverErrChan <- server.ListenAndServe()
	}()

	select {
	case sig := <-sigChan:
		deps.Logger.Info("Received signal, shutting down...", "signal", sig.String())
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			deps.Logger.Error("Server shutdown error", "error", err)
		}
		if deps.DB != nil {
			if err := deps.DB.Close(); err != nil {
				deps.Logger.Error("Database close error", "error", err)
			}
		}
	case err := <-serverErrChan:
		if err != nil && err != http.ErrServerClosed {
			deps.Logger.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}

	deps.Logger.Info("Server stopped")
}

func initializeDependencies() (*Dependencies, error) {
	cfg, err := loadConfig(".")
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger.Init(cfg.Logging.Format, cfg.Logging.Level)
	log := logger.L()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := swagger.Validate(ctx, "./api/openapi.yml"); err != nil {
		log.Warn("openapi document failed validation", "error", err)
	}

	backing, db, err := initStore(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize row store: %w", err)
	}
	store := rowstore.NewCached(backing, rowstore.NewCache(), cfg.Database.EffectiveCacheTTL())

	docs, err := initDocstore(ctx, cfg, log)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize document storage: %w", err)
	}

	var sender mailer.Sender
	if cfg.Mail.ResendAPIKey != "" {
		sender = mailer.NewResend(cfg.Mail.ResendAPIKey, cfg.Mail.From, log)
	} else {
		log.Warn("no mail provider configured, emails are logged only")
		sender = mailer.NewDev(log)
	}

	base := transport.NewBaseHandler(log)
	recorder := audit.NewRecorder(store, log)

	authService := auth.NewService(cfg.Auth)
	authHandler := auth.NewHandler(authService, base)

	configService := appconfig.NewService(store, recorder, log)
	appCfg, err := configService.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load portal config: %w", err)
	}

	paymentService := payment.NewService(store, docs, recorder, log, appCfg.Location(), cfg.Payments.EnforceTransitions)
	events := card.NewEventLog(store)
	cardService := card.NewService(store, docs, events, recorder, log)
	personService := person.NewService(store, recorder, log)
	allocationService := allocation.NewService(store, cardService, events, recorder, log)
	loadService := load.NewService(store, docs, cardService, events, recorder, log)
	auditService := audit.NewService(store, log)
	engine := reminder.NewEngine(store, sender, recorder, configService, log, cfg.Server.BaseURL)

	handlers := rest.Handlers{
		Auth:        authHandler,
		Payments:    payment.NewHandler(paymentService, base),
		Reminders:   reminder.NewHandler(engine, base, cfg.Reminders.CronSecret),
		Audit:       audit.NewHandler(auditService, base),
		Config:      appconfig.NewHandler(configService, base),
		Cards:       card.NewHandler(cardService, base),
		People:      person.NewHandler(personService, base),
		Allocations: allocation.NewHandler(allocationService, base),
		Loads:       load.NewHandler(loadService, base),
	}

	return &Dependencies{
		Config:   cfg,
		DB:       db,
		Store:    store,
		Router:   chi.NewRouter(),
		Handlers: handlers,
		Limiter:  ratelimit.New(),
		Logger:   log,
	}, nil
}

// initStore selects the row-store backend. The *sql.DB is non-nil only for
// relational backends and feeds the health probe.
func initStore(ctx context.Context, cfg *internal.Config) (rowstore.Store, *sql.DB, error) {
	switch cfg.Database.Backend {
	case "sheets":
		store, err := sheetstore.New(ctx, cfg.Sheets)
		if err != nil {
			return nil, nil, err
		}
		return store, nil, nil
	case "postgres":
		sqlDB, err := initPostgres(cfg.Database)
		if err != nil {
			return nil, nil, err
		}
		gormDB, err := gorm.Open(gormpostgres.New(gormpostgres.Config{Conn: sqlDB}), gormConfig())
		if err != nil {
			_ = sqlDB.Close()
			return nil, nil, fmt.Errorf("failed to open gorm over pgx: %w", err)
		}
		return gormstore.New(gormDB), sqlDB, nil
	case "sqlite":
		gormDB, err := gorm.Open(gormsqlite.Open(cfg.Database.Source), gormConfig())
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open sqlite: %w", err)
		}
		if err := gormDB.AutoMigrate(&gormstore.Row{}); err != nil {
			return nil, nil, fmt.Errorf("failed to migrate sqlite schema: %w", err)
		}
		sqlDB, err := gormDB.DB()
		if err != nil {
			return nil, nil, err
		}
		return gormstore.New(gormDB), sqlDB, nil
	case "memory":
		return rowstore.NewMemory(), nil, nil
	default:
		return nil, nil, fmt.Errorf("unknown database backend %q", cfg.Database.Backend)
	}
}

func initPostgres(cfg internal.DatabaseConfig) (*sql.DB, error) {
	const driver = "pgx"

	dbConn, err := sqlx.Connect(driver, cfg.Source)
	if err != nil {
		return nil, fmt.Errorf("failed to open db connection: %w", err)
	}

	dbConn.SetMaxIdleConns(cfg.MaxIdleConns)
	dbConn.SetMaxOpenConns(cfg.MaxOpenConns)
	if cfg.ConnMaxLifetime > 0 {
		dbConn.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}

	if err := dbConn.Ping(); err != nil {
		_ = dbConn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return dbConn.DB, nil
}

func gormConfig() *gorm.Config {
	return &gorm.Config{Logger: gormlogger.Default.LogMode(gormlogger.Warn)}
}

func initDocstore(ctx context.Context, cfg *internal.Config, log *slog.Logger) (docstore.Store, error) {
	if cfg.Drive.ServiceAccountEmail == "" || cfg.Drive.PrivateKey == "" {
		log.Warn("no drive service account configured, uploads are logged only")
		return docstore.NewDev(log), nil
	}
	return drive.New(ctx, cfg.Drive, log)
}
