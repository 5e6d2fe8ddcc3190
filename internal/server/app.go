// Package server initializes and runs the photovault server.
// It opens the database, runs migrations, wires the object storage
// gateway and services, and starts the HTTP server with graceful
// shutdown on OS signals.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/dmitrijs2005/photovault/internal/logging"
	"github.com/dmitrijs2005/photovault/internal/server/config"
	"github.com/dmitrijs2005/photovault/internal/server/httpapi"
	"github.com/dmitrijs2005/photovault/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/photovault/internal/server/services"
	"github.com/dmitrijs2005/photovault/internal/server/storage"
)

type App struct {
	config       *config.Config
	logger       logging.Logger
	db           *sql.DB
	auditService *services.AuditService
	userService  *services.UserService
	photoService *services.PhotoService
	albumService *services.AlbumService
}

func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {

	sl := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	logger := logging.NewSlogLogger(sl)

	db, err := sql.Open("pgx", cfg.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	rm := repomanager.NewPostgresRepositoryManager()
	if err := rm.RunMigrations(ctx, db); err != nil {
		return nil, fmt.Errorf("db migration error: %w", err)
	}

	store, err := storage.NewS3Gateway(storage.S3Config{
		AccessKey:    cfg.S3AccessKey,
		SecretKey:    cfg.S3SecretKey,
		Bucket:       cfg.S3Bucket,
		Region:       cfg.S3Region,
		BaseEndpoint: cfg.S3BaseEndpoint,
		PresignTTL:   cfg.PresignTTL,
	})
	if err != nil {
		return nil, fmt.Errorf("object storage init error: %w", err)
	}

	audit := services.NewAuditService(db, rm, logger, cfg.AuditQueueSize)
	us := services.NewUserService(db, rm, audit, logger, cfg)
	ps := services.NewPhotoService(db, rm, store, audit, logger)
	as := services.NewAlbumService(db, rm, store, audit, logger)

	return &App{
		config:       cfg,
		logger:       logger,
		db:           db,
		auditService: audit,
		userService:  us,
		photoService: ps,
		albumService: as,
	}, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) {

	s := httpapi.NewServer(app.config.EndpointAddrHTTP, app.logger,
		app.userService, app.photoService, app.albumService, app.config.SecretKey)

	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

func (app *App) Run(ctx context.Context) {

	ctx, cancelFunc := context.WithCancel(ctx)

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()

	wg.Wait()

	// Drain queued audit entries before letting the process exit.
	app.auditService.Close()

	if err := app.db.Close(); err != nil {
		app.logger.Error(ctx, err.Error())
	}
}
