// Package runtime assembles the production wiring: configuration, database,
// queue client, blob storage and the operational HTTP listener.
package runtime

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"github.com/scholarport/application-service/internal/app"
	"github.com/scholarport/application-service/internal/app/blob"
	"github.com/scholarport/application-service/internal/app/metrics"
	"github.com/scholarport/application-service/internal/app/queue"
	"github.com/scholarport/application-service/internal/app/storage"
	"github.com/scholarport/application-service/internal/app/storage/postgres"
	"github.com/scholarport/application-service/internal/config"
	"github.com/scholarport/application-service/pkg/logger"
)

// Application wires core dependencies and manages process lifecycle.
type Application struct {
	cfg    *config.Config
	log    *logger.Logger
	core   *app.Application
	server *http.Server
	db     *sqlx.DB
}

// NewApplication constructs the production application from configuration.
func NewApplication() (*Application, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	log := logger.New(logger.LoggingConfig{
		Level:      cfg.Logging.Level,
		Format:     cfg.Logging.Format,
		Output:     cfg.Logging.Output,
		FilePrefix: cfg.Logging.FilePrefix,
	})

	var (
		store storage.ApplicationStore
		db    *sqlx.DB
	)
	if cfg.Database.DSN != "" {
		db, err = openDatabase(cfg.Database)
		if err != nil {
			return nil, fmt.Errorf("open database: %w", err)
		}
		if cfg.Database.Migrate {
			if err := postgres.Migrate(db); err != nil {
				db.Close()
				return nil, fmt.Errorf("migrate database: %w", err)
			}
		}
		store = postgres.New(db)
	} else {
		log.Warn("DATABASE_URL not set; using in-memory store")
	}

	queueClient, err := queue.NewSQSClient(queue.SQSConfig{
		Region:    cfg.Queues.Region,
		AccessKey: cfg.Queues.AccessKey,
		SecretKey: cfg.Queues.SecretKey,
		Endpoint:  cfg.Queues.Endpoint,
	})
	if err != nil {
		return nil, fmt.Errorf("configure queue client: %w", err)
	}

	blobs, err := buildBlobStorage(cfg.Storage)
	if err != nil {
		return nil, fmt.Errorf("configure document storage: %w", err)
	}

	core, err := app.New(app.Dependencies{
		Store: store,
		Queue: queueClient,
		Blobs: blobs,
		Queues: app.QueueEndpoints{
			DeadlineURL:      cfg.Queues.DeadlineURL,
			GradingResultURL: cfg.Queues.GradingResultURL,
			GradingURL:       cfg.Queues.GradingURL,
		},
		Poller: app.PollerSettings{
			Interval:    cfg.Queues.PollInterval,
			Wait:        cfg.Queues.PollWait,
			MaxInFlight: cfg.Queues.MaxInFlight,
		},
	}, log)
	if err != nil {
		return nil, fmt.Errorf("build application: %w", err)
	}

	router := chi.NewRouter()
	router.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	router.Method(http.MethodGet, "/metrics", metrics.Handler())

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	return &Application{
		cfg:    cfg,
		log:    log,
		core:   core,
		server: server,
		db:     db,
	}, nil
}

// Run starts the pollers and the ops listener, blocking until the context is
// cancelled or the listener fails.
func (a *Application) Run(ctx context.Context) error {
	if err := a.core.Start(ctx); err != nil {
		return fmt.Errorf("start services: %w", err)
	}

	errCh := make(chan error, 1)
	go func() {
		a.log.Infof("ops listener on %s", a.server.Addr)
		if err := a.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		return nil
	case err := <-errCh:
		return err
	}
}

// Shutdown gracefully stops the pollers, listener and database.
func (a *Application) Shutdown(ctx context.Context) error {
	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := a.server.Shutdown(shutdownCtx); err != nil {
		a.log.WithError(err).Warn("ops listener shutdown error")
	}
	if err := a.core.Stop(shutdownCtx); err != nil {
		return err
	}
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.log.WithError(err).Warn("error closing database connection")
		}
	}
	return nil
}

func openDatabase(cfg config.DatabaseConfig) (*sqlx.DB, error) {
	db, err := sqlx.Open("postgres", cfg.DSN)
	if err != nil {
		return nil, err
	}

	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(time.Duration(cfg.ConnMaxLifetime) * time.Second)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

func buildBlobStorage(cfg config.StorageConfig) (blob.Storage, error) {
	switch cfg.Backend {
	case "s3":
		return blob.NewS3Storage(blob.S3Config{
			Region:    cfg.Region,
			Bucket:    cfg.Bucket,
			AccessKey: cfg.AccessKey,
			SecretKey: cfg.SecretKey,
			Endpoint:  cfg.Endpoint,
		})
	default:
		return blob.NewLocalStorage(cfg.LocalDir, cfg.LocalBaseURL)
	}
}
