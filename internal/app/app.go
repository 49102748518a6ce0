// Package app assembles the service from configuration and runs it.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"github.com/6225-Cloud-Computing-sakshiparikh-org/webapp/internal/blob"
	"github.com/6225-Cloud-Computing-sakshiparikh-org/webapp/internal/config"
	"github.com/6225-Cloud-Computing-sakshiparikh-org/webapp/internal/db"
	"github.com/6225-Cloud-Computing-sakshiparikh-org/webapp/internal/files"
	"github.com/6225-Cloud-Computing-sakshiparikh-org/webapp/internal/logging"
	"github.com/6225-Cloud-Computing-sakshiparikh-org/webapp/internal/metrics"
	"github.com/6225-Cloud-Computing-sakshiparikh-org/webapp/internal/server"
)

// NewLogger builds the process logger. CloudWatch shipping is added when
// the configuration enables it; failing to reach CloudWatch is reported on
// the returned logger and does not stop the process.
func NewLogger(ctx context.Context, cfg *config.Config) (*slog.Logger, io.Closer, error) {
	opts := logging.Options{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Dir:    cfg.Logging.Dir,
	}

	var cwErr error
	if cfg.CloudWatchEnabled() {
		client, err := logging.NewCloudWatchClient(ctx, cfg.ObjectStore.Region)
		if err == nil {
			var w *logging.CloudWatchWriter
			stream := logging.StreamName(cfg.Logging.StreamPrefix, time.Now())
			w, err = logging.NewCloudWatchWriter(ctx, client, cfg.Logging.LogGroup, stream)
			if err == nil {
				opts.Sinks = append(opts.Sinks, w)
			}
		}
		cwErr = err
	}

	logger, closer, err := logging.New(opts)
	if err != nil {
		return nil, nil, err
	}
	logger = logger.With("service", "webapp")
	if cwErr != nil {
		logger.Warn("cloudwatch logging disabled", "error", cwErr.Error())
	}
	return logger, closer, nil
}

// App owns every long-lived component of the service.
type App struct {
	cfg *config.Config
	log *slog.Logger

	rec        *metrics.Recorder
	prometheus *metrics.Prometheus
	statsd     *metrics.StatsD

	handle  *db.Handle
	conn    *gorm.DB
	objects blob.Store
	server  *server.Server
}

// New wires the components. It does not touch the network; Bootstrap and
// Run do.
func New(cfg *config.Config, log *slog.Logger) (*App, error) {
	a := &App{cfg: cfg, log: log, handle: db.NewHandle()}

	sinks := []metrics.Sink{}
	if cfg.Metrics.ListenAddr != "" {
		a.prometheus = metrics.NewPrometheus("webapp")
		sinks = append(sinks, a.prometheus)
	}
	if addr := cfg.Metrics.StatsDAddr(); addr != "" {
		sd, err := metrics.NewStatsD(addr, cfg.Metrics.StatsDPrefix)
		if err != nil {
			return nil, fmt.Errorf("statsd: %w", err)
		}
		a.statsd = sd
		sinks = append(sinks, sd)
	}
	a.rec = metrics.NewRecorder(log.With("component", "metrics"), sinks...)

	store, err := blob.NewMinio(blob.Options{
		Endpoint:  cfg.ObjectStore.Endpoint,
		Region:    cfg.ObjectStore.Region,
		Bucket:    cfg.ObjectStore.Bucket,
		AccessKey: cfg.ObjectStore.AccessKey,
		SecretKey: cfg.ObjectStore.SecretKey,
		Timeout:   cfg.ObjectStore.Timeout,
	})
	if err != nil {
		return nil, fmt.Errorf("object store: %w", err)
	}
	a.objects = blob.NewInstrumented(store, a.rec)

	a.server = server.New(server.Config{
		Addr:           cfg.Addr(),
		MaxUploadBytes: cfg.MaxUploadBytes,
		Health:         a.handle,
		Files:          files.NewService(a.objects, a.handle, a.rec, log),
		Metrics:        a.rec,
		Logger:         log,
	})
	return a, nil
}

// Ready reports whether the metadata store finished bootstrapping.
func (a *App) Ready() bool { return a.handle.Ready() }

// Bootstrap prepares the metadata store and marks it ready. On failure the
// store stays unavailable for the life of the process.
func (a *App) Bootstrap(ctx context.Context) error {
	conn, err := Migrate(ctx, a.cfg, a.log)
	if err != nil {
		return err
	}
	a.conn = conn

	retry := db.RetryPolicy{MaxAttempts: a.cfg.Database.RetryMax, Timeout: a.cfg.Database.RetryTimeout}
	a.handle.MarkReady(db.NewInstrumented(db.NewGormStore(conn, retry), a.rec))
	return nil
}

// Migrate runs the bootstrap sequence for the configured database.
func Migrate(ctx context.Context, cfg *config.Config, log *slog.Logger) (*gorm.DB, error) {
	dialect, err := db.NewDialect(cfg.Database.Dialect, db.ConnOptions{
		Host:           cfg.Database.Host,
		Port:           cfg.Database.Port,
		User:           cfg.Database.User,
		Password:       cfg.Database.Password,
		ConnectTimeout: cfg.Database.ConnectTimeout,
	})
	if err != nil {
		return nil, err
	}
	return db.Bootstrap(ctx, dialect, db.DefaultOptions(cfg.Database.Name), log)
}

// CheckBucket verifies the bucket is reachable.
func (a *App) CheckBucket(ctx context.Context) error {
	return a.objects.CheckBucket(ctx)
}

// Run serves HTTP (and the metrics listener when configured) until ctx is
// cancelled, then shuts down gracefully.
func (a *App) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return a.server.Start()
	})
	if a.prometheus != nil {
		g.Go(func() error {
			return a.prometheus.Serve(gctx, a.cfg.Metrics.ListenAddr, a.log)
		})
	}
	g.Go(func() error {
		<-gctx.Done()
		a.log.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
		defer cancel()
		return a.server.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

// Close releases the database pool and flushes metrics.
func (a *App) Close() error {
	var errs []error
	if a.conn != nil {
		errs = append(errs, db.Close(a.conn))
	}
	if a.statsd != nil {
		errs = append(errs, a.statsd.Close())
	}
	return errors.Join(errs...)
}
