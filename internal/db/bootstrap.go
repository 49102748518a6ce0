package db

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Options controls the bootstrap sequence and the operational pool.
type Options struct {
	Database        string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// DefaultOptions returns pool settings suited to a single service instance.
func DefaultOptions(database string) Options {
	return Options{
		Database:        database,
		MaxOpenConns:    10,
		MaxIdleConns:    10,
		ConnMaxLifetime: 30 * time.Minute,
	}
}

func gormConfig() *gorm.Config {
	return &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	}
}

// Bootstrap brings the metadata store to a usable state:
//
//  1. probe the configured database;
//  2. if it does not exist, create it through a server-level session;
//  3. open the operational session;
//  4. sync the schema of every model.
//
// Any other failure is returned and the caller must treat the store as
// unusable.
func Bootstrap(ctx context.Context, d Dialect, opts Options, log *slog.Logger) (*gorm.DB, error) {
	log = log.With("component", "db", "dialect", d.Name(), "database", opts.Database)

	probe, err := gorm.Open(d.Dialector(opts.Database), gormConfig())
	switch {
	case err == nil:
		closeDB(probe)
	case d.IsUnknownDatabase(err):
		log.Warn("database missing, creating it")
		if err := createDatabase(d, opts.Database); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("connect to %s: %w", opts.Database, err)
	}

	conn, err := gorm.Open(d.Dialector(opts.Database), gormConfig())
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", opts.Database, err)
	}
	if err := configurePool(conn, opts); err != nil {
		closeDB(conn)
		return nil, err
	}

	if err := Migrate(ctx, conn); err != nil {
		closeDB(conn)
		return nil, err
	}

	log.Info("database ready")
	return conn, nil
}

func createDatabase(d Dialect, name string) error {
	server, err := gorm.Open(d.Dialector(""), gormConfig())
	if err != nil {
		return fmt.Errorf("connect to server: %w", err)
	}
	defer closeDB(server)

	if err := d.CreateDatabase(server, name); err != nil {
		return fmt.Errorf("create database %s: %w", name, err)
	}
	return nil
}

// Migrate creates or alters the tables of every model.
func Migrate(ctx context.Context, conn *gorm.DB) error {
	if err := conn.WithContext(ctx).AutoMigrate(Models()...); err != nil {
		return fmt.Errorf("sync schema: %w", err)
	}
	return nil
}

func configurePool(conn *gorm.DB, opts Options) error {
	sqlDB, err := conn.DB()
	if err != nil {
		return err
	}
	if opts.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(opts.MaxOpenConns)
	}
	if opts.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(opts.MaxIdleConns)
	}
	if opts.ConnMaxLifetime > 0 {
		sqlDB.SetConnMaxLifetime(opts.ConnMaxLifetime)
	}
	return nil
}

// Close releases the connection pool behind conn.
func Close(conn *gorm.DB) error {
	sqlDB, err := conn.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func closeDB(conn *gorm.DB) {
	_ = Close(conn)
}
