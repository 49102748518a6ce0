package db

import (
	"errors"
	"path/filepath"
	"sync"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

var errUnknownDatabase = errors.New("unknown database")

// gatedDialector fails Initialize with err, emulating a server that refuses
// the connection.
type gatedDialector struct {
	gorm.Dialector
	err error
}

func (d gatedDialector) Initialize(*gorm.DB) error { return d.err }

// migrateFailDialector opens normally but its migrator refuses to sync the
// schema. Every session handed to the migrator is recorded.
type migrateFailDialector struct {
	gorm.Dialector
	err    error
	record func(*gorm.DB)
}

func (d migrateFailDialector) Migrator(db *gorm.DB) gorm.Migrator {
	d.record(db)
	return failingMigrator{Migrator: d.Dialector.Migrator(db), err: d.err}
}

type failingMigrator struct {
	gorm.Migrator
	err error
}

func (m failingMigrator) AutoMigrate(...any) error { return m.err }

// sqliteDialect maps database names to files in dir. Databases only exist
// once CreateDatabase ran for them, or when listed in created.
type sqliteDialect struct {
	dir        string
	openErr    error
	migrateErr error

	mu      sync.Mutex
	created map[string]bool
	creates int
	seen    []*gorm.DB
}

func newSQLiteDialect(t *testing.T) *sqliteDialect {
	return &sqliteDialect{dir: t.TempDir(), created: map[string]bool{}}
}

func (d *sqliteDialect) Name() string { return "sqlite" }

func (d *sqliteDialect) Dialector(database string) gorm.Dialector {
	if database == "" {
		database = "server"
	}
	inner := sqlite.Open(filepath.Join(d.dir, database+".db"))
	if d.openErr != nil {
		return gatedDialector{Dialector: inner, err: d.openErr}
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if database != "server" && !d.created[database] {
		return gatedDialector{Dialector: inner, err: errUnknownDatabase}
	}
	if d.migrateErr != nil && database != "server" {
		return migrateFailDialector{Dialector: inner, err: d.migrateErr, record: d.recordSession}
	}
	return inner
}

func (d *sqliteDialect) recordSession(db *gorm.DB) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.seen = append(d.seen, db)
}

func (d *sqliteDialect) IsUnknownDatabase(err error) bool {
	return errors.Is(err, errUnknownDatabase)
}

func (d *sqliteDialect) CreateDatabase(conn *gorm.DB, name string) error {
	if err := checkIdentifier(name); err != nil {
		return err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.created[name] = true
	d.creates++
	return nil
}

// openTestDB returns a migrated SQLite-backed session.
func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	conn, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "test.db")), gormConfig())
	require.NoError(t, err)
	t.Cleanup(func() { _ = Close(conn) })
	require.NoError(t, Migrate(t.Context(), conn))
	return conn
}
