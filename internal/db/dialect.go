package db

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"regexp"
	"strconv"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	gormmysql "gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// Dialect hides the engine-specific parts of the bootstrap sequence.
type Dialect interface {
	Name() string
	// Dialector connects to database; an empty name connects to the server
	// without selecting a database.
	Dialector(database string) gorm.Dialector
	// IsUnknownDatabase reports whether err means the database does not exist.
	IsUnknownDatabase(err error) bool
	// CreateDatabase creates name if it does not exist, using a server-level
	// session.
	CreateDatabase(conn *gorm.DB, name string) error
}

// ConnOptions are the server coordinates shared by every dialect.
type ConnOptions struct {
	Host           string
	Port           int
	User           string
	Password       string
	ConnectTimeout time.Duration
}

// NewDialect returns the dialect registered under name.
func NewDialect(name string, opts ConnOptions) (Dialect, error) {
	switch name {
	case "mysql", "":
		return MySQL{opts: opts}, nil
	case "postgres":
		return Postgres{opts: opts}, nil
	default:
		return nil, fmt.Errorf("unsupported database dialect %q", name)
	}
}

var identifierRE = regexp.MustCompile(`^[A-Za-z0-9_$-]{1,64}$`)

func checkIdentifier(name string) error {
	if !identifierRE.MatchString(name) {
		return fmt.Errorf("invalid database name %q", name)
	}
	return nil
}

// MySQL error 1049: unknown database.
const mysqlUnknownDatabase = 1049

type MySQL struct {
	opts ConnOptions
}

func (MySQL) Name() string { return "mysql" }

// DSN renders the driver connection string; sessions use UTC.
func (d MySQL) DSN(database string) string {
	cfg := mysql.NewConfig()
	cfg.User = d.opts.User
	cfg.Passwd = d.opts.Password
	cfg.Net = "tcp"
	cfg.Addr = net.JoinHostPort(d.opts.Host, strconv.Itoa(d.opts.Port))
	cfg.DBName = database
	cfg.Timeout = d.opts.ConnectTimeout
	cfg.ParseTime = true
	cfg.Loc = time.UTC
	cfg.Params = map[string]string{"charset": "utf8mb4", "time_zone": "'+00:00'"}
	return cfg.FormatDSN()
}

func (d MySQL) Dialector(database string) gorm.Dialector {
	return gormmysql.New(gormmysql.Config{DSN: d.DSN(database)})
}

func (MySQL) IsUnknownDatabase(err error) bool {
	var me *mysql.MySQLError
	return errors.As(err, &me) && me.Number == mysqlUnknownDatabase
}

func (MySQL) CreateDatabase(conn *gorm.DB, name string) error {
	if err := checkIdentifier(name); err != nil {
		return err
	}
	return conn.Exec(fmt.Sprintf("CREATE DATABASE IF NOT EXISTS `%s`", name)).Error
}

type Postgres struct {
	opts ConnOptions
}

func (Postgres) Name() string { return "postgres" }

func (d Postgres) DSN(database string) string {
	if database == "" {
		database = "postgres"
	}
	q := url.Values{}
	q.Set("sslmode", "prefer")
	q.Set("TimeZone", "UTC")
	if d.opts.ConnectTimeout > 0 {
		q.Set("connect_timeout", strconv.Itoa(max(1, int(d.opts.ConnectTimeout.Seconds()))))
	}
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(d.opts.User, d.opts.Password),
		Host:     net.JoinHostPort(d.opts.Host, strconv.Itoa(d.opts.Port)),
		Path:     "/" + database,
		RawQuery: q.Encode(),
	}
	return u.String()
}

func (d Postgres) Dialector(database string) gorm.Dialector {
	return postgres.New(postgres.Config{DSN: d.DSN(database)})
}

func (Postgres) IsUnknownDatabase(err error) bool {
	var pe *pgconn.PgError
	return errors.As(err, &pe) && pe.Code == pgerrcode.InvalidCatalogName
}

// CreateDatabase checks pg_database first; Postgres has no IF NOT EXISTS
// for databases.
func (Postgres) CreateDatabase(conn *gorm.DB, name string) error {
	if err := checkIdentifier(name); err != nil {
		return err
	}
	var n int64
	if err := conn.Raw("SELECT COUNT(*) FROM pg_database WHERE datname = ?", name).Scan(&n).Error; err != nil {
		return err
	}
	if n > 0 {
		return nil
	}
	return conn.Exec(fmt.Sprintf(`CREATE DATABASE "%s"`, name)).Error
}
