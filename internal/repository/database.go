package repository

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file" // Required for file source
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"go.uber.org/zap"
	_ "modernc.org/sqlite" // SQLite driver

	"inspection-service/internal/apperr"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

func init() {
	sqlx.BindDriver(DriverSQLite, sqlx.QUESTION)
}

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS alerts (
    id                 INTEGER PRIMARY KEY AUTOINCREMENT,
    user_id            TEXT     NOT NULL,
    alert_type         TEXT     NOT NULL,
    source             TEXT     NOT NULL,
    direction          TEXT     NOT NULL,
    message_preview    TEXT     NOT NULL,
    created_at         DATETIME NOT NULL,
    user_action        TEXT CHECK (user_action IS NULL OR user_action IN ('allowed', 'blocked', 'reported')),
    risk_level         TEXT     NOT NULL,
    risk_score         INTEGER  NOT NULL,
    categories         TEXT     NOT NULL DEFAULT '[]',
    sender             TEXT,
    recipient          TEXT,
    is_spam            BOOLEAN  NOT NULL DEFAULT 0,
    spam_probability   REAL     NOT NULL DEFAULT 0,
    has_sensitive_data BOOLEAN  NOT NULL DEFAULT 0,
    sensitivity_level  TEXT     NOT NULL DEFAULT 'none',
    detections         TEXT     NOT NULL DEFAULT '[]',
    notification_sent  BOOLEAN  NOT NULL DEFAULT 0,
    idempotency_key    TEXT
);
CREATE INDEX IF NOT EXISTS idx_alerts_user_id_id ON alerts (user_id, id DESC);
CREATE INDEX IF NOT EXISTS idx_alerts_user_id_created_at ON alerts (user_id, created_at);
CREATE UNIQUE INDEX IF NOT EXISTS idx_alerts_idempotency ON alerts (user_id, idempotency_key) WHERE idempotency_key IS NOT NULL;
`

// Open connects to the configured database and brings its schema up to date.
func Open(driverName, url, migrations string, logger *zap.Logger) (*sqlx.DB, error) {
	switch driverName {
	case DriverPostgres:
		db, err := NewPostgresDB(url, logger)
		if err != nil {
			return nil, err
		}
		if err := MigrateDB(db, migrations, logger); err != nil {
			db.Close()
			return nil, err
		}
		return db, nil
	case DriverSQLite:
		return NewSQLiteDB(url, logger)
	default:
		return nil, apperr.InvalidArgument("database.driver", driverName, DriverPostgres, DriverSQLite)
	}
}

// NewPostgresDB establishes a new connection to the PostgreSQL database.
func NewPostgresDB(dataSourceName string, logger *zap.Logger) (*sqlx.DB, error) {
	db, err := sqlx.Connect(DriverPostgres, dataSourceName)
	if err != nil {
		return nil, err
	}

	err = db.Ping()
	if err != nil {
		return nil, err
	}

	logger.Info("Successfully connected to the database!", zap.String("driver", DriverPostgres))
	return db, nil
}

// NewSQLiteDB opens (creating if needed) a SQLite database file and applies
// the alerts schema.
func NewSQLiteDB(path string, logger *zap.Logger) (*sqlx.DB, error) {
	if path != ":memory:" {
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("create database directory: %w", err)
			}
		}
	}

	db, err := sqlx.Connect(DriverSQLite, sqliteDSN(path))
	if err != nil {
		return nil, err
	}
	// SQLite allows a single writer; one connection keeps writes serialized.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply sqlite schema: %w", err)
	}

	logger.Info("Successfully connected to the database!", zap.String("driver", DriverSQLite), zap.String("path", path))
	return db, nil
}

func sqliteDSN(path string) string {
	if strings.Contains(path, "?") {
		return path
	}
	return path + "?_pragma=busy_timeout(5000)&_time_format=sqlite"
}

// MigrateDB runs database migrations.
func MigrateDB(db *sqlx.DB, source string, logger *zap.Logger) error {
	dbDriver, err := postgres.WithInstance(db.DB, &postgres.Config{})
	if err != nil {
		logger.Error("Couldn't get database instance for running migrations", zap.Error(err))
		return err
	}

	m, err := migrate.NewWithDatabaseInstance(source, "inspection_service", dbDriver)
	if err != nil {
		logger.Error("Couldn't create migrate instance", zap.Error(err))
		return err
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		logger.Error("Couldn't run database migration", zap.Error(err))
		return err
	}

	logger.Info("Database migration was run successfully")
	return nil
}

// storeError converts a driver error into the service error taxonomy.
// Connection-level failures become Unavailable, anything else Internal.
func storeError(op string, err error) error {
	if err == nil {
		return nil
	}
	if _, ok := apperr.As(err); ok {
		return err
	}
	var netErr net.Error
	if errors.Is(err, driver.ErrBadConn) ||
		errors.Is(err, sql.ErrConnDone) ||
		errors.Is(err, context.DeadlineExceeded) ||
		errors.As(err, &netErr) {
		return apperr.Unavailable("alert store", err)
	}
	return apperr.Internal(op, err)
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
