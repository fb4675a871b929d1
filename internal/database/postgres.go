package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/lib/pq"
	"github.com/spf13/viper"
)

// maxDeadlockRetries bounds how many times a transaction body is re-run
// after a deadlock before the underlying error is given up on.
const maxDeadlockRetries = 10

// deadlockSQLState is Postgres SQLSTATE 40P01 (deadlock_detected).
const deadlockSQLState = "40P01"

// Config holds database configuration
type Config struct {
	Host            string
	Port            string
	User            string
	Password        string
	Name            string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// GetConfig returns database configuration with defaults
func GetConfig() *Config {
	viper.SetDefault("database.host", "localhost")
	viper.SetDefault("database.port", "5432")
	viper.SetDefault("database.user", "postgres")
	viper.SetDefault("database.password", "password")
	viper.SetDefault("database.name", "transact")
	viper.SetDefault("database.ssl_mode", "disable")
	viper.SetDefault("database.max_open_conns", 20)
	viper.SetDefault("database.max_idle_conns", 5)
	viper.SetDefault("database.conn_max_lifetime", time.Minute*5)

	return &Config{
		Host:            viper.GetString("database.host"),
		Port:            viper.GetString("database.port"),
		User:            viper.GetString("database.user"),
		Password:        viper.GetString("database.password"),
		Name:            viper.GetString("database.name"),
		SSLMode:         viper.GetString("database.ssl_mode"),
		MaxOpenConns:    viper.GetInt("database.max_open_conns"),
		MaxIdleConns:    viper.GetInt("database.max_idle_conns"),
		ConnMaxLifetime: viper.GetDuration("database.conn_max_lifetime"),
	}
}

// Stats is a snapshot of the handle's transaction counters plus the pool
// saturation numbers surfaced by database/sql.
type Stats struct {
	FailedTransactions   int64 `json:"failedTransactions"`
	RetriedTransactions  int64 `json:"retriedTransactions"`
	Deadlocks            int64 `json:"deadlocks"`
	OpenConnections      int   `json:"openConnections"`
	InUse                int   `json:"inUse"`
	WaitingForConnection int64 `json:"waitingForConnection"`
}

// DB is the process-wide database handle: the connection pool plus the
// counters around it. It is constructed once at startup and passed by
// reference; there is no package-level instance.
type DB struct {
	sql *sql.DB

	failedTransactions  atomic.Int64
	retriedTransactions atomic.Int64
	deadlocks           atomic.Int64
}

// Open connects to Postgres and returns a ready handle.
func Open(config *Config) (*DB, error) {
	connStr := fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		config.Host, config.Port, config.User, config.Password, config.Name, config.SSLMode,
	)

	sqlDB, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("error opening database: %w", err)
	}

	if err = sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("error connecting to database: %w", err)
	}

	sqlDB.SetMaxOpenConns(config.MaxOpenConns)
	sqlDB.SetMaxIdleConns(config.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(config.ConnMaxLifetime)

	slog.Info("database connection established", "host", config.Host, "name", config.Name)
	return New(sqlDB), nil
}

// New wraps an already-open pool. Used by Open and by tests that supply a
// mocked *sql.DB.
func New(sqlDB *sql.DB) *DB {
	return &DB{sql: sqlDB}
}

// Close closes the underlying pool.
func (db *DB) Close() error {
	return db.sql.Close()
}

// Stats returns a point-in-time snapshot of the counters.
func (db *DB) Stats() Stats {
	pool := db.sql.Stats()
	return Stats{
		FailedTransactions:   db.failedTransactions.Load(),
		RetriedTransactions:  db.retriedTransactions.Load(),
		Deadlocks:            db.deadlocks.Load(),
		OpenConnections:      pool.OpenConnections,
		InUse:                pool.InUse,
		WaitingForConnection: pool.WaitCount,
	}
}

// QueryContext runs a plain read outside any transaction.
func (db *DB) QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return db.sql.QueryContext(ctx, query, args...)
}

// QueryRowContext runs a single-row read outside any transaction.
func (db *DB) QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row {
	return db.sql.QueryRowContext(ctx, query, args...)
}

// ExecContext runs a statement outside any transaction.
func (db *DB) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return db.sql.ExecContext(ctx, query, args...)
}

// WithTransaction begins a transaction, runs body, and commits. Any error
// from body rolls the transaction back. A deadlock re-runs the entire body
// from the top, including its reads, up to maxDeadlockRetries times; every
// other failure (and retry exhaustion) propagates unchanged.
func (db *DB) WithTransaction(ctx context.Context, body func(tx *sql.Tx) error) error {
	var err error
	for attempt := 0; attempt <= maxDeadlockRetries; attempt++ {
		if attempt > 0 {
			db.retriedTransactions.Add(1)
		}
		err = db.runTransaction(ctx, body)
		if err == nil {
			return nil
		}
		if !IsDeadlock(err) {
			break
		}
		db.deadlocks.Add(1)
		slog.Debug("deadlock detected, retrying transaction", "attempt", attempt+1)
	}
	db.failedTransactions.Add(1)
	return err
}

func (db *DB) runTransaction(ctx context.Context, body func(tx *sql.Tx) error) error {
	tx, err := db.sql.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	if err := body(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			slog.Error("transaction rollback failed", "error", rbErr)
		}
		return err
	}
	return tx.Commit()
}

// IsDeadlock reports whether err carries the store's lock-deadlock signal.
func IsDeadlock(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == deadlockSQLState
}
