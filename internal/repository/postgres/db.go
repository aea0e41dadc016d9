package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/andresuchdata/storepulse/backend-go/internal/config"
	"github.com/andresuchdata/storepulse/backend-go/pkg/logger"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog"
	"golang.org/x/sync/semaphore"
)

const (
	driverName      = "pgx"
	maxOpenConns    = 10
	maxIdleConns    = 2
	connMaxLifetime = 5 * time.Minute
	maxConcurrentTx = 4 // transactions in flight per pool
	pingTimeout     = 5 * time.Second
)

// DB is the run-tracking connection pool.
type DB struct {
	*sqlx.DB
	sem *semaphore.Weighted
	log zerolog.Logger
}

var (
	dbInstance *DB
	dbErr      error
	once       sync.Once
)

// NewDB returns the process-wide pool built from cfg.
func NewDB(cfg *config.DatabaseConfig) (*DB, error) {
	once.Do(func() {
		dbInstance, dbErr = Open(DSN(cfg))
	})
	return dbInstance, dbErr
}

// DSN builds a keyword/value connection string from cfg.
func DSN(cfg *config.DatabaseConfig) string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.DBName, cfg.SSLMode)
}

// Open connects with a DSN or postgres:// URL and verifies the connection.
func Open(dsn string) (*DB, error) {
	db, err := sqlx.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(maxOpenConns)
	db.SetMaxIdleConns(maxIdleConns)
	db.SetConnMaxLifetime(connMaxLifetime)

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	log := logger.Component("postgres")
	log.Info().Int("max_open", maxOpenConns).Msg("database connected")
	return &DB{
		DB:  db,
		sem: semaphore.NewWeighted(maxConcurrentTx),
		log: log,
	}, nil
}

// WithTx runs fn in a transaction, rolling back when fn fails.
func (db *DB) WithTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	if err := db.sem.Acquire(ctx, 1); err != nil {
		return fmt.Errorf("could not acquire semaphore: %w", err)
	}
	defer db.sem.Release(1)

	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("could not begin transaction: %w", err)
	}

	if err := fn(tx.Tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			db.log.Error().Err(rbErr).Msg("could not rollback transaction")
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("could not commit transaction: %w", err)
	}
	return nil
}
