package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/lib/pq"
	"github.com/rs/zerolog/log"

	"github.com/codershubham350/discover-places-backend/pkg/config"
	"github.com/codershubham350/discover-places-backend/pkg/retry"
)

// Client represents a PostgreSQL database client
type Client struct {
	db        *sql.DB
	txTimeout time.Duration
}

// NewClient creates a new PostgreSQL client with exponential backoff retry
func NewClient(cfg *config.DatabaseConfig) (*Client, error) {
	db, err := sql.Open("postgres", cfg.DatabaseDSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	err = retry.Do(context.Background(), retry.DefaultConfig(), "PostgreSQL",
		func(ctx context.Context) error {
			pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			defer cancel()
			return db.PingContext(pingCtx)
		},
		func(attempt int, err error, nextDelay time.Duration) {
			log.Warn().Err(err).Int("attempt", attempt).Dur("retry_in", nextDelay).Msg("PostgreSQL connection attempt failed")
		},
	)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to PostgreSQL after retries: %w", err)
	}

	log.Info().Str("host", cfg.Host).Str("database", cfg.Database).Msg("connected to PostgreSQL")
	return NewClientFromDB(db, cfg.TxTimeout), nil
}

// NewClientFromDB wraps an already opened handle. Tests use it with sqlmock.
func NewClientFromDB(db *sql.DB, txTimeout time.Duration) *Client {
	return &Client{db: db, txTimeout: txTimeout}
}

// DB returns the underlying database connection
func (c *Client) DB() *sql.DB {
	return c.db
}

// Close closes the database connection
func (c *Client) Close() error {
	return c.db.Close()
}

// Ping verifies the connection to the database
func (c *Client) Ping(ctx context.Context) error {
	return c.db.PingContext(ctx)
}

// WithTx runs fn inside a transaction bounded by the configured timeout.
// fn must issue every statement with the ctx it is given so the deadline
// cancels statements that are still running. It commits when fn returns nil
// and rolls back on error or panic.
func (c *Client) WithTx(ctx context.Context, fn func(ctx context.Context, tx *sql.Tx) error) (err error) {
	if c.txTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.txTimeout)
		defer cancel()
	}

	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
				err = fmt.Errorf("rollback failed (%v) after: %w", rbErr, err)
			}
		}
	}()

	if err = fn(ctx, tx); err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}
