package postgres

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"time"

	_ "github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/Puneet-Vishnoi/order-book/config"
)

//go:embed schema.sql
var schema string

type Db struct {
	PostgresClient *sql.DB
	logger         *zap.Logger
}

// ConnectDB opens the pool and pings it, retrying up to cfg.MaxAttempts times.
func ConnectDB(ctx context.Context, cfg config.PostgresConfig, logger *zap.Logger) (*Db, error) {
	var (
		db  *sql.DB
		err error
	)

	for i := 0; i < cfg.MaxAttempts; i++ {
		db, err = sql.Open("postgres", cfg.ConnString())
		if err != nil {
			logger.Warn("failed to open database connection", zap.Int("attempt", i+1), zap.Error(err))
		} else if err = db.PingContext(ctx); err == nil {
			logger.Info("connected to PostgreSQL", zap.String("host", cfg.Host), zap.String("db", cfg.DB))
			return &Db{PostgresClient: db, logger: logger}, nil
		} else {
			logger.Warn("failed to ping PostgreSQL", zap.Int("attempt", i+1), zap.Error(err))
			db.Close()
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(cfg.RetryDelay):
		}
	}

	return nil, fmt.Errorf("exceeded %d attempts connecting to PostgreSQL: %w", cfg.MaxAttempts, err)
}

// Stop gracefully closes the PostgreSQL connection
func (db *Db) Stop() {
	if db.PostgresClient == nil {
		return
	}
	if err := db.PostgresClient.Close(); err != nil {
		db.logger.Error("error closing PostgreSQL connection", zap.Error(err))
		return
	}
	db.logger.Info("PostgreSQL connection closed")
}

// InitSchema creates the categories and orders tables if they are missing.
func (db *Db) InitSchema(ctx context.Context) error {
	if _, err := db.PostgresClient.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to execute schema: %w", err)
	}
	db.logger.Info("database schema initialized")
	return nil
}
