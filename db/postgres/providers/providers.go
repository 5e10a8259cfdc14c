package providers

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

const pingTimeout = 2 * time.Second

// DBHelper hands the shared Postgres pool to the order and category
// repositories and owns its lifetime.
type DBHelper struct {
	PostgresClient *sql.DB
}

func NewDbProvider(postgresDBClient *sql.DB) (*DBHelper, error) {
	if postgresDBClient == nil {
		return nil, errors.New("invalid postgres client: nil pointer provided")
	}
	return &DBHelper{PostgresClient: postgresDBClient}, nil
}

// Ping checks that the pool can still reach the server.
func (h *DBHelper) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	return h.PostgresClient.PingContext(ctx)
}

func (h *DBHelper) Close() error {
	return h.PostgresClient.Close()
}
