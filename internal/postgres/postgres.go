package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq" // PostgreSQL driver
)

// PoolConfig tunes the database/sql connection pool. Zero values keep the driver defaults.
type PoolConfig struct {
	MaxOpenConns   int
	MaxIdleConns   int
	MaxLifeMinutes int
}

// DefaultPoolConfig is used when no pool settings are configured
var DefaultPoolConfig = PoolConfig{MaxOpenConns: 25, MaxIdleConns: 5, MaxLifeMinutes: 5}

// Open connects to PostgreSQL and verifies the connection
func Open(ctx context.Context, connectionString string, pool PoolConfig) (*sql.DB, error) {
	db, err := sql.Open("postgres", connectionString)
	if err != nil {
		return nil, fmt.Errorf("opening postgres connection: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging postgres: %w", err)
	}

	if pool.MaxOpenConns > 0 {
		db.SetMaxOpenConns(pool.MaxOpenConns)
	}
	if pool.MaxIdleConns > 0 {
		db.SetMaxIdleConns(pool.MaxIdleConns)
	}
	if pool.MaxLifeMinutes > 0 {
		db.SetConnMaxLifetime(time.Duration(pool.MaxLifeMinutes) * time.Minute)
	}
	return db, nil
}
