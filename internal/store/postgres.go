// Package store is the sole typed access path to the snapshot and
// indicator tables: idempotent batch upserts, windowed reads, and
// watermark queries.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"
	"github.com/sirupsen/logrus"
)

// DB wraps *sql.DB with the pool tuning and health check every component
// shares; it is constructed once in main and injected into the Gateway.
type DB struct {
	*sql.DB
	logger *logrus.Logger
}

// Connect opens the pool, sized max(concurrency, 4) per the concurrency
// and resource model, and verifies connectivity with a ping.
func Connect(dsn string, concurrency int, logger *logrus.Logger) (*DB, error) {
	sqlDB, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	poolSize := concurrency
	if poolSize < 4 {
		poolSize = 4
	}
	sqlDB.SetMaxOpenConns(poolSize)
	sqlDB.SetMaxIdleConns(poolSize)
	sqlDB.SetConnMaxLifetime(5 * time.Minute)
	sqlDB.SetConnMaxIdleTime(30 * time.Second)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := sqlDB.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}

	logger.WithField("pool_size", poolSize).Info("database connection established")

	return &DB{DB: sqlDB, logger: logger}, nil
}

func (db *DB) Close() error {
	db.logger.Info("closing database connection")
	return db.DB.Close()
}

func (db *DB) HealthCheck() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return db.PingContext(ctx)
}
