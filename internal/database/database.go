package database

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"go.uber.org/zap"
)

//go:embed schema.sql
var schema string

const (
	maxRetries = 10
	retryDelay = 3 * time.Second
)

// Connect opens a pool on dsn and waits for the server to answer a ping.
func Connect(ctx context.Context, dsn string, log *zap.Logger) (*sql.DB, error) {
	if dsn == "" {
		return nil, fmt.Errorf("DATABASE_URL is not set")
	}

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection (driver error): %w", err)
	}

	var pingErr error
	for i := 1; i <= maxRetries; i++ {
		if pingErr = db.PingContext(ctx); pingErr == nil {
			return db, nil
		}
		log.Warn("database not ready",
			zap.Int("attempt", i),
			zap.Int("max_attempts", maxRetries),
			zap.Duration("retry_in", retryDelay))
		select {
		case <-ctx.Done():
			db.Close()
			return nil, ctx.Err()
		case <-time.After(retryDelay):
		}
	}

	db.Close()
	return nil, fmt.Errorf("failed to connect to database after %d attempts: %w", maxRetries, pingErr)
}

// Migrate creates any missing tables and indexes.
func Migrate(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

// Open returns the configured storage engine.
func Open(ctx context.Context, backend, dsn string, log *zap.Logger) (Rows, error) {
	switch backend {
	case "memory":
		log.Info("using in-memory rows")
		return NewMemory(), nil
	case "", "postgres":
		db, err := Connect(ctx, dsn, log)
		if err != nil {
			return nil, err
		}
		if err := Migrate(ctx, db); err != nil {
			db.Close()
			return nil, err
		}
		log.Info("database connected")
		return NewPostgres(db), nil
	}
	return nil, fmt.Errorf("unknown rows backend %q", backend)
}
