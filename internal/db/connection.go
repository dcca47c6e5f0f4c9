package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // registers the "pgx" database/sql driver
)

// DB holds the connection pool backing the postgres session store.
type DB struct {
	SQL *sql.DB
}

// NewDB opens a pgx-backed database/sql pool and verifies it with a ping.
func NewDB(ctx context.Context, dbURL string) (*DB, error) {
	if dbURL == "" {
		return nil, fmt.Errorf("database url not set")
	}

	pool, err := sql.Open("pgx", dbURL)
	if err != nil {
		return nil, fmt.Errorf("unable to open database: %w", err)
	}
	pool.SetMaxOpenConns(10)
	pool.SetConnMaxIdleTime(5 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.PingContext(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("unable to ping database: %w", err)
	}

	return &DB{SQL: pool}, nil
}

// Close closes the database connection
func (db *DB) Close() {
	db.SQL.Close()
}
