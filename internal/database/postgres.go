package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"time"

	_ "github.com/lib/pq"
)

// PostgresDB is the pooled handle shared by all repositories. It may be nil
// when pool creation failed at startup; Acquire then falls back to direct
// per-call connections using the retained DSN.
var PostgresDB *sql.DB

// ErrConnection means both the pooled and the direct connect path failed.
// Fatal for the current operation, retryable later.
var ErrConnection = errors.New("database connection unavailable")

var (
	directDSN      string
	acquireTimeout = 10 * time.Second
)

// ConnectPostgres opens the connection pool and initializes the schema.
// A failure to create the pool is NOT fatal: the DSN is retained so each
// Acquire can still open a direct connection for that call only.
func ConnectPostgres(dsn string, poolSize int, connectTimeout time.Duration) error {
	directDSN = dsn
	if connectTimeout > 0 {
		acquireTimeout = connectTimeout
	}

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		// Malformed DSN; direct fallback would fail the same way.
		return err
	}

	if poolSize <= 0 {
		poolSize = 5
	}
	db.SetMaxOpenConns(poolSize)
	db.SetMaxIdleConns(poolSize)
	db.SetConnMaxLifetime(5 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), acquireTimeout)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		log.Printf("Could not create DB pool, will fall back to direct connections: %v", err)
		return nil
	}

	PostgresDB = db
	log.Printf("✅ Connected to PostgreSQL (pool size %d)", poolSize)
	return nil
}

// Conn is a scoped database connection. Callers must Release it on every
// exit path, including error paths.
type Conn struct {
	conn   *sql.Conn
	direct *sql.DB // non-nil when this connection bypassed the pool
}

// Acquire obtains a live connection, blocking up to the configured connect
// timeout. On pool exhaustion or a missing pool it opens a direct connection
// for this call only; ErrConnection is returned when both paths fail.
func Acquire(ctx context.Context) (*Conn, error) {
	actx, cancel := context.WithTimeout(ctx, acquireTimeout)
	defer cancel()

	if PostgresDB != nil {
		conn, err := PostgresDB.Conn(actx)
		if err == nil {
			return &Conn{conn: conn}, nil
		}
		log.Printf("Pool acquire failed, trying direct connect: %v", err)
	}

	if directDSN == "" {
		return nil, fmt.Errorf("acquire: no pool and no DSN configured: %w", ErrConnection)
	}

	db, err := sql.Open("postgres", directDSN)
	if err != nil {
		return nil, fmt.Errorf("acquire: direct open failed: %v: %w", err, ErrConnection)
	}
	db.SetMaxOpenConns(1)

	conn, err := db.Conn(actx)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("acquire: direct connect failed: %v: %w", err, ErrConnection)
	}
	return &Conn{conn: conn, direct: db}, nil
}

// Release returns a pooled connection to the pool, or tears down a direct one.
func (c *Conn) Release() {
	if c == nil {
		return
	}
	if c.conn != nil {
		c.conn.Close()
	}
	if c.direct != nil {
		c.direct.Close()
	}
}

func (c *Conn) BeginTx(ctx context.Context) (*sql.Tx, error) {
	return c.conn.BeginTx(ctx, nil)
}

func (c *Conn) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return c.conn.ExecContext(ctx, query, args...)
}

func (c *Conn) QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return c.conn.QueryContext(ctx, query, args...)
}

func (c *Conn) QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row {
	return c.conn.QueryRowContext(ctx, query, args...)
}

// InitPostgresTables creates all necessary tables if they don't exist.
// It goes through Acquire so the schema comes up even when the pool could
// not be created and every call runs on a direct connection.
func InitPostgresTables() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id UUID PRIMARY KEY,
			username VARCHAR(255) NOT NULL UNIQUE,
			password_hash VARCHAR(255) NOT NULL,
			full_name VARCHAR(255),
			phone VARCHAR(50),
			created_at TIMESTAMP NOT NULL DEFAULT NOW()
		)`,

		`CREATE TABLE IF NOT EXISTS reports (
			id UUID PRIMARY KEY,
			user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			patient_id VARCHAR(64),
			patient_name VARCHAR(255),
			phone VARCHAR(50),
			doctor_name VARCHAR(255),
			referred_by VARCHAR(255),
			sample_collected VARCHAR(64),
			report_generated_by VARCHAR(255),
			date VARCHAR(64),
			condition_name VARCHAR(32),
			risk DOUBLE PRECISION,
			raw_json TEXT,
			created_at TIMESTAMP NOT NULL DEFAULT NOW()
		)`,

		`CREATE TABLE IF NOT EXISTS chats (
			id UUID PRIMARY KEY,
			user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			role VARCHAR(16) NOT NULL,
			message TEXT NOT NULL,
			created_at TIMESTAMP NOT NULL DEFAULT NOW()
		)`,

		`CREATE INDEX IF NOT EXISTS idx_users_username ON users(username)`,
		`CREATE INDEX IF NOT EXISTS idx_reports_user_created ON reports(user_id, created_at DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_chats_user_created ON chats(user_id, created_at)`,
	}

	ctx := context.Background()
	conn, err := Acquire(ctx)
	if err != nil {
		return err
	}
	defer conn.Release()

	for _, query := range queries {
		if _, err := conn.ExecContext(ctx, query); err != nil {
			return err
		}
	}

	log.Println("✅ PostgreSQL tables initialized")
	return nil
}

// DisconnectPostgres closes the PostgreSQL connection pool.
func DisconnectPostgres() error {
	if PostgresDB != nil {
		return PostgresDB.Close()
	}
	return nil
}
