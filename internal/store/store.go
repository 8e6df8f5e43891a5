// Package store implements the query-execution pipeline: named statement
// templates composed into plans, a transactional executor over a pooled
// PostgreSQL connection, SQLSTATE error translation, and declarative
// row-to-record materialization.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib" // register the pgx driver

	"github.com/codehornets/julep/internal/config"
	"github.com/codehornets/julep/internal/logger"
)

// Store owns the PostgreSQL connection pool and hands out the executor that
// runs plans against it.
type Store struct {
	db   *sql.DB
	exec *Executor
}

// Open connects to PostgreSQL using cfg, applying the pool limits and
// creating the target database through the admin database when it does not
// exist yet.
func Open(ctx context.Context, cfg config.PostgresConfig) (*Store, error) {
	dsn, err := resolveDSN(cfg)
	if err != nil {
		return nil, err
	}

	db, err := openPool(dsn, cfg)
	if err != nil {
		return nil, err
	}

	if err := db.PingContext(ctx); err != nil {
		if !isDatabaseMissing(err) {
			_ = db.Close()
			return nil, fmt.Errorf("failed to ping database: %w", err)
		}
		_ = db.Close()
		if err := ensureDatabaseExists(ctx, cfg, dsn); err != nil {
			return nil, fmt.Errorf("failed to create database: %w", err)
		}
		db, err = openPool(dsn, cfg)
		if err != nil {
			return nil, err
		}
		if err := db.PingContext(ctx); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to ping database after creation: %w", err)
		}
	}

	logger.Logger.Info().Str("database", databaseName(dsn)).Msg("connected to postgres")
	return &Store{db: db, exec: NewExecutor(db)}, nil
}

func openPool(dsn string, cfg config.PostgresConfig) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	maxOpen := cfg.MaxOpenConns
	if maxOpen <= 0 {
		maxOpen = 25
	}
	maxIdle := cfg.MaxIdleConns
	if maxIdle < 0 {
		maxIdle = 5
	}
	db.SetMaxOpenConns(maxOpen)
	db.SetMaxIdleConns(maxIdle)
	if cfg.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	} else {
		db.SetConnMaxLifetime(30 * time.Minute)
	}
	return db, nil
}

func resolveDSN(cfg config.PostgresConfig) (string, error) {
	if dsn := strings.TrimSpace(cfg.DSN); dsn != "" {
		return dsn, nil
	}

	if cfg.Host == "" {
		return "", fmt.Errorf("postgres configuration requires either a dsn or host information")
	}
	if cfg.User == "" {
		return "", fmt.Errorf("postgres configuration requires a user when host is specified")
	}
	if cfg.Database == "" {
		return "", fmt.Errorf("postgres configuration requires a database when host is specified")
	}

	port := cfg.Port
	if port == 0 {
		port = 5432
	}
	sslMode := cfg.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}

	pgURL := &url.URL{
		Scheme: "postgres",
		Host:   fmt.Sprintf("%s:%d", cfg.Host, port),
		Path:   "/" + strings.TrimPrefix(cfg.Database, "/"),
	}
	if cfg.Password != "" {
		pgURL.User = url.UserPassword(cfg.User, cfg.Password)
	} else {
		pgURL.User = url.User(cfg.User)
	}
	query := pgURL.Query()
	query.Set("sslmode", sslMode)
	pgURL.RawQuery = query.Encode()

	return pgURL.String(), nil
}

func isDatabaseMissing(err error) bool {
	if err == nil {
		return false
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "3D000" // undefined_database
	}
	return strings.Contains(err.Error(), "does not exist")
}

func isDatabaseAlreadyExists(err error) bool {
	if err == nil {
		return false
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "42P04" // duplicate_database
	}
	return strings.Contains(err.Error(), "already exists")
}

func ensureDatabaseExists(ctx context.Context, cfg config.PostgresConfig, dsn string) error {
	parsed, err := url.Parse(dsn)
	if err != nil {
		return fmt.Errorf("failed to parse postgres DSN: %w", err)
	}

	dbName := strings.TrimSpace(strings.TrimPrefix(parsed.Path, "/"))
	if dbName == "" {
		return fmt.Errorf("postgres DSN must specify a database name")
	}

	adminDatabase := strings.TrimSpace(cfg.AdminDatabase)
	if adminDatabase == "" {
		adminDatabase = "postgres"
	}
	parsed.Path = "/" + adminDatabase

	adminDB, err := sql.Open("pgx", parsed.String())
	if err != nil {
		return fmt.Errorf("failed to open admin connection: %w", err)
	}
	defer adminDB.Close()

	if err := adminDB.PingContext(ctx); err != nil {
		return fmt.Errorf("failed to ping admin database: %w", err)
	}

	createStmt := fmt.Sprintf("CREATE DATABASE %s", quoteIdentifier(dbName))
	if _, err := adminDB.ExecContext(ctx, createStmt); err != nil {
		if isDatabaseAlreadyExists(err) {
			return nil
		}
		return fmt.Errorf("failed to create database %q: %w", dbName, err)
	}

	logger.Logger.Info().Str("database", dbName).Msg("created missing database")
	return nil
}

func quoteIdentifier(identifier string) string {
	return `"` + strings.ReplaceAll(identifier, `"`, `""`) + `"`
}

func databaseName(dsn string) string {
	parsed, err := url.Parse(dsn)
	if err != nil {
		return ""
	}
	return strings.TrimPrefix(parsed.Path, "/")
}

// DB exposes the underlying pool.
func (s *Store) DB() *sql.DB { return s.db }

// Executor returns the plan executor bound to this store's pool.
func (s *Store) Executor() *Executor { return s.exec }

// Health pings the database.
func (s *Store) Health(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close releases the pool.
func (s *Store) Close() error {
	return s.db.Close()
}
