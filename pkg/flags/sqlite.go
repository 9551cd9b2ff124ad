package flags

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/google/uuid"

	// SQLite driver
	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// SQLite implements the Admin interface using SQLite.
type SQLite struct {
	db  *sql.DB
	cfg Config
}

// Config holds SQLite store configuration.
type Config struct {
	Path            string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// NewSQLite creates a new SQLite store instance.
func NewSQLite(cfg Config) (*SQLite, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("database path is required")
	}

	// Set defaults
	if cfg.MaxOpenConns == 0 {
		cfg.MaxOpenConns = 25
	}
	if cfg.MaxIdleConns == 0 {
		cfg.MaxIdleConns = 5
	}
	if cfg.ConnMaxLifetime == 0 {
		cfg.ConnMaxLifetime = 5 * time.Minute
	}

	return &SQLite{cfg: cfg}, nil
}

// Init initializes the database connection and enables WAL mode.
func (s *SQLite) Init(ctx context.Context) error {
	dsn := fmt.Sprintf("%s?_foreign_keys=on&_journal_mode=WAL&_busy_timeout=5000&_synchronous=NORMAL&_txlock=immediate", s.cfg.Path)

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(s.cfg.MaxOpenConns)
	db.SetMaxIdleConns(s.cfg.MaxIdleConns)
	db.SetConnMaxLifetime(s.cfg.ConnMaxLifetime)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to ping database: %w", err)
	}

	// Ensure foreign keys are enabled (connection-level setting)
	if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys = ON"); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	s.db = db
	return nil
}

// Close closes the database connection.
func (s *SQLite) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Migrate runs database migrations.
func (s *SQLite) Migrate(_ context.Context) error {
	if s.db == nil {
		return fmt.Errorf("database not initialized")
	}

	sourceDriver, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("failed to create migration source: %w", err)
	}

	driver, err := sqlite3.WithInstance(s.db, &sqlite3.Config{})
	if err != nil {
		return fmt.Errorf("failed to create database driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", sourceDriver, "sqlite3", driver)
	if err != nil {
		return fmt.Errorf("failed to create migration instance: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	return nil
}

// HealthCheck verifies the database connection is healthy.
func (s *SQLite) HealthCheck(ctx context.Context) error {
	if s.db == nil {
		return fmt.Errorf("database not initialized")
	}
	return s.db.PingContext(ctx)
}

// Users returns all known users.
func (s *SQLite) Users(ctx context.Context) ([]User, error) {
	query := `
		SELECT id, name, created_at
		FROM users
		ORDER BY created_at ASC
	`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	users := []User{}
	for rows.Next() {
		var u User
		if err := rows.Scan(&u.ID, &u.Name, &u.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, u)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating users: %w", err)
	}

	return users, nil
}

// CreateUser registers a new user with a generated ID.
func (s *SQLite) CreateUser(ctx context.Context, name string) (User, error) {
	u := User{
		ID:        uuid.New().String(),
		Name:      name,
		CreatedAt: time.Now().UTC(),
	}

	query := `INSERT INTO users (id, name, created_at) VALUES (?, ?, ?)`

	if _, err := s.db.ExecContext(ctx, query, u.ID, u.Name, u.CreatedAt); err != nil {
		return User{}, fmt.Errorf("failed to create user: %w", err)
	}

	return u, nil
}

// DeleteUser removes a user; flag rows cascade.
func (s *SQLite) DeleteUser(ctx context.Context, userID string) error {
	query := `DELETE FROM users WHERE id = ?`

	result, err := s.db.ExecContext(ctx, query, userID)
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rows == 0 {
		return ErrUnknownUser
	}

	return nil
}

// Get returns the user's document for a namespace.
func (s *SQLite) Get(ctx context.Context, userID, namespace string) (Document, error) {
	if err := s.requireUser(ctx, userID); err != nil {
		return nil, err
	}

	query := `
		SELECT key, value
		FROM user_flags
		WHERE user_id = ? AND namespace = ?
	`

	rows, err := s.db.QueryContext(ctx, query, userID, namespace)
	if err != nil {
		return nil, fmt.Errorf("failed to read flags: %w", err)
	}
	defer rows.Close()

	doc := Document{}
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return nil, fmt.Errorf("failed to scan flag: %w", err)
		}
		doc[key] = json.RawMessage(value)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating flags: %w", err)
	}

	return doc, nil
}

// Patch upserts exactly one key in the user's document.
func (s *SQLite) Patch(ctx context.Context, userID, namespace, key string, value json.RawMessage) error {
	if err := s.requireUser(ctx, userID); err != nil {
		return err
	}

	query := `
		INSERT INTO user_flags (user_id, namespace, key, value, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(user_id, namespace, key) DO UPDATE SET
			value = excluded.value,
			updated_at = excluded.updated_at
	`

	now := time.Now().UTC().Format("2006-01-02 15:04:05")
	if _, err := s.db.ExecContext(ctx, query, userID, namespace, key, string(value), now); err != nil {
		return fmt.Errorf("failed to patch flag: %w", err)
	}

	return nil
}

// Remove deletes exactly one key from the user's document.
func (s *SQLite) Remove(ctx context.Context, userID, namespace, key string) error {
	if err := s.requireUser(ctx, userID); err != nil {
		return err
	}

	query := `DELETE FROM user_flags WHERE user_id = ? AND namespace = ? AND key = ?`

	if _, err := s.db.ExecContext(ctx, query, userID, namespace, key); err != nil {
		return fmt.Errorf("failed to remove flag: %w", err)
	}

	return nil
}

// requireUser maps a missing user row to ErrUnknownUser.
func (s *SQLite) requireUser(ctx context.Context, userID string) error {
	var one int
	err := s.db.QueryRowContext(ctx, `SELECT 1 FROM users WHERE id = ?`, userID).Scan(&one)
	if err == sql.ErrNoRows {
		return ErrUnknownUser
	}
	if err != nil {
		return fmt.Errorf("failed to look up user: %w", err)
	}
	return nil
}
