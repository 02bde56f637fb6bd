// Package database implements PostgreSQL persistence for organizations,
// contacts, page analyses, and runtime pipeline settings.
package database

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq" // postgres driver

	"github.com/gbl-data/leadpipe/internal/config"
	"github.com/gbl-data/leadpipe/internal/logger"
)

// Store wraps the database handle and hands out repositories.
type Store struct {
	db     *sqlx.DB
	logger logger.Logger
}

// Connect opens a PostgreSQL connection pool and verifies it with a ping.
func Connect(ctx context.Context, cfg config.DatabaseConfig, log logger.Logger) (*Store, error) {
	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.Database, cfg.SSLMode)

	db, err := sqlx.ConnectContext(ctx, "postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("connecting to postgres: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxConnections)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	log.Info("database connected",
		logger.String("host", cfg.Host),
		logger.Int("port", cfg.Port),
		logger.String("database", cfg.Database))

	return &Store{db: db, logger: log}, nil
}

// NewStore wraps an existing handle. Used by tests with sqlmock.
func NewStore(db *sqlx.DB, log logger.Logger) *Store {
	return &Store{db: db, logger: log}
}

// Organizations returns the organization repository.
func (s *Store) Organizations() *OrganizationRepository {
	return &OrganizationRepository{db: s.db, logger: s.logger}
}

// Contacts returns the contact repository.
func (s *Store) Contacts() *ContactRepository {
	return &ContactRepository{db: s.db, logger: s.logger}
}

// Pages returns the page analysis repository.
func (s *Store) Pages() *PageRepository {
	return &PageRepository{db: s.db, logger: s.logger}
}

// Settings returns the pipeline settings repository.
func (s *Store) Settings() *SettingsRepository {
	return &SettingsRepository{db: s.db, logger: s.logger}
}

// Health checks database connectivity.
func (s *Store) Health(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the connection pool.
func (s *Store) Close() error {
	return s.db.Close()
}
