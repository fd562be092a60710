// Package postgres implements store.Store backed by PostgreSQL. Each model
// maps to a table named after Model.Table() with a bigserial "id" column and
// one column per declared field.
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"
	"time"

	"github.com/golang-migrate/migrate/v4"
	migratepg "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/lib/pq"

	"github.com/goliatone/go-crudgen/pkg/model"
	"github.com/goliatone/go-crudgen/pkg/store"
)

// Option configures the store before it connects.
type Option func(*config)

type config struct {
	migrations   fs.FS
	migrationDir string
	maxOpen      int
	maxIdle      int
}

// WithMigrations applies the SQL migrations found in dir of fsys on startup.
func WithMigrations(fsys fs.FS, dir string) Option {
	return func(cfg *config) {
		cfg.migrations = fsys
		cfg.migrationDir = dir
	}
}

// WithPool overrides the connection pool limits.
func WithPool(maxOpen, maxIdle int) Option {
	return func(cfg *config) {
		if maxOpen > 0 {
			cfg.maxOpen = maxOpen
		}
		if maxIdle > 0 {
			cfg.maxIdle = maxIdle
		}
	}
}

// Store implements store.Store on a *sql.DB.
type Store struct {
	db *sql.DB
}

var _ store.Store = (*Store)(nil)

// New opens a connection to the database at databaseURL, configures the pool
// and runs any configured migrations.
func New(databaseURL string, options ...Option) (*Store, error) {
	cfg := config{maxOpen: 25, maxIdle: 5}
	for _, opt := range options {
		if opt != nil {
			opt(&cfg)
		}
	}

	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("postgres: open database: %w", err)
	}
	db.SetMaxOpenConns(cfg.maxOpen)
	db.SetMaxIdleConns(cfg.maxIdle)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("postgres: ping database: %w", err)
	}

	if cfg.migrations != nil {
		if err := runMigrations(db, cfg.migrations, cfg.migrationDir); err != nil {
			db.Close()
			return nil, fmt.Errorf("postgres: run migrations: %w", err)
		}
	}

	return &Store{db: db}, nil
}

// NewWithDB wraps an existing connection, typically a test double.
func NewWithDB(db *sql.DB) *Store {
	return &Store{db: db}
}

func runMigrations(db *sql.DB, fsys fs.FS, dir string) error {
	if dir == "" {
		dir = "."
	}
	sourceDriver, err := iofs.New(fsys, dir)
	if err != nil {
		return fmt.Errorf("create migration source: %w", err)
	}

	dbDriver, err := migratepg.WithInstance(db, &migratepg.Config{})
	if err != nil {
		return fmt.Errorf("create migration db driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", sourceDriver, "postgres", dbDriver)
	if err != nil {
		return fmt.Errorf("create migrator: %w", err)
	}

	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("apply migrations: %w", err)
	}
	return nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) List(ctx context.Context, m *model.Model, filter store.Filter) ([]*model.Object, error) {
	return queryList(ctx, s.db, m, filter)
}

func (s *Store) Get(ctx context.Context, m *model.Model, pk int64, filter store.Filter) (*model.Object, error) {
	return queryGet(ctx, s.db, m, pk, filter)
}

func (s *Store) Create(ctx context.Context, obj *model.Object) error {
	return queryCreate(ctx, s.db, obj)
}

func (s *Store) Update(ctx context.Context, obj *model.Object) error {
	return queryUpdate(ctx, s.db, obj)
}

func (s *Store) Delete(ctx context.Context, m *model.Model, pk int64) error {
	return queryDelete(ctx, s.db, m, pk)
}
