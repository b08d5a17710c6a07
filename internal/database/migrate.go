package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gorm.io/gorm"

	"github.com/pageza/nutrimatch/backend/internal/logging"
	"github.com/pageza/nutrimatch/backend/internal/models"
)

// ErrNoMigrations is returned by Rollback when nothing has been applied.
var ErrNoMigrations = errors.New("no migrations to rollback")

const rollbackSuffix = "_rollback.sql"

// RunMigrations brings the schema up to date. sqlite databases (development and tests) are
// auto-migrated from the models; Postgres applies the versioned SQL files in migrationsDir.
func RunMigrations(db *gorm.DB, migrationsDir string) error {
	if db.Dialector.Name() == "sqlite" {
		logging.Info().Msg("using gorm auto-migration for sqlite")
		return AutoMigrate(db)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get sql.DB: %w", err)
	}
	_, err = NewMigrator(sqlDB, migrationsDir).Up(context.Background())
	return err
}

// AutoMigrate creates every table from the models.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.Ingredient{},
		&models.ReviewItem{},
		&models.Recipe{},
		&models.RecipeIngredient{},
		&models.RecipeFavorite{},
		&models.RecipeRating{},
		&models.PreferenceProfile{},
	)
}

// Migrator applies NNNN_name.sql files in order and reverts them with NNNN_name_rollback.sql.
// Applied versions are recorded in schema_migrations.
type Migrator struct {
	db  *sql.DB
	dir string
}

func NewMigrator(db *sql.DB, dir string) *Migrator {
	return &Migrator{db: db, dir: dir}
}

func (m *Migrator) ensureTable(ctx context.Context) error {
	_, err := m.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version VARCHAR(32) PRIMARY KEY,
			name VARCHAR(255) NOT NULL,
			applied_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create schema_migrations table: %w", err)
	}
	return nil
}

// files returns the forward migration files, sorted.
func (m *Migrator) files() ([]string, error) {
	entries, err := os.ReadDir(m.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read migrations directory: %w", err)
	}
	var out []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || filepath.Ext(name) != ".sql" || strings.HasSuffix(name, rollbackSuffix) {
			continue
		}
		out = append(out, name)
	}
	sort.Strings(out)
	return out, nil
}

func version(file string) string {
	return strings.SplitN(file, "_", 2)[0]
}

// Applied returns the applied versions.
func (m *Migrator) Applied(ctx context.Context) (map[string]bool, error) {
	if err := m.ensureTable(ctx); err != nil {
		return nil, err
	}
	rows, err := m.db.QueryContext(ctx, `SELECT version FROM schema_migrations`)
	if err != nil {
		return nil, fmt.Errorf("failed to check migration status: %w", err)
	}
	defer rows.Close()

	applied := map[string]bool{}
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		applied[v] = true
	}
	return applied, rows.Err()
}

// Up applies every pending migration, each in its own transaction, and returns the files applied.
func (m *Migrator) Up(ctx context.Context) ([]string, error) {
	applied, err := m.Applied(ctx)
	if err != nil {
		return nil, err
	}
	files, err := m.files()
	if err != nil {
		return nil, err
	}

	var done []string
	for _, file := range files {
		v := version(file)
		if applied[v] {
			logging.Debug().Str("migration", file).Msg("already applied")
			continue
		}
		content, err := os.ReadFile(filepath.Join(m.dir, file))
		if err != nil {
			return done, fmt.Errorf("failed to read migration %s: %w", file, err)
		}
		if err := m.exec(ctx, string(content), `INSERT INTO schema_migrations (version, name) VALUES ($1, $2)`, v, file); err != nil {
			return done, fmt.Errorf("failed to apply migration %s: %w", file, err)
		}
		logging.Info().Str("migration", file).Msg("applied migration")
		done = append(done, file)
	}
	return done, nil
}

// Rollback reverts the most recent migration and returns its file name.
func (m *Migrator) Rollback(ctx context.Context) (string, error) {
	if err := m.ensureTable(ctx); err != nil {
		return "", err
	}

	var v, name string
	err := m.db.QueryRowContext(ctx, `SELECT version, name FROM schema_migrations ORDER BY version DESC LIMIT 1`).Scan(&v, &name)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNoMigrations
	}
	if err != nil {
		return "", fmt.Errorf("failed to get last migration: %w", err)
	}

	path := filepath.Join(m.dir, strings.TrimSuffix(name, ".sql")+rollbackSuffix)
	content, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("rollback file for %s: %w", name, err)
	}
	if err := m.exec(ctx, string(content), `DELETE FROM schema_migrations WHERE version = $1`, v); err != nil {
		return "", fmt.Errorf("failed to roll back %s: %w", name, err)
	}
	logging.Info().Str("migration", name).Msg("rolled back migration")
	return name, nil
}

func (m *Migrator) exec(ctx context.Context, script, record string, args ...any) error {
	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, script); err != nil {
		tx.Rollback()
		return err
	}
	if _, err := tx.ExecContext(ctx, record, args...); err != nil {
		tx.Rollback()
		return err
	}
	return tx.Commit()
}
