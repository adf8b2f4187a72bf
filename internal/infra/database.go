package infra

import (
	"fmt"
	"strings"

	"github.com/antontit/buffet/internal/model"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewDatabase opens the store named by dsn and brings the schema up to date.
// postgres:// URLs use the pgx-backed driver and get the exclusion constraint;
// sqlite:// and file: DSNs use SQLite, where the repository re-check is the
// only collision guard.
func NewDatabase(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(dialectorFor(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	if IsPostgres(db) {
		sqlDB.SetMaxOpenConns(25)
		sqlDB.SetMaxIdleConns(5)
	} else {
		// SQLite has a single writer; one connection also keeps :memory: databases alive.
		sqlDB.SetMaxOpenConns(1)
	}

	if err := RunMigrations(db); err != nil {
		return nil, err
	}
	return db, nil
}

func dialectorFor(dsn string) gorm.Dialector {
	switch {
	case strings.HasPrefix(dsn, "sqlite://"):
		return sqlite.Open(strings.TrimPrefix(dsn, "sqlite://"))
	case strings.HasPrefix(dsn, "file:"), dsn == ":memory:":
		return sqlite.Open(dsn)
	default:
		return postgres.Open(dsn)
	}
}

// IsPostgres reports whether db talks to PostgreSQL.
func IsPostgres(db *gorm.DB) bool {
	return db.Dialector != nil && db.Dialector.Name() == "postgres"
}

// RunMigrations creates the shelf, dish and stack tables and, on PostgreSQL,
// applies the constraints GORM cannot express. Safe to re-run.
func RunMigrations(db *gorm.DB) error {
	if err := db.AutoMigrate(&model.Shelf{}, &model.Dish{}, &model.Stack{}); err != nil {
		return fmt.Errorf("AutoMigrate: %w", err)
	}
	if !IsPostgres(db) {
		return nil
	}
	return applySchemaPatches(db)
}

// applySchemaPatches installs the no-overlap exclusion constraint and the
// count bound. int4range uses half-open bounds, so stacks touching at an edge
// do not conflict. Each statement is guarded by an existence check.
func applySchemaPatches(db *gorm.DB) error {
	patches := []struct{ descr, sql string }{
		{"btree_gist extension", `CREATE EXTENSION IF NOT EXISTS btree_gist`},
		{"stacks_no_overlap exclusion constraint", `
DO $$ BEGIN
  IF NOT EXISTS (SELECT 1 FROM pg_constraint WHERE conname = 'stacks_no_overlap') THEN
    ALTER TABLE stacks
      ADD CONSTRAINT stacks_no_overlap
      EXCLUDE USING gist (
        shelf_id WITH =,
        int4range(x, x + width) WITH &&,
        int4range(y, y + height) WITH &&
      );
  END IF;
END $$`},
		{"stacks_count_positive check", `
DO $$ BEGIN
  IF NOT EXISTS (SELECT 1 FROM pg_constraint WHERE conname = 'stacks_count_positive') THEN
    ALTER TABLE stacks ADD CONSTRAINT stacks_count_positive CHECK (count >= 1);
  END IF;
END $$`},
	}
	for _, p := range patches {
		if err := db.Exec(p.sql).Error; err != nil {
			return fmt.Errorf("patch %q: %w", p.descr, err)
		}
	}
	return nil
}
