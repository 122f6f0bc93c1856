package migrate

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"strconv"
	"sync"

	"github.com/pressly/goose/v3"

	"github.com/Neocreb/frontend-eloity-unified-ecosy-sub001/pkg/config"
)

// DefaultDir is the on-disk location of the migrations, used by create and validate.
const DefaultDir = "pkg/migrate/migrations"

//go:embed migrations/*.sql
var embedded embed.FS

// ErrSQLiteSchema is returned when goose is asked to migrate a sqlite database.
// The goose files target Postgres; sqlite gets the mirrored schema from pkg/db.
var ErrSQLiteSchema = errors.New("sqlite databases use the mirrored schema, not goose")

// Target selects the database and migration source for a run.
// An empty Dir runs the migrations embedded in the binary.
type Target struct {
	DB     *sql.DB
	Driver string
	Dir    string
}

// goose keeps dialect and base FS as package globals.
var gooseMu sync.Mutex

func (t Target) with(fn func(dir string) error) error {
	if t.DB == nil {
		return fmt.Errorf("db is required")
	}
	switch t.Driver {
	case config.DriverSQLite:
		return ErrSQLiteSchema
	case "", config.DriverPostgres:
	default:
		return fmt.Errorf("unsupported driver %q", t.Driver)
	}

	gooseMu.Lock()
	defer gooseMu.Unlock()

	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("set goose dialect: %w", err)
	}
	dir := t.Dir
	var base fs.FS
	if dir == "" {
		base, dir = embedded, "migrations"
	}
	goose.SetBaseFS(base)
	defer goose.SetBaseFS(nil)

	return fn(dir)
}

// Run executes a goose command (up, down, status, redo, ...) against the target.
func Run(ctx context.Context, t Target, command string, args ...string) error {
	return t.with(func(dir string) error {
		if err := goose.RunContext(ctx, command, t.DB, dir, args...); err != nil {
			return fmt.Errorf("goose %s: %w", command, err)
		}
		return nil
	})
}

// MigrateToVersion moves the schema up or down until it sits at version.
func MigrateToVersion(ctx context.Context, t Target, version string) error {
	target, err := strconv.ParseInt(version, 10, 64)
	if err != nil || version == "" {
		return fmt.Errorf("invalid version %q (expected YYYYMMDDHHMMSS)", version)
	}

	return t.with(func(dir string) error {
		current, err := goose.GetDBVersionContext(ctx, t.DB)
		if err != nil {
			return fmt.Errorf("get db version: %w", err)
		}
		switch {
		case current < target:
			err = goose.UpToContext(ctx, t.DB, dir, target)
		case current > target:
			err = goose.DownToContext(ctx, t.DB, dir, target)
		}
		if err != nil {
			return fmt.Errorf("goose migrate %d -> %d: %w", current, target, err)
		}
		return nil
	})
}

// Embedded exposes the compiled-in migrations, mainly for validation.
func Embedded() fs.FS {
	sub, err := fs.Sub(embedded, "migrations")
	if err != nil {
		panic(err)
	}
	return sub
}
