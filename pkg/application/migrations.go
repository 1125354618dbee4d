package application

import (
	"context"
	"embed"
	"io/fs"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

// MigrationManager collects goose migration filesystems registered by
// modules and applies them against the shared pool.
type MigrationManager interface {
	RegisterSchema(fsys *embed.FS, dir string)
	Apply(ctx context.Context) error
}

type registeredSchema struct {
	fsys fs.FS
	dir  string
}

func NewMigrationManager(pool *pgxpool.Pool) MigrationManager {
	return &migrationManager{pool: pool}
}

type migrationManager struct {
	pool    *pgxpool.Pool
	schemas []registeredSchema
}

func (m *migrationManager) RegisterSchema(fsys *embed.FS, dir string) {
	m.schemas = append(m.schemas, registeredSchema{fsys: fsys, dir: dir})
}

func (m *migrationManager) Apply(ctx context.Context) error {
	db := stdlib.OpenDBFromPool(m.pool)
	defer func() { _ = db.Close() }()

	for _, schema := range m.schemas {
		sub, err := fs.Sub(schema.fsys, schema.dir)
		if err != nil {
			return err
		}
		provider, err := goose.NewProvider(goose.DialectPostgres, db, sub)
		if err != nil {
			return err
		}
		if _, err := provider.Up(ctx); err != nil {
			return err
		}
	}
	return nil
}
