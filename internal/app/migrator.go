package app

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"go.uber.org/zap"
)

// Migrator обёртка над goose для встроенных миграций
type Migrator struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewMigrator создаёт мигратор; migrations содержит *.sql в корне
func NewMigrator(pool *pgxpool.Pool, migrations fs.FS, logger *zap.Logger) (*Migrator, error) {
	goose.SetBaseFS(migrations)

	// Устанавливаем диалект для PostgreSQL
	if err := goose.SetDialect("postgres"); err != nil {
		return nil, fmt.Errorf("set goose dialect: %w", err)
	}

	// Goose работает с *sql.DB, поэтому создаём его из пула
	return &Migrator{
		db:     stdlib.OpenDBFromPool(pool),
		logger: logger,
	}, nil
}

// Run применяет все pending миграции
func (mg *Migrator) Run(ctx context.Context) error {
	mg.logger.Info("Applying database migrations")

	if err := goose.UpContext(ctx, mg.db, "."); err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}

	version, err := mg.Version(ctx)
	if err != nil {
		return err
	}

	mg.logger.Info("Migrations applied", zap.Int64("version", version))
	return nil
}

// Version показывает текущую версию миграций
func (mg *Migrator) Version(ctx context.Context) (int64, error) {
	version, err := goose.GetDBVersionContext(ctx, mg.db)
	if err != nil {
		return 0, fmt.Errorf("get version: %w", err)
	}
	return version, nil
}

// Close закрывает соединение мигратора
func (mg *Migrator) Close() error {
	// Закрываем sql.DB, но не пул (он управляется в main)
	if mg.db != nil {
		return mg.db.Close()
	}
	return nil
}
