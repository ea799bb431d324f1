package base

import (
	"context"
	"errors"
	"fmt"

	"github.com/Freeeeeet/colloqui/internal/model"
	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Psql построитель запросов с плейсхолдерами $1, $2 ...
var Psql = squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)

// Repository базовый репозиторий с общими методами
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository создаёт новый базовый репозиторий
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// QueryRow выполняет собранный запрос и возвращает одну строку
func (r *Repository) QueryRow(ctx context.Context, q squirrel.Sqlizer) (pgx.Row, error) {
	query, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}
	return r.pool.QueryRow(ctx, query, args...), nil
}

// Query выполняет собранный запрос и возвращает множество строк
func (r *Repository) Query(ctx context.Context, q squirrel.Sqlizer) (pgx.Rows, error) {
	query, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}
	return r.pool.Query(ctx, query, args...)
}

// ExecAffected выполняет команду и возвращает количество затронутых строк
func (r *Repository) ExecAffected(ctx context.Context, q squirrel.Sqlizer) (int64, error) {
	query, args, err := q.ToSql()
	if err != nil {
		return 0, fmt.Errorf("build query: %w", err)
	}
	tag, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// IsNotFound проверяет является ли ошибка "строка не найдена"
func IsNotFound(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}

// PgTime переводит время суток в тип колонки TIME
func PgTime(t model.TimeOfDay) pgtype.Time {
	return pgtype.Time{Microseconds: int64(t.Minutes()) * 60_000_000, Valid: true}
}

// TimeOfDay переводит значение колонки TIME во время суток (секунды отбрасываются)
func TimeOfDay(t pgtype.Time) model.TimeOfDay {
	return model.TimeOfDay(t.Microseconds / 60_000_000)
}
