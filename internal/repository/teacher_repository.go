package repository

import (
	"context"
	"fmt"

	"github.com/Freeeeeet/colloqui/internal/model"
	"github.com/Freeeeeet/colloqui/internal/repository/base"
	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5/pgxpool"
)

type TeacherRepository struct {
	*base.Repository
}

func NewTeacherRepository(pool *pgxpool.Pool) *TeacherRepository {
	return &TeacherRepository{Repository: base.NewRepository(pool)}
}

// GetByID получает учителя по ID
func (r *TeacherRepository) GetByID(ctx context.Context, id int64) (*model.Teacher, error) {
	q := base.Psql.Select("id", "first_name", "last_name", "enabled", "telegram_chat_id").
		From("teachers").
		Where(squirrel.Eq{"id": id})

	row, err := r.QueryRow(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("get teacher by id: %w", err)
	}

	var teacher model.Teacher
	err = row.Scan(
		&teacher.ID,
		&teacher.FirstName,
		&teacher.LastName,
		&teacher.Enabled,
		&teacher.TelegramChatID,
	)
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil // Учитель не найден
		}
		return nil, fmt.Errorf("get teacher by id: %w", err)
	}

	return &teacher, nil
}

// GetByTelegramChatID получает учителя по привязанному чату Telegram
func (r *TeacherRepository) GetByTelegramChatID(ctx context.Context, chatID int64) (*model.Teacher, error) {
	q := base.Psql.Select("id", "first_name", "last_name", "enabled", "telegram_chat_id").
		From("teachers").
		Where(squirrel.Eq{"telegram_chat_id": chatID, "enabled": true})

	row, err := r.QueryRow(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("get teacher by telegram chat id: %w", err)
	}

	var teacher model.Teacher
	err = row.Scan(
		&teacher.ID,
		&teacher.FirstName,
		&teacher.LastName,
		&teacher.Enabled,
		&teacher.TelegramChatID,
	)
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get teacher by telegram chat id: %w", err)
	}

	return &teacher, nil
}
