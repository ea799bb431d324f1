package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/Freeeeeet/colloqui/internal/model"
	"github.com/Freeeeeet/colloqui/internal/repository/base"
	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5/pgxpool"
)

type HolidayRepository struct {
	*base.Repository
}

func NewHolidayRepository(pool *pgxpool.Pool) *HolidayRepository {
	return &HolidayRepository{Repository: base.NewRepository(pool)}
}

// IsHoliday проверяет, есть ли на дату праздник для всей школы или для указанного здания
func (r *HolidayRepository) IsHoliday(ctx context.Context, date time.Time, locationID *int64) (bool, error) {
	row, err := r.QueryRow(ctx, holidayQuery(date, locationID))
	if err != nil {
		return false, fmt.Errorf("check holiday: %w", err)
	}

	var count int
	if err := row.Scan(&count); err != nil {
		return false, fmt.Errorf("check holiday: %w", err)
	}

	return count > 0, nil
}

func holidayQuery(date time.Time, locationID *int64) squirrel.SelectBuilder {
	q := base.Psql.Select("COUNT(*)").
		From("holidays").
		Where(squirrel.Eq{"date": date, "kind": string(model.HolidayKindHoliday)})

	if locationID == nil {
		return q.Where(squirrel.Eq{"location_id": nil})
	}
	return q.Where(squirrel.Or{
		squirrel.Eq{"location_id": nil},
		squirrel.Eq{"location_id": *locationID},
	})
}
