// Package calendar отвечает на вопрос, учебный ли день в школе
package calendar

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/Freeeeeet/colloqui/internal/model"
)

// HolidayStore источник праздников
type HolidayStore interface {
	IsHoliday(ctx context.Context, date time.Time, locationID *int64) (bool, error)
}

// SchoolYear границы учебного года и еженедельные выходные
type SchoolYear interface {
	YearStartDate() time.Time
	YearEndDate() time.Time
	WeeklyRestDays() []time.Weekday
}

// Calendar календарь школы
type Calendar struct {
	holidays HolidayStore
	year     SchoolYear
}

func New(holidays HolidayStore, year SchoolYear) *Calendar {
	return &Calendar{holidays: holidays, year: year}
}

// IsHoliday возвращает true, если в день нет занятий: выходной день недели,
// дата вне учебного года или праздник школы либо здания
func (c *Calendar) IsHoliday(ctx context.Context, date time.Time, locationID *int64) (bool, error) {
	day := model.DateOf(date)

	if slices.Contains(c.year.WeeklyRestDays(), day.Weekday()) {
		return true, nil
	}
	if day.Before(c.year.YearStartDate()) || day.After(c.year.YearEndDate()) {
		return true, nil
	}

	holiday, err := c.holidays.IsHoliday(ctx, day, locationID)
	if err != nil {
		return false, fmt.Errorf("check holiday %s: %w", day.Format(model.DateFormat), err)
	}

	return holiday, nil
}
