package colloqui

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/Freeeeeet/colloqui/internal/model"
)

// RecurrenceRule правило повторения приёма
type RecurrenceRule struct {
	Weekday       time.Weekday
	From          time.Time // первый допустимый день, включительно
	To            time.Time // последний допустимый день, включительно
	BlockedMonths []time.Month
	LocationID    *int64
}

// MonthDates подходящие даты одного месяца по возрастанию
type MonthDates struct {
	Year  int
	Month time.Month
	Dates []time.Time
}

// ExpandRecurrence перебирает даты нужного дня недели в окне [From, To],
// пропуская заблокированные месяцы и нерабочие дни, и группирует их по месяцам
func ExpandRecurrence(ctx context.Context, rule RecurrenceRule, cal HolidayCalendar) ([]MonthDates, error) {
	if rule.Weekday < time.Sunday || rule.Weekday > time.Saturday {
		return nil, fmt.Errorf("%w: %d", ErrInvalidWeekday, rule.Weekday)
	}

	from := model.DateOf(rule.From)
	to := model.DateOf(rule.To)
	if from.After(to) {
		return nil, fmt.Errorf("%w: window %s..%s", ErrSchedulingWindowClosed,
			from.Format(model.DateFormat), to.Format(model.DateFormat))
	}

	offset := (int(rule.Weekday) - int(from.Weekday()) + 7) % 7

	var groups []MonthDates
	for day := from.AddDate(0, 0, offset); !day.After(to); day = day.AddDate(0, 0, 7) {
		if slices.Contains(rule.BlockedMonths, day.Month()) {
			continue
		}

		holiday, err := cal.IsHoliday(ctx, day, rule.LocationID)
		if err != nil {
			return nil, err
		}
		if holiday {
			continue
		}

		if n := len(groups); n == 0 || groups[n-1].Year != day.Year() || groups[n-1].Month != day.Month() {
			groups = append(groups, MonthDates{Year: day.Year(), Month: day.Month()})
		}
		last := &groups[len(groups)-1]
		last.Dates = append(last.Dates, day)
	}

	return groups, nil
}

// ReduceByFrequency применяет частоту к каждому месяцу и возвращает даты по порядку
func ReduceByFrequency(groups []MonthDates, f Frequency) []time.Time {
	var dates []time.Time
	for _, g := range groups {
		dates = append(dates, f.Select(g.Dates)...)
	}
	return dates
}
