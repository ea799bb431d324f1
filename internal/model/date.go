package model

import "time"

// DateFormat формат календарной даты
const DateFormat = "2006-01-02"

// DateOf возвращает календарный день момента t (полночь UTC)
// Дни храним без часового пояса, чтобы сравнения и ключи были стабильными
func DateOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// ParseDate разбирает дату в формате "2006-01-02"
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateFormat, s)
	if err != nil {
		return time.Time{}, err
	}
	return DateOf(t), nil
}

// LastDayOfNextMonth последний день месяца, следующего за месяцем даты
func LastDayOfNextMonth(day time.Time) time.Time {
	firstOfMonth := time.Date(day.Year(), day.Month(), 1, 0, 0, 0, 0, time.UTC)
	return firstOfMonth.AddDate(0, 2, -1)
}
