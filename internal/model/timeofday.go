package model

import (
	"fmt"
	"time"
)

// TimeOfDay время суток в минутах от полуночи
type TimeOfDay int

// NewTimeOfDay создаёт время суток из часов и минут
func NewTimeOfDay(hour, minute int) TimeOfDay {
	return TimeOfDay(hour*60 + minute)
}

// ParseTimeOfDay разбирает время в формате "15:04"
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, fmt.Errorf("parse time of day %q: %w", s, err)
	}
	return NewTimeOfDay(t.Hour(), t.Minute()), nil
}

func (t TimeOfDay) Hour() int   { return int(t) / 60 }
func (t TimeOfDay) Minute() int { return int(t) % 60 }

// Minutes возвращает количество минут от полуночи
func (t TimeOfDay) Minutes() int { return int(t) }

// Add сдвигает время на указанное количество минут
func (t TimeOfDay) Add(minutes int) TimeOfDay {
	return t + TimeOfDay(minutes)
}

// String форматирует время как "15:04"
func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour(), t.Minute())
}

// Short форматирует время без ведущего нуля в часах ("8:30")
func (t TimeOfDay) Short() string {
	return fmt.Sprintf("%d:%02d", t.Hour(), t.Minute())
}

// TimeRange полуоткрытый интервал [Start, End) внутри одного дня
type TimeRange struct {
	Start TimeOfDay
	End   TimeOfDay
}

// Minutes длительность интервала в минутах (не меньше нуля)
func (r TimeRange) Minutes() int {
	if r.End <= r.Start {
		return 0
	}
	return int(r.End - r.Start)
}

// Overlaps проверяет пересечение двух интервалов [s1, e1) и [s2, e2): s1 < e2 && s2 < e1
func (r TimeRange) Overlaps(other TimeRange) bool {
	return r.Start < other.End && other.Start < r.End
}
