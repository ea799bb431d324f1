package colloqui

import (
	"fmt"
	"time"
)

// Frequency как часто повторяется приём внутри месяца
type Frequency string

const (
	FrequencyWeekly     Frequency = "weekly"      // каждую неделю
	FrequencyFirstWeek  Frequency = "first_week"  // первая неделя месяца
	FrequencySecondWeek Frequency = "second_week" // вторая неделя месяца
	FrequencyThirdWeek  Frequency = "third_week"  // третья неделя месяца
	FrequencyLastWeek   Frequency = "last_week"   // последняя неделя месяца
)

var shortFrequencyCodes = map[string]Frequency{
	"S": FrequencyWeekly,
	"1": FrequencyFirstWeek,
	"2": FrequencySecondWeek,
	"3": FrequencyThirdWeek,
	"4": FrequencyLastWeek,
}

var frequencySelectors = map[Frequency]func([]time.Time) []time.Time{
	FrequencyWeekly:     selectAll,
	FrequencyFirstWeek:  selectFirst,
	FrequencySecondWeek: selectAfterDay(7),
	FrequencyThirdWeek:  selectAfterDay(14),
	FrequencyLastWeek:   selectLast,
}

// ParseFrequency принимает имя частоты или старый код (S, 1, 2, 3, 4)
func ParseFrequency(s string) (Frequency, error) {
	if f, ok := shortFrequencyCodes[s]; ok {
		return f, nil
	}
	f := Frequency(s)
	if _, ok := frequencySelectors[f]; !ok {
		return "", fmt.Errorf("%w: %q", ErrInvalidFrequency, s)
	}
	return f, nil
}

// Valid проверяет, что частота известна
func (f Frequency) Valid() bool {
	_, ok := frequencySelectors[f]
	return ok
}

// Select выбирает даты месяца по частоте; dates отсортированы по возрастанию
func (f Frequency) Select(dates []time.Time) []time.Time {
	if len(dates) == 0 {
		return nil
	}
	selector, ok := frequencySelectors[f]
	if !ok {
		return nil
	}
	return selector(dates)
}

func selectAll(dates []time.Time) []time.Time {
	return append([]time.Time(nil), dates...)
}

func selectFirst(dates []time.Time) []time.Time {
	return []time.Time{dates[0]}
}

func selectLast(dates []time.Time) []time.Time {
	return []time.Time{dates[len(dates)-1]}
}

// selectAfterDay первая дата с числом больше day, иначе последняя дата месяца
func selectAfterDay(day int) func([]time.Time) []time.Time {
	return func(dates []time.Time) []time.Time {
		for _, d := range dates {
			if d.Day() > day {
				return []time.Time{d}
			}
		}
		return selectLast(dates)
	}
}
