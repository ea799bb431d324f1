package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/Freeeeeet/colloqui/internal/model"
)

const defaultMeetingsCutoffDays = 30

// School настройки учебного года из файла календаря школы
//
//	year_start = "2025-09-15"
//	year_end = "2026-06-10"
//	meetings_cutoff_days = 30
//	blocked_months = "12,3"
//	weekly_rest_days = "0"
type School struct {
	YearStart          string `toml:"year_start"`
	YearEnd            string `toml:"year_end"`
	MeetingsCutoffDays int    `toml:"meetings_cutoff_days"`
	BlockedMonthsList  string `toml:"blocked_months"`   // номера месяцев через запятую
	WeeklyRestDaysList string `toml:"weekly_rest_days"` // 0 = воскресенье ... 6 = суббота

	yearStart      time.Time
	yearEnd        time.Time
	blockedMonths  []time.Month
	weeklyRestDays []time.Weekday
}

// LoadSchool читает календарь школы из TOML-файла
func LoadSchool(path string) (*School, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read school config: %w", err)
	}
	return ParseSchool(string(data))
}

// ParseSchool разбирает и проверяет календарь школы
func ParseSchool(data string) (*School, error) {
	s := School{WeeklyRestDaysList: "0"}
	md, err := toml.Decode(data, &s)
	if err != nil {
		return nil, fmt.Errorf("decode school config: %w", err)
	}
	if !md.IsDefined("meetings_cutoff_days") {
		s.MeetingsCutoffDays = defaultMeetingsCutoffDays
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("decode school config: unknown keys %v", undecoded)
	}

	if s.yearStart, err = model.ParseDate(s.YearStart); err != nil {
		return nil, fmt.Errorf("parse year_start: %w", err)
	}
	if s.yearEnd, err = model.ParseDate(s.YearEnd); err != nil {
		return nil, fmt.Errorf("parse year_end: %w", err)
	}
	if !s.yearStart.Before(s.yearEnd) {
		return nil, fmt.Errorf("year_start %s must be before year_end %s", s.YearStart, s.YearEnd)
	}
	if s.MeetingsCutoffDays < 0 {
		return nil, fmt.Errorf("meetings_cutoff_days must not be negative")
	}

	months, err := parseIntList(s.BlockedMonthsList, 1, 12)
	if err != nil {
		return nil, fmt.Errorf("parse blocked_months: %w", err)
	}
	for _, m := range months {
		s.blockedMonths = append(s.blockedMonths, time.Month(m))
	}

	days, err := parseIntList(s.WeeklyRestDaysList, 0, 6)
	if err != nil {
		return nil, fmt.Errorf("parse weekly_rest_days: %w", err)
	}
	for _, d := range days {
		s.weeklyRestDays = append(s.weeklyRestDays, time.Weekday(d))
	}

	return &s, nil
}

// YearStartDate первый день учебного года
func (s *School) YearStartDate() time.Time { return s.yearStart }

// YearEndDate последний день учебного года
func (s *School) YearEndDate() time.Time { return s.yearEnd }

// MeetingsEndDate последний день, на который можно назначать приём родителей
func (s *School) MeetingsEndDate() time.Time {
	return s.yearEnd.AddDate(0, 0, -s.MeetingsCutoffDays)
}

// BlockedMonths месяцы, в которые приём родителей не проводится
func (s *School) BlockedMonths() []time.Month { return s.blockedMonths }

// WeeklyRestDays еженедельные выходные школы
func (s *School) WeeklyRestDays() []time.Weekday { return s.weeklyRestDays }

func parseIntList(list string, lo, hi int) ([]int, error) {
	var values []int
	for _, part := range strings.Split(list, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		v, err := strconv.Atoi(part)
		if err != nil {
			return nil, err
		}
		if v < lo || v > hi {
			return nil, fmt.Errorf("value %d out of range %d..%d", v, lo, hi)
		}
		values = append(values, v)
	}
	return values, nil
}
