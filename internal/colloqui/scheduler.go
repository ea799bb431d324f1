package colloqui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Freeeeeet/colloqui/internal/model"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// WarningDuplicatesSkipped часть дат пропущена, так как окна на них уже есть
const WarningDuplicatesSkipped = "duplicates_skipped"

// GenerateRequest параметры повторяющегося приёма учителя
type GenerateRequest struct {
	TeacherID       int64
	Mode            model.MeetingMode
	Frequency       Frequency
	DurationMinutes int
	Weekday         time.Weekday
	Start           model.TimeOfDay
	End             model.TimeOfDay
	Place           string
	LocationID      *int64
}

// GenerateReport результат генерации окон
type GenerateReport struct {
	BatchID uuid.UUID
	Created []*model.MeetingBlock
	Skipped []time.Time // даты, где окно уже было
	Warning string      // "" или WarningDuplicatesSkipped
}

// Scheduler создаёт окна приёма по правилу повторения
type Scheduler struct {
	blocks   BlockStore
	calendar HolidayCalendar
	year     SchoolYear
	clock    Clock
	metrics  Recorder
	logger   *zap.Logger
}

func NewScheduler(blocks BlockStore, calendar HolidayCalendar, year SchoolYear, clock Clock, metrics Recorder, logger *zap.Logger) *Scheduler {
	if metrics == nil {
		metrics = nopRecorder{}
	}
	return &Scheduler{
		blocks:   blocks,
		calendar: calendar,
		year:     year,
		clock:    clock,
		metrics:  metrics,
		logger:   logger,
	}
}

// GenerateDates создаёт по окну на каждую дату правила от завтрашнего дня до конца приёма.
// Приём закрыт, только если завтрашний день позже MeetingsEndDate: когда завтра и есть
// последний день приёма, окно на этот день ещё создаётся.
// Даты, где у учителя уже есть пересекающееся окно, пропускаются с предупреждением.
// Окна создаются по одному, поэтому два одновременных запуска для одного учителя могут создать дубли.
func (s *Scheduler) GenerateDates(ctx context.Context, req GenerateRequest) (*GenerateReport, error) {
	started := time.Now()

	if err := validateGenerateRequest(&req); err != nil {
		return nil, err
	}

	from := today(s.clock).AddDate(0, 0, 1)
	cutoff := model.DateOf(s.year.MeetingsEndDate())
	if from.After(cutoff) {
		return nil, fmt.Errorf("%w: meetings end on %s", ErrSchedulingWindowClosed, cutoff.Format(model.DateFormat))
	}

	groups, err := ExpandRecurrence(ctx, RecurrenceRule{
		Weekday:       req.Weekday,
		From:          from,
		To:            cutoff,
		BlockedMonths: s.year.BlockedMonths(),
		LocationID:    req.LocationID,
	}, s.calendar)
	if err != nil {
		return nil, fmt.Errorf("expand recurrence: %w", err)
	}

	dates := ReduceByFrequency(groups, req.Frequency)

	report, err := s.persistDates(ctx, req, dates)
	if err != nil {
		return nil, err
	}

	s.metrics.ObserveGeneration(len(report.Created), len(report.Skipped), time.Since(started))
	s.logger.Info("Meeting blocks generated",
		zap.Int64("teacher_id", req.TeacherID),
		zap.String("batch_id", report.BatchID.String()),
		zap.String("frequency", string(req.Frequency)),
		zap.Int("created", len(report.Created)),
		zap.Int("skipped", len(report.Skipped)))

	return report, nil
}

// persistDates сохраняет окна по порядку; каждое сохранённое окно видно проверке следующих дат
func (s *Scheduler) persistDates(ctx context.Context, req GenerateRequest, dates []time.Time) (*GenerateReport, error) {
	capacity, err := Capacity(req.Start, req.End, req.DurationMinutes)
	if err != nil {
		return nil, err
	}

	report := &GenerateReport{BatchID: uuid.New()}
	committed := make(map[model.BlockIdentity]struct{})

	for _, date := range dates {
		block := &model.MeetingBlock{
			BatchID:         report.BatchID,
			TeacherID:       req.TeacherID,
			LocationID:      req.LocationID,
			Mode:            req.Mode,
			Date:            model.DateOf(date),
			Start:           req.Start,
			End:             req.End,
			DurationMinutes: req.DurationMinutes,
			Capacity:        capacity,
			Place:           req.Place,
			Enabled:         true,
		}

		identity := block.Identity()
		if _, ok := committed[identity]; ok {
			report.Skipped = append(report.Skipped, block.Date)
			continue
		}

		overlaps, err := s.blocks.Overlaps(ctx, block.TeacherID, block.Date, block.Start, block.End)
		if err != nil {
			return nil, fmt.Errorf("check overlap on %s: %w", identity.Date, err)
		}
		if overlaps {
			s.logger.Debug("Skipping overlapping meeting block",
				zap.Int64("teacher_id", block.TeacherID),
				zap.String("date", identity.Date))
			report.Skipped = append(report.Skipped, block.Date)
			continue
		}

		if err := s.blocks.Create(ctx, block); err != nil {
			return nil, fmt.Errorf("create meeting block on %s: %w", identity.Date, err)
		}
		committed[identity] = struct{}{}
		report.Created = append(report.Created, block)
	}

	if len(report.Skipped) > 0 {
		report.Warning = WarningDuplicatesSkipped
	}

	return report, nil
}

func validateGenerateRequest(req *GenerateRequest) error {
	if req.DurationMinutes <= 0 {
		return fmt.Errorf("%w: %d minutes", ErrInvalidDuration, req.DurationMinutes)
	}
	if req.Weekday < time.Sunday || req.Weekday > time.Saturday {
		return fmt.Errorf("%w: %d", ErrInvalidWeekday, req.Weekday)
	}
	if req.Start >= req.End {
		return fmt.Errorf("%w: %s-%s", ErrInvalidTimeRange, req.Start, req.End)
	}
	if !req.Frequency.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidFrequency, req.Frequency)
	}

	switch req.Mode {
	case model.MeetingModeInPerson:
		req.Place = strings.TrimSpace(req.Place)
	case model.MeetingModeRemote:
		link, err := NormalizeMeetingLink(req.Place)
		if err != nil {
			return err
		}
		req.Place = link
	default:
		return fmt.Errorf("%w: %q", ErrInvalidMode, req.Mode)
	}

	return nil
}

// NormalizeMeetingLink добавляет https:// к ссылке без схемы и отклоняет
// ссылку на главную страницу Google Meet без кода встречи
func NormalizeMeetingLink(link string) (string, error) {
	link = strings.TrimSpace(link)
	if link == "" || strings.HasSuffix(link, "meet.google.com") || strings.HasSuffix(link, "meet.google.com/") {
		return "", fmt.Errorf("%w: %q", ErrInvalidLink, link)
	}
	if !strings.HasPrefix(link, "https://") && !strings.HasPrefix(link, "http://") {
		link = "https://" + link
	}
	return link, nil
}
