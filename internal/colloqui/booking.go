package colloqui

import (
	"context"
	"fmt"

	"github.com/Freeeeeet/colloqui/internal/model"
	"github.com/Freeeeeet/colloqui/internal/repository"
	"go.uber.org/zap"
)

// Choice пункт списка выбора окна для родителя
type Choice struct {
	Label   string
	BlockID int64
}

// Receptions окна приёма учителя для страницы записи
type Receptions struct {
	Valid     []*model.BlockWithDemand // есть свободные места, до конца следующего месяца
	Exhausted []*model.BlockWithDemand // мест нет
	Upcoming  []*model.BlockWithDemand // после окна записи, без учёта мест
	Choices   []Choice                 // подписи свободных окон по порядку
}

// ChoiceMap подпись -> ID окна; одинаковые подписи перезаписывают друг друга
func (r *Receptions) ChoiceMap() map[string]int64 {
	m := make(map[string]int64, len(r.Choices))
	for _, c := range r.Choices {
		m[c.Label] = c.BlockID
	}
	return m
}

// IsValid проверяет, что окно есть среди свободных
func (r *Receptions) IsValid(blockID int64) (*model.BlockWithDemand, bool) {
	for _, d := range r.Valid {
		if d.Block.ID == blockID {
			return d, true
		}
	}
	return nil, false
}

// TeacherSubjects учитель класса и его предметы
type TeacherSubjects struct {
	TeacherID int64    `json:"teacher_id"`
	Name      string   `json:"name"`
	Subjects  []string `json:"subjects"`
}

// ParentMeetings учителя класса и заявки ученика
type ParentMeetings struct {
	Teachers []TeacherSubjects       `json:"teachers"`
	Requests []*model.StudentRequest `json:"requests"`
}

// BookingService запросы и заявки на приём
type BookingService struct {
	blocks      BlockStore
	requests    RequestStore
	assignments AssignmentStore
	year        SchoolYear
	clock       Clock
	notifier    Notifier
	metrics     Recorder
	logger      *zap.Logger
}

func NewBookingService(
	blocks BlockStore,
	requests RequestStore,
	assignments AssignmentStore,
	year SchoolYear,
	clock Clock,
	notifier Notifier,
	metrics Recorder,
	logger *zap.Logger,
) *BookingService {
	if notifier == nil {
		notifier = nopNotifier{}
	}
	if metrics == nil {
		metrics = nopRecorder{}
	}
	return &BookingService{
		blocks:      blocks,
		requests:    requests,
		assignments: assignments,
		year:        year,
		clock:       clock,
		notifier:    notifier,
		metrics:     metrics,
		logger:      logger,
	}
}

// ReceptionDates включённые окна учителя: свободные и заполненные с завтрашнего дня
// до конца следующего месяца, а также будущие окна до конца учебного года
func (s *BookingService) ReceptionDates(ctx context.Context, teacherID int64, locationID *int64) (*Receptions, error) {
	enabled := true
	from := today(s.clock).AddDate(0, 0, 1)
	to := model.LastDayOfNextMonth(from)

	window, err := s.blocks.Receptions(ctx, repository.ReceptionFilter{
		TeacherID:  teacherID,
		LocationID: locationID,
		From:       from,
		To:         to,
		Enabled:    &enabled,
	})
	if err != nil {
		return nil, fmt.Errorf("get receptions: %w", err)
	}

	result := &Receptions{}
	for _, d := range window {
		if d.IsExhausted() {
			result.Exhausted = append(result.Exhausted, d)
			continue
		}
		result.Valid = append(result.Valid, d)
		result.Choices = append(result.Choices, Choice{Label: BlockLabel(d.Block), BlockID: d.Block.ID})
	}

	upcomingFrom := to.AddDate(0, 0, 1)
	yearEnd := model.DateOf(s.year.YearEndDate())
	if !upcomingFrom.After(yearEnd) {
		result.Upcoming, err = s.blocks.Receptions(ctx, repository.ReceptionFilter{
			TeacherID:  teacherID,
			LocationID: locationID,
			From:       upcomingFrom,
			To:         yearEnd,
			Enabled:    &enabled,
		})
		if err != nil {
			return nil, fmt.Errorf("get upcoming receptions: %w", err)
		}
	}

	return result, nil
}

// ParentMeetings учителя класса с предметами и заявки ученика от родителя начиная с сегодняшнего дня
func (s *BookingService) ParentMeetings(ctx context.Context, class model.Class, studentID, parentID int64) (*ParentMeetings, error) {
	assignments, err := s.assignments.ByClass(ctx, class)
	if err != nil {
		return nil, fmt.Errorf("get class assignments: %w", err)
	}

	result := &ParentMeetings{}
	index := make(map[int64]int)
	for _, a := range assignments {
		i, ok := index[a.TeacherID]
		if !ok {
			teacher := model.Teacher{FirstName: a.TeacherFirstName, LastName: a.TeacherLastName}
			result.Teachers = append(result.Teachers, TeacherSubjects{
				TeacherID: a.TeacherID,
				Name:      teacher.FullName(),
			})
			i = len(result.Teachers) - 1
			index[a.TeacherID] = i
		}

		subject := a.SubjectName
		if a.Kind == model.AssignmentKindLab {
			subject = "Lab. " + subject
		}
		result.Teachers[i].Subjects = append(result.Teachers[i].Subjects, subject)
	}

	result.Requests, err = s.requests.StudentRequests(ctx, studentID, parentID, today(s.clock))
	if err != nil {
		return nil, fmt.Errorf("get student requests: %w", err)
	}

	return result, nil
}
