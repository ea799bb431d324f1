package colloqui

import (
	"context"
	"time"

	"github.com/Freeeeeet/colloqui/internal/model"
	"github.com/Freeeeeet/colloqui/internal/repository"
)

// HolidayCalendar отвечает, учебный ли день для здания (nil = вся школа)
type HolidayCalendar interface {
	IsHoliday(ctx context.Context, date time.Time, locationID *int64) (bool, error)
}

// SchoolYear настройки учебного года, нужные для приёма родителей
type SchoolYear interface {
	YearEndDate() time.Time
	MeetingsEndDate() time.Time
	BlockedMonths() []time.Month
}

type BlockStore interface {
	Create(ctx context.Context, block *model.MeetingBlock) error
	GetByID(ctx context.Context, id int64) (*model.MeetingBlock, error)
	Overlaps(ctx context.Context, teacherID int64, date time.Time, start, end model.TimeOfDay) (bool, error)
	Receptions(ctx context.Context, filter repository.ReceptionFilter) ([]*model.BlockWithDemand, error)
	CountActiveRequests(ctx context.Context, blockID int64) (int, error)
	AppointmentTimes(ctx context.Context, blockID int64) ([]model.TimeOfDay, error)
	SetEnabled(ctx context.Context, id int64, enabled bool) error
	DeleteUnrequested(ctx context.Context, teacherID int64, enabled *bool) (int64, error)
}

type RequestStore interface {
	Create(ctx context.Context, req *model.AppointmentRequest) error
	GetByID(ctx context.Context, id int64) (*model.AppointmentRequest, error)
	HasActive(ctx context.Context, blockID, studentID int64) (bool, error)
	UpdateStatus(ctx context.Context, id int64, status model.RequestStatus, message string, cancelledBy *int64) error
	StudentRequests(ctx context.Context, studentID, parentID int64, from time.Time) ([]*model.StudentRequest, error)
	PendingByTeacher(ctx context.Context, teacherID int64, from time.Time) ([]model.PendingSummary, error)
	TeacherBlocks(ctx context.Context, teacherID int64, from, to time.Time) ([]*model.BlockRequests, error)
	TeacherHistory(ctx context.Context, teacherID int64, before time.Time) ([]*model.BlockRequests, error)
}

type AssignmentStore interface {
	ByClass(ctx context.Context, class model.Class) ([]*model.TeachingAssignment, error)
}

// Notifier сообщает учителю о событиях приёма
type Notifier interface {
	NotifyNewRequest(ctx context.Context, block *model.MeetingBlock, req *model.AppointmentRequest) error
	NotifyRequestCancelled(ctx context.Context, block *model.MeetingBlock, req *model.AppointmentRequest) error
}

// Recorder метрики генерации окон и заявок
type Recorder interface {
	ObserveGeneration(created, skipped int, elapsed time.Duration)
	RequestTransition(status model.RequestStatus)
}

// Clock источник текущего времени
type Clock interface {
	Now() time.Time
}

// SystemClock часы в часовом поясе школы
type SystemClock struct {
	Location *time.Location
}

func (c SystemClock) Now() time.Time {
	if c.Location == nil {
		return time.Now()
	}
	return time.Now().In(c.Location)
}

// today календарный день по часам (полночь UTC)
func today(c Clock) time.Time {
	return model.DateOf(c.Now())
}

type nopRecorder struct{}

func (nopRecorder) ObserveGeneration(int, int, time.Duration) {}

func (nopRecorder) RequestTransition(model.RequestStatus) {}

type nopNotifier struct{}

func (nopNotifier) NotifyNewRequest(context.Context, *model.MeetingBlock, *model.AppointmentRequest) error {
	return nil
}

func (nopNotifier) NotifyRequestCancelled(context.Context, *model.MeetingBlock, *model.AppointmentRequest) error {
	return nil
}
