package model

import (
	"time"

	"github.com/google/uuid"
)

type MeetingMode string

const (
	MeetingModeInPerson MeetingMode = "in_person" // В школе
	MeetingModeRemote   MeetingMode = "remote"    // По видеосвязи
)

// ParseMeetingMode принимает как имена режимов, так и старые коды P/D
func ParseMeetingMode(s string) (MeetingMode, bool) {
	switch s {
	case "P", string(MeetingModeInPerson):
		return MeetingModeInPerson, true
	case "D", string(MeetingModeRemote):
		return MeetingModeRemote, true
	}
	return "", false
}

// MeetingBlock окно приёма родителей одним учителем в конкретный день
type MeetingBlock struct {
	ID              int64       `json:"id"`
	BatchID         uuid.UUID   `json:"batch_id"` // прогон генерации, создавший окно
	TeacherID       int64       `json:"teacher_id"`
	LocationID      *int64      `json:"location_id"` // nil = любое здание школы
	Mode            MeetingMode `json:"mode"`
	Date            time.Time   `json:"date"`
	Start           TimeOfDay   `json:"start"`
	End             TimeOfDay   `json:"end"`
	DurationMinutes int         `json:"duration_minutes"` // длительность одной встречи
	Capacity        int         `json:"capacity"`         // сколько встреч помещается в окно
	Place           string      `json:"place"`            // кабинет или ссылка
	Enabled         bool        `json:"enabled"`
	CreatedAt       time.Time   `json:"created_at"`
	UpdatedAt       time.Time   `json:"updated_at"`
}

// Range интервал времени окна
func (b *MeetingBlock) Range() TimeRange {
	return TimeRange{Start: b.Start, End: b.End}
}

// BlockIdentity идентичность окна: учитель, день, начало и конец
type BlockIdentity struct {
	TeacherID int64
	Date      string
	Start     TimeOfDay
	End       TimeOfDay
}

func (b *MeetingBlock) Identity() BlockIdentity {
	return BlockIdentity{
		TeacherID: b.TeacherID,
		Date:      b.Date.Format(DateFormat),
		Start:     b.Start,
		End:       b.End,
	}
}

// BlockWithDemand окно вместе с числом активных заявок на него
type BlockWithDemand struct {
	Block          *MeetingBlock `json:"block"`
	ActiveRequests int           `json:"active_requests"`
}

// IsExhausted окно заполнено, когда активных заявок не меньше вместимости
func (d *BlockWithDemand) IsExhausted() bool {
	return d.ActiveRequests >= d.Block.Capacity
}
