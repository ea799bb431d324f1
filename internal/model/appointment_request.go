package model

import "time"

type RequestStatus string

const (
	RequestStatusRequested RequestStatus = "requested" // Ожидает ответа учителя
	RequestStatusConfirmed RequestStatus = "confirmed" // Подтверждена
	RequestStatusRejected  RequestStatus = "rejected"  // Отклонена учителем
	RequestStatusCancelled RequestStatus = "cancelled" // Отменена родителем
)

// ActiveRequestStatuses статусы, которые занимают место в окне
var ActiveRequestStatuses = []RequestStatus{
	RequestStatusRequested,
	RequestStatusConfirmed,
}

// IsActive заявка занимает место в окне
func (s RequestStatus) IsActive() bool {
	return s == RequestStatusRequested || s == RequestStatusConfirmed
}

// AppointmentRequest заявка родителя на встречу в окне приёма
type AppointmentRequest struct {
	ID            int64         `json:"id"`
	BlockID       int64         `json:"block_id"`
	StudentID     int64         `json:"student_id"`
	ParentID      int64         `json:"parent_id"`
	CancelledBy   *int64        `json:"cancelled_by"`
	AppointmentAt TimeOfDay     `json:"appointment_at"`
	Status        RequestStatus `json:"status"`
	Message       string        `json:"message"`
	CreatedAt     time.Time     `json:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at"`

	// Дополнительные поля для удобства (не из таблицы заявок)
	Block *MeetingBlock `json:"block,omitempty"`
}

// StudentRequest заявка ученика вместе с данными окна, для страницы родителя
type StudentRequest struct {
	RequestID     int64         `json:"request_id"`
	AppointmentAt TimeOfDay     `json:"appointment_at"`
	Status        RequestStatus `json:"status"`
	Message       string        `json:"message"`
	BlockID       int64         `json:"block_id"`
	Mode          MeetingMode   `json:"mode"`
	Date          time.Time     `json:"date"`
	Place         string        `json:"place"`
	TeacherID     int64         `json:"teacher_id"`
}

// PendingSummary число заявок, ожидающих ответа, по учителю
type PendingSummary struct {
	TeacherID int64 `json:"teacher_id"`
	Pending   int   `json:"pending"`
}

// TeacherRequest заявка на окно учителя вместе с учеником и его классом
type TeacherRequest struct {
	RequestID        int64         `json:"request_id"`
	AppointmentAt    TimeOfDay     `json:"appointment_at"`
	Status           RequestStatus `json:"status"`
	Message          string        `json:"message"`
	StudentID        int64         `json:"student_id"`
	StudentFirstName string        `json:"student_first_name"`
	StudentLastName  string        `json:"student_last_name"`
	Class            *Class        `json:"class,omitempty"` // nil, если ученик не приписан к классу
}

// StudentName фамилия и имя ученика с классом: "Rossi Mario (3A)"
func (r *TeacherRequest) StudentName() string {
	name := r.StudentLastName + " " + r.StudentFirstName
	if r.Class == nil {
		return name
	}
	return name + " (" + r.Class.String() + ")"
}

// BlockRequests окно учителя и заявки на него в порядке времени встречи
type BlockRequests struct {
	Block    *MeetingBlock     `json:"block"`
	Requests []*TeacherRequest `json:"requests"`
}

// Active число заявок окна, которые занимают место
func (b *BlockRequests) Active() int {
	n := 0
	for _, r := range b.Requests {
		if r.Status.IsActive() {
			n++
		}
	}
	return n
}
