package model

import "fmt"

type HolidayKind string

// HolidayKindHoliday нет занятий; остальные виды записей в календаре уроки не отменяют
const HolidayKindHoliday HolidayKind = "holiday"

// Teacher учитель, ведущий приём родителей
type Teacher struct {
	ID             int64  `json:"id"`
	FirstName      string `json:"first_name"`
	LastName       string `json:"last_name"`
	Enabled        bool   `json:"enabled"`
	TelegramChatID *int64 `json:"telegram_chat_id"`
}

// FullName фамилия и имя, как в списках школы
func (t *Teacher) FullName() string {
	return fmt.Sprintf("%s %s", t.LastName, t.FirstName)
}

// Class класс (год, секция) и, возможно, группа внутри класса
type Class struct {
	ID      int64  `json:"id"`
	Year    int    `json:"year"`
	Section string `json:"section"`
	Group   string `json:"group"` // "" = весь класс
}

func (c Class) String() string {
	if c.Group == "" {
		return fmt.Sprintf("%d%s", c.Year, c.Section)
	}
	return fmt.Sprintf("%d%s-%s", c.Year, c.Section, c.Group)
}

type AssignmentKind string

const (
	AssignmentKindNormal  AssignmentKind = "normal"
	AssignmentKindLab     AssignmentKind = "lab"
	AssignmentKindSupport AssignmentKind = "support"
)

// TeachingAssignment нагрузка учителя: предмет в классе
type TeachingAssignment struct {
	TeacherID        int64          `json:"teacher_id"`
	TeacherFirstName string         `json:"teacher_first_name"`
	TeacherLastName  string         `json:"teacher_last_name"`
	SubjectName      string         `json:"subject_name"`
	Kind             AssignmentKind `json:"kind"`
}
