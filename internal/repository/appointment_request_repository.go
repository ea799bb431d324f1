package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/Freeeeeet/colloqui/internal/model"
	"github.com/Freeeeeet/colloqui/internal/repository/base"
	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

var appointmentRequestColumns = []string{
	"r.id", "r.block_id", "r.student_id", "r.parent_id", "r.cancelled_by", "r.appointment_at",
	"r.status", "r.message", "r.created_at", "r.updated_at",
}

type AppointmentRequestRepository struct {
	*base.Repository
}

func NewAppointmentRequestRepository(pool *pgxpool.Pool) *AppointmentRequestRepository {
	return &AppointmentRequestRepository{Repository: base.NewRepository(pool)}
}

// Create создаёт новую заявку
func (r *AppointmentRequestRepository) Create(ctx context.Context, req *model.AppointmentRequest) error {
	q := base.Psql.Insert("appointment_requests").
		Columns("block_id", "student_id", "parent_id", "appointment_at", "status", "message").
		Values(req.BlockID, req.StudentID, req.ParentID, base.PgTime(req.AppointmentAt), string(req.Status), req.Message).
		Suffix("RETURNING id, created_at, updated_at")

	row, err := r.QueryRow(ctx, q)
	if err != nil {
		return fmt.Errorf("create appointment request: %w", err)
	}

	if err := row.Scan(&req.ID, &req.CreatedAt, &req.UpdatedAt); err != nil {
		return fmt.Errorf("create appointment request: %w", err)
	}

	return nil
}

// GetByID получает заявку вместе с окном, к которому она относится
func (r *AppointmentRequestRepository) GetByID(ctx context.Context, id int64) (*model.AppointmentRequest, error) {
	columns := append([]string{}, appointmentRequestColumns...)
	for _, c := range meetingBlockColumns {
		columns = append(columns, "b."+c)
	}

	q := base.Psql.Select(columns...).
		From("appointment_requests r").
		Join("meeting_blocks b ON b.id = r.block_id").
		Where(squirrel.Eq{"r.id": id})

	row, err := r.QueryRow(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("get appointment request by id: %w", err)
	}

	var (
		req    model.AppointmentRequest
		at     pgtype.Time
		status string
	)
	block, err := scanBlockAfter(row,
		&req.ID,
		&req.BlockID,
		&req.StudentID,
		&req.ParentID,
		&req.CancelledBy,
		&at,
		&status,
		&req.Message,
		&req.CreatedAt,
		&req.UpdatedAt,
	)
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get appointment request by id: %w", err)
	}

	req.AppointmentAt = base.TimeOfDay(at)
	req.Status = model.RequestStatus(status)
	req.Block = block
	return &req, nil
}

// HasActive проверяет, есть ли у ученика активная заявка на окно
func (r *AppointmentRequestRepository) HasActive(ctx context.Context, blockID, studentID int64) (bool, error) {
	q := base.Psql.Select("COUNT(*)").
		From("appointment_requests").
		Where(squirrel.Eq{"block_id": blockID, "student_id": studentID, "status": activeStatuses()})

	row, err := r.QueryRow(ctx, q)
	if err != nil {
		return false, fmt.Errorf("check active request: %w", err)
	}

	var count int
	if err := row.Scan(&count); err != nil {
		return false, fmt.Errorf("check active request: %w", err)
	}

	return count > 0, nil
}

// UpdateStatus меняет статус и сообщение заявки; cancelledBy пишется только если передан
func (r *AppointmentRequestRepository) UpdateStatus(ctx context.Context, id int64, status model.RequestStatus, message string, cancelledBy *int64) error {
	q := base.Psql.Update("appointment_requests").
		Set("status", string(status)).
		Set("message", message).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": id})
	if cancelledBy != nil {
		q = q.Set("cancelled_by", *cancelledBy)
	}

	if _, err := r.ExecAffected(ctx, q); err != nil {
		return fmt.Errorf("update appointment request status: %w", err)
	}

	return nil
}

// StudentRequests возвращает заявки ученика от родителя на включённые окна начиная с from
func (r *AppointmentRequestRepository) StudentRequests(ctx context.Context, studentID, parentID int64, from time.Time) ([]*model.StudentRequest, error) {
	rows, err := r.Query(ctx, studentRequestsQuery(studentID, parentID, from))
	if err != nil {
		return nil, fmt.Errorf("get student requests: %w", err)
	}
	defer rows.Close()

	var requests []*model.StudentRequest
	for rows.Next() {
		var (
			req          model.StudentRequest
			at           pgtype.Time
			status, mode string
		)
		err := rows.Scan(
			&req.RequestID,
			&at,
			&status,
			&req.Message,
			&req.BlockID,
			&mode,
			&req.Date,
			&req.Place,
			&req.TeacherID,
		)
		if err != nil {
			return nil, fmt.Errorf("scan student request: %w", err)
		}
		req.AppointmentAt = base.TimeOfDay(at)
		req.Status = model.RequestStatus(status)
		req.Mode = model.MeetingMode(mode)
		requests = append(requests, &req)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate student requests: %w", err)
	}

	return requests, nil
}

// PendingByTeacher считает заявки, ожидающие ответа, на включённые окна начиная с from
// teacherID == 0 возвращает сводку по всем учителям
func (r *AppointmentRequestRepository) PendingByTeacher(ctx context.Context, teacherID int64, from time.Time) ([]model.PendingSummary, error) {
	rows, err := r.Query(ctx, pendingQuery(teacherID, from))
	if err != nil {
		return nil, fmt.Errorf("get pending requests: %w", err)
	}
	defer rows.Close()

	var result []model.PendingSummary
	for rows.Next() {
		var s model.PendingSummary
		if err := rows.Scan(&s.TeacherID, &s.Pending); err != nil {
			return nil, fmt.Errorf("scan pending summary: %w", err)
		}
		result = append(result, s)
	}

	return result, rows.Err()
}

// TeacherBlocks возвращает включённые окна учителя в диапазоне дат со всеми заявками на них,
// включая окна без заявок
func (r *AppointmentRequestRepository) TeacherBlocks(ctx context.Context, teacherID int64, from, to time.Time) ([]*model.BlockRequests, error) {
	result, err := r.blockRequests(ctx, teacherBlocksQuery(teacherID, from, to))
	if err != nil {
		return nil, fmt.Errorf("get teacher blocks: %w", err)
	}
	return result, nil
}

// TeacherHistory возвращает окна учителя с заявками, которые уже прошли (до before) или выключены
func (r *AppointmentRequestRepository) TeacherHistory(ctx context.Context, teacherID int64, before time.Time) ([]*model.BlockRequests, error) {
	result, err := r.blockRequests(ctx, teacherHistoryQuery(teacherID, before))
	if err != nil {
		return nil, fmt.Errorf("get teacher history: %w", err)
	}
	return result, nil
}

// blockRequests читает строки "окно + заявка" и группирует заявки по окнам;
// строки одного окна идут подряд
func (r *AppointmentRequestRepository) blockRequests(ctx context.Context, q squirrel.SelectBuilder) ([]*model.BlockRequests, error) {
	rows, err := r.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var (
		result  []*model.BlockRequests
		current *model.BlockRequests
	)
	for rows.Next() {
		var (
			requestID, studentID, classID *int64
			at                            pgtype.Time
			status, message               *string
			firstName, lastName           *string
			year                          *int
			section, group                *string
		)
		block, err := scanBlock(rows,
			&requestID, &at, &status, &message,
			&studentID, &firstName, &lastName,
			&classID, &year, &section, &group,
		)
		if err != nil {
			return nil, fmt.Errorf("scan block request: %w", err)
		}

		if current == nil || current.Block.ID != block.ID {
			current = &model.BlockRequests{Block: block}
			result = append(result, current)
		}
		if requestID == nil {
			continue
		}

		req := &model.TeacherRequest{
			RequestID:     *requestID,
			AppointmentAt: base.TimeOfDay(at),
			Status:        model.RequestStatus(deref(status)),
			Message:       deref(message),
		}
		if studentID != nil {
			req.StudentID = *studentID
			req.StudentFirstName = deref(firstName)
			req.StudentLastName = deref(lastName)
		}
		if classID != nil {
			req.Class = &model.Class{ID: *classID, Section: deref(section), Group: deref(group)}
			if year != nil {
				req.Class.Year = *year
			}
		}
		current.Requests = append(current.Requests, req)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate block requests: %w", err)
	}

	return result, nil
}

func studentRequestsQuery(studentID, parentID int64, from time.Time) squirrel.SelectBuilder {
	return base.Psql.Select(
		"r.id", "r.appointment_at", "r.status", "r.message",
		"b.id", "b.mode", "b.date", "b.place", "b.teacher_id",
	).
		From("appointment_requests r").
		Join("meeting_blocks b ON b.id = r.block_id").
		Where(squirrel.Eq{"r.student_id": studentID, "r.parent_id": parentID, "b.enabled": true}).
		Where("b.date >= ?", from).
		OrderBy("b.date", "r.appointment_at")
}

func pendingQuery(teacherID int64, from time.Time) squirrel.SelectBuilder {
	q := base.Psql.Select("b.teacher_id", "COUNT(r.id)").
		From("appointment_requests r").
		Join("meeting_blocks b ON b.id = r.block_id").
		Where(squirrel.Eq{"r.status": string(model.RequestStatusRequested), "b.enabled": true}).
		Where("b.date >= ?", from).
		GroupBy("b.teacher_id").
		OrderBy("b.teacher_id")
	if teacherID != 0 {
		q = q.Where(squirrel.Eq{"b.teacher_id": teacherID})
	}
	return q
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func blockRequestsSelect() squirrel.SelectBuilder {
	columns := make([]string, 0, len(meetingBlockColumns)+11)
	for _, c := range meetingBlockColumns {
		columns = append(columns, "b."+c)
	}
	columns = append(columns,
		"r.id", "r.appointment_at", "r.status", "r.message",
		"s.id", "s.first_name", "s.last_name",
		"c.id", "c.year", "c.section", "c.class_group",
	)
	return base.Psql.Select(columns...).From("meeting_blocks b")
}

func teacherBlocksQuery(teacherID int64, from, to time.Time) squirrel.SelectBuilder {
	return blockRequestsSelect().
		LeftJoin("appointment_requests r ON r.block_id = b.id").
		LeftJoin("students s ON s.id = r.student_id").
		LeftJoin("classes c ON c.id = s.class_id").
		Where(squirrel.Eq{"b.teacher_id": teacherID, "b.enabled": true}).
		Where("b.date BETWEEN ? AND ?", from, to).
		OrderBy("b.date", "b.start_time", "b.id", "r.appointment_at")
}

func teacherHistoryQuery(teacherID int64, before time.Time) squirrel.SelectBuilder {
	return blockRequestsSelect().
		Join("appointment_requests r ON r.block_id = b.id").
		Join("students s ON s.id = r.student_id").
		LeftJoin("classes c ON c.id = s.class_id").
		Where(squirrel.Eq{"b.teacher_id": teacherID}).
		Where(squirrel.Or{squirrel.Eq{"b.enabled": false}, squirrel.Lt{"b.date": before}}).
		OrderBy("b.date", "b.start_time", "b.id", "r.appointment_at")
}
