package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/Freeeeeet/colloqui/internal/model"
	"github.com/Freeeeeet/colloqui/internal/repository/base"
	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

var meetingBlockColumns = []string{
	"id", "batch_id", "teacher_id", "location_id", "mode", "date", "start_time", "end_time",
	"duration_minutes", "capacity", "place", "enabled", "created_at", "updated_at",
}

// ReceptionFilter параметры выборки окон приёма учителя
type ReceptionFilter struct {
	TeacherID  int64
	LocationID *int64 // nil = любое здание
	From       time.Time
	To         time.Time
	Enabled    *bool // nil = и включённые, и выключенные
}

type MeetingBlockRepository struct {
	*base.Repository
}

func NewMeetingBlockRepository(pool *pgxpool.Pool) *MeetingBlockRepository {
	return &MeetingBlockRepository{Repository: base.NewRepository(pool)}
}

// Create создаёт новое окно приёма
func (r *MeetingBlockRepository) Create(ctx context.Context, block *model.MeetingBlock) error {
	row, err := r.QueryRow(ctx, insertBlockQuery(block))
	if err != nil {
		return fmt.Errorf("create meeting block: %w", err)
	}

	if err := row.Scan(&block.ID, &block.CreatedAt, &block.UpdatedAt); err != nil {
		return fmt.Errorf("create meeting block: %w", err)
	}

	return nil
}

// GetByID получает окно по ID
func (r *MeetingBlockRepository) GetByID(ctx context.Context, id int64) (*model.MeetingBlock, error) {
	q := base.Psql.Select(meetingBlockColumns...).
		From("meeting_blocks").
		Where(squirrel.Eq{"id": id})

	row, err := r.QueryRow(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("get meeting block by id: %w", err)
	}

	block, err := scanBlock(row)
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get meeting block by id: %w", err)
	}

	return block, nil
}

// Overlaps проверяет, пересекается ли интервал с включённым окном учителя в тот же день
func (r *MeetingBlockRepository) Overlaps(ctx context.Context, teacherID int64, date time.Time, start, end model.TimeOfDay) (bool, error) {
	row, err := r.QueryRow(ctx, overlapQuery(teacherID, date, start, end))
	if err != nil {
		return false, fmt.Errorf("check overlap: %w", err)
	}

	var count int
	if err := row.Scan(&count); err != nil {
		return false, fmt.Errorf("check overlap: %w", err)
	}

	return count > 0, nil
}

// Receptions возвращает окна учителя в диапазоне дат вместе с числом активных заявок
func (r *MeetingBlockRepository) Receptions(ctx context.Context, filter ReceptionFilter) ([]*model.BlockWithDemand, error) {
	rows, err := r.Query(ctx, receptionsQuery(filter))
	if err != nil {
		return nil, fmt.Errorf("get receptions: %w", err)
	}
	defer rows.Close()

	var result []*model.BlockWithDemand
	for rows.Next() {
		var demand model.BlockWithDemand
		block, err := scanBlock(rows, &demand.ActiveRequests)
		if err != nil {
			return nil, fmt.Errorf("scan reception: %w", err)
		}
		demand.Block = block
		result = append(result, &demand)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate receptions: %w", err)
	}

	return result, nil
}

// CountActiveRequests считает заявки в статусах requested и confirmed
func (r *MeetingBlockRepository) CountActiveRequests(ctx context.Context, blockID int64) (int, error) {
	q := base.Psql.Select("COUNT(*)").
		From("appointment_requests").
		Where(squirrel.Eq{"block_id": blockID, "status": activeStatuses()})

	row, err := r.QueryRow(ctx, q)
	if err != nil {
		return 0, fmt.Errorf("count active requests: %w", err)
	}

	var count int
	if err := row.Scan(&count); err != nil {
		return 0, fmt.Errorf("count active requests: %w", err)
	}

	return count, nil
}

// AppointmentTimes возвращает занятые времена встреч окна по возрастанию
func (r *MeetingBlockRepository) AppointmentTimes(ctx context.Context, blockID int64) ([]model.TimeOfDay, error) {
	q := base.Psql.Select("appointment_at").
		From("appointment_requests").
		Where(squirrel.Eq{"block_id": blockID, "status": activeStatuses()}).
		OrderBy("appointment_at")

	rows, err := r.Query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("get appointment times: %w", err)
	}
	defer rows.Close()

	var times []model.TimeOfDay
	for rows.Next() {
		var at pgtype.Time
		if err := rows.Scan(&at); err != nil {
			return nil, fmt.Errorf("scan appointment time: %w", err)
		}
		times = append(times, base.TimeOfDay(at))
	}

	return times, rows.Err()
}

// SetEnabled включает или выключает окно
func (r *MeetingBlockRepository) SetEnabled(ctx context.Context, id int64, enabled bool) error {
	q := base.Psql.Update("meeting_blocks").
		Set("enabled", enabled).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": id})

	if _, err := r.ExecAffected(ctx, q); err != nil {
		return fmt.Errorf("set meeting block enabled: %w", err)
	}

	return nil
}

// DeleteUnrequested удаляет окна учителя, на которые не было ни одной заявки
// enabled == nil удаляет все такие окна, иначе только с указанным флагом
func (r *MeetingBlockRepository) DeleteUnrequested(ctx context.Context, teacherID int64, enabled *bool) (int64, error) {
	affected, err := r.ExecAffected(ctx, deleteUnrequestedQuery(teacherID, enabled))
	if err != nil {
		return 0, fmt.Errorf("delete unrequested blocks: %w", err)
	}
	return affected, nil
}

func insertBlockQuery(block *model.MeetingBlock) squirrel.InsertBuilder {
	return base.Psql.Insert("meeting_blocks").
		Columns("batch_id", "teacher_id", "location_id", "mode", "date", "start_time", "end_time",
			"duration_minutes", "capacity", "place", "enabled").
		Values(block.BatchID, block.TeacherID, block.LocationID, string(block.Mode), block.Date,
			base.PgTime(block.Start), base.PgTime(block.End),
			block.DurationMinutes, block.Capacity, block.Place, block.Enabled).
		Suffix("RETURNING id, created_at, updated_at")
}

func overlapQuery(teacherID int64, date time.Time, start, end model.TimeOfDay) squirrel.SelectBuilder {
	return base.Psql.Select("COUNT(*)").
		From("meeting_blocks").
		Where(squirrel.Eq{"teacher_id": teacherID, "date": date, "enabled": true}).
		Where("start_time < ? AND ? < end_time", base.PgTime(end), base.PgTime(start))
}

func receptionsQuery(f ReceptionFilter) squirrel.SelectBuilder {
	columns := make([]string, 0, len(meetingBlockColumns)+1)
	for _, c := range meetingBlockColumns {
		columns = append(columns, "b."+c)
	}
	columns = append(columns, "COUNT(r.id)")

	q := base.Psql.Select(columns...).
		From("meeting_blocks b").
		LeftJoin("appointment_requests r ON r.block_id = b.id AND r.status IN (?, ?)",
			string(model.RequestStatusRequested), string(model.RequestStatusConfirmed)).
		Where(squirrel.Eq{"b.teacher_id": f.TeacherID}).
		Where("b.date BETWEEN ? AND ?", f.From, f.To).
		GroupBy("b.id").
		OrderBy("b.date", "b.start_time")

	if f.LocationID != nil {
		q = q.Where(squirrel.Or{
			squirrel.Eq{"b.location_id": *f.LocationID},
			squirrel.Eq{"b.location_id": nil},
		})
	}
	if f.Enabled != nil {
		q = q.Where(squirrel.Eq{"b.enabled": *f.Enabled})
	}

	return q
}

func deleteUnrequestedQuery(teacherID int64, enabled *bool) squirrel.DeleteBuilder {
	q := base.Psql.Delete("meeting_blocks").
		Where(squirrel.Eq{"teacher_id": teacherID}).
		Where("NOT EXISTS (SELECT 1 FROM appointment_requests r WHERE r.block_id = meeting_blocks.id)")
	if enabled != nil {
		q = q.Where(squirrel.Eq{"enabled": *enabled})
	}
	return q
}

func activeStatuses() []string {
	statuses := make([]string, 0, len(model.ActiveRequestStatuses))
	for _, s := range model.ActiveRequestStatuses {
		statuses = append(statuses, string(s))
	}
	return statuses
}

// scanBlock читает окно из строки; extra сканируются после колонок окна
func scanBlock(row pgx.Row, extra ...any) (*model.MeetingBlock, error) {
	return scanBlockFields(row, nil, extra)
}

// scanBlockAfter читает окно, колонки которого идут после before
func scanBlockAfter(row pgx.Row, before ...any) (*model.MeetingBlock, error) {
	return scanBlockFields(row, before, nil)
}

func scanBlockFields(row pgx.Row, before, after []any) (*model.MeetingBlock, error) {
	var (
		block      model.MeetingBlock
		mode       string
		start, end pgtype.Time
	)

	dest := append([]any{}, before...)
	dest = append(dest,
		&block.ID,
		&block.BatchID,
		&block.TeacherID,
		&block.LocationID,
		&mode,
		&block.Date,
		&start,
		&end,
		&block.DurationMinutes,
		&block.Capacity,
		&block.Place,
		&block.Enabled,
		&block.CreatedAt,
		&block.UpdatedAt,
	)
	dest = append(dest, after...)
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}

	block.Mode = model.MeetingMode(mode)
	block.Start = base.TimeOfDay(start)
	block.End = base.TimeOfDay(end)
	return &block, nil
}
