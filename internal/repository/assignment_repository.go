package repository

import (
	"context"
	"fmt"

	"github.com/Freeeeeet/colloqui/internal/model"
	"github.com/Freeeeeet/colloqui/internal/repository/base"
	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5/pgxpool"
)

type AssignmentRepository struct {
	*base.Repository
}

func NewAssignmentRepository(pool *pgxpool.Pool) *AssignmentRepository {
	return &AssignmentRepository{Repository: base.NewRepository(pool)}
}

// ByClass возвращает активные нагрузки класса (кроме поддержки) у включённых учителей
// Нагрузки группы и всего класса попадают вместе, порядок: фамилия, имя, предмет
func (r *AssignmentRepository) ByClass(ctx context.Context, class model.Class) ([]*model.TeachingAssignment, error) {
	rows, err := r.Query(ctx, assignmentsByClassQuery(class))
	if err != nil {
		return nil, fmt.Errorf("get assignments by class: %w", err)
	}
	defer rows.Close()

	var assignments []*model.TeachingAssignment
	for rows.Next() {
		var (
			a    model.TeachingAssignment
			kind string
		)
		err := rows.Scan(
			&a.TeacherID,
			&a.TeacherFirstName,
			&a.TeacherLastName,
			&a.SubjectName,
			&kind,
		)
		if err != nil {
			return nil, fmt.Errorf("scan assignment: %w", err)
		}
		a.Kind = model.AssignmentKind(kind)
		assignments = append(assignments, &a)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate assignments: %w", err)
	}

	return assignments, nil
}

func assignmentsByClassQuery(class model.Class) squirrel.SelectBuilder {
	return base.Psql.Select("t.id", "t.first_name", "t.last_name", "s.name", "a.kind").
		From("teaching_assignments a").
		Join("classes c ON c.id = a.class_id").
		Join("subjects s ON s.id = a.subject_id").
		Join("teachers t ON t.id = a.teacher_id").
		Where(squirrel.Eq{"a.active": true, "t.enabled": true, "c.year": class.Year, "c.section": class.Section}).
		Where(squirrel.NotEq{"a.kind": string(model.AssignmentKindSupport)}).
		Where(squirrel.Eq{"c.class_group": []string{class.Group, ""}}).
		OrderBy("t.last_name", "t.first_name", "s.ordering", "s.short_name")
}
