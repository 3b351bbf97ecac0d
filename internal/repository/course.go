package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"

	"github.com/joseph-ayodele/syllabus-sync/internal/common"
	"github.com/joseph-ayodele/syllabus-sync/internal/entity"
)

var (
	ErrCourseNotFound     = common.NewAppError("COURSE_NOT_FOUND", "course not found", common.ErrNotFound)
	ErrAssignmentNotFound = common.NewAppError("ASSIGNMENT_NOT_FOUND", "assignment not found", common.ErrNotFound)
)

type CourseRepository interface {
	SaveCourse(ctx context.Context, userID string, data entity.CourseData) (*entity.Course, error)
	SaveAssignments(ctx context.Context, courseID uuid.UUID, items []entity.Assignment) ([]entity.Assignment, error)
	GetCourse(ctx context.Context, courseID uuid.UUID) (*entity.Course, error)
	ListCourseHistory(ctx context.Context, userID string) ([]*entity.Course, error)
	GetAssignment(ctx context.Context, id int64) (*entity.Assignment, error)
	UpdateAssignment(ctx context.Context, id int64, patch entity.AssignmentPatch) (*entity.Assignment, error)
	DeleteAssignment(ctx context.Context, courseID uuid.UUID, id int64) (*entity.Assignment, error)
	SetCompletion(ctx context.Context, id int64, completed bool) (*entity.Assignment, error)
	DeleteCourse(ctx context.Context, courseID uuid.UUID) error
}

// queryer is satisfied by both *sql.DB and *sql.Tx.
type queryer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type courseRepository struct {
	db     *DB
	sb     sq.StatementBuilderType
	logger *slog.Logger
	now    func() time.Time
}

func NewCourseRepository(db *DB, logger *slog.Logger) CourseRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &courseRepository{
		db:     db,
		sb:     db.Builder(),
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

var (
	courseColumns     = []string{"id", "user_id", "course_name", "source_type", "created_at"}
	assignmentColumns = []string{"id", "course_id", "name", "description", "due_date", "start_time", "end_time", "color", "reminder", "completed_at", "created_at"}
)

func (r *courseRepository) SaveCourse(ctx context.Context, userID string, data entity.CourseData) (*entity.Course, error) {
	course := &entity.Course{
		ID:         uuid.New(),
		UserID:     userID,
		CourseName: data.CourseName,
		SourceType: data.SourceType,
		CreatedAt:  r.now(),
	}

	err := r.db.Transaction(ctx, func(tx *sql.Tx) error {
		q, args, err := r.sb.Insert("courses").
			Columns(courseColumns...).
			Values(course.ID.String(), userID, course.CourseName, course.SourceType, formatTime(course.CreatedAt)).
			ToSql()
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, q, args...); err != nil {
			return fmt.Errorf("%w: insert course: %v", common.ErrDatabase, err)
		}
		saved, err := r.insertAssignments(ctx, tx, course.ID, data.Assignments, course.CreatedAt)
		if err != nil {
			return err
		}
		course.Assignments = saved
		return nil
	})
	if err != nil {
		r.logger.Error("failed to save course", "user_id", userID, "error", err)
		return nil, err
	}

	r.logger.Info("course saved", "course_id", course.ID, "assignments", len(course.Assignments))
	return course, nil
}

func (r *courseRepository) SaveAssignments(ctx context.Context, courseID uuid.UUID, items []entity.Assignment) ([]entity.Assignment, error) {
	var saved []entity.Assignment
	err := r.db.Transaction(ctx, func(tx *sql.Tx) error {
		if err := r.courseExists(ctx, tx, courseID); err != nil {
			return err
		}
		var err error
		saved, err = r.insertAssignments(ctx, tx, courseID, items, r.now())
		return err
	})
	if err != nil {
		r.logger.Error("failed to save assignments", "course_id", courseID, "error", err)
		return nil, err
	}
	return saved, nil
}

func (r *courseRepository) insertAssignments(ctx context.Context, q queryer, courseID uuid.UUID, items []entity.Assignment, createdAt time.Time) ([]entity.Assignment, error) {
	out := make([]entity.Assignment, 0, len(items))
	for _, a := range items {
		stmt, args, err := r.sb.Insert("assignments").
			Columns("course_id", "name", "description", "due_date", "start_time", "end_time", "color", "reminder", "created_at").
			Values(courseID.String(), a.Name, a.Description, a.DueDate, a.StartTime, a.EndTime, a.Color, a.Reminder, formatTime(createdAt)).
			Suffix("RETURNING id").
			ToSql()
		if err != nil {
			return nil, err
		}
		var id int64
		if err := q.QueryRowContext(ctx, stmt, args...).Scan(&id); err != nil {
			return nil, fmt.Errorf("%w: insert assignment %q: %v", common.ErrDatabase, a.Name, err)
		}
		a.ID = id
		a.CourseID = courseID
		a.CreatedAt = createdAt
		a.Completed = false
		a.CompletedAt = nil
		out = append(out, a)
	}
	return out, nil
}

func (r *courseRepository) courseExists(ctx context.Context, q queryer, courseID uuid.UUID) error {
	stmt, args, err := r.sb.Select("id").From("courses").Where(sq.Eq{"id": courseID.String()}).ToSql()
	if err != nil {
		return err
	}
	var id string
	if err := q.QueryRowContext(ctx, stmt, args...).Scan(&id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("%w: %s", ErrCourseNotFound, courseID)
		}
		return fmt.Errorf("%w: %v", common.ErrDatabase, err)
	}
	return nil
}

func (r *courseRepository) GetCourse(ctx context.Context, courseID uuid.UUID) (*entity.Course, error) {
	stmt, args, err := r.sb.Select(courseColumns...).From("courses").Where(sq.Eq{"id": courseID.String()}).ToSql()
	if err != nil {
		return nil, err
	}
	c, err := scanCourse(r.db.QueryRowContext(ctx, stmt, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", ErrCourseNotFound, courseID)
		}
		r.logger.Error("failed to get course", "course_id", courseID, "error", err)
		return nil, fmt.Errorf("%w: %v", common.ErrDatabase, err)
	}

	byCourse, err := r.assignmentsFor(ctx, []uuid.UUID{c.ID})
	if err != nil {
		return nil, err
	}
	c.Assignments = byCourse[c.ID]
	return c, nil
}

// ListCourseHistory returns the user's courses most recent first, each with
// its assignments ordered by due date.
func (r *courseRepository) ListCourseHistory(ctx context.Context, userID string) ([]*entity.Course, error) {
	stmt, args, err := r.sb.Select(courseColumns...).
		From("courses").
		Where(sq.Eq{"user_id": userID}).
		OrderBy("created_at DESC", "id").
		ToSql()
	if err != nil {
		return nil, err
	}
	rows, err := r.db.QueryContext(ctx, stmt, args...)
	if err != nil {
		r.logger.Error("failed to list courses", "user_id", userID, "error", err)
		return nil, fmt.Errorf("%w: %v", common.ErrDatabase, err)
	}
	defer rows.Close()

	courses := make([]*entity.Course, 0)
	ids := make([]uuid.UUID, 0)
	for rows.Next() {
		c, err := scanCourse(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: scan course: %v", common.ErrDatabase, err)
		}
		courses = append(courses, c)
		ids = append(ids, c.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrDatabase, err)
	}
	if len(courses) == 0 {
		return courses, nil
	}

	byCourse, err := r.assignmentsFor(ctx, ids)
	if err != nil {
		return nil, err
	}
	for _, c := range courses {
		c.Assignments = byCourse[c.ID]
	}
	return courses, nil
}

func (r *courseRepository) assignmentsFor(ctx context.Context, courseIDs []uuid.UUID) (map[uuid.UUID][]entity.Assignment, error) {
	keys := make([]string, len(courseIDs))
	out := make(map[uuid.UUID][]entity.Assignment, len(courseIDs))
	for i, id := range courseIDs {
		keys[i] = id.String()
		out[id] = []entity.Assignment{}
	}

	stmt, args, err := r.sb.Select(assignmentColumns...).
		From("assignments").
		Where(sq.Eq{"course_id": keys}).
		OrderBy("due_date", "id").
		ToSql()
	if err != nil {
		return nil, err
	}
	rows, err := r.db.QueryContext(ctx, stmt, args...)
	if err != nil {
		r.logger.Error("failed to list assignments", "courses", len(courseIDs), "error", err)
		return nil, fmt.Errorf("%w: %v", common.ErrDatabase, err)
	}
	defer rows.Close()

	for rows.Next() {
		a, err := scanAssignment(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: scan assignment: %v", common.ErrDatabase, err)
		}
		out[a.CourseID] = append(out[a.CourseID], a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrDatabase, err)
	}
	return out, nil
}

func (r *courseRepository) GetAssignment(ctx context.Context, id int64) (*entity.Assignment, error) {
	return r.getAssignment(ctx, r.db, sq.Eq{"id": id})
}

func (r *courseRepository) getAssignment(ctx context.Context, q queryer, where sq.Eq) (*entity.Assignment, error) {
	stmt, args, err := r.sb.Select(assignmentColumns...).From("assignments").Where(where).ToSql()
	if err != nil {
		return nil, err
	}
	a, err := scanAssignment(q.QueryRowContext(ctx, stmt, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %v", ErrAssignmentNotFound, where["id"])
		}
		return nil, fmt.Errorf("%w: %v", common.ErrDatabase, err)
	}
	return &a, nil
}

func (r *courseRepository) UpdateAssignment(ctx context.Context, id int64, patch entity.AssignmentPatch) (*entity.Assignment, error) {
	if patch.Empty() {
		return r.GetAssignment(ctx, id)
	}

	ub := r.sb.Update("assignments").Where(sq.Eq{"id": id})
	set := func(col string, v *string) {
		if v != nil {
			ub = ub.Set(col, *v)
		}
	}
	set("name", patch.Name)
	set("description", patch.Description)
	set("due_date", patch.DueDate)
	set("start_time", patch.StartTime)
	set("end_time", patch.EndTime)
	set("color", patch.Color)
	if patch.Reminder != nil {
		ub = ub.Set("reminder", *patch.Reminder)
	}

	var out *entity.Assignment
	err := r.db.Transaction(ctx, func(tx *sql.Tx) error {
		if err := r.execAffecting(ctx, tx, ub, id); err != nil {
			return err
		}
		var err error
		out, err = r.getAssignment(ctx, tx, sq.Eq{"id": id})
		return err
	})
	if err != nil {
		r.logger.Error("failed to update assignment", "assignment_id", id, "error", err)
		return nil, err
	}
	return out, nil
}

// DeleteAssignment removes the assignment only if it belongs to courseID and returns the deleted row.
func (r *courseRepository) DeleteAssignment(ctx context.Context, courseID uuid.UUID, id int64) (*entity.Assignment, error) {
	var out *entity.Assignment
	err := r.db.Transaction(ctx, func(tx *sql.Tx) error {
		where := sq.Eq{"id": id, "course_id": courseID.String()}
		a, err := r.getAssignment(ctx, tx, where)
		if err != nil {
			return err
		}
		stmt, args, err := r.sb.Delete("assignments").Where(where).ToSql()
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, stmt, args...); err != nil {
			return fmt.Errorf("%w: delete assignment: %v", common.ErrDatabase, err)
		}
		out = a
		return nil
	})
	if err != nil {
		r.logger.Error("failed to delete assignment", "course_id", courseID, "assignment_id", id, "error", err)
		return nil, err
	}
	return out, nil
}

// SetCompletion stamps completed_at when completed is true and clears it otherwise.
func (r *courseRepository) SetCompletion(ctx context.Context, id int64, completed bool) (*entity.Assignment, error) {
	var stamp any
	if completed {
		stamp = formatTime(r.now())
	}
	ub := r.sb.Update("assignments").Set("completed_at", stamp).Where(sq.Eq{"id": id})

	var out *entity.Assignment
	err := r.db.Transaction(ctx, func(tx *sql.Tx) error {
		if err := r.execAffecting(ctx, tx, ub, id); err != nil {
			return err
		}
		var err error
		out, err = r.getAssignment(ctx, tx, sq.Eq{"id": id})
		return err
	})
	if err != nil {
		r.logger.Error("failed to set completion", "assignment_id", id, "completed", completed, "error", err)
		return nil, err
	}
	return out, nil
}

func (r *courseRepository) DeleteCourse(ctx context.Context, courseID uuid.UUID) error {
	err := r.db.Transaction(ctx, func(tx *sql.Tx) error {
		stmt, args, err := r.sb.Delete("assignments").Where(sq.Eq{"course_id": courseID.String()}).ToSql()
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, stmt, args...); err != nil {
			return fmt.Errorf("%w: delete assignments: %v", common.ErrDatabase, err)
		}
		stmt, args, err = r.sb.Delete("courses").Where(sq.Eq{"id": courseID.String()}).ToSql()
		if err != nil {
			return err
		}
		res, err := tx.ExecContext(ctx, stmt, args...)
		if err != nil {
			return fmt.Errorf("%w: delete course: %v", common.ErrDatabase, err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return fmt.Errorf("%w: %s", ErrCourseNotFound, courseID)
		}
		return nil
	})
	if err != nil {
		r.logger.Error("failed to delete course", "course_id", courseID, "error", err)
	}
	return err
}

func (r *courseRepository) execAffecting(ctx context.Context, tx *sql.Tx, ub sq.UpdateBuilder, id int64) error {
	stmt, args, err := ub.ToSql()
	if err != nil {
		return err
	}
	res, err := tx.ExecContext(ctx, stmt, args...)
	if err != nil {
		return fmt.Errorf("%w: update assignment: %v", common.ErrDatabase, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: rows affected: %v", common.ErrDatabase, err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %d", ErrAssignmentNotFound, id)
	}
	return nil
}
