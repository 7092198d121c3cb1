package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/saeid-a/CoachBookingBack/internal/models"
)

type CreateLessonInput struct {
	CoachUID   string
	StudentUID string
	Date       string
	StartTime  string
	EndTime    string
	Status     models.LessonStatus
}

// SlotQuery matches lessons occupying an exact (date, start, end) interval for
// either a coach or a student.
type SlotQuery struct {
	CoachUID   string
	StudentUID string
	Date       string
	StartTime  string
	EndTime    string
}

type LessonListFilter struct {
	CoachUID   string
	StudentUID string
	FromDate   string
}

type LessonStore interface {
	Create(ctx context.Context, input CreateLessonInput) (*models.Lesson, error)
	GetByIDForUpdate(ctx context.Context, lessonID int64) (*models.Lesson, error)
	List(ctx context.Context, filter LessonListFilter) ([]models.Lesson, error)
	CountByStudentStatus(ctx context.Context, studentUID string, status models.LessonStatus) (int, error)
	SlotTaken(ctx context.Context, query SlotQuery) (bool, error)
	UpdateStatusIfCurrent(ctx context.Context, lessonID int64, current, next models.LessonStatus) (*models.Lesson, error)
	Cancel(ctx context.Context, lessonID int64, canceledBy string) (*models.Lesson, error)
	Delete(ctx context.Context, lessonID int64) error
}

type LessonRepository struct {
	db DBTX
}

func NewLessonRepository(db DBTX) *LessonRepository {
	return &LessonRepository{db: db}
}

const lessonColumns = `
	id, coach_uid::text, student_uid::text, to_char(lesson_date, 'YYYY-MM-DD'),
	to_char(start_time, 'HH24:MI'), to_char(end_time, 'HH24:MI'),
	status, canceled_at, canceled_by, created_at, updated_at
`

func (r *LessonRepository) Create(ctx context.Context, input CreateLessonInput) (*models.Lesson, error) {
	status := input.Status
	if status == "" {
		status = models.LessonPending
	}
	query := `
		INSERT INTO lessons (coach_uid, student_uid, lesson_date, start_time, end_time, status)
		VALUES ($1, $2, $3::date, $4::time, $5::time, $6)
		RETURNING ` + lessonColumns
	return scanLesson(r.db.QueryRow(ctx, query,
		input.CoachUID,
		input.StudentUID,
		input.Date,
		input.StartTime,
		input.EndTime,
		string(status),
	))
}

func (r *LessonRepository) GetByIDForUpdate(ctx context.Context, lessonID int64) (*models.Lesson, error) {
	query := `SELECT ` + lessonColumns + ` FROM lessons WHERE id = $1 FOR UPDATE`
	return scanLesson(r.db.QueryRow(ctx, query, lessonID))
}

func (r *LessonRepository) List(ctx context.Context, filter LessonListFilter) ([]models.Lesson, error) {
	args := []any{}
	where := "TRUE"
	if filter.CoachUID != "" {
		args = append(args, filter.CoachUID)
		where += fmt.Sprintf(" AND coach_uid::text = $%d", len(args))
	}
	if filter.StudentUID != "" {
		args = append(args, filter.StudentUID)
		where += fmt.Sprintf(" AND student_uid::text = $%d", len(args))
	}
	if filter.FromDate != "" {
		args = append(args, filter.FromDate)
		where += fmt.Sprintf(" AND lesson_date >= $%d::date", len(args))
	}

	query := `
		SELECT ` + lessonColumns + `
		FROM lessons
		WHERE ` + where + `
		ORDER BY lesson_date ASC, start_time ASC, id ASC
	`
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, translate(err)
	}
	defer rows.Close()

	lessons := make([]models.Lesson, 0)
	for rows.Next() {
		lesson, err := scanLesson(rows)
		if err != nil {
			return nil, err
		}
		lessons = append(lessons, *lesson)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return lessons, nil
}

func (r *LessonRepository) CountByStudentStatus(ctx context.Context, studentUID string, status models.LessonStatus) (int, error) {
	var count int
	err := r.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM lessons WHERE student_uid::text = $1 AND status = $2`,
		studentUID, string(status),
	).Scan(&count)
	return count, translate(err)
}

func (r *LessonRepository) SlotTaken(ctx context.Context, q SlotQuery) (bool, error) {
	column, uid := "coach_uid", q.CoachUID
	if uid == "" {
		column, uid = "student_uid", q.StudentUID
	}
	query := `
		SELECT EXISTS (
			SELECT 1
			FROM lessons
			WHERE ` + column + `::text = $1
			  AND lesson_date = $2::date
			  AND start_time = $3::time
			  AND end_time = $4::time
			  AND status <> 'canceled'
		)
	`
	var taken bool
	if err := r.db.QueryRow(ctx, query, uid, q.Date, q.StartTime, q.EndTime).Scan(&taken); err != nil {
		return false, translate(err)
	}
	return taken, nil
}

func (r *LessonRepository) UpdateStatusIfCurrent(
	ctx context.Context,
	lessonID int64,
	current models.LessonStatus,
	next models.LessonStatus,
) (*models.Lesson, error) {
	query := `
		UPDATE lessons
		SET status = $3, updated_at = NOW()
		WHERE id = $1 AND status = $2
		RETURNING ` + lessonColumns
	return scanLesson(r.db.QueryRow(ctx, query, lessonID, string(current), string(next)))
}

func (r *LessonRepository) Cancel(ctx context.Context, lessonID int64, canceledBy string) (*models.Lesson, error) {
	query := `
		UPDATE lessons
		SET status = 'canceled',
			canceled_at = NOW(),
			canceled_by = $2,
			updated_at = NOW()
		WHERE id = $1 AND status <> 'canceled'
		RETURNING ` + lessonColumns
	return scanLesson(r.db.QueryRow(ctx, query, lessonID, canceledBy))
}

func (r *LessonRepository) Delete(ctx context.Context, lessonID int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM lessons WHERE id = $1`, lessonID)
	if err != nil {
		return translate(err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanLesson(row pgx.Row) (*models.Lesson, error) {
	var lesson models.Lesson
	err := row.Scan(
		&lesson.ID,
		&lesson.CoachUID,
		&lesson.StudentUID,
		&lesson.Date,
		&lesson.StartTime,
		&lesson.EndTime,
		&lesson.Status,
		&lesson.CanceledAt,
		&lesson.CanceledBy,
		&lesson.CreatedAt,
		&lesson.UpdatedAt,
	)
	if err != nil {
		return nil, translate(err)
	}
	return &lesson, nil
}
