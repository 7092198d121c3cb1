package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/saeid-a/CoachBookingBack/internal/models"
)

type AvailabilityInput struct {
	CoachUID     string
	Date         string
	StartTime    string
	EndTime      string
	BreakStart   *string
	BreakEnd     *string
	Recurrence   string
	TimeBlocks   int
	BookingTimes []models.BookingTime
}

type AvailabilityStore interface {
	Create(ctx context.Context, input AvailabilityInput) (*models.Availability, error)
	Update(ctx context.Context, id int64, input AvailabilityInput) (*models.Availability, error)
	GetByID(ctx context.Context, id int64) (*models.Availability, error)
	ListFrom(ctx context.Context, coachUID string, fromDate string) ([]models.Availability, error)
	ExistingDates(ctx context.Context, coachUID string, dates []string) ([]string, error)
	Delete(ctx context.Context, id int64) error
}

type AvailabilityRepository struct {
	db DBTX
}

func NewAvailabilityRepository(db DBTX) *AvailabilityRepository {
	return &AvailabilityRepository{db: db}
}

const availabilityColumns = `
	id, coach_uid::text, to_char(date, 'YYYY-MM-DD'),
	to_char(start_time, 'HH24:MI'), to_char(end_time, 'HH24:MI'),
	to_char(break_start, 'HH24:MI'), to_char(break_end, 'HH24:MI'),
	recurrence, time_blocks, booking_times, created_at, updated_at
`

func (r *AvailabilityRepository) Create(ctx context.Context, input AvailabilityInput) (*models.Availability, error) {
	query := `
		INSERT INTO availability
			(coach_uid, date, start_time, end_time, break_start, break_end, recurrence, time_blocks, booking_times)
		VALUES ($1, $2::date, $3::time, $4::time, $5::time, $6::time, $7, $8, $9)
		RETURNING ` + availabilityColumns
	return scanAvailability(r.db.QueryRow(ctx, query,
		input.CoachUID,
		input.Date,
		input.StartTime,
		input.EndTime,
		input.BreakStart,
		input.BreakEnd,
		input.Recurrence,
		input.TimeBlocks,
		input.BookingTimes,
	))
}

func (r *AvailabilityRepository) Update(ctx context.Context, id int64, input AvailabilityInput) (*models.Availability, error) {
	query := `
		UPDATE availability
		SET date = $2::date,
			start_time = $3::time,
			end_time = $4::time,
			break_start = $5::time,
			break_end = $6::time,
			recurrence = $7,
			time_blocks = $8,
			booking_times = $9,
			updated_at = NOW()
		WHERE id = $1
		RETURNING ` + availabilityColumns
	return scanAvailability(r.db.QueryRow(ctx, query,
		id,
		input.Date,
		input.StartTime,
		input.EndTime,
		input.BreakStart,
		input.BreakEnd,
		input.Recurrence,
		input.TimeBlocks,
		input.BookingTimes,
	))
}

func (r *AvailabilityRepository) GetByID(ctx context.Context, id int64) (*models.Availability, error) {
	query := `SELECT ` + availabilityColumns + ` FROM availability WHERE id = $1`
	return scanAvailability(r.db.QueryRow(ctx, query, id))
}

func (r *AvailabilityRepository) ListFrom(ctx context.Context, coachUID string, fromDate string) ([]models.Availability, error) {
	query := `
		SELECT ` + availabilityColumns + `
		FROM availability
		WHERE coach_uid::text = $1 AND date >= $2::date
		ORDER BY date ASC, start_time ASC
	`
	rows, err := r.db.Query(ctx, query, coachUID, fromDate)
	if err != nil {
		return nil, translate(err)
	}
	defer rows.Close()

	items := make([]models.Availability, 0)
	for rows.Next() {
		item, err := scanAvailability(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

func (r *AvailabilityRepository) ExistingDates(ctx context.Context, coachUID string, dates []string) ([]string, error) {
	if len(dates) == 0 {
		return nil, nil
	}
	query := `
		SELECT to_char(date, 'YYYY-MM-DD')
		FROM availability
		WHERE coach_uid::text = $1 AND date = ANY($2::text[]::date[])
		ORDER BY date ASC
	`
	rows, err := r.db.Query(ctx, query, coachUID, dates)
	if err != nil {
		return nil, translate(err)
	}
	defer rows.Close()

	existing := make([]string, 0)
	for rows.Next() {
		var date string
		if err := rows.Scan(&date); err != nil {
			return nil, err
		}
		existing = append(existing, date)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return existing, nil
}

func (r *AvailabilityRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM availability WHERE id = $1`, id)
	if err != nil {
		return translate(err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanAvailability(row pgx.Row) (*models.Availability, error) {
	var item models.Availability
	err := row.Scan(
		&item.ID,
		&item.CoachUID,
		&item.Date,
		&item.StartTime,
		&item.EndTime,
		&item.BreakStart,
		&item.BreakEnd,
		&item.Recurrence,
		&item.TimeBlocks,
		&item.BookingTimes,
		&item.CreatedAt,
		&item.UpdatedAt,
	)
	if err != nil {
		return nil, translate(err)
	}
	if item.BookingTimes == nil {
		item.BookingTimes = []models.BookingTime{}
	}
	return &item, nil
}
