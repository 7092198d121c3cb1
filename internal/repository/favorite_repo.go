package repository

import (
	"context"
)

type FavoriteStore interface {
	List(ctx context.Context, studentUID string) ([]string, error)
	Add(ctx context.Context, studentUID, coachUID string) error
	Remove(ctx context.Context, studentUID, coachUID string) error
}

type FavoriteRepository struct {
	db DBTX
}

func NewFavoriteRepository(db DBTX) *FavoriteRepository {
	return &FavoriteRepository{db: db}
}

// List returns the student's favorite coach uids in insertion order.
func (r *FavoriteRepository) List(ctx context.Context, studentUID string) ([]string, error) {
	rows, err := r.db.Query(ctx, `
		SELECT coach_uid::text
		FROM favorite_coaches
		WHERE student_uid::text = $1
		ORDER BY position ASC
	`, studentUID)
	if err != nil {
		return nil, translate(err)
	}
	defer rows.Close()

	uids := make([]string, 0)
	for rows.Next() {
		var uid string
		if err := rows.Scan(&uid); err != nil {
			return nil, err
		}
		uids = append(uids, uid)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return uids, nil
}

func (r *FavoriteRepository) Add(ctx context.Context, studentUID, coachUID string) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO favorite_coaches (student_uid, coach_uid) VALUES ($1, $2)`,
		studentUID, coachUID,
	)
	return translate(err)
}

func (r *FavoriteRepository) Remove(ctx context.Context, studentUID, coachUID string) error {
	tag, err := r.db.Exec(ctx,
		`DELETE FROM favorite_coaches WHERE student_uid::text = $1 AND coach_uid::text = $2`,
		studentUID, coachUID,
	)
	if err != nil {
		return translate(err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
