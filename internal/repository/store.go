package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	ErrNotFound  = errors.New("record not found")
	ErrDuplicate = errors.New("duplicate record")
)

const uniqueViolation = "23505"

type DBTX interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Store is the data-access surface the services depend on. Every accessor
// returned from a Store passed to WithinTx's callback runs inside that
// transaction.
type Store interface {
	Users() UserStore
	Availability() AvailabilityStore
	Lessons() LessonStore
	Invoices() InvoiceStore
	Favorites() FavoriteStore
	Events() EventStore
	// LockKey serialises writers on key until the surrounding transaction ends.
	LockKey(ctx context.Context, key string) error
	WithinTx(ctx context.Context, fn func(Store) error) error
}

type PgStore struct {
	pool *pgxpool.Pool
	db   DBTX
	inTx bool
}

func NewPgStore(pool *pgxpool.Pool) *PgStore {
	return &PgStore{pool: pool, db: pool}
}

func (s *PgStore) Users() UserStore                { return NewUserRepository(s.db) }
func (s *PgStore) Availability() AvailabilityStore { return NewAvailabilityRepository(s.db) }
func (s *PgStore) Lessons() LessonStore            { return NewLessonRepository(s.db) }
func (s *PgStore) Invoices() InvoiceStore          { return NewInvoiceRepository(s.db) }
func (s *PgStore) Favorites() FavoriteStore        { return NewFavoriteRepository(s.db) }
func (s *PgStore) Events() EventStore              { return NewEventRepository(s.db) }

func (s *PgStore) LockKey(ctx context.Context, key string) error {
	if !s.inTx {
		return errors.New("advisory lock requires a transaction")
	}
	_, err := s.db.Exec(ctx, "SELECT pg_advisory_xact_lock(hashtext($1))", key)
	return err
}

func (s *PgStore) WithinTx(ctx context.Context, fn func(Store) error) error {
	if s.inTx {
		return fn(s)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	if err := fn(&PgStore{pool: s.pool, db: tx, inTx: true}); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return translate(err)
	}
	return nil
}

// translate maps driver errors onto the package sentinels so callers never
// need to import pgx.
func translate(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return fmt.Errorf("%w: %s", ErrDuplicate, pgErr.ConstraintName)
	}
	return err
}
