package services

import (
	"context"
	"errors"
	"strings"

	"github.com/saeid-a/CoachBookingBack/internal/favorites"
	"github.com/saeid-a/CoachBookingBack/internal/models"
	"github.com/saeid-a/CoachBookingBack/internal/repository"
)

type FavoritesService struct {
	deps Deps
}

func NewFavoritesService(deps Deps) *FavoritesService {
	return &FavoritesService{deps: deps.withDefaults()}
}

func (s *FavoritesService) AddFavorite(ctx context.Context, identity models.Identity, coachUID string) ([]string, error) {
	if err := requireRole(identity, models.RoleStudent); err != nil {
		return nil, err
	}
	coachUID = strings.TrimSpace(coachUID)
	if coachUID == "" {
		return nil, ErrMissingField
	}

	coach, err := s.deps.Store.Users().GetByUID(ctx, coachUID)
	if err != nil {
		return nil, notFound(err, ErrCoachNotFound)
	}
	if coach.Role != models.RoleCoach {
		return nil, ErrCoachNotFound
	}

	var items []string
	err = s.deps.Store.WithinTx(ctx, func(tx repository.Store) error {
		set, err := loadFavorites(ctx, tx, identity.UID)
		if err != nil {
			return err
		}
		if err := set.Add(coachUID); err != nil {
			return ErrAlreadyFavorite
		}
		if err := tx.Favorites().Add(ctx, identity.UID, coachUID); err != nil {
			return err
		}
		items = set.Items()
		return nil
	})
	if err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrAlreadyFavorite
		}
		return nil, err
	}
	return items, nil
}

func (s *FavoritesService) RemoveFavorite(ctx context.Context, identity models.Identity, coachUID string) ([]string, error) {
	if err := requireRole(identity, models.RoleStudent); err != nil {
		return nil, err
	}
	coachUID = strings.TrimSpace(coachUID)
	if coachUID == "" {
		return nil, ErrMissingField
	}

	var items []string
	err := s.deps.Store.WithinTx(ctx, func(tx repository.Store) error {
		set, err := loadFavorites(ctx, tx, identity.UID)
		if err != nil {
			return err
		}
		if err := set.Remove(coachUID); err != nil {
			return ErrFavoriteNotFound
		}
		if err := tx.Favorites().Remove(ctx, identity.UID, coachUID); err != nil {
			return notFound(err, ErrFavoriteNotFound)
		}
		items = set.Items()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return items, nil
}

type CoachListPage struct {
	Coaches []models.CoachListResponse
	Total   int
}

// ListCoaches returns one page of coaches with the caller's favorites first.
func (s *FavoritesService) ListCoaches(
	ctx context.Context,
	identity models.Identity,
	page, limit int,
) (*CoachListPage, error) {
	if identity.UID == "" {
		return nil, ErrForbidden
	}
	if page < 1 || limit < 1 {
		return nil, ErrInvalidInput
	}

	coaches, err := s.deps.Store.Users().ListByRole(ctx, models.RoleCoach)
	if err != nil {
		return nil, err
	}

	set := favorites.NewSet()
	if identity.IsStudent() {
		set, err = loadFavorites(ctx, s.deps.Store, identity.UID)
		if err != nil {
			return nil, err
		}
	}
	ranked := favorites.RankCoaches(coaches, set)

	total := len(ranked)
	start := total
	if page-1 <= total/limit {
		start = min((page-1)*limit, total)
	}
	end := total
	if limit < total-start {
		end = start + limit
	}
	return &CoachListPage{Coaches: ranked[start:end], Total: total}, nil
}

func loadFavorites(ctx context.Context, store repository.Store, studentUID string) (*favorites.Set, error) {
	uids, err := store.Favorites().List(ctx, studentUID)
	if err != nil {
		return nil, err
	}
	return favorites.NewSet(uids...), nil
}
