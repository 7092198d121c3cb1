package services

import (
	"context"
	"errors"
	"sort"
	"strings"

	"github.com/saeid-a/CoachBookingBack/internal/availability"
	"github.com/saeid-a/CoachBookingBack/internal/models"
	"github.com/saeid-a/CoachBookingBack/internal/repository"
)

type AvailabilityInput struct {
	StartTime  string  `json:"start_time"`
	EndTime    string  `json:"end_time"`
	BreakStart *string `json:"break_start"`
	BreakEnd   *string `json:"break_end"`
	Recurrence string  `json:"recurrence"`
	Date       string  `json:"date"`
	TimeBlocks int     `json:"time_blocks"`
}

// InvalidEntry reports why one batch entry was rejected.
type InvalidEntry struct {
	Index  int               `json:"index"`
	Entry  AvailabilityInput `json:"entry"`
	Reason string            `json:"reason"`
}

type AvailabilityService struct {
	deps Deps
}

func NewAvailabilityService(deps Deps) *AvailabilityService {
	return &AvailabilityService{deps: deps.withDefaults()}
}

// CreateAvailability validates the whole batch before writing any row.
func (s *AvailabilityService) CreateAvailability(
	ctx context.Context,
	identity models.Identity,
	entries []AvailabilityInput,
) ([]models.Availability, error) {
	if err := requireRole(identity, models.RoleCoach); err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, ErrEmptyBatch
	}

	rows := make([]repository.AvailabilityInput, 0, len(entries))
	invalid := make([]InvalidEntry, 0)
	for i, entry := range entries {
		row, err := buildAvailabilityRow(identity.UID, entry)
		if err != nil {
			invalid = append(invalid, InvalidEntry{Index: i, Entry: entry, Reason: err.Error()})
			continue
		}
		rows = append(rows, row)
	}
	if len(invalid) > 0 {
		return nil, entryError(ErrInvalidEntries, "entries", invalid)
	}

	today := s.deps.today()
	past := make([]string, 0)
	for _, row := range rows {
		if row.Date < today {
			past = append(past, row.Date)
		}
	}
	if len(past) > 0 {
		return nil, entryError(ErrPastDate, "dates", past)
	}

	dates := make([]string, 0, len(rows))
	seen := make(map[string]int, len(rows))
	duplicates := make([]string, 0)
	for _, row := range rows {
		seen[row.Date]++
		if seen[row.Date] == 2 {
			duplicates = append(duplicates, row.Date)
		}
		if seen[row.Date] == 1 {
			dates = append(dates, row.Date)
		}
	}
	if len(duplicates) > 0 {
		sort.Strings(duplicates)
		return nil, entryError(ErrDuplicateInBatch, "duplicates", duplicates)
	}

	existing, err := s.deps.Store.Availability().ExistingDates(ctx, identity.UID, dates)
	if err != nil {
		return nil, err
	}
	if len(existing) > 0 {
		return nil, entryError(ErrAvailabilityExists, "duplicates", existing)
	}

	created := make([]models.Availability, 0, len(rows))
	err = s.deps.Store.WithinTx(ctx, func(tx repository.Store) error {
		for _, row := range rows {
			item, err := tx.Availability().Create(ctx, row)
			if err != nil {
				return err
			}
			created = append(created, *item)
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, entryError(ErrAvailabilityExists, "duplicates", dates)
		}
		return nil, err
	}

	for _, item := range created {
		s.deps.Notifier.AvailabilityChanged(identity.UID, item.Date)
	}
	return created, nil
}

func (s *AvailabilityService) UpdateAvailability(
	ctx context.Context,
	identity models.Identity,
	id int64,
	input AvailabilityInput,
) (*models.Availability, error) {
	if err := requireRole(identity, models.RoleCoach); err != nil {
		return nil, err
	}
	row, err := buildAvailabilityRow(identity.UID, input)
	if err != nil {
		return nil, entryError(ErrInvalidEntries, "entries", []InvalidEntry{{Entry: input, Reason: err.Error()}})
	}
	if row.Date < s.deps.today() {
		return nil, entryError(ErrPastDate, "dates", []string{row.Date})
	}

	var previous, updated *models.Availability
	err = s.deps.Store.WithinTx(ctx, func(tx repository.Store) error {
		current, err := tx.Availability().GetByID(ctx, id)
		if err != nil {
			return notFound(err, ErrNotFound)
		}
		if current.CoachUID != identity.UID {
			return ErrNotFound
		}
		previous = current
		updated, err = tx.Availability().Update(ctx, id, row)
		return err
	})
	if err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, entryError(ErrAvailabilityExists, "duplicates", []string{row.Date})
		}
		return nil, err
	}

	if previous.Date != updated.Date {
		s.deps.Notifier.AvailabilityChanged(identity.UID, previous.Date)
	}
	s.deps.Notifier.AvailabilityChanged(identity.UID, updated.Date)
	return updated, nil
}

func (s *AvailabilityService) DeleteAvailability(ctx context.Context, identity models.Identity, id int64) error {
	if err := requireRole(identity, models.RoleCoach, models.RoleAdmin); err != nil {
		return err
	}

	item, err := s.deps.Store.Availability().GetByID(ctx, id)
	if err != nil {
		return notFound(err, ErrNotFound)
	}
	if identity.IsCoach() && item.CoachUID != identity.UID {
		return ErrNotFound
	}
	if err := s.deps.Store.Availability().Delete(ctx, id); err != nil {
		return notFound(err, ErrNotFound)
	}

	s.deps.Notifier.AvailabilityChanged(item.CoachUID, item.Date)
	return nil
}

// CoachView lists the caller's upcoming rows with booked blocks removed.
func (s *AvailabilityService) CoachView(ctx context.Context, identity models.Identity) ([]models.AvailableSlot, error) {
	if err := requireRole(identity, models.RoleCoach); err != nil {
		return nil, err
	}
	return s.reconciled(ctx, identity.UID)
}

// StudentView lists a coach's free blocks without coach-internal fields.
func (s *AvailabilityService) StudentView(
	ctx context.Context,
	identity models.Identity,
	coachUID string,
) ([]models.PublicSlot, error) {
	if identity.UID == "" {
		return nil, ErrForbidden
	}
	coachUID = strings.TrimSpace(coachUID)
	if coachUID == "" {
		return nil, ErrMissingField
	}
	slots, err := s.reconciled(ctx, coachUID)
	if err != nil {
		return nil, err
	}
	return availability.Public(slots), nil
}

func (s *AvailabilityService) reconciled(ctx context.Context, coachUID string) ([]models.AvailableSlot, error) {
	today := s.deps.today()
	rows, err := s.deps.Store.Availability().ListFrom(ctx, coachUID, today)
	if err != nil {
		return nil, err
	}
	lessons, err := s.deps.Store.Lessons().List(ctx, repository.LessonListFilter{
		CoachUID: coachUID,
		FromDate: today,
	})
	if err != nil {
		return nil, err
	}
	return availability.Reconcile(rows, lessons), nil
}

func buildAvailabilityRow(coachUID string, input AvailabilityInput) (repository.AvailabilityInput, error) {
	if strings.TrimSpace(input.StartTime) == "" || strings.TrimSpace(input.EndTime) == "" ||
		strings.TrimSpace(input.Date) == "" {
		return repository.AvailabilityInput{}, errors.New("start_time, end_time and date are required")
	}
	if input.TimeBlocks <= 0 {
		return repository.AvailabilityInput{}, availability.ErrInvalidBlockSize
	}

	date, err := availability.NormalizeDate(input.Date)
	if err != nil {
		return repository.AvailabilityInput{}, err
	}
	start, err := availability.NormalizeClock(input.StartTime)
	if err != nil {
		return repository.AvailabilityInput{}, err
	}
	end, err := availability.NormalizeClock(input.EndTime)
	if err != nil {
		return repository.AvailabilityInput{}, err
	}

	breakStart, err := optionalClock(input.BreakStart)
	if err != nil {
		return repository.AvailabilityInput{}, err
	}
	breakEnd, err := optionalClock(input.BreakEnd)
	if err != nil {
		return repository.AvailabilityInput{}, err
	}

	blocks, err := availability.GenerateBookingTimes(start, end, input.TimeBlocks, deref(breakStart), deref(breakEnd))
	if err != nil {
		return repository.AvailabilityInput{}, err
	}

	return repository.AvailabilityInput{
		CoachUID:     coachUID,
		Date:         date,
		StartTime:    start,
		EndTime:      end,
		BreakStart:   breakStart,
		BreakEnd:     breakEnd,
		Recurrence:   strings.TrimSpace(input.Recurrence),
		TimeBlocks:   input.TimeBlocks,
		BookingTimes: blocks,
	}, nil
}

func optionalClock(value *string) (*string, error) {
	if value == nil || strings.TrimSpace(*value) == "" {
		return nil, nil
	}
	normalized, err := availability.NormalizeClock(*value)
	if err != nil {
		return nil, err
	}
	return &normalized, nil
}

func deref(value *string) string {
	if value == nil {
		return ""
	}
	return *value
}
