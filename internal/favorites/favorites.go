// Package favorites keeps a student's favorite coaches as an ordered set,
// where insertion order is preference rank.
package favorites

import (
	"errors"
	"sort"

	"github.com/saeid-a/CoachBookingBack/internal/models"
)

var (
	ErrAlreadyPresent = errors.New("coach is already a favorite")
	ErrAbsent         = errors.New("coach is not a favorite")
)

type Set struct {
	order []string
	index map[string]int
}

func NewSet(coachUIDs ...string) *Set {
	s := &Set{index: make(map[string]int, len(coachUIDs))}
	for _, uid := range coachUIDs {
		_ = s.Add(uid)
	}
	return s
}

func (s *Set) Add(coachUID string) error {
	if s.Contains(coachUID) {
		return ErrAlreadyPresent
	}
	s.index[coachUID] = len(s.order)
	s.order = append(s.order, coachUID)
	return nil
}

func (s *Set) Remove(coachUID string) error {
	pos, ok := s.index[coachUID]
	if !ok {
		return ErrAbsent
	}
	s.order = append(s.order[:pos], s.order[pos+1:]...)
	delete(s.index, coachUID)
	for i := pos; i < len(s.order); i++ {
		s.index[s.order[i]] = i
	}
	return nil
}

func (s *Set) Contains(coachUID string) bool {
	_, ok := s.index[coachUID]
	return ok
}

// Rank returns the zero-based preference rank, or -1 when absent.
func (s *Set) Rank(coachUID string) int {
	if pos, ok := s.index[coachUID]; ok {
		return pos
	}
	return -1
}

func (s *Set) Items() []string {
	items := make([]string, len(s.order))
	copy(items, s.order)
	return items
}

// RankCoaches orders favorites first by rank, then everyone else in their
// incoming order, and marks each entry.
func RankCoaches(coaches []models.User, set *Set) []models.CoachListResponse {
	ranked := make([]models.CoachListResponse, 0, len(coaches))
	ranks := make([]int, 0, len(coaches))
	for _, coach := range coaches {
		rank := set.Rank(coach.UID)
		ranked = append(ranked, models.CoachListResponse{
			UID:        coach.UID,
			FirstName:  coach.FirstName,
			LastName:   coach.LastName,
			Email:      coach.Email,
			IsFavorite: rank >= 0,
		})
		ranks = append(ranks, rank)
	}

	idx := make([]int, len(ranked))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		ra, rb := ranks[idx[a]], ranks[idx[b]]
		switch {
		case ra >= 0 && rb >= 0:
			return ra < rb
		case ra >= 0:
			return true
		default:
			return false
		}
	})

	out := make([]models.CoachListResponse, 0, len(ranked))
	for _, i := range idx {
		out = append(out, ranked[i])
	}
	return out
}
