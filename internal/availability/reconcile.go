package availability

import (
	"sort"

	"github.com/saeid-a/CoachBookingBack/internal/models"
)

type slotKey struct {
	date  string
	start string
	end   string
}

// Reconcile removes every booking block whose (date, start, end) exactly
// matches a lesson that still occupies its slot. Rows left without blocks are
// omitted. The result is ordered by date, then by stored block order.
func Reconcile(rows []models.Availability, lessons []models.Lesson) []models.AvailableSlot {
	booked := make(map[slotKey]struct{}, len(lessons))
	for _, lesson := range lessons {
		if lesson.Status == models.LessonCanceled {
			continue
		}
		booked[keyOf(lesson.Date, lesson.StartTime, lesson.EndTime)] = struct{}{}
	}

	ordered := make([]models.Availability, len(rows))
	copy(ordered, rows)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Date < ordered[j].Date
	})

	slots := make([]models.AvailableSlot, 0, len(ordered))
	for _, row := range ordered {
		free := make([]models.BookingTime, 0, len(row.BookingTimes))
		for _, block := range row.BookingTimes {
			if _, taken := booked[keyOf(row.Date, block.Start, block.End)]; taken {
				continue
			}
			free = append(free, block)
		}
		if len(free) == 0 {
			continue
		}
		slots = append(slots, models.AvailableSlot{
			ID:                    row.ID,
			Date:                  row.Date,
			StartTime:             row.StartTime,
			EndTime:               row.EndTime,
			BreakStart:            row.BreakStart,
			BreakEnd:              row.BreakEnd,
			Recurrence:            row.Recurrence,
			TimeBlocks:            row.TimeBlocks,
			AvailableBookingTimes: free,
		})
	}
	return slots
}

// Public strips coach-internal fields from reconciled slots.
func Public(slots []models.AvailableSlot) []models.PublicSlot {
	public := make([]models.PublicSlot, 0, len(slots))
	for _, slot := range slots {
		public = append(public, models.PublicSlot{
			Date:                  slot.Date,
			AvailableBookingTimes: slot.AvailableBookingTimes,
		})
	}
	return public
}

func keyOf(date, start, end string) slotKey {
	return slotKey{date: date, start: canonicalClock(start), end: canonicalClock(end)}
}

func canonicalClock(value string) string {
	if normalized, err := NormalizeClock(value); err == nil {
		return normalized
	}
	return value
}
