package policy

import (
	"time"

	"github.com/shopspring/decimal"
)

const DefaultMaxPendingLessons = 5

// DefaultNoticeTiers are indexed by how many penalty-free cancellations the
// student already has; the last tier applies to every count beyond it.
var DefaultNoticeTiers = []time.Duration{2 * time.Hour, 24 * time.Hour, 48 * time.Hour}

var DefaultLessonRate = decimal.NewFromInt(50)

type Booking struct {
	LessonRate        decimal.Decimal
	MaxPendingLessons int
	NoticeTiers       []time.Duration
}

func Default() Booking {
	tiers := make([]time.Duration, len(DefaultNoticeTiers))
	copy(tiers, DefaultNoticeTiers)
	return Booking{
		LessonRate:        DefaultLessonRate,
		MaxPendingLessons: DefaultMaxPendingLessons,
		NoticeTiers:       tiers,
	}
}

// Cancellation is the outcome of applying the notice-window rule to one
// student cancellation.
type Cancellation struct {
	PriorCancellations int
	Window             time.Duration
	Deadline           time.Time
	Late               bool
}

func (b Booking) NoticeWindow(priorCancellations int) time.Duration {
	return NoticeWindow(priorCancellations, b.NoticeTiers)
}

func (b Booking) EvaluateCancellation(priorCancellations int, lessonStart, now time.Time) Cancellation {
	window := b.NoticeWindow(priorCancellations)
	deadline := lessonStart.Add(-window)
	return Cancellation{
		PriorCancellations: priorCancellations,
		Window:             window,
		Deadline:           deadline,
		Late:               IsLate(lessonStart, now, window),
	}
}

// NoticeWindow clamps the tier index to the last tier. With no tiers there is
// no notice requirement.
func NoticeWindow(priorCancellations int, tiers []time.Duration) time.Duration {
	if len(tiers) == 0 {
		return 0
	}
	idx := priorCancellations
	if idx < 0 {
		idx = 0
	}
	if idx > len(tiers)-1 {
		idx = len(tiers) - 1
	}
	return tiers[idx]
}

func IsLate(lessonStart, now time.Time, window time.Duration) bool {
	return now.After(lessonStart.Add(-window))
}
