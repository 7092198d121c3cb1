package availability

import (
	"errors"

	"github.com/saeid-a/CoachBookingBack/internal/models"
)

var (
	ErrInvalidBlockSize = errors.New("block size must be greater than 0")
	ErrInvalidTimeRange = errors.New("end time must be after start time")
	ErrInvalidBreak     = errors.New("break must have both bounds and end after it starts")
)

// GenerateBookingTimes tiles [start, end) with blocks of blockSize minutes.
// A trailing remainder shorter than blockSize is dropped, and any block that
// overlaps [breakStart, breakEnd) is skipped whole. Empty break bounds mean no
// break.
func GenerateBookingTimes(start, end string, blockSize int, breakStart, breakEnd string) ([]models.BookingTime, error) {
	if blockSize <= 0 {
		return nil, ErrInvalidBlockSize
	}
	startMin, err := ParseClock(start)
	if err != nil {
		return nil, err
	}
	endMin, err := ParseClock(end)
	if err != nil {
		return nil, err
	}
	if endMin <= startMin {
		return nil, ErrInvalidTimeRange
	}

	hasBreak := false
	var breakStartMin, breakEndMin int
	if breakStart != "" || breakEnd != "" {
		if breakStart == "" || breakEnd == "" {
			return nil, ErrInvalidBreak
		}
		if breakStartMin, err = ParseClock(breakStart); err != nil {
			return nil, err
		}
		if breakEndMin, err = ParseClock(breakEnd); err != nil {
			return nil, err
		}
		if breakEndMin <= breakStartMin {
			return nil, ErrInvalidBreak
		}
		hasBreak = true
	}

	blocks := make([]models.BookingTime, 0, (endMin-startMin)/blockSize)
	for t := startMin; t+blockSize <= endMin; t += blockSize {
		blockStart, blockEnd := t, t+blockSize
		if hasBreak && blockEnd > breakStartMin && blockStart < breakEndMin {
			continue
		}
		blocks = append(blocks, models.BookingTime{
			Start: FormatClock(blockStart),
			End:   FormatClock(blockEnd),
		})
	}
	return blocks, nil
}
