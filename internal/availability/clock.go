package availability

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	clockLayout = "15:04"
	dateLayout  = "2006-01-02"
)

var (
	ErrInvalidClock = errors.New("invalid clock time")
	ErrInvalidDate  = errors.New("invalid date")
)

// ParseClock converts "HH:MM" (or "HH:MM:SS") into minutes after midnight.
func ParseClock(value string) (int, error) {
	value = strings.TrimSpace(value)
	if len(value) == 8 && value[5] == ':' {
		value = value[:5]
	}
	t, err := time.Parse(clockLayout, value)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidClock, value)
	}
	return t.Hour()*60 + t.Minute(), nil
}

func FormatClock(minutes int) string {
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}

// NormalizeClock returns value in canonical "HH:MM" form.
func NormalizeClock(value string) (string, error) {
	minutes, err := ParseClock(value)
	if err != nil {
		return "", err
	}
	return FormatClock(minutes), nil
}

// NormalizeDate accepts "YYYY-MM-DD" or an RFC3339 timestamp and returns the
// calendar day part.
func NormalizeDate(value string) (string, error) {
	value = strings.TrimSpace(value)
	if i := strings.IndexByte(value, 'T'); i >= 0 {
		value = value[:i]
	}
	if _, err := time.Parse(dateLayout, value); err != nil {
		return "", fmt.Errorf("%w: %q", ErrInvalidDate, value)
	}
	return value, nil
}

// Today returns the calendar day of now in loc.
func Today(now time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}
	return now.In(loc).Format(dateLayout)
}

// At combines a calendar day and a clock time into an instant in loc.
func At(date, clock string, loc *time.Location) (time.Time, error) {
	day, err := NormalizeDate(date)
	if err != nil {
		return time.Time{}, err
	}
	minutes, err := ParseClock(clock)
	if err != nil {
		return time.Time{}, err
	}
	if loc == nil {
		loc = time.UTC
	}
	t, err := time.ParseInLocation(dateLayout, day, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, day)
	}
	return t.Add(time.Duration(minutes) * time.Minute), nil
}
