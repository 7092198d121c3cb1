package models

import "time"

// BookingTime is one fixed-size bookable block derived from an Availability row.
type BookingTime struct {
	Start string `json:"booking_time_start"`
	End   string `json:"booking_time_end"`
}

type Availability struct {
	ID           int64         `json:"id"`
	CoachUID     string        `json:"coach_uid"`
	Date         string        `json:"date"`
	StartTime    string        `json:"start_time"`
	EndTime      string        `json:"end_time"`
	BreakStart   *string       `json:"break_start"`
	BreakEnd     *string       `json:"break_end"`
	Recurrence   string        `json:"recurrence"`
	TimeBlocks   int           `json:"time_blocks"`
	BookingTimes []BookingTime `json:"booking_times"`
	CreatedAt    time.Time     `json:"created_at"`
	UpdatedAt    time.Time     `json:"updated_at"`
}

// AvailableSlot is the coach-facing view of an Availability row after booked
// blocks have been removed.
type AvailableSlot struct {
	ID                    int64         `json:"id"`
	Date                  string        `json:"date"`
	StartTime             string        `json:"start_time"`
	EndTime               string        `json:"end_time"`
	BreakStart            *string       `json:"break_start,omitempty"`
	BreakEnd              *string       `json:"break_end,omitempty"`
	Recurrence            string        `json:"recurrence,omitempty"`
	TimeBlocks            int           `json:"time_blocks"`
	AvailableBookingTimes []BookingTime `json:"available_booking_times"`
}

// PublicSlot is what a student sees when browsing a coach.
type PublicSlot struct {
	Date                  string        `json:"date"`
	AvailableBookingTimes []BookingTime `json:"available_booking_times"`
}
