package domain

import (
	"time"

	"github.com/google/uuid"
)

// SessionState is the punch state of one attendance session row.
type SessionState string

const (
	SessionNone   SessionState = "none"
	SessionOpen   SessionState = "open"
	SessionClosed SessionState = "closed"
)

// AttendanceSession is one punch-in/punch-out cycle of a user on a calendar day.
type AttendanceSession struct {
	ID        uuid.UUID  `json:"attendance_id"`
	UserID    uuid.UUID  `json:"user_id"`
	Day       Day        `json:"date"`
	PunchIn   *time.Time `json:"punch_in_time"`
	PunchOut  *time.Time `json:"punch_out_time"`
	Duration  *string    `json:"total_duration"`
	CreatedAt time.Time  `json:"created_at"`
}

func (s *AttendanceSession) State() SessionState {
	switch {
	case s == nil || s.PunchIn == nil:
		return SessionNone
	case s.PunchOut == nil:
		return SessionOpen
	default:
		return SessionClosed
	}
}

// AttendanceRecord is a session joined with the owning user's display fields.
type AttendanceRecord struct {
	AttendanceSession
	UserNumber *int   `json:"user_number"`
	Username   string `json:"username"`
}

// SessionSpan is one session line inside a daily summary.
type SessionSpan struct {
	PunchIn  *time.Time `json:"punch_in_time"`
	PunchOut *time.Time `json:"punch_out_time"`
	Duration string     `json:"total_duration"`
}

// DailySummary groups one user's sessions of a day with their summed duration.
type DailySummary struct {
	UserID        uuid.UUID     `json:"user_id"`
	UserNumber    *int          `json:"user_number"`
	Username      string        `json:"username"`
	Day           Day           `json:"date"`
	Sessions      []SessionSpan `json:"sessions"`
	TotalDuration string        `json:"total_duration"`
}

// PunchAction selects the attendance transition requested by a caller.
type PunchAction string

const (
	PunchIn  PunchAction = "punch_in"
	PunchOut PunchAction = "punch_out"
)

func (a PunchAction) Valid() bool {
	return a == PunchIn || a == PunchOut
}
