package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/saturnino-fabrica-de-software/ponto/internal/attendance"
	"github.com/saturnino-fabrica-de-software/ponto/internal/domain"
	"github.com/saturnino-fabrica-de-software/ponto/internal/repository"
)

// Default read limits of the attendance listings.
const (
	DefaultListLimit         = 100
	DefaultByDayLimit        = 500
	DefaultByUserLimit       = 100
	DefaultByUserNumberLimit = 200
)

type SessionRepository interface {
	WithUserDay(ctx context.Context, userID uuid.UUID, day domain.Day, fn func(store repository.SessionStore) error) error
	List(ctx context.Context, limit int) ([]domain.AttendanceRecord, error)
	ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]domain.AttendanceRecord, error)
	ListByDay(ctx context.Context, day domain.Day, limit int) ([]domain.AttendanceRecord, error)
	ListByUserNumber(ctx context.Context, number int, day *domain.Day, limit int) ([]domain.AttendanceRecord, error)
	ListRange(ctx context.Context, from, to domain.Day) ([]domain.AttendanceRecord, error)
}

type UserLookup interface {
	Exists(ctx context.Context, id uuid.UUID) (bool, error)
}

// AttendanceService runs the punch-in/punch-out state machine of each user
// and calendar day.
type AttendanceService struct {
	sessions SessionRepository
	users    UserLookup
	loc      *time.Location
	now      func() time.Time
	logger   *slog.Logger
}

// NewAttendanceService creates the service. loc defines the calendar used to
// decide which day a punch belongs to.
func NewAttendanceService(sessions SessionRepository, users UserLookup, loc *time.Location, logger *slog.Logger) *AttendanceService {
	if loc == nil {
		loc = time.UTC
	}
	return &AttendanceService{
		sessions: sessions,
		users:    users,
		loc:      loc,
		now:      time.Now,
		logger:   logger,
	}
}

func (s *AttendanceService) WithClock(now func() time.Time) *AttendanceService {
	s.now = now
	return s
}

// Today returns the current calendar day in the service location.
func (s *AttendanceService) Today() domain.Day {
	return domain.DayOf(s.now(), s.loc)
}

type PunchResult struct {
	Session *domain.AttendanceSession
	Message string
}

// Punch dispatches to PunchIn or PunchOut.
func (s *AttendanceService) Punch(ctx context.Context, userID uuid.UUID, action domain.PunchAction) (*PunchResult, error) {
	switch action {
	case domain.PunchIn:
		return s.PunchIn(ctx, userID)
	case domain.PunchOut:
		return s.PunchOut(ctx, userID)
	default:
		return nil, domain.ErrValidationFailed.WithMessage("action must be 'punch_in' or 'punch_out'")
	}
}

// PunchIn opens a session for today. Closed sessions of the same day do not
// block a new one.
func (s *AttendanceService) PunchIn(ctx context.Context, userID uuid.UUID) (*PunchResult, error) {
	if err := s.ensureUser(ctx, userID); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	day := domain.DayOf(now, s.loc)
	session := &domain.AttendanceSession{UserID: userID, Day: day, PunchIn: &now}

	err := s.sessions.WithUserDay(ctx, userID, day, func(store repository.SessionStore) error {
		open, err := store.FindOpen(ctx, userID, day)
		if err != nil {
			return err
		}
		if open != nil {
			return domain.ErrAlreadyOpen
		}
		return store.Insert(ctx, session)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("punch in",
		slog.String("user_id", userID.String()),
		slog.String("day", day.String()),
	)

	return &PunchResult{Session: session, Message: "Punch-in successful"}, nil
}

// PunchOut closes today's open session and stores its duration.
func (s *AttendanceService) PunchOut(ctx context.Context, userID uuid.UUID) (*PunchResult, error) {
	if err := s.ensureUser(ctx, userID); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	day := domain.DayOf(now, s.loc)

	var session *domain.AttendanceSession
	err := s.sessions.WithUserDay(ctx, userID, day, func(store repository.SessionStore) error {
		open, err := store.FindOpen(ctx, userID, day)
		if err != nil {
			return err
		}
		if open == nil {
			return domain.ErrNoOpenSession
		}

		duration := attendance.Between(*open.PunchIn, now)
		if err := store.Close(ctx, open.ID, now, duration); err != nil {
			return err
		}

		open.PunchOut = &now
		open.Duration = &duration
		session = open
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("punch out",
		slog.String("user_id", userID.String()),
		slog.String("day", day.String()),
		slog.String("duration", *session.Duration),
	)

	return &PunchResult{Session: session, Message: "Punch-out successful"}, nil
}

func (s *AttendanceService) ensureUser(ctx context.Context, userID uuid.UUID) error {
	exists, err := s.users.Exists(ctx, userID)
	if err != nil {
		return fmt.Errorf("lookup user: %w", err)
	}
	if !exists {
		return domain.ErrUserNotFound
	}
	return nil
}

func (s *AttendanceService) List(ctx context.Context, limit int) ([]domain.AttendanceRecord, error) {
	return s.sessions.List(ctx, limitOr(limit, DefaultListLimit))
}

func (s *AttendanceService) ListToday(ctx context.Context) ([]domain.AttendanceRecord, error) {
	return s.ListByDay(ctx, s.Today(), 0)
}

func (s *AttendanceService) ListByDay(ctx context.Context, day domain.Day, limit int) ([]domain.AttendanceRecord, error) {
	return s.sessions.ListByDay(ctx, day, limitOr(limit, DefaultByDayLimit))
}

func (s *AttendanceService) ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]domain.AttendanceRecord, error) {
	return s.sessions.ListByUser(ctx, userID, limitOr(limit, DefaultByUserLimit))
}

// ListByUserNumber returns an empty list when no user holds number.
func (s *AttendanceService) ListByUserNumber(ctx context.Context, number int, day *domain.Day, limit int) ([]domain.AttendanceRecord, error) {
	return s.sessions.ListByUserNumber(ctx, number, day, limitOr(limit, DefaultByUserNumberLimit))
}

// DailySummary groups every session of day per user with the summed duration.
// Open sessions count as zero.
func (s *AttendanceService) DailySummary(ctx context.Context, day domain.Day) ([]domain.DailySummary, error) {
	records, err := s.sessions.ListRange(ctx, day, day)
	if err != nil {
		return nil, err
	}
	return attendance.Summarize(day, records), nil
}

// Report builds the daily summaries of every day between from and to, both
// inclusive. Days without sessions are omitted.
func (s *AttendanceService) Report(ctx context.Context, from, to domain.Day) ([]domain.DailySummary, error) {
	if to.Time().Before(from.Time()) {
		return nil, domain.ErrValidationFailed.WithMessage("from must not be after to")
	}

	records, err := s.sessions.ListRange(ctx, from, to)
	if err != nil {
		return nil, err
	}

	byDay := make(map[domain.Day][]domain.AttendanceRecord)
	var days []domain.Day
	for _, rec := range records {
		if _, ok := byDay[rec.Day]; !ok {
			days = append(days, rec.Day)
		}
		byDay[rec.Day] = append(byDay[rec.Day], rec)
	}

	report := []domain.DailySummary{}
	for _, day := range days {
		report = append(report, attendance.Summarize(day, byDay[day])...)
	}
	return report, nil
}

func limitOr(limit, def int) int {
	if limit <= 0 {
		return def
	}
	return limit
}
