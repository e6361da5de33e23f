package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/saturnino-fabrica-de-software/ponto/internal/domain"
)

// SessionStore is the view of the attendance table inside a WithUserDay
// transaction.
type SessionStore interface {
	// FindOpen returns the open session of the user on day, nil when there is
	// none.
	FindOpen(ctx context.Context, userID uuid.UUID, day domain.Day) (*domain.AttendanceSession, error)
	Insert(ctx context.Context, session *domain.AttendanceSession) error
	Close(ctx context.Context, id uuid.UUID, punchOut time.Time, duration string) error
}

type AttendanceRepository struct {
	pool PgxPool
}

func NewAttendanceRepository(pool PgxPool) *AttendanceRepository {
	return &AttendanceRepository{pool: pool}
}

// WithUserDay runs fn in a transaction holding an advisory lock on the
// (user, day) pair, so that punch transitions of the same user and day never
// interleave. The transaction commits when fn returns nil.
func (r *AttendanceRepository) WithUserDay(ctx context.Context, userID uuid.UUID, day domain.Day, fn func(store SessionStore) error) error {
	return inTx(ctx, r.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtextextended($1, 0))`, lockKey(userID, day)); err != nil {
			return fmt.Errorf("lock attendance %s: %w", day, err)
		}
		return fn(&sessionStore{tx: tx})
	})
}

func lockKey(userID uuid.UUID, day domain.Day) string {
	return "attendance:" + userID.String() + ":" + day.String()
}

type sessionStore struct {
	tx pgx.Tx
}

func (s *sessionStore) FindOpen(ctx context.Context, userID uuid.UUID, day domain.Day) (*domain.AttendanceSession, error) {
	query := `
		SELECT id, user_id, day, punch_in, punch_out, duration, created_at
		FROM attendance
		WHERE user_id = $1 AND day = $2 AND punch_in IS NOT NULL AND punch_out IS NULL
		ORDER BY created_at DESC
		LIMIT 1
	`

	session, err := scanSession(s.tx.QueryRow(ctx, query, userID, day.Time()))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find open session: %w", err)
	}

	return session, nil
}

func (s *sessionStore) Insert(ctx context.Context, session *domain.AttendanceSession) error {
	if session.ID == uuid.Nil {
		session.ID = uuid.New()
	}

	err := s.tx.QueryRow(ctx, `
		INSERT INTO attendance (id, user_id, day, punch_in, created_at)
		VALUES ($1, $2, $3, $4, NOW())
		RETURNING created_at
	`, session.ID, session.UserID, session.Day.Time(), session.PunchIn).Scan(&session.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrAlreadyOpen
		}
		return fmt.Errorf("insert session: %w", err)
	}

	return nil
}

func (s *sessionStore) Close(ctx context.Context, id uuid.UUID, punchOut time.Time, duration string) error {
	tag, err := s.tx.Exec(ctx, `
		UPDATE attendance SET punch_out = $2, duration = $3
		WHERE id = $1 AND punch_out IS NULL
	`, id, punchOut, duration)
	if err != nil {
		return fmt.Errorf("close session: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNoOpenSession
	}
	return nil
}

const recordColumns = `
	SELECT a.id, a.user_id, a.day, a.punch_in, a.punch_out, a.duration, a.created_at, u.user_number, u.username
	FROM attendance a
	JOIN app_users u ON u.id = a.user_id
`

// List returns the most recent sessions of all users, newest first.
func (r *AttendanceRepository) List(ctx context.Context, limit int) ([]domain.AttendanceRecord, error) {
	return r.queryRecords(ctx, "list attendance",
		recordColumns+` ORDER BY a.created_at DESC LIMIT $1`, limit)
}

func (r *AttendanceRepository) ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]domain.AttendanceRecord, error) {
	return r.queryRecords(ctx, "list attendance by user",
		recordColumns+` WHERE a.user_id = $1 ORDER BY a.created_at DESC LIMIT $2`, userID, limit)
}

func (r *AttendanceRepository) ListByDay(ctx context.Context, day domain.Day, limit int) ([]domain.AttendanceRecord, error) {
	return r.queryRecords(ctx, "list attendance by day",
		recordColumns+` WHERE a.day = $1 ORDER BY a.created_at DESC LIMIT $2`, day.Time(), limit)
}

// ListByUserNumber lists the sessions of the user holding number, optionally
// restricted to one day.
func (r *AttendanceRepository) ListByUserNumber(ctx context.Context, number int, day *domain.Day, limit int) ([]domain.AttendanceRecord, error) {
	if day == nil {
		return r.queryRecords(ctx, "list attendance by user number",
			recordColumns+` WHERE u.user_number = $1 ORDER BY a.created_at DESC LIMIT $2`, number, limit)
	}
	return r.queryRecords(ctx, "list attendance by user number",
		recordColumns+` WHERE u.user_number = $1 AND a.day = $2 ORDER BY a.created_at DESC LIMIT $3`, number, day.Time(), limit)
}

// ListRange returns every session between from and to, both inclusive,
// ordered by day and punch-in.
func (r *AttendanceRepository) ListRange(ctx context.Context, from, to domain.Day) ([]domain.AttendanceRecord, error) {
	return r.queryRecords(ctx, "list attendance range",
		recordColumns+` WHERE a.day BETWEEN $1 AND $2 ORDER BY a.day ASC, a.punch_in ASC`, from.Time(), to.Time())
}

func (r *AttendanceRepository) queryRecords(ctx context.Context, op, query string, args ...any) ([]domain.AttendanceRecord, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	records := []domain.AttendanceRecord{}
	for rows.Next() {
		var rec domain.AttendanceRecord
		var day time.Time
		err := rows.Scan(
			&rec.ID,
			&rec.UserID,
			&day,
			&rec.PunchIn,
			&rec.PunchOut,
			&rec.Duration,
			&rec.CreatedAt,
			&rec.UserNumber,
			&rec.Username,
		)
		if err != nil {
			return nil, fmt.Errorf("%s: scan: %w", op, err)
		}
		rec.Day = dayFromDate(day)
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return records, nil
}

func scanSession(row pgx.Row) (*domain.AttendanceSession, error) {
	var s domain.AttendanceSession
	var day time.Time
	err := row.Scan(&s.ID, &s.UserID, &day, &s.PunchIn, &s.PunchOut, &s.Duration, &s.CreatedAt)
	if err != nil {
		return nil, err
	}
	s.Day = dayFromDate(day)
	return &s, nil
}
