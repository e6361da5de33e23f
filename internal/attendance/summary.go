package attendance

import (
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/saturnino-fabrica-de-software/ponto/internal/domain"
)

// Summarize groups the records of day per user. Sessions are listed by
// punch-in time and their durations summed; open sessions count as zero.
// Users are ordered by sequence number, users without one last.
func Summarize(day domain.Day, records []domain.AttendanceRecord) []domain.DailySummary {
	byUser := make(map[uuid.UUID]*domain.DailySummary)
	totals := make(map[uuid.UUID]int64)
	var order []uuid.UUID

	sorted := make([]domain.AttendanceRecord, 0, len(records))
	for _, r := range records {
		if r.Day == day {
			sorted = append(sorted, r)
		}
	}
	sort.SliceStable(sorted, func(i, j int) bool {
		return punchInBefore(sorted[i].PunchIn, sorted[j].PunchIn)
	})

	for _, r := range sorted {
		s, ok := byUser[r.UserID]
		if !ok {
			s = &domain.DailySummary{
				UserID:     r.UserID,
				UserNumber: r.UserNumber,
				Username:   r.Username,
				Day:        day,
				Sessions:   []domain.SessionSpan{},
			}
			byUser[r.UserID] = s
			order = append(order, r.UserID)
		}

		duration := FormatDuration(0)
		if r.Duration != nil && r.State() == domain.SessionClosed {
			duration = *r.Duration
			totals[r.UserID] += ParseDuration(duration)
		}
		s.Sessions = append(s.Sessions, domain.SessionSpan{
			PunchIn:  r.PunchIn,
			PunchOut: r.PunchOut,
			Duration: duration,
		})
	}

	out := make([]domain.DailySummary, 0, len(order))
	for _, id := range order {
		s := byUser[id]
		s.TotalDuration = FormatDuration(totals[id])
		out = append(out, *s)
	}

	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i].UserNumber, out[j].UserNumber
		switch {
		case a == nil && b == nil:
			return out[i].Username < out[j].Username
		case a == nil:
			return false
		case b == nil:
			return true
		default:
			return *a < *b
		}
	})
	return out
}

// punchInBefore orders sessions by punch-in, sessions without one last.
func punchInBefore(a, b *time.Time) bool {
	switch {
	case a == nil:
		return false
	case b == nil:
		return true
	default:
		return a.Before(*b)
	}
}
