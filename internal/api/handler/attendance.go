package handler

import (
	"context"
	"log/slog"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/saturnino-fabrica-de-software/ponto/internal/domain"
)

type AttendanceService interface {
	List(ctx context.Context, limit int) ([]domain.AttendanceRecord, error)
	ListToday(ctx context.Context) ([]domain.AttendanceRecord, error)
	ListByDay(ctx context.Context, day domain.Day, limit int) ([]domain.AttendanceRecord, error)
	ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]domain.AttendanceRecord, error)
	ListByUserNumber(ctx context.Context, number int, day *domain.Day, limit int) ([]domain.AttendanceRecord, error)
	DailySummary(ctx context.Context, day domain.Day) ([]domain.DailySummary, error)
}

type AttendanceHandler struct {
	attendance AttendanceService
	logger     *slog.Logger
}

func NewAttendanceHandler(attendance AttendanceService, logger *slog.Logger) *AttendanceHandler {
	return &AttendanceHandler{attendance: attendance, logger: logger}
}

type DailySummaryResponse struct {
	Date      domain.Day            `json:"date"`
	Summaries []domain.DailySummary `json:"summaries"`
}

// List GET /api/v1/attendance?limit=
func (h *AttendanceHandler) List(c *fiber.Ctx) error {
	limit, err := queryLimit(c)
	if err != nil {
		return err
	}
	records, err := h.attendance.List(c.UserContext(), limit)
	if err != nil {
		return err
	}
	return c.JSON(records)
}

// Today GET /api/v1/attendance/today
func (h *AttendanceHandler) Today(c *fiber.Ctx) error {
	records, err := h.attendance.ListToday(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(records)
}

// ByDate GET /api/v1/attendance/by-date?date=YYYY-MM-DD&limit=
func (h *AttendanceHandler) ByDate(c *fiber.Ctx) error {
	day, err := requiredDate(c)
	if err != nil {
		return err
	}
	limit, err := queryLimit(c)
	if err != nil {
		return err
	}
	records, err := h.attendance.ListByDay(c.UserContext(), day, limit)
	if err != nil {
		return err
	}
	return c.JSON(records)
}

// ByUser GET /api/v1/attendance/user/:id?limit=
//
// A malformed id names no user and yields an empty list.
func (h *AttendanceHandler) ByUser(c *fiber.Ctx) error {
	limit, err := queryLimit(c)
	if err != nil {
		return err
	}
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.JSON([]domain.AttendanceRecord{})
	}
	records, err := h.attendance.ListByUser(c.UserContext(), id, limit)
	if err != nil {
		return err
	}
	return c.JSON(records)
}

// ByUserNumber GET /api/v1/attendance/user-number/:number?date=&limit=
func (h *AttendanceHandler) ByUserNumber(c *fiber.Ctx) error {
	number, err := c.ParamsInt("number")
	if err != nil {
		return domain.ErrValidationFailed.WithMessage("user number must be an integer")
	}
	limit, err := queryLimit(c)
	if err != nil {
		return err
	}

	var day *domain.Day
	if raw := c.Query("date"); raw != "" {
		d, err := domain.ParseDay(raw)
		if err != nil {
			return invalidDate()
		}
		day = &d
	}

	records, err := h.attendance.ListByUserNumber(c.UserContext(), number, day, limit)
	if err != nil {
		return err
	}
	return c.JSON(records)
}

// DailySummary GET /api/v1/attendance/daily-summary?date=YYYY-MM-DD
func (h *AttendanceHandler) DailySummary(c *fiber.Ctx) error {
	day, err := requiredDate(c)
	if err != nil {
		return err
	}
	summaries, err := h.attendance.DailySummary(c.UserContext(), day)
	if err != nil {
		return err
	}
	return c.JSON(DailySummaryResponse{Date: day, Summaries: summaries})
}

// queryLimit reads the optional limit parameter; zero lets the service pick
// its default.
func queryLimit(c *fiber.Ctx) (int, error) {
	raw := c.Query("limit")
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 0, domain.ErrValidationFailed.WithMessage("limit must be a positive integer")
	}
	return n, nil
}

func requiredDate(c *fiber.Ctx) (domain.Day, error) {
	day, err := domain.ParseDay(c.Query("date"))
	if err != nil {
		return domain.Day{}, invalidDate()
	}
	return day, nil
}

func invalidDate() error {
	return domain.ErrValidationFailed.WithMessage("date must be formatted as YYYY-MM-DD")
}
