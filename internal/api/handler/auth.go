package handler

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/saturnino-fabrica-de-software/ponto/internal/domain"
	"github.com/saturnino-fabrica-de-software/ponto/internal/service"
)

type FaceService interface {
	Register(ctx context.Context, in service.RegisterInput) (*service.RegisterResult, error)
	Authenticate(ctx context.Context, frames [][]byte) (*service.AuthResult, error)
}

type PunchService interface {
	Punch(ctx context.Context, userID uuid.UUID, action domain.PunchAction) (*service.PunchResult, error)
}

// AuthHandler serves registration, face authentication and punches.
type AuthHandler struct {
	faces      FaceService
	attendance PunchService
	logger     *slog.Logger
}

func NewAuthHandler(faces FaceService, attendance PunchService, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{faces: faces, attendance: attendance, logger: logger}
}

type RegisterResponse struct {
	Success    bool      `json:"success"`
	Message    string    `json:"message"`
	UserID     uuid.UUID `json:"user_id"`
	UserNumber *int      `json:"user_number"`
	Username   string    `json:"username"`
}

type AuthenticateResponse struct {
	Success    bool      `json:"success"`
	Message    string    `json:"message"`
	UserID     uuid.UUID `json:"user_id"`
	UserNumber *int      `json:"user_number"`
	Username   string    `json:"username"`
	Confidence float64   `json:"confidence"`
	// Liveness names the signal that proved liveness, empty for single frames.
	Liveness string `json:"liveness,omitempty"`
}

type PunchRequest struct {
	UserID string `json:"user_id"`
	Action string `json:"action"`
}

type PunchResponse struct {
	Success       bool       `json:"success"`
	Message       string     `json:"message"`
	AttendanceID  uuid.UUID  `json:"attendance_id"`
	Date          domain.Day `json:"date"`
	PunchInTime   *time.Time `json:"punch_in_time"`
	PunchOutTime  *time.Time `json:"punch_out_time"`
	TotalDuration *string    `json:"total_duration"`
}

// Register POST /api/v1/auth/register - enroll a user from 3-4 face images
func (h *AuthHandler) Register(c *fiber.Ctx) error {
	images, err := readImages(c, filesField)
	if err != nil {
		return err
	}

	in := service.RegisterInput{
		Username: c.FormValue("username"),
		Images:   images,
	}

	if raw := strings.TrimSpace(c.FormValue("user_id")); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return domain.ErrValidationFailed.WithMessage("user_id must be a valid UUID")
		}
		in.UserID = &id
	}

	result, err := h.faces.Register(c.UserContext(), in)
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(RegisterResponse{
		Success:    true,
		Message:    result.Message,
		UserID:     result.User.ID,
		UserNumber: result.User.Number,
		Username:   result.User.Username,
	})
}

// Authenticate POST /api/v1/auth/authenticate - identify a face from one
// image, or from a burst of at least three frames with a liveness check
func (h *AuthHandler) Authenticate(c *fiber.Ctx) error {
	frames, err := readImages(c, filesField)
	if err != nil {
		return err
	}

	result, err := h.faces.Authenticate(c.UserContext(), frames)
	if err != nil {
		return err
	}

	resp := AuthenticateResponse{
		Success:    true,
		Message:    "Authentication successful",
		UserID:     result.User.ID,
		UserNumber: result.User.Number,
		Username:   result.User.Username,
		Confidence: result.Confidence,
	}
	if result.Liveness != nil {
		resp.Liveness = string(result.Liveness.Signal)
	}

	return c.JSON(resp)
}

// Punch POST /api/v1/auth/punch - punch in or out
func (h *AuthHandler) Punch(c *fiber.Ctx) error {
	var req PunchRequest
	if err := c.BodyParser(&req); err != nil {
		return domain.ErrBadRequest.WithError(err)
	}

	userID, err := uuid.Parse(strings.TrimSpace(req.UserID))
	if err != nil {
		return domain.ErrValidationFailed.WithMessage("user_id must be a valid UUID")
	}

	action := domain.PunchAction(req.Action)
	if !action.Valid() {
		return domain.ErrValidationFailed.WithMessage("Action must be 'punch_in' or 'punch_out'")
	}

	result, err := h.attendance.Punch(c.UserContext(), userID, action)
	if err != nil {
		return err
	}

	s := result.Session
	return c.JSON(PunchResponse{
		Success:       true,
		Message:       result.Message,
		AttendanceID:  s.ID,
		Date:          s.Day,
		PunchInTime:   s.PunchIn,
		PunchOutTime:  s.PunchOut,
		TotalDuration: s.Duration,
	})
}
