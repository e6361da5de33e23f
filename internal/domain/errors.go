package domain

import (
	"errors"
	"fmt"
)

type AppError struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	StatusCode int    `json:"-"`
	Err        error  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Is matches AppErrors by code so that copies made by WithError still
// satisfy errors.Is against the predefined value.
func (e *AppError) Is(target error) bool {
	var t *AppError
	if !errors.As(target, &t) {
		return false
	}
	return e.Code == t.Code
}

func (e *AppError) WithError(err error) *AppError {
	return &AppError{
		Code:       e.Code,
		Message:    e.Message,
		StatusCode: e.StatusCode,
		Err:        err,
	}
}

// WithMessage returns a copy carrying a more specific human-readable message.
func (e *AppError) WithMessage(msg string) *AppError {
	return &AppError{
		Code:       e.Code,
		Message:    msg,
		StatusCode: e.StatusCode,
		Err:        e.Err,
	}
}

// Pre-defined errors
var (
	ErrInternal = &AppError{
		Code:       "INTERNAL_ERROR",
		Message:    "An unexpected error occurred",
		StatusCode: 500,
	}

	ErrBadRequest = &AppError{
		Code:       "BAD_REQUEST",
		Message:    "Invalid request",
		StatusCode: 400,
	}

	ErrValidationFailed = &AppError{
		Code:       "VALIDATION_FAILED",
		Message:    "Request validation failed",
		StatusCode: 400,
	}

	ErrInvalidImage = &AppError{
		Code:       "INVALID_IMAGE",
		Message:    "Invalid image format or corrupted file",
		StatusCode: 400,
	}

	ErrTooFewImages = &AppError{
		Code:       "TOO_FEW_IMAGES",
		Message:    "Not enough face images supplied",
		StatusCode: 400,
	}

	ErrTooManyImages = &AppError{
		Code:       "TOO_MANY_IMAGES",
		Message:    "Too many face images supplied",
		StatusCode: 400,
	}

	ErrRateLimitExceeded = &AppError{
		Code:       "RATE_LIMIT_EXCEEDED",
		Message:    "Too many requests, please slow down",
		StatusCode: 429,
	}

	ErrUserNotFound = &AppError{
		Code:       "USER_NOT_FOUND",
		Message:    "User not found",
		StatusCode: 404,
	}

	// Face errors
	ErrNoFaceDetected = &AppError{
		Code:       "NO_FACE_DETECTED",
		Message:    "No face detected in image",
		StatusCode: 422,
	}

	ErrDuplicateFace = &AppError{
		Code:       "DUPLICATE_FACE",
		Message:    "This face is already registered. Please use a different person.",
		StatusCode: 409,
	}

	ErrInsufficientFrames = &AppError{
		Code:       "INSUFFICIENT_FRAMES",
		Message:    "For liveness check please provide at least 3 frames (capture a short sequence).",
		StatusCode: 400,
	}

	ErrLivenessFailed = &AppError{
		Code:       "LIVENESS_FAILED",
		Message:    "Liveness check failed. Please try again with a live face (move slightly or blink).",
		StatusCode: 401,
	}

	ErrNotRecognized = &AppError{
		Code:       "NOT_RECOGNIZED",
		Message:    "Face not recognized. Please register first.",
		StatusCode: 401,
	}

	ErrAmbiguousMatch = &AppError{
		Code:       "AMBIGUOUS_MATCH",
		Message:    "Face not recognized. Please register first.",
		StatusCode: 401,
	}

	// Attendance errors
	ErrAlreadyOpen = &AppError{
		Code:       "ALREADY_PUNCHED_IN",
		Message:    "You have already punched in today. Please punch out first.",
		StatusCode: 409,
	}

	ErrNoOpenSession = &AppError{
		Code:       "NO_OPEN_SESSION",
		Message:    "No punch-in found for today. Please punch in first.",
		StatusCode: 409,
	}

	// Store errors
	ErrStoreConflict = &AppError{
		Code:       "STORE_CONFLICT",
		Message:    "The operation conflicted with a concurrent change, please retry",
		StatusCode: 409,
	}

	ErrIdentifierInUse = &AppError{
		Code:       "STORE_CONFLICT",
		Message:    "This user_id is already in use. Choose a different one or leave empty to auto-generate.",
		StatusCode: 409,
	}
)

// ImageError reports which enrollment image (1-based) failed extraction.
type ImageError struct {
	Index int
	Err   error
}

func (e *ImageError) Error() string {
	return fmt.Sprintf("image %d: %v", e.Index, e.Err)
}

func (e *ImageError) Unwrap() error {
	return e.Err
}

// AsAppError converts an ImageError into the AppError shown to callers.
func (e *ImageError) AsAppError() *AppError {
	return ErrNoFaceDetected.
		WithMessage(fmt.Sprintf("Failed to detect face in image %d. Please ensure face is clearly visible.", e.Index)).
		WithError(e.Err)
}
