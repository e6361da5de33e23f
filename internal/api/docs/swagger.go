package docs

import (
	"github.com/go-swagno/swagno"
	"github.com/go-swagno/swagno/components/endpoint"
	"github.com/go-swagno/swagno/components/http/response"
	"github.com/go-swagno/swagno/components/mime"
	"github.com/go-swagno/swagno/components/parameter"
)

// RegisterResponse represents the response for a successful registration
type RegisterResponse struct {
	Success    bool   `json:"success" example:"true"`
	Message    string `json:"message" example:"User registered successfully with 3 face images"`
	UserID     string `json:"user_id" example:"550e8400-e29b-41d4-a716-446655440000"`
	UserNumber int    `json:"user_number" example:"7"`
	Username   string `json:"username" example:"maria"`
}

// AuthenticateResponse represents the response for a recognized face
type AuthenticateResponse struct {
	Success    bool    `json:"success" example:"true"`
	Message    string  `json:"message" example:"Authentication successful"`
	UserID     string  `json:"user_id" example:"550e8400-e29b-41d4-a716-446655440000"`
	UserNumber int     `json:"user_number" example:"7"`
	Username   string  `json:"username" example:"maria"`
	Confidence float64 `json:"confidence" example:"0.71"`
	Liveness   string  `json:"liveness,omitempty" example:"movement"`
}

// PunchResponse represents the session after a punch
type PunchResponse struct {
	Success       bool   `json:"success" example:"true"`
	Message       string `json:"message" example:"Punch-out successful"`
	AttendanceID  string `json:"attendance_id" example:"6f1c2b9e-8d0a-4a57-9a43-1f3c1d6b2e10"`
	Date          string `json:"date" example:"2026-03-09"`
	PunchInTime   string `json:"punch_in_time" example:"2026-03-09T08:00:00Z"`
	PunchOutTime  string `json:"punch_out_time" example:"2026-03-09T17:30:00Z"`
	TotalDuration string `json:"total_duration" example:"09:30:00"`
}

// UserResponse represents a registered user
type UserResponse struct {
	UserID     string `json:"user_id" example:"550e8400-e29b-41d4-a716-446655440000"`
	UserNumber int    `json:"user_number" example:"7"`
	Username   string `json:"username" example:"maria"`
	CreatedAt  string `json:"created_at" example:"2026-03-01T12:00:00Z"`
}

// UserCountResponse represents the number of registered users
type UserCountResponse struct {
	TotalUsers int `json:"total_users" example:"42"`
}

// AttendanceRecord represents one attendance session
type AttendanceRecord struct {
	AttendanceID  string `json:"attendance_id" example:"6f1c2b9e-8d0a-4a57-9a43-1f3c1d6b2e10"`
	UserID        string `json:"user_id" example:"550e8400-e29b-41d4-a716-446655440000"`
	UserNumber    int    `json:"user_number" example:"7"`
	Username      string `json:"username" example:"maria"`
	Date          string `json:"date" example:"2026-03-09"`
	PunchInTime   string `json:"punch_in_time" example:"2026-03-09T08:00:00Z"`
	PunchOutTime  string `json:"punch_out_time" example:"2026-03-09T17:30:00Z"`
	TotalDuration string `json:"total_duration" example:"09:30:00"`
	CreatedAt     string `json:"created_at" example:"2026-03-09T08:00:00Z"`
}

// SessionSpan represents one session inside a daily summary
type SessionSpan struct {
	PunchInTime   string `json:"punch_in_time" example:"2026-03-09T08:00:00Z"`
	PunchOutTime  string `json:"punch_out_time" example:"2026-03-09T12:00:00Z"`
	TotalDuration string `json:"total_duration" example:"04:00:00"`
}

// DailySummary represents one user's day
type DailySummary struct {
	UserID        string        `json:"user_id" example:"550e8400-e29b-41d4-a716-446655440000"`
	UserNumber    int           `json:"user_number" example:"7"`
	Username      string        `json:"username" example:"maria"`
	Date          string        `json:"date" example:"2026-03-09"`
	Sessions      []SessionSpan `json:"sessions"`
	TotalDuration string        `json:"total_duration" example:"08:30:00"`
}

// DailySummaryResponse represents the summaries of a day
type DailySummaryResponse struct {
	Date      string         `json:"date" example:"2026-03-09"`
	Summaries []DailySummary `json:"summaries"`
}

// HealthResponse represents the health endpoints
type HealthResponse struct {
	Status  string `json:"status" example:"healthy"`
	Version string `json:"version,omitempty" example:"1.0.0"`
}

// ErrorDetail is the machine-readable part of an error
type ErrorDetail struct {
	Code    string `json:"code" example:"VALIDATION_FAILED"`
	Message string `json:"message" example:"Request validation failed"`
}

// ErrorResponse represents a standard error response
type ErrorResponse struct {
	Success bool        `json:"success" example:"false"`
	Message string      `json:"message" example:"Request validation failed"`
	Error   ErrorDetail `json:"error"`
}

func errorOf(code, message string) ErrorResponse {
	return ErrorResponse{Message: message, Error: ErrorDetail{Code: code, Message: message}}
}

var internalError = response.New(errorOf("INTERNAL_ERROR", "An unexpected error occurred"), "500", "Internal Server Error")

// NewSwagger creates and configures the Swagger documentation
func NewSwagger() *swagno.Swagger {
	sw := swagno.New(swagno.Config{
		Title:       "Ponto Face Attendance API",
		Version:     "v1.0.0",
		Description: "Face authentication based attendance: registration, recognition with liveness, punch in/out and daily summaries",
		Host:        "localhost:3000",
		Path:        "/api/v1",
	})

	dateParam := parameter.StrParam("date", parameter.Query, parameter.WithDescription("Calendar day, YYYY-MM-DD"))
	limitParam := parameter.IntParam("limit", parameter.Query, parameter.WithDescription("Maximum number of records"))

	endpoints := []*endpoint.EndPoint{
		// Auth endpoints

		// POST /api/v1/auth/register
		endpoint.New(
			endpoint.POST,
			"/auth/register",
			endpoint.WithTags("Auth"),
			endpoint.WithSummary("Register a user"),
			endpoint.WithDescription("Enrolls a user from 3 to 4 face images sent as repeated 'files' parts, with a 'username' field and an optional 'user_id' UUID."),
			endpoint.WithConsume([]mime.MIME{mime.MIME("multipart/form-data")}),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(RegisterResponse{}, "201", "User registered"),
			}),
			endpoint.WithErrors([]response.Response{
				response.New(errorOf("TOO_FEW_IMAGES", "At least 3 face images required"), "400", "Bad Request"),
				response.New(errorOf("DUPLICATE_FACE", "This face is already registered. Please use a different person."), "409", "Conflict"),
				response.New(errorOf("NO_FACE_DETECTED", "Failed to detect face in image 2. Please ensure face is clearly visible."), "422", "Unprocessable Entity"),
				response.New(errorOf("RATE_LIMIT_EXCEEDED", "Too many requests, please slow down"), "429", "Too Many Requests"),
				internalError,
			}),
		),

		// POST /api/v1/auth/authenticate
		endpoint.New(
			endpoint.POST,
			"/auth/authenticate",
			endpoint.WithTags("Auth"),
			endpoint.WithSummary("Identify a face"),
			endpoint.WithDescription("One 'files' part is matched directly. Three or more frames run the liveness check first and match the last frame with a face."),
			endpoint.WithConsume([]mime.MIME{mime.MIME("multipart/form-data")}),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(AuthenticateResponse{}, "200", "Face recognized"),
			}),
			endpoint.WithErrors([]response.Response{
				response.New(errorOf("INSUFFICIENT_FRAMES", "For liveness check please provide at least 3 frames (capture a short sequence)."), "400", "Bad Request"),
				response.New(errorOf("NOT_RECOGNIZED", "Face not recognized. Please register first."), "401", "Unauthorized"),
				response.New(errorOf("LIVENESS_FAILED", "Liveness check failed. Please try again with a live face (move slightly or blink)."), "401", "Unauthorized"),
				response.New(errorOf("NO_FACE_DETECTED", "No face detected in image"), "422", "Unprocessable Entity"),
				response.New(errorOf("RATE_LIMIT_EXCEEDED", "Too many requests, please slow down"), "429", "Too Many Requests"),
				internalError,
			}),
		),

		// POST /api/v1/auth/punch
		endpoint.New(
			endpoint.POST,
			"/auth/punch",
			endpoint.WithTags("Auth"),
			endpoint.WithSummary("Punch in or out"),
			endpoint.WithDescription("Opens or closes today's attendance session of the user. JSON body: {\"user_id\": UUID, \"action\": \"punch_in\" or \"punch_out\"}."),
			endpoint.WithConsume([]mime.MIME{mime.JSON}),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(PunchResponse{}, "200", "Punch recorded"),
			}),
			endpoint.WithErrors([]response.Response{
				response.New(errorOf("VALIDATION_FAILED", "Action must be 'punch_in' or 'punch_out'"), "400", "Bad Request"),
				response.New(errorOf("USER_NOT_FOUND", "User not found"), "404", "Not Found"),
				response.New(errorOf("ALREADY_PUNCHED_IN", "You have already punched in today. Please punch out first."), "409", "Conflict"),
				response.New(errorOf("NO_OPEN_SESSION", "No punch-in found for today. Please punch in first."), "409", "Conflict"),
				internalError,
			}),
		),

		// Users endpoints

		// GET /api/v1/users
		endpoint.New(
			endpoint.GET,
			"/users",
			endpoint.WithTags("Users"),
			endpoint.WithSummary("List users"),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New([]UserResponse{}, "200", "Registered users ordered by user number"),
			}),
			endpoint.WithErrors([]response.Response{internalError}),
		),

		// GET /api/v1/users/count/total
		endpoint.New(
			endpoint.GET,
			"/users/count/total",
			endpoint.WithTags("Users"),
			endpoint.WithSummary("Count users"),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(UserCountResponse{}, "200", "Number of registered users"),
			}),
			endpoint.WithErrors([]response.Response{internalError}),
		),

		// GET /api/v1/users/{id}
		endpoint.New(
			endpoint.GET,
			"/users/{id}",
			endpoint.WithTags("Users"),
			endpoint.WithSummary("Get a user"),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithParams(
				parameter.StrParam("id", parameter.Path, parameter.WithDescription("User UUID")),
			),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(UserResponse{}, "200", "The user"),
			}),
			endpoint.WithErrors([]response.Response{
				response.New(errorOf("VALIDATION_FAILED", "Invalid user ID format"), "400", "Bad Request"),
				response.New(errorOf("USER_NOT_FOUND", "User not found"), "404", "Not Found"),
				internalError,
			}),
		),

		// Attendance endpoints

		// GET /api/v1/attendance
		endpoint.New(
			endpoint.GET,
			"/attendance",
			endpoint.WithTags("Attendance"),
			endpoint.WithSummary("List recent sessions"),
			endpoint.WithDescription("Newest first, 100 records by default."),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithParams(limitParam),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New([]AttendanceRecord{}, "200", "Sessions"),
			}),
			endpoint.WithErrors([]response.Response{internalError}),
		),

		// GET /api/v1/attendance/today
		endpoint.New(
			endpoint.GET,
			"/attendance/today",
			endpoint.WithTags("Attendance"),
			endpoint.WithSummary("List today's sessions"),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New([]AttendanceRecord{}, "200", "Sessions"),
			}),
			endpoint.WithErrors([]response.Response{internalError}),
		),

		// GET /api/v1/attendance/by-date
		endpoint.New(
			endpoint.GET,
			"/attendance/by-date",
			endpoint.WithTags("Attendance"),
			endpoint.WithSummary("List sessions of a day"),
			endpoint.WithDescription("500 records by default."),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithParams(dateParam, limitParam),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New([]AttendanceRecord{}, "200", "Sessions"),
			}),
			endpoint.WithErrors([]response.Response{
				response.New(errorOf("VALIDATION_FAILED", "date must be formatted as YYYY-MM-DD"), "400", "Bad Request"),
				internalError,
			}),
		),

		// GET /api/v1/attendance/user/{id}
		endpoint.New(
			endpoint.GET,
			"/attendance/user/{id}",
			endpoint.WithTags("Attendance"),
			endpoint.WithSummary("List sessions of a user"),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithParams(
				parameter.StrParam("id", parameter.Path, parameter.WithDescription("User UUID")),
				limitParam,
			),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New([]AttendanceRecord{}, "200", "Sessions, empty for an unknown or malformed id"),
			}),
			endpoint.WithErrors([]response.Response{internalError}),
		),

		// GET /api/v1/attendance/user-number/{number}
		endpoint.New(
			endpoint.GET,
			"/attendance/user-number/{number}",
			endpoint.WithTags("Attendance"),
			endpoint.WithSummary("List sessions by user number"),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithParams(
				parameter.IntParam("number", parameter.Path, parameter.WithDescription("Small sequential user number")),
				dateParam,
				limitParam,
			),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New([]AttendanceRecord{}, "200", "Sessions, empty for an unknown number"),
			}),
			endpoint.WithErrors([]response.Response{
				response.New(errorOf("VALIDATION_FAILED", "user number must be an integer"), "400", "Bad Request"),
				internalError,
			}),
		),

		// GET /api/v1/attendance/daily-summary
		endpoint.New(
			endpoint.GET,
			"/attendance/daily-summary",
			endpoint.WithTags("Attendance"),
			endpoint.WithSummary("Daily summary"),
			endpoint.WithDescription("Per user sessions of the day with the summed duration. Open sessions count as 00:00:00."),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithParams(dateParam),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(DailySummaryResponse{}, "200", "Summaries ordered by user number"),
			}),
			endpoint.WithErrors([]response.Response{
				response.New(errorOf("VALIDATION_FAILED", "date must be formatted as YYYY-MM-DD"), "400", "Bad Request"),
				internalError,
			}),
		),
	}

	sw.AddEndpoints(endpoints)

	return sw
}
