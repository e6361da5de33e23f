package api

import (
	"log/slog"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/requestid"

	swagger "github.com/go-swagno/swagno-fiber/swagger"
	"github.com/saturnino-fabrica-de-software/ponto/internal/api/docs"
	"github.com/saturnino-fabrica-de-software/ponto/internal/api/handler"
	"github.com/saturnino-fabrica-de-software/ponto/internal/api/middleware"
	"github.com/saturnino-fabrica-de-software/ponto/internal/database"
)

// bodyLimit leaves room for a registration of several full size photos.
const bodyLimit = 50 * 1024 * 1024

// Dependencies are the services behind the /api/v1 routes.
type Dependencies struct {
	Faces      handler.FaceService
	Punches    handler.PunchService
	Attendance handler.AttendanceService
	Users      handler.UserService
	// DB is pinged by /ready; nil skips the check.
	DB database.Pinger
}

type Options struct {
	// AuthRateLimit is the number of /auth requests per client IP and minute.
	AuthRateLimit int
	CORSOrigins   []string
}

type Router struct {
	app         *fiber.App
	logger      *slog.Logger
	deps        *Dependencies
	opts        Options
	rateLimiter *middleware.RateLimiter
}

func NewRouter(logger *slog.Logger, deps *Dependencies, opts Options) *Router {
	app := fiber.New(fiber.Config{
		ErrorHandler: middleware.ErrorHandler(logger),
		AppName:      "Ponto API",
		BodyLimit:    bodyLimit,
	})

	return &Router{
		app:    app,
		logger: logger,
		deps:   deps,
		opts:   opts,
	}
}

func (r *Router) Setup() {
	// Global middlewares
	r.app.Use(requestid.New())
	r.app.Use(middleware.Recover(r.logger))
	r.app.Use(middleware.Logger(r.logger))
	r.app.Use(cors.New(cors.Config{
		AllowOrigins: r.allowOrigins(),
		AllowMethods: "GET,POST,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept",
	}))

	// Swagger documentation
	sw := docs.NewSwagger()
	swagger.SwaggerHandler(r.app, sw.MustToJson())

	var db database.Pinger
	if r.deps != nil {
		db = r.deps.DB
	}
	healthHandler := handler.NewHealthHandler(db, r.logger)
	r.app.Get("/health", healthHandler.Health)
	r.app.Get("/ready", healthHandler.Ready)

	if r.deps == nil {
		return
	}

	v1 := r.app.Group("/api/v1")

	// Face endpoints are the expensive ones, so only they are rate limited.
	limiterCfg := middleware.DefaultRateLimiterConfig()
	if r.opts.AuthRateLimit > 0 {
		limiterCfg.Max = r.opts.AuthRateLimit
	}
	r.rateLimiter = middleware.NewRateLimiter(limiterCfg)

	authHandler := handler.NewAuthHandler(r.deps.Faces, r.deps.Punches, r.logger)
	auth := v1.Group("/auth", r.rateLimiter.Handler())
	auth.Post("/register", authHandler.Register)
	auth.Post("/authenticate", authHandler.Authenticate)
	auth.Post("/punch", authHandler.Punch)

	// Static segments are registered before the parameterized ones.
	userHandler := handler.NewUserHandler(r.deps.Users, r.logger)
	v1.Get("/users", userHandler.List)
	v1.Get("/users/count/total", userHandler.Count)
	v1.Get("/users/:id", userHandler.Get)

	attendanceHandler := handler.NewAttendanceHandler(r.deps.Attendance, r.logger)
	v1.Get("/attendance", attendanceHandler.List)
	v1.Get("/attendance/today", attendanceHandler.Today)
	v1.Get("/attendance/by-date", attendanceHandler.ByDate)
	v1.Get("/attendance/daily-summary", attendanceHandler.DailySummary)
	v1.Get("/attendance/user/:id", attendanceHandler.ByUser)
	v1.Get("/attendance/user-number/:number", attendanceHandler.ByUserNumber)
}

func (r *Router) allowOrigins() string {
	if len(r.opts.CORSOrigins) == 0 {
		return "*"
	}
	return strings.Join(r.opts.CORSOrigins, ",")
}

func (r *Router) App() *fiber.App {
	return r.app
}

func (r *Router) Listen(addr string) error {
	return r.app.Listen(addr)
}

func (r *Router) Shutdown() error {
	// Stop rate limiter cleanup goroutine
	if r.rateLimiter != nil {
		r.rateLimiter.Stop()
	}

	return r.app.Shutdown()
}
