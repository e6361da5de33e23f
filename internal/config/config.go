package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	// Server
	Port        int      `envconfig:"PORT" default:"3000"`
	Environment string   `envconfig:"ENV" default:"development"`
	LogLevel    string   `envconfig:"LOG_LEVEL"`
	CORSOrigins []string `envconfig:"CORS_ORIGINS" default:"http://localhost:3000,http://localhost:5173"`
	// AuthRateLimit is the number of /auth requests allowed per client IP and minute.
	AuthRateLimit int `envconfig:"AUTH_RATE_LIMIT" default:"30"`

	// Database
	DatabaseURL string `envconfig:"DATABASE_URL" required:"true"`
	// AutoMigrate applies pending migrations when the API starts.
	AutoMigrate bool `envconfig:"AUTO_MIGRATE" default:"true"`

	// Provider
	ProviderType string `envconfig:"PROVIDER_TYPE" default:"facerec"`
	FaceRecURL   string `envconfig:"FACEREC_URL" default:"http://localhost:5001"`
	AWSRegion    string `envconfig:"AWS_REGION" default:"us-east-1"`

	// Face recognition
	EmbeddingDimension int     `envconfig:"EMBEDDING_DIMENSION" default:"128"`
	MatchThreshold     float64 `envconfig:"FACE_MATCH_THRESHOLD" default:"0.6"`
	AuthThreshold      float64 `envconfig:"FACE_AUTH_THRESHOLD" default:"0.5"`
	AmbiguityMargin    float64 `envconfig:"FACE_AUTH_AMBIGUITY_MARGIN" default:"0.08"`
	DuplicateThreshold float64 `envconfig:"FACE_DUPLICATE_CHECK_THRESHOLD" default:"0.42"`
	EncodingJitters    int     `envconfig:"FACE_ENCODING_NUM_JITTERS" default:"3"`
	MinFaceImages      int     `envconfig:"MIN_FACE_IMAGES" default:"3"`
	MaxFaceImages      int     `envconfig:"MAX_FACE_IMAGES" default:"4"`

	// Spoof prevention
	SpoofCheckFrames      int     `envconfig:"SPOOF_CHECK_FRAMES" default:"5"`
	HeadMovementThreshold float64 `envconfig:"HEAD_MOVEMENT_THRESHOLD" default:"0.1"`
	EyeOpenBrightness     float64 `envconfig:"EYE_OPEN_BRIGHTNESS" default:"50"`

	// Attendance
	Timezone string `envconfig:"ATTENDANCE_TIMEZONE" default:"Local"`
}

// Load reads an optional .env file and then the process environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return &cfg, nil
}

// Validate rejects threshold combinations that would invert the matching policy.
func (c *Config) Validate() error {
	switch {
	case c.DuplicateThreshold > c.MatchThreshold:
		return errors.New("FACE_DUPLICATE_CHECK_THRESHOLD must not exceed FACE_MATCH_THRESHOLD")
	case c.AuthThreshold > c.MatchThreshold:
		return errors.New("FACE_AUTH_THRESHOLD must not exceed FACE_MATCH_THRESHOLD")
	case c.AmbiguityMargin < 0:
		return errors.New("FACE_AUTH_AMBIGUITY_MARGIN must not be negative")
	case c.MinFaceImages < 1 || c.MinFaceImages > c.MaxFaceImages:
		return errors.New("MIN_FACE_IMAGES must be between 1 and MAX_FACE_IMAGES")
	case c.SpoofCheckFrames < 2:
		return errors.New("SPOOF_CHECK_FRAMES must be at least 2")
	case c.EncodingJitters < 1:
		return errors.New("FACE_ENCODING_NUM_JITTERS must be at least 1")
	case c.AuthRateLimit < 1:
		return errors.New("AUTH_RATE_LIMIT must be at least 1")
	case c.EmbeddingDimension < 1:
		return errors.New("EMBEDDING_DIMENSION must be positive")
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	return nil
}

// Location is the time zone whose calendar defines "today" for attendance.
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("ATTENDANCE_TIMEZONE: %w", err)
	}
	return loc, nil
}

func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}
