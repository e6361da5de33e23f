package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"

	"github.com/google/uuid"

	"github.com/saturnino-fabrica-de-software/ponto/internal/domain"
	"github.com/saturnino-fabrica-de-software/ponto/internal/face"
	"github.com/saturnino-fabrica-de-software/ponto/internal/liveness"
)

type UserRepositoryInterface interface {
	Create(ctx context.Context, user *domain.User) error
	Exists(ctx context.Context, id uuid.UUID) (bool, error)
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	ListProfiles(ctx context.Context) ([]domain.FaceProfile, error)
}

type EmbeddingExtractor interface {
	Extract(ctx context.Context, image []byte) (domain.Embedding, error)
}

type LivenessVerifier interface {
	Verify(ctx context.Context, frames [][]byte) (liveness.Result, error)
}

type FaceService struct {
	users     UserRepositoryInterface
	extractor EmbeddingExtractor
	matcher   *face.Matcher
	liveness  LivenessVerifier
	minImages int
	maxImages int
	logger    *slog.Logger
}

func NewFaceService(
	users UserRepositoryInterface,
	extractor EmbeddingExtractor,
	matcher *face.Matcher,
	verifier LivenessVerifier,
	logger *slog.Logger,
) *FaceService {
	return &FaceService{
		users:     users,
		extractor: extractor,
		matcher:   matcher,
		liveness:  verifier,
		minImages: 3,
		maxImages: 4,
		logger:    logger,
	}
}

// WithImageLimits sets how many enrollment images a registration needs.
func (s *FaceService) WithImageLimits(minImages, maxImages int) *FaceService {
	s.minImages = minImages
	s.maxImages = maxImages
	return s
}

type RegisterInput struct {
	Username string
	Images   [][]byte
	// UserID is the caller-chosen identifier; a new one is generated when nil.
	UserID *uuid.UUID
}

type RegisterResult struct {
	User    *domain.User
	Message string
}

// Register enrolls a new user from several face images. Every image must
// contain a face, and none of them may match an already enrolled face under
// the duplicate threshold.
//
// The duplicate check reads the profiles outside of the insert transaction:
// two simultaneous registrations of the same face can both pass it.
func (s *FaceService) Register(ctx context.Context, in RegisterInput) (*RegisterResult, error) {
	if len(in.Images) < s.minImages {
		return nil, domain.ErrTooFewImages.WithMessage(fmt.Sprintf("At least %d face images required", s.minImages))
	}
	if len(in.Images) > s.maxImages {
		return nil, domain.ErrTooManyImages.WithMessage(fmt.Sprintf("Maximum %d face images allowed", s.maxImages))
	}

	username := strings.TrimSpace(in.Username)
	if err := domain.ValidateUsername(username); err != nil {
		return nil, domain.ErrValidationFailed.WithMessage(err.Error())
	}

	if in.UserID != nil {
		exists, err := s.users.Exists(ctx, *in.UserID)
		if err != nil {
			return nil, fmt.Errorf("register: %w", err)
		}
		if exists {
			return nil, domain.ErrIdentifierInUse
		}
	}

	embeddings := make([]domain.Embedding, 0, len(in.Images))
	for i, img := range in.Images {
		e, err := s.extractor.Extract(ctx, img)
		if errors.Is(err, domain.ErrNoFaceDetected) {
			return nil, (&domain.ImageError{Index: i + 1, Err: err}).AsAppError()
		}
		if err != nil {
			return nil, fmt.Errorf("register: image %d: %w", i+1, err)
		}
		embeddings = append(embeddings, e)
	}

	profiles, err := s.users.ListProfiles(ctx)
	if err != nil {
		return nil, fmt.Errorf("register: %w", err)
	}
	for i, e := range embeddings {
		if s.matcher.IsDuplicate(e, profiles) {
			s.logger.Info("duplicate face rejected", slog.Int("image", i+1))
			return nil, domain.ErrDuplicateFace
		}
	}

	user := &domain.User{Username: username, Embeddings: embeddings}
	if in.UserID != nil {
		user.ID = *in.UserID
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}

	s.logger.Info("user registered",
		slog.String("user_id", user.ID.String()),
		slog.Any("user_number", user.Number),
		slog.Int("images", len(embeddings)),
	)

	return &RegisterResult{
		User:    user,
		Message: fmt.Sprintf("User registered successfully with %d face images", len(embeddings)),
	}, nil
}

type AuthResult struct {
	User       *domain.User
	Confidence float64
	// Liveness is set when the request carried a frame burst.
	Liveness *liveness.Result
}

// Authenticate identifies the person in frames. A single frame is matched
// directly; a burst of at least liveness.MinFrames frames must pass the
// liveness check first, and the frame it forwards is matched.
func (s *FaceService) Authenticate(ctx context.Context, frames [][]byte) (*AuthResult, error) {
	var image []byte
	var live *liveness.Result

	switch n := len(frames); {
	case n == 0:
		return nil, domain.ErrBadRequest.WithMessage("At least one image is required")
	case n == 1:
		image = frames[0]
	case n < liveness.MinFrames:
		return nil, domain.ErrInsufficientFrames
	default:
		result, err := s.liveness.Verify(ctx, frames)
		if err != nil {
			if errors.Is(err, domain.ErrInsufficientFrames) {
				return nil, err
			}
			return nil, fmt.Errorf("authenticate: liveness: %w", err)
		}
		if !result.Live() || result.Forward == nil {
			s.logger.Info("liveness rejected",
				slog.String("state", string(result.State)),
				slog.Int("processed", result.Processed),
			)
			return nil, domain.ErrLivenessFailed
		}
		image = result.Forward
		live = &result
	}

	query, err := s.extractor.Extract(ctx, image)
	if errors.Is(err, domain.ErrNoFaceDetected) {
		return nil, domain.ErrNoFaceDetected.WithMessage("No face detected in image")
	}
	if err != nil {
		return nil, fmt.Errorf("authenticate: %w", err)
	}

	profiles, err := s.users.ListProfiles(ctx)
	if err != nil {
		return nil, fmt.Errorf("authenticate: %w", err)
	}
	if len(profiles) == 0 {
		return nil, domain.ErrNotRecognized.WithMessage("No users registered in system")
	}

	decision := s.matcher.Authenticate(query, profiles)
	if !decision.Accepted {
		s.logger.Info("authentication rejected",
			slog.String("reason", string(decision.Reason)),
			distanceAttr("distance", decision.Distance),
			distanceAttr("second_distance", decision.SecondDistance),
		)
		return nil, decision.Err()
	}

	user, err := s.users.GetByID(ctx, decision.UserID)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.ErrNotRecognized
		}
		return nil, fmt.Errorf("authenticate: %w", err)
	}

	s.logger.Debug("authentication accepted",
		slog.String("user_id", user.ID.String()),
		slog.Float64("distance", decision.Distance),
		slog.Float64("confidence", decision.Confidence),
	)

	return &AuthResult{User: user, Confidence: decision.Confidence, Liveness: live}, nil
}

// distanceAttr logs a match distance; the JSON handler cannot encode +Inf.
func distanceAttr(key string, d float64) slog.Attr {
	if math.IsInf(d, 0) {
		return slog.String(key, "inf")
	}
	return slog.Float64(key, d)
}
