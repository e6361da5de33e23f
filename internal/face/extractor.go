package face

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/saturnino-fabrica-de-software/ponto/internal/domain"
	"github.com/saturnino-fabrica-de-software/ponto/internal/imaging"
	"github.com/saturnino-fabrica-de-software/ponto/internal/provider"
)

// Strategy prepares an image before it is handed to the encoder. Strategies
// are tried in order until one of them yields a face.
type Strategy struct {
	Name    string
	Prepare func(image []byte) ([]byte, error)
}

var (
	// Raw sends the image untouched.
	Raw = Strategy{
		Name:    "raw",
		Prepare: func(image []byte) ([]byte, error) { return image, nil },
	}

	// Equalized sends a greyscale, histogram-equalized copy recombined to
	// color. It recovers faces in under- or over-exposed captures.
	Equalized = Strategy{
		Name:    "equalized",
		Prepare: imaging.EqualizeBytes,
	}
)

// DefaultStrategies is the raw image first, then the equalized retry.
func DefaultStrategies() []Strategy {
	return []Strategy{Raw, Equalized}
}

// Extractor turns an image into a single face embedding.
type Extractor struct {
	encoder    provider.Encoder
	strategies []Strategy
	jitters    int
	logger     *slog.Logger
}

// NewExtractor creates an extractor. jitters must be the same value for
// registration and authentication, otherwise distances are not comparable.
func NewExtractor(encoder provider.Encoder, jitters int, logger *slog.Logger, strategies ...Strategy) *Extractor {
	if len(strategies) == 0 {
		strategies = DefaultStrategies()
	}
	if jitters < 1 {
		jitters = 1
	}
	return &Extractor{
		encoder:    encoder,
		strategies: strategies,
		jitters:    jitters,
		logger:     logger,
	}
}

// Jitters reports the encoding stability setting in use.
func (e *Extractor) Jitters() int {
	return e.jitters
}

// Extract returns the embedding of the largest face in the image. It returns
// domain.ErrNoFaceDetected when no strategy finds a face; encoder failures
// other than an unreadable image are returned as is.
func (e *Extractor) Extract(ctx context.Context, image []byte) (domain.Embedding, error) {
	for _, s := range e.strategies {
		prepared, err := s.Prepare(image)
		if err != nil {
			e.logger.Debug("preprocessing failed",
				slog.String("strategy", s.Name),
				slog.Any("error", err),
			)
			continue
		}

		faces, err := e.encoder.Encode(ctx, prepared, e.jitters)
		if errors.Is(err, provider.ErrInvalidImage) {
			e.logger.Debug("encoder rejected image", slog.String("strategy", s.Name), slog.Any("error", err))
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("extract embedding (%s): %w", s.Name, err)
		}

		idx := provider.Largest(faces)
		if idx < 0 {
			continue
		}

		if len(faces) > 1 {
			e.logger.Debug("multiple faces, using largest",
				slog.String("strategy", s.Name),
				slog.Int("faces", len(faces)),
			)
		}
		return domain.Embedding(faces[idx].Embedding), nil
	}

	return nil, domain.ErrNoFaceDetected
}
