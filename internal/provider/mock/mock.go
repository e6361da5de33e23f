package mock

import (
	"context"
	"crypto/sha256"
	"math"

	"github.com/saturnino-fabrica-de-software/ponto/internal/provider"
)

const (
	defaultDimension = 128
	// minImageSize below which an image is treated as faceless
	minImageSize = 1000
	// frameSize is the nominal frame the mock pretends to look at
	frameSize = 640
)

// Provider implements provider.Encoder and provider.Detector for development
// and tests. Embeddings and boxes are derived from a hash of the image bytes,
// so identical images always produce identical results.
type Provider struct {
	dimension int
}

var (
	_ provider.Encoder  = (*Provider)(nil)
	_ provider.Detector = (*Provider)(nil)
)

// New creates a mock provider producing embeddings of the given dimension
// (128 when dimension is not positive)
func New(dimension int) *Provider {
	if dimension <= 0 {
		dimension = defaultDimension
	}
	return &Provider{dimension: dimension}
}

// Encode returns a single face with a deterministic unit-length embedding
func (p *Provider) Encode(ctx context.Context, image []byte, jitters int) ([]provider.EncodedFace, error) {
	if len(image) < minImageSize {
		return []provider.EncodedFace{}, nil
	}

	return []provider.EncodedFace{
		{
			Box:       faceBox(image),
			Embedding: generateEmbedding(image, p.dimension),
		},
	}, nil
}

// DetectFaces returns one face whose position shifts with the image content
func (p *Provider) DetectFaces(ctx context.Context, image []byte) ([]provider.BoundingBox, error) {
	if len(image) < minImageSize {
		return []provider.BoundingBox{}, nil
	}
	return []provider.BoundingBox{faceBox(image)}, nil
}

// DetectEyes returns two eyes in the upper half of any non-empty region
func (p *Provider) DetectEyes(ctx context.Context, faceRegion []byte) ([]provider.BoundingBox, error) {
	if len(faceRegion) == 0 {
		return []provider.BoundingBox{}, nil
	}
	return []provider.BoundingBox{
		{X: 10, Y: 10, Width: 10, Height: 6},
		{X: 30, Y: 10, Width: 10, Height: 6},
	}, nil
}

// faceBox places a 200px face somewhere in the frame based on the hash
func faceBox(image []byte) provider.BoundingBox {
	hash := sha256.Sum256(image)
	const size = 200
	span := frameSize - size
	return provider.BoundingBox{
		X:      int(hash[0]) * span / 255,
		Y:      int(hash[1]) * span / 255,
		Width:  size,
		Height: size,
	}
}

// generateEmbedding gera embedding determinístico baseado no hash da imagem
func generateEmbedding(image []byte, dimension int) []float64 {
	hash := sha256.Sum256(image)
	embedding := make([]float64, dimension)
	hashLen := len(hash)

	for i := 0; i < dimension; i++ {
		idx := i % hashLen
		//nolint:gosec // idx is always < hashLen due to modulo operation
		embedding[i] = (float64(hash[idx])/255.0)*2 - 1
	}

	norm := 0.0
	for _, v := range embedding {
		norm += v * v
	}
	norm = math.Sqrt(norm)
	if norm == 0 {
		return embedding
	}

	for i := range embedding {
		embedding[i] /= norm
	}

	return embedding
}
