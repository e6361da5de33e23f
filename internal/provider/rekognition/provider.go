package rekognition

import (
	"context"
	"fmt"
	"math"

	"github.com/aws/aws-sdk-go-v2/service/rekognition"
	"github.com/aws/aws-sdk-go-v2/service/rekognition/types"

	"github.com/saturnino-fabrica-de-software/ponto/internal/imaging"
	"github.com/saturnino-fabrica-de-software/ponto/internal/provider"
)

const (
	// maxImageSize is the maximum image size supported by AWS Rekognition (5MB)
	maxImageSize = 5 * 1024 * 1024
	// minImageSize is the minimum image size for valid processing
	minImageSize = 100
)

// Provider implements provider.Detector using AWS Rekognition DetectFaces.
// Rekognition does not expose embeddings, so it cannot act as an Encoder.
type Provider struct {
	client *Client
}

var _ provider.Detector = (*Provider)(nil)

// NewProvider creates a new Rekognition detector
func NewProvider(ctx context.Context, cfg Config) (*Provider, error) {
	if cfg.EyeBoxRatio <= 0 {
		cfg.EyeBoxRatio = DefaultConfig().EyeBoxRatio
	}

	client, err := NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create rekognition client: %w", err)
	}

	return &Provider{client: client}, nil
}

// validateImage checks if image data is valid for Rekognition processing
func validateImage(image []byte) error {
	if len(image) == 0 {
		return ErrInvalidImage
	}
	if len(image) < minImageSize {
		return fmt.Errorf("%w: image too small (%d bytes, minimum %d)", ErrInvalidImage, len(image), minImageSize)
	}
	if len(image) > maxImageSize {
		return fmt.Errorf("%w: image too large (%d bytes, maximum %d)", ErrInvalidImage, len(image), maxImageSize)
	}
	return nil
}

// detect runs DetectFaces and returns the details with the image size in pixels
func (p *Provider) detect(ctx context.Context, image []byte) ([]types.FaceDetail, int, int, error) {
	if err := validateImage(image); err != nil {
		return nil, 0, 0, err
	}

	width, height, err := imaging.Dimensions(image)
	if err != nil {
		return nil, 0, 0, fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}

	output, err := p.client.rekognition.DetectFaces(ctx, &rekognition.DetectFacesInput{
		Image:      &types.Image{Bytes: image},
		Attributes: []types.Attribute{types.AttributeDefault},
	})
	if err != nil {
		return nil, 0, 0, fmt.Errorf("detect faces: %w", parseAPIError(err))
	}

	return output.FaceDetails, width, height, nil
}

// DetectFaces returns face boxes in pixels, in Rekognition order
// Returns an empty slice if no faces are detected (not an error)
func (p *Provider) DetectFaces(ctx context.Context, image []byte) ([]provider.BoundingBox, error) {
	details, width, height, err := p.detect(ctx, image)
	if err != nil {
		return nil, err
	}

	boxes := make([]provider.BoundingBox, 0, len(details))
	for _, detail := range details {
		if detail.BoundingBox == nil {
			continue
		}
		boxes = append(boxes, toPixels(detail.BoundingBox, width, height))
	}

	return boxes, nil
}

// DetectEyes derives eye boxes from the eyeLeft/eyeRight landmarks of the
// first face found in the crop.
func (p *Provider) DetectEyes(ctx context.Context, faceRegion []byte) ([]provider.BoundingBox, error) {
	details, width, height, err := p.detect(ctx, faceRegion)
	if err != nil {
		return nil, err
	}
	if len(details) == 0 {
		return []provider.BoundingBox{}, nil
	}

	detail := details[0]
	faceWidth := float64(width)
	if detail.BoundingBox != nil && detail.BoundingBox.Width != nil {
		faceWidth = float64(*detail.BoundingBox.Width) * float64(width)
	}
	side := int(math.Round(faceWidth * p.client.config.EyeBoxRatio))
	if side < 1 {
		side = 1
	}

	eyes := make([]provider.BoundingBox, 0, 2)
	for _, lm := range detail.Landmarks {
		if lm.Type != types.LandmarkTypeEyeLeft && lm.Type != types.LandmarkTypeEyeRight {
			continue
		}
		if lm.X == nil || lm.Y == nil {
			continue
		}
		cx := float64(*lm.X) * float64(width)
		cy := float64(*lm.Y) * float64(height)
		eyes = append(eyes, provider.BoundingBox{
			X:      int(math.Round(cx)) - side/2,
			Y:      int(math.Round(cy)) - side/2,
			Width:  side,
			Height: side,
		})
	}

	return eyes, nil
}

// toPixels converts a ratio bounding box to pixel coordinates
func toPixels(b *types.BoundingBox, width, height int) provider.BoundingBox {
	return provider.BoundingBox{
		X:      int(math.Round(float64(deref(b.Left)) * float64(width))),
		Y:      int(math.Round(float64(deref(b.Top)) * float64(height))),
		Width:  int(math.Round(float64(deref(b.Width)) * float64(width))),
		Height: int(math.Round(float64(deref(b.Height)) * float64(height))),
	}
}

func deref(v *float32) float32 {
	if v == nil {
		return 0
	}
	return *v
}
