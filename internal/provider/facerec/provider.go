package facerec

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"

	"github.com/saturnino-fabrica-de-software/ponto/internal/provider"
)

// Provider implements provider.Encoder and provider.Detector on top of the
// face_recognition sidecar (dlib HOG detector, 128-d embeddings, OpenCV Haar
// eye cascade).
type Provider struct {
	client *Client
}

var (
	_ provider.Encoder  = (*Provider)(nil)
	_ provider.Detector = (*Provider)(nil)
)

// NewProvider creates a new sidecar provider
func NewProvider(config Config) *Provider {
	return &Provider{
		client: NewClient(config),
	}
}

// Encode returns every face in the image with its embedding
func (p *Provider) Encode(ctx context.Context, image []byte, jitters int) ([]provider.EncodedFace, error) {
	if jitters < 1 {
		jitters = 1
	}

	resp, err := p.client.Encode(ctx, base64.StdEncoding.EncodeToString(image), jitters)
	if err != nil {
		return nil, wrapErr("encode faces", err)
	}

	faces := make([]provider.EncodedFace, 0, len(resp.Faces))
	for _, f := range resp.Faces {
		if len(f.Embedding) == 0 {
			return nil, ErrEmptyEmbedding
		}
		faces = append(faces, provider.EncodedFace{
			Box:       toBoundingBox(f.Box),
			Embedding: f.Embedding,
		})
	}

	return faces, nil
}

// DetectFaces returns face boxes in detector order
func (p *Provider) DetectFaces(ctx context.Context, image []byte) ([]provider.BoundingBox, error) {
	resp, err := p.client.DetectFaces(ctx, base64.StdEncoding.EncodeToString(image))
	if err != nil {
		return nil, wrapErr("detect faces", err)
	}
	return toBoundingBoxes(resp.Boxes), nil
}

// DetectEyes returns eye boxes relative to the face crop
func (p *Provider) DetectEyes(ctx context.Context, faceRegion []byte) ([]provider.BoundingBox, error) {
	resp, err := p.client.DetectEyes(ctx, base64.StdEncoding.EncodeToString(faceRegion))
	if err != nil {
		return nil, wrapErr("detect eyes", err)
	}
	return toBoundingBoxes(resp.Boxes), nil
}

func toBoundingBox(b Box) provider.BoundingBox {
	return provider.BoundingBox{X: b.X, Y: b.Y, Width: b.W, Height: b.H}
}

func toBoundingBoxes(boxes []Box) []provider.BoundingBox {
	out := make([]provider.BoundingBox, 0, len(boxes))
	for _, b := range boxes {
		out = append(out, toBoundingBox(b))
	}
	return out
}

// wrapErr marks rejected images (400/422) as provider.ErrInvalidImage
func wrapErr(op string, err error) error {
	var statusErr *StatusError
	if errors.As(err, &statusErr) &&
		(statusErr.StatusCode == http.StatusBadRequest || statusErr.StatusCode == http.StatusUnprocessableEntity) {
		return fmt.Errorf("%s: %w: %w", op, provider.ErrInvalidImage, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}
