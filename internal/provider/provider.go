package provider

import (
	"context"
	"errors"
	"image"
	"math"
)

// ErrInvalidImage is returned when a primitive cannot read the image at all.
// Callers treat it like an image without faces.
var ErrInvalidImage = errors.New("image could not be decoded")

// Encoder wraps the external face embedding model.
type Encoder interface {
	// Encode locates faces in the image and returns one embedding per face.
	// jitters is the number of resampled encodings averaged per face; higher
	// values are slower but give a lower-variance embedding.
	Encode(ctx context.Context, image []byte, jitters int) ([]EncodedFace, error)
}

// Detector wraps the external face and eye detectors.
type Detector interface {
	// DetectFaces returns the bounding boxes of every face found in the image.
	DetectFaces(ctx context.Context, image []byte) ([]BoundingBox, error)

	// DetectEyes returns eye boxes relative to the given face region image.
	DetectEyes(ctx context.Context, faceRegion []byte) ([]BoundingBox, error)
}

// EncodedFace is a detected face together with its embedding.
type EncodedFace struct {
	Box       BoundingBox `json:"box"`
	Embedding []float64   `json:"embedding"`
}

// BoundingBox is a face or eye area in pixel coordinates.
type BoundingBox struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"w"`
	Height int `json:"h"`
}

func (b BoundingBox) Area() int {
	if b.Width <= 0 || b.Height <= 0 {
		return 0
	}
	return b.Width * b.Height
}

// Center returns the centroid of the box.
func (b BoundingBox) Center() (x, y float64) {
	return float64(b.X) + float64(b.Width)/2, float64(b.Y) + float64(b.Height)/2
}

// Diagonal is the length of the box diagonal, used as the face size.
func (b BoundingBox) Diagonal() float64 {
	return math.Hypot(float64(b.Width), float64(b.Height))
}

func (b BoundingBox) Rect() image.Rectangle {
	return image.Rect(b.X, b.Y, b.X+b.Width, b.Y+b.Height)
}

// Largest returns the index of the face with the biggest area, preferring the
// first one on ties. It returns -1 for an empty slice.
func Largest(faces []EncodedFace) int {
	best := -1
	for i, f := range faces {
		if best == -1 || f.Box.Area() > faces[best].Box.Area() {
			best = i
		}
	}
	return best
}
