package rekognition

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/rekognition"
	"github.com/aws/aws-sdk-go-v2/service/rekognition/types"
	"github.com/aws/smithy-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saturnino-fabrica-de-software/ponto/internal/provider"
)

// TestProviderImplementsInterface verifies that Provider implements Detector
func TestProviderImplementsInterface(t *testing.T) {
	var _ provider.Detector = (*Provider)(nil)
}

// TestDefaultConfig verifies default configuration values
func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, "us-east-1", cfg.Region)
	assert.Equal(t, 0.25, cfg.EyeBoxRatio)
}

func ptr[T any](v T) *T {
	return &v
}

// pngImage returns an encoded noise-free PNG of the given size, large enough
// to pass the minimum size check
func pngImage(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: uint8(x ^ y), A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func newTestProvider(mock *mockRekognitionAPI) *Provider {
	return &Provider{client: &Client{rekognition: mock, config: DefaultConfig()}}
}

func TestDetectFaces_Success(t *testing.T) {
	mock := &mockRekognitionAPI{
		detectFacesFunc: func(ctx context.Context, params *rekognition.DetectFacesInput, optFns ...func(*rekognition.Options)) (*rekognition.DetectFacesOutput, error) {
			assert.NotEmpty(t, params.Image.Bytes)
			return &rekognition.DetectFacesOutput{
				FaceDetails: []types.FaceDetail{
					{
						BoundingBox: &types.BoundingBox{
							Left:   ptr(float32(0.1)),
							Top:    ptr(float32(0.2)),
							Width:  ptr(float32(0.3)),
							Height: ptr(float32(0.4)),
						},
						Confidence: ptr(float32(99.5)),
					},
					{},
				},
			}, nil
		},
	}

	faces, err := newTestProvider(mock).DetectFaces(context.Background(), pngImage(t, 200, 100))

	require.NoError(t, err)
	require.Len(t, faces, 1, "details without a bounding box are skipped")
	assert.Equal(t, provider.BoundingBox{X: 20, Y: 20, Width: 60, Height: 40}, faces[0])
}

func TestDetectFaces_NoFaces(t *testing.T) {
	faces, err := newTestProvider(&mockRekognitionAPI{}).DetectFaces(context.Background(), pngImage(t, 64, 64))

	require.NoError(t, err)
	assert.Empty(t, faces)
}

func TestDetectFaces_InvalidImage(t *testing.T) {
	called := false
	mock := &mockRekognitionAPI{
		detectFacesFunc: func(ctx context.Context, params *rekognition.DetectFacesInput, optFns ...func(*rekognition.Options)) (*rekognition.DetectFacesOutput, error) {
			called = true
			return &rekognition.DetectFacesOutput{}, nil
		},
	}
	p := newTestProvider(mock)

	tests := []struct {
		name  string
		image []byte
	}{
		{"empty", nil},
		{"too small", []byte("tiny")},
		{"not an image", bytes.Repeat([]byte{0x42}, 500)},
		{"too large", make([]byte, maxImageSize+1)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := p.DetectFaces(context.Background(), tt.image)
			assert.ErrorIs(t, err, ErrInvalidImage)
		})
	}
	assert.False(t, called, "rekognition must not be called for invalid images")
}

func TestDetectFaces_APIErrors(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		wantErr error
	}{
		{"access denied", &smithy.GenericAPIError{Code: errCodeAccessDenied, Message: "denied"}, ErrInvalidCredentials},
		{"throttled", &smithy.GenericAPIError{Code: errCodeThrottling, Message: "slow down"}, ErrThrottled},
		{"bad format", &smithy.GenericAPIError{Code: errCodeInvalidImageFormat, Message: "bad"}, ErrInvalidImage},
		{"unknown", assert.AnError, assert.AnError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := &mockRekognitionAPI{
				detectFacesFunc: func(ctx context.Context, params *rekognition.DetectFacesInput, optFns ...func(*rekognition.Options)) (*rekognition.DetectFacesOutput, error) {
					return nil, tt.err
				},
			}

			faces, err := newTestProvider(mock).DetectFaces(context.Background(), pngImage(t, 64, 64))

			require.Error(t, err)
			assert.Nil(t, faces)
			assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
		})
	}
}

func TestDetectEyes_FromLandmarks(t *testing.T) {
	mock := &mockRekognitionAPI{
		detectFacesFunc: func(ctx context.Context, params *rekognition.DetectFacesInput, optFns ...func(*rekognition.Options)) (*rekognition.DetectFacesOutput, error) {
			return &rekognition.DetectFacesOutput{
				FaceDetails: []types.FaceDetail{
					{
						BoundingBox: &types.BoundingBox{Width: ptr(float32(0.8))},
						Landmarks: []types.Landmark{
							{Type: types.LandmarkTypeEyeLeft, X: ptr(float32(0.3)), Y: ptr(float32(0.4))},
							{Type: types.LandmarkTypeEyeRight, X: ptr(float32(0.7)), Y: ptr(float32(0.4))},
							{Type: types.LandmarkTypeNose, X: ptr(float32(0.5)), Y: ptr(float32(0.6))},
							{Type: types.LandmarkTypeEyeRight},
						},
					},
				},
			}, nil
		},
	}

	eyes, err := newTestProvider(mock).DetectEyes(context.Background(), pngImage(t, 100, 100))

	require.NoError(t, err)
	require.Len(t, eyes, 2)
	// face width 80px, eye box 20px centred on the landmark
	assert.Equal(t, provider.BoundingBox{X: 20, Y: 30, Width: 20, Height: 20}, eyes[0])
	assert.Equal(t, provider.BoundingBox{X: 60, Y: 30, Width: 20, Height: 20}, eyes[1])
}

func TestDetectEyes_NoFace(t *testing.T) {
	eyes, err := newTestProvider(&mockRekognitionAPI{}).DetectEyes(context.Background(), pngImage(t, 64, 64))

	require.NoError(t, err)
	assert.Empty(t, eyes)
}

func skipIfNoAWSCredentials(t *testing.T) {
	t.Helper()
	if os.Getenv("AWS_ACCESS_KEY_ID") == "" && os.Getenv("AWS_PROFILE") == "" {
		t.Skip("Skipping integration test: AWS credentials not configured")
	}
}

func TestIntegration_NewProvider(t *testing.T) {
	skipIfNoAWSCredentials(t)

	p, err := NewProvider(context.Background(), Config{Region: "us-east-1"})
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig().EyeBoxRatio, p.client.config.EyeBoxRatio)
}
