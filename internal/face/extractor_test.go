package face

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/png"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/saturnino-fabrica-de-software/ponto/internal/domain"
	"github.com/saturnino-fabrica-de-software/ponto/internal/provider"
)

type MockEncoder struct {
	mock.Mock
}

func (m *MockEncoder) Encode(ctx context.Context, image []byte, jitters int) ([]provider.EncodedFace, error) {
	args := m.Called(ctx, image, jitters)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]provider.EncodedFace), args.Error(1)
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func darkPNG(t *testing.T) []byte {
	t.Helper()
	img := image.NewGray(image.Rect(0, 0, 8, 8))
	for i := range img.Pix {
		img.Pix[i] = uint8(10 + i%4)
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func face(w, h int, embedding ...float64) provider.EncodedFace {
	return provider.EncodedFace{Box: provider.BoundingBox{Width: w, Height: h}, Embedding: embedding}
}

func TestExtractor_RawImageFirst(t *testing.T) {
	raw := darkPNG(t)
	encoder := new(MockEncoder)
	encoder.On("Encode", mock.Anything, raw, 3).
		Return([]provider.EncodedFace{face(10, 10, 0.1, 0.2)}, nil).Once()

	got, err := NewExtractor(encoder, 3, testLogger()).Extract(context.Background(), raw)

	require.NoError(t, err)
	assert.Equal(t, domain.Embedding{0.1, 0.2}, got)
	encoder.AssertExpectations(t)
	encoder.AssertNumberOfCalls(t, "Encode", 1)
}

func TestExtractor_RetriesWithEqualizedImage(t *testing.T) {
	raw := darkPNG(t)
	encoder := new(MockEncoder)
	encoder.On("Encode", mock.Anything, raw, 2).Return([]provider.EncodedFace{}, nil).Once()
	encoder.On("Encode", mock.Anything, mock.MatchedBy(func(b []byte) bool {
		return !bytes.Equal(b, raw)
	}), 2).Return([]provider.EncodedFace{face(10, 10, 0.5)}, nil).Once()

	got, err := NewExtractor(encoder, 2, testLogger()).Extract(context.Background(), raw)

	require.NoError(t, err)
	assert.Equal(t, domain.Embedding{0.5}, got)
	encoder.AssertExpectations(t)
}

func TestExtractor_NoFaceAfterAllStrategies(t *testing.T) {
	encoder := new(MockEncoder)
	encoder.On("Encode", mock.Anything, mock.Anything, 1).Return([]provider.EncodedFace{}, nil).Twice()

	_, err := NewExtractor(encoder, 1, testLogger()).Extract(context.Background(), darkPNG(t))

	assert.ErrorIs(t, err, domain.ErrNoFaceDetected)
	encoder.AssertNumberOfCalls(t, "Encode", 2)
}

func TestExtractor_UndecodableImageIsNoFace(t *testing.T) {
	garbage := []byte("definitely not an image")
	encoder := new(MockEncoder)
	encoder.On("Encode", mock.Anything, garbage, 1).
		Return(nil, provider.ErrInvalidImage).Once()

	_, err := NewExtractor(encoder, 1, testLogger()).Extract(context.Background(), garbage)

	assert.ErrorIs(t, err, domain.ErrNoFaceDetected)
	// the equalize pass cannot decode the image either, so the encoder is not called again
	encoder.AssertNumberOfCalls(t, "Encode", 1)
}

func TestExtractor_EncoderFailureIsReturned(t *testing.T) {
	encoder := new(MockEncoder)
	encoder.On("Encode", mock.Anything, mock.Anything, 1).Return(nil, errors.New("connection refused")).Once()

	_, err := NewExtractor(encoder, 1, testLogger()).Extract(context.Background(), darkPNG(t))

	require.Error(t, err)
	assert.NotErrorIs(t, err, domain.ErrNoFaceDetected)
	assert.Contains(t, err.Error(), "connection refused")
}

func TestExtractor_PicksLargestFace(t *testing.T) {
	encoder := new(MockEncoder)
	encoder.On("Encode", mock.Anything, mock.Anything, 1).Return([]provider.EncodedFace{
		face(20, 20, 1),
		face(80, 90, 2),
		face(40, 40, 3),
	}, nil).Once()

	got, err := NewExtractor(encoder, 1, testLogger()).Extract(context.Background(), darkPNG(t))

	require.NoError(t, err)
	assert.Equal(t, domain.Embedding{2}, got)
}

func TestExtractor_CustomStrategies(t *testing.T) {
	var order []string
	record := func(name string) Strategy {
		return Strategy{Name: name, Prepare: func(b []byte) ([]byte, error) {
			order = append(order, name)
			return append([]byte(name+":"), b...), nil
		}}
	}
	failing := Strategy{Name: "broken", Prepare: func([]byte) ([]byte, error) {
		order = append(order, "broken")
		return nil, errors.New("boom")
	}}

	encoder := new(MockEncoder)
	encoder.On("Encode", mock.Anything, []byte("first:img"), 1).Return([]provider.EncodedFace{}, nil).Once()
	encoder.On("Encode", mock.Anything, []byte("third:img"), 1).Return([]provider.EncodedFace{face(1, 1, 9)}, nil).Once()

	e := NewExtractor(encoder, 0, testLogger(), record("first"), failing, record("third"), record("never"))
	got, err := e.Extract(context.Background(), []byte("img"))

	require.NoError(t, err)
	assert.Equal(t, domain.Embedding{9}, got)
	assert.Equal(t, []string{"first", "broken", "third"}, order)
	assert.Equal(t, 1, e.Jitters())
}
