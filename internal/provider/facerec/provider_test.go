package facerec

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saturnino-fabrica-de-software/ponto/internal/provider"
)

func newTestProvider(t *testing.T, handler http.HandlerFunc) *Provider {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	config := DefaultConfig()
	config.BaseURL = server.URL
	config.RetryCount = 0
	return NewProvider(config)
}

func TestProvider_Encode(t *testing.T) {
	image := []byte("jpeg bytes")

	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		var req EncodeRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, base64.StdEncoding.EncodeToString(image), req.Img)
		assert.Equal(t, 1, req.NumJitters, "jitters below one are raised to one")

		_ = json.NewEncoder(w).Encode(EncodeResponse{Faces: []EncodedFace{
			{Box: Box{X: 5, Y: 6, W: 70, H: 80}, Embedding: []float64{0.1, 0.2}},
		}})
	})

	faces, err := p.Encode(context.Background(), image, 0)
	require.NoError(t, err)
	require.Len(t, faces, 1)
	assert.Equal(t, provider.BoundingBox{X: 5, Y: 6, Width: 70, Height: 80}, faces[0].Box)
	assert.Equal(t, []float64{0.1, 0.2}, faces[0].Embedding)
}

func TestProvider_Encode_EmptyEmbedding(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(EncodeResponse{Faces: []EncodedFace{{Box: Box{W: 10, H: 10}}}})
	})

	_, err := p.Encode(context.Background(), []byte("x"), 3)
	assert.ErrorIs(t, err, ErrEmptyEmbedding)
}

func TestProvider_Detect(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/detect/faces":
			_ = json.NewEncoder(w).Encode(DetectResponse{Boxes: []Box{{X: 1, Y: 2, W: 30, H: 40}}})
		case "/detect/eyes":
			_ = json.NewEncoder(w).Encode(DetectResponse{Boxes: []Box{{X: 3, Y: 4, W: 5, H: 5}, {X: 15, Y: 4, W: 5, H: 5}}})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})

	faces, err := p.DetectFaces(context.Background(), []byte("frame"))
	require.NoError(t, err)
	assert.Equal(t, []provider.BoundingBox{{X: 1, Y: 2, Width: 30, Height: 40}}, faces)

	eyes, err := p.DetectEyes(context.Background(), []byte("crop"))
	require.NoError(t, err)
	assert.Len(t, eyes, 2)
}

func TestProvider_DetectFaces_Error(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	})

	_, err := p.DetectFaces(context.Background(), []byte("frame"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "detect faces")
}

func TestProvider_RejectedImageIsInvalidImage(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
	})

	_, err := p.Encode(context.Background(), []byte("not a jpeg"), 1)
	assert.ErrorIs(t, err, provider.ErrInvalidImage)

	var statusErr *StatusError
	assert.ErrorAs(t, err, &statusErr)
}
