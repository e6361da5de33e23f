package liveness

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/png"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saturnino-fabrica-de-software/ponto/internal/domain"
	"github.com/saturnino-fabrica-de-software/ponto/internal/provider"
)

type fakeDetector struct {
	mu       sync.Mutex
	faces    map[string][]provider.BoundingBox
	faceErr  map[string]error
	eyes     []provider.BoundingBox
	eyeCalls int
}

func (d *fakeDetector) DetectFaces(_ context.Context, image []byte) ([]provider.BoundingBox, error) {
	if err := d.faceErr[string(image)]; err != nil {
		return nil, err
	}
	return d.faces[string(image)], nil
}

func (d *fakeDetector) DetectEyes(_ context.Context, _ []byte) ([]provider.BoundingBox, error) {
	d.mu.Lock()
	d.eyeCalls++
	d.mu.Unlock()
	return d.eyes, nil
}

func box(x, y int) []provider.BoundingBox {
	return []provider.BoundingBox{{X: x, Y: y, Width: 100, Height: 100}}
}

func frames(names ...string) [][]byte {
	out := make([][]byte, len(names))
	for i, n := range names {
		out[i] = []byte(n)
	}
	return out
}

func newTestVerifier(d provider.Detector) *Verifier {
	return NewVerifier(d, DefaultOptions(), slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func solidPNG(t *testing.T, grey uint8) []byte {
	t.Helper()
	img := image.NewGray(image.Rect(0, 0, 200, 200))
	for i := range img.Pix {
		img.Pix[i] = grey
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestVerify_InsufficientFrames(t *testing.T) {
	v := newTestVerifier(&fakeDetector{})

	for _, n := range []int{0, 1, 2} {
		_, err := v.Verify(context.Background(), make([][]byte, n))
		assert.ErrorIs(t, err, domain.ErrInsufficientFrames)
	}
}

func TestVerify_HeadMovement(t *testing.T) {
	d := &fakeDetector{faces: map[string][]provider.BoundingBox{
		"f1": box(100, 100),
		"f2": box(130, 100),
		"f3": box(130, 100),
	}}

	result, err := newTestVerifier(d).Verify(context.Background(), frames("f1", "f2", "f3"))

	require.NoError(t, err)
	assert.True(t, result.Live())
	assert.Equal(t, SignalMovement, result.Signal)
	assert.Equal(t, 2, result.ForwardIndex, "last face frame is forwarded, not the triggering one")
	assert.Equal(t, []byte("f3"), result.Forward)
	assert.Equal(t, 3, result.Processed)
}

func TestVerify_StaticSubject(t *testing.T) {
	faces := map[string][]provider.BoundingBox{}
	names := []string{"f1", "f2", "f3", "f4", "f5"}
	for _, n := range names {
		faces[n] = box(100, 100)
	}
	d := &fakeDetector{faces: faces}

	result, err := newTestVerifier(d).Verify(context.Background(), frames(names...))

	require.NoError(t, err)
	assert.Equal(t, StateStaticSuspected, result.State)
	assert.Equal(t, SignalNone, result.Signal)
	assert.Equal(t, 5, result.Processed)
	assert.Equal(t, 4, result.ForwardIndex)
}

func TestVerify_SlowDriftIsNotMovement(t *testing.T) {
	// each step moves 5px on a 141px diagonal, below the 10% threshold
	d := &fakeDetector{faces: map[string][]provider.BoundingBox{
		"f1": box(100, 100),
		"f2": box(105, 100),
		"f3": box(110, 100),
		"f4": box(115, 100),
		"f5": box(120, 100),
	}}

	result, err := newTestVerifier(d).Verify(context.Background(), frames("f1", "f2", "f3", "f4", "f5"))

	require.NoError(t, err)
	assert.Equal(t, StateStaticSuspected, result.State)
}

func TestVerify_NotEnoughFacesKeepsCollecting(t *testing.T) {
	d := &fakeDetector{faces: map[string][]provider.BoundingBox{
		"f2": box(100, 100),
	}}

	result, err := newTestVerifier(d).Verify(context.Background(), frames("f1", "f2", "f3", "f4"))

	require.NoError(t, err)
	assert.Equal(t, StateCollecting, result.State)
	assert.Equal(t, 1, result.Processed)
	assert.Equal(t, 1, result.ForwardIndex)
	assert.Zero(t, d.eyeCalls)
}

func TestVerify_FacelessFramesAreSkipped(t *testing.T) {
	d := &fakeDetector{
		faces: map[string][]provider.BoundingBox{
			"f1": box(100, 100),
			"f3": box(100, 160),
		},
		faceErr: map[string]error{"f4": provider.ErrInvalidImage},
	}

	result, err := newTestVerifier(d).Verify(context.Background(), frames("f1", "f2", "f3", "f4"))

	require.NoError(t, err)
	assert.True(t, result.Live())
	assert.Equal(t, 2, result.Processed)
	assert.Equal(t, 2, result.ForwardIndex)
}

func TestVerify_NoFaceAtAll(t *testing.T) {
	result, err := newTestVerifier(&fakeDetector{}).Verify(context.Background(), frames("a", "b", "c"))

	require.NoError(t, err)
	assert.Equal(t, StateCollecting, result.State)
	assert.Equal(t, -1, result.ForwardIndex)
	assert.Nil(t, result.Forward)
}

func TestVerify_OpenEyes(t *testing.T) {
	bright := solidPNG(t, 200)
	dark := solidPNG(t, 20)
	eyes := []provider.BoundingBox{{X: 20, Y: 30, Width: 20, Height: 10}, {X: 60, Y: 30, Width: 20, Height: 10}}

	tests := []struct {
		name   string
		frame  []byte
		eyes   []provider.BoundingBox
		want   State
		signal Signal
	}{
		{"bright eyes", bright, eyes, StateLive, SignalBlink},
		{"dark eyes", dark, eyes, StateCollecting, SignalNone},
		{"single eye", bright, eyes[:1], StateCollecting, SignalNone},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := &fakeDetector{
				faces: map[string][]provider.BoundingBox{string(tt.frame): box(50, 50)},
				eyes:  tt.eyes,
			}

			result, err := newTestVerifier(d).Verify(context.Background(), [][]byte{tt.frame, tt.frame, tt.frame})

			require.NoError(t, err)
			assert.Equal(t, tt.want, result.State)
			assert.Equal(t, tt.signal, result.Signal)
		})
	}
}

func TestVerify_DetectorFailure(t *testing.T) {
	d := &fakeDetector{faceErr: map[string]error{"f2": errors.New("sidecar down")}}

	_, err := newTestVerifier(d).Verify(context.Background(), frames("f1", "f2", "f3"))

	require.Error(t, err)
	assert.Contains(t, err.Error(), "frame 2")
	assert.Contains(t, err.Error(), "sidecar down")
}

func TestVerify_ConcurrentRunsAreIsolated(t *testing.T) {
	d := &fakeDetector{faces: map[string][]provider.BoundingBox{
		"m1": box(100, 100), "m2": box(150, 100), "m3": box(150, 100),
		"s1": box(100, 100), "s2": box(100, 100), "s3": box(100, 100), "s4": box(100, 100), "s5": box(100, 100),
	}}
	v := newTestVerifier(d)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			r, err := v.Verify(context.Background(), frames("m1", "m2", "m3"))
			assert.NoError(t, err)
			assert.Equal(t, StateLive, r.State)
		}()
		go func() {
			defer wg.Done()
			r, err := v.Verify(context.Background(), frames("s1", "s2", "s3", "s4", "s5"))
			assert.NoError(t, err)
			assert.Equal(t, StateStaticSuspected, r.State)
		}()
	}
	wg.Wait()
}

func TestRing(t *testing.T) {
	r := newRing[int](3)
	_, ok := r.last()
	assert.False(t, ok)

	for i := 1; i <= 5; i++ {
		r.push(i)
	}
	last, ok := r.last()
	require.True(t, ok)
	assert.Equal(t, 5, last)
	assert.Equal(t, 3, r.len())
}

func TestMoved(t *testing.T) {
	prev := provider.BoundingBox{X: 0, Y: 0, Width: 30, Height: 40}

	assert.False(t, moved(prev, prev, 0.1))
	assert.True(t, moved(prev, provider.BoundingBox{X: 6, Y: 0, Width: 30, Height: 40}, 0.1))
	assert.False(t, moved(prev, provider.BoundingBox{X: 5, Y: 0, Width: 30, Height: 40}, 0.1))
	assert.False(t, moved(prev, provider.BoundingBox{X: 50}, 0.1), "zero-sized box never moves")
}
