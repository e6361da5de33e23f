package provider

import (
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBoundingBox(t *testing.T) {
	b := BoundingBox{X: 10, Y: 20, Width: 30, Height: 40}

	x, y := b.Center()
	assert.Equal(t, 25.0, x)
	assert.Equal(t, 40.0, y)
	assert.Equal(t, 50.0, b.Diagonal())
	assert.Equal(t, 1200, b.Area())
	assert.Equal(t, image.Rect(10, 20, 40, 60), b.Rect())

	assert.Equal(t, 0, BoundingBox{Width: -1, Height: 5}.Area())
}

func TestLargest(t *testing.T) {
	tests := []struct {
		name  string
		faces []EncodedFace
		want  int
	}{
		{"empty", nil, -1},
		{"single", []EncodedFace{{Box: BoundingBox{Width: 1, Height: 1}}}, 0},
		{
			"picks biggest",
			[]EncodedFace{
				{Box: BoundingBox{Width: 10, Height: 10}},
				{Box: BoundingBox{Width: 50, Height: 40}},
				{Box: BoundingBox{Width: 20, Height: 20}},
			},
			1,
		},
		{
			"first wins ties",
			[]EncodedFace{
				{Box: BoundingBox{Width: 20, Height: 10}},
				{Box: BoundingBox{Width: 10, Height: 20}},
			},
			0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Largest(tt.faces))
		})
	}
}
