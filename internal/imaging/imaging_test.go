package imaging

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func solid(w, h int, c color.Color) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

func encodePNG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestDecodeAndDimensions(t *testing.T) {
	data := encodePNG(t, solid(40, 30, color.White))

	img, err := Decode(data)
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 40, 30), img.Bounds())

	w, h, err := Dimensions(data)
	require.NoError(t, err)
	assert.Equal(t, 40, w)
	assert.Equal(t, 30, h)

	_, err = Decode([]byte("not an image"))
	assert.Error(t, err)
	_, _, err = Dimensions(nil)
	assert.Error(t, err)
}

func TestEqualize_StretchesContrast(t *testing.T) {
	// left half dark grey, right half slightly lighter grey
	img := image.NewGray(image.Rect(0, 0, 10, 10))
	for y := 0; y < 10; y++ {
		for x := 0; x < 10; x++ {
			v := uint8(100)
			if x >= 5 {
				v = 110
			}
			img.SetGray(x, y, color.Gray{Y: v})
		}
	}

	out := Equalize(img)
	assert.Equal(t, image.Rect(0, 0, 10, 10), out.Bounds())

	dark := out.RGBAAt(0, 0)
	light := out.RGBAAt(9, 9)
	assert.Equal(t, uint8(0), dark.R)
	assert.Equal(t, uint8(255), light.R)
	assert.Equal(t, light.R, light.G, "output is grey recombined to color")
	assert.Equal(t, light.R, light.B)
	assert.Equal(t, uint8(255), light.A)
}

func TestEqualize_UniformImageUnchanged(t *testing.T) {
	out := Equalize(solid(4, 4, color.Gray{Y: 77}))
	assert.Equal(t, uint8(77), out.RGBAAt(2, 2).R)
}

func TestEqualizeBytes(t *testing.T) {
	data, err := EqualizeBytes(encodePNG(t, solid(16, 16, color.RGBA{R: 200, G: 10, B: 10, A: 255})))
	require.NoError(t, err)

	img, err := Decode(data)
	require.NoError(t, err)
	assert.Equal(t, 16, img.Bounds().Dx())

	_, err = EqualizeBytes([]byte("garbage"))
	assert.Error(t, err)
}

func TestCrop(t *testing.T) {
	img := solid(20, 20, color.Black)
	img.Set(12, 13, color.White)

	region, err := Crop(img, image.Rect(10, 10, 15, 15))
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 5, 5), region.Bounds())
	r, _, _, _ := region.At(2, 3).RGBA()
	assert.Equal(t, uint32(0xffff), r)

	clipped, err := Crop(img, image.Rect(15, 15, 40, 40))
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 5, 5), clipped.Bounds())

	_, err = Crop(img, image.Rect(30, 30, 40, 40))
	assert.ErrorIs(t, err, ErrEmptyRegion)
}

func TestCrop_NonZeroOrigin(t *testing.T) {
	base := solid(20, 20, color.Black)
	base.Set(6, 6, color.White)
	sub := base.SubImage(image.Rect(5, 5, 20, 20))

	region, err := Crop(sub, image.Rect(0, 0, 3, 3))
	require.NoError(t, err)
	r, _, _, _ := region.At(1, 1).RGBA()
	assert.Equal(t, uint32(0xffff), r)
}

func TestMeanBrightness(t *testing.T) {
	img := solid(10, 10, color.Black)
	for y := 0; y < 10; y++ {
		for x := 5; x < 10; x++ {
			img.Set(x, y, color.White)
		}
	}

	whole, err := MeanBrightness(img, img.Bounds())
	require.NoError(t, err)
	assert.InDelta(t, 127.5, whole, 0.01)

	right, err := MeanBrightness(img, image.Rect(5, 0, 10, 10))
	require.NoError(t, err)
	assert.InDelta(t, 255, right, 0.01)

	_, err = MeanBrightness(img, image.Rect(50, 50, 60, 60))
	assert.ErrorIs(t, err, ErrEmptyRegion)
}
