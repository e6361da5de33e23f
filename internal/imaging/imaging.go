// Package imaging holds the small amount of pixel work done in-process: the
// histogram-equalized retry image for the extractor, face crops handed to the
// eye detector and eye-region brightness for the blink heuristic.
package imaging

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"math"

	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

const jpegQuality = 95

var ErrEmptyRegion = errors.New("region does not intersect the image")

// Decode decodes a jpeg, png, gif, bmp or webp image.
func Decode(data []byte) (image.Image, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	return img, nil
}

// Dimensions reads the image size without decoding pixel data.
func Dimensions(data []byte) (width, height int, err error) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return 0, 0, fmt.Errorf("decode image config: %w", err)
	}
	return cfg.Width, cfg.Height, nil
}

// EncodeJPEG encodes img as a high quality JPEG.
func EncodeJPEG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return nil, fmt.Errorf("encode jpeg: %w", err)
	}
	return buf.Bytes(), nil
}

// Gray converts img to 8-bit luminance.
func Gray(img image.Image) *image.Gray {
	b := img.Bounds()
	gray := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(gray, gray.Bounds(), img, b.Min, draw.Src)
	return gray
}

// Equalize converts img to greyscale, equalizes its histogram and returns it
// as a three-channel image so color-only detectors accept it.
func Equalize(img image.Image) *image.RGBA {
	gray := Gray(img)

	var hist [256]int
	for _, v := range gray.Pix {
		hist[v]++
	}

	total := len(gray.Pix)
	cdfMin := 0
	for _, n := range hist {
		if n > 0 {
			cdfMin = n
			break
		}
	}

	var lut [256]uint8
	if total > cdfMin {
		scale := 255.0 / float64(total-cdfMin)
		cdf := 0
		for i, n := range hist {
			cdf += n
			if cdf <= cdfMin {
				continue
			}
			lut[i] = uint8(math.Round(float64(cdf-cdfMin) * scale))
		}
	} else {
		// single intensity: nothing to stretch
		for i := range lut {
			lut[i] = uint8(i)
		}
	}

	out := image.NewRGBA(gray.Bounds())
	for y := 0; y < gray.Rect.Dy(); y++ {
		for x := 0; x < gray.Rect.Dx(); x++ {
			v := lut[gray.GrayAt(x, y).Y]
			out.SetRGBA(x, y, color.RGBA{R: v, G: v, B: v, A: 0xff})
		}
	}
	return out
}

// EqualizeBytes decodes data, equalizes it and re-encodes it as JPEG.
func EqualizeBytes(data []byte) ([]byte, error) {
	img, err := Decode(data)
	if err != nil {
		return nil, err
	}
	return EncodeJPEG(Equalize(img))
}

// Crop returns the part of img inside r, with r given relative to the image
// origin. The result keeps its own coordinate space starting at (0,0).
func Crop(img image.Image, r image.Rectangle) (image.Image, error) {
	b := img.Bounds()
	abs := r.Add(b.Min).Intersect(b)
	if abs.Empty() {
		return nil, ErrEmptyRegion
	}

	out := image.NewRGBA(image.Rect(0, 0, abs.Dx(), abs.Dy()))
	draw.Draw(out, out.Bounds(), img, abs.Min, draw.Src)
	return out, nil
}

// MeanBrightness is the average luminance (0-255) of img inside r, with r
// relative to the image origin.
func MeanBrightness(img image.Image, r image.Rectangle) (float64, error) {
	region, err := Crop(img, r)
	if err != nil {
		return 0, err
	}

	gray := Gray(region)
	if len(gray.Pix) == 0 {
		return 0, ErrEmptyRegion
	}

	var sum int
	for _, v := range gray.Pix {
		sum += int(v)
	}
	return float64(sum) / float64(len(gray.Pix)), nil
}
