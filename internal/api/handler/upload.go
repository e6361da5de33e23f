package handler

import (
	"fmt"
	"io"
	"mime/multipart"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/saturnino-fabrica-de-software/ponto/internal/domain"
)

const (
	maxImageSize = 10 * 1024 * 1024 // 10MB
	filesField   = "files"
)

// readImages reads every file of the multipart field. Parts that declare a
// non-image content type are rejected; parts without one are accepted.
func readImages(c *fiber.Ctx, field string) ([][]byte, error) {
	form, err := c.MultipartForm()
	if err != nil {
		return nil, domain.ErrValidationFailed.WithMessage("Expected a multipart form with image files").WithError(err)
	}

	headers := form.File[field]
	images := make([][]byte, 0, len(headers))
	for _, fh := range headers {
		data, err := readImage(fh)
		if err != nil {
			return nil, err
		}
		images = append(images, data)
	}
	return images, nil
}

func readImage(fh *multipart.FileHeader) ([]byte, error) {
	contentType := fh.Header.Get("Content-Type")
	if contentType != "" && !strings.HasPrefix(contentType, "image/") {
		return nil, domain.ErrInvalidImage.WithMessage(fmt.Sprintf("File %s is not an image", fh.Filename))
	}
	if fh.Size == 0 {
		return nil, domain.ErrInvalidImage.WithMessage("One or more image files are empty")
	}
	if fh.Size > maxImageSize {
		return nil, domain.ErrInvalidImage.WithMessage(fmt.Sprintf("File %s exceeds %d bytes", fh.Filename, maxImageSize))
	}

	f, err := fh.Open()
	if err != nil {
		return nil, domain.ErrInvalidImage.WithError(err)
	}
	defer func() {
		_ = f.Close()
	}()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, domain.ErrInvalidImage.WithError(err)
	}
	return data, nil
}
