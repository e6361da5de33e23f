package rekognition

import (
	"errors"
	"fmt"

	"github.com/saturnino-fabrica-de-software/ponto/internal/provider"
)

var (
	// ErrInvalidCredentials indicates that AWS credentials are invalid or missing
	ErrInvalidCredentials = errors.New("invalid or missing AWS credentials")

	// ErrInvalidImage indicates the image is empty, too small, too large or undecodable
	ErrInvalidImage = fmt.Errorf("rekognition: %w", provider.ErrInvalidImage)

	// ErrThrottled indicates Rekognition rejected the call because of request limits
	ErrThrottled = errors.New("rekognition request throttled")
)
