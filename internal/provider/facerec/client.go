package facerec

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Config holds the configuration for the face_recognition sidecar client
type Config struct {
	BaseURL    string
	Timeout    time.Duration
	RetryCount int
	// Backoff is the wait before the first retry; it doubles on every attempt.
	Backoff time.Duration
}

// DefaultConfig returns a Config with sensible defaults
func DefaultConfig() Config {
	return Config{
		BaseURL:    "http://localhost:5001",
		Timeout:    30 * time.Second,
		RetryCount: 3,
		Backoff:    time.Second,
	}
}

// Client is the HTTP client for the face_recognition sidecar
type Client struct {
	httpClient *http.Client
	config     Config
}

// NewClient creates a new sidecar client
func NewClient(config Config) *Client {
	if config.Backoff <= 0 {
		config.Backoff = time.Second
	}
	return &Client{
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
		config: config,
	}
}

// Encode calls POST /encode to locate faces and compute their embeddings
func (c *Client) Encode(ctx context.Context, imageBase64 string, jitters int) (*EncodeResponse, error) {
	req := EncodeRequest{
		Img:        imageBase64,
		NumJitters: jitters,
	}

	var resp EncodeResponse
	if err := c.doRequestWithRetry(ctx, http.MethodPost, "/encode", req, &resp); err != nil {
		return nil, err
	}

	return &resp, nil
}

// DetectFaces calls POST /detect/faces
func (c *Client) DetectFaces(ctx context.Context, imageBase64 string) (*DetectResponse, error) {
	var resp DetectResponse
	if err := c.doRequestWithRetry(ctx, http.MethodPost, "/detect/faces", DetectRequest{Img: imageBase64}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// DetectEyes calls POST /detect/eyes with a face crop
func (c *Client) DetectEyes(ctx context.Context, imageBase64 string) (*DetectResponse, error) {
	var resp DetectResponse
	if err := c.doRequestWithRetry(ctx, http.MethodPost, "/detect/eyes", DetectRequest{Img: imageBase64}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// maxBackoff is the maximum backoff duration for retries
const maxBackoff = 30 * time.Second

// calculateBackoff returns base, 2*base, 4*base... capped at maxBackoff
func calculateBackoff(base time.Duration, attempt int) time.Duration {
	if attempt <= 1 {
		return base
	}
	backoff := base
	for i := 1; i < attempt && i < 6; i++ {
		backoff *= 2
	}
	if backoff > maxBackoff {
		return maxBackoff
	}
	return backoff
}

// doRequestWithRetry executes HTTP request with retry logic
func (c *Client) doRequestWithRetry(ctx context.Context, method, path string, body interface{}, result interface{}) error {
	var lastErr error

	for attempt := 0; attempt <= c.config.RetryCount; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(calculateBackoff(c.config.Backoff, attempt)):
			}
		}

		lastErr = c.doRequest(ctx, method, path, body, result)
		if lastErr == nil {
			return nil
		}

		if ctx.Err() != nil {
			return ctx.Err()
		}

		// Only server errors (5xx) and transport failures are retried
		if isClientError(lastErr) {
			return lastErr
		}
	}

	return fmt.Errorf("%w: %v", ErrUnavailable, lastErr)
}

// StatusError is a non-2xx answer from the sidecar
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("facerec returned status %d: %s", e.StatusCode, e.Body)
}

func isClientError(err error) bool {
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.StatusCode >= 400 && statusErr.StatusCode < 500
	}
	return errors.Is(err, ErrInvalidResponse)
}

// doRequest executes a single HTTP request
func (c *Client) doRequest(ctx context.Context, method, path string, body interface{}, result interface{}) error {
	var bodyReader io.Reader
	if body != nil {
		bodyBytes, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		bodyReader = bytes.NewReader(bodyBytes)
	}

	url := c.config.BaseURL + path
	req, err := http.NewRequestWithContext(ctx, method, url, bodyReader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		return &StatusError{StatusCode: resp.StatusCode, Body: string(respBody)}
	}

	if result != nil {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidResponse, err)
		}
	}

	return nil
}
