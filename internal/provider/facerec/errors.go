package facerec

import "errors"

var (
	ErrUnavailable     = errors.New("facerec service unavailable")
	ErrInvalidResponse = errors.New("invalid response from facerec")
	ErrEmptyEmbedding  = errors.New("facerec returned a face without embedding")
)
