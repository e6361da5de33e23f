package domain

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
)

// Embedding is a fixed-length face vector produced by the encoder.
type Embedding []float64

// User is a registered person together with the face profile enrolled at
// registration time.
type User struct {
	ID         uuid.UUID   `json:"user_id"`
	Number     *int        `json:"user_number,omitempty"`
	Username   string      `json:"username"`
	Embeddings []Embedding `json:"-"`
	CreatedAt  time.Time   `json:"created_at"`
}

// Profile returns the user's face profile.
func (u *User) Profile() FaceProfile {
	return FaceProfile{UserID: u.ID, Embeddings: u.Embeddings}
}

// FaceProfile is the set of embeddings enrolled for one identity. Order is
// insertion order and carries no meaning for matching.
type FaceProfile struct {
	UserID     uuid.UUID
	Embeddings []Embedding
}

const (
	MinUsernameLength = 3
	MaxUsernameLength = 100
)

// ValidateUsername checks the display name given at registration. Names are
// not unique.
func ValidateUsername(name string) error {
	n := utf8.RuneCountInString(strings.TrimSpace(name))
	if n < MinUsernameLength {
		return fmt.Errorf("username must have at least %d characters", MinUsernameLength)
	}
	if n > MaxUsernameLength {
		return fmt.Errorf("username must have at most %d characters", MaxUsernameLength)
	}
	return nil
}
