package service

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/saturnino-fabrica-de-software/ponto/internal/domain"
)

type UserReader interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	List(ctx context.Context) ([]domain.User, error)
	Count(ctx context.Context) (int, error)
}

type UserService struct {
	users  UserReader
	logger *slog.Logger
}

func NewUserService(users UserReader, logger *slog.Logger) *UserService {
	return &UserService{users: users, logger: logger}
}

// List returns every registered user ordered by user number.
func (s *UserService) List(ctx context.Context) ([]domain.User, error) {
	return s.users.List(ctx)
}

func (s *UserService) Get(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	return s.users.GetByID(ctx, id)
}

func (s *UserService) Count(ctx context.Context) (int, error) {
	return s.users.Count(ctx)
}
