package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/saturnino-fabrica-de-software/ponto/internal/domain"
)

func TestUserService(t *testing.T) {
	ctx := context.Background()
	one := 1
	alice := domain.User{ID: uuid.New(), Number: &one, Username: "alice"}

	users := &MockUserRepository{}
	users.On("List", mock.Anything).Return([]domain.User{alice}, nil)
	users.On("Count", mock.Anything).Return(1, nil)
	users.On("GetByID", mock.Anything, alice.ID).Return(&alice, nil)
	users.On("GetByID", mock.Anything, mock.Anything).Return(nil, domain.ErrUserNotFound)

	svc := NewUserService(users, testLogger())

	list, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []domain.User{alice}, list)

	count, err := svc.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	got, err := svc.Get(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice", got.Username)

	_, err = svc.Get(ctx, uuid.New())
	assert.ErrorIs(t, err, domain.ErrUserNotFound)

	users.AssertExpectations(t)
}
