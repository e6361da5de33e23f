package handler

import (
	"context"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/saturnino-fabrica-de-software/ponto/internal/api/middleware"
	"github.com/saturnino-fabrica-de-software/ponto/internal/domain"
)

type MockUserService struct {
	mock.Mock
}

func (m *MockUserService) List(ctx context.Context) ([]domain.User, error) {
	args := m.Called(ctx)
	return args.Get(0).([]domain.User), args.Error(1)
}

func (m *MockUserService) Get(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockUserService) Count(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

func TestUserHandler(t *testing.T) {
	one := 1
	alice := domain.User{ID: uuid.New(), Number: &one, Username: "alice"}
	missing := uuid.New()

	users := &MockUserService{}
	users.On("List", mock.Anything).Return([]domain.User{alice}, nil)
	users.On("Get", mock.Anything, alice.ID).Return(&alice, nil)
	users.On("Get", mock.Anything, missing).Return(nil, domain.ErrUserNotFound)
	users.On("Count", mock.Anything).Return(1, nil)

	h := NewUserHandler(users, testLogger())
	app := newTestApp()
	app.Get("/users", h.List)
	app.Get("/users/count/total", h.Count)
	app.Get("/users/:id", h.Get)

	t.Run("list", func(t *testing.T) {
		resp, err := app.Test(httptest.NewRequest("GET", "/users", nil))
		require.NoError(t, err)
		assert.Equal(t, 200, resp.StatusCode)

		got := decode[[]map[string]any](t, resp.Body)
		require.Len(t, got, 1)
		assert.Equal(t, alice.ID.String(), got[0]["user_id"])
		assert.Equal(t, float64(1), got[0]["user_number"])
		assert.NotContains(t, got[0], "Embeddings")
	})

	t.Run("count", func(t *testing.T) {
		resp, err := app.Test(httptest.NewRequest("GET", "/users/count/total", nil))
		require.NoError(t, err)
		assert.Equal(t, 1, decode[UserCountResponse](t, resp.Body).TotalUsers)
	})

	t.Run("get", func(t *testing.T) {
		resp, err := app.Test(httptest.NewRequest("GET", "/users/"+alice.ID.String(), nil))
		require.NoError(t, err)
		assert.Equal(t, 200, resp.StatusCode)
		assert.Equal(t, "alice", decode[domain.User](t, resp.Body).Username)
	})

	t.Run("get unknown", func(t *testing.T) {
		resp, err := app.Test(httptest.NewRequest("GET", "/users/"+missing.String(), nil))
		require.NoError(t, err)
		assert.Equal(t, 404, resp.StatusCode)
	})

	t.Run("get malformed id", func(t *testing.T) {
		resp, err := app.Test(httptest.NewRequest("GET", "/users/abc", nil))
		require.NoError(t, err)
		assert.Equal(t, 400, resp.StatusCode)
		assert.Equal(t, "Invalid user ID format", decode[middleware.ErrorBody](t, resp.Body).Message)
	})
}
