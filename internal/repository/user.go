package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/pgvector/pgvector-go"

	"github.com/saturnino-fabrica-de-software/ponto/internal/domain"
)

type UserRepository struct {
	pool PgxPool
}

func NewUserRepository(pool PgxPool) *UserRepository {
	return &UserRepository{pool: pool}
}

// Create stores the user and its face profile in one transaction. The user
// number is taken from the counter row, whose lock serializes concurrent
// registrations; a rollback returns the number to the counter.
func (r *UserRepository) Create(ctx context.Context, user *domain.User) error {
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}

	err := inTx(ctx, r.pool, func(tx pgx.Tx) error {
		var number int
		err := tx.QueryRow(ctx, `
			UPDATE user_sequence SET last_value = last_value + 1
			WHERE id
			RETURNING last_value
		`).Scan(&number)
		if err != nil {
			return fmt.Errorf("next user number: %w", err)
		}

		err = tx.QueryRow(ctx, `
			INSERT INTO app_users (id, user_number, username, created_at)
			VALUES ($1, $2, $3, NOW())
			RETURNING created_at
		`, user.ID, number, user.Username).Scan(&user.CreatedAt)
		if err != nil {
			if isUniqueViolation(err) {
				if violatedConstraint(err) == "app_users_user_number_key" {
					return domain.ErrStoreConflict.WithError(err)
				}
				return domain.ErrIdentifierInUse
			}
			return fmt.Errorf("insert user: %w", err)
		}

		for i, e := range user.Embeddings {
			_, err := tx.Exec(ctx, `
				INSERT INTO face_embeddings (user_id, position, embedding)
				VALUES ($1, $2, $3)
			`, user.ID, i, toVector(e))
			if err != nil {
				return fmt.Errorf("insert embedding %d: %w", i+1, err)
			}
		}

		user.Number = &number
		return nil
	})
	if err != nil {
		var appErr *domain.AppError
		if errors.As(err, &appErr) {
			return err
		}
		return fmt.Errorf("create user: %w", err)
	}

	return nil
}

func (r *UserRepository) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM app_users WHERE id = $1)`, id).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check user exists: %w", err)
	}
	return exists, nil
}

func (r *UserRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	query := `
		SELECT id, user_number, username, created_at
		FROM app_users
		WHERE id = $1
	`

	var u domain.User
	err := r.pool.QueryRow(ctx, query, id).Scan(&u.ID, &u.Number, &u.Username, &u.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get user by id: %w", err)
	}

	return &u, nil
}

func (r *UserRepository) GetByNumber(ctx context.Context, number int) (*domain.User, error) {
	query := `
		SELECT id, user_number, username, created_at
		FROM app_users
		WHERE user_number = $1
	`

	var u domain.User
	err := r.pool.QueryRow(ctx, query, number).Scan(&u.ID, &u.Number, &u.Username, &u.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get user by number: %w", err)
	}

	return &u, nil
}

// List returns every user by registration order.
func (r *UserRepository) List(ctx context.Context) ([]domain.User, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, user_number, username, created_at
		FROM app_users
		ORDER BY user_number ASC NULLS LAST, created_at ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	users := []domain.User{}
	for rows.Next() {
		var u domain.User
		if err := rows.Scan(&u.ID, &u.Number, &u.Username, &u.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}

	return users, nil
}

func (r *UserRepository) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM app_users`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count users: %w", err)
	}
	return count, nil
}

// ListProfiles loads the enrolled embeddings of every user, grouped per user
// in insertion order.
func (r *UserRepository) ListProfiles(ctx context.Context) ([]domain.FaceProfile, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT user_id, embedding
		FROM face_embeddings
		ORDER BY user_id, position
	`)
	if err != nil {
		return nil, fmt.Errorf("list profiles: %w", err)
	}
	defer rows.Close()

	profiles := []domain.FaceProfile{}
	for rows.Next() {
		var userID uuid.UUID
		var vec *pgvector.Vector
		if err := rows.Scan(&userID, &vec); err != nil {
			return nil, fmt.Errorf("scan embedding: %w", err)
		}
		if vec == nil {
			continue
		}

		n := len(profiles)
		if n == 0 || profiles[n-1].UserID != userID {
			profiles = append(profiles, domain.FaceProfile{UserID: userID})
			n++
		}
		profiles[n-1].Embeddings = append(profiles[n-1].Embeddings, fromVector(*vec))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list profiles: %w", err)
	}

	return profiles, nil
}

// ResetResult counts the rows removed by DeleteAll.
type ResetResult struct {
	Users    int64
	Sessions int64
}

// DeleteAll removes every attendance session and user and restarts user
// numbering at 1.
func (r *UserRepository) DeleteAll(ctx context.Context) (ResetResult, error) {
	var res ResetResult

	err := inTx(ctx, r.pool, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `DELETE FROM attendance`)
		if err != nil {
			return fmt.Errorf("delete attendance: %w", err)
		}
		res.Sessions = tag.RowsAffected()

		tag, err = tx.Exec(ctx, `DELETE FROM app_users`)
		if err != nil {
			return fmt.Errorf("delete users: %w", err)
		}
		res.Users = tag.RowsAffected()

		if _, err := tx.Exec(ctx, `UPDATE user_sequence SET last_value = 0 WHERE id`); err != nil {
			return fmt.Errorf("reset user numbers: %w", err)
		}
		return nil
	})
	if err != nil {
		return ResetResult{}, fmt.Errorf("reset users: %w", err)
	}

	return res, nil
}
