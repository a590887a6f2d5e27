package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"authgate/internal/domain"
	"authgate/pkg/database"
)

type UserRepository struct {
	db *database.PostgresDB
}

func NewUserRepository(db *database.PostgresDB) *UserRepository {
	return &UserRepository{db: db}
}

// UpsertAndFetch inserts or refreshes the user row for the draft's identity key
// in a single statement. Concurrency is serialized by the unique constraint on
// (provider, provider_id): exactly one concurrent completion inserts, the rest
// update, and every completion bumps login_count exactly once.
func (r *UserRepository) UpsertAndFetch(ctx context.Context, draft *domain.Draft) (*domain.User, error) {
	if draft.Provider == "" || draft.ProviderID == "" {
		return nil, fmt.Errorf("provider and provider_id are required")
	}

	query := `
		INSERT INTO users (email, name, provider, provider_id, avatar_url, first_login, last_login, login_count)
		VALUES ($1, $2, $3, $4, $5, now(), now(), 1)
		ON CONFLICT (provider, provider_id) DO UPDATE SET
			email = EXCLUDED.email,
			name = EXCLUDED.name,
			avatar_url = EXCLUDED.avatar_url,
			last_login = now(),
			login_count = users.login_count + 1
		RETURNING id, email, name, provider, provider_id, avatar_url, first_login, last_login, login_count
	`

	var user domain.User
	err := r.db.Pool.QueryRow(ctx, query,
		draft.Email,
		draft.Name,
		draft.Provider,
		draft.ProviderID,
		draft.AvatarURL,
	).Scan(
		&user.ID,
		&user.Email,
		&user.Name,
		&user.Provider,
		&user.ProviderID,
		&user.AvatarURL,
		&user.FirstLogin,
		&user.LastLogin,
		&user.LoginCount,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert user: %w", err)
	}

	return &user, nil
}

// GetByProviderID fetches a user by its identity key
func (r *UserRepository) GetByProviderID(ctx context.Context, provider, providerID string) (*domain.User, error) {
	query := `
		SELECT id, email, name, provider, provider_id, avatar_url, first_login, last_login, login_count
		FROM users
		WHERE provider = $1 AND provider_id = $2
	`

	var user domain.User
	err := r.db.Pool.QueryRow(ctx, query, provider, providerID).Scan(
		&user.ID,
		&user.Email,
		&user.Name,
		&user.Provider,
		&user.ProviderID,
		&user.AvatarURL,
		&user.FirstLogin,
		&user.LastLogin,
		&user.LoginCount,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	return &user, nil
}

// ListAll returns every user, newest last_login first. The listing is an
// administrative endpoint over a small table, so no pagination.
func (r *UserRepository) ListAll(ctx context.Context) ([]domain.User, error) {
	query := `
		SELECT id, email, name, provider, provider_id, avatar_url, first_login, last_login, login_count
		FROM users
		ORDER BY last_login DESC
	`

	rows, err := r.db.Pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	var users []domain.User
	for rows.Next() {
		var user domain.User
		err := rows.Scan(
			&user.ID,
			&user.Email,
			&user.Name,
			&user.Provider,
			&user.ProviderID,
			&user.AvatarURL,
			&user.FirstLogin,
			&user.LastLogin,
			&user.LoginCount,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate users: %w", err)
	}

	return users, nil
}
