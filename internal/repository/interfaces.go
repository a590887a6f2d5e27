package repository

import (
	"context"

	"authgate/internal/domain"
)

// UserStore is the identity store contract. UpsertAndFetch is the only write
// path for user rows anywhere in the gateway.
type UserStore interface {
	// UpsertAndFetch atomically inserts or refreshes the row for the draft's
	// (provider, provider_id) pair and returns the canonical record. A new row
	// gets first_login = last_login = now and login_count = 1; an existing row
	// gets the draft's profile fields, last_login = now and login_count + 1.
	UpsertAndFetch(ctx context.Context, draft *domain.Draft) (*domain.User, error)

	// GetByProviderID fetches a user by its identity key. Returns nil, nil when
	// no row exists.
	GetByProviderID(ctx context.Context, provider, providerID string) (*domain.User, error)

	// ListAll returns every user ordered by last_login, newest first.
	ListAll(ctx context.Context) ([]domain.User, error)
}
