package repository

import (
	"context"

	"campus-board/internal/domain"
)

// UserRepository defines persistence operations for User entities.
type UserRepository interface {
	Init(ctx context.Context) error
	Create(ctx context.Context, user *domain.User) (int64, error)
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
	GetByID(ctx context.Context, id int64) (*domain.User, error)
}

// APIKeyRepository manages the single opaque token held by each user.
type APIKeyRepository interface {
	Init(ctx context.Context) error
	// GetOrCreate returns the user's existing key, or stores and returns
	// the candidate key when the user has none yet.
	GetOrCreate(ctx context.Context, userID int64, candidate string) (*domain.APIKey, error)
	GetByKey(ctx context.Context, key string) (*domain.APIKey, error)
}
