package sqlite

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"campus-board/internal/domain"
)

func TestAPIKeyGetOrCreateIsStable(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	userID := seedUser(t, db, "alice@state.edu")
	keys := NewAPIKeyRepository(db)

	first, err := keys.GetOrCreate(ctx, userID, "key-one")
	require.NoError(t, err)
	assert.Equal(t, "key-one", first.Key)

	// a later login offers a fresh candidate but gets the original back
	second, err := keys.GetOrCreate(ctx, userID, "key-two")
	require.NoError(t, err)
	assert.Equal(t, "key-one", second.Key)
	assert.Equal(t, first.ID, second.ID)
}

func TestAPIKeyGetByKey(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	userID := seedUser(t, db, "alice@state.edu")
	keys := NewAPIKeyRepository(db)

	_, err := keys.GetOrCreate(ctx, userID, "stable-key")
	require.NoError(t, err)

	found, err := keys.GetByKey(ctx, "stable-key")
	require.NoError(t, err)
	assert.Equal(t, userID, found.UserID)

	_, err = keys.GetByKey(ctx, "no-such-key")
	require.ErrorContains(t, err, "not found")
}

func TestUserRepositoryDuplicateRejected(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	users := NewUserRepository(db)
	_, err := users.Create(ctx, &domain.User{
		Username:     "alice@state.edu",
		Email:        "alice@state.edu",
		PasswordHash: "x",
	})
	require.NoError(t, err)

	_, err = users.Create(ctx, &domain.User{
		Username:     "alice@state.edu",
		Email:        "alice@state.edu",
		PasswordHash: "y",
	})
	require.ErrorContains(t, err, "already exists")
}
