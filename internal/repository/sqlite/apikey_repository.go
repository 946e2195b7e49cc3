package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"campus-board/internal/domain"
	"campus-board/internal/repository"
)

const createAPIKeysTable = `
CREATE TABLE IF NOT EXISTS api_keys (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	user_id INTEGER NOT NULL UNIQUE REFERENCES users(id) ON DELETE CASCADE,
	key TEXT NOT NULL UNIQUE,
	created_at DATETIME NOT NULL
);
`

type APIKeyRepository struct {
	db *sql.DB
}

func NewAPIKeyRepository(db *sql.DB) repository.APIKeyRepository {
	return &APIKeyRepository{db: db}
}

func (r *APIKeyRepository) Init(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, createAPIKeysTable); err != nil {
		return fmt.Errorf("create api_keys table: %w", err)
	}
	return nil
}

func (r *APIKeyRepository) GetOrCreate(ctx context.Context, userID int64, candidate string) (*domain.APIKey, error) {
	// INSERT OR IGNORE keeps the first key ever issued; repeated logins
	// always resolve to the same token.
	if _, err := r.db.ExecContext(ctx, `
INSERT OR IGNORE INTO api_keys (user_id, key, created_at)
VALUES (?, ?, ?)`,
		userID, candidate, time.Now().UTC(),
	); err != nil {
		return nil, fmt.Errorf("insert api key: %w", err)
	}

	row := r.db.QueryRowContext(ctx, `
SELECT id, user_id, key, created_at
FROM api_keys
WHERE user_id = ?`,
		userID,
	)
	return scanAPIKey(row)
}

func (r *APIKeyRepository) GetByKey(ctx context.Context, key string) (*domain.APIKey, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT id, user_id, key, created_at
FROM api_keys
WHERE key = ?`,
		key,
	)
	return scanAPIKey(row)
}

func scanAPIKey(row interface {
	Scan(dest ...any) error
}) (*domain.APIKey, error) {
	var k domain.APIKey
	if err := row.Scan(&k.ID, &k.UserID, &k.Key, &k.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("api key not found")
		}
		return nil, fmt.Errorf("scan api key: %w", err)
	}
	return &k, nil
}
