package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"campus-board/internal/domain"
	"campus-board/internal/repository"
)

const createAttachmentsTable = `
CREATE TABLE IF NOT EXISTS attachments (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	post_id INTEGER NOT NULL REFERENCES posts(id) ON DELETE CASCADE,
	key TEXT NOT NULL,
	name TEXT NOT NULL,
	size INTEGER NOT NULL,
	content_type TEXT NOT NULL DEFAULT '',
	created_at DATETIME NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_attachments_post ON attachments(post_id);
`

type AttachmentRepository struct {
	db *sql.DB
}

func NewAttachmentRepository(db *sql.DB) repository.AttachmentRepository {
	return &AttachmentRepository{db: db}
}

func (r *AttachmentRepository) Init(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, createAttachmentsTable); err != nil {
		return fmt.Errorf("create attachments table: %w", err)
	}
	return nil
}

func (r *AttachmentRepository) Create(ctx context.Context, att *domain.Attachment) (int64, error) {
	att.CreatedAt = time.Now().UTC()

	res, err := r.db.ExecContext(ctx, `
INSERT INTO attachments (post_id, key, name, size, content_type, created_at)
VALUES (?, ?, ?, ?, ?, ?)`,
		att.PostID,
		att.Key,
		att.Name,
		att.Size,
		att.ContentType,
		att.CreatedAt,
	)
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "foreign key") {
			return 0, fmt.Errorf("post not found: %w", err)
		}
		return 0, fmt.Errorf("insert attachment: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("attachment last insert id: %w", err)
	}
	att.ID = id
	return id, nil
}

func (r *AttachmentRepository) ListByPost(ctx context.Context, postID int64) ([]domain.Attachment, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT id, post_id, key, name, size, content_type, created_at
FROM attachments
WHERE post_id = ?
ORDER BY id`,
		postID,
	)
	if err != nil {
		return nil, fmt.Errorf("list attachments: %w", err)
	}
	defer rows.Close()

	var atts []domain.Attachment
	for rows.Next() {
		var a domain.Attachment
		if err := rows.Scan(&a.ID, &a.PostID, &a.Key, &a.Name, &a.Size, &a.ContentType, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan attachment: %w", err)
		}
		atts = append(atts, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate attachments: %w", err)
	}
	return atts, nil
}
