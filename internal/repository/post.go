package repository

import (
	"context"
	"time"

	"campus-board/internal/domain"
)

// PostFilter is an explicit filter specification for post list queries.
// Nil fields are not applied. SchoolEmailDomain filters across the
// school relation via a join.
type PostFilter struct {
	SchoolID          *int64
	SchoolEmailDomain *string
	DateOn            *time.Time
	DateGTE           *time.Time
	DateLTE           *time.Time
	IDs               []int64
}

// PostRepository exposes persistence operations for Post aggregates.
type PostRepository interface {
	Init(ctx context.Context) error
	Create(ctx context.Context, post *domain.Post) (int64, error)
	Get(ctx context.Context, id int64) (*domain.Post, error)
	// List returns the filtered page plus the total match count before
	// pagination.
	List(ctx context.Context, filter PostFilter, opts ListOptions) ([]domain.Post, int64, error)
	ListIDsBySchool(ctx context.Context, schoolID int64) ([]int64, error)
	Delete(ctx context.Context, id int64) error
}

// AttachmentRepository manages post attachment metadata.
type AttachmentRepository interface {
	Init(ctx context.Context) error
	Create(ctx context.Context, att *domain.Attachment) (int64, error)
	ListByPost(ctx context.Context, postID int64) ([]domain.Attachment, error)
}
