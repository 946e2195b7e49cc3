package repository

import (
	"context"
	"time"

	"campus-board/internal/domain"
)

// CommentFilter is an explicit filter specification for comment list
// queries. Nil fields are not applied.
type CommentFilter struct {
	PostID  *int64
	DateOn  *time.Time
	DateGTE *time.Time
	DateLTE *time.Time
}

// CommentRepository exposes persistence operations for Comment entities.
type CommentRepository interface {
	Init(ctx context.Context) error
	Create(ctx context.Context, comment *domain.Comment) (int64, error)
	Get(ctx context.Context, id int64) (*domain.Comment, error)
	List(ctx context.Context, filter CommentFilter, opts ListOptions) ([]domain.Comment, int64, error)
	ListIDsByPost(ctx context.Context, postID int64) ([]int64, error)
	Delete(ctx context.Context, id int64) error
}
