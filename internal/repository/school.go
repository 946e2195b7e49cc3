package repository

import (
	"context"

	"campus-board/internal/domain"
)

// SchoolRepository defines persistence operations for School entities.
// Schools have no write path through the API; Create exists for the seed
// command only.
type SchoolRepository interface {
	Init(ctx context.Context) error
	Create(ctx context.Context, school *domain.School) (int64, error)
	Get(ctx context.Context, id int64) (*domain.School, error)
	List(ctx context.Context) ([]domain.School, error)
	// ListByEmailDomain returns every school registered for the domain,
	// ordered by id. More than one entry means the domain is ambiguous.
	ListByEmailDomain(ctx context.Context, emailDomain string) ([]domain.School, error)
}
