package service

import (
	"context"
	"strings"

	"campus-board/internal/domain"
	"campus-board/internal/repository"
)

// SchoolService exposes read-only access to schools. There is no write
// path through the API; schools are provisioned out-of-band.
type SchoolService interface {
	Get(ctx context.Context, id int64) (*domain.School, error)
	List(ctx context.Context) ([]domain.School, error)
	// PostIDs lists the ids of the school's posts for nested
	// reference-only serialization.
	PostIDs(ctx context.Context, schoolID int64) ([]int64, error)
}

type schoolService struct {
	schools repository.SchoolRepository
	posts   repository.PostRepository
}

func NewSchoolService(schools repository.SchoolRepository, posts repository.PostRepository) SchoolService {
	return &schoolService{
		schools: schools,
		posts:   posts,
	}
}

func (s *schoolService) Get(ctx context.Context, id int64) (*domain.School, error) {
	school, err := s.schools.Get(ctx, id)
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "not found") {
			return nil, notFoundErr("school not found")
		}
		return nil, err
	}
	return school, nil
}

func (s *schoolService) List(ctx context.Context) ([]domain.School, error) {
	return s.schools.List(ctx)
}

func (s *schoolService) PostIDs(ctx context.Context, schoolID int64) ([]int64, error) {
	return s.posts.ListIDsBySchool(ctx, schoolID)
}
