package service

import (
	"context"
	"strings"
	"time"

	"campus-board/internal/domain"
	"campus-board/internal/repository"
)

// CommentService coordinates comment level operations.
type CommentService interface {
	Create(ctx context.Context, commenterID, postID int64, body string, pubDate *time.Time) (*domain.Comment, error)
	Get(ctx context.Context, id int64) (*domain.Comment, error)
	List(ctx context.Context, filter repository.CommentFilter, opts repository.ListOptions) ([]domain.Comment, int64, error)
	Delete(ctx context.Context, id int64) error
}

type commentService struct {
	comments repository.CommentRepository
	posts    repository.PostRepository
	users    repository.UserRepository
}

func NewCommentService(comments repository.CommentRepository, posts repository.PostRepository, users repository.UserRepository) CommentService {
	return &commentService{
		comments: comments,
		posts:    posts,
		users:    users,
	}
}

func (s *commentService) Create(ctx context.Context, commenterID, postID int64, body string, pubDate *time.Time) (*domain.Comment, error) {
	if strings.TrimSpace(body) == "" {
		return nil, validationErr("body is required")
	}

	if _, err := s.posts.Get(ctx, postID); err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "not found") {
			return nil, validationErr("post does not exist")
		}
		return nil, err
	}

	comment := &domain.Comment{
		PostID:      postID,
		CommenterID: commenterID,
		Body:        body,
	}
	if pubDate != nil {
		comment.PubDate = pubDate.UTC()
	}

	if _, err := s.comments.Create(ctx, comment); err != nil {
		return nil, err
	}
	return s.hydrate(ctx, comment)
}

func (s *commentService) Get(ctx context.Context, id int64) (*domain.Comment, error) {
	comment, err := s.comments.Get(ctx, id)
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "not found") {
			return nil, notFoundErr("comment not found")
		}
		return nil, err
	}
	return s.hydrate(ctx, comment)
}

func (s *commentService) List(ctx context.Context, filter repository.CommentFilter, opts repository.ListOptions) ([]domain.Comment, int64, error) {
	comments, total, err := s.comments.List(ctx, filter, opts)
	if err != nil {
		return nil, 0, err
	}
	for i := range comments {
		if _, err := s.hydrate(ctx, &comments[i]); err != nil {
			return nil, 0, err
		}
	}
	return comments, total, nil
}

func (s *commentService) Delete(ctx context.Context, id int64) error {
	if err := s.comments.Delete(ctx, id); err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "not found") {
			return notFoundErr("comment not found")
		}
		return err
	}
	return nil
}

func (s *commentService) hydrate(ctx context.Context, comment *domain.Comment) (*domain.Comment, error) {
	commenter, err := s.users.GetByID(ctx, comment.CommenterID)
	if err != nil {
		return nil, err
	}
	comment.Commenter = sanitizeUser(commenter)
	return comment, nil
}
