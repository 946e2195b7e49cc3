package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"campus-board/internal/domain"
	"campus-board/internal/repository"
	"campus-board/internal/search"
)

const maxTitleLength = 50

// PostService coordinates post level operations backed by repositories
// and the full-text index.
type PostService interface {
	Create(ctx context.Context, posterID int64, title, body string, pubDate *time.Time) (*domain.Post, error)
	Get(ctx context.Context, id int64) (*domain.Post, error)
	List(ctx context.Context, filter repository.PostFilter, opts repository.ListOptions) ([]domain.Post, int64, error)
	Delete(ctx context.Context, id int64) error
	Search(ctx context.Context, query string, limit, offset int) ([]domain.Post, int64, error)
	AddAttachment(ctx context.Context, postID int64, key, name string, size int64, contentType string) (*domain.Attachment, error)
	ListAttachments(ctx context.Context, postID int64) ([]domain.Attachment, error)
}

type postService struct {
	posts       repository.PostRepository
	comments    repository.CommentRepository
	attachments repository.AttachmentRepository
	users       repository.UserRepository
	schools     repository.SchoolRepository
	index       *search.Index
}

func NewPostService(
	posts repository.PostRepository,
	comments repository.CommentRepository,
	attachments repository.AttachmentRepository,
	users repository.UserRepository,
	schools repository.SchoolRepository,
	index *search.Index,
) PostService {
	return &postService{
		posts:       posts,
		comments:    comments,
		attachments: attachments,
		users:       users,
		schools:     schools,
		index:       index,
	}
}

func (s *postService) Create(ctx context.Context, posterID int64, title, body string, pubDate *time.Time) (*domain.Post, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, validationErr("title is required")
	}
	if len(title) > maxTitleLength {
		return nil, validationErr(fmt.Sprintf("title must be at most %d characters", maxTitleLength))
	}
	if strings.TrimSpace(body) == "" {
		return nil, validationErr("body is required")
	}

	poster, err := s.users.GetByID(ctx, posterID)
	if err != nil {
		return nil, err
	}

	// the post's school is always the poster's school
	schools, err := s.schools.ListByEmailDomain(ctx, poster.EmailDomain())
	if err != nil {
		return nil, err
	}
	if len(schools) == 0 {
		return nil, validationErr("This school is not registered in the database.")
	}

	post := &domain.Post{
		SchoolID: schools[0].ID,
		PosterID: posterID,
		Title:    title,
		Body:     body,
	}
	if pubDate != nil {
		post.PubDate = pubDate.UTC()
	}

	if _, err := s.posts.Create(ctx, post); err != nil {
		return nil, err
	}
	return s.hydrate(ctx, post)
}

func (s *postService) Get(ctx context.Context, id int64) (*domain.Post, error) {
	post, err := s.posts.Get(ctx, id)
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "not found") {
			return nil, notFoundErr("post not found")
		}
		return nil, err
	}
	return s.hydrate(ctx, post)
}

func (s *postService) List(ctx context.Context, filter repository.PostFilter, opts repository.ListOptions) ([]domain.Post, int64, error) {
	posts, total, err := s.posts.List(ctx, filter, opts)
	if err != nil {
		return nil, 0, err
	}
	for i := range posts {
		if _, err := s.hydrate(ctx, &posts[i]); err != nil {
			return nil, 0, err
		}
	}
	return posts, total, nil
}

func (s *postService) Delete(ctx context.Context, id int64) error {
	if err := s.posts.Delete(ctx, id); err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "not found") {
			return notFoundErr("post not found")
		}
		return err
	}
	return nil
}

// Search consults the index only, then materializes surviving posts in
// rank order. Posts deleted since the last rebuild drop out silently.
func (s *postService) Search(ctx context.Context, query string, limit, offset int) ([]domain.Post, int64, error) {
	matches, total, err := s.index.Search(ctx, query, limit, offset)
	if err != nil {
		return nil, 0, err
	}

	posts := make([]domain.Post, 0, len(matches))
	for _, m := range matches {
		post, err := s.posts.Get(ctx, m.PostID)
		if err != nil {
			if strings.Contains(strings.ToLower(err.Error()), "not found") {
				continue
			}
			return nil, 0, err
		}
		if _, err := s.hydrate(ctx, post); err != nil {
			return nil, 0, err
		}
		posts = append(posts, *post)
	}
	return posts, total, nil
}

func (s *postService) AddAttachment(ctx context.Context, postID int64, key, name string, size int64, contentType string) (*domain.Attachment, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, validationErr("attachment name is required")
	}
	if key == "" {
		return nil, validationErr("attachment key is required")
	}

	if _, err := s.posts.Get(ctx, postID); err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "not found") {
			return nil, notFoundErr("post not found")
		}
		return nil, err
	}

	att := &domain.Attachment{
		PostID:      postID,
		Key:         key,
		Name:        name,
		Size:        size,
		ContentType: contentType,
	}
	if _, err := s.attachments.Create(ctx, att); err != nil {
		return nil, err
	}
	return att, nil
}

func (s *postService) ListAttachments(ctx context.Context, postID int64) ([]domain.Attachment, error) {
	if _, err := s.posts.Get(ctx, postID); err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "not found") {
			return nil, notFoundErr("post not found")
		}
		return nil, err
	}
	return s.attachments.ListByPost(ctx, postID)
}

// AttachmentKey builds the object key for a post attachment. All of a
// post's objects share the prefix returned by AttachmentPrefix so they
// can be removed together when the post goes away.
func AttachmentKey(postID int64, name string) string {
	return fmt.Sprintf("%s%s-%s", AttachmentPrefix(postID), uuid.NewString(), name)
}

// AttachmentPrefix is the object-key prefix shared by a post's attachments.
func AttachmentPrefix(postID int64) string {
	return fmt.Sprintf("post-%d/", postID)
}

func (s *postService) hydrate(ctx context.Context, post *domain.Post) (*domain.Post, error) {
	poster, err := s.users.GetByID(ctx, post.PosterID)
	if err != nil {
		return nil, err
	}
	post.Poster = sanitizeUser(poster)

	commentIDs, err := s.comments.ListIDsByPost(ctx, post.ID)
	if err != nil {
		return nil, err
	}
	post.CommentIDs = commentIDs

	atts, err := s.attachments.ListByPost(ctx, post.ID)
	if err != nil {
		return nil, err
	}
	post.Attachments = atts
	return post, nil
}
