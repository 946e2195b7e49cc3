package service

import (
	"context"
	"crypto/subtle"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"campus-board/internal/domain"
	"campus-board/internal/repository"
)

// RegisterInput carries a registration request. Username is ignored and
// overwritten with Email before the user is stored.
type RegisterInput struct {
	Username  string
	FirstName string
	LastName  string
	Email     string
	Password  string
}

// LoginResult is what a successful login hands back to the caller: the
// stable API token plus the school resolved from the email domain.
type LoginResult struct {
	User     *domain.User
	Token    string
	SchoolID int64
}

// UserService describes user lifecycle operations.
type UserService interface {
	Register(ctx context.Context, in RegisterInput) (*domain.User, error)
	Login(ctx context.Context, username, password string) (*LoginResult, error)
	AuthenticateKey(ctx context.Context, username, key string) (*domain.User, error)
	GetByID(ctx context.Context, id int64) (*domain.User, error)
}

type userService struct {
	users   repository.UserRepository
	keys    repository.APIKeyRepository
	schools repository.SchoolRepository
	logger  *logrus.Logger
}

func NewUserService(users repository.UserRepository, keys repository.APIKeyRepository, schools repository.SchoolRepository, logger *logrus.Logger) UserService {
	if logger == nil {
		logger = logrus.New()
	}
	return &userService{
		users:   users,
		keys:    keys,
		schools: schools,
		logger:  logger,
	}
}

func (s *userService) Register(ctx context.Context, in RegisterInput) (*domain.User, error) {
	email := strings.TrimSpace(in.Email)
	password := in.Password

	split := strings.Split(email, "@")
	if len(split) < 2 || split[len(split)-1] == "" {
		return nil, validationErr("Email must be a valid school email address.")
	}
	emailDomain := split[len(split)-1]

	schools, err := s.schools.ListByEmailDomain(ctx, emailDomain)
	if err != nil {
		return nil, err
	}
	if len(schools) == 0 {
		return nil, validationErr("This school is not registered in the database.")
	}

	if len(password) < 6 {
		return nil, validationErr("Password must be at least 6 characters.")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	// username is always the email, whatever the caller sent
	user := &domain.User{
		Username:     email,
		FirstName:    strings.TrimSpace(in.FirstName),
		LastName:     strings.TrimSpace(in.LastName),
		Email:        email,
		PasswordHash: string(hash),
		CreatedAt:    time.Now().UTC(),
		UpdatedAt:    time.Now().UTC(),
	}

	if _, err := s.users.Create(ctx, user); err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "already exists") {
			return nil, conflictErr("That username or email already exists")
		}
		return nil, err
	}

	return sanitizeUser(user), nil
}

func (s *userService) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, ErrInvalidCredentials
	}

	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "not found") {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	key, err := s.keys.GetOrCreate(ctx, user.ID, newAPIKey())
	if err != nil {
		return nil, err
	}

	school, err := s.resolveSchool(ctx, user)
	if err != nil {
		return nil, err
	}

	return &LoginResult{
		User:     sanitizeUser(user),
		Token:    key.Key,
		SchoolID: school.ID,
	}, nil
}

func (s *userService) AuthenticateKey(ctx context.Context, username, key string) (*domain.User, error) {
	username = strings.TrimSpace(username)
	if username == "" || key == "" {
		return nil, ErrInvalidCredentials
	}

	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "not found") {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	stored, err := s.keys.GetByKey(ctx, key)
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "not found") {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if stored.UserID != user.ID {
		return nil, ErrInvalidCredentials
	}
	if subtle.ConstantTimeCompare([]byte(stored.Key), []byte(key)) != 1 {
		return nil, ErrInvalidCredentials
	}

	return sanitizeUser(user), nil
}

func (s *userService) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "not found") {
			return nil, notFoundErr("user not found")
		}
		return nil, err
	}
	return sanitizeUser(user), nil
}

// resolveSchool matches the user's email domain against the school
// table. When several schools share a domain the first by id wins; that
// ambiguity is logged, not resolved.
func (s *userService) resolveSchool(ctx context.Context, user *domain.User) (*domain.School, error) {
	emailDomain := user.EmailDomain()
	schools, err := s.schools.ListByEmailDomain(ctx, emailDomain)
	if err != nil {
		return nil, err
	}
	if len(schools) == 0 {
		return nil, validationErr("This school is not registered in the database.")
	}
	if len(schools) > 1 {
		s.logger.Warnf("email domain %s maps to %d schools, using school %d", emailDomain, len(schools), schools[0].ID)
	}
	return &schools[0], nil
}

func newAPIKey() string {
	return strings.ReplaceAll(uuid.NewString()+uuid.NewString(), "-", "")
}

func sanitizeUser(user *domain.User) *domain.User {
	if user == nil {
		return nil
	}
	return &domain.User{
		ID:        user.ID,
		Username:  user.Username,
		FirstName: user.FirstName,
		LastName:  user.LastName,
		Email:     user.Email,
		CreatedAt: user.CreatedAt,
		UpdatedAt: user.UpdatedAt,
	}
}
