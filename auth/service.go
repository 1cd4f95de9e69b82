package auth

import (
	"context"
	"strings"

	"github.com/go-playground/validator"
	"github.com/pkg/errors"

	"wishlist/db"
	"wishlist/models"
)

var (
	ErrValidation         = errors.New("username must be at least 3 characters and password at least 6 characters")
	ErrDuplicateUser      = errors.New("username already exists")
	ErrInvalidCredentials = errors.New("invalid username or password")
)

// reservedUsernames share the first path segment with application routes,
// so a profile under these names would be unreachable.
var reservedUsernames = map[string]bool{
	"login": true, "signup": true, "logout": true, "view": true, "wishlist": true,
	"static": true, "uploads": true, "metrics": true, "captcha": true, "api": true,
}

type UserStore interface {
	FindUser(ctx context.Context, username string) (*models.User, error)
	InsertUser(ctx context.Context, u *models.User) error
}

type signupInput struct {
	Username string `validate:"min=3,excludesall=/,notreserved"`
	Password string `validate:"min=6"`
}

// Service checks credentials against the users collection.
type Service struct {
	users    UserStore
	validate *validator.Validate
}

func NewService(users UserStore) *Service {
	v := validator.New()
	v.RegisterValidation("notreserved", func(fl validator.FieldLevel) bool {
		return !reservedUsernames[strings.ToLower(fl.Field().String())]
	})
	return &Service{users: users, validate: v}
}

// Signup creates a user after trimming both inputs.
func (s *Service) Signup(ctx context.Context, username, password string) error {
	in := signupInput{
		Username: strings.TrimSpace(username),
		Password: strings.TrimSpace(password),
	}
	if err := s.validate.Struct(in); err != nil {
		return errors.Wrap(ErrValidation, err.Error())
	}

	_, err := s.users.FindUser(ctx, in.Username)
	switch {
	case err == nil:
		return ErrDuplicateUser
	case !errors.Is(err, models.ErrNotFound):
		return errors.Wrap(err, "lookup user")
	}

	hash, err := db.HashPassword(in.Password)
	if err != nil {
		return errors.Wrap(err, "hash password")
	}

	err = s.users.InsertUser(ctx, &models.User{Username: in.Username, PasswordHash: hash})
	if errors.Is(err, models.ErrDuplicate) {
		return ErrDuplicateUser
	}
	return err
}

// Login verifies an exact, case-sensitive password match and returns the
// username to bind to the session.
func (s *Service) Login(ctx context.Context, username, password string) (string, error) {
	user, err := s.users.FindUser(ctx, username)
	if err != nil && !errors.Is(err, models.ErrNotFound) {
		return "", errors.Wrap(err, "lookup user")
	}

	hash := db.DummyHash()
	if user != nil {
		hash = user.PasswordHash
	}
	if !db.CheckPasswordHash(password, hash) || user == nil {
		return "", ErrInvalidCredentials
	}
	return user.Username, nil
}
