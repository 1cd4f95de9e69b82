package wishlist

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"wishlist/models"
)

type ListService struct {
	store Store
}

func NewListService(store Store) *ListService {
	return &ListService{store: store}
}

func (s *ListService) ListForUser(ctx context.Context, username string) ([]models.Wishlist, error) {
	return s.store.FindLists(ctx, username)
}

// Create adds a wishlist for username. Only username itself may do so.
func (s *ListService) Create(ctx context.Context, caller, username, name string) (*models.Wishlist, error) {
	if caller == "" || caller != username {
		return nil, ErrForbidden
	}

	name = strings.TrimSpace(name)
	if name == "" || utf8.RuneCountInString(name) > maxNameLength {
		return nil, errors.Wrap(ErrInvalidInput, "wishlist name")
	}

	l := &models.Wishlist{
		Username: username,
		Name:     name,
		PublicID: uuid.NewString(),
	}
	if err := s.store.InsertList(ctx, l); err != nil {
		return nil, errors.Wrap(err, "create wishlist")
	}
	return l, nil
}

func (s *ListService) Get(ctx context.Context, id string) (*models.Wishlist, error) {
	return s.store.FindList(ctx, id)
}

func (s *ListService) GetByPublicID(ctx context.Context, publicID string) (*models.Wishlist, error) {
	return s.store.FindListByPublicID(ctx, publicID)
}

// Owned returns the wishlist if caller owns it.
func (s *ListService) Owned(ctx context.Context, caller, id string) (*models.Wishlist, error) {
	l, err := s.store.FindList(ctx, id)
	if err != nil {
		return nil, err
	}
	if caller == "" || l.Username != caller {
		return nil, ErrForbidden
	}
	return l, nil
}
