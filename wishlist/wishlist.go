// Package wishlist holds the wishlist and item services. Every mutating call
// takes the caller's username explicitly and checks it against the owner of
// the wishlist it touches.
package wishlist

import (
	"context"
	"io"

	"github.com/pkg/errors"

	"wishlist/models"
)

var (
	ErrForbidden    = errors.New("caller does not own this wishlist")
	ErrInvalidInput = errors.New("invalid input")
)

// DefaultPhotoURL is shown for items without an uploaded photo.
const DefaultPhotoURL = "/static/img/placeholder.svg"

const maxNameLength = 200

type Store interface {
	FindLists(ctx context.Context, username string) ([]models.Wishlist, error)
	FindList(ctx context.Context, id string) (*models.Wishlist, error)
	FindListByPublicID(ctx context.Context, publicID string) (*models.Wishlist, error)
	InsertList(ctx context.Context, l *models.Wishlist) error

	FindItems(ctx context.Context, wishlistID string) ([]models.Item, error)
	FindItem(ctx context.Context, id string) (*models.Item, error)
	InsertItem(ctx context.Context, it *models.Item) error
	UpdateItem(ctx context.Context, it *models.Item) error
	SetItemPurchased(ctx context.Context, id string) error
	DeleteItem(ctx context.Context, id string) error
}

type PhotoStore interface {
	Save(name string, r io.Reader) (string, error)
	// Remove deletes a previously saved photo by URL; other URLs are ignored.
	Remove(url string) error
}
