package wishlist

import (
	"context"
	"io"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"wishlist/models"
)

var allowedPhotoExts = map[string]bool{
	".jpg": true, ".jpeg": true, ".png": true, ".gif": true, ".webp": true,
}

// ItemInput carries the editable item fields. Price and Link are stored as
// submitted.
type ItemInput struct {
	Name  string
	Price string
	Link  string
	Notes string
}

// Photo is an uploaded image; Filename is only used for its extension.
type Photo struct {
	Filename string
	Body     io.Reader
}

type ItemService struct {
	store  Store
	lists  *ListService
	photos PhotoStore
}

func NewItemService(store Store, lists *ListService, photos PhotoStore) *ItemService {
	return &ItemService{store: store, lists: lists, photos: photos}
}

func (s *ItemService) ListForWishlist(ctx context.Context, wishlistID string) ([]models.Item, error) {
	return s.store.FindItems(ctx, wishlistID)
}

// Get returns the item only if it belongs to wishlistID.
func (s *ItemService) Get(ctx context.Context, wishlistID, itemID string) (*models.Item, error) {
	it, err := s.store.FindItem(ctx, itemID)
	if err != nil {
		return nil, err
	}
	if it.WishlistID != wishlistID {
		return nil, errors.Wrap(models.ErrNotFound, "item not in wishlist")
	}
	return it, nil
}

func (s *ItemService) Add(ctx context.Context, caller, wishlistID string, in ItemInput, photo *Photo) (*models.Item, error) {
	if _, err := s.lists.Owned(ctx, caller, wishlistID); err != nil {
		return nil, err
	}
	in, err := cleanInput(in)
	if err != nil {
		return nil, err
	}
	ext, err := photoExt(photo)
	if err != nil {
		return nil, err
	}

	it := &models.Item{
		WishlistID: wishlistID,
		Name:       in.Name,
		Price:      in.Price,
		Link:       in.Link,
		Notes:      in.Notes,
		PhotoURL:   DefaultPhotoURL,
	}
	if photo != nil {
		url, err := s.photos.Save(uuid.NewString()+ext, photo.Body)
		if err != nil {
			return nil, errors.Wrap(err, "save photo")
		}
		it.PhotoURL = url
	}

	if err := s.store.InsertItem(ctx, it); err != nil {
		if photo != nil {
			_ = s.photos.Remove(it.PhotoURL)
		}
		return nil, errors.Wrap(err, "add item")
	}
	return it, nil
}

// Edit overwrites every scalar field. A new photo is stored under the item's
// own id and replaces the previous file; without one the current photo is
// kept.
func (s *ItemService) Edit(ctx context.Context, caller, wishlistID, itemID string, in ItemInput, photo *Photo) (*models.Item, error) {
	if _, err := s.lists.Owned(ctx, caller, wishlistID); err != nil {
		return nil, err
	}
	it, err := s.Get(ctx, wishlistID, itemID)
	if err != nil {
		return nil, err
	}
	in, err = cleanInput(in)
	if err != nil {
		return nil, err
	}
	ext, err := photoExt(photo)
	if err != nil {
		return nil, err
	}

	it.Name = in.Name
	it.Price = in.Price
	it.Link = in.Link
	it.Notes = in.Notes
	previous := it.PhotoURL
	if photo != nil {
		url, err := s.photos.Save(it.ID+ext, photo.Body)
		if err != nil {
			return nil, errors.Wrap(err, "save photo")
		}
		it.PhotoURL = url
	} else if it.PhotoURL == "" {
		it.PhotoURL = DefaultPhotoURL
	}

	if err := s.store.UpdateItem(ctx, it); err != nil {
		return nil, errors.Wrap(err, "edit item")
	}
	if previous != it.PhotoURL {
		// The record already points at the new photo; a leftover file is
		// only wasted space.
		_ = s.photos.Remove(previous)
	}
	return it, nil
}

func (s *ItemService) Delete(ctx context.Context, caller, wishlistID, itemID string) error {
	if _, err := s.lists.Owned(ctx, caller, wishlistID); err != nil {
		return err
	}
	if _, err := s.Get(ctx, wishlistID, itemID); err != nil {
		return err
	}
	return s.store.DeleteItem(ctx, itemID)
}

// MarkPurchased flags the item as bought. The caller proves access either by
// presenting the wishlist's public id or by owning it. Repeating the call is
// harmless.
func (s *ItemService) MarkPurchased(ctx context.Context, caller, publicID, itemID string) error {
	it, err := s.store.FindItem(ctx, itemID)
	if err != nil {
		return err
	}
	l, err := s.store.FindList(ctx, it.WishlistID)
	if err != nil {
		return err
	}

	shared := publicID != "" && publicID == l.PublicID
	owner := caller != "" && caller == l.Username
	if !shared && !owner {
		return ErrForbidden
	}
	return s.store.SetItemPurchased(ctx, itemID)
}

func cleanInput(in ItemInput) (ItemInput, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Price = strings.TrimSpace(in.Price)
	in.Link = strings.TrimSpace(in.Link)
	in.Notes = strings.TrimSpace(in.Notes)
	if in.Name == "" || utf8.RuneCountInString(in.Name) > maxNameLength {
		return in, errors.Wrap(ErrInvalidInput, "item name")
	}
	return in, nil
}

func photoExt(photo *Photo) (string, error) {
	if photo == nil {
		return "", nil
	}
	ext := strings.ToLower(filepath.Ext(photo.Filename))
	if !allowedPhotoExts[ext] {
		return "", errors.Wrapf(ErrInvalidInput, "photo type %q", ext)
	}
	return ext, nil
}
