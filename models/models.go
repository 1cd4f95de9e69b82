package models

import (
	"time"

	"github.com/pkg/errors"
)

// Store-level sentinels. The db package translates driver errors into these.
var (
	ErrNotFound  = errors.New("not found")
	ErrDuplicate = errors.New("duplicate entry")
)

type User struct {
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

type Wishlist struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Name      string    `json:"name"`
	PublicID  string    `json:"public_id"`
	CreatedAt time.Time `json:"created_at"`
}

type Item struct {
	ID         string    `json:"id"`
	WishlistID string    `json:"wishlist"`
	Name       string    `json:"name"`
	Price      string    `json:"price"`
	Link       string    `json:"link"`
	Notes      string    `json:"notes,omitempty"`
	PhotoURL   string    `json:"photo_url"`
	Purchased  bool      `json:"purchased"`
	CreatedAt  time.Time `json:"created_at"`
}
