package handlers

import (
	"mime/multipart"
	"net/http"
	"net/url"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"

	"wishlist/auth"
	"wishlist/models"
	"wishlist/wishlist"
)

const multipartMemory = 1 << 20

func (h *Handler) Profile(w http.ResponseWriter, r *http.Request) {
	username := mux.Vars(r)["username"]

	lists, err := h.lists.ListForUser(r.Context(), username)
	if err != nil {
		h.serverError(w, r, err)
		return
	}

	h.renderTemplate(w, r, "profile.html", map[string]any{
		"ProfileUser": username,
		"Wishlists":   lists,
		"IsOwner":     auth.GetUsername(r) == username,
	})
}

func (h *Handler) AddWishlist(w http.ResponseWriter, r *http.Request) {
	caller := auth.UserFrom(r.Context())
	username := mux.Vars(r)["username"]
	if caller != username {
		h.flashRedirect(w, r, "error", "AccessDeniedOwner", "/")
		return
	}

	if r.Method == http.MethodPost {
		if _, err := h.lists.Create(r.Context(), caller, username, r.FormValue("name")); err != nil {
			h.fail(w, r, err, "WishlistNotFound", "/")
			return
		}
		h.flashRedirect(w, r, "success", "WishlistCreated", profilePath(username))
		return
	}

	lists, err := h.lists.ListForUser(r.Context(), username)
	if err != nil {
		h.serverError(w, r, err)
		return
	}
	h.renderTemplate(w, r, "add-wishlist.html", map[string]any{
		"ProfileUser": username,
		"Wishlists":   lists,
	})
}

func (h *Handler) WishlistView(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["wishlist_id"]

	l, err := h.lists.Get(r.Context(), id)
	if err != nil {
		h.fail(w, r, err, "WishlistNotFound", "/")
		return
	}
	items, err := h.items.ListForWishlist(r.Context(), l.ID)
	if err != nil {
		h.serverError(w, r, err)
		return
	}

	h.renderTemplate(w, r, "wishlist.html", map[string]any{
		"Wishlist": l,
		"Items":    items,
		"IsOwner":  auth.GetUsername(r) == l.Username,
	})
}

func (h *Handler) AddItem(w http.ResponseWriter, r *http.Request) {
	caller := auth.UserFrom(r.Context())
	id := mux.Vars(r)["wishlist_id"]

	if r.Method == http.MethodPost {
		in, photo, err := h.parseItemForm(w, r)
		if err != nil {
			h.formError(w, r, err)
			return
		}
		defer photo.close()

		if _, err := h.items.Add(r.Context(), caller, id, in, photo.photo()); err != nil {
			h.fail(w, r, err, "WishlistNotFound", "/")
			return
		}
		h.flashRedirect(w, r, "success", "ItemAdded", wishlistPath(id))
		return
	}

	l, err := h.lists.Owned(r.Context(), caller, id)
	if err != nil {
		h.fail(w, r, err, "WishlistNotFound", "/")
		return
	}
	h.renderTemplate(w, r, "add-item.html", map[string]any{"Wishlist": l})
}

func (h *Handler) ItemView(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	l, err := h.lists.Get(r.Context(), vars["wishlist_id"])
	if err != nil {
		h.fail(w, r, err, "WishlistNotFound", "/")
		return
	}
	it, err := h.items.Get(r.Context(), l.ID, vars["item_id"])
	if err != nil {
		h.fail(w, r, err, "ItemNotFound", wishlistPath(l.ID))
		return
	}

	h.renderTemplate(w, r, "item.html", map[string]any{
		"Wishlist": l,
		"Item":     it,
		"IsOwner":  auth.GetUsername(r) == l.Username,
	})
}

func (h *Handler) EditItem(w http.ResponseWriter, r *http.Request) {
	caller := auth.UserFrom(r.Context())
	vars := mux.Vars(r)
	wishlistID, itemID := vars["wishlist_id"], vars["item_id"]

	if r.Method == http.MethodPost {
		in, photo, err := h.parseItemForm(w, r)
		if err != nil {
			h.formError(w, r, err)
			return
		}
		defer photo.close()

		if _, err := h.items.Edit(r.Context(), caller, wishlistID, itemID, in, photo.photo()); err != nil {
			h.fail(w, r, err, "ItemNotFound", wishlistPath(wishlistID))
			return
		}
		h.flashRedirect(w, r, "success", "ItemUpdated", itemPath(wishlistID, itemID))
		return
	}

	l, err := h.lists.Owned(r.Context(), caller, wishlistID)
	if err != nil {
		h.fail(w, r, err, "WishlistNotFound", "/")
		return
	}
	it, err := h.items.Get(r.Context(), l.ID, itemID)
	if err != nil {
		h.fail(w, r, err, "ItemNotFound", wishlistPath(l.ID))
		return
	}
	h.renderTemplate(w, r, "edit-item.html", map[string]any{
		"Wishlist": l,
		"Item":     it,
	})
}

func (h *Handler) DeleteItem(w http.ResponseWriter, r *http.Request) {
	caller := auth.UserFrom(r.Context())
	vars := mux.Vars(r)
	wishlistID := vars["wishlist_id"]

	if err := h.items.Delete(r.Context(), caller, wishlistID, vars["item_id"]); err != nil {
		h.fail(w, r, err, "ItemNotFound", wishlistPath(wishlistID))
		return
	}
	h.flashRedirect(w, r, "success", "ItemDeleted", wishlistPath(wishlistID))
}

func (h *Handler) PublicView(w http.ResponseWriter, r *http.Request) {
	l, err := h.lists.GetByPublicID(r.Context(), mux.Vars(r)["public_id"])
	if errors.Is(err, models.ErrNotFound) {
		http.Error(w, "Wishlist not found", http.StatusNotFound)
		return
	}
	if err != nil {
		h.serverError(w, r, err)
		return
	}
	items, err := h.items.ListForWishlist(r.Context(), l.ID)
	if err != nil {
		h.serverError(w, r, err)
		return
	}

	h.renderTemplate(w, r, "public_wishlist.html", map[string]any{
		"Wishlist": l,
		"Items":    items,
	})
}

// MarkPurchased answers in plain text. Browser forms from the public page
// send return=1 and are redirected back to it instead.
func (h *Handler) MarkPurchased(w http.ResponseWriter, r *http.Request) {
	publicID := r.FormValue("public_id")
	err := h.items.MarkPurchased(r.Context(), auth.GetUsername(r), publicID, mux.Vars(r)["item_id"])
	switch {
	case errors.Is(err, models.ErrNotFound):
		http.Error(w, "Item not found", http.StatusNotFound)
		return
	case errors.Is(err, wishlist.ErrForbidden):
		http.Error(w, "Forbidden", http.StatusForbidden)
		return
	case err != nil:
		h.serverError(w, r, err)
		return
	}

	if r.FormValue("return") == "1" && publicID != "" {
		h.flashRedirect(w, r, "success", "ItemMarkedPurchased", "/view/"+url.PathEscape(publicID))
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Write([]byte("Item marked as purchased"))
}

// uploadedPhoto is the optional photo part of an item form.
type uploadedPhoto struct {
	file   multipart.File
	header *multipart.FileHeader
}

func (p *uploadedPhoto) photo() *wishlist.Photo {
	if p == nil {
		return nil
	}
	return &wishlist.Photo{Filename: p.header.Filename, Body: p.file}
}

func (p *uploadedPhoto) close() {
	if p != nil {
		p.file.Close()
	}
}

// parseItemForm reads the item fields from a multipart or urlencoded body
// capped at MaxUploadBytes. Behind App the body is already parsed and capped.
func (h *Handler) parseItemForm(w http.ResponseWriter, r *http.Request) (wishlist.ItemInput, *uploadedPhoto, error) {
	r.Body = http.MaxBytesReader(w, r.Body, h.opts.MaxUploadBytes)
	if err := r.ParseMultipartForm(multipartMemory); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		return wishlist.ItemInput{}, nil, err
	}

	in := wishlist.ItemInput{
		Name:  r.FormValue("name"),
		Price: r.FormValue("price"),
		Link:  r.FormValue("link"),
		Notes: r.FormValue("notes"),
	}

	file, header, err := r.FormFile("photo")
	switch {
	case err == nil:
		return in, &uploadedPhoto{file: file, header: header}, nil
	case errors.Is(err, http.ErrMissingFile), errors.Is(err, http.ErrNotMultipart):
		return in, nil, nil
	default:
		return in, nil, err
	}
}

func (h *Handler) formError(w http.ResponseWriter, r *http.Request, err error) {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		h.flashRedirect(w, r, "error", "PhotoTooLarge", r.URL.Path)
		return
	}
	h.serverError(w, r, err)
}
