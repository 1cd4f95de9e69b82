package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"

	"wishlist/i18n"
	"wishlist/models"
)

type APIResponse struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
}

type publicWishlist struct {
	Wishlist models.Wishlist `json:"wishlist"`
	Items    []models.Item   `json:"items"`
}

func (h *Handler) sendJSONResponse(w http.ResponseWriter, status int, response APIResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(response); err != nil {
		h.log.WithError(err).Error("failed to encode JSON response")
	}
}

// APIPublicView is the JSON form of the public wishlist page, for widgets
// embedding a shared list.
func (h *Handler) APIPublicView(w http.ResponseWriter, r *http.Request) {
	lang := i18n.DetectLanguage(r)

	l, err := h.lists.GetByPublicID(r.Context(), mux.Vars(r)["public_id"])
	if errors.Is(err, models.ErrNotFound) {
		h.sendJSONResponse(w, http.StatusNotFound, APIResponse{Status: "error", Message: i18n.T(lang, "WishlistNotFound")})
		return
	}
	if err != nil {
		h.log.WithError(err).Error("public view lookup failed")
		h.sendJSONResponse(w, http.StatusInternalServerError, APIResponse{Status: "error", Message: "Internal Server Error"})
		return
	}

	items, err := h.items.ListForWishlist(r.Context(), l.ID)
	if err != nil {
		h.log.WithError(err).Error("public view items failed")
		h.sendJSONResponse(w, http.StatusInternalServerError, APIResponse{Status: "error", Message: "Internal Server Error"})
		return
	}

	h.sendJSONResponse(w, http.StatusOK, APIResponse{
		Status: "success",
		Data:   publicWishlist{Wishlist: *l, Items: items},
	})
}
