package httpapi

import (
	"net/http"

	userssvc "github.com/trcstyle/backend/internal/app/services/users"
)

func (h *handler) listUsers(w http.ResponseWriter, r *http.Request) {
	list, err := h.app.Users.List(r.Context(), queryInt(r, "offset", 0), queryInt(r, "limit", 50))
	if err != nil {
		h.writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *handler) createUser(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Email    string `json:"email"`
		Password string `json:"password"`
		IsAdmin  bool   `json:"is_admin"`
	}
	if err := decodeJSON(r.Body, &payload); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	u, err := h.app.Users.Create(r.Context(), payload.Email, payload.Password, payload.IsAdmin)
	if err != nil {
		h.writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, u)
}

func (h *handler) getUser(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	u, err := h.app.Users.Get(r.Context(), id)
	if err != nil {
		h.writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

func (h *handler) updateUser(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	var payload struct {
		Email    *string `json:"email"`
		Password *string `json:"password"`
		IsActive *bool   `json:"is_active"`
		IsAdmin  *bool   `json:"is_admin"`
	}
	if err := decodeJSON(r.Body, &payload); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	u, err := h.app.Users.Update(r.Context(), id, userssvc.AdminUpdate{
		Email:    payload.Email,
		Password: payload.Password,
		IsActive: payload.IsActive,
		IsAdmin:  payload.IsAdmin,
	})
	if err != nil {
		h.writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

func (h *handler) deleteUser(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if err := h.app.Users.Delete(r.Context(), id); err != nil {
		h.writeErr(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// userOutfits lists another user's outfits, for the user themselves or an
// admin.
func (h *handler) userOutfits(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if !h.requireSelfOrAdmin(w, r, id) {
		return
	}
	list, err := h.app.Outfits.ListByOwner(r.Context(), id)
	if err != nil {
		h.writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// userToggleFavorite flips an item favorite on another user's behalf, for the
// user themselves or an admin.
func (h *handler) userToggleFavorite(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	itemID, err := pathID(r, "item_id")
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if !h.requireSelfOrAdmin(w, r, id) {
		return
	}
	favorite, err := h.app.Catalog.ToggleFavorite(r.Context(), id, itemID)
	if err != nil {
		h.writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"is_favorite": favorite})
}

func (h *handler) userFavorites(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if !h.requireSelfOrAdmin(w, r, id) {
		return
	}
	items, err := h.app.Catalog.Favorites(r.Context(), id)
	if err != nil {
		h.writeErr(w, err)
		return
	}
	outfits, err := h.app.Outfits.Favorites(r.Context(), id)
	if err != nil {
		h.writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"items": items, "outfits": outfits})
}

func (h *handler) userHistory(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if !h.requireSelfOrAdmin(w, r, id) {
		return
	}
	items, err := h.app.Catalog.History(r.Context(), id)
	if err != nil {
		h.writeErr(w, err)
		return
	}
	outfits, err := h.app.Outfits.History(r.Context(), id)
	if err != nil {
		h.writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"items": items, "outfits": outfits})
}
