package httpapi

import (
	"net/http"

	"github.com/trcstyle/backend/internal/app/domain/outfit"
	outfitsvc "github.com/trcstyle/backend/internal/app/services/outfits"
)

type outfitPayload struct {
	Name         string  `json:"name"`
	Style        string  `json:"style"`
	Description  string  `json:"description"`
	Collection   string  `json:"collection"`
	TopIDs       []int64 `json:"top_ids"`
	BottomIDs    []int64 `json:"bottom_ids"`
	FootwearIDs  []int64 `json:"footwear_ids"`
	AccessoryIDs []int64 `json:"accessory_ids"`
	FragranceIDs []int64 `json:"fragrance_ids"`
}

func (h *handler) listOutfits(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := outfit.Filter{
		Query:      queryAlias(r, "q", "query"),
		Style:      q.Get("style"),
		Collection: q.Get("collection"),
		MinPrice:   queryFloatPtr(r, "min_price"),
		MaxPrice:   queryFloatPtr(r, "max_price"),
		SortBy:     q.Get("sort_by"),
		Offset:     queryInt(r, "skip", queryInt(r, "offset", 0)),
		Limit:      queryInt(r, "limit", 50),
	}
	u := h.currentUser(r)
	list, err := h.app.Outfits.List(r.Context(), f, u.ID, h.isAdmin(u))
	if err != nil {
		h.writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *handler) createOutfit(w http.ResponseWriter, r *http.Request) {
	var payload outfitPayload
	if err := decodeJSON(r.Body, &payload); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	created, err := h.app.Outfits.Create(r.Context(), h.currentUser(r).ID, outfitsvc.Input{
		Name:         payload.Name,
		Style:        payload.Style,
		Description:  payload.Description,
		Collection:   payload.Collection,
		TopIDs:       payload.TopIDs,
		BottomIDs:    payload.BottomIDs,
		FootwearIDs:  payload.FootwearIDs,
		AccessoryIDs: payload.AccessoryIDs,
		FragranceIDs: payload.FragranceIDs,
	})
	if err != nil {
		h.writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (h *handler) getOutfit(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	details, err := h.app.Outfits.Get(r.Context(), id, h.viewerID(r))
	if err != nil {
		h.writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, details)
}

func (h *handler) updateOutfit(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	var payload struct {
		Name         *string  `json:"name"`
		Style        *string  `json:"style"`
		Description  *string  `json:"description"`
		Collection   *string  `json:"collection"`
		TopIDs       *[]int64 `json:"top_ids"`
		BottomIDs    *[]int64 `json:"bottom_ids"`
		FootwearIDs  *[]int64 `json:"footwear_ids"`
		AccessoryIDs *[]int64 `json:"accessory_ids"`
		FragranceIDs *[]int64 `json:"fragrance_ids"`
	}
	if err := decodeJSON(r.Body, &payload); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	u := h.currentUser(r)
	updated, err := h.app.Outfits.Patch(r.Context(), id, u.ID, h.isAdmin(u), outfitsvc.Update{
		Name:         payload.Name,
		Style:        payload.Style,
		Description:  payload.Description,
		Collection:   payload.Collection,
		TopIDs:       payload.TopIDs,
		BottomIDs:    payload.BottomIDs,
		FootwearIDs:  payload.FootwearIDs,
		AccessoryIDs: payload.AccessoryIDs,
		FragranceIDs: payload.FragranceIDs,
	})
	if err != nil {
		h.writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (h *handler) deleteOutfit(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	u := h.currentUser(r)
	if err := h.app.Outfits.Delete(r.Context(), id, u.ID, h.isAdmin(u)); err != nil {
		h.writeErr(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *handler) trendingOutfits(w http.ResponseWriter, r *http.Request) {
	list, err := h.app.Outfits.Trending(r.Context(), queryInt(r, "limit", 20))
	if err != nil {
		h.writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *handler) toggleOutfitFavorite(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	favorite, err := h.app.Outfits.ToggleFavorite(r.Context(), h.currentUser(r).ID, id)
	if err != nil {
		h.writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"is_favorite": favorite})
}

func (h *handler) favoriteOutfits(w http.ResponseWriter, r *http.Request) {
	list, err := h.app.Outfits.Favorites(r.Context(), h.currentUser(r).ID)
	if err != nil {
		h.writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *handler) clearOutfitHistory(w http.ResponseWriter, r *http.Request) {
	if err := h.app.Outfits.ClearHistory(r.Context(), h.currentUser(r).ID); err != nil {
		h.writeErr(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *handler) outfitHistory(w http.ResponseWriter, r *http.Request) {
	list, err := h.app.Outfits.History(r.Context(), h.currentUser(r).ID)
	if err != nil {
		h.writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// --- comments ---

type commentPayload struct {
	Content string `json:"content"`
	Rating  *int   `json:"rating"`
}

func (h *handler) addItemComment(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	var payload commentPayload
	if err := decodeJSON(r.Body, &payload); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	c, err := h.app.Comments.AddToItem(r.Context(), h.currentUser(r).ID, id, payload.Content, payload.Rating)
	if err != nil {
		h.writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

func (h *handler) addOutfitComment(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	var payload commentPayload
	if err := decodeJSON(r.Body, &payload); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	c, err := h.app.Comments.AddToOutfit(r.Context(), h.currentUser(r).ID, id, payload.Content, payload.Rating)
	if err != nil {
		h.writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

func (h *handler) listItemComments(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	list, err := h.app.Comments.ListForItem(r.Context(), id)
	if err != nil {
		h.writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *handler) listOutfitComments(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	list, err := h.app.Comments.ListForOutfit(r.Context(), id)
	if err != nil {
		h.writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *handler) toggleCommentLike(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	liked, err := h.app.Comments.ToggleLike(r.Context(), h.currentUser(r).ID, id)
	if err != nil {
		h.writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"liked": liked})
}

func (h *handler) deleteComment(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	u := h.currentUser(r)
	if err := h.app.Comments.Delete(r.Context(), id, u.ID, h.isAdmin(u)); err != nil {
		h.writeErr(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
