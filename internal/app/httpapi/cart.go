package httpapi

import (
	"net/http"
)

func (h *handler) getCart(w http.ResponseWriter, r *http.Request) {
	state, err := h.app.Cart.Get(r.Context(), h.currentUser(r).ID)
	if err != nil {
		h.writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, state)
}

func (h *handler) addToCart(w http.ResponseWriter, r *http.Request) {
	variantID, err := pathID(r, "variant_id")
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	qty := queryInt(r, "quantity", 1)

	state, err := h.app.Cart.Add(r.Context(), h.currentUser(r).ID, variantID, qty)
	if err != nil {
		h.writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, state)
}

func (h *handler) setCartQuantity(w http.ResponseWriter, r *http.Request) {
	variantID, err := pathID(r, "variant_id")
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	var payload struct {
		Quantity int `json:"quantity"`
	}
	if err := decodeJSON(r.Body, &payload); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	state, err := h.app.Cart.SetQuantity(r.Context(), h.currentUser(r).ID, variantID, payload.Quantity)
	if err != nil {
		h.writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, state)
}

func (h *handler) removeFromCart(w http.ResponseWriter, r *http.Request) {
	variantID, err := pathID(r, "variant_id")
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	state, err := h.app.Cart.Remove(r.Context(), h.currentUser(r).ID, variantID)
	if err != nil {
		h.writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, state)
}

func (h *handler) clearCart(w http.ResponseWriter, r *http.Request) {
	if err := h.app.Cart.Clear(r.Context(), h.currentUser(r).ID); err != nil {
		h.writeErr(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
