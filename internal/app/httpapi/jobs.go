package httpapi

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/trcstyle/backend/internal/app/domain/job"
)

func (h *handler) catalogSearch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	products, err := h.app.Importer.Search(r.Context(), q.Get("q"), q.Get("domain"),
		queryInt(r, "limit", 20), queryInt(r, "page", 1))
	if err != nil {
		h.writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, products)
}

func (h *handler) catalogParseURL(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		URL string `json:"url"`
	}
	if err := decodeJSON(r.Body, &payload); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	product, err := h.app.Importer.Resolve(r.Context(), payload.URL)
	if err != nil {
		h.writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, product)
}

func (h *handler) catalogImport(w http.ResponseWriter, r *http.Request) {
	var payload job.ImportPayload
	if err := decodeJSON(r.Body, &payload); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	j, err := h.app.Importer.EnqueueImport(r.Context(), payload)
	if err != nil {
		h.writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, j)
}

func (h *handler) generateOutfits(w http.ResponseWriter, r *http.Request) {
	var payload job.GeneratePayload
	if err := decodeJSON(r.Body, &payload); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	// Generated outfits always belong to the requester.
	payload.UserID = h.currentUser(r).ID

	j, err := h.app.Stylist.EnqueueGenerate(r.Context(), payload)
	if err != nil {
		h.writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, j)
}

func (h *handler) getJob(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	j, err := h.app.Importer.Job(r.Context(), id)
	if err != nil {
		h.writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, j)
}
