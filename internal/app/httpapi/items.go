package httpapi

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/trcstyle/backend/internal/app/domain/item"
)

func itemFilterFromQuery(r *http.Request) item.Filter {
	q := r.URL.Query()
	return item.Filter{
		Query:        queryAlias(r, "q", "query"),
		Category:     q.Get("category"),
		Style:        q.Get("style"),
		Collection:   q.Get("collection"),
		ClothingType: q.Get("clothing_type"),
		Size:         q.Get("size"),
		MinPrice:     queryFloatPtr(r, "min_price"),
		MaxPrice:     queryFloatPtr(r, "max_price"),
		SortBy:       q.Get("sort_by"),
		Offset:       queryInt(r, "skip", queryInt(r, "offset", 0)),
		Limit:        queryInt(r, "limit", 50),
	}
}

func (h *handler) listItems(w http.ResponseWriter, r *http.Request) {
	items, err := h.app.Catalog.List(r.Context(), itemFilterFromQuery(r), h.viewerID(r))
	if err != nil {
		h.writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

type itemPayload struct {
	Name         string   `json:"name"`
	Brand        string   `json:"brand"`
	Color        string   `json:"color"`
	Size         string   `json:"size"`
	ClothingType string   `json:"clothing_type"`
	Description  string   `json:"description"`
	Price        *float64 `json:"price"`
	Category     string   `json:"category"`
	Article      string   `json:"article"`
	Style        string   `json:"style"`
	Collection   string   `json:"collection"`
	ImageURLs    []string `json:"image_urls"`
}

func (p itemPayload) toItem() item.Item {
	return item.Item{
		Name:         p.Name,
		Brand:        p.Brand,
		Color:        p.Color,
		Size:         p.Size,
		ClothingType: p.ClothingType,
		Description:  p.Description,
		Price:        p.Price,
		Category:     p.Category,
		Article:      p.Article,
		Style:        p.Style,
		Collection:   p.Collection,
	}
}

func (h *handler) createItem(w http.ResponseWriter, r *http.Request) {
	var payload itemPayload

	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		if err := r.ParseMultipartForm(32 << 20); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		payload = itemPayloadFromForm(r)
		urls, err := h.saveUploadedImages(r)
		if err != nil {
			h.writeErr(w, err)
			return
		}
		payload.ImageURLs = append(payload.ImageURLs, urls...)
	} else if err := decodeJSON(r.Body, &payload); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	created, err := h.app.Catalog.Create(r.Context(), payload.toItem(), payload.ImageURLs)
	if err != nil {
		h.writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func itemPayloadFromForm(r *http.Request) itemPayload {
	form := r.MultipartForm.Value
	get := func(name string) string {
		if v, ok := form[name]; ok && len(v) > 0 {
			return v[0]
		}
		return ""
	}
	payload := itemPayload{
		Name:         get("name"),
		Brand:        get("brand"),
		Color:        get("color"),
		Size:         get("size"),
		ClothingType: get("clothing_type"),
		Description:  get("description"),
		Category:     get("category"),
		Article:      get("article"),
		Style:        get("style"),
		Collection:   get("collection"),
	}
	if raw := get("price"); raw != "" {
		if price := queryFloat(raw); price != nil {
			payload.Price = price
		}
	}
	return payload
}

func (h *handler) saveUploadedImages(r *http.Request) ([]string, error) {
	var urls []string
	for _, header := range r.MultipartForm.File["images"] {
		file, err := header.Open()
		if err != nil {
			return nil, err
		}
		url, err := h.app.Uploads.Save("items", header.Filename, file)
		file.Close()
		if err != nil {
			return nil, err
		}
		urls = append(urls, url)
	}
	return urls, nil
}

func (h *handler) getItem(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	it, err := h.app.Catalog.Get(r.Context(), id, h.viewerID(r))
	if err != nil {
		h.writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, it)
}

func (h *handler) updateItem(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	var payload itemPayload
	if err := decodeJSON(r.Body, &payload); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	it := payload.toItem()
	it.ID = id

	updated, err := h.app.Catalog.Update(r.Context(), it)
	if err != nil {
		h.writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (h *handler) deleteItem(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if err := h.app.Catalog.Delete(r.Context(), id); err != nil {
		h.writeErr(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *handler) trendingItems(w http.ResponseWriter, r *http.Request) {
	items, err := h.app.Catalog.Trending(r.Context(), queryInt(r, "limit", 20), h.viewerID(r))
	if err != nil {
		h.writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func (h *handler) itemsByCollection(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("name")
	if name == "" {
		writeError(w, http.StatusBadRequest, fmt.Errorf("name query parameter is required"))
		return
	}
	items, err := h.app.Catalog.List(r.Context(), item.Filter{Collection: name}, h.viewerID(r))
	if err != nil {
		h.writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func (h *handler) collectionNames(w http.ResponseWriter, r *http.Request) {
	names, err := h.app.Catalog.CollectionNames(r.Context())
	if err != nil {
		h.writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, names)
}

func (h *handler) similarItems(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	items, err := h.app.Catalog.Similar(r.Context(), id, queryInt(r, "limit", 10))
	if err != nil {
		h.writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func (h *handler) toggleItemFavorite(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	favorite, err := h.app.Catalog.ToggleFavorite(r.Context(), h.currentUser(r).ID, id)
	if err != nil {
		h.writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"is_favorite": favorite})
}

func (h *handler) favoriteItems(w http.ResponseWriter, r *http.Request) {
	items, err := h.app.Catalog.Favorites(r.Context(), h.currentUser(r).ID)
	if err != nil {
		h.writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func (h *handler) itemHistory(w http.ResponseWriter, r *http.Request) {
	items, err := h.app.Catalog.History(r.Context(), h.currentUser(r).ID)
	if err != nil {
		h.writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func (h *handler) clearItemHistory(w http.ResponseWriter, r *http.Request) {
	if err := h.app.Catalog.ClearHistory(r.Context(), h.currentUser(r).ID); err != nil {
		h.writeErr(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// --- variants ---

type variantPayload struct {
	Size  string   `json:"size"`
	Color string   `json:"color"`
	SKU   string   `json:"sku"`
	Stock int      `json:"stock"`
	Price *float64 `json:"price"`
}

func (h *handler) listVariants(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	variants, err := h.app.Catalog.ListVariants(r.Context(), id)
	if err != nil {
		h.writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, variants)
}

func (h *handler) createVariant(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	var payload variantPayload
	if err := decodeJSON(r.Body, &payload); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	created, err := h.app.Catalog.CreateVariant(r.Context(), item.Variant{
		ItemID: id,
		Size:   payload.Size,
		Color:  payload.Color,
		SKU:    payload.SKU,
		Stock:  payload.Stock,
		Price:  payload.Price,
	})
	if err != nil {
		h.writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (h *handler) updateVariant(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	var payload variantPayload
	if err := decodeJSON(r.Body, &payload); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	updated, err := h.app.Catalog.UpdateVariant(r.Context(), item.Variant{
		ID:    id,
		Size:  payload.Size,
		Color: payload.Color,
		SKU:   payload.SKU,
		Stock: payload.Stock,
		Price: payload.Price,
	})
	if err != nil {
		h.writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (h *handler) deleteVariant(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if err := h.app.Catalog.DeleteVariant(r.Context(), id); err != nil {
		h.writeErr(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// --- images ---

func (h *handler) listImages(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	images, err := h.app.Catalog.ListImages(r.Context(), id)
	if err != nil {
		h.writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, images)
}

func (h *handler) addImage(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	var url string
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		if err := r.ParseMultipartForm(8 << 20); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		file, header, err := r.FormFile("file")
		if err != nil {
			writeError(w, http.StatusBadRequest, fmt.Errorf("file field is required"))
			return
		}
		defer file.Close()
		url, err = h.app.Uploads.Save("items", header.Filename, file)
		if err != nil {
			h.writeErr(w, err)
			return
		}
	} else {
		var payload struct {
			ImageURL string `json:"image_url"`
		}
		if err := decodeJSON(r.Body, &payload); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		url = payload.ImageURL
	}

	img, err := h.app.Catalog.AddImage(r.Context(), id, url)
	if err != nil {
		h.writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, img)
}

func (h *handler) deleteImage(w http.ResponseWriter, r *http.Request) {
	itemID, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	imageID, err := pathID(r, "image_id")
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if err := h.app.Catalog.DeleteImage(r.Context(), itemID, imageID); err != nil {
		h.writeErr(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
