package httpapi

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	app "github.com/trcstyle/backend/internal/app"
	"github.com/trcstyle/backend/internal/app/domain/cart"
	"github.com/trcstyle/backend/internal/app/domain/item"
	"github.com/trcstyle/backend/internal/app/domain/user"
	"github.com/trcstyle/backend/internal/middleware"
)

func newTestHandler(t *testing.T) http.Handler {
	t.Helper()
	application, err := app.New(app.Stores{}, app.Options{
		SecretKey:   "test-secret",
		AdminEmails: []string{"root@example.com"},
		UploadDir:   t.TempDir(),
	}, nil)
	if err != nil {
		t.Fatalf("build application: %v", err)
	}
	authMW := middleware.NewAuth(application.Auth, application.Users.IsAdmin, nil)
	return NewHandler(Config{App: application, Auth: authMW})
}

func doJSON(t *testing.T, h http.Handler, method, path, token string, payload interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var body *bytes.Buffer
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			t.Fatalf("marshal payload: %v", err)
		}
		body = bytes.NewBuffer(raw)
	} else {
		body = &bytes.Buffer{}
	}
	req := httptest.NewRequest(method, path, body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, dst interface{}) {
	t.Helper()
	if err := json.NewDecoder(rec.Body).Decode(dst); err != nil {
		t.Fatalf("decode response: %v (body %s)", err, rec.Body.String())
	}
}

func registerUser(t *testing.T, h http.Handler, email string) (user.User, string) {
	t.Helper()
	rec := doJSON(t, h, http.MethodPost, "/api/auth/register", "", map[string]string{
		"email":    email,
		"password": "password123",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("register %s: code = %d, body %s", email, rec.Code, rec.Body.String())
	}
	var resp struct {
		User        user.User `json:"user"`
		AccessToken string    `json:"access_token"`
	}
	decodeBody(t, rec, &resp)
	return resp.User, resp.AccessToken
}

func TestHealth(t *testing.T) {
	h := newTestHandler(t)
	rec := doJSON(t, h, http.MethodGet, "/api/health", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("code = %d", rec.Code)
	}
}

func TestRegisterLoginMe(t *testing.T) {
	h := newTestHandler(t)
	u, token := registerUser(t, h, "anna@example.com")

	rec := doJSON(t, h, http.MethodGet, "/api/me", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("me: code = %d, body %s", rec.Code, rec.Body.String())
	}
	var me user.User
	decodeBody(t, rec, &me)
	if me.ID != u.ID || me.Email != "anna@example.com" {
		t.Fatalf("me = %+v", me)
	}

	// Form-encoded login issues a fresh pair.
	form := url.Values{}
	form.Set("username", "anna@example.com")
	form.Set("password", "password123")
	req := httptest.NewRequest(http.MethodPost, "/api/auth/token", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	loginRec := httptest.NewRecorder()
	h.ServeHTTP(loginRec, req)
	if loginRec.Code != http.StatusOK {
		t.Fatalf("token: code = %d, body %s", loginRec.Code, loginRec.Body.String())
	}
	var pair struct {
		AccessToken  string `json:"access_token"`
		RefreshToken string `json:"refresh_token"`
	}
	decodeBody(t, loginRec, &pair)
	if pair.AccessToken == "" || pair.RefreshToken == "" {
		t.Fatalf("pair = %+v", pair)
	}

	refreshRec := doJSON(t, h, http.MethodPost, "/api/auth/refresh", "", map[string]string{
		"refresh_token": pair.RefreshToken,
	})
	if refreshRec.Code != http.StatusOK {
		t.Fatalf("refresh: code = %d, body %s", refreshRec.Code, refreshRec.Body.String())
	}
}

func TestMeRequiresToken(t *testing.T) {
	h := newTestHandler(t)
	rec := doJSON(t, h, http.MethodGet, "/api/me", "", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("code = %d", rec.Code)
	}
}

func TestItemAdminLifecycle(t *testing.T) {
	h := newTestHandler(t)
	_, adminToken := registerUser(t, h, "root@example.com")
	_, userToken := registerUser(t, h, "anna@example.com")

	// Non-admin creation is forbidden.
	rec := doJSON(t, h, http.MethodPost, "/api/items", userToken, map[string]interface{}{"name": "Coat"})
	if rec.Code != http.StatusForbidden {
		t.Fatalf("non-admin create: code = %d", rec.Code)
	}

	rec = doJSON(t, h, http.MethodPost, "/api/items", adminToken, map[string]interface{}{
		"name":       "Coat",
		"brand":      "Acme",
		"price":      199.0,
		"category":   "coat",
		"image_urls": []string{"https://cdn.example.com/coat.jpg"},
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create: code = %d, body %s", rec.Code, rec.Body.String())
	}
	var created item.Item
	decodeBody(t, rec, &created)
	if created.ImageURL != "https://cdn.example.com/coat.jpg" {
		t.Fatalf("primary image = %q", created.ImageURL)
	}

	rec = doJSON(t, h, http.MethodGet, "/api/items?query=coat", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("list: code = %d", rec.Code)
	}
	var list []item.Item
	decodeBody(t, rec, &list)
	if len(list) != 1 {
		t.Fatalf("list = %+v", list)
	}

	// q is the canonical search parameter, query stays as an alias.
	rec = doJSON(t, h, http.MethodGet, "/api/items?q=coat", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("list by q: code = %d", rec.Code)
	}
	list = nil
	decodeBody(t, rec, &list)
	if len(list) != 1 {
		t.Fatalf("list by q = %+v", list)
	}
	rec = doJSON(t, h, http.MethodGet, "/api/items?q=trousers", "", nil)
	list = nil
	decodeBody(t, rec, &list)
	if len(list) != 0 {
		t.Fatalf("list by q miss = %+v", list)
	}

	rec = doJSON(t, h, http.MethodPost, fmt.Sprintf("/api/items/%d/favorite", created.ID), userToken, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("favorite: code = %d", rec.Code)
	}
	var fav map[string]bool
	decodeBody(t, rec, &fav)
	if !fav["is_favorite"] {
		t.Fatalf("favorite = %v", fav)
	}

	rec = doJSON(t, h, http.MethodDelete, fmt.Sprintf("/api/items/%d", created.ID), adminToken, nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("delete: code = %d", rec.Code)
	}
	rec = doJSON(t, h, http.MethodGet, fmt.Sprintf("/api/items/%d", created.ID), "", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("get deleted: code = %d", rec.Code)
	}
}

func TestCartFlow(t *testing.T) {
	h := newTestHandler(t)
	_, adminToken := registerUser(t, h, "root@example.com")
	_, userToken := registerUser(t, h, "anna@example.com")

	rec := doJSON(t, h, http.MethodPost, "/api/items", adminToken, map[string]interface{}{
		"name": "Hoodie", "price": 60.0,
	})
	var created item.Item
	decodeBody(t, rec, &created)

	rec = doJSON(t, h, http.MethodPost, fmt.Sprintf("/api/items/%d/variants", created.ID), adminToken, map[string]interface{}{
		"size": "M", "stock": 3,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("variant: code = %d, body %s", rec.Code, rec.Body.String())
	}
	var v item.Variant
	decodeBody(t, rec, &v)

	rec = doJSON(t, h, http.MethodPost, fmt.Sprintf("/api/cart/%d?quantity=2", v.ID), userToken, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("add: code = %d, body %s", rec.Code, rec.Body.String())
	}
	var state cart.State
	decodeBody(t, rec, &state)
	if state.TotalItems != 2 || state.TotalPrice != 120 {
		t.Fatalf("state = %+v", state)
	}

	// Exceeding stock conflicts.
	rec = doJSON(t, h, http.MethodPost, fmt.Sprintf("/api/cart/%d?quantity=2", v.ID), userToken, nil)
	if rec.Code != http.StatusConflict {
		t.Fatalf("over stock: code = %d", rec.Code)
	}

	rec = doJSON(t, h, http.MethodPut, fmt.Sprintf("/api/cart/%d", v.ID), userToken, map[string]int{"quantity": 0})
	if rec.Code != http.StatusOK {
		t.Fatalf("set zero: code = %d", rec.Code)
	}
	decodeBody(t, rec, &state)
	if state.TotalItems != 0 {
		t.Fatalf("state after zero = %+v", state)
	}
}

func TestOutfitFlow(t *testing.T) {
	h := newTestHandler(t)
	_, adminToken := registerUser(t, h, "root@example.com")
	_, userToken := registerUser(t, h, "anna@example.com")

	var top, bottom item.Item
	rec := doJSON(t, h, http.MethodPost, "/api/items", adminToken, map[string]interface{}{
		"name": "Tee", "category": "tshirt", "price": 25.0,
	})
	decodeBody(t, rec, &top)
	rec = doJSON(t, h, http.MethodPost, "/api/items", adminToken, map[string]interface{}{
		"name": "Jeans", "category": "jeans", "price": 80.0,
	})
	decodeBody(t, rec, &bottom)

	rec = doJSON(t, h, http.MethodPost, "/api/outfits", userToken, map[string]interface{}{
		"name":       "Everyday",
		"style":      "casual",
		"top_ids":    []int64{top.ID},
		"bottom_ids": []int64{bottom.ID},
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create outfit: code = %d, body %s", rec.Code, rec.Body.String())
	}
	var details struct {
		ID         int64   `json:"id"`
		TotalPrice float64 `json:"total_price"`
	}
	decodeBody(t, rec, &details)
	if details.TotalPrice != 105 {
		t.Fatalf("total = %v", details.TotalPrice)
	}

	// A mismatched slot is rejected.
	rec = doJSON(t, h, http.MethodPost, "/api/outfits", userToken, map[string]interface{}{
		"name":    "Broken",
		"style":   "casual",
		"top_ids": []int64{bottom.ID},
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("bad slot: code = %d", rec.Code)
	}

	// Anyone can read an outfit; only mutation is owner-gated.
	_, otherToken := registerUser(t, h, "ben@example.com")
	rec = doJSON(t, h, http.MethodGet, fmt.Sprintf("/api/outfits/%d", details.ID), otherToken, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("foreign get: code = %d, body %s", rec.Code, rec.Body.String())
	}
	rec = doJSON(t, h, http.MethodGet, fmt.Sprintf("/api/outfits/%d", details.ID), "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("anonymous get: code = %d", rec.Code)
	}
	rec = doJSON(t, h, http.MethodDelete, fmt.Sprintf("/api/outfits/%d", details.ID), otherToken, nil)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("foreign delete: code = %d", rec.Code)
	}

	// Reading leaves a history entry the owner of the view can clear.
	rec = doJSON(t, h, http.MethodGet, "/api/outfits/history", otherToken, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("history: code = %d", rec.Code)
	}
	var history []json.RawMessage
	decodeBody(t, rec, &history)
	if len(history) != 1 {
		t.Fatalf("history = %d entries, want 1", len(history))
	}
	rec = doJSON(t, h, http.MethodDelete, "/api/outfits/history", otherToken, nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("clear history: code = %d", rec.Code)
	}
	rec = doJSON(t, h, http.MethodGet, "/api/outfits/history", otherToken, nil)
	history = nil
	decodeBody(t, rec, &history)
	if len(history) != 0 {
		t.Fatalf("history after clear = %d entries, want 0", len(history))
	}
}

func TestCollectionsEndpoints(t *testing.T) {
	h := newTestHandler(t)
	_, adminToken := registerUser(t, h, "root@example.com")

	for _, spec := range []struct{ name, collection string }{
		{"Parka", "Winter"},
		{"Boots", "Winter"},
		{"Shorts", "Summer"},
	} {
		rec := doJSON(t, h, http.MethodPost, "/api/items", adminToken, map[string]interface{}{
			"name": spec.name, "collection": spec.collection,
		})
		if rec.Code != http.StatusCreated {
			t.Fatalf("create %s: code = %d", spec.name, rec.Code)
		}
	}

	rec := doJSON(t, h, http.MethodGet, "/api/items/collections/names", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("names: code = %d", rec.Code)
	}
	var names []string
	decodeBody(t, rec, &names)
	if len(names) != 2 {
		t.Fatalf("names = %v, want Summer and Winter", names)
	}

	rec = doJSON(t, h, http.MethodGet, "/api/items/collections?name=Winter", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("by collection: code = %d", rec.Code)
	}
	var winter []item.Item
	decodeBody(t, rec, &winter)
	if len(winter) != 2 {
		t.Fatalf("winter items = %d, want 2", len(winter))
	}

	rec = doJSON(t, h, http.MethodGet, "/api/items/collections", "", nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("missing name: code = %d", rec.Code)
	}
}

func TestListItemsSkipPagination(t *testing.T) {
	h := newTestHandler(t)
	_, adminToken := registerUser(t, h, "root@example.com")

	for _, name := range []string{"First", "Second", "Third"} {
		rec := doJSON(t, h, http.MethodPost, "/api/items", adminToken, map[string]interface{}{"name": name})
		if rec.Code != http.StatusCreated {
			t.Fatalf("create %s: code = %d", name, rec.Code)
		}
	}

	rec := doJSON(t, h, http.MethodGet, "/api/items?skip=2", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("list: code = %d", rec.Code)
	}
	var list []item.Item
	decodeBody(t, rec, &list)
	if len(list) != 1 {
		t.Fatalf("skip=2 left %d items, want 1", len(list))
	}
}

func TestCommentsFlow(t *testing.T) {
	h := newTestHandler(t)
	_, adminToken := registerUser(t, h, "root@example.com")
	_, userToken := registerUser(t, h, "anna@example.com")

	var it item.Item
	rec := doJSON(t, h, http.MethodPost, "/api/items", adminToken, map[string]interface{}{"name": "Jacket"})
	decodeBody(t, rec, &it)

	rec = doJSON(t, h, http.MethodPost, fmt.Sprintf("/api/items/%d/comments", it.ID), userToken, map[string]interface{}{
		"content": "Great fit", "rating": 5,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("comment: code = %d, body %s", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, h, http.MethodGet, fmt.Sprintf("/api/items/%d/comments", it.ID), "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("list comments: code = %d", rec.Code)
	}
	var list []struct {
		ID      int64  `json:"id"`
		Content string `json:"content"`
	}
	decodeBody(t, rec, &list)
	if len(list) != 1 || list[0].Content != "Great fit" {
		t.Fatalf("list = %+v", list)
	}
}

func TestCatalogImportValidation(t *testing.T) {
	h := newTestHandler(t)
	_, adminToken := registerUser(t, h, "root@example.com")
	_, userToken := registerUser(t, h, "anna@example.com")

	rec := doJSON(t, h, http.MethodPost, "/api/catalog/import", userToken, map[string]interface{}{"query": "dress"})
	if rec.Code != http.StatusForbidden {
		t.Fatalf("non-admin import: code = %d", rec.Code)
	}

	rec = doJSON(t, h, http.MethodPost, "/api/catalog/import", adminToken, map[string]interface{}{})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("empty import: code = %d, body %s", rec.Code, rec.Body.String())
	}
}

func TestAdminUserRoutes(t *testing.T) {
	h := newTestHandler(t)
	_, adminToken := registerUser(t, h, "root@example.com")
	u, userToken := registerUser(t, h, "anna@example.com")

	rec := doJSON(t, h, http.MethodGet, "/api/users", userToken, nil)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("non-admin list: code = %d", rec.Code)
	}

	rec = doJSON(t, h, http.MethodGet, "/api/users", adminToken, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("admin list: code = %d", rec.Code)
	}

	// Self or admin can read a user's favorites; strangers cannot.
	rec = doJSON(t, h, http.MethodGet, fmt.Sprintf("/api/users/%d/favorites", u.ID), userToken, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("self favorites: code = %d", rec.Code)
	}
	_, otherToken := registerUser(t, h, "ben@example.com")
	rec = doJSON(t, h, http.MethodGet, fmt.Sprintf("/api/users/%d/favorites", u.ID), otherToken, nil)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("stranger favorites: code = %d", rec.Code)
	}

	// The user-scoped favorite toggle follows the same self-or-admin rule.
	var it item.Item
	rec = doJSON(t, h, http.MethodPost, "/api/items", adminToken, map[string]interface{}{"name": "Scarf"})
	decodeBody(t, rec, &it)

	rec = doJSON(t, h, http.MethodPost, fmt.Sprintf("/api/users/%d/favorites/%d", u.ID, it.ID), otherToken, nil)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("stranger toggle: code = %d", rec.Code)
	}
	rec = doJSON(t, h, http.MethodPost, fmt.Sprintf("/api/users/%d/favorites/%d", u.ID, it.ID), adminToken, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("admin toggle: code = %d, body %s", rec.Code, rec.Body.String())
	}
	var fav map[string]bool
	decodeBody(t, rec, &fav)
	if !fav["is_favorite"] {
		t.Fatalf("toggle = %v", fav)
	}
	rec = doJSON(t, h, http.MethodGet, fmt.Sprintf("/api/users/%d/favorites", u.ID), userToken, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("favorites after toggle: code = %d", rec.Code)
	}
	var favorites struct {
		Items []item.Item `json:"items"`
	}
	decodeBody(t, rec, &favorites)
	if len(favorites.Items) != 1 {
		t.Fatalf("favorites = %d items, want 1", len(favorites.Items))
	}
}
