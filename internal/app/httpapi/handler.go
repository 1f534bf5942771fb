// Package httpapi exposes the application services as a REST API.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"

	app "github.com/trcstyle/backend/internal/app"
	"github.com/trcstyle/backend/internal/app/apperr"
	"github.com/trcstyle/backend/internal/app/domain/user"
	"github.com/trcstyle/backend/internal/app/storage"
	"github.com/trcstyle/backend/internal/middleware"
	"github.com/trcstyle/backend/internal/uploads"
	"github.com/trcstyle/backend/pkg/logger"
)

// ReadyCheck probes one backing dependency for the readiness endpoint.
type ReadyCheck struct {
	Name  string
	Check func(ctx context.Context) error
}

// Config wires the handler's dependencies.
type Config struct {
	App         *app.Application
	Auth        *middleware.Auth
	AuthLimiter *middleware.RateLimiter
	UploadDir   string
	Ready       []ReadyCheck
	Log         *logger.Logger
}

// handler bundles HTTP endpoints for the application services.
type handler struct {
	app   *app.Application
	auth  *middleware.Auth
	ready []ReadyCheck
	log   *logger.Logger
}

// NewHandler returns a router exposing the REST API.
func NewHandler(cfg Config) http.Handler {
	log := cfg.Log
	if log == nil {
		log = logger.NewDefault("httpapi")
	}
	h := &handler{app: cfg.App, auth: cfg.Auth, ready: cfg.Ready, log: log}

	r := mux.NewRouter()
	api := r.PathPrefix("/api").Subrouter()

	api.HandleFunc("/health", h.health).Methods(http.MethodGet)
	api.HandleFunc("/health/ready", h.healthReady).Methods(http.MethodGet)

	authRouter := api.PathPrefix("/auth").Subrouter()
	if cfg.AuthLimiter != nil {
		authRouter.Use(cfg.AuthLimiter.Handler)
	}
	authRouter.HandleFunc("/register", h.register).Methods(http.MethodPost)
	authRouter.HandleFunc("/token", h.token).Methods(http.MethodPost)
	authRouter.HandleFunc("/refresh", h.refresh).Methods(http.MethodPost)
	authRouter.Handle("/logout", h.auth.Require(http.HandlerFunc(h.logout))).Methods(http.MethodPost)

	// Browsing endpoints take an optional token so favorite flags and view
	// history attach when present.
	public := api.NewRoute().Subrouter()
	public.Use(h.auth.Optional)
	public.HandleFunc("/items", h.listItems).Methods(http.MethodGet)
	public.HandleFunc("/items/trending", h.trendingItems).Methods(http.MethodGet)
	public.HandleFunc("/items/collections", h.itemsByCollection).Methods(http.MethodGet)
	public.HandleFunc("/items/collections/names", h.collectionNames).Methods(http.MethodGet)
	public.HandleFunc("/items/{id:[0-9]+}", h.getItem).Methods(http.MethodGet)
	public.HandleFunc("/items/{id:[0-9]+}/similar", h.similarItems).Methods(http.MethodGet)
	public.HandleFunc("/items/{id:[0-9]+}/comments", h.listItemComments).Methods(http.MethodGet)
	public.HandleFunc("/items/{id:[0-9]+}/variants", h.listVariants).Methods(http.MethodGet)
	public.HandleFunc("/items/{id:[0-9]+}/images", h.listImages).Methods(http.MethodGet)
	public.HandleFunc("/outfits/trending", h.trendingOutfits).Methods(http.MethodGet)
	public.HandleFunc("/outfits/{id:[0-9]+}", h.getOutfit).Methods(http.MethodGet)
	public.HandleFunc("/outfits/{id:[0-9]+}/comments", h.listOutfitComments).Methods(http.MethodGet)

	private := api.NewRoute().Subrouter()
	private.Use(h.auth.Require)
	private.HandleFunc("/me", h.me).Methods(http.MethodGet)
	private.HandleFunc("/profile", h.me).Methods(http.MethodGet)
	private.HandleFunc("/profile", h.updateProfile).Methods(http.MethodPatch, http.MethodPut)
	private.HandleFunc("/profile", h.deleteProfile).Methods(http.MethodDelete)
	private.HandleFunc("/profile/avatar", h.uploadAvatar).Methods(http.MethodPost)
	private.HandleFunc("/profile/avatar", h.deleteAvatar).Methods(http.MethodDelete)

	private.HandleFunc("/items/favorites", h.favoriteItems).Methods(http.MethodGet)
	private.HandleFunc("/items/history", h.itemHistory).Methods(http.MethodGet)
	private.HandleFunc("/items/history", h.clearItemHistory).Methods(http.MethodDelete)
	private.HandleFunc("/items/{id:[0-9]+}/favorite", h.toggleItemFavorite).Methods(http.MethodPost)
	private.HandleFunc("/items/{id:[0-9]+}/comments", h.addItemComment).Methods(http.MethodPost)
	private.HandleFunc("/comments/{id:[0-9]+}/like", h.toggleCommentLike).Methods(http.MethodPost)
	private.HandleFunc("/comments/{id:[0-9]+}", h.deleteComment).Methods(http.MethodDelete)

	private.HandleFunc("/outfits", h.listOutfits).Methods(http.MethodGet)
	private.HandleFunc("/outfits", h.createOutfit).Methods(http.MethodPost)
	private.HandleFunc("/outfits/favorites", h.favoriteOutfits).Methods(http.MethodGet)
	private.HandleFunc("/outfits/history", h.outfitHistory).Methods(http.MethodGet)
	private.HandleFunc("/outfits/history", h.clearOutfitHistory).Methods(http.MethodDelete)
	private.HandleFunc("/outfits/generate", h.generateOutfits).Methods(http.MethodPost)
	private.HandleFunc("/outfits/{id:[0-9]+}", h.updateOutfit).Methods(http.MethodPut, http.MethodPatch)
	private.HandleFunc("/outfits/{id:[0-9]+}", h.deleteOutfit).Methods(http.MethodDelete)
	private.HandleFunc("/outfits/{id:[0-9]+}/favorite", h.toggleOutfitFavorite).Methods(http.MethodPost)
	private.HandleFunc("/outfits/{id:[0-9]+}/comments", h.addOutfitComment).Methods(http.MethodPost)

	private.HandleFunc("/cart", h.getCart).Methods(http.MethodGet)
	private.HandleFunc("/cart", h.clearCart).Methods(http.MethodDelete)
	private.HandleFunc("/cart/{variant_id:[0-9]+}", h.addToCart).Methods(http.MethodPost)
	private.HandleFunc("/cart/{variant_id:[0-9]+}", h.setCartQuantity).Methods(http.MethodPut)
	private.HandleFunc("/cart/{variant_id:[0-9]+}", h.removeFromCart).Methods(http.MethodDelete)

	private.HandleFunc("/catalog/search", h.catalogSearch).Methods(http.MethodGet)
	private.HandleFunc("/catalog/parse-url", h.catalogParseURL).Methods(http.MethodPost)
	private.HandleFunc("/jobs/{id}", h.getJob).Methods(http.MethodGet)

	private.HandleFunc("/users/{id:[0-9]+}/outfits", h.userOutfits).Methods(http.MethodGet)
	private.HandleFunc("/users/{id:[0-9]+}/favorites", h.userFavorites).Methods(http.MethodGet)
	private.HandleFunc("/users/{id:[0-9]+}/favorites/{item_id:[0-9]+}", h.userToggleFavorite).Methods(http.MethodPost)
	private.HandleFunc("/users/{id:[0-9]+}/history", h.userHistory).Methods(http.MethodGet)

	admin := api.NewRoute().Subrouter()
	admin.Use(h.auth.Require, h.auth.RequireAdmin)
	admin.HandleFunc("/items", h.createItem).Methods(http.MethodPost)
	admin.HandleFunc("/items/{id:[0-9]+}", h.updateItem).Methods(http.MethodPut)
	admin.HandleFunc("/items/{id:[0-9]+}", h.deleteItem).Methods(http.MethodDelete)
	admin.HandleFunc("/items/{id:[0-9]+}/variants", h.createVariant).Methods(http.MethodPost)
	admin.HandleFunc("/variants/{id:[0-9]+}", h.updateVariant).Methods(http.MethodPut)
	admin.HandleFunc("/variants/{id:[0-9]+}", h.deleteVariant).Methods(http.MethodDelete)
	admin.HandleFunc("/items/{id:[0-9]+}/images", h.addImage).Methods(http.MethodPost)
	admin.HandleFunc("/items/{id:[0-9]+}/images/{image_id:[0-9]+}", h.deleteImage).Methods(http.MethodDelete)
	admin.HandleFunc("/catalog/import", h.catalogImport).Methods(http.MethodPost)
	admin.HandleFunc("/users", h.listUsers).Methods(http.MethodGet)
	admin.HandleFunc("/users", h.createUser).Methods(http.MethodPost)
	admin.HandleFunc("/users/{id:[0-9]+}", h.getUser).Methods(http.MethodGet)
	admin.HandleFunc("/users/{id:[0-9]+}", h.updateUser).Methods(http.MethodPatch, http.MethodPut)
	admin.HandleFunc("/users/{id:[0-9]+}", h.deleteUser).Methods(http.MethodDelete)

	if cfg.UploadDir != "" {
		r.PathPrefix(uploads.URLPrefix).Handler(
			http.StripPrefix(uploads.URLPrefix, http.FileServer(http.Dir(cfg.UploadDir))))
	}

	return r
}

// currentUser returns the authenticated user. Routes behind Require always
// have one.
func (h *handler) currentUser(r *http.Request) user.User {
	u, _ := middleware.UserFrom(r.Context())
	return u
}

func (h *handler) viewerID(r *http.Request) int64 {
	u, ok := middleware.UserFrom(r.Context())
	if !ok {
		return 0
	}
	return u.ID
}

func (h *handler) isAdmin(u user.User) bool {
	return h.app.Users.IsAdmin(u)
}

// requireSelfOrAdmin authorises access to another user's resources.
func (h *handler) requireSelfOrAdmin(w http.ResponseWriter, r *http.Request, targetID int64) bool {
	u := h.currentUser(r)
	if u.ID == targetID || h.isAdmin(u) {
		return true
	}
	writeError(w, http.StatusForbidden, fmt.Errorf("not enough permissions"))
	return false
}

func pathID(r *http.Request, name string) (int64, error) {
	raw := mux.Vars(r)[name]
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid %s", name)
	}
	return id, nil
}

// queryAlias returns the first non-empty value among the named parameters.
func queryAlias(r *http.Request, names ...string) string {
	for _, name := range names {
		if v := r.URL.Query().Get(name); v != "" {
			return v
		}
	}
	return ""
}

func queryInt(r *http.Request, name string, def int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return v
}

func queryFloatPtr(r *http.Request, name string) *float64 {
	return queryFloat(r.URL.Query().Get(name))
}

func queryFloat(raw string) *float64 {
	if raw == "" {
		return nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil
	}
	return &v
}

func decodeJSON(body io.ReadCloser, dst interface{}) error {
	defer body.Close()
	dec := json.NewDecoder(body)
	return dec.Decode(dst)
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
}

// writeErr maps service errors to HTTP responses.
func (h *handler) writeErr(w http.ResponseWriter, err error) {
	var ae *apperr.Error
	if errors.As(err, &ae) {
		writeError(w, ae.Status, ae)
		return
	}
	if errors.Is(err, storage.ErrNotFound) {
		writeError(w, http.StatusNotFound, err)
		return
	}
	if errors.Is(err, storage.ErrDuplicate) {
		writeError(w, http.StatusConflict, err)
		return
	}
	h.log.WithError(err).Error("request failed")
	writeError(w, http.StatusInternalServerError, fmt.Errorf("internal server error"))
}

func (h *handler) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *handler) healthReady(w http.ResponseWriter, r *http.Request) {
	checks := make(map[string]string, len(h.ready))
	healthy := true
	for _, probe := range h.ready {
		if err := probe.Check(r.Context()); err != nil {
			checks[probe.Name] = err.Error()
			healthy = false
			continue
		}
		checks[probe.Name] = "ok"
	}
	status := http.StatusOK
	if !healthy {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, map[string]interface{}{"ready": healthy, "checks": checks})
}

// splitCSV accepts either a JSON list or a comma-separated string for
// preference fields.
func splitCSV(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
