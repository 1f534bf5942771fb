package httpapi

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/trcstyle/backend/internal/app/domain/user"
	"github.com/trcstyle/backend/internal/app/services/auth"
	userssvc "github.com/trcstyle/backend/internal/app/services/users"
	"github.com/trcstyle/backend/internal/uploads"
)

func (h *handler) register(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := decodeJSON(r.Body, &payload); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	u, pair, err := h.app.Auth.Register(r.Context(), payload.Email, payload.Password)
	if err != nil {
		h.writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, struct {
		User user.User `json:"user"`
		auth.TokenPair
	}{User: u, TokenPair: pair})
}

// token is the form-encoded login endpoint; username carries the email.
func (h *handler) token(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	email := r.PostFormValue("username")
	if email == "" {
		email = r.PostFormValue("email")
	}
	password := r.PostFormValue("password")

	_, pair, err := h.app.Auth.Login(r.Context(), email, password)
	if err != nil {
		h.writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, pair)
}

func (h *handler) refresh(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		RefreshToken string `json:"refresh_token"`
	}
	if err := decodeJSON(r.Body, &payload); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	pair, err := h.app.Auth.Refresh(r.Context(), payload.RefreshToken)
	if err != nil {
		h.writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, pair)
}

func (h *handler) logout(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		RefreshToken string `json:"refresh_token"`
	}
	// The body is optional; a bare logout revokes the access token only.
	_ = decodeJSON(r.Body, &payload)

	access := ""
	if header := r.Header.Get("Authorization"); header != "" {
		parts := strings.SplitN(header, " ", 2)
		if len(parts) == 2 {
			access = parts[1]
		}
	}
	if err := h.app.Auth.Logout(r.Context(), access, payload.RefreshToken); err != nil {
		h.writeErr(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *handler) me(w http.ResponseWriter, r *http.Request) {
	u, err := h.app.Users.Get(r.Context(), h.currentUser(r).ID)
	if err != nil {
		h.writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

type profilePayload struct {
	FirstName      *string      `json:"first_name"`
	LastName       *string      `json:"last_name"`
	PhoneNumber    *string      `json:"phone_number"`
	DateOfBirth    *string      `json:"date_of_birth"`
	Height         *float64     `json:"height"`
	Weight         *float64     `json:"weight"`
	Chest          *float64     `json:"chest"`
	Waist          *float64     `json:"waist"`
	Hips           *float64     `json:"hips"`
	FavoriteColors *stringsList `json:"favorite_colors"`
	FavoriteBrands *stringsList `json:"favorite_brands"`
}

// stringsList accepts either a JSON array or a comma-separated string.
type stringsList []string

func (l *stringsList) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		var raw string
		if err := json.Unmarshal(data, &raw); err != nil {
			return err
		}
		*l = splitCSV(raw)
		return nil
	}
	var list []string
	if err := json.Unmarshal(data, &list); err != nil {
		return err
	}
	*l = list
	return nil
}

func (h *handler) updateProfile(w http.ResponseWriter, r *http.Request) {
	var payload profilePayload
	if err := decodeJSON(r.Body, &payload); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	upd := userssvc.ProfileUpdate{
		FirstName:   payload.FirstName,
		LastName:    payload.LastName,
		PhoneNumber: payload.PhoneNumber,
		Height:      payload.Height,
		Weight:      payload.Weight,
		Chest:       payload.Chest,
		Waist:       payload.Waist,
		Hips:        payload.Hips,
	}
	if payload.DateOfBirth != nil {
		dob, err := time.Parse("2006-01-02", *payload.DateOfBirth)
		if err != nil {
			writeError(w, http.StatusBadRequest, fmt.Errorf("date_of_birth must be YYYY-MM-DD"))
			return
		}
		upd.DateOfBirth = &dob
	}
	// An empty list clears the preference, so keep the slice non-nil.
	if payload.FavoriteColors != nil {
		upd.FavoriteColors = append([]string{}, *payload.FavoriteColors...)
	}
	if payload.FavoriteBrands != nil {
		upd.FavoriteBrands = append([]string{}, *payload.FavoriteBrands...)
	}

	u, err := h.app.Users.UpdateProfile(r.Context(), h.currentUser(r).ID, upd)
	if err != nil {
		h.writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

func (h *handler) deleteProfile(w http.ResponseWriter, r *http.Request) {
	if err := h.app.Users.Delete(r.Context(), h.currentUser(r).ID); err != nil {
		h.writeErr(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *handler) uploadAvatar(w http.ResponseWriter, r *http.Request) {
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

	url, err := h.app.Uploads.Save("avatars", header.Filename, file)
	if err != nil {
		h.writeErr(w, err)
		return
	}
	previous, err := h.app.Users.SetAvatar(r.Context(), h.currentUser(r).ID, url)
	if err != nil {
		h.app.Uploads.Remove(url)
		h.writeErr(w, err)
		return
	}
	if previous != "" {
		h.app.Uploads.Remove(previous)
	}
	writeJSON(w, http.StatusOK, map[string]string{"avatar": url})
}

func (h *handler) deleteAvatar(w http.ResponseWriter, r *http.Request) {
	previous, err := h.app.Users.SetAvatar(r.Context(), h.currentUser(r).ID, "")
	if err != nil {
		h.writeErr(w, err)
		return
	}
	if previous != "" && strings.HasPrefix(previous, uploads.URLPrefix) {
		h.app.Uploads.Remove(previous)
	}
	w.WriteHeader(http.StatusNoContent)
}
