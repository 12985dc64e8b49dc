package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/mail"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/clipstream/backend/internal/apperror"
	"github.com/clipstream/backend/internal/auth"
	"github.com/clipstream/backend/internal/logging"
	"github.com/clipstream/backend/internal/middleware"
	"github.com/clipstream/backend/internal/models"
	"github.com/clipstream/backend/internal/repositories"
)

// UserHandler implements account, session, and channel endpoints.
type UserHandler struct {
	Users         UserStore
	Sessions      SessionManager
	Media         MediaManager
	Subscriptions SubscriptionStore
	SecureCookies bool
	NowFunc       func() time.Time
}

// Register handles POST /api/v1/users/register. The body is multipart: a
// mandatory avatar image and an optional cover image travel alongside the
// profile fields.
func (h UserHandler) Register(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		respondError(ctx, w, apperror.Validation("multipart body"))
		return
	}

	username := strings.ToLower(strings.TrimSpace(r.FormValue("username")))
	email := strings.ToLower(strings.TrimSpace(r.FormValue("email")))
	fullName := strings.TrimSpace(r.FormValue("fullName"))
	password := r.FormValue("password")

	var missing []string
	for _, field := range []struct{ name, value string }{
		{"username", username}, {"email", email}, {"fullName", fullName}, {"password", password},
	} {
		if field.value == "" {
			missing = append(missing, field.name)
		}
	}
	if len(missing) > 0 {
		respondError(ctx, w, apperror.Validation(missing...))
		return
	}

	if _, err := mail.ParseAddress(email); err != nil {
		respondError(ctx, w, apperror.Validation("email"))
		return
	}
	if len(password) < 8 {
		respondError(ctx, w, &apperror.AppError{
			Kind:    apperror.ErrValidation,
			Message: "password must be at least 8 characters",
			Fields:  []string{"password"},
		})
		return
	}

	avatarPath, hasAvatar, err := spoolFormFile(r, "avatar")
	if err != nil {
		respondError(ctx, w, apperror.Upstream("read avatar upload", err))
		return
	}
	defer discardSpool(avatarPath)
	if !hasAvatar {
		respondError(ctx, w, apperror.Validation("avatar"))
		return
	}
	coverPath, hasCover, err := spoolFormFile(r, "coverImage")
	if err != nil {
		respondError(ctx, w, apperror.Upstream("read cover upload", err))
		return
	}
	defer discardSpool(coverPath)

	avatar := h.Media.Upload(ctx, avatarPath, "avatars")
	if avatar.IsZero() {
		respondError(ctx, w, apperror.Upstream("upload avatar", errors.New("media store rejected the upload")))
		return
	}

	var cover models.MediaReference
	if hasCover {
		// A failed cover upload is not fatal: the field is optional and the
		// zero reference simply leaves the profile without one.
		cover = h.Media.Upload(ctx, coverPath, "covers")
	}

	hashed, err := auth.HashPassword(password)
	if err != nil {
		logger.Error("hash password", "error", err)
		respondError(ctx, w, err)
		return
	}

	now := h.now()
	user := models.User{
		ID:         uuid.NewString(),
		Username:   username,
		Email:      email,
		FullName:   fullName,
		Password:   hashed,
		Avatar:     avatar,
		CoverImage: cover,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if err := h.Users.Create(ctx, user); err != nil {
		if errors.Is(err, repositories.ErrConflict) {
			h.Media.RemoveAll(ctx, "image", avatar, cover)
			respondError(ctx, w, apperror.Conflict("user", "username or email already registered"))
			return
		}
		logger.Error("create user", "error", err)
		respondError(ctx, w, err)
		return
	}

	user.Password = ""
	respondJSON(ctx, w, http.StatusCreated, user, "user registered successfully")
}

// Login handles POST /api/v1/users/login. Either username or email works as
// the identifier.
func (h UserHandler) Login(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req struct {
		Username string `json:"username"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(ctx, w, apperror.Validation("body"))
		return
	}

	login := strings.TrimSpace(req.Username)
	if login == "" {
		login = strings.TrimSpace(req.Email)
	}
	if login == "" || req.Password == "" {
		respondError(ctx, w, apperror.Validation("username or email", "password"))
		return
	}

	user, err := h.Users.FindByUsernameOrEmail(ctx, login)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			respondError(ctx, w, apperror.Unauthorized("invalid credentials"))
			return
		}
		respondError(ctx, w, err)
		return
	}

	if !auth.CheckPassword(user.Password, req.Password) {
		respondError(ctx, w, apperror.Unauthorized("invalid credentials"))
		return
	}

	tokens, err := h.Sessions.Issue(ctx, user)
	if err != nil {
		logging.FromContext(ctx).Error("issue session", "error", err, "userId", user.ID)
		respondError(ctx, w, err)
		return
	}

	setSessionCookies(w, tokens, h.SecureCookies)

	user.Password = ""
	user.RefreshToken = ""
	respondJSON(ctx, w, http.StatusOK, map[string]any{
		"user":   user,
		"tokens": tokens,
	}, "logged in successfully")
}

// RefreshToken handles POST /api/v1/users/refresh-token. The refresh token is
// read from the cookie first, then the body.
func (h UserHandler) RefreshToken(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	presented := ""
	if cookie, err := r.Cookie(refreshTokenCookie); err == nil {
		presented = cookie.Value
	}
	if presented == "" {
		var req struct {
			RefreshToken string `json:"refreshToken"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err == nil {
			presented = strings.TrimSpace(req.RefreshToken)
		}
	}

	tokens, err := h.Sessions.Rotate(ctx, presented)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	setSessionCookies(w, tokens, h.SecureCookies)
	respondJSON(ctx, w, http.StatusOK, map[string]any{"tokens": tokens}, "session refreshed")
}

// Logout handles POST /api/v1/users/logout: the stored refresh token is
// cleared and both cookies dropped.
func (h UserHandler) Logout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	user, ok := middleware.Identity(ctx)
	if !ok {
		respondError(ctx, w, apperror.Unauthorized("authentication required"))
		return
	}

	if err := h.Sessions.Revoke(ctx, user.ID); err != nil {
		respondError(ctx, w, err)
		return
	}

	clearSessionCookies(w, h.SecureCookies)
	respondJSON(ctx, w, http.StatusOK, nil, "logged out")
}

// CurrentUser handles GET /api/v1/users/current-user: the authenticated
// user's own record, as placed on the context by the session middleware.
func (h UserHandler) CurrentUser(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	user, ok := middleware.Identity(ctx)
	if !ok {
		respondError(ctx, w, apperror.Unauthorized("authentication required"))
		return
	}

	respondJSON(ctx, w, http.StatusOK, user, "current user fetched")
}

// ChangePassword handles POST /api/v1/users/password-reset. The current
// password must check out before the new one is stored.
func (h UserHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	viewer, ok := middleware.Identity(ctx)
	if !ok {
		respondError(ctx, w, apperror.Unauthorized("authentication required"))
		return
	}

	var req struct {
		OldPassword string `json:"oldPassword"`
		NewPassword string `json:"newPassword"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(ctx, w, apperror.Validation("body"))
		return
	}
	if req.OldPassword == "" || req.NewPassword == "" {
		respondError(ctx, w, apperror.Validation("oldPassword", "newPassword"))
		return
	}
	if len(req.NewPassword) < 8 {
		respondError(ctx, w, &apperror.AppError{
			Kind:    apperror.ErrValidation,
			Message: "password must be at least 8 characters",
			Fields:  []string{"newPassword"},
		})
		return
	}

	// The identity on the context has its hash blanked, so fetch the row.
	stored, err := h.Users.FindByID(ctx, viewer.ID)
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	if !auth.CheckPassword(stored.Password, req.OldPassword) {
		respondError(ctx, w, apperror.Unauthorized("current password is incorrect"))
		return
	}

	hashed, err := auth.HashPassword(req.NewPassword)
	if err != nil {
		logging.FromContext(ctx).Error("hash password", "error", err)
		respondError(ctx, w, err)
		return
	}
	if err := h.Users.UpdatePassword(ctx, viewer.ID, hashed); err != nil {
		respondError(ctx, w, err)
		return
	}

	respondJSON(ctx, w, http.StatusOK, nil, "password changed")
}

// UpdateProfile handles PATCH /api/v1/users/update-profile: full name and/or
// email, at least one of the two.
func (h UserHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	viewer, ok := middleware.Identity(ctx)
	if !ok {
		respondError(ctx, w, apperror.Unauthorized("authentication required"))
		return
	}

	var req struct {
		FullName string `json:"fullName"`
		Email    string `json:"email"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(ctx, w, apperror.Validation("body"))
		return
	}

	fullName := strings.TrimSpace(req.FullName)
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if fullName == "" && email == "" {
		respondError(ctx, w, apperror.Validation("fullName or email"))
		return
	}
	if email != "" {
		if _, err := mail.ParseAddress(email); err != nil {
			respondError(ctx, w, apperror.Validation("email"))
			return
		}
	}

	user, err := h.Users.UpdateAccount(ctx, viewer.ID, fullName, email)
	if err != nil {
		if errors.Is(err, repositories.ErrConflict) {
			respondError(ctx, w, apperror.Conflict("user", "email already registered"))
			return
		}
		respondError(ctx, w, err)
		return
	}

	user.Password = ""
	user.RefreshToken = ""
	respondJSON(ctx, w, http.StatusOK, user, "account updated")
}

// UpdateAvatar handles PATCH /api/v1/users/update-avatar, a multipart body
// with a single "avatar" file. The displaced remote asset is released
// best-effort after the swap lands.
func (h UserHandler) UpdateAvatar(w http.ResponseWriter, r *http.Request) {
	h.replaceImage(w, r, "avatar", "avatars", "avatar updated", h.Users.UpdateAvatar)
}

// UpdateCoverImage handles PATCH /api/v1/users/update-cover-image, the cover
// counterpart of UpdateAvatar.
func (h UserHandler) UpdateCoverImage(w http.ResponseWriter, r *http.Request) {
	h.replaceImage(w, r, "coverImage", "covers", "cover image updated", h.Users.UpdateCoverImage)
}

func (h UserHandler) replaceImage(w http.ResponseWriter, r *http.Request, field, folder, message string,
	swap func(ctx context.Context, userID string, ref models.MediaReference) (models.MediaReference, error)) {
	ctx := r.Context()

	viewer, ok := middleware.Identity(ctx)
	if !ok {
		respondError(ctx, w, apperror.Unauthorized("authentication required"))
		return
	}

	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		respondError(ctx, w, apperror.Validation("multipart body"))
		return
	}

	path, present, err := spoolFormFile(r, field)
	if err != nil {
		respondError(ctx, w, apperror.Upstream("read "+field+" upload", err))
		return
	}
	defer discardSpool(path)
	if !present {
		respondError(ctx, w, apperror.Validation(field))
		return
	}

	ref := h.Media.Upload(ctx, path, folder)
	if ref.IsZero() {
		respondError(ctx, w, apperror.Upstream("upload "+field, errors.New("media store rejected the upload")))
		return
	}

	prev, err := swap(ctx, viewer.ID, ref)
	if err != nil {
		h.Media.Remove(ctx, ref, "image")
		respondError(ctx, w, err)
		return
	}
	h.Media.Remove(ctx, prev, "image")

	respondJSON(ctx, w, http.StatusOK, map[string]models.MediaReference{field: ref}, message)
}

// Channel handles GET /api/v1/users/channel/{username}: the aggregated public
// profile with read-time subscriber counts.
func (h UserHandler) Channel(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	viewer, _ := middleware.Identity(ctx)
	username := chi.URLParam(r, "username")
	if username == "" {
		respondError(ctx, w, apperror.Validation("username"))
		return
	}

	profile, err := h.Users.ChannelProfile(ctx, username, viewer.ID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			respondError(ctx, w, apperror.NotFound("channel", username))
			return
		}
		respondError(ctx, w, err)
		return
	}

	respondJSON(ctx, w, http.StatusOK, profile, "channel profile fetched")
}

// ToggleSubscription handles POST /api/v1/subscriptions/{username}.
func (h UserHandler) ToggleSubscription(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	viewer, ok := middleware.Identity(ctx)
	if !ok {
		respondError(ctx, w, apperror.Unauthorized("authentication required"))
		return
	}

	username := chi.URLParam(r, "username")
	channel, err := h.Users.FindByUsernameOrEmail(ctx, username)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			respondError(ctx, w, apperror.NotFound("channel", username))
			return
		}
		respondError(ctx, w, err)
		return
	}

	if channel.ID == viewer.ID {
		respondError(ctx, w, &apperror.AppError{
			Kind:    apperror.ErrValidation,
			Message: "cannot subscribe to your own channel",
		})
		return
	}

	subscribed, err := h.Subscriptions.Toggle(ctx, channel.ID, viewer.ID)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	message := "subscription removed"
	if subscribed {
		message = "subscription added"
	}
	respondJSON(ctx, w, http.StatusOK, map[string]bool{"subscribed": subscribed}, message)
}

// WatchHistory handles GET /api/v1/users/watch-history: the viewer's watched
// videos, deduplicated and most recent first.
func (h UserHandler) WatchHistory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	viewer, ok := middleware.Identity(ctx)
	if !ok {
		respondError(ctx, w, apperror.Unauthorized("authentication required"))
		return
	}

	history, err := h.Users.WatchHistory(ctx, viewer.ID)
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	if history == nil {
		history = []models.WatchedVideo{}
	}

	respondJSON(ctx, w, http.StatusOK, history, "watch history fetched")
}

func (h UserHandler) now() time.Time {
	if h.NowFunc != nil {
		return h.NowFunc()
	}
	return time.Now().UTC()
}
