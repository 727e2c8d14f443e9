// Package profile serves the optional per-user profile: personal details
// kept in MongoDB and an avatar image kept in object storage.
package profile

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/wealthpulse/backend/internal/httpx"
	"github.com/wealthpulse/backend/internal/middleware"
	"github.com/wealthpulse/backend/internal/models"
	"github.com/wealthpulse/backend/internal/store"
)

// MaxAvatarBytes caps avatar uploads.
const MaxAvatarBytes = 5 << 20

// ProfileStore defines the interface for profile persistence.
type ProfileStore interface {
	Get(ctx context.Context, username string) (*models.Profile, error)
	Save(ctx context.Context, p *models.Profile) error
	SetAvatar(ctx context.Context, username, key string) (string, error)
}

// ObjectStore defines the interface for avatar storage.
type ObjectStore interface {
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	Open(ctx context.Context, key string) (io.ReadCloser, store.ObjectInfo, error)
	Remove(ctx context.Context, key string) error
}

// Handler holds profile HTTP handlers. All routes expect RequireAuth.
type Handler struct {
	profiles ProfileStore
	objects  ObjectStore
	now      func() time.Time
}

func NewHandler(profiles ProfileStore, objects ObjectStore) *Handler {
	return &Handler{profiles: profiles, objects: objects, now: time.Now}
}

func (h *Handler) Routes(r chi.Router) {
	r.Get("/", h.Get)
	r.Put("/", h.Update)
	r.Get("/avatar", h.GetAvatar)
	r.Put("/avatar", h.PutAvatar)
}

// Get returns the stored profile or the defaults.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	username, _ := middleware.Username(r.Context())
	p, err := h.load(r.Context(), username)
	if err != nil {
		httpx.ServerError(w, r, "get profile", err, "Failed to fetch profile")
		return
	}
	httpx.WriteJSON(w, http.StatusOK, p)
}

// Update replaces the profile fields. The avatar is left to PutAvatar.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	username, _ := middleware.Username(r.Context())

	var req models.UpdateProfileRequest
	if err := httpx.Decode(w, r, &req); err != nil {
		httpx.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.MonthlyIncome < 0 {
		httpx.Error(w, http.StatusBadRequest, "monthlyIncome must not be negative")
		return
	}

	p, err := h.load(r.Context(), username)
	if err != nil {
		httpx.ServerError(w, r, "update profile", err, "Failed to update profile")
		return
	}
	p.Name = req.Name
	p.Email = req.Email
	p.Phone = req.Phone
	p.Address = req.Address
	p.DateOfBirth = req.DateOfBirth
	p.Occupation = req.Occupation
	p.MonthlyIncome = req.MonthlyIncome
	p.FinancialGoal = req.FinancialGoal
	p.Bio = req.Bio
	if req.PreferredCurrency != "" {
		p.PreferredCurrency = strings.ToUpper(req.PreferredCurrency)
	}
	if req.MembershipLevel != "" {
		p.MembershipLevel = req.MembershipLevel
	}
	p.UpdatedAt = h.now().UTC().Truncate(time.Millisecond)

	if err := h.profiles.Save(r.Context(), p); err != nil {
		httpx.ServerError(w, r, "update profile", err, "Failed to update profile")
		return
	}
	httpx.WriteJSON(w, http.StatusOK, p)
}

// PutAvatar uploads a new avatar image and drops the previous one.
func (h *Handler) PutAvatar(w http.ResponseWriter, r *http.Request) {
	username, _ := middleware.Username(r.Context())

	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil || !strings.HasPrefix(mediaType, "image/") {
		httpx.Error(w, http.StatusUnsupportedMediaType, "avatar must be an image")
		return
	}

	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, MaxAvatarBytes))
	if err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			httpx.Error(w, http.StatusRequestEntityTooLarge,
				fmt.Sprintf("avatar exceeds %d bytes", MaxAvatarBytes))
			return
		}
		httpx.Error(w, http.StatusBadRequest, "could not read avatar")
		return
	}
	if len(data) == 0 {
		httpx.Error(w, http.StatusBadRequest, "avatar is empty")
		return
	}

	key := fmt.Sprintf("avatars/%s/%s", username, uuid.New().String())
	if err := h.objects.Put(r.Context(), key, bytes.NewReader(data), int64(len(data)), mediaType); err != nil {
		httpx.ServerError(w, r, "upload avatar", err, "Failed to upload avatar")
		return
	}

	prev, err := h.profiles.SetAvatar(r.Context(), username, key)
	if err != nil {
		if rmErr := h.objects.Remove(r.Context(), key); rmErr != nil {
			slog.WarnContext(r.Context(), "remove orphaned avatar", "key", key, "error", rmErr)
		}
		httpx.ServerError(w, r, "upload avatar", err, "Failed to upload avatar")
		return
	}
	if prev != "" && prev != key {
		if err := h.objects.Remove(r.Context(), prev); err != nil {
			slog.WarnContext(r.Context(), "remove old avatar", "key", prev, "error", err)
		}
	}

	httpx.Message(w, http.StatusOK, "avatar updated")
}

// GetAvatar streams the user's avatar.
func (h *Handler) GetAvatar(w http.ResponseWriter, r *http.Request) {
	username, _ := middleware.Username(r.Context())

	p, err := h.load(r.Context(), username)
	if err != nil {
		httpx.ServerError(w, r, "get avatar", err, "download failed")
		return
	}
	if p.AvatarKey == "" {
		httpx.Error(w, http.StatusNotFound, "avatar not available")
		return
	}

	body, info, err := h.objects.Open(r.Context(), p.AvatarKey)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			httpx.Error(w, http.StatusNotFound, "avatar not available")
			return
		}
		httpx.ServerError(w, r, "get avatar", err, "download failed")
		return
	}
	defer body.Close()

	w.Header().Set("Content-Type", info.ContentType)
	w.Header().Set("Content-Length", strconv.FormatInt(info.Size, 10))
	w.Header().Set("Cache-Control", "private, max-age=300")
	if _, err := io.Copy(w, body); err != nil {
		slog.WarnContext(r.Context(), "stream avatar", "key", p.AvatarKey, "error", err)
	}
}

func (h *Handler) load(ctx context.Context, username string) (*models.Profile, error) {
	p, err := h.profiles.Get(ctx, username)
	if errors.Is(err, store.ErrNotFound) {
		return models.DefaultProfile(username), nil
	}
	if err != nil {
		return nil, err
	}
	p.HasAvatar = p.AvatarKey != ""
	return p, nil
}
