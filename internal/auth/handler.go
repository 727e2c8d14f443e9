package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"
	"unicode/utf8"

	"golang.org/x/crypto/bcrypt"

	"github.com/wealthpulse/backend/internal/httpx"
	"github.com/wealthpulse/backend/internal/middleware"
	"github.com/wealthpulse/backend/internal/models"
	"github.com/wealthpulse/backend/internal/store"
)

// Column limits of the users table.
const (
	MaxUsernameLength = 50
	MaxEmailLength    = 255
)

// UserStore defines the interface for user persistence.
type UserStore interface {
	CreateUser(ctx context.Context, username, email, hashedPw string) (*models.User, error)
	FindByIdentifier(ctx context.Context, identifier string) (*models.User, error)
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
}

// Sessions issues and revokes login sessions.
type Sessions interface {
	Create(ctx context.Context, username string) (string, error)
	Delete(ctx context.Context, sessionID string) error
}

// Handler holds auth-related HTTP handlers.
type Handler struct {
	users    UserStore
	sessions Sessions
	cost     int
}

func NewHandler(users UserStore, sessions Sessions) *Handler {
	return &Handler{users: users, sessions: sessions, cost: bcrypt.DefaultCost}
}

// Register creates a new user.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req models.RegisterRequest
	if err := httpx.Decode(w, r, &req); err != nil {
		httpx.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Username == "" || req.Email == "" || req.Password == "" {
		httpx.Error(w, http.StatusBadRequest, "username, email, and password are required")
		return
	}
	if utf8.RuneCountInString(req.Username) > MaxUsernameLength {
		httpx.Error(w, http.StatusBadRequest, fmt.Sprintf("username must be at most %d characters", MaxUsernameLength))
		return
	}
	if utf8.RuneCountInString(req.Email) > MaxEmailLength {
		httpx.Error(w, http.StatusBadRequest, fmt.Sprintf("email must be at most %d characters", MaxEmailLength))
		return
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), h.cost)
	if err != nil {
		httpx.ServerError(w, r, "register", err, "Registration failed")
		return
	}

	if _, err := h.users.CreateUser(r.Context(), req.Username, req.Email, string(hashed)); err != nil {
		var dup *store.DuplicateError
		if errors.As(err, &dup) {
			httpx.Error(w, http.StatusBadRequest, dup.Error())
			return
		}
		httpx.ServerError(w, r, "register", err, "Registration failed")
		return
	}

	httpx.Message(w, http.StatusCreated, "User registered successfully")
}

// Login authenticates by username or email and creates a session.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if err := httpx.Decode(w, r, &req); err != nil {
		httpx.Message(w, http.StatusBadRequest, "invalid request body")
		return
	}

	user, err := h.users.FindByIdentifier(r.Context(), req.Identifier)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		httpx.ServerError(w, r, "login", err, "Server error")
		return
	}
	if user == nil || bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)) != nil {
		httpx.Message(w, http.StatusUnauthorized, "Invalid username or password")
		return
	}

	sid, err := h.sessions.Create(r.Context(), user.Username)
	if err != nil {
		httpx.ServerError(w, r, "login", err, "Server error")
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    sid,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(SessionTTL / time.Second),
	})

	httpx.WriteJSON(w, http.StatusOK, map[string]string{
		"message":  "Login successful",
		"username": user.Username,
	})
}

// Logout destroys the current session.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(SessionCookie); err == nil {
		if err := h.sessions.Delete(r.Context(), cookie.Value); err != nil {
			httpx.ServerError(w, r, "logout", err, "Server error")
			return
		}
	}

	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		MaxAge:   -1,
	})

	httpx.Message(w, http.StatusOK, "logged out")
}

// Me returns the currently authenticated user.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	username, ok := middleware.Username(r.Context())
	if !ok {
		httpx.Error(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	user, err := h.users.GetUserByUsername(r.Context(), username)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			httpx.Error(w, http.StatusNotFound, "user not found")
			return
		}
		httpx.ServerError(w, r, "me", err, "Server error")
		return
	}

	httpx.WriteJSON(w, http.StatusOK, user)
}
