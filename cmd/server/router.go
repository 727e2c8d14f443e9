package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/wealthpulse/backend/internal/auth"
	"github.com/wealthpulse/backend/internal/expenses"
	"github.com/wealthpulse/backend/internal/middleware"
	"github.com/wealthpulse/backend/internal/profile"
)

type routes struct {
	auth        *auth.Handler
	expenses    *expenses.Handler
	profile     *profile.Handler
	sessions    middleware.SessionLookup
	corsOrigins []string
}

func setupRouter(rt routes) http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   rt.corsOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	requireAuth := middleware.RequireAuth(rt.sessions, auth.SessionCookie)

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})

	// Account routes, at the root for the existing client and under /api/auth.
	accountRoutes := func(r chi.Router) {
		r.Post("/register", rt.auth.Register)
		r.Post("/login", rt.auth.Login)
		r.Post("/logout", rt.auth.Logout)
		r.With(requireAuth).Get("/me", rt.auth.Me)
	}
	r.Group(accountRoutes)
	r.Route("/api/auth", accountRoutes)

	// Expense routes are scoped by identifier, not by session.
	r.Route("/api/expenses", rt.expenses.Routes)

	r.Route("/api/profile", func(r chi.Router) {
		r.Use(requireAuth)
		rt.profile.Routes(r)
	})

	return r
}
