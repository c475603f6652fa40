package handler

import (
	"github.com/Dan9191/chi-portal/internal/config"
	"github.com/Dan9191/chi-portal/internal/middleware"
	"github.com/gorilla/mux"
)

// NewRouter registers the public and protected routes
func NewRouter(h *Handler, cfg *config.Config) *mux.Router {
	r := mux.NewRouter()
	r.Use(middleware.RequestLogger(h.log))

	// Public routes
	r.HandleFunc("/healthz", h.Health).Methods("GET")
	r.HandleFunc("/auth/signup", h.Signup).Methods("POST")
	r.HandleFunc("/auth/login", h.Login).Methods("POST")
	r.HandleFunc("/auth/magic-link", h.RequestMagicLink).Methods("POST")
	r.HandleFunc("/auth/magic-link/verify", h.VerifyMagicLink).Methods("GET")

	// Protected routes
	api := r.PathPrefix("/").Subrouter()
	api.Use(middleware.AuthMiddleware(cfg))
	api.HandleFunc("/me", h.Me).Methods("GET")
	api.HandleFunc("/profile", h.GetProfile).Methods("GET")
	api.HandleFunc("/profile", h.CompleteOnboarding).Methods("PUT")
	api.HandleFunc("/habits", h.ListHabits).Methods("GET")
	api.HandleFunc("/habits", h.CreateHabit).Methods("POST")
	api.HandleFunc("/habits/export", h.ExportHabits).Methods("GET")
	api.HandleFunc("/habits/{id:[0-9]+}", h.GetHabit).Methods("GET")
	api.HandleFunc("/habits/{id:[0-9]+}", h.UpdateHabit).Methods("PUT")
	api.HandleFunc("/habits/{id:[0-9]+}", h.DeleteHabit).Methods("DELETE")
	api.HandleFunc("/habits/{id:[0-9]+}/toggle", h.ToggleHabit).Methods("POST")
	api.HandleFunc("/dashboard", h.Dashboard).Methods("GET")
	api.HandleFunc("/achievements", h.ListAchievements).Methods("GET")
	api.HandleFunc("/notifications", h.ListNotifications).Methods("GET")
	api.HandleFunc("/notifications/{id:[0-9]+}/read", h.MarkNotificationRead).Methods("POST")

	return r
}
