package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/Dan9191/chi-portal/internal/middleware"
	"github.com/Dan9191/chi-portal/internal/models"
	"github.com/Dan9191/chi-portal/internal/service"
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
)

const maxBodyBytes = 1 << 20

// Service is the business layer used by the handlers.
// *service.Service implements it.
type Service interface {
	Register(ctx context.Context, name, email, password string) (*models.User, error)
	Login(ctx context.Context, email, password string) (string, error)
	RequestMagicLink(ctx context.Context, email string) error
	VerifyMagicLink(ctx context.Context, token string) (string, error)
	GetUser(ctx context.Context, userID int64) (*models.User, error)
	GetProfile(ctx context.Context, userID int64) (*models.Profile, error)
	CompleteOnboarding(ctx context.Context, userID int64, in service.OnboardingInput) (*models.Profile, error)

	ListHabits(ctx context.Context, userID int64) ([]models.HabitWithStats, error)
	GetHabit(ctx context.Context, userID, habitID int64) (*models.HabitWithStats, error)
	CreateHabit(ctx context.Context, userID int64, in service.HabitInput) (*models.Habit, error)
	UpdateHabit(ctx context.Context, userID, habitID int64, in service.HabitInput) (*models.Habit, error)
	DeleteHabit(ctx context.Context, userID, habitID int64) error
	ToggleHabit(ctx context.Context, userID, habitID int64, date models.Day) (*models.ToggleResult, error)
	ExportReport(ctx context.Context, userID int64) ([]byte, error)

	Dashboard(ctx context.Context, userID int64) (*models.DashboardStats, error)
	ListAchievements(ctx context.Context, userID int64) ([]models.UserAchievement, error)
	ListNotifications(ctx context.Context, userID int64) ([]models.Notification, error)
	MarkNotificationRead(ctx context.Context, userID, id int64) error
}

var _ Service = (*service.Service)(nil)

type Handler struct {
	svc  Service
	ping func(context.Context) error
	log  *logrus.Logger
}

// NewHandler creates the HTTP handlers; ping backs the health check
func NewHandler(svc Service, ping func(context.Context) error, log *logrus.Logger) *Handler {
	return &Handler{svc: svc, ping: ping, log: log}
}

// Health reports whether the database is reachable
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	if h.ping != nil {
		if err := h.ping(r.Context()); err != nil {
			h.log.Errorf("Health check failed: %v", err)
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError maps service errors onto HTTP status codes
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, service.ErrInvalidInput):
		status = http.StatusBadRequest
	case errors.Is(err, service.ErrUnauthorized):
		status = http.StatusUnauthorized
	case errors.Is(err, service.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, service.ErrConflict):
		status = http.StatusConflict
	}

	if status == http.StatusInternalServerError {
		h.log.Errorf("%s %s failed: %v", r.Method, r.URL.Path, err)
		writeJSON(w, status, map[string]string{"error": "internal server error"})
		return
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

// decode reads a JSON body into v. An empty body is allowed when optional.
func decode(w http.ResponseWriter, r *http.Request, v interface{}, optional bool) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		if optional && errors.Is(err, io.EOF) {
			return nil
		}
		return fmt.Errorf("%w: malformed JSON body: %v", service.ErrInvalidInput, err)
	}
	return nil
}

func pathID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: invalid id", service.ErrInvalidInput)
	}
	return id, nil
}

// currentUser returns the authenticated user ID set by the auth middleware
func currentUser(r *http.Request) (int64, error) {
	id, ok := middleware.UserID(r.Context())
	if !ok {
		return 0, fmt.Errorf("%w: user ID not found in context", service.ErrUnauthorized)
	}
	return id, nil
}
