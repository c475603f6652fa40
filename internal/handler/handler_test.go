package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Dan9191/chi-portal/internal/config"
	"github.com/Dan9191/chi-portal/internal/models"
	"github.com/Dan9191/chi-portal/internal/service"
)

// stubService returns canned values and records the last call arguments
type stubService struct {
	err        error
	userID     int64
	habitID    int64
	toggleDate models.Day
	habitInput service.HabitInput
	registered []string
	magicUsed  bool
}

func (s *stubService) Register(_ context.Context, name, email, password string) (*models.User, error) {
	s.registered = []string{name, email, password}
	if s.err != nil {
		return nil, s.err
	}
	return &models.User{ID: 1, Email: email, DisplayName: name, PasswordHash: "secret-hash"}, nil
}

func (s *stubService) Login(context.Context, string, string) (string, error) {
	return "session-token", s.err
}

func (s *stubService) RequestMagicLink(context.Context, string) error { return s.err }

func (s *stubService) VerifyMagicLink(_ context.Context, token string) (string, error) {
	if token != "good" || s.magicUsed {
		return "", service.ErrUnauthorized
	}
	s.magicUsed = true
	return "magic-session", nil
}

func (s *stubService) GetUser(_ context.Context, userID int64) (*models.User, error) {
	s.userID = userID
	return &models.User{ID: userID, Email: "ann@example.com"}, s.err
}

func (s *stubService) GetProfile(_ context.Context, userID int64) (*models.Profile, error) {
	s.userID = userID
	return &models.Profile{UserID: userID}, s.err
}

func (s *stubService) CompleteOnboarding(_ context.Context, userID int64, in service.OnboardingInput) (*models.Profile, error) {
	s.userID = userID
	return &models.Profile{UserID: userID}, s.err
}

func (s *stubService) ListHabits(_ context.Context, userID int64) ([]models.HabitWithStats, error) {
	s.userID = userID
	if s.err != nil {
		return nil, s.err
	}
	return []models.HabitWithStats{{
		Habit:      models.Habit{ID: 3, UserID: userID, Title: "Read"},
		HabitStats: models.HabitStats{CurrentStreak: 2, BestStreak: 4, CompletionRate: 50},
	}}, nil
}

func (s *stubService) GetHabit(_ context.Context, userID, habitID int64) (*models.HabitWithStats, error) {
	s.userID, s.habitID = userID, habitID
	if s.err != nil {
		return nil, s.err
	}
	return &models.HabitWithStats{Habit: models.Habit{ID: habitID, UserID: userID}}, nil
}

func (s *stubService) CreateHabit(_ context.Context, userID int64, in service.HabitInput) (*models.Habit, error) {
	s.userID, s.habitInput = userID, in
	if s.err != nil {
		return nil, s.err
	}
	return &models.Habit{ID: 9, UserID: userID, Title: in.Title}, nil
}

func (s *stubService) UpdateHabit(_ context.Context, userID, habitID int64, in service.HabitInput) (*models.Habit, error) {
	s.userID, s.habitID, s.habitInput = userID, habitID, in
	if s.err != nil {
		return nil, s.err
	}
	return &models.Habit{ID: habitID, UserID: userID, Title: in.Title}, nil
}

func (s *stubService) DeleteHabit(_ context.Context, userID, habitID int64) error {
	s.userID, s.habitID = userID, habitID
	return s.err
}

func (s *stubService) ToggleHabit(_ context.Context, userID, habitID int64, date models.Day) (*models.ToggleResult, error) {
	s.userID, s.habitID, s.toggleDate = userID, habitID, date
	if s.err != nil {
		return nil, s.err
	}
	return &models.ToggleResult{
		Entry: models.HabitEntry{HabitID: habitID, Date: date, Completed: true},
		Stats: models.HabitStats{CurrentStreak: 1, BestStreak: 1, CompletionRate: 100},
	}, nil
}

func (s *stubService) ExportReport(_ context.Context, userID int64) ([]byte, error) {
	s.userID = userID
	return []byte(`<habitReport/>`), s.err
}

func (s *stubService) Dashboard(_ context.Context, userID int64) (*models.DashboardStats, error) {
	s.userID = userID
	return &models.DashboardStats{Streak: 5, Level: 2, Points: 125}, s.err
}

func (s *stubService) ListAchievements(_ context.Context, userID int64) ([]models.UserAchievement, error) {
	s.userID = userID
	return []models.UserAchievement{}, s.err
}

func (s *stubService) ListNotifications(_ context.Context, userID int64) ([]models.Notification, error) {
	s.userID = userID
	return []models.Notification{}, s.err
}

func (s *stubService) MarkNotificationRead(_ context.Context, userID, id int64) error {
	s.userID = userID
	return s.err
}

var testConfig = &config.Config{JWTSecret: "jwt-secret"}

func newTestRouter(svc Service, ping func(context.Context) error) http.Handler {
	log, _ := test.NewNullLogger()
	return NewRouter(NewHandler(svc, ping, log), testConfig)
}

func bearer(t *testing.T, userID int64) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   strconv.FormatInt(userID, 10),
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}).SignedString([]byte(testConfig.JWTSecret))
	require.NoError(t, err)
	return "Bearer " + token
}

func do(t *testing.T, h http.Handler, method, path, body string, userID int64) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
	}
	if userID > 0 {
		req.Header.Set("Authorization", bearer(t, userID))
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func TestHealth(t *testing.T) {
	rec := do(t, newTestRouter(&stubService{}, func(context.Context) error { return nil }), "GET", "/healthz", "", 0)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", decodeBody(t, rec)["status"])

	rec = do(t, newTestRouter(&stubService{}, func(context.Context) error { return errors.New("db down") }), "GET", "/healthz", "", 0)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestSignup(t *testing.T) {
	svc := &stubService{}
	rec := do(t, newTestRouter(svc, nil), "POST", "/auth/signup",
		`{"name":"Ann","email":"ann@example.com","password":"password123"}`, 0)

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, []string{"Ann", "ann@example.com", "password123"}, svc.registered)
	assert.NotContains(t, rec.Body.String(), "secret-hash")
	user := decodeBody(t, rec)["user"].(map[string]interface{})
	assert.Equal(t, "ann@example.com", user["email"])
}

func TestSignup_WithoutPasswordThenMagicLink(t *testing.T) {
	svc := &stubService{}
	router := newTestRouter(svc, nil)

	rec := do(t, router, "POST", "/auth/signup", `{"name":"Ann","email":"ann@example.com"}`, 0)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, []string{"Ann", "ann@example.com", ""}, svc.registered)

	rec = do(t, router, "POST", "/auth/magic-link", `{"email":"ann@example.com"}`, 0)
	assert.Equal(t, http.StatusAccepted, rec.Code)

	rec = do(t, router, "GET", "/auth/magic-link/verify?token=good", "", 0)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "magic-session", decodeBody(t, rec)["token"])

	rec = do(t, router, "GET", "/auth/magic-link/verify?token=good", "", 0)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestSignup_Errors(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		err        error
		wantStatus int
	}{
		{"malformed body", `{"name":`, nil, http.StatusBadRequest},
		{"validation", `{}`, fmt.Errorf("%w: email is invalid", service.ErrInvalidInput), http.StatusBadRequest},
		{"duplicate", `{}`, fmt.Errorf("%w: email already registered", service.ErrConflict), http.StatusConflict},
		{"internal", `{}`, errors.New("pq: connection refused"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, newTestRouter(&stubService{err: tt.err}, nil), "POST", "/auth/signup", tt.body, 0)
			assert.Equal(t, tt.wantStatus, rec.Code)
			msg := decodeBody(t, rec)["error"]
			assert.NotEmpty(t, msg)
			if tt.wantStatus == http.StatusInternalServerError {
				assert.Equal(t, "internal server error", msg)
			}
		})
	}
}

func TestLogin(t *testing.T) {
	rec := do(t, newTestRouter(&stubService{}, nil), "POST", "/auth/login", `{"email":"a@b.co","password":"x"}`, 0)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "session-token", decodeBody(t, rec)["token"])

	rec = do(t, newTestRouter(&stubService{err: service.ErrUnauthorized}, nil), "POST", "/auth/login", `{"email":"a@b.co","password":"x"}`, 0)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestMagicLink(t *testing.T) {
	router := newTestRouter(&stubService{}, nil)

	rec := do(t, router, "POST", "/auth/magic-link", `{"email":"a@b.co"}`, 0)
	assert.Equal(t, http.StatusAccepted, rec.Code)

	rec = do(t, router, "GET", "/auth/magic-link/verify?token=good", "", 0)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "magic-session", decodeBody(t, rec)["token"])

	rec = do(t, router, "GET", "/auth/magic-link/verify?token=bad", "", 0)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = do(t, router, "GET", "/auth/magic-link/verify", "", 0)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	router := newTestRouter(&stubService{}, nil)
	for _, path := range []string{"/me", "/profile", "/habits", "/dashboard", "/achievements", "/notifications"} {
		rec := do(t, router, "GET", path, "", 0)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, path)
	}
}

func TestMeAndProfile(t *testing.T) {
	svc := &stubService{}
	router := newTestRouter(svc, nil)

	rec := do(t, router, "GET", "/me", "", 42)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, int64(42), svc.userID)

	rec = do(t, router, "PUT", "/profile", `{"current_role":"Engineer","focus_areas":["Leadership"]}`, 43)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, int64(43), svc.userID)

	rec = do(t, router, "GET", "/profile", "", 44)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, int64(44), svc.userID)
}

func TestListHabits(t *testing.T) {
	svc := &stubService{}
	rec := do(t, newTestRouter(svc, nil), "GET", "/habits", "", 7)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, int64(7), svc.userID)

	var habits []map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &habits))
	require.Len(t, habits, 1)
	assert.Equal(t, "Read", habits[0]["title"])
	assert.EqualValues(t, 2, habits[0]["current_streak"])
	assert.EqualValues(t, 4, habits[0]["best_streak"])
	assert.EqualValues(t, 50, habits[0]["completion_rate"])
}

func TestCreateHabit(t *testing.T) {
	svc := &stubService{}
	rec := do(t, newTestRouter(svc, nil), "POST", "/habits", `{"title":"Read","category":"Learning"}`, 7)

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "Read", svc.habitInput.Title)
	assert.Equal(t, "Learning", svc.habitInput.Category)
}

func TestHabitByID(t *testing.T) {
	svc := &stubService{}
	router := newTestRouter(svc, nil)

	rec := do(t, router, "GET", "/habits/12", "", 7)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, int64(12), svc.habitID)

	rec = do(t, router, "PUT", "/habits/13", `{"title":"Write","category":"Learning"}`, 7)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, int64(13), svc.habitID)
	assert.Equal(t, "Write", svc.habitInput.Title)

	rec = do(t, router, "DELETE", "/habits/14", "", 7)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, int64(14), svc.habitID)

	rec = do(t, router, "GET", "/habits/abc", "", 7)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, router, "GET", "/habits/0", "", 7)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHabitByID_NotFound(t *testing.T) {
	svc := &stubService{err: fmt.Errorf("habit 12: %w", service.ErrNotFound)}
	rec := do(t, newTestRouter(svc, nil), "GET", "/habits/12", "", 7)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestToggleHabit(t *testing.T) {
	t.Run("explicit date", func(t *testing.T) {
		svc := &stubService{}
		rec := do(t, newTestRouter(svc, nil), "POST", "/habits/5/toggle", `{"date":"2024-03-14"}`, 7)

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, int64(5), svc.habitID)
		assert.Equal(t, models.NewDay(2024, time.March, 14), svc.toggleDate)

		body := decodeBody(t, rec)
		assert.Equal(t, "2024-03-14", body["entry"].(map[string]interface{})["date"])
		assert.EqualValues(t, 1, body["stats"].(map[string]interface{})["current_streak"])
	})

	t.Run("empty body defaults to today", func(t *testing.T) {
		svc := &stubService{}
		rec := do(t, newTestRouter(svc, nil), "POST", "/habits/5/toggle", "", 7)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.True(t, svc.toggleDate.IsZero())
	})

	t.Run("bad date", func(t *testing.T) {
		rec := do(t, newTestRouter(&stubService{}, nil), "POST", "/habits/5/toggle", `{"date":"14/03/2024"}`, 7)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestExportHabits(t *testing.T) {
	rec := do(t, newTestRouter(&stubService{}, nil), "GET", "/habits/export", "", 7)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/xml; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "habits.xml")
	assert.Equal(t, `<habitReport/>`, rec.Body.String())
}

func TestGamificationRoutes(t *testing.T) {
	svc := &stubService{}
	router := newTestRouter(svc, nil)

	rec := do(t, router, "GET", "/dashboard", "", 7)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.EqualValues(t, 5, body["streak"])
	assert.EqualValues(t, 2, body["level"])

	rec = do(t, router, "GET", "/achievements", "", 7)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "[]\n", rec.Body.String())

	rec = do(t, router, "GET", "/notifications", "", 7)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, router, "POST", "/notifications/3/read", "", 8)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, int64(8), svc.userID)
}
