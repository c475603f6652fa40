package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/Dan9191/chi-portal/internal/config"
	"github.com/Dan9191/chi-portal/internal/models"
	"github.com/Dan9191/chi-portal/internal/repository"
)

var fixedNow = time.Date(2024, time.March, 15, 18, 0, 0, 0, time.UTC)

// fakeStore is an in-memory Store
type fakeStore struct {
	now           time.Time
	nextID        int64
	users         map[int64]*models.User
	profiles      map[int64]*models.Profile
	habits        map[int64]*models.Habit
	entries       map[int64]map[string]*models.HabitEntry
	achievements  map[string]*models.Achievement
	unlocked      map[[2]int64]time.Time
	notifications []models.Notification
	magicLinks    map[string]time.Time
	failNotify    bool
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		now:          fixedNow,
		users:        map[int64]*models.User{},
		profiles:     map[int64]*models.Profile{},
		habits:       map[int64]*models.Habit{},
		entries:      map[int64]map[string]*models.HabitEntry{},
		achievements: map[string]*models.Achievement{},
		unlocked:     map[[2]int64]time.Time{},
		magicLinks:   map[string]time.Time{},
	}
}

func (f *fakeStore) id() int64 {
	f.nextID++
	return f.nextID
}

func (f *fakeStore) CreateUserWithProfile(_ context.Context, user *models.User) error {
	for _, u := range f.users {
		if u.Email == user.Email {
			return fmt.Errorf("user %s: %w", user.Email, repository.ErrDuplicate)
		}
	}
	user.ID = f.id()
	user.CreatedAt, user.UpdatedAt = f.now, f.now
	stored := *user
	f.users[user.ID] = &stored
	f.profiles[user.ID] = &models.Profile{UserID: user.ID}
	return nil
}

func (f *fakeStore) FindUserByEmail(_ context.Context, email string) (*models.User, error) {
	for _, u := range f.users {
		if u.Email == email {
			found := *u
			return &found, nil
		}
	}
	return nil, fmt.Errorf("user: %w", repository.ErrNotFound)
}

func (f *fakeStore) FindUserByID(_ context.Context, id int64) (*models.User, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, fmt.Errorf("user: %w", repository.ErrNotFound)
	}
	found := *u
	return &found, nil
}

func (f *fakeStore) CompleteOnboarding(_ context.Context, profile *models.Profile, displayName string) error {
	u, ok := f.users[profile.UserID]
	if !ok {
		return fmt.Errorf("user: %w", repository.ErrNotFound)
	}
	u.OnboardingStatus = models.OnboardingCompleted
	if displayName != "" {
		u.DisplayName = displayName
	}
	profile.UpdatedAt = f.now
	stored := *profile
	f.profiles[profile.UserID] = &stored
	return nil
}

func (f *fakeStore) GetProfile(_ context.Context, userID int64) (*models.Profile, error) {
	p, ok := f.profiles[userID]
	if !ok {
		return nil, fmt.Errorf("profile: %w", repository.ErrNotFound)
	}
	found := *p
	return &found, nil
}

func (f *fakeStore) ConsumeMagicLink(_ context.Context, nonce string, expiresAt time.Time) (bool, error) {
	if _, used := f.magicLinks[nonce]; used {
		return false, nil
	}
	f.magicLinks[nonce] = expiresAt
	return true, nil
}

func (f *fakeStore) PurgeMagicLinks(_ context.Context, now time.Time) (int, error) {
	n := 0
	for nonce, exp := range f.magicLinks {
		if exp.Before(now) {
			delete(f.magicLinks, nonce)
			n++
		}
	}
	return n, nil
}

func (f *fakeStore) CreateHabit(_ context.Context, habit *models.Habit) error {
	habit.ID = f.id()
	habit.Active = true
	habit.CreatedAt, habit.UpdatedAt = f.now, f.now
	stored := *habit
	f.habits[habit.ID] = &stored
	return nil
}

func (f *fakeStore) GetHabit(_ context.Context, userID, habitID int64) (*models.Habit, error) {
	h, ok := f.habits[habitID]
	if !ok || h.UserID != userID || !h.Active {
		return nil, fmt.Errorf("habit: %w", repository.ErrNotFound)
	}
	found := *h
	return &found, nil
}

func (f *fakeStore) ListActiveHabits(_ context.Context, userID int64) ([]models.Habit, error) {
	out := []models.Habit{}
	for _, h := range f.habits {
		if h.UserID == userID && h.Active {
			out = append(out, *h)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (f *fakeStore) UpdateHabit(_ context.Context, habit *models.Habit) error {
	h, ok := f.habits[habit.ID]
	if !ok || h.UserID != habit.UserID || !h.Active {
		return fmt.Errorf("habit: %w", repository.ErrNotFound)
	}
	habit.Active = true
	habit.CreatedAt = h.CreatedAt
	habit.UpdatedAt = f.now
	stored := *habit
	f.habits[habit.ID] = &stored
	return nil
}

func (f *fakeStore) DeactivateHabit(_ context.Context, userID, habitID int64) error {
	h, ok := f.habits[habitID]
	if !ok || h.UserID != userID || !h.Active {
		return fmt.Errorf("habit: %w", repository.ErrNotFound)
	}
	h.Active = false
	return nil
}

func (f *fakeStore) CountActiveHabits(ctx context.Context, userID int64) (int, error) {
	habits, _ := f.ListActiveHabits(ctx, userID)
	return len(habits), nil
}

func (f *fakeStore) ListEntriesSince(_ context.Context, habitIDs []int64, since models.Day) (map[int64][]models.HabitEntry, error) {
	out := map[int64][]models.HabitEntry{}
	for _, id := range habitIDs {
		for _, e := range f.entries[id] {
			if !e.Date.Before(since) {
				out[id] = append(out[id], *e)
			}
		}
		sort.Slice(out[id], func(i, j int) bool { return out[id][i].Date.After(out[id][j].Date) })
	}
	return out, nil
}

func (f *fakeStore) ToggleEntry(_ context.Context, habitID int64, date models.Day) (*models.HabitEntry, error) {
	if f.entries[habitID] == nil {
		f.entries[habitID] = map[string]*models.HabitEntry{}
	}
	e, ok := f.entries[habitID][date.String()]
	if ok {
		e.Completed = !e.Completed
	} else {
		e = &models.HabitEntry{ID: f.id(), HabitID: habitID, Date: date, Completed: true, CreatedAt: f.now}
		f.entries[habitID][date.String()] = e
	}
	e.UpdatedAt = f.now
	out := *e
	return &out, nil
}

// setEntry writes an entry directly, bypassing toggle semantics
func (f *fakeStore) setEntry(habitID int64, date models.Day, completed bool) {
	if f.entries[habitID] == nil {
		f.entries[habitID] = map[string]*models.HabitEntry{}
	}
	f.entries[habitID][date.String()] = &models.HabitEntry{ID: f.id(), HabitID: habitID, Date: date, Completed: completed}
}

func (f *fakeStore) EnsureAchievement(_ context.Context, a *models.Achievement) error {
	if existing, ok := f.achievements[a.Slug]; ok {
		*a = *existing
		return nil
	}
	a.ID = f.id()
	stored := *a
	f.achievements[a.Slug] = &stored
	return nil
}

func (f *fakeStore) AwardAchievement(_ context.Context, userID, achievementID int64) (bool, error) {
	key := [2]int64{userID, achievementID}
	if _, ok := f.unlocked[key]; ok {
		return false, nil
	}
	f.unlocked[key] = f.now
	return true, nil
}

func (f *fakeStore) ListUserAchievements(_ context.Context, userID int64) ([]models.UserAchievement, error) {
	out := []models.UserAchievement{}
	for _, a := range f.achievements {
		if at, ok := f.unlocked[[2]int64{userID, a.ID}]; ok {
			out = append(out, models.UserAchievement{Achievement: *a, UnlockedAt: at})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeStore) SumUserPoints(ctx context.Context, userID int64) (int, error) {
	achievements, _ := f.ListUserAchievements(ctx, userID)
	total := 0
	for _, a := range achievements {
		total += a.Points
	}
	return total, nil
}

func (f *fakeStore) CreateNotification(_ context.Context, n *models.Notification) error {
	if f.failNotify {
		return errors.New("notifications unavailable")
	}
	n.ID = f.id()
	n.CreatedAt = f.now
	f.notifications = append(f.notifications, *n)
	return nil
}

func (f *fakeStore) ListNotifications(_ context.Context, userID int64, limit int) ([]models.Notification, error) {
	out := []models.Notification{}
	for i := len(f.notifications) - 1; i >= 0 && len(out) < limit; i-- {
		if f.notifications[i].UserID == userID {
			out = append(out, f.notifications[i])
		}
	}
	return out, nil
}

func (f *fakeStore) MarkNotificationRead(_ context.Context, userID, id int64) error {
	for i := range f.notifications {
		if f.notifications[i].ID == id && f.notifications[i].UserID == userID {
			f.notifications[i].Read = true
			return nil
		}
	}
	return fmt.Errorf("notification: %w", repository.ErrNotFound)
}

func (f *fakeStore) ListReminderCandidates(_ context.Context, day models.Day) ([]models.ReminderCandidate, error) {
	var out []models.ReminderCandidate
	for _, u := range f.users {
		for _, h := range f.habits {
			if h.UserID != u.ID || !h.Active {
				continue
			}
			if e, ok := f.entries[h.ID][day.String()]; ok && e.Completed {
				continue
			}
			out = append(out, models.ReminderCandidate{UserID: u.ID, Email: u.Email, DisplayName: u.DisplayName})
			break
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UserID < out[j].UserID })
	return out, nil
}

type reminder struct {
	to     string
	habits []string
	streak int
}

// fakeMailer records sent emails
type fakeMailer struct {
	links     map[string]string
	reminders []reminder
	fail      bool
}

func (m *fakeMailer) SendMagicLink(to, _, link string) error {
	if m.fail {
		return errors.New("smtp down")
	}
	if m.links == nil {
		m.links = map[string]string{}
	}
	m.links[to] = link
	return nil
}

func (m *fakeMailer) SendStreakReminder(to, _ string, habits []string, streak int) error {
	if m.fail {
		return errors.New("smtp down")
	}
	m.reminders = append(m.reminders, reminder{to: to, habits: habits, streak: streak})
	return nil
}

func newTestService() (*Service, *fakeStore, *fakeMailer) {
	log := logrus.New()
	log.SetOutput(io.Discard)
	cfg := &config.Config{
		JWTSecret:    "jwt-secret",
		JWTTTL:       time.Hour,
		HMACSecret:   "hmac-secret",
		MagicLinkTTL: 15 * time.Minute,
		AppURL:       "http://app.test/",
		Location:     time.UTC,
	}
	store := newFakeStore()
	mailer := &fakeMailer{}
	svc := NewService(store, mailer, log, cfg)
	svc.now = func() time.Time { return fixedNow }
	return svc, store, mailer
}
