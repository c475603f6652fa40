package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Dan9191/chi-portal/internal/config"
	"github.com/Dan9191/chi-portal/internal/models"
	"github.com/Dan9191/chi-portal/internal/repository"
	"github.com/sirupsen/logrus"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrInvalidInput = errors.New("invalid input")
	ErrUnauthorized = errors.New("unauthorized")
)

// Store is the persistence the service depends on.
// *repository.Repository implements it.
type Store interface {
	CreateUserWithProfile(ctx context.Context, user *models.User) error
	FindUserByEmail(ctx context.Context, email string) (*models.User, error)
	FindUserByID(ctx context.Context, id int64) (*models.User, error)
	CompleteOnboarding(ctx context.Context, profile *models.Profile, displayName string) error
	GetProfile(ctx context.Context, userID int64) (*models.Profile, error)
	ConsumeMagicLink(ctx context.Context, nonce string, expiresAt time.Time) (bool, error)
	PurgeMagicLinks(ctx context.Context, now time.Time) (int, error)

	CreateHabit(ctx context.Context, habit *models.Habit) error
	GetHabit(ctx context.Context, userID, habitID int64) (*models.Habit, error)
	ListActiveHabits(ctx context.Context, userID int64) ([]models.Habit, error)
	UpdateHabit(ctx context.Context, habit *models.Habit) error
	DeactivateHabit(ctx context.Context, userID, habitID int64) error
	CountActiveHabits(ctx context.Context, userID int64) (int, error)
	ListEntriesSince(ctx context.Context, habitIDs []int64, since models.Day) (map[int64][]models.HabitEntry, error)
	ToggleEntry(ctx context.Context, habitID int64, date models.Day) (*models.HabitEntry, error)

	EnsureAchievement(ctx context.Context, a *models.Achievement) error
	AwardAchievement(ctx context.Context, userID, achievementID int64) (bool, error)
	ListUserAchievements(ctx context.Context, userID int64) ([]models.UserAchievement, error)
	SumUserPoints(ctx context.Context, userID int64) (int, error)
	CreateNotification(ctx context.Context, n *models.Notification) error
	ListNotifications(ctx context.Context, userID int64, limit int) ([]models.Notification, error)
	MarkNotificationRead(ctx context.Context, userID, id int64) error
	ListReminderCandidates(ctx context.Context, day models.Day) ([]models.ReminderCandidate, error)
}

// Mailer sends transactional emails
type Mailer interface {
	SendMagicLink(to, name, link string) error
	SendStreakReminder(to, name string, habits []string, streak int) error
}

// Service handles business logic
type Service struct {
	store  Store
	mailer Mailer
	log    *logrus.Logger
	config *config.Config
	now    func() time.Time
}

// NewService initializes a new service
func NewService(store Store, mailer Mailer, log *logrus.Logger, cfg *config.Config) *Service {
	return &Service{store: store, mailer: mailer, log: log, config: cfg, now: time.Now}
}

// today is the current calendar date in the configured time zone
func (s *Service) today() models.Day {
	loc := s.config.Location
	if loc == nil {
		loc = time.UTC
	}
	return models.DayOf(s.now().In(loc))
}

// dayOf converts a stored timestamp to a calendar date in the configured zone
func (s *Service) dayOf(t time.Time) models.Day {
	if s.config.Location != nil {
		t = t.In(s.config.Location)
	}
	return models.DayOf(t)
}

// translate maps repository errors onto service errors
func translate(err error) error {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return fmt.Errorf("%w: %v", ErrNotFound, err)
	case errors.Is(err, repository.ErrDuplicate):
		return fmt.Errorf("%w: %v", ErrConflict, err)
	}
	return err
}

func invalid(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}
