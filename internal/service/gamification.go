package service

import (
	"context"
	"fmt"

	"github.com/Dan9191/chi-portal/internal/models"
)

const (
	pointsPerLevel    = 100
	notificationLimit = 50
)

var habitBuilder = models.Achievement{
	Slug:        "habit-builder",
	Name:        "Habit Builder",
	Description: "Created your first habit",
	Icon:        "🎯",
	Points:      25,
	Category:    "HABIT",
}

var streakAchievements = []struct {
	threshold   int
	achievement models.Achievement
}{
	{7, models.Achievement{
		Slug:        "week-warrior",
		Name:        "Week Warrior",
		Description: "Kept a habit going for 7 days in a row",
		Icon:        "🔥",
		Points:      50,
		Category:    "STREAK",
	}},
	{30, models.Achievement{
		Slug:        "monthly-master",
		Name:        "Monthly Master",
		Description: "Kept a habit going for 30 days in a row",
		Icon:        "🏆",
		Points:      100,
		Category:    "STREAK",
	}},
}

// Dashboard returns the gamification summary shown on the dashboard
func (s *Service) Dashboard(ctx context.Context, userID int64) (*models.DashboardStats, error) {
	habits, err := s.ListHabits(ctx, userID)
	if err != nil {
		return nil, err
	}
	points, err := s.store.SumUserPoints(ctx, userID)
	if err != nil {
		return nil, err
	}

	today := s.today()
	stats := &models.DashboardStats{
		Points:       points,
		Level:        1 + points/pointsPerLevel,
		ActiveHabits: len(habits),
	}
	for _, h := range habits {
		if h.CurrentStreak > stats.Streak {
			stats.Streak = h.CurrentStreak
		}
		if completedOn(h.Entries, today) {
			stats.GoalsCompleted++
		}
	}
	return stats, nil
}

// ListAchievements returns the achievements the user has unlocked
func (s *Service) ListAchievements(ctx context.Context, userID int64) ([]models.UserAchievement, error) {
	return s.store.ListUserAchievements(ctx, userID)
}

// ListNotifications returns the user's most recent notifications
func (s *Service) ListNotifications(ctx context.Context, userID int64) ([]models.Notification, error) {
	return s.store.ListNotifications(ctx, userID, notificationLimit)
}

// MarkNotificationRead marks one notification as read
func (s *Service) MarkNotificationRead(ctx context.Context, userID, id int64) error {
	if err := s.store.MarkNotificationRead(ctx, userID, id); err != nil {
		return translate(err)
	}
	return nil
}

// award unlocks an achievement and notifies the user the first time.
// Failures are logged and do not fail the calling operation.
func (s *Service) award(ctx context.Context, userID int64, a models.Achievement) {
	if err := s.store.EnsureAchievement(ctx, &a); err != nil {
		s.log.Warnf("Failed to ensure achievement %s: %v", a.Slug, err)
		return
	}
	awarded, err := s.store.AwardAchievement(ctx, userID, a.ID)
	if err != nil {
		s.log.Warnf("Failed to award achievement %s to user %d: %v", a.Slug, userID, err)
		return
	}
	if !awarded {
		return
	}

	s.log.Infof("Achievement %s unlocked by user %d", a.Slug, userID)
	s.notify(ctx, userID, models.NotificationSuccess, "Achievement Unlocked!",
		fmt.Sprintf("%s %s: %s (+%d points)", a.Icon, a.Name, a.Description, a.Points))
}

// notify stores an in-app notification, logging failures
func (s *Service) notify(ctx context.Context, userID int64, kind, title, message string) {
	n := &models.Notification{UserID: userID, Title: title, Message: message, Type: kind}
	if err := s.store.CreateNotification(ctx, n); err != nil {
		s.log.Warnf("Failed to create notification for user %d: %v", userID, err)
	}
}
