package service

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/Dan9191/chi-portal/internal/models"
	"github.com/Dan9191/chi-portal/internal/report"
	"github.com/Dan9191/chi-portal/internal/streak"
)

const (
	defaultHabitColor = "#3B82F6"
	maxTitleLength    = 100
)

var colorPattern = regexp.MustCompile(`^#[0-9A-Fa-f]{6}$`)

// HabitInput carries the editable fields of a habit
type HabitInput struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Category    string `json:"category"`
	Frequency   string `json:"frequency"`
	TargetCount int    `json:"target_count"`
	Color       string `json:"color"`
	Icon        string `json:"icon"`
}

// normalize applies defaults and validates the input
func (in *HabitInput) normalize() error {
	in.Title = strings.TrimSpace(in.Title)
	in.Category = strings.TrimSpace(in.Category)
	in.Frequency = strings.ToUpper(strings.TrimSpace(in.Frequency))

	if in.Title == "" || len([]rune(in.Title)) > maxTitleLength {
		return invalid("title must be between 1 and %d characters", maxTitleLength)
	}
	if in.Category == "" {
		return invalid("category is required")
	}
	switch in.Frequency {
	case "":
		in.Frequency = models.FrequencyDaily
	case models.FrequencyDaily, models.FrequencyWeekly, models.FrequencyMonthly:
	default:
		return invalid("frequency must be one of DAILY, WEEKLY, MONTHLY")
	}
	if in.TargetCount == 0 {
		in.TargetCount = 1
	}
	if in.TargetCount < 1 {
		return invalid("target_count must be at least 1")
	}
	if in.Color == "" {
		in.Color = defaultHabitColor
	}
	if !colorPattern.MatchString(in.Color) {
		return invalid("color must be a hex value like %s", defaultHabitColor)
	}
	return nil
}

func (in HabitInput) apply(h *models.Habit) {
	h.Title = in.Title
	h.Description = in.Description
	h.Category = in.Category
	h.Frequency = in.Frequency
	h.TargetCount = in.TargetCount
	h.Color = in.Color
	h.Icon = in.Icon
}

// ListHabits returns the user's active habits with their streak statistics
func (s *Service) ListHabits(ctx context.Context, userID int64) ([]models.HabitWithStats, error) {
	habits, err := s.store.ListActiveHabits(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.withStats(ctx, habits)
}

// GetHabit returns one of the user's habits with its statistics
func (s *Service) GetHabit(ctx context.Context, userID, habitID int64) (*models.HabitWithStats, error) {
	habit, err := s.store.GetHabit(ctx, userID, habitID)
	if err != nil {
		return nil, translate(err)
	}
	out, err := s.withStats(ctx, []models.Habit{*habit})
	if err != nil {
		return nil, err
	}
	return &out[0], nil
}

// CreateHabit creates a habit, notifies the user and awards the first-habit achievement
func (s *Service) CreateHabit(ctx context.Context, userID int64, in HabitInput) (*models.Habit, error) {
	if err := in.normalize(); err != nil {
		return nil, err
	}

	habit := &models.Habit{UserID: userID}
	in.apply(habit)
	if err := s.store.CreateHabit(ctx, habit); err != nil {
		return nil, err
	}
	s.log.Infof("Habit %d created for user %d", habit.ID, userID)

	s.notify(ctx, userID, models.NotificationSuccess, "New Habit Created!",
		fmt.Sprintf("You've added %q to your habits. Stay consistent!", habit.Title))

	count, err := s.store.CountActiveHabits(ctx, userID)
	if err != nil {
		s.log.Warnf("Failed to count habits for user %d: %v", userID, err)
	} else if count == 1 {
		s.award(ctx, userID, habitBuilder)
	}

	return habit, nil
}

// UpdateHabit replaces the editable fields of a habit
func (s *Service) UpdateHabit(ctx context.Context, userID, habitID int64, in HabitInput) (*models.Habit, error) {
	if err := in.normalize(); err != nil {
		return nil, err
	}

	habit := &models.Habit{ID: habitID, UserID: userID}
	in.apply(habit)
	if err := s.store.UpdateHabit(ctx, habit); err != nil {
		return nil, translate(err)
	}
	s.log.Infof("Habit %d updated for user %d", habitID, userID)
	return habit, nil
}

// DeleteHabit deactivates a habit; its entries are kept
func (s *Service) DeleteHabit(ctx context.Context, userID, habitID int64) error {
	if err := s.store.DeactivateHabit(ctx, userID, habitID); err != nil {
		return translate(err)
	}
	s.log.Infof("Habit %d deactivated for user %d", habitID, userID)
	return nil
}

// ToggleHabit flips the completion of a habit on date (today when zero) and
// returns the entry with the recomputed statistics
func (s *Service) ToggleHabit(ctx context.Context, userID, habitID int64, date models.Day) (*models.ToggleResult, error) {
	today := s.today()
	if date.IsZero() {
		date = today
	}
	if date.After(today) {
		return nil, invalid("cannot complete a habit in the future")
	}

	habit, err := s.store.GetHabit(ctx, userID, habitID)
	if err != nil {
		return nil, translate(err)
	}

	entry, err := s.store.ToggleEntry(ctx, habit.ID, date)
	if err != nil {
		return nil, err
	}

	entries, err := s.store.ListEntriesSince(ctx, []int64{habit.ID}, streak.WindowStart(today))
	if err != nil {
		return nil, err
	}
	stats := streak.Calculate(entries[habit.ID], s.dayOf(habit.CreatedAt), today)
	s.log.Infof("Habit %d toggled on %s (completed=%t, streak=%d)", habit.ID, date, entry.Completed, stats.CurrentStreak)

	for _, a := range streakAchievements {
		if stats.CurrentStreak >= a.threshold {
			s.award(ctx, userID, a.achievement)
		}
	}

	return &models.ToggleResult{Entry: *entry, Stats: stats}, nil
}

// ExportReport renders the user's habits and statistics as XML
func (s *Service) ExportReport(ctx context.Context, userID int64) ([]byte, error) {
	user, err := s.store.FindUserByID(ctx, userID)
	if err != nil {
		return nil, translate(err)
	}
	habits, err := s.ListHabits(ctx, userID)
	if err != nil {
		return nil, err
	}
	return report.Build(user, habits, s.now())
}

// withStats attaches the trailing-window entries and statistics to each habit
func (s *Service) withStats(ctx context.Context, habits []models.Habit) ([]models.HabitWithStats, error) {
	today := s.today()
	ids := make([]int64, len(habits))
	for i, h := range habits {
		ids[i] = h.ID
	}

	entries, err := s.store.ListEntriesSince(ctx, ids, streak.WindowStart(today))
	if err != nil {
		return nil, err
	}

	out := make([]models.HabitWithStats, len(habits))
	for i, h := range habits {
		recent := streak.Normalize(entries[h.ID])
		out[i] = models.HabitWithStats{
			Habit:      h,
			HabitStats: streak.Calculate(recent, s.dayOf(h.CreatedAt), today),
			Entries:    recent,
		}
	}
	return out, nil
}

func completedOn(entries []models.HabitEntry, day models.Day) bool {
	for _, e := range entries {
		if e.Completed && e.Date.Equal(day) {
			return true
		}
	}
	return false
}
