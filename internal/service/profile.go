package service

import (
	"context"
	"strings"

	"github.com/Dan9191/chi-portal/internal/models"
)

const maxFocusAreas = 10

// OnboardingInput carries the answers of the onboarding flow
type OnboardingInput struct {
	DisplayName      string   `json:"display_name"`
	CurrentRole      string   `json:"current_role"`
	BiggestChallenge string   `json:"biggest_challenge"`
	MotivationLevel  int      `json:"motivation_level"`
	DevelopmentStage string   `json:"development_stage"`
	FocusAreas       []string `json:"focus_areas"`
	DailyGoalMinutes int      `json:"daily_goal_minutes"`
}

// CompleteOnboarding stores the profile answers and marks onboarding as completed.
// A non-empty display name replaces the one given at signup.
func (s *Service) CompleteOnboarding(ctx context.Context, userID int64, in OnboardingInput) (*models.Profile, error) {
	if in.MotivationLevel < 1 || in.MotivationLevel > 10 {
		return nil, invalid("motivation_level must be between 1 and 10")
	}
	if in.DailyGoalMinutes < 0 {
		return nil, invalid("daily_goal_minutes must not be negative")
	}
	if strings.TrimSpace(in.DevelopmentStage) == "" {
		return nil, invalid("development_stage is required")
	}
	displayName := strings.TrimSpace(in.DisplayName)
	if displayName != "" && len([]rune(displayName)) < 2 {
		return nil, invalid("display_name must be at least 2 characters")
	}

	areas := make([]string, 0, len(in.FocusAreas))
	for _, a := range in.FocusAreas {
		if a = strings.TrimSpace(a); a != "" {
			areas = append(areas, a)
		}
	}
	if len(areas) > maxFocusAreas {
		return nil, invalid("at most %d focus areas are allowed", maxFocusAreas)
	}

	profile := &models.Profile{
		UserID:           userID,
		CurrentRole:      strings.TrimSpace(in.CurrentRole),
		BiggestChallenge: strings.TrimSpace(in.BiggestChallenge),
		MotivationLevel:  in.MotivationLevel,
		DevelopmentStage: strings.TrimSpace(in.DevelopmentStage),
		FocusAreas:       areas,
		DailyGoalMinutes: in.DailyGoalMinutes,
	}
	if err := s.store.CompleteOnboarding(ctx, profile, displayName); err != nil {
		return nil, translate(err)
	}

	s.log.Infof("Onboarding completed for user %d", userID)
	return profile, nil
}

// GetProfile returns the user's onboarding profile
func (s *Service) GetProfile(ctx context.Context, userID int64) (*models.Profile, error) {
	profile, err := s.store.GetProfile(ctx, userID)
	if err != nil {
		return nil, translate(err)
	}
	return profile, nil
}
