package models

import "time"

// Onboarding states of a user
const (
	OnboardingNotStarted = "NOT_STARTED"
	OnboardingInProgress = "IN_PROGRESS"
	OnboardingCompleted  = "COMPLETED"
)

// User represents a member of the platform
type User struct {
	ID               int64     `json:"id"`
	Email            string    `json:"email"`
	DisplayName      string    `json:"display_name"`
	PasswordHash     string    `json:"-"` // Not serialized
	OnboardingStatus string    `json:"onboarding_status"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// Profile holds the answers collected during onboarding
type Profile struct {
	UserID           int64     `json:"user_id"`
	CurrentRole      string    `json:"current_role"`
	BiggestChallenge string    `json:"biggest_challenge"`
	MotivationLevel  int       `json:"motivation_level"`
	DevelopmentStage string    `json:"development_stage"`
	FocusAreas       []string  `json:"focus_areas"`
	DailyGoalMinutes int       `json:"daily_goal_minutes"`
	UpdatedAt        time.Time `json:"updated_at"`
}
