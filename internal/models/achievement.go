package models

import "time"

// Achievement is a badge that can be unlocked by users
type Achievement struct {
	ID          int64  `json:"id"`
	Slug        string `json:"slug"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Icon        string `json:"icon"`
	Points      int    `json:"points"`
	Category    string `json:"category"`
}

// UserAchievement is an achievement unlocked by a user
type UserAchievement struct {
	Achievement
	UnlockedAt time.Time `json:"unlocked_at"`
}

// DashboardStats feeds the gamification widget
type DashboardStats struct {
	Streak         int `json:"streak"`
	Level          int `json:"level"`
	Points         int `json:"points"`
	GoalsCompleted int `json:"goals_completed"`
	ActiveHabits   int `json:"active_habits"`
}
