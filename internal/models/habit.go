package models

import "time"

// Habit frequencies
const (
	FrequencyDaily   = "DAILY"
	FrequencyWeekly  = "WEEKLY"
	FrequencyMonthly = "MONTHLY"
)

// Habit represents a recurring activity a user tracks
type Habit struct {
	ID          int64     `json:"id"`
	UserID      int64     `json:"user_id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Category    string    `json:"category"`
	Frequency   string    `json:"frequency"`
	TargetCount int       `json:"target_count"`
	Color       string    `json:"color"`
	Icon        string    `json:"icon"`
	Active      bool      `json:"active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// HabitEntry is one day's completion record for a habit
type HabitEntry struct {
	ID        int64     `json:"id"`
	HabitID   int64     `json:"habit_id"`
	Date      Day       `json:"date"`
	Completed bool      `json:"completed"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// HabitStats are derived from a habit's entries and never stored
type HabitStats struct {
	CurrentStreak  int `json:"current_streak"`
	BestStreak     int `json:"best_streak"`
	CompletionRate int `json:"completion_rate"` // 0-100
}

// HabitWithStats is a habit together with its recent entries and statistics
type HabitWithStats struct {
	Habit
	HabitStats
	Entries []HabitEntry `json:"entries"`
}

// ToggleResult is returned after a completion toggle
type ToggleResult struct {
	Entry HabitEntry `json:"entry"`
	Stats HabitStats `json:"stats"`
}
