package models

import "time"

// Notification types
const (
	NotificationInfo    = "INFO"
	NotificationSuccess = "SUCCESS"
	NotificationWarning = "WARNING"
)

// Notification is an in-app message for a user
type Notification struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	Type      string    `json:"type"`
	Read      bool      `json:"read"`
	CreatedAt time.Time `json:"created_at"`
}

// ReminderCandidate is a user with at least one active habit left incomplete today
type ReminderCandidate struct {
	UserID      int64
	Email       string
	DisplayName string
}
