package repository

import (
	"context"
	"fmt"

	"github.com/lib/pq"

	"github.com/Dan9191/chi-portal/internal/models"
)

const habitColumns = `id, user_id, title, description, category, frequency, target_count, color, icon, active, created_at, updated_at`

func scanHabit(row interface{ Scan(...interface{}) error }) (*models.Habit, error) {
	h := &models.Habit{}
	err := row.Scan(&h.ID, &h.UserID, &h.Title, &h.Description, &h.Category, &h.Frequency,
		&h.TargetCount, &h.Color, &h.Icon, &h.Active, &h.CreatedAt, &h.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return h, nil
}

// CreateHabit creates a new active habit
func (r *Repository) CreateHabit(ctx context.Context, habit *models.Habit) error {
	query := `
		INSERT INTO chi.habits (user_id, title, description, category, frequency, target_count, color, icon,
			active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, TRUE, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
		RETURNING id, active, created_at, updated_at`
	err := r.db.QueryRowContext(ctx, query, habit.UserID, habit.Title, habit.Description, habit.Category,
		habit.Frequency, habit.TargetCount, habit.Color, habit.Icon).
		Scan(&habit.ID, &habit.Active, &habit.CreatedAt, &habit.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create habit: %w", err)
	}
	return nil
}

// GetHabit retrieves an active habit owned by the user
func (r *Repository) GetHabit(ctx context.Context, userID, habitID int64) (*models.Habit, error) {
	query := `SELECT ` + habitColumns + ` FROM chi.habits WHERE id = $1 AND user_id = $2 AND active`
	habit, err := scanHabit(r.db.QueryRowContext(ctx, query, habitID, userID))
	if err != nil {
		return nil, notFound(err, "habit")
	}
	return habit, nil
}

// ListActiveHabits returns the user's active habits, newest first
func (r *Repository) ListActiveHabits(ctx context.Context, userID int64) ([]models.Habit, error) {
	query := `SELECT ` + habitColumns + ` FROM chi.habits WHERE user_id = $1 AND active ORDER BY created_at DESC, id DESC`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list habits: %w", err)
	}
	defer rows.Close()

	habits := []models.Habit{}
	for rows.Next() {
		h, err := scanHabit(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan habit: %w", err)
		}
		habits = append(habits, *h)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list habits: %w", err)
	}
	return habits, nil
}

// UpdateHabit overwrites the editable fields of an active habit
func (r *Repository) UpdateHabit(ctx context.Context, habit *models.Habit) error {
	query := `
		UPDATE chi.habits
		SET title = $3, description = $4, category = $5, frequency = $6, target_count = $7,
			color = $8, icon = $9, updated_at = CURRENT_TIMESTAMP
		WHERE id = $1 AND user_id = $2 AND active
		RETURNING created_at, updated_at`
	err := r.db.QueryRowContext(ctx, query, habit.ID, habit.UserID, habit.Title, habit.Description,
		habit.Category, habit.Frequency, habit.TargetCount, habit.Color, habit.Icon).
		Scan(&habit.CreatedAt, &habit.UpdatedAt)
	if err != nil {
		return notFound(err, "habit")
	}
	habit.Active = true
	return nil
}

// DeactivateHabit hides a habit while keeping its history
func (r *Repository) DeactivateHabit(ctx context.Context, userID, habitID int64) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE chi.habits SET active = FALSE, updated_at = CURRENT_TIMESTAMP
		WHERE id = $1 AND user_id = $2 AND active`, habitID, userID)
	if err != nil {
		return fmt.Errorf("failed to deactivate habit: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to deactivate habit: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("habit %d: %w", habitID, ErrNotFound)
	}
	return nil
}

// CountActiveHabits returns how many active habits the user has
func (r *Repository) CountActiveHabits(ctx context.Context, userID int64) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM chi.habits WHERE user_id = $1 AND active`, userID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count habits: %w", err)
	}
	return count, nil
}

// ListEntriesSince returns entries dated on or after since, grouped by habit,
// newest first
func (r *Repository) ListEntriesSince(ctx context.Context, habitIDs []int64, since models.Day) (map[int64][]models.HabitEntry, error) {
	entries := make(map[int64][]models.HabitEntry, len(habitIDs))
	if len(habitIDs) == 0 {
		return entries, nil
	}

	query := `
		SELECT id, habit_id, date, completed, created_at, updated_at
		FROM chi.habit_entries
		WHERE habit_id = ANY($1) AND date >= $2
		ORDER BY habit_id, date DESC`
	rows, err := r.db.QueryContext(ctx, query, pq.Array(habitIDs), since)
	if err != nil {
		return nil, fmt.Errorf("failed to list entries: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var e models.HabitEntry
		if err := rows.Scan(&e.ID, &e.HabitID, &e.Date, &e.Completed, &e.CreatedAt, &e.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan entry: %w", err)
		}
		entries[e.HabitID] = append(entries[e.HabitID], e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list entries: %w", err)
	}
	return entries, nil
}

// ToggleEntry marks the day completed, or flips the existing entry
func (r *Repository) ToggleEntry(ctx context.Context, habitID int64, date models.Day) (*models.HabitEntry, error) {
	query := `
		INSERT INTO chi.habit_entries (habit_id, date, completed, created_at, updated_at)
		VALUES ($1, $2, TRUE, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
		ON CONFLICT (habit_id, date) DO UPDATE SET
			completed = NOT chi.habit_entries.completed,
			updated_at = CURRENT_TIMESTAMP
		RETURNING id, habit_id, date, completed, created_at, updated_at`
	e := &models.HabitEntry{}
	err := r.db.QueryRowContext(ctx, query, habitID, date).
		Scan(&e.ID, &e.HabitID, &e.Date, &e.Completed, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to toggle entry: %w", err)
	}
	return e, nil
}
