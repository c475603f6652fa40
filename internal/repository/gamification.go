package repository

import (
	"context"
	"fmt"

	"github.com/Dan9191/chi-portal/internal/models"
)

// EnsureAchievement creates the achievement if its slug is unknown and fills in its id
func (r *Repository) EnsureAchievement(ctx context.Context, a *models.Achievement) error {
	query := `
		INSERT INTO chi.achievements (slug, name, description, icon, points, category)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (slug) DO UPDATE SET slug = EXCLUDED.slug
		RETURNING id, name, description, icon, points, category`
	err := r.db.QueryRowContext(ctx, query, a.Slug, a.Name, a.Description, a.Icon, a.Points, a.Category).
		Scan(&a.ID, &a.Name, &a.Description, &a.Icon, &a.Points, &a.Category)
	if err != nil {
		return fmt.Errorf("failed to ensure achievement %s: %w", a.Slug, err)
	}
	return nil
}

// AwardAchievement unlocks an achievement, reporting false if it was already unlocked
func (r *Repository) AwardAchievement(ctx context.Context, userID, achievementID int64) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO chi.user_achievements (user_id, achievement_id, unlocked_at)
		VALUES ($1, $2, CURRENT_TIMESTAMP)
		ON CONFLICT (user_id, achievement_id) DO NOTHING`, userID, achievementID)
	if err != nil {
		return false, fmt.Errorf("failed to award achievement: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to award achievement: %w", err)
	}
	return n == 1, nil
}

// ListUserAchievements returns the user's unlocked achievements, most recent first
func (r *Repository) ListUserAchievements(ctx context.Context, userID int64) ([]models.UserAchievement, error) {
	query := `
		SELECT a.id, a.slug, a.name, a.description, a.icon, a.points, a.category, ua.unlocked_at
		FROM chi.user_achievements ua
		JOIN chi.achievements a ON a.id = ua.achievement_id
		WHERE ua.user_id = $1
		ORDER BY ua.unlocked_at DESC`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list achievements: %w", err)
	}
	defer rows.Close()

	achievements := []models.UserAchievement{}
	for rows.Next() {
		var ua models.UserAchievement
		if err := rows.Scan(&ua.ID, &ua.Slug, &ua.Name, &ua.Description, &ua.Icon, &ua.Points,
			&ua.Category, &ua.UnlockedAt); err != nil {
			return nil, fmt.Errorf("failed to scan achievement: %w", err)
		}
		achievements = append(achievements, ua)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list achievements: %w", err)
	}
	return achievements, nil
}

// SumUserPoints returns the total points of the user's achievements
func (r *Repository) SumUserPoints(ctx context.Context, userID int64) (int, error) {
	var points int
	err := r.db.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(a.points), 0)
		FROM chi.user_achievements ua
		JOIN chi.achievements a ON a.id = ua.achievement_id
		WHERE ua.user_id = $1`, userID).Scan(&points)
	if err != nil {
		return 0, fmt.Errorf("failed to sum points: %w", err)
	}
	return points, nil
}

// CreateNotification stores an in-app notification
func (r *Repository) CreateNotification(ctx context.Context, n *models.Notification) error {
	query := `
		INSERT INTO chi.notifications (user_id, title, message, type, read, created_at)
		VALUES ($1, $2, $3, $4, FALSE, CURRENT_TIMESTAMP)
		RETURNING id, created_at`
	err := r.db.QueryRowContext(ctx, query, n.UserID, n.Title, n.Message, n.Type).Scan(&n.ID, &n.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create notification: %w", err)
	}
	return nil
}

// ListNotifications returns the user's latest notifications
func (r *Repository) ListNotifications(ctx context.Context, userID int64, limit int) ([]models.Notification, error) {
	query := `
		SELECT id, user_id, title, message, type, read, created_at
		FROM chi.notifications
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2`
	rows, err := r.db.QueryContext(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	defer rows.Close()

	notifications := []models.Notification{}
	for rows.Next() {
		var n models.Notification
		if err := rows.Scan(&n.ID, &n.UserID, &n.Title, &n.Message, &n.Type, &n.Read, &n.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan notification: %w", err)
		}
		notifications = append(notifications, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	return notifications, nil
}

// MarkNotificationRead flags one of the user's notifications as read
func (r *Repository) MarkNotificationRead(ctx context.Context, userID, id int64) error {
	res, err := r.db.ExecContext(ctx, `UPDATE chi.notifications SET read = TRUE WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("failed to mark notification read: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to mark notification read: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("notification %d: %w", id, ErrNotFound)
	}
	return nil
}

// ListReminderCandidates returns users with an active habit not completed on day
func (r *Repository) ListReminderCandidates(ctx context.Context, day models.Day) ([]models.ReminderCandidate, error) {
	query := `
		SELECT DISTINCT u.id, u.email, u.display_name
		FROM chi.users u
		JOIN chi.habits h ON h.user_id = u.id AND h.active
		WHERE NOT EXISTS (
			SELECT 1 FROM chi.habit_entries e
			WHERE e.habit_id = h.id AND e.date = $1 AND e.completed
		)
		ORDER BY u.id`
	rows, err := r.db.QueryContext(ctx, query, day)
	if err != nil {
		return nil, fmt.Errorf("failed to list reminder candidates: %w", err)
	}
	defer rows.Close()

	var candidates []models.ReminderCandidate
	for rows.Next() {
		var c models.ReminderCandidate
		if err := rows.Scan(&c.UserID, &c.Email, &c.DisplayName); err != nil {
			return nil, fmt.Errorf("failed to scan reminder candidate: %w", err)
		}
		candidates = append(candidates, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list reminder candidates: %w", err)
	}
	return candidates, nil
}
