package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/Dan9191/chi-portal/internal/models"
)

const userColumns = `id, email, display_name, password_hash, onboarding_status, created_at, updated_at`

func scanUser(row interface{ Scan(...interface{}) error }) (*models.User, error) {
	user := &models.User{}
	err := row.Scan(&user.ID, &user.Email, &user.DisplayName, &user.PasswordHash,
		&user.OnboardingStatus, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return user, nil
}

// CreateUserWithProfile creates a user and an empty profile in one transaction
func (r *Repository) CreateUserWithProfile(ctx context.Context, user *models.User) error {
	return r.withTx(ctx, func(tx *sql.Tx) error {
		query := `
			INSERT INTO chi.users (email, display_name, password_hash, onboarding_status, created_at, updated_at)
			VALUES ($1, $2, $3, $4, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
			RETURNING id, created_at, updated_at`
		err := tx.QueryRowContext(ctx, query, user.Email, user.DisplayName, user.PasswordHash, user.OnboardingStatus).
			Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)
		if isUniqueViolation(err) {
			return fmt.Errorf("user %s: %w", user.Email, ErrDuplicate)
		}
		if err != nil {
			return fmt.Errorf("failed to create user: %w", err)
		}

		if _, err := tx.ExecContext(ctx, `INSERT INTO chi.profiles (user_id) VALUES ($1)`, user.ID); err != nil {
			return fmt.Errorf("failed to create profile: %w", err)
		}
		return nil
	})
}

// FindUserByEmail retrieves a user by email
func (r *Repository) FindUserByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM chi.users WHERE email = $1`
	user, err := scanUser(r.db.QueryRowContext(ctx, query, email))
	if err != nil {
		return nil, notFound(err, "user")
	}
	return user, nil
}

// FindUserByID retrieves a user by id
func (r *Repository) FindUserByID(ctx context.Context, id int64) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM chi.users WHERE id = $1`
	user, err := scanUser(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, notFound(err, "user")
	}
	return user, nil
}

// CompleteOnboarding stores the profile answers and marks onboarding completed.
// An empty displayName keeps the current one.
func (r *Repository) CompleteOnboarding(ctx context.Context, profile *models.Profile, displayName string) error {
	return r.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
			UPDATE chi.users
			SET onboarding_status = $2,
				display_name = COALESCE(NULLIF($3::text, ''), display_name),
				updated_at = CURRENT_TIMESTAMP
			WHERE id = $1`, profile.UserID, models.OnboardingCompleted, displayName)
		if err != nil {
			return fmt.Errorf("failed to update onboarding status: %w", err)
		}
		if n, err := res.RowsAffected(); err == nil && n == 0 {
			return fmt.Errorf("user %d: %w", profile.UserID, ErrNotFound)
		}

		query := `
			INSERT INTO chi.profiles (user_id, role_title, biggest_challenge, motivation_level,
				development_stage, focus_areas, daily_goal_minutes, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, CURRENT_TIMESTAMP)
			ON CONFLICT (user_id) DO UPDATE SET
				role_title = EXCLUDED.role_title,
				biggest_challenge = EXCLUDED.biggest_challenge,
				motivation_level = EXCLUDED.motivation_level,
				development_stage = EXCLUDED.development_stage,
				focus_areas = EXCLUDED.focus_areas,
				daily_goal_minutes = EXCLUDED.daily_goal_minutes,
				updated_at = CURRENT_TIMESTAMP
			RETURNING updated_at`
		err = tx.QueryRowContext(ctx, query, profile.UserID, profile.CurrentRole, profile.BiggestChallenge,
			profile.MotivationLevel, profile.DevelopmentStage, pq.Array(profile.FocusAreas), profile.DailyGoalMinutes).
			Scan(&profile.UpdatedAt)
		if err != nil {
			return fmt.Errorf("failed to upsert profile: %w", err)
		}
		return nil
	})
}

// ConsumeMagicLink records a magic link nonce as redeemed. It reports false
// when the nonce was redeemed before.
func (r *Repository) ConsumeMagicLink(ctx context.Context, nonce string, expiresAt time.Time) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO chi.magic_links (nonce, expires_at, used_at)
		VALUES ($1, $2, CURRENT_TIMESTAMP)
		ON CONFLICT (nonce) DO NOTHING`, nonce, expiresAt)
	if err != nil {
		return false, fmt.Errorf("failed to consume magic link: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to consume magic link: %w", err)
	}
	return n == 1, nil
}

// PurgeMagicLinks deletes redeemed links that expired before now
func (r *Repository) PurgeMagicLinks(ctx context.Context, now time.Time) (int, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM chi.magic_links WHERE expires_at < $1`, now)
	if err != nil {
		return 0, fmt.Errorf("failed to purge magic links: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to purge magic links: %w", err)
	}
	return int(n), nil
}

// GetProfile retrieves the onboarding profile of a user
func (r *Repository) GetProfile(ctx context.Context, userID int64) (*models.Profile, error) {
	profile := &models.Profile{}
	query := `
		SELECT user_id, role_title, biggest_challenge, motivation_level, development_stage,
			focus_areas, daily_goal_minutes, updated_at
		FROM chi.profiles
		WHERE user_id = $1`
	err := r.db.QueryRowContext(ctx, query, userID).Scan(&profile.UserID, &profile.CurrentRole,
		&profile.BiggestChallenge, &profile.MotivationLevel, &profile.DevelopmentStage,
		pq.Array(&profile.FocusAreas), &profile.DailyGoalMinutes, &profile.UpdatedAt)
	if err != nil {
		return nil, notFound(err, "profile")
	}
	return profile, nil
}
