package service

import (
	"context"
	"fmt"

	"github.com/Dan9191/chi-portal/internal/models"
)

// SendStreakReminders emails every user who has a running streak on a habit
// not yet completed today. Per-user failures are logged and skipped.
// It returns the number of reminders sent.
func (s *Service) SendStreakReminders(ctx context.Context) (int, error) {
	today := s.today()
	candidates, err := s.store.ListReminderCandidates(ctx, today)
	if err != nil {
		return 0, err
	}

	sent := 0
	for _, c := range candidates {
		if err := ctx.Err(); err != nil {
			return sent, err
		}

		habits, err := s.ListHabits(ctx, c.UserID)
		if err != nil {
			s.log.Warnf("Failed to load habits for reminder to user %d: %v", c.UserID, err)
			continue
		}

		var atRisk []string
		longest := 0
		for _, h := range habits {
			if h.CurrentStreak == 0 || completedOn(h.Entries, today) {
				continue
			}
			atRisk = append(atRisk, h.Title)
			if h.CurrentStreak > longest {
				longest = h.CurrentStreak
			}
		}
		if len(atRisk) == 0 {
			continue
		}

		if err := s.mailer.SendStreakReminder(c.Email, c.DisplayName, atRisk, longest); err != nil {
			s.log.Warnf("Failed to send streak reminder to user %d: %v", c.UserID, err)
			continue
		}
		s.notify(ctx, c.UserID, models.NotificationWarning, "Streak at risk",
			fmt.Sprintf("Complete today's habits to keep your %d-day streak.", longest))
		sent++
	}

	s.log.Infof("Sent %d streak reminder(s) for %s", sent, today)
	return sent, nil
}
