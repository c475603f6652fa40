// Package streak derives streak and completion statistics from a habit's
// daily entries. Everything here is pure: no I/O and no shared state.
package streak

import (
	"math"
	"sort"

	"github.com/Dan9191/chi-portal/internal/models"
)

// WindowDays is the trailing window used both for fetching entries and for
// computing statistics. The two must agree.
const WindowDays = 30

// WindowStart returns the oldest day included in the entry fetch window.
func WindowStart(today models.Day) models.Day {
	return today.AddDays(-WindowDays)
}

// Calculate returns the statistics of a habit created on createdAt, evaluated
// on today. Callers resolve today in the user's time zone; a zero today has no
// meaningful date and yields zero statistics. Entries are not modified.
func Calculate(entries []models.HabitEntry, createdAt, today models.Day) models.HabitStats {
	if today.IsZero() {
		return models.HabitStats{}
	}
	sorted := Normalize(entries)
	return models.HabitStats{
		CurrentStreak:  CurrentStreak(sorted, today),
		BestStreak:     BestStreak(sorted),
		CompletionRate: CompletionRate(sorted, createdAt, today),
	}
}

// Normalize returns a copy of entries with one entry per date, the last one
// written winning, ordered newest first.
func Normalize(entries []models.HabitEntry) []models.HabitEntry {
	out := make([]models.HabitEntry, 0, len(entries))
	index := make(map[string]int, len(entries))
	for _, e := range entries {
		key := e.Date.String()
		if i, ok := index[key]; ok {
			out[i] = e
			continue
		}
		index[key] = len(out)
		out = append(out, e)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Date.After(out[j].Date)
	})
	return out
}

// CurrentStreak counts consecutive completed days walking back from today.
// An incomplete today does not break the streak; the walk then starts at
// yesterday.
func CurrentStreak(entries []models.HabitEntry, today models.Day) int {
	completed := make(map[string]bool, len(entries))
	for _, e := range entries {
		if e.Completed {
			completed[e.Date.String()] = true
		}
	}

	current := 0
	check := today
	for i := 0; i < WindowDays; i++ {
		switch {
		case completed[check.String()]:
			current++
			check = check.AddDays(-1)
		case i == 0:
			check = check.AddDays(-1)
		default:
			return current
		}
	}
	return current
}

// BestStreak returns the longest run of completed entries in list order.
// Entries must be sorted newest first. Missing days between entries do not
// break a run.
func BestStreak(entries []models.HabitEntry) int {
	best, run := 0, 0
	for _, e := range entries {
		if !e.Completed {
			run = 0
			continue
		}
		run++
		if run > best {
			best = run
		}
	}
	return best
}

// CompletionRate returns the rounded percentage of days in the window on
// which the habit was completed. The window never reaches back past the
// habit's creation day.
func CompletionRate(entries []models.HabitEntry, createdAt, today models.Day) int {
	totalDays := today.Sub(createdAt)
	if totalDays > WindowDays {
		totalDays = WindowDays
	}
	if totalDays <= 0 {
		return 0
	}

	start := WindowStart(today)
	completedDays := 0
	for _, e := range entries {
		if !e.Completed || e.Date.Before(start) || e.Date.After(today) {
			continue
		}
		completedDays++
	}

	rate := int(math.Round(float64(completedDays) / float64(totalDays) * 100))
	if rate > 100 {
		rate = 100
	}
	return rate
}
