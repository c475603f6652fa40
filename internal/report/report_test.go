package report

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Dan9191/chi-portal/internal/models"
)

func TestBuildAndParse(t *testing.T) {
	generated := time.Date(2024, time.March, 15, 20, 0, 0, 0, time.UTC)
	user := &models.User{Email: "ann@example.com"}
	habits := []models.HabitWithStats{
		{
			Habit:      models.Habit{ID: 3, Title: "Read & reflect", Category: "Mind", Frequency: models.FrequencyDaily},
			HabitStats: models.HabitStats{CurrentStreak: 2, BestStreak: 4, CompletionRate: 57},
			Entries: []models.HabitEntry{
				{Date: models.NewDay(2024, time.March, 15), Completed: true},
				{Date: models.NewDay(2024, time.March, 14), Completed: false},
			},
		},
		{Habit: models.Habit{ID: 4, Title: "Walk", Category: "Body", Frequency: models.FrequencyWeekly}},
	}

	data, err := Build(user, habits, generated)
	require.NoError(t, err)
	assert.Contains(t, string(data), `<habitReport user="ann@example.com"`)
	assert.Contains(t, string(data), "Read &amp; reflect")

	r, err := Parse(data)
	require.NoError(t, err)
	assert.Equal(t, "ann@example.com", r.User)
	assert.True(t, generated.Equal(r.GeneratedAt))
	require.Len(t, r.Habits, 2)

	first := r.Habits[0]
	assert.Equal(t, int64(3), first.ID)
	assert.Equal(t, "Read & reflect", first.Title)
	assert.Equal(t, models.HabitStats{CurrentStreak: 2, BestStreak: 4, CompletionRate: 57}, first.Stats)
	require.Len(t, first.Entries, 2)
	assert.Equal(t, "2024-03-15", first.Entries[0].Date.String())
	assert.True(t, first.Entries[0].Completed)
	assert.False(t, first.Entries[1].Completed)

	assert.Empty(t, r.Habits[1].Entries)
	assert.Equal(t, models.FrequencyWeekly, r.Habits[1].Frequency)
}

func TestParse_Invalid(t *testing.T) {
	_, err := Parse([]byte("<notAReport/>"))
	assert.Error(t, err)

	_, err = Parse([]byte("<habitReport><habit id=\"x\"/></habitReport>"))
	assert.Error(t, err)

	_, err = Parse([]byte("not xml <"))
	assert.Error(t, err)
}
