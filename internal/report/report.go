// Package report renders a user's habits and their statistics as XML.
package report

import (
	"fmt"
	"strconv"
	"time"

	"github.com/beevik/etree"

	"github.com/Dan9191/chi-portal/internal/models"
)

// Report is the parsed form of an exported document
type Report struct {
	User        string
	GeneratedAt time.Time
	Habits      []Habit
}

// Habit is one exported habit
type Habit struct {
	ID        int64
	Title     string
	Category  string
	Frequency string
	Stats     models.HabitStats
	Entries   []Entry
}

// Entry is one exported day
type Entry struct {
	Date      models.Day
	Completed bool
}

// Build renders the habits of user as an indented XML document
func Build(user *models.User, habits []models.HabitWithStats, generatedAt time.Time) ([]byte, error) {
	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)

	root := doc.CreateElement("habitReport")
	root.CreateAttr("user", user.Email)
	root.CreateAttr("generatedAt", generatedAt.UTC().Format(time.RFC3339))

	for _, h := range habits {
		el := root.CreateElement("habit")
		el.CreateAttr("id", strconv.FormatInt(h.ID, 10))
		el.CreateElement("title").SetText(h.Title)
		el.CreateElement("category").SetText(h.Category)
		el.CreateElement("frequency").SetText(h.Frequency)

		stats := el.CreateElement("stats")
		stats.CreateAttr("currentStreak", strconv.Itoa(h.CurrentStreak))
		stats.CreateAttr("bestStreak", strconv.Itoa(h.BestStreak))
		stats.CreateAttr("completionRate", strconv.Itoa(h.CompletionRate))

		entries := el.CreateElement("entries")
		for _, e := range h.Entries {
			entry := entries.CreateElement("entry")
			entry.CreateAttr("date", e.Date.String())
			entry.CreateAttr("completed", strconv.FormatBool(e.Completed))
		}
	}

	doc.Indent(2)
	out, err := doc.WriteToBytes()
	if err != nil {
		return nil, fmt.Errorf("failed to render report: %w", err)
	}
	return out, nil
}

// Parse reads a document produced by Build
func Parse(data []byte) (*Report, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(data); err != nil {
		return nil, fmt.Errorf("failed to parse XML: %w", err)
	}

	root := doc.SelectElement("habitReport")
	if root == nil {
		return nil, fmt.Errorf("habitReport element not found")
	}

	r := &Report{User: root.SelectAttrValue("user", "")}
	if ts := root.SelectAttrValue("generatedAt", ""); ts != "" {
		t, err := time.Parse(time.RFC3339, ts)
		if err != nil {
			return nil, fmt.Errorf("invalid generatedAt: %w", err)
		}
		r.GeneratedAt = t
	}

	for _, el := range root.SelectElements("habit") {
		id, err := strconv.ParseInt(el.SelectAttrValue("id", ""), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid habit id: %w", err)
		}
		h := Habit{
			ID:        id,
			Title:     childText(el, "title"),
			Category:  childText(el, "category"),
			Frequency: childText(el, "frequency"),
		}

		if stats := el.SelectElement("stats"); stats != nil {
			if h.Stats.CurrentStreak, err = intAttr(stats, "currentStreak"); err != nil {
				return nil, err
			}
			if h.Stats.BestStreak, err = intAttr(stats, "bestStreak"); err != nil {
				return nil, err
			}
			if h.Stats.CompletionRate, err = intAttr(stats, "completionRate"); err != nil {
				return nil, err
			}
		}

		for _, entry := range el.FindElements("./entries/entry") {
			day, err := models.ParseDay(entry.SelectAttrValue("date", ""))
			if err != nil {
				return nil, err
			}
			completed, err := strconv.ParseBool(entry.SelectAttrValue("completed", "false"))
			if err != nil {
				return nil, fmt.Errorf("invalid completed flag: %w", err)
			}
			h.Entries = append(h.Entries, Entry{Date: day, Completed: completed})
		}

		r.Habits = append(r.Habits, h)
	}

	return r, nil
}

func childText(el *etree.Element, tag string) string {
	if child := el.SelectElement(tag); child != nil {
		return child.Text()
	}
	return ""
}

func intAttr(el *etree.Element, name string) (int, error) {
	v, err := strconv.Atoi(el.SelectAttrValue(name, "0"))
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", name, err)
	}
	return v, nil
}
