package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// DayLayout is the textual form of a Day on the wire and in the database.
const DayLayout = "2006-01-02"

// Day is a calendar date with no time-of-day and no zone.
// The zero value is the zero date and reports IsZero.
type Day struct {
	t time.Time // always midnight UTC
}

// NewDay returns the Day for the given year, month and day of month.
// Out-of-range values are normalized the way time.Date does.
func NewDay(year int, month time.Month, day int) Day {
	return Day{t: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// DayOf returns the calendar date of t in t's own location.
func DayOf(t time.Time) Day {
	y, m, d := t.Date()
	return NewDay(y, m, d)
}

// Today returns the current calendar date in loc.
func Today(loc *time.Location) Day {
	if loc == nil {
		loc = time.UTC
	}
	return DayOf(time.Now().In(loc))
}

// ParseDay parses a YYYY-MM-DD string.
func ParseDay(s string) (Day, error) {
	t, err := time.Parse(DayLayout, s)
	if err != nil {
		return Day{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return Day{t: t}, nil
}

func (d Day) IsZero() bool { return d.t.IsZero() }

// AddDays returns d shifted by n days.
func (d Day) AddDays(n int) Day {
	return Day{t: d.t.AddDate(0, 0, n)}
}

// Sub returns the number of whole days from o to d.
func (d Day) Sub(o Day) int {
	return int(d.t.Sub(o.t).Hours() / 24)
}

func (d Day) Before(o Day) bool { return d.t.Before(o.t) }
func (d Day) After(o Day) bool  { return d.t.After(o.t) }
func (d Day) Equal(o Day) bool  { return d.t.Equal(o.t) }

// Time returns midnight UTC of d.
func (d Day) Time() time.Time { return d.t }

func (d Day) String() string {
	return d.t.Format(DayLayout)
}

func (d Day) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *Day) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("date must be a string: %w", err)
	}
	if s == "" {
		*d = Day{}
		return nil
	}
	parsed, err := ParseDay(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Value stores a Day as a DATE column.
func (d Day) Value() (driver.Value, error) {
	return d.String(), nil
}

// Scan reads a DATE column. lib/pq returns DATE values as time.Time.
func (d *Day) Scan(src interface{}) error {
	switch v := src.(type) {
	case time.Time:
		*d = DayOf(v)
		return nil
	case string:
		parsed, err := ParseDay(v)
		if err != nil {
			return err
		}
		*d = parsed
		return nil
	case []byte:
		parsed, err := ParseDay(string(v))
		if err != nil {
			return err
		}
		*d = parsed
		return nil
	case nil:
		*d = Day{}
		return nil
	}
	return fmt.Errorf("cannot scan %T into Day", src)
}
