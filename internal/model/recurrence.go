package model

import (
	"errors"
	"fmt"
	"sort"
	"time"
)

type Frequency string

const (
	FrequencyNone    Frequency = "none"
	FrequencyDaily   Frequency = "daily"
	FrequencyWeekly  Frequency = "weekly"
	FrequencyMonthly Frequency = "monthly"
)

var (
	ErrInvalidFrequency = errors.New("model: invalid recurrence frequency")
	ErrInvalidInterval  = errors.New("model: invalid recurrence interval")
)

// Recurrence describes how a scheduled task repeats. A completed recurring
// task spawns its next occurrence on the computed date.
type Recurrence struct {
	Frequency  Frequency      `json:"frequency"`
	Interval   int            `json:"interval,omitempty"`
	DaysOfWeek []time.Weekday `json:"days_of_week,omitempty"`
	EndDate    string         `json:"end_date,omitempty"`
}

func (r Recurrence) Validate() error {
	switch r.Frequency {
	case FrequencyNone, FrequencyDaily, FrequencyWeekly, FrequencyMonthly:
	default:
		return fmt.Errorf("%w: %q", ErrInvalidFrequency, r.Frequency)
	}
	if r.Interval < 0 {
		return fmt.Errorf("%w: %d", ErrInvalidInterval, r.Interval)
	}
	if r.EndDate != "" {
		if _, err := time.Parse(DateLayout, r.EndDate); err != nil {
			return fmt.Errorf("model: bad recurrence end_date %q: %w", r.EndDate, err)
		}
	}
	for _, d := range r.DaysOfWeek {
		if d < time.Sunday || d > time.Saturday {
			return fmt.Errorf("model: bad recurrence weekday %d", d)
		}
	}
	return nil
}

// Repeats reports whether the rule actually repeats.
func (r *Recurrence) Repeats() bool {
	return r != nil && r.Frequency != FrequencyNone && r.Frequency != ""
}

// NextDate computes the next occurrence date after baseDate ("2006-01-02").
// It returns "" when the rule does not repeat or the next date would fall
// past EndDate.
func (r *Recurrence) NextDate(baseDate string) (string, error) {
	if !r.Repeats() {
		return "", nil
	}
	if err := r.Validate(); err != nil {
		return "", err
	}
	base, err := time.Parse(DateLayout, baseDate)
	if err != nil {
		return "", fmt.Errorf("model: bad recurrence base date %q: %w", baseDate, err)
	}
	interval := r.Interval
	if interval < 1 {
		interval = 1
	}

	var next time.Time
	switch r.Frequency {
	case FrequencyDaily:
		next = base.AddDate(0, 0, interval)
	case FrequencyWeekly:
		next = r.nextWeekly(base, interval)
	case FrequencyMonthly:
		next = addMonthsClamped(base, interval)
	}

	out := next.Format(DateLayout)
	if r.EndDate != "" && out > r.EndDate {
		return "", nil
	}
	return out, nil
}

func (r *Recurrence) nextWeekly(base time.Time, interval int) time.Time {
	if len(r.DaysOfWeek) == 0 {
		return base.AddDate(0, 0, 7*interval)
	}
	days := make([]int, 0, len(r.DaysOfWeek))
	for _, d := range r.DaysOfWeek {
		days = append(days, int(d))
	}
	sort.Ints(days)

	// Walk forward day by day; accept a selected weekday either later in the
	// current week or on a week boundary that matches the interval.
	for delta := 1; delta <= 7*interval+7; delta++ {
		candidate := base.AddDate(0, 0, delta)
		if !containsInt(days, int(candidate.Weekday())) {
			continue
		}
		weeks := delta / 7
		if weeks == 0 || weeks%interval == 0 {
			return candidate
		}
	}
	first := days[0]
	offset := (first - int(base.Weekday()) + 7) % 7
	if offset == 0 {
		offset = 7
	}
	return base.AddDate(0, 0, 7*interval+offset)
}

// addMonthsClamped adds months keeping the day of month, clamping to the
// last day when the target month is shorter (Jan 31 + 1mo = Feb 28/29).
func addMonthsClamped(base time.Time, months int) time.Time {
	y, m, d := base.Date()
	first := time.Date(y, m, 1, 0, 0, 0, 0, base.Location()).AddDate(0, months, 0)
	last := first.AddDate(0, 1, -1).Day()
	if d > last {
		d = last
	}
	return time.Date(first.Year(), first.Month(), d, 0, 0, 0, 0, base.Location())
}

func containsInt(items []int, target int) bool {
	for _, item := range items {
		if item == target {
			return true
		}
	}
	return false
}
