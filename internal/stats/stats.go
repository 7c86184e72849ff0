// Package stats derives productivity figures from a task snapshot. Every
// function is pure; nothing here holds state the task list does not.
package stats

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/steebapp/steebd/internal/model"
)

// DayActivity is one bucket of the weekly chart.
type DayActivity struct {
	Date      string // 2006-01-02
	Weekday   time.Weekday
	Scheduled int // tasks scheduled or completed that day
	Completed int
	Percent   int
}

// Summary bundles everything the stats view renders in one pass.
type Summary struct {
	Total          int
	Completed      int
	Pending        int
	CompletionRate int
	CurrentStreak  int
	BestStreak     int
	WeeklyActivity []DayActivity
	MinutesSpent   int
	TodayProgress  int
	ActiveDays     int
}

// estimatedTaskMinutes is the fallback effort estimate for completed tasks
// that carry no recorded time.
const estimatedTaskMinutes = 30

// completedDays collects the distinct calendar days with at least one
// completion.
func completedDays(tasks []model.Task) map[string]bool {
	days := make(map[string]bool)
	for _, t := range tasks {
		if t.Completed && t.CompletedAt != nil {
			days[t.CompletedAt.Format(model.DateLayout)] = true
		}
	}
	return days
}

// CurrentStreak counts consecutive calendar days with at least one completed
// task, walking backward from today and stopping at the first gap.
func CurrentStreak(tasks []model.Task, today time.Time) int {
	days := completedDays(tasks)
	streak := 0
	for day := today; days[day.Format(model.DateLayout)]; day = day.AddDate(0, 0, -1) {
		streak++
	}
	return streak
}

// BestStreak finds the longest run of consecutive completed days anywhere in
// the history.
func BestStreak(tasks []model.Task) int {
	daySet := completedDays(tasks)
	if len(daySet) == 0 {
		return 0
	}
	days := make([]string, 0, len(daySet))
	for d := range daySet {
		days = append(days, d)
	}
	sort.Strings(days)

	best, run := 1, 1
	prev, _ := time.Parse(model.DateLayout, days[0])
	for _, d := range days[1:] {
		cur, err := time.Parse(model.DateLayout, d)
		if err != nil {
			continue
		}
		if cur.Sub(prev) == 24*time.Hour {
			run++
		} else {
			run = 1
		}
		if run > best {
			best = run
		}
		prev = cur
	}
	return best
}

// CompletionRate is the percentage of completed tasks, rounded to the
// nearest integer. An empty list rates 0.
func CompletionRate(tasks []model.Task) int {
	if len(tasks) == 0 {
		return 0
	}
	completed := 0
	for _, t := range tasks {
		if t.Completed {
			completed++
		}
	}
	return int(math.Round(float64(completed) / float64(len(tasks)) * 100))
}

// WeeklyActivity buckets the last 7 calendar days, oldest first. A task
// belongs to a day when it is scheduled there or was completed there; the
// percentage is completions over that day's bucket.
func WeeklyActivity(tasks []model.Task, today time.Time) []DayActivity {
	out := make([]DayActivity, 0, 7)
	for offset := 6; offset >= 0; offset-- {
		day := today.AddDate(0, 0, -offset)
		date := day.Format(model.DateLayout)
		bucket := DayActivity{Date: date, Weekday: day.Weekday()}
		for _, t := range tasks {
			completedHere := t.Completed && t.CompletedAt != nil &&
				t.CompletedAt.Format(model.DateLayout) == date
			if t.ScheduledDate == date || completedHere {
				bucket.Scheduled++
				if completedHere {
					bucket.Completed++
				}
			}
		}
		if bucket.Scheduled > 0 {
			bucket.Percent = int(math.Round(float64(bucket.Completed) / float64(bucket.Scheduled) * 100))
		}
		out = append(out, bucket)
	}
	return out
}

// MinutesSpent sums recorded effort, falling back to a flat estimate for
// completed tasks without one.
func MinutesSpent(tasks []model.Task) int {
	total := 0
	for _, t := range tasks {
		if !t.Completed {
			continue
		}
		if t.ActualMinutes > 0 {
			total += t.ActualMinutes
		} else {
			total += estimatedTaskMinutes
		}
	}
	return total
}

// TodayProgress is the completion percentage of today's bucket: tasks
// scheduled for today or completed today.
func TodayProgress(tasks []model.Task, today time.Time) int {
	date := today.Format(model.DateLayout)
	scheduled, completed := 0, 0
	for _, t := range tasks {
		completedHere := t.CompletedOn(date)
		if t.ScheduledDate == date || completedHere {
			scheduled++
			if completedHere {
				completed++
			}
		}
	}
	if scheduled == 0 {
		return 0
	}
	return int(math.Round(float64(completed) / float64(scheduled) * 100))
}

// ActiveDays counts the distinct calendar days with at least one completion.
func ActiveDays(tasks []model.Task) int {
	return len(completedDays(tasks))
}

// FormatMinutes renders effort as "1h 30m", dropping the zero parts.
func FormatMinutes(minutes int) string {
	if minutes <= 0 {
		return "0m"
	}
	h, m := minutes/60, minutes%60
	switch {
	case h == 0:
		return fmt.Sprintf("%dm", m)
	case m == 0:
		return fmt.Sprintf("%dh", h)
	default:
		return fmt.Sprintf("%dh %dm", h, m)
	}
}

// Summarize computes the full summary in one pass over the snapshot.
func Summarize(tasks []model.Task, today time.Time) Summary {
	completed := 0
	for _, t := range tasks {
		if t.Completed {
			completed++
		}
	}
	return Summary{
		Total:          len(tasks),
		Completed:      completed,
		Pending:        len(tasks) - completed,
		CompletionRate: CompletionRate(tasks),
		CurrentStreak:  CurrentStreak(tasks, today),
		BestStreak:     BestStreak(tasks),
		WeeklyActivity: WeeklyActivity(tasks, today),
		MinutesSpent:   MinutesSpent(tasks),
		TodayProgress:  TodayProgress(tasks, today),
		ActiveDays:     ActiveDays(tasks),
	}
}
