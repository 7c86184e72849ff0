package stats

import (
	"testing"
	"time"

	"github.com/steebapp/steebd/internal/model"
)

var today = time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)

func completedOn(day time.Time) model.Task {
	at := day
	return model.Task{
		ID:          "t-" + day.Format(model.DateLayout),
		Title:       "hecha",
		Type:        model.TypeProductividad,
		Completed:   true,
		CompletedAt: &at,
	}
}

func TestCurrentStreakStopsAtGap(t *testing.T) {
	tasks := []model.Task{
		completedOn(today),
		completedOn(today.AddDate(0, 0, -1)),
		completedOn(today.AddDate(0, 0, -3)), // gap on day -2
	}
	if got := CurrentStreak(tasks, today); got != 2 {
		t.Errorf("CurrentStreak = %d, want 2", got)
	}
}

func TestCurrentStreakZeroWithoutToday(t *testing.T) {
	tasks := []model.Task{completedOn(today.AddDate(0, 0, -1))}
	if got := CurrentStreak(tasks, today); got != 0 {
		t.Errorf("CurrentStreak = %d, want 0 when today has no completion", got)
	}
}

func TestBestStreakPicksLongestRun(t *testing.T) {
	var tasks []model.Task
	// Older run of three days.
	for i := 10; i <= 12; i++ {
		tasks = append(tasks, completedOn(today.AddDate(0, 0, -i)))
	}
	// Recent run of two days.
	tasks = append(tasks, completedOn(today), completedOn(today.AddDate(0, 0, -1)))

	if got := BestStreak(tasks); got != 3 {
		t.Errorf("BestStreak = %d, want 3", got)
	}
}

func TestBestStreakDeduplicatesDays(t *testing.T) {
	a := completedOn(today)
	b := completedOn(today)
	b.ID = "dup"
	if got := BestStreak([]model.Task{a, b}); got != 1 {
		t.Errorf("BestStreak = %d, want 1 for two completions on one day", got)
	}
}

func TestCompletionRate(t *testing.T) {
	if got := CompletionRate(nil); got != 0 {
		t.Errorf("empty list rate = %d, want 0", got)
	}
	at := today
	tasks := []model.Task{
		{ID: "a", Title: "A", Completed: true, CompletedAt: &at},
		{ID: "b", Title: "B"},
	}
	if got := CompletionRate(tasks); got != 50 {
		t.Errorf("rate = %d, want 50", got)
	}
	tasks = append(tasks, model.Task{ID: "c", Title: "C"})
	if got := CompletionRate(tasks); got != 33 {
		t.Errorf("rate = %d, want 33", got)
	}
}

func TestWeeklyActivityBuckets(t *testing.T) {
	yesterday := today.AddDate(0, 0, -1)
	tasks := []model.Task{
		completedOn(yesterday),
		{ID: "p", Title: "pendiente", ScheduledDate: yesterday.Format(model.DateLayout)},
		{ID: "x", Title: "fuera de rango", ScheduledDate: "2026-08-01"},
	}

	week := WeeklyActivity(tasks, today)
	if len(week) != 7 {
		t.Fatalf("buckets = %d, want 7", len(week))
	}
	if week[0].Date != today.AddDate(0, 0, -6).Format(model.DateLayout) {
		t.Errorf("first bucket = %s, want oldest day", week[0].Date)
	}
	got := week[5] // yesterday
	if got.Scheduled != 2 || got.Completed != 1 || got.Percent != 50 {
		t.Errorf("yesterday bucket = %+v, want 1 of 2 done", got)
	}
	if week[6].Scheduled != 0 || week[6].Percent != 0 {
		t.Errorf("today bucket = %+v, want empty", week[6])
	}
}

func TestMinutesSpent(t *testing.T) {
	at := today
	tasks := []model.Task{
		{ID: "a", Title: "A", Completed: true, CompletedAt: &at, ActualMinutes: 45},
		{ID: "b", Title: "B", Completed: true, CompletedAt: &at},
		{ID: "c", Title: "C", TargetMinutes: 120},
	}
	if got := MinutesSpent(tasks); got != 75 {
		t.Errorf("MinutesSpent = %d, want 45 + 30 estimate", got)
	}
}

func TestSummarizeScenario(t *testing.T) {
	at := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	tasks := []model.Task{
		{ID: "a", Title: "A", Completed: true, CompletedAt: &at},
		{ID: "b", Title: "B"},
	}
	sum := Summarize(tasks, today)
	if sum.CompletionRate != 50 || sum.Pending != 1 || sum.Completed != 1 {
		t.Errorf("Summary = %+v, want 50%% with one of each", sum)
	}
}

func TestEngineMemoizes(t *testing.T) {
	e := NewEngine().WithClock(func() time.Time { return today })
	tasks := []model.Task{completedOn(today)}

	first := e.Summary(tasks)
	second := e.Summary(tasks)
	if first.CurrentStreak != 1 || second.CurrentStreak != 1 {
		t.Errorf("streak = %d/%d, want 1", first.CurrentStreak, second.CurrentStreak)
	}

	// A content change invalidates the cache.
	tasks = append(tasks, model.Task{ID: "new", Title: "nueva"})
	if got := e.Summary(tasks); got.Total != 2 {
		t.Errorf("Total = %d after change, want 2", got.Total)
	}
}

func TestEngineInvalidatesOnNewDay(t *testing.T) {
	now := today
	e := NewEngine().WithClock(func() time.Time { return now })
	tasks := []model.Task{completedOn(today)}

	if got := e.Summary(tasks); got.CurrentStreak != 1 {
		t.Fatalf("streak = %d, want 1", got.CurrentStreak)
	}
	now = today.AddDate(0, 0, 1)
	if got := e.Summary(tasks); got.CurrentStreak != 0 {
		t.Errorf("streak = %d on next day, want 0", got.CurrentStreak)
	}
}

func TestTodayProgress(t *testing.T) {
	date := today.Format(model.DateLayout)
	done := completedOn(today)
	done.ScheduledDate = date
	tasks := []model.Task{
		done,
		{ID: "p1", Title: "pendiente", ScheduledDate: date},
		{ID: "p2", Title: "otro día", ScheduledDate: "2026-09-01"},
	}
	if got := TodayProgress(tasks, today); got != 50 {
		t.Errorf("TodayProgress = %d, want 50", got)
	}
	if got := TodayProgress(nil, today); got != 0 {
		t.Errorf("TodayProgress on empty = %d, want 0", got)
	}
}

func TestActiveDays(t *testing.T) {
	tasks := []model.Task{
		completedOn(today),
		completedOn(today), // same day, counts once
		completedOn(today.AddDate(0, 0, -5)),
	}
	if got := ActiveDays(tasks); got != 2 {
		t.Errorf("ActiveDays = %d, want 2", got)
	}
}

func TestFormatMinutes(t *testing.T) {
	cases := []struct {
		minutes int
		want    string
	}{
		{0, "0m"},
		{45, "45m"},
		{60, "1h"},
		{90, "1h 30m"},
		{135, "2h 15m"},
	}
	for _, tc := range cases {
		if got := FormatMinutes(tc.minutes); got != tc.want {
			t.Errorf("FormatMinutes(%d) = %q, want %q", tc.minutes, got, tc.want)
		}
	}
}
