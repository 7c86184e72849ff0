package reminder

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/steebapp/steebd/internal/model"
	"github.com/steebapp/steebd/internal/storage"
)

type staticTasks []model.Task

func (s staticTasks) Snapshot() []model.Task { return s }

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func setup(t *testing.T, tasks []model.Task, now time.Time) (*Scheduler, storage.KV) {
	t.Helper()
	kv, err := storage.OpenSQLite(t.TempDir() + "/steebd.db")
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { kv.Close() })

	s := NewScheduler(kv, staticTasks(tasks), quietLogger())
	s.WithClock(func() time.Time { return now })
	return s, kv
}

var day = time.Date(2026, 8, 28, 9, 0, 0, 0, time.UTC)

func TestCheckRemindsWhenYesterdayWasIdle(t *testing.T) {
	tasks := []model.Task{{ID: "t1", Title: "pendiente"}}
	s, _ := setup(t, tasks, day)

	if got := s.Check(context.Background()); got != StateShouldRemind {
		t.Fatalf("Check = %v, want should_remind", got)
	}
}

func TestCheckFiresAtMostOncePerDay(t *testing.T) {
	tasks := []model.Task{{ID: "t1", Title: "pendiente"}}
	s, _ := setup(t, tasks, day)

	if got := s.Check(context.Background()); got != StateShouldRemind {
		t.Fatalf("first Check = %v, want should_remind", got)
	}
	s.MarkShown()
	if got := s.Check(context.Background()); got != StateShown {
		t.Fatalf("second Check = %v, want the settled state, not a new prompt", got)
	}
}

func TestMarkerSuppressesAcrossSessions(t *testing.T) {
	tasks := []model.Task{{ID: "t1", Title: "pendiente"}}
	s, kv := setup(t, tasks, day)

	if got := s.Check(context.Background()); got != StateShouldRemind {
		t.Fatalf("Check = %v, want should_remind", got)
	}

	// Second session shares the marker store.
	s2 := NewScheduler(kv, staticTasks(tasks), quietLogger())
	s2.WithClock(func() time.Time { return day.Add(2 * time.Hour) })
	if got := s2.Check(context.Background()); got != StateDismissed {
		t.Errorf("fresh session Check = %v, want dismissed via marker", got)
	}
}

func TestNoReminderWhenYesterdayHadCompletions(t *testing.T) {
	yesterday := day.AddDate(0, 0, -1)
	tasks := []model.Task{
		{ID: "t1", Title: "pendiente"},
		{ID: "t2", Title: "hecha ayer", Completed: true, CompletedAt: &yesterday},
	}
	s, _ := setup(t, tasks, day)

	if got := s.Check(context.Background()); got != StateDismissed {
		t.Errorf("Check = %v, want dismissed when yesterday had activity", got)
	}
}

func TestNoReminderWithoutPendingTasks(t *testing.T) {
	old := day.AddDate(0, 0, -5)
	tasks := []model.Task{
		{ID: "t1", Title: "todo hecho", Completed: true, CompletedAt: &old},
	}
	s, _ := setup(t, tasks, day)

	if got := s.Check(context.Background()); got != StateDismissed {
		t.Errorf("Check = %v, want dismissed with nothing pending", got)
	}
}

func TestLifecycleTransitions(t *testing.T) {
	tasks := []model.Task{{ID: "t1", Title: "pendiente"}}
	s, _ := setup(t, tasks, day)

	if got := s.State(); got != StateNotChecked {
		t.Fatalf("initial State = %v", got)
	}
	s.Check(context.Background())
	s.MarkShown()
	if got := s.State(); got != StateShown {
		t.Errorf("State after MarkShown = %v", got)
	}
	s.Dismiss()
	if got := s.State(); got != StateDismissed {
		t.Errorf("State after Dismiss = %v", got)
	}
}

func TestStateResetsOnNewDay(t *testing.T) {
	tasks := []model.Task{{ID: "t1", Title: "pendiente"}}
	now := day
	kv, err := storage.OpenSQLite(t.TempDir() + "/steebd.db")
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { kv.Close() })

	s := NewScheduler(kv, staticTasks(tasks), quietLogger())
	s.WithClock(func() time.Time { return now })

	s.Check(context.Background())
	s.Dismiss()

	now = day.AddDate(0, 0, 1)
	if got := s.State(); got != StateNotChecked {
		t.Errorf("State on next day = %v, want not_checked", got)
	}
	if got := s.Check(context.Background()); got != StateShouldRemind {
		t.Errorf("next-day Check = %v, want should_remind", got)
	}
}

func TestBuildDailySpec(t *testing.T) {
	spec, err := buildDailySpec("09:30")
	if err != nil {
		t.Fatalf("buildDailySpec: %v", err)
	}
	if spec != "0 30 9 * * *" {
		t.Errorf("spec = %q", spec)
	}
	for _, bad := range []string{"9", "25:00", "12:76", "aa:bb"} {
		if _, err := buildDailySpec(bad); err == nil {
			t.Errorf("buildDailySpec(%q) accepted invalid input", bad)
		}
	}
}

type confirmableTasks struct {
	staticTasks
	completed map[string]string
}

func (c *confirmableTasks) CompleteOn(id, dayStr string) {
	c.completed[id] = dayStr
}

func TestConfirmCreditsYesterdayAndSettles(t *testing.T) {
	yesterday := day.AddDate(0, 0, -1).Format(model.DateLayout)
	source := &confirmableTasks{
		staticTasks: staticTasks{
			{ID: "t1", Title: "correr", ScheduledDate: yesterday},
			{ID: "t2", Title: "leer", ScheduledDate: yesterday},
			{ID: "t3", Title: "hoy", ScheduledDate: day.Format(model.DateLayout)},
		},
		completed: make(map[string]string),
	}
	kv, err := storage.OpenSQLite(t.TempDir() + "/steebd.db")
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { kv.Close() })

	s := NewScheduler(kv, source, quietLogger())
	s.WithClock(func() time.Time { return day })

	if got := s.Check(context.Background()); got != StateShouldRemind {
		t.Fatalf("Check = %v, want should_remind", got)
	}
	s.MarkShown()

	candidates := s.YesterdayPending()
	if len(candidates) != 2 {
		t.Fatalf("YesterdayPending = %d tasks, want 2", len(candidates))
	}

	ids := []string{candidates[0].ID, candidates[1].ID}
	s.Confirm(ids)

	for _, id := range ids {
		if source.completed[id] != yesterday {
			t.Errorf("task %s credited to %q, want %q", id, source.completed[id], yesterday)
		}
	}
	if _, ok := source.completed["t3"]; ok {
		t.Error("today's task should not have been credited")
	}
	if got := s.State(); got != StateDismissed {
		t.Fatalf("State after Confirm = %v, want dismissed", got)
	}
}

func TestConfirmWithoutCompleterDismisses(t *testing.T) {
	tasks := []model.Task{{ID: "t1", Title: "pendiente"}}
	s, _ := setup(t, tasks, day)

	s.Check(context.Background())
	s.MarkShown()
	s.Confirm([]string{"t1"})

	if got := s.State(); got != StateDismissed {
		t.Fatalf("State = %v, want dismissed", got)
	}
}

func TestPromptInfoCarriesYesterday(t *testing.T) {
	tasks := []model.Task{{ID: "t1", Title: "pendiente"}, {ID: "t2", Title: "otra"}}
	s, _ := setup(t, tasks, day)

	p := s.PromptInfo()
	if want := day.AddDate(0, 0, -1).Format(model.DateLayout); p.Date != want {
		t.Errorf("Prompt.Date = %q, want %q", p.Date, want)
	}
	if p.PendingCount != 2 {
		t.Errorf("Prompt.PendingCount = %d, want 2", p.PendingCount)
	}
}
