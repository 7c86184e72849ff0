// Package reminder decides, at most once per calendar day, whether to nudge
// the user about yesterday's inactivity.
package reminder

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/steebapp/steebd/internal/model"
	"github.com/steebapp/steebd/internal/storage"
)

// State is where today's reminder sits in its lifecycle. It resets to
// NotChecked when the calendar day changes.
type State string

const (
	StateNotChecked   State = "not_checked"
	StateShouldRemind State = "should_remind"
	StateShown        State = "shown"
	StateDismissed    State = "dismissed"
)

// Prompt is what the UI shows when a reminder fires.
type Prompt struct {
	Date         string
	PendingCount int
}

// TaskSource supplies the snapshot the decision reads.
type TaskSource interface {
	Snapshot() []model.Task
}

// Scheduler evaluates the daily reminder rule: remind when pending tasks
// exist and nothing was completed yesterday. A persisted marker keyed by
// calendar day guarantees at most one prompt per day across restarts.
type Scheduler struct {
	kv     storage.KV
	tasks  TaskSource
	log    *logrus.Entry
	now    func() time.Time
	cron   *cron.Cron
	prompt func(Prompt)

	mu        sync.Mutex
	state     State
	stateDate string
}

func NewScheduler(kv storage.KV, tasks TaskSource, logger *logrus.Logger) *Scheduler {
	return &Scheduler{
		kv:    kv,
		tasks: tasks,
		log:   logger.WithField("component", "reminder"),
		now:   time.Now,
		cron:  cron.New(cron.WithSeconds()),
		state: StateNotChecked,
	}
}

// WithClock overrides the time source in tests.
func (s *Scheduler) WithClock(now func() time.Time) *Scheduler {
	s.now = now
	return s
}

// OnPrompt registers the callback invoked when the daily job decides to
// remind. The callback must not block.
func (s *Scheduler) OnPrompt(fn func(Prompt)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.prompt = fn
}

// State reports today's position in the lifecycle.
func (s *Scheduler) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stateDate != s.now().Format(model.DateLayout) {
		return StateNotChecked
	}
	return s.state
}

// Check runs the daily decision. Only the first call on a given day can
// yield StateShouldRemind; later calls return the day's settled state.
func (s *Scheduler) Check(ctx context.Context) State {
	s.mu.Lock()
	defer s.mu.Unlock()

	today := s.now().Format(model.DateLayout)
	if s.stateDate == today && s.state != StateNotChecked {
		return s.state
	}
	s.stateDate = today
	s.state = StateDismissed

	marker, err := s.kv.Get(ctx, storage.KeyLastReminder)
	if err == nil && marker == today {
		return s.state
	}

	tasks := s.tasks.Snapshot()
	if s.shouldRemind(tasks, today) {
		s.state = StateShouldRemind
		// Stamp the marker now so a second check, or another session,
		// cannot fire again today.
		if err := s.kv.Set(ctx, storage.KeyLastReminder, today); err != nil {
			s.log.WithError(err).Warn("could not persist reminder marker")
		}
	}
	return s.state
}

// shouldRemind holds the rule: there is work left and yesterday produced no
// completions.
func (s *Scheduler) shouldRemind(tasks []model.Task, today string) bool {
	yesterday := s.now().AddDate(0, 0, -1).Format(model.DateLayout)
	pending := 0
	for _, t := range tasks {
		if !t.Completed {
			pending++
		}
		if t.CompletedOn(yesterday) {
			return false
		}
	}
	return pending > 0
}

// MarkShown records that the prompt reached the screen.
func (s *Scheduler) MarkShown() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateShouldRemind {
		s.state = StateShown
	}
}

// Dismiss settles today's prompt.
func (s *Scheduler) Dismiss() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = StateDismissed
}

// TaskCompleter backdates completions confirmed from the prompt. The task
// store satisfies it.
type TaskCompleter interface {
	CompleteOn(id, day string)
}

// Confirm credits the given tasks as completed yesterday and settles the
// prompt. It is a no-op when the task source cannot record completions.
func (s *Scheduler) Confirm(ids []string) {
	completer, ok := s.tasks.(TaskCompleter)
	if !ok {
		s.log.Warn("task source cannot backdate completions, confirm ignored")
		s.Dismiss()
		return
	}
	yesterday := s.now().AddDate(0, 0, -1).Format(model.DateLayout)
	for _, id := range ids {
		completer.CompleteOn(id, yesterday)
	}
	s.Dismiss()
}

// YesterdayPending lists the open tasks that were scheduled yesterday, the
// candidates the prompt offers to confirm.
func (s *Scheduler) YesterdayPending() []model.Task {
	yesterday := s.now().AddDate(0, 0, -1).Format(model.DateLayout)
	var out []model.Task
	for _, t := range s.tasks.Snapshot() {
		if !t.Completed && t.ScheduledDate == yesterday {
			out = append(out, t)
		}
	}
	return out
}

// PromptInfo builds the prompt payload: the idle day it refers to and how
// many tasks remain open.
func (s *Scheduler) PromptInfo() Prompt {
	return Prompt{
		Date:         s.now().AddDate(0, 0, -1).Format(model.DateLayout),
		PendingCount: s.PendingCount(),
	}
}

// PendingCount counts open tasks for the prompt body.
func (s *Scheduler) PendingCount() int {
	count := 0
	for _, t := range s.tasks.Snapshot() {
		if !t.Completed {
			count++
		}
	}
	return count
}

// Start registers the daily cron job at the given HH:MM local time.
func (s *Scheduler) Start(reminderTime string) error {
	spec, err := buildDailySpec(reminderTime)
	if err != nil {
		return err
	}
	if _, err := s.cron.AddFunc(spec, s.runJob); err != nil {
		return fmt.Errorf("reminder: schedule daily job: %w", err)
	}
	s.cron.Start()
	s.log.WithField("at", reminderTime).Info("daily reminder scheduled")
	return nil
}

// Stop halts the cron runner and waits for an in-flight job.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
}

func (s *Scheduler) runJob() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if s.Check(ctx) != StateShouldRemind {
		return
	}
	s.mu.Lock()
	fn := s.prompt
	s.mu.Unlock()
	if fn != nil {
		fn(s.PromptInfo())
	}
}

func buildDailySpec(timeStr string) (string, error) {
	parts := strings.Split(timeStr, ":")
	if len(parts) != 2 {
		return "", fmt.Errorf("reminder: invalid time %q, expected HH:MM", timeStr)
	}
	hour, err := strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return "", fmt.Errorf("reminder: invalid hour in %q", timeStr)
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return "", fmt.Errorf("reminder: invalid minute in %q", timeStr)
	}
	return fmt.Sprintf("0 %d %d * * *", minute, hour), nil
}
