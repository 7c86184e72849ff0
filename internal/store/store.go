package store

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/steebapp/steebd/internal/model"
	"github.com/steebapp/steebd/internal/storage"
)

// RemoteQueue receives local writes destined for the remote store. A store
// without a remote runs on the no-op implementation.
type RemoteQueue interface {
	EnqueueUpsert(task model.Task)
	EnqueueDelete(ownerID, id string)
	Has(id string) bool
}

type noopQueue struct{}

func (noopQueue) EnqueueUpsert(model.Task)   {}
func (noopQueue) EnqueueDelete(string, string) {}
func (noopQueue) Has(string) bool            { return false }

// TaskStore holds the working set of tasks in memory and applies every
// mutation there first. Persistence and remote pushes follow the mutation
// and never block it.
type TaskStore struct {
	mu       sync.RWMutex
	tasks    map[string]model.Task
	order    []string
	ownerID  string
	synced   map[string]bool
	snapshot *storage.Snapshot
	queue    RemoteQueue
	log      *logrus.Entry
	now      func() time.Time
	newID    func() string
	onChange func()
}

// NewTaskStore seeds the store from the persisted snapshot. queue may be nil.
func NewTaskStore(snapshot *storage.Snapshot, queue RemoteQueue, logger *logrus.Logger) *TaskStore {
	if queue == nil {
		queue = noopQueue{}
	}
	s := &TaskStore{
		tasks:    make(map[string]model.Task),
		synced:   make(map[string]bool),
		snapshot: snapshot,
		queue:    queue,
		log:      logger.WithField("component", "store"),
		now:      time.Now,
		newID:    uuid.NewString,
	}
	for _, t := range snapshot.Load(context.Background()) {
		s.tasks[t.ID] = t
		s.order = append(s.order, t.ID)
	}
	for _, id := range snapshot.LoadSyncedIDs(context.Background()) {
		s.synced[id] = true
	}
	return s
}

// WithClock overrides the time source in tests.
func (s *TaskStore) WithClock(now func() time.Time) *TaskStore {
	s.now = now
	return s
}

// WithIDGenerator overrides id assignment in tests.
func (s *TaskStore) WithIDGenerator(gen func() string) *TaskStore {
	s.newID = gen
	return s
}

// SetOwner stamps subsequent writes with the authenticated user's id.
func (s *TaskStore) SetOwner(ownerID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ownerID = ownerID
}

// OnChange registers a callback fired after every mutation, outside the lock.
func (s *TaskStore) OnChange(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onChange = fn
}

// Add creates a task from the given template. ID, owner and timestamps are
// assigned here; the caller's values for those fields are ignored.
func (s *TaskStore) Add(template model.Task) (model.Task, error) {
	s.mu.Lock()
	now := s.now()
	task := template
	task.ID = s.newID()
	task.OwnerID = s.ownerID
	task.CreatedAt = now
	task.UpdatedAt = now
	task.Completed = false
	task.CompletedAt = nil
	if task.Type == "" {
		task.Type = model.TypeProductividad
	}
	if err := task.Validate(); err != nil {
		s.mu.Unlock()
		return model.Task{}, err
	}
	s.tasks[task.ID] = task
	s.order = append(s.order, task.ID)
	s.mu.Unlock()

	s.committed(task, false)
	return task, nil
}

// Update replaces the mutable fields of an existing task. Unknown ids are
// logged and ignored.
func (s *TaskStore) Update(id string, mutate func(*model.Task)) {
	s.mu.Lock()
	task, ok := s.tasks[id]
	if !ok {
		s.mu.Unlock()
		s.log.WithField("task_id", id).Warn("update for unknown task ignored")
		return
	}
	mutate(&task)
	task.ID = id
	task.UpdatedAt = s.now()
	s.tasks[id] = task
	s.mu.Unlock()

	s.committed(task, false)
}

// Toggle flips completion. Completing stamps CompletedAt and, for recurring
// tasks, schedules the next occurrence. Uncompleting clears the stamp.
// A task with pending subtasks cannot be completed directly; completion is
// driven through ToggleSubtask.
func (s *TaskStore) Toggle(id string) {
	s.mu.Lock()
	task, ok := s.tasks[id]
	if !ok {
		s.mu.Unlock()
		s.log.WithField("task_id", id).Warn("toggle for unknown task ignored")
		return
	}
	if !task.Completed && len(task.Subtasks) > 0 && !task.AllSubtasksDone() {
		s.mu.Unlock()
		s.log.WithField("task_id", id).Warn("toggle refused, subtasks still pending")
		return
	}
	now := s.now()
	var spawned *model.Task
	if task.Completed {
		task.Completed = false
		task.CompletedAt = nil
	} else {
		task.Completed = true
		task.CompletedAt = &now
		spawned = s.nextOccurrenceLocked(task, now)
	}
	task.UpdatedAt = now
	s.tasks[id] = task
	if spawned != nil {
		s.tasks[spawned.ID] = *spawned
		s.order = append(s.order, spawned.ID)
	}
	s.mu.Unlock()

	s.committed(task, false)
	if spawned != nil {
		s.committed(*spawned, false)
	}
}

// CompleteOn marks a task done as of a past calendar day. The reminder flow
// uses it to credit work finished on a previous day but never ticked off;
// subtasks are completed along with the parent.
func (s *TaskStore) CompleteOn(id, day string) {
	when, err := time.ParseInLocation(model.DateLayout, day, s.now().Location())
	if err != nil {
		s.log.WithField("day", day).Warn("complete-on with unparseable day ignored")
		return
	}
	// Noon keeps the stamp inside the intended day regardless of DST shifts.
	stamp := when.Add(12 * time.Hour)
	s.Update(id, func(t *model.Task) {
		t.Completed = true
		t.CompletedAt = &stamp
		for i := range t.Subtasks {
			t.Subtasks[i].Completed = true
		}
	})
}

// nextOccurrenceLocked builds the follow-up task for a completed recurring
// task, or nil when the rule is exhausted. Caller holds the lock.
func (s *TaskStore) nextOccurrenceLocked(task model.Task, now time.Time) *model.Task {
	if !task.Recurrence.Repeats() {
		return nil
	}
	base := task.ScheduledDate
	if base == "" {
		base = now.Format(model.DateLayout)
	}
	next, err := task.Recurrence.NextDate(base)
	if err != nil {
		s.log.WithError(err).WithField("task_id", task.ID).Warn("recurrence rule unusable")
		return nil
	}
	if next == "" {
		return nil
	}
	clone := task.Clone()
	clone.ID = s.newID()
	clone.Completed = false
	clone.CompletedAt = nil
	clone.ScheduledDate = next
	clone.CreatedAt = now
	clone.UpdatedAt = now
	for i := range clone.Subtasks {
		clone.Subtasks[i].Completed = false
	}
	return &clone
}

// Delete removes a task. Unknown ids are logged and ignored.
func (s *TaskStore) Delete(id string) {
	s.mu.Lock()
	task, ok := s.tasks[id]
	if !ok {
		s.mu.Unlock()
		s.log.WithField("task_id", id).Warn("delete for unknown task ignored")
		return
	}
	delete(s.tasks, id)
	delete(s.synced, id)
	s.removeFromOrderLocked(id)
	s.mu.Unlock()

	s.committed(task, true)
}

// AddSubtask appends a subtask. Adding one to a completed parent reopens it,
// since the parent no longer has all subtasks done.
func (s *TaskStore) AddSubtask(taskID, title string) {
	s.Update(taskID, func(t *model.Task) {
		t.Subtasks = append(t.Subtasks, model.Subtask{
			ID:    s.newID(),
			Title: title,
		})
		if t.Completed {
			t.Completed = false
			t.CompletedAt = nil
		}
	})
}

// ToggleSubtask flips one subtask and derives the parent's completion from
// the set: all done completes the parent, any pending reopens it.
func (s *TaskStore) ToggleSubtask(taskID, subtaskID string) {
	s.mu.Lock()
	task, ok := s.tasks[taskID]
	if !ok {
		s.mu.Unlock()
		s.log.WithField("task_id", taskID).Warn("subtask toggle for unknown task ignored")
		return
	}
	found := false
	for i := range task.Subtasks {
		if task.Subtasks[i].ID == subtaskID {
			task.Subtasks[i].Completed = !task.Subtasks[i].Completed
			found = true
			break
		}
	}
	if !found {
		s.mu.Unlock()
		s.log.WithFields(logrus.Fields{"task_id": taskID, "subtask_id": subtaskID}).
			Warn("toggle for unknown subtask ignored")
		return
	}
	now := s.now()
	var spawned *model.Task
	if task.AllSubtasksDone() {
		if !task.Completed {
			task.Completed = true
			task.CompletedAt = &now
			spawned = s.nextOccurrenceLocked(task, now)
		}
	} else if task.Completed {
		task.Completed = false
		task.CompletedAt = nil
	}
	task.UpdatedAt = now
	s.tasks[taskID] = task
	if spawned != nil {
		s.tasks[spawned.ID] = *spawned
		s.order = append(s.order, spawned.ID)
	}
	s.mu.Unlock()

	s.committed(task, false)
	if spawned != nil {
		s.committed(*spawned, false)
	}
}

// UpdateSubtask renames a subtask.
func (s *TaskStore) UpdateSubtask(taskID, subtaskID, title string) {
	s.Update(taskID, func(t *model.Task) {
		for i := range t.Subtasks {
			if t.Subtasks[i].ID == subtaskID {
				t.Subtasks[i].Title = title
				return
			}
		}
	})
}

// DeleteSubtask removes a subtask from its parent.
func (s *TaskStore) DeleteSubtask(taskID, subtaskID string) {
	s.Update(taskID, func(t *model.Task) {
		kept := t.Subtasks[:0]
		for _, st := range t.Subtasks {
			if st.ID != subtaskID {
				kept = append(kept, st)
			}
		}
		t.Subtasks = kept
	})
}

// ApplyRemote merges the remote snapshot into the working set. Conflicts
// resolve per task by UpdatedAt; tasks with writes still queued for push are
// left untouched so local edits cannot be rolled back by a stale pull. The
// deletion sweep only touches tasks a previous pull confirmed on the remote:
// a task the remote has never acknowledged stays local no matter what.
func (s *TaskStore) ApplyRemote(remoteTasks []model.Task) {
	s.mu.Lock()
	seen := make(map[string]bool, len(remoteTasks))
	for _, rt := range remoteTasks {
		seen[rt.ID] = true
		s.synced[rt.ID] = true
		if s.queue.Has(rt.ID) {
			continue
		}
		local, exists := s.tasks[rt.ID]
		if exists && local.UpdatedAt.After(rt.UpdatedAt) {
			continue
		}
		if !exists {
			s.order = append(s.order, rt.ID)
		}
		s.tasks[rt.ID] = rt
	}
	for id := range s.tasks {
		if seen[id] || s.queue.Has(id) || !s.synced[id] {
			continue
		}
		delete(s.tasks, id)
		delete(s.synced, id)
		s.removeFromOrderLocked(id)
	}
	tasks := s.snapshotLocked()
	syncedIDs := s.syncedIDsLocked()
	s.mu.Unlock()

	s.persist(tasks)
	s.snapshot.SaveSyncedIDs(context.Background(), syncedIDs)
	s.notify()
}

// syncedIDsLocked lists the ids confirmed on the remote, in insertion order
// for stable persistence. Caller holds the lock.
func (s *TaskStore) syncedIDsLocked() []string {
	ids := make([]string, 0, len(s.synced))
	for _, id := range s.order {
		if s.synced[id] {
			ids = append(ids, id)
		}
	}
	return ids
}

// Snapshot returns a deep copy of the working set in insertion order.
func (s *TaskStore) Snapshot() []model.Task {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return model.CloneTasks(s.snapshotLocked())
}

// Get returns a copy of one task.
func (s *TaskStore) Get(id string) (model.Task, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	task, ok := s.tasks[id]
	if !ok {
		return model.Task{}, false
	}
	return task.Clone(), true
}

// Pending returns tasks not yet completed.
func (s *TaskStore) Pending() []model.Task {
	return s.filter(func(t model.Task) bool { return !t.Completed })
}

// Completed returns completed tasks.
func (s *TaskStore) Completed() []model.Task {
	return s.filter(func(t model.Task) bool { return t.Completed })
}

// ForDate returns tasks scheduled on the given day (layout 2006-01-02).
func (s *TaskStore) ForDate(date string) []model.Task {
	return s.filter(func(t model.Task) bool { return t.ScheduledDate == date })
}

// InRange returns tasks scheduled inside [from, to], inclusive. The string
// date layout sorts lexicographically so plain comparison works.
func (s *TaskStore) InRange(from, to string) []model.Task {
	return s.filter(func(t model.Task) bool {
		return t.ScheduledDate != "" && t.ScheduledDate >= from && t.ScheduledDate <= to
	})
}

// Overdue returns pending tasks scheduled before today.
func (s *TaskStore) Overdue() []model.Task {
	today := s.now().Format(model.DateLayout)
	return s.filter(func(t model.Task) bool {
		return !t.Completed && t.ScheduledDate != "" && t.ScheduledDate < today
	})
}

// ByType returns tasks of one type, preserving insertion order.
func (s *TaskStore) ByType(tt model.TaskType) []model.Task {
	return s.filter(func(t model.Task) bool { return t.Type == tt })
}

// Search matches title, notes and tags, case-insensitively.
func (s *TaskStore) Search(query string) []model.Task {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return nil
	}
	return s.filter(func(t model.Task) bool {
		if strings.Contains(strings.ToLower(t.Title), q) ||
			strings.Contains(strings.ToLower(t.Notes), q) {
			return true
		}
		for _, tag := range t.Tags {
			if strings.Contains(strings.ToLower(tag), q) {
				return true
			}
		}
		return false
	})
}

// SortedByPriority returns a copy sorted urgent-first, ties by scheduled
// date, then insertion order.
func (s *TaskStore) SortedByPriority() []model.Task {
	tasks := s.Snapshot()
	rank := map[model.Priority]int{
		model.PriorityUrgent: 0,
		model.PriorityHigh:   1,
		model.PriorityMedium: 2,
		model.PriorityLow:    3,
		"":                   4,
	}
	sort.SliceStable(tasks, func(i, j int) bool {
		if rank[tasks[i].Priority] != rank[tasks[j].Priority] {
			return rank[tasks[i].Priority] < rank[tasks[j].Priority]
		}
		return tasks[i].ScheduledDate < tasks[j].ScheduledDate
	})
	return tasks
}

func (s *TaskStore) filter(keep func(model.Task) bool) []model.Task {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []model.Task
	for _, id := range s.order {
		if t, ok := s.tasks[id]; ok && keep(t) {
			out = append(out, t.Clone())
		}
	}
	return out
}

func (s *TaskStore) snapshotLocked() []model.Task {
	out := make([]model.Task, 0, len(s.order))
	for _, id := range s.order {
		if t, ok := s.tasks[id]; ok {
			out = append(out, t)
		}
	}
	return out
}

func (s *TaskStore) removeFromOrderLocked(id string) {
	for i, existing := range s.order {
		if existing == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			return
		}
	}
}

// committed runs the persistence and remote side effects of a finished
// mutation. The in-memory write already happened; failures here only log.
func (s *TaskStore) committed(task model.Task, deleted bool) {
	s.mu.RLock()
	tasks := s.snapshotLocked()
	owner := s.ownerID
	s.mu.RUnlock()

	s.persist(tasks)
	if owner != "" {
		if deleted {
			s.queue.EnqueueDelete(owner, task.ID)
		} else {
			s.queue.EnqueueUpsert(task)
		}
	}
	s.notify()
}

func (s *TaskStore) persist(tasks []model.Task) {
	s.snapshot.Save(context.Background(), tasks)
}

func (s *TaskStore) notify() {
	s.mu.RLock()
	fn := s.onChange
	s.mu.RUnlock()
	if fn != nil {
		fn()
	}
}
