// Package scheduler surfaces in-session notifications for tasks whose
// scheduled date and time arrive while the app is open.
package scheduler

import (
	"container/heap"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/steebapp/steebd/internal/model"
)

var ErrInvalidDueTime = errors.New("scheduler: invalid due time")

// DueEvent fires when a scheduled task's time arrives.
type DueEvent struct {
	TaskID string
	Title  string
	DueAt  time.Time
}

type queueItem struct {
	event DueEvent
}

type priorityQueue []queueItem

func (pq priorityQueue) Len() int { return len(pq) }

func (pq priorityQueue) Less(i, j int) bool {
	return pq[i].event.DueAt.Before(pq[j].event.DueAt)
}

func (pq priorityQueue) Swap(i, j int) {
	pq[i], pq[j] = pq[j], pq[i]
}

func (pq *priorityQueue) Push(x any) {
	*pq = append(*pq, x.(queueItem))
}

func (pq *priorityQueue) Pop() any {
	old := *pq
	n := len(old)
	item := old[n-1]
	*pq = old[0 : n-1]
	return item
}

// Engine holds pending due times in a min-heap and emits each event on C()
// when its time comes. Events nobody is reading are counted and dropped
// rather than blocking the loop.
type Engine struct {
	mu       sync.Mutex
	queue    priorityQueue
	canceled map[string]bool
	out      chan DueEvent
	wakeup   chan struct{}
	stopCh   chan struct{}
	doneCh   chan struct{}
	started  bool
	stopped  bool
	dropped  uint64
}

func NewEngine(bufferSize int) *Engine {
	if bufferSize <= 0 {
		bufferSize = 1
	}
	return &Engine{
		queue:    make(priorityQueue, 0),
		canceled: make(map[string]bool),
		out:      make(chan DueEvent, bufferSize),
		wakeup:   make(chan struct{}, 1),
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
}

func (e *Engine) C() <-chan DueEvent {
	return e.out
}

func (e *Engine) Start() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.started {
		return
	}
	e.started = true
	heap.Init(&e.queue)
	go e.loop()
}

func (e *Engine) Stop() {
	e.mu.Lock()
	if !e.started || e.stopped {
		e.mu.Unlock()
		return
	}
	e.stopped = true
	close(e.stopCh)
	e.mu.Unlock()
	<-e.doneCh
}

// Schedule queues one due event.
func (e *Engine) Schedule(ev DueEvent) error {
	if ev.DueAt.IsZero() {
		return ErrInvalidDueTime
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.stopped {
		return errors.New("scheduler: engine stopped")
	}

	delete(e.canceled, ev.TaskID)
	heap.Push(&e.queue, queueItem{event: ev})
	e.signalWakeup()
	return nil
}

// ScheduleTask queues the event for a task with a date and time, resolving
// the due instant in the given location. Tasks without a time slot or
// already in the past are skipped.
func (e *Engine) ScheduleTask(task model.Task, loc *time.Location, now time.Time) error {
	if task.ScheduledDate == "" || task.ScheduledTime == "" || task.Completed {
		return nil
	}
	due, err := time.ParseInLocation(
		model.DateLayout+" "+model.TimeLayout,
		task.ScheduledDate+" "+task.ScheduledTime,
		loc,
	)
	if err != nil {
		return ErrInvalidDueTime
	}
	if !due.After(now) {
		return nil
	}
	return e.Schedule(DueEvent{TaskID: task.ID, Title: task.Title, DueAt: due})
}

// Cancel suppresses any queued events for the task. The heap entry stays and
// is filtered when it surfaces.
func (e *Engine) Cancel(taskID string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.canceled[taskID] = true
}

func (e *Engine) Dropped() uint64 {
	return atomic.LoadUint64(&e.dropped)
}

func (e *Engine) loop() {
	defer close(e.doneCh)
	defer close(e.out)

	var timer *time.Timer
	for {
		next, hasNext := e.peek()
		if !hasNext {
			select {
			case <-e.wakeup:
				continue
			case <-e.stopCh:
				return
			}
		}

		wait := time.Until(next.DueAt)
		if wait < 0 {
			wait = 0
		}
		timer = resetTimer(timer, wait)

		select {
		case <-timer.C:
			due := e.popDue(time.Now())
			for _, ev := range due {
				select {
				case e.out <- ev:
				default:
					atomic.AddUint64(&e.dropped, 1)
				}
			}
		case <-e.wakeup:
			continue
		case <-e.stopCh:
			if timer != nil {
				stopTimer(timer)
			}
			return
		}
	}
}

func (e *Engine) signalWakeup() {
	select {
	case e.wakeup <- struct{}{}:
	default:
	}
}

func (e *Engine) peek() (DueEvent, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if len(e.queue) == 0 {
		return DueEvent{}, false
	}
	return e.queue[0].event, true
}

func (e *Engine) popDue(now time.Time) []DueEvent {
	e.mu.Lock()
	defer e.mu.Unlock()

	out := make([]DueEvent, 0)
	for len(e.queue) > 0 {
		next := e.queue[0].event
		if next.DueAt.After(now) {
			break
		}
		item := heap.Pop(&e.queue).(queueItem)
		if e.canceled[item.event.TaskID] {
			delete(e.canceled, item.event.TaskID)
			continue
		}
		out = append(out, item.event)
	}
	return out
}

func resetTimer(timer *time.Timer, d time.Duration) *time.Timer {
	if timer == nil {
		return time.NewTimer(d)
	}
	stopTimer(timer)
	timer.Reset(d)
	return timer
}

func stopTimer(timer *time.Timer) {
	if timer == nil {
		return
	}
	if !timer.Stop() {
		select {
		case <-timer.C:
		default:
		}
	}
}
