package stats

import (
	"hash/fnv"
	"strconv"
	"sync"
	"time"

	"github.com/steebapp/steebd/internal/model"
)

// Engine memoizes the summary for the UI, which asks for stats on every
// frame. The cache keys on a content hash of the snapshot plus the calendar
// day, so a new day invalidates streaks even with no edits.
type Engine struct {
	mu     sync.Mutex
	key    uint64
	cached Summary
	now    func() time.Time
}

func NewEngine() *Engine {
	return &Engine{now: time.Now}
}

// WithClock overrides the time source in tests.
func (e *Engine) WithClock(now func() time.Time) *Engine {
	e.now = now
	return e
}

// Summary returns the cached summary when the snapshot and day are
// unchanged, recomputing otherwise.
func (e *Engine) Summary(tasks []model.Task) Summary {
	today := e.now()
	key := snapshotKey(tasks, today)

	e.mu.Lock()
	defer e.mu.Unlock()
	if key == e.key && e.key != 0 {
		return e.cached
	}
	e.cached = Summarize(tasks, today)
	e.key = key
	return e.cached
}

func snapshotKey(tasks []model.Task, today time.Time) uint64 {
	h := fnv.New64a()
	h.Write([]byte(today.Format(model.DateLayout)))
	for _, t := range tasks {
		h.Write([]byte(t.ID))
		h.Write([]byte(strconv.FormatBool(t.Completed)))
		if t.CompletedAt != nil {
			h.Write([]byte(t.CompletedAt.Format(time.RFC3339)))
		}
		h.Write([]byte(t.ScheduledDate))
		h.Write([]byte(strconv.Itoa(t.ActualMinutes)))
	}
	return h.Sum64()
}
