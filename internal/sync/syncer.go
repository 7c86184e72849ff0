package sync

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/steebapp/steebd/internal/model"
	"github.com/steebapp/steebd/internal/remote"
)

// Applier receives the remote task snapshot after the outbox has been
// flushed. It owns the merge with local state.
type Applier interface {
	ApplyRemote(tasks []model.Task)
}

// Status is a point-in-time view of the sync loop for status bars and logs.
type Status struct {
	Online   bool
	LastSync time.Time
	Pending  int
	LastErr  string
}

// Syncer pushes queued local writes and pulls the remote snapshot on a fixed
// interval. A failed cycle leaves the queue intact and flips the status to
// offline until a later cycle succeeds.
type Syncer struct {
	store    remote.DocumentStore
	outbox   *Outbox
	applier  Applier
	log      *logrus.Entry
	interval time.Duration
	timeout  time.Duration
	now      func() time.Time

	mu     sync.Mutex
	status Status

	kick chan struct{}
	stop chan struct{}
	done chan struct{}
}

func NewSyncer(store remote.DocumentStore, outbox *Outbox, applier Applier, logger *logrus.Logger, interval time.Duration) *Syncer {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	return &Syncer{
		store:    store,
		outbox:   outbox,
		applier:  applier,
		log:      logger.WithField("component", "sync"),
		interval: interval,
		timeout:  30 * time.Second,
		now:      time.Now,
		kick:     make(chan struct{}, 1),
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// WithClock overrides the time source in tests.
func (s *Syncer) WithClock(now func() time.Time) *Syncer {
	s.now = now
	return s
}

// Subscribe starts the background loop for the given owner. It runs one cycle
// immediately so a fresh session converges without waiting a full interval.
func (s *Syncer) Subscribe(ownerID string) {
	go s.run(ownerID)
}

func (s *Syncer) run(ownerID string) {
	defer close(s.done)

	s.SyncOnce(ownerID)
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			s.SyncOnce(ownerID)
		case <-s.kick:
			s.SyncOnce(ownerID)
		}
	}
}

// Kick requests an immediate cycle. It never blocks; a cycle already pending
// absorbs the request.
func (s *Syncer) Kick() {
	select {
	case s.kick <- struct{}{}:
	default:
	}
}

// Stop shuts the loop down and waits for the in-flight cycle to finish.
func (s *Syncer) Stop() {
	close(s.stop)
	<-s.done
}

func (s *Syncer) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.status
	st.Pending = s.outbox.Len()
	return st
}

// SyncOnce runs a single push-then-pull cycle.
func (s *Syncer) SyncOnce(ownerID string) {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	if err := s.flush(ctx); err != nil {
		s.log.WithError(err).Warn("push failed, keeping queue")
		s.setError(err)
		return
	}

	tasks, err := s.store.ListTasks(ctx, ownerID)
	if err != nil {
		s.log.WithError(err).Warn("pull failed")
		s.setError(err)
		return
	}
	s.applier.ApplyRemote(tasks)

	s.mu.Lock()
	s.status = Status{Online: true, LastSync: s.now()}
	s.mu.Unlock()
	s.log.WithField("tasks", len(tasks)).Debug("sync cycle complete")
}

// flush pushes every queued op. The first failure requeues the op and aborts
// so the pull cannot overwrite writes that never reached the remote.
func (s *Syncer) flush(ctx context.Context) error {
	ops := s.outbox.Take()
	for i, op := range ops {
		var err error
		switch op.Kind {
		case OpDelete:
			err = s.store.DeleteTask(ctx, op.OwnerID, op.TaskID)
		default:
			err = s.store.UpsertTask(ctx, op.Task)
		}
		if err != nil {
			for _, pending := range ops[i:] {
				s.outbox.Requeue(pending)
			}
			return err
		}
	}
	return nil
}

func (s *Syncer) setError(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status.Online = false
	s.status.LastErr = err.Error()
}
