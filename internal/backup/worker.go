// Package backup copies the persisted app keys into a separate store
// partition and restores them on demand. A dedicated worker goroutine owns
// the copies; callers talk to it through a small message protocol and never
// block past their timeout, even when the worker is wedged.
package backup

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
)

// Archiver is the storage surface the worker drives.
type Archiver interface {
	BackupKeys(ctx context.Context, keys []string) (int, error)
	RestoreKeys(ctx context.Context, keys []string) (int, error)
	LastBackupAt(ctx context.Context) (time.Time, error)
}

type msgKind int

const (
	msgBackupData msgKind = iota
	msgRestoreData
)

type request struct {
	kind  msgKind
	reply chan response
}

type response struct {
	keys int
	err  error
}

// Worker serializes backup and restore runs. Run it once in its own
// goroutine; Stop waits for the in-flight run to finish.
type Worker struct {
	archiver Archiver
	keys     []string
	interval time.Duration
	log      *logrus.Entry

	requests chan request
	stop     chan struct{}
	done     chan struct{}
}

// NewWorker protects the given keys. interval > 0 also schedules periodic
// backups; zero disables them.
func NewWorker(archiver Archiver, keys []string, interval time.Duration, logger *logrus.Logger) *Worker {
	return &Worker{
		archiver: archiver,
		keys:     keys,
		interval: interval,
		log:      logger.WithField("component", "backup"),
		requests: make(chan request),
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start launches the worker goroutine.
func (w *Worker) Start() {
	go w.run()
}

// Stop shuts the worker down.
func (w *Worker) Stop() {
	close(w.stop)
	<-w.done
}

func (w *Worker) run() {
	defer close(w.done)

	var tick <-chan time.Time
	if w.interval > 0 {
		ticker := time.NewTicker(w.interval)
		defer ticker.Stop()
		tick = ticker.C
	}

	for {
		select {
		case <-w.stop:
			// One last copy so a shutdown never loses more than the
			// current session's unticked interval.
			if _, err := w.backup(); err != nil {
				w.log.WithError(err).Warn("final backup failed")
			}
			return
		case <-tick:
			if n, err := w.backup(); err != nil {
				w.log.WithError(err).Warn("periodic backup failed")
			} else {
				w.log.WithField("keys", n).Debug("periodic backup done")
			}
		case req := <-w.requests:
			var resp response
			switch req.kind {
			case msgRestoreData:
				resp.keys, resp.err = w.restore()
			default:
				resp.keys, resp.err = w.backup()
			}
			req.reply <- resp
		}
	}
}

func (w *Worker) backup() (int, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	return w.archiver.BackupKeys(ctx, w.keys)
}

func (w *Worker) restore() (int, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	return w.archiver.RestoreKeys(ctx, w.keys)
}

// LastBackupAt reads the newest backup timestamp, bypassing the worker since
// it is a read-only query.
func (w *Worker) LastBackupAt(ctx context.Context) (time.Time, error) {
	return w.archiver.LastBackupAt(ctx)
}
